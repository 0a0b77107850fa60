package api

import (
	"time"

	"github.com/samber/lo"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

type jobDTO struct {
	ID              int           `json:"id"`
	Source          models.Source `json:"source"`
	JobTitle        string        `json:"job_title"`
	Company         string        `json:"company"`
	Location        string        `json:"location"`
	JobURL          string        `json:"job_url"`
	Description     string        `json:"description"`
	Salary          string        `json:"salary"`
	JobType         string        `json:"job_type"`
	RemoteOption    string        `json:"remote_option"`
	PostedDate      string        `json:"posted_date"`
	FirstSeen       string        `json:"first_seen"`
	LastSeen        string        `json:"last_seen"`
	IsNewInLastHour bool          `json:"is_new_in_last_hour"`
}

func toJobDTO(job models.Job) jobDTO {
	return jobDTO{
		ID:              job.ID,
		Source:          job.Source,
		JobTitle:        job.Title,
		Company:         job.Company,
		Location:        job.Location,
		JobURL:          job.URL,
		Description:     job.Description,
		Salary:          job.Salary,
		JobType:         job.JobType,
		RemoteOption:    job.RemoteOption,
		PostedDate:      job.PostedDate,
		FirstSeen:       job.FirstSeen.Format(time.RFC3339),
		LastSeen:        job.LastSeen.Format(time.RFC3339),
		IsNewInLastHour: job.IsNewInLastHour,
	}
}

type runDTO struct {
	ID           int              `json:"id"`
	Source       models.Source    `json:"source"`
	StartTime    string           `json:"start_time"`
	EndTime      *string          `json:"end_time"`
	Status       models.RunStatus `json:"status"`
	JobsFound    int              `json:"jobs_found"`
	NewJobs      int              `json:"new_jobs"`
	ErrorMessage string           `json:"error_message"`
}

func toRunDTO(run models.Run) runDTO {
	dto := runDTO{
		ID:           run.ID,
		Source:       run.Source,
		StartTime:    run.StartTime.Format(time.RFC3339),
		Status:       run.Status,
		JobsFound:    run.JobsFound,
		NewJobs:      run.NewJobs,
		ErrorMessage: run.ErrorMessage,
	}
	if run.EndTime != nil {
		dto.EndTime = lo.ToPtr(run.EndTime.Format(time.RFC3339))
	}
	return dto
}

func toJobDTOs(jobs []models.Job) []jobDTO {
	return lo.Map(jobs, func(job models.Job, _ int) jobDTO { return toJobDTO(job) })
}

func toRunDTOs(runs []models.Run) []runDTO {
	return lo.Map(runs, func(run models.Run, _ int) runDTO { return toRunDTO(run) })
}

type statsResponse struct {
	TotalJobs         int64             `json:"total_jobs"`
	LinkedinJobs      int64             `json:"linkedin_jobs"`
	StepstoneJobs     int64             `json:"stepstone_jobs"`
	GlassdoorJobs     int64             `json:"glassdoor_jobs"`
	NewJobsLastHour   int64             `json:"new_jobs_last_hour"`
	LinkedinLastHour  int64             `json:"linkedin_last_hour"`
	StepstoneLastHour int64             `json:"stepstone_last_hour"`
	GlassdoorLastHour int64             `json:"glassdoor_last_hour"`
	LastRuns          map[string]*runDTO `json:"last_runs"`
	LastUpdated       string            `json:"last_updated"`
}

type jobsResponse struct {
	Source models.Source `json:"source,omitempty"`
	Count  int           `json:"count"`
	Jobs   []jobDTO      `json:"jobs"`
}

type sourceStatus struct {
	RecentRuns              []runDTO `json:"recent_runs"`
	CanRun                  bool     `json:"can_run"`
	TimeSinceLastRunMinutes *float64 `json:"time_since_last_run_minutes"`
	TimeUntilNextRunMinutes float64  `json:"time_until_next_run_minutes"`
}

type canRunEntry struct {
	CanRun                  bool    `json:"can_run"`
	TimeUntilNextRunMinutes float64 `json:"time_until_next_run_minutes"`
}

type triggerResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	Reason  string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func roundMinutes(d time.Duration) float64 {
	minutes := d.Minutes()
	return float64(int(minutes*10+0.5)) / 10
}
