package events

import "github.com/embedhunt/jobhunter/internal/domain/models"

const RunCompletedTopic = "scraper:run_completed"

type RunCompleted struct {
	Source    models.Source
	JobsFound int
	NewJobs   int
}
