package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/asaskevich/EventBus"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/embedhunt/jobhunter/internal/domain/models"
	"github.com/embedhunt/jobhunter/internal/events"
	"github.com/embedhunt/jobhunter/internal/logger"
	"github.com/embedhunt/jobhunter/internal/repositories"
	"github.com/embedhunt/jobhunter/internal/services"
)

const statsCacheKey = "stats"

type jobsReader interface {
	Query(ctx context.Context, filter repositories.JobFilter) ([]models.Job, error)
	Count(ctx context.Context, filter repositories.JobFilter) (int64, error)
	CountFirstSeenSince(ctx context.Context, since time.Time) (int64, error)
}

type runsReader interface {
	Recent(ctx context.Context, source models.Source, limit int) ([]models.Run, error)
	LastCompleted(ctx context.Context, source models.Source) (*models.Run, error)
}

type runGate interface {
	Wait(ctx context.Context, source models.Source) (time.Duration, error)
	BatchWait(ctx context.Context) (time.Duration, error)
}

type runTrigger interface {
	RunSource(ctx context.Context, source models.Source) services.RunResult
	RunAll(ctx context.Context) []services.RunResult
}

type Handler struct {
	jobs    jobsReader
	runs    runsReader
	gate    runGate
	trigger runTrigger
	cache   *gocache.Cache
	now     func() time.Time
}

func NewHandler(bus EventBus.Bus, jobs jobsReader, runs runsReader,
	gate runGate, trigger runTrigger) (*Handler, error) {

	h := &Handler{
		jobs:    jobs,
		runs:    runs,
		gate:    gate,
		trigger: trigger,
		cache:   gocache.New(time.Minute, 5*time.Minute),
		now:     time.Now,
	}

	err := bus.Subscribe(events.RunCompletedTopic, h.onRunCompleted)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// onRunCompleted drops the cached stats so the next read reflects the run
// that just finished instead of waiting out the TTL.
func (h *Handler) onRunCompleted(_ events.RunCompleted) {
	h.cache.Delete(statsCacheKey)
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {

	if cached, found := h.cache.Get(statsCacheKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	stats, err := h.buildStats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.cache.Set(statsCacheKey, stats, gocache.DefaultExpiration)
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) buildStats(ctx context.Context) (*statsResponse, error) {

	stats := &statsResponse{
		LastRuns:    make(map[string]*runDTO, len(models.AllSources)),
		LastUpdated: h.now().UTC().Format(time.RFC3339),
	}

	var err error
	if stats.TotalJobs, err = h.jobs.Count(ctx, repositories.JobFilter{}); err != nil {
		return nil, err
	}

	perSource := map[models.Source]*int64{
		models.SourceLinkedin:  &stats.LinkedinJobs,
		models.SourceStepstone: &stats.StepstoneJobs,
		models.SourceGlassdoor: &stats.GlassdoorJobs,
	}
	perSourceNew := map[models.Source]*int64{
		models.SourceLinkedin:  &stats.LinkedinLastHour,
		models.SourceStepstone: &stats.StepstoneLastHour,
		models.SourceGlassdoor: &stats.GlassdoorLastHour,
	}

	for _, source := range models.AllSources {
		if *perSource[source], err = h.jobs.Count(ctx, repositories.JobFilter{Source: source}); err != nil {
			return nil, err
		}
		if *perSourceNew[source], err = h.jobs.Count(ctx,
			repositories.JobFilter{Source: source, OnlyNew: true}); err != nil {
			return nil, err
		}

		recent, err := h.runs.Recent(ctx, source, 1)
		if err != nil {
			return nil, err
		}
		if len(recent) > 0 {
			dto := toRunDTO(recent[0])
			stats.LastRuns[string(source)] = &dto
		} else {
			stats.LastRuns[string(source)] = nil
		}
	}

	oneHourAgo := h.now().Add(-time.Hour)
	if stats.NewJobsLastHour, err = h.jobs.CountFirstSeenSince(ctx, oneHourAgo); err != nil {
		return nil, err
	}

	return stats, nil
}

// getJobsBySource returns only the records flagged new in the source's
// last run, newest first.
func (h *Handler) getJobsBySource(w http.ResponseWriter, r *http.Request) {

	source, err := models.ToSource(r.PathValue("source"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid source"})
		return
	}

	jobs, err := h.jobs.Query(r.Context(), repositories.JobFilter{Source: source, OnlyNew: true})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobsResponse{
		Source: source,
		Count:  len(jobs),
		Jobs:   toJobDTOs(jobs),
	})
}

func (h *Handler) getAllJobs(w http.ResponseWriter, r *http.Request) {

	jobs, err := h.jobs.Query(r.Context(), repositories.JobFilter{Limit: 1000})
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, jobsResponse{
		Count: len(jobs),
		Jobs:  toJobDTOs(jobs),
	})
}

func (h *Handler) getScraperStatus(w http.ResponseWriter, r *http.Request) {

	status := make(map[string]sourceStatus, len(models.AllSources))

	for _, source := range models.AllSources {
		runs, err := h.runs.Recent(r.Context(), source, 5)
		if err != nil {
			h.writeError(w, err)
			return
		}

		last, err := h.runs.LastCompleted(r.Context(), source)
		if err != nil {
			h.writeError(w, err)
			return
		}

		wait, err := h.gate.Wait(r.Context(), source)
		if err != nil {
			h.writeError(w, err)
			return
		}

		entry := sourceStatus{
			RecentRuns:              toRunDTOs(runs),
			CanRun:                  wait == 0,
			TimeUntilNextRunMinutes: roundMinutes(wait),
		}
		if last != nil && last.EndTime != nil {
			since := roundMinutes(h.now().Sub(*last.EndTime))
			entry.TimeSinceLastRunMinutes = &since
		}
		status[string(source)] = entry
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) getCanRun(w http.ResponseWriter, r *http.Request) {

	result := make(map[string]canRunEntry, len(models.AllSources)+1)

	for _, source := range models.AllSources {
		wait, err := h.gate.Wait(r.Context(), source)
		if err != nil {
			h.writeError(w, err)
			return
		}
		result[string(source)] = canRunEntry{
			CanRun:                  wait == 0,
			TimeUntilNextRunMinutes: roundMinutes(wait),
		}
	}

	batchWait, err := h.gate.BatchWait(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	result["all"] = canRunEntry{
		CanRun:                  batchWait == 0,
		TimeUntilNextRunMinutes: roundMinutes(batchWait),
	}

	writeJSON(w, http.StatusOK, result)
}

// triggerScraper starts a run in the background. The gate is previewed
// here to answer with 429 right away; the background run re-checks it, so
// a racing trigger is still rejected safely.
func (h *Handler) triggerScraper(w http.ResponseWriter, r *http.Request) {

	target := r.PathValue("source")
	if target == "all" {
		h.triggerAll(w, r)
		return
	}

	source, err := models.ToSource(target)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid source"})
		return
	}

	wait, err := h.gate.Wait(r.Context(), source)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if wait > 0 {
		writeJSON(w, http.StatusTooManyRequests, triggerResponse{
			Message: fmt.Sprintf("Cannot run %s scraper yet", source),
			Status:  "skipped",
			Reason: fmt.Sprintf("Less than 1 hour since last run. Wait %.1f more minutes.",
				wait.Minutes()),
		})
		return
	}

	go h.trigger.RunSource(context.Background(), source)

	writeJSON(w, http.StatusOK, triggerResponse{
		Message: fmt.Sprintf("Scraper triggered for %s", source),
		Status:  "running",
	})
}

func (h *Handler) triggerAll(w http.ResponseWriter, r *http.Request) {

	wait, err := h.gate.BatchWait(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if wait > 0 {
		writeJSON(w, http.StatusTooManyRequests, triggerResponse{
			Message: "Cannot run scrapers yet",
			Status:  "skipped",
			Reason: fmt.Sprintf("Less than 1 hour since last batch completion. Wait %.1f more minutes.",
				wait.Minutes()),
		})
		return
	}

	go h.trigger.RunAll(context.Background())

	writeJSON(w, http.StatusOK, triggerResponse{
		Message: "Scraper triggered for all",
		Status:  "running",
	})
}

// writeError hides the failure detail from clients; the log keeps it.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).Errorf("api request failed: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

