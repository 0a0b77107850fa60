package services

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/embedhunt/jobhunter/internal/domain/models"
	"github.com/embedhunt/jobhunter/internal/events"
	"github.com/embedhunt/jobhunter/internal/logger"
	"github.com/embedhunt/jobhunter/internal/metrics"
)

type pageCollector interface {
	Collect(ctx context.Context, maxPages int) []models.PartialRecord
}

type jobsRepository interface {
	PriorBySource(ctx context.Context, source models.Source) (map[string]models.Job, error)
	SaveRunResults(ctx context.Context, source models.Source,
		inserts []models.Job, refreshKeys []string, now time.Time) error
}

type runsRepository interface {
	Create(ctx context.Context, run *models.Run) error
	Finalize(ctx context.Context, run *models.Run) error
}

// SourceRunner couples one source's collector with its page budget.
type SourceRunner struct {
	Source    models.Source
	Collector pageCollector
	MaxPages  int
}

// RunResult is the caller-facing outcome of a run trigger: either a
// skipped gate rejection with the remaining wait, or the finalized run
// record (whose status tells success from failure).
type RunResult struct {
	Source  models.Source
	Skipped bool
	Wait    time.Duration
	Run     *models.Run
	Err     error
}

// Orchestrator sequences collection, dedup classification and persistence
// for one source or the whole batch. It is the only component with side
// effects beyond returning data.
type Orchestrator struct {
	gate    *RunGate
	runners []SourceRunner
	jobs    jobsRepository
	runs    runsRepository
	bus     EventBus.Bus
	now     func() time.Time
}

func NewOrchestrator(gate *RunGate, runners []SourceRunner,
	jobs jobsRepository, runs runsRepository, bus EventBus.Bus) *Orchestrator {

	return &Orchestrator{
		gate:    gate,
		runners: runners,
		jobs:    jobs,
		runs:    runs,
		bus:     bus,
		now:     time.Now,
	}
}

// RunSource runs one source's pipeline behind the gate. A gate rejection
// is a normal outcome, not an error.
func (o *Orchestrator) RunSource(ctx context.Context, source models.Source) RunResult {

	ok, wait, err := o.gate.TryAcquire(ctx, source)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to check run gate for %s: %v", source, err)
		return RunResult{Source: source, Err: err}
	}
	if !ok {
		log.Infof("%s: run skipped, wait %v before the next allowed run", source, wait)
		return RunResult{Source: source, Skipped: true, Wait: wait}
	}
	defer o.gate.Release(source)

	run, err := o.runOne(ctx, source)
	return RunResult{Source: source, Run: run, Err: err}
}

// RunAll runs every source sequentially in fixed order, gated as a batch
// on the most recent completion across sources. One source's failure does
// not block the rest of the batch.
func (o *Orchestrator) RunAll(ctx context.Context) []RunResult {

	wait, err := o.gate.BatchWait(ctx)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to check batch gate: %v", err)
		return nil
	}
	if wait > 0 {
		log.Infof("batch skipped, wait %v since the last batch completion", wait)
		results := make([]RunResult, 0, len(o.runners))
		for _, runner := range o.runners {
			results = append(results, RunResult{Source: runner.Source, Skipped: true, Wait: wait})
		}
		return results
	}

	log.Infof("running all scrapers at %v", o.now())
	var results []RunResult
	for _, runner := range o.runners {
		results = append(results, o.RunSource(ctx, runner.Source))
	}
	log.Info("scraper batch finished")
	return results
}

func (o *Orchestrator) runOne(ctx context.Context, source models.Source) (*models.Run, error) {

	runner, err := o.runnerFor(source)
	if err != nil {
		return nil, err
	}

	startTime := o.now()
	run := models.NewRun(source, startTime)
	if err := o.runs.Create(ctx, run); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to create run record for %s: %v", source, err)
		return nil, err
	}

	log.Infof("%s: run started", source)
	records := runner.Collector.Collect(ctx, runner.MaxPages)

	if err := ctx.Err(); err != nil {
		return run, o.finalizeFailed(run, errors.Wrap(err, "collection aborted"))
	}

	prior, err := o.jobs.PriorBySource(ctx, source)
	if err != nil {
		return run, o.finalizeFailed(run, errors.Wrap(err, "failed to load prior records"))
	}

	now := o.now()
	cls := Classify(source, records, prior, now)

	if err := o.jobs.SaveRunResults(ctx, source, cls.Inserts, cls.RefreshKeys, now); err != nil {
		return run, o.finalizeFailed(run, errors.Wrap(err, "failed to persist run results"))
	}

	endTime := o.now()
	run.EndTime = &endTime
	run.Status = models.RunCompleted
	run.JobsFound = cls.Found
	run.NewJobs = cls.New
	if err := o.runs.Finalize(ctx, run); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to finalize run for %s: %v", source, err)
		return run, err
	}

	metrics.RunsCounter.WithLabelValues(string(source), string(models.RunCompleted)).Inc()
	metrics.RunDuration.WithLabelValues(string(source)).Observe(endTime.Sub(startTime).Seconds())
	metrics.JobsFoundCounter.WithLabelValues(string(source)).Add(float64(cls.Found))
	metrics.NewJobsCounter.WithLabelValues(string(source)).Add(float64(cls.New))

	o.bus.Publish(events.RunCompletedTopic, events.RunCompleted{
		Source:    source,
		JobsFound: cls.Found,
		NewJobs:   cls.New,
	})

	log.Infof("%s: run completed, %d jobs found, %d new", source, cls.Found, cls.New)
	return run, nil
}

// finalizeFailed ends the run as failed with the failure detail; job
// records stay untouched, the persistence step is all-or-nothing.
func (o *Orchestrator) finalizeFailed(run *models.Run, cause error) error {

	endTime := o.now()
	run.EndTime = &endTime
	run.Status = models.RunFailed
	run.ErrorMessage = cause.Error()

	metrics.RunsCounter.WithLabelValues(string(run.Source), string(models.RunFailed)).Inc()
	log.Errorf("%s: run failed: %v", run.Source, cause)

	if err := o.runs.Finalize(context.Background(), run); err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeDb).
			Errorf("failed to finalize failed run for %s: %v", run.Source, err)
	}
	return cause
}

func (o *Orchestrator) runnerFor(source models.Source) (*SourceRunner, error) {
	for i := range o.runners {
		if o.runners[i].Source == source {
			return &o.runners[i], nil
		}
	}
	return nil, errors.Errorf("no runner configured for source %q", source)
}
