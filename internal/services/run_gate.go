package services

import (
	"context"
	"sync"
	"time"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

type lastCompletedProvider interface {
	LastCompleted(ctx context.Context, source models.Source) (*models.Run, error)
	LatestCompletion(ctx context.Context) (*time.Time, error)
}

// RunGate decides whether a source may start a run: at most one run per
// source at a time, and a minimum interval since the source's last
// completed run. The batch variant keys the interval on the most recent
// completion across all sources. A single in-process gate is enough,
// only one process drives the pipeline.
type RunGate struct {
	mu       sync.Mutex
	running  map[models.Source]bool
	runs     lastCompletedProvider
	interval time.Duration
	now      func() time.Time
}

func NewRunGate(runs lastCompletedProvider, interval time.Duration) *RunGate {
	return &RunGate{
		running:  make(map[models.Source]bool),
		runs:     runs,
		interval: interval,
		now:      time.Now,
	}
}

// TryAcquire reports whether a run of the source may start now. On
// rejection it has no side effect; wait tells how long until the interval
// gate would open (zero when the rejection is a held lock). On success
// the caller must call Release on every exit path.
func (g *RunGate) TryAcquire(ctx context.Context, source models.Source) (ok bool, wait time.Duration, err error) {

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running[source] {
		return false, 0, nil
	}

	last, err := g.runs.LastCompleted(ctx, source)
	if err != nil {
		return false, 0, err
	}
	if wait := g.remaining(last); wait > 0 {
		return false, wait, nil
	}

	g.running[source] = true
	return true, 0, nil
}

func (g *RunGate) Release(source models.Source) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, source)
}

// BatchWait returns how long until a full batch may run again: zero when
// allowed, otherwise the time remaining since whichever source finished
// last.
func (g *RunGate) BatchWait(ctx context.Context) (time.Duration, error) {

	latest, err := g.runs.LatestCompletion(ctx)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 0, nil
	}

	elapsed := g.now().Sub(*latest)
	if elapsed < g.interval {
		return g.interval - elapsed, nil
	}
	return 0, nil
}

// Wait previews the per-source interval gate without acquiring anything;
// the API uses it to report "time until next allowed run".
func (g *RunGate) Wait(ctx context.Context, source models.Source) (time.Duration, error) {

	last, err := g.runs.LastCompleted(ctx, source)
	if err != nil {
		return 0, err
	}
	return g.remaining(last), nil
}

func (g *RunGate) remaining(last *models.Run) time.Duration {
	if last == nil || last.EndTime == nil {
		return 0
	}
	elapsed := g.now().Sub(*last.EndTime)
	if elapsed < g.interval {
		return g.interval - elapsed
	}
	return 0
}
