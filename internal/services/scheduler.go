package services

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler kicks off full scrape batches on a cron spec. The gate inside
// the orchestrator keeps overlapping or too-frequent triggers harmless.
type Scheduler struct {
	orchestrator *Orchestrator
	cron         *cron.Cron
}

func NewScheduler(orchestrator *Orchestrator, cronSpec string, runOnStart bool) (*Scheduler, error) {

	s := &Scheduler{
		orchestrator: orchestrator,
		cron:         cron.New(),
	}

	_, err := s.cron.AddFunc(cronSpec, s.runBatch)
	if err != nil {
		return nil, err
	}

	s.cron.Start()
	log.Infof("scheduler started with spec %q", cronSpec)

	if runOnStart {
		go s.runBatch()
	}
	return s, nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runBatch() {
	s.orchestrator.RunAll(context.Background())
}
