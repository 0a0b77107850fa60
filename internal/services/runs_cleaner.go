package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

type runCleanupRepository interface {
	RemoveOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type RunsCleaner struct {
	runs            runCleanupRepository
	cron            *cron.Cron
	retentionInDays int
}

func NewRunsCleaner(runs runCleanupRepository, retentionInDays int) (*RunsCleaner, error) {

	if retentionInDays <= 0 {
		return nil, errors.New("retention in days must be greater than zero")
	}

	rc := &RunsCleaner{
		runs:            runs,
		cron:            cron.New(),
		retentionInDays: retentionInDays,
	}

	_, err := rc.cron.AddFunc("0 0 * * *", rc.cleanOldRuns)
	if err != nil {
		return nil, err
	}

	rc.cron.Start()
	log.Infof("runs cleaner started, retention in days: %d", rc.retentionInDays)
	return rc, nil
}

func (rc *RunsCleaner) Stop() {
	rc.cron.Stop()
}

func (rc *RunsCleaner) cleanOldRuns() {
	cutoff := time.Now().Add(-time.Duration(rc.retentionInDays) * 24 * time.Hour)
	rowsAffected, err := rc.runs.RemoveOlderThan(context.Background(), cutoff)
	if err != nil {
		log.Errorf("failed to clean old runs: %v", err)
	} else {
		log.Infof("old runs were cleaned at %v, affected rows: %v", time.Now(), rowsAffected)
	}
}
