package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

type Runs struct {
	db *gorm.DB
}

func NewRunsRepository(db *gorm.DB) *Runs {
	return &Runs{db: db}
}

func (r *Runs) Create(ctx context.Context, run *models.Run) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Finalize persists the run's terminal state. Runs are immutable after
// this; callers must not finalize twice.
func (r *Runs) Finalize(ctx context.Context, run *models.Run) error {
	return r.db.WithContext(ctx).Model(&models.Run{}).Where("id = ?", run.ID).
		Updates(map[string]any{
			"end_time":      run.EndTime,
			"status":        run.Status,
			"jobs_found":    run.JobsFound,
			"new_jobs":      run.NewJobs,
			"error_message": run.ErrorMessage,
		}).Error
}

// LastCompleted returns the most recent completed run of a source, or nil
// when the source never completed a run.
func (r *Runs) LastCompleted(ctx context.Context, source models.Source) (*models.Run, error) {

	var run models.Run
	err := r.db.WithContext(ctx).
		Where("source = ? AND status = ?", source, models.RunCompleted).
		Order("end_time DESC").
		First(&run).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// LatestCompletion returns the newest completion timestamp across all
// sources, or nil when no run ever completed. The batch gate keys on it.
func (r *Runs) LatestCompletion(ctx context.Context) (*time.Time, error) {

	var run models.Run
	err := r.db.WithContext(ctx).
		Where("status = ?", models.RunCompleted).
		Order("end_time DESC").
		First(&run).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return run.EndTime, nil
}

func (r *Runs) Recent(ctx context.Context, source models.Source, limit int) ([]models.Run, error) {

	var runs []models.Run
	err := r.db.WithContext(ctx).
		Where("source = ?", source).
		Order("start_time DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *Runs) RemoveOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.Run{}, "start_time < ?", cutoff)
	return res.RowsAffected, res.Error
}
