package repositories

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

type Jobs struct {
	db *gorm.DB
}

func NewJobsRepository(db *gorm.DB) *Jobs {
	return &Jobs{db: db}
}

// PriorBySource returns all persisted records of a source keyed by their
// canonical URL, the dedup identity.
func (j *Jobs) PriorBySource(ctx context.Context, source models.Source) (map[string]models.Job, error) {

	var jobs []models.Job
	if err := j.db.WithContext(ctx).Find(&jobs, "source = ?", source).Error; err != nil {
		return nil, err
	}

	prior := make(map[string]models.Job, len(jobs))
	for _, job := range jobs {
		prior[job.URL] = job
	}
	return prior, nil
}

// SaveRunResults applies one run's classification in a single transaction:
// clears the new-flag for every record of the source, inserts the new
// records, and refreshes last_seen on the reappeared ones. Readers observe
// either the pre-run state or the fully committed post-run state.
func (j *Jobs) SaveRunResults(ctx context.Context, source models.Source,
	inserts []models.Job, refreshKeys []string, now time.Time) error {

	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		if err := tx.Model(&models.Job{}).
			Where("source = ?", source).
			Update("is_new_in_last_hour", false).Error; err != nil {
			return err
		}

		if len(inserts) > 0 {
			if err := tx.Create(&inserts).Error; err != nil {
				return err
			}
		}

		if len(refreshKeys) > 0 {
			if err := tx.Model(&models.Job{}).
				Where("source = ? AND url IN ?", source, refreshKeys).
				Update("last_seen", now).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

type JobFilter struct {
	Source  models.Source // empty matches all sources
	OnlyNew bool
	Limit   int
}

// Query returns jobs matching the filter, newest first by first_seen.
func (j *Jobs) Query(ctx context.Context, filter JobFilter) ([]models.Job, error) {

	query := j.db.WithContext(ctx).Order("first_seen DESC")
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.OnlyNew {
		query = query.Where("is_new_in_last_hour = ?", true)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var jobs []models.Job
	if err := query.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (j *Jobs) Count(ctx context.Context, filter JobFilter) (int64, error) {

	query := j.db.WithContext(ctx).Model(&models.Job{})
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.OnlyNew {
		query = query.Where("is_new_in_last_hour = ?", true)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (j *Jobs) CountFirstSeenSince(ctx context.Context, since time.Time) (int64, error) {

	var count int64
	err := j.db.WithContext(ctx).Model(&models.Job{}).
		Where("first_seen >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
