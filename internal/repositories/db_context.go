package repositories

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

type DbContext struct {
	DB *gorm.DB
}

func NewDbContext(connectionString string) (*DbContext, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	return &DbContext{DB: db}, nil
}

func (c *DbContext) Migrate() error {
	err := c.DB.AutoMigrate(models.Job{})
	if err != nil {
		return fmt.Errorf("failed to migrate Job entity: %w", err)
	}

	err = c.DB.AutoMigrate(models.Run{})
	if err != nil {
		return fmt.Errorf("failed to migrate Run entity: %w", err)
	}

	// supports the "most recent completed run per source" lookup the gate
	// makes on every trigger
	if err = c.DB.Exec("CREATE INDEX IF NOT EXISTS idx_runs_source_status_end ON runs (source, status, end_time);").
		Error; err != nil {
		return fmt.Errorf("failed to create run index: %w", err)
	}

	return nil
}

func (c *DbContext) Close() error {
	db, err := c.DB.DB()
	if err != nil {
		return err
	}

	return db.Close()
}
