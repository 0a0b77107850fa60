package services

import (
	"time"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

// Classification is the staged outcome of deduplicating one run's batch
// against the persisted records. The new-flag clearing for all of the
// source's existing records is part of the same persisted step; records
// absent from the batch are otherwise left untouched, since absence from
// one page-limited crawl does not mean the listing disappeared.
type Classification struct {
	Inserts     []models.Job
	RefreshKeys []string

	// Found counts the batch after dropping records without an identity
	// key or title; New equals len(Inserts).
	Found int
	New   int
}

// Classify splits the incoming batch into genuinely new records and
// reappearances of known ones, by canonical URL. New records get both
// timestamps set to now and the new-flag raised; reappearances only
// refresh last_seen and are never re-flagged. Classifying the same batch
// twice against the persisted result yields zero inserts the second time.
func Classify(source models.Source, batch []models.PartialRecord,
	prior map[string]models.Job, now time.Time) Classification {

	var cls Classification
	seen := make(map[string]bool, len(batch))

	for _, record := range batch {
		if !record.Usable() {
			continue
		}
		if seen[record.URL] {
			// the same listing can appear on more than one result page
			continue
		}
		seen[record.URL] = true
		cls.Found++

		if _, exists := prior[record.URL]; exists {
			cls.RefreshKeys = append(cls.RefreshKeys, record.URL)
			continue
		}

		cls.Inserts = append(cls.Inserts, models.Job{
			Source:          source,
			Title:           record.Title,
			Company:         record.Company,
			Location:        record.Location,
			Salary:          record.Salary,
			JobType:         record.JobType,
			RemoteOption:    record.RemoteOption,
			PostedDate:      record.PostedDate,
			Description:     record.Description,
			URL:             record.URL,
			FirstSeen:       now,
			LastSeen:        now,
			IsNewInLastHour: true,
		})
	}

	cls.New = len(cls.Inserts)
	return cls
}
