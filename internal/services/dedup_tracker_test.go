package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedhunt/jobhunter/internal/domain/models"
)

func partial(title, url string) models.PartialRecord {
	return models.PartialRecord{Title: title, URL: url}
}

func Test_Classify_WhenAllRecordsUnseen_ShouldInsertAllAsNew(t *testing.T) {

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	batch := []models.PartialRecord{
		partial("Engineer A", "https://example.com/a"),
		partial("Engineer B", "https://example.com/b"),
	}

	cls := Classify(models.SourceLinkedin, batch, map[string]models.Job{}, now)

	assert.Equal(t, 2, cls.Found)
	assert.Equal(t, 2, cls.New)
	require.Len(t, cls.Inserts, 2)
	assert.Empty(t, cls.RefreshKeys)

	first := cls.Inserts[0]
	assert.Equal(t, models.SourceLinkedin, first.Source)
	assert.Equal(t, now, first.FirstSeen)
	assert.Equal(t, now, first.LastSeen)
	assert.True(t, first.IsNewInLastHour)
}

func Test_Classify_WhenBatchRepeatsPriorRun_ShouldOnlyRefresh(t *testing.T) {

	firstRun := time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC)
	secondRun := firstRun.Add(time.Hour)

	batch := []models.PartialRecord{
		partial("Engineer A", "https://example.com/a"),
		partial("Engineer B", "https://example.com/b"),
	}

	cls := Classify(models.SourceStepstone, batch, map[string]models.Job{}, firstRun)
	require.Equal(t, 2, cls.New)

	prior := make(map[string]models.Job, len(cls.Inserts))
	for _, job := range cls.Inserts {
		prior[job.URL] = job
	}

	again := Classify(models.SourceStepstone, batch, prior, secondRun)

	assert.Equal(t, 2, again.Found)
	assert.Equal(t, 0, again.New)
	assert.Empty(t, again.Inserts)
	assert.ElementsMatch(t,
		[]string{"https://example.com/a", "https://example.com/b"}, again.RefreshKeys)
}

func Test_Classify_WhenURLRepeatsWithinBatch_ShouldCountOnce(t *testing.T) {

	batch := []models.PartialRecord{
		partial("Engineer A", "https://example.com/a"),
		partial("Engineer A (page 2)", "https://example.com/a"),
	}

	cls := Classify(models.SourceGlassdoor, batch, map[string]models.Job{}, time.Now())

	assert.Equal(t, 1, cls.Found)
	require.Len(t, cls.Inserts, 1)
	assert.Equal(t, "Engineer A", cls.Inserts[0].Title)
}

func Test_Classify_ShouldDropUnusableRecords(t *testing.T) {

	batch := []models.PartialRecord{
		partial("", "https://example.com/untitled"),
		partial(models.FieldUnknown, "https://example.com/unknown-title"),
		partial("No identity", ""),
		partial("Engineer A", "https://example.com/a"),
	}

	cls := Classify(models.SourceLinkedin, batch, map[string]models.Job{}, time.Now())

	assert.Equal(t, 1, cls.Found)
	assert.Equal(t, 1, cls.New)
}

func Test_Classify_WhenRecordReappears_ShouldNotReflagAsNew(t *testing.T) {

	prior := map[string]models.Job{
		"https://example.com/a": {URL: "https://example.com/a", IsNewInLastHour: false},
	}
	batch := []models.PartialRecord{partial("Engineer A", "https://example.com/a")}

	cls := Classify(models.SourceLinkedin, batch, prior, time.Now())

	assert.Empty(t, cls.Inserts)
	assert.Equal(t, []string{"https://example.com/a"}, cls.RefreshKeys)
}
