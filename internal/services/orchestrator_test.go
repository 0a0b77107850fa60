package services

import (
	"context"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/embedhunt/jobhunter/internal/domain/models"
	"github.com/embedhunt/jobhunter/internal/events"
)

type mockCollector struct {
	records []models.PartialRecord
}

func (m *mockCollector) Collect(_ context.Context, _ int) []models.PartialRecord {
	return m.records
}

type mockJobsRepo struct {
	mock.Mock
}

func (m *mockJobsRepo) PriorBySource(ctx context.Context, source models.Source) (map[string]models.Job, error) {
	args := m.Called(ctx, source)
	return args.Get(0).(map[string]models.Job), args.Error(1)
}

func (m *mockJobsRepo) SaveRunResults(ctx context.Context, source models.Source,
	inserts []models.Job, refreshKeys []string, now time.Time) error {
	return m.Called(ctx, source, inserts, refreshKeys, now).Error(0)
}

type mockRunsRepo struct {
	mock.Mock
}

func (m *mockRunsRepo) Create(ctx context.Context, run *models.Run) error {
	return m.Called(ctx, run).Error(0)
}

func (m *mockRunsRepo) Finalize(ctx context.Context, run *models.Run) error {
	return m.Called(ctx, run).Error(0)
}

func newTestOrchestrator(gate *RunGate, collector pageCollector,
	jobs *mockJobsRepo, runs *mockRunsRepo, bus EventBus.Bus) *Orchestrator {

	runners := []SourceRunner{
		{Source: models.SourceLinkedin, Collector: collector, MaxPages: 1},
		{Source: models.SourceStepstone, Collector: collector, MaxPages: 5},
		{Source: models.SourceGlassdoor, Collector: collector, MaxPages: 1},
	}
	return NewOrchestrator(gate, runners, jobs, runs, bus)
}

func openGate() *RunGate {
	return NewRunGate(&mockRunsProvider{lastBySource: map[models.Source]*models.Run{}}, time.Hour)
}

func Test_RunSource_ShouldPersistAndFinalizeCompletedRun(t *testing.T) {

	collector := &mockCollector{records: []models.PartialRecord{
		{Title: "Engineer A", URL: "https://example.com/a"},
		{Title: "Engineer B", URL: "https://example.com/b"},
	}}

	jobs := &mockJobsRepo{}
	jobs.On("PriorBySource", mock.Anything, models.SourceLinkedin).
		Return(map[string]models.Job{"https://example.com/b": {URL: "https://example.com/b"}}, nil)
	jobs.On("SaveRunResults", mock.Anything, models.SourceLinkedin,
		mock.MatchedBy(func(inserts []models.Job) bool { return len(inserts) == 1 }),
		[]string{"https://example.com/b"}, mock.Anything).Return(nil)

	runs := &mockRunsRepo{}
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Finalize", mock.Anything, mock.Anything).Return(nil)

	bus := EventBus.New()
	var published []events.RunCompleted
	err := bus.Subscribe(events.RunCompletedTopic, func(e events.RunCompleted) {
		published = append(published, e)
	})
	require.NoError(t, err)

	orchestrator := newTestOrchestrator(openGate(), collector, jobs, runs, bus)
	result := orchestrator.RunSource(context.Background(), models.SourceLinkedin)

	require.NoError(t, result.Err)
	assert.False(t, result.Skipped)
	require.NotNil(t, result.Run)
	assert.Equal(t, models.RunCompleted, result.Run.Status)
	assert.Equal(t, 2, result.Run.JobsFound)
	assert.Equal(t, 1, result.Run.NewJobs)
	assert.NotNil(t, result.Run.EndTime)

	bus.WaitAsync()
	require.Len(t, published, 1)
	assert.Equal(t, models.SourceLinkedin, published[0].Source)
	assert.Equal(t, 2, published[0].JobsFound)
	assert.Equal(t, 1, published[0].NewJobs)

	jobs.AssertExpectations(t)
	runs.AssertExpectations(t)
}

func Test_RunSource_WhenGateRejects_ShouldSkipWithoutRunRecord(t *testing.T) {

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	provider := &mockRunsProvider{lastBySource: map[models.Source]*models.Run{
		models.SourceStepstone: completedRun(models.SourceStepstone, now.Add(-30*time.Minute)),
	}}
	gate := NewRunGate(provider, time.Hour)
	gate.now = func() time.Time { return now }

	jobs := &mockJobsRepo{}
	runs := &mockRunsRepo{}

	orchestrator := newTestOrchestrator(gate, &mockCollector{}, jobs, runs, EventBus.New())
	result := orchestrator.RunSource(context.Background(), models.SourceStepstone)

	assert.True(t, result.Skipped)
	assert.Equal(t, 30*time.Minute, result.Wait)
	assert.Nil(t, result.Run)
	runs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func Test_RunSource_WhenPersistFails_ShouldFinalizeRunAsFailed(t *testing.T) {

	collector := &mockCollector{records: []models.PartialRecord{
		{Title: "Engineer A", URL: "https://example.com/a"},
	}}

	jobs := &mockJobsRepo{}
	jobs.On("PriorBySource", mock.Anything, mock.Anything).
		Return(map[string]models.Job{}, nil)
	jobs.On("SaveRunResults", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("disk full"))

	runs := &mockRunsRepo{}
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Finalize", mock.Anything, mock.MatchedBy(func(run *models.Run) bool {
		return run.Status == models.RunFailed && run.ErrorMessage != "" && run.EndTime != nil
	})).Return(nil)

	orchestrator := newTestOrchestrator(openGate(), collector, jobs, runs, EventBus.New())
	result := orchestrator.RunSource(context.Background(), models.SourceGlassdoor)

	require.Error(t, result.Err)
	require.NotNil(t, result.Run)
	assert.Equal(t, models.RunFailed, result.Run.Status)
	assert.Contains(t, result.Run.ErrorMessage, "disk full")
	runs.AssertExpectations(t)
}

func Test_RunSource_AfterFailure_ShouldReleaseGate(t *testing.T) {

	jobs := &mockJobsRepo{}
	jobs.On("PriorBySource", mock.Anything, mock.Anything).
		Return(map[string]models.Job{}, errors.New("db locked"))

	runs := &mockRunsRepo{}
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Finalize", mock.Anything, mock.Anything).Return(nil)

	gate := openGate()
	orchestrator := newTestOrchestrator(gate, &mockCollector{}, jobs, runs, EventBus.New())

	result := orchestrator.RunSource(context.Background(), models.SourceLinkedin)
	require.Error(t, result.Err)

	ok, _, err := gate.TryAcquire(context.Background(), models.SourceLinkedin)
	require.NoError(t, err)
	assert.True(t, ok, "the gate must be released after a failed run")
}

func Test_RunAll_ShouldRunSourcesInFixedOrder(t *testing.T) {

	jobs := &mockJobsRepo{}
	jobs.On("PriorBySource", mock.Anything, mock.Anything).
		Return(map[string]models.Job{}, nil)
	jobs.On("SaveRunResults", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	var order []models.Source
	runs := &mockRunsRepo{}
	runs.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			order = append(order, args.Get(1).(*models.Run).Source)
		}).Return(nil)
	runs.On("Finalize", mock.Anything, mock.Anything).Return(nil)

	orchestrator := newTestOrchestrator(openGate(), &mockCollector{}, jobs, runs, EventBus.New())
	results := orchestrator.RunAll(context.Background())

	require.Len(t, results, 3)
	assert.Equal(t, []models.Source{
		models.SourceLinkedin, models.SourceStepstone, models.SourceGlassdoor,
	}, order)
}

func Test_RunAll_WhenBatchIntervalNotElapsed_ShouldSkipEverySource(t *testing.T) {

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	latest := now.Add(-5 * time.Minute)
	gate := NewRunGate(&mockRunsProvider{latest: &latest}, time.Hour)
	gate.now = func() time.Time { return now }

	runs := &mockRunsRepo{}
	orchestrator := newTestOrchestrator(gate, &mockCollector{}, &mockJobsRepo{}, runs, EventBus.New())

	results := orchestrator.RunAll(context.Background())

	require.Len(t, results, 3)
	for _, result := range results {
		assert.True(t, result.Skipped)
		assert.Equal(t, 55*time.Minute, result.Wait)
	}
	runs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func Test_RunAll_WhenOneSourceFails_ShouldStillRunTheRest(t *testing.T) {

	jobs := &mockJobsRepo{}
	jobs.On("PriorBySource", mock.Anything, models.SourceStepstone).
		Return(map[string]models.Job{}, errors.New("db locked"))
	jobs.On("PriorBySource", mock.Anything, mock.Anything).
		Return(map[string]models.Job{}, nil)
	jobs.On("SaveRunResults", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	runs := &mockRunsRepo{}
	runs.On("Create", mock.Anything, mock.Anything).Return(nil)
	runs.On("Finalize", mock.Anything, mock.Anything).Return(nil)

	orchestrator := newTestOrchestrator(openGate(), &mockCollector{}, jobs, runs, EventBus.New())
	results := orchestrator.RunAll(context.Background())

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)
}
