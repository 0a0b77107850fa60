package scraper

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyPage = `<html><body></body></html>`

func listingPage(title, href string) string {
	return `<div class="base-card">
		<h3 class="base-search-card__title">` + title + `</h3>
		<a class="base-card__full-link" href="` + href + `"></a>
	</div>`
}

type mockPageSource struct {
	pages    map[int]string
	failures map[int]error
	requests []PageRequest
}

func (m *mockPageSource) FetchPage(_ context.Context, req PageRequest) (string, error) {
	m.requests = append(m.requests, req)
	if err, ok := m.failures[req.Page]; ok {
		return "", err
	}
	return m.pages[req.Page], nil
}

func Test_Collect_WhenPageHasNoCards_ShouldStopPagination(t *testing.T) {

	source := &mockPageSource{pages: map[int]string{
		1: listingPage("Engineer A", "/jobs/view/1"),
		2: listingPage("Engineer B", "/jobs/view/2"),
		3: emptyPage,
		4: listingPage("Engineer C", "/jobs/view/3"),
	}}

	paginator := NewPaginator(linkedinRules, source, 0)
	records := paginator.Collect(context.Background(), 5)

	assert.Len(t, records, 2)
	assert.Len(t, source.requests, 3, "pages after the empty one must not be fetched")
}

func Test_Collect_WhenFetchFails_ShouldSkipPageAndContinue(t *testing.T) {

	source := &mockPageSource{
		pages: map[int]string{
			1: listingPage("Engineer A", "/jobs/view/1"),
			3: listingPage("Engineer C", "/jobs/view/3"),
		},
		failures: map[int]error{2: errors.New("connection reset")},
	}

	paginator := NewPaginator(linkedinRules, source, 0)
	records := paginator.Collect(context.Background(), 3)

	require.Len(t, records, 2)
	assert.Equal(t, "Engineer A", records[0].Title)
	assert.Equal(t, "Engineer C", records[1].Title)
	assert.Len(t, source.requests, 3)
}

func Test_Collect_ShouldSetPageParamOnlyAfterFirstPage(t *testing.T) {

	stepstonePage := func(title, href string) string {
		return `<article class="job-item"><a href="` + href + `"><h2>` + title + `</h2></a></article>`
	}
	source := &mockPageSource{pages: map[int]string{
		1: stepstonePage("Engineer A", "/stellenangebote--A--1.html"),
		2: stepstonePage("Engineer B", "/stellenangebote--B--2.html"),
	}}

	paginator := NewPaginator(stepstoneRules, source, 0)
	paginator.Collect(context.Background(), 2)

	require.Len(t, source.requests, 2)
	assert.Empty(t, source.requests[0].Query.Get("page"))
	assert.Equal(t, "2", source.requests[1].Query.Get("page"))
	assert.Equal(t, stepstoneRules.Query.Get("q"), source.requests[0].Query.Get("q"))
}

func Test_Collect_WhenContextCanceled_ShouldStop(t *testing.T) {

	source := &mockPageSource{pages: map[int]string{}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paginator := NewPaginator(linkedinRules, source, 0)
	records := paginator.Collect(ctx, 5)

	assert.Empty(t, records)
	assert.Empty(t, source.requests)
}

func Test_Collect_ShouldDropUnusableRecords(t *testing.T) {

	// a titled card without any link extracts, but cannot enter
	// accumulation without an identity
	source := &mockPageSource{pages: map[int]string{
		1: `<div class="base-card"><h3 class="base-search-card__title">No Link</h3></div>` +
			listingPage("Engineer A", "/jobs/view/1"),
	}}

	paginator := NewPaginator(linkedinRules, source, 0)
	records := paginator.Collect(context.Background(), 1)

	require.Len(t, records, 1)
	assert.Equal(t, "Engineer A", records[0].Title)
}
