package boards

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/embedhunt/jobhunter/internal/domain/models"
	"github.com/embedhunt/jobhunter/internal/scraper"
)

type mockHTTPClient struct {
	mock.Mock
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

func htmlResponse(status int, body string) (*http.Response, error) {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}, nil
}

func Test_FetchPage_ShouldEncodeQueryAndReturnBody(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.URL.String() == "https://www.stepstone.de/jobs/embedded-hardware?ag=age_1&page=2"
	})).Return(htmlResponse(200, "<html>ok</html>"))

	client := NewClient()
	client.SetHTTPClient(mockClient)

	body, err := client.FetchPage(context.Background(), scraper.PageRequest{
		Source: models.SourceStepstone,
		URL:    "https://www.stepstone.de/jobs/embedded-hardware",
		Query:  url.Values{"ag": {"age_1"}, "page": {"2"}},
		Page:   2,
	})

	assert.NoError(err)
	assert.Equal("<html>ok</html>", body)
	mockClient.AssertExpectations(t)
}

func Test_FetchPage_ShouldSendBrowserHeaders(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
		return req.Header.Get("User-Agent") != "" &&
			req.Header.Get("Accept-Language") != "" &&
			req.Header.Get("Accept") != ""
	})).Return(htmlResponse(200, ""))

	client := NewClient()
	client.SetHTTPClient(mockClient)

	_, err := client.FetchPage(context.Background(), scraper.PageRequest{
		URL: "https://www.linkedin.com/jobs/search/",
	})

	assert.NoError(err)
	mockClient.AssertExpectations(t)
}

func Test_FetchPage_WhenStatusNotOK_ShouldReturnError(t *testing.T) {

	assert := assert.New(t)

	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(htmlResponse(429, "slow down"))

	client := NewClient()
	client.SetHTTPClient(mockClient)

	_, err := client.FetchPage(context.Background(), scraper.PageRequest{
		URL: "https://www.glassdoor.de/Job/jobs.htm",
	})

	assert.ErrorContains(err, "429")
}

func Test_FetchPage_WhenContextCanceled_ShouldRespectRateLimiter(t *testing.T) {

	assert := assert.New(t)

	client := NewClient()
	client.SetRateLimit(0.001)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// first token is available immediately, the canceled context must
	// still stop a second fetch at the limiter
	mockClient := &mockHTTPClient{}
	mockClient.On("Do", mock.Anything).Return(htmlResponse(200, ""))
	client.SetHTTPClient(mockClient)

	_, _ = client.FetchPage(context.Background(), scraper.PageRequest{URL: "https://example.com"})
	_, err := client.FetchPage(ctx, scraper.PageRequest{URL: "https://example.com"})

	assert.Error(err)
}
