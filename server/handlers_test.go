package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akarpovich/newsbrief/pkg/domain"
	"github.com/akarpovich/newsbrief/pkg/store"
)

type fakeBriefer struct {
	question string
	answer   string
	sources  []domain.SourceCitation
}

func (f *fakeBriefer) Answer(_ context.Context, question string) (string, []domain.SourceCitation) {
	f.question = question
	return f.answer, f.sources
}

type fakeNews struct {
	topic    string
	hours    int
	articles []domain.Article
	topics   []domain.Topic
}

func (f *fakeNews) FetchNews(_ context.Context, topic string, hours int) []domain.Article {
	f.topic = topic
	f.hours = hours
	return f.articles
}

func (f *fakeNews) Topics() []domain.Topic { return f.topics }

type fakeCache struct{ cleared bool }

func (f *fakeCache) Clear() { f.cleared = true }

type fakeHistorian struct {
	query string
	limit int
	rows  []store.ArchivedArticle
	err   error
}

func (f *fakeHistorian) History(_ context.Context, query string, limit int) ([]store.ArchivedArticle, error) {
	f.query = query
	f.limit = limit
	return f.rows, f.err
}

type fakeConfig struct{}

func (fakeConfig) GetServerConfig() (string, time.Duration) { return ":0", time.Minute }

type serverFixture struct {
	srv       *Server
	briefer   *fakeBriefer
	news      *fakeNews
	cache     *fakeCache
	historian *fakeHistorian
}

func newFixture(withHistorian bool) *serverFixture {
	f := &serverFixture{
		briefer:   &fakeBriefer{answer: "the briefing"},
		news:      &fakeNews{topics: []domain.Topic{domain.TopicCricket, domain.TopicDefault}},
		cache:     &fakeCache{},
		historian: &fakeHistorian{},
	}
	var historian Historian
	if withHistorian {
		historian = f.historian
	}
	f.srv = New(fakeConfig{}, f.briefer, f.news, f.cache, historian, "test", false)
	return f
}

func (f *serverFixture) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.srv.router.ServeHTTP(rec, req)
	return rec
}

func TestServer_Status(t *testing.T) {
	f := newFixture(false)
	rec := f.do(t, http.MethodGet, "/api/v1/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "test", resp["version"])
}

func TestServer_Ping(t *testing.T) {
	f := newFixture(false)
	rec := f.do(t, http.MethodGet, "/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())
}

func TestServer_Ask(t *testing.T) {
	f := newFixture(false)
	f.briefer.sources = []domain.SourceCitation{{Title: "Headline", SourceName: "BBC", URL: "http://b"}}

	rec := f.do(t, http.MethodPost, "/api/v1/ask", []byte(`{"question":"  what happened today  "}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the briefing", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Headline", resp.Sources[0].Title)
	assert.Equal(t, "what happened today", f.briefer.question, "question is trimmed")
}

func TestServer_Ask_EmptySources(t *testing.T) {
	f := newFixture(false)
	f.briefer.sources = nil

	rec := f.do(t, http.MethodPost, "/api/v1/ask", []byte(`{"question":"anything"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sources":[]`, "nil citations render as an empty array")
}

func TestServer_Ask_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"question":`},
		{name: "empty question", body: `{"question":""}`},
		{name: "blank question", body: `{"question":"   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			rec := f.do(t, http.MethodPost, "/api/v1/ask", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestServer_News(t *testing.T) {
	f := newFixture(false)
	f.news.articles = []domain.Article{{Title: "A"}, {Title: "B"}}

	rec := f.do(t, http.MethodGet, "/api/v1/news?topic=cricket&hours=24", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Topic    string           `json:"topic"`
		Count    int              `json:"count"`
		Articles []domain.Article `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cricket", resp.Topic)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "cricket", f.news.topic)
	assert.Equal(t, 24, f.news.hours)
}

func TestServer_News_Defaults(t *testing.T) {
	f := newFixture(false)
	rec := f.do(t, http.MethodGet, "/api/v1/news", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "latest news", f.news.topic)
	assert.Equal(t, 48, f.news.hours)
}

func TestServer_News_InvalidHours(t *testing.T) {
	for _, hours := range []string{"abc", "-5", "0"} {
		f := newFixture(false)
		rec := f.do(t, http.MethodGet, "/api/v1/news?hours="+hours, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "hours=%s", hours)
	}
}

func TestServer_Topics(t *testing.T) {
	f := newFixture(false)
	rec := f.do(t, http.MethodGet, "/api/v1/topics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"cricket", "default"}, resp["topics"])
}

func TestServer_CacheClear(t *testing.T) {
	f := newFixture(false)
	rec := f.do(t, http.MethodPost, "/api/v1/cache/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, f.cache.cleared)
	assert.Contains(t, rec.Body.String(), "cache cleared")
}

func TestServer_History(t *testing.T) {
	f := newFixture(true)
	f.historian.rows = []store.ArchivedArticle{{Query: "ai news", Title: "Old story"}}

	rec := f.do(t, http.MethodGet, "/api/v1/history?q=AI+News&limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "ai news", f.historian.query, "query key is normalized")
	assert.Equal(t, 5, f.historian.limit)
	assert.Contains(t, rec.Body.String(), "Old story")
}

func TestServer_History_Disabled(t *testing.T) {
	f := newFixture(false)
	rec := f.do(t, http.MethodGet, "/api/v1/history?q=ai", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "archive is disabled")
}

func TestServer_History_BadRequests(t *testing.T) {
	f := newFixture(true)

	rec := f.do(t, http.MethodGet, "/api/v1/history", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing q")

	rec = f.do(t, http.MethodGet, "/api/v1/history?q=ai&limit=wat", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "bad limit")
}

func TestServer_History_StoreError(t *testing.T) {
	f := newFixture(true)
	f.historian.err = errors.New("disk exploded")

	rec := f.do(t, http.MethodGet, "/api/v1/history?q=ai", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk exploded")
}

func TestServer_Run_GracefulShutdown(t *testing.T) {
	f := newFixture(false)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.srv.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
