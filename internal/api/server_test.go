package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/webaudit360/internal/audit"
	"github.com/JakeFAU/webaudit360/internal/clock/system"
	"github.com/JakeFAU/webaudit360/internal/config"
	"github.com/JakeFAU/webaudit360/internal/extract"
	collyfetcher "github.com/JakeFAU/webaudit360/internal/fetcher/colly"
	"github.com/JakeFAU/webaudit360/internal/storage/memory"
)

type fakeService struct {
	create func(ctx context.Context, rawURL string) (audit.Job, error)
	get    func(ctx context.Context, id int64) (audit.Report, error)
}

func (f *fakeService) CreateAudit(ctx context.Context, rawURL string) (audit.Job, error) {
	if f.create == nil {
		return audit.Job{}, errors.New("unexpected CreateAudit")
	}
	return f.create(ctx, rawURL)
}

func (f *fakeService) GetResult(ctx context.Context, id int64) (audit.Report, error) {
	if f.get == nil {
		return audit.Report{}, errors.New("unexpected GetResult")
	}
	return f.get(ctx, id)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func testConfig() config.Config {
	return config.Config{
		Server:  config.ServerConfig{Port: 8000, RequestTimeoutSeconds: 5},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func newTestServer(svc AuditService) *Server {
	return NewServer(svc, fakePinger{}, testConfig(), zap.NewNop())
}

func serve(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestServer_Health(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestServer(&fakeService{}), http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	ready := NewServer(&fakeService{}, fakePinger{}, testConfig(), nil)
	rec := serve(t, ready, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	down := NewServer(&fakeService{}, fakePinger{err: errors.New("db down")}, testConfig(), nil)
	rec = serve(t, down, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decodeBody(t, rec)["status"])
}

func TestServer_CreateAudit_Succeeds(t *testing.T) {
	t.Parallel()

	var gotURL string
	svc := &fakeService{create: func(_ context.Context, rawURL string) (audit.Job, error) {
		gotURL = rawURL
		return audit.Job{ID: 1, URL: rawURL, FetchedAt: time.Now()}, nil
	}}
	server := newTestServer(svc)

	for _, path := range []string{"/audit/", "/audit"} {
		rec := serve(t, server, http.MethodPost, path, `{"url":" https://example.com "}`)

		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "https://example.com", gotURL)
		assert.JSONEq(t, `{"job_id":1,"url":"https://example.com"}`, rec.Body.String())
	}
}

func TestServer_CreateAudit_RequestErrors(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeService{})
	tests := []struct {
		name   string
		body   string
		status int
		detail string
	}{
		{"invalid json", "{invalid", http.StatusBadRequest, "invalid JSON body"},
		{"missing url", `{}`, http.StatusUnprocessableEntity, "url is required"},
		{"blank url", `{"url":"   "}`, http.StatusUnprocessableEntity, "url is required"},
		{"relative url", `{"url":"/just/a/path"}`, http.StatusUnprocessableEntity, "absolute http or https URL"},
		{"other scheme", `{"url":"ftp://example.com/file"}`, http.StatusUnprocessableEntity, "absolute http or https URL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(t, server, http.MethodPost, "/audit/", tc.body)
			require.Equal(t, tc.status, rec.Code)
			assert.Contains(t, decodeBody(t, rec)["detail"], tc.detail)
		})
	}
}

func TestServer_CreateAudit_ServiceErrors(t *testing.T) {
	t.Parallel()

	fetchErr := &audit.FetchError{URL: "https://example.com", StatusCode: http.StatusInternalServerError}
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{
			name:   "fetch failure",
			err:    &audit.Error{Kind: audit.KindFetchFailed, Detail: fetchErr.Error(), Err: fetchErr},
			status: http.StatusBadGateway,
			detail: "status 500 Internal Server Error",
		},
		{
			name:   "invalid url",
			err:    &audit.Error{Kind: audit.KindInvalidURL, Detail: "url host is required"},
			status: http.StatusUnprocessableEntity,
			detail: "url host is required",
		},
		{
			name:   "store failure",
			err:    errors.New("create job: disk full"),
			status: http.StatusInternalServerError,
			detail: "internal server error",
		},
		{
			name:   "deadline",
			err:    context.DeadlineExceeded,
			status: http.StatusGatewayTimeout,
			detail: "request timed out",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{create: func(context.Context, string) (audit.Job, error) {
				return audit.Job{}, tc.err
			}}
			rec := serve(t, newTestServer(svc), http.MethodPost, "/audit/", `{"url":"https://example.com"}`)

			require.Equal(t, tc.status, rec.Code)
			assert.Contains(t, decodeBody(t, rec)["detail"], tc.detail)
		})
	}
}

func TestServer_GetResult_ReturnsReport(t *testing.T) {
	t.Parallel()

	title := "Hi"
	fetchedAt := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
	svc := &fakeService{get: func(_ context.Context, id int64) (audit.Report, error) {
		return audit.Report{
			JobID:     id,
			URL:       "https://example.com",
			FetchedAt: fetchedAt,
			Metrics:   extract.Metrics{Title: &title, H1Count: 2, ImageCount: 1, LinkCount: 3},
		}, nil
	}}

	rec := serve(t, newTestServer(svc), http.MethodGet, "/results/7", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"job_id": 7,
		"url": "https://example.com",
		"fetched_at": "2024-03-09T10:30:00Z",
		"title": "Hi",
		"h1_count": 2,
		"meta_description": null,
		"image_count": 1,
		"link_count": 3
	}`, rec.Body.String())
}

func TestServer_GetResult_Errors(t *testing.T) {
	t.Parallel()

	svc := &fakeService{get: func(_ context.Context, id int64) (audit.Report, error) {
		if id == 13 {
			return audit.Report{}, errors.New("get job 13: connection reset")
		}
		return audit.Report{}, &audit.Error{Kind: audit.KindNotFound, Err: audit.ErrJobNotFound}
	}}
	server := newTestServer(svc)

	rec := serve(t, server, http.MethodGet, "/results/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Job not found"}`, rec.Body.String())

	rec = serve(t, server, http.MethodGet, "/results/abc", "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "job_id must be an integer")

	rec = serve(t, server, http.MethodGet, "/results/13", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestServer_Metrics(t *testing.T) {
	t.Parallel()

	enabled := newTestServer(&fakeService{})
	serve(t, enabled, http.MethodGet, "/health", "")
	rec := serve(t, enabled, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	disabled := NewServer(&fakeService{}, nil, cfg, nil)
	rec = serve(t, disabled, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	t.Parallel()

	rec := serve(t, newTestServer(&fakeService{}), http.MethodGet, "/health", "")
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	require.NoError(t, err)

	inbound := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, inbound)
	rec = httptest.NewRecorder()
	newTestServer(&fakeService{}).Handler().ServeHTTP(rec, req)
	assert.Equal(t, inbound, rec.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	newTestServer(&fakeService{}).Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	svc := &fakeService{get: func(context.Context, int64) (audit.Report, error) {
		panic("boom")
	}}
	rec := serve(t, newTestServer(svc), http.MethodGet, "/results/1", "")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}

func TestServer_EndToEnd(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title>Hi</title><meta name="description" content="D"></head>` +
			`<body><h1>A</h1><h1>B</h1><img src="x"><a href="/1">1</a><a href="/2">2</a><a href="/3">3</a></body></html>`))
	}))
	defer upstream.Close()

	store := memory.NewJobStore()
	fetcher := collyfetcher.New(collyfetcher.Config{Timeout: 5 * time.Second}, zap.NewNop())
	svc := audit.NewService(fetcher, store, system.New(), zap.NewNop())
	server := NewServer(svc, store, testConfig(), zap.NewNop())

	rec := serve(t, server, http.MethodPost, "/audit/", `{"url":"`+upstream.URL+`/page"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, float64(1), created["job_id"])
	assert.Equal(t, upstream.URL+"/page", created["url"])

	rec = serve(t, server, http.MethodGet, "/results/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody(t, rec)
	assert.Equal(t, "Hi", report["title"])
	assert.Equal(t, float64(2), report["h1_count"])
	assert.Equal(t, "D", report["meta_description"])
	assert.Equal(t, float64(1), report["image_count"])
	assert.Equal(t, float64(3), report["link_count"])
	_, err := time.Parse(time.RFC3339Nano, report["fetched_at"].(string))
	require.NoError(t, err)

	rec = serve(t, server, http.MethodPost, "/audit/", `{"url":"`+upstream.URL+`/broken"}`)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "500")
	assert.Equal(t, 1, store.Count())

	rec = serve(t, server, http.MethodGet, "/results/2", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
