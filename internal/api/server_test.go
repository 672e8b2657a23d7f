package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vietddude/extractor/internal/cache"
	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/core/errcode"
	"github.com/vietddude/extractor/internal/extract"
	"github.com/vietddude/extractor/internal/pipeline"
	"github.com/vietddude/extractor/internal/ratelimit"
)

func newTestServer(checks map[string]HealthCheck) *Server {
	registry := extract.Registry{}
	for _, p := range domain.AllPlatforms {
		registry[p] = func(ctx context.Context, url string, opts extract.AttemptOpts) *domain.ExtractionResult {
			return &domain.ExtractionResult{Success: true, Data: url}
		}
	}

	svc := extract.NewService(
		pipeline.New(nil),
		ratelimit.NewLimiter(),
		cache.NewMemory(),
		nil,
		registry,
		nil,
	)
	return NewServer(svc, 0, checks)
}

func doRequest(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "10.0.0.1:54321"
	rec := httptest.NewRecorder()
	s.server.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleExtract(t *testing.T) {
	s := newTestServer(nil)

	rec := doRequest(s, http.MethodPost, "/api/extract",
		`{"url":"https://www.tiktok.com/@user/video/7123456789012345678"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var res domain.ExtractionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success {
		t.Errorf("Success = false: %+v", res)
	}
}

func TestHandleExtractInvalidBody(t *testing.T) {
	s := newTestServer(nil)

	rec := doRequest(s, http.MethodPost, "/api/extract", `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleExtractInvalidURL(t *testing.T) {
	s := newTestServer(nil)

	rec := doRequest(s, http.MethodPost, "/api/extract", `{"url":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var res domain.ExtractionResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.ErrorCode != errcode.InvalidURL {
		t.Errorf("ErrorCode = %v, want INVALID_URL", res.ErrorCode)
	}
}

func TestHandleExtractRateLimited(t *testing.T) {
	s := newTestServer(nil)

	max := ratelimit.Contexts["public"].MaxRequests
	for i := 0; i < max; i++ {
		// Distinct content ids so neither the cache nor the duplicate-URL
		// allowance short-circuits the limiter.
		body := fmt.Sprintf(`{"url":"https://twitter.com/user/status/1000000000000000%03d"}`, i)
		if rec := doRequest(s, http.MethodPost, "/api/extract", body); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}

	rec := doRequest(s, http.MethodPost, "/api/extract",
		`{"url":"https://twitter.com/user/status/99999999999999999"}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing on 429")
	}
}

func TestHandlePrepare(t *testing.T) {
	s := newTestServer(nil)

	rec := doRequest(s, http.MethodGet, "/api/prepare?url=https://youtu.be/dQw4w9WgXcQ", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var info domain.URLInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Platform != domain.PlatformYouTube {
		t.Errorf("Platform = %q, want youtube", info.Platform)
	}
	if info.ContentID != "dQw4w9WgXcQ" {
		t.Errorf("ContentID = %q", info.ContentID)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(map[string]HealthCheck{
		"cache": func(ctx context.Context) error { return nil },
	})

	rec := doRequest(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleHealthFailingCheck(t *testing.T) {
	s := newTestServer(map[string]HealthCheck{
		"database": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := doRequest(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	rec = doRequest(s, http.MethodGet, "/health/detailed", "")
	var report map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report["database"] != "connection refused" {
		t.Errorf("report = %v", report)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		forwarded string
		remote    string
		expect    string
	}{
		{"", "10.0.0.1:54321", "10.0.0.1"},
		{"203.0.113.7", "10.0.0.1:54321", "203.0.113.7"},
		{"203.0.113.7, 198.51.100.2", "10.0.0.1:54321", "203.0.113.7"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tt.forwarded)
		}
		if got := clientIP(req); got != tt.expect {
			t.Errorf("clientIP(fwd=%q) = %q, want %q", tt.forwarded, got, tt.expect)
		}
	}
}
