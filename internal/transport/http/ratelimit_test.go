package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"profman/internal/app"
	"profman/internal/infra/memory"
)

func TestRateLimiterPerClient(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newRateLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") || !l.allow("10.0.0.1") {
		t.Fatalf("expected burst of 2 to pass")
	}
	if l.allow("10.0.0.1") {
		t.Fatalf("expected third request to be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Fatalf("expected other client to pass")
	}

	now = now.Add(30 * time.Second)
	if !l.allow("10.0.0.1") {
		t.Fatalf("expected a token after half the window")
	}
}

func TestRateLimiterDropsStaleVisitors(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	l := newRateLimiter(1, time.Minute)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	now = now.Add(10 * time.Minute)
	l.allow("10.0.0.2")

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.visitors["10.0.0.1"]; ok {
		t.Fatalf("expected stale visitor to be dropped")
	}
}

func TestRouterRateLimitsAPI(t *testing.T) {
	service := app.NewGradingService(
		memory.NewAssessmentRepository(sampleLoader(), time.Minute, nil),
		memory.NewSubmissionStore(),
		memory.NewBoardStore(),
	)
	handler := NewRouter(service, zap.NewNop(), prometheus.NewRegistry(), WithRateLimit(1, time.Hour))

	get := func(path string) int {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := get("/api/v1/quizzes/quiz-1/attempts"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := get("/api/v1/quizzes/quiz-1/attempts"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if code := get("/healthz"); code != http.StatusOK {
		t.Fatalf("expected health check to bypass the limiter, got %d", code)
	}
}
