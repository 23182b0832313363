package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"profman/internal/app"
)

// RouterOption customizes NewRouter.
type RouterOption func(*routerConfig)

type routerConfig struct {
	limiter *rateLimiter
}

// WithRateLimit caps API requests per client address. Non-positive values disable it.
func WithRateLimit(maxRequests int, window time.Duration) RouterOption {
	return func(c *routerConfig) {
		if maxRequests > 0 && window > 0 {
			c.limiter = newRateLimiter(maxRequests, window)
		}
	}
}

// NewRouter wires the REST API, the scoreboard websocket and operational endpoints.
func NewRouter(service *app.GradingService, log *zap.Logger, gatherer prometheus.Gatherer, opts ...RouterOption) http.Handler {
	var rc routerConfig
	for _, opt := range opts {
		opt(&rc)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)

	grades := NewGradingHandler(service, log)
	ws := NewWSHandler(service, log)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", ws.ServeWS)

	r.Route("/api/v1", func(api chi.Router) {
		if rc.limiter != nil {
			api.Use(rc.limiter.middleware)
		}
		api.Post("/quiz-attempts", grades.SubmitQuiz)
		api.Get("/quizzes/{quizID}/attempts", grades.ListQuizAttempts)
		api.Post("/exam-submissions", grades.SubmitExam)
		api.Get("/exam-submissions/{id}", grades.GetExamSubmission)
		api.Get("/exam-submissions/{id}/versions", grades.ExamSubmissionHistory)
		api.Put("/exam-submissions/{id}/grades", grades.GradeExamSubmission)
	})
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
