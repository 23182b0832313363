package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"profman/internal/app"
	"profman/internal/config"
	"profman/internal/domain"
	"profman/internal/infra/memory"
	pgstore "profman/internal/infra/postgres"
	redisstore "profman/internal/infra/redis"
	"profman/internal/metrics"
	transport "profman/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the grading server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewRecorder(reg)

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.AssessmentLoader = memory.NewStaticLoader(sampleQuizzes(), sampleExams())
	var submissions app.SubmissionRepository = memory.NewSubmissionStore()
	if pool != nil {
		loader = pgstore.NewAssessmentLoader(pool)
		submissions = pgstore.NewSubmissionStore(pool)
	} else {
		log.Warn("postgres not configured; using sample assessments and in-memory submissions")
	}

	cacheTTL := config.TTLDuration(cfg.Cache.TTL, 10*time.Minute)
	var assessments app.AssessmentRepository
	if redisClient != nil {
		assessments = redisstore.NewAssessmentRepository(redisClient, loader, cacheTTL, rec, log)
	} else {
		assessments = memory.NewAssessmentRepository(loader, cacheTTL, rec)
	}

	var boards app.BoardRepository
	if redisClient != nil {
		boards = redisstore.NewBoardStore(redisClient, redisTTL)
	} else {
		boards = memory.NewBoardStore()
	}

	service := app.NewGradingService(assessments, submissions, boards,
		app.WithLogger(log),
		app.WithMetrics(rec),
	)

	rateLimit := transport.WithRateLimit(
		cfg.Server.RateLimit.Requests,
		config.TTLDuration(cfg.Server.RateLimit.Window, time.Minute),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, log, reg, rateLimit),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting grading service", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes provides a minimal quiz for running without Postgres.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{ID: "q1", Type: domain.MultipleChoice, Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4", Points: 10},
				{ID: "q2", Type: domain.MultipleSelect, Prompt: "Pick the vowels", Options: []string{"a", "b", "c", "e"}, CorrectAnswer: []string{"a", "e"}, Points: 15},
				{ID: "q3", Type: domain.TrueFalse, Prompt: "Go has generics.", CorrectAnswer: true, Points: 5},
				{ID: "q4", Type: domain.ShortAnswer, Prompt: "Capital of France?", CorrectAnswer: "Paris", Points: 5},
				{ID: "q5", Type: domain.Numeric, Prompt: "What is 2^3?", CorrectAnswer: 8, Points: 10},
			},
		},
	}
}

// sampleExams provides a minimal exam for running without Postgres.
func sampleExams() map[string]domain.Exam {
	return map[string]domain.Exam{
		"exam-1": {
			ID:    "exam-1",
			Title: "Midterm",
			Questions: []domain.Question{
				{ID: "q1", Type: domain.MultipleChoice, Prompt: "Which is a prime?", Options: []string{"4", "6", "7"}, CorrectAnswer: "7", Points: 20},
				{ID: "q2", Type: domain.TrueFalse, Prompt: "HTTP is stateless.", CorrectAnswer: true, Points: 10},
				{ID: "q3", Type: domain.ShortAnswer, Prompt: "Define idempotence.", Points: 20},
				{ID: "q4", Type: domain.Essay, Prompt: "Discuss the CAP theorem.", Points: 50},
			},
			TotalPoints: 100,
		},
	}
}
