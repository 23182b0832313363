package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"profman/internal/app"
	"profman/internal/domain"
	"profman/internal/infra/postgres"
	infraredis "profman/internal/infra/redis"
)

func TestGradingEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedAssessments(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	loader := postgres.NewAssessmentLoader(pool)
	service := app.NewGradingService(
		infraredis.NewAssessmentRepository(redisClient, loader, 5*time.Minute, nil, nil),
		postgres.NewSubmissionStore(pool),
		infraredis.NewBoardStore(redisClient, 5*time.Minute),
	)

	ch, cancel, err := service.Subscribe(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	<-ch

	attempt, err := service.SubmitQuiz(ctx, app.QuizSubmission{
		QuizID:    "quiz-1",
		StudentID: "s1",
		Answers:   map[string]any{"q1": "4", "q2": []string{"a", "e"}},
	})
	if err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if attempt.Score != 25 || attempt.Percentage != 100 {
		t.Fatalf("unexpected quiz result %+v", attempt.QuizResult)
	}
	select {
	case sb := <-ch:
		if len(sb.Entries) != 1 || sb.Entries[0].StudentID != "s1" {
			t.Fatalf("unexpected scoreboard %+v", sb.Entries)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for scoreboard")
	}

	attempts, err := service.ListQuizAttempts(ctx, "quiz-1", "s1")
	if err != nil {
		t.Fatalf("list attempts: %v", err)
	}
	if len(attempts) != 1 || attempts[0].ID != attempt.ID {
		t.Fatalf("expected stored attempt, got %+v", attempts)
	}

	sub, err := service.SubmitExam(ctx, app.ExamSubmissionRequest{
		ExamID:    "exam-1",
		StudentID: "s1",
		Answers: []domain.Answer{
			{QuestionID: "q1", Value: true},
			{QuestionID: "q2", Value: "essay text"},
		},
	})
	if err != nil {
		t.Fatalf("submit exam: %v", err)
	}
	if sub.EarnedPoints != 20 || sub.Grade != "F" {
		t.Fatalf("unexpected exam result %+v", sub.ExamResult)
	}

	graded, err := service.GradeExamSubmission(ctx, sub.ID, "prof-1", []domain.ManualGrade{{QuestionID: "q2", Points: 70}})
	if err != nil {
		t.Fatalf("grade exam: %v", err)
	}
	if graded.Version != 2 || graded.Percentage != 90 || graded.Grade != "A-" {
		t.Fatalf("unexpected graded submission %+v", graded)
	}

	// a stale writer must not overwrite version 2
	stale := sub
	stale.Version = 2
	if err := postgres.NewSubmissionStore(pool).SaveExamSubmission(ctx, stale); !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	history, err := service.ExamSubmissionHistory(ctx, sub.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].EarnedPoints != 20 || history[1].EarnedPoints != 90 {
		t.Fatalf("unexpected history %+v", history)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedAssessments(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	db := postgres.OpenBun(dsn)
	defer db.Close()

	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	seeder := postgres.NewSeeder(db)
	if err := seeder.UpsertQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	if err := seeder.UpsertExam(ctx, sampleExam()); err != nil {
		t.Fatalf("seed exam: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "quiz-1",
		Questions: []domain.Question{
			{ID: "q1", Type: domain.MultipleChoice, Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4", Points: 10},
			{ID: "q2", Type: domain.MultipleSelect, Prompt: "Pick the vowels", Options: []string{"a", "b", "e"}, CorrectAnswer: []string{"a", "e"}, Points: 15},
		},
	}
}

func sampleExam() domain.Exam {
	return domain.Exam{
		ID: "exam-1",
		Questions: []domain.Question{
			{ID: "q1", Type: domain.TrueFalse, CorrectAnswer: true, Points: 20},
			{ID: "q2", Type: domain.Essay, Points: 80},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
