package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"profman/internal/domain"
	pgmigrations "profman/internal/infra/postgres/migrations"
)

// OpenBun opens a bun handle used for migrations and seeding.
func OpenBun(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// Migrate applies every pending migration and returns the names applied.
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	group, err := migrator.Migrate(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	names := make([]string, 0, len(group.Migrations))
	for _, m := range group.Migrations {
		names = append(names, m.Name)
	}
	return names, nil
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID        string      `bun:"id,pk"`
	Data      domain.Quiz `bun:"data,type:jsonb"`
	UpdatedAt time.Time   `bun:"updated_at"`
}

type examRow struct {
	bun.BaseModel `bun:"table:exams"`

	ID        string      `bun:"id,pk"`
	Data      domain.Exam `bun:"data,type:jsonb"`
	UpdatedAt time.Time   `bun:"updated_at"`
}

// Seeder upserts quiz and exam documents authored outside the service.
type Seeder struct {
	db  *bun.DB
	now func() time.Time
}

func NewSeeder(db *bun.DB) *Seeder {
	return &Seeder{db: db, now: time.Now}
}

func (s *Seeder) UpsertQuiz(ctx context.Context, quiz domain.Quiz) error {
	if err := quiz.Validate(); err != nil {
		return err
	}
	row := quizRow{ID: quiz.ID, Data: quiz, UpdatedAt: s.now().UTC()}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert quiz %s: %w", quiz.ID, err)
	}
	return nil
}

func (s *Seeder) UpsertExam(ctx context.Context, exam domain.Exam) error {
	if err := exam.Validate(); err != nil {
		return err
	}
	row := examRow{ID: exam.ID, Data: exam, UpdatedAt: s.now().UTC()}
	_, err := s.db.NewInsert().Model(&row).
		On("CONFLICT (id) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert exam %s: %w", exam.ID, err)
	}
	return nil
}
