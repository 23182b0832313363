package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"profman/internal/domain"
)

// AssessmentLoader loads quiz and exam JSONB documents from Postgres.
type AssessmentLoader struct {
	pool *pgxpool.Pool
}

func NewAssessmentLoader(pool *pgxpool.Pool) *AssessmentLoader {
	return &AssessmentLoader{pool: pool}
}

func (l *AssessmentLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := l.loadDocument(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID, &quiz); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (l *AssessmentLoader) LoadExam(ctx context.Context, examID string) (domain.Exam, error) {
	var exam domain.Exam
	if err := l.loadDocument(ctx, `SELECT data FROM exams WHERE id=$1`, examID, &exam); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Exam{}, domain.ErrExamNotFound
		}
		return domain.Exam{}, fmt.Errorf("load exam: %w", err)
	}
	return exam, nil
}

func (l *AssessmentLoader) loadDocument(ctx context.Context, query, id string, dst any) error {
	var raw []byte
	if err := l.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal document %s: %w", id, err)
	}
	return nil
}
