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

// SubmissionStore persists graded results as JSONB rows. Rows are only ever
// inserted; a regraded exam is a new (id, version) row.
type SubmissionStore struct {
	pool *pgxpool.Pool
}

func NewSubmissionStore(pool *pgxpool.Pool) *SubmissionStore {
	return &SubmissionStore{pool: pool}
}

func (s *SubmissionStore) SaveQuizAttempt(ctx context.Context, attempt domain.QuizAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_attempts (id, quiz_id, student_id, submitted_at, data) VALUES ($1, $2, $3, $4, $5)`,
		attempt.ID, attempt.QuizID, attempt.StudentID, attempt.SubmittedAt, data)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *SubmissionStore) ListQuizAttempts(ctx context.Context, quizID, studentID string) ([]domain.QuizAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM quiz_attempts
		 WHERE quiz_id=$1 AND ($2::text = '' OR student_id=$2::text)
		 ORDER BY submitted_at, id`,
		quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.QuizAttempt, 0)
	for rows.Next() {
		var attempt domain.QuizAttempt
		if err := scanDocument(rows, &attempt); err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

// SaveExamSubmission inserts a version; if that version already exists the
// write is rejected with domain.ErrVersionConflict.
func (s *SubmissionStore) SaveExamSubmission(ctx context.Context, sub domain.ExamSubmission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO exam_submissions (id, version, exam_id, student_id, submitted_at, data)
		 SELECT $1::text, $2::int, $3::text, $4::text, $5::timestamptz, $6::jsonb
		 WHERE $2::int = 1 + COALESCE((SELECT max(version) FROM exam_submissions WHERE id=$1::text), 0)
		 ON CONFLICT (id, version) DO NOTHING`,
		sub.ID, sub.Version, sub.ExamID, sub.StudentID, sub.SubmittedAt, data)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	return nil
}

func (s *SubmissionStore) GetExamSubmission(ctx context.Context, id string) (domain.ExamSubmission, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT data FROM exam_submissions WHERE id=$1 ORDER BY version DESC LIMIT 1`, id)
	var sub domain.ExamSubmission
	if err := scanDocument(row, &sub); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ExamSubmission{}, domain.ErrSubmissionNotFound
		}
		return domain.ExamSubmission{}, err
	}
	return sub, nil
}

func (s *SubmissionStore) ListExamSubmissionVersions(ctx context.Context, id string) ([]domain.ExamSubmission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM exam_submissions WHERE id=$1 ORDER BY version`, id)
	if err != nil {
		return nil, fmt.Errorf("query submission versions: %w", err)
	}
	defer rows.Close()

	versions := make([]domain.ExamSubmission, 0)
	for rows.Next() {
		var sub domain.ExamSubmission
		if err := scanDocument(rows, &sub); err != nil {
			return nil, err
		}
		versions = append(versions, sub)
	}
	return versions, rows.Err()
}

func scanDocument(row pgx.Row, dst any) error {
	var raw []byte
	if err := row.Scan(&raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	return nil
}
