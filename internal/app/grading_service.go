package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"profman/internal/domain"
	"profman/internal/grading"
	"profman/internal/metrics"
)

// AssessmentRepository loads quiz and exam content (from cache/backing store).
type AssessmentRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetExam(ctx context.Context, examID string) (domain.Exam, error)
}

// SubmissionRepository persists graded results. Writes never overwrite: a
// regraded exam is stored as a new version of the same submission id.
type SubmissionRepository interface {
	SaveQuizAttempt(ctx context.Context, attempt domain.QuizAttempt) error
	ListQuizAttempts(ctx context.Context, quizID, studentID string) ([]domain.QuizAttempt, error)
	SaveExamSubmission(ctx context.Context, submission domain.ExamSubmission) error
	GetExamSubmission(ctx context.Context, id string) (domain.ExamSubmission, error)
	ListExamSubmissionVersions(ctx context.Context, id string) ([]domain.ExamSubmission, error)
}

// BoardRepository abstracts where live quiz scoreboards are kept (in-memory, Redis, etc).
// GetOrCreate retains the returned board for one watcher; DeleteIfIdle only
// drops boards with no retained watchers.
type BoardRepository interface {
	GetOrCreate(quizID string) (*Board, bool)
	Get(quizID string) (*Board, bool)
	DeleteIfIdle(quizID string)
}

// QuizSubmission is a student's answers to a quiz, keyed by question id.
type QuizSubmission struct {
	QuizID    string
	StudentID string
	Answers   map[string]any
	TimeSpent int
}

// ExamSubmissionRequest is a student's answers to an exam.
type ExamSubmissionRequest struct {
	ExamID    string
	StudentID string
	Answers   []domain.Answer
}

// GradingService loads assessments, grades submissions and stores the results.
type GradingService struct {
	assessments AssessmentRepository
	submissions SubmissionRepository
	boards      BoardRepository
	metrics     *metrics.Recorder
	log         *zap.Logger
	now         func() time.Time
	newID       func() string
}

// Option customizes a GradingService.
type Option func(*GradingService)

func WithLogger(log *zap.Logger) Option {
	return func(s *GradingService) { s.log = log }
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *GradingService) { s.metrics = rec }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GradingService) { s.now = now }
}

// WithIDGenerator is used by tests for deterministic ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *GradingService) { s.newID = newID }
}

func NewGradingService(assessments AssessmentRepository, submissions SubmissionRepository, boards BoardRepository, opts ...Option) *GradingService {
	s := &GradingService{
		assessments: assessments,
		submissions: submissions,
		boards:      boards,
		log:         zap.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitQuiz grades a quiz submission, stores it as a new attempt and updates
// the quiz scoreboard if anyone is watching it.
func (s *GradingService) SubmitQuiz(ctx context.Context, sub QuizSubmission) (domain.QuizAttempt, error) {
	if sub.QuizID == "" || sub.StudentID == "" {
		return domain.QuizAttempt{}, fmt.Errorf("%w: quiz id and student id are required", domain.ErrInvalidSubmission)
	}
	quiz, err := s.assessments.GetQuiz(ctx, sub.QuizID)
	if err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("load quiz %s: %w", sub.QuizID, err)
	}

	attempt := domain.QuizAttempt{
		ID:          s.newID(),
		QuizID:      quiz.ID,
		StudentID:   sub.StudentID,
		TimeSpent:   max(sub.TimeSpent, 0),
		SubmittedAt: s.now().UTC(),
		QuizResult:  grading.GradeQuiz(quiz, sub.Answers),
	}
	if err := s.submissions.SaveQuizAttempt(ctx, attempt); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("save quiz attempt: %w", err)
	}
	s.metrics.Graded("quiz", float64(attempt.Percentage))
	s.log.Info("quiz graded",
		zap.String("attempt_id", attempt.ID),
		zap.String("quiz_id", attempt.QuizID),
		zap.String("student_id", attempt.StudentID),
		zap.Int("score", attempt.Score),
		zap.Int("total_points", attempt.TotalPoints),
	)

	if board, ok := s.boards.Get(quiz.ID); ok {
		board.record(attempt)
	}
	return attempt, nil
}

// ListQuizAttempts returns stored attempts for a quiz, optionally for one student.
func (s *GradingService) ListQuizAttempts(ctx context.Context, quizID, studentID string) ([]domain.QuizAttempt, error) {
	if quizID == "" {
		return nil, fmt.Errorf("%w: quiz id is required", domain.ErrInvalidSubmission)
	}
	attempts, err := s.submissions.ListQuizAttempts(ctx, quizID, studentID)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}

// SubmitExam auto-grades the objective answers of an exam submission and
// stores it as version 1.
func (s *GradingService) SubmitExam(ctx context.Context, req ExamSubmissionRequest) (domain.ExamSubmission, error) {
	if req.ExamID == "" || req.StudentID == "" {
		return domain.ExamSubmission{}, fmt.Errorf("%w: exam id and student id are required", domain.ErrInvalidSubmission)
	}
	exam, err := s.assessments.GetExam(ctx, req.ExamID)
	if err != nil {
		return domain.ExamSubmission{}, fmt.Errorf("load exam %s: %w", req.ExamID, err)
	}

	sub := domain.ExamSubmission{
		ID:          s.newID(),
		ExamID:      exam.ID,
		StudentID:   req.StudentID,
		SubmittedAt: s.now().UTC(),
		Version:     1,
		ExamResult:  grading.GradeExam(exam, req.Answers),
	}
	if dropped := len(req.Answers) - len(sub.Answers); dropped > 0 {
		s.log.Warn("exam answers ignored",
			zap.String("exam_id", exam.ID),
			zap.String("student_id", req.StudentID),
			zap.Int("count", dropped),
		)
	}
	if err := s.submissions.SaveExamSubmission(ctx, sub); err != nil {
		return domain.ExamSubmission{}, fmt.Errorf("save exam submission: %w", err)
	}
	s.metrics.Graded("exam", sub.Percentage)
	s.log.Info("exam graded",
		zap.String("submission_id", sub.ID),
		zap.String("exam_id", sub.ExamID),
		zap.String("student_id", sub.StudentID),
		zap.Float64("earned_points", sub.EarnedPoints),
		zap.String("grade", sub.Grade),
	)
	return sub, nil
}

// GradeExamSubmission applies professor grades to the latest version of a
// submission and stores the outcome as the next version.
func (s *GradingService) GradeExamSubmission(ctx context.Context, id, gradedBy string, grades []domain.ManualGrade) (domain.ExamSubmission, error) {
	if id == "" || gradedBy == "" {
		return domain.ExamSubmission{}, fmt.Errorf("%w: submission id and grader are required", domain.ErrInvalidSubmission)
	}
	current, err := s.submissions.GetExamSubmission(ctx, id)
	if err != nil {
		return domain.ExamSubmission{}, fmt.Errorf("load submission %s: %w", id, err)
	}
	exam, err := s.assessments.GetExam(ctx, current.ExamID)
	if err != nil {
		return domain.ExamSubmission{}, fmt.Errorf("load exam %s: %w", current.ExamID, err)
	}

	gradedAt := s.now().UTC()
	next := current
	next.Version = current.Version + 1
	next.GradedBy = gradedBy
	next.GradedAt = &gradedAt
	next.ExamResult = grading.ApplyManualGrades(exam, current.ExamResult, grades)

	if err := s.submissions.SaveExamSubmission(ctx, next); err != nil {
		return domain.ExamSubmission{}, fmt.Errorf("save graded submission: %w", err)
	}
	s.metrics.Graded("manual", next.Percentage)
	s.log.Info("exam regraded",
		zap.String("submission_id", next.ID),
		zap.Int("version", next.Version),
		zap.String("graded_by", gradedBy),
		zap.Float64("earned_points", next.EarnedPoints),
		zap.String("grade", next.Grade),
	)
	return next, nil
}

// GetExamSubmission returns the latest version of a submission.
func (s *GradingService) GetExamSubmission(ctx context.Context, id string) (domain.ExamSubmission, error) {
	sub, err := s.submissions.GetExamSubmission(ctx, id)
	if err != nil {
		return domain.ExamSubmission{}, fmt.Errorf("load submission %s: %w", id, err)
	}
	return sub, nil
}

// ExamSubmissionHistory returns every stored version of a submission, oldest first.
func (s *GradingService) ExamSubmissionHistory(ctx context.Context, id string) ([]domain.ExamSubmission, error) {
	versions, err := s.submissions.ListExamSubmissionVersions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list submission versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("load submission %s: %w", id, domain.ErrSubmissionNotFound)
	}
	return versions, nil
}

// Subscribe returns a channel that receives scoreboard updates for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GradingService) Subscribe(ctx context.Context, quizID string) (<-chan domain.Scoreboard, func(), error) {
	// Users cannot watch unknown quizzes.
	if _, err := s.assessments.GetQuiz(ctx, quizID); err != nil {
		return nil, nil, fmt.Errorf("load quiz %s: %w", quizID, err)
	}

	board, created := s.boards.GetOrCreate(quizID)
	if created {
		attempts, err := s.submissions.ListQuizAttempts(ctx, quizID, "")
		if err != nil {
			board.finishSeeding()
			board.Release()
			s.boards.DeleteIfIdle(quizID)
			return nil, nil, fmt.Errorf("seed scoreboard: %w", err)
		}
		for _, a := range attempts {
			board.record(a)
		}
		board.finishSeeding()
	}

	// the slot retained by GetOrCreate is given back by cancel
	ch, cancel := board.subscribe()
	return ch, func() {
		cancel()
		s.boards.DeleteIfIdle(quizID)
	}, nil
}
