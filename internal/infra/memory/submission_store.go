package memory

import (
	"context"
	"sort"
	"sync"

	"profman/internal/domain"
)

// SubmissionStore keeps attempts and submission versions in memory. Nothing
// stored is ever replaced.
type SubmissionStore struct {
	mu       sync.RWMutex
	attempts []domain.QuizAttempt
	versions map[string][]domain.ExamSubmission
}

func NewSubmissionStore() *SubmissionStore {
	return &SubmissionStore{
		versions: make(map[string][]domain.ExamSubmission),
	}
}

func (s *SubmissionStore) SaveQuizAttempt(_ context.Context, attempt domain.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	return nil
}

func (s *SubmissionStore) ListQuizAttempts(_ context.Context, quizID, studentID string) ([]domain.QuizAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizAttempt, 0)
	for _, a := range s.attempts {
		if a.QuizID != quizID {
			continue
		}
		if studentID != "" && a.StudentID != studentID {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

// SaveExamSubmission appends a version. The version must follow the latest
// stored one, otherwise domain.ErrVersionConflict is returned.
func (s *SubmissionStore) SaveExamSubmission(_ context.Context, sub domain.ExamSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.versions[sub.ID]
	if sub.Version != len(existing)+1 {
		return domain.ErrVersionConflict
	}
	s.versions[sub.ID] = append(existing, sub)
	return nil
}

func (s *SubmissionStore) GetExamSubmission(_ context.Context, id string) (domain.ExamSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.versions[id]
	if len(versions) == 0 {
		return domain.ExamSubmission{}, domain.ErrSubmissionNotFound
	}
	return versions[len(versions)-1], nil
}

func (s *SubmissionStore) ListExamSubmissionVersions(_ context.Context, id string) ([]domain.ExamSubmission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.versions[id]
	out := make([]domain.ExamSubmission, len(versions))
	copy(out, versions)
	return out, nil
}
