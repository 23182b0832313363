package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrExamNotFound indicates the exam content could not be loaded.
	ErrExamNotFound = errors.New("exam not found")
	// ErrSubmissionNotFound is returned when an exam submission id is unknown.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrInvalidSubmission is returned when a submission lacks the ids needed to grade it.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrInvalidAssessment is returned when a quiz or exam definition cannot be graded as written.
	ErrInvalidAssessment = errors.New("invalid assessment")
	// ErrVersionConflict is returned when a submission version was already written.
	ErrVersionConflict = errors.New("submission version conflict")
)
