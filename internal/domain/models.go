package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// QuestionType names how a question is answered and graded.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	MultipleSelect QuestionType = "multiple_select"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Numeric        QuestionType = "numeric"
	Essay          QuestionType = "essay"
	FileUpload     QuestionType = "file_upload"
)

var quizTypes = map[QuestionType]bool{
	MultipleChoice: true,
	MultipleSelect: true,
	TrueFalse:      true,
	ShortAnswer:    true,
	Numeric:        true,
}

var examTypes = map[QuestionType]bool{
	MultipleChoice: true,
	TrueFalse:      true,
	ShortAnswer:    true,
	Essay:          true,
	FileUpload:     true,
}

// Question is a single gradable item. CorrectAnswer holds the answer key and
// may be a string, a list of strings, a number or a boolean depending on Type.
type Question struct {
	ID            string       `json:"id" yaml:"id"`
	Type          QuestionType `json:"type" yaml:"type"`
	Prompt        string       `json:"prompt,omitempty" yaml:"prompt"`
	Options       []string     `json:"options,omitempty" yaml:"options"`
	CorrectAnswer any          `json:"correctAnswer,omitempty" yaml:"correctAnswer"`
	Points        int          `json:"points" yaml:"points"`
}

// Weight is the point value used for scoring; negative points count as zero.
func (q Question) Weight() int {
	if q.Points < 0 {
		return 0
	}
	return q.Points
}

// HasAnswerKey reports whether the question declares a correct answer.
func (q Question) HasAnswerKey() bool {
	return q.CorrectAnswer != nil
}

// Quiz is a self-graded assessment.
type Quiz struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title,omitempty" yaml:"title"`
	Questions   []Question `json:"questions" yaml:"questions"`
	TotalPoints int        `json:"totalPoints,omitempty" yaml:"totalPoints"`
}

// Validate checks that every question uses a quiz question type.
func (q Quiz) Validate() error {
	return validateQuestions(q.ID, q.Questions, quizTypes)
}

// Exam is an assessment whose open questions are graded by a professor.
type Exam struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title,omitempty" yaml:"title"`
	Questions   []Question `json:"questions" yaml:"questions"`
	TotalPoints float64    `json:"totalPoints,omitempty" yaml:"totalPoints"`
}

// Validate checks that every question uses an exam question type.
func (e Exam) Validate() error {
	return validateQuestions(e.ID, e.Questions, examTypes)
}

// Question returns the exam question with the given id.
func (e Exam) Question(id string) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func validateQuestions(ownerID string, questions []Question, allowed map[QuestionType]bool) error {
	if ownerID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidAssessment)
	}
	seen := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if q.ID == "" {
			return fmt.Errorf("%w: %s has a question without id", ErrInvalidAssessment, ownerID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: %s repeats question %s", ErrInvalidAssessment, ownerID, q.ID)
		}
		seen[q.ID] = struct{}{}
		if !allowed[q.Type] {
			return fmt.Errorf("%w: %s question %s has type %q", ErrInvalidAssessment, ownerID, q.ID, q.Type)
		}
		if q.Points <= 0 {
			return fmt.Errorf("%w: %s question %s must be worth at least one point", ErrInvalidAssessment, ownerID, q.ID)
		}
		if q.HasAnswerKey() && !keyFits(q.Type, q.CorrectAnswer) {
			return fmt.Errorf("%w: %s question %s has a %T answer key, not valid for %s", ErrInvalidAssessment, ownerID, q.ID, q.CorrectAnswer, q.Type)
		}
	}
	return nil
}

// keyFits reports whether an answer key has the shape its question type is
// graded against. Choice and text keys must be strings, so an unquoted YAML
// number is rejected instead of silently never matching.
func keyFits(t QuestionType, key any) bool {
	switch t {
	case MultipleChoice, ShortAnswer:
		_, ok := key.(string)
		return ok
	case MultipleSelect:
		switch v := key.(type) {
		case []string:
			return true
		case []any:
			for _, item := range v {
				if _, ok := item.(string); !ok {
					return false
				}
			}
			return true
		}
		return false
	case TrueFalse:
		switch v := key.(type) {
		case bool:
			return true
		case string:
			s := strings.ToLower(strings.TrimSpace(v))
			return s == "true" || s == "false"
		}
		return false
	case Numeric:
		var f float64
		switch v := key.(type) {
		case int, int32, int64, uint64:
			return true
		case float32:
			f = float64(v)
		case float64:
			f = v
		case json.Number:
			n, err := v.Float64()
			if err != nil {
				return false
			}
			f = n
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return false
			}
			f = n
		default:
			return false
		}
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	// essay and file uploads are never auto-graded
	return true
}

// Answer is one submitted answer. Value keeps the decoded JSON shape.
type Answer struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

// QuestionOutcome records how a single quiz question was scored.
type QuestionOutcome struct {
	QuestionID string `json:"questionId"`
	Answered   bool   `json:"answered"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
}

// QuizResult is the outcome of grading a quiz.
type QuizResult struct {
	Score       int               `json:"score"`
	TotalPoints int               `json:"totalPoints"`
	Percentage  int               `json:"percentage"`
	Outcomes    []QuestionOutcome `json:"outcomes"`
}

// GradedAnswer is a submitted exam answer together with its awarded points.
type GradedAnswer struct {
	QuestionID string  `json:"questionId"`
	Value      any     `json:"value"`
	Points     float64 `json:"points"`
	AutoGraded bool    `json:"autoGraded"`
	Feedback   string  `json:"feedback,omitempty"`
}

// ExamResult is the outcome of grading an exam.
type ExamResult struct {
	EarnedPoints float64        `json:"earnedPoints"`
	TotalPoints  float64        `json:"totalPoints"`
	Percentage   float64        `json:"percentage"`
	Grade        string         `json:"grade"`
	Answers      []GradedAnswer `json:"answers"`
}

// ManualGrade is a professor-assigned score for one exam answer.
type ManualGrade struct {
	QuestionID string  `json:"questionId"`
	Points     float64 `json:"points"`
	Feedback   string  `json:"feedback,omitempty"`
}

// QuizAttempt is a persisted, graded quiz submission.
type QuizAttempt struct {
	ID          string    `json:"id"`
	QuizID      string    `json:"quizId"`
	StudentID   string    `json:"studentId"`
	TimeSpent   int       `json:"timeSpent"`
	SubmittedAt time.Time `json:"submittedAt"`
	QuizResult
}

// ExamSubmission is one version of a graded exam submission. Manual grading
// stores a new version under the same id instead of rewriting the old one.
type ExamSubmission struct {
	ID          string     `json:"id"`
	ExamID      string     `json:"examId"`
	StudentID   string     `json:"studentId"`
	SubmittedAt time.Time  `json:"submittedAt"`
	Version     int        `json:"version"`
	GradedBy    string     `json:"gradedBy,omitempty"`
	GradedAt    *time.Time `json:"gradedAt,omitempty"`
	ExamResult
}

// ScoreboardEntry is a student's best result on a quiz.
type ScoreboardEntry struct {
	StudentID  string `json:"studentId"`
	Score      int    `json:"score"`
	Percentage int    `json:"percentage"`
	Attempts   int    `json:"attempts"`
}

// Scoreboard captures the ordered best results for a quiz.
type Scoreboard struct {
	QuizID    string            `json:"quizId"`
	Entries   []ScoreboardEntry `json:"entries"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
