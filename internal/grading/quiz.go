package grading

import (
	"math"

	"profman/internal/domain"
)

// GradeQuiz scores answers, keyed by question id, against quiz. The total is
// recomputed from the questions rather than trusted from quiz.TotalPoints.
func GradeQuiz(quiz domain.Quiz, answers map[string]any) domain.QuizResult {
	result := domain.QuizResult{
		Outcomes: make([]domain.QuestionOutcome, 0, len(quiz.Questions)),
	}
	for _, q := range quiz.Questions {
		weight := q.Weight()
		result.TotalPoints += weight

		value, answered := answers[q.ID]
		outcome := domain.QuestionOutcome{
			QuestionID: q.ID,
			Answered:   answered && value != nil,
		}
		if IsCorrect(q, value) {
			outcome.Correct = true
			outcome.Awarded = weight
			result.Score += weight
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	result.Percentage = quizPercentage(result.Score, result.TotalPoints)
	return result
}

func quizPercentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
