package grading

import (
	"math"

	"profman/internal/domain"
)

// GradeExam auto-scores the multiple choice and true/false answers of an exam
// submission. Answers for other question types are kept at zero points until a
// professor grades them. Answers to unknown questions are dropped, and only the
// first answer to a question counts.
func GradeExam(exam domain.Exam, answers []domain.Answer) domain.ExamResult {
	graded := make([]domain.GradedAnswer, 0, len(answers))
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		q, ok := exam.Question(a.QuestionID)
		if !ok {
			continue
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		graded = append(graded, domain.GradedAnswer{
			QuestionID: q.ID,
			Value:      a.Value,
			Points:     GradedPoints(q, a.Value),
			AutoGraded: AutoGradable(q),
		})
	}
	return summarize(exam, graded)
}

// ApplyManualGrades returns a copy of result with the given professor grades
// applied. Points are clamped to the question's value, grades for questions
// without a submitted answer are ignored, and applying the same grades again
// yields the same result.
func ApplyManualGrades(exam domain.Exam, result domain.ExamResult, grades []domain.ManualGrade) domain.ExamResult {
	updated := make([]domain.GradedAnswer, len(result.Answers))
	copy(updated, result.Answers)

	index := make(map[string]int, len(updated))
	for i, a := range updated {
		index[a.QuestionID] = i
	}
	for _, g := range grades {
		i, ok := index[g.QuestionID]
		if !ok {
			continue
		}
		q, ok := exam.Question(g.QuestionID)
		if !ok {
			continue
		}
		updated[i].Points = clamp(g.Points, 0, float64(q.Weight()))
		updated[i].Feedback = g.Feedback
		updated[i].AutoGraded = false
	}
	return summarize(exam, updated)
}

// ExamTotal is the sum of question points, or the declared total for an exam
// without questions.
func ExamTotal(exam domain.Exam) float64 {
	if len(exam.Questions) == 0 {
		return math.Max(exam.TotalPoints, 0)
	}
	total := 0
	for _, q := range exam.Questions {
		total += q.Weight()
	}
	return float64(total)
}

func summarize(exam domain.Exam, answers []domain.GradedAnswer) domain.ExamResult {
	earned := 0.0
	for _, a := range answers {
		earned += a.Points
	}
	total := ExamTotal(exam)
	pct := examPercentage(earned, total)
	return domain.ExamResult{
		EarnedPoints: earned,
		TotalPoints:  total,
		Percentage:   pct,
		Grade:        Band(pct),
		Answers:      answers,
	}
}

// examPercentage is kept to one decimal place.
func examPercentage(earned, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(1000*earned/total) / 10
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
