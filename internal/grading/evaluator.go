// Package grading scores quiz and exam submissions against their answer keys.
// Every function here is pure: inputs are never mutated and no call can fail.
package grading

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"profman/internal/domain"
)

// NumericTolerance is the largest absolute difference accepted for numeric questions.
const NumericTolerance = 0.01

// rule decides whether a submitted value matches an answer key for one question type.
type rule interface {
	matches(key, submitted any) bool
}

type exactRule struct{}
type booleanRule struct{}
type setRule struct{}
type textRule struct{}
type numericRule struct{ tolerance float64 }
type manualRule struct{}

func ruleFor(t domain.QuestionType) rule {
	switch t {
	case domain.MultipleChoice:
		return exactRule{}
	case domain.TrueFalse:
		return booleanRule{}
	case domain.MultipleSelect:
		return setRule{}
	case domain.ShortAnswer:
		return textRule{}
	case domain.Numeric:
		return numericRule{tolerance: NumericTolerance}
	case domain.Essay, domain.FileUpload:
		return manualRule{}
	default:
		return manualRule{}
	}
}

// IsCorrect reports whether submitted answers q correctly. Missing or
// wrongly shaped values are incorrect.
func IsCorrect(q domain.Question, submitted any) bool {
	if submitted == nil || !q.HasAnswerKey() {
		return false
	}
	return ruleFor(q.Type).matches(q.CorrectAnswer, submitted)
}

// AutoGradable reports whether an exam question is scored without a professor.
func AutoGradable(q domain.Question) bool {
	switch q.Type {
	case domain.MultipleChoice, domain.TrueFalse:
		return q.HasAnswerKey()
	default:
		return false
	}
}

// GradedPoints returns the exam points earned by submitted: all of the
// question's points on a match, otherwise zero.
func GradedPoints(q domain.Question, submitted any) float64 {
	if !AutoGradable(q) {
		return 0
	}
	if IsCorrect(q, submitted) {
		return float64(q.Weight())
	}
	return 0
}

func (exactRule) matches(key, submitted any) bool {
	if ks, ok := key.(string); ok {
		ss, ok := submitted.(string)
		return ok && ks == ss
	}
	if kb, ok := key.(bool); ok {
		sb, ok := submitted.(bool)
		return ok && kb == sb
	}
	if _, isText := submitted.(string); isText {
		return false
	}
	kn, ok := number(key)
	if !ok {
		return false
	}
	sn, ok := number(submitted)
	return ok && kn == sn
}

func (booleanRule) matches(key, submitted any) bool {
	kb, ok := boolean(key)
	if !ok {
		return false
	}
	sb, ok := boolean(submitted)
	return ok && kb == sb
}

func (setRule) matches(key, submitted any) bool {
	correct, ok := stringList(key)
	if !ok {
		return false
	}
	given, ok := stringList(submitted)
	if !ok || len(given) != len(correct) {
		return false
	}
	present := make(map[string]struct{}, len(given))
	for _, s := range given {
		present[s] = struct{}{}
	}
	for _, c := range correct {
		if _, ok := present[c]; !ok {
			return false
		}
	}
	return true
}

func (textRule) matches(key, submitted any) bool {
	ks, ok := key.(string)
	if !ok {
		return false
	}
	ss, ok := submitted.(string)
	if !ok {
		return false
	}
	return strings.ToLower(strings.TrimSpace(ks)) == strings.ToLower(strings.TrimSpace(ss))
}

func (r numericRule) matches(key, submitted any) bool {
	kn, ok := number(key)
	if !ok {
		return false
	}
	sn, ok := number(submitted)
	if !ok {
		return false
	}
	return math.Abs(sn-kn) <= r.tolerance
}

func (manualRule) matches(_, _ any) bool {
	return false
}

// number converts JSON and YAML numeric shapes, and numeric strings, to float64.
func number(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func boolean(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// stringList accepts []string or a decoded []any whose elements are all strings.
func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}
