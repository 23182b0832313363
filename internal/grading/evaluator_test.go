package grading

import (
	"encoding/json"
	"testing"

	"profman/internal/domain"
)

func TestIsCorrect(t *testing.T) {
	tests := []struct {
		name      string
		qType     domain.QuestionType
		key       any
		submitted any
		want      bool
	}{
		{name: "choice match", qType: domain.MultipleChoice, key: "4", submitted: "4", want: true},
		{name: "choice mismatch", qType: domain.MultipleChoice, key: "4", submitted: "5", want: false},
		{name: "choice is case sensitive", qType: domain.MultipleChoice, key: "b", submitted: "B", want: false},
		{name: "choice number against string key", qType: domain.MultipleChoice, key: "4", submitted: 4.0, want: false},
		{name: "choice numeric key", qType: domain.MultipleChoice, key: 2, submitted: 2.0, want: true},
		{name: "choice array submitted", qType: domain.MultipleChoice, key: "4", submitted: []any{"4"}, want: false},
		{name: "true false bool", qType: domain.TrueFalse, key: true, submitted: true, want: true},
		{name: "true false string key bool answer", qType: domain.TrueFalse, key: "false", submitted: false, want: true},
		{name: "true false mismatch", qType: domain.TrueFalse, key: "true", submitted: "false", want: false},
		{name: "true false garbage", qType: domain.TrueFalse, key: true, submitted: "yes", want: false},
		{name: "select same order", qType: domain.MultipleSelect, key: []any{"a", "c"}, submitted: []any{"a", "c"}, want: true},
		{name: "select any order", qType: domain.MultipleSelect, key: []string{"a", "c"}, submitted: []any{"c", "a"}, want: true},
		{name: "select subset", qType: domain.MultipleSelect, key: []string{"a", "c"}, submitted: []any{"a"}, want: false},
		{name: "select superset", qType: domain.MultipleSelect, key: []string{"a", "c"}, submitted: []any{"a", "b", "c"}, want: false},
		{name: "select duplicate pads length", qType: domain.MultipleSelect, key: []string{"a", "c"}, submitted: []any{"a", "a"}, want: false},
		{name: "select scalar submitted", qType: domain.MultipleSelect, key: []string{"a"}, submitted: "a", want: false},
		{name: "select mixed element types", qType: domain.MultipleSelect, key: []string{"a", "c"}, submitted: []any{"a", 3.0}, want: false},
		{name: "short answer trims and folds case", qType: domain.ShortAnswer, key: "Paris", submitted: "  paris ", want: true},
		{name: "short answer mismatch", qType: domain.ShortAnswer, key: "Paris", submitted: "Lyon", want: false},
		{name: "short answer number submitted", qType: domain.ShortAnswer, key: "42", submitted: 42.0, want: false},
		{name: "numeric exact", qType: domain.Numeric, key: 8, submitted: 8.0, want: true},
		{name: "numeric within tolerance", qType: domain.Numeric, key: 8, submitted: 8.005, want: true},
		{name: "numeric at tolerance", qType: domain.Numeric, key: 8.0, submitted: 7.99, want: true},
		{name: "numeric outside tolerance", qType: domain.Numeric, key: 8, submitted: 8.02, want: false},
		{name: "numeric string submitted", qType: domain.Numeric, key: 8, submitted: "8.001", want: true},
		{name: "numeric json number", qType: domain.Numeric, key: 3.14, submitted: json.Number("3.141"), want: true},
		{name: "numeric not a number", qType: domain.Numeric, key: 8, submitted: "eight", want: false},
		{name: "essay never auto correct", qType: domain.Essay, key: "anything", submitted: "anything", want: false},
		{name: "file upload never auto correct", qType: domain.FileUpload, key: "f", submitted: "f", want: false},
		{name: "unknown type", qType: domain.QuestionType("matching"), key: "a", submitted: "a", want: false},
		{name: "missing answer", qType: domain.MultipleChoice, key: "4", submitted: nil, want: false},
		{name: "missing key", qType: domain.MultipleChoice, key: nil, submitted: "4", want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q := domain.Question{ID: "q1", Type: tc.qType, CorrectAnswer: tc.key, Points: 10}
			if got := IsCorrect(q, tc.submitted); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGradedPoints(t *testing.T) {
	tests := []struct {
		name      string
		q         domain.Question
		submitted any
		want      float64
	}{
		{name: "choice correct", q: domain.Question{Type: domain.MultipleChoice, CorrectAnswer: "b", Points: 5}, submitted: "b", want: 5},
		{name: "choice wrong", q: domain.Question{Type: domain.MultipleChoice, CorrectAnswer: "b", Points: 5}, submitted: "c", want: 0},
		{name: "true false correct", q: domain.Question{Type: domain.TrueFalse, CorrectAnswer: "true", Points: 2}, submitted: "true", want: 2},
		{name: "choice without key", q: domain.Question{Type: domain.MultipleChoice, Points: 5}, submitted: "b", want: 0},
		{name: "short answer left for review", q: domain.Question{Type: domain.ShortAnswer, CorrectAnswer: "x", Points: 5}, submitted: "x", want: 0},
		{name: "essay left for review", q: domain.Question{Type: domain.Essay, Points: 20}, submitted: "long text", want: 0},
		{name: "negative points", q: domain.Question{Type: domain.MultipleChoice, CorrectAnswer: "b", Points: -3}, submitted: "b", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := GradedPoints(tc.q, tc.submitted); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
