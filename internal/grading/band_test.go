package grading

import (
	"math"
	"testing"
)

func TestBand(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{150, "A+"},
		{100, "A+"},
		{97, "A+"},
		{96.9, "A"},
		{93, "A"},
		{90, "A-"},
		{89.99, "B+"},
		{87, "B+"},
		{83.5, "B"},
		{83, "B"},
		{80, "B-"},
		{77, "C+"},
		{73, "C"},
		{70, "C-"},
		{67, "D+"},
		{63, "D"},
		{60, "D-"},
		{59.9, "F"},
		{0, "F"},
		{-12, "F"},
		{math.Inf(-1), "F"},
		{math.NaN(), "F"},
	}
	for _, tc := range tests {
		if got := Band(tc.pct); got != tc.want {
			t.Fatalf("Band(%v): expected %s, got %s", tc.pct, tc.want, got)
		}
	}
}
