package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCountsByKind(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	rec.Graded("quiz", 80)
	rec.Graded("quiz", 100)
	rec.Graded("exam", 55.5)
	rec.AssessmentLoaded("quiz")

	if got := testutil.ToFloat64(rec.graded.WithLabelValues("quiz")); got != 2 {
		t.Fatalf("expected 2 quiz gradings, got %v", got)
	}
	if got := testutil.ToFloat64(rec.graded.WithLabelValues("exam")); got != 1 {
		t.Fatalf("expected 1 exam grading, got %v", got)
	}
	if got := testutil.ToFloat64(rec.cacheLoads.WithLabelValues("quiz")); got != 1 {
		t.Fatalf("expected 1 load, got %v", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	rec.Graded("quiz", 50)
	rec.AssessmentLoaded("exam")
}
