// Package metrics exposes Prometheus collectors for grading activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder counts graded submissions and tracks their percentages.
type Recorder struct {
	graded      *prometheus.CounterVec
	percentages *prometheus.HistogramVec
	cacheLoads  *prometheus.CounterVec
}

// NewRecorder registers the grading collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		graded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profman",
			Name:      "submissions_graded_total",
			Help:      "Number of graded submissions by kind (quiz, exam, manual).",
		}, []string{"kind"}),
		percentages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "profman",
			Name:      "submission_percentage",
			Help:      "Distribution of graded percentages.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}, []string{"kind"}),
		cacheLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "profman",
			Name:      "assessment_loads_total",
			Help:      "Assessment documents loaded from the backing store on cache miss.",
		}, []string{"kind"}),
	}
	reg.MustRegister(r.graded, r.percentages, r.cacheLoads)
	return r
}

// Graded records one graded submission.
func (r *Recorder) Graded(kind string, percentage float64) {
	if r == nil {
		return
	}
	r.graded.WithLabelValues(kind).Inc()
	r.percentages.WithLabelValues(kind).Observe(percentage)
}

// AssessmentLoaded records a cache miss served by the backing store.
func (r *Recorder) AssessmentLoaded(kind string) {
	if r == nil {
		return
	}
	r.cacheLoads.WithLabelValues(kind).Inc()
}
