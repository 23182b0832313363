package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"profman/internal/domain"
	"profman/internal/metrics"
)

// AssessmentLoader fetches quiz and exam content from a backing store (e.g., document DB).
type AssessmentLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadExam(ctx context.Context, examID string) (domain.Exam, error)
}

// AssessmentRepository caches assessments with TTL to avoid repeated DB hits.
type AssessmentRepository struct {
	loader  AssessmentLoader
	ttl     time.Duration
	clock   func() time.Time
	metrics *metrics.Recorder
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedAssessment
}

type cachedAssessment struct {
	value     any
	expiresAt time.Time
}

func NewAssessmentRepository(loader AssessmentLoader, ttl time.Duration, rec *metrics.Recorder) *AssessmentRepository {
	return &AssessmentRepository{
		loader:  loader,
		ttl:     ttl,
		clock:   time.Now,
		metrics: rec,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedAssessment),
	}
}

func (r *AssessmentRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return cached(r, "quiz:"+quizID, func() (domain.Quiz, error) {
		r.metrics.AssessmentLoaded("quiz")
		return r.loader.LoadQuiz(ctx, quizID)
	})
}

func (r *AssessmentRepository) GetExam(ctx context.Context, examID string) (domain.Exam, error) {
	return cached(r, "exam:"+examID, func() (domain.Exam, error) {
		r.metrics.AssessmentLoaded("exam")
		return r.loader.LoadExam(ctx, examID)
	})
}

// Invalidate drops any cached copy of the quiz and exam with the given id.
func (r *AssessmentRepository) Invalidate(id string) {
	r.mu.Lock()
	delete(r.cache, "quiz:"+id)
	delete(r.cache, "exam:"+id)
	r.mu.Unlock()
}

func (r *AssessmentRepository) lookup(key string, now time.Time) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		return entry.value, true
	}
	return nil, false
}

func cached[T any](r *AssessmentRepository, key string, load func() (T, error)) (T, error) {
	if v, ok := r.lookup(key, r.clock()); ok {
		return v.(T), nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		if v, ok := r.lookup(key, now); ok {
			return v, nil
		}

		v, err := load()
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedAssessment{
			value:     v,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (r *AssessmentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticLoader is a simple loader backed by in-memory maps (useful for tests/demos).
type StaticLoader struct {
	quizzes map[string]domain.Quiz
	exams   map[string]domain.Exam
}

func NewStaticLoader(quizzes map[string]domain.Quiz, exams map[string]domain.Exam) *StaticLoader {
	return &StaticLoader{quizzes: quizzes, exams: exams}
}

func (l *StaticLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *StaticLoader) LoadExam(_ context.Context, examID string) (domain.Exam, error) {
	if exam, ok := l.exams[examID]; ok {
		return exam, nil
	}
	return domain.Exam{}, domain.ErrExamNotFound
}
