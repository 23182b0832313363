package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"profman/internal/domain"
	"profman/internal/infra/memory"
	"profman/internal/metrics"
)

// AssessmentRepository caches quiz and exam documents in Redis as JSON and
// falls back to a loader on cache miss.
// Keys: assessment:quiz:{quizID} and assessment:exam:{examID}.
type AssessmentRepository struct {
	client  *redis.Client
	loader  memory.AssessmentLoader
	ttl     time.Duration
	metrics *metrics.Recorder
	log     *zap.Logger
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAssessmentRepository(client *redis.Client, loader memory.AssessmentLoader, ttl time.Duration, rec *metrics.Recorder, log *zap.Logger) *AssessmentRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &AssessmentRepository{
		client:  client,
		loader:  loader,
		ttl:     ttl,
		metrics: rec,
		log:     log,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *AssessmentRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return cached(ctx, r, quizKey(quizID), func() (domain.Quiz, error) {
		r.metrics.AssessmentLoaded("quiz")
		return r.loader.LoadQuiz(ctx, quizID)
	})
}

func (r *AssessmentRepository) GetExam(ctx context.Context, examID string) (domain.Exam, error) {
	return cached(ctx, r, examKey(examID), func() (domain.Exam, error) {
		r.metrics.AssessmentLoaded("exam")
		return r.loader.LoadExam(ctx, examID)
	})
}

// Invalidate removes the cached quiz and exam with the given id.
func (r *AssessmentRepository) Invalidate(ctx context.Context, id string) error {
	return r.client.Del(ctx, quizKey(id), examKey(id)).Err()
}

func quizKey(id string) string {
	return "assessment:quiz:" + id
}

func examKey(id string) string {
	return "assessment:exam:" + id
}

// readCache returns false on a miss, on a Redis error and on undecodable data;
// the loader is the source of truth in every such case.
func readCache[T any](ctx context.Context, r *AssessmentRepository, key string) (T, bool) {
	var out T
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("assessment cache read failed", zap.String("key", key), zap.Error(err))
		}
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		r.log.Warn("assessment cache entry corrupt", zap.String("key", key), zap.Error(err))
		return out, false
	}
	return out, true
}

func cached[T any](ctx context.Context, r *AssessmentRepository, key string, load func() (T, error)) (T, error) {
	if v, ok := readCache[T](ctx, r, key); ok {
		return v, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if v, ok := readCache[T](ctx, r, key); ok {
			return v, nil
		}

		v, err := load()
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(v)
		if err == nil {
			err = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		if err != nil {
			r.log.Warn("assessment cache write failed", zap.String("key", key), zap.Error(err))
		}
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
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
