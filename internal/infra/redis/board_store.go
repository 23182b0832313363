package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"profman/internal/app"
)

// BoardStore is a Redis-aware implementation of app.BoardRepository.
// Notes:
//   - Boards live in a local map so the in-process broadcast keeps working.
//   - Redis marks which quizzes have a watched board, so operators can see
//     live boards across instances.
type BoardStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	boards map[string]*app.Board
}

func NewBoardStore(client *redis.Client, ttl time.Duration) *BoardStore {
	return &BoardStore{
		client: client,
		ttl:    ttl,
		boards: make(map[string]*app.Board),
	}
}

func (s *BoardStore) GetOrCreate(quizID string) (*app.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if board, ok := s.boards[quizID]; ok {
		board.Retain()
		// best-effort liveness refresh
		_ = s.client.Expire(context.Background(), s.key(quizID), s.ttl).Err()
		return board, false
	}
	board := app.NewBoard(quizID)
	board.Retain()
	s.boards[quizID] = board
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(quizID), "1", s.ttl).Err()
	return board, true
}

func (s *BoardStore) Get(quizID string) (*app.Board, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.boards[quizID]
	return board, ok
}

func (s *BoardStore) DeleteIfIdle(quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.boards[quizID]
	if !ok {
		return
	}
	if board.Idle() {
		delete(s.boards, quizID)
		_ = s.client.Del(context.Background(), s.key(quizID)).Err()
	}
}

func (s *BoardStore) key(quizID string) string {
	return "quiz:board:" + quizID
}
