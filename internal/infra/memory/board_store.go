package memory

import (
	"sync"

	"profman/internal/app"
)

// BoardStore is an in-memory implementation of app.BoardRepository. Boards
// are retained and checked for idleness under the store lock.
type BoardStore struct {
	mu     sync.RWMutex
	boards map[string]*app.Board
}

func NewBoardStore() *BoardStore {
	return &BoardStore{
		boards: make(map[string]*app.Board),
	}
}

func (s *BoardStore) GetOrCreate(quizID string) (*app.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if board, ok := s.boards[quizID]; ok {
		board.Retain()
		return board, false
	}
	board := app.NewBoard(quizID)
	board.Retain()
	s.boards[quizID] = board
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
	}
}
