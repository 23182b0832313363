package app

import (
	"sort"
	"sync"
	"time"

	"profman/internal/domain"
)

// Board is the live scoreboard of a quiz: each student's best attempt.
type Board struct {
	quizID      string
	now         func() time.Time
	mu          sync.RWMutex
	students    map[string]*standing
	subscribers map[chan domain.Scoreboard]struct{}
	// watchers counts reservations handed out by a BoardRepository, including
	// ones whose subscription is not registered yet.
	watchers int

	// While seeding, every recorded attempt id is kept so the stored list and
	// live submissions can overlap. Afterwards an id is only checked, and
	// dropped once its duplicate shows up.
	seeding bool
	counted map[string]struct{}
}

type standing struct {
	entry     domain.ScoreboardEntry
	reachedAt time.Time
}

// NewBoard is exported for infrastructure layers that keep boards.
func NewBoard(quizID string) *Board {
	return NewBoardWithClock(quizID, time.Now)
}

// NewBoardWithClock allows deterministic timestamps in tests.
func NewBoardWithClock(quizID string, now func() time.Time) *Board {
	return &Board{
		quizID:      quizID,
		now:         now,
		students:    make(map[string]*standing),
		subscribers: make(map[chan domain.Scoreboard]struct{}),
		seeding:     true,
		counted:     make(map[string]struct{}),
	}
}

// Retain reserves a watcher slot. Repositories call it under their own lock
// when handing out a board, so DeleteIfIdle cannot drop a board that a
// subscriber is about to join.
func (b *Board) Retain() {
	b.mu.Lock()
	b.watchers++
	b.mu.Unlock()
}

// Release gives back a slot taken by Retain.
func (b *Board) Release() {
	b.mu.Lock()
	if b.watchers > 0 {
		b.watchers--
	}
	b.mu.Unlock()
}

func (b *Board) finishSeeding() {
	b.mu.Lock()
	b.seeding = false
	b.mu.Unlock()
}

// record folds an attempt into the board. Attempts already counted are skipped
// so that seeding from storage and live submissions can overlap.
func (b *Board) record(attempt domain.QuizAttempt) domain.Scoreboard {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.counted[attempt.ID]; ok {
		if !b.seeding {
			// an attempt is seen at most twice
			delete(b.counted, attempt.ID)
		}
		return b.snapshotLocked()
	}
	if b.seeding {
		b.counted[attempt.ID] = struct{}{}
	}

	reached := attempt.SubmittedAt
	if reached.IsZero() {
		reached = b.now()
	}
	st, ok := b.students[attempt.StudentID]
	if !ok {
		st = &standing{entry: domain.ScoreboardEntry{StudentID: attempt.StudentID}}
		b.students[attempt.StudentID] = st
	}
	if !ok || attempt.Percentage > st.entry.Percentage {
		st.entry.Score = attempt.Score
		st.entry.Percentage = attempt.Percentage
		st.reachedAt = reached
	}
	st.entry.Attempts++
	return b.broadcastLocked()
}

// Snapshot returns the current ordering without notifying subscribers.
func (b *Board) Snapshot() domain.Scoreboard {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshotLocked()
}

// Idle reports whether nobody is watching or about to watch the board.
func (b *Board) Idle() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.watchers == 0
}

func (b *Board) subscribe() (<-chan domain.Scoreboard, func()) {
	ch := make(chan domain.Scoreboard, 8)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	initial := b.snapshotLocked()
	b.mu.Unlock()

	ch <- initial

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
			if b.watchers > 0 {
				b.watchers--
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

func (b *Board) broadcastLocked() domain.Scoreboard {
	sb := b.snapshotLocked()
	for ch := range b.subscribers {
		select {
		case ch <- sb:
		default:
			// slow reader: replace its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- sb
		}
	}
	return sb
}

func (b *Board) snapshotLocked() domain.Scoreboard {
	entries := make([]domain.ScoreboardEntry, 0, len(b.students))
	for _, st := range b.students {
		entries = append(entries, st.entry)
	}

	// percentage desc, then who reached it first, then student id
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Percentage != entries[j].Percentage {
			return entries[i].Percentage > entries[j].Percentage
		}
		si := b.students[entries[i].StudentID]
		sj := b.students[entries[j].StudentID]
		if !si.reachedAt.Equal(sj.reachedAt) {
			return si.reachedAt.Before(sj.reachedAt)
		}
		return entries[i].StudentID < entries[j].StudentID
	})

	return domain.Scoreboard{
		QuizID:    b.quizID,
		Entries:   entries,
		UpdatedAt: b.now(),
	}
}
