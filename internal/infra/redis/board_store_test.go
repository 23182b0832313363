package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBoardStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewBoardStore(client, time.Minute)

	board, created := store.GetOrCreate("quiz-1")
	if !created {
		t.Fatalf("expected new board")
	}
	if !mr.Exists("quiz:board:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}

	store.DeleteIfIdle("quiz-1")
	if !mr.Exists("quiz:board:quiz-1") {
		t.Fatalf("expected key kept while the board is retained")
	}

	board.Release()
	store.DeleteIfIdle("quiz-1")
	if mr.Exists("quiz:board:quiz-1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected board removed")
	}
}
