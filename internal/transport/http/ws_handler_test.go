package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"profman/internal/domain"
)

func TestWebSocketScoreboardFlow(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=quiz-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Expect the initial, empty snapshot first.
	initial := readScoreboard(t, conn)
	if len(initial.Entries) != 0 {
		t.Fatalf("expected empty board, got %+v", initial.Entries)
	}

	status, res := doJSON(t, http.MethodPost, server.URL+"/api/v1/quiz-attempts", map[string]any{
		"quizId":    "quiz-1",
		"studentId": "s1",
		"answers":   map[string]any{"q1": "4"},
	})
	if status != http.StatusCreated {
		t.Fatalf("submit: %d %+v", status, res.Error)
	}

	update := readScoreboard(t, conn)
	if len(update.Entries) != 1 || update.Entries[0].StudentID != "s1" || update.Entries[0].Score != 10 {
		t.Fatalf("unexpected scoreboard update: %+v", update.Entries)
	}
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	server := newTestServer(t)

	u := "ws" + server.URL[len("http"):] + "/ws?quizId=missing"
	_, res, err := websocket.DefaultDialer.Dial(u, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if res == nil || res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake response, got %+v", res)
	}
}

func readScoreboard(t *testing.T, conn *websocket.Conn) domain.Scoreboard {
	t.Helper()
	var msg struct {
		Type    string            `json:"type"`
		Payload domain.Scoreboard `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "scoreboard" {
		t.Fatalf("expected scoreboard message, got %s", msg.Type)
	}
	return msg.Payload
}
