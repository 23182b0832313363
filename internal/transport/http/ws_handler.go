package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"profman/internal/app"
	"profman/internal/domain"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	service  *app.GradingService
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GradingService, log *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS streams scoreboard snapshots of one quiz until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), quizID)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error("scoreboard subscribe failed", zap.String("quiz_id", quizID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// The read loop only notices the client going away; inbound messages are ignored.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case board, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(outboundMessage[domain.Scoreboard]{Type: "scoreboard", Payload: board}); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		case <-closed:
			return
		}
	}
}
