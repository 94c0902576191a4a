package app

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"sekretarz/internal/domain"
)

const (
	socketReadTimeout  = 5 * time.Minute
	socketWriteTimeout = 10 * time.Second
	socketMaxFrameSize = 64 * 1024
)

var socketUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Same posture as the HTTP endpoints: no origin policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleSocket carries the POST /agent exchange over a websocket: one
// {message, session_id} frame in, one chat envelope frame out.
func (s *ChatServer) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := socketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(socketMaxFrameSize)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(socketReadTimeout))
		var req domain.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("ws read failed: %v", err)
			}
			return
		}

		var out interface{}
		if req.Message == "" {
			out = map[string]string{"error": "Pole 'message' jest wymagane"}
		} else {
			reply, err := s.chat.HandleMessage(r.Context(), req.SessionID, req.Message)
			if err != nil {
				out = map[string]string{"error": err.Error()}
			} else {
				out = domain.ChatResponse{OK: true, Type: reply.Type, Response: reply.Response}
			}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(socketWriteTimeout))
		if err := conn.WriteJSON(out); err != nil {
			log.Printf("ws write failed: %v", err)
			return
		}
	}
}
