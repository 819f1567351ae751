package gateway

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/craftista/concierge/internal/domain"
)

const (
	wsMaxPayload  = 64 * 1024
	wsIdleTimeout = 10 * time.Minute
)

// wsFrame is one chat turn answer sent back over the socket. It extends the
// plain HTTP response with the session id so widgets that connect without
// one learn the id the server minted for them.
type wsFrame struct {
	domain.ChatResponse
	SessionID string `json:"sessionId"`
	Error     string `json:"error,omitempty"`
}

// handleWebSocket upgrades the connection and runs a frame-per-turn chat
// loop: each client frame is one ChatRequest, each server frame one answer.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxPayload)

	// One fallback session per connection, used when the client never
	// supplies its own id.
	connSession := uuid.New().String()

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("new websocket connection")

	for {
		conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))

		var req domain.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("remote", r.RemoteAddr).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket read error")
			}
			return
		}

		if req.SessionID == "" {
			req.SessionID = connSession
		}

		res := s.router.Handle(r.Context(), req)

		frame := wsFrame{
			ChatResponse: res.Response,
			SessionID:    req.SessionID,
		}
		if err := conn.WriteJSON(frame); err != nil {
			s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket write error")
			return
		}
	}
}
