package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/HamzaArc/friendly-savings-circle-sub000/internal/middleware"
)

var upgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	// The HTTP API is already open to any origin; the feed matches it.
	CheckOrigin: func(*http.Request) bool { return true },
}

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
)

// handleChangeFeed streams store change events to the client as JSON
// messages. Identity comes from the Bearer header when present, else from a
// token query parameter. Query parameters: tables (comma-separated filter,
// all tables when absent), group_id (only events for that group). The UI
// uses the feed as cache-invalidation hints and refetches through the
// regular API.
func (s *Server) handleChangeFeed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	email := middleware.GetEmail(r.Context())
	if userID == "" {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody("authorization header or token query parameter required"))
			return
		}
		claims, err := s.jwtManager.Validate(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody(err.Error()))
			return
		}
		userID, email = claims.UserID, claims.Email
	}

	var tables []string
	if raw := r.URL.Query().Get("tables"); raw != "" {
		tables = strings.Split(raw, ",")
	}
	groupID := r.URL.Query().Get("group_id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.bus.Subscribe(tables...)
	defer cancel()

	slog.Info("Change feed opened", "user_id", userID, "email", email, "tables", tables, "group_id", groupID)

	// Reader goroutine: the client sends nothing meaningful, but reading is
	// required to notice the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if groupID != "" && ev.GroupID != "" && ev.GroupID != groupID {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				slog.Debug("Change feed write failed", "user_id", userID, "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
