package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// changeEvent is the wire shape pushed to websocket clients. Events carry no
// data; clients are expected to re-fetch, the same way the server-side
// session does.
type changeEvent struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code,omitempty"`
}

// handleWebsocket streams change-feed events to the client. The bearer
// token rides in the token query parameter, and an optional room parameter
// scopes reminder events to one room.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	claims, err := s.auth.ValidateToken(r.URL.Query().Get("token"))
	if err != nil {
		s.respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	roomCode := r.URL.Query().Get("room")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	log := s.logger.WithField("user_id", claims.UserID)
	log.Info("Websocket client connected")

	// Feed callbacks run on the dispatch goroutine; the buffered channel
	// decouples them from the connection's write pump. A slow client drops
	// events rather than blocking the feed, which is safe because events
	// only say "re-fetch".
	events := make(chan changeEvent, 16)
	cancelRooms := s.feed.OnRoomsChanged(func() {
		select {
		case events <- changeEvent{Type: "rooms_changed"}:
		default:
		}
	})
	cancelReminders := s.feed.OnRemindersChanged(roomCode, func() {
		select {
		case events <- changeEvent{Type: "reminders_changed", RoomCode: roomCode}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		cancelRooms()
		cancelReminders()
		conn.Close()
		log.Info("Websocket client disconnected")
	}()

	for {
		select {
		case event := <-events:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
