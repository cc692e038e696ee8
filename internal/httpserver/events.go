// internal/httpserver/events.go
//
// GET /session/events upgrades to a websocket and pushes the player's
// session snapshot after every change, including the automatic
// incorrect → playing bounce that no request triggers.
//
// The client never needs to send anything; incoming frames are read only
// to notice when the connection closes.

package httpserver

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// safeConn serializes writes; gorilla connections allow one writer.
type safeConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (sc *safeConn) WriteJSON(v any) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	_ = sc.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return sc.conn.WriteJSON(v)
}

func (sc *safeConn) Ping() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || origin == s.opts.ClientOrigin {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	player := playerFrom(r.Context())
	sess := s.session(r)

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("player", player).Msg("websocket upgrade")
		return
	}
	sc := &safeConn{conn: conn}
	defer conn.Close()

	snaps, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	log.Debug().Str("player", player).Msg("events stream open")
	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				// session was evicted or closed
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := sc.WriteJSON(sessionRes{Session: snap}); err != nil {
				return
			}
		case <-ping.C:
			if err := sc.Ping(); err != nil {
				return
			}
		case <-closed:
			log.Debug().Str("player", player).Msg("events stream closed")
			return
		}
	}
}
