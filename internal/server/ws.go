package server

import (
	"context"
	"net/http"
	"time"

	"dota-draft-helper/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsReadLimit  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// local tool, the UI may be served from any origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// socketTeamStats is the websocket twin of streamTeamStats for clients that
// prefer a socket over server-sent events.
func (s *Server) socketTeamStats(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "teamID")
	f := parseFilter(r)

	if _, err := s.stats.TeamStats(r.Context(), teamID, f); err != nil {
		writeError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := zerolog.Ctx(ctx)

	// the client never sends anything useful; reading keeps pongs flowing
	// and notices when it goes away
	go func() {
		defer cancel()
		conn.SetReadLimit(wsReadLimit)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug().Err(err).Msg("websocket read failed")
				}
				return
			}
		}
	}()

	snapshots := make(chan *domain.TeamStats)
	done := make(chan error, 1)
	go func() {
		done <- s.stats.Watch(ctx, teamID, f, func(ts *domain.TeamStats) error {
			select {
			case snapshots <- ts:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case ts := <-snapshots:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(wsMessage{Type: "stats", Data: ts}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case err := <-done:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Str("team_id", teamID).Msg("stats socket ended")
				_ = conn.WriteJSON(wsMessage{Type: "error", Data: errorResponse{Error: http.StatusText(statusFor(err)), Message: err.Error()}})
			}
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
