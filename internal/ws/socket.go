package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"sketchspy/internal/game"
)

// Server owns the Socket.IO connections and implements game.Emitter on
// top of them. The session never sees the transport, only this.
type Server struct {
	mu      sync.RWMutex
	members map[string]socketio.Conn
}

func New() *Server {
	return &Server{members: make(map[string]socketio.Conn)}
}

func (srv *Server) To(id string, event string, v any) {
	srv.mu.RLock()
	c := srv.members[id]
	srv.mu.RUnlock()
	if c != nil {
		c.Emit(event, v)
	}
}

func (srv *Server) Broadcast(event string, v any) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for _, c := range srv.members {
		c.Emit(event, v)
	}
}

func (srv *Server) BroadcastExcept(senderID string, event string, v any) {
	srv.mu.RLock()
	defer srv.mu.RUnlock()
	for id, c := range srv.members {
		if id != senderID {
			c.Emit(event, v)
		}
	}
}

func (srv *Server) addMember(c socketio.Conn) {
	srv.mu.Lock()
	srv.members[c.ID()] = c
	srv.mu.Unlock()
}

func (srv *Server) removeMember(c socketio.Conn) {
	srv.mu.Lock()
	delete(srv.members, c.ID())
	srv.mu.Unlock()
}

// Mount attaches the Socket.IO server with all game handlers to the
// given Gin engine and wires inbound events into the session.
func (srv *Server) Mount(r *gin.Engine, sess *game.Session) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		srv.addMember(s)
		sess.Connect(s.ID())
		log.Info().Str("sid", s.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", game.EventReadyUp, func(s socketio.Conn, payload struct {
		Name string `json:"name"`
	}) map[string]any {
		if err := sess.ReadyUp(s.ID(), payload.Name); err != nil {
			log.Warn().Str("sid", s.ID()).Err(err).Msg("ready-up rejected")
			return map[string]any{"ok": false}
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", game.EventUnready, func(s socketio.Conn) map[string]any {
		if err := sess.Unready(s.ID()); err != nil {
			log.Warn().Str("sid", s.ID()).Err(err).Msg("unready rejected")
			return map[string]any{"ok": false}
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", game.EventSelectColor, func(s socketio.Conn, payload struct {
		Color int `json:"color"`
	}) map[string]any {
		// rejection already answered with the sentinel echo
		if _, err := sess.SelectColor(s.ID(), payload.Color); err != nil {
			log.Debug().Str("sid", s.ID()).Int("color", payload.Color).Err(err).Msg("color rejected")
			return map[string]any{"ok": false}
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", game.EventSendMessage, func(s socketio.Conn, payload struct {
		Text string `json:"text"`
	}) {
		sess.Chat(s.ID(), payload.Text)
	})

	io.OnEvent("/", game.EventTurnOver, func(s socketio.Conn) map[string]any {
		if err := sess.TurnOver(s.ID()); err != nil {
			// turn-over from a non-drawer is dropped without state change
			log.Debug().Str("sid", s.ID()).Err(err).Msg("turn-over ignored")
			return map[string]any{"ok": false}
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", game.EventVoteCast, func(s socketio.Conn, payload struct {
		TargetID string `json:"targetId"`
	}) map[string]any {
		if err := sess.CastVote(s.ID(), payload.TargetID); err != nil {
			log.Debug().Str("sid", s.ID()).Str("target", payload.TargetID).Err(err).Msg("vote ignored")
			return map[string]any{"ok": false}
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", game.EventNextRound, func(s socketio.Conn) map[string]any {
		if err := sess.NextRound(s.ID()); err != nil {
			log.Debug().Str("sid", s.ID()).Err(err).Msg("next-round ignored")
			return map[string]any{"ok": false}
		}
		return map[string]any{"ok": true}
	})

	io.OnEvent("/", game.EventDrawing, func(s socketio.Conn, seg game.LineSegment) {
		sess.Draw(s.ID(), seg)
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Err(e).Msg("socket error")
	})

	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.removeMember(s)
		sess.Disconnect(s.ID())
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}
