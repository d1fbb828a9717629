package chat

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nklyy/chats/internal/app"
	"github.com/nklyy/chats/internal/core"
)

const (
	// DefaultPingInterval is how often liveness probes go out.
	DefaultPingInterval = 5 * time.Second
	// DefaultClientTimeout drops a client that stayed silent for two
	// ping intervals.
	DefaultClientTimeout = 10 * time.Second
)

// Session lifecycle. Connecting until the hub hands back a session id,
// Active for normal operation, Closing while teardown runs, Closed is
// terminal.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

// Options tune the heartbeat model. Zero values fall back to defaults.
type Options struct {
	PingInterval  time.Duration
	ClientTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.PingInterval <= 0 {
		o.PingInterval = DefaultPingInterval
	}
	if o.ClientTimeout <= 0 {
		o.ClientTimeout = DefaultClientTimeout
	}
	return o
}

// Session is the per-connection state machine. It owns heartbeat timing,
// interprets inbound payloads and turns them into hub operations. It never
// touches hub state directly.
type Session struct {
	hub     *app.Hub
	conn    *wsConn
	limiter *RateLimiter
	opts    Options

	sid      core.SessionID
	lastBeat atomic.Int64
	state    atomic.Int32
	once     sync.Once
	done     chan struct{}
}

func newSession(hub *app.Hub, conn *wsConn, limiter *RateLimiter, opts Options) *Session {
	s := &Session{
		hub:     hub,
		conn:    conn,
		limiter: limiter,
		opts:    opts.withDefaults(),
		done:    make(chan struct{}),
	}
	s.beat()
	return s
}

// run registers with the hub and starts the pumps. Registration happens
// before any reading, so no application message is processed until the
// session id is assigned.
func (s *Session) run() {
	s.sid = s.hub.Register(s.conn)
	s.state.Store(int32(StateActive))
	log.Info().Str("module", "chat.session").Str("sid", string(s.sid)).Msg("session active")

	go s.writePump()
	go s.readPump()
}

func (s *Session) beat() {
	s.lastBeat.Store(time.Now().UnixNano())
}

func (s *Session) sinceBeat() time.Duration {
	return time.Since(time.Unix(0, s.lastBeat.Load()))
}

// close tears the session down exactly once: optional close frame to the
// peer, disconnect notice to the hub, stop both pumps. Every teardown path
// funnels through here, so the hub hears about us exactly once no matter
// which cause fires first.
func (s *Session) close(code int, reason string) {
	s.once.Do(func() {
		s.state.Store(int32(StateClosing))
		if code != 0 {
			if err := s.conn.writeClose(code, reason); err != nil {
				log.Debug().Err(err).Str("module", "chat.session").Str("sid", string(s.sid)).Msg("close frame not delivered")
			}
		}
		s.hub.Disconnect(s.sid)
		if s.limiter != nil {
			s.limiter.Forget(s.sid)
		}
		close(s.done)
		s.conn.Close()
		s.state.Store(int32(StateClosed))
		log.Info().Str("module", "chat.session").Str("sid", string(s.sid)).Msg("session closed")
	})
}

// writePump is the only writer of data frames. It drains the delivery
// queue and owns the heartbeat ticker: on each tick a silent client is
// dropped, a live one gets a ping.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case frame, ok := <-s.conn.send:
			if !ok {
				return
			}
			if err := s.conn.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.close(0, "")
				return
			}
			if err := s.conn.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Str("module", "chat.session").Str("sid", string(s.sid)).Msg("write failed")
				s.close(0, "")
				return
			}
		case <-ticker.C:
			if s.sinceBeat() > s.opts.ClientTimeout {
				log.Warn().Str("module", "chat.session").Str("sid", string(s.sid)).Msg("heartbeat timed out, disconnecting")
				s.close(websocket.CloseGoingAway, "heartbeat timeout")
				return
			}
			if err := s.conn.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.close(0, "")
				return
			}
		}
	}
}

// readPump services inbound frames. Pings and pongs refresh the heartbeat;
// text frames go through handleMessage. Any read error means the transport
// is gone and the session tears down.
func (s *Session) readPump() {
	defer s.close(0, "")

	s.conn.ws.SetReadLimit(readLimit)
	s.conn.ws.SetPongHandler(func(string) error {
		s.beat()
		return nil
	})
	s.conn.ws.SetPingHandler(func(appData string) error {
		s.beat()
		return s.conn.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		_, data, err := s.conn.ws.ReadMessage()
		if err != nil {
			log.Debug().Err(err).Str("module", "chat.session").Str("sid", string(s.sid)).Msg("read loop ended")
			return
		}
		s.handleMessage(data)
		if State(s.state.Load()) >= StateClosing {
			return
		}
	}
}

func (s *Session) handleMessage(data []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Error().Err(err).Str("module", "chat.session").Str("sid", string(s.sid)).Msg("invalid request json")
		s.close(websocket.CloseInvalidFramePayloadData, CloseReasonInvalid)
		return
	}

	switch msg.Action {
	case ActionPublishRoom:
		if s.limiter != nil && !s.limiter.Allow(s.sid) {
			log.Debug().Str("module", "chat.session").Str("sid", string(s.sid)).Msg("publish rate limited")
			return
		}
		s.hub.Publish(s.sid, msg.Message)
	case ActionDisconnect:
		s.close(websocket.CloseNormalClosure, "")
	default:
		log.Info().Str("module", "chat.session").Str("sid", string(s.sid)).Str("action", msg.Action).Msg("unsupported action")
		s.close(websocket.CloseUnsupportedData, CloseReasonUnsupported)
	}
}
