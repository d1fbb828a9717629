package chat

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nklyy/chats/internal/app"
)

const (
	publishLimit  = 30
	publishWindow = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Controller upgrades incoming connections and hands each one its own
// session.
type Controller struct {
	hub     *app.Hub
	limiter *RateLimiter
	opts    Options
}

func NewController(hub *app.Hub, opts Options) *Controller {
	return &Controller{
		hub:     hub,
		limiter: NewRateLimiter(publishLimit, publishWindow),
		opts:    opts,
	}
}

func (ctl *Controller) HandleChat(c *gin.Context) {
	log.Info().Str("module", "chat.controller").Str("ct", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "chat.controller").Msg("ws upgrade")
		return
	}

	sess := newSession(ctl.hub, newWSConn(ws), ctl.limiter, ctl.opts)
	sess.run()
}
