package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/nklyy/chats/internal/chat"
	"github.com/nklyy/chats/internal/config"
	"github.com/nklyy/chats/internal/health"
)

// ClientTokenMiddleware tags every visitor with an anonymous cookie token.
// Purely diagnostic; session ids are assigned by the hub, never taken from
// the client.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, chatCtl *chat.Controller, healthHandler *health.Handler) *gin.Engine {
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Environment == "development" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ChatSessions", store))
	r.Use(ClientTokenMiddleware())

	api := r.Group("/api/v1")
	healthHandler.SetupRoutes(api)

	r.GET("/chat", chatCtl.HandleChat)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
