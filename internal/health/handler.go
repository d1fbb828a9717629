package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/nklyy/chats/internal/app"
)

type Handler struct {
	hub   *app.Hub
	redis *redis.Client
}

func NewHandler(hub *app.Hub, redisClient *redis.Client) *Handler {
	return &Handler{hub: hub, redis: redisClient}
}

func (h *Handler) SetupRoutes(r *gin.RouterGroup) {
	r.GET("/health", h.Liveness)
	r.GET("/health/readiness", h.Readiness)
}

// Liveness answers as long as the process is up.
func (h *Handler) Liveness(c *gin.Context) {
	sessions, rooms := h.hub.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": sessions,
		"rooms":    rooms,
	})
}

// Readiness also pings redis; a failing ping reports degraded but the chat
// core keeps running without it.
func (h *Handler) Readiness(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{"status": status})
}
