package v1

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duynhne/contact-service/middleware"
)

// readyTimeout bounds the store ping behind /ready
const readyTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the root, liveness and readiness endpoints
type HealthHandler struct {
	store          Pinger
	version        string
	isShuttingDown *atomic.Bool
}

// NewHealthHandler creates a health handler. Readiness fails once isShuttingDown is set.
func NewHealthHandler(store Pinger, version string, isShuttingDown *atomic.Bool) *HealthHandler {
	return &HealthHandler{store: store, version: version, isShuttingDown: isShuttingDown}
}

// RegisterRoutes mounts /, /health and /ready on r
func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
}

// Root returns a welcome payload
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Contact Management API",
		"version": h.version,
	})
}

// Health is the liveness probe
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Ready returns 503 once shutdown has started or while the store is unreachable
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.isShuttingDown.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		middleware.GetLoggerFromGinContext(c).Warn("Readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store_unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
