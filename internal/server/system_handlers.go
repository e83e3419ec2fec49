package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Emmyblinks655/taskpay-rewards/internal/api"
	"github.com/Emmyblinks655/taskpay-rewards/internal/events"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
)

type SystemHandler struct {
	db    *sqlx.DB
	redis *redis.Client
	feed  *events.RedisFeed
}

func NewSystemHandler(db *sqlx.DB, rdb *redis.Client, feed *events.RedisFeed) *SystemHandler {
	return &SystemHandler{db: db, redis: rdb, feed: feed}
}

// @Summary      Health check
// @Description  Reports database and Redis reachability
// @Tags         system
// @Produce      json
// @Success      200 {object} api.HealthResponse
// @Failure      503 {object} api.HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			logger.Error("health check: database unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "database unavailable"})
			return
		}
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			logger.Error("health check: redis unreachable", "error", err)
			c.JSON(http.StatusServiceUnavailable, api.HealthResponse{Status: "redis unavailable"})
			return
		}
	}

	c.JSON(http.StatusOK, api.HealthResponse{Status: "ok"})
}

// @Summary      Recent order events
// @Description  Admin-only: newest order lifecycle events from the Redis feed
// @Tags         admin,system
// @Produce      json
// @Security     BearerAuth
// @Param        limit query int false "Number of events" default(50)
// @Success      200 {array}  events.Event
// @Failure      500 {object} api.ErrorResponse
// @Failure      503 {object} api.ErrorResponse
// @Router       /api/v1/admin/events [get]
func (h *SystemHandler) RecentEvents(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "event feed not configured"})
		return
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	recent, err := h.feed.Recent(c.Request.Context(), limit)
	if err != nil {
		logger.Error("failed to read event feed", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to read events"})
		return
	}

	c.JSON(http.StatusOK, recent)
}

// @Summary      Prometheus metrics
// @Description  Exposes Prometheus metrics in text format
// @Tags         system
// @Produce      text/plain
// @Success      200 {string} string
// @Router       /metrics [get]
func Metrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
