package idempotency

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Emmyblinks655/taskpay-rewards/internal/api"
	"github.com/Emmyblinks655/taskpay-rewards/internal/logger"
	"github.com/Emmyblinks655/taskpay-rewards/internal/metrics"
)

const (
	HeaderKey      = "Idempotency-Key"
	HeaderReplayed = "Idempotent-Replayed"

	inFlight     = "inflight"
	maxKeyLength = 255
	keepKey      = "idempotency_keep"
)

// Keep marks the current response as final even if it is a server error.
// Handlers call it once the request has had a lasting effect, such as a
// created order, so a repeat is replayed instead of run again.
func Keep(c *gin.Context) {
	c.Set(keepKey, true)
}

type record struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Store remembers responses per user and Idempotency-Key.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: client, ttl: ttl, prefix: "idempotency:"}
}

func (s *Store) key(c *gin.Context, header string) string {
	owner := "anonymous"
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			owner = id.String()
		}
	}
	return fmt.Sprintf("%s%s:%s", s.prefix, owner, header)
}

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware de-duplicates requests that carry an Idempotency-Key. A
// duplicate of a finished request gets the stored response; a duplicate of
// one still running gets 409. Server errors release the key unless the
// handler called Keep. Redis outages fail open.
func Middleware(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(HeaderKey)
		if header == "" {
			c.Next()
			return
		}
		if len(header) > maxKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, api.ErrorResponse{Error: "Idempotency-Key is too long"})
			return
		}

		ctx := c.Request.Context()
		key := store.key(c, header)

		acquired, err := store.redis.SetNX(ctx, key, inFlight, store.ttl).Result()
		if err != nil {
			logger.Warn("idempotency store unavailable", "error", err)
			c.Next()
			return
		}

		if !acquired {
			replay(c, store, key)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// Detached so a client disconnect does not leave the key in flight.
		saveCtx := context.WithoutCancel(ctx)
		if w.Status() >= http.StatusInternalServerError && !c.GetBool(keepKey) {
			if err := store.redis.Del(saveCtx, key).Err(); err != nil {
				logger.Warn("failed to release idempotency key", "error", err)
			}
			return
		}

		data, err := json.Marshal(record{
			Status:      w.Status(),
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := store.redis.Set(saveCtx, key, string(data), store.ttl).Err(); err != nil {
			logger.Warn("failed to store idempotent response", "error", err)
		}
	}
}

func replay(c *gin.Context, store *Store, key string) {
	val, err := store.redis.Get(c.Request.Context(), key).Result()
	if err != nil || val == inFlight {
		c.AbortWithStatusJSON(http.StatusConflict, api.ErrorResponse{Error: "a request with this Idempotency-Key is already in progress"})
		return
	}

	var rec record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		c.AbortWithStatusJSON(http.StatusConflict, api.ErrorResponse{Error: "a request with this Idempotency-Key is already in progress"})
		return
	}

	metrics.RecordIdempotentReplay()
	c.Header(HeaderReplayed, "true")
	c.Data(rec.Status, rec.ContentType, rec.Body)
	c.Abort()
}
