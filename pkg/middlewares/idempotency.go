package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/cache"
	"github.com/nimeshabuddhika/fraud-scoring-service/pkg/utils"
	"go.uber.org/zap"
)

const (
	// IdempotencyKeyPrefix namespaces cached replies.
	IdempotencyKeyPrefix = "idempotency:"
	// IdempotencyLockPrefix namespaces in-flight locks.
	IdempotencyLockPrefix = "idempotency-lock:"
	// IdempotencyLockTimeout bounds a lock left behind by a crashed request.
	IdempotencyLockTimeout = 10 * time.Second
)

// bodyCaptureWriter tees the response body so it can be cached after the handler runs.
type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// cachedReply is what gets stored under an idempotency key.
// BodyHash binds the reply to the request that produced it.
type cachedReply struct {
	BodyHash string `json:"bodyHash"`
	Body     string `json:"body"`
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Idempotency replays cached 2xx replies for requests carrying an Idempotency-Key header.
//
// Flow:
//  1. no key: pass through
//  2. cached reply for the same body: return it with X-Idempotency-Hit: true
//  3. cached reply for a different body: 422
//  4. lock held by a concurrent request: 409
//  5. otherwise run the handler and cache a 2xx reply for ttl
func Idempotency(logger *zap.Logger, store cache.ResponseCache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Header.Get(pkg.HeaderIdempotencyKey)
		if utils.IsEmpty(key) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		traceID := c.GetString(pkg.TraceId)
		cacheKey := IdempotencyKeyPrefix + key
		lockKey := IdempotencyLockPrefix + key

		body, err := c.GetRawData()
		if err != nil {
			resp := pkg.ToErrorResponse(logger, traceID, pkg.NewAppError(pkg.ErrInvalidInputCode, "cannot read request body", err))
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		bodyHash := hashBody(body)

		cached, found, err := store.Get(ctx, cacheKey)
		if err != nil {
			// the cache is an optimisation; scoring is deterministic so falling through is safe
			logger.Warn("idempotency_cache_read_failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
			c.Next()
			return
		}
		if found {
			var reply cachedReply
			if err := json.Unmarshal([]byte(cached), &reply); err != nil {
				logger.Warn("idempotency_cache_entry_corrupt", zap.String(pkg.TraceId, traceID), zap.Error(err))
				c.Next()
				return
			}
			if reply.BodyHash != bodyHash {
				logger.Warn("idempotency_key_reused",
					zap.String(pkg.TraceId, traceID), zap.String(pkg.IdempotencyKey, key))
				resp := pkg.ToErrorResponse(logger, traceID,
					pkg.NewAppError(pkg.ErrIdempotencyMismatchCode, pkg.ErrIdempotencyMismatchCode.Message, nil))
				c.AbortWithStatusJSON(resp.Status, resp)
				return
			}
			logger.Debug("idempotency_cache_hit", zap.String(pkg.TraceId, traceID), zap.String(pkg.IdempotencyKey, key))
			c.Header(pkg.HeaderIdempotencyHit, "true")
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(reply.Body))
			c.Abort()
			return
		}

		acquired, err := store.Lock(ctx, lockKey, IdempotencyLockTimeout)
		if err != nil {
			logger.Warn("idempotency_lock_failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
			c.Next()
			return
		}
		if !acquired {
			resp := pkg.ToErrorResponse(logger, traceID,
				pkg.NewAppError(pkg.ErrIdempotencyConflictCode, pkg.ErrIdempotencyConflictCode.Message, nil))
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		defer func() {
			if err := store.Unlock(ctx, lockKey); err != nil {
				logger.Warn("idempotency_unlock_failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
			}
		}()

		w := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if status := w.Status(); status >= 200 && status < 300 {
			entry, err := json.Marshal(cachedReply{BodyHash: bodyHash, Body: w.body.String()})
			if err != nil {
				logger.Warn("idempotency_cache_encode_failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
				return
			}
			if err := store.Set(ctx, cacheKey, string(entry), ttl); err != nil {
				logger.Warn("idempotency_cache_write_failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
			}
		}
	}
}
