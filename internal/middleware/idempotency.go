package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/pkg/utils"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
	idempotencyLock   = 30 * time.Second
	idempotencyPrefix = "idempotency:"
)

// IdempotencyMiddleware replays the stored 2xx response when a mutating
// request is retried with the same Idempotency-Key and body
type IdempotencyMiddleware struct {
	redis  *redis.Client
	logger *slog.Logger
}

type cachedResponse struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       []byte            `json:"body"`
	BodyHash   string            `json:"body_hash"`
}

func NewIdempotencyMiddleware(redisClient *redis.Client, logger *slog.Logger) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{redis: redisClient, logger: logger}
}

// responseWriter captures the response for caching
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

func (m *IdempotencyMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		idempotencyKey := r.Header.Get(IdempotencyHeader)
		if idempotencyKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			utils.BadRequest(w, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		// keys are scoped per caller so two users cannot collide
		scope := "anonymous"
		if id, ok := IdentityFrom(r.Context()); ok {
			scope = id.UserID
		}
		cacheKey := idempotencyPrefix + scope + ":" + idempotencyKey
		bodyHash := hashRequest(r.Method, r.URL.Path, bodyBytes)
		ctx := r.Context()

		cached, err := m.getCachedResponse(ctx, cacheKey)
		switch {
		case err == nil:
			if cached.BodyHash != bodyHash {
				utils.Error(w, apperrors.IdempotencyConflict())
				return
			}
			for k, v := range cached.Headers {
				w.Header().Set(k, v)
			}
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(cached.StatusCode)
			w.Write(cached.Body)
			return
		case !errors.Is(err, redis.Nil):
			m.logger.Warn("idempotency lookup failed", "key", cacheKey, "error", err)
			next.ServeHTTP(w, r)
			return
		}

		lockKey := cacheKey + ":lock"
		locked, err := m.redis.SetNX(ctx, lockKey, "1", idempotencyLock).Result()
		if err != nil {
			m.logger.Warn("idempotency lock failed", "key", cacheKey, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !locked {
			utils.Error(w, apperrors.NewAPIError("request_in_progress",
				"a request with this idempotency key is already being processed", http.StatusConflict))
			return
		}
		defer m.redis.Del(context.WithoutCancel(ctx), lockKey)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 200 && rw.statusCode < 300 {
			cached := cachedResponse{
				StatusCode: rw.statusCode,
				Headers:    map[string]string{"Content-Type": rw.Header().Get("Content-Type")},
				Body:       rw.body.Bytes(),
				BodyHash:   bodyHash,
			}

			data, err := json.Marshal(cached)
			if err == nil {
				err = m.redis.Set(context.WithoutCancel(ctx), cacheKey, data, idempotencyTTL).Err()
			}
			if err != nil {
				m.logger.Warn("failed to store idempotent response", "key", cacheKey, "error", err)
			}
		}
	})
}

func (m *IdempotencyMiddleware) getCachedResponse(ctx context.Context, key string) (*cachedResponse, error) {
	data, err := m.redis.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var cached cachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

func hashRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
