package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	apperrors "github.com/toosila/toosila-api/internal/errors"
	"github.com/toosila/toosila-api/pkg/utils"
)

// RateLimiter is a fixed-window limiter with one quota per caller: the
// authenticated user when Auth ran first, otherwise the client IP.
type RateLimiter struct {
	redis    *redis.Client
	requests int
	window   time.Duration
	logger   *slog.Logger
}

func NewRateLimiter(redisClient *redis.Client, requests int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:    redisClient,
		requests: requests,
		window:   window,
		logger:   logger,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := rateLimitKey(r)

		allowed, remaining, err := rl.isAllowed(r.Context(), key)
		if err != nil {
			// fail open
			rl.logger.Warn("rate limiter unavailable", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			utils.Error(w, apperrors.TooManyRequests())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) isAllowed(ctx context.Context, key string) (bool, int, error) {
	pipe := rl.redis.Pipeline()

	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return true, rl.requests, err
	}

	count := int(incr.Val())
	remaining := rl.requests - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= rl.requests, remaining, nil
}

func rateLimitKey(r *http.Request) string {
	if id, ok := IdentityFrom(r.Context()); ok && id.UserID != "" {
		return fmt.Sprintf("ratelimit:user:%s", id.UserID)
	}
	return fmt.Sprintf("ratelimit:ip:%s", clientIP(r))
}

// clientIP prefers the first X-Forwarded-For hop, then RemoteAddr without port
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
