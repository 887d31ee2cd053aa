package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"smarthome-go-api/metrics"
	"smarthome-go-api/utils"
)

// RateLimitAuth limits authentication endpoints by client IP to slow down
// credential stuffing. Redis-backed; fails open when Redis is down.
type RateLimitAuth struct {
	Redis       *redis.Client
	MaxAttempts int64
	WindowSecs  int64
}

func NewRateLimitAuth(redisClient *redis.Client, maxAttempts, windowSecs int64) *RateLimitAuth {
	return &RateLimitAuth{
		Redis:       redisClient,
		MaxAttempts: maxAttempts,
		WindowSecs:  windowSecs,
	}
}

func (rl *RateLimitAuth) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.Redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := clientIPFrom(r)
		key := fmt.Sprintf("rl:auth:%s", clientIP)
		ctx := context.Background()

		val, err := rl.Redis.Incr(ctx, key).Result()
		if err != nil {
			// Fail open.
			next.ServeHTTP(w, r)
			return
		}

		if val == 1 {
			rl.Redis.Expire(ctx, key, time.Duration(rl.WindowSecs)*time.Second)
		}

		if val > rl.MaxAttempts {
			metrics.AuthRateLimited(r.URL.Path)
			ttl, _ := rl.Redis.TTL(ctx, key).Result()
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			utils.WriteError(w, http.StatusTooManyRequests, "Too many authentication attempts. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIPFrom(r *http.Request) string {
	clientIP := r.RemoteAddr
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		clientIP = strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		clientIP = xri
	}
	if host, _, err := net.SplitHostPort(clientIP); err == nil {
		clientIP = host
	}
	return clientIP
}
