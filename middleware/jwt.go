package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"

	"smarthome-go-api/utils"
)

type JWTMiddleware struct {
	Secret string
	Redis  *redis.Client
}

func NewJWTMiddleware(secret string, rdb *redis.Client) *JWTMiddleware {
	return &JWTMiddleware{Secret: secret, Redis: rdb}
}

// Authenticate validates the bearer token, rejects refresh tokens and revoked
// JTIs, and puts the user identity on the request context.
func (m *JWTMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			utils.WriteError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := utils.ValidateJWT(m.Secret, parts[1])
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if claims.TokenType != "access" {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		blacklisted, err := utils.IsTokenBlacklisted(r.Context(), m.Redis, claims.JTI)
		if err == nil && blacklisted {
			utils.WriteError(w, http.StatusUnauthorized, "Token has been revoked")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, "jwt_claims", claims)
		ctx = context.WithValue(ctx, "user_id", claims.UserID)
		ctx = context.WithValue(ctx, "username", claims.Username)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
