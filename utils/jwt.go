package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smarthome-go-api/models"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("expired token")
	ErrBlacklistedToken = errors.New("token has been revoked")
)

// GenerateJWT generates a session token with a unique JTI. tokenType is
// "access" or "refresh".
func GenerateJWT(secret, tokenType string, userID int64, username string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"jti":        uuid.New().String(),
		"user_id":    userID,
		"username":   username,
		"token_type": tokenType,
		"exp":        now.Add(expiration).Unix(),
		"iat":        now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateJWT validates a session token and returns typed claims.
func ValidateJWT(secret, tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if exp, ok := mapClaims["exp"].(float64); ok {
		if time.Unix(int64(exp), 0).Before(time.Now()) {
			return nil, ErrExpiredToken
		}
	}

	return parseJWTClaims(mapClaims)
}

// IsTokenBlacklisted checks if a token JTI has been revoked by logout.
func IsTokenBlacklisted(ctx context.Context, redisClient *redis.Client, jti string) (bool, error) {
	if jti == "" || redisClient == nil {
		return false, nil
	}

	exists, err := redisClient.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// BlacklistToken revokes a token JTI until its natural expiry.
func BlacklistToken(ctx context.Context, redisClient *redis.Client, jti string, ttl time.Duration) error {
	if jti == "" || redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return redisClient.Set(ctx, blacklistKey(jti), "1", ttl).Err()
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("jwt:blacklist:%s", jti)
}

func parseJWTClaims(m jwt.MapClaims) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}

	if jti, ok := m["jti"].(string); ok {
		claims.JTI = jti
	}

	userID, ok := m["user_id"].(float64)
	if !ok {
		return nil, fmt.Errorf("missing user_id claim")
	}
	claims.UserID = int64(userID)

	username, ok := m["username"].(string)
	if !ok {
		return nil, fmt.Errorf("missing username claim")
	}
	claims.Username = username

	if tokenType, ok := m["token_type"].(string); ok {
		claims.TokenType = tokenType
	}

	if exp, ok := m["exp"].(float64); ok {
		claims.ExpiresAt = int64(exp)
	}
	if iat, ok := m["iat"].(float64); ok {
		claims.IssuedAt = int64(iat)
	}

	return claims, nil
}
