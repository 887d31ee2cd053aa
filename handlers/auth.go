package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"smarthome-go-api/config"
	"smarthome-go-api/models"
	"smarthome-go-api/tuya"
	"smarthome-go-api/utils"
)

// CredentialProber validates a cloud credential pair before it is stored.
type CredentialProber interface {
	ValidateCredential(ctx context.Context, cred tuya.Credential) error
}

type AuthHandler struct {
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Prober CredentialProber
	Config *config.Config
}

func NewAuthHandler(db *pgxpool.Pool, rdb *redis.Client, prober CredentialProber, cfg *config.Config) *AuthHandler {
	return &AuthHandler{DB: db, Redis: rdb, Prober: prober, Config: cfg}
}

// Signup creates an account after verifying the supplied cloud credential
// pair actually works. Listing devices is the cheapest full-path probe: it
// exercises token acquisition and a signed call.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ValidationErrorMessage(err))
		return
	}

	cred := tuya.Credential{ClientID: req.ClientID, ClientSecret: req.ClientSecret}
	if err := h.Prober.ValidateCredential(r.Context(), cred); err != nil {
		if errors.Is(err, tuya.ErrAuth) {
			utils.WriteError(w, http.StatusBadRequest, "Invalid cloud credentials")
			return
		}
		slog.Warn("credential_probe_failed", slog.Any("error", err))
		utils.WriteError(w, http.StatusBadGateway, "Could not reach device cloud")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	var userID int64
	err = h.DB.QueryRow(r.Context(), `
		INSERT INTO users (username, password_hash, client_id, client_secret)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
		RETURNING id
	`, req.Username, string(passwordHash), req.ClientID, req.ClientSecret).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteError(w, http.StatusConflict, "Username already taken")
			return
		}
		slog.Error("signup_insert_failed", slog.Any("error", err))
		utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       userID,
		"username": req.Username,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ValidationErrorMessage(err))
		return
	}

	var user models.User
	var passwordHash string
	err := h.DB.QueryRow(r.Context(), `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`, req.Username).Scan(&user.ID, &user.Username, &passwordHash, &user.CreatedAt)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)); err != nil {
		utils.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	accessToken, err := utils.GenerateJWT(h.Config.JWTSecret, "access", user.ID, user.Username, h.Config.JWTAccessExpiration)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	refreshToken, err := utils.GenerateJWT(h.Config.JWTSecret, "refresh", user.ID, user.Username, h.Config.JWTRefreshExpiration)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(h.Config.JWTAccessExpiration.Seconds()),
		User:         user,
	})
}

// Logout revokes the presented access token until its natural expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := r.Context().Value("jwt_claims").(*models.JWTClaims)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ttl := time.Until(time.Unix(claims.ExpiresAt, 0))
	if err := utils.BlacklistToken(r.Context(), h.Redis, claims.JTI, ttl); err != nil {
		slog.Warn("token_blacklist_failed", slog.Any("error", err))
		utils.WriteError(w, http.StatusInternalServerError, "Could not log out")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}
