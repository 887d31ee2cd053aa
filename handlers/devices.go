package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"smarthome-go-api/config"
	"smarthome-go-api/models"
	"smarthome-go-api/tuya"
	"smarthome-go-api/utils"
)

// DeviceGateway is the sync/control surface of the cloud gateway.
type DeviceGateway interface {
	ListAndSyncDevices(ctx context.Context, userID int64) ([]models.DeviceRecord, error)
	ControlDevice(ctx context.Context, userID int64, deviceID, command string) error
}

type DeviceHandler struct {
	Gateway DeviceGateway
	Redis   *redis.Client
	Config  *config.Config
}

func NewDeviceHandler(gw DeviceGateway, rdb *redis.Client, cfg *config.Config) *DeviceHandler {
	return &DeviceHandler{Gateway: gw, Redis: rdb, Config: cfg}
}

// ListDevices syncs the user's devices from the cloud and returns the local
// set. When the cloud is unreachable the last successful listing is served
// from cache, marked stale; the database stays canonical either way.
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(int64)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	devices, err := h.Gateway.ListAndSyncDevices(r.Context(), userID)
	if err != nil {
		if errors.Is(err, tuya.ErrAuth) {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid cloud credentials")
			return
		}
		if cached, ok := h.cachedDevices(r.Context(), userID); ok {
			slog.Warn("serving_cached_devices", slog.Int64("user_id", userID), slog.Any("error", err))
			utils.WriteJSON(w, http.StatusOK, models.DeviceListResponse{Devices: cached, Stale: true})
			return
		}
		slog.Error("device_sync_failed", slog.Int64("user_id", userID), slog.Any("error", err))
		utils.WriteError(w, http.StatusBadGateway, "Failed to fetch devices from cloud")
		return
	}

	h.cacheDevices(r.Context(), userID, devices)
	utils.WriteJSON(w, http.StatusOK, models.DeviceListResponse{Devices: devices})
}

// Control switches one device on or off. A failed attempt leaves the stored
// status untouched, so clients fall back to the last known state.
func (h *DeviceHandler) Control(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(int64)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	deviceID := r.PathValue("id")
	if deviceID == "" {
		utils.WriteError(w, http.StatusBadRequest, "device id is required")
		return
	}

	var req models.ControlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, utils.ValidationErrorMessage(err))
		return
	}

	if err := h.Gateway.ControlDevice(r.Context(), userID, deviceID, req.Command); err != nil {
		if errors.Is(err, tuya.ErrAuth) {
			utils.WriteError(w, http.StatusUnauthorized, "Invalid cloud credentials")
			return
		}
		slog.Warn("device_control_failed",
			slog.String("device_id", deviceID),
			slog.Int64("user_id", userID),
			slog.Any("error", err),
		)
		utils.WriteError(w, http.StatusBadGateway, "Failed to control device")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Device turned %s", req.Command),
		"status":  req.Command,
	})
}

func (h *DeviceHandler) cacheDevices(ctx context.Context, userID int64, devices []models.DeviceRecord) {
	if h.Redis == nil || h.Config.DeviceCacheTTLSec <= 0 {
		return
	}
	payload, err := json.Marshal(devices)
	if err != nil {
		return
	}
	ttl := time.Duration(h.Config.DeviceCacheTTLSec) * time.Second
	if err := h.Redis.Set(ctx, deviceCacheKey(userID), payload, ttl).Err(); err != nil {
		slog.Debug("device_cache_write_failed", slog.Any("error", err))
	}
}

func (h *DeviceHandler) cachedDevices(ctx context.Context, userID int64) ([]models.DeviceRecord, bool) {
	if h.Redis == nil {
		return nil, false
	}
	payload, err := h.Redis.Get(ctx, deviceCacheKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var devices []models.DeviceRecord
	if err := json.Unmarshal(payload, &devices); err != nil {
		return nil, false
	}
	return devices, true
}

func deviceCacheKey(userID int64) string {
	return fmt.Sprintf("devices:latest:%d", userID)
}
