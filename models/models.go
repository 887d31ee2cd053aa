package models

import "time"

// Derived device states. A device that disappears from the remote inventory
// keeps its last known state; records are never pruned.
const (
	StatusOn      = "on"
	StatusOff     = "off"
	StatusOffline = "offline"
)

// User represents a dashboard account with its linked cloud credential pair.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// DeviceRecord is the persisted view of one cloud device, keyed uniquely by
// (user_id, device_id). Created on first sync, updated on every subsequent
// one, deleted only via cascading user deletion.
type DeviceRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	DeviceID    string    `json:"device_id"`
	Name        string    `json:"device_name"`
	Type        string    `json:"device_type"`
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"last_updated"`
}

// EnergyLog is one hourly consumption bucket, keyed uniquely by
// (device_id, day, hour, user_id). Samples within the same hour accumulate.
type EnergyLog struct {
	DeviceID    string    `json:"device_id"`
	UserID      int64     `json:"user_id"`
	Consumption float64   `json:"consumption"`
	Hour        int       `json:"hour"`
	Day         time.Time `json:"day"`
	Timestamp   time.Time `json:"timestamp"`
}

// EnergyPoint is one bucket of an energy summary series.
type EnergyPoint struct {
	Day         string  `json:"day"`
	Hour        int     `json:"hour"`
	Consumption float64 `json:"consumption"`
}

// EnergySummary is the read-time aggregate; cost is derived from the tariff,
// never stored.
type EnergySummary struct {
	Series           []EnergyPoint `json:"series"`
	TotalConsumption float64       `json:"total_consumption"`
	TotalCost        float64       `json:"total_cost"`
}

// JWTClaims represents JWT token claims
type JWTClaims struct {
	JTI       string `json:"jti"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

// SignupRequest carries account details plus the cloud credential pair. The
// credential is validated against the cloud before the account is created.
type SignupRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=64"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

// ControlRequest asks for a device to be switched on or off.
type ControlRequest struct {
	Command string `json:"command" validate:"required,oneof=on off"`
}

// DeviceListResponse is the canonical device listing read back from storage
// after a sync. Stale marks a response served from cache because the cloud
// was unreachable.
type DeviceListResponse struct {
	Devices []DeviceRecord `json:"devices"`
	Stale   bool           `json:"stale,omitempty"`
}
