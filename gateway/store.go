package gateway

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"smarthome-go-api/models"
	"smarthome-go-api/tuya"
)

// Store is the pgx-backed persistence for device records and credentials.
type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// UpsertDevice inserts or refreshes one device record. Name and status follow
// the remote payload; fields the payload does not carry are left untouched.
func (s *Store) UpsertDevice(ctx context.Context, rec models.DeviceRecord) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO devices (user_id, device_id, device_name, device_type, status, last_updated)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, device_id) DO UPDATE SET
			device_name = EXCLUDED.device_name,
			status = EXCLUDED.status,
			last_updated = NOW()
	`, rec.UserID, rec.DeviceID, rec.Name, rec.Type, rec.Status)
	return err
}

// ListDevicesByUser reads the user's full device set ordered by name, the
// canonical response after a sync.
func (s *Store) ListDevicesByUser(ctx context.Context, userID int64) ([]models.DeviceRecord, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, device_id, device_name, device_type, status, last_updated
		FROM devices
		WHERE user_id = $1
		ORDER BY device_name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	devices := []models.DeviceRecord{}
	for rows.Next() {
		var d models.DeviceRecord
		if err := rows.Scan(&d.ID, &d.UserID, &d.DeviceID, &d.Name, &d.Type, &d.Status, &d.LastUpdated); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (s *Store) UpdateDeviceStatus(ctx context.Context, userID int64, deviceID, status string) error {
	_, err := s.DB.Exec(ctx, `
		UPDATE devices
		SET status = $1, last_updated = NOW()
		WHERE user_id = $2 AND device_id = $3
	`, status, userID, deviceID)
	return err
}

func (s *Store) CredentialByUser(ctx context.Context, userID int64) (tuya.Credential, error) {
	var cred tuya.Credential
	err := s.DB.QueryRow(ctx, `
		SELECT client_id, client_secret
		FROM users
		WHERE id = $1
	`, userID).Scan(&cred.ClientID, &cred.ClientSecret)
	return cred, err
}
