package energy

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"smarthome-go-api/models"
)

// PgStore is the pgx-backed persistence for energy logs.
type PgStore struct {
	DB *pgxpool.Pool
}

func NewPgStore(db *pgxpool.Pool) *PgStore {
	return &PgStore{DB: db}
}

// ListActiveDevices returns every device record not currently offline, across
// all users. These are the sampling targets of one cycle.
func (s *PgStore) ListActiveDevices(ctx context.Context) ([]models.DeviceRecord, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, user_id, device_id, device_name, device_type, status, last_updated
		FROM devices
		WHERE status <> 'offline'
	`)
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

// AddEnergySample upserts one hourly bucket. Additive: a second sample in the
// same (device, day, hour) adds to the existing consumption.
func (s *PgStore) AddEnergySample(ctx context.Context, entry models.EnergyLog) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO energy_logs (device_id, user_id, consumption, hour, day, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (device_id, day, hour, user_id) DO UPDATE SET
			consumption = energy_logs.consumption + EXCLUDED.consumption,
			recorded_at = EXCLUDED.recorded_at
	`, entry.DeviceID, entry.UserID, entry.Consumption, entry.Hour, entry.Day, entry.Timestamp)
	return err
}

// Summary reads the hourly series for a user since a cutoff, optionally
// filtered to one device, ordered chronologically.
func (s *PgStore) Summary(ctx context.Context, userID int64, deviceID string, since time.Time) ([]models.EnergyPoint, error) {
	query := `
		SELECT day::text, hour, SUM(consumption)::float8
		FROM energy_logs
		WHERE user_id = $1 AND day >= $2
	`
	args := []interface{}{userID, since}
	if deviceID != "" {
		query += ` AND device_id = $3`
		args = append(args, deviceID)
	}
	query += `
		GROUP BY day, hour
		ORDER BY day, hour
	`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := []models.EnergyPoint{}
	for rows.Next() {
		var p models.EnergyPoint
		if err := rows.Scan(&p.Day, &p.Hour, &p.Consumption); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}
