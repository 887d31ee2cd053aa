package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Statements are idempotent so every instance can run them at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		client_id TEXT NOT NULL,
		client_secret TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS devices (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		device_id TEXT NOT NULL,
		device_name TEXT NOT NULL,
		device_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'offline',
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, device_id)
	)`,

	`CREATE TABLE IF NOT EXISTS energy_logs (
		id BIGSERIAL PRIMARY KEY,
		device_id TEXT NOT NULL,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		consumption NUMERIC(10,4) NOT NULL,
		hour INT NOT NULL,
		day DATE NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (device_id, day, hour, user_id)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_energy_device_day ON energy_logs (device_id, day)`,
	`CREATE INDEX IF NOT EXISTS idx_energy_user_day ON energy_logs (user_id, day)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_status ON devices (status)`,
}

// EnsureSchema creates the tables and indexes the API needs.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
