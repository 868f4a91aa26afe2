package storage

import (
	"context"
	"fmt"
)

const (
	createReadingsSQL = `CREATE TABLE IF NOT EXISTS readings (
    id                BIGSERIAL PRIMARY KEY,
    ts                TIMESTAMPTZ NOT NULL,
    location          TEXT NOT NULL,
    latitude          DOUBLE PRECISION NOT NULL,
    longitude         DOUBLE PRECISION NOT NULL,
    temperature_c     DOUBLE PRECISION NOT NULL,
    precipitation_mmh DOUBLE PRECISION NOT NULL,
    wind_speed_kmh    DOUBLE PRECISION NOT NULL,
    humidity_pct      DOUBLE PRECISION NOT NULL,
    weather_code      INTEGER NOT NULL,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	createReadingsIndexSQL = `CREATE INDEX IF NOT EXISTS readings_ts_idx
    ON readings (ts DESC);`

	createAlertLogSQL = `CREATE TABLE IF NOT EXISTS alert_log (
    id         BIGSERIAL PRIMARY KEY,
    ts         TIMESTAMPTZ NOT NULL,
    alert_type TEXT NOT NULL,
    severity   TEXT NOT NULL,
    message    TEXT NOT NULL,
    delivered  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

	createAlertLogIndexSQL = `CREATE INDEX IF NOT EXISTS alert_log_type_ts_idx
    ON alert_log (alert_type, ts DESC);`
)

// EnsureSchema creates the tables and indexes if they do not exist. The
// statements are idempotent, so running it on every startup is safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	statements := []string{
		createReadingsSQL,
		createReadingsIndexSQL,
		createAlertLogSQL,
		createAlertLogIndexSQL,
	}
	for _, stmt := range statements {
		if _, execErr := pool.Exec(ctx, stmt); execErr != nil {
			return fmt.Errorf("ensure schema: %w", execErr)
		}
	}
	return nil
}
