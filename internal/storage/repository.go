package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertReadingSQL = `INSERT INTO readings (
        ts,
        location,
        latitude,
        longitude,
        temperature_c,
        precipitation_mmh,
        wind_speed_kmh,
        humidity_pct,
        weather_code
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9
    )
    RETURNING id, created_at;`

	listRecentReadingsSQL = `SELECT
        id,
        ts,
        location,
        latitude,
        longitude,
        temperature_c,
        precipitation_mmh,
        wind_speed_kmh,
        humidity_pct,
        weather_code,
        created_at
    FROM readings
    ORDER BY ts DESC
    LIMIT $1;`

	listReadingsBetweenSQL = `SELECT
        id,
        ts,
        location,
        latitude,
        longitude,
        temperature_c,
        precipitation_mmh,
        wind_speed_kmh,
        humidity_pct,
        weather_code,
        created_at
    FROM readings
    WHERE ts >= $1
      AND ts < $2
    ORDER BY ts;`

	countReadingsSQL = `SELECT COUNT(*) FROM readings;`

	deleteReadingsBeforeSQL = `DELETE FROM readings WHERE ts < $1;`

	insertAlertSQL = `INSERT INTO alert_log (
        ts,
        alert_type,
        severity,
        message,
        delivered
    ) VALUES (
        $1,$2,$3,$4,$5
    )
    RETURNING id, created_at;`

	latestAlertTimesSQL = `SELECT alert_type, MAX(ts)
    FROM alert_log
    WHERE alert_type = ANY($1)
    GROUP BY alert_type;`

	listRecentAlertsSQL = `SELECT
        id,
        ts,
        alert_type,
        severity,
        message,
        delivered,
        created_at
    FROM alert_log
    ORDER BY ts DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM alert_log WHERE ts < $1;`
)

// ReadingStore defines operations for reading persistence.
type ReadingStore interface {
	InsertReading(ctx context.Context, reading Reading) (Reading, error)
	ListRecentReadings(ctx context.Context, limit int) ([]Reading, error)
	ListReadingsBetween(ctx context.Context, from, to time.Time) ([]Reading, error)
	CountReadings(ctx context.Context) (int64, error)
	DeleteReadingsBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// AlertStore defines operations for the alert log.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	LatestAlertTimes(ctx context.Context, types []string) (map[string]time.Time, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error)
}

// Store aggregates access to readings and the alert log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if pingErr := pool.Ping(ctx); pingErr != nil {
		return fmt.Errorf("ping database: %w", pingErr)
	}
	return nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertReading persists a reading and returns it with id and created_at set.
func (s *Store) InsertReading(ctx context.Context, reading Reading) (Reading, error) {
	pool, err := s.getPool()
	if err != nil {
		return Reading{}, err
	}

	row := pool.QueryRow(ctx, insertReadingSQL,
		reading.Timestamp,
		reading.Location,
		reading.Latitude,
		reading.Longitude,
		reading.Temperature,
		reading.Precipitation,
		reading.WindSpeed,
		reading.Humidity,
		reading.WeatherCode,
	)

	if scanErr := row.Scan(&reading.ID, &reading.CreatedAt); scanErr != nil {
		return Reading{}, fmt.Errorf("insert reading: %w", scanErr)
	}
	return reading, nil
}

// ListRecentReadings lists the most recent readings, newest first.
func (s *Store) ListRecentReadings(ctx context.Context, limit int) ([]Reading, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentReadingsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent readings: %w", queryErr)
	}
	defer rows.Close()

	readings := make([]Reading, 0, limit)
	for rows.Next() {
		reading, scanErr := scanReading(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		readings = append(readings, reading)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return readings, nil
}

// ListReadingsBetween lists readings within [from, to), oldest first.
func (s *Store) ListReadingsBetween(ctx context.Context, from, to time.Time) ([]Reading, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listReadingsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list readings between: %w", queryErr)
	}
	defer rows.Close()

	readings := make([]Reading, 0)
	for rows.Next() {
		reading, scanErr := scanReading(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		readings = append(readings, reading)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return readings, nil
}

// CountReadings counts stored readings.
func (s *Store) CountReadings(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countReadingsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count readings: %w", scanErr)
	}
	return count, nil
}

// DeleteReadingsBefore deletes readings older than the cutoff and reports
// how many rows went away.
func (s *Store) DeleteReadingsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteReadingsBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete readings before: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}

// InsertAlert persists an alert record and returns it with id and created_at
// set.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.Timestamp,
		alert.AlertType,
		alert.Severity,
		alert.Message,
		alert.Delivered,
	)

	if scanErr := row.Scan(&alert.ID, &alert.CreatedAt); scanErr != nil {
		return AlertRecord{}, fmt.Errorf("insert alert: %w", scanErr)
	}
	return alert, nil
}

// LatestAlertTimes returns the timestamp of the newest alert record per
// type, for the given types. Types with no history are absent from the map.
func (s *Store) LatestAlertTimes(ctx context.Context, types []string) (map[string]time.Time, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, latestAlertTimesSQL, types)
	if queryErr != nil {
		return nil, fmt.Errorf("latest alert times: %w", queryErr)
	}
	defer rows.Close()

	latest := make(map[string]time.Time, len(types))
	for rows.Next() {
		var alertType string
		var ts time.Time
		if scanErr := rows.Scan(&alertType, &ts); scanErr != nil {
			return nil, scanErr
		}
		latest[alertType] = ts
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return latest, nil
}

// ListRecentAlerts lists the most recent alert records, newest first.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentAlertsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent alerts: %w", queryErr)
	}
	defer rows.Close()

	alerts := make([]AlertRecord, 0, limit)
	for rows.Next() {
		var rec AlertRecord
		if scanErr := rows.Scan(
			&rec.ID,
			&rec.Timestamp,
			&rec.AlertType,
			&rec.Severity,
			&rec.Message,
			&rec.Delivered,
			&rec.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		alerts = append(alerts, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return alerts, nil
}

// DeleteAlertsBefore deletes alert records older than the cutoff and reports
// how many rows went away.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	cmdTag, execErr := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan)
	if execErr != nil {
		return 0, fmt.Errorf("delete alerts before: %w", execErr)
	}
	return cmdTag.RowsAffected(), nil
}

func scanReading(rows pgx.Rows) (Reading, error) {
	var reading Reading
	if err := rows.Scan(
		&reading.ID,
		&reading.Timestamp,
		&reading.Location,
		&reading.Latitude,
		&reading.Longitude,
		&reading.Temperature,
		&reading.Precipitation,
		&reading.WindSpeed,
		&reading.Humidity,
		&reading.WeatherCode,
		&reading.CreatedAt,
	); err != nil {
		return Reading{}, err
	}
	return reading, nil
}
