package storage

import "time"

// Reading is one persisted weather observation.
type Reading struct {
	ID            int64
	Timestamp     time.Time
	Location      string
	Latitude      float64
	Longitude     float64
	Temperature   float64 // °C
	Precipitation float64 // mm/h
	WindSpeed     float64 // km/h
	Humidity      float64 // %
	WeatherCode   int
	CreatedAt     time.Time
}

// AlertRecord captures an emitted alert for cooldown tracking and auditing.
// Delivered reports whether the notification actually went out; a failed
// delivery still produces a record so the cooldown window holds.
type AlertRecord struct {
	ID        int64
	Timestamp time.Time
	AlertType string
	Severity  string
	Message   string
	Delivered bool
	CreatedAt time.Time
}
