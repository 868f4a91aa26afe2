package fetcher

import (
	"context"
	"time"
)

// Observation is one snapshot of current conditions at a fixed location.
// Time is the fetch time in UTC, not the provider's model time, so stored
// readings line up with the polling schedule.
type Observation struct {
	Time          time.Time
	Temperature   float64 // °C
	Precipitation float64 // mm/h
	WindSpeed     float64 // km/h
	Humidity      float64 // %
	WeatherCode   int     // WMO weather interpretation code
}

// CurrentWeatherFetcher retrieves current conditions from a weather provider.
type CurrentWeatherFetcher interface {
	FetchCurrent(ctx context.Context) (Observation, error)
}
