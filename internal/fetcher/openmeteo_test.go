package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

const sampleForecast = `{
	"latitude": 49.28,
	"longitude": -123.12,
	"timezone": "America/Vancouver",
	"current": {
		"time": "2026-03-14T10:00",
		"temperature_2m": 11.4,
		"precipitation": 2.5,
		"wind_speed_10m": 18.7,
		"relative_humidity_2m": 88,
		"weather_code": 61
	}
}`

func TestFetchCurrentSuccess(t *testing.T) {
	var query url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleForecast))
	}))
	defer srv.Close()

	om := NewOpenMeteo(OpenMeteoOptions{
		BaseURL:   srv.URL,
		Latitude:  49.2827,
		Longitude: -123.1207,
		Timeout:   time.Second,
	}, testLogger())

	before := time.Now().UTC()
	obs, err := om.FetchCurrent(context.Background())
	if err != nil {
		t.Fatalf("FetchCurrent should succeed: %v", err)
	}

	if query.Get("latitude") != "49.2827" || query.Get("longitude") != "-123.1207" {
		t.Fatalf("coordinates not sent: %v", query)
	}
	if query.Get("current") != currentFields {
		t.Fatalf("current fields not requested: %q", query.Get("current"))
	}
	if query.Get("timezone") != "auto" {
		t.Fatalf("timezone should be auto: %q", query.Get("timezone"))
	}

	if obs.Temperature != 11.4 || obs.Precipitation != 2.5 || obs.WindSpeed != 18.7 || obs.Humidity != 88 {
		t.Fatalf("unexpected observation: %+v", obs)
	}
	if obs.WeatherCode != 61 {
		t.Fatalf("weather code: got %d want 61", obs.WeatherCode)
	}
	if obs.Time.Before(before) || obs.Time.After(time.Now().UTC().Add(time.Second)) {
		t.Fatalf("observation should carry the fetch time, got %s", obs.Time)
	}
}

func TestFetchCurrentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": true, "reason": "Latitude must be in range of -90 to 90°."}`))
	}))
	defer srv.Close()

	om := NewOpenMeteo(OpenMeteoOptions{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	_, err := om.FetchCurrent(context.Background())
	if err == nil {
		t.Fatal("HTTP 400 should error")
	}
	if !strings.Contains(err.Error(), "Latitude must be in range") {
		t.Fatalf("error should carry the api reason, got %v", err)
	}
}

func TestFetchCurrentUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	om := NewOpenMeteo(OpenMeteoOptions{BaseURL: srv.URL, Timeout: time.Second}, testLogger())
	if _, err := om.FetchCurrent(context.Background()); err == nil {
		t.Fatal("unreachable server should error")
	}
}

func TestDescribeWeatherCode(t *testing.T) {
	if got := DescribeWeatherCode(61); got != "Slight rain" {
		t.Fatalf("code 61: %q", got)
	}
	if got := DescribeWeatherCode(1234); got != "Unknown" {
		t.Fatalf("unknown code: %q", got)
	}
}
