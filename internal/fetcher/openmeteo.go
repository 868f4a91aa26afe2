package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// currentFields are the variables requested from the current weather block.
const currentFields = "temperature_2m,precipitation,wind_speed_10m,relative_humidity_2m,weather_code"

// OpenMeteoOptions parameterise the Open-Meteo fetcher.
type OpenMeteoOptions struct {
	BaseURL   string
	Latitude  float64
	Longitude float64
	Timeout   time.Duration
	UserAgent string
}

// OpenMeteo fetches current conditions from the Open-Meteo forecast API.
type OpenMeteo struct {
	opts    OpenMeteoOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewOpenMeteo constructs an Open-Meteo fetcher.
func NewOpenMeteo(opts OpenMeteoOptions, logger zerolog.Logger) *OpenMeteo {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}

	return &OpenMeteo{
		opts:    opts,
		logger:  logger.With().Str("component", "weather_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchCurrent retrieves current conditions for the configured coordinates.
func (o *OpenMeteo) FetchCurrent(ctx context.Context) (Observation, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(o.opts.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(o.opts.Longitude, 'f', -1, 64))
	params.Set("current", currentFields)
	params.Set("timezone", "auto")

	endpoint := o.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Observation{}, err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(o.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "weatherwatcher/1.0")
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return Observation{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Observation{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return Observation{}, parseHTTPError(resp.StatusCode, payload)
	}

	var res forecastResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return Observation{}, err
	}

	obs := Observation{
		Time:          time.Now().UTC(),
		Temperature:   res.Current.Temperature,
		Precipitation: res.Current.Precipitation,
		WindSpeed:     res.Current.WindSpeed,
		Humidity:      res.Current.Humidity,
		WeatherCode:   res.Current.WeatherCode,
	}

	o.logger.Debug().
		Float64("temperature_c", obs.Temperature).
		Float64("precipitation_mmh", obs.Precipitation).
		Float64("wind_kmh", obs.WindSpeed).
		Int("weather_code", obs.WeatherCode).
		Msg("current conditions fetched")

	return obs, nil
}

type forecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Current   struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature_2m"`
		Precipitation float64 `json:"precipitation"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		Humidity      float64 `json:"relative_humidity_2m"`
		WeatherCode   int     `json:"weather_code"`
	} `json:"current"`
}

type errorResponse struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func parseHTTPError(status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Reason != "" {
		return fmt.Errorf("open-meteo error (%d): %s", status, apiErr.Reason)
	}
	if len(payload) > 0 {
		return fmt.Errorf("open-meteo error (%d): %s", status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("open-meteo error (%d)", status)
}

var _ CurrentWeatherFetcher = (*OpenMeteo)(nil)
