package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"weather-alert-pipeline/internal/alerting"
	"weather-alert-pipeline/internal/config"
	"weather-alert-pipeline/internal/fetcher"
	"weather-alert-pipeline/internal/scheduler"
	"weather-alert-pipeline/internal/storage"
)

// Error kinds distinguish which phase of a tick failed. Callers classify
// with errors.Is; the cause stays wrapped underneath.
var (
	ErrSourceUnavailable = errors.New("weather source unavailable")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrNotifyFailed      = errors.New("notification delivery failed")
)

// Service orchestrates fetching, persistence, and alerting.
type Service struct {
	scheduler *scheduler.Scheduler
	weather   fetcher.CurrentWeatherFetcher
	readings  storage.ReadingStore
	alerts    storage.AlertStore
	evaluator *alerting.Evaluator
	notifier  alerting.Notifier
	logger    zerolog.Logger

	location config.LocationConfig
	alertsOn bool
}

// New constructs the polling service.
func New(cfg *config.Config, sched *scheduler.Scheduler, weather fetcher.CurrentWeatherFetcher, readings storage.ReadingStore, alerts storage.AlertStore, evaluator *alerting.Evaluator, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		weather:   weather,
		readings:  readings,
		alerts:    alerts,
		evaluator: evaluator,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		location:  cfg.Location,
		alertsOn:  cfg.Alerting.Enabled,
	}
}

// Run begins the polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.RunTick)
}

// RunTick executes one poll: fetch current conditions, persist the reading,
// then evaluate alerts against the stored history. A fetch or store failure
// aborts the tick; a delivery failure does not, the alert is recorded as
// undelivered and the error surfaces after the tick finishes its work.
func (s *Service) RunTick(ctx context.Context, tickTime time.Time) error {
	logger := s.logger.With().Str("tick_id", uuid.NewString()).Logger()
	logger.Debug().Time("tick", tickTime).Msg("tick started")

	obs, err := s.weather.FetchCurrent(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	reading := storage.Reading{
		Timestamp:     obs.Time,
		Location:      s.location.Name,
		Latitude:      s.location.Latitude,
		Longitude:     s.location.Longitude,
		Temperature:   obs.Temperature,
		Precipitation: obs.Precipitation,
		WindSpeed:     obs.WindSpeed,
		Humidity:      obs.Humidity,
		WeatherCode:   obs.WeatherCode,
	}

	stored, err := s.readings.InsertReading(ctx, reading)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	logger.Info().
		Time("ts", stored.Timestamp).
		Float64("temperature_c", stored.Temperature).
		Float64("precipitation_mmh", stored.Precipitation).
		Float64("wind_kmh", stored.WindSpeed).
		Float64("humidity_pct", stored.Humidity).
		Int("weather_code", stored.WeatherCode).
		Msg("reading recorded")

	if !s.alertsOn {
		return nil
	}
	return s.evaluateAndNotify(ctx, logger, obs)
}

// evaluateAndNotify runs the threshold rules over one observation. Cooldown
// state comes from the alert log, so every emitted candidate must leave a
// record behind whether or not its notification went out.
func (s *Service) evaluateAndNotify(ctx context.Context, logger zerolog.Logger, obs fetcher.Observation) error {
	last, err := s.latestByType(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	conditions := alerting.Conditions{
		Temperature:   obs.Temperature,
		Precipitation: obs.Precipitation,
		WindSpeed:     obs.WindSpeed,
		Humidity:      obs.Humidity,
	}

	candidates := s.evaluator.Evaluate(conditions, last, obs.Time)
	if len(candidates) == 0 {
		return nil
	}

	var notifyErr error
	for _, candidate := range candidates {
		delivered := false
		if s.notifier != nil {
			note := alerting.Notification{
				Alert:    candidate,
				Location: s.location.Name,
				Observed: obs.Time,
				Current:  conditions,
				Summary:  fetcher.DescribeWeatherCode(obs.WeatherCode),
			}
			if err := s.notifier.Notify(ctx, note); err != nil {
				logger.Error().Err(err).Str("type", string(candidate.Type)).Msg("failed to dispatch alert")
				if notifyErr == nil {
					notifyErr = err
				}
			} else {
				delivered = true
			}
		}

		record := storage.AlertRecord{
			Timestamp: obs.Time,
			AlertType: string(candidate.Type),
			Severity:  string(candidate.Severity),
			Message:   candidate.Message,
			Delivered: delivered,
		}
		if _, err := s.alerts.InsertAlert(ctx, record); err != nil {
			logger.Error().Err(err).Str("type", string(candidate.Type)).Msg("failed to persist alert record")
			continue
		}

		logger.Info().
			Str("type", string(candidate.Type)).
			Str("severity", string(candidate.Severity)).
			Bool("delivered", delivered).
			Msg("alert recorded")
	}

	if notifyErr != nil {
		return fmt.Errorf("%w: %w", ErrNotifyFailed, notifyErr)
	}
	return nil
}

func (s *Service) latestByType(ctx context.Context) (map[alerting.AlertType]time.Time, error) {
	types := make([]string, 0, len(alerting.AllAlertTypes))
	for _, t := range alerting.AllAlertTypes {
		types = append(types, string(t))
	}

	rawLatest, err := s.alerts.LatestAlertTimes(ctx, types)
	if err != nil {
		return nil, err
	}

	last := make(map[alerting.AlertType]time.Time, len(rawLatest))
	for typ, ts := range rawLatest {
		last[alerting.AlertType(typ)] = ts
	}
	return last, nil
}
