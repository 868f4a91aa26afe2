package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"weather-alert-pipeline/internal/alerting"
	"weather-alert-pipeline/internal/config"
	"weather-alert-pipeline/internal/fetcher"
	"weather-alert-pipeline/internal/scheduler"
	"weather-alert-pipeline/internal/service"
	"weather-alert-pipeline/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newFetcher() fetcher.CurrentWeatherFetcher {
	return fetcher.NewOpenMeteo(fetcher.OpenMeteoOptions{
		BaseURL:   a.Config.Source.BaseURL,
		Latitude:  a.Config.Location.Latitude,
		Longitude: a.Config.Location.Longitude,
		Timeout:   a.Config.Source.RequestTimeout,
		UserAgent: a.Config.Source.UserAgent,
	}, a.Logger)
}

func (a *App) newEvaluator() *alerting.Evaluator {
	rules := a.Config.Alerting.Rules
	return alerting.NewEvaluator([]alerting.Rule{
		buildRule(alerting.AlertHeavyRain, rules.HeavyRain),
		buildRule(alerting.AlertStrongWind, rules.StrongWind),
		buildRule(alerting.AlertExtremeTempLow, rules.ExtremeTempLow),
		buildRule(alerting.AlertExtremeTempHigh, rules.ExtremeTempHigh),
	}, a.Config.Alerting.Cooldown)
}

func buildRule(typ alerting.AlertType, cfg config.RuleConfig) alerting.Rule {
	severity, err := alerting.ParseSeverity(cfg.Severity)
	if err != nil {
		severity = alerting.SeverityHigh
	}
	return alerting.Rule{
		Type:           typ,
		Threshold:      cfg.Threshold,
		BaseSeverity:   severity,
		CriticalMargin: cfg.CriticalMargin,
	}
}

func (a *App) newNotifier() (alerting.Notifier, error) {
	if !a.Config.Alerting.Email.Enabled {
		return nil, nil
	}
	email := a.Config.Alerting.Email
	return alerting.NewEmailNotifier(alerting.EmailOptions{
		Host:     email.Host,
		Port:     email.Port,
		Username: email.Username,
		Password: email.Password,
		From:     email.From,
		To:       email.To,
		Timeout:  email.Timeout,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running polling pipeline.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database.dsn is required to run the pipeline")
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:        a.Config.Scheduler.Interval,
		RunOnStart:      a.Config.Scheduler.RunOnStart,
		AlignToInterval: a.Config.Scheduler.AlignToInterval,
		StartupDelay:    a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	notifier, err := a.newNotifier()
	if err != nil {
		return err
	}
	if notifier == nil && a.Config.Alerting.Enabled {
		a.Logger.Warn().Msg("email disabled; alerts will be recorded but not delivered")
	}

	svc := service.New(a.Config, sched, a.newFetcher(), store, store, a.newEvaluator(), notifier, a.Logger)

	a.Logger.Info().
		Str("location", a.Config.Location.Name).
		Dur("interval", a.Config.Scheduler.Interval).
		Msg("starting weather pipeline")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("pipeline terminated with error")
		return err
	}

	a.Logger.Info().Msg("weather pipeline stopped")
	return nil
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit  int
	Alerts bool
}

// ExportOptions hold parameters for exporting historical readings.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// SimulateOptions carry synthetic conditions for a dry-run evaluation.
type SimulateOptions struct {
	Temperature   float64
	Precipitation float64
	WindSpeed     float64
	Humidity      float64
	Send          bool
}

// PruneOptions configure retention cleanup.
type PruneOptions struct {
	OlderThan time.Duration
	Readings  bool
}
