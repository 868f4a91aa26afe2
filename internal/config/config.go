package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"weather-alert-pipeline/internal/alerting"
	"weather-alert-pipeline/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Location  LocationConfig  `mapstructure:"location"`
	Source    SourceConfig    `mapstructure:"source"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs polling cadence.
type SchedulerConfig struct {
	Interval        time.Duration `mapstructure:"interval"`
	RunOnStart      bool          `mapstructure:"run_on_start"`
	AlignToInterval bool          `mapstructure:"align_to_interval"`
	StartupDelay    time.Duration `mapstructure:"startup_delay"`
}

// LocationConfig pins the monitored coordinate pair.
type LocationConfig struct {
	Name      string  `mapstructure:"name"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

// SourceConfig captures Open-Meteo connectivity.
type SourceConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// AlertingConfig defines alert rules, cooldown, and routing.
type AlertingConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Cooldown time.Duration `mapstructure:"cooldown"`
	Rules    RulesConfig   `mapstructure:"rules"`
	Email    EmailConfig   `mapstructure:"email"`
}

// RulesConfig holds the per-type threshold rules.
type RulesConfig struct {
	HeavyRain       RuleConfig `mapstructure:"heavy_rain"`
	StrongWind      RuleConfig `mapstructure:"strong_wind"`
	ExtremeTempLow  RuleConfig `mapstructure:"extreme_temp_low"`
	ExtremeTempHigh RuleConfig `mapstructure:"extreme_temp_high"`
}

// RuleConfig parameterises one threshold rule. Severity is the level emitted
// on a plain breach; CriticalMargin is how far past the threshold the value
// must be before the alert escalates to CRITICAL.
type RuleConfig struct {
	Threshold      float64 `mapstructure:"threshold"`
	Severity       string  `mapstructure:"severity"`
	CriticalMargin float64 `mapstructure:"critical_margin"`
}

// EmailConfig describes the SMTP alert channel.
type EmailConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	From     string        `mapstructure:"from"`
	To       []string      `mapstructure:"to"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	// .env is optional and never overrides variables already set in the
	// environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("WEATHERWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "weatherwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "60m")
	v.SetDefault("scheduler.run_on_start", true)
	v.SetDefault("scheduler.align_to_interval", false)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("location.name", "Vancouver")
	v.SetDefault("location.latitude", 49.2827)
	v.SetDefault("location.longitude", -123.1207)

	v.SetDefault("source.base_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("source.request_timeout", "10s")
	v.SetDefault("source.user_agent", "weatherwatcher/1.0")

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.cooldown", "6h")
	v.SetDefault("alerting.rules.heavy_rain.threshold", 10.0)
	v.SetDefault("alerting.rules.heavy_rain.severity", "HIGH")
	v.SetDefault("alerting.rules.heavy_rain.critical_margin", 10.0)
	v.SetDefault("alerting.rules.strong_wind.threshold", 50.0)
	v.SetDefault("alerting.rules.strong_wind.severity", "HIGH")
	v.SetDefault("alerting.rules.strong_wind.critical_margin", 20.0)
	v.SetDefault("alerting.rules.extreme_temp_low.threshold", 0.0)
	v.SetDefault("alerting.rules.extreme_temp_low.severity", "MEDIUM")
	v.SetDefault("alerting.rules.extreme_temp_low.critical_margin", 10.0)
	v.SetDefault("alerting.rules.extreme_temp_high.threshold", 35.0)
	v.SetDefault("alerting.rules.extreme_temp_high.severity", "HIGH")
	v.SetDefault("alerting.rules.extreme_temp_high.critical_margin", 5.0)
	v.SetDefault("alerting.email.enabled", false)
	v.SetDefault("alerting.email.host", "smtp.gmail.com")
	v.SetDefault("alerting.email.port", 587)
	v.SetDefault("alerting.email.timeout", "10s")

	// Registered empty so AutomaticEnv sees the keys; secrets usually arrive
	// via WEATHERWATCHER_* variables or .env rather than the config file.
	v.SetDefault("database.dsn", "")
	v.SetDefault("alerting.email.username", "")
	v.SetDefault("alerting.email.password", "")
	v.SetDefault("alerting.email.from", "")
	v.SetDefault("alerting.email.to", []string{})

	v.SetDefault("export.max_data_points", 100000)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("location.latitude must be within [-90, 90]")
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("location.longitude must be within [-180, 180]")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Cooldown < 0 {
		return fmt.Errorf("alerting.cooldown cannot be negative")
	}
	if err := c.Alerting.Rules.validate(); err != nil {
		return err
	}
	if c.Alerting.Email.Enabled {
		if c.Alerting.Email.Host == "" {
			return fmt.Errorf("alerting.email.host must be configured")
		}
		if c.Alerting.Email.Port <= 0 {
			return fmt.Errorf("alerting.email.port must be greater than zero")
		}
		if c.Alerting.Email.From == "" {
			return fmt.Errorf("alerting.email.from must be configured")
		}
		if len(c.Alerting.Email.To) == 0 {
			return fmt.Errorf("alerting.email.to must list at least one recipient")
		}
	}
	return nil
}

func (r *RulesConfig) validate() error {
	named := []struct {
		key  string
		rule RuleConfig
	}{
		{"alerting.rules.heavy_rain", r.HeavyRain},
		{"alerting.rules.strong_wind", r.StrongWind},
		{"alerting.rules.extreme_temp_low", r.ExtremeTempLow},
		{"alerting.rules.extreme_temp_high", r.ExtremeTempHigh},
	}
	for _, n := range named {
		if _, err := alerting.ParseSeverity(n.rule.Severity); err != nil {
			return fmt.Errorf("%s.severity: %w", n.key, err)
		}
		if n.rule.CriticalMargin < 0 {
			return fmt.Errorf("%s.critical_margin cannot be negative", n.key)
		}
	}
	if r.HeavyRain.Threshold < 0 {
		return fmt.Errorf("alerting.rules.heavy_rain.threshold cannot be negative")
	}
	if r.StrongWind.Threshold < 0 {
		return fmt.Errorf("alerting.rules.strong_wind.threshold cannot be negative")
	}
	if r.ExtremeTempLow.Threshold >= r.ExtremeTempHigh.Threshold {
		return fmt.Errorf("alerting.rules.extreme_temp_low.threshold must be below extreme_temp_high.threshold")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
