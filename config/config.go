package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Log       LogConfig       `mapstructure:"log"`
}

type AppConfig struct {
	Environment string `mapstructure:"environment"` // "dev" or "prod"
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DashboardConfig struct {
	RefreshRateMs          int           `mapstructure:"refresh_rate_ms"` // <= 0 disables auto refresh
	WallProximityThreshold float64       `mapstructure:"wall_proximity_threshold"`
	DefaultTicker          string        `mapstructure:"default_ticker"`
	Timezone               string        `mapstructure:"timezone"` // default expiry is "today" here
	AlertsEnabled          bool          `mapstructure:"alerts_enabled"`
	SpeechEnabled          bool          `mapstructure:"speech_enabled"`
	FetchTimeout           time.Duration `mapstructure:"fetch_timeout"`
	ManualRefreshRate      float64       `mapstructure:"manual_refresh_rate"` // per second
	ManualRefreshBurst     int           `mapstructure:"manual_refresh_burst"`
}

// Location resolves Timezone, falling back to the local zone.
func (d DashboardConfig) Location() (*time.Location, error) {
	if d.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard.timezone %q: %w", d.Timezone, err)
	}
	return loc, nil
}

type LogConfig struct {
	Level       string `mapstructure:"level"`       // "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // optional rotated file
	Environment string `mapstructure:"environment"`
	MaxSizeMB   int    `mapstructure:"max_size_mb"`
	MaxBackups  int    `mapstructure:"max_backups"`
	MaxAgeDays  int    `mapstructure:"max_age_days"`
	Compress    bool   `mapstructure:"compress"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "dev")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("upstream.base_url", "http://localhost:8000")
	v.SetDefault("upstream.path", "/api/gex")
	v.SetDefault("upstream.timeout", 10*time.Second)
	v.SetDefault("upstream.aws_region", "")
	v.SetDefault("upstream.base_url_parameter", "")

	v.SetDefault("dashboard.refresh_rate_ms", 5000)
	v.SetDefault("dashboard.wall_proximity_threshold", 10.0)
	v.SetDefault("dashboard.default_ticker", "")
	v.SetDefault("dashboard.timezone", "America/New_York")
	v.SetDefault("dashboard.alerts_enabled", true)
	v.SetDefault("dashboard.speech_enabled", false)
	v.SetDefault("dashboard.fetch_timeout", 15*time.Second)
	v.SetDefault("dashboard.manual_refresh_rate", 1.0)
	v.SetDefault("dashboard.manual_refresh_burst", 3)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", true)
}

// Load reads configuration with Viper. path names a YAML file; when empty,
// config.yaml is looked up next to the binary and in ./config. Environment
// variables override file values with "." replaced by "_" (e.g.
// DASHBOARD_REFRESH_RATE_MS). A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if ex, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
		}
		v.AddConfigPath("config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Log.Environment == "" {
		cfg.Log.Environment = cfg.App.Environment
	}
	return &cfg, nil
}
