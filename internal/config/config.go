package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/spf13/viper"
)

// Config is the resolved application configuration.
type Config struct {
	Logging  LoggingConfig
	Service  ServiceConfig
	Database DatabaseConfig
	UI       UIConfig
	History  HistoryConfig
}

// ServiceConfig describes the fraud scoring service.
type ServiceConfig struct {
	URL             string
	FraudColumn     string
	ValidateTimeout time.Duration
	RequestTimeout  time.Duration
}

// DatabaseConfig locates the run history database.
type DatabaseConfig struct {
	Path string
}

// HistoryConfig toggles recording of prediction runs.
type HistoryConfig struct {
	Enabled bool
}

// UIConfig holds dashboard preferences.
type UIConfig struct {
	Theme     string
	ExportDir string
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("service.url", "http://localhost:5000")
	v.SetDefault("service.fraud_column", "is_fraud")
	v.SetDefault("service.validate_timeout", 30*time.Second)
	v.SetDefault("service.request_timeout", 30*time.Second)
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("history.enabled", true)
	v.SetDefault("ui.theme", "default")
	v.SetDefault("ui.export_dir", ".")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", DefaultLogFile())
}

// Load reads a validated Config out of v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Service: ServiceConfig{
			URL:             strings.TrimRight(v.GetString("service.url"), "/"),
			FraudColumn:     v.GetString("service.fraud_column"),
			ValidateTimeout: v.GetDuration("service.validate_timeout"),
			RequestTimeout:  v.GetDuration("service.request_timeout"),
		},
		Database: DatabaseConfig{
			Path: ExpandPath(v.GetString("database.path")),
		},
		History: HistoryConfig{
			Enabled: v.GetBool("history.enabled"),
		},
		UI: UIConfig{
			Theme:     v.GetString("ui.theme"),
			ExportDir: ExpandPath(v.GetString("ui.export_dir")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			File:   ExpandPath(v.GetString("logging.file")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.Service.URL == "" {
		return fmt.Errorf("%w: service.url", common.ErrMissingConfig)
	}

	u, err := url.Parse(c.Service.URL)
	if err != nil {
		return fmt.Errorf("%w: service.url: %v", common.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: service.url must use http or https, got %q", common.ErrInvalidConfig, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: service.url has no host", common.ErrInvalidConfig)
	}

	if c.Service.ValidateTimeout <= 0 {
		return fmt.Errorf("%w: service.validate_timeout must be positive", common.ErrInvalidConfig)
	}
	if c.Service.RequestTimeout <= 0 {
		return fmt.Errorf("%w: service.request_timeout must be positive", common.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.Service.FraudColumn) == "" {
		return fmt.Errorf("%w: service.fraud_column", common.ErrMissingConfig)
	}

	if c.History.Enabled && c.Database.Path == "" {
		return fmt.Errorf("%w: database.path is required when history is enabled", common.ErrMissingConfig)
	}

	return nil
}
