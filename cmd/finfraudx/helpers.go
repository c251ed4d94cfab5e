package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/config"
	"github.com/Veraticus/finfraudx/internal/fraudapi"
	"github.com/Veraticus/finfraudx/internal/sheets"
	"github.com/Veraticus/finfraudx/internal/storage"
	"github.com/Veraticus/finfraudx/internal/workflow"
)

// envKeyReplacer maps nested keys such as service.url onto
// FINFRAUDX_SERVICE_URL.
var envKeyReplacer = strings.NewReplacer(".", "_")

// loadConfig reads the validated configuration from viper.
func loadConfig() (config.Config, error) {
	return config.Load(viper.GetViper())
}

// newClient builds the scoring service adapter.
func newClient(cfg config.Config) (*fraudapi.Client, error) {
	client, err := fraudapi.New(cfg.Service.URL,
		fraudapi.WithTimeouts(cfg.Service.ValidateTimeout, cfg.Service.RequestTimeout),
		fraudapi.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create service client: %w", err)
	}
	return client, nil
}

// openHistory opens the run history database, or returns nil when history
// is disabled.
func openHistory(ctx context.Context, cfg config.Config) (*storage.SQLiteStorage, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	store, err := storage.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return store, nil
}

// sessionOptions wires the configured fraud column and, when available, the
// history recorder into new sessions.
func sessionOptions(cfg config.Config, store *storage.SQLiteStorage) []workflow.Option {
	opts := []workflow.Option{
		workflow.WithFraudColumn(cfg.Service.FraudColumn),
		workflow.WithLogger(slog.Default()),
	}
	if store != nil {
		opts = append(opts, workflow.WithRecorder(store))
	}
	return opts
}

// loadSheetsWriter returns a Sheets writer, or nil when no Sheets
// credentials are configured. Invalid settings are reported.
func loadSheetsWriter(ctx context.Context, v *viper.Viper) (*sheets.Writer, error) {
	sheetsCfg, err := config.LoadSheetsConfig(v)
	if errors.Is(err, sheets.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewUserError("Google Sheets is misconfigured", fmt.Errorf("%w: %w", common.ErrInvalidConfig, err))
	}
	writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets writer: %w", err)
	}
	return writer, nil
}

// requireSheetsWriter is loadSheetsWriter for commands where the export was
// asked for explicitly.
func requireSheetsWriter(ctx context.Context, v *viper.Viper) (*sheets.Writer, error) {
	writer, err := loadSheetsWriter(ctx, v)
	if err != nil {
		return nil, err
	}
	if writer == nil {
		return nil, common.NewUserError("Google Sheets export is not configured; run 'finfraudx auth sheets' first", common.ErrMissingConfig)
	}
	return writer, nil
}

// saveConfig writes the current viper settings back to the config file.
func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		configFile = filepath.Join(home, ".config", "finfraudx", "config.yaml")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}

// openBrowser tries to open the URL in the default browser.
func openBrowser(url string) {
	var err error
	switch os := runtime.GOOS; os {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec,forbidigo
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec,forbidigo
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec,forbidigo
	default:
		err = errors.New("unsupported platform")
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}
