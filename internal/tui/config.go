package tui

import (
	"context"
	"log/slog"

	"github.com/Veraticus/finfraudx/internal/model"
	"github.com/Veraticus/finfraudx/internal/tui/themes"
	"github.com/Veraticus/finfraudx/internal/workflow"
)

// SessionFactory starts a fresh workflow session. The dashboard calls it at
// start-up and again whenever the user picks a new file.
type SessionFactory func(ctx context.Context) *workflow.Session

// SheetsExporter writes prediction results to a spreadsheet and returns its
// ID.
type SheetsExporter interface {
	Write(ctx context.Context, source string, result model.PredictionResult) (string, error)
}

// Config holds TUI configuration.
type Config struct {
	Theme      themes.Theme
	NewSession SessionFactory
	Sheets     SheetsExporter
	Logger     *slog.Logger
	ExportDir  string
	Width      int
	Height     int
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		ExportDir: ".",
		Width:     100,
		Height:    30,
	}
}

// WithSessionFactory sets how workflow sessions are created.
func WithSessionFactory(factory SessionFactory) Option {
	return func(c *Config) {
		c.NewSession = factory
	}
}

// WithSheets enables the Google Sheets export key.
func WithSheets(exporter SheetsExporter) Option {
	return func(c *Config) {
		c.Sheets = exporter
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithExportDir sets where CSV exports are written.
func WithExportDir(dir string) Option {
	return func(c *Config) {
		if dir != "" {
			c.ExportDir = dir
		}
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
