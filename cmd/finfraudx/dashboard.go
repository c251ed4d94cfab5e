package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/tui"
	"github.com/Veraticus/finfraudx/internal/tui/themes"
	"github.com/Veraticus/finfraudx/internal/workflow"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive fraud detection dashboard",
		Long: `Open the interactive dashboard.

The dashboard walks through the fraud detection workflow:
1. Upload a CSV of transactions (or generate sample data)
2. Train the fraud detection models
3. Run predictions
4. Explore the results, export them as CSV or to Google Sheets

Logs are written to a file while the dashboard owns the terminal.`,
		RunE: runDashboard,
	}

	cmd.Flags().String("theme", "", "color theme (default, catppuccin-mocha)")
	cmd.Flags().String("out", "", "directory for CSV exports (default: ui.export_dir)")

	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The dashboard owns the terminal; route logs to a file instead.
	logFile, err := openDashboardLog(cfg.Logging.File)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	level, err := common.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if setupErr := common.SetupLogger(logFile, level, cfg.Logging.Format); setupErr != nil {
		return setupErr
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				slog.Warn("Failed to close history database", "error", closeErr)
			}
		}()
	}

	opts := []tui.Option{
		tui.WithLogger(slog.Default()),
		tui.WithTheme(themes.GetTheme(themeName(cmd, cfg.UI.Theme))),
		tui.WithExportDir(cfg.UI.ExportDir),
		tui.WithSessionFactory(func(ctx context.Context) *workflow.Session {
			return workflow.NewSession(ctx, client, sessionOptions(cfg, store)...)
		}),
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		opts = append(opts, tui.WithExportDir(out))
	}

	writer, err := loadSheetsWriter(ctx, viper.GetViper())
	if err != nil {
		slog.Warn("Google Sheets export disabled", "error", err)
	} else if writer != nil {
		opts = append(opts, tui.WithSheets(writer))
	}

	slog.Info("Starting dashboard", "service", client.BaseURL(), "history", store != nil)
	return tui.Run(ctx, opts...)
}

// themeName prefers the --theme flag over configuration. The root command
// has no such flag.
func themeName(cmd *cobra.Command, configured string) string {
	if f := cmd.Flags().Lookup("theme"); f != nil && f.Changed {
		return f.Value.String()
	}
	if configured != "" {
		return configured
	}
	return viper.GetString("ui.theme")
}

// openDashboardLog opens the log file through bubbletea so that anything
// written with the standard logger lands there too.
func openDashboardLog(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := tea.LogToFile(path, "finfraudx")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}
