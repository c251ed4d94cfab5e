package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/spf13/cobra"

	"github.com/Veraticus/finfraudx/internal/cli"
	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/mockservice"
)

const shutdownTimeout = 5 * time.Second

func mockServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve a local stand-in for the fraud scoring service",
		Long: `Start an HTTP server that implements the scoring service API with
simple statistical models. Useful for demos and for trying the dashboard
without the real service.`,
		Args: cobra.NoArgs,
		RunE: runMockServer,
	}
	cmd.Flags().String("addr", "localhost:5000", "listen address")
	cmd.Flags().Int("sample-rows", 1000, "rows in generated sample data")
	cmd.Flags().Int64("seed", 42, "seed for generated sample data")
	return cmd
}

func runMockServer(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	rows, _ := cmd.Flags().GetInt("sample-rows")
	seed, _ := cmd.Flags().GetInt64("seed")

	svc := mockservice.New(
		mockservice.WithSampleRows(rows),
		mockservice.WithSeed(seed),
		mockservice.WithLogger(slog.Default()),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handlers.LoggingHandler(os.Stderr, svc.Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	common.LogInfo("Starting mock scoring service", common.Fields{"addr": addr, "sample_rows": rows, "seed": seed})
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Mock scoring service listening on http://%s", addr)))
	return serve(cmd.Context(), srv)
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down mock server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("mock server shutdown: %w", err)
	}
	return nil
}
