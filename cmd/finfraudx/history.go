package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finfraudx/internal/cli"
	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/storage"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse recorded prediction runs",
		Long: `Every successful prediction run is stored in a local SQLite database.
Use these commands to list, inspect, re-export or delete them.`,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recent runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	list.Flags().Int("limit", 20, "maximum number of runs to show")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the results of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
	show.Flags().Int("page", 1, "page of the predictions table to print")

	export := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write fraud_predictions.csv for a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryExport,
	}
	export.Flags().String("out", ".", "directory to write fraud_predictions.csv into")
	export.Flags().Bool("sheets", false, "export to Google Sheets instead of CSV")

	del := &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryDelete,
	}

	cmd.AddCommand(list, show, export, del)
	return cmd
}

// withHistory opens the history database for the duration of fn.
func withHistory(ctx context.Context, fn func(*storage.SQLiteStorage) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return common.NewUserError("Run history is disabled (history.enabled = false)", common.ErrMissingConfig)
	}
	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Warn("Failed to close history database", "error", closeErr)
		}
	}()
	return fn(store)
}

// notFound turns a missing run into a readable error.
func notFound(id string, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.NewUserError(fmt.Sprintf("No run with ID %s", id), err)
	}
	return err
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	return withHistory(cmd.Context(), func(store *storage.SQLiteStorage) error {
		runs, err := store.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderHistory(runs))
		return nil
	})
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id := args[0]
	page, _ := cmd.Flags().GetInt("page")
	return withHistory(cmd.Context(), func(store *storage.SQLiteStorage) error {
		run, err := store.GetRun(cmd.Context(), id)
		if err != nil {
			return notFound(id, err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("Run %s", run.ID)))
		fmt.Fprintf(out, "Recorded: %s\n\n", run.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintln(out, cli.RenderUpload(run.SourceFile, run.Upload, false))
		if run.Training != nil {
			fmt.Fprintln(out, cli.RenderTraining(*run.Training))
		}
		return printResults(out, run.Prediction, pipelineOptions{Page: page})
	})
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	id := args[0]
	dir, _ := cmd.Flags().GetString("out")
	toSheets, _ := cmd.Flags().GetBool("sheets")
	return withHistory(cmd.Context(), func(store *storage.SQLiteStorage) error {
		run, err := store.GetRun(cmd.Context(), id)
		if err != nil {
			return notFound(id, err)
		}
		if toSheets {
			return exportToSheets(cmd.Context(), cmd.OutOrStdout(), run.SourceFile, run.Prediction)
		}
		path, err := report.WriteCSVFile(dir, run.Prediction.Results)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Exported predictions to "+path))
		return nil
	})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	return withHistory(cmd.Context(), func(store *storage.SQLiteStorage) error {
		if err := store.DeleteRun(cmd.Context(), id); err != nil {
			return notFound(id, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted run "+id))
		return nil
	})
}
