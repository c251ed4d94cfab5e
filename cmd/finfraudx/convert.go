package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/finfraudx/internal/cli"
	"github.com/Veraticus/finfraudx/internal/ofx"
)

func convertOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert-ofx <file.ofx|file.qfx>",
		Short: "Convert a bank OFX/QFX export into a transactions CSV",
		Long: `Convert an OFX or QFX statement downloaded from a bank into a CSV with
the columns the scoring service expects, ready for 'validate' or 'run'.

The output has no is_fraud column, so it can be scored but not trained on.`,
		Args: cobra.ExactArgs(1),
		RunE: runConvertOFX,
	}
	cmd.Flags().StringP("out", "o", "", "output CSV path (default: input name with .csv, - for stdout)")
	return cmd
}

func runConvertOFX(cmd *cobra.Command, args []string) error {
	input := args[0]
	output, _ := cmd.Flags().GetString("out")
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".csv"
	}

	in, err := os.Open(input) //nolint:gosec // user-provided path is intended
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", input, err)
	}
	defer func() { _ = in.Close() }()

	var w io.Writer
	if output == "-" {
		w = cmd.OutOrStdout()
	} else {
		f, err := os.Create(output) //nolint:gosec // user-provided path is intended
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				slog.Warn("Failed to close output file", "path", output, "error", closeErr)
			}
		}()
		w = f
	}

	n, err := ofx.NewParser(slog.Default()).Convert(cmd.Context(), in, w)
	if err != nil {
		return fmt.Errorf("failed to convert %s: %w", input, err)
	}

	if output != "-" {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Wrote %d transactions to %s", n, output)))
	}
	return nil
}
