package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/finfraudx/internal/cli"
	"github.com/Veraticus/finfraudx/internal/common"
	"github.com/Veraticus/finfraudx/internal/model"
	"github.com/Veraticus/finfraudx/internal/report"
	"github.com/Veraticus/finfraudx/internal/workflow"
)

// pipeline drives a session non-interactively. Rendered output goes to out
// and spinners to progress.
type pipeline struct {
	session  *workflow.Session
	out      io.Writer
	progress io.Writer
}

// pipelineOptions selects the input and what to do with the results.
type pipelineOptions struct {
	Path       string
	ExportDir  string
	Page       int
	Sample     bool
	ShowSample bool
}

// upload validates the file at opts.Path, or asks for sample data.
func (p pipeline) upload(ctx context.Context, opts pipelineOptions) (workflow.State, error) {
	var (
		state workflow.State
		err   error
	)
	if opts.Sample {
		state, err = cli.WithActivity(p.progress, "Generating sample data...", func() (workflow.State, error) {
			return p.session.GenerateSample(ctx)
		})
	} else {
		state, err = cli.WithActivity(p.progress, "Validating file...", func() (workflow.State, error) {
			return p.session.UploadPath(ctx, opts.Path)
		})
	}
	if err != nil {
		return state, err
	}

	file, _ := state.File()
	if opts.Sample {
		fmt.Fprintln(p.out, cli.FormatSuccess(report.SampleGeneratedMessage))
	} else {
		fmt.Fprintln(p.out, cli.FormatSuccess(report.ValidatedMessage(file.Upload)))
	}
	fmt.Fprintln(p.out, cli.RenderUpload(file.Source, file.Upload, opts.ShowSample))
	return state, nil
}

// run takes the input through upload, training and prediction.
func (p pipeline) run(ctx context.Context, opts pipelineOptions) (workflow.State, error) {
	state, err := p.upload(ctx, opts)
	if err != nil {
		return state, err
	}

	state, err = cli.WithActivity(p.progress, "Training models...", func() (workflow.State, error) {
		return p.session.Train(ctx)
	})
	if err != nil {
		return state, err
	}
	stats, _ := state.Training()
	fmt.Fprintln(p.out, cli.RenderTraining(stats))

	state, err = cli.WithActivity(p.progress, "Running predictions...", func() (workflow.State, error) {
		return p.session.Predict(ctx)
	})
	if err != nil {
		return state, err
	}
	result, _ := state.Prediction()

	if err := printResults(p.out, result, opts); err != nil {
		return state, err
	}
	return state, nil
}

// printResults renders a prediction run and, when asked, exports it.
func printResults(w io.Writer, result model.PredictionResult, opts pipelineOptions) error {
	fmt.Fprintln(w, cli.RenderPrediction(result))
	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.FormatTitle("Detailed Predictions"))
	fmt.Fprintln(w, cli.RenderTable(report.NewPager(len(result.Results)).SetPage(opts.Page), result.Results))

	if opts.ExportDir == "" {
		return nil
	}
	path, err := report.WriteCSVFile(opts.ExportDir, result.Results)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, cli.FormatSuccess("Exported predictions to "+path))
	return nil
}

// exportToSheets writes the results to Google Sheets.
func exportToSheets(ctx context.Context, w io.Writer, source string, result model.PredictionResult) error {
	writer, err := requireSheetsWriter(ctx, viper.GetViper())
	if err != nil {
		return err
	}
	id, err := cli.WithActivity(os.Stderr, "Exporting to Google Sheets...", func() (string, error) {
		return writer.Write(ctx, source, result)
	})
	if err != nil {
		return fmt.Errorf("sheets export failed: %w", err)
	}
	fmt.Fprintln(w, cli.FormatSuccess("Exported predictions to spreadsheet "+id))
	return nil
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.csv>",
		Short: "Upload and validate a transactions CSV",
		Long: `Upload a CSV of transactions to the scoring service for validation.

On success the service-side file path is printed; pass it to 'train' and
'predict' with --file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, pipelineOptions{Path: args[0]})
		},
	}
	cmd.Flags().Bool("show-sample", false, "print the sample rows returned by the service")
	return cmd
}

func sampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Ask the scoring service to generate sample data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUpload(cmd, pipelineOptions{Sample: true})
		},
	}
	cmd.Flags().Bool("show-sample", false, "print the sample rows returned by the service")
	return cmd
}

func runUpload(cmd *cobra.Command, opts pipelineOptions) error {
	ctx := cmd.Context()
	opts.ShowSample, _ = cmd.Flags().GetBool("show-sample")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	session := workflow.NewSession(ctx, client, sessionOptions(cfg, nil)...)
	defer session.Close()

	p := pipeline{session: session, out: cmd.OutOrStdout(), progress: cmd.ErrOrStderr()}
	state, err := p.upload(ctx, opts)
	if err != nil {
		return err
	}

	file, _ := state.File()
	fmt.Fprintln(p.out, cli.FormatInfo("Service file: "+file.Upload.Filepath))
	return nil
}

func trainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the fraud models on a previously uploaded file",
		Args:  cobra.NoArgs,
		RunE:  runTrain,
	}
	cmd.Flags().String("file", "", "service-side file path printed by 'validate' or 'sample'")
	cmd.Flags().String("fraud-column", "", "label column (default: service.fraud_column)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runTrain(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	file, _ := cmd.Flags().GetString("file")
	column, _ := cmd.Flags().GetString("fraud-column")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(column) == "" {
		column = cfg.Service.FraudColumn
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	stats, err := cli.WithActivity(cmd.ErrOrStderr(), "Training models...", func() (model.TrainingStats, error) {
		return client.Train(ctx, file, column)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTraining(stats))
	return nil
}

func predictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score a previously uploaded file with the trained models",
		Args:  cobra.NoArgs,
		RunE:  runPredict,
	}
	cmd.Flags().String("file", "", "service-side file path printed by 'validate' or 'sample'")
	cmd.Flags().String("out", "", "write fraud_predictions.csv into this directory")
	cmd.Flags().Int("page", 1, "page of the predictions table to print")
	cmd.Flags().Bool("sheets", false, "export the predictions to Google Sheets")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runPredict(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	file, _ := cmd.Flags().GetString("file")
	opts := pipelineOptions{}
	opts.ExportDir, _ = cmd.Flags().GetString("out")
	opts.Page, _ = cmd.Flags().GetInt("page")
	toSheets, _ := cmd.Flags().GetBool("sheets")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	result, err := cli.WithActivity(cmd.ErrOrStderr(), "Running predictions...", func() (model.PredictionResult, error) {
		return client.Predict(ctx, file)
	})
	if err != nil {
		return err
	}

	if err := printResults(cmd.OutOrStdout(), result, opts); err != nil {
		return err
	}
	if toSheets {
		return exportToSheets(ctx, cmd.OutOrStdout(), file, result)
	}
	return nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file.csv]",
		Short: "Upload, train and predict in one go",
		Long: `Run the whole workflow non-interactively: upload the file (or generate
sample data with --sample), train the models, run predictions and print the
results. Successful runs are recorded in the history database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPipeline,
	}
	cmd.Flags().Bool("sample", false, "use service-generated sample data instead of a file")
	cmd.Flags().Bool("show-sample", false, "print the sample rows returned by the service")
	cmd.Flags().String("out", ".", "write fraud_predictions.csv into this directory (empty to skip)")
	cmd.Flags().Int("page", 1, "page of the predictions table to print")
	cmd.Flags().Bool("sheets", false, "export the predictions to Google Sheets")
	return cmd
}

func runPipeline(cmd *cobra.Command, args []string) error {
	opts := pipelineOptions{}
	opts.Sample, _ = cmd.Flags().GetBool("sample")
	opts.ShowSample, _ = cmd.Flags().GetBool("show-sample")
	opts.ExportDir, _ = cmd.Flags().GetString("out")
	opts.Page, _ = cmd.Flags().GetInt("page")
	toSheets, _ := cmd.Flags().GetBool("sheets")

	switch {
	case len(args) == 1 && opts.Sample:
		return fmt.Errorf("pass either a file or --sample, not both")
	case len(args) == 1:
		opts.Path = args[0]
	case !opts.Sample:
		return fmt.Errorf("a CSV file or --sample is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := interrupts.HandleInterrupts(cmd.Context(), "Nothing was recorded for this run.")
	defer interrupts.Stop()

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() {
			if closeErr := store.Close(); closeErr != nil {
				common.LogError(closeErr, "Failed to close history database", common.Fields{"path": store.Path()})
			}
		}()
	}

	session := workflow.NewSession(ctx, client, sessionOptions(cfg, store)...)
	defer session.Close()

	p := pipeline{session: session, out: cmd.OutOrStdout(), progress: cmd.ErrOrStderr()}
	state, err := p.run(ctx, opts)
	if err != nil {
		if interrupts.WasInterrupted() {
			return nil
		}
		return err
	}

	if store != nil {
		fmt.Fprintln(p.out, cli.FormatInfo("Recorded run "+session.ID()))
	}

	if toSheets {
		file, _ := state.File()
		result, _ := state.Prediction()
		return exportToSheets(ctx, p.out, file.Source, result)
	}
	return nil
}
