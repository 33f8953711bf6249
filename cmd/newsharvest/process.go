package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsharvest/internal/annotate"
	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/pipeline"
	"github.com/IshaanNene/newsharvest/internal/quality"
	"github.com/IshaanNene/newsharvest/internal/storage"
)

var (
	inputPath    string
	outputPath   string
	autoFilename bool
	llmEndpoint  string
	llmModel     string
	llmKey       string
)

// processCmd creates the "process" subcommand.
func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Deduplicate, score and annotate extracted articles",
		Long: `Read raw article records, drop duplicates by content hash, score
content quality and annotate the articles that pass with sentiment, a
summary and a relevance flag. Use --endpoint mock for offline runs.`,
		Example: `  newsharvest process --input data/article_data1.json
  newsharvest process --input data/article_data1.json --endpoint mock --auto-filename`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(processOverrides)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			a.startMetrics(ctx)

			input, err := defaultInput(a.cfg.Storage, inputPath)
			if err != nil {
				return err
			}
			return process(ctx, a, input)
		},
	}
	addProcessFlags(cmd)
	return cmd
}

func addProcessFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input JSON file (default: newest <data_dir>/<raw_base_name>N.json)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default storage.processed_output)")
	cmd.Flags().BoolVar(&autoFilename, "auto-filename", false, "append a timestamp to the output filename")
	cmd.Flags().StringVar(&llmEndpoint, "endpoint", "", `chat-completion endpoint URL, or "mock"`)
	cmd.Flags().StringVar(&llmModel, "model", "", "model name")
	cmd.Flags().StringVar(&llmKey, "key", "", "API key (default $"+config.APIKeyEnv+")")
}

// defaultInput resolves --input, falling back to the newest numbered file
// scrape has written.
func defaultInput(cfg config.StorageConfig, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	path, ok := storage.LatestNumberedPath(cfg.DataDir, cfg.RawBaseName, ".json")
	if !ok {
		return "", fmt.Errorf("no %sN.json in %s: pass --input", cfg.RawBaseName, cfg.DataDir)
	}
	return path, nil
}

func processOverrides(cfg *config.Config) {
	if llmEndpoint != "" {
		cfg.Annotation.Endpoint = llmEndpoint
	}
	if llmModel != "" {
		cfg.Annotation.Model = llmModel
	}
	if llmKey != "" {
		cfg.Annotation.APIKey = llmKey
	}
	if outputPath != "" {
		cfg.Storage.ProcessedOutput = outputPath
	}
}

// openSinks builds the output file sink plus MongoDB when configured.
func openSinks(ctx context.Context, a *app, path string) (storage.Storage, error) {
	file, err := storage.NewFileStorage(a.cfg.Storage.Format, path, a.logger)
	if err != nil {
		return nil, err
	}
	if a.cfg.Storage.MongoURI == "" {
		return file, nil
	}

	mongo, err := storage.NewMongoStorage(ctx, a.cfg.Storage.MongoURI, a.cfg.Storage.MongoDatabase, a.runID, a.logger)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return storage.NewMultiStorage(a.logger, file, mongo), nil
}

// process runs the processing pipeline over the records in input.
func process(ctx context.Context, a *app, input string) error {
	logger := a.logger

	articles, err := storage.LoadArticles(input)
	if err != nil {
		return err
	}

	output := a.cfg.Storage.ProcessedOutput
	if autoFilename {
		output = storage.TimestampedPath(output, time.Now())
	}

	assessor := quality.NewAssessor(a.cfg.Quality)
	limiter := annotate.NewRateLimiter(a.cfg.Annotation.MinInterval)
	annotator := annotate.New(a.cfg.Annotation, a.cfg.Quality.Keywords, limiter, a.metrics, logger)
	proc := pipeline.NewProcessor(
		pipeline.Default(assessor, annotator, logger),
		logger,
		pipeline.WithStatusRecorder(a.metrics),
	)

	logger.Info("starting processing",
		"input", input,
		"output", output,
		"articles", len(articles),
		"model", a.cfg.Annotation.Model,
		"mock", a.cfg.Annotation.IsMock(),
	)
	start := time.Now()

	report, runErr := proc.Run(ctx, articles)

	sink, err := openSinks(ctx, a, output)
	if err != nil {
		return err
	}
	if err := sink.Store(report.Articles); err != nil {
		_ = sink.Close()
		return err
	}
	if err := sink.Close(); err != nil {
		return err
	}

	elapsed := time.Since(start)
	fmt.Printf("\n✅ Processing complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Input:       %d articles, %d duplicates, %d unique\n", report.Original, report.Duplicates, report.Unique)
	fmt.Printf("   Success:     %d\n", report.Success)
	fmt.Printf("   Failed:      %d\n", report.Failed)
	fmt.Printf("   Low quality: %d\n", report.LowQuality)
	fmt.Printf("   No content:  %d\n", report.NoContent)
	fmt.Printf("   Errors:      %d\n", report.Errors)
	fmt.Printf("   Relevant:    %d\n", report.Relevant)
	fmt.Printf("   Avg quality: %.2f/10\n", report.AverageQuality)
	fmt.Printf("   Output:      %s\n", output)

	if runErr != nil {
		return fmt.Errorf("processing interrupted: %w", runErr)
	}
	return nil
}
