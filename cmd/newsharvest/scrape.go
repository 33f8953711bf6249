package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsharvest/internal/config"
	"github.com/IshaanNene/newsharvest/internal/discovery"
	"github.com/IshaanNene/newsharvest/internal/extractor"
	"github.com/IshaanNene/newsharvest/internal/fetcher"
	"github.com/IshaanNene/newsharvest/internal/orchestrator"
	"github.com/IshaanNene/newsharvest/internal/storage"
)

var (
	sourcesFile string
	noBrowser   bool
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url=N ...]",
		Short: "Extract articles from news homepages",
		Long: `Discover article links on each homepage and extract up to N usable
articles per source. Backends are tried in the configured order until the
quota is met. Results are written to data/article_dataN.json.`,
		Example: `  newsharvest scrape https://www.eetimes.com=5 https://semiengineering.com=3
  newsharvest scrape --sources sources.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(scrapeOverrides)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			a.startMetrics(ctx)

			_, err = scrape(ctx, a, args)
			return err
		},
	}
	addScrapeFlags(cmd)
	return cmd
}

func addScrapeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sourcesFile, "sources", "", "YAML or JSON file listing {url, count} sources")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "disable the rendered backend")
}

func scrapeOverrides(cfg *config.Config) {
	if noBrowser {
		cfg.Browser.Enabled = false
	}
}

// collectSources merges positional URL=N arguments with the --sources file.
func collectSources(args []string) ([]orchestrator.Source, error) {
	var sources []orchestrator.Source
	if sourcesFile != "" {
		loaded, err := orchestrator.LoadSources(sourcesFile)
		if err != nil {
			return nil, err
		}
		sources = append(sources, loaded...)
	}
	for _, arg := range args {
		src, err := orchestrator.ParseSource(arg)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources given: pass URL=N arguments or --sources")
	}
	return sources, nil
}

// scrape runs the extraction chain and writes the raw records. It returns
// the path written.
func scrape(ctx context.Context, a *app, args []string) (string, error) {
	sources, err := collectSources(args)
	if err != nil {
		return "", err
	}
	logger := a.logger

	httpFetcher, err := fetcher.NewHTTPFetcher(a.cfg, logger)
	if err != nil {
		return "", fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	// Chromium is only started by the first rendered fetch.
	browser := fetcher.NewBrowserFetcher(a.cfg, logger)
	defer func() {
		if err := browser.Close(); err != nil {
			logger.Warn("browser close failed", "error", err)
		}
	}()

	fetchers := extractor.Fetchers{HTTP: httpFetcher, Browser: browser}
	if a.cfg.Fetcher.RespectRobots {
		fetchers.Robots = discovery.NewRobots(httpFetcher, logger)
	}

	stages, err := orchestrator.StagesFromConfig(a.cfg, fetchers, logger)
	if err != nil {
		return "", err
	}
	orch := orchestrator.New(stages, logger, orchestrator.WithRecorder(a.metrics))

	logger.Info("starting scrape", "sources", len(sources), "backends", a.cfg.Extraction.Backends)
	start := time.Now()

	result, collectErr := orch.Collect(ctx, sources)
	if result == nil {
		return "", collectErr
	}

	path := storage.NextNumberedPath(a.cfg.Storage.DataDir, a.cfg.Storage.RawBaseName, ".json")
	sink, err := storage.NewJSONStorage(path, logger)
	if err != nil {
		return "", err
	}
	if err := sink.Store(result.Articles); err != nil {
		return "", err
	}
	if err := sink.Close(); err != nil {
		return "", err
	}

	elapsed := time.Since(start)
	fmt.Printf("\n✅ Scrape complete in %s\n", elapsed.Round(time.Millisecond))
	for _, src := range result.Sources {
		fmt.Printf("   %-40s %d/%d", src.URL, src.Kept, src.Requested)
		for backend, n := range src.ByBackend {
			fmt.Printf("  %s=%d", backend, n)
		}
		fmt.Println()
	}
	fmt.Printf("   Articles:  %d of %d requested (%.0f%%)\n", result.Kept, result.Requested, result.CompletionRatio()*100)
	fmt.Printf("   Output:    %s\n", path)

	if collectErr != nil {
		return path, fmt.Errorf("scrape interrupted: %w", collectErr)
	}
	return path, nil
}
