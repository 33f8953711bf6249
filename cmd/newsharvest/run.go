package main

import (
	"github.com/spf13/cobra"

	"github.com/IshaanNene/newsharvest/internal/config"
)

// runCmd creates the "run" subcommand: scrape then process.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run [url=N ...]",
		Short:   "Scrape sources and process the results in one go",
		Example: `  newsharvest run https://www.eetimes.com=5 --endpoint mock`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(func(cfg *config.Config) {
				scrapeOverrides(cfg)
				processOverrides(cfg)
			})
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			a.startMetrics(ctx)

			raw, err := scrape(ctx, a, args)
			if err != nil {
				return err
			}
			return process(ctx, a, raw)
		},
	}

	addScrapeFlags(cmd)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default storage.processed_output)")
	cmd.Flags().BoolVar(&autoFilename, "auto-filename", false, "append a timestamp to the output filename")
	cmd.Flags().StringVar(&llmEndpoint, "endpoint", "", `chat-completion endpoint URL, or "mock"`)
	cmd.Flags().StringVar(&llmModel, "model", "", "model name")
	cmd.Flags().StringVar(&llmKey, "key", "", "API key (default $"+config.APIKeyEnv+")")
	return cmd
}
