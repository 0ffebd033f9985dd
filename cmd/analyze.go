// -- cmd/analyze.go --
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/exitscope/internal/config"
	"github.com/xkilldash9x/exitscope/internal/observability"
	"github.com/xkilldash9x/exitscope/internal/pipeline"
	"github.com/xkilldash9x/exitscope/internal/report"
)

// newAnalyzeCmd creates and configures the `analyze` command.
func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Runs the full analysis pipeline over a dataset file",
		Long: `Analyze loads an exit node dataset (.csv or .json), validates and cleans
it, enriches every node with geolocation data, applies the risk rules, and
writes a report.

Network lookups are disabled unless --use-api is passed; offline runs fall
back to a coarse address heuristic.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys so command-line
			// flags correctly override the config file and environment.
			if err := viper.BindPFlag("report.format", cmd.Flags().Lookup("format")); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Use the context passed from Execute (signal-aware).
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// 1. Configuration finalization. Re-read the config now that the
			// format flag is bound so overrides carry the right precedence.
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			input, _ := cmd.Flags().GetString("input")
			useAPI, _ := cmd.Flags().GetBool("use-api")
			maxAPICalls, _ := cmd.Flags().GetInt("max-api-calls")
			output, _ := cmd.Flags().GetString("output")

			// 2. Pipeline assembly.
			p := pipeline.New(cfg, logger)
			defer p.Close()

			table, err := p.Load(input)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			// 3. Run the pipeline.
			rep, err := p.Run(ctx, table, pipeline.RunOptions{
				UseAPI:      useAPI,
				MaxAPICalls: maxAPICalls,
				Source:      input,
			})
			if err != nil {
				var verr *pipeline.ValidationError
				if errors.As(err, &verr) {
					for _, msg := range verr.Errors {
						fmt.Fprintf(cmd.ErrOrStderr(), "validation: %s\n", msg)
					}
				}
				return err
			}

			// 4. Write the report.
			reporter, err := report.New(cfg.Report.Format, output, cfg.Report.TopNodes)
			if err != nil {
				return err
			}
			if err := reporter.Write(rep); err != nil {
				reporter.Close()
				return fmt.Errorf("failed to write report: %w", err)
			}
			if err := reporter.Close(); err != nil {
				return fmt.Errorf("failed to finalize report: %w", err)
			}

			logger.Info("Analysis complete",
				zap.String("run_id", rep.RunID),
				zap.Int("nodes", rep.NodeCount),
				zap.Int("api_calls", rep.APICalls),
				zap.String("format", cfg.Report.Format),
			)
			return nil
		},
	}

	// Input flags.
	analyzeCmd.Flags().StringP("input", "i", "", "Path to the dataset file (.csv or .json)")
	analyzeCmd.MarkFlagRequired("input")

	// Enrichment flags.
	analyzeCmd.Flags().Bool("use-api", false, "Enable network geolocation lookups")
	analyzeCmd.Flags().Int("max-api-calls", -1, "Cap on nodes that may reach the network (-1 uses the configured default)")

	// Reporting flags.
	analyzeCmd.Flags().StringP("format", "f", "", "Report format: 'json', 'csv', or 'text'. (Overrides config/env)")
	analyzeCmd.Flags().StringP("output", "o", "", "Report destination path. If unset, the report goes to stdout.")

	return analyzeCmd
}
