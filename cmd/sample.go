// -- cmd/sample.go --
package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/exitscope/internal/ingest"
	"github.com/xkilldash9x/exitscope/internal/observability"
)

// newSampleCmd creates and configures the `sample` command.
func newSampleCmd() *cobra.Command {
	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Generates a synthetic exit node dataset",
		Long: `Sample writes a reproducible synthetic dataset in CSV form. The default
output uses canonical column names and valid addresses, so it feeds straight
into analyze. With --dirty the output instead carries alternate column
spellings, whitespace, duplicate and invalid addresses, which analyze rejects
at validation; use it to exercise the validation and cleaning path. The same
--rows and --seed always produce the same file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, _ := cmd.Flags().GetInt("rows")
			seed, _ := cmd.Flags().GetInt64("seed")
			output, _ := cmd.Flags().GetString("output")
			dirty, _ := cmd.Flags().GetBool("dirty")

			if rows <= 0 {
				return fmt.Errorf("rows must be positive, got %d", rows)
			}

			table := ingest.SampleClean(rows, seed)
			if dirty {
				table = ingest.Sample(rows, seed)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "stdout" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			cw := csv.NewWriter(w)
			if err := cw.Write(table.Columns); err != nil {
				return fmt.Errorf("failed to write dataset header: %w", err)
			}
			record := make([]string, len(table.Columns))
			for _, row := range table.Rows {
				for i, col := range table.Columns {
					record[i] = row.Get(col)
				}
				if err := cw.Write(record); err != nil {
					return fmt.Errorf("failed to write dataset row: %w", err)
				}
			}
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("failed to flush dataset: %w", err)
			}

			observability.GetLogger().Info("Sample dataset written",
				zap.Int("rows", table.Len()),
				zap.Int64("seed", seed),
				zap.String("output", output),
			)
			return nil
		},
	}

	sampleCmd.Flags().Int("rows", 100, "Number of rows to generate")
	sampleCmd.Flags().Int64("seed", 42, "Seed for the generator; the same seed reproduces the same dataset")
	sampleCmd.Flags().StringP("output", "o", "", "Destination path. If unset, the dataset goes to stdout.")
	sampleCmd.Flags().Bool("dirty", false, "Emit raw messy input (alternate headers, invalid and duplicate rows)")

	return sampleCmd
}
