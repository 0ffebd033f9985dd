// -- cmd/lookup.go --
package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/exitscope/api/schemas"
	"github.com/xkilldash9x/exitscope/internal/config"
	"github.com/xkilldash9x/exitscope/internal/geo"
	"github.com/xkilldash9x/exitscope/internal/observability"
	"github.com/xkilldash9x/exitscope/internal/pipeline"
)

// newLookupCmd creates and configures the `lookup` command.
func newLookupCmd() *cobra.Command {
	lookupCmd := &cobra.Command{
		Use:   "lookup IP",
		Short: "Geolocates and risk-scores a single IP address",
		Long: `Lookup runs a single address through the enrichment chain and risk rules.
Network providers are always consulted; configure an ipinfo.io token or an
MMDB directory to widen the chain.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("format")
			if format != "json" && format != "text" {
				return fmt.Errorf("unsupported lookup format: %s", format)
			}

			p := pipeline.New(cfg, observability.GetLogger())
			defer p.Close()

			node, err := p.LookupAndAssess(ctx, args[0])
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(node)
			}
			return renderNodeText(cmd.OutOrStdout(), node)
		},
	}

	lookupCmd.Flags().StringP("format", "f", "text", "Output format: 'json' or 'text'")

	return lookupCmd
}

// renderNodeText writes a single assessed node as an aligned key/value block.
func renderNodeText(w io.Writer, node *schemas.Node) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "IP:\t%s\n", node.IP)
	fmt.Fprintf(tw, "Country:\t%s\n", geo.CountryName(node.Country))
	if node.Region != "" {
		fmt.Fprintf(tw, "Region:\t%s\n", node.Region)
	}
	if node.City != "" {
		fmt.Fprintf(tw, "City:\t%s\n", node.City)
	}
	if node.ASN != "" {
		fmt.Fprintf(tw, "ASN:\t%s\n", node.ASN)
	}
	if node.ISP != "" {
		fmt.Fprintf(tw, "ISP:\t%s\n", node.ISP)
	}
	if node.Latitude != nil && node.Longitude != nil {
		fmt.Fprintf(tw, "Coordinates:\t%.4f, %.4f\n", *node.Latitude, *node.Longitude)
	}
	fmt.Fprintf(tw, "Risk score:\t%.2f\n", node.RiskScore)
	fmt.Fprintf(tw, "Risk level:\t%s\n", node.RiskLevel)
	if len(node.RiskFactors) > 0 {
		fmt.Fprintf(tw, "Risk factors:\t%s\n", strings.Join(node.RiskFactors, "; "))
	}

	return tw.Flush()
}
