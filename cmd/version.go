// -- cmd/version.go --
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata. These values are intended to be set at build time using
// ldflags, e.g.:
//
//	go build -ldflags "-X github.com/xkilldash9x/exitscope/cmd.Version=1.0.0"
var (
	Version   = "1.0"
	Commit    = "none"
	BuildDate = "unknown"
)

// newVersionCmd creates the `version` command, which prints the full build
// metadata. The root --version flag prints the bare version string only.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "exitscope %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
