// Package cli implements the vantage command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "vantage",
	Short: "Vantage ledger and settlement daemon",
	Long: `Vantage is the ledger and settlement backend for the rewards platform.
It keeps the per-member cash ledger, wallet balances, dashboard statistics
and the withdrawal settlement state machine behind one HTTP API.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the vantage version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("vantage %s\n", Version)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
