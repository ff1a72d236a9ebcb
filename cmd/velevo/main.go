// Command velevo evolves particle swarm velocity rules and compares them with
// the canonical rule over a catalog of benchmark functions.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "velevo",
	Short: "Evolve and evaluate particle swarm velocity rules",
	Long: `velevo searches for particle swarm velocity update rules with grammatical
evolution and compares them with the canonical rule.

Examples:
  velevo run --config config/local.yaml --dim 2 --dim 30
  velevo run --rule canonical --report stats --out results
  velevo decode 070604020608020000
  velevo bench --dim 30 --trials 10`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd, decodeCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
