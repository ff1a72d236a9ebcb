package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MichaelDuPlessis/velocity-evolver/grammar"
)

var decodeCmd = &cobra.Command{
	Use:   "decode HEX-GENOME",
	Short: "Print the velocity rule encoded by a chromosome",
	Long: `Decode a hex encoded chromosome, as stored in the genome column of the
result database, into its velocity rule.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		genome, err := hex.DecodeString(strings.TrimPrefix(args[0], "0x"))
		if err != nil {
			return fmt.Errorf("bad genome %q: %w", args[0], err)
		}
		tree, n, err := grammar.DecodeCount(genome)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "rule:    %v\n", tree)
		fmt.Fprintf(out, "depth:   %v\n", tree.Depth())
		fmt.Fprintf(out, "size:    %v\n", tree.Size())
		fmt.Fprintf(out, "codons:  %v read, %v wraps\n", n, (n-1)/len(genome))
		fmt.Fprintf(out, "random:  %v\n", tree.HasRandom())
		return nil
	},
}
