package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	configPath string
	jsonOutput bool
	tieBreak   string
)

var rootCmd = &cobra.Command{
	Use:   "schnet",
	Short: "KiCad schematic connectivity resolver",
	Long: `schnet resolves the electrical connectivity of a KiCad schematic
hierarchy: which wires, pins and labels form each net, what every net and
bus is called, and where names disagree.

Examples:
  schnet nets board.kicad_sch                 # List all nets
  schnet net board.kicad_sch /power/EN        # Show one net
  schnet buses board.kicad_sch                # List buses and members
  schnet report --json board.kicad_sch        # Conflicts and diagnostics as JSON`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "engine configuration file (YAML)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print machine readable JSON")
	rootCmd.PersistentFlags().StringVar(&tieBreak, "tie-break", "", "override the tie-break policy (creation-order, position, lexical)")
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
