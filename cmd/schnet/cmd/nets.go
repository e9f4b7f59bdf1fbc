package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var netsCmd = &cobra.Command{
	Use:   "nets <root.kicad_sch>",
	Short: "List resolved nets",
	Long: `Resolve the schematic hierarchy and list every net by name with the
number of subgraphs and sheet instances it spans.

Examples:
  schnet nets board.kicad_sch
  schnet nets --json board.kicad_sch`,
	Args: cobra.ExactArgs(1),
	RunE: runNets,
}

func init() {
	rootCmd.AddCommand(netsCmd)
}

type netSummary struct {
	Name      string   `json:"name"`
	Subgraphs int      `json:"subgraphs"`
	Sheets    []string `json:"sheets"`
	Items     int      `json:"items"`
}

func runNets(cmd *cobra.Command, args []string) error {
	s, err := load(cmd, args[0])
	if err != nil {
		return err
	}
	nets, err := s.graph.ListNets()
	if err != nil {
		return err
	}

	summaries := make([]netSummary, 0, len(nets))
	for _, n := range nets {
		summaries = append(summaries, netSummary{
			Name:      n.Name(),
			Subgraphs: len(n.Subgraphs()),
			Sheets:    sheetNames(n.Sheets()),
			Items:     len(n.Connections()),
		})
	}
	if jsonOutput {
		return printJSON(cmd, summaries)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Nets: %d\n\n", len(summaries))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSUBGRAPHS\tSHEETS\tITEMS")
	for _, n := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", n.Name, n.Subgraphs, len(n.Sheets), n.Items)
	}
	return w.Flush()
}
