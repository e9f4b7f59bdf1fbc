package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/schnet/pkg/connectivity"
)

var busesCmd = &cobra.Command{
	Use:   "buses <root.kicad_sch>",
	Short: "List buses and their members",
	Long: `List every vector and group bus with its members and whether each
member is backed by a net in the same sheet.

Examples:
  schnet buses board.kicad_sch
  schnet buses --json board.kicad_sch`,
	Args: cobra.ExactArgs(1),
	RunE: runBuses,
}

func init() {
	rootCmd.AddCommand(busesCmd)
}

type busMember struct {
	Name     string                  `json:"name"`
	Subgraph connectivity.SubgraphID `json:"subgraph,omitempty"`
	Resolved bool                    `json:"resolved"`
}

type busSummary struct {
	Name    string      `json:"name"`
	Kind    string      `json:"kind"`
	Sheets  []string    `json:"sheets"`
	Members []busMember `json:"members"`
}

func runBuses(cmd *cobra.Command, args []string) error {
	s, err := load(cmd, args[0])
	if err != nil {
		return err
	}
	buses, err := s.graph.ListBuses()
	if err != nil {
		return err
	}

	summaries := make([]busSummary, 0, len(buses))
	for _, b := range buses {
		bs := busSummary{
			Name:   b.Name(),
			Kind:   b.Kind().String(),
			Sheets: sheetNames(b.Sheets()),
		}
		for _, m := range b.Members() {
			bs.Members = append(bs.Members, busMember{
				Name:     m.Name(),
				Subgraph: m.SubgraphID(),
				Resolved: m.Resolved(),
			})
		}
		summaries = append(summaries, bs)
	}
	if jsonOutput {
		return printJSON(cmd, summaries)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Buses: %d\n", len(summaries))
	for _, bs := range summaries {
		fmt.Fprintf(out, "\n%s (%s, %d members)\n", bs.Name, bs.Kind, len(bs.Members))
		for _, m := range bs.Members {
			if m.Resolved {
				fmt.Fprintf(out, "  %-20s subgraph %d\n", m.Name, m.Subgraph)
			} else {
				fmt.Fprintf(out, "  %-20s unresolved\n", m.Name)
			}
		}
	}
	return nil
}
