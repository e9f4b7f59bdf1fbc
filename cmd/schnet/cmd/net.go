package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/schnet/pkg/connectivity"
)

var netCmd = &cobra.Command{
	Use:   "net <root.kicad_sch> <name>",
	Short: "Show one net",
	Long: `Show the subgraphs of one net and the items in each, with the
driver that named it.

Examples:
  schnet net board.kicad_sch GND
  schnet net board.kicad_sch /power/EN --json`,
	Args: cobra.ExactArgs(2),
	RunE: runNet,
}

func init() {
	rootCmd.AddCommand(netCmd)
}

type itemDetail struct {
	ID        connectivity.ItemID `json:"id"`
	Kind      string              `json:"kind"`
	Text      string              `json:"text,omitempty"`
	Reference string              `json:"reference,omitempty"`
	Pin       string              `json:"pin,omitempty"`
	Driver    bool                `json:"driver,omitempty"`
}

type subgraphDetail struct {
	ID       connectivity.SubgraphID `json:"id"`
	Sheet    string                  `json:"sheet"`
	Priority string                  `json:"priority"`
	Items    []itemDetail            `json:"items"`
}

type netDetail struct {
	Name      string           `json:"name"`
	Subgraphs []subgraphDetail `json:"subgraphs"`
}

func runNet(cmd *cobra.Command, args []string) error {
	s, err := load(cmd, args[0])
	if err != nil {
		return err
	}
	n, err := s.graph.GetNet(args[1])
	if err != nil {
		return err
	}

	detail := netDetail{Name: n.Name()}
	for _, sg := range n.Subgraphs() {
		sd := subgraphDetail{
			ID:       sg.ID(),
			Sheet:    sg.Sheet().String(),
			Priority: sg.DriverPriority().String(),
		}
		var driver connectivity.ItemID
		if d := sg.Driver(); d != nil {
			driver = d.ItemID()
		}
		for _, c := range sg.Connections() {
			it, _, err := s.graph.ResolveHandle(c.Item())
			if err != nil {
				return err
			}
			d := itemDetail{
				ID:     it.ID(),
				Kind:   it.Kind().String(),
				Text:   it.Text(),
				Driver: it.ID() == driver,
			}
			if p, ok := it.(connectivity.PinItem); ok && it.Kind() == connectivity.ItemPin {
				d.Reference = p.Reference()
				d.Pin = p.Number()
			}
			sd.Items = append(sd.Items, d)
		}
		detail.Subgraphs = append(detail.Subgraphs, sd)
	}

	if jsonOutput {
		return printJSON(cmd, detail)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Net: %s\n", detail.Name)
	for _, sd := range detail.Subgraphs {
		fmt.Fprintf(out, "\nSubgraph %d in %s (driver priority %s)\n", sd.ID, sd.Sheet, sd.Priority)
		for _, d := range sd.Items {
			mark := " "
			if d.Driver {
				mark = "*"
			}
			switch {
			case d.Reference != "":
				fmt.Fprintf(out, " %s %-18s %s pin %s\n", mark, d.Kind, d.Reference, d.Pin)
			case d.Text != "":
				fmt.Fprintf(out, " %s %-18s %q\n", mark, d.Kind, d.Text)
			default:
				fmt.Fprintf(out, " %s %-18s %s\n", mark, d.Kind, d.ID)
			}
		}
	}
	return nil
}
