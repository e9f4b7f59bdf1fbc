package cmd

import (
	"fmt"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
)

var showMetrics bool

var reportCmd = &cobra.Command{
	Use:   "report <root.kicad_sch>",
	Short: "Report naming conflicts and hierarchy problems",
	Long: `Resolve the schematic and print the rebuild report: naming
conflicts, unresolved bus members, unconnected sheet pins and
hierarchical labels, and label diagnostics.

Examples:
  schnet report board.kicad_sch
  schnet report --metrics board.kicad_sch
  schnet report --json board.kicad_sch`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&showMetrics, "metrics", false, "also print engine metrics")
}

func runReport(cmd *cobra.Command, args []string) error {
	s, err := load(cmd, args[0])
	if err != nil {
		return err
	}
	r := s.report
	if jsonOutput {
		return printJSON(cmd, r)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rebuild %s (generation %d, %s)\n", r.ID, r.Generation, r.Duration)
	fmt.Fprintf(out, "Sheets: %d  Subgraphs: %d  Merged: %d\n",
		r.SheetsClustered+r.SheetsReused, r.SubgraphsCreated, r.SubgraphsMerged)

	fmt.Fprintf(out, "\nConflicts: %d\n", len(r.Conflicts))
	for _, c := range r.Conflicts {
		fmt.Fprintf(out, "  %s in %s: %s, using %q\n",
			c.Priority, strings.Join(c.Sheets, ", "), strings.Join(c.Names, " / "), c.Chosen)
	}

	fmt.Fprintf(out, "\nUnresolved bus members: %d\n", len(r.UnresolvedBusMembers))
	for _, u := range r.UnresolvedBusMembers {
		fmt.Fprintf(out, "  %s[%d] %s in %s\n", u.Bus, u.Index, u.Member, u.Sheet)
	}

	fmt.Fprintf(out, "\nUnconnected: %d\n", len(r.Unconnected))
	for _, u := range r.Unconnected {
		fmt.Fprintf(out, "  %s %q (%s) expected in %s\n", u.ItemKind, u.Text, u.Item, u.Scope)
	}

	fmt.Fprintf(out, "\nDiagnostics: %d\n", len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		fmt.Fprintf(out, "  %s %q in %s: %s\n", d.Item, d.Text, d.Sheet, d.Problem)
	}

	if showMetrics {
		families, err := s.registry.Gather()
		if err != nil {
			return fmt.Errorf("gather metrics: %w", err)
		}
		fmt.Fprintln(out, "\nMetrics:")
		for _, line := range metricLines(families) {
			fmt.Fprintf(out, "  %s\n", line)
		}
	}
	return nil
}

func metricLines(families []*dto.MetricFamily) []string {
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetCounter().GetValue()))
			case dto.MetricType_GAUGE:
				lines = append(lines, fmt.Sprintf("%s %g", name, m.GetGauge().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	return lines
}
