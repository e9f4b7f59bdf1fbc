package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/schnet/pkg/connectivity"
)

var infoCmd = &cobra.Command{
	Use:   "info <root.kicad_sch> [component]",
	Short: "Show schematic information",
	Long: `Display information about a KiCad schematic hierarchy.

Without component argument: shows the sheet tree and per-sheet statistics
With component argument: shows that component's pins and the nets they
resolve to`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := load(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(args) >= 2 {
		// Show details for specific component
		return showComponentDetails(out, s, args[1])
	}

	showSummary(out, s)
	return nil
}

func showSummary(out io.Writer, s *session) {
	root := s.project.Root
	fmt.Fprintf(out, "Schematic: %s\n", s.project.RootFile)
	fmt.Fprintf(out, "Version: %d\n", root.Version)
	fmt.Fprintf(out, "Generator: %s\n", root.Generator)
	fmt.Fprintf(out, "Files: %d\n", len(s.project.Files()))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Sheets:")
	for path := range s.project.SheetInstances() {
		sch, _ := s.project.Schematic(path)
		indent := strings.Repeat("  ", path.Depth()+1)
		fmt.Fprintf(out, "%s%s  (%d components, %d wires, %d labels, %d sheets)\n",
			indent, path, len(sch.Symbols), len(sch.Wires), len(sch.Labels), len(sch.Sheets))
	}
	fmt.Fprintln(out)

	// Group by reference prefix
	byPrefix := make(map[string][]string)
	for path := range s.project.SheetInstances() {
		sch, _ := s.project.Schematic(path)
		for i := range sch.Symbols {
			ref := s.project.Reference(path, &sch.Symbols[i])
			if ref == "" || strings.HasPrefix(ref, "#") {
				continue
			}
			prefix := getRefPrefix(ref)
			byPrefix[prefix] = append(byPrefix[prefix], ref)
		}
	}
	if len(byPrefix) > 0 {
		fmt.Fprintln(out, "Components:")
		var prefixes []string
		for p := range byPrefix {
			prefixes = append(prefixes, p)
		}
		sort.Strings(prefixes)
		for _, prefix := range prefixes {
			refs := byPrefix[prefix]
			sort.Strings(refs)
			fmt.Fprintf(out, "  %s: %s\n", prefix, strings.Join(refs, ", "))
		}
	}
}

func showComponentDetails(out io.Writer, s *session, ref string) error {
	for path := range s.project.SheetInstances() {
		sch, _ := s.project.Schematic(path)
		for i := range sch.Symbols {
			sym := &sch.Symbols[i]
			if s.project.Reference(path, sym) != ref {
				continue
			}

			fmt.Fprintf(out, "Component: %s\n", ref)
			fmt.Fprintf(out, "Sheet: %s\n", path)
			fmt.Fprintf(out, "Library: %s\n", sym.LibID)
			fmt.Fprintf(out, "Value: %s\n", sym.Value)
			fmt.Fprintf(out, "Position: (%.2f, %.2f)\n", sym.At.X, sym.At.Y)
			if sym.At.Angle != 0 {
				fmt.Fprintf(out, "Rotation: %.1f°\n", sym.At.Angle)
			}
			if sym.Mirror != "" {
				fmt.Fprintf(out, "Mirror: %s\n", sym.Mirror)
			}
			fmt.Fprintf(out, "Unit: %d\n", sym.Unit)

			lib := sch.LibSymbol(sym)
			if lib == nil {
				return nil
			}
			fmt.Fprintln(out, "\nPins:")
			for _, pin := range lib.UnitPins(sym.Unit, sym.BodyStyle) {
				net := "(unconnected)"
				id := connectivity.ItemID(sym.UUID + "/" + pin.Number)
				if c, err := s.graph.GetConnection(id, path); err == nil && c.Name() != "" {
					net = c.Name()
				}
				fmt.Fprintf(out, "  %s (%s): %s -> %s\n", pin.Number, pin.Name, pin.Type, net)
			}
			return nil
		}
	}
	return fmt.Errorf("component '%s' not found", ref)
}

// getRefPrefix extracts the letters before the designator number.
func getRefPrefix(ref string) string {
	for i, c := range ref {
		if c >= '0' && c <= '9' {
			return ref[:i]
		}
	}
	return ref
}
