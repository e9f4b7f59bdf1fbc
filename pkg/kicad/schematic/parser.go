package schematic

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/schnet/pkg/kicad/sexp"
)

// Minimum supported KiCad version for schematics (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad schematic file
func ParseFile(filename string) (*Schematic, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	sch, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sch, nil
}

// Parse reads and parses a KiCad schematic from an io.Reader
func Parse(r io.Reader) (*Schematic, error) {
	nodes, err := sexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	root := nodes[0]
	if name := root.Name(); name != "kicad_sch" {
		return nil, fmt.Errorf("not a KiCad schematic file: expected 'kicad_sch', got '%s'", name)
	}

	sch := &Schematic{
		UUID:       sexp.GetUUID(root),
		LibSymbols: make(map[string]*LibSymbol),
	}
	if err := parseHeader(root, sch); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	if libs, ok := sexp.FindNode(root, "lib_symbols"); ok {
		for _, n := range sexp.FindAllNodes(libs, "symbol") {
			ls, err := parseLibSymbol(n)
			if err != nil {
				return nil, err
			}
			sch.LibSymbols[ls.Name] = ls
		}
	}

	legacyRefs := parseSymbolInstances(root)

	for _, n := range root.Children {
		if n.IsLeaf() {
			continue
		}
		switch n.Name() {
		case "symbol":
			s, err := parseSymbol(n)
			if err != nil {
				return nil, err
			}
			sch.Symbols = append(sch.Symbols, s)
		case "wire", "bus":
			pts, err := sexp.GetPoints(n)
			if err != nil {
				return nil, err
			}
			l := Line{UUID: sexp.GetUUID(n), Points: pts}
			if n.Name() == "wire" {
				sch.Wires = append(sch.Wires, l)
			} else {
				sch.Buses = append(sch.Buses, l)
			}
		case "bus_entry":
			e, err := parseBusEntry(n)
			if err != nil {
				return nil, err
			}
			sch.BusEntries = append(sch.BusEntries, e)
		case "junction", "no_connect":
			at, err := sexp.GetAt(n)
			if err != nil {
				return nil, err
			}
			m := Marker{UUID: sexp.GetUUID(n), At: at.Position}
			if n.Name() == "junction" {
				sch.Junctions = append(sch.Junctions, m)
			} else {
				sch.NoConnects = append(sch.NoConnects, m)
			}
		case "label", "global_label", "hierarchical_label":
			l, err := parseLabel(n)
			if err != nil {
				return nil, err
			}
			sch.Labels = append(sch.Labels, l)
		case "sheet":
			s, err := parseSheet(n)
			if err != nil {
				return nil, err
			}
			sch.Sheets = append(sch.Sheets, s)
		case "bus_alias":
			sch.BusAliases = append(sch.BusAliases, parseBusAlias(n))
		}
	}

	sch.SymbolInstances = legacyRefs
	return sch, nil
}

// parseHeader extracts version and generator information
func parseHeader(root *sexp.Node, sch *Schematic) error {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return fmt.Errorf("missing required 'version' field")
	}
	ver, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return fmt.Errorf("failed to parse version: %w", err)
	}
	if ver < MinSupportedVersion {
		return fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}
	sch.Version = ver

	if genNode, found := sexp.FindNode(root, "generator"); found {
		sch.Generator, _ = sexp.GetString(genNode, 1)
	}
	return nil
}

func parseLibSymbol(n *sexp.Node) (*LibSymbol, error) {
	name, err := sexp.GetString(n, 1)
	if err != nil {
		return nil, fmt.Errorf("lib symbol: %w", err)
	}
	ls := &LibSymbol{Name: name, Power: sexp.GetFlag(n, "power")}

	pins, err := parseLibPins(n, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("lib symbol %s: %w", name, err)
	}
	ls.Pins = pins

	// Units are nested symbols named NAME_UNIT_BODYSTYLE.
	for _, unitNode := range sexp.FindAllNodes(n, "symbol") {
		unitName, _ := sexp.GetString(unitNode, 1)
		unit, body := unitSuffix(unitName)
		pins, err := parseLibPins(unitNode, unit, body)
		if err != nil {
			return nil, fmt.Errorf("lib symbol %s: %w", unitName, err)
		}
		ls.Pins = append(ls.Pins, pins...)
	}
	return ls, nil
}

func unitSuffix(name string) (unit, body int) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return 0, 0
	}
	u, err1 := strconv.Atoi(parts[len(parts)-2])
	b, err2 := strconv.Atoi(parts[len(parts)-1])
	if err1 != nil || err2 != nil {
		return 0, 0
	}
	return u, b
}

func parseLibPins(n *sexp.Node, unit, body int) ([]LibPin, error) {
	var out []LibPin
	for _, pn := range sexp.FindAllNodes(n, "pin") {
		at, err := sexp.GetAt(pn)
		if err != nil {
			return nil, err
		}
		p := LibPin{
			At:        at,
			Unit:      unit,
			BodyStyle: body,
			Hidden:    sexp.GetFlag(pn, "hide"),
		}
		p.Type, _ = sexp.GetString(pn, 1)
		if l, ok := sexp.FindNode(pn, "length"); ok {
			p.Length, _ = sexp.GetFloat(l, 1)
		}
		if nm, ok := sexp.FindNode(pn, "name"); ok {
			p.Name, _ = sexp.GetString(nm, 1)
		}
		if num, ok := sexp.FindNode(pn, "number"); ok {
			p.Number, _ = sexp.GetString(num, 1)
		}
		out = append(out, p)
	}
	return out, nil
}

func parseSymbol(n *sexp.Node) (Symbol, error) {
	s := Symbol{
		UUID:       sexp.GetUUID(n),
		Unit:       1,
		References: make(map[string]string),
	}
	if lib, ok := sexp.FindNode(n, "lib_id"); ok {
		s.LibID, _ = sexp.GetString(lib, 1)
	}
	if lib, ok := sexp.FindNode(n, "lib_name"); ok {
		s.LibName, _ = sexp.GetString(lib, 1)
	}
	at, err := sexp.GetAt(n)
	if err != nil {
		return s, fmt.Errorf("symbol %s: %w", s.LibID, err)
	}
	s.At = at
	if m, ok := sexp.FindNode(n, "mirror"); ok {
		s.Mirror, _ = sexp.GetString(m, 1)
	}
	if u, ok := sexp.FindNode(n, "unit"); ok {
		s.Unit, _ = sexp.GetInt(u, 1)
	}
	for _, key := range []string{"body_style", "convert"} {
		if b, ok := sexp.FindNode(n, key); ok {
			s.BodyStyle, _ = sexp.GetInt(b, 1)
		}
	}
	s.Reference, _ = sexp.GetProperty(n, "Reference")
	s.Value, _ = sexp.GetProperty(n, "Value")

	// (instances (project "name" (path "/a/b" (reference "R1") (unit 1))))
	if inst, ok := sexp.FindNode(n, "instances"); ok {
		for _, proj := range sexp.FindAllNodes(inst, "project") {
			for _, p := range sexp.FindAllNodes(proj, "path") {
				path, err := sexp.GetString(p, 1)
				if err != nil {
					continue
				}
				if ref, ok := sexp.FindNode(p, "reference"); ok {
					s.References[path], _ = sexp.GetString(ref, 1)
				}
			}
		}
	}
	return s, nil
}

func parseSymbolInstances(root *sexp.Node) map[string]string {
	out := make(map[string]string)
	table, ok := sexp.FindNode(root, "symbol_instances")
	if !ok {
		return out
	}
	for _, p := range sexp.FindAllNodes(table, "path") {
		path, err := sexp.GetString(p, 1)
		if err != nil {
			continue
		}
		if ref, ok := sexp.FindNode(p, "reference"); ok {
			out[path], _ = sexp.GetString(ref, 1)
		}
	}
	return out
}

func parseBusEntry(n *sexp.Node) (BusEntry, error) {
	at, err := sexp.GetAt(n)
	if err != nil {
		return BusEntry{}, err
	}
	e := BusEntry{UUID: sexp.GetUUID(n), At: at.Position}
	if size, ok := sexp.FindNode(n, "size"); ok {
		e.Size.X, _ = sexp.GetFloat(size, 1)
		e.Size.Y, _ = sexp.GetFloat(size, 2)
	}
	return e, nil
}

func parseLabel(n *sexp.Node) (Label, error) {
	l := Label{UUID: sexp.GetUUID(n)}
	switch n.Name() {
	case "global_label":
		l.Kind = GlobalLabel
	case "hierarchical_label":
		l.Kind = HierLabel
	}
	text, err := sexp.GetString(n, 1)
	if err != nil {
		return l, fmt.Errorf("%s: %w", n.Name(), err)
	}
	l.Text = text
	at, err := sexp.GetAt(n)
	if err != nil {
		return l, fmt.Errorf("%s %q: %w", n.Name(), text, err)
	}
	l.At = at
	if shape, ok := sexp.FindNode(n, "shape"); ok {
		l.Shape, _ = sexp.GetString(shape, 1)
	}
	return l, nil
}

func parseSheet(n *sexp.Node) (Sheet, error) {
	s := Sheet{UUID: sexp.GetUUID(n)}
	at, err := sexp.GetAt(n)
	if err != nil {
		return s, fmt.Errorf("sheet: %w", err)
	}
	s.At = at.Position
	if size, ok := sexp.FindNode(n, "size"); ok {
		s.Size.X, _ = sexp.GetFloat(size, 1)
		s.Size.Y, _ = sexp.GetFloat(size, 2)
	}

	// KiCad 6 spells the fields "Sheet name" and "Sheet file".
	for _, key := range []string{"Sheetname", "Sheet name"} {
		if v, ok := sexp.GetProperty(n, key); ok {
			s.Name = v
			break
		}
	}
	for _, key := range []string{"Sheetfile", "Sheet file"} {
		if v, ok := sexp.GetProperty(n, key); ok {
			s.File = v
			break
		}
	}
	if s.File == "" {
		return s, fmt.Errorf("sheet %s: missing sheet file", s.UUID)
	}

	for _, pn := range sexp.FindAllNodes(n, "pin") {
		name, err := sexp.GetString(pn, 1)
		if err != nil {
			return s, fmt.Errorf("sheet %s pin: %w", s.Name, err)
		}
		at, err := sexp.GetAt(pn)
		if err != nil {
			return s, fmt.Errorf("sheet %s pin %q: %w", s.Name, name, err)
		}
		pin := SheetPin{Name: name, UUID: sexp.GetUUID(pn), At: at}
		pin.Shape, _ = sexp.GetString(pn, 2)
		s.Pins = append(s.Pins, pin)
	}
	return s, nil
}

func parseBusAlias(n *sexp.Node) BusAlias {
	a := BusAlias{}
	a.Name, _ = sexp.GetString(n, 1)
	if members, ok := sexp.FindNode(n, "members"); ok {
		for _, m := range members.Children[1:] {
			if m.IsLeaf() {
				a.Members = append(a.Members, m.Value)
			}
		}
	}
	return a
}
