// Package schematic loads the connectivity-relevant parts of KiCad
// schematic files (.kicad_sch) and whole sheet hierarchies.
package schematic

import (
	"sort"

	"github.com/OpenTraceLab/schnet/pkg/kicad/sexp"
)

type Position = sexp.Position

// Schematic is one .kicad_sch file.
type Schematic struct {
	Version   int
	Generator string
	UUID      string

	// LibSymbols holds the embedded library symbols by name.
	LibSymbols map[string]*LibSymbol

	Symbols    []Symbol
	Wires      []Line
	Buses      []Line
	BusEntries []BusEntry
	Junctions  []Marker
	NoConnects []Marker
	Labels     []Label
	Sheets     []Sheet
	BusAliases []BusAlias

	// SymbolInstances is the KiCad 6 reference table of a root file,
	// keyed by "/<sheet uuid>.../<symbol uuid>".
	SymbolInstances map[string]string
}

// LibSymbol is an embedded library symbol definition.
type LibSymbol struct {
	Name string
	// Power symbols name their net after their value.
	Power bool
	Pins  []LibPin
}

// LibPin is a pin of a library symbol in symbol coordinates (Y up).
type LibPin struct {
	Name   string
	Number string
	Type   string
	At     sexp.PositionAngle
	Length float64
	Hidden bool
	// Unit 0 is shared by all units.
	Unit int
	// BodyStyle 0 is shared by all body styles.
	BodyStyle int
}

// Symbol is a placed symbol instance.
type Symbol struct {
	LibID     string
	LibName   string
	UUID      string
	At        sexp.PositionAngle
	Mirror    string
	Unit      int
	BodyStyle int
	Reference string
	Value     string
	// References per KiCad instance path ("/root-uuid/sheet-uuid").
	References map[string]string
}

// Line is a wire or bus polyline.
type Line struct {
	UUID   string
	Points []Position
}

// BusEntry is a diagonal connector between a bus and a wire, from At to
// At+Size.
type BusEntry struct {
	UUID string
	At   Position
	Size Position
}

// End is the far end of the entry.
func (e BusEntry) End() Position {
	return Position{X: e.At.X + e.Size.X, Y: e.At.Y + e.Size.Y}
}

// Marker is a junction or a no-connect flag.
type Marker struct {
	UUID string
	At   Position
}

// LabelKind is the label scope.
type LabelKind int

const (
	LocalLabel LabelKind = iota
	GlobalLabel
	HierLabel
)

func (k LabelKind) String() string {
	switch k {
	case GlobalLabel:
		return "global_label"
	case HierLabel:
		return "hierarchical_label"
	}
	return "label"
}

type Label struct {
	Kind  LabelKind
	Text  string
	UUID  string
	At    sexp.PositionAngle
	Shape string
}

// Sheet is a hierarchical sheet symbol.
type Sheet struct {
	UUID string
	Name string
	File string
	At   Position
	Size Position
	Pins []SheetPin
}

type SheetPin struct {
	Name  string
	Shape string
	UUID  string
	At    sexp.PositionAngle
}

// BusAlias names a member list usable as a bus label.
type BusAlias struct {
	Name    string
	Members []string
}

// LibSymbol returns the library symbol of s, preferring its lib_name.
func (sch *Schematic) LibSymbol(s *Symbol) *LibSymbol {
	if s.LibName != "" {
		if ls, ok := sch.LibSymbols[s.LibName]; ok {
			return ls
		}
	}
	return sch.LibSymbols[s.LibID]
}

// UnitPins returns the pins of lib drawn for unit and body style.
func (ls *LibSymbol) UnitPins(unit, bodyStyle int) []LibPin {
	if unit == 0 {
		unit = 1
	}
	if bodyStyle == 0 {
		bodyStyle = 1
	}
	var out []LibPin
	for _, p := range ls.Pins {
		if p.Unit != 0 && p.Unit != unit {
			continue
		}
		if p.BodyStyle != 0 && p.BodyStyle != bodyStyle {
			continue
		}
		out = append(out, p)
	}
	return out
}

// GetSymbol returns a symbol by reference designator
func (sch *Schematic) GetSymbol(ref string) *Symbol {
	for i := range sch.Symbols {
		if sch.Symbols[i].Reference == ref {
			return &sch.Symbols[i]
		}
	}
	return nil
}

// GetAllReferences returns the sorted references of all placed symbols.
func (sch *Schematic) GetAllReferences() []string {
	refs := make([]string, 0, len(sch.Symbols))
	for _, s := range sch.Symbols {
		if s.Reference != "" {
			refs = append(refs, s.Reference)
		}
	}
	sort.Strings(refs)
	return refs
}

// GetLabels returns the labels of kind.
func (sch *Schematic) GetLabels(kind LabelKind) []Label {
	var out []Label
	for _, l := range sch.Labels {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}
