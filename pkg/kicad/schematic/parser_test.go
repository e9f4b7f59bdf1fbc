package schematic

import (
	"strings"
	"testing"
)

func TestParseMinimalSchematic(t *testing.T) {
	input := `(kicad_sch
		(version 20250114)
		(generator "eeschema")
		(generator_version "9.0")
		(uuid 862335ee-c981-4fe1-9eb9-84db19301dd4)
		(paper "A4")
		(lib_symbols)
		(sheet_instances
			(path "/"
				(page "1")
			)
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if sch.Version != 20250114 {
		t.Errorf("Expected version 20250114, got %d", sch.Version)
	}

	if sch.Generator != "eeschema" {
		t.Errorf("Expected generator 'eeschema', got '%s'", sch.Generator)
	}

	if sch.UUID != "862335ee-c981-4fe1-9eb9-84db19301dd4" {
		t.Errorf("Expected root uuid, got '%s'", sch.UUID)
	}
}

func TestParseRejectsOldVersion(t *testing.T) {
	_, err := Parse(strings.NewReader(`(kicad_sch (version 20200310) (generator eeschema))`))
	if err == nil || !strings.Contains(err.Error(), "unsupported KiCad version") {
		t.Errorf("Expected unsupported version error, got %v", err)
	}

	_, err = Parse(strings.NewReader(`(kicad_sch (generator eeschema))`))
	if err == nil || !strings.Contains(err.Error(), "missing required 'version'") {
		t.Errorf("Expected missing version error, got %v", err)
	}
}

func TestParseSchematicWithSymbol(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(uuid test-uuid)
		(paper "A4")
		(lib_symbols
			(symbol "Device:R"
				(property "Reference" "R" (at 0 0 0))
				(property "Value" "R" (at 0 0 0))
				(symbol "R_1_1"
					(pin passive line (at -2.54 0 0) (length 2.54)
						(name "1")
						(number "1")
					)
					(pin passive line (at 2.54 0 180) (length 2.54)
						(name "2")
						(number "2")
					)
				)
			)
		)
		(symbol (lib_id "Device:R")
			(at 100 50 90)
			(mirror y)
			(unit 1)
			(uuid sym-uuid-1)
			(property "Reference" "R1" (at 100 45 0))
			(property "Value" "10k" (at 100 55 0))
			(instances
				(project "demo"
					(path "/test-uuid" (reference "R7") (unit 1))
				)
			)
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if len(sch.LibSymbols) != 1 {
		t.Errorf("Expected 1 lib symbol, got %d", len(sch.LibSymbols))
	}

	if len(sch.Symbols) != 1 {
		t.Fatalf("Expected 1 symbol instance, got %d", len(sch.Symbols))
	}

	s := &sch.Symbols[0]
	if s.LibID != "Device:R" {
		t.Errorf("Expected lib_id 'Device:R', got '%s'", s.LibID)
	}
	if s.At.Angle != 90 || s.Mirror != "y" {
		t.Errorf("Expected angle 90 mirrored y, got %v %q", s.At.Angle, s.Mirror)
	}
	if s.Value != "10k" {
		t.Errorf("Expected value '10k', got '%s'", s.Value)
	}
	if s.References["/test-uuid"] != "R7" {
		t.Errorf("Expected instance reference R7, got %v", s.References)
	}

	ls := sch.LibSymbol(s)
	if ls == nil {
		t.Fatal("LibSymbol returned nil")
	}
	pins := ls.UnitPins(1, 1)
	if len(pins) != 2 {
		t.Fatalf("Expected 2 pins, got %d", len(pins))
	}
	if pins[0].Number != "1" || pins[0].Type != "passive" || pins[0].Length != 2.54 {
		t.Errorf("Unexpected first pin %+v", pins[0])
	}

	// Test GetSymbol helper
	r1 := sch.GetSymbol("R1")
	if r1 == nil {
		t.Error("GetSymbol('R1') returned nil")
	}

	// Test GetAllReferences
	refs := sch.GetAllReferences()
	if len(refs) != 1 || refs[0] != "R1" {
		t.Errorf("Expected refs ['R1'], got %v", refs)
	}
}

func TestParseUnitsAndBodyStyles(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(lib_symbols
			(symbol "74xx:74LS00"
				(symbol "74LS00_1_1"
					(pin input line (at -7.62 2.54 0) (length 7.62) (name "~") (number "1"))
				)
				(symbol "74LS00_2_1"
					(pin input line (at -7.62 2.54 0) (length 7.62) (name "~") (number "4"))
				)
				(symbol "74LS00_2_2"
					(pin input line (at -7.62 2.54 0) (length 7.62) (name "~") (number "4b"))
				)
				(symbol "74LS00_0_1"
					(pin power_in line (at 0 12.7 270) (length 5.08) hide (name "VCC") (number "14"))
				)
			)
			(symbol "power:+5V"
				(power)
				(symbol "+5V_0_1"
					(pin power_in line (at 0 0 90) (length 0) (hide yes) (name "+5V") (number "1"))
				)
			)
		)
		(symbol (lib_id "74xx:74LS00") (at 50 50 0) (unit 2) (convert 1) (uuid u1b))
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	gate := sch.LibSymbols["74xx:74LS00"]
	if gate == nil || gate.Power {
		t.Fatalf("Expected non-power 74LS00, got %+v", gate)
	}
	var numbers []string
	for _, p := range gate.UnitPins(sch.Symbols[0].Unit, sch.Symbols[0].BodyStyle) {
		numbers = append(numbers, p.Number)
	}
	if strings.Join(numbers, ",") != "4,14" {
		t.Errorf("Expected unit 2 pins [4 14], got %v", numbers)
	}
	if pins := gate.UnitPins(2, 2); len(pins) != 1 || pins[0].Number != "4b" {
		t.Errorf("Expected body style 2 pin 4b, got %v", pins)
	}

	vcc := gate.UnitPins(1, 1)[1]
	if !vcc.Hidden || vcc.Type != "power_in" {
		t.Errorf("Expected hidden power_in VCC, got %+v", vcc)
	}

	pwr := sch.LibSymbols["power:+5V"]
	if pwr == nil || !pwr.Power {
		t.Fatal("Expected +5V to be a power symbol")
	}
	if !pwr.Pins[0].Hidden {
		t.Error("Expected (hide yes) to mark the pin hidden")
	}
}

func TestParseSchematicWithWires(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(uuid test-uuid)
		(paper "A4")
		(lib_symbols)
		(wire (pts (xy 100 50) (xy 150 50))
			(stroke (width 0) (type default))
			(uuid wire-1)
		)
		(wire (pts (xy 150 50) (xy 150 100))
			(stroke (width 0) (type default))
			(uuid wire-2)
		)
		(bus (pts (xy 0 0) (xy 0 50)) (uuid bus-1))
		(bus_entry (at 0 10) (size 2.5 2.5) (uuid entry-1))
		(junction (at 150 50) (diameter 0) (color 0 0 0 0)
			(uuid junc-1)
		)
		(no_connect (at 150 100) (uuid nc-1))
		(bus_alias "MEM" (members "A0" "A1" "D[0..7]"))
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	if len(sch.Wires) != 2 {
		t.Errorf("Expected 2 wires, got %d", len(sch.Wires))
	}
	if len(sch.Buses) != 1 || len(sch.Buses[0].Points) != 2 {
		t.Errorf("Expected 1 two-point bus, got %v", sch.Buses)
	}

	if len(sch.Junctions) != 1 {
		t.Errorf("Expected 1 junction, got %d", len(sch.Junctions))
	}
	if len(sch.NoConnects) != 1 || sch.NoConnects[0].UUID != "nc-1" {
		t.Errorf("Expected no_connect nc-1, got %v", sch.NoConnects)
	}

	if len(sch.BusEntries) != 1 {
		t.Fatalf("Expected 1 bus entry, got %d", len(sch.BusEntries))
	}
	if end := sch.BusEntries[0].End(); end != (Position{X: 2.5, Y: 12.5}) {
		t.Errorf("Expected entry end (2.5, 12.5), got %v", end)
	}

	if len(sch.BusAliases) != 1 || strings.Join(sch.BusAliases[0].Members, " ") != "A0 A1 D[0..7]" {
		t.Errorf("Unexpected bus aliases %v", sch.BusAliases)
	}
}

func TestParseSchematicWithLabels(t *testing.T) {
	input := `(kicad_sch
		(version 20231120)
		(generator "eeschema")
		(uuid test-uuid)
		(paper "A4")
		(lib_symbols)
		(label "VCC" (at 100 50 0)
			(effects (font (size 1.27 1.27)))
			(uuid label-1)
		)
		(global_label "GND" (shape input) (at 100 100 0)
			(effects (font (size 1.27 1.27)))
			(uuid glabel-1)
		)
		(hierarchical_label "D[0..3]" (shape bidirectional) (at 10 20 180)
			(uuid hlabel-1)
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}

	locals := sch.GetLabels(LocalLabel)
	if len(locals) != 1 {
		t.Fatalf("Expected 1 label, got %d", len(locals))
	}
	if locals[0].Text != "VCC" {
		t.Errorf("Expected label text 'VCC', got '%s'", locals[0].Text)
	}

	globals := sch.GetLabels(GlobalLabel)
	if len(globals) != 1 {
		t.Fatalf("Expected 1 global label, got %d", len(globals))
	}
	if globals[0].Text != "GND" || globals[0].Shape != "input" {
		t.Errorf("Expected global label 'GND' input, got %+v", globals[0])
	}

	hier := sch.GetLabels(HierLabel)
	if len(hier) != 1 || hier[0].Text != "D[0..3]" || hier[0].At.Angle != 180 {
		t.Errorf("Unexpected hierarchical labels %+v", hier)
	}

	if len(sch.Labels) != 3 {
		t.Errorf("Expected 3 total labels, got %d", len(sch.Labels))
	}
}

func TestParseSheet(t *testing.T) {
	input := `(kicad_sch
		(version 20211123)
		(generator eeschema)
		(sheet (at 120 40) (size 20 15)
			(uuid 5a1b3c4d-0000-4000-8000-000000000001)
			(property "Sheet name" "power" (id 0) (at 120 39 0))
			(property "Sheet file" "power.kicad_sch" (id 1) (at 120 56 0))
			(pin "EN" input (at 120 45 180) (uuid pin-1))
			(pin "D[0..1]" bidirectional (at 140 45 0) (uuid pin-2))
		)
		(symbol_instances
			(path "/5e00" (reference "R1") (unit 1))
		)
	)`

	sch, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to parse schematic: %v", err)
	}
	if len(sch.Sheets) != 1 {
		t.Fatalf("Expected 1 sheet, got %d", len(sch.Sheets))
	}
	sh := sch.Sheets[0]
	if sh.Name != "power" || sh.File != "power.kicad_sch" {
		t.Errorf("Expected KiCad 6 sheet fields, got %q %q", sh.Name, sh.File)
	}
	if sh.Size != (Position{X: 20, Y: 15}) {
		t.Errorf("Expected size 20x15, got %v", sh.Size)
	}
	if len(sh.Pins) != 2 || sh.Pins[1].Name != "D[0..1]" || sh.Pins[1].Shape != "bidirectional" {
		t.Errorf("Unexpected sheet pins %+v", sh.Pins)
	}
	if sch.SymbolInstances["/5e00"] != "R1" {
		t.Errorf("Expected legacy reference table, got %v", sch.SymbolInstances)
	}
}

func TestParseSheetWithoutFile(t *testing.T) {
	input := `(kicad_sch (version 20231120) (generator eeschema)
		(sheet (at 0 0) (size 10 10) (uuid s1) (property "Sheetname" "x")))`
	if _, err := Parse(strings.NewReader(input)); err == nil {
		t.Error("Expected error for sheet without file")
	}
}

func TestParseInvalidRoot(t *testing.T) {
	input := `(kicad_pcb (version 20231120))`

	_, err := Parse(strings.NewReader(input))
	if err == nil {
		t.Error("Expected error for wrong root node type")
	}
}

func TestParseFile(t *testing.T) {
	sch, err := ParseFile("testdata/root.kicad_sch")
	if err != nil {
		t.Fatalf("Failed to parse test file: %v", err)
	}

	if sch.Version == 0 {
		t.Error("Version should not be 0")
	}

	if len(sch.Symbols) != 2 || len(sch.Sheets) != 1 || len(sch.Wires) != 2 {
		t.Errorf("Unexpected contents: %d symbols, %d sheets, %d wires",
			len(sch.Symbols), len(sch.Sheets), len(sch.Wires))
	}

	if _, err := ParseFile("testdata/missing.kicad_sch"); err == nil {
		t.Error("Expected error for missing file")
	}
}
