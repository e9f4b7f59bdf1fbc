package connectivity

import (
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func rebuilt(t *testing.T, src Source, opts ...Option) *Graph {
	t.Helper()
	g, err := New(src, nil, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := g.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return g
}

func nameOf(t *testing.T, g *Graph, id string, sheet SheetPath) string {
	t.Helper()
	c, err := g.GetConnection(ItemID(id), sheet)
	if err != nil {
		t.Fatalf("GetConnection(%s): %v", id, err)
	}
	return c.Name()
}

func TestPriorityOutranks(t *testing.T) {
	order := []Priority{PriorityPowerPin, PriorityGlobal, PriorityHierarchical, PriorityLocal, PriorityBusAlias, PriorityPin}
	for i := range order {
		for j := range order {
			if got := order[i].Outranks(order[j]); got != (i < j) {
				t.Errorf("%s outranks %s: expected %v, got %v", order[i], order[j], i < j, got)
			}
		}
		if !order[i].Outranks(PriorityNone) {
			t.Errorf("%s should outrank none", order[i])
		}
		if PriorityNone.Outranks(order[i]) {
			t.Errorf("none should not outrank %s", order[i])
		}
	}
}

func TestPriorityMonotonicity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	for _, tb := range []TieBreaker{CreationOrder, ByPosition, Lexical} {
		properties.Property(tb.Name()+": best priority always wins", prop.ForAll(
			func(prios []int, shift int) bool {
				if len(prios) == 0 {
					return selectDriver(tb, nil) == -1
				}
				cands := make([]Candidate, len(prios))
				best := PriorityPin
				for i, p := range prios {
					cands[i] = Candidate{
						Priority: Priority(p),
						Order:    (i + shift) % len(prios),
						Name:     fmt.Sprintf("N%d", (i*7+shift)%len(prios)),
						Position: Point{X: float64((i * 3) % 5), Y: float64((i + shift) % 4)},
					}
					if Priority(p) < best {
						best = Priority(p)
					}
				}
				return cands[selectDriver(tb, cands)].Priority == best
			},
			gen.SliceOf(gen.IntRange(int(PriorityPowerPin), int(PriorityPin))),
			gen.IntRange(0, 100),
		))
	}

	properties.TestingRun(t)
}

func TestTieBreakPolicies(t *testing.T) {
	first := Candidate{Priority: PriorityLocal, Name: "ZETA", Order: 1, Position: Point{X: 50, Y: 50}}
	second := Candidate{Priority: PriorityLocal, Name: "ALPHA", Order: 2, Position: Point{X: 10, Y: 10}}
	cands := []Candidate{second, first}

	tests := []struct {
		tb   TieBreaker
		want string
	}{
		{CreationOrder, "ZETA"},
		{ByPosition, "ALPHA"},
		{Lexical, "ALPHA"},
	}
	for _, tt := range tests {
		got := cands[selectDriver(tt.tb, cands)].Name
		if got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.tb.Name(), tt.want, got)
		}
	}
}

func TestTieBreakerByName(t *testing.T) {
	for _, name := range []string{"creation-order", "position", "lexical"} {
		tb, err := TieBreakerByName(name)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
			continue
		}
		if tb.Name() != name {
			t.Errorf("expected %s, got %s", name, tb.Name())
		}
	}
	if _, err := TieBreakerByName("random"); err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestDriverPriorityOverLabels(t *testing.T) {
	src := NewMemorySource()
	root := RootSheet()
	src.Add(root,
		wire("w", 0, 0, 30, 0),
		local("l", "LOCAL", 5, 0),
		global("g", "GLOBAL", 10, 0),
		powerPin("p", "+3V3", 30, 0),
	)
	g := rebuilt(t, src)

	if got := nameOf(t, g, "w", root); got != "+3V3" {
		t.Errorf("expected power pin to drive, got %q", got)
	}
	sg, err := g.GetSubgraphFor("l", root)
	if err != nil {
		t.Fatal(err)
	}
	if sg.DriverPriority() != PriorityPowerPin {
		t.Errorf("expected power pin priority, got %s", sg.DriverPriority())
	}
}

func TestAutoNamedNet(t *testing.T) {
	src := NewMemorySource()
	root := RootSheet()
	src.Add(root,
		wire("w", 0, 0, 10, 0),
		pin("r1", "R1", "2", 0, 0),
		pin("c1", "C1", "1", 10, 0),
		wire("dangling", 50, 0, 60, 0),
		pin("r2", "R2", "1", 50, 0),
	)
	g := rebuilt(t, src)

	if got := nameOf(t, g, "w", root); got != "Net-(R1-Pad2)" {
		t.Errorf("expected auto name from first pin, got %q", got)
	}

	c, err := g.GetConnection("dangling", root)
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind() != KindNone {
		t.Errorf("single pin subgraph should be none, got %s", c.Kind())
	}
	if c.Name() != "" {
		t.Errorf("single pin subgraph should be unnamed, got %q", c.Name())
	}
}

func TestSheetScopedNames(t *testing.T) {
	src := NewMemorySource()
	child := RootSheet().Child("c1", "power")
	src.Add(RootSheet(), wire("rw", 0, 0, 10, 0), local("rl", "EN", 0, 0))
	src.Add(child, wire("cw", 0, 0, 10, 0), local("cl", "EN", 0, 0))
	g := rebuilt(t, src)

	if got := nameOf(t, g, "rw", RootSheet()); got != "EN" {
		t.Errorf("expected unprefixed root name, got %q", got)
	}
	if got := nameOf(t, g, "cw", child); got != "/power/EN" {
		t.Errorf("expected sheet prefix, got %q", got)
	}
	c, _ := g.GetConnection("cw", child)
	if c.LocalName() != "EN" {
		t.Errorf("expected local name EN, got %q", c.LocalName())
	}
	if c.SheetPrefix() != "/power/" {
		t.Errorf("expected prefix /power/, got %q", c.SheetPrefix())
	}
}

func TestLocalLabelConflict(t *testing.T) {
	src := NewMemorySource()
	src.Add(RootSheet(),
		wire("w", 0, 0, 10, 0),
		local("a", "SDA", 0, 0),
		local("b", "SCL", 10, 0),
	)
	g := rebuilt(t, src)

	report, err := g.Report()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Conflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(report.Conflicts))
	}
	c := report.Conflicts[0]
	if c.Chosen != "SDA" {
		t.Errorf("expected first label chosen, got %q", c.Chosen)
	}
	if len(c.Names) != 2 || c.Names[0] != "SCL" || c.Names[1] != "SDA" {
		t.Errorf("expected sorted names [SCL SDA], got %v", c.Names)
	}
}

func TestSameNameLabelsDoNotConflict(t *testing.T) {
	src := NewMemorySource()
	src.Add(RootSheet(),
		wire("w", 0, 0, 10, 0),
		local("a", "SDA", 0, 0),
		local("b", "SDA", 10, 0),
	)
	g := rebuilt(t, src)
	report, _ := g.Report()
	if len(report.Conflicts) != 0 {
		t.Errorf("expected no conflicts, got %v", report.Conflicts)
	}
}

func TestWithTieBreakerOption(t *testing.T) {
	src := NewMemorySource()
	src.Add(RootSheet(),
		wire("w", 0, 0, 10, 0),
		local("a", "ZETA", 10, 0),
		local("b", "ALPHA", 0, 0),
	)
	g := rebuilt(t, src, WithTieBreaker(Lexical))
	if got := nameOf(t, g, "w", RootSheet()); got != "ALPHA" {
		t.Errorf("expected lexical winner ALPHA, got %q", got)
	}
}

func TestMalformedLabelDiagnostic(t *testing.T) {
	src := NewMemorySource()
	src.Add(RootSheet(), wire("w", 0, 0, 10, 0), local("l", "D[0..", 0, 0))
	g := rebuilt(t, src)

	if got := nameOf(t, g, "w", RootSheet()); got != "D[0.." {
		t.Errorf("expected literal name, got %q", got)
	}
	report, _ := g.Report()
	if len(report.Diagnostics) != 1 || report.Diagnostics[0].Item != "l" {
		t.Errorf("expected one diagnostic for l, got %v", report.Diagnostics)
	}
}
