package connectivity

import (
	"fmt"
	"sort"
	"strings"
)

// Priority ranks driver candidates. Lower values win; PriorityNone means
// the item cannot drive a name.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityPowerPin
	PriorityGlobal
	PriorityHierarchical
	PriorityLocal
	PriorityBusAlias
	PriorityPin
)

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "none"
	case PriorityPowerPin:
		return "power_pin"
	case PriorityGlobal:
		return "global"
	case PriorityHierarchical:
		return "hierarchical"
	case PriorityLocal:
		return "local"
	case PriorityBusAlias:
		return "bus_alias"
	case PriorityPin:
		return "pin"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

// Outranks reports whether p wins over q.
func (p Priority) Outranks(q Priority) bool {
	if p == PriorityNone {
		return false
	}
	return q == PriorityNone || p < q
}

// itemPriority maps an item kind to its driver priority.
func itemPriority(k ItemKind) Priority {
	switch k {
	case ItemPowerPin:
		return PriorityPowerPin
	case ItemGlobalLabel:
		return PriorityGlobal
	case ItemHierLabel, ItemSheetPin:
		return PriorityHierarchical
	case ItemLocalLabel:
		return PriorityLocal
	case ItemBus:
		return PriorityBusAlias
	case ItemPin:
		return PriorityPin
	}
	return PriorityNone
}

// Candidate is an item able to name its subgraph.
type Candidate struct {
	Item     Item
	Sheet    SheetPath
	Priority Priority
	// Name is the fully qualified name the candidate would give.
	Name string
	// Order is the enumeration position across the whole rebuild.
	Order int
	// Position is the candidate's top-left connection point.
	Position Point

	conn   *Connection
	part   *Subgraph
	label  Label
	prefix string
}

// globalScope reports whether the name is visible in every sheet.
func (c Candidate) globalScope() bool {
	return c.Priority == PriorityPowerPin || c.Priority == PriorityGlobal
}

// TieBreaker orders candidates of equal priority and sheet depth.
type TieBreaker interface {
	Name() string
	Less(a, b Candidate) bool
}

type tieBreakPolicy struct {
	name string
	less func(a, b Candidate) bool
}

func (p tieBreakPolicy) Name() string             { return p.name }
func (p tieBreakPolicy) Less(a, b Candidate) bool { return p.less(a, b) }

var (
	// CreationOrder prefers the item enumerated first, then the top-left one.
	CreationOrder TieBreaker = tieBreakPolicy{"creation-order", func(a, b Candidate) bool {
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return topLeft(a.Position, b.Position)
	}}

	// ByPosition prefers the top-left item, then the one enumerated first.
	ByPosition TieBreaker = tieBreakPolicy{"position", func(a, b Candidate) bool {
		if a.Position != b.Position {
			return topLeft(a.Position, b.Position)
		}
		return a.Order < b.Order
	}}

	// Lexical prefers the smallest name.
	Lexical TieBreaker = tieBreakPolicy{"lexical", func(a, b Candidate) bool {
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Order < b.Order
	}}
)

var tieBreakers = map[string]TieBreaker{
	CreationOrder.Name(): CreationOrder,
	ByPosition.Name():    ByPosition,
	Lexical.Name():       Lexical,
}

// TieBreakerByName returns a built-in policy.
func TieBreakerByName(name string) (TieBreaker, error) {
	tb, ok := tieBreakers[name]
	if !ok {
		return nil, fmt.Errorf("connectivity: unknown tie-break policy %q", name)
	}
	return tb, nil
}

func topLeft(a, b Point) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}

func anchorOf(pts []Point) Point {
	if len(pts) == 0 {
		return Point{}
	}
	best := pts[0]
	for _, p := range pts[1:] {
		if topLeft(p, best) {
			best = p
		}
	}
	return best
}

// outranks orders candidates for driver selection: priority, then sheet
// depth, then the tie-break policy.
func outranks(tb TieBreaker, a, b Candidate) bool {
	if a.Priority != b.Priority {
		return a.Priority.Outranks(b.Priority)
	}
	if da, db := a.Sheet.Depth(), b.Sheet.Depth(); da != db {
		return da < db
	}
	if tb.Less(a, b) {
		return true
	}
	if tb.Less(b, a) {
		return false
	}
	return a.Order < b.Order
}

// selectDriver returns the index of the winning candidate, or -1.
func selectDriver(tb TieBreaker, cands []Candidate) int {
	best := -1
	for i := range cands {
		if best < 0 || outranks(tb, cands[i], cands[best]) {
			best = i
		}
	}
	return best
}

// resolver is the driver selector for one rebuild.
type resolver struct {
	cfg     *Config
	tb      TieBreaker
	arena   *arena
	aliases map[string][]string
	sheets  map[string]SheetPath
	diags   []Diagnostic
}

func (r *resolver) parse(text string) Label {
	return expandAliases(ParseLabel(text), r.aliases)
}

// childSheet finds the instance a sheet pin leads into.
func (r *resolver) childSheet(parent SheetPath, id string) (SheetPath, bool) {
	child := parent.Child(id, "")
	if p, ok := r.sheets[child.Key()]; ok {
		return p, true
	}
	return child, false
}

func (r *resolver) autoName(pin PinItem) string {
	return fmt.Sprintf("%s(%s-Pad%s)", r.cfg.AutoNamePrefix, pin.Reference(), pin.Number())
}

// candidates collects the naming candidates of one subgraph part and
// counts its component pins.
func (r *resolver) candidates(sg *Subgraph) ([]Candidate, int) {
	var out []Candidate
	pins := 0
	sheetPrefix := sg.sheet.namePrefix(r.cfg.PrefixRootNames)

	for _, c := range sg.conns {
		s := r.arena.at(c.item)
		it := s.item
		prio := itemPriority(it.Kind())
		if prio == PriorityNone {
			continue
		}

		cand := Candidate{
			Item:     it,
			Sheet:    sg.sheet,
			Priority: prio,
			Order:    int(c.item.index),
			Position: anchorOf(it.Points()),
			conn:     c,
			part:     sg,
			prefix:   sheetPrefix,
		}
		text := strings.TrimSpace(it.Text())

		switch it.Kind() {
		case ItemPin:
			pins++
			pin, ok := it.(PinItem)
			if !ok || pin.Reference() == "" {
				continue
			}
			cand.label = NetLabel(r.autoName(pin))
		case ItemPowerPin:
			if text == "" {
				continue
			}
			cand.label = NetLabel(text)
			cand.prefix = ""
		case ItemBus:
			if _, ok := r.aliases[text]; !ok || text == "" {
				continue
			}
			cand.label = expandAliases(NetLabel(text), r.aliases)
		default:
			if text == "" {
				continue
			}
			cand.label = r.parse(text)
			if cand.label.Malformed {
				r.diags = append(r.diags, Diagnostic{
					Item:    it.ID(),
					Sheet:   sg.sheet.String(),
					Text:    text,
					Problem: cand.label.Problem,
				})
			}
			switch it.Kind() {
			case ItemGlobalLabel:
				cand.prefix = ""
			case ItemSheetPin:
				if sp, ok := it.(SheetPinItem); ok {
					child, _ := r.childSheet(sg.sheet, sp.ChildSheet())
					cand.prefix = child.namePrefix(true)
				}
			}
		}
		cand.Name = cand.prefix + cand.label.Name
		out = append(out, cand)
	}
	return out, pins
}

// resolveLocal selects and applies the driver of one part.
func (r *resolver) resolveLocal(sg *Subgraph) {
	cands, pins := r.candidates(sg)
	best := selectDriver(r.tb, cands)
	if best >= 0 && cands[best].Priority == PriorityPin && pins <= 1 {
		best = -1
	}
	sg.local = localDriver{candidates: cands, best: best, pins: pins}

	var driver *Candidate
	if best >= 0 {
		driver = &cands[best]
	}
	r.apply(sg, []*Subgraph{sg}, driver)
}

// apply names every connection of parts after driver. A nil driver leaves
// the parts unnamed.
func (r *resolver) apply(survivor *Subgraph, parts []*Subgraph, driver *Candidate) {
	survivor.driver = nil
	survivor.priority = PriorityNone
	if driver != nil {
		nameFrom(driver.conn, *driver)
		survivor.driver = driver.conn
		survivor.priority = driver.Priority
	}
	for _, p := range parts {
		for _, c := range p.conns {
			if driver != nil && c != driver.conn {
				c.assign(driver.conn)
			} else if driver == nil {
				c.shape = NoConnection{}
				c.name, c.localName, c.prefix = "", "", ""
				c.members = nil
				c.driver = Handle{}
			}
			c.subgraph = survivor.id
		}
	}
}

// nameFrom writes candidate cand's naming into c.
func nameFrom(c *Connection, cand Candidate) {
	c.shape = shapeOf(cand.label)
	c.localName = cand.label.Name
	c.prefix = cand.prefix
	c.name = cand.Name
	c.driver = c.item
	c.members = nil
}

// conflictOf checks the top-priority candidates of a resolved subgraph.
// Global names conflict whenever they differ; sheet-scoped names conflict
// when they differ within one sheet. Sheet pins carry the child's names
// and never conflict among themselves.
func conflictOf(survivor *Subgraph, cands []Candidate, driver *Candidate) *NamingConflict {
	if driver == nil || driver.Priority == PriorityPin || driver.Priority == PriorityNone {
		return nil
	}

	var top []Candidate
	for _, c := range cands {
		if c.Priority == driver.Priority {
			top = append(top, c)
		}
	}
	if len(top) < 2 {
		return nil
	}

	conflicting := make(map[string]bool)
	if driver.globalScope() {
		for _, c := range top {
			conflicting[c.Name] = true
		}
		if len(conflicting) < 2 {
			return nil
		}
	} else {
		bySheet := make(map[string]map[string]bool)
		for _, c := range top {
			if c.Item.Kind() == ItemSheetPin {
				continue
			}
			k := c.Sheet.Key()
			if bySheet[k] == nil {
				bySheet[k] = make(map[string]bool)
			}
			bySheet[k][c.Name] = true
		}
		for _, names := range bySheet {
			if len(names) < 2 {
				continue
			}
			for n := range names {
				conflicting[n] = true
			}
		}
		if len(conflicting) == 0 {
			return nil
		}
	}

	nc := &NamingConflict{
		Subgraph: survivor.id,
		Priority: driver.Priority,
		Chosen:   driver.Name,
	}
	sheets := make(map[string]bool)
	for _, c := range top {
		if !conflicting[c.Name] {
			continue
		}
		nc.Items = append(nc.Items, c.Item.ID())
		if !sheets[c.Sheet.String()] {
			sheets[c.Sheet.String()] = true
			nc.Sheets = append(nc.Sheets, c.Sheet.String())
		}
	}
	for n := range conflicting {
		nc.Names = append(nc.Names, n)
	}
	sort.Strings(nc.Names)
	sort.Strings(nc.Sheets)
	return nc
}
