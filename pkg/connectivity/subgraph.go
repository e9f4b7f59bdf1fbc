package connectivity

import (
	"fmt"
	"sort"
)

// SubgraphID identifies a subgraph within one rebuild. Ids start at 1 and
// are assigned in sheet order, then by first item.
type SubgraphID uint32

// Subgraph is a set of graphically connected items in one sheet instance.
//
// After hierarchical propagation a subgraph may have been merged into
// another one. The surviving subgraph carries the resolved driver for all
// of its parts; naming methods on an absorbed subgraph report the
// survivor's values.
type Subgraph struct {
	id    SubgraphID
	sheet SheetPath
	conns []*Connection

	// Bus subgraphs this subgraph enters through bus entries.
	busLinks  []SubgraphID
	noConnect bool
	dirty     bool

	// Resolution before merging.
	local localDriver

	driver   *Connection
	priority Priority
	members  []*Connection

	survivor *Subgraph
	absorbed []*Subgraph
}

// localDriver is the per-sheet resolution, kept for bus expansion and for
// re-selecting a driver when subgraphs merge.
type localDriver struct {
	candidates []Candidate
	best       int
	pins       int
	expansion  []memberLink
}

type memberLink struct {
	label   Label
	backing SubgraphID
}

func newSubgraph(id SubgraphID, sheet SheetPath) *Subgraph {
	sg := &Subgraph{id: id, sheet: sheet, local: localDriver{best: -1}}
	sg.survivor = sg
	return sg
}

func (sg *Subgraph) ID() SubgraphID   { return sg.id }
func (sg *Subgraph) Sheet() SheetPath { return sg.sheet }

// Connections returns the item connections of this part only, in
// enumeration order.
func (sg *Subgraph) Connections() []*Connection {
	out := make([]*Connection, len(sg.conns))
	copy(out, sg.conns)
	return out
}

// Items returns the ids of the items in this part.
func (sg *Subgraph) Items() []ItemID {
	out := make([]ItemID, len(sg.conns))
	for i, c := range sg.conns {
		out[i] = c.id
	}
	return out
}

// Survivor returns the subgraph this one was merged into, or sg itself.
func (sg *Subgraph) Survivor() *Subgraph { return sg.survivor }

func (sg *Subgraph) IsSurvivor() bool { return sg.survivor == sg }

// Absorbed returns the subgraphs merged into a survivor, by id.
func (sg *Subgraph) Absorbed() []*Subgraph {
	out := make([]*Subgraph, len(sg.survivor.absorbed))
	copy(out, sg.survivor.absorbed)
	return out
}

// Parts returns the survivor followed by every absorbed subgraph.
func (sg *Subgraph) Parts() []*Subgraph {
	s := sg.survivor
	out := make([]*Subgraph, 0, len(s.absorbed)+1)
	out = append(out, s)
	return append(out, s.absorbed...)
}

// Sheets lists the sheet instances spanned by the merged subgraph.
func (sg *Subgraph) Sheets() []SheetPath {
	seen := make(map[string]bool)
	var out []SheetPath
	for _, p := range sg.Parts() {
		if !seen[p.sheet.Key()] {
			seen[p.sheet.Key()] = true
			out = append(out, p.sheet)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Driver returns the connection of the naming item, or nil.
func (sg *Subgraph) Driver() *Connection { return sg.survivor.driver }

// DriverPriority is PriorityNone when there is no driver.
func (sg *Subgraph) DriverPriority() Priority { return sg.survivor.priority }

func (sg *Subgraph) Kind() Kind {
	if d := sg.Driver(); d != nil {
		return d.Kind()
	}
	return KindNone
}

func (sg *Subgraph) Name() string {
	if d := sg.Driver(); d != nil {
		return d.Name()
	}
	return ""
}

// Members returns the bus members of a bus subgraph.
func (sg *Subgraph) Members() []*Connection {
	m := sg.survivor.members
	out := make([]*Connection, len(m))
	copy(out, m)
	return out
}

// BusLinks lists the bus subgraphs reached through bus entries.
func (sg *Subgraph) BusLinks() []SubgraphID {
	out := make([]SubgraphID, len(sg.busLinks))
	copy(out, sg.busLinks)
	return out
}

// HasNoConnect reports whether a no-connect marker sits on this part.
func (sg *Subgraph) HasNoConnect() bool { return sg.noConnect }

// IsDirty reports whether the part was re-clustered by the last rebuild.
func (sg *Subgraph) IsDirty() bool { return sg.dirty }

func (sg *Subgraph) String() string {
	name := sg.Name()
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("subgraph %d %s %s (%d items)", sg.id, sg.sheet, name, len(sg.conns))
}
