package connectivity

import "sort"

// Net is every subgraph, across all sheet instances, that resolved to one
// net name.
type Net struct {
	name      string
	subgraphs []*Subgraph
}

func (n *Net) Name() string { return n.name }

// Subgraphs returns the per-sheet parts of the net, by id.
func (n *Net) Subgraphs() []*Subgraph {
	out := make([]*Subgraph, len(n.subgraphs))
	copy(out, n.subgraphs)
	return out
}

func (n *Net) Sheets() []SheetPath { return sheetsOf(n.subgraphs) }

// Connections returns the item connections of every part.
func (n *Net) Connections() []*Connection {
	var out []*Connection
	for _, sg := range n.subgraphs {
		out = append(out, sg.conns...)
	}
	return out
}

// Bus is a named vector or group with its member nets.
type Bus struct {
	name      string
	shape     Shape
	members   []*Connection
	subgraphs []*Subgraph
}

func (b *Bus) Name() string { return b.name }
func (b *Bus) Kind() Kind   { return b.shape.Kind() }
func (b *Bus) Shape() Shape { return b.shape }
func (b *Bus) Width() int   { return len(b.members) }

// Members returns the member nets in declaration order.
func (b *Bus) Members() []*Connection {
	out := make([]*Connection, len(b.members))
	copy(out, b.members)
	return out
}

// AllMembers is Members; nested vectors are flattened at expansion.
func (b *Bus) AllMembers() []*Connection { return b.Members() }

// Unresolved returns the members with no backing net subgraph.
func (b *Bus) Unresolved() []*Connection {
	var out []*Connection
	for _, m := range b.members {
		if !m.Resolved() {
			out = append(out, m)
		}
	}
	return out
}

func (b *Bus) Subgraphs() []*Subgraph {
	out := make([]*Subgraph, len(b.subgraphs))
	copy(out, b.subgraphs)
	return out
}

func (b *Bus) Sheets() []SheetPath { return sheetsOf(b.subgraphs) }

func sheetsOf(subgraphs []*Subgraph) []SheetPath {
	seen := make(map[string]bool)
	var out []SheetPath
	for _, sg := range subgraphs {
		if !seen[sg.sheet.Key()] {
			seen[sg.sheet.Key()] = true
			out = append(out, sg.sheet)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// views groups resolved subgraphs by name.
type views struct {
	nets     map[string]*Net
	netNames []string
	buses    map[string]*Bus
	busNames []string
}

func buildViews(subgraphs []*Subgraph) views {
	v := views{
		nets:  make(map[string]*Net),
		buses: make(map[string]*Bus),
	}
	for _, sg := range subgraphs {
		d := sg.Driver()
		if d == nil {
			continue
		}
		switch d.Kind() {
		case KindNet:
			n := v.nets[d.name]
			if n == nil {
				n = &Net{name: d.name}
				v.nets[d.name] = n
				v.netNames = append(v.netNames, d.name)
			}
			n.subgraphs = append(n.subgraphs, sg)
		case KindBusVector, KindBusGroup:
			b := v.buses[d.name]
			if b == nil {
				b = &Bus{name: d.name, shape: d.shape, members: sg.survivor.members}
				v.buses[d.name] = b
				v.busNames = append(v.busNames, d.name)
			}
			b.subgraphs = append(b.subgraphs, sg)
		}
	}
	sort.Strings(v.netNames)
	sort.Strings(v.busNames)
	return v
}
