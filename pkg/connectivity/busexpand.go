package connectivity

// netIndex maps a sheet key and a local net name to the lowest net
// subgraph carrying that name in the sheet.
type netIndex map[string]map[string]SubgraphID

func buildNetIndex(subgraphs []*Subgraph) netIndex {
	idx := make(netIndex)
	for _, sg := range subgraphs {
		if sg.local.best < 0 {
			continue
		}
		l := sg.local.candidates[sg.local.best].label
		if l.Kind != KindNet {
			continue
		}
		k := sg.sheet.Key()
		names := idx[k]
		if names == nil {
			names = make(map[string]SubgraphID)
			idx[k] = names
		}
		if _, ok := names[l.Name]; !ok {
			names[l.Name] = sg.id
		}
	}
	return idx
}

func (idx netIndex) lookup(sheet SheetPath, local string) SubgraphID {
	return idx[sheet.Key()][local]
}

// expandLocal links the members of a bus part to the net subgraphs of its
// own sheet. Linking is by name only; subgraphs are not merged.
func expandLocal(sg *Subgraph, idx netIndex) {
	sg.local.expansion = nil
	if sg.local.best < 0 {
		return
	}
	l := sg.local.candidates[sg.local.best].label
	if !l.IsBus() {
		return
	}
	members := l.AllMembers()
	links := make([]memberLink, len(members))
	for i, m := range members {
		links[i] = memberLink{label: m, backing: idx.lookup(sg.sheet, m.Name)}
	}
	sg.local.expansion = links
}

// busExpander materialises member connections for resolved bus subgraphs.
type busExpander struct {
	byID       func(SubgraphID) *Subgraph
	nextCode   int
	unresolved []UnresolvedBusMember
}

// expand creates the shared member slice of survivor from its driver.
// Member positions take their backing from the driver's own part first,
// then from any merged part of the same width.
func (e *busExpander) expand(survivor *Subgraph, driver *Candidate) {
	survivor.members = nil
	if driver == nil || !driver.label.IsBus() {
		return
	}
	e.nextCode++
	code := e.nextCode

	labels := driver.label.AllMembers()
	parts := survivor.Parts()
	owner := driver.part
	ordered := make([]*Subgraph, 0, len(parts))
	if owner != nil {
		ordered = append(ordered, owner)
	}
	for _, p := range parts {
		if p != owner {
			ordered = append(ordered, p)
		}
	}

	members := make([]*Connection, len(labels))
	for i, ml := range labels {
		m := &Connection{
			item:      Handle{},
			id:        driver.conn.id,
			sheet:     driver.Sheet,
			shape:     NetShape{},
			name:      driver.prefix + ml.Name,
			localName: ml.Name,
			prefix:    driver.prefix,
			index:     ml.Index,
			busCode:   code,
			driver:    driver.conn.item,
		}
		for _, p := range ordered {
			exp := p.local.expansion
			if len(exp) != len(labels) || exp[i].backing == 0 {
				continue
			}
			m.subgraph = e.byID(exp[i].backing).survivor.id
			break
		}
		if m.subgraph == 0 {
			e.unresolved = append(e.unresolved, UnresolvedBusMember{
				Bus:      driver.Name,
				Member:   m.name,
				Index:    i,
				Subgraph: survivor.id,
				Sheet:    driver.Sheet.String(),
			})
		}
		members[i] = m
	}

	survivor.members = members
	for _, p := range parts {
		for _, c := range p.conns {
			if c.IsBus() {
				c.members = members
				c.busCode = code
			}
		}
	}
}
