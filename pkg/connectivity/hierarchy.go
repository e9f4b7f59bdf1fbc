package connectivity

import (
	"sort"
	"strings"
)

// propagator merges subgraphs across sheet boundaries. Subgraph ids are
// dense, so the union-find runs on id-1.
type propagator struct {
	r         *resolver
	subgraphs []*Subgraph
	uf        *unionFind

	pending []pendingUnconnected
}

type pendingUnconnected struct {
	entry UnconnectedItem
	sg    *Subgraph
}

func newPropagator(r *resolver, subgraphs []*Subgraph) *propagator {
	return &propagator{
		r:         r,
		subgraphs: subgraphs,
		uf:        newUnionFind(len(subgraphs)),
	}
}

func (p *propagator) union(a, b *Subgraph) {
	p.uf.union(int(a.id)-1, int(b.id)-1)
}

// linkGlobals unions every subgraph carrying a global label or power pin
// with every other subgraph carrying the same name.
func (p *propagator) linkGlobals() {
	first := make(map[string]*Subgraph)
	for _, sg := range p.subgraphs {
		for _, c := range sg.local.candidates {
			if !c.globalScope() {
				continue
			}
			if prev, ok := first[c.Name]; ok {
				p.union(prev, sg)
				continue
			}
			first[c.Name] = sg
		}
	}
}

func hierKey(text string, r *resolver) string {
	return strings.ToLower(FormatLabel(r.parse(text)))
}

// linkSheetPins pairs each sheet pin with the hierarchical labels of the
// same name in the child instance it leads into.
func (p *propagator) linkSheetPins() {
	type hierRef struct {
		sg   *Subgraph
		conn *Connection
		text string
	}
	labels := make(map[string]map[string][]hierRef)
	for _, sg := range p.subgraphs {
		for _, c := range sg.conns {
			it := p.r.arena.at(c.item).item
			if it.Kind() != ItemHierLabel || strings.TrimSpace(it.Text()) == "" {
				continue
			}
			k := sg.sheet.Key()
			if labels[k] == nil {
				labels[k] = make(map[string][]hierRef)
			}
			key := hierKey(it.Text(), p.r)
			labels[k][key] = append(labels[k][key], hierRef{sg: sg, conn: c, text: it.Text()})
		}
	}

	matched := make(map[string]map[string]bool)
	for _, sg := range p.subgraphs {
		for _, c := range sg.conns {
			it := p.r.arena.at(c.item).item
			if it.Kind() != ItemSheetPin {
				continue
			}
			sp, ok := it.(SheetPinItem)
			if !ok {
				continue
			}
			child, found := p.r.childSheet(sg.sheet, sp.ChildSheet())
			key := hierKey(it.Text(), p.r)
			refs := labels[child.Key()][key]
			if !found || len(refs) == 0 {
				p.pending = append(p.pending, pendingUnconnected{
					entry: UnconnectedItem{
						Item:     it.ID(),
						ItemKind: ItemSheetPin,
						Text:     it.Text(),
						Scope:    child.String(),
						Kind:     KindNone,
					},
					sg: sg,
				})
				continue
			}
			for _, ref := range refs {
				p.union(sg, ref.sg)
			}
			if matched[child.Key()] == nil {
				matched[child.Key()] = make(map[string]bool)
			}
			matched[child.Key()][key] = true
		}
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == RootSheet().Key() {
			continue
		}
		for key, refs := range labels[k] {
			if matched[k][key] {
				continue
			}
			for _, ref := range refs {
				p.pending = append(p.pending, pendingUnconnected{
					entry: UnconnectedItem{
						Item:     ref.conn.id,
						ItemKind: ItemHierLabel,
						Text:     ref.text,
						Scope:    ref.sg.sheet.String(),
						Kind:     KindNone,
					},
					sg: ref.sg,
				})
			}
		}
	}
}

// linkBusMembers merges the member nets of bus subgraphs that were merged
// with each other, position by position.
func (p *propagator) linkBusMembers() {
	groups := p.uf.groups()
	for _, g := range groups {
		var base []memberLink
		for _, i := range g {
			exp := p.subgraphs[i].local.expansion
			if len(exp) == 0 {
				continue
			}
			if base == nil {
				base = exp
				continue
			}
			if len(exp) != len(base) {
				continue
			}
			for k := range exp {
				if exp[k].backing != 0 && base[k].backing != 0 {
					p.uf.union(int(exp[k].backing)-1, int(base[k].backing)-1)
				}
			}
		}
	}
}

// merge links survivors to absorbed subgraphs and returns the number of
// subgraphs absorbed.
func (p *propagator) merge() int {
	merged := 0
	for _, sg := range p.subgraphs {
		sg.survivor = sg
		sg.absorbed = nil
	}
	for _, g := range p.uf.groups() {
		survivor := p.subgraphs[g[0]]
		for _, i := range g[1:] {
			sg := p.subgraphs[i]
			sg.survivor = survivor
			survivor.absorbed = append(survivor.absorbed, sg)
			merged++
		}
	}
	return merged
}

// run performs all cross-sheet links and returns the merge count.
func (p *propagator) run() int {
	p.linkGlobals()
	p.linkSheetPins()
	p.linkBusMembers()
	return p.merge()
}

// unconnected reports hierarchy items without a counterpart, keyed to
// their surviving subgraph.
func (p *propagator) unconnected() []UnconnectedItem {
	out := make([]UnconnectedItem, 0, len(p.pending))
	for _, u := range p.pending {
		e := u.entry
		e.Subgraph = u.sg.survivor.id
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].Item < out[j].Item
	})
	return out
}

// resolveMerged re-selects the driver of every survivor over the
// candidates of all its parts and returns the naming conflicts.
func (p *propagator) resolveMerged(e *busExpander) []NamingConflict {
	var conflicts []NamingConflict
	for _, sg := range p.subgraphs {
		if !sg.IsSurvivor() {
			continue
		}
		parts := sg.Parts()
		cands := sg.local.candidates
		best := sg.local.best
		if len(parts) > 1 {
			cands = nil
			pins := 0
			for _, part := range parts {
				cands = append(cands, part.local.candidates...)
				pins += part.local.pins
			}
			best = selectDriver(p.r.tb, cands)
			if best >= 0 && cands[best].Priority == PriorityPin && pins <= 1 {
				best = -1
			}
		}

		var driver *Candidate
		if best >= 0 {
			driver = &cands[best]
		}
		if len(parts) > 1 {
			p.r.apply(sg, parts, driver)
		}
		e.expand(sg, driver)
		if nc := conflictOf(sg, cands, driver); nc != nil {
			conflicts = append(conflicts, *nc)
		}
	}
	return conflicts
}
