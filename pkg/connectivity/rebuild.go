package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/OpenTraceLab/schnet/pkg/connectivity"

// snapshot is one resolved generation. It is never mutated after the
// rebuild that produced it returns.
type snapshot struct {
	gen       uint32
	arena     *arena
	sheets    []SheetPath
	subgraphs []*Subgraph
	conns     map[connKey]*Connection
	views
	report *RebuildReport
}

type connKey struct {
	sheet string
	id    ItemID
}

func (s *snapshot) subgraph(id SubgraphID) *Subgraph {
	if id == 0 || int(id) > len(s.subgraphs) {
		return nil
	}
	return s.subgraphs[id-1]
}

func (s *snapshot) connection(id ItemID, sheet SheetPath) (*Connection, error) {
	c, ok := s.conns[connKey{sheet: sheet.Key(), id: id}]
	if !ok {
		return nil, fmt.Errorf("connectivity: %s in %s: %w", id, sheet, ErrItemNotFound)
	}
	return c, nil
}

// sheetUnit is the per-sheet work of a rebuild.
type sheetUnit struct {
	path     SheetPath
	items    []Item
	clusters clusterResult
	reused   bool
	cache    *sheetCache
}

// pass is a single rebuild run into a shadow snapshot.
type pass struct {
	src    Source
	cfg    *Config
	tb     TieBreaker
	logger *slog.Logger

	gen   uint32
	full  bool
	dirty map[ItemID]bool
	cache map[string]*sheetCache
}

func cancelled(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("connectivity: %w: %w", ErrRebuildCancelled, ctxErr)
	}
	return err
}

// run builds a snapshot and the clustering cache that goes with it.
func (p *pass) run(ctx context.Context, report *RebuildReport) (*snapshot, map[string]*sheetCache, error) {
	units, err := p.enumerate(ctx)
	if err != nil {
		return nil, nil, err
	}

	if !p.full && p.hasUnknownDirty(units) {
		p.logger.Debug("dirty item not in graph, rebuilding all sheets")
		p.full = true
	}
	report.Full = p.full

	if err := p.cluster(ctx, units); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, cancelled(ctx, err)
	}

	cache := make(map[string]*sheetCache, len(units))
	for _, u := range units {
		if u.reused {
			report.SheetsReused++
		} else {
			report.SheetsClustered++
		}
		if u.cache != nil {
			cache[u.path.Key()] = u.cache
		}
	}

	snap := p.assemble(units)
	report.SubgraphsCreated = len(snap.subgraphs)

	_, span := otel.Tracer(tracerName).Start(ctx, "connectivity.resolve")
	r := &resolver{
		cfg:    p.cfg,
		tb:     p.tb,
		arena:  snap.arena,
		sheets: make(map[string]SheetPath, len(snap.sheets)),
	}
	if as, ok := p.src.(AliasSource); ok {
		r.aliases = as.BusAliases()
	}
	for _, s := range snap.sheets {
		r.sheets[s.Key()] = s
	}
	for _, sg := range snap.subgraphs {
		r.resolveLocal(sg)
	}
	idx := buildNetIndex(snap.subgraphs)
	for _, sg := range snap.subgraphs {
		expandLocal(sg, idx)
	}
	span.End()
	p.logger.Debug("resolved sheet drivers", "subgraphs", len(snap.subgraphs))

	if err := ctx.Err(); err != nil {
		return nil, nil, cancelled(ctx, err)
	}

	_, span = otel.Tracer(tracerName).Start(ctx, "connectivity.propagate")
	prop := newPropagator(r, snap.subgraphs)
	report.SubgraphsMerged = prop.run()
	exp := &busExpander{byID: snap.subgraph}
	report.Conflicts = prop.resolveMerged(exp)
	report.UnresolvedBusMembers = exp.unresolved
	report.Unconnected = prop.unconnected()
	report.Diagnostics = r.diags
	span.SetAttributes(
		attribute.Int("merged", report.SubgraphsMerged),
		attribute.Int("conflicts", len(report.Conflicts)),
	)
	span.End()
	p.logger.Debug("propagated hierarchy", "merged", report.SubgraphsMerged)

	for _, c := range report.Conflicts {
		p.logger.Warn("naming conflict", "subgraph", c.Subgraph, "names", c.Names, "chosen", c.Chosen)
	}

	snap.views = buildViews(snap.subgraphs)
	snap.report = report
	return snap, cache, nil
}

// enumerate collects sheet instances and their items. Items are read on
// the worker pool, one sheet per unit.
func (p *pass) enumerate(ctx context.Context) ([]*sheetUnit, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "connectivity.enumerate")
	defer span.End()

	seen := make(map[string]bool)
	var units []*sheetUnit
	for path := range p.src.SheetInstances() {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(ctx, err)
		}
		if seen[path.Key()] {
			continue
		}
		seen[path.Key()] = true
		units = append(units, &sheetUnit{path: path})
	}
	sort.Slice(units, func(i, j int) bool {
		return units[i].path.Key() < units[j].path.Key()
	})

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.cfg.Workers)
	for _, u := range units {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			for it := range p.src.Items(u.path) {
				if it != nil {
					u.items = append(u.items, it)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		return nil, cancelled(ctx, err)
	}
	span.SetAttributes(attribute.Int("sheets", len(units)))
	return units, nil
}

// hasUnknownDirty reports dirty ids that are neither in the previous
// clustering nor in the current enumeration.
func (p *pass) hasUnknownDirty(units []*sheetUnit) bool {
	known := make(map[ItemID]bool)
	for _, c := range p.cache {
		for _, id := range c.ids {
			known[id] = true
		}
	}
	for _, u := range units {
		for _, it := range u.items {
			known[it.ID()] = true
		}
	}
	for id := range p.dirty {
		if !known[id] {
			return true
		}
	}
	return false
}

// cluster partitions every sheet, reusing the cached clustering of sheets
// without dirty items in an incremental pass.
func (p *pass) cluster(ctx context.Context, units []*sheetUnit) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "connectivity.cluster")
	defer span.End()

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.cfg.Workers)
	for _, u := range units {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			if !p.full {
				if c, ok := p.cache[u.path.Key()]; ok && !c.touches(u.items, p.dirty) {
					if res, ok := c.reuse(u.items); ok {
						u.clusters = res
						u.reused = true
						u.cache = c
						return nil
					}
				}
			}
			u.clusters = clusterItems(u.items, p.cfg.GridQuantum)
			u.cache = newSheetCache(u.items, u.clusters)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		return cancelled(ctx, err)
	}
	return nil
}

// assemble adds every item to the arena and creates the subgraphs. Ids
// follow sheet order, then the first item of each cluster.
func (p *pass) assemble(units []*sheetUnit) *snapshot {
	snap := &snapshot{
		gen:   p.gen,
		arena: newArena(p.gen),
		conns: make(map[connKey]*Connection),
	}
	for _, u := range units {
		snap.sheets = append(snap.sheets, u.path)
		key := u.path.Key()

		conns := make([]*Connection, len(u.items))
		for i, it := range u.items {
			h := snap.arena.add(it, u.path, i)
			c := newConnection(h, it.ID(), u.path)
			c.dirty = p.dirty[it.ID()]
			conns[i] = c
			ck := connKey{sheet: key, id: it.ID()}
			if _, dup := snap.conns[ck]; !dup {
				snap.conns[ck] = c
			}
		}

		owner := make([]*Subgraph, len(u.items))
		for _, cl := range u.clusters.clusters {
			sg := newSubgraph(SubgraphID(len(snap.subgraphs)+1), u.path)
			sg.dirty = !p.full && !u.reused
			for _, idx := range cl {
				sg.conns = append(sg.conns, conns[idx])
				owner[idx] = sg
				if u.items[idx].Kind() == ItemNoConnect {
					sg.noConnect = true
				}
			}
			snap.subgraphs = append(snap.subgraphs, sg)
		}

		// Bus entries are visited in item order for stable link order.
		entries := make([]int, 0, len(u.clusters.busLinks))
		for entry := range u.clusters.busLinks {
			entries = append(entries, entry)
		}
		sort.Ints(entries)
		for _, entry := range entries {
			sg, bus := owner[entry], owner[u.clusters.busLinks[entry]]
			if sg == nil || bus == nil || sg == bus || containsID(sg.busLinks, bus.id) {
				continue
			}
			sg.busLinks = append(sg.busLinks, bus.id)
		}
	}
	return snap
}

func containsID(ids []SubgraphID, id SubgraphID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
