package connectivity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// State is the lifecycle state of a Graph.
type State int

const (
	StateEmpty State = iota
	StateBuilding
	StateResolved
	StatePartiallyDirty
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateBuilding:
		return "BUILDING"
	case StateResolved:
		return "RESOLVED"
	case StatePartiallyDirty:
		return "PARTIALLY_DIRTY"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithMetrics records rebuilds into m.
func WithMetrics(m *Metrics) Option {
	return func(g *Graph) { g.metrics = m }
}

// WithTieBreaker overrides the configured tie-break policy.
func WithTieBreaker(tb TieBreaker) Option {
	return func(g *Graph) {
		if tb != nil {
			g.tb = tb
		}
	}
}

// Graph owns the resolved connectivity of one design. Queries only
// succeed in StateResolved. Rebuilds are serialised; edits reported while
// a rebuild runs are folded into the next one.
type Graph struct {
	src     Source
	cfg     *Config
	tb      TieBreaker
	logger  *slog.Logger
	metrics *Metrics

	// build admits a single rebuild at a time.
	build sync.Mutex

	mu      sync.RWMutex
	state   State
	snap    *snapshot
	cache   map[string]*sheetCache
	pending map[ItemID]bool
	queued  map[ItemID]bool
	gen     uint32
}

// New creates an empty graph over src. A nil cfg uses DefaultConfig.
func New(src Source, cfg *Config, opts ...Option) (*Graph, error) {
	if src == nil {
		return nil, errors.New("connectivity: nil source")
	}
	c := DefaultConfig()
	if cfg != nil {
		cp := *cfg
		c = &cp
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	tb, err := c.TieBreaker()
	if err != nil {
		return nil, err
	}

	g := &Graph{
		src:    src,
		cfg:    c,
		tb:     tb,
		logger: slog.Default(),
		state:  StateEmpty,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Config returns the validated configuration.
func (g *Graph) Config() Config { return *g.cfg }

func (g *Graph) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Generation is the generation of the resolved snapshot, 0 before the
// first rebuild.
func (g *Graph) Generation() uint32 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.snap == nil {
		return 0
	}
	return g.snap.gen
}

// Rebuild resolves the design. Without ids every sheet is re-clustered;
// with ids only sheets holding those items are, and the rest reuse their
// previous clustering. Pending ids from MarkDirty are included. On error
// or cancellation the previous state is kept.
func (g *Graph) Rebuild(ctx context.Context, dirty ...ItemID) (*RebuildReport, error) {
	g.build.Lock()
	defer g.build.Unlock()

	g.mu.Lock()
	prev := g.state
	full := len(dirty) == 0 || g.snap == nil
	ids := make(map[ItemID]bool, len(dirty)+len(g.pending))
	for _, id := range dirty {
		ids[id] = true
	}
	if !full {
		for id := range g.pending {
			ids[id] = true
		}
	}
	restore := g.pending
	g.pending = nil
	g.state = StateBuilding
	g.gen++
	gen := g.gen
	cache := g.cache
	g.mu.Unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "connectivity.Rebuild")
	defer span.End()
	span.SetAttributes(attribute.Bool("full", full), attribute.Int("dirty", len(ids)))

	start := time.Now()
	report := &RebuildReport{ID: uuid.New(), Generation: gen, Full: full}
	p := &pass{
		src:    g.src,
		cfg:    g.cfg,
		tb:     g.tb,
		logger: g.logger.With("rebuild", report.ID.String()),
		gen:    gen,
		full:   full,
		dirty:  ids,
		cache:  cache,
	}
	snap, newCache, err := p.run(ctx, report)
	report.Duration = time.Since(start)

	g.mu.Lock()
	defer g.mu.Unlock()
	queued := g.queued
	g.queued = nil

	if err != nil {
		g.state = prev
		g.pending = mergeIDs(restore, ids, queued)
		if len(queued) > 0 && prev == StateResolved {
			g.state = StatePartiallyDirty
		}
		status := "error"
		if errors.Is(err, ErrRebuildCancelled) {
			status = "cancelled"
		}
		g.metrics.RecordFailure(report.Full, status, report.Duration)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Debug("rebuild abandoned", "error", err, "state", g.state)
		return nil, err
	}

	g.snap = snap
	g.cache = newCache
	g.state = StateResolved
	if len(queued) > 0 {
		g.pending = queued
		g.state = StatePartiallyDirty
	}
	g.metrics.RecordRebuild(report, len(snap.nets), len(snap.buses))
	g.logger.Debug("rebuild complete",
		"generation", gen,
		"mode", report.Mode(),
		"subgraphs", report.SubgraphsCreated,
		"merged", report.SubgraphsMerged,
		"conflicts", len(report.Conflicts),
		"duration", report.Duration,
	)
	return report, nil
}

func mergeIDs(sets ...map[ItemID]bool) map[ItemID]bool {
	out := make(map[ItemID]bool)
	for _, s := range sets {
		for id := range s {
			out[id] = true
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// MarkDirty reports edited items. A resolved graph becomes partially
// dirty; during a rebuild the ids are queued for the next one.
func (g *Graph) MarkDirty(ids ...ItemID) {
	if len(ids) == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case StateEmpty:
		// The first rebuild is full anyway.
	case StateBuilding:
		if g.queued == nil {
			g.queued = make(map[ItemID]bool)
		}
		for _, id := range ids {
			g.queued[id] = true
		}
	case StateResolved, StatePartiallyDirty:
		if g.pending == nil {
			g.pending = make(map[ItemID]bool)
		}
		for _, id := range ids {
			g.pending[id] = true
		}
		g.state = StatePartiallyDirty
	}
}

// Pending returns the ids waiting for the next rebuild, sorted.
func (g *Graph) Pending() []ItemID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]ItemID, 0, len(g.pending))
	for id := range g.pending {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Refresh rebuilds what MarkDirty reported. An empty graph is fully built;
// a resolved graph with nothing pending returns its last report.
func (g *Graph) Refresh(ctx context.Context) (*RebuildReport, error) {
	g.mu.RLock()
	state, snap := g.state, g.snap
	g.mu.RUnlock()

	switch {
	case state == StateEmpty || snap == nil:
		return g.Rebuild(ctx)
	case state == StateResolved:
		return snap.report, nil
	}

	pending := g.Pending()
	if len(pending) == 0 {
		return g.Rebuild(ctx)
	}
	return g.Rebuild(ctx, pending...)
}

func (g *Graph) resolved() (*snapshot, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.state != StateResolved {
		return nil, &StaleGraphError{State: g.state}
	}
	return g.snap, nil
}

// Report returns the report of the rebuild that produced the current
// state.
func (g *Graph) Report() (*RebuildReport, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	return snap.report, nil
}

// GetConnection returns the connection of item id in sheet.
func (g *Graph) GetConnection(id ItemID, sheet SheetPath) (*Connection, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	return snap.connection(id, sheet)
}

// GetSubgraphFor returns the surviving subgraph of item id in sheet.
func (g *Graph) GetSubgraphFor(id ItemID, sheet SheetPath) (*Subgraph, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	c, err := snap.connection(id, sheet)
	if err != nil {
		return nil, err
	}
	sg := snap.subgraph(c.subgraph)
	if sg == nil {
		return nil, fmt.Errorf("connectivity: subgraph %d: %w", c.subgraph, ErrSubgraphNotFound)
	}
	return sg.survivor, nil
}

// GetSubgraph returns the subgraph with id, which may have been absorbed.
func (g *Graph) GetSubgraph(id SubgraphID) (*Subgraph, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	sg := snap.subgraph(id)
	if sg == nil {
		return nil, fmt.Errorf("connectivity: subgraph %d: %w", id, ErrSubgraphNotFound)
	}
	return sg, nil
}

// ListSubgraphs returns the surviving subgraphs by id.
func (g *Graph) ListSubgraphs() ([]*Subgraph, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	var out []*Subgraph
	for _, sg := range snap.subgraphs {
		if sg.IsSurvivor() {
			out = append(out, sg)
		}
	}
	return out, nil
}

func (g *Graph) GetNet(name string) (*Net, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	n, ok := snap.nets[name]
	if !ok {
		return nil, fmt.Errorf("connectivity: %q: %w", name, ErrNetNotFound)
	}
	return n, nil
}

func (g *Graph) GetBus(name string) (*Bus, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	b, ok := snap.buses[name]
	if !ok {
		return nil, fmt.Errorf("connectivity: %q: %w", name, ErrBusNotFound)
	}
	return b, nil
}

// ListNets returns every net sorted by name.
func (g *Graph) ListNets() ([]*Net, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	out := make([]*Net, len(snap.netNames))
	for i, n := range snap.netNames {
		out[i] = snap.nets[n]
	}
	return out, nil
}

// ListBuses returns every bus sorted by name.
func (g *Graph) ListBuses() ([]*Bus, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, err
	}
	out := make([]*Bus, len(snap.busNames))
	for i, n := range snap.busNames {
		out[i] = snap.buses[n]
	}
	return out, nil
}

// ResolveHandle returns the item and sheet behind h. Handles minted by an
// older rebuild fail with ErrStaleHandle.
func (g *Graph) ResolveHandle(h Handle) (Item, SheetPath, error) {
	snap, err := g.resolved()
	if err != nil {
		return nil, SheetPath{}, err
	}
	s, err := snap.arena.get(h)
	if err != nil {
		return nil, SheetPath{}, err
	}
	return s.item, s.sheet, nil
}
