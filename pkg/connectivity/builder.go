package connectivity

import (
	"math"
)

type layer uint8

const (
	netLayer layer = iota
	busLayer
)

type coordKey struct {
	layer layer
	x, y  int64
}

type qpoint struct {
	x, y int64
}

// segment is a wire or bus with two distinct quantised endpoints.
type segment struct {
	item   int
	a, b   qpoint
	length float64
}

// interior reports whether p lies strictly between the endpoints, within
// one grid quantum of the line.
func (s segment) interior(p qpoint) bool {
	if p == s.a || p == s.b {
		return false
	}
	minX, maxX := min(s.a.x, s.b.x), max(s.a.x, s.b.x)
	minY, maxY := min(s.a.y, s.b.y), max(s.a.y, s.b.y)
	if p.x < minX || p.x > maxX || p.y < minY || p.y > maxY {
		return false
	}
	cross := float64((s.b.x-s.a.x)*(p.y-s.a.y) - (s.b.y-s.a.y)*(p.x-s.a.x))
	return math.Abs(cross) <= s.length
}

// segmentIndex buckets axis-aligned segments by their fixed coordinate so
// point lookups avoid scanning every segment.
type segmentIndex struct {
	horizontal map[int64][]segment
	vertical   map[int64][]segment
	diagonal   []segment
}

func newSegmentIndex() *segmentIndex {
	return &segmentIndex{
		horizontal: make(map[int64][]segment),
		vertical:   make(map[int64][]segment),
	}
}

func (si *segmentIndex) add(s segment) {
	switch {
	case s.a.y == s.b.y:
		si.horizontal[s.a.y] = append(si.horizontal[s.a.y], s)
	case s.a.x == s.b.x:
		si.vertical[s.a.x] = append(si.vertical[s.a.x], s)
	default:
		si.diagonal = append(si.diagonal, s)
	}
}

// containing calls fn for every segment whose interior holds p.
func (si *segmentIndex) containing(p qpoint, fn func(segment)) {
	for _, s := range si.horizontal[p.y] {
		if s.interior(p) {
			fn(s)
		}
	}
	for _, s := range si.vertical[p.x] {
		if s.interior(p) {
			fn(s)
		}
	}
	for _, s := range si.diagonal {
		if s.interior(p) {
			fn(s)
		}
	}
}

func (si *segmentIndex) touches(p qpoint) bool {
	found := false
	si.containing(p, func(segment) { found = true })
	return found
}

// clusterResult is the partition of one sheet's items.
type clusterResult struct {
	// clusters lists item indices, ascending, ordered by first item.
	clusters [][]int
	// busLinks maps a bus entry's index to a bus item at its bus side.
	busLinks map[int]int
}

// clusterItems partitions items into graphically connected groups.
// Items are connected when they share a quantised point on the same layer
// or when a point lies on a wire or bus segment's interior.
func clusterItems(items []Item, quantum float64) clusterResult {
	b := &clusterBuilder{
		quantum:  quantum,
		uf:       newUnionFind(len(items)),
		keys:     make(map[coordKey]int),
		segments: [2]*segmentIndex{newSegmentIndex(), newSegmentIndex()},
	}

	type anchor struct {
		item  int
		layer layer
		p     qpoint
	}
	var anchors []anchor
	var deferred []int
	entrySides := make(map[int]qpoint)

	// Pass 1: items with a fixed layer.
	for i, it := range items {
		pts := b.quantize(it.Points())
		switch it.Kind() {
		case ItemWire, ItemBus:
			l := netLayer
			if it.Kind() == ItemBus {
				l = busLayer
			}
			for _, p := range pts {
				anchors = append(anchors, anchor{i, l, p})
			}
			if len(pts) >= 2 {
				for k := 0; k+1 < len(pts); k++ {
					if pts[k] == pts[k+1] {
						// Zero length: contributes its point only.
						continue
					}
					b.segments[l].add(newSegment(i, pts[k], pts[k+1]))
				}
			}
		case ItemBusEntry:
			switch len(pts) {
			case 0:
			case 1:
				anchors = append(anchors, anchor{i, netLayer, pts[0]})
			default:
				entrySides[i] = pts[0]
				anchors = append(anchors, anchor{i, netLayer, pts[1]})
			}
		case ItemPin, ItemPowerPin, ItemNoConnect:
			for _, p := range pts {
				anchors = append(anchors, anchor{i, netLayer, p})
			}
		default:
			// Labels, sheet pins and junctions follow what they touch.
			deferred = append(deferred, i)
		}
	}

	for _, a := range anchors {
		b.addKey(a.item, a.layer, a.p)
	}

	// Pass 2: attachables pick the bus layer when a bus is under them.
	for _, i := range deferred {
		for _, p := range b.quantize(items[i].Points()) {
			l := netLayer
			if b.onLayer(busLayer, p) {
				l = busLayer
			}
			anchors = append(anchors, anchor{i, l, p})
			b.addKey(i, l, p)
		}
	}

	// Pass 3: points landing on a segment's interior.
	for _, a := range anchors {
		b.segments[a.layer].containing(a.p, func(s segment) {
			if s.item != a.item {
				b.uf.union(a.item, s.item)
			}
		})
	}

	res := clusterResult{
		clusters: b.uf.groups(),
		busLinks: make(map[int]int),
	}
	for entry, p := range entrySides {
		if bus, ok := b.keys[coordKey{busLayer, p.x, p.y}]; ok {
			res.busLinks[entry] = bus
			continue
		}
		b.segments[busLayer].containing(p, func(s segment) {
			if _, done := res.busLinks[entry]; !done {
				res.busLinks[entry] = s.item
			}
		})
	}
	return res
}

type clusterBuilder struct {
	quantum  float64
	uf       *unionFind
	keys     map[coordKey]int
	segments [2]*segmentIndex
}

func (b *clusterBuilder) quantize(pts []Point) []qpoint {
	out := make([]qpoint, len(pts))
	for i, p := range pts {
		out[i] = qpoint{
			x: int64(math.Round(p.X / b.quantum)),
			y: int64(math.Round(p.Y / b.quantum)),
		}
	}
	return out
}

func (b *clusterBuilder) addKey(item int, l layer, p qpoint) {
	k := coordKey{l, p.x, p.y}
	if first, ok := b.keys[k]; ok {
		b.uf.union(first, item)
		return
	}
	b.keys[k] = item
}

func (b *clusterBuilder) onLayer(l layer, p qpoint) bool {
	if item, ok := b.keys[coordKey{l, p.x, p.y}]; ok && item >= 0 {
		return true
	}
	return b.segments[l].touches(p)
}

func newSegment(item int, a, b qpoint) segment {
	dx := float64(b.x - a.x)
	dy := float64(b.y - a.y)
	return segment{item: item, a: a, b: b, length: math.Hypot(dx, dy)}
}
