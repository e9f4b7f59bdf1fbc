package connectivity

import "sort"

// sheetCache is the clustering of one sheet instance, by item id, kept so
// an incremental rebuild can skip sheets without edits.
type sheetCache struct {
	ids      []ItemID
	clusters [][]ItemID
	busLinks map[ItemID]ItemID
}

// newSheetCache returns nil when item ids repeat within the sheet, since
// such a sheet cannot be mapped back by id.
func newSheetCache(items []Item, res clusterResult) *sheetCache {
	seen := make(map[ItemID]bool, len(items))
	c := &sheetCache{
		ids:      make([]ItemID, len(items)),
		clusters: make([][]ItemID, len(res.clusters)),
		busLinks: make(map[ItemID]ItemID, len(res.busLinks)),
	}
	for i, it := range items {
		id := it.ID()
		if seen[id] {
			return nil
		}
		seen[id] = true
		c.ids[i] = id
	}
	for i, cl := range res.clusters {
		ids := make([]ItemID, len(cl))
		for k, idx := range cl {
			ids[k] = c.ids[idx]
		}
		c.clusters[i] = ids
	}
	for entry, bus := range res.busLinks {
		c.busLinks[c.ids[entry]] = c.ids[bus]
	}
	return c
}

// touches reports whether any cached or current item is dirty.
func (c *sheetCache) touches(items []Item, dirty map[ItemID]bool) bool {
	for _, id := range c.ids {
		if dirty[id] {
			return true
		}
	}
	for _, it := range items {
		if dirty[it.ID()] {
			return true
		}
	}
	return false
}

// reuse maps the cached clustering onto the current enumeration. It fails
// when the item set changed.
func (c *sheetCache) reuse(items []Item) (clusterResult, bool) {
	if len(items) != len(c.ids) {
		return clusterResult{}, false
	}
	pos := make(map[ItemID]int, len(items))
	for i, it := range items {
		if _, dup := pos[it.ID()]; dup {
			return clusterResult{}, false
		}
		pos[it.ID()] = i
	}

	res := clusterResult{
		clusters: make([][]int, len(c.clusters)),
		busLinks: make(map[int]int, len(c.busLinks)),
	}
	for i, ids := range c.clusters {
		idxs := make([]int, len(ids))
		for k, id := range ids {
			p, ok := pos[id]
			if !ok {
				return clusterResult{}, false
			}
			idxs[k] = p
		}
		sort.Ints(idxs)
		res.clusters[i] = idxs
	}
	sort.Slice(res.clusters, func(i, j int) bool {
		return res.clusters[i][0] < res.clusters[j][0]
	})
	for entry, bus := range c.busLinks {
		res.busLinks[pos[entry]] = pos[bus]
	}
	return res, true
}
