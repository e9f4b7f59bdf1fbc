package connectivity

import (
	"iter"
	"sync"
)

// MemorySource is an in-memory Source useful during tests or when the
// caller already holds the whole design.
type MemorySource struct {
	mu      sync.RWMutex
	order   []SheetPath
	items   map[string][]Item
	aliases map[string][]string
}

// NewMemorySource creates a source holding only an empty root sheet.
func NewMemorySource() *MemorySource {
	s := &MemorySource{
		items:   make(map[string][]Item),
		aliases: make(map[string][]string),
	}
	s.AddSheet(RootSheet())
	return s
}

// AddSheet registers a sheet instance. Adding a known path is a no-op.
func (s *MemorySource) AddSheet(path SheetPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSheetLocked(path)
}

func (s *MemorySource) addSheetLocked(path SheetPath) {
	if _, ok := s.items[path.Key()]; ok {
		return
	}
	s.order = append(s.order, path)
	s.items[path.Key()] = nil
}

// Add appends items to a sheet instance, registering it when needed.
func (s *MemorySource) Add(path SheetPath, items ...Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addSheetLocked(path)
	s.items[path.Key()] = append(s.items[path.Key()], items...)
}

// Remove drops the item with id from a sheet instance.
func (s *MemorySource) Remove(path SheetPath, id ItemID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.items[path.Key()]
	for i, it := range list {
		if it.ID() == id {
			s.items[path.Key()] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// Replace swaps the item sharing its id in a sheet instance.
func (s *MemorySource) Replace(path SheetPath, it Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.items[path.Key()]
	for i, old := range list {
		if old.ID() == it.ID() {
			list[i] = it
			return true
		}
	}
	return false
}

// SetAlias defines a bus alias.
func (s *MemorySource) SetAlias(name string, members ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[name] = append([]string(nil), members...)
}

// SheetInstances implements Source.
func (s *MemorySource) SheetInstances() iter.Seq[SheetPath] {
	s.mu.RLock()
	order := append([]SheetPath(nil), s.order...)
	s.mu.RUnlock()
	return func(yield func(SheetPath) bool) {
		for _, p := range order {
			if !yield(p) {
				return
			}
		}
	}
}

// Items implements Source.
func (s *MemorySource) Items(path SheetPath) iter.Seq[Item] {
	s.mu.RLock()
	items := append([]Item(nil), s.items[path.Key()]...)
	s.mu.RUnlock()
	return func(yield func(Item) bool) {
		for _, it := range items {
			if !yield(it) {
				return
			}
		}
	}
}

// BusAliases implements AliasSource.
func (s *MemorySource) BusAliases() map[string][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]string, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = append([]string(nil), v...)
	}
	return out
}
