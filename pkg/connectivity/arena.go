package connectivity

import "fmt"

// Handle references an item slot in the arena of one rebuild. Handles
// compare by value; a handle from an older generation no longer resolves.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h references nothing.
func (h Handle) IsZero() bool { return h.gen == 0 }

func (h Handle) Generation() uint32 { return h.gen }

func (h Handle) String() string {
	if h.IsZero() {
		return "handle(nil)"
	}
	return fmt.Sprintf("handle(%d@%d)", h.index, h.gen)
}

// slot is one item as seen in one sheet instance.
type slot struct {
	item  Item
	sheet SheetPath
	// order is the enumeration position within the sheet.
	order int
}

// arena holds every item slot for one generation. It only grows during
// a rebuild and is immutable once the rebuild completes.
type arena struct {
	gen   uint32
	slots []slot
}

func newArena(gen uint32) *arena {
	return &arena{gen: gen}
}

func (a *arena) add(it Item, sheet SheetPath, order int) Handle {
	a.slots = append(a.slots, slot{item: it, sheet: sheet, order: order})
	return Handle{index: uint32(len(a.slots) - 1), gen: a.gen}
}

func (a *arena) get(h Handle) (slot, error) {
	if h.IsZero() {
		return slot{}, fmt.Errorf("connectivity: %w: zero handle", ErrStaleHandle)
	}
	if h.gen != a.gen {
		return slot{}, fmt.Errorf("connectivity: %w: generation %d, current %d", ErrStaleHandle, h.gen, a.gen)
	}
	if int(h.index) >= len(a.slots) {
		return slot{}, fmt.Errorf("connectivity: %w: index %d out of range", ErrStaleHandle, h.index)
	}
	return a.slots[h.index], nil
}

// at is get without checks, for handles minted by this arena.
func (a *arena) at(h Handle) slot {
	return a.slots[h.index]
}

func (a *arena) len() int { return len(a.slots) }
