package connectivity

import (
	"fmt"
	"iter"
)

// ItemID is the stable identity of a schematic primitive. The same ItemID
// seen in two sheet instances denotes two electrically distinct items.
type ItemID string

// ItemKind categorizes connectable primitives.
type ItemKind int

const (
	ItemWire ItemKind = iota
	ItemBus
	ItemJunction
	ItemPin
	ItemPowerPin
	ItemLocalLabel
	ItemGlobalLabel
	ItemHierLabel
	ItemSheetPin
	ItemBusEntry
	ItemNoConnect
)

var itemKindNames = [...]string{
	ItemWire:        "wire",
	ItemBus:         "bus",
	ItemJunction:    "junction",
	ItemPin:         "pin",
	ItemPowerPin:    "power_pin",
	ItemLocalLabel:  "label",
	ItemGlobalLabel: "global_label",
	ItemHierLabel:   "hierarchical_label",
	ItemSheetPin:    "sheet_pin",
	ItemBusEntry:    "bus_entry",
	ItemNoConnect:   "no_connect",
}

func (k ItemKind) String() string {
	if k >= 0 && int(k) < len(itemKindNames) {
		return itemKindNames[k]
	}
	return fmt.Sprintf("ItemKind(%d)", int(k))
}

// IsLabel reports whether the kind carries a user-visible net name.
func (k ItemKind) IsLabel() bool {
	switch k {
	case ItemLocalLabel, ItemGlobalLabel, ItemHierLabel, ItemSheetPin:
		return true
	}
	return false
}

// Point is a schematic coordinate in millimeters.
type Point struct {
	X, Y float64
}

// Item is a borrowed handle to a schematic primitive owned by the editor
// model. Items are read-only for the duration of a rebuild.
type Item interface {
	ID() ItemID
	Kind() ItemKind
	// Text is the label text, pin name or power net name. Empty for
	// purely graphical items.
	Text() string
	// Points returns the connection points. Wires and buses return their
	// two endpoints, bus entries return the bus side first.
	Points() []Point
}

// PinItem is implemented by pins that can produce an auto-generated net name.
type PinItem interface {
	Item
	Reference() string
	Number() string
}

// SheetPinItem is implemented by sheet pins to name the child sheet
// instance they lead into.
type SheetPinItem interface {
	Item
	ChildSheet() string
}

// Element is a plain Item implementation used by adapters and tests.
type Element struct {
	UID   ItemID
	Type  ItemKind
	Label string
	At    []Point

	// Pin data
	Ref    string
	PinNum string

	// Sheet pin target (child sheet instance id)
	Sheet string
}

func (e *Element) ID() ItemID         { return e.UID }
func (e *Element) Kind() ItemKind     { return e.Type }
func (e *Element) Text() string       { return e.Label }
func (e *Element) Points() []Point    { return e.At }
func (e *Element) Reference() string  { return e.Ref }
func (e *Element) Number() string     { return e.PinNum }
func (e *Element) ChildSheet() string { return e.Sheet }

func (e *Element) String() string {
	if e.Label != "" {
		return fmt.Sprintf("%s %q (%s)", e.Type, e.Label, e.UID)
	}
	return fmt.Sprintf("%s (%s)", e.Type, e.UID)
}

// Source is the schematic model as seen by the engine. Both sequences must
// be finite and restartable; they are consumed once per rebuild. Items may
// be called concurrently for different sheet paths.
type Source interface {
	SheetInstances() iter.Seq[SheetPath]
	Items(path SheetPath) iter.Seq[Item]
}

// AliasSource is optionally implemented by sources that define bus aliases.
type AliasSource interface {
	BusAliases() map[string][]string
}
