package connectivity

import "fmt"

// Kind is the electrical type of a connection.
type Kind int

const (
	KindNone Kind = iota
	KindNet
	KindBusVector
	KindBusGroup
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNet:
		return "net"
	case KindBusVector:
		return "bus_vector"
	case KindBusGroup:
		return "bus_group"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind for JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Shape is the closed set of connection payloads: NoConnection, NetShape,
// VectorShape and GroupShape.
type Shape interface {
	Kind() Kind
	isShape()
}

// NoConnection is the shape of an item with no resolved name.
type NoConnection struct{}

// NetShape is the shape of a single named net.
type NetShape struct{}

// VectorShape is PREFIX[Start..End]SUFFIX.
type VectorShape struct {
	Prefix string
	Suffix string
	Start  int
	End    int
}

// GroupShape is PREFIX{...}.
type GroupShape struct {
	Prefix string
}

func (NoConnection) Kind() Kind { return KindNone }
func (NetShape) Kind() Kind     { return KindNet }
func (VectorShape) Kind() Kind  { return KindBusVector }
func (GroupShape) Kind() Kind   { return KindBusGroup }

func (NoConnection) isShape() {}
func (NetShape) isShape()     {}
func (VectorShape) isShape()  {}
func (GroupShape) isShape()   {}

func shapeOf(l Label) Shape {
	switch l.Kind {
	case KindNet:
		return NetShape{}
	case KindBusVector:
		return VectorShape{Prefix: l.Prefix, Suffix: l.Suffix, Start: l.Start, End: l.End}
	case KindBusGroup:
		return GroupShape{Prefix: l.Prefix}
	}
	return NoConnection{}
}

// Connection is the resolved connectivity of one item in one sheet
// instance. Connections are created by a rebuild and are read-only
// afterwards.
//
// Bus members are shared: every bus connection of a subgraph points at
// the same member slice, so a member's backing subgraph is visible through
// all of them.
type Connection struct {
	item  Handle
	id    ItemID
	sheet SheetPath
	shape Shape

	name      string
	localName string
	prefix    string

	// Vector member position, -1 when not a vector member.
	index int

	subgraph SubgraphID
	busCode  int
	members  []*Connection

	driver Handle
	dirty  bool
}

func newConnection(h Handle, id ItemID, sheet SheetPath) *Connection {
	return &Connection{
		item:  h,
		id:    id,
		sheet: sheet,
		shape: NoConnection{},
		index: -1,
	}
}

func (c *Connection) Item() Handle     { return c.item }
func (c *Connection) ItemID() ItemID   { return c.id }
func (c *Connection) Sheet() SheetPath { return c.sheet }
func (c *Connection) Shape() Shape     { return c.shape }
func (c *Connection) Kind() Kind       { return c.shape.Kind() }

// Name is the fully resolved name, including any sheet prefix.
func (c *Connection) Name() string { return c.name }

// LocalName is the driver's name before sheet prefixing.
func (c *Connection) LocalName() string { return c.localName }

// SheetPrefix is the sheet path prepended to LocalName, if any.
func (c *Connection) SheetPrefix() string { return c.prefix }

// Prefix is the bus prefix: the vector stem or the group name.
func (c *Connection) Prefix() string {
	switch s := c.shape.(type) {
	case VectorShape:
		return s.Prefix
	case GroupShape:
		return s.Prefix
	}
	return ""
}

// Suffix is the text following a vector range.
func (c *Connection) Suffix() string {
	if s, ok := c.shape.(VectorShape); ok {
		return s.Suffix
	}
	return ""
}

func (c *Connection) VectorStart() int {
	if s, ok := c.shape.(VectorShape); ok {
		return s.Start
	}
	return 0
}

func (c *Connection) VectorEnd() int {
	if s, ok := c.shape.(VectorShape); ok {
		return s.End
	}
	return 0
}

// VectorIndex is the member position within its vector, -1 otherwise.
func (c *Connection) VectorIndex() int { return c.index }

func (c *Connection) SubgraphID() SubgraphID { return c.subgraph }

// BusCode is a per-rebuild number shared by all connections of a bus.
func (c *Connection) BusCode() int { return c.busCode }

// Driver is the arena handle of the item that supplied the name.
func (c *Connection) Driver() Handle { return c.driver }
func (c *Connection) IsDirty() bool  { return c.dirty }

func (c *Connection) IsBus() bool {
	k := c.Kind()
	return k == KindBusVector || k == KindBusGroup
}

func (c *Connection) IsNet() bool { return c.Kind() == KindNet }

// Members returns the member nets of a bus connection in declaration order.
func (c *Connection) Members() []*Connection {
	out := make([]*Connection, len(c.members))
	copy(out, c.members)
	return out
}

// AllMembers is Members; nested vectors are already flattened into nets.
func (c *Connection) AllMembers() []*Connection {
	return c.Members()
}

// Resolved reports whether a member has a backing net subgraph.
func (c *Connection) Resolved() bool { return c.subgraph != 0 }

// IsSubsetOf reports whether c is contained in bus other without being
// other. A net is contained when its name matches a member; a bus is
// contained when all its members are.
func (c *Connection) IsSubsetOf(other *Connection) bool {
	if other == nil || c == other || !other.IsBus() {
		return false
	}
	if c.IsBus() && c.name == other.name && c.sheet.Equal(other.sheet) {
		return false
	}
	names := other.memberNames()
	switch c.Kind() {
	case KindNet:
		return names[c.name]
	case KindBusVector, KindBusGroup:
		if len(c.members) == 0 {
			return false
		}
		for _, m := range c.members {
			if !names[m.name] {
				return false
			}
		}
		return true
	}
	return false
}

// IsMemberOfBus reports whether net c is one of bus other's members.
func (c *Connection) IsMemberOfBus(other *Connection) bool {
	if other == nil || other.Kind() == KindNet || !other.IsBus() {
		return false
	}
	if c.Kind() != KindNet {
		return false
	}
	return other.memberNames()[c.name]
}

func (c *Connection) memberNames() map[string]bool {
	names := make(map[string]bool, len(c.members))
	for _, m := range c.members {
		names[m.name] = true
	}
	return names
}

func (c *Connection) String() string {
	if c.name == "" {
		return fmt.Sprintf("%s@%s <%s>", c.id, c.sheet, c.Kind())
	}
	return fmt.Sprintf("%s@%s %s <%s>", c.id, c.sheet, c.name, c.Kind())
}

// assign copies the resolved naming of src into c, sharing members.
func (c *Connection) assign(src *Connection) {
	c.shape = src.shape
	c.name = src.name
	c.localName = src.localName
	c.prefix = src.prefix
	c.busCode = src.busCode
	c.members = src.members
	c.driver = src.driver
}
