package connectivity

import "strings"

// SheetPath identifies one instantiation of a sheet, from the root down.
// The root sheet is the empty path.
type SheetPath struct {
	ids   []string
	names []string
}

// RootSheet returns the path of the root sheet.
func RootSheet() SheetPath {
	return SheetPath{}
}

// NewSheetPath builds a path from parallel id and name slices. Missing
// names default to the id.
func NewSheetPath(ids []string, names []string) SheetPath {
	p := SheetPath{
		ids:   make([]string, len(ids)),
		names: make([]string, len(ids)),
	}
	copy(p.ids, ids)
	for i := range ids {
		if i < len(names) && names[i] != "" {
			p.names[i] = names[i]
		} else {
			p.names[i] = ids[i]
		}
	}
	return p
}

// Child returns the path of sheet instance id (displayed as name) placed
// inside p.
func (p SheetPath) Child(id, name string) SheetPath {
	if name == "" {
		name = id
	}
	c := SheetPath{
		ids:   make([]string, len(p.ids), len(p.ids)+1),
		names: make([]string, len(p.names), len(p.names)+1),
	}
	copy(c.ids, p.ids)
	copy(c.names, p.names)
	c.ids = append(c.ids, id)
	c.names = append(c.names, name)
	return c
}

// Parent returns the enclosing sheet path. ok is false for the root.
func (p SheetPath) Parent() (SheetPath, bool) {
	if len(p.ids) == 0 {
		return SheetPath{}, false
	}
	n := len(p.ids) - 1
	return SheetPath{ids: p.ids[:n:n], names: p.names[:n:n]}, true
}

// Last returns the instance id of the innermost sheet.
func (p SheetPath) Last() string {
	if len(p.ids) == 0 {
		return ""
	}
	return p.ids[len(p.ids)-1]
}

// IDs returns a copy of the instance ids.
func (p SheetPath) IDs() []string {
	out := make([]string, len(p.ids))
	copy(out, p.ids)
	return out
}

func (p SheetPath) Depth() int   { return len(p.ids) }
func (p SheetPath) IsRoot() bool { return len(p.ids) == 0 }

// Key is the identity used for maps: "/" joined instance ids.
func (p SheetPath) Key() string {
	if len(p.ids) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.ids, "/")
}

// String is the human readable path, always ending in "/".
func (p SheetPath) String() string {
	if len(p.names) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.names, "/") + "/"
}

// Equal compares instance ids.
func (p SheetPath) Equal(o SheetPath) bool {
	if len(p.ids) != len(o.ids) {
		return false
	}
	for i := range p.ids {
		if p.ids[i] != o.ids[i] {
			return false
		}
	}
	return true
}

// IsParentOf reports whether c is a direct child of p.
func (p SheetPath) IsParentOf(c SheetPath) bool {
	parent, ok := c.Parent()
	return ok && parent.Equal(p)
}

// Prefix is the prefix sheet-scoped names receive inside p.
func (p SheetPath) Prefix() string { return p.String() }

// namePrefix is the prefix applied to sheet-scoped net names.
func (p SheetPath) namePrefix(prefixRoot bool) string {
	if p.IsRoot() && !prefixRoot {
		return ""
	}
	return p.String()
}
