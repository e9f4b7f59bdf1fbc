package sexp

import (
	"fmt"
	"strconv"
)

// Position is a coordinate in millimeters.
type Position struct {
	X float64
	Y float64
}

// PositionAngle is an (at X Y [angle]) value. Angles are in degrees.
type PositionAngle struct {
	Position
	Angle float64
}

// FindNode returns the first child list whose name is key.
// Example: FindNode(n, "at") finds (at 100 50) in a list
func FindNode(n *Node, key string) (*Node, bool) {
	if n.IsLeaf() {
		return nil, false
	}
	for _, c := range n.Children {
		if !c.IsLeaf() && c.Name() == key {
			return c, true
		}
	}
	return nil, false
}

// FindAllNodes returns every child list whose name is key.
func FindAllNodes(n *Node, key string) []*Node {
	if n.IsLeaf() {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if !c.IsLeaf() && c.Name() == key {
			out = append(out, c)
		}
	}
	return out
}

// GetString returns the atom at index; index 0 is the key.
func GetString(n *Node, index int) (string, error) {
	if n.IsLeaf() {
		return "", fmt.Errorf("line %d: expected list, got atom %q", n.Line, n.Value)
	}
	c := n.At(index)
	if c == nil {
		return "", fmt.Errorf("line %d: %s: index %d out of bounds (length %d)", n.Line, n.Name(), index, n.Len())
	}
	if !c.IsLeaf() {
		return "", fmt.Errorf("line %d: %s: expected atom at index %d", n.Line, n.Name(), index)
	}
	return c.Value, nil
}

// GetFloat parses the atom at index as a float.
func GetFloat(n *Node, index int) (float64, error) {
	str, err := GetString(n, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: failed to parse float %q: %w", n.Line, str, err)
	}
	return v, nil
}

func GetInt(n *Node, index int) (int, error) {
	str, err := GetString(n, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("line %d: failed to parse int %q: %w", n.Line, str, err)
	}
	return v, nil
}

// HasSymbol reports whether the list holds the bare atom symbol, as in
// (pin_names hide).
func HasSymbol(n *Node, symbol string) bool {
	if n.IsLeaf() {
		return false
	}
	for _, c := range n.Children[min(1, len(n.Children)):] {
		if c.IsLeaf() && !c.Quoted && c.Value == symbol {
			return true
		}
	}
	return false
}

// GetFlag reads KiCad boolean fields. Both (key yes) and a bare (key) or
// key atom count as set.
func GetFlag(n *Node, key string) bool {
	if node, ok := FindNode(n, key); ok {
		v, err := GetString(node, 1)
		return err != nil || v == "yes" || v == "true"
	}
	return HasSymbol(n, key)
}

// GetPosition reads an (at X Y [angle]) node. Schematic coordinates are
// millimeters and angles are degrees.
func GetPosition(n *Node) (PositionAngle, error) {
	if n.Name() != "at" {
		return PositionAngle{}, fmt.Errorf("line %d: expected (at X Y [angle]), got %s", n.Line, n.Name())
	}
	x, err := GetFloat(n, 1)
	if err != nil {
		return PositionAngle{}, fmt.Errorf("failed to parse X coordinate: %w", err)
	}
	y, err := GetFloat(n, 2)
	if err != nil {
		return PositionAngle{}, fmt.Errorf("failed to parse Y coordinate: %w", err)
	}
	pa := PositionAngle{Position: Position{X: x, Y: y}}
	if n.Len() > 3 {
		if a, err := GetFloat(n, 3); err == nil {
			pa.Angle = a
		}
	}
	return pa, nil
}

// GetAt finds and reads the (at ...) child of n.
func GetAt(n *Node) (PositionAngle, error) {
	at, ok := FindNode(n, "at")
	if !ok {
		return PositionAngle{}, fmt.Errorf("line %d: %s: missing position", n.Line, n.Name())
	}
	return GetPosition(at)
}

// GetPoints reads the (xy X Y) entries of a (pts ...) child.
func GetPoints(n *Node) ([]Position, error) {
	pts, ok := FindNode(n, "pts")
	if !ok {
		return nil, fmt.Errorf("line %d: %s: missing pts", n.Line, n.Name())
	}
	var out []Position
	for _, xy := range FindAllNodes(pts, "xy") {
		x, err := GetFloat(xy, 1)
		if err != nil {
			return nil, err
		}
		y, err := GetFloat(xy, 2)
		if err != nil {
			return nil, err
		}
		out = append(out, Position{X: x, Y: y})
	}
	return out, nil
}

// GetUUID returns the text of the (uuid ...) child, or "".
func GetUUID(n *Node) string {
	if node, ok := FindNode(n, "uuid"); ok {
		v, _ := GetString(node, 1)
		return v
	}
	return ""
}

// GetProperty returns the value of (property "key" "value" ...).
func GetProperty(n *Node, key string) (string, bool) {
	for _, p := range FindAllNodes(n, "property") {
		k, err := GetString(p, 1)
		if err != nil || k != key {
			continue
		}
		v, _ := GetString(p, 2)
		return v, true
	}
	return "", false
}
