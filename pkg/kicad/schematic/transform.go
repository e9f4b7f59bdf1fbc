package schematic

import "math"

// Transform places library coordinates on the sheet: flip to Y down,
// rotate by Angle degrees counterclockwise, mirror, then translate.
type Transform struct {
	Origin Position
	Angle  float64
	// MirrorX flips about the horizontal axis, MirrorY about the vertical.
	MirrorX bool
	MirrorY bool
}

// SymbolTransform returns the placement transform of a symbol instance.
func SymbolTransform(s *Symbol) Transform {
	return Transform{
		Origin:  s.At.Position,
		Angle:   s.At.Angle,
		MirrorX: s.Mirror == "x",
		MirrorY: s.Mirror == "y",
	}
}

// Apply maps a library point to sheet coordinates.
func (t Transform) Apply(p Position) Position {
	x, y := p.X, -p.Y

	cos, sin := rightAngle(t.Angle)
	x, y = x*cos+y*sin, -x*sin+y*cos

	if t.MirrorX {
		y = -y
	}
	if t.MirrorY {
		x = -x
	}
	return Position{X: t.Origin.X + x, Y: t.Origin.Y + y}
}

// rightAngle returns exact values for multiples of 90 degrees.
func rightAngle(deg float64) (cos, sin float64) {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	switch d {
	case 0:
		return 1, 0
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	}
	rad := d * math.Pi / 180
	return math.Cos(rad), math.Sin(rad)
}
