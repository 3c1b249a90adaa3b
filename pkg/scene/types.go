package scene

import "math"

// NodeID uniquely identifies a node within a document. IDs carry the node
// kind as a prefix for readability, e.g. "wall_3f29ab41c0d2".
type NodeID string

// ZeroID is the empty NodeID.
const ZeroID NodeID = ""

// IsZero reports whether the id is empty.
func (id NodeID) IsZero() bool { return id == "" }

func (id NodeID) String() string { return string(id) }

// Short returns a truncated form for error messages.
func (id NodeID) Short() string {
	if len(id) <= 16 {
		return string(id)
	}
	return string(id[:16]) + ".."
}

// Vec2 is a 2D point or vector in plan coordinates (grid units).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale returns v scaled by f.
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

// Length returns the Euclidean norm.
func (v Vec2) Length() float64 { return math.Hypot(v.X, v.Y) }

// Rotate rotates v by angle radians counter-clockwise about the origin.
func (v Vec2) Rotate(angle float64) Vec2 {
	s, c := math.Sincos(angle)
	return Vec2{v.X*c - v.Y*s, v.X*s + v.Y*c}
}

// Perp returns v rotated 90 degrees counter-clockwise.
func (v Vec2) Perp() Vec2 { return Vec2{-v.Y, v.X} }

// Transform is a rigid 2D transform: rotation about the local origin
// followed by translation.
type Transform struct {
	Translation Vec2
	Rotation    float64 // radians
}

// Apply maps a point in the local frame to the outer frame.
func (t Transform) Apply(p Vec2) Vec2 {
	return p.Rotate(t.Rotation).Add(t.Translation)
}

// Compose returns the transform equivalent to applying inner first, then t.
// Composition is associative, which is what lets world transforms be
// accumulated in a single walk from node to root.
func (t Transform) Compose(inner Transform) Transform {
	return Transform{
		Translation: t.Apply(inner.Translation),
		Rotation:    t.Rotation + inner.Rotation,
	}
}

// InteriorSide classifies which face(s) of a wall border enclosed rooms.
// The front face is the one to the left of the start-to-end direction.
type InteriorSide string

const (
	SideUnset   InteriorSide = ""        // not yet computed
	SideFront   InteriorSide = "front"   // only the front face borders a room
	SideBack    InteriorSide = "back"    // only the back face borders a room
	SideBoth    InteriorSide = "both"    // both faces border rooms
	SideNeither InteriorSide = "neither" // exterior wall on both faces
)

// ValidInteriorSides enumerates the computed classification values.
var ValidInteriorSides = map[InteriorSide]bool{
	SideFront:   true,
	SideBack:    true,
	SideBoth:    true,
	SideNeither: true,
}
