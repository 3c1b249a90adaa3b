package scene

import (
	"fmt"
	"math"

	"github.com/mvetre/atrium/pkg/spatial"
)

// localFrame returns the transform from a node's child coordinate space to
// its parent's space. Only groups and walls define a frame; every other kind
// passes coordinates through unchanged. A wall's frame has its origin at
// Start with the x axis along the segment, so hosted doors and windows store
// plain along-the-wall offsets.
func localFrame(n *Node) Transform {
	switch d := n.Data.(type) {
	case GroupData:
		return Transform{Translation: d.Translation, Rotation: d.Rotation}
	case WallData:
		dir := d.End.Sub(d.Start)
		return Transform{Translation: d.Start, Rotation: math.Atan2(dir.Y, dir.X)}
	default:
		return Transform{}
	}
}

// WorldTransform composes the transform mapping a node's local coordinates
// to site coordinates by walking from the node to the root and accumulating
// each frame, rotation before translation. This is the single composition
// routine shared by room detection, collision bounds and export.
func (s *Scene) WorldTransform(id NodeID) (Transform, error) {
	n, ok := s.nodes[id]
	if !ok {
		return Transform{}, fmt.Errorf("world transform of %s: %w", id.Short(), ErrNotFound)
	}
	t := Transform{}
	for cur := n; cur != nil; cur = s.nodes[cur.ParentID] {
		t = localFrame(cur).Compose(t)
		if cur.ParentID.IsZero() {
			break
		}
	}
	return t, nil
}

// WorldPosition resolves the world-space location of the node's stored
// anchor point. Because the anchor lives in the parent's space, moving any
// ancestor moves the resolved position without touching the node itself.
func (s *Scene) WorldPosition(id NodeID) (Vec2, error) {
	n, ok := s.nodes[id]
	if !ok {
		return Vec2{}, fmt.Errorf("world position of %s: %w", id.Short(), ErrNotFound)
	}
	t := Transform{}
	if !n.ParentID.IsZero() {
		var err error
		t, err = s.WorldTransform(n.ParentID)
		if err != nil {
			return Vec2{}, err
		}
	}
	return t.Apply(anchorOf(n)), nil
}

// LevelTransform composes frames from a node's local space up to, but not
// including, its enclosing level, yielding local-to-level-local coordinates.
// The second result is the level id; ErrNotFound covers both an unknown node
// and a node outside any level.
func (s *Scene) LevelTransform(id NodeID) (Transform, NodeID, error) {
	n, ok := s.nodes[id]
	if !ok {
		return Transform{}, ZeroID, fmt.Errorf("level transform of %s: %w", id.Short(), ErrNotFound)
	}
	t := Transform{}
	for cur := n; cur != nil; cur = s.nodes[cur.ParentID] {
		if cur.Kind == KindLevel {
			return t, cur.ID, nil
		}
		t = localFrame(cur).Compose(t)
		if cur.ParentID.IsZero() {
			break
		}
	}
	return Transform{}, ZeroID, fmt.Errorf("%s is outside any level: %w", id.Short(), ErrNotFound)
}

// anchorOf returns the node's stored reference point in parent coordinates.
func anchorOf(n *Node) Vec2 {
	switch d := n.Data.(type) {
	case WallData:
		return d.Start
	case RoofData:
		return d.Start
	case StairSegmentData:
		return d.Start
	case DoorData:
		return d.Position
	case WindowData:
		return d.Position
	case ColumnData:
		return d.Position
	case ItemData:
		return d.Position
	case StairData:
		return d.Position
	case ImageData:
		return d.Position
	case ScanData:
		return d.Position
	case GroupData:
		return d.Translation
	default:
		return Vec2{}
	}
}

// levelBounds computes a node's axis-aligned bounding box in its level's
// local frame, for the spatial index. The second result is false for nodes
// with no spatial footprint or outside any level.
func (s *Scene) levelBounds(n *Node) (spatial.Bounds, bool) {
	t, _, err := s.LevelTransform(n.ID)
	if err != nil {
		return spatial.Bounds{}, false
	}
	switch d := n.Data.(type) {
	case WallData:
		// The wall's own frame is already part of t; the segment runs along
		// the local x axis from the origin.
		length := d.End.Sub(d.Start).Length()
		a := t.Apply(Vec2{0, 0})
		b := t.Apply(Vec2{length, 0})
		return spatial.NewBounds(a.X, a.Y, b.X, b.Y).Expand(d.Thickness / 2), true
	case ColumnData:
		return cornerBounds(t, d.Position, d.Size, d.Rotation), true
	case ItemData:
		return cornerBounds(t, d.Position, d.Size, d.Rotation), true
	default:
		return spatial.Bounds{}, false
	}
}

// cornerBounds maps the four corners of a rotated rectangle (center c, full
// size sz, local rotation rot) through t and returns their bounding box.
func cornerBounds(t Transform, c Vec2, sz Vec2, rot float64) spatial.Bounds {
	hx, hy := sz.X/2, sz.Y/2
	corners := [4]Vec2{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}}
	var b spatial.Bounds
	for i, corner := range corners {
		p := t.Apply(corner.Rotate(rot).Add(c))
		cb := spatial.NewBounds(p.X, p.Y, p.X, p.Y)
		if i == 0 {
			b = cb
		} else {
			b = b.Union(cb)
		}
	}
	return b
}
