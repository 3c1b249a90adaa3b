// Package tessellate walks a scene and produces triangle meshes for the 3D
// viewer using a geometry kernel. Walls become slabs with door and window
// openings cut out, columns become boxes or cylinders, items become boxes.
// One mesh is produced per rendered node, tagged with the node id so the
// frontend can map picks back to the scene.
package tessellate

import (
	"fmt"

	"github.com/mvetre/atrium/pkg/kernel"
	"github.com/mvetre/atrium/pkg/scene"
)

// defaults for elements whose payloads omit vertical dimensions.
const (
	defaultWallHeight   = 2.8
	defaultDoorHeight   = 2.0
	defaultWindowHeight = 1.2
	defaultWindowSill   = 0.9
	defaultItemHeight   = 0.8
	zoneSlabThickness   = 0.02
)

// Tessellate produces meshes for every renderable committed node in the
// scene. Preview nodes and invisible nodes are skipped. The tessellator is
// read-only and never mutates the scene.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	handles := s.Find(scene.Filter{Kinds: []scene.NodeKind{
		scene.KindWall, scene.KindColumn, scene.KindItem, scene.KindZone,
	}})
	for _, h := range handles {
		n := h.Data()
		if !n.Visible {
			continue
		}
		solid, err := buildSolid(s, k, h)
		if err != nil {
			return nil, fmt.Errorf("tessellate %s: %w", n.ID.Short(), err)
		}
		if solid == nil {
			continue
		}
		mesh, err := k.ToMesh(solid)
		if err != nil {
			return nil, fmt.Errorf("tessellate %s: mesh: %w", n.ID.Short(), err)
		}
		mesh.NodeID = string(n.ID)
		meshes = append(meshes, mesh)
	}
	return meshes, nil
}

// buildSolid constructs the world-space solid for one node, or nil for
// nodes with no volume worth rendering.
func buildSolid(s *scene.Scene, k kernel.Kernel, h *scene.Handle) (kernel.Solid, error) {
	n := h.Data()
	switch d := n.Data.(type) {
	case scene.WallData:
		return wallSolid(s, k, h, d)
	case scene.ColumnData:
		return placedSolid(s, k, n, columnBody(k, d), d.Size, d.Rotation)
	case scene.ItemData:
		return placedSolid(s, k, n, k.Box(d.Size.X, d.Size.Y, defaultItemHeight), d.Size, d.Rotation)
	case scene.ZoneData:
		return zoneSolid(s, k, n, d)
	default:
		return nil, nil
	}
}

// wallSolid builds the wall slab in wall-local space (origin at Start, x
// along the segment), cuts out hosted door and window openings, then moves
// the result into world space. Cutting locally keeps opening positions the
// plain along-the-wall offsets their payloads store.
func wallSolid(s *scene.Scene, k kernel.Kernel, h *scene.Handle, d scene.WallData) (kernel.Solid, error) {
	length := d.End.Sub(d.Start).Length()
	if length == 0 {
		return nil, nil
	}
	height := d.Height
	if height <= 0 {
		height = defaultWallHeight
	}

	// Slab spans y in [-t/2, t/2] around the centerline.
	solid := k.Translate(k.Box(length, d.Thickness, height), 0, -d.Thickness/2, 0)

	for _, child := range h.Children() {
		cn := child.Data()
		if cn.Editor.Preview || !cn.Visible {
			continue
		}
		var opening kernel.Solid
		switch od := cn.Data.(type) {
		case scene.DoorData:
			oh := od.Height
			if oh <= 0 {
				oh = defaultDoorHeight
			}
			// Slightly overcut in y so the faces open cleanly.
			opening = k.Translate(
				k.Box(od.Width, d.Thickness*2, oh),
				od.Position.X-od.Width/2, -d.Thickness, 0)
		case scene.WindowData:
			oh := od.Height
			if oh <= 0 {
				oh = defaultWindowHeight
			}
			sill := od.Sill
			if sill <= 0 {
				sill = defaultWindowSill
			}
			opening = k.Translate(
				k.Box(od.Width, d.Thickness*2, oh),
				od.Position.X-od.Width/2, -d.Thickness, sill)
		default:
			continue
		}
		solid = k.Difference(solid, opening)
	}

	t, elevation, err := worldPlacement(s, h.ID())
	if err != nil {
		return nil, err
	}
	solid = k.RotateZ(solid, t.Rotation)
	return k.Translate(solid, t.Translation.X, t.Translation.Y, elevation), nil
}

// columnBody builds the column volume at the local origin.
func columnBody(k kernel.Kernel, d scene.ColumnData) kernel.Solid {
	if d.Round {
		r := d.Size.X / 2
		if d.Size.Y < d.Size.X {
			r = d.Size.Y / 2
		}
		return k.Cylinder(defaultWallHeight, r, 32)
	}
	return k.Box(d.Size.X, d.Size.Y, defaultWallHeight)
}

// placedSolid centers a footprint solid on its anchor position, applies the
// node's own rotation composed with its ancestors', and moves it into world
// space.
func placedSolid(s *scene.Scene, k kernel.Kernel, n scene.Node, body kernel.Solid, size scene.Vec2, rotation float64) (kernel.Solid, error) {
	// Footprint solids are corner-origin; recenter so rotation spins the
	// body about its anchor.
	body = k.Translate(body, -size.X/2, -size.Y/2, 0)

	t, elevation, err := worldPlacement(s, n.ID)
	if err != nil {
		return nil, err
	}
	if rot := t.Rotation + rotation; rot != 0 {
		body = k.RotateZ(body, rot)
	}
	p, err := s.WorldPosition(n.ID)
	if err != nil {
		return nil, err
	}
	return k.Translate(body, p.X, p.Y, elevation), nil
}

// zoneSolid renders a zone as a thin floor slab over its outline.
func zoneSolid(s *scene.Scene, k kernel.Kernel, n scene.Node, d scene.ZoneData) (kernel.Solid, error) {
	if len(d.Outline) < 3 {
		return nil, nil
	}
	t, elevation, err := worldPlacement(s, n.ID)
	if err != nil {
		return nil, err
	}
	outline := make([][2]float64, len(d.Outline))
	for i, p := range d.Outline {
		w := t.Apply(p)
		outline[i] = [2]float64{w.X, w.Y}
	}
	solid, err := k.Extrude(outline, zoneSlabThickness)
	if err != nil {
		return nil, err
	}
	return k.Translate(solid, 0, 0, elevation), nil
}

// worldPlacement resolves a node's local-to-world transform in plan
// coordinates plus the elevation of its enclosing level. Nodes outside a
// level (site annotations) sit at elevation zero.
func worldPlacement(s *scene.Scene, id scene.NodeID) (scene.Transform, float64, error) {
	t, err := s.WorldTransform(id)
	if err != nil {
		return scene.Transform{}, 0, err
	}
	elevation := 0.0
	if _, levelID, lerr := s.LevelTransform(id); lerr == nil {
		if h := s.GetNode(levelID); h != nil {
			if ld, ok := h.Data().Data.(scene.LevelData); ok {
				elevation = ld.Elevation
			}
		}
	}
	return t, elevation, nil
}
