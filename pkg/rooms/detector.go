// Package rooms derives interior-side classifications for walls. Per level,
// it rasterizes the committed wall set onto a fine occupancy grid, flood
// fills exterior space from the raster boundary, numbers the enclosed
// regions as rooms, and classifies each wall face by the region it borders.
// A fingerprint of the wall set short-circuits unchanged levels, so the pass
// is safe to invoke on every editor tick.
package rooms

import (
	"crypto/sha256"
	"fmt"
	"math"
	"sort"

	"github.com/mvetre/atrium/pkg/scene"
)

// Params tunes the detection pass.
type Params struct {
	// Resolution is the occupancy cell edge in world units, independent of
	// the coarser editing snap grid.
	Resolution float64
	// Margin pads the wall bounding box so the exterior fill always has a
	// clear ring to start from.
	Margin float64
	// MaxGridDim caps the raster per axis; a stray far-away wall cannot
	// balloon memory, it degrades resolution instead.
	MaxGridDim int
	// ParallelEps is the angular tolerance (radians) for treating two wall
	// segments as parallel when sizing the side-probe depth past doubled-up
	// walls.
	ParallelEps float64
	// OnSegmentEps pads the wall rectangle during rasterization so endpoint
	// cells stay covered despite float rounding.
	OnSegmentEps float64
}

// DefaultParams returns the tuned defaults.
func DefaultParams() Params {
	return Params{
		Resolution:   0.1,
		Margin:       0.5,
		MaxGridDim:   4096,
		ParallelEps:  0.1,
		OnSegmentEps: 0.001,
	}
}

// Delta instructs the scene to update one wall's interior-side
// classification. It is the pass's only output; no other field is touched.
type Delta struct {
	NodeID scene.NodeID
	Side   scene.InteriorSide
}

// Detector caches per-level wall-set fingerprints so unchanged levels
// short-circuit. One Detector serves one scene at a time; Reset clears the
// cache when the scene is swapped.
type Detector struct {
	params       Params
	fingerprints map[scene.NodeID]string
}

// NewDetector creates a detector with the given parameters. Zero-valued
// fields fall back to DefaultParams.
func NewDetector(p Params) *Detector {
	def := DefaultParams()
	if p.Resolution <= 0 {
		p.Resolution = def.Resolution
	}
	if p.Margin <= 0 {
		p.Margin = def.Margin
	}
	if p.MaxGridDim <= 0 {
		p.MaxGridDim = def.MaxGridDim
	}
	if p.ParallelEps <= 0 {
		p.ParallelEps = def.ParallelEps
	}
	if p.OnSegmentEps <= 0 {
		p.OnSegmentEps = def.OnSegmentEps
	}
	return &Detector{params: p, fingerprints: make(map[scene.NodeID]string)}
}

// Reset drops all cached fingerprints.
func (d *Detector) Reset() {
	d.fingerprints = make(map[scene.NodeID]string)
}

// wallSeg is one committed wall in level-local coordinates.
type wallSeg struct {
	id        scene.NodeID
	start     scene.Vec2
	end       scene.Vec2
	thickness float64
	stored    scene.InteriorSide
}

// Process recomputes interior sides for one level and returns deltas for
// walls whose classification changed. Unchanged wall sets (by fingerprint)
// return nil immediately; an emptied level updates the fingerprint but
// produces no deltas. The pass never fails on degenerate geometry: it
// clamps and skips instead, since it runs after every mutation.
func (d *Detector) Process(s *scene.Scene, levelID scene.NodeID) []Delta {
	segs := collectWalls(s, levelID)

	fp := fingerprint(segs)
	if d.fingerprints[levelID] == fp {
		return nil
	}
	d.fingerprints[levelID] = fp
	if len(segs) == 0 {
		return nil
	}

	g := d.rasterize(segs)
	g.floodExterior()
	g.numberRooms()

	var deltas []Delta
	for _, seg := range segs {
		side := d.classify(g, seg, segs)
		if side != seg.stored {
			deltas = append(deltas, Delta{NodeID: seg.id, Side: side})
		}
	}
	return deltas
}

// Apply writes deltas back through ordinary scene updates. Kept separate
// from Process so callers can inspect or batch the instructions first.
func Apply(s *scene.Scene, deltas []Delta) {
	for _, dl := range deltas {
		side := dl.Side
		// Update failures mean the wall vanished between detect and apply;
		// the next pass will reconcile.
		_ = s.UpdateNode(dl.NodeID, scene.Patch{InteriorSide: &side})
	}
}

// collectWalls gathers the committed walls of a level, including walls
// nested inside transformable groups, with endpoints composed into
// level-local coordinates. Preview walls never appear: the scene's Find
// excludes them wholesale.
func collectWalls(s *scene.Scene, levelID scene.NodeID) []wallSeg {
	handles := s.Find(scene.Filter{Kinds: []scene.NodeKind{scene.KindWall}, LevelID: levelID})
	segs := make([]wallSeg, 0, len(handles))
	for _, h := range handles {
		n := h.Data()
		wd, ok := n.Data.(scene.WallData)
		if !ok {
			continue
		}
		parent := h.Parent()
		if parent == nil {
			continue
		}
		t, _, err := s.LevelTransform(parent.ID())
		if err != nil {
			continue
		}
		segs = append(segs, wallSeg{
			id:        n.ID,
			start:     t.Apply(wd.Start),
			end:       t.Apply(wd.End),
			thickness: wd.Thickness,
			stored:    wd.InteriorSide,
		})
	}
	sort.Slice(segs, func(i, j int) bool { return segs[i].id < segs[j].id })
	return segs
}

// fingerprint digests the wall set (id, endpoints, thickness) sorted by id
// so the digest is order independent. Classification state is deliberately
// excluded: applying deltas must not re-dirty the level.
func fingerprint(segs []wallSeg) string {
	h := sha256.New()
	for _, s := range segs {
		fmt.Fprintf(h, "%s:%.6f,%.6f;%.6f,%.6f;%.6f\n",
			s.id, s.start.X, s.start.Y, s.end.X, s.end.Y, s.thickness)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// rasterize builds the occupancy grid over the wall bounding box and marks
// every cell covered by a wall rectangle (centerline plus/minus half the
// thickness). Zero-length walls mark the single cell under their point.
func (d *Detector) rasterize(segs []wallSeg) *grid {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, s := range segs {
		half := s.thickness / 2
		minX = math.Min(minX, math.Min(s.start.X, s.end.X)-half)
		minY = math.Min(minY, math.Min(s.start.Y, s.end.Y)-half)
		maxX = math.Max(maxX, math.Max(s.start.X, s.end.X)+half)
		maxY = math.Max(maxY, math.Max(s.start.Y, s.end.Y)+half)
	}
	minX -= d.params.Margin
	minY -= d.params.Margin
	maxX += d.params.Margin
	maxY += d.params.Margin

	res := d.params.Resolution
	w := int(math.Ceil((maxX-minX)/res)) + 1
	h := int(math.Ceil((maxY-minY)/res)) + 1
	if w > d.params.MaxGridDim {
		res = (maxX - minX) / float64(d.params.MaxGridDim-1)
		w = d.params.MaxGridDim
		h = int(math.Ceil((maxY-minY)/res)) + 1
	}
	if h > d.params.MaxGridDim {
		res = (maxY - minY) / float64(d.params.MaxGridDim-1)
		h = d.params.MaxGridDim
		w = int(math.Ceil((maxX-minX)/res)) + 1
	}
	g := newGrid(minX, minY, res, w, h)

	for _, s := range segs {
		d.markWall(g, s)
	}
	return g
}

// markWall marks the cells covered by one wall rectangle by testing cell
// centers against the oriented box, with half a cell of slack so grazing
// cells still register.
func (d *Detector) markWall(g *grid, s wallSeg) {
	dir := s.end.Sub(s.start)
	length := dir.Length()
	if length == 0 {
		cx, cy := g.cellOf(s.start.X, s.start.Y)
		g.set(cx, cy, cellWall)
		return
	}
	u := dir.Scale(1 / length)
	half := s.thickness / 2
	slack := g.res/2 + d.params.OnSegmentEps

	pad := half + slack
	x0, y0 := g.cellOf(math.Min(s.start.X, s.end.X)-pad, math.Min(s.start.Y, s.end.Y)-pad)
	x1, y1 := g.cellOf(math.Max(s.start.X, s.end.X)+pad, math.Max(s.start.Y, s.end.Y)+pad)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			px := g.originX + (float64(cx)+0.5)*g.res
			py := g.originY + (float64(cy)+0.5)*g.res
			rel := scene.Vec2{X: px - s.start.X, Y: py - s.start.Y}
			along := rel.X*u.X + rel.Y*u.Y
			across := rel.X*(-u.Y) + rel.Y*u.X
			if along >= -slack && along <= length+slack && math.Abs(across) <= half+slack {
				g.set(cx, cy, cellWall)
			}
		}
	}
}

// classify samples cells offset perpendicular to the wall on both faces and
// reports which faces resolve to a room. The front face is to the left of
// the start-to-end direction. Probes step outward past WALL cells up to a
// depth sized from the thickest parallel neighbor, so doubled-up walls do
// not mask a room behind them.
func (d *Detector) classify(g *grid, s wallSeg, all []wallSeg) scene.InteriorSide {
	dir := s.end.Sub(s.start)
	length := dir.Length()
	if length == 0 {
		return scene.SideNeither
	}
	u := dir.Scale(1 / length)
	normal := u.Perp() // front side

	probeDepth := d.probeDepth(g, s, all)
	frontRoom := d.sideIsRoom(g, s, u, normal, length, probeDepth)
	backRoom := d.sideIsRoom(g, s, u, normal.Scale(-1), length, probeDepth)

	switch {
	case frontRoom && backRoom:
		return scene.SideBoth
	case frontRoom:
		return scene.SideFront
	case backRoom:
		return scene.SideBack
	default:
		return scene.SideNeither
	}
}

// probeDepth returns how many cells past the wall face a side probe may
// step. Walls running parallel within ParallelEps close by deepen the probe
// by their thickness, so a doubled-up wall does not mask the room behind
// it; perpendicular junction walls do not.
func (d *Detector) probeDepth(g *grid, s wallSeg, all []wallSeg) int {
	dir := s.end.Sub(s.start)
	length := dir.Length()
	if length == 0 {
		return 0
	}
	angle := math.Atan2(dir.Y, dir.X)
	reach := s.thickness + 2*g.res

	maxThick := 0.0
	for _, o := range all {
		if o.id == s.id {
			continue
		}
		odir := o.end.Sub(o.start)
		if odir.Length() == 0 {
			continue
		}
		da := angleDiff(angle, math.Atan2(odir.Y, odir.X))
		if da > d.params.ParallelEps {
			continue
		}
		if segDistance(s.start, s.end, o.start, o.end) > reach+o.thickness/2 {
			continue
		}
		maxThick = math.Max(maxThick, o.thickness)
	}
	if maxThick == 0 {
		return 0
	}
	return int(math.Ceil(maxThick/g.res)) + 1
}

// angleDiff folds the difference of two segment angles into [0, pi/2]:
// segments have no direction, so a and a+pi are the same orientation.
func angleDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), math.Pi)
	if d > math.Pi/2 {
		d = math.Pi - d
	}
	return d
}

// segDistance returns the minimum distance between two segments.
func segDistance(a0, a1, b0, b1 scene.Vec2) float64 {
	return math.Min(
		math.Min(pointSegDist(a0, b0, b1), pointSegDist(a1, b0, b1)),
		math.Min(pointSegDist(b0, a0, a1), pointSegDist(b1, a0, a1)),
	)
}

func pointSegDist(p, a, b scene.Vec2) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return p.Sub(a).Length()
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Sub(a.Add(ab.Scale(t))).Length()
}

// sideIsRoom samples along the wall at one face and reports whether any
// sample resolves to a room cell. Samples near the endpoints are skipped to
// avoid bleeding around corners at junctions.
func (d *Detector) sideIsRoom(g *grid, s wallSeg, u, normal scene.Vec2, length float64, depth int) bool {
	base := s.thickness/2 + g.res
	step := math.Max(g.res*2, length/64)
	inset := math.Min(s.thickness, length/4)
	for t := inset; t <= length-inset; t += step {
		p := s.start.Add(u.Scale(t))
		for k := 0; k <= depth; k++ {
			off := base + float64(k)*g.res
			q := p.Add(normal.Scale(off))
			cx := int((q.X - g.originX) / g.res)
			cy := int((q.Y - g.originY) / g.res)
			v := g.at(cx, cy)
			if v >= cellRoomBase {
				return true
			}
			if v != cellWall {
				break // empty-turned-exterior space; probing deeper leaves this face
			}
		}
	}
	return false
}
