// Package spatial provides a uniform-grid index over node bounding boxes,
// bucketed per level. It is a pure acceleration structure: deleting it and
// rebuilding from the scene graph must always produce query-equivalent
// results, which is the property its tests pin down.
package spatial

import (
	"math"
	"sort"
)

// DefaultCellSize is the grid cell edge length in world units.
const DefaultCellSize = 1.0

// Bounds is an axis-aligned box in level-local grid units.
type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// NewBounds returns a normalized box covering both corner points.
func NewBounds(x0, y0, x1, y1 float64) Bounds {
	return Bounds{
		MinX: math.Min(x0, x1), MinY: math.Min(y0, y1),
		MaxX: math.Max(x0, x1), MaxY: math.Max(y0, y1),
	}
}

// Expand grows the box by d on every side.
func (b Bounds) Expand(d float64) Bounds {
	return Bounds{MinX: b.MinX - d, MinY: b.MinY - d, MaxX: b.MaxX + d, MaxY: b.MaxY + d}
}

// Union returns the smallest box covering both b and o.
func (b Bounds) Union(o Bounds) Bounds {
	return Bounds{
		MinX: math.Min(b.MinX, o.MinX), MinY: math.Min(b.MinY, o.MinY),
		MaxX: math.Max(b.MaxX, o.MaxX), MaxY: math.Max(b.MaxY, o.MaxY),
	}
}

// Intersects reports whether the boxes overlap. Touching edges count as an
// intersection so zero-area boxes still match geometry they sit on.
func (b Bounds) Intersects(o Bounds) bool {
	return b.MinX <= o.MaxX && o.MinX <= b.MaxX &&
		b.MinY <= o.MaxY && o.MinY <= b.MaxY
}

// CellKey identifies one grid cell within a level.
type CellKey struct {
	X int
	Y int
}

// entry tracks the cells occupied by one node so removal does not need to
// recompute the span from bounds.
type entry struct {
	bounds Bounds
	cells  []CellKey
}

// levelGrid is the bucket set for a single level.
type levelGrid struct {
	cells   map[CellKey][]string
	entries map[string]*entry
}

func newLevelGrid() *levelGrid {
	return &levelGrid{
		cells:   make(map[CellKey][]string),
		entries: make(map[string]*entry),
	}
}

// Index maps level id to a uniform grid of cell buckets; each bucket holds
// the ids of nodes whose bounds overlap that cell. A node spanning several
// cells appears in each of them.
type Index struct {
	cellSize    float64
	invCellSize float64
	levels      map[string]*levelGrid
}

// NewIndex creates an empty index. A non-positive cell size falls back to
// DefaultCellSize.
func NewIndex(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Index{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		levels:      make(map[string]*levelGrid),
	}
}

// Insert registers a node's bounds on a level, replacing any previous entry
// for the same id. Degenerate (zero-area) bounds occupy exactly the one cell
// containing their point.
func (ix *Index) Insert(levelID, nodeID string, b Bounds) {
	if nodeID == "" {
		return
	}
	lg, ok := ix.levels[levelID]
	if !ok {
		lg = newLevelGrid()
		ix.levels[levelID] = lg
	}
	if prev, exists := lg.entries[nodeID]; exists {
		lg.removeFromCells(nodeID, prev.cells)
	}
	cells := ix.cellsFor(b)
	lg.entries[nodeID] = &entry{bounds: b, cells: cells}
	for _, c := range cells {
		lg.cells[c] = append(lg.cells[c], nodeID)
	}
}

// Remove deletes a node from a level. Removing an unknown id is a no-op.
func (ix *Index) Remove(levelID, nodeID string) {
	lg, ok := ix.levels[levelID]
	if !ok {
		return
	}
	ent, ok := lg.entries[nodeID]
	if !ok {
		return
	}
	lg.removeFromCells(nodeID, ent.cells)
	delete(lg.entries, nodeID)
	if len(lg.entries) == 0 {
		delete(ix.levels, levelID)
	}
}

// Update replaces a node's bounds. Implemented as remove+insert.
func (ix *Index) Update(levelID, nodeID string, b Bounds) {
	ix.Remove(levelID, nodeID)
	ix.Insert(levelID, nodeID, b)
}

// Query returns the ids of all nodes on the level whose stored bounds
// intersect the query box, in sorted order. Only the buckets under the query
// span are visited, so cost is proportional to local density rather than
// total scene size.
func (ix *Index) Query(levelID string, b Bounds) []string {
	lg, ok := ix.levels[levelID]
	if !ok {
		return nil
	}
	b = normalize(b)
	seen := make(map[string]bool)
	var out []string
	for _, c := range ix.cellsFor(b) {
		for _, id := range lg.cells[c] {
			if seen[id] {
				continue
			}
			seen[id] = true
			if lg.entries[id].bounds.Intersects(b) {
				out = append(out, id)
			}
		}
	}
	sort.Strings(out)
	return out
}

// CellSize returns the grid cell edge length in world units.
func (ix *Index) CellSize() float64 {
	return ix.cellSize
}

// Count returns the number of indexed nodes on a level.
func (ix *Index) Count(levelID string) int {
	lg, ok := ix.levels[levelID]
	if !ok {
		return 0
	}
	return len(lg.entries)
}

// Levels returns the ids of levels with at least one indexed node, sorted.
func (ix *Index) Levels() []string {
	out := make([]string, 0, len(ix.levels))
	for id := range ix.levels {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (lg *levelGrid) removeFromCells(nodeID string, cells []CellKey) {
	for _, c := range cells {
		bucket := lg.cells[c]
		for i := range bucket {
			if bucket[i] != nodeID {
				continue
			}
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
		if len(bucket) == 0 {
			delete(lg.cells, c)
		} else {
			lg.cells[c] = bucket
		}
	}
}

// cellsFor computes the cell span overlapped by a box. A degenerate box
// yields the single cell containing its point.
func (ix *Index) cellsFor(b Bounds) []CellKey {
	b = normalize(b)
	minX := ix.coordToCell(b.MinX)
	minY := ix.coordToCell(b.MinY)
	maxX := ix.coordToCell(b.MaxX)
	maxY := ix.coordToCell(b.MaxY)
	cells := make([]CellKey, 0, (maxX-minX+1)*(maxY-minY+1))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cells = append(cells, CellKey{X: x, Y: y})
		}
	}
	return cells
}

func (ix *Index) coordToCell(v float64) int {
	return int(math.Floor(v * ix.invCellSize))
}

func normalize(b Bounds) Bounds {
	if b.MinX > b.MaxX {
		b.MinX, b.MaxX = b.MaxX, b.MinX
	}
	if b.MinY > b.MaxY {
		b.MinY, b.MaxY = b.MaxY, b.MinY
	}
	return b
}
