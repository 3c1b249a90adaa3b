package rooms

// Occupancy cell states. Values >= cellRoomBase identify distinct rooms.
const (
	cellEmpty    int32 = 0
	cellWall     int32 = -1
	cellExterior int32 = -2
	cellRoomBase int32 = 1
)

// grid is the occupancy raster for one detection run. It covers the wall
// bounding box at fine resolution and is rebuilt from scratch per run, never
// persisted.
type grid struct {
	originX float64
	originY float64
	res     float64
	w, h    int
	cells   []int32
}

func newGrid(originX, originY, res float64, w, h int) *grid {
	return &grid{
		originX: originX,
		originY: originY,
		res:     res,
		w:       w,
		h:       h,
		cells:   make([]int32, w*h),
	}
}

func (g *grid) inBounds(cx, cy int) bool {
	return cx >= 0 && cx < g.w && cy >= 0 && cy < g.h
}

func (g *grid) at(cx, cy int) int32 {
	if !g.inBounds(cx, cy) {
		return cellExterior // everything beyond the raster is outside
	}
	return g.cells[cy*g.w+cx]
}

func (g *grid) set(cx, cy int, v int32) {
	if g.inBounds(cx, cy) {
		g.cells[cy*g.w+cx] = v
	}
}

// cellOf maps a level-local point to grid coordinates. Out-of-range points
// clamp to the raster edge so stray geometry cannot index past the buffer.
func (g *grid) cellOf(x, y float64) (int, int) {
	cx := int((x - g.originX) / g.res)
	cy := int((y - g.originY) / g.res)
	return clamp(cx, 0, g.w-1), clamp(cy, 0, g.h-1)
}

// floodExterior marks every empty cell reachable from the raster boundary.
// 4-connected, matching the room fill so a diagonal wall touch still seals.
func (g *grid) floodExterior() {
	var qx, qy []int
	push := func(cx, cy int) {
		if g.inBounds(cx, cy) && g.cells[cy*g.w+cx] == cellEmpty {
			g.cells[cy*g.w+cx] = cellExterior
			qx = append(qx, cx)
			qy = append(qy, cy)
		}
	}
	for x := 0; x < g.w; x++ {
		push(x, 0)
		push(x, g.h-1)
	}
	for y := 0; y < g.h; y++ {
		push(0, y)
		push(g.w-1, y)
	}
	for len(qx) > 0 {
		cx, cy := qx[0], qy[0]
		qx, qy = qx[1:], qy[1:]
		push(cx-1, cy)
		push(cx+1, cy)
		push(cx, cy-1)
		push(cx, cy+1)
	}
}

// numberRooms flood-fills each remaining empty component with a distinct
// room id and returns the number of rooms found.
func (g *grid) numberRooms() int {
	next := cellRoomBase
	var qx, qy []int
	for sy := 0; sy < g.h; sy++ {
		for sx := 0; sx < g.w; sx++ {
			if g.cells[sy*g.w+sx] != cellEmpty {
				continue
			}
			id := next
			next++
			g.cells[sy*g.w+sx] = id
			qx = append(qx[:0], sx)
			qy = append(qy[:0], sy)
			for len(qx) > 0 {
				cx, cy := qx[0], qy[0]
				qx, qy = qx[1:], qy[1:]
				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nx, ny := cx+d[0], cy+d[1]
					if g.inBounds(nx, ny) && g.cells[ny*g.w+nx] == cellEmpty {
						g.cells[ny*g.w+nx] = id
						qx = append(qx, nx)
						qy = append(qy, ny)
					}
				}
			}
		}
	}
	return int(next - cellRoomBase)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
