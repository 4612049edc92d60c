package flash

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/smit-ai/flash-engine/body"
)

// cellKey holds the coordinates of one cell in grid space
type cellKey struct {
	X, Y int
}

// SpatialGrid is a uniform hashed grid broadphase. Bodies are inserted into
// every cell their fattened bound overlaps; pairs sharing a cell are packed
// into canonical integer keys, sorted and deduplicated. The cost is dominated
// by the sort, which is fine for loosely clustered scenes.
type SpatialGrid struct {
	cellSize float32
	cells    [][]int32
	cellMask int

	bounds  []body.AABB // per body id, fattened
	live    []bool
	pairBuf []uint64
}

// NewSpatialGrid creates a grid with cells of the given size. numCells is
// rounded up to a power of two.
func NewSpatialGrid(cellSize float32, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([][]int32, numCells)
	for i := range cells {
		cells[i] = make([]int32, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// CreateProxy records a body's bound; the proxy handle is the body id itself
func (sg *SpatialGrid) CreateProxy(id int32, bounds body.AABB) int32 {
	for int(id) >= len(sg.bounds) {
		sg.bounds = append(sg.bounds, body.AABB{})
		sg.live = append(sg.live, false)
	}
	sg.bounds[id] = bounds
	sg.live[id] = true
	return id
}

// MoveProxy stores the new bound; the grid is rebuilt on every query so the
// handle never changes
func (sg *SpatialGrid) MoveProxy(proxy int32, bounds body.AABB) int32 {
	sg.bounds[proxy] = bounds
	return proxy
}

// QueryPairs rebuilds the cells from the stored bounds and emits every
// overlapping pair exactly once, in canonical order
func (sg *SpatialGrid) QueryPairs(out []Pair) int {
	for i := range sg.cells {
		sg.cells[i] = sg.cells[i][:0]
	}

	for id, aabb := range sg.bounds {
		if !sg.live[id] {
			continue
		}
		minX, minY := sg.worldToCell(aabb.Min)
		maxX, maxY := sg.worldToCell(aabb.Max)
		for y := minY; y <= maxY; y++ {
			for x := minX; x <= maxX; x++ {
				idx := sg.hashCell(cellKey{x, y})
				sg.cells[idx] = append(sg.cells[idx], int32(id))
			}
		}
	}

	// Collect all co-located pairs as packed keys, then sort and remove
	// adjacent duplicates
	sg.pairBuf = sg.pairBuf[:0]
	for _, ids := range sg.cells {
		for j := 0; j < len(ids); j++ {
			for k := j + 1; k < len(ids); k++ {
				lo, hi := ids[j], ids[k]
				if lo > hi {
					lo, hi = hi, lo
				}
				if lo == hi {
					continue
				}
				sg.pairBuf = append(sg.pairBuf, uint64(lo)<<32|uint64(hi))
			}
		}
	}
	slices.Sort(sg.pairBuf)

	count := 0
	var prev uint64
	for i, key := range sg.pairBuf {
		if i > 0 && key == prev {
			continue
		}
		prev = key

		a := int32(key >> 32)
		b := int32(key & 0xFFFFFFFF)
		// Cell co-location is not overlap; filter on the exact bounds
		if !sg.bounds[a].Overlaps(sg.bounds[b]) {
			continue
		}
		if count >= len(out) {
			break
		}
		out[count] = Pair{A: a, B: b}
		count++
	}
	return count
}

func (sg *SpatialGrid) worldToCell(pos mgl32.Vec2) (int, int) {
	return int(math32.Floor(pos.X() / sg.cellSize)), int(math32.Floor(pos.Y() / sg.cellSize))
}

func (sg *SpatialGrid) hashCell(key cellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663)
	return h & sg.cellMask
}
