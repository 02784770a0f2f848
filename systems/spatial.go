// Package systems implements per-entity behavior: target acquisition,
// movement, feeding, metabolism, reproduction and death.
package systems

import (
	"math"

	"github.com/pthm-cable/garden/components"
)

// DefaultCellSize is the grid cell edge used by NewIndex callers in the orchestrator.
const DefaultCellSize = 50

// linearScanMax is the candidate count below which the grid is skipped.
const linearScanMax = 32

// maxCellsPerItem bounds the grid size relative to the candidate count.
const maxCellsPerItem = 4

// Index provides bounded nearest-candidate lookups over a fixed candidate
// slice using a cell-based grid. Results are identical to a linear scan over
// the slice: the nearest accepted candidate wins, and among equal distances
// the one earliest in the slice wins.
//
// Positions are captured at construction. Liveness and energy are evaluated
// at query time through the accept predicate.
type Index struct {
	items    []*components.Entity
	cellSize float64
	minX     float64
	minY     float64
	cols     int
	rows     int
	cells    [][]int32 // ascending item indices per cell
}

// NewIndex builds an index over items. The cell edge grows past cellSize
// when the items are spread so widely that the grid would exceed
// maxCellsPerItem cells per item. Non-finite positions disable the grid.
func NewIndex(items []*components.Entity, cellSize float64) *Index {
	idx := &Index{items: items, cellSize: cellSize}
	if len(items) <= linearScanMax || cellSize <= 0 {
		return idx
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, e := range items {
		minX = math.Min(minX, e.Position.X)
		minY = math.Min(minY, e.Position.Y)
		maxX = math.Max(maxX, e.Position.X)
		maxY = math.Max(maxY, e.Position.Y)
	}
	spanX, spanY := maxX-minX, maxY-minY
	if math.IsNaN(spanX+spanY) || math.IsInf(spanX+spanY, 0) {
		return idx
	}

	limit := float64(maxCellsPerItem * len(items))
	for (math.Floor(spanX/cellSize)+1)*(math.Floor(spanY/cellSize)+1) > limit {
		cellSize *= 2
	}
	idx.cellSize = cellSize
	idx.minX, idx.minY = minX, minY
	idx.cols = int(spanX/cellSize) + 1
	idx.rows = int(spanY/cellSize) + 1
	idx.cells = make([][]int32, idx.cols*idx.rows)

	for i, e := range items {
		c := idx.cellIndex(idx.col(e.Position.X), idx.row(e.Position.Y))
		idx.cells[c] = append(idx.cells[c], int32(i))
	}
	return idx
}

// Items returns the candidate slice the index was built over.
func (idx *Index) Items() []*components.Entity {
	if idx == nil {
		return nil
	}
	return idx.items
}

// Len returns the number of candidates.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.items)
}

// Nearest returns the closest candidate within radius of from that accept
// approves, and its distance. from itself is never returned.
func (idx *Index) Nearest(from *components.Entity, radius float64, accept func(*components.Entity) bool) (*components.Entity, float64, bool) {
	if idx == nil || len(idx.items) == 0 || !(radius >= 0) {
		return nil, 0, false
	}
	if idx.cells == nil || math.IsInf(radius, 1) {
		return NearestIn(from, idx.items, radius, accept)
	}

	p := from.Position
	c0, c1 := idx.col(p.X-radius), idx.col(p.X+radius)
	r0, r1 := idx.row(p.Y-radius), idx.row(p.Y+radius)

	best := int32(-1)
	var bestD float64
	for r := r0; r <= r1; r++ {
		for c := c0; c <= c1; c++ {
			for _, i := range idx.cells[idx.cellIndex(c, r)] {
				e := idx.items[i]
				if e == from || (accept != nil && !accept(e)) {
					continue
				}
				d := p.DistanceTo(e.Position)
				if d > radius {
					continue
				}
				if best < 0 || d < bestD || (d == bestD && i < best) {
					best, bestD = i, d
				}
			}
		}
	}
	if best < 0 {
		return nil, 0, false
	}
	return idx.items[best], bestD, true
}

// NearestIn scans candidates in order and returns the first-encountered
// minimum-distance candidate within radius that accept approves.
func NearestIn(from *components.Entity, candidates []*components.Entity, radius float64, accept func(*components.Entity) bool) (*components.Entity, float64, bool) {
	var best *components.Entity
	var bestD float64
	for _, e := range candidates {
		if e == from || (accept != nil && !accept(e)) {
			continue
		}
		d := from.Position.DistanceTo(e.Position)
		if d > radius {
			continue
		}
		if best == nil || d < bestD {
			best, bestD = e, d
		}
	}
	return best, bestD, best != nil
}

func (idx *Index) col(x float64) int {
	return clampCell((x-idx.minX)/idx.cellSize, idx.cols)
}

func (idx *Index) row(y float64) int {
	return clampCell((y-idx.minY)/idx.cellSize, idx.rows)
}

// clampCell floors v into [0, n). The comparison happens before the int
// conversion so far-away query points cannot overflow.
func clampCell(v float64, n int) int {
	v = math.Floor(v)
	if !(v >= 0) {
		return 0
	}
	if v >= float64(n) {
		return n - 1
	}
	return int(v)
}

func (idx *Index) cellIndex(col, row int) int {
	return row*idx.cols + col
}
