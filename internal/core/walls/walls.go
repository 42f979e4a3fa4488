// Package walls derives wall edges from the shape of a floor.
//
// Walls are never stored: a tile gets a wall on a side exactly when the
// neighbouring cell on that side is not floor. Re-deriving on every render
// keeps walls consistent with floor-space expansion.
package walls

import (
	"sort"

	"github.com/zyedidia/generic/mapset"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
)

// Side identifies which edge of a floor tile a wall sits on.
type Side int

const (
	Left  Side = iota // x-1
	Right             // x+1
	Up                // y-1
	Down              // y+1
)

// String returns the side name.
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "unknown"
	}
}

// Offset returns the grid delta of the neighbour on this side.
func (s Side) Offset() (dx, dy int) {
	switch s {
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	}
	return 0, 0
}

// Shape is the floor a wall set is derived from.
type Shape interface {
	Contains(x, y int) bool
	Cells() []projection.Cell
}

// Edge is a wall on one side of one floor tile.
type Edge struct {
	Cell projection.Cell
	Side Side
}

// Run is a maximal straight wall made of adjacent edges on the same side.
type Run struct {
	Side  Side
	Start projection.Cell // first tile of the run
	Len   int             // number of tiles covered
}

// Mask reports, for one tile, which sides carry a wall.
type Mask struct {
	Left, Right, Up, Down bool
}

// Any reports whether the tile has at least one wall.
func (m Mask) Any() bool {
	return m.Left || m.Right || m.Up || m.Down
}

// TileMask returns the wall mask for a single floor tile. Non-floor cells
// never have walls.
func TileMask(shape Shape, x, y int) Mask {
	if !shape.Contains(x, y) {
		return Mask{}
	}
	return Mask{
		Left:  !shape.Contains(x-1, y),
		Right: !shape.Contains(x+1, y),
		Up:    !shape.Contains(x, y-1),
		Down:  !shape.Contains(x, y+1),
	}
}

// Derive returns every wall edge of the shape, ordered by cell (row-major)
// then side so the result is stable across calls.
func Derive(shape Shape) []Edge {
	cells := shape.Cells()
	sortCells(cells)

	var edges []Edge
	for _, c := range cells {
		for _, side := range []Side{Left, Right, Up, Down} {
			dx, dy := side.Offset()
			if !shape.Contains(c.X+dx, c.Y+dy) {
				edges = append(edges, Edge{Cell: c, Side: side})
			}
		}
	}
	return edges
}

// Merge combines adjacent colinear edges into runs. Left/Right walls run
// along y; Up/Down walls run along x.
func Merge(edges []Edge) []Run {
	bySide := make(map[Side]mapset.Set[projection.Cell])
	for _, e := range edges {
		set, ok := bySide[e.Side]
		if !ok {
			set = mapset.New[projection.Cell]()
			bySide[e.Side] = set
		}
		set.Put(e.Cell)
	}

	var runs []Run
	for _, side := range []Side{Left, Right, Up, Down} {
		set, ok := bySide[side]
		if !ok {
			continue
		}
		var cells []projection.Cell
		set.Each(func(c projection.Cell) {
			cells = append(cells, c)
		})
		sortCells(cells)

		stepX, stepY := 1, 0
		if side == Left || side == Right {
			stepX, stepY = 0, 1
		}

		used := mapset.New[projection.Cell]()
		for _, c := range cells {
			if used.Has(c) {
				continue
			}
			// Only start a run at its first tile.
			prev := projection.Cell{X: c.X - stepX, Y: c.Y - stepY}
			if set.Has(prev) {
				continue
			}
			run := Run{Side: side, Start: c}
			for cur := c; set.Has(cur); cur = (projection.Cell{X: cur.X + stepX, Y: cur.Y + stepY}) {
				used.Put(cur)
				run.Len++
			}
			runs = append(runs, run)
		}
	}
	return runs
}

// Regions splits the shape into 4-connected floor islands. Expansions that
// touch the original floor only diagonally show up as separate regions.
func Regions(shape Shape) [][]projection.Cell {
	cells := shape.Cells()
	sortCells(cells)

	visited := mapset.New[projection.Cell]()
	var regions [][]projection.Cell
	for _, start := range cells {
		if visited.Has(start) {
			continue
		}
		var region []projection.Cell
		queue := []projection.Cell{start}
		visited.Put(start)
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			region = append(region, cur)
			for _, side := range []Side{Up, Right, Down, Left} {
				dx, dy := side.Offset()
				n := projection.Cell{X: cur.X + dx, Y: cur.Y + dy}
				if visited.Has(n) || !shape.Contains(n.X, n.Y) {
					continue
				}
				visited.Put(n)
				queue = append(queue, n)
			}
		}
		sortCells(region)
		regions = append(regions, region)
	}
	return regions
}

func sortCells(cells []projection.Cell) {
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Y != cells[j].Y {
			return cells[i].Y < cells[j].Y
		}
		return cells[i].X < cells[j].X
	})
}
