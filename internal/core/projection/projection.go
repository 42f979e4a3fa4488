// Package projection maps grid cells to screen positions and back.
// Two projections are provided: the isometric factory grid and the
// top-down exploration grid. Everything here is pure and stateless.
package projection

import "math"

// Point is a position in screen (or world pixel) space.
type Point struct {
	X, Y float64
}

// Cell is an integer grid coordinate.
type Cell struct {
	X, Y int
}

// GridPoint is a fractional grid coordinate, as produced by the inverse
// projections before snapping to a cell.
type GridPoint struct {
	X, Y float64
}

// Iso is the isometric projection used by the factory floor.
//
//	screen.x = (gx+gy)*HalfW
//	screen.y = (gx-gy)*HalfH
type Iso struct {
	HalfW float64 // half the tile width in pixels
	HalfH float64 // half the tile height in pixels
}

// NewIso builds an isometric projection from full tile dimensions.
func NewIso(tileWidth, tileHeight float64) Iso {
	return Iso{HalfW: tileWidth / 2, HalfH: tileHeight / 2}
}

// GridToScreen projects a (possibly fractional) grid position.
func (p Iso) GridToScreen(gx, gy float64) Point {
	return Point{
		X: (gx + gy) * p.HalfW,
		Y: (gx - gy) * p.HalfH,
	}
}

// ScreenToGrid is the exact inverse of GridToScreen.
func (p Iso) ScreenToGrid(sx, sy float64) GridPoint {
	// Inverse of [[hw, hw], [hh, -hh]]:
	// gx = (sx/hw + sy/hh) / 2, gy = (sx/hw - sy/hh) / 2
	a := sx / p.HalfW
	b := sy / p.HalfH
	return GridPoint{X: (a + b) / 2, Y: (a - b) / 2}
}

// Cell returns the grid cell whose tile diamond contains the screen point.
// Tile centers sit on integer grid coordinates, so the cell is the nearest
// integer position.
func (p Iso) Cell(sx, sy float64) Cell {
	g := p.ScreenToGrid(sx, sy)
	return Cell{X: int(math.Floor(g.X + 0.5)), Y: int(math.Floor(g.Y + 0.5))}
}

// FootprintCenter returns the grid-space center of a sizeX×sizeY footprint
// anchored at (x, y).
func FootprintCenter(x, y, sizeX, sizeY int) GridPoint {
	return GridPoint{
		X: float64(x) + float64(sizeX-1)/2,
		Y: float64(y) + float64(sizeY-1)/2,
	}
}

// StructureAnchor is the screen position a multi-cell structure is drawn
// centered on.
func (p Iso) StructureAnchor(x, y, sizeX, sizeY int) Point {
	c := FootprintCenter(x, y, sizeX, sizeY)
	return p.GridToScreen(c.X, c.Y)
}

// TileCorners returns the four corners of the diamond drawn for a cell, in
// order top, right, bottom, left.
func (p Iso) TileCorners(x, y int) [4]Point {
	c := p.GridToScreen(float64(x), float64(y))
	return [4]Point{
		{X: c.X, Y: c.Y - p.HalfH},
		{X: c.X + p.HalfW, Y: c.Y},
		{X: c.X, Y: c.Y + p.HalfH},
		{X: c.X - p.HalfW, Y: c.Y},
	}
}

// FootprintCorners returns the outline of a whole footprint: the screen
// positions of the outer corners of the rectangle [x, x+sizeX) × [y, y+sizeY).
func (p Iso) FootprintCorners(x, y, sizeX, sizeY int) [4]Point {
	x0 := float64(x) - 0.5
	y0 := float64(y) - 0.5
	x1 := x0 + float64(sizeX)
	y1 := y0 + float64(sizeY)
	return [4]Point{
		p.GridToScreen(x0, y1), // top
		p.GridToScreen(x1, y1), // right
		p.GridToScreen(x1, y0), // bottom
		p.GridToScreen(x0, y0), // left
	}
}

// TopDown is the square-grid projection used by the exploration map.
type TopDown struct {
	TileSize float64
}

// GridToScreen returns the top-left pixel of a cell.
func (p TopDown) GridToScreen(x, y int) Point {
	return Point{X: float64(x) * p.TileSize, Y: float64(y) * p.TileSize}
}

// ScreenToGrid uses floor division so negative coordinates map to the
// correct cell.
func (p TopDown) ScreenToGrid(sx, sy float64) Cell {
	return Cell{
		X: int(math.Floor(sx / p.TileSize)),
		Y: int(math.Floor(sy / p.TileSize)),
	}
}

// CellCenter returns the pixel center of a cell.
func (p TopDown) CellCenter(x, y int) Point {
	tl := p.GridToScreen(x, y)
	return Point{X: tl.X + p.TileSize/2, Y: tl.Y + p.TileSize/2}
}
