package scene

import (
	"image/color"
	"sort"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

// Layer is a composition pass. Layers draw in declaration order.
type Layer int

const (
	LayerTerrain Layer = iota
	LayerGrid
	LayerFloor
	LayerWalls
	LayerStructures
	LayerOverlay
	layerCount
)

func (l Layer) String() string {
	switch l {
	case LayerTerrain:
		return "terrain"
	case LayerGrid:
		return "grid"
	case LayerFloor:
		return "floor"
	case LayerWalls:
		return "walls"
	case LayerStructures:
		return "structures"
	case LayerOverlay:
		return "overlay"
	}
	return "unknown"
}

// Element is one drawable of a layer. It is either a world-space polygon,
// a structure sprite or a free image placed by GeoM.
type Element struct {
	Key   string
	Layer Layer
	// Painter's order within the layer: screen Y, then screen X, then key.
	SortY, SortX float64

	Poly   []projection.Point
	Fill   color.Color
	Stroke color.Color

	Sprite *Sprite

	Image render.Image
	GeoM  render.GeoM
	Tint  render.ColorScale
}

func sortElements(els []Element) {
	sort.SliceStable(els, func(i, j int) bool {
		a, b := &els[i], &els[j]
		if a.SortY != b.SortY {
			return a.SortY < b.SortY
		}
		if a.SortX != b.SortX {
			return a.SortX < b.SortX
		}
		return a.Key < b.Key
	})
}

func drawElement(r render.Renderer, dst render.Image, el *Element, view render.GeoM) {
	switch {
	case el.Sprite != nil:
		sp := el.Sprite
		if sp.image == nil {
			return
		}
		op := &render.DrawImageOptions{}
		op.GeoM = sp.geo
		op.GeoM.Concat(view)
		op.ColorScale = sp.tint
		dst.DrawImage(sp.image, op)

	case el.Image != nil:
		op := &render.DrawImageOptions{}
		op.GeoM = el.GeoM
		op.GeoM.Concat(view)
		op.ColorScale = el.Tint
		dst.DrawImage(el.Image, op)

	case len(el.Poly) > 0:
		pts := make([]render.Vec2, len(el.Poly))
		for i, p := range el.Poly {
			x, y := view.Apply(p.X, p.Y)
			pts[i] = render.Vec2{X: float32(x), Y: float32(y)}
		}
		if el.Fill != nil {
			r.FillPolygon(dst, pts, el.Fill)
		}
		if el.Stroke != nil {
			for i := range pts {
				a, b := pts[i], pts[(i+1)%len(pts)]
				r.StrokeLine(dst, a.X, a.Y, b.X, b.Y, 1, el.Stroke)
			}
		}
	}
}
