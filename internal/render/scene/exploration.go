package scene

import (
	"fmt"
	"image/color"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placeholders"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

var terrainColors = map[simulation.Terrain]color.RGBA{
	simulation.TerrainPlains:   {110, 150, 80, 255},
	simulation.TerrainForest:   {50, 100, 50, 255},
	simulation.TerrainHills:    {140, 125, 90, 255},
	simulation.TerrainWater:    {50, 90, 160, 255},
	simulation.TerrainMountain: {115, 110, 110, 255},
}

var (
	fogColor      = color.RGBA{20, 20, 24, 255}
	frontierColor = color.RGBA{45, 45, 52, 255}
)

// ExplorationScene draws the top-down exploration map. Tile contents are
// derived from the world seed; only explored tiles show terrain and
// resources.
type ExplorationScene struct {
	r     render.Renderer
	rules *simulation.Rules
	proj  projection.TopDown

	tiles      []Element
	markers    []Element
	extractors []Element

	markerImgs map[string]render.Image
	extractor  render.Image
	disposed   bool
}

// NewExploration creates an exploration scene with square tiles.
func NewExploration(r render.Renderer, rules *simulation.Rules, tileSize float64) *ExplorationScene {
	if tileSize <= 0 {
		tileSize = 32
	}
	return &ExplorationScene{
		r:          r,
		rules:      rules,
		proj:       projection.TopDown{TileSize: tileSize},
		markerImgs: make(map[string]render.Image),
	}
}

// Projection returns the map projection.
func (e *ExplorationScene) Projection() projection.TopDown { return e.proj }

// Sync rebuilds the map from state.
func (e *ExplorationScene) Sync(state *gamestate.WorldState) error {
	if e.disposed {
		return ErrDisposed
	}
	ex := &state.Exploration
	explored := make(map[gamestate.Cell]bool, len(ex.Explored))
	for _, c := range ex.Explored {
		explored[c] = true
	}
	frontier := func(x, y int) bool {
		return explored[gamestate.Cell{X: x - 1, Y: y}] || explored[gamestate.Cell{X: x + 1, Y: y}] ||
			explored[gamestate.Cell{X: x, Y: y - 1}] || explored[gamestate.Cell{X: x, Y: y + 1}]
	}

	e.tiles = e.tiles[:0]
	e.markers = e.markers[:0]
	e.extractors = e.extractors[:0]
	ts := e.proj.TileSize
	for y := 0; y < ex.Height; y++ {
		for x := 0; x < ex.Width; x++ {
			tl := e.proj.GridToScreen(x, y)
			el := Element{
				Key:   fmt.Sprintf("tile:%d,%d", x, y),
				Layer: LayerTerrain,
				SortY: tl.Y,
				SortX: tl.X,
				Poly: []projection.Point{
					tl,
					{X: tl.X + ts, Y: tl.Y},
					{X: tl.X + ts, Y: tl.Y + ts},
					{X: tl.X, Y: tl.Y + ts},
				},
				Stroke: gridColor,
			}
			switch {
			case explored[gamestate.Cell{X: x, Y: y}]:
				tile := e.rules.TileAt(state.Seed, x, y)
				el.Fill = terrainColors[tile.Terrain]
				if tile.Resource != nil && ex.ExtractorAt(x, y) == nil {
					e.addMarker(x, y, tile.Resource.MaterialID)
				}
			case frontier(x, y):
				el.Fill = frontierColor
			default:
				el.Fill = fogColor
			}
			e.tiles = append(e.tiles, el)
		}
	}

	for _, x := range ex.Extractors {
		e.addExtractor(x)
	}
	return nil
}

func (e *ExplorationScene) addMarker(x, y int, material string) {
	img, ok := e.markerImgs[material]
	if !ok {
		cat := placeholders.Raw
		if m, found := e.rules.Material(material); found {
			cat = placeholders.Category(m.Category)
		}
		size := max(int(e.proj.TileSize/2), 4)
		col := placeholders.ColorFor(cat)
		img = e.r.NewImageFromImage(placeholders.CreateCircle(size, col, placeholders.Darken(col, 0.6)))
		e.markerImgs[material] = img
	}
	w, h := img.Size()
	c := e.proj.CellCenter(x, y)
	var g render.GeoM
	g.Translate(c.X-float64(w)/2, c.Y-float64(h)/2)
	e.markers = append(e.markers, Element{
		Key:   fmt.Sprintf("resource:%d,%d", x, y),
		Layer: LayerOverlay,
		SortY: c.Y,
		SortX: c.X,
		Image: img,
		GeoM:  g,
	})
}

func (e *ExplorationScene) addExtractor(x gamestate.Extractor) {
	if e.extractor == nil {
		half := max(int(e.proj.TileSize/4), 2)
		e.extractor = e.r.NewImageFromImage(placeholders.Structure(placeholders.Extractor, "", 1, 1, half, half/2, half))
	}
	w, h := e.extractor.Size()
	c := e.proj.CellCenter(x.X, x.Y)
	var g render.GeoM
	g.Translate(c.X-float64(w)/2, c.Y-float64(h)/2)
	e.extractors = append(e.extractors, Element{
		Key:   "extractor:" + x.ID,
		Layer: LayerStructures,
		SortY: c.Y,
		SortX: c.X,
		Image: e.extractor,
		GeoM:  g,
	})
}

// Tiles returns the tile elements in row-major order.
func (e *ExplorationScene) Tiles() []Element { return append([]Element(nil), e.tiles...) }

// Markers returns the resource markers of explored tiles without an extractor.
func (e *ExplorationScene) Markers() []Element { return append([]Element(nil), e.markers...) }

// Extractors returns the extractor elements.
func (e *ExplorationScene) Extractors() []Element { return append([]Element(nil), e.extractors...) }

// Draw renders tiles, markers and extractors.
func (e *ExplorationScene) Draw(dst render.Image, view render.GeoM) {
	if e.disposed {
		return
	}
	for _, list := range [][]Element{e.tiles, e.markers, e.extractors} {
		for i := range list {
			drawElement(e.r, dst, &list[i], view)
		}
	}
}

// Dispose frees the scene's images.
func (e *ExplorationScene) Dispose() {
	if e.disposed {
		return
	}
	e.disposed = true
	for k, img := range e.markerImgs {
		img.Dispose()
		delete(e.markerImgs, k)
	}
	if e.extractor != nil {
		e.extractor.Dispose()
		e.extractor = nil
	}
	e.tiles, e.markers, e.extractors = nil, nil, nil
}
