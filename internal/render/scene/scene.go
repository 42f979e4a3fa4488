// Package scene turns a WorldState into layered, depth-sorted draw lists.
// The scene owns every image it creates; structure sprites with an
// animator survive rebuilds so their phase is not restarted, everything
// else is released and rebuilt on each Sync.
package scene

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sort"
	"time"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
	"github.com/MarvinTM/replaceableParts-sub002/internal/core/walls"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placeholders"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placement"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

// ErrDisposed is returned by Sync after Dispose.
var ErrDisposed = errors.New("scene disposed")

// Textures resolves texture keys. A false result means the art is not
// available (yet); the scene draws a placeholder meanwhile.
type Textures interface {
	Texture(key string) (render.Image, bool)
}

// Options configures a scene.
type Options struct {
	TileWidth  float64
	TileHeight float64
	WallHeight float64 // height of back walls; front walls are a quarter of it
	Mode       Mode
	Seed       int64 // animator randomness
	Logger     *slog.Logger

	// OnTextureMiss is called when a sprite is created with placeholder art.
	OnTextureMiss func(key string)
	// OnRelease is called for every released sprite.
	OnRelease func(*Sprite)
}

// DefaultOptions returns 64x32 tiles and continuous animation.
func DefaultOptions() Options {
	return Options{
		TileWidth:  64,
		TileHeight: 32,
		WallHeight: 24,
		Mode:       ModeContinuous,
	}
}

// Stats counts sprite lifecycle events since the scene was created.
type Stats struct {
	Syncs        int
	Created      int
	Reused       int
	Released     int
	Placeholders int
}

// Preview is the placement overlay shown while dragging.
type Preview struct {
	Kind     gamestate.Kind
	Type     string
	X, Y     int
	Valid    bool
	MovingID string // structure being moved, "" for new placements
}

var (
	terrainColor   = color.RGBA{34, 40, 30, 255}
	gridColor      = color.RGBA{255, 255, 255, 24}
	validColor     = color.RGBA{60, 200, 90, 110}
	invalidColor   = color.RGBA{220, 60, 60, 110}
	validOutline   = color.RGBA{60, 200, 90, 255}
	invalidOutline = color.RGBA{220, 60, 60, 255}
)

const (
	terrainMargin    = 2
	frontWallDivisor = 4
)

// Scene is the factory floor scene.
type Scene struct {
	r     render.Renderer
	tex   Textures
	rules *simulation.Rules
	opts  Options
	iso   projection.Iso
	log   *slog.Logger

	layers  [layerCount][]Element
	sprites map[string]*Sprite // by SpriteKey
	byID    map[string]*Sprite

	placeholderImgs map[string]render.Image
	glyph           render.Image

	preview    *Preview
	previewEls []Element
	ghost      *Sprite

	effects  Effects
	speed    float64
	mode     Mode
	seq      int64
	stats    Stats
	disposed bool
}

// New creates an empty scene. tex may be nil, in which case every
// structure uses placeholder art.
func New(r render.Renderer, tex Textures, rules *simulation.Rules, opts Options) *Scene {
	def := DefaultOptions()
	if opts.TileWidth <= 0 {
		opts.TileWidth = def.TileWidth
	}
	if opts.TileHeight <= 0 {
		opts.TileHeight = def.TileHeight
	}
	if opts.WallHeight <= 0 {
		opts.WallHeight = def.WallHeight
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scene{
		r:               r,
		tex:             tex,
		rules:           rules,
		opts:            opts,
		iso:             projection.NewIso(opts.TileWidth, opts.TileHeight),
		log:             logger.With("component", "scene"),
		sprites:         make(map[string]*Sprite),
		byID:            make(map[string]*Sprite),
		placeholderImgs: make(map[string]render.Image),
		speed:           1,
		mode:            opts.Mode,
	}
}

// Iso returns the scene projection.
func (s *Scene) Iso() projection.Iso { return s.iso }

// Stats returns lifecycle counters.
func (s *Scene) Stats() Stats { return s.stats }

// Mode returns the animation mode.
func (s *Scene) Mode() Mode { return s.mode }

// Effects returns the production particle set.
func (s *Scene) Effects() *Effects { return &s.effects }

// Sync rebuilds every layer from state. Animated sprites are carried over
// by structure id and type; all other sprites from the previous build are
// released.
func (s *Scene) Sync(state *gamestate.WorldState) error {
	if s.disposed {
		return ErrDisposed
	}
	fps, err := placement.Footprints(state, s.rules)
	if err != nil {
		return fmt.Errorf("scene sync: %w", err)
	}

	for i := range s.layers {
		s.layers[i] = s.layers[i][:0]
	}
	mask := placement.NewFloorMask(state.FloorSpace)
	s.buildGround(state.FloorSpace, mask)
	s.buildWalls(mask)

	prev := s.sprites
	s.sprites = make(map[string]*Sprite, len(fps))
	s.byID = make(map[string]*Sprite, len(fps))
	for _, fp := range fps {
		sp := s.structureSprite(state, fp, prev)
		s.sprites[sp.Key()] = sp
		s.byID[sp.ID] = sp
		s.layers[LayerStructures] = append(s.layers[LayerStructures], Element{
			Key:    "structure:" + sp.ID,
			Layer:  LayerStructures,
			SortY:  sp.Anchor.Y,
			SortX:  sp.Anchor.X,
			Sprite: sp,
		})
		if sp.Dim {
			s.addGlyph(sp)
		}
	}
	for _, sp := range prev {
		s.release(sp)
	}

	for i := range s.layers {
		sortElements(s.layers[i])
	}
	s.buildPreview()
	s.stats.Syncs++
	return nil
}

func (s *Scene) buildGround(fs gamestate.FloorSpace, mask placement.FloorMask) {
	minX, minY, maxX, maxY := 0, 0, fs.Width, fs.Height
	for _, c := range fs.Chunks {
		minX, minY = min(minX, c.X), min(minY, c.Y)
		maxX, maxY = max(maxX, c.X+c.Width), max(maxY, c.Y+c.Height)
	}

	m := terrainMargin
	t := s.iso.FootprintCorners(minX-m, minY-m, maxX-minX+2*m, maxY-minY+2*m)
	s.layers[LayerTerrain] = append(s.layers[LayerTerrain], Element{
		Key:   "terrain",
		Layer: LayerTerrain,
		Poly:  t[:],
		Fill:  terrainColor,
	})

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			c := s.iso.GridToScreen(float64(x), float64(y))
			corners := s.iso.TileCorners(x, y)
			s.layers[LayerGrid] = append(s.layers[LayerGrid], Element{
				Key:    fmt.Sprintf("grid:%d,%d", x, y),
				Layer:  LayerGrid,
				SortY:  c.Y,
				SortX:  c.X,
				Poly:   corners[:],
				Stroke: gridColor,
			})
		}
	}

	base := placeholders.ColorFor(placeholders.Floor)
	for _, cell := range mask.Cells() {
		fill := base
		if (cell.X+cell.Y)%2 != 0 {
			fill = placeholders.Lighten(base, 0.08)
		}
		c := s.iso.GridToScreen(float64(cell.X), float64(cell.Y))
		corners := s.iso.TileCorners(cell.X, cell.Y)
		s.layers[LayerFloor] = append(s.layers[LayerFloor], Element{
			Key:   fmt.Sprintf("floor:%d,%d", cell.X, cell.Y),
			Layer: LayerFloor,
			SortY: c.Y,
			SortX: c.X,
			Poly:  corners[:],
			Fill:  fill,
		})
	}
}

// wallCorners maps a side to the pair of tile corners it spans.
var wallCorners = map[walls.Side][2]int{
	walls.Left:  {0, 3},
	walls.Right: {1, 2},
	walls.Up:    {2, 3},
	walls.Down:  {0, 1},
}

// BackWall reports whether a wall on this side faces the viewer from
// behind the floor. Back walls are drawn full height.
func BackWall(side walls.Side) bool {
	return side == walls.Left || side == walls.Down
}

func (s *Scene) buildWalls(mask placement.FloorMask) {
	wall := placeholders.ColorFor(placeholders.Wall)
	for _, e := range walls.Derive(mask) {
		idx := wallCorners[e.Side]
		tc := s.iso.TileCorners(e.Cell.X, e.Cell.Y)
		a, b := tc[idx[0]], tc[idx[1]]

		h := s.opts.WallHeight
		fill := placeholders.Darken(wall, 0.8)
		if !BackWall(e.Side) {
			h /= frontWallDivisor
			fill = wall
		}
		s.layers[LayerWalls] = append(s.layers[LayerWalls], Element{
			Key:   fmt.Sprintf("wall:%d,%d:%s", e.Cell.X, e.Cell.Y, e.Side),
			Layer: LayerWalls,
			SortY: (a.Y + b.Y) / 2,
			SortX: (a.X + b.X) / 2,
			Poly: []projection.Point{
				a, b,
				{X: b.X, Y: b.Y - h},
				{X: a.X, Y: a.Y - h},
			},
			Fill:   fill,
			Stroke: placeholders.Darken(wall, 0.5),
		})
	}
}

// structureInfo is the catalog view of one placed structure.
type structureInfo struct {
	label     string
	texture   string
	category  placeholders.Category
	animation *simulation.Animation
	active    bool
	dim       bool
}

func (s *Scene) describe(state *gamestate.WorldState, fp placement.Footprint) structureInfo {
	var info structureInfo
	switch fp.Kind {
	case gamestate.KindMachine:
		info.category = placeholders.Machine
		if def, ok := s.rules.Machine(fp.Type); ok {
			info.label, info.texture, info.animation = def.Name, def.Sprite, def.Animation
			if def.IsResearchFacility {
				info.category = placeholders.Research
			}
		}
		if m := state.MachineByID(fp.ID); m != nil {
			info.active = m.Enabled && m.Status == gamestate.StatusWorking
			info.dim = m.Status == gamestate.StatusBlocked
		}
	case gamestate.KindGenerator:
		info.category = placeholders.Generator
		if def, ok := s.rules.Generator(fp.Type); ok {
			info.label, info.texture, info.animation = def.Name, def.Sprite, def.Animation
		}
		if g := state.GeneratorByID(fp.ID); g != nil {
			info.active = g.Powered
			info.dim = !g.Powered
		}
	}
	if info.texture == "" {
		info.texture = fp.Type
	}
	return info
}

func (s *Scene) structureSprite(state *gamestate.WorldState, fp placement.Footprint, prev map[string]*Sprite) *Sprite {
	info := s.describe(state, fp)
	key := SpriteKey(fp.ID, fp.Type)

	sp, reused := prev[key]
	reused = reused && sp.Anim != nil && sp.animation == info.animation
	if reused {
		delete(prev, key)
		s.stats.Reused++
	} else {
		sp = s.newSprite(fp.ID, fp.Kind, fp.Type, info)
		s.stats.Created++
	}

	sp.Footprint = fp.Rect
	sp.Anchor = s.iso.StructureAnchor(fp.Rect.X, fp.Rect.Y, fp.Rect.W, fp.Rect.H)
	sp.Dim = info.dim
	if sp.Anim != nil {
		sp.Anim.SetActive(info.active)
	}
	s.applyTint(sp)
	s.resolve(sp)
	if !reused && sp.placeholder {
		s.miss(sp.texture)
	}
	return sp
}

func (s *Scene) newSprite(id string, kind gamestate.Kind, typ string, info structureInfo) *Sprite {
	sp := &Sprite{
		ID:        id,
		Type:      typ,
		Kind:      kind,
		Category:  info.category,
		Label:     info.label,
		texture:   info.texture,
		animation: info.animation,
	}
	if info.animation != nil && info.animation.Frames > 1 {
		s.seq++
		sp.Anim = NewAnimator(*info.animation, s.modeFor(kind), s.opts.Seed+s.seq)
	}
	return sp
}

func (s *Scene) miss(key string) {
	s.stats.Placeholders++
	s.log.Debug("placeholder sprite", "texture", key)
	if s.opts.OnTextureMiss != nil {
		s.opts.OnTextureMiss(key)
	}
}

// modeFor returns the animator mode of a structure kind. Generators cycle
// whenever they run unless animation is off.
func (s *Scene) modeFor(kind gamestate.Kind) Mode {
	if kind == gamestate.KindGenerator && s.mode != ModeDisabled {
		return ModeContinuous
	}
	return s.mode
}

func (s *Scene) lookup(key string) (render.Image, bool) {
	if s.tex == nil {
		return nil, false
	}
	img, ok := s.tex.Texture(key)
	if !ok || img == nil {
		return nil, false
	}
	return img, true
}

// resolve picks the image for the sprite's current frame and refits it
// to the footprint.
func (s *Scene) resolve(sp *Sprite) {
	frame := 0
	if sp.Anim != nil {
		frame = sp.Anim.Frame()
	}
	key, slot := sp.frameKey(frame)
	img, ok := s.lookup(key)
	if !ok && key != sp.texture {
		img, ok = s.lookup(sp.texture)
		slot = -1
	}
	if ok {
		if slot >= 0 {
			img = stripFrame(img, sp.animation.Frames, slot)
		}
		sp.placeholder = false
	} else {
		img = s.placeholderFor(sp)
		sp.placeholder = true
	}
	sp.image = img
	sp.geo, sp.bounds = fit(s.iso, sp.Footprint, img)
}

func (s *Scene) placeholderFor(sp *Sprite) render.Image {
	key := fmt.Sprintf("%s|%s|%dx%d", sp.Kind, sp.Type, sp.Footprint.W, sp.Footprint.H)
	if img, ok := s.placeholderImgs[key]; ok {
		return img
	}
	hw, hh := int(s.iso.HalfW), int(s.iso.HalfH)
	img := s.r.NewImageFromImage(placeholders.Structure(sp.Category, sp.Label,
		max(sp.Footprint.W, 1), max(sp.Footprint.H, 1), hw, hh, placeholders.BoxHeight*hh))
	s.placeholderImgs[key] = img
	return img
}

func (s *Scene) applyTint(sp *Sprite) {
	sp.tint.Reset()
	if sp.Dim {
		if sp.Kind == gamestate.KindGenerator {
			sp.tint.Scale(0.5, 0.5, 0.5, 1)
		} else {
			sp.tint.Scale(0.6, 0.5, 0.5, 1)
		}
	}
	if s.preview != nil && s.preview.MovingID != "" && s.preview.MovingID == sp.ID {
		sp.tint.ScaleAlpha(0.35)
	}
}

func (s *Scene) glyphImage() render.Image {
	if s.glyph == nil {
		size := max(int(s.opts.TileHeight*0.75), 8)
		s.glyph = s.r.NewImageFromImage(placeholders.PowerGlyph(size))
	}
	return s.glyph
}

func (s *Scene) addGlyph(sp *Sprite) {
	img := s.glyphImage()
	w, h := img.Size()
	var g render.GeoM
	g.Translate(sp.Anchor.X-float64(w)/2, sp.Anchor.Y-float64(placeholders.BoxHeight)*s.iso.HalfH-float64(h)/2)
	s.layers[LayerOverlay] = append(s.layers[LayerOverlay], Element{
		Key:   "glyph:" + sp.ID,
		Layer: LayerOverlay,
		SortY: sp.Anchor.Y,
		SortX: sp.Anchor.X,
		Image: img,
		GeoM:  g,
	})
}

func (s *Scene) release(sp *Sprite) {
	if sp == nil || sp.released {
		return
	}
	sp.released = true
	sp.image = nil
	sp.Anim = nil
	s.stats.Released++
	if s.opts.OnRelease != nil {
		s.opts.OnRelease(sp)
	}
}

// SetSpeed sets the animation playback multiplier; 0 freezes animations.
func (s *Scene) SetSpeed(speed float64) {
	s.speed = max(speed, 0)
}

// SetMode switches the animation mode of every sprite.
func (s *Scene) SetMode(m Mode) {
	s.mode = m
	for _, sp := range s.sprites {
		if sp.Anim != nil {
			sp.Anim.SetMode(s.modeFor(sp.Kind))
		}
	}
}

// SetPreview shows, moves or (with nil) hides the placement overlay.
func (s *Scene) SetPreview(p *Preview) {
	var oldMoving string
	if s.preview != nil {
		oldMoving = s.preview.MovingID
	}
	if p != nil {
		cp := *p
		p = &cp
	}
	s.preview = p
	if sp := s.byID[oldMoving]; sp != nil {
		s.applyTint(sp)
	}
	if p != nil {
		if sp := s.byID[p.MovingID]; sp != nil {
			s.applyTint(sp)
		}
	}
	s.buildPreview()
}

// Preview returns the current overlay, nil when hidden.
func (s *Scene) Preview() *Preview { return s.preview }

func (s *Scene) buildPreview() {
	s.previewEls = s.previewEls[:0]
	p := s.preview
	if p == nil || s.disposed {
		s.release(s.ghost)
		s.ghost = nil
		return
	}
	sx, sy, ok := s.rules.StructureSize(p.Kind, p.Type)
	if !ok {
		s.release(s.ghost)
		s.ghost = nil
		return
	}

	fill, outline := validColor, validOutline
	if !p.Valid {
		fill, outline = invalidColor, invalidOutline
	}
	corners := s.iso.FootprintCorners(p.X, p.Y, sx, sy)
	s.previewEls = append(s.previewEls, Element{
		Key:    "preview",
		Layer:  LayerOverlay,
		Poly:   corners[:],
		Fill:   fill,
		Stroke: outline,
	})

	fresh := s.ghost == nil || s.ghost.Kind != p.Kind || s.ghost.Type != p.Type
	if fresh {
		s.release(s.ghost)
		info := s.describe(&gamestate.WorldState{}, placement.Footprint{Kind: p.Kind, Type: p.Type})
		s.ghost = s.newSprite("", p.Kind, p.Type, info)
	}
	g := s.ghost
	g.Footprint = placement.Rect{X: p.X, Y: p.Y, W: sx, H: sy}
	g.Anchor = s.iso.StructureAnchor(p.X, p.Y, sx, sy)
	s.resolve(g)
	if fresh && g.placeholder {
		s.miss(g.texture)
	}
	g.tint.Reset()
	if p.Valid {
		g.tint.ScaleAlpha(0.6)
	} else {
		g.tint.Scale(1, 0.5, 0.5, 0.6)
	}
	s.previewEls = append(s.previewEls, Element{
		Key:    "preview:ghost",
		Layer:  LayerOverlay,
		SortY:  g.Anchor.Y,
		Sprite: g,
	})
}

// Update advances animations and effects by one frame of wall-clock time.
// Sprites are re-resolved so art that finished loading replaces
// placeholders.
func (s *Scene) Update(dt time.Duration) {
	if s.disposed {
		return
	}
	for _, sp := range s.sprites {
		if sp.Anim == nil && !sp.placeholder {
			continue
		}
		if sp.Anim != nil {
			sp.Anim.Update(dt, s.speed)
		}
		s.resolve(sp)
	}
	if s.ghost != nil && s.ghost.placeholder {
		s.resolve(s.ghost)
	}
	s.effects.Update(dt)
}

// Emit spawns production particles for a tick report. Particles rise from
// the producing machine, one per output material.
func (s *Scene) Emit(report *simulation.StepReport) {
	if report == nil || s.disposed {
		return
	}
	rise := 1.5 * s.opts.TileHeight
	for _, ev := range report.Produced {
		sp := s.byID[ev.MachineID]
		if sp == nil {
			continue
		}
		mats := make([]string, 0, len(ev.Outputs))
		for id := range ev.Outputs {
			mats = append(mats, id)
		}
		sort.Strings(mats)
		for i, id := range mats {
			cat := placeholders.Category(simulation.CategoryRaw)
			if mat, ok := s.rules.Material(id); ok {
				cat = placeholders.Category(mat.Category)
			}
			dx := float64(i) * s.iso.HalfW / 2
			from := projection.Point{X: sp.Anchor.X + dx, Y: sp.Anchor.Y - s.iso.HalfH}
			s.effects.Add(Particle{
				Material: id,
				Label:    countLabel(ev.Outputs[id]),
				From:     from,
				To:       projection.Point{X: from.X, Y: from.Y - rise},
				Color:    placeholders.ColorFor(cat),
			})
		}
	}
}

// Draw composes every layer onto dst. view maps world pixels to the
// screen (camera pan and zoom).
func (s *Scene) Draw(dst render.Image, view render.GeoM) {
	if s.disposed {
		return
	}
	for l := LayerTerrain; l < layerCount; l++ {
		if l == LayerOverlay {
			for i := range s.previewEls {
				drawElement(s.r, dst, &s.previewEls[i], view)
			}
		}
		for i := range s.layers[l] {
			drawElement(s.r, dst, &s.layers[l][i], view)
		}
	}
	s.effects.Draw(s.r, dst, view)
}

// Elements returns a copy of a layer's sorted draw list.
func (s *Scene) Elements(l Layer) []Element {
	if l < 0 || l >= layerCount {
		return nil
	}
	return append([]Element(nil), s.layers[l]...)
}

// Sprites returns the live structure sprites in draw order.
func (s *Scene) Sprites() []*Sprite {
	out := make([]*Sprite, 0, len(s.layers[LayerStructures]))
	for _, el := range s.layers[LayerStructures] {
		out = append(out, el.Sprite)
	}
	return out
}

// SpriteByID returns the sprite of a structure.
func (s *Scene) SpriteByID(id string) (*Sprite, bool) {
	sp, ok := s.byID[id]
	return sp, ok
}

// Ghost returns the preview sprite, nil when no preview is shown.
func (s *Scene) Ghost() *Sprite { return s.ghost }

// Dispose releases every sprite and image the scene owns and closes the
// texture source when it supports it. The scene is unusable afterwards.
func (s *Scene) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	for _, sp := range s.sprites {
		s.release(sp)
	}
	s.release(s.ghost)
	s.ghost = nil
	s.sprites = map[string]*Sprite{}
	s.byID = map[string]*Sprite{}
	for i := range s.layers {
		s.layers[i] = nil
	}
	s.previewEls = nil
	s.effects.Clear()

	for key, img := range s.placeholderImgs {
		img.Dispose()
		delete(s.placeholderImgs, key)
	}
	if s.glyph != nil {
		s.glyph.Dispose()
		s.glyph = nil
	}
	if c, ok := s.tex.(interface{ Close() }); ok {
		c.Close()
	}
}
