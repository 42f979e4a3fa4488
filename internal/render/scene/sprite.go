package scene

import (
	"fmt"
	"image"
	"math"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placeholders"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placement"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

// alphaThreshold is the minimum 16-bit alpha counted as opaque by hit tests.
const alphaThreshold = 0x1000

// Sprite is the visual of one placed structure. Animated sprites survive
// rebuilds; all others are released and recreated on every Sync.
type Sprite struct {
	ID        string
	Type      string
	Kind      gamestate.Kind
	Category  placeholders.Category
	Label     string
	Footprint placement.Rect
	Anchor    projection.Point // projected footprint center
	Dim       bool             // blocked machine or unpowered generator
	Anim      *Animator        // nil for still structures

	texture   string
	animation *simulation.Animation

	image       render.Image
	geo         render.GeoM
	tint        render.ColorScale
	bounds      [4]float64 // minX, minY, maxX, maxY in world pixels
	placeholder bool
	released    bool
}

// SpriteKey identifies a sprite across rebuilds.
func SpriteKey(id, typ string) string {
	return id + "|" + typ
}

// Key returns the reuse key.
func (s *Sprite) Key() string { return SpriteKey(s.ID, s.Type) }

// Image returns the frame currently shown.
func (s *Sprite) Image() render.Image { return s.image }

// GeoM returns the frame-to-world transform.
func (s *Sprite) GeoM() render.GeoM { return s.geo }

// Tint returns the color scale applied when drawing.
func (s *Sprite) Tint() render.ColorScale { return s.tint }

// Placeholder reports whether the sprite shows placeholder art.
func (s *Sprite) Placeholder() bool { return s.placeholder }

// Released reports whether the scene released the sprite.
func (s *Sprite) Released() bool { return s.released }

// Bounds returns the world-space bounding box of the drawn frame.
func (s *Sprite) Bounds() (minX, minY, maxX, maxY float64) {
	return s.bounds[0], s.bounds[1], s.bounds[2], s.bounds[3]
}

// Opaque reports whether the drawn frame has a visible pixel at the world
// position.
func (s *Sprite) Opaque(wx, wy float64) bool {
	if s.image == nil || wx < s.bounds[0] || wx >= s.bounds[2] || wy < s.bounds[1] || wy >= s.bounds[3] {
		return false
	}
	inv := s.geo
	if !inv.Invert() {
		return false
	}
	lx, ly := inv.Apply(wx, wy)
	b := s.image.Bounds()
	p := image.Pt(b.Min.X+int(math.Floor(lx)), b.Min.Y+int(math.Floor(ly)))
	if !p.In(b) {
		return false
	}
	_, _, _, a := s.image.At(p.X, p.Y).RGBA()
	return a >= alphaThreshold
}

// frameKey returns the texture key and strip slot of an animation frame.
// A negative slot means the key names the whole frame.
func (s *Sprite) frameKey(frame int) (key string, slot int) {
	if s.animation == nil || s.animation.Frames <= 1 {
		return s.texture, -1
	}
	if s.animation.SeparateFrames {
		return fmt.Sprintf("%s_%d", s.texture, frame+1), -1
	}
	return s.texture, frame
}

// fit scales img to the footprint width and stands it on the footprint's
// bottom corner.
func fit(iso projection.Iso, fp placement.Rect, img render.Image) (render.GeoM, [4]float64) {
	c := iso.FootprintCorners(fp.X, fp.Y, fp.W, fp.H)
	left, right, bottom := c[3].X, c[1].X, c[2].Y

	var g render.GeoM
	w, h := img.Size()
	if w == 0 || h == 0 {
		return g, [4]float64{left, bottom, left, bottom}
	}
	scale := (right - left) / float64(w)
	top := bottom - float64(h)*scale
	g.Scale(scale, scale)
	g.Translate(left, top)
	return g, [4]float64{left, top, right, bottom}
}

// stripFrame slices frame slot out of a horizontal strip.
func stripFrame(img render.Image, frames, slot int) render.Image {
	b := img.Bounds()
	w := b.Dx() / frames
	if w == 0 {
		return img
	}
	slot = min(max(slot, 0), frames-1)
	return img.SubImage(image.Rect(b.Min.X+slot*w, b.Min.Y, b.Min.X+(slot+1)*w, b.Max.Y))
}
