package interaction

import (
	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render/scene"
)

// HitTest finds the structure under a world position. Structures whose
// footprint contains the ground cell win; otherwise the sprite art is
// tested (bounds, then alpha). Among several candidates the frontmost,
// with the highest anchor screen-Y, is picked.
func HitTest(sprites []*scene.Sprite, iso projection.Iso, wx, wy float64) (*scene.Sprite, bool) {
	cell := iso.Cell(wx, wy)
	if sp := frontmost(sprites, func(sp *scene.Sprite) bool {
		return sp.Footprint.Contains(cell.X, cell.Y)
	}); sp != nil {
		return sp, true
	}
	if sp := frontmost(sprites, func(sp *scene.Sprite) bool {
		return sp.Opaque(wx, wy)
	}); sp != nil {
		return sp, true
	}
	return nil, false
}

// frontmost returns the matching sprite with the largest anchor Y. Ties go
// to the later sprite, which is drawn on top.
func frontmost(sprites []*scene.Sprite, match func(*scene.Sprite) bool) *scene.Sprite {
	var best *scene.Sprite
	for _, sp := range sprites {
		if sp == nil || sp.Released() || !match(sp) {
			continue
		}
		if best == nil || sp.Anchor.Y >= best.Anchor.Y {
			best = sp
		}
	}
	return best
}
