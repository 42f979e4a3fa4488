package interaction

import "github.com/MarvinTM/replaceableParts-sub002/internal/render"

// Camera tracks the viewport over the world.
//
//	screen = (world - (X, Y)) * Zoom
type Camera struct {
	X, Y    float64 // world position of the screen's top-left corner
	Zoom    float64
	MinZoom float64
	MaxZoom float64
}

// NewCamera returns a camera at zoom 1 that can zoom out to minZoom.
func NewCamera(minZoom float64) *Camera {
	if minZoom <= 0 || minZoom > 1 {
		minZoom = 0.25
	}
	return &Camera{Zoom: 1, MinZoom: minZoom, MaxZoom: 1}
}

func (c *Camera) clamp(z float64) float64 {
	return min(max(z, c.MinZoom), c.MaxZoom)
}

// ScreenToWorld converts a screen position to world pixels.
func (c *Camera) ScreenToWorld(sx, sy float64) (float64, float64) {
	return sx/c.Zoom + c.X, sy/c.Zoom + c.Y
}

// WorldToScreen converts world pixels to a screen position.
func (c *Camera) WorldToScreen(wx, wy float64) (float64, float64) {
	return (wx - c.X) * c.Zoom, (wy - c.Y) * c.Zoom
}

// Pan moves the view by a screen-space pointer delta, so the world follows
// the pointer.
func (c *Camera) Pan(dx, dy float64) {
	c.X -= dx / c.Zoom
	c.Y -= dy / c.Zoom
}

// SetZoom sets the zoom, clamped to [MinZoom, MaxZoom].
func (c *Camera) SetZoom(z float64) {
	c.Zoom = c.clamp(z)
}

// ZoomAt multiplies the zoom by factor keeping the world point under the
// screen anchor fixed.
func (c *Camera) ZoomAt(factor, sx, sy float64) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = c.clamp(c.Zoom * factor)
	c.X = wx - sx/c.Zoom
	c.Y = wy - sy/c.Zoom
}

// CenterOn places a world point in the middle of a screen of the given size.
func (c *Camera) CenterOn(wx, wy float64, screenW, screenH int) {
	c.X = wx - float64(screenW)/2/c.Zoom
	c.Y = wy - float64(screenH)/2/c.Zoom
}

// View returns the world-to-screen transform.
func (c *Camera) View() render.GeoM {
	var g render.GeoM
	g.Translate(-c.X, -c.Y)
	g.Scale(c.Zoom, c.Zoom)
	return g
}
