package render

import (
	"image"
	"image/color"
	"math"
)

// Renderer is the main rendering interface that abstracts the underlying
// graphics engine. This allows swapping rendering backends without changing
// game logic.
type Renderer interface {
	// Image operations
	NewImage(width, height int) Image
	NewImageFromImage(src image.Image) Image

	// Vector operations (for drawing shapes)
	FillRect(dst Image, x, y, width, height float32, clr color.Color)
	StrokeRect(dst Image, x, y, width, height, strokeWidth float32, clr color.Color)
	StrokeLine(dst Image, x0, y0, x1, y1, strokeWidth float32, clr color.Color)
	FillCircle(dst Image, x, y, radius float32, clr color.Color)
	StrokeCircle(dst Image, x, y, radius float32, strokeWidth float32, clr color.Color)
	FillPolygon(dst Image, points []Vec2, clr color.Color)

	// Text operations
	DrawText(dst Image, text string, x, y int, clr color.Color, scale float64)
	MeasureText(text string, scale float64) (width, height int)
}

// Vec2 is a point in destination pixel space.
type Vec2 struct {
	X, Y float32
}

// Image represents a renderable image surface that can be drawn to or drawn from.
// It abstracts the underlying image implementation.
type Image interface {
	// Properties
	Bounds() image.Rectangle
	Size() (width, height int)

	// At returns the pixel color, used for alpha hit tests. Coordinates are
	// in the image's own bounds.
	At(x, y int) color.Color

	// Sub-image extraction
	SubImage(r image.Rectangle) Image

	// Fill operations
	Fill(clr color.Color)
	Clear()

	// Drawing operations
	DrawImage(src Image, opts *DrawImageOptions)

	// Resource management
	Dispose()
}

// DrawImageOptions contains options for drawing an image.
type DrawImageOptions struct {
	GeoM       GeoM
	ColorScale ColorScale
}

// GeoM is a 2D affine transform:
//
//	| a  b  tx |
//	| c  d  ty |
//
// The zero value is the identity.
type GeoM struct {
	aMinus1, b, c, dMinus1 float64
	tx, ty                 float64
}

// Element returns the matrix element at row i, column j (0 <= i < 2,
// 0 <= j < 3).
func (g *GeoM) Element(i, j int) float64 {
	switch {
	case i == 0 && j == 0:
		return g.aMinus1 + 1
	case i == 0 && j == 1:
		return g.b
	case i == 0 && j == 2:
		return g.tx
	case i == 1 && j == 0:
		return g.c
	case i == 1 && j == 1:
		return g.dMinus1 + 1
	case i == 1 && j == 2:
		return g.ty
	}
	panic("render: GeoM element out of range")
}

func (g *GeoM) set(a, b, c, d, tx, ty float64) {
	g.aMinus1, g.b, g.c, g.dMinus1, g.tx, g.ty = a-1, b, c, d-1, tx, ty
}

// Reset resets the matrix to identity.
func (g *GeoM) Reset() {
	*g = GeoM{}
}

// Translate shifts the result by (tx, ty).
func (g *GeoM) Translate(tx, ty float64) {
	g.tx += tx
	g.ty += ty
}

// Scale scales the result by (sx, sy), including the translation.
func (g *GeoM) Scale(sx, sy float64) {
	a, b, c, d := g.aMinus1+1, g.b, g.c, g.dMinus1+1
	g.set(a*sx, b*sx, c*sy, d*sy, g.tx*sx, g.ty*sy)
}

// Rotate rotates the result by angle radians.
func (g *GeoM) Rotate(angle float64) {
	sin, cos := math.Sincos(angle)
	var r GeoM
	r.set(cos, -sin, sin, cos, 0, 0)
	g.Concat(r)
}

// Concat applies other after g.
func (g *GeoM) Concat(other GeoM) {
	a1, b1, c1, d1 := g.aMinus1+1, g.b, g.c, g.dMinus1+1
	a2, b2, c2, d2 := other.aMinus1+1, other.b, other.c, other.dMinus1+1
	g.set(
		a2*a1+b2*c1, a2*b1+b2*d1,
		c2*a1+d2*c1, c2*b1+d2*d1,
		a2*g.tx+b2*g.ty+other.tx, c2*g.tx+d2*g.ty+other.ty,
	)
}

// Apply transforms a point.
func (g *GeoM) Apply(x, y float64) (float64, float64) {
	return (g.aMinus1+1)*x + g.b*y + g.tx, g.c*x + (g.dMinus1+1)*y + g.ty
}

// IsInvertible reports whether the matrix has an inverse.
func (g *GeoM) IsInvertible() bool {
	return g.det() != 0
}

func (g *GeoM) det() float64 {
	return (g.aMinus1+1)*(g.dMinus1+1) - g.b*g.c
}

// Invert inverts the matrix. It returns false and leaves g unchanged when
// the matrix is singular.
func (g *GeoM) Invert() bool {
	det := g.det()
	if det == 0 {
		return false
	}
	a, b, c, d := g.aMinus1+1, g.b, g.c, g.dMinus1+1
	ia, ib := d/det, -b/det
	ic, id := -c/det, a/det
	g.set(ia, ib, ic, id, -(ia*g.tx + ib*g.ty), -(ic*g.tx + id*g.ty))
	return true
}

// ColorScale multiplies the RGBA channels of drawn pixels. The zero value
// leaves colors unchanged.
type ColorScale struct {
	rMinus1, gMinus1, bMinus1, aMinus1 float32
}

// R returns the red scale.
func (c *ColorScale) R() float32 { return c.rMinus1 + 1 }

// G returns the green scale.
func (c *ColorScale) G() float32 { return c.gMinus1 + 1 }

// B returns the blue scale.
func (c *ColorScale) B() float32 { return c.bMinus1 + 1 }

// A returns the alpha scale.
func (c *ColorScale) A() float32 { return c.aMinus1 + 1 }

// Reset restores the identity scale.
func (c *ColorScale) Reset() {
	*c = ColorScale{}
}

// Scale multiplies every channel.
func (c *ColorScale) Scale(r, g, b, a float32) {
	c.rMinus1 = (c.rMinus1+1)*r - 1
	c.gMinus1 = (c.gMinus1+1)*g - 1
	c.bMinus1 = (c.bMinus1+1)*b - 1
	c.aMinus1 = (c.aMinus1+1)*a - 1
}

// ScaleAlpha multiplies all channels by a, which fades premultiplied colors.
func (c *ColorScale) ScaleAlpha(a float32) {
	c.Scale(a, a, a, a)
}

// ScaleWithColor multiplies by a color's normalized channels.
func (c *ColorScale) ScaleWithColor(clr color.Color) {
	r, g, b, a := clr.RGBA()
	c.Scale(float32(r)/0xffff, float32(g)/0xffff, float32(b)/0xffff, float32(a)/0xffff)
}

// IsIdentity reports whether the scale leaves colors unchanged.
func (c *ColorScale) IsIdentity() bool {
	return *c == ColorScale{}
}

// InputManager handles input from the user (keyboard, mouse, etc).
type InputManager interface {
	IsKeyPressed(key Key) bool
	IsKeyJustPressed(key Key) bool
	GetCursorPosition() (x, y int)
	IsMouseButtonPressed(button MouseButton) bool
	IsMouseButtonJustPressed(button MouseButton) bool
	IsMouseButtonJustReleased(button MouseButton) bool
	Wheel() (dx, dy float64)
}

// Key represents a keyboard key.
type Key int

// Key constants for the keys the game binds
const (
	KeyW Key = iota
	KeyA
	KeyS
	KeyD
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace  // pause
	KeyF      // fast forward
	KeyTab    // switch factory / exploration view
	KeyDelete // remove selected structure
	KeyC      // copy save to clipboard
	KeyV      // load save from clipboard
	KeyR      // toggle research
	KeyE      // run experiment
	KeyB      // buy floor space
	KeyM      // cycle animation mode
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	KeyEscape
	KeyControl
	KeyN // next recipe for the selected machine
	KeyT // enable / disable the selected machine
	KeyG // pick the stock line to sell
	KeyX // sell the picked stock line
)

// MouseButton represents a mouse button.
type MouseButton int

// Mouse button constants
const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// ResourceLoader handles loading resources like images from disk.
type ResourceLoader interface {
	LoadImage(path string) (Image, error)
}

// Game represents the game interface that the engine will call.
// This is typically implemented by the main game struct.
type Game interface {
	// Update updates the game logic. It is called every tick (typically 60 times per second).
	Update() error

	// Draw draws the game screen. It is called every frame.
	Draw(screen Image)

	// Layout accepts the outside size (e.g., window size) and returns the logical screen size.
	// The logical screen size is used for rendering and input coordinates.
	Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int)
}

// Engine represents the game engine that manages the game loop and window.
type Engine interface {
	// SetWindowSize sets the window size in pixels.
	SetWindowSize(width, height int)

	// SetWindowTitle sets the window title.
	SetWindowTitle(title string)

	// SetWindowResizable enables or disables window resizing.
	SetWindowResizable(resizable bool)

	// RunGame runs the game loop with the provided game.
	// This is a blocking call that runs until the game ends.
	RunGame(game Game) error
}
