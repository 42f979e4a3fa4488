// Package headless is a CPU backend for the render interfaces. Images are
// plain RGBA buffers and every draw call is recorded, so scene code can be
// exercised without a window or GPU.
package headless

import (
	"image"
	"image/color"
	"image/draw"
	_ "image/png" // LoadImage decoder
	"math"
	"os"
	"sync"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

// Op kinds recorded by the renderer.
const (
	OpFillRect     = "fill_rect"
	OpStrokeRect   = "stroke_rect"
	OpStrokeLine   = "stroke_line"
	OpFillCircle   = "fill_circle"
	OpStrokeCircle = "stroke_circle"
	OpFillPolygon  = "fill_polygon"
	OpText         = "text"
	OpDrawImage    = "draw_image"
)

// Op is one recorded draw call.
type Op struct {
	Kind  string
	Dst   *Image
	Src   *Image
	Text  string
	Color color.Color
	GeoM  render.GeoM
	Scale render.ColorScale
	Rect  image.Rectangle
}

// Renderer implements render.Renderer on RGBA buffers.
type Renderer struct {
	mu       sync.Mutex
	ops      []Op
	live     int
	disposed int
}

// NewRenderer creates an empty headless renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Ops returns a copy of the recorded draw calls.
func (r *Renderer) Ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Op(nil), r.ops...)
}

// Reset forgets recorded draw calls.
func (r *Renderer) Reset() {
	r.mu.Lock()
	r.ops = nil
	r.mu.Unlock()
}

// Count returns how many ops of kind were recorded.
func (r *Renderer) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, op := range r.ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

// Live returns the number of images created and not yet disposed.
func (r *Renderer) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Disposed returns the number of images disposed.
func (r *Renderer) Disposed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

func (r *Renderer) record(op Op) {
	r.mu.Lock()
	r.ops = append(r.ops, op)
	r.mu.Unlock()
}

func (r *Renderer) alloc(rgba *image.RGBA) *Image {
	r.mu.Lock()
	r.live++
	r.mu.Unlock()
	return &Image{r: r, pix: rgba, bounds: rgba.Bounds()}
}

// NewImage creates a transparent image.
func (r *Renderer) NewImage(width, height int) render.Image {
	return r.alloc(image.NewRGBA(image.Rect(0, 0, width, height)))
}

// NewImageFromImage copies src into a new image with bounds at the origin.
func (r *Renderer) NewImageFromImage(src image.Image) render.Image {
	b := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, b.Min, draw.Src)
	return r.alloc(rgba)
}

// LoadImage decodes an image file, making the renderer a
// render.ResourceLoader.
func (r *Renderer) LoadImage(path string) (render.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return r.NewImageFromImage(src), nil
}

// FillRect fills an axis-aligned rectangle.
func (r *Renderer) FillRect(dst render.Image, x, y, width, height float32, clr color.Color) {
	d := dst.(*Image)
	rect := image.Rect(int(x), int(y), int(math.Ceil(float64(x+width))), int(math.Ceil(float64(y+height))))
	d.fill(rect, clr)
	r.record(Op{Kind: OpFillRect, Dst: d, Color: clr, Rect: rect})
}

// StrokeRect records a rectangle outline.
func (r *Renderer) StrokeRect(dst render.Image, x, y, width, height, strokeWidth float32, clr color.Color) {
	r.record(Op{Kind: OpStrokeRect, Dst: dst.(*Image), Color: clr,
		Rect: image.Rect(int(x), int(y), int(x+width), int(y+height))})
}

// StrokeLine records a line segment.
func (r *Renderer) StrokeLine(dst render.Image, x0, y0, x1, y1, strokeWidth float32, clr color.Color) {
	r.record(Op{Kind: OpStrokeLine, Dst: dst.(*Image), Color: clr,
		Rect: image.Rect(int(x0), int(y0), int(x1), int(y1))})
}

// FillCircle fills a circle.
func (r *Renderer) FillCircle(dst render.Image, x, y, radius float32, clr color.Color) {
	d := dst.(*Image)
	rr := float64(radius)
	cx, cy := float64(x), float64(y)
	for py := int(cy - rr); py <= int(cy+rr); py++ {
		for px := int(cx - rr); px <= int(cx+rr); px++ {
			dx, dy := float64(px)+0.5-cx, float64(py)+0.5-cy
			if dx*dx+dy*dy <= rr*rr {
				d.set(px, py, clr)
			}
		}
	}
	r.record(Op{Kind: OpFillCircle, Dst: d, Color: clr,
		Rect: image.Rect(int(cx-rr), int(cy-rr), int(cx+rr), int(cy+rr))})
}

// StrokeCircle records a circle outline.
func (r *Renderer) StrokeCircle(dst render.Image, x, y, radius float32, strokeWidth float32, clr color.Color) {
	r.record(Op{Kind: OpStrokeCircle, Dst: dst.(*Image), Color: clr,
		Rect: image.Rect(int(x-radius), int(y-radius), int(x+radius), int(y+radius))})
}

// FillPolygon fills a polygon by testing pixel centers with the even-odd rule.
func (r *Renderer) FillPolygon(dst render.Image, points []render.Vec2, clr color.Color) {
	if len(points) < 3 {
		return
	}
	d := dst.(*Image)
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	for py := int(math.Floor(float64(minY))); py <= int(math.Ceil(float64(maxY))); py++ {
		for px := int(math.Floor(float64(minX))); px <= int(math.Ceil(float64(maxX))); px++ {
			if PointInPolygon(float32(px)+0.5, float32(py)+0.5, points) {
				d.set(px, py, clr)
			}
		}
	}
	r.record(Op{Kind: OpFillPolygon, Dst: d, Color: clr,
		Rect: image.Rect(int(minX), int(minY), int(maxX), int(maxY))})
}

// PointInPolygon reports whether (x, y) is inside the polygon.
func PointInPolygon(x, y float32, points []render.Vec2) bool {
	inside := false
	j := len(points) - 1
	for i := range points {
		pi, pj := points[i], points[j]
		if (pi.Y > y) != (pj.Y > y) && x < (pj.X-pi.X)*(y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}

// DrawText records a text draw. No glyphs are rasterized.
func (r *Renderer) DrawText(dst render.Image, str string, x, y int, clr color.Color, scale float64) {
	w, h := r.MeasureText(str, scale)
	r.record(Op{Kind: OpText, Dst: dst.(*Image), Text: str, Color: clr,
		Rect: image.Rect(x, y, x+w, y+h)})
}

// MeasureText assumes a 7x13 monospace face.
func (r *Renderer) MeasureText(str string, scale float64) (width, height int) {
	if scale <= 0 {
		scale = 1
	}
	return int(float64(7*len([]rune(str))) * scale), int(13 * scale)
}

// Image is an RGBA buffer. Sub-images share pixels with their parent.
type Image struct {
	r        *Renderer
	pix      *image.RGBA
	bounds   image.Rectangle
	sub      bool
	disposed bool
}

// Bounds returns the image bounds.
func (i *Image) Bounds() image.Rectangle { return i.bounds }

// Size returns the image dimensions.
func (i *Image) Size() (width, height int) {
	return i.bounds.Dx(), i.bounds.Dy()
}

// At returns the pixel at (x, y), transparent outside the bounds.
func (i *Image) At(x, y int) color.Color {
	if !image.Pt(x, y).In(i.bounds) {
		return color.RGBA{}
	}
	return i.pix.RGBAAt(x, y)
}

// Disposed reports whether Dispose was called.
func (i *Image) Disposed() bool { return i.disposed }

// SubImage returns a view sharing the same pixels.
func (i *Image) SubImage(r image.Rectangle) render.Image {
	return &Image{r: i.r, pix: i.pix, bounds: r.Intersect(i.bounds), sub: true}
}

// Fill fills the image bounds.
func (i *Image) Fill(clr color.Color) {
	i.fill(i.bounds, clr)
}

// Clear sets every pixel to transparent.
func (i *Image) Clear() {
	draw.Draw(i.pix, i.bounds, image.Transparent, image.Point{}, draw.Src)
}

func (i *Image) fill(r image.Rectangle, clr color.Color) {
	draw.Draw(i.pix, r.Intersect(i.bounds), image.NewUniform(clr), image.Point{}, draw.Over)
}

func (i *Image) set(x, y int, clr color.Color) {
	if !image.Pt(x, y).In(i.bounds) {
		return
	}
	draw.Draw(i.pix, image.Rect(x, y, x+1, y+1), image.NewUniform(clr), image.Point{}, draw.Over)
}

// DrawImage draws src through the options' transform. Translation-only
// draws are blitted; other transforms are recorded but not rasterized.
func (i *Image) DrawImage(src render.Image, opts *render.DrawImageOptions) {
	s := src.(*Image)
	var op render.DrawImageOptions
	if opts != nil {
		op = *opts
	}
	g := op.GeoM
	if g.Element(0, 0) == 1 && g.Element(1, 1) == 1 && g.Element(0, 1) == 0 && g.Element(1, 0) == 0 && op.ColorScale.IsIdentity() {
		at := image.Pt(int(math.Round(g.Element(0, 2))), int(math.Round(g.Element(1, 2))))
		dr := image.Rectangle{Min: at, Max: at.Add(s.bounds.Size())}
		draw.Draw(i.pix, dr.Intersect(i.bounds), s.pix, s.bounds.Min.Add(dr.Intersect(i.bounds).Min.Sub(at)), draw.Over)
	}
	if i.r != nil {
		i.r.record(Op{Kind: OpDrawImage, Dst: i, Src: s, GeoM: g, Scale: op.ColorScale})
	}
}

// Dispose releases the image. Sub-images are views and never count.
func (i *Image) Dispose() {
	if i.disposed || i.sub {
		return
	}
	i.disposed = true
	if i.r != nil {
		i.r.mu.Lock()
		i.r.live--
		i.r.disposed++
		i.r.mu.Unlock()
	}
}

// Input is a scriptable render.InputManager. Call Step once per frame after
// changing the held state to derive just-pressed and just-released edges.
type Input struct {
	keys       map[render.Key]bool
	prevKeys   map[render.Key]bool
	buttons    map[render.MouseButton]bool
	prevButton map[render.MouseButton]bool
	x, y       int
	wheelX     float64
	wheelY     float64
}

// NewInput creates an input with nothing pressed.
func NewInput() *Input {
	return &Input{
		keys:       map[render.Key]bool{},
		prevKeys:   map[render.Key]bool{},
		buttons:    map[render.MouseButton]bool{},
		prevButton: map[render.MouseButton]bool{},
	}
}

// Press holds a key down.
func (in *Input) Press(k render.Key) { in.keys[k] = true }

// Release lets a key go.
func (in *Input) Release(k render.Key) { delete(in.keys, k) }

// MoveTo sets the cursor position.
func (in *Input) MoveTo(x, y int) { in.x, in.y = x, y }

// ButtonDown holds a mouse button.
func (in *Input) ButtonDown(b render.MouseButton) { in.buttons[b] = true }

// ButtonUp releases a mouse button.
func (in *Input) ButtonUp(b render.MouseButton) { delete(in.buttons, b) }

// Scroll sets this frame's wheel delta.
func (in *Input) Scroll(dx, dy float64) { in.wheelX, in.wheelY = dx, dy }

// Step ends a frame: the current state becomes the previous state and the
// wheel delta is cleared.
func (in *Input) Step() {
	in.prevKeys = make(map[render.Key]bool, len(in.keys))
	for k := range in.keys {
		in.prevKeys[k] = true
	}
	in.prevButton = make(map[render.MouseButton]bool, len(in.buttons))
	for b := range in.buttons {
		in.prevButton[b] = true
	}
	in.wheelX, in.wheelY = 0, 0
}

func (in *Input) IsKeyPressed(k render.Key) bool     { return in.keys[k] }
func (in *Input) IsKeyJustPressed(k render.Key) bool { return in.keys[k] && !in.prevKeys[k] }
func (in *Input) GetCursorPosition() (x, y int)      { return in.x, in.y }

func (in *Input) IsMouseButtonPressed(b render.MouseButton) bool { return in.buttons[b] }

func (in *Input) IsMouseButtonJustPressed(b render.MouseButton) bool {
	return in.buttons[b] && !in.prevButton[b]
}

func (in *Input) IsMouseButtonJustReleased(b render.MouseButton) bool {
	return !in.buttons[b] && in.prevButton[b]
}

func (in *Input) Wheel() (dx, dy float64) { return in.wheelX, in.wheelY }
