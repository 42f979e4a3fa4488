package ebiten

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

// EbitenRenderer implements the Renderer interface using Ebiten.
type EbitenRenderer struct {
	face *text.GoXFace
}

// NewRenderer creates a new Ebiten-based render.
func NewRenderer() render.Renderer {
	return &EbitenRenderer{face: text.NewGoXFace(basicfont.Face7x13)}
}

// NewImage creates a new image with the given dimensions.
func (r *EbitenRenderer) NewImage(width, height int) render.Image {
	return &EbitenImage{img: ebiten.NewImage(width, height)}
}

// NewImageFromImage uploads a decoded image.
func (r *EbitenRenderer) NewImageFromImage(src image.Image) render.Image {
	return &EbitenImage{img: ebiten.NewImageFromImage(src)}
}

// FillRect draws a filled rectangle on the destination image.
func (r *EbitenRenderer) FillRect(dst render.Image, x, y, width, height float32, clr color.Color) {
	vector.FillRect(unwrap(dst), x, y, width, height, clr, false)
}

// StrokeRect draws a rectangle outline on the destination image.
func (r *EbitenRenderer) StrokeRect(dst render.Image, x, y, width, height, strokeWidth float32, clr color.Color) {
	vector.StrokeRect(unwrap(dst), x, y, width, height, strokeWidth, clr, false)
}

// StrokeLine draws a line segment on the destination image.
func (r *EbitenRenderer) StrokeLine(dst render.Image, x0, y0, x1, y1, strokeWidth float32, clr color.Color) {
	vector.StrokeLine(unwrap(dst), x0, y0, x1, y1, strokeWidth, clr, true)
}

// FillCircle draws a filled circle on the destination image.
func (r *EbitenRenderer) FillCircle(dst render.Image, x, y, radius float32, clr color.Color) {
	vector.FillCircle(unwrap(dst), x, y, radius, clr, true)
}

// StrokeCircle draws a circle outline on the destination image.
func (r *EbitenRenderer) StrokeCircle(dst render.Image, x, y, radius float32, strokeWidth float32, clr color.Color) {
	vector.StrokeCircle(unwrap(dst), x, y, radius, strokeWidth, clr, true)
}

// FillPolygon fills a closed polygon.
func (r *EbitenRenderer) FillPolygon(dst render.Image, points []render.Vec2, clr color.Color) {
	if len(points) < 3 {
		return
	}
	var path vector.Path
	path.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		path.LineTo(p.X, p.Y)
	}
	path.Close()

	op := &vector.DrawPathOptions{AntiAlias: true}
	op.ColorScale.ScaleWithColor(clr)
	vector.FillPath(unwrap(dst), &path, &vector.FillOptions{}, op)
}

// DrawText draws text with the 7x13 bitmap face. The face is scaled
// through the draw transform, so scale 2 gives 14x26 glyphs.
func (r *EbitenRenderer) DrawText(dst render.Image, str string, x, y int, clr color.Color, scale float64) {
	if scale <= 0 {
		scale = 1
	}
	op := &text.DrawOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(unwrap(dst), str, r.face, op)
}

// MeasureText measures the width and height of text with the given scale.
func (r *EbitenRenderer) MeasureText(str string, scale float64) (width, height int) {
	if scale <= 0 {
		scale = 1
	}
	w, h := text.Measure(str, r.face, r.face.Metrics().HLineGap+r.face.Metrics().HAscent+r.face.Metrics().HDescent)
	return int(w * scale), int(h * scale)
}

func unwrap(img render.Image) *ebiten.Image {
	return img.(*EbitenImage).img
}

// EbitenImage wraps an ebiten.Image to implement the render.Image interface.
type EbitenImage struct {
	img *ebiten.Image
}

// Bounds returns the bounds of the image.
func (i *EbitenImage) Bounds() image.Rectangle {
	return i.img.Bounds()
}

// Size returns the width and height of the image.
func (i *EbitenImage) Size() (width, height int) {
	return i.img.Bounds().Dx(), i.img.Bounds().Dy()
}

// At returns the color of a pixel. It reads back from the GPU and may only
// be called while the game loop is running.
func (i *EbitenImage) At(x, y int) color.Color {
	return i.img.At(x, y)
}

// SubImage returns a sub-image of the image.
func (i *EbitenImage) SubImage(r image.Rectangle) render.Image {
	return &EbitenImage{img: i.img.SubImage(r).(*ebiten.Image)}
}

// Fill fills the entire image with the given color.
func (i *EbitenImage) Fill(clr color.Color) {
	i.img.Fill(clr)
}

// Clear clears the image to transparent.
func (i *EbitenImage) Clear() {
	i.img.Clear()
}

// Dispose releases the image resources.
func (i *EbitenImage) Dispose() {
	if i.img != nil {
		i.img.Dispose()
	}
}

// DrawImage draws the source image onto this image.
func (i *EbitenImage) DrawImage(src render.Image, opts *render.DrawImageOptions) {
	srcImg := unwrap(src)

	if opts == nil {
		i.img.DrawImage(srcImg, nil)
		return
	}

	ebitenOpts := &ebiten.DrawImageOptions{}
	ebitenOpts.GeoM = toEbitenGeoM(opts.GeoM)
	cs := opts.ColorScale
	if !cs.IsIdentity() {
		ebitenOpts.ColorScale.Scale(cs.R(), cs.G(), cs.B(), cs.A())
	}
	i.img.DrawImage(srcImg, ebitenOpts)
}

func toEbitenGeoM(g render.GeoM) ebiten.GeoM {
	var out ebiten.GeoM
	out.SetElement(0, 0, g.Element(0, 0))
	out.SetElement(0, 1, g.Element(0, 1))
	out.SetElement(0, 2, g.Element(0, 2))
	out.SetElement(1, 0, g.Element(1, 0))
	out.SetElement(1, 1, g.Element(1, 1))
	out.SetElement(1, 2, g.Element(1, 2))
	return out
}

// GetEbitenImage returns the underlying ebiten.Image.
// This is useful for interop with ebiten-specific code.
func (i *EbitenImage) GetEbitenImage() *ebiten.Image {
	return i.img
}

// WrapEbitenImage wraps an existing ebiten.Image as a render.Image.
func WrapEbitenImage(img *ebiten.Image) render.Image {
	return &EbitenImage{img: img}
}

// EbitenInputManager implements the InputManager interface using Ebiten.
type EbitenInputManager struct{}

// NewInputManager creates a new Ebiten-based input manager.
func NewInputManager() render.InputManager {
	return &EbitenInputManager{}
}

// IsKeyPressed returns whether the specified key is currently pressed.
func (m *EbitenInputManager) IsKeyPressed(key render.Key) bool {
	return ebiten.IsKeyPressed(keyToEbitenKey(key))
}

// IsKeyJustPressed returns whether the specified key was just pressed this frame.
func (m *EbitenInputManager) IsKeyJustPressed(key render.Key) bool {
	return inpututil.IsKeyJustPressed(keyToEbitenKey(key))
}

// GetCursorPosition returns the current cursor position.
func (m *EbitenInputManager) GetCursorPosition() (x, y int) {
	return ebiten.CursorPosition()
}

// IsMouseButtonPressed returns whether the specified mouse button is currently pressed.
func (m *EbitenInputManager) IsMouseButtonPressed(button render.MouseButton) bool {
	return ebiten.IsMouseButtonPressed(mouseButtonToEbiten(button))
}

// IsMouseButtonJustPressed returns whether the button went down this frame.
func (m *EbitenInputManager) IsMouseButtonJustPressed(button render.MouseButton) bool {
	return inpututil.IsMouseButtonJustPressed(mouseButtonToEbiten(button))
}

// IsMouseButtonJustReleased returns whether the button went up this frame.
func (m *EbitenInputManager) IsMouseButtonJustReleased(button render.MouseButton) bool {
	return inpututil.IsMouseButtonJustReleased(mouseButtonToEbiten(button))
}

// Wheel returns the scroll delta of this frame.
func (m *EbitenInputManager) Wheel() (dx, dy float64) {
	return ebiten.Wheel()
}

var keyMap = map[render.Key]ebiten.Key{
	render.KeyW:       ebiten.KeyW,
	render.KeyA:       ebiten.KeyA,
	render.KeyS:       ebiten.KeyS,
	render.KeyD:       ebiten.KeyD,
	render.KeyUp:      ebiten.KeyArrowUp,
	render.KeyDown:    ebiten.KeyArrowDown,
	render.KeyLeft:    ebiten.KeyArrowLeft,
	render.KeyRight:   ebiten.KeyArrowRight,
	render.KeySpace:   ebiten.KeySpace,
	render.KeyF:       ebiten.KeyF,
	render.KeyTab:     ebiten.KeyTab,
	render.KeyDelete:  ebiten.KeyDelete,
	render.KeyC:       ebiten.KeyC,
	render.KeyV:       ebiten.KeyV,
	render.KeyR:       ebiten.KeyR,
	render.KeyE:       ebiten.KeyE,
	render.KeyB:       ebiten.KeyB,
	render.KeyM:       ebiten.KeyM,
	render.Key1:       ebiten.Key1,
	render.Key2:       ebiten.Key2,
	render.Key3:       ebiten.Key3,
	render.Key4:       ebiten.Key4,
	render.Key5:       ebiten.Key5,
	render.Key6:       ebiten.Key6,
	render.KeyEscape:  ebiten.KeyEscape,
	render.KeyControl: ebiten.KeyControl,
	render.KeyN:       ebiten.KeyN,
	render.KeyT:       ebiten.KeyT,
	render.KeyG:       ebiten.KeyG,
	render.KeyX:       ebiten.KeyX,
}

// keyToEbitenKey converts a render.Key to an ebiten.Key.
func keyToEbitenKey(key render.Key) ebiten.Key {
	if k, ok := keyMap[key]; ok {
		return k
	}
	return 0
}

// mouseButtonToEbiten converts a render.MouseButton to an ebiten.MouseButton.
func mouseButtonToEbiten(button render.MouseButton) ebiten.MouseButton {
	switch button {
	case render.MouseButtonLeft:
		return ebiten.MouseButtonLeft
	case render.MouseButtonRight:
		return ebiten.MouseButtonRight
	case render.MouseButtonMiddle:
		return ebiten.MouseButtonMiddle
	default:
		return ebiten.MouseButtonLeft
	}
}

// EbitenResourceLoader implements the ResourceLoader interface using Ebiten.
type EbitenResourceLoader struct{}

// NewResourceLoader creates a new Ebiten-based resource loader.
func NewResourceLoader() render.ResourceLoader {
	return &EbitenResourceLoader{}
}

// LoadImage loads an image from the specified file path.
func (l *EbitenResourceLoader) LoadImage(path string) (render.Image, error) {
	img, _, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		return nil, err
	}
	return &EbitenImage{img: img}, nil
}

// EbitenEngine implements the Engine interface using Ebiten.
type EbitenEngine struct{}

// NewEngine creates a new Ebiten-based game engine.
func NewEngine() render.Engine {
	return &EbitenEngine{}
}

// SetWindowSize sets the window size in pixels.
func (e *EbitenEngine) SetWindowSize(width, height int) {
	ebiten.SetWindowSize(width, height)
}

// SetWindowTitle sets the window title.
func (e *EbitenEngine) SetWindowTitle(title string) {
	ebiten.SetWindowTitle(title)
}

// SetWindowResizable enables or disables window resizing.
func (e *EbitenEngine) SetWindowResizable(resizable bool) {
	if resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	} else {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	}
}

// RunGame runs the game loop with the provided game.
func (e *EbitenEngine) RunGame(game render.Game) error {
	return ebiten.RunGame(&gameAdapter{game: game})
}

// gameAdapter adapts a render.Game to ebiten.Game interface.
type gameAdapter struct {
	game render.Game
}

// Update implements ebiten.Game.
func (a *gameAdapter) Update() error {
	return a.game.Update()
}

// Draw implements ebiten.Game.
func (a *gameAdapter) Draw(screen *ebiten.Image) {
	a.game.Draw(&EbitenImage{img: screen})
}

// Layout implements ebiten.Game.
func (a *gameAdapter) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.game.Layout(outsideWidth, outsideHeight)
}
