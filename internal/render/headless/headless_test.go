package headless

import (
	"image"
	"image/color"
	"testing"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

var red = color.RGBA{R: 255, A: 255}

func TestFillPolygonDiamond(t *testing.T) {
	r := NewRenderer()
	img := r.NewImage(20, 20)
	r.FillPolygon(img, []render.Vec2{{X: 10, Y: 0}, {X: 20, Y: 10}, {X: 10, Y: 20}, {X: 0, Y: 10}}, red)

	if got := img.At(10, 10); got != red {
		t.Errorf("Expected center filled, got %v", got)
	}
	if _, _, _, a := img.At(1, 1).RGBA(); a != 0 {
		t.Error("Expected corner outside the diamond to stay transparent")
	}
	if r.Count(OpFillPolygon) != 1 {
		t.Errorf("Expected one polygon op, got %d", r.Count(OpFillPolygon))
	}
}

func TestDrawImageBlitsTranslation(t *testing.T) {
	r := NewRenderer()
	src := r.NewImage(2, 2)
	src.Fill(red)
	dst := r.NewImage(10, 10)

	op := &render.DrawImageOptions{}
	op.GeoM.Translate(4, 5)
	dst.DrawImage(src, op)

	if got := dst.At(5, 6); got != red {
		t.Errorf("Expected blitted pixel, got %v", got)
	}
	if _, _, _, a := dst.At(3, 5).RGBA(); a != 0 {
		t.Error("Expected pixel left of the blit to stay transparent")
	}
}

func TestSubImageSharesPixels(t *testing.T) {
	r := NewRenderer()
	sheet := r.NewImage(8, 4)
	r.FillRect(sheet, 4, 0, 4, 4, red)

	frame := sheet.SubImage(image.Rect(4, 0, 8, 4))
	if w, h := frame.Size(); w != 4 || h != 4 {
		t.Fatalf("Expected 4x4 frame, got %dx%d", w, h)
	}
	if got := frame.At(5, 1); got != red {
		t.Errorf("Expected frame to see sheet pixels, got %v", got)
	}
	frame.Dispose()
	if r.Live() != 1 {
		t.Errorf("Disposing a sub-image must not release the sheet, live=%d", r.Live())
	}
	sheet.Dispose()
	sheet.Dispose()
	if r.Live() != 0 || r.Disposed() != 1 {
		t.Errorf("Expected one disposal, live=%d disposed=%d", r.Live(), r.Disposed())
	}
}

func TestInputEdges(t *testing.T) {
	in := NewInput()
	in.ButtonDown(render.MouseButtonLeft)
	if !in.IsMouseButtonJustPressed(render.MouseButtonLeft) {
		t.Error("Expected just pressed on first frame")
	}
	in.Step()
	if in.IsMouseButtonJustPressed(render.MouseButtonLeft) || !in.IsMouseButtonPressed(render.MouseButtonLeft) {
		t.Error("Expected held without edge on second frame")
	}
	in.ButtonUp(render.MouseButtonLeft)
	if !in.IsMouseButtonJustReleased(render.MouseButtonLeft) {
		t.Error("Expected just released")
	}

	in.Scroll(0, 1)
	in.Step()
	if _, dy := in.Wheel(); dy != 0 {
		t.Error("Expected wheel cleared after step")
	}
}
