package hud

import (
	"image/color"
	"testing"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render/headless"
)

func sampleStatus() Status {
	return Status{
		Tick:     42,
		Speed:    "normal",
		View:     "factory",
		Credits:  1000,
		Produced: 20,
		Consumed: 15,
		Request:  30,
		Stock: []StockLine{
			{Name: "Coal", Count: 3},
			{Name: "Iron Ore", Count: 7, Marked: true},
		},
		Palette: []string{"Furnace", "Solar Panel"},
	}
}

func TestLinesFollowConfig(t *testing.T) {
	h := New(nil, 800, 600)
	h.SetStatus(sampleStatus())
	lines := h.Lines()
	want := []string{
		"Tick 42  normal  factory",
		"Credits 1000",
		"Energy 15/20 (requested 30)",
		"Research off  Points 0  Prototypes 0",
		"  Coal x3",
		"> Iron Ore x7",
		"[1] Furnace",
		"[2] Solar Panel",
	}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d lines, got %q", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}

	cfg := DefaultConfig()
	cfg.ShowEnergy, cfg.ShowPalette = false, false
	cfg.MaxStock = 1
	h = New(cfg, 800, 600)
	h.SetStatus(sampleStatus())
	lines = h.Lines()
	if len(lines) != 5 || lines[3] != "  Coal x3" || lines[4] != "  ..." {
		t.Errorf("Unexpected trimmed lines %q", lines)
	}
}

func TestEnergyColor(t *testing.T) {
	tests := []struct {
		consumed, requested int64
		want                color.RGBA
	}{
		{0, 0, color.RGBA{50, 180, 50, 255}},
		{30, 30, color.RGBA{50, 180, 50, 255}},
		{20, 30, color.RGBA{200, 180, 50, 255}},
		{10, 30, color.RGBA{200, 50, 50, 255}},
	}
	for _, tt := range tests {
		if got := EnergyColor(tt.consumed, tt.requested); got != tt.want {
			t.Errorf("EnergyColor(%d, %d) = %v, want %v", tt.consumed, tt.requested, got, tt.want)
		}
	}
}

func TestDrawPositionsPanel(t *testing.T) {
	r := headless.NewRenderer()
	screen := r.NewImage(800, 600)

	cfg := DefaultConfig()
	cfg.Position = "bottom-right"
	h := New(cfg, 800, 600)
	h.SetStatus(sampleStatus())
	h.Draw(r, screen)

	var panel *headless.Op
	texts := 0
	for _, op := range r.Ops() {
		op := op
		switch op.Kind {
		case headless.OpFillRect:
			if panel == nil {
				panel = &op
			}
		case headless.OpText:
			texts++
		}
	}
	if panel == nil {
		t.Fatal("Expected a panel")
	}
	if panel.Rect.Max.X != 800-padding || panel.Rect.Max.Y != 600-padding {
		t.Errorf("Expected the panel in the bottom-right corner, got %v", panel.Rect)
	}
	if texts != len(h.Lines()) {
		t.Errorf("Expected %d text draws, got %d", len(h.Lines()), texts)
	}
}
