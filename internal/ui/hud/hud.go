// Package hud provides a data-driven heads-up display for the factory:
// clock, credits, energy balance, research and stock.
package hud

import (
	"fmt"
	"image/color"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

// Config defines what to display in the HUD
type Config struct {
	ShowEnergy   bool    `yaml:"show_energy"`   // Energy bar
	ShowResearch bool    `yaml:"show_research"` // Research points and prototypes
	ShowStock    bool    `yaml:"show_stock"`    // Inventory summary
	ShowPalette  bool    `yaml:"show_palette"`  // Number-key build palette
	MaxStock     int     `yaml:"max_stock"`     // Stock lines shown before "..."
	Position     string  `yaml:"position"`      // "top-left", "top-right", "bottom-left", "bottom-right"
	Opacity      float64 `yaml:"opacity"`       // Background opacity (0-1)
}

// DefaultConfig returns a sensible default HUD configuration
func DefaultConfig() *Config {
	return &Config{
		ShowEnergy:   true,
		ShowResearch: true,
		ShowStock:    true,
		ShowPalette:  true,
		MaxStock:     6,
		Position:     "top-left",
		Opacity:      0.7,
	}
}

// StockLine is one inventory entry.
type StockLine struct {
	Name   string
	Count  int64
	Marked bool // picked for selling
}

// Status is the data shown by the HUD, refreshed by the game every frame.
type Status struct {
	Tick     int64
	Speed    string
	View     string
	Credits  int64
	Produced int64
	Consumed int64
	Request  int64

	ResearchActive bool
	ResearchPoints int64
	Prototypes     int

	Victory     bool
	VictoryTick int64

	Stock   []StockLine
	Palette []string
}

const (
	lineHeight = 16
	padding    = 10
	barHeight  = 12
	minWidth   = 220
)

var (
	titleColor   = color.RGBA{255, 255, 200, 255}
	textColor    = color.RGBA{200, 200, 200, 255}
	dimTextColor = color.RGBA{150, 150, 150, 255}
	dividerColor = color.RGBA{80, 80, 100, 200}
	barBgColor   = color.RGBA{60, 20, 20, 255}
)

// HUD manages the heads-up display
type HUD struct {
	config       *Config
	screenWidth  int
	screenHeight int
	status       Status

	// Cached layout
	panelWidth  int
	panelHeight int
}

// New creates a new HUD with the given configuration
func New(config *Config, screenWidth, screenHeight int) *HUD {
	if config == nil {
		config = DefaultConfig()
	}
	return &HUD{
		config:       config,
		screenWidth:  screenWidth,
		screenHeight: screenHeight,
		panelWidth:   minWidth,
	}
}

// SetStatus replaces the displayed data.
func (h *HUD) SetStatus(s Status) {
	h.status = s
}

// SetScreenSize updates the screen dimensions
func (h *HUD) SetScreenSize(width, height int) {
	h.screenWidth = width
	h.screenHeight = height
}

// Lines returns the text lines the HUD shows, top to bottom.
func (h *HUD) Lines() []string {
	s := h.status
	lines := []string{
		fmt.Sprintf("Tick %d  %s  %s", s.Tick, s.Speed, s.View),
		fmt.Sprintf("Credits %d", s.Credits),
	}
	if h.config.ShowEnergy {
		lines = append(lines, energyText(s))
	}
	if h.config.ShowResearch {
		state := "off"
		if s.ResearchActive {
			state = "on"
		}
		lines = append(lines, fmt.Sprintf("Research %s  Points %d  Prototypes %d", state, s.ResearchPoints, s.Prototypes))
	}
	if s.Victory {
		lines = append(lines, fmt.Sprintf("Victory at tick %d", s.VictoryTick))
	}
	if h.config.ShowStock {
		for i, st := range s.Stock {
			if h.config.MaxStock > 0 && i == h.config.MaxStock {
				lines = append(lines, "  ...")
				break
			}
			mark := " "
			if st.Marked {
				mark = ">"
			}
			lines = append(lines, fmt.Sprintf("%s %s x%d", mark, st.Name, st.Count))
		}
	}
	if h.config.ShowPalette {
		for i, name := range s.Palette {
			lines = append(lines, fmt.Sprintf("[%d] %s", i+1, name))
		}
	}
	return lines
}

func energyText(s Status) string {
	return fmt.Sprintf("Energy %d/%d (requested %d)", s.Consumed, s.Produced, s.Request)
}

// Draw renders the HUD to the screen
func (h *HUD) Draw(r render.Renderer, screen render.Image) {
	lines := h.Lines()
	h.layout(r, lines)

	// Calculate position based on config
	x, y := h.calculatePosition()

	alpha := uint8(h.config.Opacity * 255)
	r.FillRect(screen, float32(x), float32(y), float32(h.panelWidth), float32(h.panelHeight), color.RGBA{20, 20, 30, alpha})
	r.StrokeRect(screen, float32(x), float32(y), float32(h.panelWidth), float32(h.panelHeight), 1, color.RGBA{60, 60, 80, alpha})

	currentY := y + 8
	for i, line := range lines {
		clr := textColor
		switch {
		case i == 0:
			clr = titleColor
		case len(line) > 0 && line[0] == '[':
			clr = dimTextColor
		}
		r.DrawText(screen, line, x+8, currentY, clr, 1)
		currentY += lineHeight

		// The energy bar sits under its text line.
		if h.config.ShowEnergy && line == energyText(h.status) {
			currentY = h.drawEnergyBar(r, screen, x+8, currentY)
			r.StrokeLine(screen, float32(x+4), float32(currentY), float32(x+h.panelWidth-4), float32(currentY), 1, dividerColor)
			currentY += 4
		}
	}
}

// layout sizes the panel to its content.
func (h *HUD) layout(r render.Renderer, lines []string) {
	width := minWidth
	for _, l := range lines {
		if w, _ := r.MeasureText(l, 1); w+16 > width {
			width = w + 16
		}
	}
	h.panelWidth = width
	height := 16 + len(lines)*lineHeight
	if h.config.ShowEnergy {
		height += barHeight + 8
	}
	h.panelHeight = height
}

// calculatePosition returns the top-left corner of the HUD panel
func (h *HUD) calculatePosition() (int, int) {
	switch h.config.Position {
	case "top-right":
		return h.screenWidth - h.panelWidth - padding, padding
	case "bottom-left":
		return padding, h.screenHeight - h.panelHeight - padding
	case "bottom-right":
		return h.screenWidth - h.panelWidth - padding, h.screenHeight - h.panelHeight - padding
	default: // "top-left"
		return padding, padding
	}
}

// EnergyColor grades the share of requested energy that was delivered.
func EnergyColor(consumed, requested int64) color.RGBA {
	if requested <= 0 {
		return color.RGBA{50, 180, 50, 255}
	}
	pct := float64(consumed) / float64(requested)
	switch {
	case pct >= 1:
		return color.RGBA{50, 180, 50, 255} // Green
	case pct > 0.5:
		return color.RGBA{200, 180, 50, 255} // Yellow
	default:
		return color.RGBA{200, 50, 50, 255} // Red
	}
}

// drawEnergyBar draws consumption against production.
func (h *HUD) drawEnergyBar(r render.Renderer, screen render.Image, x, y int) int {
	barWidth := h.panelWidth - 24
	r.FillRect(screen, float32(x), float32(y), float32(barWidth), barHeight, barBgColor)

	s := h.status
	if s.Produced > 0 {
		pct := float64(s.Consumed) / float64(s.Produced)
		if pct > 1 {
			pct = 1
		}
		if fill := int(float64(barWidth) * pct); fill > 0 {
			r.FillRect(screen, float32(x+1), float32(y+1), float32(fill), barHeight-2, EnergyColor(s.Consumed, s.Request))
		}
	}
	return y + barHeight + 4
}
