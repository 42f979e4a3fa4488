package game

import (
	"fmt"
	"image/color"

	"github.com/MarvinTM/replaceableParts-sub002/internal/inventory"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/ui/hud"
)

var (
	backgroundColor = color.RGBA{16, 18, 22, 255}
	panelColor      = color.RGBA{0, 0, 0, 160}
	textColor       = color.RGBA{230, 230, 230, 255}
	accentColor     = color.RGBA{255, 210, 90, 255}
)

const hudLine = 16

// Draw renders the game to the screen.
func (g *Game) Draw(screen render.Image) {
	screen.Fill(backgroundColor)

	if g.View == ViewExploration {
		g.Exploration.Draw(screen, g.ExploreCam.View())
	} else {
		g.Scene.Draw(screen, g.Controller.Camera.View())
	}

	// UI elements on top, unaffected by the camera
	g.drawHUD(screen)
	g.drawSelection(screen)
	g.drawUI(screen)
}

// hudStatus collects what the HUD shows from the world and the clock.
func (g *Game) hudStatus() hud.Status {
	s := g.Session.State
	st := hud.Status{
		Tick:           s.Tick,
		Speed:          g.Clock.Speed().String(),
		View:           g.View.String(),
		Credits:        s.Credits,
		Produced:       s.Energy.Produced,
		Consumed:       s.Energy.Consumed,
		Request:        s.Energy.Requested,
		ResearchActive: s.Research.Active,
		ResearchPoints: s.Research.ResearchPoints,
		Prototypes:     len(s.Research.AwaitingPrototype),
		Victory:        s.Victory.Achieved,
		VictoryTick:    s.Victory.Tick,
	}
	for _, slot := range (inventory.Ledger{Counts: s.Inventory}).Slots() {
		name := slot.MaterialID
		if m, ok := g.Session.Rules.Material(slot.MaterialID); ok {
			name = m.Name
		}
		st.Stock = append(st.Stock, hud.StockLine{Name: name, Count: slot.Count, Marked: slot.MaterialID == g.SellTarget})
	}
	if g.View == ViewFactory {
		for i, e := range g.Palette {
			if i >= len(paletteKeys) {
				break
			}
			st.Palette = append(st.Palette, e.Name)
		}
	}
	return st
}

func (g *Game) drawHUD(screen render.Image) {
	g.HUD.SetScreenSize(g.ScreenWidth, g.ScreenHeight)
	g.HUD.SetStatus(g.hudStatus())
	g.HUD.Draw(g.Renderer, screen)
}

// SelectionLines describes the clicked structure, nil when none.
func (g *Game) SelectionLines() []string {
	if g.Selected == "" {
		return nil
	}
	s := g.Session.State
	if m := s.MachineByID(g.Selected); m != nil {
		recipe := m.RecipeID
		if recipe == "" {
			recipe = "none"
		}
		lines := []string{
			fmt.Sprintf("%s at (%d,%d)", m.Type, m.X, m.Y),
			fmt.Sprintf("Status %s  Enabled %v", m.Status, m.Enabled),
			fmt.Sprintf("Recipe %s", recipe),
			"[N] next recipe  [T] on/off",
		}
		return append(lines, bufferLines(m.InternalBuffer)...)
	}
	if gen := s.GeneratorByID(g.Selected); gen != nil {
		lines := []string{
			fmt.Sprintf("%s at (%d,%d)", gen.Type, gen.X, gen.Y),
			fmt.Sprintf("Powered %v", gen.Powered),
		}
		return append(lines, fmt.Sprintf("Fuel %d", gen.FuelBuffer))
	}
	return nil
}

func bufferLines(buf map[string]int64) []string {
	var lines []string
	for _, slot := range (inventory.Ledger{Counts: buf}).Slots() {
		lines = append(lines, fmt.Sprintf("  %s x%d", slot.MaterialID, slot.Count))
	}
	return lines
}

func (g *Game) drawSelection(screen render.Image) {
	lines := g.SelectionLines()
	if len(lines) == 0 {
		return
	}
	x := g.ScreenWidth - 260
	g.Renderer.FillRect(screen, float32(x-6), 4, 256, float32(len(lines)*hudLine+8), panelColor)
	for i, l := range lines {
		clr := textColor
		if i == 0 {
			clr = accentColor
		}
		g.Renderer.DrawText(screen, l, x, 8+i*hudLine, clr, 1)
	}
}

func (g *Game) drawUI(screen render.Image) {
	// Draw on-screen messages
	y := float64(g.ScreenHeight) - 30
	for i := len(g.Messages) - 1; i >= 0; i-- {
		msg := g.Messages[i]
		alpha := uint8(255 * (msg.TimeLeft / msg.MaxTime))
		g.Renderer.DrawText(screen, msg.Text, 20, int(y), color.RGBA{alpha, alpha, alpha, alpha}, 1.0)
		y -= 20
	}
}
