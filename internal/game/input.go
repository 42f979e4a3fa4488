package game

import (
	"fmt"
	"math"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/interaction"
	"github.com/MarvinTM/replaceableParts-sub002/internal/inventory"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

var paletteKeys = []render.Key{render.Key1, render.Key2, render.Key3, render.Key4, render.Key5, render.Key6}

// camera returns the camera of the current view.
func (g *Game) camera() *interaction.Camera {
	if g.View == ViewExploration {
		return g.ExploreCam
	}
	return g.Controller.Camera
}

func (g *Game) handleKeys() {
	in := g.InputMgr

	if in.IsKeyJustPressed(render.KeySpace) {
		g.TogglePause()
	}
	if in.IsKeyJustPressed(render.KeyF) {
		g.ToggleFast()
	}
	if in.IsKeyJustPressed(render.KeyTab) {
		g.Controller.Cancel()
		if g.View == ViewFactory {
			g.View = ViewExploration
		} else {
			g.View = ViewFactory
		}
	}
	if in.IsKeyJustPressed(render.KeyM) {
		mode := g.Scene.Mode().Next()
		g.Scene.SetMode(mode)
		g.ShowMessage(fmt.Sprintf("Animations: %s", mode))
	}
	if in.IsKeyJustPressed(render.KeyEscape) {
		g.Controller.Cancel()
		g.Selected = ""
	}

	// Intents
	if in.IsKeyJustPressed(render.KeyR) {
		active := !g.Session.State.Research.Active
		res, err := g.Session.SetResearchActive(active)
		if g.apply("toggle research", res, err) {
			if active {
				g.ShowMessage("Research started")
			} else {
				g.ShowMessage("Research stopped")
			}
		}
	}
	if in.IsKeyJustPressed(render.KeyE) {
		res, err := g.Session.RunExperiment()
		g.apply("run experiment", res, err)
	}
	if in.IsKeyJustPressed(render.KeyB) {
		res, err := g.Session.BuyFloorSpace()
		if g.apply("buy floor space", res, err) {
			g.ShowMessage("Floor space expanded")
		}
	}
	if in.IsKeyJustPressed(render.KeyDelete) && g.Selected != "" {
		res, err := g.Session.RemoveStructure(g.Selected)
		if g.apply("remove structure", res, err) {
			g.Selected = ""
		}
	}
	if in.IsKeyJustPressed(render.KeyN) && g.Selected != "" {
		g.CycleRecipe()
	}
	if in.IsKeyJustPressed(render.KeyT) && g.Selected != "" {
		g.ToggleSelected()
	}
	if in.IsKeyJustPressed(render.KeyG) {
		g.CycleSellTarget()
	}
	if in.IsKeyJustPressed(render.KeyX) {
		g.SellTargetStock()
	}
	if in.IsKeyPressed(render.KeyControl) {
		if in.IsKeyJustPressed(render.KeyC) {
			g.CopySave()
		}
		if in.IsKeyJustPressed(render.KeyV) {
			g.PasteSave()
		}
	}

	if g.View == ViewFactory {
		for i, k := range paletteKeys {
			if i < len(g.Palette) && in.IsKeyJustPressed(k) {
				e := g.Palette[i]
				g.Controller.BeginPlacement(e.Kind, e.Type)
				g.Selected = ""
			}
		}
	}

	// Arrow keys and WASD pan the camera.
	var dx, dy float64
	if in.IsKeyPressed(render.KeyLeft) || in.IsKeyPressed(render.KeyA) {
		dx += g.Settings.PanSpeed
	}
	if in.IsKeyPressed(render.KeyRight) || in.IsKeyPressed(render.KeyD) {
		dx -= g.Settings.PanSpeed
	}
	if in.IsKeyPressed(render.KeyUp) || in.IsKeyPressed(render.KeyW) {
		dy += g.Settings.PanSpeed
	}
	if in.IsKeyPressed(render.KeyDown) || in.IsKeyPressed(render.KeyS) {
		dy -= g.Settings.PanSpeed
	}
	if dx != 0 || dy != 0 {
		g.camera().Pan(dx, dy)
	}
}

// TogglePause pauses the clock or resumes at the speed it had before.
func (g *Game) TogglePause() {
	if g.Clock.Speed() == simulation.SpeedPaused {
		g.Clock.SetSpeed(g.resume)
		g.ShowMessage("Resumed")
		return
	}
	g.resume = g.Clock.Speed()
	g.Clock.SetSpeed(simulation.SpeedPaused)
	g.ShowMessage("Paused")
}

// ToggleFast switches between normal and fast speed. It also resumes a
// paused game.
func (g *Game) ToggleFast() {
	next := simulation.SpeedFast
	if g.Clock.Speed() == simulation.SpeedFast {
		next = simulation.SpeedNormal
	}
	g.Clock.SetSpeed(next)
	g.resume = next
	g.ShowMessage(fmt.Sprintf("Speed: %s", next))
}

// RecipeChoices lists the unlocked recipes a machine type can run, in
// catalog order.
func (g *Game) RecipeChoices(machineType string) []string {
	rules := g.Session.Rules
	var ids []string
	for _, rc := range rules.Recipes {
		if rules.MachineAllows(machineType, rc.ID) && gamestate.HasRecipe(g.Session.State.UnlockedRecipes, rc.ID) {
			ids = append(ids, rc.ID)
		}
	}
	return ids
}

// CycleRecipe assigns the selected machine the next recipe it can run.
// Past the last choice the assignment is cleared.
func (g *Game) CycleRecipe() {
	m := g.Session.State.MachineByID(g.Selected)
	if m == nil {
		g.ShowMessage("Only machines run recipes")
		return
	}
	choices := g.RecipeChoices(m.Type)
	if len(choices) == 0 {
		g.ShowMessage(fmt.Sprintf("No unlocked recipe for %s", m.Type))
		return
	}
	next := choices[0]
	for i, id := range choices {
		if id == m.RecipeID {
			next = ""
			if i+1 < len(choices) {
				next = choices[i+1]
			}
			break
		}
	}
	enabled := m.Enabled || next != ""
	res, err := g.Session.AssignRecipe(m.ID, next, enabled)
	if !g.apply("assign recipe", res, err) {
		return
	}
	if next == "" {
		g.ShowMessage("Recipe cleared")
		return
	}
	g.ShowMessage(fmt.Sprintf("Recipe: %s", g.recipeName(next)))
}

// ToggleSelected enables or disables the selected machine.
func (g *Game) ToggleSelected() {
	res, err := g.Session.ToggleEnabled(g.Selected)
	if !g.apply("toggle machine", res, err) {
		return
	}
	if m := g.Session.State.MachineByID(g.Selected); m != nil && m.Enabled {
		g.ShowMessage("Machine enabled")
	} else {
		g.ShowMessage("Machine disabled")
	}
}

// CycleSellTarget moves the sell marker to the next material in stock.
func (g *Game) CycleSellTarget() {
	slots := (inventory.Ledger{Counts: g.Session.State.Inventory}).Slots()
	if len(slots) == 0 {
		g.SellTarget = ""
		g.ShowMessage("Nothing in stock")
		return
	}
	next := slots[0]
	for i, slot := range slots {
		if slot.MaterialID == g.SellTarget && i+1 < len(slots) {
			next = slots[i+1]
			break
		}
	}
	g.SellTarget = next.MaterialID
	g.ShowMessage(fmt.Sprintf("Sell: %s x%d", g.materialName(next.MaterialID), next.Count))
}

// SellTargetStock sells the whole stock of the marked material.
func (g *Game) SellTargetStock() {
	if g.SellTarget == "" {
		g.ShowMessage("Pick goods to sell first")
		return
	}
	qty := g.Session.State.Inventory[g.SellTarget]
	if qty <= 0 {
		g.ShowMessage(fmt.Sprintf("No %s in stock", g.materialName(g.SellTarget)))
		return
	}
	before := g.Session.State.Credits
	res, err := g.Session.SellGoods(g.SellTarget, qty)
	if !g.apply("sell goods", res, err) {
		return
	}
	g.ShowMessage(fmt.Sprintf("Sold %d %s for %d credits", qty, g.materialName(g.SellTarget), g.Session.State.Credits-before))
	g.SellTarget = ""
}

func (g *Game) materialName(id string) string {
	if m, ok := g.Session.Rules.Material(id); ok {
		return m.Name
	}
	return id
}

// CopySave puts a packed save on the clipboard.
func (g *Game) CopySave() {
	blob, err := g.Session.Export()
	if err != nil {
		g.Logger.Error("export failed", "err", err)
		g.ShowMessage("Could not export the game")
		return
	}
	if err := g.Clipboard.WriteAll(blob); err != nil {
		g.Logger.Warn("clipboard write failed", "err", err)
		g.ShowMessage("Clipboard unavailable")
		return
	}
	g.ShowMessage("Save copied to clipboard")
}

// PasteSave loads a save from the clipboard. A corrupt save is refused and
// the running game is kept.
func (g *Game) PasteSave() {
	text, err := g.Clipboard.ReadAll()
	if err != nil {
		g.Logger.Warn("clipboard read failed", "err", err)
		g.ShowMessage("Clipboard unavailable")
		return
	}
	if _, err := g.Session.Load([]byte(text)); err != nil {
		g.ShowMessage("Clipboard does not hold a valid save")
		return
	}
	g.Controller.Cancel()
	g.Selected = ""
	g.dirty = true
	g.ShowMessage(fmt.Sprintf("Loaded save at tick %d", g.Session.State.Tick))
}

func (g *Game) handlePointer() {
	in := g.InputMgr
	cx, cy := in.GetCursorPosition()
	sx, sy := float64(cx), float64(cy)

	if _, wy := in.Wheel(); wy != 0 {
		g.camera().ZoomAt(math.Pow(g.Settings.ZoomStep, wy), sx, sy)
	}

	if g.View == ViewExploration {
		if in.IsMouseButtonJustReleased(render.MouseButtonLeft) {
			g.clickExploration(sx, sy)
		}
		return
	}

	if in.IsMouseButtonJustPressed(render.MouseButtonRight) {
		g.Controller.Cancel()
		return
	}

	state := g.Session.State
	switch {
	case in.IsMouseButtonJustPressed(render.MouseButtonLeft):
		g.Controller.PointerDown(state, sx, sy)
	case in.IsMouseButtonJustReleased(render.MouseButtonLeft):
		ev, err := g.Controller.PointerUp(state, sx, sy)
		g.handleEvent(ev, err)
	case in.IsMouseButtonPressed(render.MouseButtonLeft), g.Controller.State() == interaction.StatePlacing:
		g.Controller.PointerMove(state, sx, sy)
	}
}

func (g *Game) handleEvent(ev interaction.Event, err error) {
	if err != nil {
		g.Logger.Error("pointer intent failed", "err", err)
		g.ShowMessage(fmt.Sprintf("Intent failed: %v", err))
		return
	}
	switch ev.Kind {
	case interaction.EventClick:
		g.Selected = ev.StructureID
	case interaction.EventMoved:
		g.apply("move structure", ev.Result, nil)
	case interaction.EventPlaced:
		g.apply("place structure", ev.Result, nil)
	case interaction.EventRejected:
		intent := "place structure"
		if ev.StructureID != "" {
			intent = "move structure"
		}
		g.apply(intent, ev.Result, nil)
	}
}

// clickExploration explores an unexplored tile or builds an extractor on
// an explored one.
func (g *Game) clickExploration(sx, sy float64) {
	wx, wy := g.ExploreCam.ScreenToWorld(sx, sy)
	cell := g.Exploration.Projection().ScreenToGrid(wx, wy)
	ex := &g.Session.State.Exploration
	if cell.X < 0 || cell.Y < 0 || cell.X >= ex.Width || cell.Y >= ex.Height {
		return
	}
	if ex.IsExplored(cell.X, cell.Y) {
		res, err := g.Session.BuildExtractor(cell.X, cell.Y)
		g.apply("build extractor", res, err)
		return
	}
	res, err := g.Session.ExploreTile(cell.X, cell.Y)
	g.apply("explore", res, err)
}
