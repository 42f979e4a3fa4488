package game

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/metrics"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render/headless"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render/scene"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

type harness struct {
	g    *Game
	r    *headless.Renderer
	in   *headless.Input
	clip *MemoryClipboard
	rec  *metrics.Recorder
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		r:    headless.NewRenderer(),
		in:   headless.NewInput(),
		clip: &MemoryClipboard{},
		rec:  metrics.New(),
	}
	h.g = New(simulation.DefaultRules(), DefaultSettings(), Deps{
		Renderer:  h.r,
		Input:     h.in,
		Metrics:   h.rec,
		Clipboard: h.clip,
		Logger:    quietLogger(),
	})
	h.g.Session.IDs = &simulation.SequentialIDs{Prefix: "m"}
	return h
}

// frame runs one Update and ends the input frame.
func (h *harness) frame(t *testing.T) {
	t.Helper()
	if err := h.g.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	h.in.Step()
}

// frames runs n frames.
func (h *harness) frames(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		h.frame(t)
	}
}

// pointAt moves the cursor over the center of a floor cell.
func (h *harness) pointAt(x, y int) {
	p := h.g.Scene.Iso().GridToScreen(float64(x), float64(y))
	sx, sy := h.g.Controller.Camera.WorldToScreen(p.X, p.Y)
	h.in.MoveTo(int(math.Round(sx)), int(math.Round(sy)))
}

// click presses and releases the left button over two frames.
func (h *harness) click(t *testing.T) {
	t.Helper()
	h.in.ButtonDown(render.MouseButtonLeft)
	h.frame(t)
	h.in.ButtonUp(render.MouseButtonLeft)
	h.frame(t)
}

func (h *harness) lastMessage() string {
	if len(h.g.Messages) == 0 {
		return ""
	}
	return h.g.Messages[len(h.g.Messages)-1].Text
}

func TestFirstUpdateSyncsScenes(t *testing.T) {
	h := newHarness(t)
	h.frame(t)
	if got := h.g.Scene.Stats().Syncs; got != 1 {
		t.Fatalf("Expected 1 sync, got %d", got)
	}
	if len(h.g.Exploration.Tiles()) == 0 {
		t.Error("Expected exploration tiles")
	}
	h.frame(t)
	if got := h.g.Scene.Stats().Syncs; got != 1 {
		t.Errorf("Expected no resync without a state change, got %d syncs", got)
	}
}

func TestTicksFollowClock(t *testing.T) {
	h := newHarness(t)

	// 60 frames of 1/60s fall a few nanoseconds short of one second.
	h.frames(t, 60)
	if tick := h.g.Session.State.Tick; tick != 0 {
		t.Fatalf("Expected tick 0, got %d", tick)
	}
	h.frame(t)
	if tick := h.g.Session.State.Tick; tick != 1 {
		t.Fatalf("Expected tick 1, got %d", tick)
	}

	h.g.ToggleFast()
	h.frames(t, 60)
	if tick := h.g.Session.State.Tick; tick != 5 {
		t.Errorf("Expected 4 more ticks at 4x, got tick %d", tick)
	}
}

func TestSpacePausesAndResumes(t *testing.T) {
	h := newHarness(t)
	h.in.Press(render.KeySpace)
	h.frame(t)
	if h.g.Clock.Speed() != simulation.SpeedPaused {
		t.Fatalf("Expected paused, got %s", h.g.Clock.Speed())
	}
	h.in.Release(render.KeySpace)
	h.frames(t, 120)
	if tick := h.g.Session.State.Tick; tick != 0 {
		t.Fatalf("Expected no ticks while paused, got %d", tick)
	}

	h.g.ToggleFast()
	h.g.TogglePause()
	h.g.TogglePause()
	if h.g.Clock.Speed() != simulation.SpeedFast {
		t.Errorf("Expected to resume at fast speed, got %s", h.g.Clock.Speed())
	}
}

func TestPlaceFromPalette(t *testing.T) {
	h := newHarness(t)
	h.frame(t)

	h.in.Press(render.Key1)
	h.pointAt(2, 2)
	h.frame(t)
	if p := h.g.Scene.Preview(); p == nil || p.Type != "furnace" || !p.Valid {
		t.Fatalf("Expected a valid furnace preview, got %+v", p)
	}
	h.in.Release(render.Key1)
	h.click(t)

	machines := h.g.Session.State.Machines
	if len(machines) != 1 || machines[0].Type != "furnace" || machines[0].X != 2 || machines[0].Y != 2 {
		t.Fatalf("Expected a furnace at (2,2), got %+v", machines)
	}
	if _, ok := h.g.Scene.SpriteByID("m1"); !ok {
		t.Error("Expected the scene to show the new furnace")
	}
	if h.g.Scene.Preview() != nil {
		t.Error("Expected the preview cleared")
	}
}

func TestClickSelectsAndDeleteRemoves(t *testing.T) {
	h := newHarness(t)
	if _, err := h.g.Session.PlaceMachine("furnace", 2, 2); err != nil {
		t.Fatal(err)
	}
	h.g.dirty = true
	h.frame(t)

	h.pointAt(3, 3)
	h.click(t)
	if h.g.Selected != "m1" {
		t.Fatalf("Expected m1 selected, got %q", h.g.Selected)
	}
	if lines := h.g.SelectionLines(); len(lines) < 3 || lines[0] != "furnace at (2,2)" {
		t.Errorf("Unexpected selection lines %q", lines)
	}

	h.in.Press(render.KeyDelete)
	h.frame(t)
	if n := len(h.g.Session.State.Machines); n != 0 {
		t.Fatalf("Expected the furnace removed, got %d machines", n)
	}
	if h.g.Selected != "" {
		t.Error("Expected the selection cleared")
	}
	if _, ok := h.g.Scene.SpriteByID("m1"); ok {
		t.Error("Expected the sprite released")
	}
}

func TestClipboardRoundTrip(t *testing.T) {
	h := newHarness(t)
	h.in.Press(render.KeyControl)
	h.in.Press(render.KeyC)
	h.frame(t)
	if !strings.HasPrefix(h.clip.Text, gamestate.PackMagic) {
		t.Fatalf("Expected a packed save on the clipboard, got %q", h.clip.Text)
	}
	h.in.Release(render.KeyC)

	if _, err := h.g.Session.PlaceMachine("furnace", 2, 2); err != nil {
		t.Fatal(err)
	}
	h.in.Press(render.KeyV)
	h.frame(t)
	if n := len(h.g.Session.State.Machines); n != 0 {
		t.Fatalf("Expected the copied world back, got %d machines", n)
	}
	h.in.Release(render.KeyV)
	h.frame(t)

	h.clip.Text = "not a save"
	h.in.Press(render.KeyV)
	h.frame(t)
	if got := h.lastMessage(); got != "Clipboard does not hold a valid save" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestRejectedIntentIsCounted(t *testing.T) {
	h := newHarness(t)
	h.in.Press(render.KeyE)
	h.frame(t)

	if !strings.Contains(h.lastMessage(), simulation.ReasonInsufficientPoints) {
		t.Errorf("Expected a rejection message, got %q", h.lastMessage())
	}
	expected := `
# HELP factory_intent_rejections_total Player intents rejected, by reason.
# TYPE factory_intent_rejections_total counter
factory_intent_rejections_total{reason="insufficient_research"} 1
`
	if err := testutil.GatherAndCompare(h.rec.Registry(), strings.NewReader(expected), "factory_intent_rejections_total"); err != nil {
		t.Error(err)
	}
}

func TestResearchToggle(t *testing.T) {
	h := newHarness(t)
	h.in.Press(render.KeyR)
	h.frame(t)
	if !h.g.Session.State.Research.Active {
		t.Fatal("Expected research active")
	}
	h.in.Release(render.KeyR)
	h.frame(t)
	h.in.Press(render.KeyR)
	h.frame(t)
	if h.g.Session.State.Research.Active {
		t.Error("Expected research stopped")
	}
}

func TestModeKeyCyclesAnimation(t *testing.T) {
	h := newHarness(t)
	h.in.Press(render.KeyM)
	h.frame(t)
	if h.g.Scene.Mode() != scene.ModeDisabled {
		t.Errorf("Expected continuous to cycle to disabled, got %s", h.g.Scene.Mode())
	}
}

func TestExplorationClickRevealsTile(t *testing.T) {
	h := newHarness(t)
	h.in.Press(render.KeyTab)
	h.frame(t)
	if h.g.View != ViewExploration {
		t.Fatalf("Expected the exploration view, got %s", h.g.View)
	}

	ex := h.g.Session.State.Exploration
	credits := h.g.Session.State.Credits
	c := h.g.Exploration.Projection().CellCenter(ex.Width/2+1, ex.Height/2)
	sx, sy := h.g.ExploreCam.WorldToScreen(c.X, c.Y)
	h.in.MoveTo(int(math.Round(sx)), int(math.Round(sy)))
	h.click(t)

	state := h.g.Session.State
	if !state.Exploration.IsExplored(ex.Width/2+1, ex.Height/2) {
		t.Fatalf("Expected the tile explored, got %+v", state.Exploration.Explored)
	}
	if want := credits - h.g.Session.Rules.Exploration.ExploreCost; state.Credits != want {
		t.Errorf("Expected credits %d, got %d", want, state.Credits)
	}
}

func TestDrawShowsHUD(t *testing.T) {
	h := newHarness(t)
	h.frame(t)
	screen := h.r.NewImage(h.g.ScreenWidth, h.g.ScreenHeight)
	h.r.Reset()
	h.g.Draw(screen)

	want := fmt.Sprintf("Credits %d", h.g.Session.State.Credits)
	found := false
	for _, op := range h.r.Ops() {
		if op.Kind == headless.OpText && op.Text == want {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected HUD text %q", want)
	}
	if h.r.Count(headless.OpFillPolygon) == 0 {
		t.Error("Expected the floor to be drawn")
	}
}

func TestBuildPalette(t *testing.T) {
	p := BuildPalette(simulation.DefaultRules())
	if len(p) != 6 {
		t.Fatalf("Expected 6 entries, got %d", len(p))
	}
	if p[0].Kind != gamestate.KindMachine || p[0].Type != "furnace" {
		t.Errorf("Expected furnace first, got %+v", p[0])
	}
	if last := p[len(p)-1]; last.Kind != gamestate.KindGenerator || last.Type != "solar_panel" {
		t.Errorf("Expected solar panel last, got %+v", last)
	}
}

func TestRecipeKeyStartsProduction(t *testing.T) {
	h := newHarness(t)
	if _, err := h.g.Session.PlaceMachine("furnace", 2, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := h.g.Session.PlaceGenerator("solar_panel", 10, 10); err != nil {
		t.Fatal(err)
	}
	h.g.Session.State.Inventory["iron_ore"] = 10
	h.g.dirty = true
	h.frame(t)

	h.pointAt(3, 3)
	h.click(t)
	if h.g.Selected != "m1" {
		t.Fatalf("Expected m1 selected, got %q", h.g.Selected)
	}

	h.in.Press(render.KeyN)
	h.frame(t)
	h.in.Release(render.KeyN)
	if got := h.g.Session.State.MachineByID("m1").RecipeID; got != "smelt_iron" {
		t.Fatalf("Expected smelt_iron assigned, got %q", got)
	}
	if got := h.lastMessage(); got != "Recipe: Iron Plate" {
		t.Errorf("Unexpected message %q", got)
	}

	h.frames(t, 61)
	state := h.g.Session.State
	if state.Inventory["iron_plate"] <= 0 {
		t.Fatalf("Expected iron plates after a tick, got inventory %v", state.Inventory)
	}
	if m := state.MachineByID("m1"); m.Status != gamestate.StatusWorking {
		t.Errorf("Expected the furnace working, got %s", m.Status)
	}

	// The furnace has one recipe, so the next press clears it.
	h.in.Press(render.KeyN)
	h.frame(t)
	h.in.Release(render.KeyN)
	if got := h.g.Session.State.MachineByID("m1").RecipeID; got != "" {
		t.Errorf("Expected the recipe cleared, got %q", got)
	}

	h.in.Press(render.KeyT)
	h.frame(t)
	if h.g.Session.State.MachineByID("m1").Enabled {
		t.Error("Expected the furnace disabled")
	}
	if got := h.lastMessage(); got != "Machine disabled" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestRecipeKeyOnGenerator(t *testing.T) {
	h := newHarness(t)
	if _, err := h.g.Session.PlaceGenerator("solar_panel", 4, 4); err != nil {
		t.Fatal(err)
	}
	h.g.Selected = "m1"
	h.in.Press(render.KeyN)
	h.frame(t)
	if got := h.lastMessage(); got != "Only machines run recipes" {
		t.Errorf("Unexpected message %q", got)
	}
}

func TestSellKeys(t *testing.T) {
	h := newHarness(t)
	h.in.Press(render.KeyX)
	h.frame(t)
	h.in.Release(render.KeyX)
	if got := h.lastMessage(); got != "Pick goods to sell first" {
		t.Errorf("Unexpected message %q", got)
	}

	h.g.Session.State.Inventory["coal"] = 2
	h.g.Session.State.Inventory["iron_plate"] = 4
	credits := h.g.Session.State.Credits

	h.in.Press(render.KeyG)
	h.frame(t)
	h.in.Release(render.KeyG)
	h.frame(t)
	if h.g.SellTarget != "coal" {
		t.Fatalf("Expected coal marked, got %q", h.g.SellTarget)
	}
	h.in.Press(render.KeyG)
	h.frame(t)
	h.in.Release(render.KeyG)
	if h.g.SellTarget != "iron_plate" {
		t.Fatalf("Expected iron plate marked, got %q", h.g.SellTarget)
	}
	if st := h.g.hudStatus(); len(st.Stock) != 2 || !st.Stock[1].Marked || st.Stock[0].Marked {
		t.Errorf("Expected the HUD to mark iron plate, got %+v", st.Stock)
	}

	h.in.Press(render.KeyX)
	h.frame(t)
	state := h.g.Session.State
	if state.Inventory["iron_plate"] != 0 || state.Inventory["coal"] != 2 {
		t.Fatalf("Expected only iron plates sold, got %v", state.Inventory)
	}
	if want := credits + 4*12; state.Credits != want {
		t.Errorf("Expected credits %d, got %d", want, state.Credits)
	}
	if got := h.lastMessage(); got != "Sold 4 Iron Plate for 48 credits" {
		t.Errorf("Unexpected message %q", got)
	}
	if h.g.SellTarget != "" {
		t.Errorf("Expected the marker cleared, got %q", h.g.SellTarget)
	}
}
