package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/MarvinTM/replaceableParts-sub002/internal/interaction"
	"github.com/MarvinTM/replaceableParts-sub002/internal/metrics"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render/scene"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
	"github.com/MarvinTM/replaceableParts-sub002/internal/ui/hud"
)

// frameDT is the wall time of one Update call; ebiten runs Update at a
// fixed 60 TPS.
const frameDT = time.Second / 60

// messageSeconds is how long a message stays on screen.
const messageSeconds = 3.0

// Deps are the collaborators a Game is built from.
type Deps struct {
	Renderer  render.Renderer
	Input     render.InputManager
	Textures  Textures          // nil draws placeholder art
	Metrics   *metrics.Recorder // nil disables metrics
	Clipboard Clipboard         // nil uses the system clipboard
	Logger    *slog.Logger
}

// Game holds all game state and logic.
type Game struct {
	ScreenWidth  int
	ScreenHeight int
	Renderer     render.Renderer
	InputMgr     render.InputManager
	Settings     *Settings
	Logger       *slog.Logger

	// Simulation
	Session *simulation.Session
	Clock   *simulation.Clock

	// Views
	Scene       *scene.Scene
	Exploration *scene.ExplorationScene
	Controller  *interaction.Controller
	ExploreCam  *interaction.Camera
	View        View

	Textures  Textures
	Metrics   *metrics.Recorder
	Clipboard Clipboard

	// Placement palette, bound to the number keys
	Palette []PaletteEntry

	// UI state
	HUD        *hud.HUD
	Messages   []Message
	Selected   string // structure opened by a click
	SellTarget string // material marked for selling

	resume simulation.Speed // speed to return to after a pause
	dirty  bool             // state changed since the last scene sync

	// Debug
	FrameCount int
}

// New creates a game running a fresh world of the given rules.
func New(rules *simulation.Rules, settings *Settings, deps Deps) *Game {
	if settings == nil {
		settings = DefaultSettings()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clip := deps.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}

	g := &Game{
		ScreenWidth:  settings.ScreenWidth,
		ScreenHeight: settings.ScreenHeight,
		Renderer:     deps.Renderer,
		InputMgr:     deps.Input,
		Settings:     settings,
		Logger:       logger,
		Clock:        simulation.NewClock(settings.Clock()),
		Textures:     deps.Textures,
		Metrics:      deps.Metrics,
		Clipboard:    clip,
		Palette:      BuildPalette(rules),
		HUD:          hud.New(&settings.HUD, settings.ScreenWidth, settings.ScreenHeight),
		resume:       simulation.SpeedNormal,
		dirty:        true,
	}

	g.Session = simulation.NewSession(rules, settings.Seed)
	g.Session.Logger = logger.With("component", "session")

	opts := settings.SceneOptions()
	opts.Logger = logger
	if g.Metrics != nil {
		opts.OnTextureMiss = func(string) { g.Metrics.TextureMiss() }
	}
	var tex scene.Textures
	if deps.Textures != nil {
		tex = deps.Textures
	}
	g.Scene = scene.New(deps.Renderer, tex, rules, opts)
	g.Exploration = scene.NewExploration(deps.Renderer, rules, settings.ExplorationTile)

	g.Controller = interaction.NewController(interaction.NewCamera(settings.MinZoom), g.Scene, rules, g.Session)
	g.ExploreCam = interaction.NewCamera(settings.MinZoom)
	g.centerCameras()
	return g
}

// centerCameras puts the middle of the floor and of the exploration map
// in the middle of the screen.
func (g *Game) centerCameras() {
	fs := g.Session.State.FloorSpace
	mid := g.Scene.Iso().GridToScreen(float64(fs.Width-1)/2, float64(fs.Height-1)/2)
	g.Controller.Camera.CenterOn(mid.X, mid.Y, g.ScreenWidth, g.ScreenHeight)

	ex := g.Session.State.Exploration
	c := g.Exploration.Projection().CellCenter(ex.Width/2, ex.Height/2)
	g.ExploreCam.CenterOn(c.X, c.Y, g.ScreenWidth, g.ScreenHeight)
}

// Update handles game logic updates.
func (g *Game) Update() error {
	g.FrameCount++

	// Update message timers
	g.updateMessages(frameDT.Seconds())

	g.handleKeys()
	g.handlePointer()

	for n := g.Clock.Advance(frameDT); n > 0; n-- {
		if err := g.Step(); err != nil {
			return err
		}
	}

	if g.Textures != nil {
		g.Textures.Poll()
	}
	if err := g.SyncScenes(); err != nil {
		return err
	}
	g.Scene.SetSpeed(g.Clock.Multiplier())
	g.Scene.Update(frameDT)
	return nil
}

// Step runs one simulation tick and feeds its report to the scene and the
// metrics. A failing tick means the world is corrupt and ends the game.
func (g *Game) Step() error {
	tick := g.Session.State.Tick
	res, err := g.Session.Simulate()
	if err != nil {
		return fmt.Errorf("simulation tick %d: %w", tick, err)
	}
	if g.Metrics != nil {
		g.Metrics.ObserveStep(res.State, res.Report)
	}
	g.Scene.Emit(res.Report)
	if rep := res.Report; rep != nil {
		for _, id := range rep.Completed {
			g.ShowMessage(fmt.Sprintf("Prototype ready: %s", g.recipeName(id)))
		}
		if rep.Victory {
			g.ShowMessage("Victory! The replaceable part is done.")
		}
	}
	g.dirty = true
	return nil
}

// SyncScenes rebuilds both scenes if the world changed since the last call.
func (g *Game) SyncScenes() error {
	if !g.dirty {
		return nil
	}
	start := time.Now()
	if err := g.Scene.Sync(g.Session.State); err != nil {
		return err
	}
	if g.Metrics != nil {
		g.Metrics.ObserveSceneSync(time.Since(start))
	}
	if err := g.Exploration.Sync(g.Session.State); err != nil {
		return err
	}
	if g.Selected != "" {
		if _, ok := g.Session.State.StructureKind(g.Selected); !ok {
			g.Selected = ""
		}
	}
	g.dirty = false
	return nil
}

// apply records an intent outcome. It reports whether the intent was
// accepted. Data errors are logged and shown, never fatal: the session
// keeps its previous state.
func (g *Game) apply(intent string, res simulation.Result, err error) bool {
	if err != nil {
		g.Logger.Error("intent failed", "intent", intent, "err", err)
		g.ShowMessage(fmt.Sprintf("%s failed: %v", intent, err))
		return false
	}
	if g.Metrics != nil {
		g.Metrics.ObserveResult(res)
	}
	if !res.Accepted {
		g.ShowMessage(rejectionText(intent, res))
		return false
	}
	g.dirty = true
	return true
}

func rejectionText(intent string, res simulation.Result) string {
	if res.Detail != "" {
		return fmt.Sprintf("Cannot %s: %s (%s)", intent, res.Reason, res.Detail)
	}
	return fmt.Sprintf("Cannot %s: %s", intent, res.Reason)
}

// recipeName names a single-output recipe after its product.
func (g *Game) recipeName(id string) string {
	r, ok := g.Session.Rules.Recipe(id)
	if !ok || len(r.Outputs) != 1 {
		return id
	}
	for out := range r.Outputs {
		if m, ok := g.Session.Rules.Material(out); ok {
			return m.Name
		}
	}
	return id
}

// Layout returns the game's logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.ScreenWidth, g.ScreenHeight
}

func (g *Game) updateMessages(dt float64) {
	var active []Message
	for _, msg := range g.Messages {
		msg.TimeLeft -= dt
		if msg.TimeLeft > 0 {
			active = append(active, msg)
		}
	}
	g.Messages = active
}

// ShowMessage adds a new message to be displayed on screen.
func (g *Game) ShowMessage(text string) {
	g.Messages = append(g.Messages, Message{
		Text:     text,
		TimeLeft: messageSeconds,
		MaxTime:  messageSeconds,
	})
	g.Logger.Info("message", "text", text)
}

// Close releases the scenes and the texture source.
func (g *Game) Close() {
	g.Scene.Dispose()
	g.Exploration.Dispose()
}
