package game

import (
	"fmt"
	"image/color"

	"github.com/MarvinTM/replaceableParts-sub002/internal/gamescanner"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

// ManagerState is the top-level screen.
type ManagerState int

const (
	StateSelectRules ManagerState = iota
	StatePlaying
)

// Manager handles the overall game state: picking a rules catalog and then
// running the game.
type Manager struct {
	ScreenWidth  int
	ScreenHeight int
	State        ManagerState
	Game         *Game
	Renderer     render.Renderer
	InputMgr     render.InputManager

	Settings *Settings
	Deps     Deps

	// Rules catalogs found in the data directory
	DataPath string
	Entries  []gamescanner.GameEntry
	Error    string // last failed load, shown on the selection screen
}

// NewManager creates a manager. With no catalogs in dataPath the game
// starts right away with the built-in rules.
func NewManager(settings *Settings, deps Deps, dataPath string) *Manager {
	if settings == nil {
		settings = DefaultSettings()
	}
	m := &Manager{
		ScreenWidth:  settings.ScreenWidth,
		ScreenHeight: settings.ScreenHeight,
		Renderer:     deps.Renderer,
		InputMgr:     deps.Input,
		Settings:     settings,
		Deps:         deps,
		DataPath:     dataPath,
	}
	if dataPath != "" {
		entries, err := gamescanner.ScanDataDirectory(dataPath)
		if err != nil && deps.Logger != nil {
			deps.Logger.Warn("no rules catalogs", "path", dataPath, "err", err)
		}
		m.Entries = entries
	}
	if len(m.Entries) == 0 {
		m.Start(simulation.DefaultRules())
	}
	return m
}

// Start runs a new game with the given rules.
func (m *Manager) Start(rules *simulation.Rules) {
	m.Game = New(rules, m.Settings, m.Deps)
	m.Game.ScreenWidth, m.Game.ScreenHeight = m.ScreenWidth, m.ScreenHeight
	m.State = StatePlaying
}

// Select loads the i-th catalog and starts a game with it.
func (m *Manager) Select(i int) error {
	if i < 0 || i >= len(m.Entries) {
		return fmt.Errorf("no rules catalog %d", i+1)
	}
	entry := m.Entries[i]
	rules, err := simulation.LoadRules(entry.RulesPath(m.DataPath))
	if err != nil {
		return fmt.Errorf("load %s: %w", entry.Name, err)
	}
	m.Start(rules)
	return nil
}

// Update updates the game state.
func (m *Manager) Update() error {
	switch m.State {
	case StateSelectRules:
		for i, k := range paletteKeys {
			if i < len(m.Entries) && m.InputMgr.IsKeyJustPressed(k) {
				if err := m.Select(i); err != nil {
					m.Error = err.Error()
					if m.Deps.Logger != nil {
						m.Deps.Logger.Error("failed to load rules", "err", err)
					}
				}
				break
			}
		}
	case StatePlaying:
		if m.Game != nil {
			return m.Game.Update()
		}
	}
	return nil
}

// Draw draws the current state.
func (m *Manager) Draw(screen render.Image) {
	switch m.State {
	case StateSelectRules:
		screen.Fill(color.RGBA{20, 20, 40, 255})
		white := color.RGBA{255, 255, 255, 255}
		m.Renderer.DrawText(screen, "Choose a rule set", 50, 50, white, 1.5)
		for i, e := range m.Entries {
			if i >= len(paletteKeys) {
				break
			}
			m.Renderer.DrawText(screen, fmt.Sprintf("[%d] %s", i+1, e.Name), 60, 90+i*24, white, 1)
		}
		if m.Error != "" {
			m.Renderer.DrawText(screen, m.Error, 50, m.ScreenHeight-40, color.RGBA{255, 90, 90, 255}, 1)
		}
	case StatePlaying:
		if m.Game != nil {
			m.Game.Draw(screen)
		}
	}
}

// Layout handles window resize.
func (m *Manager) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != m.ScreenWidth || outsideHeight != m.ScreenHeight {
		m.ScreenWidth = outsideWidth
		m.ScreenHeight = outsideHeight
		if m.Game != nil {
			m.Game.ScreenWidth = outsideWidth
			m.Game.ScreenHeight = outsideHeight
		}
	}
	return m.ScreenWidth, m.ScreenHeight
}

// Close releases the running game.
func (m *Manager) Close() {
	if m.Game != nil {
		m.Game.Close()
	}
}
