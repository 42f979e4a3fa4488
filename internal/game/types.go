package game

import (
	"github.com/atotto/clipboard"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

// Message represents an on-screen message
type Message struct {
	Text     string
	TimeLeft float64
	MaxTime  float64
}

// View selects which map is shown.
type View int

const (
	ViewFactory View = iota
	ViewExploration
)

func (v View) String() string {
	if v == ViewExploration {
		return "exploration"
	}
	return "factory"
}

// PaletteEntry is one placeable structure bound to a number key.
type PaletteEntry struct {
	Kind gamestate.Kind
	Type string
	Name string
}

// BuildPalette lists machines then generators in catalog order.
func BuildPalette(rules *simulation.Rules) []PaletteEntry {
	var entries []PaletteEntry
	for _, m := range rules.Machines {
		entries = append(entries, PaletteEntry{Kind: gamestate.KindMachine, Type: m.ID, Name: m.Name})
	}
	for _, g := range rules.Generators {
		entries = append(entries, PaletteEntry{Kind: gamestate.KindGenerator, Type: g.ID, Name: g.Name})
	}
	return entries
}

// Clipboard moves save blobs in and out of the game.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// SystemClipboard uses the OS clipboard.
type SystemClipboard struct{}

func (SystemClipboard) ReadAll() (string, error) { return clipboard.ReadAll() }

func (SystemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

// MemoryClipboard keeps the text in memory, for tests and headless runs.
type MemoryClipboard struct {
	Text string
}

func (c *MemoryClipboard) ReadAll() (string, error) { return c.Text, nil }

func (c *MemoryClipboard) WriteAll(text string) error {
	c.Text = text
	return nil
}

// Textures is a scene texture source that also applies finished async
// loads once per frame.
type Textures interface {
	Texture(key string) (render.Image, bool)
	Poll() int
}
