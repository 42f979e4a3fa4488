package atlas

import (
	"fmt"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

// Manager manages multiple sprite atlases organized by layer
type Manager struct {
	atlasesByLayer map[string]*Atlas // Atlases organized by layer name
	atlasesByName  map[string]*Atlas // Atlases organized by atlas name
	order          []*Atlas          // Registration order, used for key lookups
}

// NewManager creates a new atlas manager
func NewManager() *Manager {
	return &Manager{
		atlasesByLayer: make(map[string]*Atlas),
		atlasesByName:  make(map[string]*Atlas),
	}
}

// LoadAtlasConfig loads an atlas from a config file and registers it
func (m *Manager) LoadAtlasConfig(configPath string, loader render.ResourceLoader) error {
	atlas, err := LoadAtlas(configPath, loader)
	if err != nil {
		return err
	}

	if err := m.RegisterAtlas(atlas); err != nil {
		atlas.Dispose()
		return err
	}
	return nil
}

// RegisterAtlas registers a loaded atlas with the manager
func (m *Manager) RegisterAtlas(atlas *Atlas) error {
	if atlas.Config.Layer == "" {
		return fmt.Errorf("atlas layer cannot be empty")
	}

	if atlas.Config.Name == "" {
		return fmt.Errorf("atlas name cannot be empty")
	}

	// Check for duplicate layer (one atlas per layer)
	if existing, exists := m.atlasesByLayer[atlas.Config.Layer]; exists {
		return fmt.Errorf("layer %s already has an atlas registered: %s", atlas.Config.Layer, existing.Config.Name)
	}

	m.atlasesByLayer[atlas.Config.Layer] = atlas
	m.atlasesByName[atlas.Config.Name] = atlas
	m.order = append(m.order, atlas)

	return nil
}

// GetAtlasByLayer returns the atlas for a specific layer
func (m *Manager) GetAtlasByLayer(layer string) (*Atlas, bool) {
	atlas, ok := m.atlasesByLayer[layer]
	return atlas, ok
}

// GetAtlasByName returns an atlas by its name
func (m *Manager) GetAtlasByName(name string) (*Atlas, bool) {
	atlas, ok := m.atlasesByName[name]
	return atlas, ok
}

// GetTile retrieves a tile definition from a specific layer
func (m *Manager) GetTile(layer, tileName string) (*TileDefinition, error) {
	atlas, ok := m.GetAtlasByLayer(layer)
	if !ok {
		return nil, fmt.Errorf("no atlas found for layer: %s", layer)
	}

	tile, ok := atlas.GetTile(tileName)
	if !ok {
		return nil, fmt.Errorf("tile %s not found in layer %s", tileName, layer)
	}

	return tile, nil
}

// Lookup finds a frame by key in any atlas, first registered wins.
func (m *Manager) Lookup(key string) (render.Image, bool) {
	for _, a := range m.order {
		if tile, ok := a.GetTile(key); ok {
			return a.GetTileSubImage(tile), true
		}
	}
	return nil, false
}

// GetLayers returns all registered layer names in registration order
func (m *Manager) GetLayers() []string {
	layers := make([]string, 0, len(m.order))
	for _, a := range m.order {
		layers = append(layers, a.Config.Layer)
	}
	return layers
}

// Dispose releases every registered sheet.
func (m *Manager) Dispose() {
	for _, a := range m.order {
		a.Dispose()
	}
	m.atlasesByLayer = make(map[string]*Atlas)
	m.atlasesByName = make(map[string]*Atlas)
	m.order = nil
}
