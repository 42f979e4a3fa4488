// Package atlas loads sprite sheets with named frames and caches textures
// loaded one file at a time.
package atlas

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

// TileDefinition defines a single frame within an atlas
type TileDefinition struct {
	Name       string                 `json:"name"`             // Texture key (e.g., "furnace", "furnace_2")
	AtlasX     int                    `json:"atlas_x"`          // X position in atlas (in cells)
	AtlasY     int                    `json:"atlas_y"`          // Y position in atlas (in cells)
	Width      int                    `json:"width,omitempty"`  // Pixel width, defaults to the cell width
	Height     int                    `json:"height,omitempty"` // Pixel height, defaults to the cell height
	Properties map[string]interface{} `json:"properties"`       // Custom properties (category, anchor, ...)
}

// AtlasConfig defines the JSON configuration for a sprite atlas
type AtlasConfig struct {
	Name       string           `json:"name"`        // Atlas name
	Layer      string           `json:"layer"`       // Layer this atlas belongs to (e.g., "terrain", "structures")
	ImagePath  string           `json:"image_path"`  // Image file, relative to the config file
	TileWidth  int              `json:"tile_width"`  // Width of each cell in pixels
	TileHeight int              `json:"tile_height"` // Height of each cell in pixels
	Tiles      []TileDefinition `json:"tiles"`       // Array of frame definitions
}

// Atlas represents a loaded sprite atlas
type Atlas struct {
	Config      *AtlasConfig
	Image       render.Image
	TilesByName map[string]*TileDefinition // Quick lookup by name
}

// ParseConfig decodes and validates an atlas configuration.
func ParseConfig(data []byte) (*AtlasConfig, error) {
	var config AtlasConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse atlas config: %w", err)
	}
	if config.TileWidth <= 0 || config.TileHeight <= 0 {
		return nil, fmt.Errorf("invalid tile dimensions: %dx%d", config.TileWidth, config.TileHeight)
	}
	if config.ImagePath == "" {
		return nil, fmt.Errorf("image_path is required in atlas config")
	}
	return &config, nil
}

// LoadAtlas loads a sprite atlas from a JSON configuration file
func LoadAtlas(configPath string, loader render.ResourceLoader) (*Atlas, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read atlas config %s: %w", configPath, err)
	}

	config, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	imagePath := config.ImagePath
	if !filepath.IsAbs(imagePath) {
		imagePath = filepath.Join(filepath.Dir(configPath), imagePath)
	}
	img, err := loader.LoadImage(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load atlas image %s: %w", imagePath, err)
	}

	return New(config, img), nil
}

// New wraps an already loaded sheet.
func New(config *AtlasConfig, img render.Image) *Atlas {
	tilesByName := make(map[string]*TileDefinition)
	for i := range config.Tiles {
		tile := &config.Tiles[i]
		if tile.Name != "" {
			tilesByName[tile.Name] = tile
		}
	}
	return &Atlas{
		Config:      config,
		Image:       img,
		TilesByName: tilesByName,
	}
}

// GetTile returns a tile definition by name
func (a *Atlas) GetTile(name string) (*TileDefinition, bool) {
	tile, ok := a.TilesByName[name]
	return tile, ok
}

// Rect returns the pixel rectangle of a frame in the sheet.
func (a *Atlas) Rect(tile *TileDefinition) image.Rectangle {
	x := tile.AtlasX * a.Config.TileWidth
	y := tile.AtlasY * a.Config.TileHeight
	w, h := a.Config.TileWidth, a.Config.TileHeight
	if tile.Width > 0 {
		w = tile.Width
	}
	if tile.Height > 0 {
		h = tile.Height
	}
	return image.Rect(x, y, x+w, y+h)
}

// GetTileSubImage returns the sub-image for a specific tile
func (a *Atlas) GetTileSubImage(tile *TileDefinition) render.Image {
	return a.Image.SubImage(a.Rect(tile))
}

// GetTileSubImageByName returns the sub-image for a tile by name
func (a *Atlas) GetTileSubImageByName(name string) (render.Image, error) {
	tile, ok := a.GetTile(name)
	if !ok {
		return nil, fmt.Errorf("tile not found: %s", name)
	}
	return a.GetTileSubImage(tile), nil
}

// Dispose releases the sheet.
func (a *Atlas) Dispose() {
	if a.Image != nil {
		a.Image.Dispose()
	}
}

// GetTileProperty retrieves a property from a tile definition
func (td *TileDefinition) GetTileProperty(key string) (interface{}, bool) {
	if td.Properties == nil {
		return nil, false
	}
	val, ok := td.Properties[key]
	return val, ok
}

// GetTilePropertyBool retrieves a boolean property
func (td *TileDefinition) GetTilePropertyBool(key string, defaultVal bool) bool {
	val, ok := td.GetTileProperty(key)
	if !ok {
		return defaultVal
	}
	if boolVal, ok := val.(bool); ok {
		return boolVal
	}
	return defaultVal
}

// GetTilePropertyString retrieves a string property
func (td *TileDefinition) GetTilePropertyString(key string, defaultVal string) string {
	val, ok := td.GetTileProperty(key)
	if !ok {
		return defaultVal
	}
	if strVal, ok := val.(string); ok {
		return strVal
	}
	return defaultVal
}

// GetTilePropertyInt retrieves an integer property
func (td *TileDefinition) GetTilePropertyInt(key string, defaultVal int) int {
	val, ok := td.GetTileProperty(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64: // JSON numbers
		return int(v)
	case int:
		return v
	}
	return defaultVal
}
