package placeholders

import (
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/MarvinTM/replaceableParts-sub002/internal/world/atlas"
)

// Sprite describes one placeholder frame to generate.
type Sprite struct {
	Name     string
	Category Category
	Label    string
	SizeX    int
	SizeY    int
	Frames   int  // animation frames, 0 or 1 for a still
	Separate bool // one frame per key "<name>_<n>" instead of a strip
}

// expand turns separate-frame sprites into one still per frame, keeping
// the base name as the first frame.
func expand(sprites []Sprite) []Sprite {
	var out []Sprite
	for _, s := range sprites {
		if s.Frames <= 1 || !s.Separate {
			out = append(out, s)
			continue
		}
		still := s
		still.Frames, still.Separate = 0, false
		out = append(out, still)
		for n := 1; n <= s.Frames; n++ {
			f := still
			f.Name = fmt.Sprintf("%s_%d", s.Name, n)
			f.Label = fmt.Sprintf("%s %d", s.Label, n)
			out = append(out, f)
		}
	}
	return out
}

func renderSprite(s Sprite, halfW, halfH int) *image.RGBA {
	if s.SizeX <= 0 || s.SizeY <= 0 {
		return FloorTile(halfW, halfH)
	}
	frame := Structure(s.Category, s.Label, s.SizeX, s.SizeY, halfW, halfH, BoxHeight*halfH)
	if s.Frames <= 1 {
		return frame
	}
	b := frame.Bounds()
	strip := image.NewRGBA(image.Rect(0, 0, b.Dx()*s.Frames, b.Dy()))
	for i := 0; i < s.Frames; i++ {
		at := image.Pt(i*b.Dx(), 0)
		draw.Draw(strip, image.Rectangle{Min: at, Max: at.Add(b.Size())}, frame, image.Point{}, draw.Src)
		// A light band sweeping across the top face marks the phase.
		band := image.Rect(at.X+i*b.Dx()/s.Frames, 0, at.X+(i+1)*b.Dx()/s.Frames, 2)
		draw.Draw(strip, band, image.NewUniform(GlyphBolt), image.Point{}, draw.Src)
	}
	return strip
}

// Sheet is a generated atlas image and its frame table.
type Sheet struct {
	Image  *image.RGBA
	Config atlas.AtlasConfig
}

// BoxHeight is the height of placeholder structure boxes relative to the
// tile half height.
const BoxHeight = 2

// Build renders sprites into a grid with the given number of columns. Each
// cell is as large as the largest frame; frames keep their own size.
func Build(name, layer string, sprites []Sprite, halfW, halfH, columns int) *Sheet {
	if columns <= 0 {
		columns = 4
	}
	sprites = expand(sprites)
	frames := make([]*image.RGBA, len(sprites))
	cellW, cellH := 2*halfW, 2*halfH
	for i, s := range sprites {
		frames[i] = renderSprite(s, halfW, halfH)
		b := frames[i].Bounds()
		cellW, cellH = max(cellW, b.Dx()), max(cellH, b.Dy())
	}

	rows := (len(frames) + columns - 1) / columns
	sheet := image.NewRGBA(image.Rect(0, 0, columns*cellW, max(rows, 1)*cellH))
	config := atlas.AtlasConfig{
		Name:       name,
		Layer:      layer,
		ImagePath:  name + ".png",
		TileWidth:  cellW,
		TileHeight: cellH,
	}
	for i, frame := range frames {
		col, row := i%columns, i/columns
		b := frame.Bounds()
		at := image.Pt(col*cellW, row*cellH)
		draw.Draw(sheet, image.Rectangle{Min: at, Max: at.Add(b.Size())}, frame, image.Point{}, draw.Src)
		config.Tiles = append(config.Tiles, atlas.TileDefinition{
			Name:   sprites[i].Name,
			AtlasX: col,
			AtlasY: row,
			Width:  b.Dx(),
			Height: b.Dy(),
			Properties: map[string]interface{}{
				"category": string(sprites[i].Category),
				"frames":   max(sprites[i].Frames, 1),
			},
		})
	}
	return &Sheet{Image: sheet, Config: config}
}

// GenerateAndSave writes <dir>/<name>.png and <dir>/<name>.json.
func GenerateAndSave(dir, name string, sprites []Sprite, halfW, halfH int) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create assets directory: %w", err)
	}

	sheet := Build(name, "structures", sprites, halfW, halfH, 4)
	pngPath := filepath.Join(dir, name+".png")
	if err := SavePNG(sheet.Image, pngPath); err != nil {
		return fmt.Errorf("failed to save %s: %w", pngPath, err)
	}

	data, err := json.MarshalIndent(sheet.Config, "", "  ")
	if err != nil {
		return err
	}
	jsonPath := filepath.Join(dir, name+".json")
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to save %s: %w", jsonPath, err)
	}
	return nil
}
