package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/MarvinTM/replaceableParts-sub002/internal/placeholders"
	"github.com/MarvinTM/replaceableParts-sub002/internal/simulation"
)

func main() {
	rulesPath := flag.String("rules", "", "rules YAML/JSON file (empty uses the built-in rules)")
	outDir := flag.String("out", "assets", "output directory")
	name := flag.String("name", "placeholders", "atlas name")
	tileW := flag.Int("tile-width", 64, "isometric tile width in pixels")
	tileH := flag.Int("tile-height", 32, "isometric tile height in pixels")
	flag.Parse()

	fmt.Println("Factory Placeholder Graphics Generator")
	fmt.Println("======================================")

	rules, err := simulation.LoadRules(*rulesPath)
	if err != nil {
		log.Fatalf("Failed to load rules: %v", err)
	}

	sprites := Sprites(rules)
	if err := placeholders.GenerateAndSave(*outDir, *name, sprites, *tileW/2, *tileH/2); err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("Generated %d sprites into %s/%s.png\n", len(sprites), *outDir, *name)
}

// Sprites lists one placeholder per structure in the catalog plus the
// floor tile and the extractor.
func Sprites(rules *simulation.Rules) []placeholders.Sprite {
	sprites := []placeholders.Sprite{
		{Name: "floor", Category: placeholders.Floor},
		{Name: "extractor", Category: placeholders.Extractor, Label: "Extractor", SizeX: 1, SizeY: 1},
	}
	for _, m := range rules.Machines {
		cat := placeholders.Machine
		if m.IsResearchFacility {
			cat = placeholders.Research
		}
		s := placeholders.Sprite{Name: m.Sprite, Category: cat, Label: m.Name, SizeX: m.SizeX, SizeY: m.SizeY}
		if m.Animation != nil {
			s.Frames, s.Separate = m.Animation.Frames, m.Animation.SeparateFrames
		}
		sprites = append(sprites, s)
	}
	for _, g := range rules.Generators {
		s := placeholders.Sprite{Name: g.Sprite, Category: placeholders.Generator, Label: g.Name, SizeX: g.SizeX, SizeY: g.SizeY}
		if g.Animation != nil {
			s.Frames, s.Separate = g.Animation.Frames, g.Animation.SeparateFrames
		}
		sprites = append(sprites, s)
	}
	return sprites
}
