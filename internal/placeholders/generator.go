package placeholders

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Category selects the placeholder color. Structure kinds and material
// categories share one palette.
type Category string

const (
	Machine      Category = "machine"
	Research     Category = "research"
	Generator    Category = "generator"
	Extractor    Category = "extractor"
	Floor        Category = "floor"
	Wall         Category = "wall"
	Raw          Category = "raw"
	Intermediate Category = "intermediate"
	Final        Category = "final"
	Equipment    Category = "equipment"
)

// ColorPalette defines colors for each placeholder category
var ColorPalette = map[Category]color.RGBA{
	Machine:      {90, 120, 160, 255}, // Steel blue
	Research:     {120, 80, 170, 255}, // Purple
	Generator:    {200, 150, 0, 255},  // Gold/yellow
	Extractor:    {150, 110, 70, 255}, // Rust brown
	Floor:        {80, 85, 95, 255},   // Gray-blue
	Wall:         {140, 145, 155, 255},
	Raw:          {160, 120, 80, 255},
	Intermediate: {170, 170, 180, 255},
	Final:        {80, 180, 110, 255},
	Equipment:    {220, 120, 60, 255},
}

// Fallback is used for categories missing from the palette.
var Fallback = color.RGBA{128, 128, 128, 255}

// Shortage colors for the power glyph.
var (
	GlyphBackground = color.RGBA{200, 40, 40, 230}
	GlyphBolt       = color.RGBA{255, 230, 60, 255}
)

// ColorFor returns the palette color of a category.
func ColorFor(c Category) color.RGBA {
	if col, ok := ColorPalette[c]; ok {
		return col
	}
	return Fallback
}

// FillPolygon fills a polygon on img, testing pixel centers with the
// even-odd rule.
func FillPolygon(img *image.RGBA, pts []image.Point, col color.Color) {
	if len(pts) < 3 {
		return
	}
	b := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b = b.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	src := image.NewUniform(col)
	for y := b.Min.Y; y <= b.Max.Y; y++ {
		for x := b.Min.X; x <= b.Max.X; x++ {
			if inside(float64(x)+0.5, float64(y)+0.5, pts) {
				draw.Draw(img, image.Rect(x, y, x+1, y+1), src, image.Point{}, draw.Over)
			}
		}
	}
}

func inside(x, y float64, pts []image.Point) bool {
	in := false
	j := len(pts) - 1
	for i := range pts {
		xi, yi := float64(pts[i].X), float64(pts[i].Y)
		xj, yj := float64(pts[j].X), float64(pts[j].Y)
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			in = !in
		}
		j = i
	}
	return in
}

// FloorTile creates a diamond floor tile of the given half extents
func FloorTile(halfW, halfH int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2*halfW, 2*halfH))
	base := ColorFor(Floor)
	diamond := []image.Point{{halfW, 0}, {2 * halfW, halfH}, {halfW, 2 * halfH}, {0, halfH}}
	FillPolygon(img, diamond, Darken(base, 0.8))
	inner := []image.Point{{halfW, 1}, {2*halfW - 2, halfH}, {halfW, 2*halfH - 1}, {2, halfH}}
	FillPolygon(img, inner, base)
	return img
}

// Structure creates an isometric box for a sizeX by sizeY footprint. The
// image is exactly as wide as the footprint diamond; the box rises
// boxHeight pixels above it.
func Structure(c Category, label string, sizeX, sizeY, halfW, halfH, boxHeight int) *image.RGBA {
	w := (sizeX + sizeY) * halfW
	h := (sizeX+sizeY)*halfH + boxHeight
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	// Footprint corners at floor level.
	left := image.Pt(0, sizeY*halfH+boxHeight)
	bottom := image.Pt(sizeX*halfW, (sizeX+sizeY)*halfH+boxHeight)
	right := image.Pt(w, sizeX*halfH+boxHeight)
	top := image.Pt(sizeY*halfW, boxHeight)
	up := image.Pt(0, -boxHeight)

	base := ColorFor(c)
	FillPolygon(img, []image.Point{left, bottom, bottom.Add(up), left.Add(up)}, Darken(base, 0.7))
	FillPolygon(img, []image.Point{bottom, right, right.Add(up), bottom.Add(up)}, Darken(base, 0.85))
	FillPolygon(img, []image.Point{left.Add(up), bottom.Add(up), right.Add(up), top.Add(up)}, Lighten(base, 0.2))

	if label != "" {
		DrawLabel(img, label, image.Pt(w/2, (top.Y+bottom.Y)/2-boxHeight), color.RGBA{20, 20, 25, 255})
	}
	return img
}

// DrawLabel draws text centered on at with the 7x13 bitmap face. Labels
// wider than the image are truncated from the right.
func DrawLabel(img *image.RGBA, label string, at image.Point, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	maxW := img.Bounds().Dx() - 2
	for len(label) > 1 && d.MeasureString(label).Ceil() > maxW {
		label = label[:len(label)-1]
	}
	width := d.MeasureString(label).Ceil()
	d.Dot = fixed.P(at.X-width/2, at.Y+basicfont.Face7x13.Ascent/2)
	d.DrawString(label)
}

// PowerGlyph creates the power-shortage marker: a lightning bolt on a red
// disc.
func PowerGlyph(size int) *image.RGBA {
	img := CreateCircle(size, GlyphBackground, Darken(GlyphBackground, 0.6))
	s := float64(size)
	bolt := []image.Point{
		{int(s * 0.55), int(s * 0.15)},
		{int(s * 0.30), int(s * 0.55)},
		{int(s * 0.48), int(s * 0.55)},
		{int(s * 0.40), int(s * 0.85)},
		{int(s * 0.70), int(s * 0.42)},
		{int(s * 0.52), int(s * 0.42)},
	}
	FillPolygon(img, bolt, GlyphBolt)
	return img
}

// CreateCircle creates a circular sprite (resource markers, particles)
func CreateCircle(size int, fillColor, outlineColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	center := float64(size) / 2
	radius := center - 1

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dist := math.Hypot(float64(x)+0.5-center, float64(y)+0.5-center)
			if dist <= radius-1 {
				img.Set(x, y, fillColor)
			} else if dist <= radius {
				img.Set(x, y, outlineColor)
			}
		}
	}

	return img
}

// SavePNG saves an image to a PNG file
func SavePNG(img image.Image, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// Darken returns a darker version of a color
func Darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// Lighten returns a lighter version of a color
func Lighten(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) + (255-float64(c.R))*factor),
		G: uint8(float64(c.G) + (255-float64(c.G))*factor),
		B: uint8(float64(c.B) + (255-float64(c.B))*factor),
		A: c.A,
	}
}
