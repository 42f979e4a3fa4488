package scene

import (
	"fmt"
	"image/color"
	"time"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
	"github.com/MarvinTM/replaceableParts-sub002/internal/render"
)

// Particle defaults.
const (
	ParticleLife  = 900 * time.Millisecond
	maxParticles  = 256
	particleSize  = 4
	particleScale = 1
)

// Particle is a production marker floating up from a machine. Its position
// is interpolated by wall-clock age, independent of tick rate.
type Particle struct {
	Material string
	Label    string
	From, To projection.Point
	Color    color.RGBA
	Life     time.Duration
	Age      time.Duration
}

// Progress returns the completed fraction in [0, 1].
func (p *Particle) Progress() float64 {
	if p.Life <= 0 {
		return 1
	}
	return min(float64(p.Age)/float64(p.Life), 1)
}

// Position returns the interpolated world position.
func (p *Particle) Position() projection.Point {
	t := p.Progress()
	return projection.Point{
		X: p.From.X + (p.To.X-p.From.X)*t,
		Y: p.From.Y + (p.To.Y-p.From.Y)*t,
	}
}

// Effects holds live particles.
type Effects struct {
	particles []Particle
}

// Add starts a particle, dropping the oldest past capacity.
func (e *Effects) Add(p Particle) {
	if p.Life <= 0 {
		p.Life = ParticleLife
	}
	if len(e.particles) >= maxParticles {
		e.particles = e.particles[1:]
	}
	e.particles = append(e.particles, p)
}

// Update ages particles by dt and drops finished ones.
func (e *Effects) Update(dt time.Duration) {
	live := e.particles[:0]
	for _, p := range e.particles {
		p.Age += dt
		if p.Age < p.Life {
			live = append(live, p)
		}
	}
	e.particles = live
}

// Len returns the number of live particles.
func (e *Effects) Len() int { return len(e.particles) }

// Particles returns a copy of the live particles.
func (e *Effects) Particles() []Particle {
	return append([]Particle(nil), e.particles...)
}

// Clear drops every particle.
func (e *Effects) Clear() {
	e.particles = nil
}

// Draw renders particles as fading dots with a count label.
func (e *Effects) Draw(r render.Renderer, dst render.Image, view render.GeoM) {
	for i := range e.particles {
		p := &e.particles[i]
		pos := p.Position()
		x, y := view.Apply(pos.X, pos.Y)
		fade := 1 - p.Progress()
		c := color.RGBA{
			R: uint8(float64(p.Color.R) * fade),
			G: uint8(float64(p.Color.G) * fade),
			B: uint8(float64(p.Color.B) * fade),
			A: uint8(float64(p.Color.A) * fade),
		}
		r.FillCircle(dst, float32(x), float32(y), particleSize, c)
		if p.Label != "" {
			r.DrawText(dst, p.Label, int(x)+particleSize+2, int(y)-particleSize, c, particleScale)
		}
	}
}

func countLabel(n int64) string {
	return fmt.Sprintf("+%d", n)
}
