// Package placement decides whether a structure footprint may be placed on
// the factory floor.
package placement

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/core/projection"
)

// Reason explains a rejected placement.
type Reason string

const (
	ReasonOutOfBounds Reason = "out_of_bounds"
	ReasonCollision   Reason = "collision"
	ReasonBadSize     Reason = "bad_size"
)

// Verdict is the outcome of a placement check. Rejections are values, not
// errors.
type Verdict struct {
	Valid  bool
	Reason Reason
	// Detail is a human-readable explanation, e.g. the colliding structure.
	Detail string
	// Blocker is the id of the colliding structure when Reason is collision.
	Blocker string
}

// Ok is the accepting verdict.
var Ok = Verdict{Valid: true}

// ErrUnknownType is returned when a structure in the state references a type
// the catalog does not know.
var ErrUnknownType = errors.New("unknown structure type")

// Sizer resolves a structure type to its footprint size.
type Sizer interface {
	StructureSize(kind gamestate.Kind, typ string) (sizeX, sizeY int, ok bool)
}

// Rect is an axis-aligned cell rectangle [X, X+W) × [Y, Y+H).
type Rect struct {
	X, Y, W, H int
}

// Intersects reports whether two rectangles share at least one cell.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Contains reports whether the cell lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Footprint is the rectangle a placed structure occupies.
type Footprint struct {
	ID   string
	Kind gamestate.Kind
	Type string
	Rect Rect
}

// Footprints lists every structure footprint in the state, machines first,
// in list order.
func Footprints(state *gamestate.WorldState, sizer Sizer) ([]Footprint, error) {
	out := make([]Footprint, 0, len(state.Machines)+len(state.Generators))
	for _, m := range state.Machines {
		sx, sy, ok := sizer.StructureSize(gamestate.KindMachine, m.Type)
		if !ok {
			return nil, fmt.Errorf("machine %s type %q: %w", m.ID, m.Type, ErrUnknownType)
		}
		out = append(out, Footprint{ID: m.ID, Kind: gamestate.KindMachine, Type: m.Type, Rect: Rect{m.X, m.Y, sx, sy}})
	}
	for _, g := range state.Generators {
		sx, sy, ok := sizer.StructureSize(gamestate.KindGenerator, g.Type)
		if !ok {
			return nil, fmt.Errorf("generator %s type %q: %w", g.ID, g.Type, ErrUnknownType)
		}
		out = append(out, Footprint{ID: g.ID, Kind: gamestate.KindGenerator, Type: g.Type, Rect: Rect{g.X, g.Y, sx, sy}})
	}
	return out, nil
}

// FloorMask is the set of placeable cells: the union of the floor chunks.
type FloorMask struct {
	cells mapset.Set[projection.Cell]
}

// NewFloorMask builds the cell union of the floor chunks.
func NewFloorMask(fs gamestate.FloorSpace) FloorMask {
	cells := mapset.New[projection.Cell]()
	for _, c := range fs.Chunks {
		for y := c.Y; y < c.Y+c.Height; y++ {
			for x := c.X; x < c.X+c.Width; x++ {
				cells.Put(projection.Cell{X: x, Y: y})
			}
		}
	}
	return FloorMask{cells: cells}
}

// Contains reports whether (x, y) is floor.
func (m FloorMask) Contains(x, y int) bool {
	return m.cells.Has(projection.Cell{X: x, Y: y})
}

// Cells lists every floor cell in no particular order.
func (m FloorMask) Cells() []projection.Cell {
	out := make([]projection.Cell, 0, m.cells.Size())
	m.cells.Each(func(c projection.Cell) {
		out = append(out, c)
	})
	return out
}

// Size returns the number of floor cells.
func (m FloorMask) Size() int {
	return m.cells.Size()
}

// ContainsRect reports whether every cell of r is floor.
func (m FloorMask) ContainsRect(r Rect) bool {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			if !m.Contains(x, y) {
				return false
			}
		}
	}
	return true
}

// CanPlaceAt checks a sizeX×sizeY footprint at (x, y). Checks run in order
// and stop at the first failure: inside the floor, then no overlap.
//
// When validating a move, pass a state with the mover removed (see Without),
// otherwise the structure collides with itself.
func CanPlaceAt(state *gamestate.WorldState, x, y, sizeX, sizeY int, sizer Sizer) (Verdict, error) {
	if sizeX <= 0 || sizeY <= 0 {
		return Verdict{Reason: ReasonBadSize, Detail: fmt.Sprintf("size %dx%d", sizeX, sizeY)}, nil
	}
	candidate := Rect{x, y, sizeX, sizeY}

	if !NewFloorMask(state.FloorSpace).ContainsRect(candidate) {
		return Verdict{
			Reason: ReasonOutOfBounds,
			Detail: fmt.Sprintf("footprint %dx%d at (%d,%d) leaves the floor", sizeX, sizeY, x, y),
		}, nil
	}

	footprints, err := Footprints(state, sizer)
	if err != nil {
		return Verdict{}, err
	}
	for _, fp := range footprints {
		if fp.Rect.Intersects(candidate) {
			return Verdict{
				Reason:  ReasonCollision,
				Detail:  fmt.Sprintf("overlaps %s %s", fp.Kind, fp.ID),
				Blocker: fp.ID,
			}, nil
		}
	}
	return Ok, nil
}

// Without returns a shallow view of state with one structure removed, for
// move validation. The original state is not modified.
func Without(state *gamestate.WorldState, id string) *gamestate.WorldState {
	view := *state
	view.Machines = make([]gamestate.Machine, 0, len(state.Machines))
	for _, m := range state.Machines {
		if m.ID != id {
			view.Machines = append(view.Machines, m)
		}
	}
	view.Generators = make([]gamestate.Generator, 0, len(state.Generators))
	for _, g := range state.Generators {
		if g.ID != id {
			view.Generators = append(view.Generators, g)
		}
	}
	return &view
}

// Occupant returns the footprint covering cell (x, y), if any.
func Occupant(state *gamestate.WorldState, x, y int, sizer Sizer) (Footprint, bool, error) {
	footprints, err := Footprints(state, sizer)
	if err != nil {
		return Footprint{}, false, err
	}
	for _, fp := range footprints {
		if fp.Rect.Contains(x, y) {
			return fp, true, nil
		}
	}
	return Footprint{}, false, nil
}

// Overlaps reports the first pair of structures whose footprints intersect,
// or any structure that leaves the floor. It is used to reject corrupt saves.
func Overlaps(state *gamestate.WorldState, sizer Sizer) error {
	footprints, err := Footprints(state, sizer)
	if err != nil {
		return err
	}
	mask := NewFloorMask(state.FloorSpace)
	for i, a := range footprints {
		if !mask.ContainsRect(a.Rect) {
			return fmt.Errorf("%s %s at (%d,%d) is outside the floor", a.Kind, a.ID, a.Rect.X, a.Rect.Y)
		}
		for _, b := range footprints[i+1:] {
			if a.Rect.Intersects(b.Rect) {
				return fmt.Errorf("%s %s overlaps %s %s", a.Kind, a.ID, b.Kind, b.ID)
			}
		}
	}
	return nil
}
