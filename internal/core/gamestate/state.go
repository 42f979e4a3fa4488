// Package gamestate holds the factory world snapshot: structures, inventory,
// energy, research and victory progress. The simulation engine and intent
// handlers mutate it; the renderer and interaction controller only read it.
// A WorldState is serialized wholesale on save and replaced wholesale on load.
package gamestate

import (
	"errors"
	"fmt"
	"sort"
)

// StartingCredits is the balance of a fresh game.
const StartingCredits int64 = 5_000_000_000

// Default floor dimensions of a fresh game.
const (
	DefaultFloorWidth  = 16
	DefaultFloorHeight = 16
)

// Status is a machine's production state for the last tick.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusWorking Status = "working"
	StatusBlocked Status = "blocked"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusWorking, StatusBlocked:
		return true
	}
	return false
}

// Kind distinguishes the two structure families placed on the floor.
type Kind string

const (
	KindMachine   Kind = "machine"
	KindGenerator Kind = "generator"
)

// Chunk is a rectangular piece of placeable floor.
type Chunk struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the cell lies inside the chunk.
func (c Chunk) Contains(x, y int) bool {
	return x >= c.X && x < c.X+c.Width && y >= c.Y && y < c.Y+c.Height
}

// FloorSpace is the placeable area: the union of its chunks. Width and
// Height are the bounding extent and do not imply every cell is floor.
type FloorSpace struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Chunks []Chunk `json:"chunks"`
}

// Machine is a production structure.
type Machine struct {
	ID             string           `json:"id"`
	Type           string           `json:"type"`
	X              int              `json:"x"`
	Y              int              `json:"y"`
	Enabled        bool             `json:"enabled"`
	RecipeID       string           `json:"recipeId"` // "" means no recipe
	Status         Status           `json:"status"`
	InternalBuffer map[string]int64 `json:"internalBuffer"`
}

// Generator is an energy-producing structure.
type Generator struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Powered    bool   `json:"powered"`
	FuelBuffer int64  `json:"fuelBuffer"`
}

// Energy is recomputed from scratch every tick.
type Energy struct {
	Produced  int64 `json:"produced"`
	Consumed  int64 `json:"consumed"`
	Requested int64 `json:"requested"`
}

// Prototype is a discovered recipe still being prototyped.
type Prototype struct {
	RecipeID       string `json:"recipeId"`
	RemainingTicks int    `json:"remainingTicks"`
}

// Research tracks research point accumulation and pending prototypes.
type Research struct {
	Active            bool        `json:"active"`
	ResearchPoints    int64       `json:"researchPoints"`
	AwaitingPrototype []Prototype `json:"awaitingPrototype"`
}

// Victory is set once and only cleared by starting a new game.
type Victory struct {
	Achieved bool  `json:"achieved"`
	Tick     int64 `json:"tick"`
}

// Cell is an exploration grid coordinate.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Extractor harvests a raw material from an explored resource tile.
type Extractor struct {
	ID         string `json:"id"`
	X          int    `json:"x"`
	Y          int    `json:"y"`
	MaterialID string `json:"materialId"`
	Rate       int64  `json:"rate"`
}

// Exploration is the player's progress on the top-down exploration map.
// Tile contents are derived from the world seed, so only the explored set
// and built extractors are stored.
type Exploration struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Explored   []Cell      `json:"explored"`
	Extractors []Extractor `json:"extractors"`
}

// IsExplored reports whether a tile has been revealed.
func (e *Exploration) IsExplored(x, y int) bool {
	for _, c := range e.Explored {
		if c.X == x && c.Y == y {
			return true
		}
	}
	return false
}

// ExtractorAt returns the extractor on a tile, if any.
func (e *Exploration) ExtractorAt(x, y int) *Extractor {
	for i := range e.Extractors {
		if e.Extractors[i].X == x && e.Extractors[i].Y == y {
			return &e.Extractors[i]
		}
	}
	return nil
}

// WorldState is the complete simulation snapshot.
type WorldState struct {
	Tick              int64            `json:"tick"`
	Seed              int64            `json:"seed"`
	Credits           int64            `json:"credits"`
	Inventory         map[string]int64 `json:"inventory"`
	FloorSpace        FloorSpace       `json:"floorSpace"`
	FloorExpansions   int              `json:"floorExpansions"`
	Machines          []Machine        `json:"machines"`
	Generators        []Generator      `json:"generators"`
	Energy            Energy           `json:"energy"`
	Research          Research         `json:"research"`
	UnlockedRecipes   []string         `json:"unlockedRecipes"`
	DiscoveredRecipes []string         `json:"discoveredRecipes"`
	Victory           Victory          `json:"victory"`
	Exploration       Exploration      `json:"exploration"`
}

// NewGameOptions configures a fresh world.
type NewGameOptions struct {
	Seed              int64
	Credits           int64 // 0 selects StartingCredits
	FloorWidth        int   // 0 selects DefaultFloorWidth
	FloorHeight       int   // 0 selects DefaultFloorHeight
	UnlockedRecipes   []string
	ExplorationWidth  int
	ExplorationHeight int
}

// New creates a fresh world: tick 0, no structures, one floor chunk.
func New(opts NewGameOptions) *WorldState {
	credits := opts.Credits
	if credits == 0 {
		credits = StartingCredits
	}
	w := opts.FloorWidth
	if w <= 0 {
		w = DefaultFloorWidth
	}
	h := opts.FloorHeight
	if h <= 0 {
		h = DefaultFloorHeight
	}

	s := &WorldState{
		Seed:      opts.Seed,
		Credits:   credits,
		Inventory: make(map[string]int64),
		FloorSpace: FloorSpace{
			Width:  w,
			Height: h,
			Chunks: []Chunk{{X: 0, Y: 0, Width: w, Height: h}},
		},
		Machines:   []Machine{},
		Generators: []Generator{},
		Research: Research{
			AwaitingPrototype: []Prototype{},
		},
		UnlockedRecipes:   []string{},
		DiscoveredRecipes: []string{},
		Exploration: Exploration{
			Width:      opts.ExplorationWidth,
			Height:     opts.ExplorationHeight,
			Explored:   []Cell{},
			Extractors: []Extractor{},
		},
	}
	for _, id := range opts.UnlockedRecipes {
		AddRecipe(&s.UnlockedRecipes, id)
		AddRecipe(&s.DiscoveredRecipes, id)
	}
	if s.Exploration.Width > 0 && s.Exploration.Height > 0 {
		// The player starts with the centre of the map revealed.
		s.Exploration.Explored = append(s.Exploration.Explored, Cell{
			X: s.Exploration.Width / 2,
			Y: s.Exploration.Height / 2,
		})
	}
	return s
}

// Clone returns a deep copy. Maps and slices in the copy are never nil.
func (s *WorldState) Clone() *WorldState {
	c := *s

	c.Inventory = make(map[string]int64, len(s.Inventory))
	for k, v := range s.Inventory {
		c.Inventory[k] = v
	}

	c.FloorSpace.Chunks = append([]Chunk{}, s.FloorSpace.Chunks...)

	c.Machines = make([]Machine, len(s.Machines))
	for i, m := range s.Machines {
		m.InternalBuffer = cloneCounts(m.InternalBuffer)
		c.Machines[i] = m
	}
	c.Generators = append([]Generator{}, s.Generators...)

	c.Research.AwaitingPrototype = append([]Prototype{}, s.Research.AwaitingPrototype...)
	c.UnlockedRecipes = append([]string{}, s.UnlockedRecipes...)
	c.DiscoveredRecipes = append([]string{}, s.DiscoveredRecipes...)

	c.Exploration.Explored = append([]Cell{}, s.Exploration.Explored...)
	c.Exploration.Extractors = append([]Extractor{}, s.Exploration.Extractors...)
	return &c
}

func cloneCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MachineByID returns a pointer into the machine list, or nil.
func (s *WorldState) MachineByID(id string) *Machine {
	for i := range s.Machines {
		if s.Machines[i].ID == id {
			return &s.Machines[i]
		}
	}
	return nil
}

// GeneratorByID returns a pointer into the generator list, or nil.
func (s *WorldState) GeneratorByID(id string) *Generator {
	for i := range s.Generators {
		if s.Generators[i].ID == id {
			return &s.Generators[i]
		}
	}
	return nil
}

// StructureKind reports which list holds the structure id.
func (s *WorldState) StructureKind(id string) (Kind, bool) {
	if s.MachineByID(id) != nil {
		return KindMachine, true
	}
	if s.GeneratorByID(id) != nil {
		return KindGenerator, true
	}
	return "", false
}

// RemoveStructure deletes a machine or generator by id and reports whether
// anything was removed.
func (s *WorldState) RemoveStructure(id string) bool {
	for i := range s.Machines {
		if s.Machines[i].ID == id {
			s.Machines = append(s.Machines[:i], s.Machines[i+1:]...)
			return true
		}
	}
	for i := range s.Generators {
		if s.Generators[i].ID == id {
			s.Generators = append(s.Generators[:i], s.Generators[i+1:]...)
			return true
		}
	}
	return false
}

// HasRecipe reports whether a sorted recipe list contains id.
func HasRecipe(list []string, id string) bool {
	i := sort.SearchStrings(list, id)
	return i < len(list) && list[i] == id
}

// AddRecipe inserts id into a sorted recipe list, keeping it duplicate-free.
// It returns false when id was already present.
func AddRecipe(list *[]string, id string) bool {
	i := sort.SearchStrings(*list, id)
	if i < len(*list) && (*list)[i] == id {
		return false
	}
	*list = append(*list, "")
	copy((*list)[i+1:], (*list)[i:])
	(*list)[i] = id
	return true
}

// Catalog answers the id lookups needed to validate a loaded state.
type Catalog interface {
	HasMaterial(id string) bool
	HasRecipe(id string) bool
	HasMachine(typ string) bool
	HasGenerator(typ string) bool
}

// Validation errors.
var (
	ErrDuplicateID      = errors.New("duplicate structure id")
	ErrUnknownMaterial  = errors.New("unknown material")
	ErrUnknownRecipe    = errors.New("unknown recipe")
	ErrUnknownStructure = errors.New("unknown structure type")
	ErrNegativeQuantity = errors.New("negative quantity")
	ErrInvalidStatus    = errors.New("invalid machine status")
	ErrInvalidFloor     = errors.New("invalid floor space")
)

// Validate checks ids and quantities against a catalog. It does not check
// footprints; see the placement package for that.
func (s *WorldState) Validate(cat Catalog) error {
	if s.Tick < 0 {
		return fmt.Errorf("tick %d: %w", s.Tick, ErrNegativeQuantity)
	}
	if s.Credits < 0 {
		return fmt.Errorf("credits %d: %w", s.Credits, ErrNegativeQuantity)
	}
	if err := validateCounts("inventory", s.Inventory, cat); err != nil {
		return err
	}
	for i, c := range s.FloorSpace.Chunks {
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("chunk %d has size %dx%d: %w", i, c.Width, c.Height, ErrInvalidFloor)
		}
	}

	ids := make(map[string]bool)
	for _, m := range s.Machines {
		if m.ID == "" || ids[m.ID] {
			return fmt.Errorf("machine %q: %w", m.ID, ErrDuplicateID)
		}
		ids[m.ID] = true
		if !cat.HasMachine(m.Type) {
			return fmt.Errorf("machine %s type %q: %w", m.ID, m.Type, ErrUnknownStructure)
		}
		if m.RecipeID != "" && !cat.HasRecipe(m.RecipeID) {
			return fmt.Errorf("machine %s recipe %q: %w", m.ID, m.RecipeID, ErrUnknownRecipe)
		}
		if !m.Status.Valid() {
			return fmt.Errorf("machine %s status %q: %w", m.ID, m.Status, ErrInvalidStatus)
		}
		if err := validateCounts("machine "+m.ID+" buffer", m.InternalBuffer, cat); err != nil {
			return err
		}
	}
	for _, g := range s.Generators {
		if g.ID == "" || ids[g.ID] {
			return fmt.Errorf("generator %q: %w", g.ID, ErrDuplicateID)
		}
		ids[g.ID] = true
		if !cat.HasGenerator(g.Type) {
			return fmt.Errorf("generator %s type %q: %w", g.ID, g.Type, ErrUnknownStructure)
		}
		if g.FuelBuffer < 0 {
			return fmt.Errorf("generator %s fuel %d: %w", g.ID, g.FuelBuffer, ErrNegativeQuantity)
		}
	}

	if s.Research.ResearchPoints < 0 {
		return fmt.Errorf("research points %d: %w", s.Research.ResearchPoints, ErrNegativeQuantity)
	}
	for _, p := range s.Research.AwaitingPrototype {
		if !cat.HasRecipe(p.RecipeID) {
			return fmt.Errorf("prototype %q: %w", p.RecipeID, ErrUnknownRecipe)
		}
		if p.RemainingTicks < 0 {
			return fmt.Errorf("prototype %s remaining %d: %w", p.RecipeID, p.RemainingTicks, ErrNegativeQuantity)
		}
	}
	for _, list := range [][]string{s.UnlockedRecipes, s.DiscoveredRecipes} {
		for _, id := range list {
			if !cat.HasRecipe(id) {
				return fmt.Errorf("recipe list entry %q: %w", id, ErrUnknownRecipe)
			}
		}
	}
	for _, e := range s.Exploration.Extractors {
		if !cat.HasMaterial(e.MaterialID) {
			return fmt.Errorf("extractor %s material %q: %w", e.ID, e.MaterialID, ErrUnknownMaterial)
		}
		if e.Rate < 0 {
			return fmt.Errorf("extractor %s rate %d: %w", e.ID, e.Rate, ErrNegativeQuantity)
		}
	}
	return nil
}

func validateCounts(where string, counts map[string]int64, cat Catalog) error {
	for id, n := range counts {
		if !cat.HasMaterial(id) {
			return fmt.Errorf("%s entry %q: %w", where, id, ErrUnknownMaterial)
		}
		if n < 0 {
			return fmt.Errorf("%s entry %q = %d: %w", where, id, n, ErrNegativeQuantity)
		}
	}
	return nil
}

// Debug returns a one-line summary of the world for logs.
func (s *WorldState) Debug() string {
	return fmt.Sprintf("WorldState{Tick: %d, Credits: %d, Machines: %d, Generators: %d, Materials: %d, Unlocked: %d}",
		s.Tick, s.Credits, len(s.Machines), len(s.Generators), len(s.Inventory), len(s.UnlockedRecipes))
}
