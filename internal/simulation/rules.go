// Package simulation advances the factory world one tick at a time and
// applies player intents. Rules are loaded from data files so each game can
// define its own materials, recipes and structures.
package simulation

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
)

//go:embed data/default_rules.yaml
var defaultRulesYAML []byte

// Category groups materials.
type Category string

const (
	CategoryRaw          Category = "raw"
	CategoryIntermediate Category = "intermediate"
	CategoryFinal        Category = "final"
	CategoryEquipment    Category = "equipment"
)

// Material is a tradeable good.
type Material struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Category  Category `yaml:"category"`
	BasePrice int64    `yaml:"basePrice"`
}

// Recipe converts input quantities into output quantities.
type Recipe struct {
	ID           string           `yaml:"id"`
	Inputs       map[string]int64 `yaml:"inputs"`
	Outputs      map[string]int64 `yaml:"outputs"`
	Researchable bool             `yaml:"researchable"` // discoverable through experiments
}

// Animation describes a structure's working animation. Frames are laid out
// left to right in one strip unless SeparateFrames is set, in which case
// each frame is its own texture keyed "<sprite>_<n>", n counting from 1.
type Animation struct {
	Frames          int  `yaml:"frames"`
	FrameMillis     int  `yaml:"frameMillis"`
	SeparateFrames  bool `yaml:"separateFrames"`
	IdlePauseMillis int  `yaml:"idlePauseMillis"` // pause between cycles in continuous mode
}

// MachineDef is a machine catalog entry.
type MachineDef struct {
	ID                    string     `yaml:"id"`
	Name                  string     `yaml:"name"`
	SizeX                 int        `yaml:"sizeX"`
	SizeY                 int        `yaml:"sizeY"`
	EnergyConsumption     int64      `yaml:"energyConsumption"`
	IsResearchFacility    bool       `yaml:"isResearchFacility"`
	ResearchPointsPerTick int64      `yaml:"researchPointsPerTick"`
	Recipes               []string   `yaml:"recipes"` // allowed recipes; empty allows any
	Sprite                string     `yaml:"sprite"`  // texture key; defaults to the id
	Animation             *Animation `yaml:"animation"`
}

// Fuel is a generator's per-tick fuel draw.
type Fuel struct {
	MaterialID string `yaml:"materialId"`
	PerTick    int64  `yaml:"perTick"`
}

// GeneratorDef is a generator catalog entry.
type GeneratorDef struct {
	ID           string     `yaml:"id"`
	Name         string     `yaml:"name"`
	SizeX        int        `yaml:"sizeX"`
	SizeY        int        `yaml:"sizeY"`
	EnergyOutput int64      `yaml:"energyOutput"`
	Fuel         *Fuel      `yaml:"fuel"` // nil for fuel-less generators
	Sprite       string     `yaml:"sprite"`
	Animation    *Animation `yaml:"animation"`
}

// ResearchRules controls research point income and prototyping.
type ResearchRules struct {
	BasePointsPerTick int64 `yaml:"basePointsPerTick"`
	ExperimentCost    int64 `yaml:"experimentCost"`
	PrototypeTicks    int   `yaml:"prototypeTicks"`
}

// VictoryRules is the terminal condition: hold Quantity of MaterialID.
type VictoryRules struct {
	MaterialID string `yaml:"materialId"`
	Quantity   int64  `yaml:"quantity"`
}

// FloorRules controls the starting floor and purchasable expansions.
type FloorRules struct {
	InitialWidth      int               `yaml:"initialWidth"`
	InitialHeight     int               `yaml:"initialHeight"`
	BaseCost          int64             `yaml:"baseCost"`
	CostGrowthPercent int               `yaml:"costGrowthPercent"`
	Expansions        []gamestate.Chunk `yaml:"expansions"`
}

// ResourceRule is one weighted entry of the exploration resource table.
type ResourceRule struct {
	MaterialID string `yaml:"materialId"`
	Rate       int64  `yaml:"rate"`
	Weight     int    `yaml:"weight"`
}

// ExplorationRules controls the exploration map.
type ExplorationRules struct {
	Width                 int            `yaml:"width"`
	Height                int            `yaml:"height"`
	ExploreCost           int64          `yaml:"exploreCost"`
	ExtractorCost         int64          `yaml:"extractorCost"`
	ResourceChancePercent int            `yaml:"resourceChancePercent"`
	Resources             []ResourceRule `yaml:"resources"`
}

// Rules is the immutable per-session configuration.
type Rules struct {
	Version          int              `yaml:"version"`
	StartingCredits  int64            `yaml:"startingCredits"`
	StartingUnlocked []string         `yaml:"startingUnlocked"`
	Materials        []Material       `yaml:"materials"`
	Recipes          []Recipe         `yaml:"recipes"`
	Machines         []MachineDef     `yaml:"machines"`
	Generators       []GeneratorDef   `yaml:"generators"`
	Research         ResearchRules    `yaml:"research"`
	Victory          VictoryRules     `yaml:"victory"`
	FloorSpace       FloorRules       `yaml:"floorSpace"`
	Exploration      ExplorationRules `yaml:"exploration"`

	materials  map[string]*Material
	recipes    map[string]*Recipe
	machines   map[string]*MachineDef
	generators map[string]*GeneratorDef
}

// Rules errors.
var (
	ErrInvalidRules     = errors.New("invalid rules")
	ErrUnknownMaterial  = gamestate.ErrUnknownMaterial
	ErrUnknownRecipe    = gamestate.ErrUnknownRecipe
	ErrUnknownStructure = gamestate.ErrUnknownStructure
	ErrNegativeQuantity = gamestate.ErrNegativeQuantity
)

// DefaultRules returns the built-in rules. It panics only if the embedded
// file is broken, which is a build defect.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default rules are invalid: %v", err))
	}
	return r
}

// LoadRules loads rules from a YAML (or JSON) file. An empty path or a
// missing file selects the default rules.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a rules document.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks referential integrity and value ranges, then builds the
// lookup indexes. It must be called on hand-built rules before use.
func (r *Rules) Validate() error {
	r.materials = make(map[string]*Material, len(r.Materials))
	for i := range r.Materials {
		m := &r.Materials[i]
		if m.ID == "" {
			return fmt.Errorf("material %d has no id: %w", i, ErrInvalidRules)
		}
		if _, dup := r.materials[m.ID]; dup {
			return fmt.Errorf("duplicate material %q: %w", m.ID, ErrInvalidRules)
		}
		switch m.Category {
		case CategoryRaw, CategoryIntermediate, CategoryFinal, CategoryEquipment:
		default:
			return fmt.Errorf("material %s category %q: %w", m.ID, m.Category, ErrInvalidRules)
		}
		if m.BasePrice < 0 {
			return fmt.Errorf("material %s price %d: %w", m.ID, m.BasePrice, ErrNegativeQuantity)
		}
		r.materials[m.ID] = m
	}

	r.recipes = make(map[string]*Recipe, len(r.Recipes))
	for i := range r.Recipes {
		rc := &r.Recipes[i]
		if rc.ID == "" {
			return fmt.Errorf("recipe %d has no id: %w", i, ErrInvalidRules)
		}
		if _, dup := r.recipes[rc.ID]; dup {
			return fmt.Errorf("duplicate recipe %q: %w", rc.ID, ErrInvalidRules)
		}
		if len(rc.Outputs) == 0 {
			return fmt.Errorf("recipe %s has no outputs: %w", rc.ID, ErrInvalidRules)
		}
		for _, side := range []map[string]int64{rc.Inputs, rc.Outputs} {
			for id, n := range side {
				if _, ok := r.materials[id]; !ok {
					return fmt.Errorf("recipe %s material %q: %w", rc.ID, id, ErrUnknownMaterial)
				}
				if n <= 0 {
					return fmt.Errorf("recipe %s quantity %d for %s: %w", rc.ID, n, id, ErrNegativeQuantity)
				}
			}
		}
		r.recipes[rc.ID] = rc
	}

	r.machines = make(map[string]*MachineDef, len(r.Machines))
	for i := range r.Machines {
		m := &r.Machines[i]
		if err := checkStructure("machine", m.ID, m.SizeX, m.SizeY, m.Animation); err != nil {
			return err
		}
		if _, dup := r.machines[m.ID]; dup {
			return fmt.Errorf("duplicate machine %q: %w", m.ID, ErrInvalidRules)
		}
		if m.EnergyConsumption < 0 || m.ResearchPointsPerTick < 0 {
			return fmt.Errorf("machine %s: %w", m.ID, ErrNegativeQuantity)
		}
		if m.IsResearchFacility && len(m.Recipes) > 0 {
			return fmt.Errorf("research facility %s cannot list recipes: %w", m.ID, ErrInvalidRules)
		}
		for _, id := range m.Recipes {
			if _, ok := r.recipes[id]; !ok {
				return fmt.Errorf("machine %s recipe %q: %w", m.ID, id, ErrUnknownRecipe)
			}
		}
		if m.Sprite == "" {
			m.Sprite = m.ID
		}
		r.machines[m.ID] = m
	}

	r.generators = make(map[string]*GeneratorDef, len(r.Generators))
	for i := range r.Generators {
		g := &r.Generators[i]
		if err := checkStructure("generator", g.ID, g.SizeX, g.SizeY, g.Animation); err != nil {
			return err
		}
		if _, dup := r.generators[g.ID]; dup {
			return fmt.Errorf("duplicate generator %q: %w", g.ID, ErrInvalidRules)
		}
		if _, clash := r.machines[g.ID]; clash {
			return fmt.Errorf("generator %q shares an id with a machine: %w", g.ID, ErrInvalidRules)
		}
		if g.EnergyOutput < 0 {
			return fmt.Errorf("generator %s output %d: %w", g.ID, g.EnergyOutput, ErrNegativeQuantity)
		}
		if g.Fuel != nil {
			if _, ok := r.materials[g.Fuel.MaterialID]; !ok {
				return fmt.Errorf("generator %s fuel %q: %w", g.ID, g.Fuel.MaterialID, ErrUnknownMaterial)
			}
			if g.Fuel.PerTick <= 0 {
				return fmt.Errorf("generator %s fuel per tick %d: %w", g.ID, g.Fuel.PerTick, ErrNegativeQuantity)
			}
		}
		if g.Sprite == "" {
			g.Sprite = g.ID
		}
		r.generators[g.ID] = g
	}

	for _, id := range r.StartingUnlocked {
		if _, ok := r.recipes[id]; !ok {
			return fmt.Errorf("starting recipe %q: %w", id, ErrUnknownRecipe)
		}
	}
	if r.Victory.MaterialID != "" {
		if _, ok := r.materials[r.Victory.MaterialID]; !ok {
			return fmt.Errorf("victory material %q: %w", r.Victory.MaterialID, ErrUnknownMaterial)
		}
		if r.Victory.Quantity <= 0 {
			return fmt.Errorf("victory quantity %d: %w", r.Victory.Quantity, ErrInvalidRules)
		}
	}
	if r.Research.BasePointsPerTick < 0 || r.Research.ExperimentCost < 0 || r.Research.PrototypeTicks < 0 {
		return fmt.Errorf("research: %w", ErrNegativeQuantity)
	}
	if r.StartingCredits < 0 || r.FloorSpace.BaseCost < 0 || r.FloorSpace.CostGrowthPercent < 0 {
		return fmt.Errorf("economy: %w", ErrNegativeQuantity)
	}
	for i, c := range r.FloorSpace.Expansions {
		if c.Width <= 0 || c.Height <= 0 {
			return fmt.Errorf("floor expansion %d size %dx%d: %w", i, c.Width, c.Height, ErrInvalidRules)
		}
	}
	for _, res := range r.Exploration.Resources {
		if _, ok := r.materials[res.MaterialID]; !ok {
			return fmt.Errorf("exploration resource %q: %w", res.MaterialID, ErrUnknownMaterial)
		}
		if res.Rate <= 0 || res.Weight <= 0 {
			return fmt.Errorf("exploration resource %s: %w", res.MaterialID, ErrInvalidRules)
		}
	}
	if p := r.Exploration.ResourceChancePercent; p < 0 || p > 100 {
		return fmt.Errorf("resource chance %d%%: %w", p, ErrInvalidRules)
	}
	return nil
}

func checkStructure(kind, id string, sx, sy int, anim *Animation) error {
	if id == "" {
		return fmt.Errorf("%s has no id: %w", kind, ErrInvalidRules)
	}
	if sx <= 0 || sy <= 0 {
		return fmt.Errorf("%s %s size %dx%d: %w", kind, id, sx, sy, ErrInvalidRules)
	}
	if anim != nil {
		if anim.Frames < 1 {
			return fmt.Errorf("%s %s animation needs at least one frame: %w", kind, id, ErrInvalidRules)
		}
		if anim.FrameMillis <= 0 {
			anim.FrameMillis = 100
		}
		if anim.IdlePauseMillis < 0 {
			return fmt.Errorf("%s %s idle pause: %w", kind, id, ErrNegativeQuantity)
		}
	}
	return nil
}

// Material looks up a material by id.
func (r *Rules) Material(id string) (*Material, bool) {
	m, ok := r.materials[id]
	return m, ok
}

// Recipe looks up a recipe by id.
func (r *Rules) Recipe(id string) (*Recipe, bool) {
	rc, ok := r.recipes[id]
	return rc, ok
}

// Machine looks up a machine definition by type.
func (r *Rules) Machine(typ string) (*MachineDef, bool) {
	m, ok := r.machines[typ]
	return m, ok
}

// Generator looks up a generator definition by type.
func (r *Rules) Generator(typ string) (*GeneratorDef, bool) {
	g, ok := r.generators[typ]
	return g, ok
}

// HasMaterial implements gamestate.Catalog.
func (r *Rules) HasMaterial(id string) bool { _, ok := r.materials[id]; return ok }

// HasRecipe implements gamestate.Catalog.
func (r *Rules) HasRecipe(id string) bool { _, ok := r.recipes[id]; return ok }

// HasMachine implements gamestate.Catalog.
func (r *Rules) HasMachine(typ string) bool { _, ok := r.machines[typ]; return ok }

// HasGenerator implements gamestate.Catalog.
func (r *Rules) HasGenerator(typ string) bool { _, ok := r.generators[typ]; return ok }

// StructureSize implements placement.Sizer.
func (r *Rules) StructureSize(kind gamestate.Kind, typ string) (int, int, bool) {
	switch kind {
	case gamestate.KindMachine:
		if m, ok := r.machines[typ]; ok {
			return m.SizeX, m.SizeY, true
		}
	case gamestate.KindGenerator:
		if g, ok := r.generators[typ]; ok {
			return g.SizeX, g.SizeY, true
		}
	}
	return 0, 0, false
}

// MachineAllows reports whether a machine type may run a recipe. Research
// facilities run no recipes.
func (r *Rules) MachineAllows(typ, recipeID string) bool {
	m, ok := r.machines[typ]
	if !ok || m.IsResearchFacility {
		return false
	}
	if len(m.Recipes) == 0 {
		return true
	}
	for _, id := range m.Recipes {
		if id == recipeID {
			return true
		}
	}
	return false
}

// ResearchableRecipes lists researchable recipe ids in sorted order.
func (r *Rules) ResearchableRecipes() []string {
	var ids []string
	for _, rc := range r.Recipes {
		if rc.Researchable {
			ids = append(ids, rc.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

// NewGame builds a fresh world from these rules.
func (r *Rules) NewGame(seed int64) *gamestate.WorldState {
	return gamestate.New(gamestate.NewGameOptions{
		Seed:              seed,
		Credits:           r.StartingCredits,
		FloorWidth:        r.FloorSpace.InitialWidth,
		FloorHeight:       r.FloorSpace.InitialHeight,
		UnlockedRecipes:   r.StartingUnlocked,
		ExplorationWidth:  r.Exploration.Width,
		ExplorationHeight: r.Exploration.Height,
	})
}
