package simulation

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/inventory"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placement"
)

// Rejection reasons returned by intents. Placement rejections reuse the
// placement package's reasons.
const (
	ReasonNotFound           = "not_found"
	ReasonNotAMachine        = "not_a_machine"
	ReasonLocked             = "recipe_locked"
	ReasonIncompatible       = "recipe_incompatible"
	ReasonInsufficientFunds  = "insufficient_credits"
	ReasonInsufficientGoods  = "insufficient_materials"
	ReasonInsufficientPoints = "insufficient_research"
	ReasonNothingToDiscover  = "nothing_to_discover"
	ReasonNoExpansion        = "no_expansion_left"
	ReasonInvalidQuantity    = "invalid_quantity"
	ReasonAlreadyExplored    = "already_explored"
	ReasonNotAdjacent        = "not_adjacent"
	ReasonUnexplored         = "unexplored"
	ReasonNoResource         = "no_resource"
	ReasonOccupied           = "occupied"
)

// Result is the outcome of an intent. A rejected intent leaves the session
// state untouched and State is the unchanged state.
type Result struct {
	State    *gamestate.WorldState
	Accepted bool
	Reason   string
	Detail   string
	Report   *StepReport // set by Simulate
}

// IDGenerator produces structure ids.
type IDGenerator interface {
	NewID() string
}

// UUIDs generates random UUIDs.
type UUIDs struct{}

func (UUIDs) NewID() string { return uuid.NewString() }

// SequentialIDs generates "<prefix>1", "<prefix>2", ... for tests and replays.
type SequentialIDs struct {
	Prefix string
	n      int
}

func (s *SequentialIDs) NewID() string {
	s.n++
	return fmt.Sprintf("%s%d", s.Prefix, s.n)
}

// Session owns the world state of one game and applies intents to it. Every
// intent works on a clone and commits only on success, so a rejected or
// failed intent never leaves a partial change behind.
type Session struct {
	Rules  *Rules
	State  *gamestate.WorldState
	IDs    IDGenerator
	Logger *slog.Logger
}

// NewSession starts a new game with the given rules.
func NewSession(rules *Rules, seed int64) *Session {
	return &Session{
		Rules:  rules,
		State:  rules.NewGame(seed),
		IDs:    UUIDs{},
		Logger: slog.Default(),
	}
}

func (s *Session) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Session) ids() IDGenerator {
	if s.IDs == nil {
		s.IDs = UUIDs{}
	}
	return s.IDs
}

func (s *Session) commit(next *gamestate.WorldState, intent string, args ...any) Result {
	s.State = next
	s.logger().Debug("intent applied", append([]any{"intent", intent, "tick", next.Tick}, args...)...)
	return Result{State: next, Accepted: true}
}

func (s *Session) reject(intent, reason, detail string) Result {
	s.logger().Debug("intent rejected", "intent", intent, "reason", reason, "detail", detail)
	return Result{State: s.State, Reason: reason, Detail: detail}
}

// PlaceMachine places a new machine of the given type with its top-left
// footprint cell at (x, y). New machines start enabled with no recipe.
func (s *Session) PlaceMachine(typ string, x, y int) (Result, error) {
	def, ok := s.Rules.Machine(typ)
	if !ok {
		return Result{}, fmt.Errorf("place machine %q: %w", typ, ErrUnknownStructure)
	}
	v, err := placement.CanPlaceAt(s.State, x, y, def.SizeX, def.SizeY, s.Rules)
	if err != nil {
		return Result{}, err
	}
	if !v.Valid {
		return s.reject("place_machine", string(v.Reason), v.Detail), nil
	}
	next := s.State.Clone()
	id := s.ids().NewID()
	next.Machines = append(next.Machines, gamestate.Machine{
		ID:             id,
		Type:           typ,
		X:              x,
		Y:              y,
		Enabled:        true,
		Status:         gamestate.StatusIdle,
		InternalBuffer: map[string]int64{},
	})
	return s.commit(next, "place_machine", "id", id, "type", typ), nil
}

// PlaceGenerator places a new, initially unpowered generator.
func (s *Session) PlaceGenerator(typ string, x, y int) (Result, error) {
	def, ok := s.Rules.Generator(typ)
	if !ok {
		return Result{}, fmt.Errorf("place generator %q: %w", typ, ErrUnknownStructure)
	}
	v, err := placement.CanPlaceAt(s.State, x, y, def.SizeX, def.SizeY, s.Rules)
	if err != nil {
		return Result{}, err
	}
	if !v.Valid {
		return s.reject("place_generator", string(v.Reason), v.Detail), nil
	}
	next := s.State.Clone()
	id := s.ids().NewID()
	next.Generators = append(next.Generators, gamestate.Generator{
		ID:   id,
		Type: typ,
		X:    x,
		Y:    y,
	})
	return s.commit(next, "place_generator", "id", id, "type", typ), nil
}

// Place places a machine or generator depending on kind.
func (s *Session) Place(kind gamestate.Kind, typ string, x, y int) (Result, error) {
	if kind == gamestate.KindGenerator {
		return s.PlaceGenerator(typ, x, y)
	}
	return s.PlaceMachine(typ, x, y)
}

// MoveStructure moves a machine or generator so its top-left cell is (x, y).
func (s *Session) MoveStructure(id string, x, y int) (Result, error) {
	kind, ok := s.State.StructureKind(id)
	if !ok {
		return s.reject("move", ReasonNotFound, id), nil
	}
	var typ string
	if kind == gamestate.KindMachine {
		typ = s.State.MachineByID(id).Type
	} else {
		typ = s.State.GeneratorByID(id).Type
	}
	sx, sy, ok := s.Rules.StructureSize(kind, typ)
	if !ok {
		return Result{}, fmt.Errorf("%s %s type %q: %w", kind, id, typ, ErrUnknownStructure)
	}
	v, err := placement.CanPlaceAt(placement.Without(s.State, id), x, y, sx, sy, s.Rules)
	if err != nil {
		return Result{}, err
	}
	if !v.Valid {
		return s.reject("move", string(v.Reason), v.Detail), nil
	}

	next := s.State.Clone()
	if m := next.MachineByID(id); m != nil {
		m.X, m.Y = x, y
	} else if g := next.GeneratorByID(id); g != nil {
		g.X, g.Y = x, y
	}
	return s.commit(next, "move", "id", id, "x", x, "y", y), nil
}

// RemoveStructure removes a structure. A machine's buffered materials and a
// generator's unburnt fuel go back to the inventory.
func (s *Session) RemoveStructure(id string) (Result, error) {
	if _, ok := s.State.StructureKind(id); !ok {
		return s.reject("remove", ReasonNotFound, id), nil
	}
	next := s.State.Clone()
	inv := inventory.Of(&next.Inventory)
	if m := next.MachineByID(id); m != nil {
		if err := inv.AddAll(m.InternalBuffer); err != nil {
			return Result{}, fmt.Errorf("machine %s buffer: %w", id, err)
		}
	} else if g := next.GeneratorByID(id); g != nil && g.FuelBuffer > 0 {
		def, ok := s.Rules.Generator(g.Type)
		if !ok {
			return Result{}, fmt.Errorf("generator %s type %q: %w", id, g.Type, ErrUnknownStructure)
		}
		if def.Fuel != nil {
			if err := inv.Add(def.Fuel.MaterialID, g.FuelBuffer); err != nil {
				return Result{}, err
			}
		}
	}
	next.RemoveStructure(id)
	return s.commit(next, "remove", "id", id), nil
}

// AssignRecipe sets a machine's recipe and enabled flag. An empty recipe id
// clears the assignment. The recipe must be unlocked and runnable by the
// machine type.
func (s *Session) AssignRecipe(machineID, recipeID string, enabled bool) (Result, error) {
	m := s.State.MachineByID(machineID)
	if m == nil {
		if _, ok := s.State.StructureKind(machineID); ok {
			return s.reject("assign_recipe", ReasonNotAMachine, machineID), nil
		}
		return s.reject("assign_recipe", ReasonNotFound, machineID), nil
	}
	if recipeID != "" {
		if _, ok := s.Rules.Recipe(recipeID); !ok {
			return Result{}, fmt.Errorf("assign recipe %q: %w", recipeID, ErrUnknownRecipe)
		}
		if !gamestate.HasRecipe(s.State.UnlockedRecipes, recipeID) {
			return s.reject("assign_recipe", ReasonLocked, recipeID), nil
		}
		if !s.Rules.MachineAllows(m.Type, recipeID) {
			return s.reject("assign_recipe", ReasonIncompatible, fmt.Sprintf("%s cannot run %s", m.Type, recipeID)), nil
		}
	}

	next := s.State.Clone()
	nm := next.MachineByID(machineID)
	nm.RecipeID = recipeID
	nm.Enabled = enabled
	if !enabled || recipeID == "" {
		nm.Status = gamestate.StatusIdle
	}
	return s.commit(next, "assign_recipe", "id", machineID, "recipe", recipeID, "enabled", enabled), nil
}

// ToggleEnabled flips a machine's enabled flag. A disabled machine is idle
// and draws no power.
func (s *Session) ToggleEnabled(id string) (Result, error) {
	if s.State.MachineByID(id) == nil {
		if _, ok := s.State.StructureKind(id); ok {
			return s.reject("toggle", ReasonNotAMachine, id), nil
		}
		return s.reject("toggle", ReasonNotFound, id), nil
	}
	next := s.State.Clone()
	m := next.MachineByID(id)
	m.Enabled = !m.Enabled
	if !m.Enabled {
		m.Status = gamestate.StatusIdle
	}
	return s.commit(next, "toggle", "id", id, "enabled", m.Enabled), nil
}

// FloorExpansionCost is the price of the next floor expansion: the base
// cost grown by CostGrowthPercent for every expansion already bought.
func (r *Rules) FloorExpansionCost(bought int) int64 {
	cost := r.FloorSpace.BaseCost
	for i := 0; i < bought; i++ {
		cost = cost * int64(100+r.FloorSpace.CostGrowthPercent) / 100
	}
	return cost
}

// BuyFloorSpace buys the next floor expansion chunk.
func (s *Session) BuyFloorSpace() (Result, error) {
	n := s.State.FloorExpansions
	if n >= len(s.Rules.FloorSpace.Expansions) {
		return s.reject("buy_floor", ReasonNoExpansion, ""), nil
	}
	cost := s.Rules.FloorExpansionCost(n)
	if s.State.Credits < cost {
		return s.reject("buy_floor", ReasonInsufficientFunds, fmt.Sprintf("need %d", cost)), nil
	}

	chunk := s.Rules.FloorSpace.Expansions[n]
	next := s.State.Clone()
	next.Credits -= cost
	next.FloorExpansions++
	next.FloorSpace.Chunks = append(next.FloorSpace.Chunks, chunk)
	if w := chunk.X + chunk.Width; w > next.FloorSpace.Width {
		next.FloorSpace.Width = w
	}
	if h := chunk.Y + chunk.Height; h > next.FloorSpace.Height {
		next.FloorSpace.Height = h
	}
	return s.commit(next, "buy_floor", "cost", cost, "expansions", next.FloorExpansions), nil
}

// SellGoods sells qty of a material at its base price.
func (s *Session) SellGoods(materialID string, qty int64) (Result, error) {
	mat, ok := s.Rules.Material(materialID)
	if !ok {
		return Result{}, fmt.Errorf("sell %q: %w", materialID, ErrUnknownMaterial)
	}
	if qty < 0 {
		return Result{}, fmt.Errorf("sell %d %s: %w", qty, materialID, ErrNegativeQuantity)
	}
	if qty == 0 {
		return s.reject("sell", ReasonInvalidQuantity, materialID), nil
	}
	next := s.State.Clone()
	took, err := inventory.Of(&next.Inventory).Remove(materialID, qty)
	if err != nil {
		return Result{}, err
	}
	if !took {
		return s.reject("sell", ReasonInsufficientGoods, fmt.Sprintf("have %d %s", s.State.Inventory[materialID], materialID)), nil
	}
	next.Credits += mat.BasePrice * qty
	return s.commit(next, "sell", "material", materialID, "qty", qty), nil
}

// RunExperiment spends research points to discover one researchable recipe
// and queues it for prototyping. The choice is derived from the world seed
// and tick so replays discover the same recipes.
func (s *Session) RunExperiment() (Result, error) {
	cost := s.Rules.Research.ExperimentCost
	if s.State.Research.ResearchPoints < cost {
		return s.reject("experiment", ReasonInsufficientPoints, fmt.Sprintf("need %d", cost)), nil
	}
	var candidates []string
	for _, id := range s.Rules.ResearchableRecipes() {
		if !gamestate.HasRecipe(s.State.DiscoveredRecipes, id) && !awaiting(s.State, id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return s.reject("experiment", ReasonNothingToDiscover, ""), nil
	}

	pick := candidates[pickIndex(s.State.Seed, s.State.Tick, len(candidates))]
	next := s.State.Clone()
	next.Research.ResearchPoints -= cost
	gamestate.AddRecipe(&next.DiscoveredRecipes, pick)
	if ticks := s.Rules.Research.PrototypeTicks; ticks > 0 {
		next.Research.AwaitingPrototype = append(next.Research.AwaitingPrototype, gamestate.Prototype{
			RecipeID:       pick,
			RemainingTicks: ticks,
		})
	} else {
		gamestate.AddRecipe(&next.UnlockedRecipes, pick)
	}
	return s.commit(next, "experiment", "recipe", pick), nil
}

func awaiting(s *gamestate.WorldState, recipeID string) bool {
	for _, p := range s.Research.AwaitingPrototype {
		if p.RecipeID == recipeID {
			return true
		}
	}
	return false
}

// UnlockRecipe unlocks a recipe immediately. Unlocking is idempotent and a
// pending prototype of the same recipe is dropped.
func (s *Session) UnlockRecipe(recipeID string) (Result, error) {
	if _, ok := s.Rules.Recipe(recipeID); !ok {
		return Result{}, fmt.Errorf("unlock %q: %w", recipeID, ErrUnknownRecipe)
	}
	if gamestate.HasRecipe(s.State.UnlockedRecipes, recipeID) {
		return Result{State: s.State, Accepted: true}, nil
	}
	next := s.State.Clone()
	gamestate.AddRecipe(&next.UnlockedRecipes, recipeID)
	gamestate.AddRecipe(&next.DiscoveredRecipes, recipeID)
	pending := next.Research.AwaitingPrototype[:0]
	for _, p := range next.Research.AwaitingPrototype {
		if p.RecipeID != recipeID {
			pending = append(pending, p)
		}
	}
	next.Research.AwaitingPrototype = pending
	return s.commit(next, "unlock", "recipe", recipeID), nil
}

// SetResearchActive starts or stops research point accumulation.
func (s *Session) SetResearchActive(active bool) (Result, error) {
	next := s.State.Clone()
	next.Research.Active = active
	return s.commit(next, "research_active", "active", active), nil
}

// Simulate advances the world one tick.
func (s *Session) Simulate() (Result, error) {
	next, report, err := StepWithReport(s.State, s.Rules)
	if err != nil {
		s.logger().Error("simulation step failed", "tick", s.State.Tick, "err", err)
		return Result{}, err
	}
	if report.Victory {
		s.logger().Info("victory achieved", "tick", report.Tick)
	}
	s.State = next
	return Result{State: next, Accepted: true, Report: report}, nil
}

// ExploreTile reveals an exploration tile next to an already explored one.
func (s *Session) ExploreTile(x, y int) (Result, error) {
	ex := &s.State.Exploration
	if x < 0 || y < 0 || x >= ex.Width || y >= ex.Height {
		return s.reject("explore", string(placement.ReasonOutOfBounds), fmt.Sprintf("(%d,%d)", x, y)), nil
	}
	if ex.IsExplored(x, y) {
		return s.reject("explore", ReasonAlreadyExplored, ""), nil
	}
	if !ex.IsExplored(x-1, y) && !ex.IsExplored(x+1, y) && !ex.IsExplored(x, y-1) && !ex.IsExplored(x, y+1) {
		return s.reject("explore", ReasonNotAdjacent, ""), nil
	}
	cost := s.Rules.Exploration.ExploreCost
	if s.State.Credits < cost {
		return s.reject("explore", ReasonInsufficientFunds, fmt.Sprintf("need %d", cost)), nil
	}
	next := s.State.Clone()
	next.Credits -= cost
	next.Exploration.Explored = append(next.Exploration.Explored, gamestate.Cell{X: x, Y: y})
	return s.commit(next, "explore", "x", x, "y", y), nil
}

// BuildExtractor builds an extractor on an explored resource tile.
func (s *Session) BuildExtractor(x, y int) (Result, error) {
	ex := &s.State.Exploration
	if !ex.IsExplored(x, y) {
		return s.reject("build_extractor", ReasonUnexplored, ""), nil
	}
	if ex.ExtractorAt(x, y) != nil {
		return s.reject("build_extractor", ReasonOccupied, ""), nil
	}
	tile := s.Rules.TileAt(s.State.Seed, x, y)
	if !tile.Buildable() {
		return s.reject("build_extractor", ReasonNoResource, string(tile.Terrain)), nil
	}
	cost := s.Rules.Exploration.ExtractorCost
	if s.State.Credits < cost {
		return s.reject("build_extractor", ReasonInsufficientFunds, fmt.Sprintf("need %d", cost)), nil
	}
	next := s.State.Clone()
	next.Credits -= cost
	id := s.ids().NewID()
	next.Exploration.Extractors = append(next.Exploration.Extractors, gamestate.Extractor{
		ID:         id,
		X:          x,
		Y:          y,
		MaterialID: tile.Resource.MaterialID,
		Rate:       tile.Resource.Rate,
	})
	return s.commit(next, "build_extractor", "id", id, "material", tile.Resource.MaterialID), nil
}

// NewGame replaces the world with a fresh one.
func (s *Session) NewGame(seed int64) Result {
	s.State = s.Rules.NewGame(seed)
	s.logger().Info("new game", "seed", seed)
	return Result{State: s.State, Accepted: true}
}

// Load replaces the world with a snapshot. Packed saves and plain JSON are
// both accepted. A snapshot that references unknown ids, holds negative
// quantities or has overlapping structures is rejected and the current
// world is kept.
func (s *Session) Load(data []byte) (Result, error) {
	state, err := LoadSnapshot(s.Rules, data)
	if err != nil {
		s.logger().Warn("rejected save", "err", err)
		return Result{}, err
	}
	s.State = state
	s.logger().Info("game loaded", "state", state.Debug())
	return Result{State: state, Accepted: true}, nil
}

// Save serializes the world as JSON.
func (s *Session) Save() ([]byte, error) {
	return gamestate.Serialize(s.State)
}

// Export serializes the world as a packed text blob.
func (s *Session) Export() (string, error) {
	return gamestate.Pack(s.State)
}

// ErrCorruptSave wraps every reason a snapshot is refused.
var ErrCorruptSave = errors.New("corrupt save")

// LoadSnapshot decodes and validates a snapshot against the rules.
func LoadSnapshot(rules *Rules, data []byte) (*gamestate.WorldState, error) {
	var (
		state *gamestate.WorldState
		err   error
	)
	if text := strings.TrimSpace(string(data)); strings.HasPrefix(text, gamestate.PackMagic) {
		state, err = gamestate.Unpack(text)
	} else {
		state, err = gamestate.Deserialize(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSave, err)
	}
	if err := state.Validate(rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSave, err)
	}
	if err := placement.Overlaps(state, rules); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSave, err)
	}
	return state, nil
}
