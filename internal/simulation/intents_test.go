package simulation

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/placement"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession(DefaultRules(), 42)
	s.IDs = &SequentialIDs{Prefix: "s"}
	return s
}

// mustAccept returns a checker for an intent's (Result, error) pair, so the
// intent call can be passed straight through: mustAccept(t)(s.Simulate()).
func mustAccept(t *testing.T) func(Result, error) Result {
	return func(res Result, err error) Result {
		t.Helper()
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !res.Accepted {
			t.Fatalf("Expected intent to be accepted, got reason %q (%s)", res.Reason, res.Detail)
		}
		return res
	}
}

func mustReject(t *testing.T, res Result, err error, reason string) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.Accepted {
		t.Fatalf("Expected rejection %q, intent was accepted", reason)
	}
	if res.Reason != reason {
		t.Fatalf("Expected reason %q, got %q (%s)", reason, res.Reason, res.Detail)
	}
}

func TestPlacementScenario(t *testing.T) {
	s := newSession(t)
	res := mustAccept(t)(s.PlaceMachine("furnace", 2, 2))
	if len(res.State.Machines) != 1 || res.State.Machines[0].ID != "s1" {
		t.Fatalf("Expected machine s1, got %+v", res.State.Machines)
	}

	before := s.State
	res, err := s.PlaceMachine("furnace", 3, 3)
	mustReject(t, res, err, string(placement.ReasonCollision))
	if s.State != before || len(s.State.Machines) != 1 {
		t.Fatal("Rejected placement must not change the state")
	}
}

func TestPlaceUnknownTypeIsError(t *testing.T) {
	s := newSession(t)
	if _, err := s.PlaceMachine("teleporter", 0, 0); !errors.Is(err, ErrUnknownStructure) {
		t.Fatalf("Expected ErrUnknownStructure, got %v", err)
	}
	if _, err := s.PlaceGenerator("furnace", 0, 0); !errors.Is(err, ErrUnknownStructure) {
		t.Fatalf("A machine type is not a generator, got %v", err)
	}
}

func TestMoveStructure(t *testing.T) {
	s := newSession(t)
	mustAccept(t)(s.PlaceMachine("furnace", 2, 2))
	mustAccept(t)(s.PlaceGenerator("solar_panel", 8, 8))

	res := mustAccept(t)(s.MoveStructure("s1", 3, 2))
	if m := res.State.MachineByID("s1"); m.X != 3 || m.Y != 2 {
		t.Errorf("Expected s1 at (3,2), got (%d,%d)", m.X, m.Y)
	}

	res, err := s.MoveStructure("s1", 7, 7)
	mustReject(t, res, err, string(placement.ReasonCollision))

	res, err = s.MoveStructure("s1", 14, 14)
	mustReject(t, res, err, string(placement.ReasonOutOfBounds))

	res, err = s.MoveStructure("nope", 0, 0)
	mustReject(t, res, err, ReasonNotFound)
}

func TestRemoveStructureReturnsBuffers(t *testing.T) {
	s := newSession(t)
	mustAccept(t)(s.PlaceMachine("furnace", 2, 2))
	mustAccept(t)(s.PlaceGenerator("coal_generator", 8, 8))
	s.State.MachineByID("s1").InternalBuffer["iron_ore"] = 7
	s.State.GeneratorByID("s2").FuelBuffer = 3

	mustAccept(t)(s.RemoveStructure("s1"))
	res := mustAccept(t)(s.RemoveStructure("s2"))
	if len(res.State.Machines) != 0 || len(res.State.Generators) != 0 {
		t.Fatal("Expected both structures removed")
	}
	want := map[string]int64{"iron_ore": 7, "coal": 3}
	if diff := cmp.Diff(want, res.State.Inventory); diff != "" {
		t.Errorf("Inventory mismatch (-want +got):\n%s", diff)
	}
}

func TestAssignRecipe(t *testing.T) {
	s := newSession(t)
	mustAccept(t)(s.PlaceMachine("furnace", 0, 0))
	mustAccept(t)(s.PlaceMachine("research_lab", 5, 5))
	mustAccept(t)(s.PlaceGenerator("solar_panel", 10, 10))

	res := mustAccept(t)(s.AssignRecipe("s1", "smelt_iron", true))
	if m := res.State.MachineByID("s1"); m.RecipeID != "smelt_iron" || !m.Enabled {
		t.Errorf("Unexpected machine %+v", m)
	}

	res, err := s.AssignRecipe("s1", "draw_wire", true)
	mustReject(t, res, err, ReasonIncompatible)

	res, err = s.AssignRecipe("s1", "make_circuit", true)
	mustReject(t, res, err, ReasonLocked)

	res, err = s.AssignRecipe("s2", "smelt_iron", true)
	mustReject(t, res, err, ReasonIncompatible)

	res, err = s.AssignRecipe("s3", "smelt_iron", true)
	mustReject(t, res, err, ReasonNotAMachine)

	if _, err := s.AssignRecipe("s1", "alchemy", true); !errors.Is(err, ErrUnknownRecipe) {
		t.Fatalf("Expected ErrUnknownRecipe, got %v", err)
	}

	res = mustAccept(t)(s.AssignRecipe("s1", "", false))
	if m := res.State.MachineByID("s1"); m.RecipeID != "" || m.Enabled || m.Status != gamestate.StatusIdle {
		t.Errorf("Expected cleared, disabled, idle machine, got %+v", m)
	}
}

func TestToggleEnabled(t *testing.T) {
	s := newSession(t)
	mustAccept(t)(s.PlaceMachine("furnace", 0, 0))
	res := mustAccept(t)(s.ToggleEnabled("s1"))
	if res.State.Machines[0].Enabled {
		t.Error("Expected machine disabled")
	}
	res = mustAccept(t)(s.ToggleEnabled("s1"))
	if !res.State.Machines[0].Enabled {
		t.Error("Expected machine enabled again")
	}
}

func TestBuyFloorSpace(t *testing.T) {
	s := newSession(t)
	rules := s.Rules
	start := s.State.Credits

	res := mustAccept(t)(s.BuyFloorSpace())
	if res.State.Credits != start-rules.FloorSpace.BaseCost {
		t.Errorf("Expected first expansion at base cost, credits %d", res.State.Credits)
	}
	if len(res.State.FloorSpace.Chunks) != 2 || res.State.FloorSpace.Width != 24 {
		t.Errorf("Unexpected floor %+v", res.State.FloorSpace)
	}
	if got, want := rules.FloorExpansionCost(1), int64(75_000_000); got != want {
		t.Errorf("Expected second expansion to cost %d, got %d", want, got)
	}

	// The new chunk is placeable.
	mustAccept(t)(s.PlaceMachine("furnace", 17, 1))

	for i := 1; i < len(rules.FloorSpace.Expansions); i++ {
		mustAccept(t)(s.BuyFloorSpace())
	}
	res, err := s.BuyFloorSpace()
	mustReject(t, res, err, ReasonNoExpansion)
}

func TestBuyFloorSpaceNeedsCredits(t *testing.T) {
	s := newSession(t)
	s.State.Credits = 10
	res, err := s.BuyFloorSpace()
	mustReject(t, res, err, ReasonInsufficientFunds)
}

func TestSellGoods(t *testing.T) {
	s := newSession(t)
	s.State.Inventory["gear"] = 5
	start := s.State.Credits

	res := mustAccept(t)(s.SellGoods("gear", 2))
	if res.State.Credits != start+60 || res.State.Inventory["gear"] != 3 {
		t.Errorf("Unexpected credits %d or gears %d", res.State.Credits, res.State.Inventory["gear"])
	}
	res, err := s.SellGoods("gear", 4)
	mustReject(t, res, err, ReasonInsufficientGoods)

	if _, err := s.SellGoods("gear", -1); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("Expected ErrNegativeQuantity, got %v", err)
	}
	if _, err := s.SellGoods("unobtainium", 1); !errors.Is(err, ErrUnknownMaterial) {
		t.Fatalf("Expected ErrUnknownMaterial, got %v", err)
	}
}

func TestRunExperiment(t *testing.T) {
	s := newSession(t)
	res, err := s.RunExperiment()
	mustReject(t, res, err, ReasonInsufficientPoints)

	s.State.Research.ResearchPoints = 1000
	res = mustAccept(t)(s.RunExperiment())
	if len(res.State.Research.AwaitingPrototype) != 1 {
		t.Fatalf("Expected one prototype queued, got %+v", res.State.Research.AwaitingPrototype)
	}
	picked := res.State.Research.AwaitingPrototype[0].RecipeID
	if !gamestate.HasRecipe(res.State.DiscoveredRecipes, picked) {
		t.Errorf("Experiment should discover %s", picked)
	}
	if gamestate.HasRecipe(res.State.UnlockedRecipes, picked) {
		t.Errorf("%s should wait for its prototype", picked)
	}
	if res.State.Research.ResearchPoints != 950 {
		t.Errorf("Expected 950 points left, got %d", res.State.Research.ResearchPoints)
	}

	// Same seed and tick pick the same recipe.
	other := newSession(t)
	other.State.Research.ResearchPoints = 1000
	again := mustAccept(t)(other.RunExperiment())
	if again.State.Research.AwaitingPrototype[0].RecipeID != picked {
		t.Errorf("Experiments are not deterministic")
	}

	for i := 0; i < 3; i++ {
		mustAccept(t)(s.RunExperiment())
	}
	res, err = s.RunExperiment()
	mustReject(t, res, err, ReasonNothingToDiscover)
}

func TestUnlockRecipeIsIdempotent(t *testing.T) {
	s := newSession(t)
	first := mustAccept(t)(s.UnlockRecipe("build_engine"))
	unlocked := append([]string(nil), first.State.UnlockedRecipes...)

	second := mustAccept(t)(s.UnlockRecipe("build_engine"))
	if diff := cmp.Diff(unlocked, second.State.UnlockedRecipes); diff != "" {
		t.Fatalf("Second unlock changed the set (-first +second):\n%s", diff)
	}
	if _, err := s.UnlockRecipe("alchemy"); !errors.Is(err, ErrUnknownRecipe) {
		t.Fatalf("Expected ErrUnknownRecipe, got %v", err)
	}
}

func TestSimulateIntent(t *testing.T) {
	s := newSession(t)
	mustAccept(t)(s.SetResearchActive(true))
	res := mustAccept(t)(s.Simulate())
	if res.State.Tick != 1 || res.Report == nil {
		t.Fatalf("Expected tick 1 with a report, got tick %d report %v", res.State.Tick, res.Report)
	}
	if res.State.Research.ResearchPoints != 1 {
		t.Errorf("Expected 1 research point, got %d", res.State.Research.ResearchPoints)
	}
}

func TestExploration(t *testing.T) {
	s := newSession(t)
	cx, cy := s.State.Exploration.Width/2, s.State.Exploration.Height/2

	res, err := s.ExploreTile(cx, cy)
	mustReject(t, res, err, ReasonAlreadyExplored)
	res, err = s.ExploreTile(cx+2, cy)
	mustReject(t, res, err, ReasonNotAdjacent)
	res, err = s.ExploreTile(-1, 0)
	mustReject(t, res, err, string(placement.ReasonOutOfBounds))

	start := s.State.Credits
	res = mustAccept(t)(s.ExploreTile(cx+1, cy))
	if res.State.Credits != start-s.Rules.Exploration.ExploreCost {
		t.Errorf("Exploring should cost %d", s.Rules.Exploration.ExploreCost)
	}
	mustAccept(t)(s.ExploreTile(cx+2, cy))

	res, err = s.BuildExtractor(cx+5, cy)
	mustReject(t, res, err, ReasonUnexplored)
}

func TestBuildExtractorOnResourceTile(t *testing.T) {
	s := newSession(t)
	ex := &s.State.Exploration

	// Reveal a resource tile directly so the test does not depend on the
	// seed's layout near the centre.
	var found *Tile
	for y := 0; y < ex.Height && found == nil; y++ {
		for x := 0; x < ex.Width; x++ {
			tile := s.Rules.TileAt(s.State.Seed, x, y)
			if tile.Buildable() {
				found = &tile
				break
			}
		}
	}
	if found == nil {
		t.Fatal("Expected at least one resource tile on a 32x32 map")
	}
	ex.Explored = append(ex.Explored, gamestate.Cell{X: found.X, Y: found.Y})

	res := mustAccept(t)(s.BuildExtractor(found.X, found.Y))
	got := res.State.Exploration.Extractors
	if len(got) != 1 || got[0].MaterialID != found.Resource.MaterialID || got[0].Rate != found.Resource.Rate {
		t.Fatalf("Unexpected extractors %+v", got)
	}
	res, err := s.BuildExtractor(found.X, found.Y)
	mustReject(t, res, err, ReasonOccupied)
}

func TestTilesAreDeterministic(t *testing.T) {
	rules := DefaultRules()
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a, b := rules.TileAt(9, x, y), rules.TileAt(9, x, y)
			if a.Terrain != b.Terrain || (a.Resource == nil) != (b.Resource == nil) {
				t.Fatalf("Tile (%d,%d) differs between calls", x, y)
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newSession(t)
	mustAccept(t)(s.PlaceMachine("furnace", 2, 2))
	mustAccept(t)(s.PlaceGenerator("solar_panel", 10, 10))
	mustAccept(t)(s.AssignRecipe("s1", "smelt_iron", true))
	s.State.Inventory["iron_ore"] = 40
	mustAccept(t)(s.Simulate())

	data, err := s.Save()
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	blob, err := s.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	want := s.State

	for name, input := range map[string][]byte{"json": data, "packed": []byte(blob + "\n")} {
		other := newSession(t)
		res := mustAccept(t)(other.Load(input))
		if diff := cmp.Diff(want, res.State); diff != "" {
			t.Errorf("%s round trip mismatch (-want +got):\n%s", name, diff)
		}
	}
}

func TestLoadRejectsCorruptSaves(t *testing.T) {
	rules := DefaultRules()
	good := rules.NewGame(1)
	good.Machines = append(good.Machines,
		machine("a", "furnace", 0, 0, ""),
		machine("b", "furnace", 1, 1, ""),
	)
	data, err := gamestate.Serialize(good)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	s := newSession(t)
	before := s.State
	if _, err := s.Load(data); !errors.Is(err, ErrCorruptSave) {
		t.Fatalf("Expected ErrCorruptSave for overlapping structures, got %v", err)
	}
	if s.State != before {
		t.Fatal("A rejected load must keep the current world")
	}

	if _, err := s.Load([]byte(`{"tick": 1, "bogus": true}`)); !errors.Is(err, ErrCorruptSave) {
		t.Fatalf("Expected ErrCorruptSave for unknown fields, got %v", err)
	}
}
