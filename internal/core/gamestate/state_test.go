package gamestate

import (
	"encoding/base64"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeCatalog struct{}

func (fakeCatalog) HasMaterial(id string) bool {
	return id == "iron_ore" || id == "iron_plate" || id == "coal"
}

func (fakeCatalog) HasRecipe(id string) bool {
	return id == "smelt_iron" || id == "press_gear"
}

func (fakeCatalog) HasMachine(typ string) bool { return typ == "furnace" }

func (fakeCatalog) HasGenerator(typ string) bool { return typ == "coal_generator" }

func sampleState() *WorldState {
	s := New(NewGameOptions{Seed: 42, UnlockedRecipes: []string{"smelt_iron"}, ExplorationWidth: 8, ExplorationHeight: 8})
	s.Tick = 17
	s.Inventory["iron_ore"] = 12
	s.Inventory["coal"] = 3
	s.Machines = append(s.Machines, Machine{
		ID: "m1", Type: "furnace", X: 2, Y: 2, Enabled: true, RecipeID: "smelt_iron",
		Status: StatusWorking, InternalBuffer: map[string]int64{"iron_ore": 2},
	})
	s.Generators = append(s.Generators, Generator{ID: "g1", Type: "coal_generator", X: 8, Y: 8, Powered: true, FuelBuffer: 1})
	s.Energy = Energy{Produced: 100, Consumed: 40, Requested: 40}
	s.Research = Research{Active: true, ResearchPoints: 9, AwaitingPrototype: []Prototype{{RecipeID: "press_gear", RemainingTicks: 3}}}
	s.Exploration.Extractors = append(s.Exploration.Extractors, Extractor{ID: "x1", X: 4, Y: 4, MaterialID: "iron_ore", Rate: 1})
	return s
}

func TestNewGameDefaults(t *testing.T) {
	s := New(NewGameOptions{})
	if s.Tick != 0 {
		t.Fatalf("expected tick 0, got %d", s.Tick)
	}
	if s.Credits != 5_000_000_000 {
		t.Fatalf("expected 5,000,000,000 credits, got %d", s.Credits)
	}
	if len(s.Machines) != 0 || len(s.Generators) != 0 {
		t.Fatal("new game should have no structures")
	}
	if len(s.FloorSpace.Chunks) != 1 || s.FloorSpace.Chunks[0] != (Chunk{0, 0, 16, 16}) {
		t.Fatalf("unexpected floor %+v", s.FloorSpace)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	s := sampleState()
	data, err := Serialize(s)
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDeserializeRejectsUnknownFields(t *testing.T) {
	if _, err := Deserialize([]byte(`{"tick":1,"mystery":true}`)); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestPackRoundTrip(t *testing.T) {
	s := sampleState()
	blob, err := Pack(s)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if !strings.HasPrefix(blob, PackMagic) {
		t.Fatalf("blob missing magic: %q", blob[:10])
	}
	got, err := Unpack(blob)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("pack round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnpackDetectsTampering(t *testing.T) {
	blob, err := Pack(sampleState())
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(blob[len(PackMagic):])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw[0] ^= 0xff
	tampered := PackMagic + base64.StdEncoding.EncodeToString(raw)
	if _, err := Unpack(tampered); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
	if _, err := Unpack("hello"); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("expected bad magic, got %v", err)
	}
}

func TestSaveLoadFile(t *testing.T) {
	s := sampleState()
	path := filepath.Join(t.TempDir(), "save.json")
	if err := SaveFile(s, path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(s, got); diff != "" {
		t.Fatalf("file round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := sampleState()
	c := s.Clone()
	c.Inventory["iron_ore"] = 0
	c.Machines[0].InternalBuffer["iron_ore"] = 99
	c.Machines[0].X = 5
	c.UnlockedRecipes[0] = "changed"
	if s.Inventory["iron_ore"] != 12 || s.Machines[0].InternalBuffer["iron_ore"] != 2 || s.Machines[0].X != 2 {
		t.Fatal("clone shares state with original")
	}
	if s.UnlockedRecipes[0] != "smelt_iron" {
		t.Fatal("clone shares recipe list with original")
	}
}

func TestAddRecipeIdempotent(t *testing.T) {
	var list []string
	if !AddRecipe(&list, "b") || !AddRecipe(&list, "a") {
		t.Fatal("first insertions should report true")
	}
	if AddRecipe(&list, "a") {
		t.Fatal("second insertion should report false")
	}
	if len(list) != 2 || list[0] != "a" || list[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", list)
	}
	if !HasRecipe(list, "b") || HasRecipe(list, "c") {
		t.Fatal("HasRecipe lookup wrong")
	}
}

func TestRemoveStructure(t *testing.T) {
	s := sampleState()
	if !s.RemoveStructure("g1") {
		t.Fatal("expected generator removal")
	}
	if s.RemoveStructure("g1") {
		t.Fatal("second removal should report false")
	}
	if kind, ok := s.StructureKind("m1"); !ok || kind != KindMachine {
		t.Fatalf("expected m1 to be a machine, got %v %v", kind, ok)
	}
}

func TestValidate(t *testing.T) {
	if err := sampleState().Validate(fakeCatalog{}); err != nil {
		t.Fatalf("sample state should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*WorldState)
		want   error
	}{
		{"unknown material", func(s *WorldState) { s.Inventory["unobtainium"] = 1 }, ErrUnknownMaterial},
		{"negative inventory", func(s *WorldState) { s.Inventory["coal"] = -1 }, ErrNegativeQuantity},
		{"unknown recipe", func(s *WorldState) { s.Machines[0].RecipeID = "nope" }, ErrUnknownRecipe},
		{"unknown machine", func(s *WorldState) { s.Machines[0].Type = "teleporter" }, ErrUnknownStructure},
		{"duplicate id", func(s *WorldState) { s.Generators[0].ID = "m1" }, ErrDuplicateID},
		{"negative buffer", func(s *WorldState) { s.Machines[0].InternalBuffer["iron_ore"] = -3 }, ErrNegativeQuantity},
		{"bad status", func(s *WorldState) { s.Machines[0].Status = "sleeping" }, ErrInvalidStatus},
		{"bad chunk", func(s *WorldState) { s.FloorSpace.Chunks[0].Width = 0 }, ErrInvalidFloor},
		{"unknown prototype", func(s *WorldState) { s.Research.AwaitingPrototype[0].RecipeID = "x" }, ErrUnknownRecipe},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := sampleState()
			tc.mutate(s)
			if err := s.Validate(fakeCatalog{}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
