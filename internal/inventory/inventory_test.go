package inventory

import (
	"errors"
	"testing"
)

func TestAddRemove(t *testing.T) {
	var counts map[string]int64
	l := Of(&counts)
	if counts == nil {
		t.Fatal("Of should allocate a nil map")
	}

	if err := l.Add("coal", 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if l.Count("coal") != 5 {
		t.Fatalf("expected 5 coal, got %d", l.Count("coal"))
	}

	ok, err := l.Remove("coal", 6)
	if err != nil || ok {
		t.Fatalf("removing more than held should fail softly, got ok=%v err=%v", ok, err)
	}
	if l.Count("coal") != 5 {
		t.Fatal("failed removal must not change the count")
	}

	ok, err = l.Remove("coal", 5)
	if err != nil || !ok {
		t.Fatalf("remove: ok=%v err=%v", ok, err)
	}
	if _, present := counts["coal"]; present {
		t.Fatal("material at zero should be dropped from the map")
	}
}

func TestNegativeQuantities(t *testing.T) {
	l := Of(new(map[string]int64))
	if err := l.Add("coal", -1); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
	if _, err := l.Remove("coal", -1); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
	if _, err := l.RemoveAll(map[string]int64{"coal": -2}); !errors.Is(err, ErrNegativeQuantity) {
		t.Fatalf("expected ErrNegativeQuantity, got %v", err)
	}
}

func TestRemoveAllIsAtomic(t *testing.T) {
	counts := map[string]int64{"iron_ore": 3, "coal": 1}
	l := Ledger{Counts: counts}

	ok, err := l.RemoveAll(map[string]int64{"iron_ore": 2, "coal": 2})
	if err != nil || ok {
		t.Fatalf("expected soft failure, got ok=%v err=%v", ok, err)
	}
	if counts["iron_ore"] != 3 || counts["coal"] != 1 {
		t.Fatalf("partial removal happened: %v", counts)
	}

	ok, err = l.RemoveAll(map[string]int64{"iron_ore": 2, "coal": 1})
	if err != nil || !ok {
		t.Fatalf("expected success, got ok=%v err=%v", ok, err)
	}
	if counts["iron_ore"] != 1 || l.Has("coal", 1) {
		t.Fatalf("unexpected counts after removal: %v", counts)
	}
}

func TestSlotsSorted(t *testing.T) {
	l := Ledger{Counts: map[string]int64{"zinc": 1, "coal": 4, "iron": 2}}
	slots := l.Slots()
	if len(slots) != 3 || slots[0].MaterialID != "coal" || slots[2].MaterialID != "zinc" {
		t.Fatalf("unexpected order %+v", slots)
	}
	if l.Total() != 7 {
		t.Fatalf("expected total 7, got %d", l.Total())
	}
}
