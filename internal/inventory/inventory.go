// Package inventory provides a material ledger over the world inventory.
// Materials are stored by id with non-negative counts; a material whose count
// drops to zero is removed so the map only lists what the player holds.
package inventory

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNegativeQuantity is returned when a caller passes a negative amount.
var ErrNegativeQuantity = errors.New("negative quantity")

// Ledger wraps a material-count map. It does not own the map: writes go
// straight into the map it was built from.
type Ledger struct {
	Counts map[string]int64
}

// Of returns a ledger over counts, allocating the map if it is nil.
func Of(counts *map[string]int64) Ledger {
	if *counts == nil {
		*counts = make(map[string]int64)
	}
	return Ledger{Counts: *counts}
}

// Slot is one line of a sorted inventory listing.
type Slot struct {
	MaterialID string
	Count      int64
}

// Count returns the quantity held (0 if absent).
func (l Ledger) Count(id string) int64 {
	return l.Counts[id]
}

// Has reports whether at least n of a material is held.
func (l Ledger) Has(id string, n int64) bool {
	return l.Counts[id] >= n
}

// Add increases a material count.
func (l Ledger) Add(id string, n int64) error {
	if n < 0 {
		return fmt.Errorf("add %d %s: %w", n, id, ErrNegativeQuantity)
	}
	if n == 0 {
		return nil
	}
	l.Counts[id] += n
	return nil
}

// Remove takes n of a material. It returns false and changes nothing when
// fewer than n are held.
func (l Ledger) Remove(id string, n int64) (bool, error) {
	if n < 0 {
		return false, fmt.Errorf("remove %d %s: %w", n, id, ErrNegativeQuantity)
	}
	if n == 0 {
		return true, nil
	}
	current := l.Counts[id]
	if current < n {
		return false, nil
	}
	if current == n {
		delete(l.Counts, id)
	} else {
		l.Counts[id] = current - n
	}
	return true, nil
}

// AddAll adds every quantity in a bundle.
func (l Ledger) AddAll(bundle map[string]int64) error {
	for _, id := range sortedKeys(bundle) {
		if err := l.Add(id, bundle[id]); err != nil {
			return err
		}
	}
	return nil
}

// Covers reports whether every quantity in a bundle is held.
func (l Ledger) Covers(bundle map[string]int64) bool {
	for id, n := range bundle {
		if l.Counts[id] < n {
			return false
		}
	}
	return true
}

// RemoveAll takes a whole bundle or nothing.
func (l Ledger) RemoveAll(bundle map[string]int64) (bool, error) {
	for id, n := range bundle {
		if n < 0 {
			return false, fmt.Errorf("remove %d %s: %w", n, id, ErrNegativeQuantity)
		}
	}
	if !l.Covers(bundle) {
		return false, nil
	}
	for _, id := range sortedKeys(bundle) {
		if _, err := l.Remove(id, bundle[id]); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Total returns the sum of all counts.
func (l Ledger) Total() int64 {
	var total int64
	for _, n := range l.Counts {
		total += n
	}
	return total
}

// Slots returns the holdings sorted by material id.
func (l Ledger) Slots() []Slot {
	slots := make([]Slot, 0, len(l.Counts))
	for _, id := range sortedKeys(l.Counts) {
		if n := l.Counts[id]; n > 0 {
			slots = append(slots, Slot{MaterialID: id, Count: n})
		}
	}
	return slots
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
