package simulation

import (
	"fmt"
	"maps"
	"sort"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/inventory"
)

// ProductionEvent records one completed recipe run.
type ProductionEvent struct {
	MachineID string
	RecipeID  string
	Outputs   map[string]int64
}

// StepReport describes what happened during a tick. The renderer uses it
// for production effects and the metrics recorder for counters.
type StepReport struct {
	Tick      int64 // tick the report describes, before the increment
	Produced  []ProductionEvent
	Blocked   []string // machines denied power
	Unpowered []string // generators without fuel
	Completed []string // recipes whose prototype finished
	Extracted map[string]int64
	Victory   bool // victory was reached this tick
}

// Step advances the world by one tick and returns the new state. The input
// state is not modified.
func Step(state *gamestate.WorldState, rules *Rules) (*gamestate.WorldState, error) {
	next, _, err := StepWithReport(state, rules)
	return next, err
}

// StepN advances the world n ticks.
func StepN(state *gamestate.WorldState, rules *Rules, n int) (*gamestate.WorldState, error) {
	cur := state
	for i := 0; i < n; i++ {
		next, err := Step(cur, rules)
		if err != nil {
			return nil, fmt.Errorf("tick %d: %w", cur.Tick, err)
		}
		cur = next
	}
	if cur == state {
		cur = state.Clone()
	}
	return cur, nil
}

// StepWithReport is Step that also reports the tick's events.
//
// A tick runs energy resolution, machine production, extraction, research
// and the victory check, then increments the tick counter. Shortages are
// recorded as machine and generator state; only malformed data (unknown
// ids, negative quantities) is an error.
func StepWithReport(state *gamestate.WorldState, rules *Rules) (*gamestate.WorldState, *StepReport, error) {
	if err := state.Validate(rules); err != nil {
		return nil, nil, err
	}
	s := state.Clone()
	report := &StepReport{Tick: s.Tick, Extracted: map[string]int64{}}

	granted, err := resolveEnergy(s, rules, report)
	if err != nil {
		return nil, nil, err
	}
	if err := runMachines(s, rules, granted, report); err != nil {
		return nil, nil, err
	}
	if err := runExtractors(s, report); err != nil {
		return nil, nil, err
	}
	advanceResearch(s, rules, report)

	if v := rules.Victory; v.MaterialID != "" && !s.Victory.Achieved {
		if s.Inventory[v.MaterialID] >= v.Quantity {
			s.Victory = gamestate.Victory{Achieved: true, Tick: s.Tick}
			report.Victory = true
		}
	}

	s.Tick++
	return s, report, nil
}

func runMachines(s *gamestate.WorldState, rules *Rules, granted []bool, report *StepReport) error {
	inv := inventory.Of(&s.Inventory)
	for i := range s.Machines {
		m := &s.Machines[i]
		def, _ := rules.Machine(m.Type)

		if !m.Enabled || !demands(m, def) {
			m.Status = gamestate.StatusIdle
			continue
		}
		if !granted[i] {
			// resolveEnergy already marked it blocked
			continue
		}
		if def.IsResearchFacility {
			m.Status = gamestate.StatusWorking
			continue
		}

		rc, ok := rules.Recipe(m.RecipeID)
		if !ok {
			return fmt.Errorf("machine %s recipe %q: %w", m.ID, m.RecipeID, ErrUnknownRecipe)
		}
		ran, err := produce(m, rc, inv)
		if err != nil {
			return fmt.Errorf("machine %s: %w", m.ID, err)
		}
		if !ran {
			m.Status = gamestate.StatusIdle
			continue
		}
		m.Status = gamestate.StatusWorking
		report.Produced = append(report.Produced, ProductionEvent{
			MachineID: m.ID,
			RecipeID:  rc.ID,
			Outputs:   maps.Clone(rc.Outputs),
		})
	}
	return nil
}

// produce runs one recipe cycle. Inputs come from the machine buffer first
// and the shared inventory covers any shortfall; nothing is consumed unless
// every input is available.
func produce(m *gamestate.Machine, rc *Recipe, inv inventory.Ledger) (bool, error) {
	if m.InternalBuffer == nil {
		m.InternalBuffer = map[string]int64{}
	}
	buf := inventory.Ledger{Counts: m.InternalBuffer}

	fromBuffer := make(map[string]int64, len(rc.Inputs))
	shortfall := make(map[string]int64, len(rc.Inputs))
	for id, need := range rc.Inputs {
		have := buf.Count(id)
		if have >= need {
			fromBuffer[id] = need
			continue
		}
		fromBuffer[id] = have
		shortfall[id] = need - have
	}
	if !inv.Covers(shortfall) {
		return false, nil
	}
	if _, err := buf.RemoveAll(fromBuffer); err != nil {
		return false, err
	}
	if _, err := inv.RemoveAll(shortfall); err != nil {
		return false, err
	}
	if err := inv.AddAll(rc.Outputs); err != nil {
		return false, err
	}
	return true, nil
}

func runExtractors(s *gamestate.WorldState, report *StepReport) error {
	inv := inventory.Of(&s.Inventory)
	for _, e := range s.Exploration.Extractors {
		if err := inv.Add(e.MaterialID, e.Rate); err != nil {
			return fmt.Errorf("extractor %s: %w", e.ID, err)
		}
		report.Extracted[e.MaterialID] += e.Rate
	}
	return nil
}

func advanceResearch(s *gamestate.WorldState, rules *Rules, report *StepReport) {
	r := &s.Research
	if r.Active {
		points := rules.Research.BasePointsPerTick
		for _, m := range s.Machines {
			def, _ := rules.Machine(m.Type)
			if def.IsResearchFacility && m.Status == gamestate.StatusWorking {
				points += def.ResearchPointsPerTick
			}
		}
		r.ResearchPoints += points
	}

	pending := r.AwaitingPrototype[:0]
	for _, p := range r.AwaitingPrototype {
		p.RemainingTicks--
		if p.RemainingTicks > 0 {
			pending = append(pending, p)
			continue
		}
		gamestate.AddRecipe(&s.DiscoveredRecipes, p.RecipeID)
		gamestate.AddRecipe(&s.UnlockedRecipes, p.RecipeID)
		report.Completed = append(report.Completed, p.RecipeID)
	}
	r.AwaitingPrototype = pending
	sort.Strings(report.Completed)
}
