package simulation

import (
	"fmt"

	"github.com/MarvinTM/replaceableParts-sub002/internal/core/gamestate"
	"github.com/MarvinTM/replaceableParts-sub002/internal/inventory"
)

// demands reports whether an enabled machine draws power this tick.
func demands(m *gamestate.Machine, def *MachineDef) bool {
	if !m.Enabled {
		return false
	}
	return m.RecipeID != "" || def.IsResearchFacility
}

// fuelGenerators draws one tick of fuel for each generator, buffer first and
// inventory for the shortfall, and returns the total output of generators
// that ran. Generators without fuel are left unpowered.
func fuelGenerators(s *gamestate.WorldState, rules *Rules, report *StepReport) (int64, error) {
	inv := inventory.Of(&s.Inventory)
	var produced int64
	for i := range s.Generators {
		g := &s.Generators[i]
		def, ok := rules.Generator(g.Type)
		if !ok {
			return 0, fmt.Errorf("generator %s type %q: %w", g.ID, g.Type, ErrUnknownStructure)
		}
		g.Powered = true
		if f := def.Fuel; f != nil {
			switch {
			case g.FuelBuffer >= f.PerTick:
				g.FuelBuffer -= f.PerTick
			default:
				short := f.PerTick - g.FuelBuffer
				took, err := inv.Remove(f.MaterialID, short)
				if err != nil {
					return 0, err
				}
				if took {
					g.FuelBuffer = 0
				} else {
					g.Powered = false
				}
			}
		}
		if g.Powered {
			produced += def.EnergyOutput
		} else {
			report.Unpowered = append(report.Unpowered, g.ID)
		}
	}
	return produced, nil
}

// resolveEnergy computes supply and demand and decides which machines get
// power. When supply is short, machines are served in placement order and a
// machine is granted whenever the remaining supply still covers it, so a
// later small consumer can run while an earlier large one is blocked.
func resolveEnergy(s *gamestate.WorldState, rules *Rules, report *StepReport) ([]bool, error) {
	produced, err := fuelGenerators(s, rules, report)
	if err != nil {
		return nil, err
	}

	granted := make([]bool, len(s.Machines))
	var requested int64
	for i := range s.Machines {
		m := &s.Machines[i]
		def, ok := rules.Machine(m.Type)
		if !ok {
			return nil, fmt.Errorf("machine %s type %q: %w", m.ID, m.Type, ErrUnknownStructure)
		}
		if demands(m, def) {
			requested += def.EnergyConsumption
		}
	}

	remaining := produced
	var consumed int64
	for i := range s.Machines {
		m := &s.Machines[i]
		def, _ := rules.Machine(m.Type)
		if !demands(m, def) {
			continue
		}
		if def.EnergyConsumption <= remaining {
			granted[i] = true
			remaining -= def.EnergyConsumption
			consumed += def.EnergyConsumption
			continue
		}
		m.Status = gamestate.StatusBlocked
		report.Blocked = append(report.Blocked, m.ID)
	}

	s.Energy = gamestate.Energy{
		Produced:  produced,
		Consumed:  consumed,
		Requested: requested,
	}
	return granted, nil
}
