package tactical

import "encoding/json"

// Snapshot serializes the full game state. The output is what the
// replication layer ships between peers and what saves persist; undo
// journals are deliberately not part of it (a restored session starts
// its phase with a clean slate).
func (gs *GameState) Snapshot() ([]byte, error) {
	return json.Marshal(gs)
}

// RestoreSnapshot replaces the state wholesale with a snapshot. Unknown
// territories and unit types in the payload are dropped rather than
// failing the load. The dice roller is rebuilt from the recorded seed
// and fast-forwarded past every roll already consumed, so the restored
// session continues the same dice sequence.
func (gs *GameState) RestoreSnapshot(data []byte) error {
	var incoming GameState
	if err := json.Unmarshal(data, &incoming); err != nil {
		return err
	}

	incoming.worldMap = gs.worldMap
	incoming.bus = gs.bus
	incoming.subscribers = gs.subscribers
	incoming.sanitize()

	incoming.roller = NewRoller(incoming.Seed)
	for i := 0; i < incoming.RollCount; i++ {
		incoming.roller.Roll()
	}

	*gs = incoming
	gs.notify()
	return nil
}

// sanitize drops references to territories and unit types this build
// does not know, and re-creates any nil maps so command methods never
// see one.
func (gs *GameState) sanitize() {
	if gs.Units == nil {
		gs.Units = make(map[string][]*UnitStack)
	}
	if gs.Territory == nil {
		gs.Territory = make(map[string]*TerritoryState)
	}
	if gs.Battles == nil {
		gs.Battles = make(map[string]*Battle)
	}
	if gs.Amphibious == nil {
		gs.Amphibious = make(map[string]bool)
	}
	if gs.Arrivals == nil {
		gs.Arrivals = make(map[string][]arrival)
	}
	if gs.Conquered == nil {
		gs.Conquered = make(map[string]bool)
	}
	if gs.Pending == nil {
		gs.Pending = make(map[string][]PendingUnit)
	}

	for name, stacks := range gs.Units {
		if !gs.worldMap.Exists(name) {
			delete(gs.Units, name)
			continue
		}
		kept := stacks[:0]
		for _, s := range stacks {
			if _, ok := DefOf(s.Type); !ok || s.Quantity <= 0 {
				continue
			}
			s.Cargo = knownStacks(s.Cargo)
			s.Aircraft = knownStacks(s.Aircraft)
			kept = append(kept, s)
		}
		if len(kept) == 0 {
			delete(gs.Units, name)
		} else {
			gs.Units[name] = kept
		}
	}
	for name := range gs.Territory {
		if !gs.worldMap.Exists(name) {
			delete(gs.Territory, name)
		}
	}
}

func knownStacks(in []UnitStack) []UnitStack {
	if in == nil {
		return nil
	}
	kept := in[:0]
	for _, s := range in {
		if _, ok := DefOf(s.Type); ok && s.Quantity > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}
