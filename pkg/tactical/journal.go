package tactical

// Undo journaling. Three independent stacks — placement, movement,
// mobilization — each scoped to the phase that produced it; phase
// transitions clear all three (see clearJournals). Records capture the
// exact prior state of everything the action touched, so undo is a
// restore rather than an inverse computation.

// journalDepth bounds each stack; the oldest entry falls off first.
const journalDepth = 64

type placementRecord struct {
	Player      string
	Type        UnitType
	Territory   string
	Before      []*UnitStack
	StateBefore *TerritoryState // nil if the territory had no dynamic record
}

type moveRecord struct {
	Player         string
	From, To       string
	Selections     []UnitSelection
	FromBefore     []*UnitStack
	ToBefore       []*UnitStack
	StateBefore    map[string]*TerritoryState // prior records for every territory whose ownership changed
	ArrivalsBefore []arrival                  // battle-origin bookkeeping for To
	QueuedCombat   bool
	MarkedAmphib   bool
}

type mobilizeRecord struct {
	Player    string
	Index     int
	Unit      PendingUnit
	Territory string
	Before    []*UnitStack
}

func pushBounded[T any](stack []T, rec T) []T {
	stack = append(stack, rec)
	if len(stack) > journalDepth {
		stack = stack[1:]
	}
	return stack
}

// UndoPlacement reverses the most recent initial-unit placement of the
// current round.
func (gs *GameState) UndoPlacement(player string) error {
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	n := len(gs.placementHistory)
	if n == 0 {
		return ruleErrf(ErrNothingToUndo, "no placements this round")
	}
	rec := gs.placementHistory[n-1]
	gs.placementHistory = gs.placementHistory[:n-1]

	gs.Units[rec.Territory] = rec.Before
	if len(rec.Before) == 0 {
		delete(gs.Units, rec.Territory)
	}
	if rec.StateBefore != nil {
		copied := *rec.StateBefore
		gs.Territory[rec.Territory] = &copied
	} else {
		delete(gs.Territory, rec.Territory)
	}
	gs.PlacementPool[rec.Player][rec.Type]++
	gs.PlacedInRound--
	gs.notify()
	return nil
}

// UndoLastMove restores both endpoints of the most recent movement,
// including any en-route captures, combat queueing, and amphibious
// marking it caused.
func (gs *GameState) UndoLastMove(player string) error {
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	n := len(gs.moveHistory)
	if n == 0 {
		return ruleErrf(ErrNothingToUndo, "no moves this phase")
	}
	rec := gs.moveHistory[n-1]
	gs.moveHistory = gs.moveHistory[:n-1]

	gs.Units[rec.From] = rec.FromBefore
	if len(rec.FromBefore) == 0 {
		delete(gs.Units, rec.From)
	}
	gs.Units[rec.To] = rec.ToBefore
	if len(rec.ToBefore) == 0 {
		delete(gs.Units, rec.To)
	}
	for name, prior := range rec.StateBefore {
		if prior != nil {
			copied := *prior
			gs.Territory[name] = &copied
		} else {
			delete(gs.Territory, name)
		}
	}
	if rec.QueuedCombat {
		gs.removeFromCombatQueue(rec.To)
	}
	if rec.MarkedAmphib {
		delete(gs.Amphibious, rec.To)
	}
	gs.Arrivals[rec.To] = rec.ArrivalsBefore
	if len(rec.ArrivalsBefore) == 0 {
		delete(gs.Arrivals, rec.To)
	}
	gs.notify()
	return nil
}

// UndoMobilization returns the most recently placed pending unit to the
// purchase cart.
func (gs *GameState) UndoMobilization(player string) error {
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	n := len(gs.mobilizeHistory)
	if n == 0 {
		return ruleErrf(ErrNothingToUndo, "no mobilizations this phase")
	}
	rec := gs.mobilizeHistory[n-1]
	gs.mobilizeHistory = gs.mobilizeHistory[:n-1]

	gs.Units[rec.Territory] = rec.Before
	if len(rec.Before) == 0 {
		delete(gs.Units, rec.Territory)
	}
	// Reinsert at the original cart position so indices stay stable.
	cart := gs.Pending[rec.Player]
	idx := min(rec.Index, len(cart))
	cart = append(cart[:idx], append([]PendingUnit{rec.Unit}, cart[idx:]...)...)
	gs.Pending[rec.Player] = cart
	gs.notify()
	return nil
}

func (gs *GameState) removeFromCombatQueue(territory string) {
	for i, t := range gs.CombatQueue {
		if t == territory {
			gs.CombatQueue = append(gs.CombatQueue[:i], gs.CombatQueue[i+1:]...)
			return
		}
	}
}
