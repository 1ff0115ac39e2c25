package tactical

// UnitSelection names how many units of one type a command applies to.
type UnitSelection struct {
	Type     UnitType `json:"type"`
	Quantity int      `json:"quantity"`
}

// MoveOptions selects the special naval forms of movement. At most one
// flag may be set.
type MoveOptions struct {
	Load          bool `json:"load,omitempty"`          // board land units onto transports in the destination sea zone
	Unload        bool `json:"unload,omitempty"`        // put transport cargo ashore on the destination land territory
	LandOnCarrier bool `json:"landOnCarrier,omitempty"` // park aircraft on a carrier in the destination sea zone
}

// arrival records where attacking units came from, so a retreat can send
// them home.
type arrival struct {
	From     string   `json:"from"`
	Type     UnitType `json:"type"`
	Quantity int      `json:"quantity"`
}

// MoveUnits validates and executes a movement during COMBAT_MOVE or
// NON_COMBAT_MOVE. On success the source stacks shrink, the destination
// stacks grow by exactly the moved amount, moved units are flagged, and
// a hostile destination is queued for combat rather than captured.
// Unknown unit types in the selection are skipped rather than failing
// the whole command.
func (gs *GameState) MoveUnits(player, from, to string, selections []UnitSelection, opts MoveOptions) error {
	if gs.Phase == PhaseGameOver {
		return ruleErrf(ErrGameOver, "game is over")
	}
	if gs.Phase != PhasePlaying || (gs.Turn != TurnCombatMove && gs.Turn != TurnNonCombatMove) {
		return ruleErrf(ErrPhaseMismatch, "cannot move units during %s", gs.phaseLabel())
	}
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	if !gs.worldMap.Exists(from) || !gs.worldMap.Exists(to) {
		return ruleErrf(ErrUnknownTerritory, "unknown territory in %s -> %s", from, to)
	}
	if from == to {
		return ruleErrf(ErrInvalidSelection, "source and destination are the same")
	}
	selections = knownSelections(selections)
	if len(selections) == 0 {
		return ruleErrf(ErrUnknownUnit, "no recognizable units selected")
	}

	switch {
	case opts.Load:
		return gs.loadTransports(player, from, to, selections)
	case opts.Unload:
		return gs.unloadTransports(player, from, to, selections)
	case opts.LandOnCarrier:
		return gs.landOnCarriers(player, from, to, selections)
	default:
		return gs.moveOverland(player, from, to, selections)
	}
}

func (gs *GameState) phaseLabel() string {
	if gs.Phase == PhasePlaying {
		return string(gs.Turn)
	}
	return string(gs.Phase)
}

// knownSelections drops zero quantities and unit types missing from the
// catalog.
func knownSelections(selections []UnitSelection) []UnitSelection {
	var out []UnitSelection
	for _, sel := range selections {
		if sel.Quantity <= 0 {
			continue
		}
		if _, ok := DefOf(sel.Type); !ok {
			continue
		}
		out = append(out, sel)
	}
	return out
}

// moveOverland is the common path: land, sea, and air movement along the
// connection graph, including aircraft taking off from carriers.
func (gs *GameState) moveOverland(player, from, to string, selections []UnitSelection) error {
	toWater := gs.worldMap.IsWater(to)

	// Validate every selection before mutating anything.
	for _, sel := range selections {
		def, _ := DefOf(sel.Type)
		if def.Kind == KindBuilding {
			return ruleErrf(ErrInvalidSelection, "%s cannot move", sel.Type)
		}
		if err := gs.checkAvailability(from, sel, player); err != nil {
			return err
		}
		switch def.Kind {
		case KindLand:
			if toWater {
				return ruleErrf(ErrNoPath, "%s cannot enter a sea zone without a transport", sel.Type)
			}
		case KindSea, KindCarrier:
			if !toWater {
				return ruleErrf(ErrNoPath, "%s cannot move onto land", sel.Type)
			}
		case KindAir:
			if toWater {
				return ruleErrf(ErrInvalidSelection, "aircraft must land on a carrier (use landOnCarrier)")
			}
		}
		if _, _, err := gs.pathFor(from, to, def, player); err != nil {
			return err
		}
	}

	hostile := gs.hostile(to, player)
	defenders := gs.defendersAt(to, player)
	if gs.Turn == TurnNonCombatMove {
		if hostile || defenders > 0 {
			return ruleErrf(ErrPhaseMismatch, "%s is hostile; enter it during combat movement", to)
		}
		if !toWater {
			if owner := gs.Owner(to); owner == "" || !gs.allied(owner, player) {
				return ruleErrf(ErrNotOwned, "%s is not friendly territory", to)
			}
		}
	}

	rec := moveRecord{
		Player:         player,
		From:           from,
		To:             to,
		Selections:     selections,
		FromBefore:     cloneStacks(gs.Units[from]),
		ToBefore:       cloneStacks(gs.Units[to]),
		StateBefore:    map[string]*TerritoryState{},
		ArrivalsBefore: cloneArrivals(gs.Arrivals[to]),
	}

	var events []Event
	for _, sel := range selections {
		def, _ := DefOf(sel.Type)
		taken := gs.extractUnits(from, sel.Type, player, sel.Quantity)
		gs.Units[to] = placeTaken(gs.Units[to], taken)

		// Blitzing armor captures the empty hostile territories it
		// passed through.
		if def.Kind == KindLand && def.Blitz && gs.Turn == TurnCombatMove {
			_, path, _ := gs.pathFor(from, to, def, player)
			for _, mid := range path[:len(path)-1] {
				if gs.blitzable(mid, player) {
					events = append(events, gs.captureTerritory(mid, player, &rec)...)
				}
			}
		}
	}

	if gs.Turn == TurnCombatMove {
		if defenders > 0 {
			gs.queueCombat(to, &rec, selections, from)
		} else if !toWater && !gs.friendlyLand(to, player) {
			// Undefended hostile or unclaimed land is taken without a
			// fight.
			events = append(events, gs.captureTerritory(to, player, &rec)...)
		}
	}

	gs.moveHistory = pushBounded(gs.moveHistory, rec)
	events = append(events, UnitsMoved{Player: player, From: from, To: to, Units: selections})
	gs.notify(events...)
	return nil
}

// checkAvailability classifies a short selection as NOT_OWNED (units not
// there at all) or ALREADY_MOVED (there, but spent).
func (gs *GameState) checkAvailability(from string, sel UnitSelection, player string) error {
	total, fresh := gs.availableUnits(from, sel.Type, player)
	if fresh >= sel.Quantity {
		return nil
	}
	if total >= sel.Quantity {
		return ruleErrf(ErrAlreadyMoved, "only %d unmoved %s at %s", fresh, sel.Type, from)
	}
	return ruleErrf(ErrNotOwned, "no %d %s of yours at %s", sel.Quantity, sel.Type, from)
}

// availableUnits counts a player's units of a type in a territory,
// including aircraft parked on carriers there.
func (gs *GameState) availableUnits(territory string, t UnitType, player string) (total, unmoved int) {
	def, _ := DefOf(t)
	for _, s := range gs.Units[territory] {
		if s.Type == t && s.Owner == player {
			total += s.Quantity
			if !s.Moved {
				unmoved += s.Quantity
			}
		}
		if def.Kind == KindAir {
			for _, a := range s.Aircraft {
				if a.Type == t && a.Owner == player {
					total += a.Quantity
					if !a.Moved {
						unmoved += a.Quantity
					}
				}
			}
		}
	}
	return total, unmoved
}

// pathFor runs a bounded breadth-first search for the cheapest legal
// route and checks it against the unit's movement allowance.
func (gs *GameState) pathFor(from, to string, def UnitDef, player string) (int, []string, error) {
	allowance := def.Movement
	if def.Kind == KindAir && gs.PlayerByID(player).HasTech(TechLongRangeAircraft) {
		allowance += 2
	}

	parent := map[string]string{from: ""}
	dist := map[string]int{from: 0}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if dist[cur] >= allowance {
			continue
		}
		for _, nb := range gs.worldMap.Neighbors(cur) {
			if _, seen := parent[nb]; seen {
				continue
			}
			if nb == to {
				// Path lists the intermediate hops plus the destination,
				// for blitz capture of pass-through territories.
				var path []string
				for p := cur; p != from && p != ""; p = parent[p] {
					path = append([]string{p}, path...)
				}
				path = append(path, to)
				return dist[cur] + 1, path, nil
			}
			if !gs.traversable(nb, def, player) {
				continue
			}
			parent[nb] = cur
			dist[nb] = dist[cur] + 1
			queue = append(queue, nb)
		}
	}
	// Distinguish "no route at all" from "route exists but too far".
	if gs.reachableIgnoringRange(from, to, def, player) {
		return 0, nil, ruleErrf(ErrInsufficientMovement, "%s is more than %d moves away", to, allowance)
	}
	return 0, nil, ruleErrf(ErrNoPath, "no route from %s to %s for %s units", from, to, def.Kind)
}

// traversable reports whether a unit may pass THROUGH a territory
// (destination legality is checked separately).
func (gs *GameState) traversable(name string, def UnitDef, player string) bool {
	water := gs.worldMap.IsWater(name)
	switch def.Kind {
	case KindAir:
		return true
	case KindLand:
		if water {
			return false
		}
		owner := gs.Owner(name)
		if owner != "" && gs.allied(owner, player) {
			return true
		}
		return def.Blitz && gs.blitzable(name, player)
	case KindSea, KindCarrier:
		return water && gs.defendersAt(name, player) == 0
	}
	return false
}

// blitzable: an empty hostile (or unclaimed) land territory armor may
// roll through.
func (gs *GameState) blitzable(name string, player string) bool {
	if gs.worldMap.IsWater(name) {
		return false
	}
	owner := gs.Owner(name)
	if owner != "" && gs.allied(owner, player) {
		return false
	}
	return countUnits(gs.Units[name], "") == 0
}

// reachableIgnoringRange is the same walk without the allowance bound.
func (gs *GameState) reachableIgnoringRange(from, to string, def UnitDef, player string) bool {
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range gs.worldMap.Neighbors(cur) {
			if nb == to {
				return true
			}
			if visited[nb] || !gs.traversable(nb, def, player) {
				continue
			}
			visited[nb] = true
			queue = append(queue, nb)
		}
	}
	return false
}

// hostile reports whether entering the territory means combat or
// conquest for the player.
func (gs *GameState) hostile(territory, player string) bool {
	if gs.defendersAt(territory, player) > 0 {
		return true
	}
	if gs.worldMap.IsWater(territory) {
		return false
	}
	owner := gs.Owner(territory)
	return owner != "" && !gs.allied(owner, player)
}

// friendlyLand reports whether a land territory is owned by the player
// or an ally.
func (gs *GameState) friendlyLand(territory, player string) bool {
	owner := gs.Owner(territory)
	return owner != "" && gs.allied(owner, player)
}

// defendersAt counts non-allied units in a territory.
func (gs *GameState) defendersAt(territory, player string) int {
	n := 0
	for _, s := range gs.Units[territory] {
		if !gs.allied(s.Owner, player) {
			n += s.Quantity
		}
	}
	return n
}

// queueCombat registers a contested territory and the attacker arrivals
// that would return home on retreat. The record only owns the queue
// entry it actually appended; undoing a follow-up move into an already
// queued territory must leave the battle queued.
func (gs *GameState) queueCombat(territory string, rec *moveRecord, selections []UnitSelection, from string) {
	if !containsString(gs.CombatQueue, territory) {
		gs.CombatQueue = append(gs.CombatQueue, territory)
		rec.QueuedCombat = true
	}
	for _, sel := range selections {
		gs.Arrivals[territory] = append(gs.Arrivals[territory], arrival{From: from, Type: sel.Type, Quantity: sel.Quantity})
	}
}

// captureTerritory flips ownership outside of battle resolution (walk-in
// or blitz), handling capital capture and the conquest card.
func (gs *GameState) captureTerritory(territory, conqueror string, rec *moveRecord) []Event {
	prior := gs.Territory[territory]
	if rec != nil {
		if _, seen := rec.StateBefore[territory]; !seen {
			if prior != nil {
				copied := *prior
				rec.StateBefore[territory] = &copied
			} else {
				rec.StateBefore[territory] = nil
			}
		}
	}
	prevOwner := ""
	if prior != nil {
		prevOwner = prior.Owner
	}
	gs.setOwner(territory, conqueror)
	gs.logf(conqueror, "captured %s", territory)
	events := []Event{TerritoryCaptured{Territory: territory, NewOwner: conqueror, PrevOwner: prevOwner}}
	events = append(events, gs.onConquest(territory, conqueror, prevOwner)...)
	return events
}

func cloneArrivals(in []arrival) []arrival {
	if in == nil {
		return nil
	}
	out := make([]arrival, len(in))
	copy(out, in)
	return out
}

// placeTaken merges extracted units into a destination list, marking
// them moved. Stateful stacks (cargo, decks, damage) stay unmerged.
func placeTaken(dst []*UnitStack, taken []*UnitStack) []*UnitStack {
	for _, s := range taken {
		s.Moved = true
		if len(s.Cargo) == 0 && len(s.Aircraft) == 0 && s.Damaged == 0 {
			dst = addUnits(dst, s.Type, s.Owner, s.Quantity, true)
		} else {
			dst = append(dst, s)
		}
	}
	return dst
}

// extractUnits pulls qty unmoved units of a type out of a territory,
// returning the removed stack entries with cargo and damage state
// intact. Aircraft are lifted off carrier decks when the territory
// itself has none free. Callers validate availability first.
func (gs *GameState) extractUnits(territory string, t UnitType, owner string, qty int) []*UnitStack {
	def, _ := DefOf(t)
	var taken []*UnitStack
	remaining := qty

	stacks := gs.Units[territory]
	for _, s := range stacks {
		if remaining == 0 {
			break
		}
		if s.Type != t || s.Owner != owner || s.Moved {
			continue
		}
		if len(s.Cargo) > 0 || len(s.Aircraft) > 0 {
			// Stateful stacks move whole or not at all.
			if s.Quantity <= remaining {
				taken = append(taken, s)
				remaining -= s.Quantity
				s.Quantity = 0
			}
			continue
		}
		take := min(remaining, s.Quantity)
		out := &UnitStack{Type: t, Owner: owner, Quantity: take}
		if s.Damaged > 0 {
			// Prefer healthy hulls; damaged ones go last.
			healthy := s.Quantity - s.Damaged
			if take > healthy {
				out.Damaged = take - healthy
				s.Damaged -= out.Damaged
			}
		}
		s.Quantity -= take
		remaining -= take
		taken = append(taken, out)
	}

	if def.Kind == KindAir && remaining > 0 {
		for _, s := range stacks {
			if remaining == 0 {
				break
			}
			if len(s.Aircraft) == 0 {
				continue
			}
			kept := s.Aircraft[:0]
			for i := range s.Aircraft {
				a := s.Aircraft[i]
				if remaining > 0 && a.Type == t && a.Owner == owner && !a.Moved {
					take := min(remaining, a.Quantity)
					taken = append(taken, &UnitStack{Type: t, Owner: owner, Quantity: take})
					remaining -= take
					a.Quantity -= take
				}
				if a.Quantity > 0 {
					kept = append(kept, a)
				}
			}
			s.Aircraft = kept
		}
	}

	gs.Units[territory] = pruneStacks(stacks)
	if len(gs.Units[territory]) == 0 {
		delete(gs.Units, territory)
	}
	return taken
}
