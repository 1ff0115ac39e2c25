package tactical

// Naval forms of movement: boarding transports, going ashore, and
// landing aircraft on carriers. Each is a single adjacent-hop operation
// against stacks the mover already owns, so pathing reduces to an
// adjacency check.

// transportSlots is the hold size of one transport hull.
// nonInfantryPerHull caps the heavy half of a mixed load.
const (
	transportSlots     = 2
	nonInfantryPerHull = 1
)

// loadTransports boards land units from a coastal territory onto the
// player's transports in an adjacent sea zone. Boarding spends the
// unit's move for the phase; the transport itself is unaffected.
func (gs *GameState) loadTransports(player, from, to string, selections []UnitSelection) error {
	if gs.worldMap.IsWater(from) || !gs.worldMap.IsWater(to) {
		return ruleErrf(ErrNoPath, "loading runs from land to an adjacent sea zone")
	}
	if !gs.worldMap.AreAdjacent(from, to) {
		return ruleErrf(ErrNoPath, "%s does not border %s", from, to)
	}
	if gs.defendersAt(to, player) > 0 {
		return ruleErrf(ErrNoPath, "enemy fleet controls %s", to)
	}
	for _, sel := range selections {
		def, _ := DefOf(sel.Type)
		if def.Kind != KindLand {
			return ruleErrf(ErrInvalidSelection, "%s cannot board a transport", sel.Type)
		}
		if err := gs.checkAvailability(from, sel, player); err != nil {
			return err
		}
	}

	// Capacity check before any mutation: expand the selection against
	// the free hold space of every owned hull in the zone.
	hulls := gs.transportHulls(to, player)
	infantry, heavy := 0, 0
	for _, sel := range selections {
		if sel.Type == Infantry {
			infantry += sel.Quantity
		} else {
			heavy += sel.Quantity
		}
	}
	if !fitsHolds(hulls, infantry, heavy) {
		return ruleErrf(ErrCargoFull, "transports in %s cannot hold %d more units", to, infantry+heavy)
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

	// Heavy units first so they claim the hulls that can still take one.
	for _, heavyFirst := range []bool{true, false} {
		for _, sel := range selections {
			if (sel.Type != Infantry) != heavyFirst {
				continue
			}
			gs.extractUnits(from, sel.Type, player, sel.Quantity)
			for i := 0; i < sel.Quantity; i++ {
				hull := gs.hullWithRoom(to, player, sel.Type)
				hull.Cargo = addUnitValues(hull.Cargo, sel.Type, player, 1, true)
			}
		}
	}

	gs.moveHistory = pushBounded(gs.moveHistory, rec)
	gs.notify(UnitsMoved{Player: player, From: from, To: to, Units: selections})
	return nil
}

// hullRoom summarizes one transport's free hold space.
type hullRoom struct {
	free  int
	heavy int // non-infantry already aboard
}

func (gs *GameState) transportHulls(seaZone, player string) []hullRoom {
	var hulls []hullRoom
	for _, s := range gs.Units[seaZone] {
		if s.Type != Transport || s.Owner != player {
			continue
		}
		if len(s.Cargo) > 0 {
			heavy := 0
			for _, c := range s.Cargo {
				if c.Type != Infantry {
					heavy += c.Quantity
				}
			}
			hulls = append(hulls, hullRoom{free: transportSlots - s.CargoUsed(), heavy: heavy})
			continue
		}
		for i := 0; i < s.Quantity; i++ {
			hulls = append(hulls, hullRoom{free: transportSlots})
		}
	}
	return hulls
}

// fitsHolds decides whether the load fits: heavy units need a hull below
// the non-infantry cap, infantry just needs a free slot.
func fitsHolds(hulls []hullRoom, infantry, heavy int) bool {
	for i := range hulls {
		for heavy > 0 && hulls[i].free > 0 && hulls[i].heavy < nonInfantryPerHull {
			hulls[i].free--
			hulls[i].heavy++
			heavy--
		}
	}
	if heavy > 0 {
		return false
	}
	for i := range hulls {
		for infantry > 0 && hulls[i].free > 0 {
			hulls[i].free--
			infantry--
		}
	}
	return infantry == 0
}

// hullWithRoom finds (splitting off a single hull from a plain stack if
// needed) a transport that can take one more unit of the given type.
// Capacity was validated up front, so a nil return is a bug.
func (gs *GameState) hullWithRoom(seaZone, player string, cargo UnitType) *UnitStack {
	stacks := gs.Units[seaZone]
	for _, s := range stacks {
		if s.Type != Transport || s.Owner != player {
			continue
		}
		if len(s.Cargo) > 0 {
			if s.CargoUsed() >= transportSlots {
				continue
			}
			if cargo != Infantry && hullHeavyCount(s) >= nonInfantryPerHull {
				continue
			}
			return s
		}
		// Plain stack: peel one hull off to carry the cargo.
		if s.Quantity == 1 {
			return s
		}
		s.Quantity--
		hull := &UnitStack{Type: Transport, Owner: player, Quantity: 1, Moved: s.Moved}
		gs.Units[seaZone] = append(stacks, hull)
		return hull
	}
	return nil
}

func hullHeavyCount(s *UnitStack) int {
	n := 0
	for _, c := range s.Cargo {
		if c.Type != Infantry {
			n += c.Quantity
		}
	}
	return n
}

// unloadTransports puts cargo ashore on a land territory adjacent to the
// sea zone. During COMBAT_MOVE the shore may be hostile, which marks the
// landing amphibious and queues (or wins) the fight; otherwise the shore
// must be friendly.
func (gs *GameState) unloadTransports(player, from, to string, selections []UnitSelection) error {
	if !gs.worldMap.IsWater(from) || gs.worldMap.IsWater(to) {
		return ruleErrf(ErrNoPath, "unloading runs from a sea zone to adjacent land")
	}
	if !gs.worldMap.AreAdjacent(from, to) {
		return ruleErrf(ErrNoPath, "%s does not border %s", from, to)
	}
	for _, sel := range selections {
		if have := gs.cargoCount(from, sel.Type, player); have < sel.Quantity {
			return ruleErrf(ErrNotOwned, "only %d %s aboard transports in %s", have, sel.Type, from)
		}
	}

	hostile := gs.hostile(to, player)
	defenders := gs.defendersAt(to, player)
	if gs.Turn != TurnCombatMove && (hostile || defenders > 0) {
		return ruleErrf(ErrPhaseMismatch, "%s is hostile; assault it during combat movement", to)
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
		gs.removeCargo(from, sel.Type, player, sel.Quantity)
		gs.Units[to] = addUnits(gs.Units[to], sel.Type, player, sel.Quantity, true)
	}

	if gs.Turn == TurnCombatMove && !gs.friendlyLand(to, player) {
		if (hostile || defenders > 0) && !gs.Amphibious[to] {
			gs.Amphibious[to] = true
			rec.MarkedAmphib = true
		}
		if defenders > 0 {
			gs.queueCombat(to, &rec, selections, from)
		} else {
			events = append(events, gs.captureTerritory(to, player, &rec)...)
		}
	}

	gs.moveHistory = pushBounded(gs.moveHistory, rec)
	events = append(events, UnitsMoved{Player: player, From: from, To: to, Units: selections})
	gs.notify(events...)
	return nil
}

func (gs *GameState) cargoCount(seaZone string, t UnitType, player string) int {
	n := 0
	for _, s := range gs.Units[seaZone] {
		if s.Owner != player {
			continue
		}
		for _, c := range s.Cargo {
			if c.Type == t {
				n += c.Quantity
			}
		}
	}
	return n
}

func (gs *GameState) removeCargo(seaZone string, t UnitType, player string, qty int) {
	for _, s := range gs.Units[seaZone] {
		if qty == 0 {
			break
		}
		if s.Owner != player || len(s.Cargo) == 0 {
			continue
		}
		kept := s.Cargo[:0]
		for i := range s.Cargo {
			c := s.Cargo[i]
			if qty > 0 && c.Type == t {
				take := min(qty, c.Quantity)
				c.Quantity -= take
				qty -= take
			}
			if c.Quantity > 0 {
				kept = append(kept, c)
			}
		}
		s.Cargo = kept
	}
}

// landOnCarriers flies aircraft to a sea zone and parks them on the
// player's carriers there. The flight is ordinary air movement; only the
// destination differs.
func (gs *GameState) landOnCarriers(player, from, to string, selections []UnitSelection) error {
	if !gs.worldMap.IsWater(to) {
		return ruleErrf(ErrNoPath, "carriers live in sea zones, not %s", to)
	}
	if gs.defendersAt(to, player) > 0 {
		return ruleErrf(ErrNoPath, "enemy fleet controls %s", to)
	}
	total := 0
	for _, sel := range selections {
		def, _ := DefOf(sel.Type)
		if def.Kind != KindAir {
			return ruleErrf(ErrInvalidSelection, "%s cannot land on a carrier", sel.Type)
		}
		if err := gs.checkAvailability(from, sel, player); err != nil {
			return err
		}
		if _, _, err := gs.pathFor(from, to, def, player); err != nil {
			return err
		}
		total += sel.Quantity
	}
	if free := gs.carrierDeckSpace(to, player); free < total {
		return ruleErrf(ErrCapacityExceeded, "carriers in %s have %d free deck slots, need %d", to, free, total)
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

	for _, sel := range selections {
		gs.extractUnits(from, sel.Type, player, sel.Quantity)
		for i := 0; i < sel.Quantity; i++ {
			deck := gs.carrierWithRoom(to, player)
			deck.Aircraft = addUnitValues(deck.Aircraft, sel.Type, player, 1, true)
		}
	}

	gs.moveHistory = pushBounded(gs.moveHistory, rec)
	gs.notify(UnitsMoved{Player: player, From: from, To: to, Units: selections})
	return nil
}

func (gs *GameState) carrierDeckSpace(seaZone, player string) int {
	def, _ := DefOf(Carrier)
	free := 0
	for _, s := range gs.Units[seaZone] {
		if s.Type != Carrier || s.Owner != player {
			continue
		}
		free += def.AircraftCapacity*s.Quantity - s.AircraftAboard()
	}
	return free
}

// carrierWithRoom mirrors hullWithRoom for flight decks.
func (gs *GameState) carrierWithRoom(seaZone, player string) *UnitStack {
	def, _ := DefOf(Carrier)
	stacks := gs.Units[seaZone]
	for _, s := range stacks {
		if s.Type != Carrier || s.Owner != player {
			continue
		}
		if len(s.Aircraft) > 0 {
			if s.AircraftAboard() < def.AircraftCapacity*s.Quantity {
				return s
			}
			continue
		}
		if s.Quantity == 1 {
			return s
		}
		s.Quantity--
		deck := &UnitStack{Type: Carrier, Owner: player, Quantity: 1, Moved: s.Moved}
		gs.Units[seaZone] = append(stacks, deck)
		return deck
	}
	return nil
}
