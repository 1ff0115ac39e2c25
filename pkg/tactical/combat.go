package tactical

// BattleStage tracks where a battle is in its round loop.
type BattleStage string

const (
	StageAAFire           BattleStage = "AA_FIRE" // transient: anti-air fires during StartCombat
	StageReady            BattleStage = "READY"
	StageSelectCasualties BattleStage = "SELECT_CASUALTIES"
	StageResolved         BattleStage = "RESOLVED"
)

// Battle is one contested territory mid-resolution. Battles live in
// GameState.Battles keyed by territory and are deleted on finalize or
// retreat.
type Battle struct {
	Territory  string      `json:"territory"`
	Attacker   string      `json:"attacker"`
	Defender   string      `json:"defender"`
	Stage      BattleStage `json:"stage"`
	Round      int         `json:"round"`
	Amphibious bool        `json:"amphibious,omitempty"`

	// Hits scored in the current round, awaiting casualty assignment.
	HitsOnDefender int `json:"hitsOnDefender,omitempty"`
	HitsOnAttacker int `json:"hitsOnAttacker,omitempty"`

	// Outcome, set when Stage becomes RESOLVED.
	AttackerWon bool `json:"attackerWon,omitempty"`
}

// StartCombat opens the battle for a queued territory. If the defender
// has anti-air and the attack includes aircraft, the AA fires once,
// immediately: one die per aircraft, a 1 destroys the cheapest aircraft.
func (gs *GameState) StartCombat(player, territory string) error {
	if gs.Phase != PhasePlaying || gs.Turn != TurnCombat {
		return ruleErrf(ErrPhaseMismatch, "not in the combat phase")
	}
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	if !containsString(gs.CombatQueue, territory) {
		return ruleErrf(ErrNoBattle, "%s is not queued for combat", territory)
	}
	if gs.Battles[territory] != nil {
		return ruleErrf(ErrBattleStage, "battle at %s already started", territory)
	}

	defender := gs.defenderAt(territory, player)
	b := &Battle{
		Territory:  territory,
		Attacker:   player,
		Defender:   defender,
		Stage:      StageAAFire,
		Amphibious: gs.Amphibious[territory],
	}
	gs.Battles[territory] = b
	gs.logf(player, "attacks %s (defended by %s)", territory, defender)

	var events []Event
	aircraft := gs.sideUnits(territory, player, true, func(d UnitDef) bool { return d.Kind == KindAir })
	if aircraft > 0 && gs.defenderHasAA(territory, player) {
		downed := 0
		for i := 0; i < aircraft; i++ {
			if gs.roll() == 1 {
				downed++
			}
		}
		if downed > 0 {
			gs.removeCheapestAircraft(territory, player, downed)
			gs.logf(player, "anti-air fire downs %d aircraft over %s", downed, territory)
		}
	}

	// The whole attack can die to AA before a shot is fired.
	if gs.sideUnits(territory, player, true, combatant) == 0 {
		b.Stage = StageResolved
		b.AttackerWon = false
	} else {
		b.Stage = StageReady
	}
	gs.notify(events...)
	return nil
}

// combatant filters units that take part in battle rolls and casualties.
func combatant(d UnitDef) bool { return d.Kind != KindBuilding }

// defenderAt picks the battle's named defender: the territory owner if
// hostile, otherwise the owner of the first enemy stack.
func (gs *GameState) defenderAt(territory, attacker string) string {
	if owner := gs.Owner(territory); owner != "" && !gs.allied(owner, attacker) {
		return owner
	}
	for _, s := range gs.Units[territory] {
		if !gs.allied(s.Owner, attacker) {
			return s.Owner
		}
	}
	return ""
}

// sideUnits counts one side's units in a territory, skipping cargo and
// parked aircraft (they do not fight) and anything the filter rejects.
func (gs *GameState) sideUnits(territory, attacker string, attacking bool, keep func(UnitDef) bool) int {
	n := 0
	for _, s := range gs.Units[territory] {
		if gs.allied(s.Owner, attacker) != attacking {
			continue
		}
		def, _ := DefOf(s.Type)
		if keep(def) {
			n += s.Quantity
		}
	}
	return n
}

func (gs *GameState) defenderHasAA(territory, attacker string) bool {
	for _, s := range gs.Units[territory] {
		if s.Type == AAGun && !gs.allied(s.Owner, attacker) && s.Quantity > 0 {
			return true
		}
	}
	return false
}

// removeCheapestAircraft destroys n attacking aircraft, cheapest first.
func (gs *GameState) removeCheapestAircraft(territory, attacker string, n int) {
	order := cheapestFirst([]UnitType{Fighter, Bomber})
	for _, t := range order {
		for _, s := range gs.Units[territory] {
			if n == 0 {
				return
			}
			if s.Type != t || !gs.allied(s.Owner, attacker) {
				continue
			}
			take := min(n, s.Quantity)
			s.Quantity -= take
			n -= take
		}
		gs.Units[territory] = pruneStacks(gs.Units[territory])
	}
}

// RollCombatRound rolls one exchange of fire. Both sides roll
// simultaneously; hits are capped by the opposing side's unit count and
// go to SELECT_CASUALTIES for assignment.
func (gs *GameState) RollCombatRound(player, territory string) error {
	b, err := gs.activeBattle(player, territory)
	if err != nil {
		return err
	}
	if b.Stage != StageReady {
		return ruleErrf(ErrBattleStage, "battle at %s is %s, not ready to roll", territory, b.Stage)
	}

	b.Round++
	attHits := gs.rollSide(territory, b.Attacker, true)
	defHits := gs.rollSide(territory, b.Attacker, false)
	b.HitsOnDefender = min(attHits, gs.sideUnits(territory, b.Attacker, false, combatant))
	b.HitsOnAttacker = min(defHits, gs.sideUnits(territory, b.Attacker, true, combatant))
	gs.logf(b.Attacker, "round %d at %s: attacker scores %d, defender scores %d", b.Round, territory, b.HitsOnDefender, b.HitsOnAttacker)

	if b.HitsOnDefender == 0 && b.HitsOnAttacker == 0 {
		// Nothing to assign; straight back to READY.
		gs.notify()
		return nil
	}
	b.Stage = StageSelectCasualties
	gs.notify()
	return nil
}

func (gs *GameState) activeBattle(player, territory string) (*Battle, error) {
	if gs.Phase != PhasePlaying || gs.Turn != TurnCombat {
		return nil, ruleErrf(ErrPhaseMismatch, "not in the combat phase")
	}
	if err := gs.requireTurn(player); err != nil {
		return nil, err
	}
	b := gs.Battles[territory]
	if b == nil {
		return nil, ruleErrf(ErrNoBattle, "no battle at %s", territory)
	}
	return b, nil
}

// rollSide rolls every fighting unit on one side and counts hits. A unit
// hits when its die is at or under its combat value; zero-value units
// (AA guns, transports on defense 0) never roll.
func (gs *GameState) rollSide(territory, attacker string, attacking bool) int {
	hits := 0
	for _, s := range gs.Units[territory] {
		if gs.allied(s.Owner, attacker) != attacking {
			continue
		}
		def, ok := DefOf(s.Type)
		if !ok || def.Kind == KindBuilding {
			continue
		}
		value := def.Defense
		if attacking {
			value = def.Attack
		}
		value = gs.techAdjustedCombat(s.Owner, s.Type, value, attacking)
		if value <= 0 {
			continue
		}
		dice := 1
		if attacking && s.Type == Bomber && gs.HasTech(s.Owner, TechHeavyBombers) {
			dice = 2
		}
		for i := 0; i < s.Quantity*dice; i++ {
			if gs.roll() <= value {
				hits++
			}
		}
	}
	return hits
}

func (gs *GameState) techAdjustedCombat(owner string, t UnitType, value int, attacking bool) int {
	switch {
	case t == Submarine && attacking && gs.HasTech(owner, TechSuperSubmarines):
		return value + 1
	case t == Fighter && !attacking && gs.HasTech(owner, TechJetFighters):
		return value + 1
	}
	return value
}

// ConfirmCasualties assigns and removes this round's hits. Nil selections
// take the default: battleships absorb hits as damage first, then the
// cheapest units die. Explicit selections must account for every hit.
// When a side is wiped out (or both are) the battle resolves.
func (gs *GameState) ConfirmCasualties(player, territory string, attackerLosses, defenderLosses []UnitSelection) error {
	b, err := gs.activeBattle(player, territory)
	if err != nil {
		return err
	}
	if b.Stage != StageSelectCasualties {
		return ruleErrf(ErrBattleStage, "battle at %s has no casualties pending", territory)
	}

	// Validate explicit selections before the default selector mutates
	// anything (it applies battleship damage as it picks).
	if attackerLosses != nil {
		if err := gs.checkCasualties(territory, b.Attacker, true, attackerLosses, b.HitsOnAttacker); err != nil {
			return err
		}
	}
	if defenderLosses != nil {
		if err := gs.checkCasualties(territory, b.Attacker, false, defenderLosses, b.HitsOnDefender); err != nil {
			return err
		}
	}
	if attackerLosses == nil {
		attackerLosses = gs.defaultCasualties(territory, b.Attacker, true, b.HitsOnAttacker)
	}
	if defenderLosses == nil {
		defenderLosses = gs.defaultCasualties(territory, b.Attacker, false, b.HitsOnDefender)
	}

	gs.applyCasualties(territory, b.Attacker, true, attackerLosses)
	gs.applyCasualties(territory, b.Attacker, false, defenderLosses)
	b.HitsOnAttacker, b.HitsOnDefender = 0, 0

	attLeft := gs.sideUnits(territory, b.Attacker, true, combatant)
	defLeft := gs.sideUnits(territory, b.Attacker, false, combatant)
	switch {
	case defLeft == 0 && attLeft > 0:
		b.Stage = StageResolved
		b.AttackerWon = true
	case attLeft == 0:
		// Mutual annihilation leaves the territory with its owner.
		b.Stage = StageResolved
		b.AttackerWon = false
	default:
		b.Stage = StageReady
	}
	gs.notify()
	return nil
}

// defaultCasualties spends hits on battleship damage boxes first, then
// kills cheapest-first. Explicit player picks that name a battleship
// sink it outright; only the default selector uses absorption.
func (gs *GameState) defaultCasualties(territory, attacker string, attacking bool, hits int) []UnitSelection {
	if hits == 0 {
		return []UnitSelection{}
	}
	// Damage absorption is applied directly here; the returned selection
	// covers only actual removals.
	for _, s := range gs.Units[territory] {
		if hits == 0 {
			break
		}
		if s.Type != Battleship || gs.allied(s.Owner, attacker) != attacking {
			continue
		}
		undamaged := s.Quantity - s.Damaged
		soak := min(hits, undamaged)
		s.Damaged += soak
		hits -= soak
	}

	var losses []UnitSelection
	avail := gs.sideCounts(territory, attacker, attacking)
	var order []UnitType
	for t := range avail {
		order = append(order, t)
	}
	for _, t := range cheapestFirst(order) {
		if hits == 0 {
			break
		}
		take := min(hits, avail[t])
		if take > 0 {
			losses = append(losses, UnitSelection{Type: t, Quantity: take})
			hits -= take
		}
	}
	return losses
}

func (gs *GameState) sideCounts(territory, attacker string, attacking bool) map[UnitType]int {
	out := map[UnitType]int{}
	for _, s := range gs.Units[territory] {
		if gs.allied(s.Owner, attacker) != attacking {
			continue
		}
		def, _ := DefOf(s.Type)
		if def.Kind == KindBuilding {
			continue
		}
		out[s.Type] += s.Quantity
	}
	return out
}

// checkCasualties verifies an explicit selection covers the hits with
// units the side actually has.
func (gs *GameState) checkCasualties(territory, attacker string, attacking bool, losses []UnitSelection, hits int) error {
	avail := gs.sideCounts(territory, attacker, attacking)
	total := 0
	for _, sel := range losses {
		if sel.Quantity <= 0 {
			continue
		}
		if avail[sel.Type] < sel.Quantity {
			return ruleErrf(ErrInvalidSelection, "side has only %d %s at %s", avail[sel.Type], sel.Type, territory)
		}
		total += sel.Quantity
	}
	if total != hits {
		return ruleErrf(ErrInvalidSelection, "selected %d casualties for %d hits", total, hits)
	}
	return nil
}

// applyCasualties removes the selected units from one side. Transports
// die with their cargo; carriers with their aircraft.
func (gs *GameState) applyCasualties(territory, attacker string, attacking bool, losses []UnitSelection) {
	for _, sel := range losses {
		remaining := sel.Quantity
		for _, s := range gs.Units[territory] {
			if remaining == 0 {
				break
			}
			if s.Type != sel.Type || gs.allied(s.Owner, attacker) != attacking {
				continue
			}
			take := min(remaining, s.Quantity)
			s.Quantity -= take
			if s.Damaged > take {
				s.Damaged -= take
			} else if s.Damaged > 0 {
				s.Damaged = 0
			}
			remaining -= take
			if s.Quantity == 0 {
				s.Cargo, s.Aircraft = nil, nil
			}
		}
	}
	gs.Units[territory] = pruneStacks(gs.Units[territory])
	if len(gs.Units[territory]) == 0 {
		delete(gs.Units, territory)
	}
}

// Retreat pulls the surviving attackers back to the territories they
// came from, conceding the battle. Only possible between rounds, and
// never for an amphibious assault.
func (gs *GameState) Retreat(player, territory string) error {
	b, err := gs.activeBattle(player, territory)
	if err != nil {
		return err
	}
	if b.Stage != StageReady {
		return ruleErrf(ErrBattleStage, "cannot retreat while the battle is %s", b.Stage)
	}
	if b.Amphibious {
		return ruleErrf(ErrRetreatUnavailable, "amphibious assaults cannot retreat")
	}

	// Send survivors home along their recorded arrivals, capped by what
	// is still alive.
	for _, arr := range gs.Arrivals[territory] {
		survivors := 0
		for _, s := range gs.Units[territory] {
			if s.Type == arr.Type && gs.allied(s.Owner, player) {
				survivors += s.Quantity
			}
		}
		pull := min(arr.Quantity, survivors)
		if pull == 0 {
			continue
		}
		taken := gs.retreatExtract(territory, arr.Type, player, pull)
		gs.Units[arr.From] = placeTaken(gs.Units[arr.From], taken)
	}

	gs.closeBattle(territory)
	gs.logf(player, "retreats from %s", territory)
	gs.notify(CombatResolved{Territory: territory, Attacker: b.Attacker, Defender: b.Defender, Winner: b.Defender, Rounds: b.Round})
	return nil
}

// retreatExtract is extractUnits without the moved-flag filter; units in
// a battle have already moved.
func (gs *GameState) retreatExtract(territory string, t UnitType, player string, qty int) []*UnitStack {
	var taken []*UnitStack
	for _, s := range gs.Units[territory] {
		if qty == 0 {
			break
		}
		if s.Type != t || !gs.allied(s.Owner, player) {
			continue
		}
		take := min(qty, s.Quantity)
		taken = append(taken, &UnitStack{Type: t, Owner: s.Owner, Quantity: take, Moved: true})
		s.Quantity -= take
		qty -= take
	}
	gs.Units[territory] = pruneStacks(gs.Units[territory])
	return taken
}

// FinalizeCombat closes a resolved battle. An attacker victory on land
// captures the territory, with everything that entails: the conquest
// card, capital looting, elimination, and the victory check.
func (gs *GameState) FinalizeCombat(player, territory string) error {
	b, err := gs.activeBattle(player, territory)
	if err != nil {
		return err
	}
	if b.Stage != StageResolved {
		return ruleErrf(ErrBattleStage, "battle at %s is not resolved", territory)
	}

	var events []Event
	if b.AttackerWon && !gs.worldMap.IsWater(territory) {
		events = append(events, gs.captureTerritory(territory, b.Attacker, nil)...)
	}
	winner := b.Defender
	if b.AttackerWon {
		winner = b.Attacker
	}
	gs.closeBattle(territory)
	events = append(events, CombatResolved{Territory: territory, Attacker: b.Attacker, Defender: b.Defender, Winner: winner, Rounds: b.Round})
	gs.notify(events...)
	return nil
}

func (gs *GameState) closeBattle(territory string) {
	delete(gs.Battles, territory)
	delete(gs.Arrivals, territory)
	gs.removeFromCombatQueue(territory)
}

// onConquest handles the side effects of taking a territory: the first
// conquest of a turn draws a card, a captured capital is looted, and an
// owner left with nothing is eliminated. Returns the events to publish.
func (gs *GameState) onConquest(territory, conqueror, prevOwner string) []Event {
	var events []Event

	if !gs.Conquered[conqueror] {
		gs.Conquered[conqueror] = true
		if card, ok := gs.drawCard(); ok {
			p := gs.PlayerByID(conqueror)
			p.RiskCards = append(p.RiskCards, card)
		}
	}

	if capOf := gs.IsCapital(territory); capOf != "" && capOf != conqueror {
		if victim := gs.PlayerByID(capOf); victim != nil && !gs.allied(capOf, conqueror) {
			loot := victim.IPCs
			victim.IPCs = 0
			gs.PlayerByID(conqueror).IPCs += loot
			gs.logf(conqueror, "loots %d IPCs from the fall of %s", loot, territory)
		}
	}

	if prevOwner != "" {
		if p := gs.PlayerByID(prevOwner); p != nil && !p.Eliminated && len(gs.PlayerTerritories(prevOwner)) == 0 {
			p.Eliminated = true
			gs.logf(prevOwner, "has been eliminated")
		}
	}

	gs.checkVictory(conqueror)
	return events
}

// checkVictory ends the game when the configured condition is met.
func (gs *GameState) checkVictory(lastActor string) {
	if gs.Phase == PhaseGameOver {
		return
	}
	switch gs.VictoryMode {
	case VictoryCapitals:
		team := gs.teamOf(lastActor)
		for _, p := range gs.Players {
			holder := gs.Owner(p.Capital)
			if holder == "" || gs.teamOf(holder) != team {
				return
			}
		}
		gs.endGame(gs.winnerLabel(lastActor), "holds every capital")
	case VictoryElimination:
		var alive string
		for _, p := range gs.Players {
			if p.Eliminated {
				continue
			}
			t := gs.teamOf(p.ID)
			if alive == "" {
				alive = t
			} else if alive != t {
				return
			}
		}
		if alive != "" {
			gs.endGame(gs.winnerLabel(lastActor), "last side standing")
		}
	}
}

// teamOf returns the player's team, or the player ID for teamless games.
func (gs *GameState) teamOf(player string) string {
	if p := gs.PlayerByID(player); p != nil && p.TeamID != "" {
		return p.TeamID
	}
	return player
}

func (gs *GameState) winnerLabel(lastActor string) string {
	return gs.teamOf(lastActor)
}
