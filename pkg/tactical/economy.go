package tactical

// TechID names a researchable technology.
type TechID string

const (
	TechLongRangeAircraft    TechID = "longRangeAircraft"    // +2 movement on all aircraft
	TechHeavyBombers         TechID = "heavyBombers"         // bombers roll two attack dice
	TechSuperSubmarines      TechID = "superSubmarines"      // submarines attack at 3
	TechJetFighters          TechID = "jetFighters"          // fighters defend at 5
	TechIndustrialProduction TechID = "industrialProduction" // land units cost 1 less
)

// AllTechs lists every researchable technology.
var AllTechs = []TechID{
	TechLongRangeAircraft,
	TechHeavyBombers,
	TechSuperSubmarines,
	TechJetFighters,
	TechIndustrialProduction,
}

func validTech(t TechID) bool {
	for _, have := range AllTechs {
		if have == t {
			return true
		}
	}
	return false
}

// techDieCost is the price of one research die.
const techDieCost = 5

// Mobilization capacity: the base allowance plus a bonus per factory the
// player owns.
const (
	baseMobilization       = 20
	factoryMobilizationAdd = 5
)

// UnitCost returns what a unit costs the player right now, after
// technology discounts.
func (gs *GameState) UnitCost(player string, t UnitType) (int, error) {
	def, ok := DefOf(t)
	if !ok {
		return 0, ruleErrf(ErrUnknownUnit, "no unit type %q", t)
	}
	cost := def.Cost
	if def.Kind == KindLand && gs.HasTech(player, TechIndustrialProduction) {
		cost--
	}
	return cost, nil
}

// MobilizationCapacity is the most units a player's cart may hold:
// 20, plus 5 per factory they own.
func (gs *GameState) MobilizationCapacity(player string) int {
	factories := 0
	for territory, ts := range gs.Territory {
		if ts.Owner != player {
			continue
		}
		for _, s := range gs.Units[territory] {
			if s.Type == Factory && s.Owner == player {
				factories += s.Quantity
			}
		}
	}
	return baseMobilization + factories*factoryMobilizationAdd
}

// AddToPendingPurchases buys units into the mobilization cart during
// PURCHASE. IPCs are spent immediately; the paid price is recorded so a
// later removal refunds exactly it even if technology changes.
func (gs *GameState) AddToPendingPurchases(player string, t UnitType, qty int) error {
	if err := gs.requirePurchasePhase(player); err != nil {
		return err
	}
	if qty <= 0 {
		return ruleErrf(ErrInvalidSelection, "quantity must be positive")
	}
	cost, err := gs.UnitCost(player, t)
	if err != nil {
		return err
	}
	p := gs.PlayerByID(player)
	if total := cost * qty; p.IPCs < total {
		return ruleErrf(ErrInsufficientIPCs, "%s costs %d, you have %d", t, total, p.IPCs)
	}
	if cap := gs.MobilizationCapacity(player); len(gs.Pending[player])+qty > cap {
		return ruleErrf(ErrCapacityExceeded, "mobilization capacity is %d units", cap)
	}

	p.IPCs -= cost * qty
	for i := 0; i < qty; i++ {
		gs.Pending[player] = append(gs.Pending[player], PendingUnit{Type: t, Cost: cost})
	}
	gs.notify()
	return nil
}

func (gs *GameState) requirePurchasePhase(player string) error {
	if gs.Phase != PhasePlaying || gs.Turn != TurnPurchase {
		return ruleErrf(ErrPhaseMismatch, "purchasing is only possible during the purchase phase")
	}
	return gs.requireTurn(player)
}

// RemoveFromPendingPurchases refunds and drops one cart entry by index.
func (gs *GameState) RemoveFromPendingPurchases(player string, index int) error {
	if err := gs.requirePurchasePhase(player); err != nil {
		return err
	}
	cart := gs.Pending[player]
	if index < 0 || index >= len(cart) {
		return ruleErrf(ErrInvalidSelection, "no cart entry %d", index)
	}
	gs.PlayerByID(player).IPCs += cart[index].Cost
	gs.Pending[player] = append(cart[:index], cart[index+1:]...)
	gs.notify()
	return nil
}

// ClearPendingPurchases refunds the whole cart.
func (gs *GameState) ClearPendingPurchases(player string) error {
	if err := gs.requirePurchasePhase(player); err != nil {
		return err
	}
	refund := 0
	for _, u := range gs.Pending[player] {
		refund += u.Cost
	}
	gs.PlayerByID(player).IPCs += refund
	delete(gs.Pending, player)
	gs.notify()
	return nil
}

// MobilizeUnit places one purchased unit on the board during MOBILIZE.
// Land and air units deploy to the player's capital or an owned factory
// territory; naval units to a sea zone bordering one. A new factory may
// rise on any owned territory that has none.
func (gs *GameState) MobilizeUnit(player string, index int, territory string) error {
	if gs.Phase != PhasePlaying || gs.Turn != TurnMobilize {
		return ruleErrf(ErrPhaseMismatch, "mobilization is only possible during the mobilize phase")
	}
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	cart := gs.Pending[player]
	if index < 0 || index >= len(cart) {
		return ruleErrf(ErrInvalidSelection, "no cart entry %d", index)
	}
	unit := cart[index]
	def, _ := DefOf(unit.Type)
	t := gs.worldMap.Territories[territory]
	if t == nil {
		return ruleErrf(ErrUnknownTerritory, "no territory %q", territory)
	}

	switch def.Kind {
	case KindSea, KindCarrier:
		if !t.IsWater {
			return ruleErrf(ErrInvalidSelection, "%s deploys to a sea zone", unit.Type)
		}
		if !gs.adjacentToMobilizationSite(territory, player) {
			return ruleErrf(ErrNotOwned, "%s does not border a territory you can mobilize at", territory)
		}
	default:
		if t.IsWater {
			return ruleErrf(ErrInvalidSelection, "%s deploys to land", unit.Type)
		}
		if gs.Owner(territory) != player {
			return ruleErrf(ErrNotOwned, "you do not own %s", territory)
		}
		if unit.Type == Factory {
			if countUnitsOfType(gs.Units[territory], Factory) > 0 {
				return ruleErrf(ErrInvalidSelection, "%s already has a factory", territory)
			}
		} else if !gs.mobilizationSite(territory, player) {
			return ruleErrf(ErrInvalidSelection, "%s has no factory or capital to mobilize at", territory)
		}
	}

	rec := mobilizeRecord{
		Player:    player,
		Index:     index,
		Unit:      unit,
		Territory: territory,
		Before:    cloneStacks(gs.Units[territory]),
	}
	gs.Pending[player] = append(cart[:index], cart[index+1:]...)
	gs.Units[territory] = addUnits(gs.Units[territory], unit.Type, player, 1, false)
	gs.mobilizeHistory = pushBounded(gs.mobilizeHistory, rec)
	gs.logf(player, "mobilizes %s at %s", unit.Type, territory)
	gs.notify(UnitMobilized{Player: player, Type: unit.Type, Territory: territory})
	return nil
}

// mobilizationSite reports whether new units may appear in a land
// territory: the player's capital, or an owned territory with a factory.
func (gs *GameState) mobilizationSite(territory, player string) bool {
	if gs.Owner(territory) != player {
		return false
	}
	if p := gs.PlayerByID(player); p != nil && p.Capital == territory {
		return true
	}
	return countUnitsOfType(gs.Units[territory], Factory) > 0
}

// adjacentToMobilizationSite reports whether a sea zone borders land the
// player could mobilize at.
func (gs *GameState) adjacentToMobilizationSite(seaZone, player string) bool {
	for _, n := range gs.worldMap.Neighbors(seaZone) {
		if !gs.worldMap.IsWater(n) && gs.mobilizationSite(n, player) {
			return true
		}
	}
	return false
}

func countUnitsOfType(stacks []*UnitStack, t UnitType) int {
	n := 0
	for _, s := range stacks {
		if s.Type == t {
			n += s.Quantity
		}
	}
	return n
}

// PurchaseTechDice buys research dice during DEVELOP_TECH at 5 IPCs
// apiece. Dice are rolled separately so the player can stop buying
// first.
func (gs *GameState) PurchaseTechDice(player string, count int) error {
	if gs.Phase != PhasePlaying || gs.Turn != TurnDevelopTech {
		return ruleErrf(ErrPhaseMismatch, "research happens during the develop-tech phase")
	}
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	if count <= 0 {
		return ruleErrf(ErrInvalidSelection, "dice count must be positive")
	}
	p := gs.PlayerByID(player)
	if total := count * techDieCost; p.IPCs < total {
		return ruleErrf(ErrInsufficientIPCs, "%d research dice cost %d, you have %d", count, total, p.IPCs)
	}
	p.IPCs -= count * techDieCost
	p.TechTokens += count
	gs.notify()
	return nil
}

// RollTechDice rolls every purchased research die. Each 6 banks a
// breakthrough the player converts with UnlockTech. Dice never carry
// over; misses are simply lost.
func (gs *GameState) RollTechDice(player string) (int, error) {
	if gs.Phase != PhasePlaying || gs.Turn != TurnDevelopTech {
		return 0, ruleErrf(ErrPhaseMismatch, "research happens during the develop-tech phase")
	}
	if err := gs.requireTurn(player); err != nil {
		return 0, err
	}
	p := gs.PlayerByID(player)
	if p.TechTokens == 0 {
		return 0, ruleErrf(ErrInvalidSelection, "no research dice to roll")
	}
	sixes := 0
	for i := 0; i < p.TechTokens; i++ {
		if gs.roll() == 6 {
			sixes++
		}
	}
	gs.logf(player, "rolls %d research dice, %d breakthroughs", p.TechTokens, sixes)
	p.TechTokens = 0
	p.Breakthroughs += sixes
	gs.notify()
	return sixes, nil
}

// UnlockTech spends one banked breakthrough on a technology.
func (gs *GameState) UnlockTech(player string, tech TechID) error {
	if gs.Phase != PhasePlaying || gs.Turn != TurnDevelopTech {
		return ruleErrf(ErrPhaseMismatch, "research happens during the develop-tech phase")
	}
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	if !validTech(tech) {
		return ruleErrf(ErrInvalidSelection, "no technology %q", tech)
	}
	p := gs.PlayerByID(player)
	if p.Breakthroughs == 0 {
		return ruleErrf(ErrInvalidSelection, "no breakthroughs to spend")
	}
	if p.HasTech(tech) {
		return ruleErrf(ErrInvalidSelection, "%s is already unlocked", tech)
	}
	p.Breakthroughs--
	p.Techs = append(p.Techs, tech)
	gs.logf(player, "unlocks %s", tech)
	gs.notify(TechUnlocked{Player: player, Tech: tech})
	return nil
}

// collectIncome pays a player's turn income: territory production, full
// continent bonuses, and the capital bonus. A player whose capital is in
// enemy hands collects nothing.
func (gs *GameState) collectIncome(p *Player) int {
	if p.Capital != "" && gs.Owner(p.Capital) != p.ID {
		gs.logf(p.ID, "collects no income while %s is occupied", p.Capital)
		return 0
	}

	income := 0
	for name, ts := range gs.Territory {
		if ts.Owner != p.ID {
			continue
		}
		if t := gs.worldMap.Territories[name]; t != nil {
			income += t.Production
		}
	}
	for _, c := range gs.worldMap.Continents {
		owned := true
		for _, member := range c.Members {
			if gs.Owner(member) != p.ID {
				owned = false
				break
			}
		}
		if owned {
			income += c.Bonus
		}
	}
	if p.Capital != "" {
		income += StandardScenario().CapitalIncomeBonus
	}
	p.IPCs += income
	gs.logf(p.ID, "collects %d IPCs", income)
	return income
}
