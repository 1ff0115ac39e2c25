package tactical

import (
	_ "embed"
	"math/rand"
	"sync"

	"gopkg.in/yaml.v3"
)

// FactionDef is one row of the faction setup table.
type FactionDef struct {
	ID           string           `yaml:"id"`
	Name         string           `yaml:"name"`
	Team         string           `yaml:"team"`
	StartingIPCs int              `yaml:"startingIPCs"`
	InitialUnits map[UnitType]int `yaml:"initialUnits"`
}

// Scenario bundles the faction table and game-mode metadata.
type Scenario struct {
	CapitalIncomeBonus int          `yaml:"capitalIncomeBonus"`
	Modes              []string     `yaml:"modes"`
	Factions           []FactionDef `yaml:"factions"`
}

// FactionByID finds a faction definition, or nil.
func (s *Scenario) FactionByID(id string) *FactionDef {
	for i := range s.Factions {
		if s.Factions[i].ID == id {
			return &s.Factions[i]
		}
	}
	return nil
}

//go:embed data/scenario.yaml
var scenarioYAML []byte

var (
	scenarioOnce sync.Once
	scenario     *Scenario
)

// StandardScenario returns the embedded faction setup table.
func StandardScenario() *Scenario {
	scenarioOnce.Do(func() {
		var s Scenario
		if err := yaml.Unmarshal(scenarioYAML, &s); err != nil {
			panic("tactical: embedded scenario is invalid: " + err.Error())
		}
		scenario = &s
	})
	return scenario
}

// VictoryCapitals ends the game when one team holds every capital;
// VictoryElimination when a single team has territories left.
const (
	VictoryCapitals    = "capitals"
	VictoryElimination = "elimination"
)

// placementsPerRound is the setup quota: each placement round places
// min(6, units remaining) before the turn passes on.
const placementsPerRound = 6

// InitGame transitions LOBBY into CAPITAL_PLACEMENT for the given
// factions. The seed drives every die and the card-deck shuffle, so two
// peers initializing with the same arguments produce identical sessions.
func (gs *GameState) InitGame(factionIDs []string, mode string, seed int64) error {
	if gs.Phase != PhaseLobby {
		return ruleErrf(ErrPhaseMismatch, "game already initialized (phase %s)", gs.Phase)
	}
	if len(factionIDs) < 2 || len(factionIDs) > 5 {
		return ruleErrf(ErrInvalidSelection, "need 2-5 factions, got %d", len(factionIDs))
	}
	if mode != VictoryCapitals && mode != VictoryElimination {
		return ruleErrf(ErrInvalidSelection, "unknown victory mode %q", mode)
	}

	sc := StandardScenario()
	seen := map[string]bool{}
	players := make([]*Player, 0, len(factionIDs))
	pool := make(map[string]map[UnitType]int, len(factionIDs))
	for _, id := range factionIDs {
		def := sc.FactionByID(id)
		if def == nil {
			return ruleErrf(ErrUnknownPlayer, "no faction %q in scenario", id)
		}
		if seen[id] {
			return ruleErrf(ErrInvalidSelection, "faction %q listed twice", id)
		}
		seen[id] = true
		players = append(players, &Player{
			ID:     def.ID,
			Name:   def.Name,
			TeamID: def.Team,
			IPCs:   def.StartingIPCs,
		})
		units := make(map[UnitType]int, len(def.InitialUnits))
		for t, n := range def.InitialUnits {
			if _, ok := DefOf(t); !ok {
				// Unknown unit rows degrade by being skipped.
				continue
			}
			units[t] = n
		}
		pool[id] = units
	}

	gs.Players = players
	gs.Seed = seed
	gs.RollCount = 0
	if gs.roller == nil {
		gs.roller = NewRoller(seed)
	}
	gs.VictoryMode = mode
	gs.PlacementPool = pool
	gs.CardDeck = buildCardDeck(gs.worldMap, seed)
	gs.Phase = PhaseCapitalPlacement
	gs.Round = 0
	gs.CurrentPlayerIndex = 0
	gs.logf("", "game initialized with %d factions, %s victory", len(players), mode)
	gs.notify(PhaseAdvanced{Phase: gs.Phase, Player: gs.CurrentPlayer(), Round: gs.Round})
	return nil
}

// buildCardDeck deals one card per land territory, cycling the three
// troop types, plus two wilds, shuffled by the session seed.
func buildCardDeck(m *WorldMap, seed int64) []CardType {
	types := []CardType{CardInfantry, CardArmor, CardArtillery}
	var deck []CardType
	i := 0
	for _, t := range m.Territories {
		if t.IsWater {
			continue
		}
		deck = append(deck, types[i%len(types)])
		i++
	}
	deck = append(deck, CardWild, CardWild)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return deck
}

// PlaceCapital claims an unowned land territory as the player's capital.
// Capitals are immutable for the rest of the session. When every player
// has one, the game moves to UNIT_PLACEMENT.
func (gs *GameState) PlaceCapital(player, territory string) error {
	if gs.Phase != PhaseCapitalPlacement {
		return ruleErrf(ErrPhaseMismatch, "not in capital placement (phase %s)", gs.Phase)
	}
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	t := gs.worldMap.Territories[territory]
	if t == nil {
		return ruleErrf(ErrUnknownTerritory, "no territory %q", territory)
	}
	if t.IsWater {
		return ruleErrf(ErrInvalidSelection, "capital must be on land")
	}
	if ts := gs.Territory[territory]; ts != nil && ts.Owner != "" {
		return ruleErrf(ErrNotOwned, "%s is already claimed by %s", territory, ts.Owner)
	}

	gs.Territory[territory] = &TerritoryState{Owner: player, Capital: player}
	gs.PlayerByID(player).Capital = territory
	gs.logf(player, "placed capital at %s", territory)

	if gs.CurrentPlayerIndex == len(gs.Players)-1 {
		gs.Phase = PhaseUnitPlacement
		gs.CurrentPlayerIndex = 0
		gs.beginPlacementRound()
	} else {
		gs.CurrentPlayerIndex++
	}
	gs.notify(PhaseAdvanced{Phase: gs.Phase, Player: gs.CurrentPlayer(), Round: gs.Round})
	return nil
}

func (gs *GameState) beginPlacementRound() {
	gs.PlacedInRound = 0
	gs.PlacementQuota = min(placementsPerRound, gs.placementRemaining(gs.CurrentPlayer()))
	gs.placementHistory = nil
}

func (gs *GameState) placementRemaining(player string) int {
	n := 0
	for _, qty := range gs.PlacementPool[player] {
		n += qty
	}
	return n
}

// PlaceInitialUnit puts one unit from the player's starting pool onto
// the board. Land and air units go on owned or unclaimed land (claiming
// it); naval units go on sea zones adjacent to owned land.
func (gs *GameState) PlaceInitialUnit(player string, unitType UnitType, territory string) error {
	if gs.Phase != PhaseUnitPlacement {
		return ruleErrf(ErrPhaseMismatch, "not in unit placement (phase %s)", gs.Phase)
	}
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	if gs.PlacedInRound >= gs.PlacementQuota {
		return ruleErrf(ErrPlacementQuota, "placement quota of %d reached; finish the round", gs.PlacementQuota)
	}
	def, ok := DefOf(unitType)
	if !ok {
		return ruleErrf(ErrUnknownUnit, "no unit type %q", unitType)
	}
	if gs.PlacementPool[player][unitType] <= 0 {
		return ruleErrf(ErrInvalidSelection, "no %s left in starting pool", unitType)
	}
	t := gs.worldMap.Territories[territory]
	if t == nil {
		return ruleErrf(ErrUnknownTerritory, "no territory %q", territory)
	}

	rec := placementRecord{
		Player:    player,
		Type:      unitType,
		Territory: territory,
		Before:    cloneStacks(gs.Units[territory]),
	}
	if ts := gs.Territory[territory]; ts != nil {
		copied := *ts
		rec.StateBefore = &copied
	}

	switch def.Kind {
	case KindSea, KindCarrier:
		if !t.IsWater {
			return ruleErrf(ErrInvalidSelection, "%s must start in a sea zone", unitType)
		}
		if !gs.adjacentToOwnedLand(territory, player) {
			return ruleErrf(ErrNotOwned, "%s does not border your territory", territory)
		}
	default:
		if t.IsWater {
			return ruleErrf(ErrInvalidSelection, "%s cannot start at sea", unitType)
		}
		ts := gs.Territory[territory]
		switch {
		case ts == nil || ts.Owner == "":
			gs.setOwner(territory, player)
		case ts.Owner != player:
			return ruleErrf(ErrNotOwned, "%s belongs to %s", territory, ts.Owner)
		}
	}

	gs.Units[territory] = addUnits(gs.Units[territory], unitType, player, 1, false)
	gs.PlacementPool[player][unitType]--
	gs.PlacedInRound++
	gs.placementHistory = append(gs.placementHistory, rec)
	gs.notify(UnitMobilized{Player: player, Type: unitType, Territory: territory})
	return nil
}

func (gs *GameState) adjacentToOwnedLand(seaZone, player string) bool {
	for _, n := range gs.worldMap.Neighbors(seaZone) {
		if !gs.worldMap.IsWater(n) && gs.Owner(n) == player {
			return true
		}
	}
	return false
}

// setOwner flips land ownership, creating the record on first claim.
func (gs *GameState) setOwner(territory, player string) {
	ts := gs.Territory[territory]
	if ts == nil {
		ts = &TerritoryState{}
		gs.Territory[territory] = ts
	}
	ts.Owner = player
}

// FinishPlacementRound hands the placement turn to the next player with
// units remaining. It refuses until the full round quota is placed. When
// every pool is empty the game enters PLAYING at round 1.
func (gs *GameState) FinishPlacementRound(player string) error {
	if gs.Phase != PhaseUnitPlacement {
		return ruleErrf(ErrPhaseMismatch, "not in unit placement (phase %s)", gs.Phase)
	}
	if err := gs.requireTurn(player); err != nil {
		return err
	}
	if gs.PlacedInRound < gs.PlacementQuota {
		return ruleErrf(ErrPlacementQuota, "placed %d of %d units this round", gs.PlacedInRound, gs.PlacementQuota)
	}

	next := -1
	n := len(gs.Players)
	for off := 1; off <= n; off++ {
		cand := (gs.CurrentPlayerIndex + off) % n
		if gs.placementRemaining(gs.Players[cand].ID) > 0 {
			next = cand
			break
		}
	}
	if next == -1 {
		gs.Phase = PhasePlaying
		gs.Turn = TurnDevelopTech
		gs.CurrentPlayerIndex = 0
		gs.Round = 1
		gs.PlacementPool = nil
		gs.clearJournals()
		gs.logf("", "setup complete, round 1 begins")
	} else {
		gs.CurrentPlayerIndex = next
		gs.beginPlacementRound()
	}
	gs.notify(PhaseAdvanced{Phase: gs.Phase, Turn: gs.Turn, Player: gs.CurrentPlayer(), Round: gs.Round})
	return nil
}
