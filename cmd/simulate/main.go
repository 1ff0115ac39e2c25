// Command simulate runs headless self-play games against the rules
// engine. Every command goes through the same public API a client uses,
// so a long run doubles as a soak test for the phase machine, combat
// resolution, and the economy.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/04jhbickford/tactical-risk/pkg/tactical"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		numGames  int
		workers   int
		factions  int
		mode      string
		maxRounds int
		seed      int64
		jsonOut   bool
	)

	flag.IntVar(&numGames, "n", 1, "Number of games to run")
	flag.IntVar(&workers, "workers", 1, "Concurrency (parallel games)")
	flag.IntVar(&factions, "factions", 5, "Number of factions (2-5)")
	flag.StringVar(&mode, "mode", tactical.VictoryCapitals, "Victory mode (capitals or elimination)")
	flag.IntVar(&maxRounds, "max-rounds", 50, "Max rounds before a game counts as a draw")
	flag.Int64Var(&seed, "seed", 0, "Base seed (0 = time-derived)")
	flag.BoolVar(&jsonOut, "json", false, "Output results as JSON")
	flag.Parse()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	results := make([]*gameResult, numGames)
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)
	errCount := 0

	for i := 0; i < numGames; i++ {
		wg.Add(1)
		sem <- struct{}{}

		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := runGame(seed+int64(idx), factions, mode, maxRounds)
			if err != nil {
				log.Error().Err(err).Int("game", idx+1).Msg("Game failed")
				mu.Lock()
				errCount++
				mu.Unlock()
				return
			}

			mu.Lock()
			results[idx] = result
			mu.Unlock()

			log.Info().Int("game", idx+1).Str("winner", result.Winner).Int("rounds", result.Rounds).Msg("Game completed")
		}(i)
	}

	wg.Wait()

	if jsonOut {
		printJSON(results, numGames, errCount)
	} else {
		printSummary(results, maxRounds, errCount)
	}
}

type gameResult struct {
	Seed      int64  `json:"seed"`
	Winner    string `json:"winner"` // team label, "" for a draw
	WinReason string `json:"winReason,omitempty"`
	Rounds    int    `json:"rounds"`
	Rolls     int    `json:"rolls"`
	Captures  int    `json:"captures"`
}

// runGame plays one full game with a uniformly random (but rule-legal)
// policy for every faction.
func runGame(seed int64, factions int, mode string, maxRounds int) (*gameResult, error) {
	sc := tactical.StandardScenario()
	if factions < 2 || factions > len(sc.Factions) {
		return nil, fmt.Errorf("faction count %d out of range", factions)
	}
	ids := make([]string, 0, factions)
	for _, f := range sc.Factions[:factions] {
		ids = append(ids, f.ID)
	}

	gs := tactical.NewGameState(nil, tactical.NewRoller(seed))
	if err := gs.InitGame(ids, mode, seed); err != nil {
		return nil, err
	}
	captures := 0
	gs.Events().Subscribe(func(e tactical.Event) {
		if _, ok := e.(tactical.TerritoryCaptured); ok {
			captures++
		}
	})
	rng := rand.New(rand.NewSource(seed))

	if err := playSetup(gs, rng); err != nil {
		return nil, fmt.Errorf("setup: %w", err)
	}
	for gs.Phase == tactical.PhasePlaying && gs.Round <= maxRounds {
		if err := playTurnPhase(gs, rng); err != nil {
			return nil, fmt.Errorf("round %d, %s %s: %w", gs.Round, gs.CurrentPlayer(), gs.Turn, err)
		}
	}

	return &gameResult{
		Seed:      seed,
		Winner:    gs.Winner,
		WinReason: gs.WinReason,
		Rounds:    gs.Round,
		Rolls:     gs.RollCount,
		Captures:  captures,
	}, nil
}

// playSetup drives capital and initial unit placement to completion.
func playSetup(gs *tactical.GameState, rng *rand.Rand) error {
	for gs.Phase == tactical.PhaseCapitalPlacement {
		player := gs.CurrentPlayer()
		candidates := unownedLand(gs)
		if len(candidates) == 0 {
			return fmt.Errorf("no land left for %s's capital", player)
		}
		if err := gs.PlaceCapital(player, candidates[rng.Intn(len(candidates))]); err != nil {
			return err
		}
	}

	for gs.Phase == tactical.PhaseUnitPlacement {
		player := gs.CurrentPlayer()
		for gs.PlacedInRound < gs.PlacementQuota {
			if err := placeOneUnit(gs, rng, player); err != nil {
				return err
			}
		}
		if err := gs.FinishPlacementRound(player); err != nil {
			return err
		}
	}
	return nil
}

func placeOneUnit(gs *tactical.GameState, rng *rand.Rand, player string) error {
	var types []tactical.UnitType
	for t, qty := range gs.PlacementPool[player] {
		if qty > 0 {
			types = append(types, t)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	if len(types) == 0 {
		return fmt.Errorf("quota open but pool empty for %s", player)
	}
	unitType := types[rng.Intn(len(types))]

	def, _ := tactical.DefOf(unitType)
	var candidates []string
	if def.Kind == tactical.KindSea || def.Kind == tactical.KindCarrier {
		candidates = ownedCoastalSeaZones(gs, player)
	} else {
		candidates = append(gs.PlayerTerritories(player), unownedLand(gs)...)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("nowhere to place %s for %s", unitType, player)
	}
	return gs.PlaceInitialUnit(player, unitType, candidates[rng.Intn(len(candidates))])
}

// playTurnPhase makes this phase's random decisions and advances.
func playTurnPhase(gs *tactical.GameState, rng *rand.Rand) error {
	player := gs.CurrentPlayer()

	switch gs.Turn {
	case tactical.TurnPurchase:
		buyUnits(gs, rng, player)
	case tactical.TurnCombatMove:
		launchAttacks(gs, rng, player)
	case tactical.TurnCombat:
		if err := resolveBattles(gs, player); err != nil {
			return err
		}
	case tactical.TurnMobilize:
		deployPurchases(gs, rng, player)
	}
	return gs.NextPhase()
}

// buyUnits spends most of the player's income on ground forces.
func buyUnits(gs *tactical.GameState, rng *rand.Rand, player string) {
	options := []tactical.UnitType{tactical.Infantry, tactical.Infantry, tactical.Artillery, tactical.Armor}
	for i := 0; i < 40; i++ {
		t := options[rng.Intn(len(options))]
		if err := gs.AddToPendingPurchases(player, t, 1); err != nil {
			return
		}
	}
}

// launchAttacks moves ground forces into a few adjacent enemy territories.
func launchAttacks(gs *tactical.GameState, rng *rand.Rand, player string) {
	attacks := 0
	for _, from := range shuffled(gs.PlayerTerritories(player), rng) {
		if attacks >= 3 {
			return
		}
		selections := groundForce(gs, from, player)
		if len(selections) == 0 {
			continue
		}
		for _, to := range shuffled(gs.Map().Neighbors(from), rng) {
			if gs.Map().IsWater(to) || !isEnemyLand(gs, to, player) {
				continue
			}
			if err := gs.MoveUnits(player, from, to, selections, tactical.MoveOptions{}); err == nil {
				attacks++
			}
			break
		}
	}
}

// resolveBattles plays every queued battle to the end, retreating from
// grinds that outlast a reasonable number of rounds.
func resolveBattles(gs *tactical.GameState, player string) error {
	const maxBattleRounds = 20

	queue := append([]string(nil), gs.CombatQueue...)
	for _, territory := range queue {
		if err := gs.StartCombat(player, territory); err != nil {
			return err
		}
		for {
			b := gs.Battles[territory]
			if b == nil {
				break
			}
			switch b.Stage {
			case tactical.StageReady:
				if b.Round >= maxBattleRounds && !b.Amphibious {
					if err := gs.Retreat(player, territory); err != nil {
						return err
					}
					continue
				}
				if err := gs.RollCombatRound(player, territory); err != nil {
					return err
				}
			case tactical.StageSelectCasualties:
				if err := gs.ConfirmCasualties(player, territory, nil, nil); err != nil {
					return err
				}
			case tactical.StageResolved:
				if err := gs.FinalizeCombat(player, territory); err != nil {
					return err
				}
			default:
				return fmt.Errorf("battle at %s stuck in stage %s", territory, b.Stage)
			}
			if gs.Phase == tactical.PhaseGameOver {
				return nil
			}
		}
	}
	return nil
}

// deployPurchases mobilizes the cart onto the player's deployment
// sites. Anything that cannot legally deploy stays in the cart.
func deployPurchases(gs *tactical.GameState, rng *rand.Rand, player string) {
	sites := mobilizationSites(gs, player)
	if len(sites) == 0 {
		return
	}
	stuck := 0
	for len(gs.PendingPurchases(player)) > stuck {
		territory := sites[rng.Intn(len(sites))]
		if err := gs.MobilizeUnit(player, stuck, territory); err != nil {
			stuck++
		}
	}
}

// --- board queries ---

func unownedLand(gs *tactical.GameState) []string {
	var out []string
	for name := range gs.Map().Territories {
		if !gs.Map().IsWater(name) && gs.Owner(name) == "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// mobilizationSites lists where new units may legally appear: the
// player's capital plus every owned territory with a factory.
func mobilizationSites(gs *tactical.GameState, player string) []string {
	capital := ""
	if p := gs.PlayerByID(player); p != nil {
		capital = p.Capital
	}
	var out []string
	for _, territory := range gs.PlayerTerritories(player) {
		if territory == capital {
			out = append(out, territory)
			continue
		}
		for _, s := range gs.UnitsAt(territory) {
			if s.Type == tactical.Factory && s.Owner == player {
				out = append(out, territory)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

func ownedCoastalSeaZones(gs *tactical.GameState, player string) []string {
	seen := map[string]bool{}
	var out []string
	for _, land := range gs.PlayerTerritories(player) {
		for _, n := range gs.Map().Neighbors(land) {
			if gs.Map().IsWater(n) && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	sort.Strings(out)
	return out
}

func isEnemyLand(gs *tactical.GameState, territory, player string) bool {
	owner := gs.Owner(territory)
	if owner == "" || owner == player {
		return false
	}
	p, o := gs.PlayerByID(player), gs.PlayerByID(owner)
	if p == nil || o == nil {
		return false
	}
	return p.TeamID == "" || p.TeamID != o.TeamID
}

// groundForce selects every movable ground unit in a territory, leaving
// one infantry behind as a garrison.
func groundForce(gs *tactical.GameState, territory, player string) []tactical.UnitSelection {
	counts := map[tactical.UnitType]int{}
	for _, s := range gs.UnitsAt(territory) {
		if s.Owner != player || s.Moved {
			continue
		}
		switch s.Type {
		case tactical.Infantry, tactical.Artillery, tactical.Armor:
			counts[s.Type] += s.Quantity
		}
	}
	if counts[tactical.Infantry] > 0 {
		counts[tactical.Infantry]--
	}
	var out []tactical.UnitSelection
	for _, t := range []tactical.UnitType{tactical.Infantry, tactical.Artillery, tactical.Armor} {
		if counts[t] > 0 {
			out = append(out, tactical.UnitSelection{Type: t, Quantity: counts[t]})
		}
	}
	return out
}

func shuffled(items []string, rng *rand.Rand) []string {
	out := append([]string(nil), items...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// --- reporting ---

func printSummary(results []*gameResult, maxRounds, errCount int) {
	type stats struct {
		wins   int
		rounds int
	}
	byWinner := make(map[string]*stats)
	completed, draws := 0, 0

	for _, r := range results {
		if r == nil {
			continue
		}
		completed++
		if r.Winner == "" {
			draws++
			continue
		}
		s := byWinner[r.Winner]
		if s == nil {
			s = &stats{}
			byWinner[r.Winner] = s
		}
		s.wins++
		s.rounds += r.Rounds
	}

	fmt.Printf("\nResults (%d games, max %d rounds):\n", completed, maxRounds)
	if errCount > 0 {
		fmt.Printf("  (%d games failed)\n", errCount)
	}

	var winners []string
	for w := range byWinner {
		winners = append(winners, w)
	}
	sort.Strings(winners)
	for _, w := range winners {
		s := byWinner[w]
		fmt.Printf("  %-12s %d wins -- avg rounds: %.1f\n", w, s.wins, float64(s.rounds)/float64(s.wins))
	}
	if draws > 0 {
		fmt.Printf("  %-12s %d\n", "draws", draws)
	}
}

func printJSON(results []*gameResult, total, errCount int) {
	out := struct {
		Total   int           `json:"total"`
		Errors  int           `json:"errors"`
		Results []*gameResult `json:"results"`
	}{
		Total:   total,
		Errors:  errCount,
		Results: results,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
