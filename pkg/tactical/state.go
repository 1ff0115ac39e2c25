package tactical

import "fmt"

// TerritoryState is the dynamic per-territory record. Sea zones carry no
// entry; their control is implied by whatever fleets sit in them.
type TerritoryState struct {
	Owner   string `json:"owner,omitempty"`
	Capital string `json:"capital,omitempty"` // player whose capital this is; set once at game start
}

// Player is the dynamic per-faction record.
type Player struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	TeamID        string     `json:"teamId,omitempty"`
	IPCs          int        `json:"ipcs"`
	Capital       string     `json:"capital,omitempty"`
	RiskCards     []CardType `json:"riskCards,omitempty"`
	Techs         []TechID   `json:"techs,omitempty"`
	TechTokens    int        `json:"techTokens,omitempty"`    // purchased, unrolled research dice
	Breakthroughs int        `json:"breakthroughs,omitempty"` // rolled 6s awaiting a tech choice
	Eliminated    bool       `json:"eliminated,omitempty"`
}

// HasTech reports whether the player unlocked the given technology.
func (p *Player) HasTech(t TechID) bool {
	for _, have := range p.Techs {
		if have == t {
			return true
		}
	}
	return false
}

// PendingUnit is a purchased unit awaiting mobilization. Cost records
// what was actually paid so removal refunds exactly that.
type PendingUnit struct {
	Type UnitType `json:"type"`
	Cost int      `json:"cost"`
}

// GameState is the authoritative mutable state of one session. All
// mutation goes through command methods; every successful command
// notifies subscribers before returning. Commands are synchronous and
// the engine is single-threaded by contract.
type GameState struct {
	worldMap    *WorldMap
	roller      Roller
	bus         Bus
	subscribers []func()

	Phase              GamePhase `json:"phase"`
	Turn               TurnPhase `json:"turn"`
	Round              int       `json:"round"`
	CurrentPlayerIndex int       `json:"currentPlayerIndex"`
	VictoryMode        string    `json:"victoryMode"`
	Seed               int64     `json:"seed"`
	RollCount          int       `json:"rollCount"`

	Players   []*Player                  `json:"players"`
	Units     map[string][]*UnitStack    `json:"units"`
	Territory map[string]*TerritoryState `json:"territory"`

	CombatQueue []string             `json:"combatQueue,omitempty"`
	Battles     map[string]*Battle   `json:"battles,omitempty"`
	Amphibious  map[string]bool      `json:"amphibious,omitempty"`
	Arrivals    map[string][]arrival `json:"arrivals,omitempty"`
	Conquered   map[string]bool      `json:"conqueredThisTurn,omitempty"`

	Pending        map[string][]PendingUnit `json:"pendingPurchases,omitempty"`
	CardDeck       []CardType               `json:"cardDeck,omitempty"`
	CardSetsTraded int                      `json:"cardSetsTraded"`

	// Initial placement bookkeeping.
	PlacementPool  map[string]map[UnitType]int `json:"placementPool,omitempty"`
	PlacedInRound  int                         `json:"placedInRound,omitempty"`
	PlacementQuota int                         `json:"placementQuota,omitempty"`

	Winner    string `json:"winner,omitempty"`
	WinReason string `json:"winReason,omitempty"`

	Log []LogEntry `json:"log,omitempty"`

	placementHistory []placementRecord
	moveHistory      []moveRecord
	mobilizeHistory  []mobilizeRecord
}

// LogEntry is one line of the session action log, kept for UIs and
// round-tripped through snapshots.
type LogEntry struct {
	Round   int    `json:"round"`
	Player  string `json:"player,omitempty"`
	Message string `json:"message"`
}

const logDepth = 200

// NewGameState returns an empty LOBBY-phase state bound to a map and
// roller. InitGame brings it to life.
func NewGameState(m *WorldMap, roller Roller) *GameState {
	if m == nil {
		m = StandardMap()
	}
	return &GameState{
		worldMap:   m,
		roller:     roller,
		Phase:      PhaseLobby,
		Units:      make(map[string][]*UnitStack),
		Territory:  make(map[string]*TerritoryState),
		Battles:    make(map[string]*Battle),
		Amphibious: make(map[string]bool),
		Arrivals:   make(map[string][]arrival),
		Conquered:  make(map[string]bool),
		Pending:    make(map[string][]PendingUnit),
	}
}

// Map exposes the static world data the state was built on.
func (gs *GameState) Map() *WorldMap { return gs.worldMap }

// Events returns the typed event bus.
func (gs *GameState) Events() *Bus { return &gs.bus }

// Subscribe registers a coarse state-changed callback, invoked after
// every successful mutation.
func (gs *GameState) Subscribe(fn func()) {
	gs.subscribers = append(gs.subscribers, fn)
}

// notify publishes typed events and then fires the coarse callbacks.
// Called exactly once per successful command.
func (gs *GameState) notify(events ...Event) {
	for _, e := range events {
		gs.bus.publish(e)
	}
	for _, fn := range gs.subscribers {
		fn()
	}
}

func (gs *GameState) logf(player, format string, args ...any) {
	gs.Log = append(gs.Log, LogEntry{Round: gs.Round, Player: player, Message: fmt.Sprintf(format, args...)})
	if len(gs.Log) > logDepth {
		gs.Log = gs.Log[len(gs.Log)-logDepth:]
	}
}

// roll draws one die and counts it, so a snapshot can replay the roller
// to the same position.
func (gs *GameState) roll() int {
	gs.RollCount++
	return gs.roller.Roll()
}

func (gs *GameState) current() *Player {
	return gs.Players[gs.CurrentPlayerIndex]
}

// PlayerByID finds a player, or nil.
func (gs *GameState) PlayerByID(id string) *Player {
	for _, p := range gs.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the ID of the player whose turn it is.
func (gs *GameState) CurrentPlayer() string {
	if len(gs.Players) == 0 {
		return ""
	}
	return gs.current().ID
}

// requireTurn rejects commands issued by anyone but the current player.
func (gs *GameState) requireTurn(player string) error {
	if gs.PlayerByID(player) == nil {
		return ruleErrf(ErrUnknownPlayer, "no player %q", player)
	}
	if gs.CurrentPlayer() != player {
		return ruleErrf(ErrNotYourTurn, "it is %s's turn", gs.CurrentPlayer())
	}
	return nil
}

// allied reports whether two players are on the same side. A player is
// always allied with themselves.
func (gs *GameState) allied(a, b string) bool {
	if a == b {
		return true
	}
	pa, pb := gs.PlayerByID(a), gs.PlayerByID(b)
	return pa != nil && pb != nil && pa.TeamID != "" && pa.TeamID == pb.TeamID
}

// Query API. Accessors return copies where mutation could bypass the
// command layer.

// Owner returns the owning player of a land territory, or "".
func (gs *GameState) Owner(territory string) string {
	if ts := gs.Territory[territory]; ts != nil {
		return ts.Owner
	}
	return ""
}

// IsCapital returns the player whose capital the territory is, or "".
func (gs *GameState) IsCapital(territory string) string {
	if ts := gs.Territory[territory]; ts != nil {
		return ts.Capital
	}
	return ""
}

// UnitsAt returns a deep copy of the stacks in a territory.
func (gs *GameState) UnitsAt(territory string) []*UnitStack {
	return cloneStacks(gs.Units[territory])
}

// IPCs returns a player's balance, or 0 for unknown players.
func (gs *GameState) IPCs(player string) int {
	if p := gs.PlayerByID(player); p != nil {
		return p.IPCs
	}
	return 0
}

// HasTech reports whether a player unlocked a technology.
func (gs *GameState) HasTech(player string, tech TechID) bool {
	p := gs.PlayerByID(player)
	return p != nil && p.HasTech(tech)
}

// PlayerTerritories lists the land territories a player owns.
func (gs *GameState) PlayerTerritories(player string) []string {
	var out []string
	for name, ts := range gs.Territory {
		if ts.Owner == player {
			out = append(out, name)
		}
	}
	return out
}

// PendingPurchases returns a copy of a player's purchase cart.
func (gs *GameState) PendingPurchases(player string) []PendingUnit {
	src := gs.Pending[player]
	out := make([]PendingUnit, len(src))
	copy(out, src)
	return out
}

// CombatLog returns the action log (most recent last).
func (gs *GameState) CombatLog() []LogEntry {
	out := make([]LogEntry, len(gs.Log))
	copy(out, gs.Log)
	return out
}

// clearJournals drops all undo history; called on phase transitions.
func (gs *GameState) clearJournals() {
	gs.placementHistory = nil
	gs.moveHistory = nil
	gs.mobilizeHistory = nil
}

// endGame records the win and freezes the machine.
func (gs *GameState) endGame(winner, reason string) {
	if gs.Phase == PhaseGameOver {
		return
	}
	gs.Phase = PhaseGameOver
	gs.Winner = winner
	gs.WinReason = reason
	gs.logf(winner, "wins: %s", reason)
	gs.bus.publish(GameEnded{Winner: winner, Reason: reason})
}
