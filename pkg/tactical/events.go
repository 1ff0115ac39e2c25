package tactical

// Typed engine events. Consumers subscribe to react selectively instead
// of re-rendering on every change; the coarse Subscribe callback on
// GameState remains for consumers that just want "state changed".

// Event is implemented by every engine event type.
type Event interface{ event() }

// PhaseAdvanced fires on every game-phase or turn-phase transition.
type PhaseAdvanced struct {
	Phase  GamePhase
	Turn   TurnPhase
	Player string
	Round  int
}

// UnitsMoved fires after a successful movement command.
type UnitsMoved struct {
	Player string
	From   string
	To     string
	Units  []UnitSelection
}

// TerritoryCaptured fires when ownership flips, by combat or walk-in.
type TerritoryCaptured struct {
	Territory string
	NewOwner  string
	PrevOwner string
}

// CombatResolved fires when a battle finishes or the attacker retreats.
type CombatResolved struct {
	Territory string
	Attacker  string
	Defender  string
	Winner    string // attacker or defender player ID; the defender on retreat
	Rounds    int
}

// UnitMobilized fires for each pending unit placed on the board.
type UnitMobilized struct {
	Player    string
	Type      UnitType
	Territory string
}

// IncomeCollected fires at the end of a player's turn.
type IncomeCollected struct {
	Player string
	Amount int
}

// TechUnlocked fires when a breakthrough is spent on a technology.
type TechUnlocked struct {
	Player string
	Tech   TechID
}

// CardsTraded fires when a Risk-card set is cashed in.
type CardsTraded struct {
	Player string
	Value  int
	SetNum int // global running count of traded sets
}

// GameEnded fires once, when a win condition is detected.
type GameEnded struct {
	Winner string
	Reason string
}

func (PhaseAdvanced) event()     {}
func (UnitsMoved) event()        {}
func (TerritoryCaptured) event() {}
func (CombatResolved) event()    {}
func (UnitMobilized) event()     {}
func (IncomeCollected) event()   {}
func (TechUnlocked) event()      {}
func (CardsTraded) event()       {}
func (GameEnded) event()         {}

// Bus dispatches events synchronously, in subscription order, before the
// originating command returns.
type Bus struct {
	handlers []func(Event)
}

// Subscribe registers a handler for all events.
func (b *Bus) Subscribe(fn func(Event)) {
	b.handlers = append(b.handlers, fn)
}

func (b *Bus) publish(e Event) {
	for _, fn := range b.handlers {
		fn(e)
	}
}
