package tactical

// GamePhase is the coarse lifecycle of a session.
type GamePhase string

const (
	PhaseLobby            GamePhase = "LOBBY"
	PhaseCapitalPlacement GamePhase = "CAPITAL_PLACEMENT"
	PhaseUnitPlacement    GamePhase = "UNIT_PLACEMENT"
	PhasePlaying          GamePhase = "PLAYING"
	PhaseGameOver         GamePhase = "GAME_OVER"
)

// TurnPhase is the per-player cycle nested inside PLAYING.
type TurnPhase string

const (
	TurnDevelopTech   TurnPhase = "DEVELOP_TECH"
	TurnPurchase      TurnPhase = "PURCHASE"
	TurnCombatMove    TurnPhase = "COMBAT_MOVE"
	TurnCombat        TurnPhase = "COMBAT"
	TurnNonCombatMove TurnPhase = "NON_COMBAT_MOVE"
	TurnMobilize      TurnPhase = "MOBILIZE"
	TurnCollectIncome TurnPhase = "COLLECT_INCOME"
)

var turnPhaseOrder = []TurnPhase{
	TurnDevelopTech,
	TurnPurchase,
	TurnCombatMove,
	TurnCombat,
	TurnNonCombatMove,
	TurnMobilize,
	TurnCollectIncome,
}

// NextPhase advances the turn-phase cycle for the current player.
// Advancing out of MOBILIZE passes through COLLECT_INCOME (crediting the
// player's income) and lands on the next player's DEVELOP_TECH, wrapping
// the round counter when the player order wraps.
//
// The phase may not advance past COMBAT while battles remain queued.
func (gs *GameState) NextPhase() error {
	switch gs.Phase {
	case PhaseGameOver:
		return ruleErrf(ErrGameOver, "game is over")
	case PhasePlaying:
		// fall through
	default:
		return ruleErrf(ErrPhaseMismatch, "cannot advance turn phase during %s", gs.Phase)
	}
	if gs.Turn == TurnCombat && len(gs.CombatQueue) > 0 {
		return ruleErrf(ErrCombatPending, "%d battles unresolved", len(gs.CombatQueue))
	}

	// Undo windows close when the phase that produced them ends.
	gs.clearJournals()

	switch gs.Turn {
	case TurnMobilize:
		gs.Turn = TurnCollectIncome
		ending := gs.current()
		income := gs.collectIncome(ending)
		gs.advancePlayer()
		gs.notify(
			IncomeCollected{Player: ending.ID, Amount: income},
			PhaseAdvanced{Phase: gs.Phase, Turn: gs.Turn, Player: gs.current().ID, Round: gs.Round},
		)
		return nil
	case TurnCombat:
		gs.Amphibious = make(map[string]bool)
		gs.Turn = TurnNonCombatMove
		gs.resetMovedFlags()
	case TurnCombatMove:
		gs.Turn = TurnCombat
	default:
		for i, p := range turnPhaseOrder {
			if p == gs.Turn {
				gs.Turn = turnPhaseOrder[(i+1)%len(turnPhaseOrder)]
				break
			}
		}
		if gs.Turn == TurnCombatMove {
			gs.resetMovedFlags()
		}
	}

	gs.notify(PhaseAdvanced{Phase: gs.Phase, Turn: gs.Turn, Player: gs.current().ID, Round: gs.Round})
	return nil
}

// advancePlayer moves to the next non-eliminated player's DEVELOP_TECH,
// incrementing the round on wraparound.
func (gs *GameState) advancePlayer() {
	n := len(gs.Players)
	for range n {
		gs.CurrentPlayerIndex++
		if gs.CurrentPlayerIndex >= n {
			gs.CurrentPlayerIndex = 0
			gs.Round++
		}
		if !gs.Players[gs.CurrentPlayerIndex].Eliminated {
			break
		}
	}
	gs.Turn = TurnDevelopTech
	// A fresh turn gets a fresh conquest-card entitlement.
	delete(gs.Conquered, gs.current().ID)
	gs.resetMovedFlags()
}

func (gs *GameState) resetMovedFlags() {
	for _, stacks := range gs.Units {
		for _, s := range stacks {
			s.Moved = false
			for i := range s.Cargo {
				s.Cargo[i].Moved = false
			}
			for i := range s.Aircraft {
				s.Aircraft[i].Moved = false
			}
		}
	}
	// Normalize: stacks that differed only by the moved flag can merge now.
	for t, stacks := range gs.Units {
		gs.Units[t] = mergePlainStacks(stacks)
	}
}

// mergePlainStacks combines stacks of equal type/owner/moved that carry
// no cargo, deck, or damage state.
func mergePlainStacks(stacks []*UnitStack) []*UnitStack {
	var out []*UnitStack
	for _, s := range stacks {
		if len(s.Cargo) > 0 || len(s.Aircraft) > 0 || s.Damaged > 0 {
			out = append(out, s)
			continue
		}
		merged := false
		for _, o := range out {
			if o.Type == s.Type && o.Owner == s.Owner && o.Moved == s.Moved &&
				len(o.Cargo) == 0 && len(o.Aircraft) == 0 && o.Damaged == 0 {
				o.Quantity += s.Quantity
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, s)
		}
	}
	return out
}
