package tactical

import "testing"

func TestTurnPhaseCycle(t *testing.T) {
	gs := newTestGame(nil)
	gs.Turn = TurnDevelopTech

	want := []TurnPhase{TurnPurchase, TurnCombatMove, TurnCombat, TurnNonCombatMove, TurnMobilize}
	for _, phase := range want {
		if err := gs.NextPhase(); err != nil {
			t.Fatalf("NextPhase to %s: %v", phase, err)
		}
		if gs.Turn != phase {
			t.Fatalf("turn = %s, want %s", gs.Turn, phase)
		}
		if gs.CurrentPlayer() != "red" {
			t.Fatalf("player changed mid-turn: %s", gs.CurrentPlayer())
		}
	}

	// Leaving MOBILIZE collects income and hands over to blue.
	before := gs.IPCs("red")
	if err := gs.NextPhase(); err != nil {
		t.Fatalf("NextPhase out of mobilize: %v", err)
	}
	if gs.CurrentPlayer() != "blue" || gs.Turn != TurnDevelopTech {
		t.Fatalf("got %s/%s, want blue/DEVELOP_TECH", gs.CurrentPlayer(), gs.Turn)
	}
	// red owns only alpha (production 2) plus the capital bonus.
	if got := gs.IPCs("red") - before; got != 2+StandardScenario().CapitalIncomeBonus {
		t.Fatalf("income = %d, want %d", got, 2+StandardScenario().CapitalIncomeBonus)
	}
	if gs.Round != 1 {
		t.Fatalf("round advanced early: %d", gs.Round)
	}
}

func TestRoundWrapsAfterLastPlayer(t *testing.T) {
	gs := newTestGame(nil)
	gs.Turn = TurnMobilize
	gs.CurrentPlayerIndex = 1 // blue, last in order

	if err := gs.NextPhase(); err != nil {
		t.Fatalf("NextPhase: %v", err)
	}
	if gs.CurrentPlayer() != "red" || gs.Round != 2 {
		t.Fatalf("got %s round %d, want red round 2", gs.CurrentPlayer(), gs.Round)
	}
}

func TestNextPhaseBlockedByPendingCombat(t *testing.T) {
	gs := newTestGame(nil)
	gs.Turn = TurnCombat
	gs.CombatQueue = []string{"bravo"}

	err := gs.NextPhase()
	if KindOf(err) != ErrCombatPending {
		t.Fatalf("err = %v, want COMBAT_PENDING", err)
	}
}

func TestNextPhaseRejectedOutsidePlaying(t *testing.T) {
	gs := newTestGame(nil)
	gs.Phase = PhaseLobby
	if err := gs.NextPhase(); KindOf(err) != ErrPhaseMismatch {
		t.Fatalf("err = %v, want PHASE_MISMATCH", err)
	}

	gs.Phase = PhaseGameOver
	if err := gs.NextPhase(); KindOf(err) != ErrGameOver {
		t.Fatalf("err = %v, want GAME_OVER", err)
	}
}

func TestAdvancePlayerSkipsEliminated(t *testing.T) {
	gs := newTestGame(nil)
	gs.Players = append(gs.Players, &Player{ID: "green", Name: "Green", TeamID: "frost", IPCs: 10})
	gs.Players[1].Eliminated = true
	gs.Turn = TurnMobilize

	if err := gs.NextPhase(); err != nil {
		t.Fatalf("NextPhase: %v", err)
	}
	if gs.CurrentPlayer() != "green" {
		t.Fatalf("current = %s, want green", gs.CurrentPlayer())
	}
}

func TestPhaseChangeClearsUndoJournals(t *testing.T) {
	gs := newTestGame(nil)
	place(gs, "alpha", Infantry, "red", 2)
	if err := gs.MoveUnits("red", "alpha", "charlie", []UnitSelection{{Type: Infantry, Quantity: 1}}, MoveOptions{}); err != nil {
		t.Fatalf("MoveUnits: %v", err)
	}
	if err := gs.NextPhase(); err != nil {
		t.Fatalf("NextPhase: %v", err)
	}
	if err := gs.UndoLastMove("red"); KindOf(err) != ErrNothingToUndo {
		t.Fatalf("err = %v, want NOTHING_TO_UNDO", err)
	}
}

func TestMovedFlagsResetBetweenMovementPhases(t *testing.T) {
	gs := newTestGame(nil)
	place(gs, "alpha", Infantry, "red", 1)
	if err := gs.MoveUnits("red", "alpha", "charlie", []UnitSelection{{Type: Infantry, Quantity: 1}}, MoveOptions{}); err != nil {
		t.Fatalf("MoveUnits: %v", err)
	}
	// Spent for the rest of COMBAT_MOVE.
	err := gs.MoveUnits("red", "charlie", "bravo", []UnitSelection{{Type: Infantry, Quantity: 1}}, MoveOptions{})
	if KindOf(err) != ErrAlreadyMoved {
		t.Fatalf("err = %v, want ALREADY_MOVED", err)
	}

	gs.NextPhase() // COMBAT
	gs.NextPhase() // NON_COMBAT_MOVE, flags reset
	if err := gs.MoveUnits("red", "charlie", "alpha", []UnitSelection{{Type: Infantry, Quantity: 1}}, MoveOptions{}); err != nil {
		t.Fatalf("move after reset: %v", err)
	}
}
