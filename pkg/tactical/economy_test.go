package tactical

import "testing"

func TestPurchaseCartSpendAndRefund(t *testing.T) {
	gs := newTestGame(nil)
	gs.Turn = TurnPurchase

	if err := gs.AddToPendingPurchases("red", Infantry, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if gs.IPCs("red") != 40-9 {
		t.Fatalf("IPCs = %d, want 31", gs.IPCs("red"))
	}
	if got := len(gs.PendingPurchases("red")); got != 3 {
		t.Fatalf("cart size = %d, want 3", got)
	}

	if err := gs.RemoveFromPendingPurchases("red", 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if gs.IPCs("red") != 40-6 {
		t.Fatalf("IPCs after refund = %d, want 34", gs.IPCs("red"))
	}

	if err := gs.ClearPendingPurchases("red"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if gs.IPCs("red") != 40 || len(gs.PendingPurchases("red")) != 0 {
		t.Fatalf("clear did not refund: %d IPCs, %d pending", gs.IPCs("red"), len(gs.PendingPurchases("red")))
	}
}

func TestPurchaseRequiresFundsAndPhase(t *testing.T) {
	gs := newTestGame(nil)
	gs.Turn = TurnPurchase
	gs.PlayerByID("red").IPCs = 5

	if err := gs.AddToPendingPurchases("red", Battleship, 1); KindOf(err) != ErrInsufficientIPCs {
		t.Fatalf("err = %v, want INSUFFICIENT_IPCS", err)
	}

	gs.Turn = TurnCombatMove
	if err := gs.AddToPendingPurchases("red", Infantry, 1); KindOf(err) != ErrPhaseMismatch {
		t.Fatalf("err = %v, want PHASE_MISMATCH", err)
	}
}

func TestMobilizationCapacityWithFactory(t *testing.T) {
	gs := newTestGame(nil)
	gs.Turn = TurnPurchase
	gs.PlayerByID("red").IPCs = 100
	place(gs, "alpha", Factory, "red", 1)

	if got := gs.MobilizationCapacity("red"); got != 25 {
		t.Fatalf("capacity = %d, want 25", got)
	}
	if err := gs.AddToPendingPurchases("red", Infantry, 25); err != nil {
		t.Fatalf("filling cart: %v", err)
	}
	// The 26th unit is over capacity.
	if err := gs.AddToPendingPurchases("red", Infantry, 1); KindOf(err) != ErrCapacityExceeded {
		t.Fatalf("err = %v, want CAPACITY_EXCEEDED", err)
	}
}

func TestMobilizeAndUndo(t *testing.T) {
	gs := newTestGame(nil)
	gs.Turn = TurnPurchase
	if err := gs.AddToPendingPurchases("red", Armor, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	gs.Turn = TurnMobilize
	if err := gs.MobilizeUnit("red", 0, "bravo"); KindOf(err) != ErrNotOwned {
		t.Fatalf("foreign soil: err = %v, want NOT_OWNED", err)
	}
	if err := gs.MobilizeUnit("red", 0, "alpha"); err != nil {
		t.Fatalf("mobilize: %v", err)
	}
	if got := unitCount(gs, "alpha", Armor, "red"); got != 1 {
		t.Fatalf("%d armor on alpha, want 1", got)
	}
	if len(gs.PendingPurchases("red")) != 0 {
		t.Fatalf("cart not drained")
	}

	if err := gs.UndoMobilization("red"); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := unitCount(gs, "alpha", Armor, "red"); got != 0 {
		t.Fatalf("undo left %d armor on alpha", got)
	}
	if got := len(gs.PendingPurchases("red")); got != 1 {
		t.Fatalf("cart size after undo = %d, want 1", got)
	}
}

func TestMobilizeNavalUnitNeedsCoast(t *testing.T) {
	gs := newTestGame(nil)
	gs.Pending["red"] = []PendingUnit{{Type: Destroyer, Cost: 8}}
	gs.Turn = TurnMobilize

	if err := gs.MobilizeUnit("red", 0, "alpha"); KindOf(err) != ErrInvalidSelection {
		t.Fatalf("on land: err = %v, want INVALID_SELECTION", err)
	}
	if err := gs.MobilizeUnit("red", 0, "seaAB"); err != nil {
		t.Fatalf("mobilize at sea: %v", err)
	}
	if got := unitCount(gs, "seaAB", Destroyer, "red"); got != 1 {
		t.Fatalf("%d destroyers in seaAB, want 1", got)
	}
}

func TestMobilizeNeedsFactoryOrCapital(t *testing.T) {
	gs := newTestGame(nil)
	gs.setOwner("charlie", "red")
	gs.Pending["red"] = []PendingUnit{{Type: Infantry, Cost: 3}}
	gs.Turn = TurnMobilize

	// charlie is red's, but it is neither the capital nor industrialized.
	if err := gs.MobilizeUnit("red", 0, "charlie"); KindOf(err) != ErrInvalidSelection {
		t.Fatalf("no factory: err = %v, want INVALID_SELECTION", err)
	}

	place(gs, "charlie", Factory, "red", 1)
	if err := gs.MobilizeUnit("red", 0, "charlie"); err != nil {
		t.Fatalf("mobilize at factory: %v", err)
	}
	if got := unitCount(gs, "charlie", Infantry, "red"); got != 1 {
		t.Fatalf("%d infantry on charlie, want 1", got)
	}
}

func TestMobilizeNewFactoryOnPlainTerritory(t *testing.T) {
	gs := newTestGame(nil)
	gs.setOwner("charlie", "red")
	gs.Pending["red"] = []PendingUnit{{Type: Factory, Cost: 15}}
	gs.Turn = TurnMobilize

	if err := gs.MobilizeUnit("red", 0, "charlie"); err != nil {
		t.Fatalf("new factory: %v", err)
	}
	if got := unitCount(gs, "charlie", Factory, "red"); got != 1 {
		t.Fatalf("%d factories on charlie, want 1", got)
	}
}

func TestMobilizeNavalNeedsIndustrializedCoast(t *testing.T) {
	gs := newTestGame(nil)
	// Move red's capital inland so seaAB borders only plain red land and
	// the enemy capital.
	gs.setOwner("delta", "red")
	gs.setOwner("bravo", "red")
	gs.Territory["alpha"] = &TerritoryState{Owner: "red"}
	gs.Territory["delta"].Capital = "red"
	gs.PlayerByID("red").Capital = "delta"
	gs.PlayerByID("blue").Capital = ""
	gs.Pending["red"] = []PendingUnit{{Type: Destroyer, Cost: 8}}
	gs.Turn = TurnMobilize

	if err := gs.MobilizeUnit("red", 0, "seaAB"); KindOf(err) != ErrNotOwned {
		t.Fatalf("plain coast: err = %v, want NOT_OWNED", err)
	}

	place(gs, "alpha", Factory, "red", 1)
	if err := gs.MobilizeUnit("red", 0, "seaAB"); err != nil {
		t.Fatalf("mobilize off factory coast: %v", err)
	}
	if got := unitCount(gs, "seaAB", Destroyer, "red"); got != 1 {
		t.Fatalf("%d destroyers in seaAB, want 1", got)
	}
}

func TestSecondFactoryPerTerritoryRejected(t *testing.T) {
	gs := newTestGame(nil)
	place(gs, "alpha", Factory, "red", 1)
	gs.Pending["red"] = []PendingUnit{{Type: Factory, Cost: 15}}
	gs.Turn = TurnMobilize

	if err := gs.MobilizeUnit("red", 0, "alpha"); KindOf(err) != ErrInvalidSelection {
		t.Fatalf("err = %v, want INVALID_SELECTION", err)
	}
}

func TestTechDiceLifecycle(t *testing.T) {
	gs := newTestGame(NewFixedRoller(6, 3))
	gs.Turn = TurnDevelopTech

	if err := gs.PurchaseTechDice("red", 2); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if gs.IPCs("red") != 40-2*techDieCost {
		t.Fatalf("IPCs = %d, want %d", gs.IPCs("red"), 40-2*techDieCost)
	}

	sixes, err := gs.RollTechDice("red")
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if sixes != 1 {
		t.Fatalf("breakthroughs = %d, want 1", sixes)
	}
	p := gs.PlayerByID("red")
	if p.TechTokens != 0 {
		t.Fatalf("dice carried over: %d", p.TechTokens)
	}

	if err := gs.UnlockTech("red", TechHeavyBombers); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if !gs.HasTech("red", TechHeavyBombers) {
		t.Fatalf("tech not recorded")
	}
	if err := gs.UnlockTech("red", TechJetFighters); KindOf(err) != ErrInvalidSelection {
		t.Fatalf("second unlock without breakthrough: %v", err)
	}
}

func TestIndustrialProductionDiscountsLandUnits(t *testing.T) {
	gs := newTestGame(nil)
	gs.PlayerByID("red").Techs = []TechID{TechIndustrialProduction}

	cost, err := gs.UnitCost("red", Infantry)
	if err != nil || cost != 2 {
		t.Fatalf("infantry cost = %d (%v), want 2", cost, err)
	}
	cost, _ = gs.UnitCost("red", Fighter)
	if cost != 10 {
		t.Fatalf("fighter cost = %d, want 10 (no discount on aircraft)", cost)
	}
}

func TestCollectIncomeWithContinentBonus(t *testing.T) {
	gs := newTestGame(nil)
	gs.setOwner("charlie", "red")
	p := gs.PlayerByID("red")

	// alpha 2 + charlie 1 + continent "west" 3 + capital bonus.
	want := 2 + 1 + 3 + StandardScenario().CapitalIncomeBonus
	if got := gs.collectIncome(p); got != want {
		t.Fatalf("income = %d, want %d", got, want)
	}
}

func TestNoIncomeWhileCapitalOccupied(t *testing.T) {
	gs := newTestGame(nil)
	gs.setOwner("alpha", "blue")
	p := gs.PlayerByID("red")

	if got := gs.collectIncome(p); got != 0 {
		t.Fatalf("income = %d under occupation, want 0", got)
	}
}
