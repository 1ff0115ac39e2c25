package tactical

// Shared fixtures. The test map is a five-node world small enough to
// reason about exact paths:
//
//	alpha -- charlie -- bravo -- delta
//	  \_______ seaAB ____/
//
// alpha is red's capital, bravo is blue's. charlie and delta start
// unclaimed.

func testMap() *WorldMap {
	m := NewWorldMap()
	m.AddTerritory("alpha", false, 2)
	m.AddTerritory("charlie", false, 1)
	m.AddTerritory("bravo", false, 3)
	m.AddTerritory("delta", false, 2)
	m.AddTerritory("seaAB", true, 0)
	m.Connect("alpha", "charlie")
	m.Connect("charlie", "bravo")
	m.Connect("bravo", "delta")
	m.Connect("alpha", "seaAB")
	m.Connect("seaAB", "bravo")
	m.AddContinent("west", 3, "alpha", "charlie")
	return m
}

func newTestGame(r Roller) *GameState {
	if r == nil {
		r = NewRoller(7)
	}
	gs := NewGameState(testMap(), r)
	gs.Players = []*Player{
		{ID: "red", Name: "Red", TeamID: "ember", IPCs: 40, Capital: "alpha"},
		{ID: "blue", Name: "Blue", TeamID: "frost", IPCs: 40, Capital: "bravo"},
	}
	gs.Territory["alpha"] = &TerritoryState{Owner: "red", Capital: "red"}
	gs.Territory["bravo"] = &TerritoryState{Owner: "blue", Capital: "blue"}
	gs.Phase = PhasePlaying
	gs.Turn = TurnCombatMove
	gs.Round = 1
	gs.VictoryMode = VictoryElimination
	gs.Seed = 7
	gs.CardDeck = []CardType{CardInfantry, CardArmor, CardArtillery, CardWild}
	return gs
}

// place drops units directly onto the board, bypassing commands.
func place(gs *GameState, territory string, t UnitType, owner string, qty int) {
	gs.Units[territory] = addUnits(gs.Units[territory], t, owner, qty, false)
}

// unitCount tallies a player's units of one type in a territory,
// including cargo holds and flight decks.
func unitCount(gs *GameState, territory string, t UnitType, owner string) int {
	n := 0
	for _, s := range gs.Units[territory] {
		if s.Type == t && s.Owner == owner {
			n += s.Quantity
		}
		for _, c := range s.Cargo {
			if c.Type == t && c.Owner == owner {
				n += c.Quantity
			}
		}
		for _, a := range s.Aircraft {
			if a.Type == t && a.Owner == owner {
				n += a.Quantity
			}
		}
	}
	return n
}
