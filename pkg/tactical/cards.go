package tactical

// CardType is one of the three troop cards or the wild.
type CardType string

const (
	CardInfantry  CardType = "infantry"
	CardArmor     CardType = "armor"
	CardArtillery CardType = "artillery"
	CardWild      CardType = "wild"
)

// tradeSchedule is the payout for each cashed set, global across all
// players. Past the table, every further set is worth 5 more than the
// last.
var tradeSchedule = []int{4, 6, 8, 10, 12, 15}

const tradeScheduleStep = 5

// NextTradeValue returns what the next cashed set pays out.
func (gs *GameState) NextTradeValue() int {
	n := gs.CardSetsTraded
	if n < len(tradeSchedule) {
		return tradeSchedule[n]
	}
	return tradeSchedule[len(tradeSchedule)-1] + (n-len(tradeSchedule)+1)*tradeScheduleStep
}

// drawCard takes the top card of the deck, reporting false when it is
// exhausted.
func (gs *GameState) drawCard() (CardType, bool) {
	if len(gs.CardDeck) == 0 {
		return "", false
	}
	card := gs.CardDeck[0]
	gs.CardDeck = gs.CardDeck[1:]
	return card, true
}

// isTradeableSet: three of a kind or one of each troop type, with wilds
// standing in for anything.
func isTradeableSet(cards [3]CardType) bool {
	wilds := 0
	counts := map[CardType]int{}
	for _, c := range cards {
		if c == CardWild {
			wilds++
		} else {
			counts[c]++
		}
	}
	if wilds > 0 {
		// A wild completes any pair and any two distinct types.
		return true
	}
	for _, n := range counts {
		if n == 3 {
			return true
		}
	}
	return len(counts) == 3
}

// findSet returns the indices of a tradeable set in the hand, preferring
// three of a kind so wilds stay in reserve.
func findSet(hand []CardType) ([3]int, bool) {
	n := len(hand)
	var fallback [3]int
	haveFallback := false
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				set := [3]CardType{hand[i], hand[j], hand[k]}
				if !isTradeableSet(set) {
					continue
				}
				if set[0] != CardWild && set[0] == set[1] && set[1] == set[2] {
					return [3]int{i, j, k}, true
				}
				if !haveFallback {
					fallback = [3]int{i, j, k}
					haveFallback = true
				}
			}
		}
	}
	return fallback, haveFallback
}

// CanTradeRiskCards reports whether the player currently holds a
// tradeable set. It does not check the phase.
func (gs *GameState) CanTradeRiskCards(player string) bool {
	p := gs.PlayerByID(player)
	if p == nil {
		return false
	}
	_, ok := findSet(p.RiskCards)
	return ok
}

// TradeRiskCards cashes the best set in the player's hand for the
// current schedule value. Only legal during PURCHASE.
func (gs *GameState) TradeRiskCards(player string) (int, error) {
	if err := gs.requirePurchasePhase(player); err != nil {
		return 0, err
	}
	p := gs.PlayerByID(player)
	idx, ok := findSet(p.RiskCards)
	if !ok {
		return 0, ruleErrf(ErrNotTradeable, "no tradeable set in hand")
	}
	return gs.cashSet(p, idx)
}

// TradeSpecificCards cashes exactly the three named hand positions.
func (gs *GameState) TradeSpecificCards(player string, indices [3]int) (int, error) {
	if err := gs.requirePurchasePhase(player); err != nil {
		return 0, err
	}
	p := gs.PlayerByID(player)
	if indices[0] == indices[1] || indices[1] == indices[2] || indices[0] == indices[2] {
		return 0, ruleErrf(ErrInvalidSelection, "card indices must be distinct")
	}
	var set [3]CardType
	for i, idx := range indices {
		if idx < 0 || idx >= len(p.RiskCards) {
			return 0, ruleErrf(ErrInvalidSelection, "no card at position %d", idx)
		}
		set[i] = p.RiskCards[idx]
	}
	if !isTradeableSet(set) {
		return 0, ruleErrf(ErrNotTradeable, "those three cards do not form a set")
	}
	return gs.cashSet(p, indices)
}

// cashSet removes the three cards, pays the schedule value, and bumps
// the global set counter.
func (gs *GameState) cashSet(p *Player, indices [3]int) (int, error) {
	value := gs.NextTradeValue()
	remove := map[int]bool{indices[0]: true, indices[1]: true, indices[2]: true}
	kept := p.RiskCards[:0]
	for i, c := range p.RiskCards {
		if !remove[i] {
			kept = append(kept, c)
		}
	}
	p.RiskCards = kept
	p.IPCs += value
	gs.CardSetsTraded++
	gs.logf(p.ID, "trades a card set for %d IPCs (set %d)", value, gs.CardSetsTraded)
	gs.notify(CardsTraded{Player: p.ID, Value: value, SetNum: gs.CardSetsTraded})
	return value, nil
}
