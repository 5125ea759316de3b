package rule

import "github.com/palemoky/judgment/internal/game/card"

// AutoBet 托管下注：优先下 0，被庄家规则禁止时下 1
func AutoBet(placed []int, numPlayers, cardsPerPlayer int) int {
	if CanBet(placed, numPlayers, cardsPerPlayer, 0) {
		return 0
	}
	return 1
}

// AutoPlayCard 托管出牌。
//
// 首家：出最小的非主牌，只剩主牌时出最小的主牌。
// 跟牌：有首家花色时出该花色的 A，没有 A 则出该花色最小的牌；
// 没有首家花色时同首家规则。手牌为空时返回 false。
func AutoPlayCard(hand []card.Card, trick []TrickPlay, trump card.Suit) (card.Card, bool) {
	if len(hand) == 0 {
		return card.Card{}, false
	}

	if lead, ok := LeadSuit(trick); ok && HasSuit(hand, lead) {
		for _, c := range hand {
			if c.Suit == lead && c.Rank == card.RankA {
				return c, true
			}
		}
		return findLowest(hand, func(c card.Card) bool { return c.Suit == lead })
	}

	if c, ok := findLowest(hand, func(c card.Card) bool { return c.Suit != trump }); ok {
		return c, true
	}
	return findLowest(hand, func(c card.Card) bool { return c.Suit == trump })
}

// findLowest 找到满足条件的最小点数的牌，点数相同时取花色顺序靠前的
func findLowest(hand []card.Card, match func(card.Card) bool) (card.Card, bool) {
	var (
		lowest card.Card
		found  bool
	)
	for _, c := range hand {
		if !match(c) {
			continue
		}
		if !found || c.Rank < lowest.Rank || (c.Rank == lowest.Rank && c.Suit < lowest.Suit) {
			lowest = c
			found = true
		}
	}
	return lowest, found
}
