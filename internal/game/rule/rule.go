package rule

import (
	"github.com/palemoky/judgment/internal/game/card"
)

// TrickPlay 一墩中某个座位出的一张牌
type TrickPlay struct {
	SeatIndex int       `json:"seatIndex"`
	Card      card.Card `json:"card"`
}

// trumpRotation 主牌按轮次轮换：黑桃、红心、方块、梅花
var trumpRotation = []card.Suit{card.Spades, card.Hearts, card.Diamonds, card.Clubs}

// TrumpForRound 返回第 roundIndex 轮的主牌花色
func TrumpForRound(roundIndex int) card.Suit {
	if roundIndex < 0 {
		roundIndex = 0
	}
	return trumpRotation[roundIndex%len(trumpRotation)]
}

// LeadSuit 返回本墩首家花色，空墩返回 false
func LeadSuit(trick []TrickPlay) (card.Suit, bool) {
	if len(trick) == 0 {
		return 0, false
	}
	return trick[0].Card.Suit, true
}

// IsValidPlay 检查跟牌规则：首家任意出牌；有首家花色必须跟，没有则任意出牌
func IsValidPlay(hand []card.Card, c card.Card, trick []TrickPlay) bool {
	lead, ok := LeadSuit(trick)
	if !ok || c.Suit == lead {
		return true
	}
	return !HasSuit(hand, lead)
}

// HasSuit 手牌中是否有该花色
func HasSuit(hand []card.Card, suit card.Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

// beats 判断 challenger 能否压过当前最大的牌 champion
func beats(challenger, champion card.Card, lead, trump card.Suit) bool {
	switch {
	case challenger.Suit == trump && champion.Suit != trump:
		return true
	case challenger.Suit == trump && champion.Suit == trump:
		return challenger.Rank > champion.Rank
	case challenger.Suit != trump && champion.Suit != trump:
		// 非主牌只有同为首家花色时才比较大小，垫牌永远不会赢
		return challenger.Suit == lead && champion.Suit == lead && challenger.Rank > champion.Rank
	default:
		return false
	}
}

// TrickWinner 返回赢得本墩的座位号，空墩返回 -1
func TrickWinner(trick []TrickPlay, trump card.Suit) int {
	lead, ok := LeadSuit(trick)
	if !ok {
		return -1
	}

	winner := trick[0]
	for _, play := range trick[1:] {
		if beats(play.Card, winner.Card, lead, trump) {
			winner = play
		}
	}
	return winner.SeatIndex
}

// Score 本轮得分：恰好完成下注得 (bet+1)*10+bet，否则 0 分
func Score(bet, tricksWon int) int {
	if bet != tricksWon {
		return 0
	}
	return (bet+1)*10 + bet
}

// ForbiddenBet 返回最后一位下注者不能下的注数；不是最后一位或该注数为负时返回 false
func ForbiddenBet(placed []int, numPlayers, cardsPerPlayer int) (int, bool) {
	if len(placed) != numPlayers-1 {
		return 0, false
	}
	sum := 0
	for _, b := range placed {
		sum += b
	}
	forbidden := cardsPerPlayer - sum
	if forbidden < 0 {
		return 0, false
	}
	return forbidden, true
}

// CanBet 检查下注是否合法。
// 非负即可；最后一位下注者（庄家）不能让总注数恰好等于本轮牌数。
// 超过本轮牌数的下注不做限制。
func CanBet(placed []int, numPlayers, cardsPerPlayer, bet int) bool {
	if bet < 0 {
		return false
	}
	if forbidden, ok := ForbiddenBet(placed, numPlayers, cardsPerPlayer); ok && bet == forbidden {
		return false
	}
	return true
}
