package card

import (
	"slices"

	"github.com/palemoky/judgment/internal/apperrors"
)

// RoundDeal 一轮发牌结果
type RoundDeal struct {
	Hands         [][]Card // 按座位顺序的手牌，已整理
	RemainingDeck []Card   // 发牌后牌堆剩余
	Discarded     []Card   // 本轮弃掉的牌
}

// PrepareRoundDeck 为一轮游戏弃牌、洗牌并发牌。
//
// 第 0 轮按优先级弃掉点数最小的牌（同点数按梅花、方块、红心、黑桃）；
// 之后的轮次以 seed+"-discard" 洗牌后弃掉最前面的牌。
// 剩下的牌以 seed+"-deal" 洗牌，逐张轮流发给每位玩家。
func PrepareRoundDeck(currentDeck []Card, roundIndex, numPlayers, cardsPerPlayer int, seed string) (*RoundDeal, error) {
	if numPlayers <= 0 || cardsPerPlayer < 0 {
		return nil, apperrors.ErrInvalidCardCount.WithDetail("%d 名玩家，每人 %d 张", numPlayers, cardsPerPlayer)
	}

	totalNeeded := numPlayers * cardsPerPlayer
	toDiscard := len(currentDeck) - totalNeeded
	if toDiscard < 0 {
		return nil, apperrors.ErrNotEnoughCards.WithDetail("需要 %d 张，牌堆只有 %d 张", totalNeeded, len(currentDeck))
	}

	pool := slices.Clone(currentDeck)
	var discarded []Card
	if toDiscard > 0 {
		if roundIndex == 0 {
			sortByPriority(pool)
		} else {
			pool = Shuffle(pool, seed+"-discard")
		}
		discarded = slices.Clone(pool[:toDiscard])
		pool = pool[toDiscard:]
	}

	pool = Shuffle(pool, seed+"-deal")

	hands := make([][]Card, numPlayers)
	for i := range hands {
		hands[i] = make([]Card, 0, cardsPerPlayer)
	}
	dealt := 0
	for range cardsPerPlayer {
		for p := range numPlayers {
			hands[p] = append(hands[p], pool[dealt])
			dealt++
		}
	}
	for _, hand := range hands {
		SortHand(hand)
	}

	return &RoundDeal{
		Hands:         hands,
		RemainingDeck: slices.Clone(pool[dealt:]),
		Discarded:     discarded,
	}, nil
}
