package game

import (
	"strconv"

	"github.com/palemoky/judgment/internal/game/card"
	"github.com/palemoky/judgment/internal/game/rule"
)

// RoundSeed 返回第 roundIndex 轮发牌使用的种子
func RoundSeed(deckSeed string, roundIndex int) string {
	return deckSeed + strconv.Itoa(roundIndex)
}

// startRound 开始新的一轮：确定主牌和庄家，弃牌发牌，进入下注阶段
func (s *State) startRound() error {
	n := s.NumSeated()

	deal, err := card.PrepareRoundDeck(s.CurrentDeck, s.RoundIndex, n, s.CardsPerPlayer, RoundSeed(s.DeckSeed, s.RoundIndex))
	if err != nil {
		return err
	}

	s.Trump = rule.TrumpForRound(s.RoundIndex)
	s.DealerSeatIndex = s.RoundIndex % n
	s.CurrentLeaderSeatIndex = s.nextSeat(s.DealerSeatIndex)
	s.CurrentTrick = []TrickPlay{}
	s.Phase = PhaseBetting

	// 弃掉的牌留在牌堆里，下一轮和出过的牌一起重新使用
	s.CurrentDeck = append(deal.RemainingDeck, deal.Discarded...)
	for i, p := range s.Players[:n] {
		p.Hand = deal.Hands[i]
		p.CurrentBet = nil
		p.TricksWon = 0
	}
	return nil
}

// calculateScores 计算本轮每位玩家的得分
func (s *State) calculateScores() RoundScore {
	scores := make(RoundScore, s.NumSeated())
	for _, p := range s.Players {
		if p.Spectator {
			continue
		}
		bet := 0
		if p.CurrentBet != nil {
			bet = *p.CurrentBet
		}
		scores[p.ID] = rule.Score(bet, p.TricksWon)
	}
	return scores
}

// endRound 计分、回收出过的牌，牌数减一开始下一轮；减到 0 时本局结束
func (s *State) endRound() error {
	scores := s.calculateScores()
	for _, p := range s.Players {
		p.TotalPoints += scores[p.ID]
	}
	s.ScoresHistory = append(s.ScoresHistory, scores)

	s.RoundIndex++
	s.CurrentDeck = append(s.CurrentDeck, s.PlayedPile...)
	s.PlayedPile = []card.Card{}

	if s.CardsPerPlayer-1 < 1 {
		s.Phase = PhaseFinished
		return nil
	}
	s.CardsPerPlayer--
	return s.startRound()
}
