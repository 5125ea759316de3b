package game

import "github.com/palemoky/judgment/internal/game/card"

// ViewFor 返回发给某位玩家的状态副本：隐藏其他玩家的手牌（只保留张数）和未发的牌堆。
// 对局未结束时种子也不下发，避免客户端推算出后续发牌。
func (s *State) ViewFor(playerID string) *State {
	v := s.Clone()
	for _, p := range v.Players {
		p.HandSize = len(p.Hand)
		if p.ID != playerID {
			p.Hand = []card.Card{}
		}
	}
	v.CurrentDeck = nil
	if v.Phase != PhaseFinished {
		v.DeckSeed = ""
	}
	return v
}
