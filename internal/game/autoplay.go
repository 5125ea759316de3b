package game

import "github.com/palemoky/judgment/internal/game/rule"

// AutoAction 为当前行动的玩家生成托管操作，不需要行动时返回 false。
// 生成的操作仍需经过 Apply 校验。
func AutoAction(s *State) (Action, bool) {
	actor := s.CurrentActor()
	if actor == nil {
		return Action{}, false
	}

	switch s.Phase {
	case PhaseBetting:
		return Bet(actor.ID, rule.AutoBet(s.PlacedBets(), s.NumSeated(), s.CardsPerPlayer)), true
	case PhasePlaying:
		c, ok := rule.AutoPlayCard(actor.Hand, s.CurrentTrick, s.Trump)
		if !ok {
			return Action{}, false
		}
		return PlayCard(actor.ID, c), true
	default:
		return Action{}, false
	}
}
