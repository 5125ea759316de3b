package game

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/game/card"
	"github.com/palemoky/judgment/internal/game/rule"
)

// Apply 在 state 上执行一个操作并返回新状态。
// 原状态不会被修改；出错时返回 nil 和错误，调用方应丢弃这次操作。
func Apply(state *State, action Action) (*State, error) {
	if state == nil {
		state = NewState()
	}
	next := state.Clone()

	var err error
	switch action.Type {
	case ActionJoin:
		err = next.join(action)
	case ActionStartGame:
		err = next.startGame(action)
	case ActionBet:
		err = next.bet(action)
	case ActionPlayCard:
		err = next.playCard(action)
	case ActionUpdateSettings:
		err = next.updateSettings(action)
	case ActionToggleAway:
		err = next.toggleAway(action)
	case ActionRenamePlayer:
		err = next.rename(action)
	case ActionDisconnect:
		err = next.disconnect(action)
	case ActionEndGame:
		err = next.endGame(action)
	default:
		err = apperrors.ErrUnknownAction.WithDetail("%q", action.Type)
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

// NumSeated 参与本局的玩家数。对局中加入的观战者排在最后，下一局开始时入座。
func (s *State) NumSeated() int {
	n := 0
	for _, p := range s.Players {
		if !p.Spectator {
			n++
		}
	}
	return n
}

func (s *State) nextSeat(seat int) int {
	return (seat + 1) % s.NumSeated()
}

func (s *State) mustFindPlayer(id string) (*Player, error) {
	p := s.Player(id)
	if p == nil {
		return nil, apperrors.ErrPlayerNotFound.WithDetail("%q", id)
	}
	return p, nil
}

// mustBeActor 检查阶段和回合
func (s *State) mustBeActor(phase Phase, playerID string) (*Player, error) {
	if s.Phase != phase {
		return nil, apperrors.ErrWrongPhase.WithDetail("当前阶段 %s，需要 %s", s.Phase, phase)
	}
	p, err := s.mustFindPlayer(playerID)
	if err != nil {
		return nil, err
	}
	if actor := s.CurrentActor(); actor == nil || actor.ID != p.ID {
		return nil, apperrors.ErrNotYourTurn
	}
	return p, nil
}

func (s *State) join(a Action) error {
	if a.PlayerID == "" {
		return apperrors.ErrInvalidPlayerID
	}

	if p := s.Player(a.PlayerID); p != nil {
		// 断线重连，保留座位和手牌
		p.Connected = true
		return nil
	}

	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = fmt.Sprintf("玩家%d", len(s.Players)+1)
	}
	inProgress := s.Phase == PhaseBetting || s.Phase == PhasePlaying
	s.Players = append(s.Players, &Player{
		ID:        a.PlayerID,
		Name:      name,
		SeatIndex: len(s.Players),
		IsHost:    s.Host() == nil,
		Connected: true,
		Spectator: inProgress,
		Hand:      []card.Card{},
	})
	return nil
}

func (s *State) startGame(a Action) error {
	if s.Phase != PhaseLobby && s.Phase != PhaseFinished {
		return apperrors.ErrWrongPhase.WithDetail("不在大厅，无法开始")
	}
	p, err := s.mustFindPlayer(a.PlayerID)
	if err != nil {
		return err
	}
	if !p.IsHost {
		return apperrors.ErrNotHost
	}

	n := len(s.Players)
	if n < 2 {
		return apperrors.ErrNotEnoughPlayers.WithDetail("至少需要 2 人，当前 %d 人", n)
	}

	cardsPerPlayer := MaxCardsPerPlayer(n)
	if cardsPerPlayer < 1 {
		return apperrors.ErrNotEnoughCards.WithDetail("%d 人无法每人发到一张牌", n)
	}
	if a.InitialCardsPerPlayer != 0 {
		if a.InitialCardsPerPlayer < 1 || a.InitialCardsPerPlayer > cardsPerPlayer {
			return apperrors.ErrInvalidCardCount.WithDetail("%d 人每人最多 %d 张，收到 %d", n, cardsPerPlayer, a.InitialCardsPerPlayer)
		}
		cardsPerPlayer = a.InitialCardsPerPlayer
	}

	seed := a.Seed
	if seed == "" {
		seed = uuid.NewString()
	}

	for _, pl := range s.Players {
		pl.Spectator = false
		pl.TotalPoints = 0
		pl.TricksWon = 0
		pl.CurrentBet = nil
		pl.Hand = []card.Card{}
	}
	s.RoundIndex = 0
	s.CardsPerPlayer = cardsPerPlayer
	s.DeckSeed = seed
	s.ScoresHistory = []RoundScore{}
	s.CurrentDeck = card.NewDeck()
	s.PlayedPile = []card.Card{}
	s.CurrentTrick = []TrickPlay{}

	return s.startRound()
}

func (s *State) bet(a Action) error {
	p, err := s.mustBeActor(PhaseBetting, a.PlayerID)
	if err != nil {
		return err
	}
	if a.Bet == nil || *a.Bet < 0 {
		return apperrors.ErrInvalidBet
	}

	n := s.NumSeated()
	if !rule.CanBet(s.PlacedBets(), n, s.CardsPerPlayer, *a.Bet) {
		return apperrors.ErrDealerConstraint.WithDetail("总注数不能等于 %d", s.CardsPerPlayer)
	}

	bet := *a.Bet
	p.CurrentBet = &bet
	s.CurrentLeaderSeatIndex = s.nextSeat(s.CurrentLeaderSeatIndex)

	if len(s.PlacedBets()) == n {
		s.Phase = PhasePlaying
		s.CurrentLeaderSeatIndex = s.nextSeat(s.DealerSeatIndex)
	}
	return nil
}

func (s *State) playCard(a Action) error {
	p, err := s.mustBeActor(PhasePlaying, a.PlayerID)
	if err != nil {
		return err
	}
	if a.Card == nil {
		return apperrors.ErrInvalidCard.WithDetail("未指定出牌")
	}
	c := card.New(a.Card.Rank, a.Card.Suit)
	if !card.Contains(p.Hand, c) {
		return apperrors.ErrCardNotInHand.WithDetail("%s", c)
	}
	if !rule.IsValidPlay(p.Hand, c, s.CurrentTrick) {
		return apperrors.ErrInvalidCard.WithDetail("%s", c)
	}

	p.Hand, _ = card.Remove(p.Hand, c)
	s.CurrentTrick = append(s.CurrentTrick, TrickPlay{SeatIndex: p.SeatIndex, Card: c})
	s.CurrentLeaderSeatIndex = s.nextSeat(p.SeatIndex)

	if len(s.CurrentTrick) == s.NumSeated() {
		return s.resolveTrick()
	}
	return nil
}

// resolveTrick 结算完整的一墩，赢家领出下一墩；所有牌出完时结束本轮
func (s *State) resolveTrick() error {
	winnerSeat := rule.TrickWinner(s.CurrentTrick, s.Trump)
	winner := s.Players[winnerSeat]
	winner.TricksWon++

	for _, play := range s.CurrentTrick {
		s.PlayedPile = append(s.PlayedPile, play.Card)
	}
	s.CurrentTrick = []TrickPlay{}
	s.CurrentLeaderSeatIndex = winnerSeat

	if len(winner.Hand) == 0 {
		return s.endRound()
	}
	return nil
}

func (s *State) updateSettings(a Action) error {
	p, err := s.mustFindPlayer(a.PlayerID)
	if err != nil {
		return err
	}
	if !p.IsHost {
		return apperrors.ErrNotHost
	}
	if a.Settings == nil {
		s.Settings = Settings{}
		return nil
	}
	s.Settings = *a.Settings
	return nil
}

func (s *State) toggleAway(a Action) error {
	p, err := s.mustFindPlayer(a.PlayerID)
	if err != nil {
		return err
	}
	p.IsAway = !p.IsAway
	return nil
}

func (s *State) rename(a Action) error {
	p, err := s.mustFindPlayer(a.PlayerID)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return apperrors.ErrInvalidName
	}
	p.Name = name
	return nil
}

func (s *State) disconnect(a Action) error {
	p, err := s.mustFindPlayer(a.PlayerID)
	if err != nil {
		return err
	}
	p.Connected = false
	return nil
}

func (s *State) endGame(a Action) error {
	p, err := s.mustFindPlayer(a.PlayerID)
	if err != nil {
		return err
	}
	if !p.IsHost {
		return apperrors.ErrNotHost
	}
	s.Phase = PhaseFinished
	return nil
}
