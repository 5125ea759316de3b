package game

import (
	"maps"
	"slices"

	"github.com/palemoky/judgment/internal/game/card"
	"github.com/palemoky/judgment/internal/game/rule"
)

// DeckSize 一副牌的张数
const DeckSize = 52

// Phase 游戏阶段
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseBetting  Phase = "betting"
	PhasePlaying  Phase = "playing"
	PhaseScoring  Phase = "scoring" // 仅用于协议兼容，计分在出完最后一墩时原子完成
	PhaseFinished Phase = "finished"
)

// TrickPlay 一墩中某个座位出的牌
type TrickPlay = rule.TrickPlay

// RoundScore 一轮的得分，playerID -> 分数
type RoundScore map[string]int

// Settings 房间设置
type Settings struct {
	AutoPlayEnabled bool `json:"autoPlayEnabled"`
	AutoPlayDelayMs int  `json:"autoPlayDelayMs,omitempty"`
}

// Player 游戏中的玩家
type Player struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	SeatIndex   int         `json:"seatIndex"`
	IsHost      bool        `json:"isHost"`
	Connected   bool        `json:"connected"`
	IsAway      bool        `json:"isAway"`
	Spectator   bool        `json:"spectator,omitempty"` // 对局中加入，下一局入座
	CurrentBet  *int        `json:"currentBet"`
	TricksWon   int         `json:"tricksWon"`
	TotalPoints int         `json:"totalPoints"`
	Hand        []card.Card `json:"hand"`
	HandSize    int         `json:"handSize,omitempty"` // 仅在玩家视角中填写
}

// State 一个房间的完整游戏状态，只通过 Apply 产生新版本
type State struct {
	Players                []*Player    `json:"players"`
	RoundIndex             int          `json:"roundIndex"`
	CardsPerPlayer         int          `json:"cardsPerPlayer"`
	Trump                  card.Suit    `json:"trump"`
	DealerSeatIndex        int          `json:"dealerSeatIndex"`
	CurrentLeaderSeatIndex int          `json:"currentLeaderSeatIndex"`
	CurrentTrick           []TrickPlay  `json:"currentTrick"`
	Phase                  Phase        `json:"phase"`
	DeckSeed               string       `json:"deckSeed"`
	ScoresHistory          []RoundScore `json:"scoresHistory"`
	CurrentDeck            []card.Card  `json:"currentDeck"`
	PlayedPile             []card.Card  `json:"playedPile"`
	Settings               Settings     `json:"settings"`
}

// NewState 创建一个空的大厅状态
func NewState() *State {
	return &State{
		Phase:        PhaseLobby,
		Players:      []*Player{},
		CurrentTrick: []TrickPlay{},
	}
}

// Clone 按值复制整个状态，返回的副本与原状态不共享任何可变数据
func (s *State) Clone() *State {
	c := *s
	c.Players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		c.Players[i] = p.clone()
	}
	c.CurrentTrick = slices.Clone(s.CurrentTrick)
	c.CurrentDeck = slices.Clone(s.CurrentDeck)
	c.PlayedPile = slices.Clone(s.PlayedPile)
	c.ScoresHistory = make([]RoundScore, len(s.ScoresHistory))
	for i, rs := range s.ScoresHistory {
		c.ScoresHistory[i] = maps.Clone(rs)
	}
	return &c
}

func (p *Player) clone() *Player {
	c := *p
	if p.CurrentBet != nil {
		bet := *p.CurrentBet
		c.CurrentBet = &bet
	}
	c.Hand = slices.Clone(p.Hand)
	return &c
}

// Player 按 ID 查找玩家
func (s *State) Player(id string) *Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Host 返回房主
func (s *State) Host() *Player {
	for _, p := range s.Players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// CurrentActor 返回当前应该行动的玩家（下注或出牌），大厅和结束阶段返回 nil
func (s *State) CurrentActor() *Player {
	if s.Phase != PhaseBetting && s.Phase != PhasePlaying {
		return nil
	}
	if s.CurrentLeaderSeatIndex < 0 || s.CurrentLeaderSeatIndex >= len(s.Players) {
		return nil
	}
	return s.Players[s.CurrentLeaderSeatIndex]
}

// PlacedBets 按下注顺序（从庄家下家开始）返回已经下的注
func (s *State) PlacedBets() []int {
	n := s.NumSeated()
	bets := make([]int, 0, n)
	for i := 1; i <= n; i++ {
		p := s.Players[(s.DealerSeatIndex+i)%n]
		if p.CurrentBet != nil {
			bets = append(bets, *p.CurrentBet)
		}
	}
	return bets
}

// CardCount 统计手牌、牌堆、弃牌堆和当前墩中的牌数，一局内恒为 52
func (s *State) CardCount() int {
	n := len(s.CurrentDeck) + len(s.PlayedPile) + len(s.CurrentTrick)
	for _, p := range s.Players {
		n += len(p.Hand)
	}
	return n
}

// MaxCardsPerPlayer 当前人数下每人最多能发的牌数
func MaxCardsPerPlayer(numPlayers int) int {
	if numPlayers <= 0 {
		return 0
	}
	return DeckSize / numPlayers
}
