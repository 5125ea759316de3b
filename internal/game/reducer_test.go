package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/judgment/internal/apperrors"
	"github.com/palemoky/judgment/internal/game/card"
	"github.com/palemoky/judgment/internal/game/rule"
)

func mustApply(t *testing.T, s *State, a Action) *State {
	t.Helper()
	next, err := Apply(s, a)
	require.NoError(t, err, "action %+v", a)
	require.NotNil(t, next)
	return next
}

func requireRejected(t *testing.T, s *State, a Action, want *apperrors.GameError) {
	t.Helper()
	before, err := json.Marshal(s)
	require.NoError(t, err)

	next, err := Apply(s, a)
	require.Error(t, err)
	assert.Nil(t, next)
	assert.True(t, errors.Is(err, want), "got %v, want %v", err, want)

	after, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after), "rejected action must not touch the input state")
}

func lobby(t *testing.T, n int) *State {
	t.Helper()
	s := NewState()
	for i := 1; i <= n; i++ {
		s = mustApply(t, s, Join(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i)))
	}
	return s
}

// crafted builds a playing state with fixed hands; seat 0 leads and every
// player has bet 0. Cards not in any hand go to the deck.
func crafted(trump card.Suit, hands ...[]string) *State {
	s := NewState()
	s.Phase = PhasePlaying
	s.Trump = trump
	s.DeckSeed = "crafted"
	s.CardsPerPlayer = len(hands[0])
	s.DealerSeatIndex = len(hands) - 1
	s.CurrentLeaderSeatIndex = 0

	held := make(map[string]bool)
	for i, h := range hands {
		bet := 0
		cards := card.MustParse(h...)
		for _, c := range cards {
			held[c.ID] = true
		}
		s.Players = append(s.Players, &Player{
			ID:         fmt.Sprintf("p%d", i+1),
			Name:       fmt.Sprintf("Player%d", i+1),
			SeatIndex:  i,
			IsHost:     i == 0,
			Connected:  true,
			CurrentBet: &bet,
			Hand:       cards,
		})
	}
	for _, c := range card.NewDeck() {
		if !held[c.ID] {
			s.CurrentDeck = append(s.CurrentDeck, c)
		}
	}
	return s
}

func assertInvariants(t *testing.T, s *State) {
	t.Helper()
	assert.Equal(t, DeckSize, s.CardCount(), "card conservation")
	assert.Less(t, len(s.CurrentTrick), len(s.Players), "trick must never be full")

	hosts := 0
	for i, p := range s.Players {
		assert.Equal(t, i, p.SeatIndex, "seats are contiguous")
		if p.IsHost {
			hosts++
		}
	}
	if len(s.Players) > 0 {
		assert.Equal(t, 1, hosts, "exactly one host")
	}
}

func TestJoin(t *testing.T) {
	t.Parallel()

	s := lobby(t, 3)
	require.Len(t, s.Players, 3)
	for i, p := range s.Players {
		assert.Equal(t, i, p.SeatIndex)
		assert.Nil(t, p.CurrentBet)
		assert.Zero(t, p.TotalPoints)
		assert.Empty(t, p.Hand)
		assert.True(t, p.Connected)
	}
	assert.True(t, s.Players[0].IsHost)
	assert.False(t, s.Players[1].IsHost)
	assert.False(t, s.Players[2].IsHost)

	// Reconnect keeps the seat and flips connected back on
	s = mustApply(t, s, Disconnect("p2"))
	assert.False(t, s.Player("p2").Connected)
	s = mustApply(t, s, Join("p2", "ignored"))
	require.Len(t, s.Players, 3)
	assert.True(t, s.Player("p2").Connected)
	assert.Equal(t, 1, s.Player("p2").SeatIndex)
	assert.Equal(t, "Player2", s.Player("p2").Name)

	requireRejected(t, s, Join("", "x"), apperrors.ErrInvalidPlayerID)
}

func TestJoin_DefaultName(t *testing.T) {
	t.Parallel()

	s := mustApply(t, NewState(), Join("p1", "  "))
	assert.Equal(t, "玩家1", s.Players[0].Name)
}

func TestStartGame(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 4), StartGame("p1", 0, "seed"))

	assert.Equal(t, PhaseBetting, s.Phase)
	assert.Equal(t, 0, s.RoundIndex)
	assert.Equal(t, 13, s.CardsPerPlayer, "defaults to floor(52/players)")
	assert.Equal(t, card.Spades, s.Trump)
	assert.Equal(t, 0, s.DealerSeatIndex)
	assert.Equal(t, 1, s.CurrentLeaderSeatIndex, "bidding starts left of the dealer")
	assert.Equal(t, "seed", s.DeckSeed)
	assert.Empty(t, s.ScoresHistory)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, 13)
	}
	assertInvariants(t, s)
}

func TestStartGame_Rejections(t *testing.T) {
	t.Parallel()

	requireRejected(t, lobby(t, 1), StartGame("p1", 0, "s"), apperrors.ErrNotEnoughPlayers)
	requireRejected(t, lobby(t, 3), StartGame("p2", 0, "s"), apperrors.ErrNotHost)
	requireRejected(t, lobby(t, 3), StartGame("ghost", 0, "s"), apperrors.ErrPlayerNotFound)
	requireRejected(t, lobby(t, 4), StartGame("p1", 14, "s"), apperrors.ErrInvalidCardCount)
	requireRejected(t, lobby(t, 4), StartGame("p1", -1, "s"), apperrors.ErrInvalidCardCount)

	// 53 players cannot each receive a card
	crowded := lobby(t, DeckSize+1)
	requireRejected(t, crowded, StartGame("p1", 0, "s"), apperrors.ErrNotEnoughCards)
	assert.Equal(t, PhaseLobby, crowded.Phase)
	_, err := Apply(crowded, StartGame("p1", 1, "s"))
	assert.Equal(t, apperrors.KindResource, apperrors.KindOf(err))

	full := mustApply(t, lobby(t, DeckSize), StartGame("p1", 0, "s"))
	assert.Equal(t, 1, full.CardsPerPlayer)

	started := mustApply(t, lobby(t, 3), StartGame("p1", 5, "s"))
	requireRejected(t, started, StartGame("p1", 5, "s"), apperrors.ErrWrongPhase)
}

func TestStartGame_WithoutSeedGeneratesOne(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 2), StartGame("p1", 3, ""))
	assert.NotEmpty(t, s.DeckSeed)
}

func TestStartGame_RestartResetsMatch(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 2), StartGame("p1", 1, "first"))
	s = playOut(t, s)
	require.Equal(t, PhaseFinished, s.Phase)
	require.Len(t, s.ScoresHistory, 1)

	s = mustApply(t, s, StartGame("p1", 2, "second"))
	assert.Equal(t, PhaseBetting, s.Phase)
	assert.Empty(t, s.ScoresHistory)
	assert.Equal(t, "second", s.DeckSeed)
	for _, p := range s.Players {
		assert.Zero(t, p.TotalPoints)
		assert.Len(t, p.Hand, 2)
	}
	assertInvariants(t, s)
}

func TestBet_DealerConstraint(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 4), StartGame("p1", 10, "seed"))

	// Dealer is seat 0, bidding goes seat 1, 2, 3 then the dealer.
	s = mustApply(t, s, Bet("p2", 2))
	s = mustApply(t, s, Bet("p3", 3))
	s = mustApply(t, s, Bet("p4", 2))
	assert.Equal(t, PhaseBetting, s.Phase)
	assert.Equal(t, 0, s.CurrentLeaderSeatIndex)

	requireRejected(t, s, Bet("p1", 3), apperrors.ErrDealerConstraint)

	for _, ok := range []int{2, 4} {
		next := mustApply(t, s, Bet("p1", ok))
		assert.Equal(t, PhasePlaying, next.Phase)
		assert.Equal(t, 1, next.CurrentLeaderSeatIndex, "first lead is left of the dealer")
		assert.Equal(t, ok, *next.Player("p1").CurrentBet)
	}
}

func TestBet_Rejections(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 3), StartGame("p1", 4, "seed"))

	requireRejected(t, s, Bet("p1", 1), apperrors.ErrNotYourTurn)
	requireRejected(t, s, Bet("ghost", 1), apperrors.ErrPlayerNotFound)
	requireRejected(t, s, Bet("p2", -1), apperrors.ErrInvalidBet)
	requireRejected(t, s, Action{Type: ActionBet, PlayerID: "p2"}, apperrors.ErrInvalidBet)
	requireRejected(t, lobby(t, 3), Bet("p1", 1), apperrors.ErrWrongPhase)

	s = mustApply(t, s, Bet("p2", 1))
	requireRejected(t, s, Bet("p2", 1), apperrors.ErrNotYourTurn)
}

func TestBet_OverbidIsAccepted(t *testing.T) {
	t.Parallel()

	// Bets above cardsPerPlayer are not clamped; they simply cannot score.
	s := mustApply(t, lobby(t, 2), StartGame("p1", 2, "seed"))
	s = mustApply(t, s, Bet("p2", 7))
	assert.Equal(t, 7, *s.Player("p2").CurrentBet)
}

func TestPlayCard_SuitFollowing(t *testing.T) {
	t.Parallel()

	s := crafted(card.Spades,
		[]string{"10H", "3C"},
		[]string{"2H", "5C"},
		[]string{"9D", "4C"},
	)
	s = mustApply(t, s, PlayCard("p1", card.New(card.Rank10, card.Hearts)))

	requireRejected(t, s, PlayCard("p2", card.New(card.Rank5, card.Clubs)), apperrors.ErrInvalidCard)
	requireRejected(t, s, PlayCard("p2", card.New(card.RankA, card.Spades)), apperrors.ErrCardNotInHand)
	requireRejected(t, s, PlayCard("p3", card.New(card.Rank9, card.Diamonds)), apperrors.ErrNotYourTurn)
	requireRejected(t, s, Action{Type: ActionPlayCard, PlayerID: "p2"}, apperrors.ErrInvalidCard)

	s = mustApply(t, s, PlayCard("p2", card.New(card.Rank2, card.Hearts)))
	// p3 has no hearts: anything is legal
	s = mustApply(t, s, PlayCard("p3", card.New(card.Rank4, card.Clubs)))
	assert.Equal(t, 1, s.Players[0].TricksWon)
	assertInvariants(t, s)
}

func TestPlayCard_WrongPhase(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 2), StartGame("p1", 3, "seed"))
	leader := s.CurrentActor()
	requireRejected(t, s, PlayCard(leader.ID, leader.Hand[0]), apperrors.ErrWrongPhase)
}

func TestPlayCard_TrickResolution(t *testing.T) {
	t.Parallel()

	s := crafted(card.Spades,
		[]string{"10H", "3C"},
		[]string{"KH", "5C"},
		[]string{"2S", "4C"},
	)
	s = mustApply(t, s, PlayCard("p1", card.New(card.Rank10, card.Hearts)))
	assert.Len(t, s.CurrentTrick, 1)
	assert.Equal(t, 1, s.CurrentLeaderSeatIndex)

	s = mustApply(t, s, PlayCard("p2", card.New(card.RankK, card.Hearts)))
	s = mustApply(t, s, PlayCard("p3", card.New(card.Rank2, card.Spades)))

	assert.Empty(t, s.CurrentTrick)
	assert.Len(t, s.PlayedPile, 3)
	assert.Equal(t, 1, s.Player("p3").TricksWon, "the only trump wins")
	assert.Equal(t, 2, s.CurrentLeaderSeatIndex, "trick winner leads next")
	assert.Equal(t, PhasePlaying, s.Phase)
	assertInvariants(t, s)
}

func TestPlayCard_RoundEndScoresAndAdvances(t *testing.T) {
	t.Parallel()

	s := crafted(card.Spades,
		[]string{"10H", "3C"},
		[]string{"KH", "5C"},
	)
	one := 1
	s.Players[1].CurrentBet = &one // p2 bets 1, p1 bets 0

	s = mustApply(t, s, PlayCard("p1", card.New(card.Rank10, card.Hearts)))
	s = mustApply(t, s, PlayCard("p2", card.New(card.RankK, card.Hearts)))
	// p2 leads the second trick
	s = mustApply(t, s, PlayCard("p2", card.New(card.Rank5, card.Clubs)))
	s = mustApply(t, s, PlayCard("p1", card.New(card.Rank3, card.Clubs)))

	// p2 won both tricks: bet 1 missed; p1 bet 0 and won 0
	require.Len(t, s.ScoresHistory, 1)
	assert.Equal(t, RoundScore{"p1": 10, "p2": 0}, s.ScoresHistory[0])
	assert.Equal(t, 10, s.Player("p1").TotalPoints)
	assert.Equal(t, 0, s.Player("p2").TotalPoints)

	// Next round started with one card less
	assert.Equal(t, 1, s.RoundIndex)
	assert.Equal(t, 1, s.CardsPerPlayer)
	assert.Equal(t, PhaseBetting, s.Phase)
	assert.Equal(t, card.Hearts, s.Trump)
	assert.Equal(t, 1, s.DealerSeatIndex)
	assert.Equal(t, 0, s.CurrentLeaderSeatIndex)
	assert.Empty(t, s.PlayedPile)
	for _, p := range s.Players {
		assert.Nil(t, p.CurrentBet)
		assert.Zero(t, p.TricksWon)
		assert.Len(t, p.Hand, 1)
	}
	assertInvariants(t, s)
}

func TestRoundProgression_SingleCardMatch(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 2), StartGame("p1", 1, "one-card"))
	require.Equal(t, PhaseBetting, s.Phase)
	require.Equal(t, 1, s.CurrentLeaderSeatIndex)

	s = mustApply(t, s, Bet("p2", 0))
	s = mustApply(t, s, Bet("p1", 0))
	require.Equal(t, PhasePlaying, s.Phase)

	s = mustApply(t, s, PlayCard("p2", s.Player("p2").Hand[0]))
	s = mustApply(t, s, PlayCard("p1", s.Player("p1").Hand[0]))

	assert.Equal(t, PhaseFinished, s.Phase)
	assert.Len(t, s.ScoresHistory, 1)
	assert.Equal(t, 1, s.RoundIndex)
	assert.Len(t, s.CurrentDeck, DeckSize, "no further dealing")
	for _, p := range s.Players {
		assert.Empty(t, p.Hand)
	}
	assertInvariants(t, s)

	requireRejected(t, s, Bet("p1", 0), apperrors.ErrWrongPhase)
}

// playOut drives the match with the auto-play policy until it finishes,
// checking invariants and round progression after every action.
func playOut(t *testing.T, s *State) *State {
	t.Helper()

	for steps := 0; s.Phase != PhaseFinished; steps++ {
		require.Less(t, steps, 10000, "match did not terminate")

		action, ok := AutoAction(s)
		require.True(t, ok)

		prevRound, prevCards := s.RoundIndex, s.CardsPerPlayer
		s = mustApply(t, s, action)
		assertInvariants(t, s)

		if s.RoundIndex != prevRound {
			require.Equal(t, prevRound+1, s.RoundIndex)
			require.Len(t, s.ScoresHistory, s.RoundIndex)
			if s.Phase != PhaseFinished {
				require.Equal(t, prevCards-1, s.CardsPerPlayer)
				require.Equal(t, rule.TrumpForRound(s.RoundIndex), s.Trump)
				require.Equal(t, s.RoundIndex%s.NumSeated(), s.DealerSeatIndex)
			}
		}
	}
	return s
}

func TestRoundProgression_FullMatch(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 3), StartGame("p1", 5, "full-match"))
	s = playOut(t, s)

	assert.Equal(t, PhaseFinished, s.Phase)
	require.Len(t, s.ScoresHistory, 5)
	assert.Equal(t, 5, s.RoundIndex)

	for _, p := range s.Players {
		sum := 0
		for _, rs := range s.ScoresHistory {
			sum += rs[p.ID]
		}
		assert.Equal(t, sum, p.TotalPoints)
	}
}

func TestApply_Deterministic(t *testing.T) {
	t.Parallel()

	a := playOut(t, mustApply(t, lobby(t, 4), StartGame("p1", 6, "replay")))
	b := playOut(t, mustApply(t, lobby(t, 4), StartGame("p1", 6, "replay")))
	assert.Equal(t, a, b)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 3), StartGame("p1", 4, "immutable"))
	before, err := json.Marshal(s)
	require.NoError(t, err)

	next := s
	for range 6 {
		action, ok := AutoAction(next)
		require.True(t, ok)
		next = mustApply(t, next, action)
	}

	after, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.NotEqual(t, s, next)
}

func TestAdminActions(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 3), StartGame("p1", 3, "admin"))

	s = mustApply(t, s, ToggleAway("p2"))
	assert.True(t, s.Player("p2").IsAway)
	s = mustApply(t, s, ToggleAway("p2"))
	assert.False(t, s.Player("p2").IsAway)

	s = mustApply(t, s, Rename("p3", " Carol "))
	assert.Equal(t, "Carol", s.Player("p3").Name)
	requireRejected(t, s, Rename("p3", ""), apperrors.ErrInvalidName)

	s = mustApply(t, s, UpdateSettings("p1", Settings{AutoPlayEnabled: true, AutoPlayDelayMs: 500}))
	assert.Equal(t, Settings{AutoPlayEnabled: true, AutoPlayDelayMs: 500}, s.Settings)
	requireRejected(t, s, UpdateSettings("p2", Settings{}), apperrors.ErrNotHost)
	s = mustApply(t, s, Action{Type: ActionUpdateSettings, PlayerID: "p1"})
	assert.Equal(t, Settings{}, s.Settings)

	requireRejected(t, s, ToggleAway("ghost"), apperrors.ErrPlayerNotFound)
	requireRejected(t, s, Action{Type: "DANCE", PlayerID: "p1"}, apperrors.ErrUnknownAction)

	requireRejected(t, s, EndGame("p2"), apperrors.ErrNotHost)
	s = mustApply(t, s, EndGame("p1"))
	assert.Equal(t, PhaseFinished, s.Phase)
	assertInvariants(t, s)
}

func TestJoin_DuringMatchWaitsForNextGame(t *testing.T) {
	t.Parallel()

	s := mustApply(t, lobby(t, 2), StartGame("p1", 2, "spectate"))
	s = mustApply(t, s, Join("p3", "Late"))

	late := s.Player("p3")
	require.NotNil(t, late)
	assert.True(t, late.Spectator)
	assert.Equal(t, 2, late.SeatIndex)
	assert.Equal(t, 2, s.NumSeated())
	assert.Empty(t, late.Hand)
	assertInvariants(t, s)

	// Spectators never get a turn and are not scored
	s = playOut(t, s)
	for _, rs := range s.ScoresHistory {
		_, scored := rs["p3"]
		assert.False(t, scored)
	}

	// Next game seats everyone
	s = mustApply(t, s, StartGame("p1", 0, "seated"))
	assert.Equal(t, 3, s.NumSeated())
	assert.False(t, s.Player("p3").Spectator)
	assert.Equal(t, 17, s.CardsPerPlayer)
	assertInvariants(t, s)
}
