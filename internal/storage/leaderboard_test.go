package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/judgment/internal/game"
)

func finishedPlayers(points ...int) []*game.Player {
	players := make([]*game.Player, len(points))
	for i, pts := range points {
		id := string(rune('a' + i))
		players[i] = &game.Player{ID: id, Name: "name-" + id, SeatIndex: i, TotalPoints: pts}
	}
	return players
}

func TestLeaderboard_RecordMatch(t *testing.T) {
	t.Parallel()

	client, _ := newTestRedis(t)
	lb := NewLeaderboard(client)
	ctx := context.Background()

	require.NoError(t, lb.RecordMatch(ctx, finishedPlayers(30, 42, 42)))
	require.NoError(t, lb.RecordMatch(ctx, finishedPlayers(50, 10, 0)))

	a, err := lb.Stats(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 2, a.Games)
	assert.Equal(t, 1, a.Wins)
	assert.Equal(t, 50, a.BestScore)
	assert.Equal(t, 80, a.TotalPoints)

	// Ties at the top are wins for everyone involved
	c, err := lb.Stats(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, 1, c.Wins)
	assert.Equal(t, 42, c.BestScore)

	top, err := lb.Top(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].PlayerID)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, 80, top[0].Score)
	assert.InDelta(t, 50.0, top[0].WinRate, 0.001)
	assert.Equal(t, "b", top[1].PlayerID)
	assert.Equal(t, 52, top[1].Score)

	rank, err := lb.Rank(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(3), rank)
}

func TestLeaderboard_SkipsSpectators(t *testing.T) {
	t.Parallel()

	client, _ := newTestRedis(t)
	lb := NewLeaderboard(client)
	ctx := context.Background()

	players := finishedPlayers(10, 20)
	players = append(players, &game.Player{ID: "late", Name: "late", Spectator: true})
	require.NoError(t, lb.RecordMatch(ctx, players))

	stats, err := lb.Stats(ctx, "late")
	require.NoError(t, err)
	assert.Nil(t, stats)

	rank, err := lb.Rank(ctx, "late")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)
}

func TestLeaderboard_TopEmpty(t *testing.T) {
	t.Parallel()

	client, _ := newTestRedis(t)
	lb := NewLeaderboard(client)

	top, err := lb.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, top)

	top, err = lb.Top(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, top)
}
