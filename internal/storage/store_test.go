package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/game/card"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func startedState(t *testing.T) *game.State {
	t.Helper()
	s := game.NewState()
	var err error
	for _, id := range []string{"p1", "p2", "p3"} {
		s, err = game.Apply(s, game.Join(id, id))
		require.NoError(t, err)
	}
	s, err = game.Apply(s, game.StartGame("p1", 4, "store"))
	require.NoError(t, err)
	return s
}

// Both backends must behave the same way.
func backends(t *testing.T) map[string]Backend {
	client, _ := newTestRedis(t)
	return map[string]Backend{
		"memory": NewMemoryStore(),
		"redis":  NewRedisStore(client),
	}
}

func TestBackend_StateRoundTrip(t *testing.T) {
	t.Parallel()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := startedState(t)

			got, err := b.Get(ctx, "123456")
			require.NoError(t, err)
			assert.Nil(t, got, "missing room is not an error")

			require.NoError(t, b.Set(ctx, "123456", s))
			require.NoError(t, b.Set(ctx, "654321", game.NewState()))

			got, err = b.Get(ctx, "123456")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, s.Phase, got.Phase)
			assert.Equal(t, s.DeckSeed, got.DeckSeed)
			assert.Equal(t, s.Trump, got.Trump)
			assert.Equal(t, s.CardCount(), got.CardCount())
			assert.Equal(t, s.Players[1].Hand, got.Players[1].Hand)

			codes, err := b.Codes(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"123456", "654321"}, codes)

			require.NoError(t, b.Delete(ctx, "123456"))
			got, err = b.Get(ctx, "123456")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestBackend_ActionLog(t *testing.T) {
	t.Parallel()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			actions, err := b.Actions(ctx, "111111")
			require.NoError(t, err)
			assert.Empty(t, actions)

			logged := []game.Action{
				game.Join("p1", "Alice"),
				game.StartGame("p1", 3, "seed"),
				game.Bet("p2", 1),
				game.PlayCard("p2", card.New(card.RankQ, card.Diamonds)),
				game.UpdateSettings("p1", game.Settings{AutoPlayEnabled: true}),
			}
			for _, a := range logged {
				require.NoError(t, b.Append(ctx, "111111", a))
			}
			// Action logs share the room prefix but are not rooms
			require.NoError(t, b.Set(ctx, "111111", game.NewState()))

			actions, err = b.Actions(ctx, "111111")
			require.NoError(t, err)
			assert.Equal(t, logged, actions)

			codes, err := b.Codes(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"111111"}, codes)

			require.NoError(t, b.Clear(ctx, "111111"))
			actions, err = b.Actions(ctx, "111111")
			require.NoError(t, err)
			assert.Empty(t, actions)
		})
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ms := NewMemoryStore()
	s := startedState(t)
	require.NoError(t, ms.Set(ctx, "1", s))

	s.Players[0].Name = "changed"
	got, err := ms.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.Players[0].Name)

	got.Players[0].Name = "changed again"
	again, err := ms.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "p1", again.Players[0].Name)
}

func TestRedisStore_Expiration(t *testing.T) {
	t.Parallel()

	client, mr := newTestRedis(t)
	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "222222", game.NewState()))
	require.NoError(t, store.Append(ctx, "222222", game.Join("p1", "a")))
	assert.Equal(t, roomExpiration, mr.TTL("room:222222"))
	assert.Equal(t, roomExpiration, mr.TTL("room:222222:actions"))

	mr.FastForward(roomExpiration + time.Second)

	got, err := store.Get(ctx, "222222")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CorruptedState(t *testing.T) {
	t.Parallel()

	client, mr := newTestRedis(t)
	store := NewRedisStore(client)
	require.NoError(t, mr.Set("room:333333", "not json"))

	_, err := store.Get(context.Background(), "333333")
	assert.Error(t, err)
}
