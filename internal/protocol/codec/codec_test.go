package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/judgment/internal/game"
	"github.com/palemoky/judgment/internal/game/card"
	"github.com/palemoky/judgment/internal/protocol"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgAction, protocol.ActionPayload{
		Action: game.PlayCard("p1", card.New(card.Rank10, card.Hearts)),
	})

	for _, enc := range []Encoding{JSON, Protobuf} {
		t.Run(enc.String(), func(t *testing.T) {
			t.Parallel()

			data, err := Encode(msg, enc)
			require.NoError(t, err)

			got, err := Decode(data, enc)
			require.NoError(t, err)
			assert.Equal(t, protocol.MsgAction, got.Type)

			payload, err := protocol.ParsePayload[protocol.ActionPayload](got)
			require.NoError(t, err)
			assert.Equal(t, game.ActionPlayCard, payload.Action.Type)
			assert.Equal(t, "p1", payload.Action.PlayerID)
			require.NotNil(t, payload.Action.Card)
			assert.Equal(t, "10H", payload.Action.Card.ID)
			assert.Equal(t, card.Hearts, payload.Action.Card.Suit)
			assert.Equal(t, card.Rank10, payload.Action.Card.Rank)
		})
	}
}

func TestEncodeDecode_StatePayload(t *testing.T) {
	t.Parallel()

	s := game.NewState()
	s, err := game.Apply(s, game.Join("p1", "Alice"))
	require.NoError(t, err)
	s, err = game.Apply(s, game.Join("p2", "Bob"))
	require.NoError(t, err)
	s, err = game.Apply(s, game.StartGame("p1", 5, "codec"))
	require.NoError(t, err)

	msg := MustNewMessage(protocol.MsgState, protocol.StatePayload{
		RoomCode: "123456",
		Version:  7,
		State:    s.ViewFor("p1"),
	})

	data, err := Encode(msg, Protobuf)
	require.NoError(t, err)
	got, err := Decode(data, Protobuf)
	require.NoError(t, err)

	payload, err := protocol.ParsePayload[protocol.StatePayload](got)
	require.NoError(t, err)
	assert.Equal(t, "123456", payload.RoomCode)
	assert.Equal(t, uint64(7), payload.Version)
	require.NotNil(t, payload.State)
	assert.Equal(t, game.PhaseBetting, payload.State.Phase)
	assert.Equal(t, card.Spades, payload.State.Trump)
	assert.Len(t, payload.State.Players[0].Hand, 5)
	assert.Empty(t, payload.State.Players[1].Hand)
	assert.Equal(t, 5, payload.State.Players[1].HandSize)
}

func TestEncode_NoPayload(t *testing.T) {
	t.Parallel()

	msg := MustNewMessage(protocol.MsgLeaveRoom, nil)

	for _, enc := range []Encoding{JSON, Protobuf} {
		data, err := Encode(msg, enc)
		require.NoError(t, err)

		got, err := Decode(data, enc)
		require.NoError(t, err)
		assert.Equal(t, protocol.MsgLeaveRoom, got.Type)
		assert.Empty(t, got.Payload)
	}
}

func TestEncode_JSONHasNoTrailingNewline(t *testing.T) {
	t.Parallel()

	data, err := Encode(MustNewMessage(protocol.MsgPong, nil), JSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
	assert.NotEqual(t, byte('\n'), data[len(data)-1])
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("{not json"), JSON)
	assert.Error(t, err)

	_, err = Decode([]byte{0xff, 0xff, 0xff}, Protobuf)
	assert.Error(t, err)

	// A valid struct without a type field is rejected
	empty, err := Encode(&protocol.Message{}, Protobuf)
	require.NoError(t, err)
	_, err = Decode(empty, Protobuf)
	assert.Error(t, err)

	_, err = Encode(&protocol.Message{}, Encoding(9))
	assert.Error(t, err)
}
