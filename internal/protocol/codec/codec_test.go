package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/chess-memory/internal/protocol"
)

func TestNewMessage(t *testing.T) {
	t.Parallel()

	msg, err := NewMessage(protocol.MsgFlipTile, protocol.FlipTilePayload{Index: 12})
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgFlipTile, msg.Type)
	assert.JSONEq(t, `{"index":12}`, string(msg.Payload))

	empty, err := NewMessage(protocol.MsgMatchTiles, nil)
	require.NoError(t, err)
	assert.Nil(t, empty.Payload)
}

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	original := MustNewMessage(protocol.MsgApplyMove, protocol.ApplyMovePayload{From: "e7", To: "e8", Promotion: "q"})

	data, err := Encode(original)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	decoded, err := Decode(data)
	require.NoError(t, err)
	defer PutMessage(decoded)

	assert.Equal(t, original.Type, decoded.Type)
	move, err := ParsePayload[protocol.ApplyMovePayload](decoded)
	require.NoError(t, err)
	assert.Equal(t, "e8", move.To)
	assert.Equal(t, "q", move.Promotion)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := Decode([]byte("{not json"))
	assert.Error(t, err)
}

func TestParsePayload_Empty(t *testing.T) {
	t.Parallel()

	payload, err := ParsePayload[protocol.PingPayload](&protocol.Message{Type: protocol.MsgPing})
	require.NoError(t, err)
	assert.Zero(t, payload.Timestamp)
}

func TestMustNewMessage_Panics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustNewMessage(protocol.MsgChat, make(chan int))
	})
}

func TestNewErrorMessage(t *testing.T) {
	t.Parallel()

	msg := NewErrorMessage(protocol.ErrCodeRoomFull)
	assert.Equal(t, protocol.MsgError, msg.Type)

	payload, err := ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeRoomFull, payload.Code)
	assert.Equal(t, protocol.ErrorMessages[protocol.ErrCodeRoomFull], payload.Message)
}
