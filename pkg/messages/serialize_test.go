package messages

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserializeMessage(t *testing.T) {
	payload, err := json.Marshal(&ServerSnapshot{Board: "2x2\ndown\ndown\ndown\ndown\n"})
	require.NoError(t, err)

	msg := &Message{
		PlayerID: "player1",
		Type:     MessageTypeServerSnapshot,
		Payload:  payload,
	}

	b, err := SerializeMessage(msg)
	require.NoError(t, err)

	got, err := DeserializeMessage(b)
	require.NoError(t, err)

	assert.Equal(t, msg.PlayerID, got.PlayerID)
	assert.Equal(t, msg.Type, got.Type)
	assert.JSONEq(t, string(msg.Payload), string(got.Payload))
}

func TestDeserializeMessageGarbage(t *testing.T) {
	_, err := DeserializeMessage([]byte("not a zstd frame"))
	assert.Error(t, err)
}
