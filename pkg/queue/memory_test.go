package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue(t *testing.T) {
	q := NewInMemoryQueue(2)

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	assert.Equal(t, 2, q.Size())

	err := q.Enqueue("c")
	require.Error(t, err, "enqueue on a full queue fails instead of blocking")

	messages, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, messages)
	assert.Equal(t, 0, q.Size())

	require.NoError(t, q.Enqueue("d"))
	q.ClearQueue()
	assert.Equal(t, 0, q.Size())
}
