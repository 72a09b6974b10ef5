package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	s := New("user-1", "teahouse", "keeper")
	assert.Equal(t, StatusWelcome, s.Status)
	assert.Empty(t, s.TurnBuffer)

	require.NoError(t, s.Advance(StatusInProcess))
	assert.Equal(t, StatusInProcess, s.Status)

	// Ordinary turns stay in_process.
	require.NoError(t, s.Advance(StatusInProcess))

	require.NoError(t, s.Advance(StatusEndOfStory))
	assert.Equal(t, StatusEndOfStory, s.Status)
}

func TestSessionNeverMovesBackwards(t *testing.T) {
	s := New("user-1", "teahouse", "keeper")
	require.NoError(t, s.Advance(StatusEndOfStory))

	assert.Error(t, s.Advance(StatusInProcess))
	assert.Error(t, s.Advance(StatusWelcome))
	assert.Equal(t, StatusEndOfStory, s.Status)

	assert.Error(t, s.Advance(Status("bogus")))
}

func TestTurnBuffer(t *testing.T) {
	s := New("user-1", "teahouse", "keeper")

	s.ResetTurn("hello there")
	s.AppendReply("well met")
	s.AppendReply("sit down")
	assert.Equal(t, []string{"hello there", "well met", "sit down"}, s.TurnBuffer)

	// A new turn replaces the buffer rather than growing it.
	s.ResetTurn("what happened next?")
	assert.Equal(t, []string{"what happened next?"}, s.TurnBuffer)
}
