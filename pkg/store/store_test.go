package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JadeGeek/Awada/pkg/memory"
	"github.com/JadeGeek/Awada/pkg/session"
)

func TestMemStoreSessions(t *testing.T) {
	st := NewMemStore()

	s := session.New("user-1", "teahouse", "keeper")
	s.ResetTurn("hello")
	require.NoError(t, st.SaveSession(s))

	// Mutating the live session must not leak into the stored copy.
	s.AppendReply("leaked?")

	loaded, err := st.LoadSessions()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, session.StatusWelcome, loaded["user-1"].Status)
	assert.Equal(t, []string{"hello"}, loaded["user-1"].TurnBuffer)
}

func TestMemStoreUserMemory(t *testing.T) {
	st := NewMemStore()

	mem, err := st.LoadUserMemory("nobody")
	require.NoError(t, err)
	assert.Nil(t, mem)

	um := memory.UserMemory{
		"tea": {{Timestamp: 1, Text: "likes tea"}},
	}
	require.NoError(t, st.SaveUserMemory("user-1", um))

	um["tea"] = append(um["tea"], memory.Record{Timestamp: 2, Text: "leaked?"})

	loaded, err := st.LoadUserMemory("user-1")
	require.NoError(t, err)
	require.Len(t, loaded["tea"], 1)
	assert.Equal(t, "likes tea", loaded["tea"][0].Text)
}

func TestRowsFrom(t *testing.T) {
	t.Run("Wrapped Rows", func(t *testing.T) {
		result := []interface{}{
			map[string]interface{}{
				"result": []interface{}{
					map[string]interface{}{"user_id": "u1", "data": "{}"},
				},
			},
		}
		rows := rowsFrom(result)
		require.Len(t, rows, 1)
	})

	t.Run("Bare Rows", func(t *testing.T) {
		result := []interface{}{
			map[string]interface{}{"user_id": "u1", "data": "{}"},
		}
		rows := rowsFrom(result)
		require.Len(t, rows, 1)
	})

	t.Run("Empty", func(t *testing.T) {
		assert.Nil(t, rowsFrom(nil))
		assert.Nil(t, rowsFrom([]interface{}{}))
		assert.Nil(t, rowsFrom("garbage"))
	})
}

func TestRowPayload(t *testing.T) {
	userID, data, ok := rowPayload(map[string]interface{}{"user_id": "u1", "data": `{"a":1}`})
	assert.True(t, ok)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, `{"a":1}`, data)

	_, _, ok = rowPayload(map[string]interface{}{"data": "{}"})
	assert.False(t, ok)

	_, _, ok = rowPayload("not a map")
	assert.False(t, ok)
}
