package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeed(t *testing.T) {
	self := SelfMemory{
		"teahouse": {"The teahouse has stood for eighty years."},
		"keeper":   {"The keeper never left the mountain."},
	}
	um := Seed(self)
	assert.Len(t, um, 2)
	assert.Empty(t, um["teahouse"])
	assert.Empty(t, um["keeper"])
}

func TestRecallTimeAscending(t *testing.T) {
	user := UserMemory{
		"tea":    {{Timestamp: 30, Text: "C"}, {Timestamp: 10, Text: "A"}},
		"keeper": {{Timestamp: 20, Text: "B"}, {Timestamp: 40, Text: "D"}},
	}

	// The merged user context must be time-ascending no matter the
	// iteration order of the entity set.
	for _, entities := range [][]string{
		{"tea", "keeper"},
		{"keeper", "tea"},
	} {
		_, userCtx := Recall(entities, user, SelfMemory{})
		assert.Equal(t, "ABCD", userCtx)
	}
}

func TestRecallDeduplicatesSelfSentences(t *testing.T) {
	self := SelfMemory{
		"tea":    {"The house blend is jasmine.", "Water comes from the spring."},
		"spring": {"Water comes from the spring."},
	}

	selfCtx, _ := Recall([]string{"tea", "spring"}, UserMemory{}, self)
	assert.Equal(t, "The house blend is jasmine.Water comes from the spring.", selfCtx)
}

func TestRecallUnknownEntities(t *testing.T) {
	selfCtx, userCtx := Recall([]string{"nothing"}, UserMemory{}, SelfMemory{})
	assert.Equal(t, "", selfCtx)
	assert.Equal(t, "", userCtx)
}

func TestCommitAppendsAcrossTurns(t *testing.T) {
	user := UserMemory{}

	// Two sequential turns must strictly append, never overwrite.
	Commit(user, []string{"tea"}, "I drink tea every morning.", time.Unix(100, 0))
	Commit(user, []string{"tea"}, "Green tea, mostly.", time.Unix(200, 0))

	assert.Len(t, user["tea"], 2)
	assert.Equal(t, Record{Timestamp: 100, Text: "I drink tea every morning."}, user["tea"][0])
	assert.Equal(t, Record{Timestamp: 200, Text: "Green tea, mostly."}, user["tea"][1])
}

func TestCommitBot(t *testing.T) {
	user := UserMemory{}
	now := time.Unix(300, 0)

	CommitBot(user, [][]string{{"tea"}, {"mountain"}}, []string{"Try the house blend.", "The mountain path is closed."}, now)

	assert.Len(t, user["tea"], 1)
	assert.Equal(t, "Try the house blend.", user["tea"][0].Text)
	assert.Len(t, user["mountain"], 1)
	assert.Equal(t, int64(300), user["mountain"][0].Timestamp)
}

func TestCommitBotUnevenEntities(t *testing.T) {
	user := UserMemory{}
	// More replies than entity sets: the extras are skipped, not a panic.
	CommitBot(user, [][]string{{"tea"}}, []string{"a", "b"}, time.Unix(1, 0))
	assert.Len(t, user, 1)
}
