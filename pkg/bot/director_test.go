package bot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JadeGeek/Awada/pkg/config"
)

func lastSentTo(fx *fixture, userID string) string {
	sends := fx.msg.sentTo(userID)
	if len(sends) == 0 {
		return ""
	}
	return sends[len(sends)-1]
}

func TestDirectorDing(t *testing.T) {
	fx := newFixture(t)
	fx.h.HandleMessage("director-1", "ding")
	assert.Equal(t, "dong -- Awada", lastSentTo(fx, "director-1"))
}

func TestDirectorHelpAndUnknown(t *testing.T) {
	fx := newFixture(t)

	fx.h.HandleMessage("director-1", "help")
	assert.Contains(t, lastSentTo(fx, "director-1"), "reload <table>")

	fx.h.HandleMessage("director-1", "abracadabra")
	assert.Contains(t, lastSentTo(fx, "director-1"), "Unknown command")
}

func TestDirectorBypassesStateMachine(t *testing.T) {
	fx := newFixture(t)
	fx.h.HandleMessage("director-1", "ding")
	// No session is ever created for a director.
	assert.Nil(t, fx.session("director-1"))
}

func TestDirectorSave(t *testing.T) {
	fx := newFixture(t)
	fx.begin("user-1")
	fx.begin("user-2")

	fx.h.HandleMessage("director-1", "save")
	assert.Contains(t, lastSentTo(fx, "director-1"), "saved 2 sessions")

	loaded, err := fx.st.LoadSessions()
	require.NoError(t, err)
	assert.Len(t, loaded, 2)

	mem, err := fx.st.LoadUserMemory("user-1")
	require.NoError(t, err)
	assert.Contains(t, mem, "tea")
}

func TestDirectorReload(t *testing.T) {
	fx := newFixture(t)
	dir := t.TempDir()
	fx.cfg.Drama.RulesDir = dir

	t.Run("Valid Directors Reload", func(t *testing.T) {
		path := filepath.Join(dir, config.DirectorsFile)
		require.NoError(t, os.WriteFile(path, []byte("- director-1\n- director-9\n"), 0o644))

		fx.h.HandleMessage("director-1", "reload directors")
		assert.Contains(t, lastSentTo(fx, "director-1"), "reloaded directors")
		assert.True(t, fx.h.rules.Snapshot().IsDirector("director-9"))
	})

	t.Run("Invalid Scenarios Leave Snapshot Untouched", func(t *testing.T) {
		// The new table references an intent absent from the intent
		// rules, so validation must reject the swap wholesale.
		path := filepath.Join(dir, config.ScenariosFile)
		require.NoError(t, os.WriteFile(path, []byte(`
teahouse:
  keeper:
    description: A keeper.
    actions:
      never-heard-of-it:
        - "S reply"
`), 0o644))

		before := fx.h.rules.Snapshot()
		fx.h.HandleMessage("director-1", "reload scenarios")

		assert.Contains(t, lastSentTo(fx, "director-1"), "rejected")
		assert.Same(t, before, fx.h.rules.Snapshot())

		// Live sessions keep working against the old scenarios.
		fx.begin("user-1")
		fx.nlu.intents["still here?"] = "interr"
		fx.say("user-1", "still here?")
		assert.Contains(t, fx.msg.sentTo("user-1"), "A fair question.")
	})

	t.Run("Unparseable Table Reports Failure", func(t *testing.T) {
		path := filepath.Join(dir, config.IntentRulesFile)
		require.NoError(t, os.WriteFile(path, []byte(":::not yaml"), 0o644))

		before := fx.h.rules.Snapshot()
		fx.h.HandleMessage("director-1", "reload intent-rules")
		assert.Contains(t, lastSentTo(fx, "director-1"), "failed")
		assert.Same(t, before, fx.h.rules.Snapshot())
	})

	t.Run("Unknown Table", func(t *testing.T) {
		fx.h.HandleMessage("director-1", "reload nonsense")
		assert.Contains(t, lastSentTo(fx, "director-1"), "unknown table")
	})
}

func TestTakeOverForwardsTurns(t *testing.T) {
	fx := newFixture(t)
	fx.begin("user-1")

	fx.h.HandleMessage("director-1", "take over user-1")
	assert.Contains(t, lastSentTo(fx, "director-1"), "taking over user-1")

	genBefore := fx.gen.promptCount()
	fx.say("user-1", "is anyone there?")

	// Forwarded to the director, no generation call.
	require.Len(t, fx.msg.forwards, 1)
	assert.Equal(t, "director-1", fx.msg.forwards[0].userID)
	assert.Contains(t, fx.msg.forwards[0].text, "is anyone there?")
	assert.Equal(t, genBefore, fx.gen.promptCount())

	// Off restores automated handling on the next turn.
	fx.h.HandleMessage("director-1", "take over off user-1")
	fx.nlu.intents["and now?"] = "interr"
	fx.say("user-1", "and now?")
	assert.Greater(t, fx.gen.promptCount(), genBefore)
}

func TestTakeOverIsPerSession(t *testing.T) {
	fx := newFixture(t)
	fx.begin("user-1")
	fx.begin("user-2")

	fx.h.HandleMessage("director-1", "take over user-1")

	// The other session keeps generating.
	fx.nlu.intents["how about me?"] = "interr"
	fx.say("user-2", "how about me?")
	assert.Greater(t, fx.gen.promptCount(), 0)
	assert.Empty(t, fx.msg.forwards)

	fwBefore := len(fx.msg.forwards)
	fx.say("user-1", "hello?")
	assert.Len(t, fx.msg.forwards, fwBefore+1)
}

func TestTakeOverOffAll(t *testing.T) {
	fx := newFixture(t)
	fx.begin("user-1")
	fx.begin("user-2")

	fx.h.HandleMessage("director-1", "take over user-1")
	fx.h.HandleMessage("director-1", "take over user-2")

	fx.h.HandleMessage("director-1", "take over off")
	assert.Contains(t, lastSentTo(fx, "director-1"), "released 2 sessions")

	fx.nlu.intents["back?"] = "interr"
	fx.say("user-1", "back?")
	assert.Empty(t, fx.msg.forwards)
}

func TestTakeOverUnknownSession(t *testing.T) {
	fx := newFixture(t)
	fx.h.HandleMessage("director-1", "take over ghost")
	assert.Contains(t, lastSentTo(fx, "director-1"), "no session for ghost")
}
