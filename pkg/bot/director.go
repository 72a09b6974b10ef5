package bot

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JadeGeek/Awada/pkg/config"
)

const helpText = `Director commands:
  ding                     liveness check
  help                     this text
  reload <table>           reload one of: directors, intent-rules, self-memory, scenarios
  save                     persist all sessions and user memories
  take over <user-id>      shadow a session: its turns come to you, generation pauses
  take over off <user-id>  hand the session back to the engine
  take over off            hand back every session you shadow`

// handleDirector interprets privileged control commands. Directors never
// enter the session state machine.
func (h *Handler) handleDirector(directorID, text string) {
	switch {
	case text == "ding":
		h.send(directorID, "dong -- Awada")

	case text == "help":
		h.send(directorID, helpText)

	case text == "save":
		h.send(directorID, h.saveAll())

	case strings.HasPrefix(text, "reload"):
		table := strings.TrimSpace(strings.TrimPrefix(text, "reload"))
		h.send(directorID, h.reload(table))

	case text == "take over off":
		h.send(directorID, h.releaseAll(directorID))

	case strings.HasPrefix(text, "take over off "):
		target := strings.TrimSpace(strings.TrimPrefix(text, "take over off "))
		h.send(directorID, h.setTakeOver(target, "", false))

	case strings.HasPrefix(text, "take over "):
		target := strings.TrimSpace(strings.TrimPrefix(text, "take over "))
		h.send(directorID, h.setTakeOver(target, directorID, true))

	default:
		h.send(directorID, "Unknown command.\n"+helpText)
	}
}

// reload swaps one rule table, leaving the snapshot untouched when the new
// table fails validation.
func (h *Handler) reload(table string) string {
	dir := h.cfg.Drama.RulesDir
	next := h.rules.Snapshot().Clone()

	switch table {
	case "directors":
		directors, err := config.LoadDirectors(filepath.Join(dir, config.DirectorsFile))
		if err != nil {
			return fmt.Sprintf("reload directors failed: %v", err)
		}
		next.Directors = directors
	case "intent-rules":
		intents, err := config.LoadIntentRules(filepath.Join(dir, config.IntentRulesFile))
		if err != nil {
			return fmt.Sprintf("reload intent-rules failed: %v", err)
		}
		next.IntentRules = intents
	case "self-memory":
		selfMem, err := config.LoadSelfMemory(filepath.Join(dir, config.SelfMemoryFile))
		if err != nil {
			return fmt.Sprintf("reload self-memory failed: %v", err)
		}
		next.SelfMemory = selfMem
	case "scenarios":
		scenarios, err := config.LoadScenarios(filepath.Join(dir, config.ScenariosFile))
		if err != nil {
			return fmt.Sprintf("reload scenarios failed: %v", err)
		}
		next.Scenarios = scenarios
	default:
		return fmt.Sprintf("unknown table %q; expected directors, intent-rules, self-memory or scenarios", table)
	}

	if err := h.rules.Replace(next); err != nil {
		return fmt.Sprintf("reload %s rejected: %v", table, err)
	}
	log.Printf("Reloaded rule table %s", table)
	return fmt.Sprintf("reloaded %s", table)
}

// saveAll persists every session and user memory through the store. Each
// session is flushed on its own serial worker so the saved state is never
// mid-turn.
func (h *Handler) saveAll() string {
	h.mu.Lock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.Unlock()

	var wg sync.WaitGroup
	var errMu sync.Mutex
	var failed int

	for _, id := range ids {
		id := id
		wg.Add(1)
		h.queue.Submit(id, func() {
			defer wg.Done()

			h.mu.Lock()
			sess := h.sessions[id]
			um := h.memories[id]
			h.mu.Unlock()

			if sess != nil {
				if err := h.store.SaveSession(sess); err != nil {
					log.Printf("Error saving session %s: %v", id, err)
					errMu.Lock()
					failed++
					errMu.Unlock()
					return
				}
			}
			if um != nil {
				if err := h.store.SaveUserMemory(id, um); err != nil {
					log.Printf("Error saving user memory %s: %v", id, err)
					errMu.Lock()
					failed++
					errMu.Unlock()
				}
			}
		})
	}
	wg.Wait()

	if failed > 0 {
		return fmt.Sprintf("saved %d sessions, %d failed (see log)", len(ids)-failed, failed)
	}
	return fmt.Sprintf("saved %d sessions", len(ids))
}

// setTakeOver flips take-over for one session. The change runs on the
// session's worker so it never lands mid-turn.
func (h *Handler) setTakeOver(target, directorID string, on bool) string {
	h.mu.Lock()
	sess := h.sessions[target]
	h.mu.Unlock()
	if sess == nil {
		return fmt.Sprintf("no session for %s", target)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	h.queue.Submit(target, func() {
		defer wg.Done()
		h.mu.Lock()
		sess.TakeOver = on
		sess.TakeOverBy = directorID
		h.mu.Unlock()
	})
	wg.Wait()

	if on {
		return fmt.Sprintf("taking over %s; their turns now come to you", target)
	}
	return fmt.Sprintf("released %s; automated handling restored", target)
}

// releaseAll turns take-over off for every session this director shadows.
func (h *Handler) releaseAll(directorID string) string {
	h.mu.Lock()
	var targets []string
	for id, sess := range h.sessions {
		if sess.TakeOver && sess.TakeOverBy == directorID {
			targets = append(targets, id)
		}
	}
	h.mu.Unlock()

	for _, id := range targets {
		h.setTakeOver(id, "", false)
	}
	return fmt.Sprintf("released %d sessions", len(targets))
}
