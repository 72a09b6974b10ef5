package bot

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/JadeGeek/Awada/pkg/config"
	"github.com/JadeGeek/Awada/pkg/filter"
	"github.com/JadeGeek/Awada/pkg/memory"
	"github.com/JadeGeek/Awada/pkg/rules"
	"github.com/JadeGeek/Awada/pkg/session"
	"github.com/JadeGeek/Awada/pkg/store"
)

// Handler is the dialogue orchestrator: it resolves the sender, filters
// disallowed text, runs the session state machine, recalls and writes
// memory, and executes the scenario's action sequence for each turn.
type Handler struct {
	cfg        *config.Config
	rules      *rules.Store
	filter     *filter.Filter
	classifier Classifier
	extractor  Extractor
	generator  Generator
	messenger  Messenger
	store      store.Store

	mu       sync.Mutex // guards the two maps, not the objects inside
	sessions map[string]*session.Session
	memories map[string]memory.UserMemory

	queue *Queue

	nluTimeout time.Duration
	genTimeout time.Duration
}

func NewHandler(cfg *config.Config, rs *rules.Store, f *filter.Filter, cl Classifier, ex Extractor, g Generator, m Messenger, st store.Store) *Handler {
	return &Handler{
		cfg:        cfg,
		rules:      rs,
		filter:     f,
		classifier: NewCachedClassifier(cl, 1000),
		extractor:  ex,
		generator:  g,
		messenger:  m,
		store:      st,
		sessions:   make(map[string]*session.Session),
		memories:   make(map[string]memory.UserMemory),
		queue:      NewQueue(),
		nluTimeout: time.Duration(cfg.Timeouts.NLUSeconds * float64(time.Second)),
		genTimeout: time.Duration(cfg.Timeouts.GenerateSeconds * float64(time.Second)),
	}
}

// RestoreSessions loads persisted sessions so a restart picks up every
// conversation where it left off. User memories are loaded lazily on the
// user's next message.
func (h *Handler) RestoreSessions() error {
	sessions, err := h.store.LoadSessions()
	if err != nil {
		return err
	}
	h.mu.Lock()
	for id, s := range sessions {
		h.sessions[id] = s
	}
	h.mu.Unlock()
	log.Printf("Restored %d sessions", len(sessions))
	return nil
}

// HandleMessage is the single entry point for inbound text. Director
// senders bypass the session state machine entirely; everyone else is
// queued onto their session's serial worker.
func (h *Handler) HandleMessage(userID, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if h.rules.Snapshot().IsDirector(userID) {
		h.handleDirector(userID, text)
		return
	}

	h.queue.Submit(userID, func() {
		h.processTurn(userID, text)
	})
}

func (h *Handler) send(userID, text string) {
	if err := h.messenger.Send(userID, text); err != nil {
		log.Printf("Error sending to %s: %v", userID, err)
	}
}

// getOrCreate returns the session and user memory for a user, creating
// both on first contact. A new user memory is seeded from the self-memory
// key set; a restored session reloads its memory from the store.
func (h *Handler) getOrCreate(userID string, snap *rules.Snapshot) (*session.Session, memory.UserMemory, bool) {
	h.mu.Lock()
	sess, ok := h.sessions[userID]
	um := h.memories[userID]
	h.mu.Unlock()

	created := false
	if !ok {
		sess = session.New(userID, h.cfg.Drama.DefaultScenario, h.cfg.Drama.DefaultCharacter)
		created = true
	}

	if um == nil {
		loaded, err := h.store.LoadUserMemory(userID)
		if err != nil {
			log.Printf("Error loading user memory for %s: %v", userID, err)
		}
		if loaded != nil {
			um = loaded
		} else {
			um = memory.Seed(snap.SelfMemory)
		}
	}

	h.mu.Lock()
	h.sessions[userID] = sess
	h.memories[userID] = um
	h.mu.Unlock()

	return sess, um, created
}

// processTurn runs one full dialogue turn. It executes on the session's
// serial worker, so everything it touches for this user is ordered.
func (h *Handler) processTurn(userID, text string) {
	snap := h.rules.Snapshot()

	// Disallowed content short-circuits before any further processing.
	if match, ok := h.filter.Scan(text); ok {
		log.Printf("Filter hit for %s: %q", userID, match)
		h.send(userID, h.cfg.Drama.RefusalReply)
		return
	}

	sess, um, created := h.getOrCreate(userID, snap)

	if created {
		if char, ok := h.character(snap, sess); ok && char.Welcome != "" {
			h.send(userID, char.Welcome)
		}
		if err := sess.Advance(session.StatusInProcess); err != nil {
			log.Printf("Error advancing session %s: %v", userID, err)
		}
		// The first message is consumed by the welcome flow.
		return
	}

	if sess.Status == session.StatusEndOfStory {
		h.send(userID, h.cfg.Drama.ClosingReply)
		return
	}
	if sess.Status == session.StatusWelcome {
		// A restored session that never got past its welcome.
		if err := sess.Advance(session.StatusInProcess); err != nil {
			log.Printf("Error advancing session %s: %v", userID, err)
		}
	}

	// While a director shadows this session, turns are forwarded instead
	// of generated. The flag is read under h.mu because directors flip it
	// from their own goroutine.
	h.mu.Lock()
	takeOver, takeOverBy := sess.TakeOver, sess.TakeOverBy
	h.mu.Unlock()
	if takeOver {
		forwarded := text
		if len(sess.TurnBuffer) > 0 {
			forwarded = text + "\n--- recent turn ---\n" + strings.Join(sess.TurnBuffer, "\n")
		}
		if err := h.messenger.Forward(userID, takeOverBy, forwarded); err != nil {
			log.Printf("Error forwarding %s to %s: %v", userID, takeOverBy, err)
		}
		return
	}

	intent := h.classify(userID, text)
	entities := h.extract(userID, text)
	flags := snap.IntentRules[intent]

	var selfCtx, userCtx string
	if flags.Read {
		selfCtx, userCtx = memory.Recall(entities, um, snap.SelfMemory)
	}

	sess.ResetTurn(text)

	var replies []string
	if char, ok := h.character(snap, sess); ok {
		replies = h.runActions(snap, sess, char, intent, text, entities, selfCtx, userCtx)
	} else {
		log.Printf("Session %s references missing scenario %q character %q", userID, sess.Scenario, sess.Character)
	}

	now := time.Now()
	memory.Commit(um, entities, text, now)

	if flags.Write && len(replies) > 0 {
		perReply := make([][]string, len(replies))
		for i, reply := range replies {
			perReply[i] = h.extract(userID, reply)
		}
		memory.CommitBot(um, perReply, replies, now)
	}
}

func (h *Handler) character(snap *rules.Snapshot, sess *session.Session) (rules.Character, bool) {
	characters, ok := snap.Scenarios[sess.Scenario]
	if !ok {
		return rules.Character{}, false
	}
	char, ok := characters[sess.Character]
	return char, ok
}

// runActions executes the intent's action sequence in order. Each reply is
// sent immediately and appended to the turn buffer before the next action,
// so later generative actions see earlier replies.
func (h *Handler) runActions(snap *rules.Snapshot, sess *session.Session, char rules.Character, intent, text string, entities []string, selfCtx, userCtx string) []string {
	var replies []string
	for i, act := range char.Actions[intent] {
		switch act.Kind {
		case rules.ActionLiteral:
			h.send(sess.UserID, act.Text)
			sess.AppendReply(act.Text)
			replies = append(replies, act.Text)

		case rules.ActionTerminal:
			h.send(sess.UserID, h.cfg.Drama.ClosingReply)
			if err := sess.Advance(session.StatusEndOfStory); err != nil {
				log.Printf("Error closing session %s: %v", sess.UserID, err)
			}
			return replies

		case rules.ActionGenerative:
			prompt := h.buildPrompt(sess, char, selfCtx, userCtx, text, entities, act.Text)
			ctx, cancel := context.WithTimeout(context.Background(), h.genTimeout)
			out, err := h.generator.Generate(ctx, prompt, h.cfg.ModelSettings.StopMarker)
			cancel()
			if err != nil || strings.TrimSpace(out) == "" {
				// Skip this single action, keep the rest of the sequence.
				log.Printf("Generation skipped: user=%s intent=%s action=%d input=%q err=%v", sess.UserID, intent, i, text, err)
				continue
			}
			h.send(sess.UserID, out)
			sess.AppendReply(out)
			replies = append(replies, out)
		}
	}
	return replies
}

// buildPrompt concatenates the generation context in fixed order: framed
// self memory, the scenario description, user memory, the turn buffer, the
// character name, the utterance, the first matching entity addendum, and
// the action's own fragment.
func (h *Handler) buildPrompt(sess *session.Session, char rules.Character, selfCtx, userCtx, text string, entities []string, fragment string) string {
	parts := make([]string, 0, 8)
	if selfCtx != "" {
		parts = append(parts, h.cfg.Drama.SelfFraming+selfCtx)
	}
	parts = append(parts, char.Description)
	if userCtx != "" {
		parts = append(parts, userCtx)
	}
	if len(sess.TurnBuffer) > 0 {
		parts = append(parts, strings.Join(sess.TurnBuffer, "\n"))
	}
	parts = append(parts, sess.Character)
	parts = append(parts, text)
	for _, entity := range entities {
		if add, ok := char.Addenda[entity]; ok {
			parts = append(parts, add)
			break
		}
	}
	if fragment != "" {
		parts = append(parts, fragment)
	}
	return strings.Join(parts, "\n")
}

// classify degrades to an empty intent on failure: the turn continues with
// an empty action sequence and no memory read/write flags.
func (h *Handler) classify(userID, text string) string {
	ctx, cancel := context.WithTimeout(context.Background(), h.nluTimeout)
	defer cancel()

	intent, score, err := h.classifier.Classify(ctx, text)
	if err != nil {
		log.Printf("Error classifying for %s: %v (input %q)", userID, err, text)
		return ""
	}
	log.Printf("Intent for %s: %s (%.2f)", userID, intent, score)
	return intent
}

// extract returns thresholded, deduplicated entities in extraction order.
func (h *Handler) extract(userID, text string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), h.nluTimeout)
	defer cancel()

	raw, err := h.extractor.Extract(ctx, text)
	if err != nil {
		log.Printf("Error extracting entities for %s: %v (input %q)", userID, err, text)
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	var entities []string
	for _, e := range raw {
		if e.Confidence < h.cfg.MemorySettings.ConfidenceThreshold {
			continue
		}
		value := strings.TrimSpace(e.Value)
		if value == "" {
			continue
		}
		if _, dup := seen[value]; dup {
			continue
		}
		seen[value] = struct{}{}
		entities = append(entities, value)
	}
	return entities
}

// Wait blocks until every queued turn has drained. Used by tests and
// shutdown.
func (h *Handler) Wait() {
	h.queue.Flush()
}
