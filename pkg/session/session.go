package session

import "fmt"

// Status is the lifecycle stage of one user's conversation.
type Status string

const (
	StatusWelcome    Status = "welcome"
	StatusInProcess  Status = "in_process"
	StatusEndOfStory Status = "end_of_story"
)

// rank orders statuses so transitions can only move forward.
var rank = map[Status]int{
	StatusWelcome:    0,
	StatusInProcess:  1,
	StatusEndOfStory: 2,
}

// Session tracks one user's place in the drama. Sessions are created on the
// first message from an unseen user id and are never deleted, only
// persisted and restored.
type Session struct {
	UserID    string `json:"user_id"`
	Scenario  string `json:"scenario"`
	Character string `json:"character"`
	Status    Status `json:"status"`

	// TurnBuffer holds one cycle of dialogue: the current user line plus
	// the replies emitted in response. It is reset, not appended, at the
	// start of each incoming turn.
	TurnBuffer []string `json:"turn_buffer"`

	// TakeOver routes this session's turns to a director instead of the
	// generation service. Scoped to this session only.
	TakeOver   bool   `json:"take_over"`
	TakeOverBy string `json:"take_over_by,omitempty"`
}

// New creates a session in the welcome state.
func New(userID, scenario, character string) *Session {
	return &Session{
		UserID:    userID,
		Scenario:  scenario,
		Character: character,
		Status:    StatusWelcome,
	}
}

// Advance moves the session to a later status. Moving backwards is a
// programming error and is rejected.
func (s *Session) Advance(next Status) error {
	nr, ok := rank[next]
	if !ok {
		return fmt.Errorf("unknown status %q", next)
	}
	if nr < rank[s.Status] {
		return fmt.Errorf("cannot move session %s from %s back to %s", s.UserID, s.Status, next)
	}
	s.Status = next
	return nil
}

// ResetTurn starts a new dialogue cycle with the incoming user line.
func (s *Session) ResetTurn(userLine string) {
	s.TurnBuffer = []string{userLine}
}

// AppendReply records an emitted reply so later actions in the same
// sequence can reference it.
func (s *Session) AppendReply(text string) {
	s.TurnBuffer = append(s.TurnBuffer, text)
}
