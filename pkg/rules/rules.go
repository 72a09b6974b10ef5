package rules

import (
	"fmt"
	"strings"
)

// MemoryFlags controls whether a turn with this intent reads from and/or
// writes back to user memory.
type MemoryFlags struct {
	Read  bool `yaml:"read" json:"read"`
	Write bool `yaml:"write" json:"write"`
}

type ActionKind int

const (
	// ActionLiteral emits its text verbatim.
	ActionLiteral ActionKind = iota
	// ActionGenerative contributes its text as a prompt fragment for the
	// generation service.
	ActionGenerative
	// ActionTerminal closes the scenario for the session.
	ActionTerminal
)

// Action is one step of a scenario's reply sequence, parsed once at load
// time and never re-interpreted per turn.
type Action struct {
	Kind ActionKind `json:"kind"`
	Text string     `json:"text"`
}

// terminalMarker closes the story; genPrefix followed by a space (or alone)
// marks a generative action whose remainder is the prompt fragment. Anything
// else is a literal reply line. This is the compact encoding the scenario
// tables use.
const (
	terminalMarker = "END"
	genPrefix      = "S"
)

// ParseAction decodes one raw action string from a scenario table.
func ParseAction(raw string) (Action, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Action{}, fmt.Errorf("empty action")
	}
	if trimmed == terminalMarker {
		return Action{Kind: ActionTerminal}, nil
	}
	if trimmed == genPrefix {
		return Action{Kind: ActionGenerative}, nil
	}
	if strings.HasPrefix(trimmed, genPrefix+" ") {
		return Action{Kind: ActionGenerative, Text: strings.TrimSpace(trimmed[len(genPrefix):])}, nil
	}
	return Action{Kind: ActionLiteral, Text: trimmed}, nil
}

// Character is one playable persona inside a scenario.
type Character struct {
	Description string              `json:"description"`
	Welcome     string              `json:"welcome,omitempty"`
	Actions     map[string][]Action `json:"actions"` // intent -> reply sequence
	Addenda     map[string]string   `json:"addenda"` // entity -> prompt addendum
}

// Snapshot is one immutable generation of every rule table. It is replaced
// wholesale on reload and never mutated in place.
type Snapshot struct {
	IntentRules map[string]MemoryFlags
	Scenarios   map[string]map[string]Character // scenario -> character
	SelfMemory  map[string][]string             // entity -> background sentences
	Directors   map[string]struct{}
}

// Clone returns a snapshot sharing the current sub-tables. Callers replace
// whole fields before handing the result to Store.Replace; sub-tables are
// never mutated, so sharing is safe.
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{
		IntentRules: s.IntentRules,
		Scenarios:   s.Scenarios,
		SelfMemory:  s.SelfMemory,
		Directors:   s.Directors,
	}
}

// IsDirector reports whether the user id is in the privileged set.
func (s *Snapshot) IsDirector(userID string) bool {
	_, ok := s.Directors[userID]
	return ok
}

// Validate checks the structural invariants every snapshot must hold.
// A snapshot failing validation must never be installed.
func Validate(s *Snapshot) error {
	if s == nil {
		return fmt.Errorf("nil snapshot")
	}
	if len(s.Directors) == 0 {
		return fmt.Errorf("director set is empty")
	}
	if len(s.IntentRules) == 0 {
		return fmt.Errorf("intent rule table is empty")
	}
	if len(s.Scenarios) == 0 {
		return fmt.Errorf("scenario table is empty")
	}
	for scenario, characters := range s.Scenarios {
		if len(characters) == 0 {
			return fmt.Errorf("scenario %q has no characters", scenario)
		}
		for name, char := range characters {
			if strings.TrimSpace(char.Description) == "" {
				return fmt.Errorf("scenario %q character %q has no description", scenario, name)
			}
			for intent, seq := range char.Actions {
				if _, ok := s.IntentRules[intent]; !ok {
					return fmt.Errorf("scenario %q character %q references unknown intent %q", scenario, name, intent)
				}
				if len(seq) == 0 {
					return fmt.Errorf("scenario %q character %q has an empty sequence for intent %q", scenario, name, intent)
				}
			}
		}
	}
	return nil
}
