package memory

import (
	"sort"
	"strings"
	"time"
)

// Record is one remembered fact about a user, keyed by the entity it was
// filed under.
type Record struct {
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
}

// UserMemory accumulates timestamped facts per entity for one session.
// Append-only during a session's lifetime; retrieval re-sorts by time
// instead of trusting append order.
type UserMemory map[string][]Record

// SelfMemory holds the persona's own static background facts per entity.
type SelfMemory = map[string][]string

// Seed builds an empty user memory template from the self-memory key set,
// so a fresh session files facts under the same entities the persona
// already knows about.
func Seed(self SelfMemory) UserMemory {
	um := make(UserMemory, len(self))
	for entity := range self {
		um[entity] = nil
	}
	return um
}

// Recall gathers context for the given entities.
//
// The self context is the deduplicated concatenation of the persona's
// background sentences for those entities. The user context merges every
// matching user record into one sequence sorted ascending by timestamp, so
// the recollection reads time-coherently no matter what order the entities
// were gathered in.
func Recall(entities []string, user UserMemory, self SelfMemory) (selfCtx, userCtx string) {
	seen := make(map[string]struct{})
	var selfParts []string
	var records []Record

	for _, entity := range entities {
		for _, sentence := range self[entity] {
			if _, dup := seen[sentence]; dup {
				continue
			}
			seen[sentence] = struct{}{}
			selfParts = append(selfParts, sentence)
		}
		records = append(records, user[entity]...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})

	userParts := make([]string, 0, len(records))
	for _, r := range records {
		userParts = append(userParts, r.Text)
	}

	return strings.Join(selfParts, ""), strings.Join(userParts, "")
}

// Commit appends one record per entity extracted from the user's own
// utterance. It runs unconditionally, once per turn; callers must not
// invoke it twice for the same incoming message.
func Commit(user UserMemory, entities []string, text string, now time.Time) {
	ts := now.Unix()
	for _, entity := range entities {
		user[entity] = append(user[entity], Record{Timestamp: ts, Text: text})
	}
}

// CommitBot appends one record per entity found in each generated reply.
// Callers gate this on the intent's write flag.
func CommitBot(user UserMemory, entitiesPerReply [][]string, replies []string, now time.Time) {
	ts := now.Unix()
	for i, reply := range replies {
		if i >= len(entitiesPerReply) {
			break
		}
		for _, entity := range entitiesPerReply[i] {
			user[entity] = append(user[entity], Record{Timestamp: ts, Text: reply})
		}
	}
}
