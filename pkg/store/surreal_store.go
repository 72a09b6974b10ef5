package store

import (
	"encoding/json"
	"fmt"

	"github.com/JadeGeek/Awada/pkg/memory"
	"github.com/JadeGeek/Awada/pkg/session"
	"github.com/JadeGeek/Awada/pkg/surreal"
)

// SurrealStore is the durable store. Sessions and user memories are stored
// one row per user with the payload JSON-encoded in a string field, so the
// schema never has to chase the engine's types.
type SurrealStore struct {
	client *surreal.Client
}

func NewSurrealStore(client *surreal.Client) (*SurrealStore, error) {
	s := &SurrealStore{client: client}
	if err := s.init(); err != nil {
		return nil, fmt.Errorf("init surrealdb schema: %w", err)
	}
	return s, nil
}

func (s *SurrealStore) init() error {
	query := `
		DEFINE TABLE IF NOT EXISTS sessions SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS user_id ON sessions TYPE string;
		DEFINE FIELD IF NOT EXISTS data ON sessions TYPE string;
		DEFINE FIELD IF NOT EXISTS last_updated ON sessions TYPE int;

		DEFINE TABLE IF NOT EXISTS user_memories SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS user_id ON user_memories TYPE string;
		DEFINE FIELD IF NOT EXISTS data ON user_memories TYPE string;
		DEFINE FIELD IF NOT EXISTS last_updated ON user_memories TYPE int;
	`
	_, err := s.client.Query(query, map[string]interface{}{})
	return err
}

func (s *SurrealStore) upsert(table, userID string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s for %s: %w", table, userID, err)
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, data, last_updated)
		VALUES (type::thing("%s", $user_id), $user_id, $data, time::unix())
		ON DUPLICATE KEY UPDATE data = $data, last_updated = time::unix();
	`, table, table)
	_, err = s.client.Query(query, map[string]interface{}{
		"user_id": userID,
		"data":    string(data),
	})
	return err
}

func (s *SurrealStore) SaveSession(sess *session.Session) error {
	return s.upsert("sessions", sess.UserID, sess)
}

func (s *SurrealStore) LoadSessions() (map[string]*session.Session, error) {
	result, err := s.client.Query(`SELECT user_id, data FROM sessions;`, map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	sessions := make(map[string]*session.Session)
	for _, row := range rowsFrom(result) {
		userID, data, ok := rowPayload(row)
		if !ok {
			continue
		}
		var sess session.Session
		if err := json.Unmarshal([]byte(data), &sess); err != nil {
			return nil, fmt.Errorf("decode session for %s: %w", userID, err)
		}
		sessions[userID] = &sess
	}
	return sessions, nil
}

func (s *SurrealStore) SaveUserMemory(userID string, mem memory.UserMemory) error {
	return s.upsert("user_memories", userID, mem)
}

func (s *SurrealStore) LoadUserMemory(userID string) (memory.UserMemory, error) {
	result, err := s.client.Query(
		`SELECT user_id, data FROM type::thing("user_memories", $user_id);`,
		map[string]interface{}{"user_id": userID},
	)
	if err != nil {
		return nil, err
	}

	rows := rowsFrom(result)
	if len(rows) == 0 {
		return nil, nil
	}
	_, data, ok := rowPayload(rows[0])
	if !ok {
		return nil, nil
	}
	var mem memory.UserMemory
	if err := json.Unmarshal([]byte(data), &mem); err != nil {
		return nil, fmt.Errorf("decode memory for %s: %w", userID, err)
	}
	return mem, nil
}

// rowsFrom digs the result rows out of the driver's nested response shape:
// a slice of per-statement results, each a map with a "result" row list.
func rowsFrom(result interface{}) []interface{} {
	resSlice, ok := result.([]interface{})
	if !ok || len(resSlice) == 0 {
		return nil
	}
	for _, stmt := range resSlice {
		stmtMap, ok := stmt.(map[string]interface{})
		if !ok {
			continue
		}
		if rows, ok := stmtMap["result"].([]interface{}); ok {
			return rows
		}
	}
	// Some driver paths hand the rows back directly.
	if _, ok := resSlice[0].(map[string]interface{}); ok {
		return resSlice
	}
	return nil
}

func rowPayload(row interface{}) (userID, data string, ok bool) {
	rowMap, isMap := row.(map[string]interface{})
	if !isMap {
		return "", "", false
	}
	userID, _ = rowMap["user_id"].(string)
	data, ok = rowMap["data"].(string)
	return userID, data, ok && userID != ""
}
