package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JadeGeek/Awada/pkg/rules"
)

// Rule-table file names inside the rules directory. Reload commands address
// tables by these files.
const (
	DirectorsFile   = "directors.yml"
	IntentRulesFile = "intent_rules.yml"
	SelfMemoryFile  = "self_memory.yml"
	ScenariosFile   = "scenarios.yml"
)

// LoadDirectors reads the privileged user id list.
func LoadDirectors(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directors: %w", err)
	}
	var ids []string
	if err := yaml.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse directors: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set, nil
}

// LoadIntentRules reads the per-intent memory read/write flags.
func LoadIntentRules(path string) (map[string]rules.MemoryFlags, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent rules: %w", err)
	}
	var table map[string]rules.MemoryFlags
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse intent rules: %w", err)
	}
	return table, nil
}

// LoadSelfMemory reads the persona's background facts, entity -> sentences.
func LoadSelfMemory(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read self memory: %w", err)
	}
	var table map[string][]string
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse self memory: %w", err)
	}
	return table, nil
}

// rawCharacter is the on-disk form of a character; action strings are parsed
// into tagged variants exactly once, here.
type rawCharacter struct {
	Description string              `yaml:"description"`
	Welcome     string              `yaml:"welcome"`
	Actions     map[string][]string `yaml:"actions"`
	Addenda     map[string]string   `yaml:"addenda"`
}

// LoadScenarios reads and parses the scenario/character rule table.
func LoadScenarios(path string) (map[string]map[string]rules.Character, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	var raw map[string]map[string]rawCharacter
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}

	table := make(map[string]map[string]rules.Character, len(raw))
	for scenario, characters := range raw {
		table[scenario] = make(map[string]rules.Character, len(characters))
		for name, rc := range characters {
			char := rules.Character{
				Description: rc.Description,
				Welcome:     rc.Welcome,
				Actions:     make(map[string][]rules.Action, len(rc.Actions)),
				Addenda:     rc.Addenda,
			}
			for intent, seq := range rc.Actions {
				actions := make([]rules.Action, 0, len(seq))
				for i, s := range seq {
					a, err := rules.ParseAction(s)
					if err != nil {
						return nil, fmt.Errorf("scenario %q character %q intent %q action %d: %w", scenario, name, intent, i, err)
					}
					actions = append(actions, a)
				}
				char.Actions[intent] = actions
			}
			table[scenario][name] = char
		}
	}
	return table, nil
}

// LoadKeywords reads the disallowed-phrase list, one phrase per line.
// Blank lines and #-comments are skipped.
func LoadKeywords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read keywords: %w", err)
	}
	defer f.Close()

	var phrases []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		phrases = append(phrases, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read keywords: %w", err)
	}
	return phrases, nil
}

// LoadSnapshot assembles a full rule snapshot from the rules directory.
// The result still has to pass rules.Validate before it can be installed.
func LoadSnapshot(rulesDir string) (*rules.Snapshot, error) {
	directors, err := LoadDirectors(filepath.Join(rulesDir, DirectorsFile))
	if err != nil {
		return nil, err
	}
	intents, err := LoadIntentRules(filepath.Join(rulesDir, IntentRulesFile))
	if err != nil {
		return nil, err
	}
	selfMem, err := LoadSelfMemory(filepath.Join(rulesDir, SelfMemoryFile))
	if err != nil {
		return nil, err
	}
	scenarios, err := LoadScenarios(filepath.Join(rulesDir, ScenariosFile))
	if err != nil {
		return nil, err
	}
	return &rules.Snapshot{
		IntentRules: intents,
		Scenarios:   scenarios,
		SelfMemory:  selfMem,
		Directors:   directors,
	}, nil
}
