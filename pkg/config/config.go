package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ModelSettings struct {
		Model       string  `yaml:"model"`
		Temperature float64 `yaml:"temperature"`
		TopP        float64 `yaml:"top_p"`
		StopMarker  string  `yaml:"stop_marker"`
	} `yaml:"model_settings"`
	Timeouts struct {
		NLUSeconds      float64 `yaml:"nlu_seconds"`
		GenerateSeconds float64 `yaml:"generate_seconds"`
	} `yaml:"timeouts"`
	MemorySettings struct {
		ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	} `yaml:"memory"`
	Drama struct {
		RulesDir         string `yaml:"rules_dir"`
		KeywordsFile     string `yaml:"keywords_file"`
		DefaultScenario  string `yaml:"default_scenario"`
		DefaultCharacter string `yaml:"default_character"`
		RefusalReply     string `yaml:"refusal_reply"`
		ClosingReply     string `yaml:"closing_reply"`
		SelfFraming      string `yaml:"self_framing"`
	} `yaml:"drama"`
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		config.applyDefaults()
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	config.applyDefaults()
	return config, nil
}

// applyDefaults fills any field the file left at its zero value.
func (c *Config) applyDefaults() {
	if c.ModelSettings.Model == "" {
		c.ModelSettings.Model = "gpt-4o-mini"
	}
	if c.ModelSettings.Temperature == 0 {
		c.ModelSettings.Temperature = 1
	}
	if c.ModelSettings.TopP == 0 {
		c.ModelSettings.TopP = 1
	}
	if c.ModelSettings.StopMarker == "" {
		c.ModelSettings.StopMarker = "”"
	}
	if c.Timeouts.NLUSeconds == 0 {
		c.Timeouts.NLUSeconds = 10
	}
	if c.Timeouts.GenerateSeconds == 0 {
		c.Timeouts.GenerateSeconds = 60
	}
	if c.MemorySettings.ConfidenceThreshold == 0 {
		c.MemorySettings.ConfidenceThreshold = 0.6
	}
	if c.Drama.RulesDir == "" {
		c.Drama.RulesDir = "rules"
	}
	if c.Drama.KeywordsFile == "" {
		c.Drama.KeywordsFile = "rules/keywords.txt"
	}
	if c.Drama.RefusalReply == "" {
		c.Drama.RefusalReply = "Let's change the subject, shall we?"
	}
	if c.Drama.ClosingReply == "" {
		c.Drama.ClosingReply = "The story has ended. Thank you for playing."
	}
	if c.Drama.SelfFraming == "" {
		c.Drama.SelfFraming = "What I remember: "
	}
}
