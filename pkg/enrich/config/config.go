package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/enrich/pkg/enrich/internalerr"
)

// Config holds everything the enrichment binary needs.
type Config struct {
	Input  string    `yaml:"input"`
	Output string    `yaml:"output"`
	RunLog string    `yaml:"run_log"` // optional sqlite path; empty disables the run log
	LLM    LLMConfig `yaml:"llm"`
	Limits Limits    `yaml:"limits"`
}

// LLMConfig identifies the completion service. The credential itself is
// never read from the file, only from the environment variable it names.
type LLMConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	APIKey    string `yaml:"-"`
}

// Limits bound the prompt contract.
type Limits struct {
	MaxPromptChars int `yaml:"max_prompt_chars"`
	MaxTags        int `yaml:"max_tags"`
}

// Default returns the conventional configuration used when no file is given.
func Default() Config {
	return Config{
		Input:  "data/raw_posts.json",
		Output: "data/processed_posts.json",
		LLM: LLMConfig{
			BaseURL:   "https://api.groq.com/openai/v1/chat/completions",
			Model:     "llama-3.3-70b-versatile",
			APIKeyEnv: "GROQ_API_KEY",
		},
		Limits: Limits{
			MaxPromptChars: 2000,
			MaxTags:        2,
		},
	}
}

// Load reads the optional YAML file on top of the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ENRICH_INPUT"); v != "" {
		cfg.Input = v
	}
	if v := os.Getenv("ENRICH_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if cfg.LLM.APIKeyEnv != "" {
		cfg.LLM.APIKey = os.Getenv(cfg.LLM.APIKeyEnv)
	}
}

func (c Config) validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: input path required", internalerr.ErrInvalidConfig)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output path required", internalerr.ErrInvalidConfig)
	}
	if c.Limits.MaxPromptChars <= 0 {
		return fmt.Errorf("%w: max_prompt_chars must be positive", internalerr.ErrInvalidConfig)
	}
	if c.Limits.MaxTags <= 0 {
		return fmt.Errorf("%w: max_tags must be positive", internalerr.ErrInvalidConfig)
	}
	return nil
}
