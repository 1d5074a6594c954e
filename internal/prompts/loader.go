// Package prompts loads declarative prompt configuration and assembles
// system prompts for the two chat modes.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed configs/*.yaml
var configsFS embed.FS

// Mode selects which prompt configuration drives a chat turn.
type Mode string

const (
	ModeOnboarding Mode = "onboarding"
	ModeBusiness   Mode = "business"
)

// DefaultLocale is used when a requested locale has no instruction block.
const DefaultLocale = "en"

// Config is the declarative prompt configuration for one mode.
type Config struct {
	Identity           string            `yaml:"identity"`
	Objective          string            `yaml:"objective"`
	Behavior           string            `yaml:"behavior"`
	Rules              []string          `yaml:"rules"`
	CompletionCriteria string            `yaml:"completion_criteria"`
	Languages          map[string]string `yaml:"languages"`
}

// Loader loads and caches prompt configs per mode.
type Loader struct {
	mu    sync.Mutex
	cache map[Mode]*Config
}

// NewLoader creates a prompt config loader over the embedded configs.
func NewLoader() *Loader {
	return &Loader{cache: make(map[Mode]*Config)}
}

// Load returns the config for the given mode, reading and caching it on first use.
func (l *Loader) Load(mode Mode) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cfg, ok := l.cache[mode]; ok {
		return cfg, nil
	}
	raw, err := configsFS.ReadFile(fmt.Sprintf("configs/%s.yaml", mode))
	if err != nil {
		return nil, fmt.Errorf("read prompt config %q: %w", mode, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse prompt config %q: %w", mode, err)
	}
	l.cache[mode] = &cfg
	return &cfg, nil
}

// BuildSystemPrompt assembles the final system prompt for a turn. The
// response shape itself is enforced by the structured-output schema, so no
// JSON-formatting instructions are emitted here.
func (l *Loader) BuildSystemPrompt(mode Mode, locale, trainingContext string, completed bool) (string, error) {
	cfg, err := l.Load(mode)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(cfg.Identity)
	b.WriteString("\n\n")
	b.WriteString(cfg.Objective)
	if cfg.Behavior != "" {
		b.WriteString("\n\n")
		b.WriteString(cfg.Behavior)
	}
	if len(cfg.Rules) > 0 {
		b.WriteString("\n\nRules:\n")
		for _, r := range cfg.Rules {
			b.WriteString("- ")
			b.WriteString(r)
			b.WriteString("\n")
		}
	}
	if instruction := l.languageInstruction(cfg, locale); instruction != "" {
		b.WriteString("\n")
		b.WriteString(instruction)
		b.WriteString("\n")
	}
	if trainingContext != "" {
		b.WriteString("\nKnown business context:\n")
		b.WriteString(trainingContext)
		b.WriteString("\n")
	}
	if mode == ModeOnboarding && !completed && cfg.CompletionCriteria != "" {
		b.WriteString("\n")
		b.WriteString(cfg.CompletionCriteria)
		b.WriteString("\n")
	}
	b.WriteString("\nYour response is delivered through a structured schema; fill its fields directly.")
	return b.String(), nil
}

func (l *Loader) languageInstruction(cfg *Config, locale string) string {
	if instruction, ok := cfg.Languages[locale]; ok {
		return instruction
	}
	return cfg.Languages[DefaultLocale]
}
