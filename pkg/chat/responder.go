package chat

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Responder produces the system reply to a visitor message.
type Responder interface {
	Reply(ctx context.Context, text string) string
}

//go:embed responses.yaml
var defaultRules []byte

type rule struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

type ruleFile struct {
	Rules    []rule `yaml:"rules"`
	Fallback string `yaml:"fallback"`
}

// KeywordResponder answers with the reply of the first rule whose keyword
// occurs in the message, or the fallback.
type KeywordResponder struct {
	rules    []rule
	fallback string
}

// DefaultResponder returns the built-in Turkish reply table.
func DefaultResponder() *KeywordResponder {
	r, err := ParseResponder(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("chat: embedded responses: %v", err))
	}
	return r
}

// LoadResponder reads a reply table from a YAML file.
func LoadResponder(path string) (*KeywordResponder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read responses: %w", err)
	}
	return ParseResponder(data)
}

func ParseResponder(data []byte) (*KeywordResponder, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse responses: %w", err)
	}
	if strings.TrimSpace(f.Fallback) == "" {
		return nil, fmt.Errorf("responses: fallback is required")
	}
	lower := cases.Lower(language.Turkish)
	for i, r := range f.Rules {
		if len(r.Keywords) == 0 || strings.TrimSpace(r.Reply) == "" {
			return nil, fmt.Errorf("responses: rule %d needs keywords and a reply", i)
		}
		for j, k := range r.Keywords {
			f.Rules[i].Keywords[j] = lower.String(k)
		}
	}
	return &KeywordResponder{rules: f.Rules, fallback: f.Fallback}, nil
}

func (k *KeywordResponder) Reply(_ context.Context, text string) string {
	// Casers keep state and cannot be shared across goroutines.
	text = cases.Lower(language.Turkish).String(text)
	for _, r := range k.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				return r.Reply
			}
		}
	}
	return k.fallback
}
