package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"shellmate/internal/domain"
	"shellmate/internal/infra/logger"
)

// FixtureRule maps a query substring to a canned reply.
type FixtureRule struct {
	Contains string `yaml:"contains"`
	Reply    string `yaml:"reply"`
}

// fixtureFile is the on-disk shape of a fixture rule set.
type fixtureFile struct {
	Rules    []FixtureRule `yaml:"rules"`
	Fallback string        `yaml:"fallback,omitempty"`
}

const defaultFixtureFallback = domain.SentinelError + " I'm not sure how to handle that yet."

// DefaultFixtureRules is the built-in offline rule set.
var DefaultFixtureRules = []FixtureRule{
	{Contains: "open spotify", Reply: "open -a Spotify"},
	{Contains: "screenshot", Reply: "screencapture -i ~/Desktop/screenshot.png"},
	{Contains: "who is logged in", Reply: "whoami"},
	{Contains: "current directory", Reply: "pwd"},
	{Contains: "list files", Reply: "ls -la"},
	{Contains: "disk space", Reply: "df -h"},
	{Contains: "delete everything", Reply: domain.SentinelError + " refusing to delete files recursively."},
}

// FixtureProvider implements domain.CommandGenerator from a fixed rule list.
// Matching is a case-insensitive substring test, first rule wins. It never
// touches the network.
type FixtureProvider struct {
	rules    []FixtureRule
	fallback string
	logger   *slog.Logger
}

// NewFixtureProvider creates a provider over rules. A nil rules slice uses
// DefaultFixtureRules.
func NewFixtureProvider(rules []FixtureRule, log *slog.Logger) *FixtureProvider {
	if log == nil {
		log = logger.Discard()
	}
	if rules == nil {
		rules = DefaultFixtureRules
	}
	return &FixtureProvider{
		rules:    rules,
		fallback: defaultFixtureFallback,
		logger:   log,
	}
}

// LoadFixtureProvider reads rules from a YAML file:
//
//	rules:
//	  - contains: "who is logged in"
//	    reply: "whoami"
//	fallback: "ERROR: no rule matched"
func LoadFixtureProvider(path string, log *slog.Logger) (*FixtureProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	var f fixtureFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture file %s: %w", path, err)
	}
	for i, r := range f.Rules {
		if strings.TrimSpace(r.Contains) == "" {
			return nil, fmt.Errorf("fixture file %s: rule %d has empty contains", path, i)
		}
	}

	rules := f.Rules
	if rules == nil {
		rules = []FixtureRule{}
	}
	p := NewFixtureProvider(rules, log)
	if f.Fallback != "" {
		p.fallback = f.Fallback
	}
	return p, nil
}

// Generate implements domain.CommandGenerator.
func (p *FixtureProvider) Generate(_ context.Context, req domain.GenerateRequest) (string, error) {
	q := strings.ToLower(req.Query)
	for _, r := range p.rules {
		if strings.Contains(q, strings.ToLower(r.Contains)) {
			p.logger.Debug("fixture rule matched", "contains", r.Contains)
			return r.Reply, nil
		}
	}
	p.logger.Debug("fixture fallback", "query_len", len(req.Query))
	return p.fallback, nil
}

// Name implements domain.CommandGenerator.
func (p *FixtureProvider) Name() string { return "fixture" }

var _ domain.CommandGenerator = (*FixtureProvider)(nil)
