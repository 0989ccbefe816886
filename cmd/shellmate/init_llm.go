package main

import (
	"fmt"
	"log/slog"

	"shellmate/internal/adapter/llm"
	"shellmate/internal/domain"
	"shellmate/internal/infra/config"
)

// LLMComponents holds the generator registry and the selected generator.
type LLMComponents struct {
	Registry  *llm.Registry
	Generator domain.CommandGenerator
}

// initLLM registers every generator backend and selects the configured one.
func initLLM(cfg *config.Config, log *slog.Logger) (*LLMComponents, error) {
	registry := llm.NewRegistry()

	var fixture *llm.FixtureProvider
	if cfg.LLM.FixtureFile != "" {
		fp, err := llm.LoadFixtureProvider(cfg.LLM.FixtureFile, log)
		if err != nil {
			return nil, fmt.Errorf("fixture: %w", err)
		}
		fixture = fp
	} else {
		fixture = llm.NewFixtureProvider(nil, log)
	}

	cbCfg := cfg.LLM.CircuitBreaker
	for _, g := range []domain.CommandGenerator{
		llm.NewResponsesProvider(cfg.LLM, log),
		fixture,
	} {
		// Only the network-backed generator can trip a breaker.
		if cbCfg.Enabled && g.Name() != fixture.Name() {
			g = llm.NewCircuitBreakerProvider(g, cbCfg, log)
		}
		if err := registry.Register(g); err != nil {
			return nil, fmt.Errorf("register %s: %w", g.Name(), err)
		}
	}

	if cbCfg.Enabled {
		log.Info("llm circuit breaker enabled",
			"max_failures", cbCfg.MaxFailures,
			"timeout", cbCfg.Timeout,
			"interval", cbCfg.Interval,
		)
	}

	gen, err := registry.Get(cfg.LLM.Provider)
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}

	return &LLMComponents{Registry: registry, Generator: gen}, nil
}
