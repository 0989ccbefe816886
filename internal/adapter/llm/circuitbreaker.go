package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"shellmate/internal/domain"
	"shellmate/internal/infra/config"
	"shellmate/internal/infra/logger"
)

// Default circuit breaker settings.
const (
	defaultCBMaxFailures uint32        = 5
	defaultCBTimeout     time.Duration = 30 * time.Second
	defaultCBInterval    time.Duration = 60 * time.Second
)

// CircuitBreakerProvider wraps a CommandGenerator with circuit breaker
// protection. Once the backend fails repeatedly the circuit opens and calls
// fail fast without reaching it. Calls are never retried.
type CircuitBreakerProvider struct {
	inner   domain.CommandGenerator
	breaker *gobreaker.CircuitBreaker[string]
	logger  *slog.Logger
}

// NewCircuitBreakerProvider wraps inner with a circuit breaker.
// Zero-valued settings take the defaults.
func NewCircuitBreakerProvider(inner domain.CommandGenerator, cfg config.CircuitBreakerConfig, log *slog.Logger) *CircuitBreakerProvider {
	if log == nil {
		log = logger.Discard()
	}
	maxFailures := positiveOr(cfg.MaxFailures, defaultCBMaxFailures)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "llm:" + inner.Name(),
		MaxRequests: 1, // one trial request while half-open
		Interval:    positiveOr(cfg.Interval, defaultCBInterval),
		Timeout:     positiveOr(cfg.Timeout, defaultCBTimeout),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			return !isBackendFailure(err)
		},
	})

	return &CircuitBreakerProvider{
		inner:   inner,
		breaker: cb,
		logger:  log,
	}
}

// Generate implements domain.CommandGenerator.
func (p *CircuitBreakerProvider) Generate(ctx context.Context, req domain.GenerateRequest) (string, error) {
	text, err := p.breaker.Execute(func() (string, error) {
		return p.inner.Generate(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", domain.NewModelError("CircuitBreakerProvider.Generate", domain.ErrNetwork,
			"backend "+p.inner.Name()+" unavailable", err)
	}
	return text, err
}

// Name implements domain.CommandGenerator.
func (p *CircuitBreakerProvider) Name() string { return p.inner.Name() }

// State returns the current circuit breaker state.
func (p *CircuitBreakerProvider) State() gobreaker.State {
	return p.breaker.State()
}

// isBackendFailure reports whether err says the backend itself is unhealthy.
// Configuration and payload problems do not count.
func isBackendFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrNetwork) {
		return true
	}
	var me *domain.ModelError
	if errors.As(err, &me) && me.Kind == domain.ErrBadResponse {
		return me.StatusCode == 0 || me.StatusCode >= 500
	}
	return false
}

var _ domain.CommandGenerator = (*CircuitBreakerProvider)(nil)
