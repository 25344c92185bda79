// Package explain produces optional natural-language text for recommendations
// and study plans. Generation is best effort: every caller supplies
// deterministic fallback text used whenever the backend is disabled, slow, or
// failing.
package explain

import (
	"context"
	"errors"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/config"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/llm"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/logging"
	"github.com/Bultut-yegon/Vocalearn-lms/internal/metrics"
)

// Provider generates text when it can. ok is false when no text was produced.
type Provider interface {
	TryGenerate(ctx context.Context, prompt string) (text string, ok bool)
}

// Disabled never produces text.
type Disabled struct{}

func (Disabled) TryGenerate(context.Context, string) (string, bool) { return "", false }

var errEmptyOutput = errors.New("empty generation")

// Options tunes an LLM-backed provider.
type Options struct {
	Timeout         time.Duration
	MaxTokens       int
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// LLM wraps an llm.Provider with a per-call timeout and a circuit breaker.
type LLM struct {
	provider llm.Provider
	cb       *gobreaker.CircuitBreaker[string]
	opts     Options
}

// NewLLM creates an LLM-backed explanation provider.
func NewLLM(p llm.Provider, opts Options) *LLM {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 300
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 3
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = time.Minute
	}

	const name = "explanation-llm"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    5 * time.Minute,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return &LLM{provider: p, cb: cb, opts: opts}
}

// TryGenerate asks the backend for text, giving up after the configured
// timeout. Errors are logged and never returned.
func (l *LLM) TryGenerate(ctx context.Context, prompt string) (string, bool) {
	text, err := l.cb.Execute(func() (string, error) {
		ctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
		defer cancel()

		out, err := l.provider.Generate(ctx, prompt, l.opts.MaxTokens)
		if err != nil {
			return "", err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return "", errEmptyOutput
		}
		return out, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Debug().Err(err).Msg("Explanation skipped, circuit open")
		} else {
			logging.Warn().Err(err).Msg("Explanation generation failed")
		}
		return "", false
	}
	return text, true
}

// State reports the breaker state, for health endpoints.
func (l *LLM) State() string {
	return l.cb.State().String()
}

// FromConfig builds the provider described by cfg. It returns Disabled when
// explanations are off or no backend is reachable.
func FromConfig(cfg config.Explanation) Provider {
	if !cfg.Enabled {
		return Disabled{}
	}
	p := llm.CreateProvider(llm.ProviderConfig{
		Provider:        cfg.Provider,
		Model:           cfg.Model,
		OllamaURL:       cfg.OllamaURL,
		OpenAIModel:     cfg.OpenAIModel,
		APIKeyEnv:       cfg.APIKeyEnv,
		AnthropicModel:  cfg.AnthropicModel,
		AnthropicKeyEnv: cfg.AnthropicKeyEnv,
	})
	if p == nil {
		return Disabled{}
	}
	return NewLLM(p, Options{
		Timeout:         cfg.Timeout,
		MaxTokens:       cfg.MaxTokens,
		BreakerFailures: cfg.BreakerFailures,
		BreakerCooldown: cfg.BreakerCooldown,
	})
}

// Text returns generated text for prompt, or fallback when p produced none.
// kind labels the metric.
func Text(ctx context.Context, p Provider, kind, prompt, fallback string) (string, bool) {
	if p == nil {
		metrics.RecordExplanation(kind, false)
		return fallback, false
	}
	if out, ok := p.TryGenerate(ctx, prompt); ok {
		metrics.RecordExplanation(kind, true)
		return out, true
	}
	metrics.RecordExplanation(kind, false)
	return fallback, false
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
