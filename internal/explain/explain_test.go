package explain

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Bultut-yegon/Vocalearn-lms/internal/config"
)

type mockProvider struct {
	mu       sync.Mutex
	response string
	err      error
	delay    time.Duration
	calls    int
}

func (m *mockProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.response, m.err
}

func (m *mockProvider) IsConfigured() bool { return true }

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestTryGenerateSuccess(t *testing.T) {
	p := NewLLM(&mockProvider{response: "  Keep practicing wiring.  "}, Options{})
	text, ok := p.TryGenerate(context.Background(), "prompt")
	if !ok {
		t.Fatal("expected generation to succeed")
	}
	if text != "Keep practicing wiring." {
		t.Errorf("expected trimmed text, got %q", text)
	}
}

func TestTryGenerateEmptyOutput(t *testing.T) {
	p := NewLLM(&mockProvider{response: "   "}, Options{})
	if _, ok := p.TryGenerate(context.Background(), "prompt"); ok {
		t.Error("expected empty output to count as no text")
	}
}

func TestTryGenerateTimeout(t *testing.T) {
	p := NewLLM(&mockProvider{response: "late", delay: time.Second}, Options{Timeout: 20 * time.Millisecond})
	start := time.Now()
	if _, ok := p.TryGenerate(context.Background(), "prompt"); ok {
		t.Error("expected timeout to produce no text")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("expected call to return promptly after timeout")
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	m := &mockProvider{err: errors.New("backend down")}
	p := NewLLM(m, Options{BreakerFailures: 2, BreakerCooldown: time.Hour})

	for i := 0; i < 5; i++ {
		if _, ok := p.TryGenerate(context.Background(), "prompt"); ok {
			t.Fatal("expected failure")
		}
	}
	if m.callCount() != 2 {
		t.Errorf("expected breaker to stop calls after 2 failures, got %d calls", m.callCount())
	}
	if p.State() != "open" {
		t.Errorf("expected open breaker, got %s", p.State())
	}
}

func TestTextFallback(t *testing.T) {
	text, generated := Text(context.Background(), Disabled{}, "analysis", "prompt", "fallback text")
	if generated || text != "fallback text" {
		t.Errorf("expected fallback, got %q (generated=%v)", text, generated)
	}

	text, generated = Text(context.Background(), nil, "analysis", "prompt", "fallback text")
	if generated || text != "fallback text" {
		t.Errorf("expected fallback for nil provider, got %q", text)
	}
}

func TestFromConfigDisabled(t *testing.T) {
	p := FromConfig(config.Explanation{Enabled: false})
	if _, ok := p.(Disabled); !ok {
		t.Errorf("expected Disabled provider, got %T", p)
	}
}
