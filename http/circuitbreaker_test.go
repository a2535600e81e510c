package http

import (
	"errors"
	"testing"
	"time"
)

func testBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold:    3,
		RecoveryTimeout:     20 * time.Millisecond,
		HalfOpenMaxRequests: 1,
	}
}

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	host := "example.com"

	for i := 0; i < 3; i++ {
		if err := cb.Allow(host); err != nil {
			t.Fatalf("failure %d: expected request allowed, got %v", i, err)
		}
		cb.RecordFailure(host, errors.New("connection refused"))
	}

	if got := cb.State(host); got != CircuitOpen {
		t.Errorf("expected open circuit, got %s", got)
	}
	if err := cb.Allow(host); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreakerStaysClosedBelowThreshold(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	host := "example.com"

	cb.RecordFailure(host, errors.New("timeout"))
	cb.RecordFailure(host, errors.New("timeout"))

	if got := cb.State(host); got != CircuitClosed {
		t.Errorf("expected closed circuit, got %s", got)
	}
	if err := cb.Allow(host); err != nil {
		t.Errorf("expected request allowed, got %v", err)
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	host := "example.com"

	cb.RecordFailure(host, errors.New("timeout"))
	cb.RecordFailure(host, errors.New("timeout"))
	cb.RecordSuccess(host)
	cb.RecordFailure(host, errors.New("timeout"))
	cb.RecordFailure(host, errors.New("timeout"))

	if got := cb.State(host); got != CircuitClosed {
		t.Errorf("expected closed circuit after reset, got %s", got)
	}
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	host := "example.com"

	for i := 0; i < 3; i++ {
		cb.RecordFailure(host, errors.New("timeout"))
	}
	if got := cb.State(host); got != CircuitOpen {
		t.Fatalf("expected open circuit, got %s", got)
	}

	time.Sleep(25 * time.Millisecond)

	// First request after the recovery timeout is the test request.
	if err := cb.Allow(host); err != nil {
		t.Fatalf("expected test request allowed, got %v", err)
	}
	if got := cb.State(host); got != CircuitHalfOpen {
		t.Errorf("expected half-open circuit, got %s", got)
	}

	// Only one test request fits; the next is rejected.
	if err := cb.Allow(host); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected second half-open request rejected, got %v", err)
	}

	cb.RecordSuccess(host)
	if got := cb.State(host); got != CircuitClosed {
		t.Errorf("expected closed circuit after recovery, got %s", got)
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())
	host := "example.com"

	for i := 0; i < 3; i++ {
		cb.RecordFailure(host, errors.New("timeout"))
	}

	time.Sleep(25 * time.Millisecond)

	if err := cb.Allow(host); err != nil {
		t.Fatalf("expected test request allowed, got %v", err)
	}
	cb.RecordFailure(host, errors.New("timeout"))

	if got := cb.State(host); got != CircuitOpen {
		t.Errorf("expected circuit reopened, got %s", got)
	}
	if err := cb.Allow(host); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreakerIgnoresPermanentErrors(t *testing.T) {
	errPermanent := errors.New("video not found")
	cfg := testBreakerConfig()
	cfg.IsTransientError = func(err error) bool {
		return !errors.Is(err, errPermanent)
	}

	cb := NewCircuitBreaker(cfg)
	host := "example.com"

	for i := 0; i < 10; i++ {
		cb.RecordFailure(host, errPermanent)
	}

	if got := cb.State(host); got != CircuitClosed {
		t.Errorf("expected permanent errors ignored, got %s", got)
	}
}

func TestCircuitBreakerPerHostIsolation(t *testing.T) {
	cb := NewCircuitBreaker(testBreakerConfig())

	for i := 0; i < 3; i++ {
		cb.RecordFailure("bad.example.com", errors.New("timeout"))
	}

	if got := cb.State("bad.example.com"); got != CircuitOpen {
		t.Errorf("expected bad host open, got %s", got)
	}
	if err := cb.Allow("good.example.com"); err != nil {
		t.Errorf("expected other host unaffected, got %v", err)
	}
}

func TestCircuitStateString(t *testing.T) {
	tests := []struct {
		state CircuitState
		want  string
	}{
		{CircuitClosed, "closed"},
		{CircuitOpen, "open"},
		{CircuitHalfOpen, "half-open"},
		{CircuitState(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("CircuitState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
