package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != BackoffLinear {
		t.Fatalf("expected linear default mode got %s", p.Mode)
	}
	if p.MaxRetries != 3 {
		t.Fatalf("expected max retries 3 got %d", p.MaxRetries)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != BackoffFixed || p.MaxRetries != 5 {
		t.Fatalf("unexpected policy %+v", p)
	}
	if q := NewPolicy("bogus", 0, 0, -1); q != DefaultPolicy() {
		t.Fatalf("invalid inputs should fall back to defaults, got %+v", q)
	}
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{"fixed", NewPolicy(BackoffFixed, 100*ms, 500*ms, 3), 3, 100 * ms},
		{"linear", NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 2, 200 * ms},
		{"linear capped", NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 3, 250 * ms},
		{"exponential", NewPolicy(BackoffExponential, 100*ms, time.Second, 5), 3, 400 * ms},
		{"exponential capped", NewPolicy(BackoffExponential, 100*ms, time.Second, 5), 5, time.Second},
		{"zero attempt", DefaultPolicy(), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	bad := []Policy{
		{Mode: BackoffLinear, Initial: 0, Max: time.Second},
		{Mode: BackoffLinear, Initial: time.Millisecond, Max: 0},
		{Mode: BackoffLinear, Initial: time.Millisecond, Max: time.Second, MaxRetries: -1},
	}
	for i, p := range bad {
		if p.Validate() == nil {
			t.Errorf("policy %d should be invalid", i)
		}
	}
}

var errBusy = errors.New("busy")

func TestDoRetriesRetryableErrors(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(t.Context(), func(err error) bool { return errors.Is(err, errBusy) }, func() error {
		calls++
		if calls < 3 {
			return errBusy
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("Do() = %v after %d calls, want nil after 3", err, calls)
	}
}

func TestDoStopsOnPermanentErrorAndExhaustion(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 2)
	permanent := errors.New("permanent")

	calls := 0
	err := p.Do(t.Context(), func(err error) bool { return errors.Is(err, errBusy) }, func() error {
		calls++
		return permanent
	})
	if !errors.Is(err, permanent) || calls != 1 {
		t.Fatalf("permanent error: got %v after %d calls", err, calls)
	}

	calls = 0
	err = p.Do(t.Context(), func(error) bool { return true }, func() error {
		calls++
		return errBusy
	})
	if !errors.Is(err, errBusy) || calls != 3 {
		t.Fatalf("exhaustion: got %v after %d calls, want 3", err, calls)
	}
}

func TestDoHonoursContext(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	calls := 0
	err := p.Do(ctx, func(error) bool { return true }, func() error {
		calls++
		return errBusy
	})
	if !errors.Is(err, errBusy) || calls != 1 {
		t.Fatalf("cancelled ctx: got %v after %d calls", err, calls)
	}
}
