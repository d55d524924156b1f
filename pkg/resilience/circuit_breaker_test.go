package resilience

import (
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream down")

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("amap", 3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}
	if err := cb.Call(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("open breaker should fast-fail, got %v", err)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker("amap", 1, 10*time.Millisecond)

	_ = cb.Call(func() error { return errUpstream })
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// 半开期间连续成功后回到 Closed
	for i := 0; i < 3; i++ {
		if err := cb.Call(func() error { return nil }); err != nil {
			t.Fatalf("half-open call %d: %v", i, err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("amap", 1, 10*time.Millisecond)

	_ = cb.Call(func() error { return errUpstream })
	time.Sleep(20 * time.Millisecond)

	_ = cb.Call(func() error { return errUpstream })
	if cb.State() != StateOpen {
		t.Errorf("state = %v, want reopened", cb.State())
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("amap", 2, time.Minute)

	_ = cb.Call(func() error { return errUpstream })
	_ = cb.Call(func() error { return nil })
	_ = cb.Call(func() error { return errUpstream })
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed (failures not consecutive)", cb.State())
	}
}
