package translation

import (
	"testing"
	"time"
)

func TestDefaultRetryPolicy(t *testing.T) {
	p := DefaultRetryPolicy()
	if p.MaxRetries != 9 {
		t.Errorf("Expected 9 retries, got %d", p.MaxRetries)
	}
	if p.MaxAttempts() != 10 {
		t.Errorf("Expected 10 attempts, got %d", p.MaxAttempts())
	}
}

func TestRetryPolicy_Next(t *testing.T) {
	p := RetryPolicy{MaxRetries: 3, Step: time.Second}

	var delays []time.Duration
	attempt := 1
	for {
		retry, delay := p.Next(attempt)
		if !retry {
			break
		}
		delays = append(delays, delay)
		attempt++
	}

	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("Expected %d retries, got %d", len(want), len(delays))
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("Delay after attempt %d = %v, want %v", i+1, delays[i], want[i])
		}
	}
	if attempt != p.MaxAttempts() {
		t.Errorf("Expected to stop at attempt %d, stopped at %d", p.MaxAttempts(), attempt)
	}
}

func TestRetryPolicy_NoRetries(t *testing.T) {
	for _, p := range []RetryPolicy{{MaxRetries: 0}, {MaxRetries: -2}} {
		if p.MaxAttempts() != 1 {
			t.Errorf("Expected a single attempt for %+v, got %d", p, p.MaxAttempts())
		}
		if retry, _ := p.Next(1); retry {
			t.Errorf("Expected no retry for %+v", p)
		}
	}
}
