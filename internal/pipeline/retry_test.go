package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/treeline-ai/treeline/internal/oracle"
)

func TestIsRetryable(t *testing.T) {
	retryable := &oracle.RetryableError{StatusCode: 429, Message: "rate limited"}
	if !IsRetryable(retryable) {
		t.Error("RetryableError must be retryable")
	}
	if !IsRetryable(fmt.Errorf("extract chunk 2: %w", retryable)) {
		t.Error("wrapped RetryableError must be retryable")
	}
	if IsRetryable(errors.New("parse error")) {
		t.Error("plain errors must not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil must not be retryable")
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	for attempt := 0; attempt < 8; attempt++ {
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		d := Backoff(attempt)
		if d < base {
			t.Errorf("attempt %d: backoff %v below base %v", attempt, d, base)
		}
		if d > base+base/2 {
			t.Errorf("attempt %d: backoff %v exceeds base plus max jitter %v", attempt, d, base+base/2)
		}
	}
}
