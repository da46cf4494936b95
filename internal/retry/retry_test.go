package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bluecollarverse/media-pipeline/internal/mediaerr"
)

// fastPolicy mirrors Default but with test-friendly delays.
func fastPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    4 * time.Millisecond,
		Retryable:   mediaerr.Retryable,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "upload", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransientUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "download", func() error {
		calls++
		if calls < 3 {
			return mediaerr.New(mediaerr.KindStorageAccess, "transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	fault := mediaerr.New(mediaerr.KindStorageAccess, "still down")
	err := fastPolicy().Do(context.Background(), "upload", func() error {
		calls++
		return fault
	})
	if !errors.Is(err, fault) {
		t.Fatalf("Do error = %v, want the last fault", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (bounded attempts)", calls)
	}
}

func TestDoNeverRetriesValidation(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), "validate", func() error {
		calls++
		return mediaerr.New(mediaerr.KindValidation, "bad size")
	})
	if !mediaerr.IsKind(err, mediaerr.KindValidation) {
		t.Fatalf("Do error = %v, want validation", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (validation is never retried)", calls)
	}
}

func TestDoNeverRetriesNotFound(t *testing.T) {
	calls := 0
	fastPolicy().Do(context.Background(), "head", func() error {
		calls++
		return mediaerr.New(mediaerr.KindNotFound, "absent")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (not-found is never retried)", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Hour,
		MaxDelay:    time.Hour,
		Retryable:   mediaerr.Retryable,
	}
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, "upload", func() error {
		calls++
		return mediaerr.New(mediaerr.KindStorageAccess, "transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Do error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBackoffSchedule(t *testing.T) {
	p := Default()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 4 * time.Second},
		{2, 8 * time.Second},
		{3, 10 * time.Second}, // 16s capped at the ceiling
	}
	for _, tt := range tests {
		if got := p.backoff(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}
