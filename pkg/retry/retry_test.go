package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:    3,
		BackoffFactor: 2,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		Jitter:        time.Millisecond,
	}
}

func TestRetry_SuccessOnFirstTry(t *testing.T) {
	retrier := NewRetrier(fastConfig())

	attempts := 0
	err := retrier.Do(context.Background(), func() error {
		attempts++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	retrier := NewRetrier(fastConfig())

	attempts := 0
	err := retrier.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	config := fastConfig()
	config.MaxRetries = 2
	retrier := NewRetrier(config)

	permanent := errors.New("permanent")
	attempts := 0
	err := retrier.Do(context.Background(), func() error {
		attempts++
		return permanent
	})
	if !errors.Is(err, permanent) {
		t.Errorf("expected %v, got %v", permanent, err)
	}
	if attempts != 3 { // initial try + 2 retries
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retrier := NewRetrier(fastConfig())

	err := retrier.Do(ctx, func() error {
		cancel()
		return errors.New("failed while ctx was being cancelled")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetry_BackoffDelays(t *testing.T) {
	config := &Config{
		MaxRetries:    2,
		BackoffFactor: 2,
		InitialDelay:  20 * time.Millisecond,
		MaxDelay:      time.Second,
		Jitter:        5 * time.Millisecond,
	}
	retrier := NewRetrier(config)

	start := time.Now()
	attempts := 0
	_ = retrier.Do(context.Background(), func() error {
		attempts++
		return errors.New("always fails")
	})
	elapsed := time.Since(start)

	// two sleeps: 20ms and 40ms, each plus up to 5ms jitter
	if elapsed < 60*time.Millisecond {
		t.Errorf("backoff too short: %v", elapsed)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestNewWriteConfig(t *testing.T) {
	config := NewWriteConfig()
	if config.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", config.MaxRetries)
	}
	if config.InitialDelay >= config.MaxDelay {
		t.Error("initial delay must stay below the cap")
	}
}
