package locsync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// warnings returns a logger writing to buf and a func counting retry warnings.
func warnings() (*slog.Logger, func() int) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return logger, func() int {
		return strings.Count(buf.String(), "retrying provider call")
	}
}

func TestWithRetry(t *testing.T) {
	overloaded := &ProviderError{Message: "overloaded", Retryable: true}

	tests := []struct {
		name      string
		errs      []error // returned by successive calls; calls past the end succeed
		wantErr   bool
		wantCalls int
		wantWarns int
	}{
		{name: "first call succeeds", wantCalls: 1},
		{name: "transient failures", errs: []error{overloaded, overloaded}, wantCalls: 3, wantWarns: 2},
		{name: "wrapped retryable error", errs: []error{fmt.Errorf("batch 1: %w", overloaded)}, wantCalls: 2, wantWarns: 1},
		{
			name:      "retries exhausted",
			errs:      []error{overloaded, overloaded, overloaded, overloaded},
			wantErr:   true,
			wantCalls: 3,
			wantWarns: 2,
		},
		{
			name:      "permanent failure",
			errs:      []error{&ProviderError{Message: "invalid API key"}},
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:      "retryable error caused by cancellation",
			errs:      []error{&ProviderError{Message: "request aborted", Cause: context.Canceled, Retryable: true}},
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:      "retryable error caused by deadline",
			errs:      []error{&ProviderError{Message: "timed out", Cause: context.DeadlineExceeded, Retryable: true}},
			wantErr:   true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, count := warnings()
			cfg := RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Logger: logger}

			calls := 0
			got, err := WithRetry(context.Background(), cfg, func() (int, error) {
				calls++
				if calls <= len(tt.errs) {
					return 0, tt.errs[calls-1]
				}
				return calls, nil
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("WithRetry() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != calls {
				t.Errorf("WithRetry() = %d, want the value of the successful call %d", got, calls)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if n := count(); n != tt.wantWarns {
				t.Errorf("retry warnings = %d, want %d", n, tt.wantWarns)
			}
		})
	}
}

func TestWithRetry_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	calls := 0
	start := time.Now()
	_, err := WithRetry(ctx, cfg, func() (string, error) {
		calls++
		cancel()
		return "", &ProviderError{Message: "overloaded", Retryable: true}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("WithRetry waited %v after cancellation", elapsed)
	}
}

func TestWithRetry_CancelledBeforeFirstCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := WithRetry(ctx, DefaultRetryConfig(), func() (string, error) {
		calls++
		return "ok", nil
	})

	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("error = %v after %d calls, want context.Canceled and no calls", err, calls)
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: 350 * time.Millisecond}

	want := map[int]time.Duration{
		0:  100 * time.Millisecond,
		1:  200 * time.Millisecond,
		2:  350 * time.Millisecond,
		3:  350 * time.Millisecond,
		70: 350 * time.Millisecond,
	}
	for attempt, expected := range want {
		if got := cfg.backoff(attempt); got != expected {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, expected)
		}
	}
}

// flakyProvider fails its first failures calls with a retryable error and
// echoes the request texts afterwards.
type flakyProvider struct {
	failures int
	calls    int
}

func (p *flakyProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	p.calls++
	if p.calls <= p.failures {
		return nil, &ProviderError{Message: "temporary failure", Retryable: true}
	}
	return req.Texts, nil
}

func TestRetryableProvider(t *testing.T) {
	logger, count := warnings()
	inner := &flakyProvider{failures: 1}
	p := NewRetryableProvider(inner, RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Logger: logger})

	got, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Save"}, TargetLang: "de"})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(got) != 1 || got[0] != "Save" {
		t.Errorf("Translate() = %v", got)
	}
	if inner.calls != 2 || count() != 1 {
		t.Errorf("calls = %d, warnings = %d, want 2 and 1", inner.calls, count())
	}
}
