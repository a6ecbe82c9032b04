package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNoBoundary, "no closed outline among %d walls", 4)

	if err.Code != ErrCodeNoBoundary {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNoBoundary)
	}
	expected := "NO_BOUNDARY_FOUND: no closed outline among 4 walls"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("context deadline exceeded")
	err := Wrap(ErrCodeTimeout, cause, "placement")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() did not return the cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if got := err.Error(); got != "ANALYSIS_TIMEOUT: placement: context deadline exceeded" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodeAmbiguousPlan, "x"), ErrCodeAmbiguousPlan, true},
		{"other code", New(ErrCodeAmbiguousPlan, "x"), ErrCodeTimeout, false},
		{"wrapped by fmt", fmt.Errorf("analyze: %w", New(ErrCodeTimeout, "x")), ErrCodeTimeout, true},
		{"plain error", errors.New("x"), ErrCodeTimeout, false},
		{"nil", nil, ErrCodeTimeout, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	err := fmt.Errorf("batch job 3: %w", New(ErrCodeInvalidInput, "empty drawing"))
	if GetCode(err) != ErrCodeInvalidInput {
		t.Errorf("GetCode() = %v", GetCode(err))
	}
	if UserMessage(err) != "empty drawing" {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("plain errors have no code")
	}
}

func TestIsFatal(t *testing.T) {
	for _, c := range []Code{ErrCodeNoBoundary, ErrCodeAmbiguousPlan, ErrCodeTimeout} {
		if !c.IsFatal() {
			t.Errorf("%s should be fatal", c)
		}
	}
	for _, c := range []Code{ErrCodeParse, ErrCodeInsufficientSpace, ErrCodeCorridorUnreachable} {
		if c.IsFatal() {
			t.Errorf("%s should be a warning", c)
		}
	}
}

func TestWithDetails(t *testing.T) {
	err := New(ErrCodeAmbiguousPlan, "two candidates").WithDetails("cluster-0", "cluster-1")
	if len(err.Details) != 2 || err.Details[1] != "cluster-1" {
		t.Errorf("Details = %v", err.Details)
	}
}

func TestFromContext(t *testing.T) {
	if err := FromContext(context.Background(), "placement"); err != nil {
		t.Fatalf("live context: got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()
	if err := FromContext(ctx, "placement"); !Is(err, ErrCodeTimeout) {
		t.Errorf("expired deadline: got %v, want %s", err, ErrCodeTimeout)
	}

	ctx, cancel = context.WithCancel(context.Background())
	cancel()
	if err := FromContext(ctx, "placement"); !Is(err, ErrCodeCancelled) {
		t.Errorf("cancelled: got %v, want %s", err, ErrCodeCancelled)
	}
}
