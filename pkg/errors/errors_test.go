package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "without cause",
			err:  New(ErrCodeMalformedInput, "group %q has an empty member id", "golang/go"),
			want: `MALFORMED_INPUT: group "golang/go" has an empty member id`,
		},
		{
			name: "with cause",
			err:  Wrap(ErrCodeNetwork, errors.New("connection reset"), "fetch contributors of %s", "golang/go"),
			want: "NETWORK_ERROR: fetch contributors of golang/go: connection reset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := Wrap(ErrCodeMalformedInput, cause, "decode membership")

	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
}

func TestCodeLookup(t *testing.T) {
	malformed := New(ErrCodeMalformedInput, "empty member")

	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{"structured", malformed, ErrCodeMalformedInput, "empty member"},
		{"wrapped with fmt", fmt.Errorf("project: %w", malformed), ErrCodeMalformedInput, "empty member"},
		{"outermost code wins", Wrap(ErrCodeInvalidInput, malformed, "upload"), ErrCodeInvalidInput, "upload"},
		{"rate limited", fmt.Errorf("search: %w", &RateLimitedError{RetryAfter: 5}), ErrCodeRateLimited, "search: rate limited: retry after 5 seconds"},
		{"plain", errors.New("disk full"), "", "disk full"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if tt.code != "" && tt.code != ErrCodeRateLimited && !Is(tt.err, tt.code) {
				t.Errorf("Is(err, %q) = false", tt.code)
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
		})
	}

	if Is(nil, ErrCodeInvalidInput) || GetCode(nil) != "" {
		t.Error("nil carries no code")
	}
	if Is(malformed, ErrCodeNetwork) {
		t.Error("Is matched the wrong code")
	}
}

func TestRateLimitedError(t *testing.T) {
	if got := (&RateLimitedError{RetryAfter: 60}).Error(); got != "rate limited: retry after 60 seconds" {
		t.Errorf("Error() = %q", got)
	}
	if got := (&RateLimitedError{}).Error(); got != "rate limited" {
		t.Errorf("Error() = %q", got)
	}
	if (&RateLimitedError{}).Code() != ErrCodeRateLimited {
		t.Error("Code() should be RATE_LIMITED")
	}
}

func TestCanceled(t *testing.T) {
	if Canceled(nil, "betweenness") != nil {
		t.Error("Canceled(nil) should return nil")
	}

	err := Canceled(context.Canceled, "betweenness after %d sources", 3)
	if !Is(err, ErrCodeCanceled) {
		t.Errorf("Canceled() code = %v, want %v", GetCode(err), ErrCodeCanceled)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("Canceled() should wrap the context error")
	}
	if UserMessage(err) != "betweenness after 3 sources" {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
}
