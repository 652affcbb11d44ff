package openai

import "fmt"

// ErrorKind classifies an upstream failure. Classification happens once,
// here, from the HTTP status; nothing downstream re-parses error text.
type ErrorKind int

const (
	// KindFatal errors propagate immediately without retry.
	KindFatal ErrorKind = iota
	// KindThrottled is an upstream rate-limit signal.
	KindThrottled
	// KindTransient is a retryable server-side failure.
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindThrottled:
		return "throttled"
	case KindTransient:
		return "transient"
	default:
		return "fatal"
	}
}

// APIError is a classified upstream service error.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openai: %s error (status %d): %s", e.Kind, e.StatusCode, truncate(e.Message, 200))
}

// Retryable reports whether the error is worth retrying with backoff.
func (e *APIError) Retryable() bool {
	return e.Kind != KindFatal
}

func classify(status int) ErrorKind {
	switch {
	case status == 429:
		return KindThrottled
	case status >= 500:
		return KindTransient
	default:
		return KindFatal
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
