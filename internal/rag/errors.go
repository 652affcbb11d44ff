package rag

import "fmt"

// Stage names the pipeline step where a query failed.
type Stage string

const (
	StageEmbed    Stage = "embed"
	StageSearch   Stage = "search"
	StageGenerate Stage = "generate"
)

// StageError is a query-time failure, possibly retry-exhausted, surfaced to
// the caller as a service failure. There is no fallback answer.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
