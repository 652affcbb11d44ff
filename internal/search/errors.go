package search

import (
	"fmt"
	"strings"
)

// ServiceError is a classified failure from the search service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("search: status %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure is a throttle or server-side error.
func (e *ServiceError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// PartialUploadError reports a batch where some records were rejected while
// others succeeded. The caller decides whether to retry or abandon the file.
type PartialUploadError struct {
	Failed    int
	SampleIDs []string
}

func (e *PartialUploadError) Error() string {
	return fmt.Sprintf("search: %d records rejected (e.g. %s)", e.Failed, strings.Join(e.SampleIDs, ", "))
}
