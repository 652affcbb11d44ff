package parser

import (
	"fmt"
	"strings"
)

// MissingMetadataError reports required front-matter keys that are absent.
// It is fatal for the document; the ingestion driver skips and continues.
type MissingMetadataError struct {
	Missing []string
}

func (e *MissingMetadataError) Error() string {
	return fmt.Sprintf("front matter missing required keys: %s", strings.Join(e.Missing, ", "))
}

// BodyTooShortError is a data-quality guard: the body is implausibly small
// and carries no thread marker heading.
type BodyTooShortError struct {
	Length int
}

func (e *BodyTooShortError) Error() string {
	return fmt.Sprintf("body looks too short (%d chars, no %s marker)", e.Length, threadMarker)
}
