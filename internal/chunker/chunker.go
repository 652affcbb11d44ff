// Package chunker splits document bodies into bounded, overlapping chunks
// without splitting fenced code blocks.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultMaxLen is the default chunk bound in characters.
const DefaultMaxLen = 1600

// DefaultOverlap is the default trailing context carried into the next chunk.
const DefaultOverlap = 200

var fenceRe = regexp.MustCompile("(?s)```.*?```")

// Splitter holds validated chunking parameters.
type Splitter struct {
	maxLen  int
	overlap int
}

// NewSplitter validates the parameters. Overlap at or above MaxLen is
// rejected rather than clamped: a caller asking for that has a config bug,
// and clamping would hide it.
func NewSplitter(maxLen, overlap int) (*Splitter, error) {
	if maxLen <= 0 {
		return nil, fmt.Errorf("chunker: max length must be positive, got %d", maxLen)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must not be negative, got %d", overlap)
	}
	if overlap >= maxLen {
		return nil, fmt.Errorf("chunker: overlap %d must be smaller than max length %d", overlap, maxLen)
	}
	return &Splitter{maxLen: maxLen, overlap: overlap}, nil
}

// MaxLen returns the chunk bound in characters.
func (s *Splitter) MaxLen() int { return s.maxLen }

// Overlap returns the overlap in characters.
func (s *Splitter) Overlap() int { return s.overlap }

// Split partitions body into alternating prose and fenced-code segments and
// accumulates them into chunks of at most MaxLen characters, carrying Overlap
// characters of trailing context across chunk boundaries. A fenced block is
// never split across chunks unless it alone exceeds MaxLen; such a block is
// force-split at MaxLen boundaries, the one accepted case where a fence is
// cut.
func (s *Splitter) Split(body string) []string {
	var parts []string
	buf := []rune{}

	for _, seg := range segments(body) {
		runes := []rune(seg)
		if len(buf)+len(runes) <= s.maxLen {
			buf = append(buf, runes...)
			continue
		}

		if t := strings.TrimSpace(string(buf)); t != "" {
			parts = append(parts, t)
		}

		// Seed the next buffer with trailing context, then the segment
		// that triggered the flush.
		if s.overlap > 0 && len(buf) > s.overlap {
			buf = append(buf[len(buf)-s.overlap:len(buf):len(buf)], runes...)
		} else {
			buf = runes
		}

		// Oversized buffer (a fence longer than MaxLen): force-split.
		for len(buf) > s.maxLen {
			if t := strings.TrimSpace(string(buf[:s.maxLen])); t != "" {
				parts = append(parts, t)
			}
			buf = buf[s.maxLen-s.overlap:]
		}
	}

	if t := strings.TrimSpace(string(buf)); t != "" {
		parts = append(parts, t)
	}
	return parts
}

// segments partitions body into prose and fenced-code runs, preserving
// order and content. An unterminated fence is treated as prose.
func segments(body string) []string {
	var segs []string
	last := 0
	for _, m := range fenceRe.FindAllStringIndex(body, -1) {
		if m[0] > last {
			segs = append(segs, body[last:m[0]])
		}
		segs = append(segs, body[m[0]:m[1]])
		last = m[1]
	}
	if last < len(body) {
		segs = append(segs, body[last:])
	}
	return segs
}
