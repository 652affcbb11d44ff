// Package parser extracts front-matter metadata and body text from raw
// document files.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// threadMarker is the heading that tags a raw captured thread. Its presence
// exempts a short body from the length guard, and a leading marker is
// stripped before chunking.
const threadMarker = "RAW_THREAD"

// minBodyLen is the smallest body (in characters) accepted without a thread
// marker.
const minBodyLen = 300

var frontMatterRe = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n*`)

// Parse splits raw file text into front-matter metadata and body. A missing
// metadata block leaves metadata empty and the whole text as body, which then
// fails the required-keys check.
func Parse(raw string) (*Document, error) {
	meta := map[string]any{}
	body := raw

	if m := frontMatterRe.FindStringSubmatchIndex(raw); m != nil {
		block := raw[m[2]:m[3]]
		if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
			return nil, fmt.Errorf("parse front matter: %w", err)
		}
		body = raw[m[1]:]
	}

	doc := &Document{
		Source:      popString(meta, "source"),
		Title:       popString(meta, "title"),
		CapturedAt:  popString(meta, "captured_at"),
		License:     popString(meta, "license"),
		Attribution: popString(meta, "attribution"),
	}

	// Either key is accepted; a scalar becomes a one-element list.
	doc.Topics = popStrings(meta, "topics")
	if doc.Topics == nil {
		doc.Topics = popStrings(meta, "topic")
	}
	if len(meta) > 0 {
		doc.Extra = meta
	}

	var missing []string
	if doc.Source == "" {
		missing = append(missing, "source")
	}
	if doc.Title == "" {
		missing = append(missing, "title")
	}
	if len(missing) > 0 {
		return nil, &MissingMetadataError{Missing: missing}
	}

	body = strings.TrimSpace(body)
	if n := utf8.RuneCountInString(body); n <= minBodyLen && !hasThreadMarker(body) {
		return nil, &BodyTooShortError{Length: n}
	}

	doc.Body = stripThreadMarker(body)
	return doc, nil
}

// hasThreadMarker reports whether any level-1 heading in the body is the
// thread marker.
func hasThreadMarker(body string) bool {
	src := []byte(body)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			if string(h.Text(src)) == threadMarker {
				return true
			}
		}
	}
	return false
}

// stripThreadMarker removes a leading thread-marker heading, if present,
// along with the blank lines that follow it.
func stripThreadMarker(body string) string {
	src := []byte(body)
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	h, ok := root.FirstChild().(*ast.Heading)
	if !ok || h.Level != 1 || string(h.Text(src)) != threadMarker {
		return body
	}
	lines := h.Lines()
	if lines.Len() == 0 {
		return body
	}
	stop := lines.At(lines.Len() - 1).Stop
	return strings.TrimLeft(body[stop:], " \t\r\n")
}

func popString(meta map[string]any, key string) string {
	v, ok := meta[key]
	if !ok {
		return ""
	}
	delete(meta, key)
	s, _ := v.(string)
	return s
}

func popStrings(meta map[string]any, key string) []string {
	v, ok := meta[key]
	if !ok {
		return nil
	}
	delete(meta, key)
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
