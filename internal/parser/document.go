package parser

// Document is one parsed input file: its front-matter metadata plus the
// remaining body text. Immutable after parse.
type Document struct {
	Source      string
	Title       string
	Topics      []string
	CapturedAt  string
	License     string
	Attribution string

	// Extra holds unrecognized front-matter keys for forward compatibility.
	Extra map[string]any

	Body string
}
