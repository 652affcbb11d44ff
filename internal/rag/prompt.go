package rag

import (
	"fmt"
	"strings"

	"github.com/dhayv/azure-rag-app/internal/search"
)

// SourceTokenBudget bounds each retrieved source's content in the prompt.
// Truncating per source trades completeness of one long source for
// guaranteed inclusion of all of them.
const SourceTokenBudget = 250

const sourceSeparator = "=================\n"

// groundedTemplate constrains generation to the supplied sources. The
// "I don't know" instruction is hallucination containment, not cosmetics.
const groundedTemplate = `
You are an AI assistant.
Answer the question using only the sources provided.
- Use bullet points if there are multiple facts.
- If the answer is longer than 3 sentences, give a short summary.
- Always cite the source.
- If the sources don’t have enough info, say “I don’t know.”
Sources:
%s

Question: %s
`

// Builder renders token-budgeted grounded prompts.
type Builder struct {
	tok    Tokenizer
	budget int
}

func NewBuilder(tok Tokenizer) *Builder {
	return &Builder{tok: tok, budget: SourceTokenBudget}
}

// Truncate keeps at most maxTokens tokens of text. Already-short text passes
// through unchanged, which makes truncation idempotent.
func (b *Builder) Truncate(text string, maxTokens int) string {
	tokens := b.tok.Encode(text)
	if len(tokens) <= maxTokens {
		return text
	}
	return b.tok.Decode(tokens[:maxTokens])
}

// Build renders the grounded prompt for a question and its retrieved
// sources, each truncated to the per-source budget.
func (b *Builder) Build(question string, sources []search.Result) string {
	rendered := make([]string, len(sources))
	for i, s := range sources {
		rendered[i] = fmt.Sprintf("TITLE: %s, CONTENT: %s", s.Title, b.Truncate(s.Content, b.budget))
	}
	return fmt.Sprintf(groundedTemplate, strings.Join(rendered, sourceSeparator), question)
}
