package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhayv/azure-rag-app/internal/search"
)

// runeTokenizer treats every rune as one token, so budgets translate
// directly to character counts.
type runeTokenizer struct{}

func (runeTokenizer) Encode(text string) []int {
	runes := []rune(text)
	out := make([]int, len(runes))
	for i, r := range runes {
		out[i] = int(r)
	}
	return out
}

func (runeTokenizer) Decode(tokens []int) string {
	runes := make([]rune, len(tokens))
	for i, t := range tokens {
		runes[i] = rune(t)
	}
	return string(runes)
}

func TestTruncate(t *testing.T) {
	b := NewBuilder(runeTokenizer{})

	assert.Equal(t, "short", b.Truncate("short", 10), "under budget passes through")
	assert.Equal(t, "exact", b.Truncate("exact", 5))
	assert.Equal(t, "abcde", b.Truncate("abcdefgh", 5))
}

func TestTruncate_Idempotent(t *testing.T) {
	b := NewBuilder(runeTokenizer{})

	once := b.Truncate(strings.Repeat("z", 1000), 250)
	assert.Equal(t, once, b.Truncate(once, 250))
	assert.Len(t, once, 250)
}

func TestBuild_TruncatesEachSource(t *testing.T) {
	b := NewBuilder(runeTokenizer{})

	long := strings.Repeat("a", 1000)
	sources := []search.Result{
		{Title: "First", Content: long},
		{Title: "Second", Content: long},
		{Title: "Third", Content: "short content"},
	}

	prompt := b.Build("what is pooling?", sources)

	// Long sources are cut to the per-source budget; short ones pass intact.
	assert.Contains(t, prompt, "TITLE: First, CONTENT: "+strings.Repeat("a", 250))
	assert.NotContains(t, prompt, strings.Repeat("a", 251))
	assert.Contains(t, prompt, "TITLE: Third, CONTENT: short content")
	assert.Contains(t, prompt, "Question: what is pooling?")

	// Sources are joined by the separator line, one between each pair.
	assert.Equal(t, 2, strings.Count(prompt, "=================\n"))
}

func TestBuild_ContainsGroundingInstructions(t *testing.T) {
	b := NewBuilder(runeTokenizer{})

	prompt := b.Build("q", nil)
	require.Contains(t, prompt, "Answer the question using only the sources provided.")
	assert.Contains(t, prompt, "Always cite the source.")
	assert.Contains(t, prompt, "say “I don’t know.”")
}
