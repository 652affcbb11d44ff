package rag

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenizerModel is the encoding used for prompt budgeting.
const TokenizerModel = "gpt-3.5-turbo"

// Tokenizer encodes and decodes model-specific token units. Truncation
// operates on these units, never on characters.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken loads the token encoding for the given chat model.
func NewTiktoken(model string) (Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer for %s: %w", model, err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
