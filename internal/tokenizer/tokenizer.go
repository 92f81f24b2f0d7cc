// internal/tokenizer/tokenizer.go
// Package tokenizer wraps a pinned byte-pair encoding and provides the
// boundary-alignment helpers used when slicing the source document.
package tokenizer

import (
	"fmt"
	"regexp"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the pinned encoding identifier. Question generation and
// evaluation must agree on it, so it is recorded in every file's metadata.
const DefaultEncoding = "cl100k_base"

// maxBoundarySearch bounds how far FindBoundary scans before giving up and
// returning the hard cutoff.
const maxBoundarySearch = 100

// Direction selects which way FindBoundary scans from the target index.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Sentence terminators followed by whitespace, covering both Latin and
// Chinese punctuation. Paragraph breaks take precedence.
var (
	paragraphPattern = regexp.MustCompile(`\n\n`)
	sentencePattern  = regexp.MustCompile(`[.!?。！？][ \t\r\n]`)
)

// Codec is the minimal encode/decode surface of a token encoding.
type Codec interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

// Tokenizer pairs a Codec with boundary-detection utilities.
type Tokenizer struct {
	codec Codec
	name  string
}

type tiktokenCodec struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCodec) Encode(text string) []int {
	return c.enc.Encode(text, nil, nil)
}

func (c tiktokenCodec) Decode(tokens []int) string {
	return c.enc.Decode(tokens)
}

// New returns a Tokenizer backed by the named tiktoken encoding.
func New(encodingName string) (*Tokenizer, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: load encoding %q: %w", encodingName, err)
	}
	return &Tokenizer{codec: tiktokenCodec{enc: enc}, name: encodingName}, nil
}

// NewWithCodec returns a Tokenizer over a caller-supplied codec.
func NewWithCodec(name string, codec Codec) *Tokenizer {
	return &Tokenizer{codec: codec, name: name}
}

// EncodingName reports the pinned encoding identifier.
func (t *Tokenizer) EncodingName() string { return t.name }

// Encode converts text to token ids.
func (t *Tokenizer) Encode(text string) []int { return t.codec.Encode(text) }

// Decode converts token ids back to text.
func (t *Tokenizer) Decode(tokens []int) string { return t.codec.Decode(tokens) }

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int { return len(t.codec.Encode(text)) }

// FindBoundary scans outward from target for a readable cut point. A
// paragraph break anywhere in the scan window wins over a sentence
// terminator; otherwise the nearest sentence terminator followed by
// whitespace is used. The scan is limited to maxBoundarySearch tokens; if
// nothing is found the original target is returned as a hard cutoff.
func (t *Tokenizer) FindBoundary(tokens []int, target int, dir Direction) int {
	if target < 0 {
		target = 0
	}
	if target > len(tokens) {
		target = len(tokens)
	}

	if dir == Forward {
		end := target + maxBoundarySearch
		if end > len(tokens) {
			end = len(tokens)
		}
		window := t.codec.Decode(tokens[target:end])
		if loc := paragraphPattern.FindStringIndex(window); loc != nil {
			return target + len(t.codec.Encode(window[:loc[1]]))
		}
		if loc := sentencePattern.FindStringIndex(window); loc != nil {
			return target + len(t.codec.Encode(window[:loc[1]]))
		}
		return target
	}

	start := target - maxBoundarySearch
	if start < 0 {
		start = 0
	}
	window := t.codec.Decode(tokens[start:target])
	if locs := paragraphPattern.FindAllStringIndex(window, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		return start + len(t.codec.Encode(window[:last[1]]))
	}
	if locs := sentencePattern.FindAllStringIndex(window, -1); len(locs) > 0 {
		last := locs[len(locs)-1]
		return start + len(t.codec.Encode(window[:last[1]]))
	}
	return target
}
