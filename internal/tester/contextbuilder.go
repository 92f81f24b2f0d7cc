// internal/tester/contextbuilder.go
package tester

import (
	"errors"
	"fmt"
	"math"

	"github.com/mwiater/hogbench/internal/question"
	"github.com/mwiater/hogbench/internal/tokenizer"
)

// Context-build failure kinds. Both map to a per-assignment
// context_build_error; ErrInsufficientSource additionally feeds the
// run-level check that a requested context length is unusable.
var (
	ErrEvidenceTooLarge   = errors.New("evidence exceeds requested context length")
	ErrInsufficientSource = errors.New("source document too short to fill requested context length")
)

// BuildResult is the outcome of assembling one test context.
type BuildResult struct {
	Text          string
	ActualDepth   float64
	EvidenceStart int
	EvidenceEnd   int
	PrefixLen     int
	SuffixLen     int
	EvidenceLen   int
	TotalLen      int
	OK            bool
	Err           error
}

// ContextBuilder assembles contexts of a prescribed token length with the
// evidence span placed at a prescribed fractional depth. Selection is fully
// deterministic: identical inputs produce identical contexts.
type ContextBuilder struct {
	tok    *tokenizer.Tokenizer
	tokens []int
}

// NewContextBuilder wraps the source document's token sequence.
func NewContextBuilder(tok *tokenizer.Tokenizer, tokens []int) *ContextBuilder {
	return &ContextBuilder{tok: tok, tokens: tokens}
}

// TotalTokens reports the source document length.
func (b *ContextBuilder) TotalTokens() int { return len(b.tokens) }

// Build constructs prefix ⊕ evidence ⊕ suffix totalling contextLength
// tokens with the evidence at targetDepth. The evidence range is expanded
// by padding tokens per side and snapped outward to sentence boundaries;
// filler is drawn earliest-first from outside the evidence, in document
// order, from two disjoint windows.
func (b *ContextBuilder) Build(q question.Question, targetDepth float64, contextLength, padding int) BuildResult {
	if targetDepth < 0 || targetDepth > 1 {
		return failed(fmt.Errorf("target depth %g outside [0,1]", targetDepth))
	}
	n := len(b.tokens)
	start, end := q.Position.StartPos, q.Position.EndPos
	if start < 0 || start >= end || end > n {
		return failed(fmt.Errorf("question position [%d,%d) outside document of %d tokens", start, end, n))
	}

	// Pad, then snap outward so the evidence reads as whole sentences.
	expStart := max(0, start-padding)
	expEnd := min(n, end+padding)
	expStart = b.tok.FindBoundary(b.tokens, expStart, tokenizer.Backward)
	expEnd = b.tok.FindBoundary(b.tokens, expEnd, tokenizer.Forward)

	evidence := b.tokens[expStart:expEnd]
	e := len(evidence)
	if e > contextLength {
		return BuildResult{EvidenceLen: e, Err: fmt.Errorf("%w: evidence %d tokens, context %d", ErrEvidenceTooLarge, e, contextLength)}
	}

	filler := contextLength - e
	prefixLen := int(math.Round(targetDepth * float64(filler)))
	suffixLen := filler - prefixLen

	free := freeRegions(n, expStart, expEnd)
	prefix, free, err := takeTokens(b.tokens, free, prefixLen)
	if err != nil {
		return BuildResult{EvidenceLen: e, Err: err}
	}
	suffix, _, err := takeTokens(b.tokens, free, suffixLen)
	if err != nil {
		return BuildResult{EvidenceLen: e, Err: err}
	}

	actualDepth := 0.0
	if filler > 0 {
		actualDepth = float64(len(prefix)) / float64(filler)
	}

	text := b.tok.Decode(prefix) + b.tok.Decode(evidence) + b.tok.Decode(suffix)
	total := len(prefix) + e + len(suffix)

	return BuildResult{
		Text:          text,
		ActualDepth:   actualDepth,
		EvidenceStart: len(prefix),
		EvidenceEnd:   len(prefix) + e,
		PrefixLen:     len(prefix),
		SuffixLen:     len(suffix),
		EvidenceLen:   e,
		TotalLen:      total,
		OK:            true,
	}
}

func failed(err error) BuildResult { return BuildResult{Err: err} }

type region struct{ start, end int }

// freeRegions lists the document outside the evidence range, in order.
func freeRegions(n, evidenceStart, evidenceEnd int) []region {
	var regions []region
	if evidenceStart > 0 {
		regions = append(regions, region{0, evidenceStart})
	}
	if evidenceEnd < n {
		regions = append(regions, region{evidenceEnd, n})
	}
	return regions
}

// takeTokens draws `need` tokens from the earliest free regions, whole
// regions first and a hard cut in the last, returning the drawn tokens and
// the regions that remain available.
func takeTokens(tokens []int, free []region, need int) ([]int, []region, error) {
	if need == 0 {
		return nil, free, nil
	}

	out := make([]int, 0, need)
	remaining := make([]region, 0, len(free))
	for i, r := range free {
		if need == 0 {
			remaining = append(remaining, free[i:]...)
			break
		}
		size := r.end - r.start
		take := min(size, need)
		out = append(out, tokens[r.start:r.start+take]...)
		need -= take
		if take < size {
			remaining = append(remaining, region{r.start + take, r.end})
		}
	}
	if need > 0 {
		return nil, free, fmt.Errorf("%w: short %d tokens", ErrInsufficientSource, need)
	}
	return out, remaining, nil
}
