package depth

import (
	"strings"

	"github.com/lindaliu1/endangered-ocean/internal/model"
)

// Extractor derives a depth range in meters from a habitat narrative.
// An explicit numeric parse is tried sentence by sentence first; if no
// sentence states a depth, coarse habitat-bucket keywords over the whole
// narrative supply a fallback range.
type Extractor struct {
	depthTokens  []string
	lengthTokens []string
}

// NewExtractor creates a new depth extractor
func NewExtractor() *Extractor {
	return &Extractor{
		depthTokens:  []string{"depth", "depths", "deep"},
		lengthTokens: []string{"length", "long", "in length"},
	}
}

// Extract computes the depth estimate for a narrative. Empty or
// unparseable input yields no bounds and the "unknown" tag; there is no
// failure path.
func (e *Extractor) Extract(narrative string) model.DepthEstimate {
	text := normalizeSpace(narrative)

	if lo, hi, ok := e.matchExplicit(text); ok {
		return model.DepthEstimate{
			MinDepthM: &lo,
			MaxDepthM: &hi,
			Source:    model.DepthSourceExplicit,
		}
	}

	if b, ok := matchBucket(text); ok {
		lo, hi := b.minM, b.maxM
		return model.DepthEstimate{
			MinDepthM: &lo,
			MaxDepthM: &hi,
			Source:    model.BucketSource(b.name),
		}
	}

	return model.DepthEstimate{Source: model.DepthSourceUnknown}
}

// matchExplicit scans sentences in order and returns the first stated
// depth. Sentence order outranks pattern priority: once any sentence
// matches, later sentences are never consulted.
func (e *Extractor) matchExplicit(text string) (int, int, bool) {
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)
		if !containsAny(lower, e.depthTokens) {
			continue
		}
		// Body-size statements are not depth statements even when they
		// mention "deep" nearby.
		if containsAny(lower, e.lengthTokens) {
			continue
		}

		if lo, hi, ok := matchRange(sentence); ok {
			return lo, hi, true
		}
		if v, ok := matchSingle(sentence); ok {
			return v, v, true
		}
		if v, ok := matchLessThan(sentence); ok {
			return 0, v, true
		}
	}
	return 0, 0, false
}

// normalizeSpace collapses whitespace runs to single spaces and trims
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitSentences splits text on terminal punctuation followed by
// whitespace; a trailing unterminated fragment counts as a sentence.
// Abbreviations like "U.S." can mis-segment.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\t') {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func containsAny(lower string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
