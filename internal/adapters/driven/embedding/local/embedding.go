// Package local provides a deterministic, fully offline embedding
// service. It is the final tier of the provider chain: intentionally
// crude, but always available, so downstream similarity math never has
// to handle a missing vector.
package local

import (
	"context"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/texthash"
)

// Feature layout. The blocks are packed in this order and padded with
// hash filler up to domain.EmbeddingDimensions.
const (
	statFeatures       = 3
	wordFeatures       = 250
	bigramFeatures     = 200
	categoryFeatures   = 5
	positionalFeatures = 20 // first 10 and last 10 words
	flagFeatures       = 4
)

// Keyword categories, matched as substrings of the lowercased text.
// The feature is the fraction of a category's keywords present.
var categoryKeywords = [categoryFeatures][]string{
	// finance
	{"revenue", "profit", "investment", "portfolio", "asset", "equity", "dividend", "margin", "capital", "earnings", "fiscal", "liquidity"},
	// technical
	{"system", "software", "algorithm", "server", "network", "database", "api", "cloud", "architecture", "deployment", "latency", "protocol"},
	// research
	{"study", "analysis", "hypothesis", "experiment", "method", "findings", "evidence", "sample", "survey", "correlation", "baseline", "cohort"},
	// business
	{"strategy", "market", "customer", "product", "sales", "growth", "competition", "partnership", "operations", "brand", "pricing", "retention"},
	// academic
	{"theory", "literature", "citation", "journal", "abstract", "thesis", "curriculum", "lecture", "publication", "seminar", "faculty", "syllabus"},
}

// Service computes feature-hash embeddings locally.
type Service struct{}

// New creates the local embedding service.
func New() *Service {
	return &Service{}
}

var _ driven.EmbeddingService = (*Service)(nil)

// Embed builds the feature vector for text. Identical input yields a
// bit-identical vector: frequency tables sort stably with ties kept in
// first-occurrence order, and every hash is the fixed rolling hash.
// The result is L2-normalized to unit length. Embed never fails.
func (s *Service) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float64, domain.EmbeddingDimensions)
	lower := strings.ToLower(text)
	words := tokenize(lower)

	pos := 0

	// Document statistics, squashed into [0,1].
	vec[pos] = clamp01(float64(len(words)) / 1000)
	vec[pos+1] = clamp01(float64(countSentences(text)) / 100)
	vec[pos+2] = clamp01(float64(len([]rune(text))) / 10000)
	pos += statFeatures

	// Word frequencies, most frequent first.
	for i, f := range topFrequencies(words, wordFeatures) {
		vec[pos+i] = f
	}
	pos += wordFeatures

	// Bigram frequencies.
	for i, f := range topFrequencies(bigrams(words), bigramFeatures) {
		vec[pos+i] = f
	}
	pos += bigramFeatures

	// Keyword category ratios.
	for i, keywords := range categoryKeywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		vec[pos+i] = float64(hits) / float64(len(keywords))
	}
	pos += categoryFeatures

	// Positional hashes of the first and last 10 words.
	half := positionalFeatures / 2
	for i := 0; i < half && i < len(words); i++ {
		vec[pos+i] = texthash.Normalized(words[i])
	}
	for i := 0; i < half && i < len(words); i++ {
		vec[pos+half+i] = texthash.Normalized(words[len(words)-1-i])
	}
	pos += positionalFeatures

	// Structural flags.
	vec[pos] = boolFeature(strings.ContainsFunc(text, unicode.IsDigit))
	vec[pos+1] = boolFeature(strings.ContainsFunc(text, unicode.IsUpper))
	vec[pos+2] = boolFeature(hasBullets(text))
	vec[pos+3] = boolFeature(strings.ContainsRune(text, '?'))
	pos += flagFeatures

	// Hash filler for the remaining dimensions.
	seed := strconv.FormatInt(int64(texthash.Sum(text)), 10)
	for i := pos; i < len(vec); i++ {
		vec[i] = texthash.Normalized(seed + "-" + strconv.Itoa(i))
	}

	return normalize(vec), nil
}

// Dimensions returns the fixed embedding width.
func (s *Service) Dimensions() int {
	return domain.EmbeddingDimensions
}

// ModelName identifies the local feature embedding.
func (s *Service) ModelName() string {
	return "local-feature-v1"
}

// Ping always succeeds: there is nothing remote to reach.
func (s *Service) Ping(_ context.Context) error {
	return nil
}

// Close releases nothing.
func (s *Service) Close() error {
	return nil
}

// tokenize splits lowercased text into alphanumeric words.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// bigrams pairs adjacent words.
func bigrams(words []string) []string {
	if len(words) < 2 {
		return nil
	}
	out := make([]string, 0, len(words)-1)
	for i := 0; i+1 < len(words); i++ {
		out = append(out, words[i]+" "+words[i+1])
	}
	return out
}

// topFrequencies returns relative frequencies of the n most common
// terms, most frequent first. The sort is stable over first-occurrence
// order, which is what makes the vector reproducible.
func topFrequencies(terms []string, n int) []float64 {
	if len(terms) == 0 {
		return nil
	}

	counts := make(map[string]int, len(terms))
	ordered := make([]string, 0, len(terms))
	for _, t := range terms {
		if _, seen := counts[t]; !seen {
			ordered = append(ordered, t)
		}
		counts[t]++
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return counts[ordered[i]] > counts[ordered[j]]
	})

	if len(ordered) > n {
		ordered = ordered[:n]
	}

	out := make([]float64, len(ordered))
	total := float64(len(terms))
	for i, t := range ordered {
		out[i] = float64(counts[t]) / total
	}
	return out
}

// countSentences counts terminator-delimited sentences.
func countSentences(text string) int {
	count := 0
	for _, part := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(part) != "" {
			count++
		}
	}
	return count
}

// hasBullets reports whether any line starts with a list marker.
func hasBullets(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "•") {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// normalize scales the vector to unit length and narrows to float32.
func normalize(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	norm := math.Sqrt(sum)

	out := make([]float32, len(vec))
	if norm == 0 {
		return out
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
