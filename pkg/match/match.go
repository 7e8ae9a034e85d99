// Package match implements token preprocessing and scoring for OCR text.
//
// Tokens pass through up to three stages, in a fixed order: normalization
// (lowercase, accent folding, stripping of non-letter characters),
// lemmatization and stemming. Each stage can be toggled independently.
// Scoring is either a case-insensitive regular expression test or one of
// the fuzzywuzzy string ratios.
package match

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/surgebase/porter2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fuzzy method names accepted by Scorer.
const (
	Ratio          = "ratio"
	PartialRatio   = "partial_ratio"
	TokenSortRatio = "token_sort_ratio"
	TokenSetRatio  = "token_set_ratio"
)

// Matching defaults.
const (
	DefaultMethod   = TokenSetRatio
	DefaultMinRatio = 85
)

// Configuration errors returned by Scorer and the TextBlock matcher.
var (
	ErrUnknownMethod = fmt.Errorf("unknown fuzzy method")
	ErrNoTokens      = fmt.Errorf("no tokens to match against")
)

var (
	nonLetter       = regexp.MustCompile("[^a-z]")
	nonAlphanumeric = regexp.MustCompile("[^a-z0-9]")
)

// Options controls token preprocessing and match scoring.
type Options struct {
	Normalise      bool // lowercase, fold accents, strip non-letters
	IncludeNumbers bool // keep digits when normalizing
	Lemmatise      bool // apply Lemmatizer (no-op when nil)
	Stem           bool // apply the porter2 stemmer
	FuzzMethod     string
	MinRatio       int
	AllResults     bool // keep zero/low scores too
	SortResults    bool
	SortReverse    bool // highest score first
	AddTextBlock   bool // attach the owning textblock to each result
	Regex          bool // treat candidates as regular expressions

	// Lemmatizer is a collaborator boundary. Lemmatization backends live
	// outside this module; callers plug one in as a plain word function.
	Lemmatizer func(string) string
}

// DefaultOptions mirrors the defaults of the batch queries: full
// preprocessing, token_set_ratio at a minimum ratio of 85, results sorted
// by descending score.
func DefaultOptions() Options {
	return Options{
		Normalise:      true,
		IncludeNumbers: true,
		Lemmatise:      true,
		Stem:           true,
		FuzzMethod:     DefaultMethod,
		MinRatio:       DefaultMinRatio,
		SortResults:    true,
		SortReverse:    true,
	}
}

// Fold removes diacritics, decomposing to NFD, stripping combining marks
// and recomposing to NFC.
func Fold(word string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, word)
	if err != nil {
		return word
	}
	return folded
}

// Normalize lowercases a token, folds accents and strips every character
// outside a-z.
func Normalize(word string) string {
	return nonLetter.ReplaceAllString(Fold(strings.ToLower(word)), "")
}

// NormalizeWithNumbers lowercases a token, folds accents and strips every
// character outside a-z and 0-9.
func NormalizeWithNumbers(word string) string {
	return nonAlphanumeric.ReplaceAllString(Fold(strings.ToLower(word)), "")
}

// Stem reduces a word to its stem using the porter2 algorithm.
func Stem(word string) string {
	return porter2.Stem(word)
}

// Process applies the configured preprocessing stages to a single word.
// Stages compose sequentially: normalization, then lemmatization, then
// stemming.
func Process(word string, opts Options) string {
	if opts.Normalise {
		if opts.IncludeNumbers {
			word = NormalizeWithNumbers(word)
		} else {
			word = Normalize(word)
		}
	}
	if opts.Lemmatise && opts.Lemmatizer != nil {
		word = opts.Lemmatizer(word)
	}
	if opts.Stem {
		word = Stem(word)
	}
	return word
}

// Scorer resolves a fuzzy method name to a scoring function over two
// strings, returning a similarity in the range [0, 100].
func Scorer(method string) (func(a, b string) int, error) {
	switch method {
	case Ratio:
		return func(a, b string) int { return fuzzy.Ratio(a, b) }, nil
	case PartialRatio:
		return func(a, b string) int { return fuzzy.PartialRatio(a, b) }, nil
	case TokenSortRatio:
		return func(a, b string) int { return fuzzy.TokenSortRatio(a, b) }, nil
	case TokenSetRatio:
		return func(a, b string) int { return fuzzy.TokenSetRatio(a, b) }, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}

// Dedupe returns the candidate tokens with duplicates removed, preserving
// first-seen order.
func Dedupe(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
