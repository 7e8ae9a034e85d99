package alto

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/gardar/newsprint/pkg/match"
)

// Navigation locates a matched textblock within the archive hierarchy.
type Navigation struct {
	ArchivePath  string
	DocumentCode string
	PageCode     string
	TextBlockID  string
}

// Result is one scored token within a textblock. Index is the token's
// position in the block, X/Y/Width/Height its page coordinates. Block is
// nil unless the match was run with AddTextBlock.
type Result struct {
	Nav    Navigation
	Index  int
	X      int
	Y      int
	Width  int
	Height int
	Token  string
	Score  int
	Block  *TextBlock
}

// Match scores every token in the block against the candidate tokens and
// returns the hits. Candidates are deduped first; matching with none is an
// error. In regex mode each candidate is compiled case-insensitively and a
// token scores 100 on any hit, 0 otherwise. In fuzzy mode the block's
// tokens are preprocessed per the options and the best candidate score is
// kept per token.
//
// Below-threshold results are dropped unless AllResults is set. Fuzzy
// results sort by score, regex results by position then token then score;
// SortReverse flips either order.
func (tb *TextBlock) Match(opts match.Options, tokens ...string) ([]Result, error) {
	tokens = match.Dedupe(tokens)
	if len(tokens) == 0 {
		return nil, match.ErrNoTokens
	}

	var results []Result
	var err error
	if opts.Regex {
		results, err = tb.matchRegex(opts, tokens)
	} else {
		results, err = tb.matchFuzzy(opts, tokens)
	}
	if err != nil {
		return nil, err
	}

	if opts.SortResults {
		if opts.Regex {
			sort.SliceStable(results, func(i, j int) bool {
				if opts.SortReverse {
					return resultLess(results[j], results[i])
				}
				return resultLess(results[i], results[j])
			})
		} else {
			sort.SliceStable(results, func(i, j int) bool {
				if opts.SortReverse {
					return results[i].Score > results[j].Score
				}
				return results[i].Score < results[j].Score
			})
		}
	}
	return results, nil
}

func resultLess(a, b Result) bool {
	if a.Index != b.Index {
		return a.Index < b.Index
	}
	if a.Token != b.Token {
		return a.Token < b.Token
	}
	return a.Score < b.Score
}

func (tb *TextBlock) matchRegex(opts match.Options, tokens []string) ([]Result, error) {
	patterns := make([]*regexp.Regexp, len(tokens))
	for i, t := range tokens {
		re, err := regexp.Compile("(?i)" + t)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", t, err)
		}
		patterns[i] = re
	}

	var results []Result
	for i, tok := range tb.tokens {
		word := match.Process(tok.Content, opts)
		score := 0
		for _, re := range patterns {
			if re.MatchString(word) {
				score = 100
				break
			}
		}
		if score == 0 && !opts.AllResults {
			continue
		}
		results = append(results, tb.result(i, tok, score, opts))
	}
	return results, nil
}

func (tb *TextBlock) matchFuzzy(opts match.Options, tokens []string) ([]Result, error) {
	scorer, err := match.Scorer(opts.FuzzMethod)
	if err != nil {
		return nil, err
	}

	var results []Result
	for i, tok := range tb.tokens {
		word := match.Process(tok.Content, opts)
		best := 0
		for _, t := range tokens {
			if s := scorer(t, word); s > best {
				best = s
			}
		}
		if best < opts.MinRatio && !opts.AllResults {
			continue
		}
		results = append(results, tb.result(i, tok, best, opts))
	}
	return results, nil
}

// result carries the original token content, not the processed form, so
// callers can show what the page actually says.
func (tb *TextBlock) result(i int, tok Token, score int, opts match.Options) Result {
	r := Result{
		Nav: Navigation{
			ArchivePath:  tb.page.Ref.ArchivePath,
			DocumentCode: tb.page.Ref.DocumentCode,
			PageCode:     tb.page.Ref.PageCode,
			TextBlockID:  tb.ID,
		},
		Index:  i,
		X:      tok.X,
		Y:      tok.Y,
		Width:  tok.Width,
		Height: tok.Height,
		Token:  tok.Content,
		Score:  score,
	}
	if opts.AddTextBlock {
		r.Block = tb
	}
	return r
}
