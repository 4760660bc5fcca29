// Package relevance classifies raw provider hits against the subject's
// required terms using whole-word matching.
package relevance

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spherical-ai/footprint/internal/domain"
	"github.com/spherical-ai/footprint/internal/observability"
)

// MinWordLength is the shortest word, in runes, that can anchor a match.
const MinWordLength = 3

// GeneralContext is the match context of results kept without filtering.
const GeneralContext = "General Search Result"

const textDirective = ":~:text="

// Filter classifies results against a fixed set of required terms.
// It is safe for concurrent use once built.
type Filter struct {
	terms  []term
	logger *observability.Logger
}

type term struct {
	text  string
	words []word
}

type word struct {
	text    string
	pattern *regexp.Regexp
}

// NewFilter prepares the required terms. Quotes are stripped, blank terms are
// skipped and words shorter than MinWordLength are ignored. A nil logger
// disables logging.
func NewFilter(requiredTerms []string, logger *observability.Logger) *Filter {
	if logger == nil {
		logger = observability.NopLogger()
	}

	f := &Filter{logger: logger.WithComponent("relevance")}
	for _, raw := range requiredTerms {
		text := strings.TrimSpace(strings.ReplaceAll(raw, `"`, ""))
		if text == "" {
			continue
		}

		t := term{text: text}
		for _, w := range strings.Fields(text) {
			if utf8.RuneCountInString(w) < MinWordLength {
				continue
			}
			t.words = append(t.words, word{
				text:    w,
				pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(w)),
			})
		}
		if len(t.words) > 0 {
			f.terms = append(f.terms, t)
		}
	}
	return f
}

// Unfiltered reports whether no term can anchor a match, in which case every
// result is kept.
func (f *Filter) Unfiltered() bool {
	return len(f.terms) == 0
}

// Classify returns the match outcome for one result. The first term whose
// words are all present wins outright; otherwise the partial match with the
// most words is returned, earliest term first on ties.
func (f *Filter) Classify(r domain.RawResult) domain.MatchOutcome {
	if f.Unfiltered() {
		return domain.MatchOutcome{Kind: domain.Unfiltered}
	}

	combined := r.Title + " " + r.Description + " " + r.URL

	best := domain.MatchOutcome{Kind: domain.NoMatch}
	for _, t := range f.terms {
		var matched []string
		for _, w := range t.words {
			if containsWord(combined, w.pattern) {
				matched = append(matched, w.text)
			}
		}

		switch {
		case len(matched) == len(t.words):
			return domain.MatchOutcome{
				Kind:         domain.ExactMatch,
				Term:         t.text,
				MatchedWords: matched,
			}
		case len(matched) > len(best.MatchedWords):
			best = domain.MatchOutcome{
				Kind:         domain.PartialMatch,
				Term:         t.text,
				MatchedWords: matched,
			}
		}
	}
	return best
}

// Apply filters the results of one query into candidates for category.
// Rejected results are dropped.
func (f *Filter) Apply(category string, results []domain.RawResult) []domain.Candidate {
	candidates := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		outcome := f.Classify(r)
		if !outcome.Kept() {
			f.logger.Debug().
				Str("title", r.Title).
				Str("url", r.URL).
				Str("category", category).
				Msg("filtered result, required words not found")
			continue
		}

		link := r.URL
		if len(outcome.MatchedWords) > 0 {
			link = Anchor(link, outcome.MatchedWords[0])
		}

		candidates = append(candidates, domain.Candidate{
			Category:     category,
			Title:        r.Title,
			URL:          link,
			Description:  r.Description,
			Source:       r.Source,
			MatchContext: describe(outcome),
			Match:        outcome,
		})
	}
	return candidates
}

func describe(m domain.MatchOutcome) string {
	switch m.Kind {
	case domain.ExactMatch:
		return fmt.Sprintf("Matched Name '%s'", m.Term)
	case domain.PartialMatch:
		return fmt.Sprintf("Partial match: '%s' of '%s'", strings.Join(m.MatchedWords, "', '"), m.Term)
	default:
		return GeneralContext
	}
}

// ContainsWord reports whether w occurs in text as a whole word: it must start
// on a word boundary and must not be followed by a letter, so "Modi" matches
// "Modi123" and "Modi," but not "Modification".
func ContainsWord(text, w string) bool {
	if w == "" {
		return false
	}
	return containsWord(text, regexp.MustCompile(`(?i)`+regexp.QuoteMeta(w)))
}

func containsWord(text string, pattern *regexp.Regexp) bool {
	offset := 0
	for offset <= len(text) {
		loc := pattern.FindStringIndex(text[offset:])
		if loc == nil {
			return false
		}
		start, end := offset+loc[0], offset+loc[1]
		if leadingBoundary(text, start) && trailingBoundary(text, end) {
			return true
		}
		// Step one rune past the candidate start so overlapping occurrences
		// are still considered.
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

// leadingBoundary requires a non-word rune before a word that starts with a
// word rune. A word starting with punctuation ("@ada") needs no boundary.
func leadingBoundary(text string, start int) bool {
	first, _ := utf8.DecodeRuneInString(text[start:])
	if !isWordRune(first) {
		return true
	}
	if start == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:start])
	return !isWordRune(prev)
}

func trailingBoundary(text string, end int) bool {
	if end >= len(text) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(text[end:])
	return !unicode.IsLetter(next)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Anchor appends a text-fragment directive highlighting w, unless rawURL
// already carries one. An existing fragment is extended rather than replaced.
func Anchor(rawURL, w string) string {
	if w == "" || strings.Contains(rawURL, textDirective) {
		return rawURL
	}
	directive := textDirective + escapeFragmentText(w)
	if strings.Contains(rawURL, "#") {
		return rawURL + directive
	}
	return rawURL + "#" + directive
}

// StripAnchor removes a text-fragment directive, and the fragment marker if
// nothing else remains in it.
func StripAnchor(rawURL string) string {
	i := strings.Index(rawURL, textDirective)
	if i < 0 {
		return rawURL
	}
	return strings.TrimSuffix(rawURL[:i], "#")
}

var fragmentEscaper = strings.NewReplacer("-", "%2D", "&", "%26", ",", "%2C")

func escapeFragmentText(s string) string {
	return fragmentEscaper.Replace(url.PathEscape(s))
}
