package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/footprint/internal/domain"
)

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text string
		word string
		want bool
	}{
		{"Narendra Modification", "Modi", false},
		{"Modi, 2023", "Modi", true},
		{"modi123 on twitter", "Modi", true},
		{"profile of MODI", "modi", true},
		{"Adamantium claws", "Ada", false},
		{"https://linkedin.com/in/ada", "Ada", true},
		{"ada_lovelace", "Ada", true},
		{"lovelace_ada", "Ada", false},
		{"xAda", "Ada", false},
		{"Adamant Ada", "Ada", true},
		{"Zoë Kravitz", "zoë", true},
		{"Zoëy", "Zoë", false},
		{"contact @ada here", "@ada", true},
		{"@ada", "@ada", true},
		{"x@ada", "@ada", true},
		{"@adamant", "@ada", false},
		{"", "Ada", false},
		{"Ada", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsWord(tt.text, tt.word))
		})
	}
}

func TestFilter_Classify(t *testing.T) {
	f := NewFilter([]string{"Ada Lovelace", "London"}, nil)

	tests := []struct {
		name   string
		result domain.RawResult
		kind   domain.MatchKind
		term   string
		words  []string
	}{
		{
			name:   "exact on name",
			result: domain.RawResult{Title: "Ada Lovelace - LinkedIn", URL: "linkedin.com/in/ada"},
			kind:   domain.ExactMatch,
			term:   "Ada Lovelace",
			words:  []string{"Ada", "Lovelace"},
		},
		{
			name:   "exact on context only",
			result: domain.RawResult{Title: "Visit London", URL: "https://example.com"},
			kind:   domain.ExactMatch,
			term:   "London",
			words:  []string{"London"},
		},
		{
			name:   "partial on name",
			result: domain.RawResult{Title: "Ada Byron", Description: "mathematician"},
			kind:   domain.PartialMatch,
			term:   "Ada Lovelace",
			words:  []string{"Ada"},
		},
		{
			name:   "superstring rejected",
			result: domain.RawResult{Title: "Adamantium", URL: "https://example.com/metal"},
			kind:   domain.NoMatch,
		},
		{
			name:   "url counts as text",
			result: domain.RawResult{Title: "Profile", URL: "https://github.com/ada-lovelace"},
			kind:   domain.ExactMatch,
			term:   "Ada Lovelace",
			words:  []string{"Ada", "Lovelace"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := f.Classify(tt.result)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.term, got.Term)
			assert.Equal(t, tt.words, got.MatchedWords)
		})
	}
}

func TestFilter_BestPartialPrefersMoreWords(t *testing.T) {
	f := NewFilter([]string{"Ada King Lovelace", "Countess of Lovelace Byron"}, nil)

	got := f.Classify(domain.RawResult{Title: "Countess Lovelace"})
	require.Equal(t, domain.PartialMatch, got.Kind)
	assert.Equal(t, "Countess of Lovelace Byron", got.Term)
	assert.Equal(t, []string{"Countess", "Lovelace"}, got.MatchedWords)
}

func TestFilter_PartialTieKeepsEarliestTerm(t *testing.T) {
	f := NewFilter([]string{"Ada Lovelace", "Analytical Engine"}, nil)

	got := f.Classify(domain.RawResult{Title: "Ada and the Engine"})
	require.Equal(t, domain.PartialMatch, got.Kind)
	assert.Equal(t, "Ada Lovelace", got.Term)
}

func TestFilter_ShortWordsIgnored(t *testing.T) {
	f := NewFilter([]string{"Al Gore"}, nil)

	// "Al" is too short to anchor, so "Gore" alone is an exact match.
	got := f.Classify(domain.RawResult{Title: "Gore speaks"})
	assert.Equal(t, domain.ExactMatch, got.Kind)
	assert.Equal(t, []string{"Gore"}, got.MatchedWords)
}

func TestFilter_NoAnchorableTermsIsUnfiltered(t *testing.T) {
	for _, terms := range [][]string{nil, {""}, {`"  "`}, {"Al Wu"}} {
		f := NewFilter(terms, nil)
		assert.True(t, f.Unfiltered())

		candidates := f.Apply(domain.CategoryGeneral, []domain.RawResult{
			{Title: "anything", URL: "https://example.com"},
		})
		require.Len(t, candidates, 1)
		assert.Equal(t, domain.Unfiltered, candidates[0].Match.Kind)
		assert.Equal(t, GeneralContext, candidates[0].MatchContext)
		assert.Equal(t, "https://example.com", candidates[0].URL)
	}
}

func TestFilter_QuotesStripped(t *testing.T) {
	f := NewFilter([]string{`"Ada Lovelace"`}, nil)

	got := f.Classify(domain.RawResult{Title: "Ada Lovelace"})
	assert.Equal(t, domain.ExactMatch, got.Kind)
	assert.Equal(t, "Ada Lovelace", got.Term)
}

func TestFilter_Apply(t *testing.T) {
	f := NewFilter([]string{"Ada Lovelace"}, nil)

	candidates := f.Apply(domain.CategorySocialProfiles, []domain.RawResult{
		{Title: "Ada Lovelace - LinkedIn", URL: "linkedin.com/in/ada", Description: "Ada Lovelace profile", Source: "stub"},
		{Title: "Adamantium", URL: "https://example.com"},
		{Title: "Ada Byron", URL: "https://example.com/byron#bio"},
	})
	require.Len(t, candidates, 2)

	exact := candidates[0]
	assert.Equal(t, domain.CategorySocialProfiles, exact.Category)
	assert.Equal(t, "linkedin.com/in/ada#:~:text=Ada", exact.URL)
	assert.Equal(t, "Matched Name 'Ada Lovelace'", exact.MatchContext)
	assert.Equal(t, "stub", exact.Source)

	partial := candidates[1]
	assert.Equal(t, "https://example.com/byron#bio:~:text=Ada", partial.URL)
	assert.Equal(t, "Partial match: 'Ada' of 'Ada Lovelace'", partial.MatchContext)
	assert.Equal(t, domain.PartialMatch, partial.Match.Kind)
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		url  string
		word string
		want string
	}{
		{"https://a.com/x", "Ada", "https://a.com/x#:~:text=Ada"},
		{"https://a.com/x#top", "Ada", "https://a.com/x#top:~:text=Ada"},
		{"https://a.com/x#:~:text=Ada", "Lovelace", "https://a.com/x#:~:text=Ada"},
		{"https://a.com/x", "Jean-Luc", "https://a.com/x#:~:text=Jean%2DLuc"},
		{"https://a.com/x", "Zoë", "https://a.com/x#:~:text=Zo%C3%AB"},
		{"https://a.com/x", "", "https://a.com/x"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Anchor(tt.url, tt.word))
	}
}

func TestAnchor_AppliedOnce(t *testing.T) {
	once := Anchor("https://a.com", "Ada")
	assert.Equal(t, once, Anchor(once, "Ada"))
}

func TestStripAnchor(t *testing.T) {
	assert.Equal(t, "https://a.com/x", StripAnchor("https://a.com/x#:~:text=Ada"))
	assert.Equal(t, "https://a.com/x#top", StripAnchor("https://a.com/x#top:~:text=Ada"))
	assert.Equal(t, "https://a.com/x", StripAnchor("https://a.com/x"))
}
