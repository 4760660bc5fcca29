package domain

// Category labels produced by the planner. The order here is the order used
// for planning and for rendering responses.
const (
	CategorySocialProfiles = "Social Profiles"
	CategoryDocuments      = "Documents"
	CategoryNews           = "News"
	CategoryMentions       = "Mentions"
	CategoryGeneral        = "General"
)

// Query is one provider query planned for a category.
type Query struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// RawResult is a single provider hit, normalized across backends.
type RawResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

// MatchKind classifies how a result relates to the required terms.
type MatchKind int

const (
	NoMatch MatchKind = iota
	PartialMatch
	ExactMatch
	Unfiltered
)

func (k MatchKind) String() string {
	switch k {
	case PartialMatch:
		return "partial"
	case ExactMatch:
		return "exact"
	case Unfiltered:
		return "unfiltered"
	default:
		return "none"
	}
}

// MatchOutcome is the relevance verdict for one result.
// Term is set for ExactMatch; MatchedWords for PartialMatch.
type MatchOutcome struct {
	Kind         MatchKind
	Term         string
	MatchedWords []string
}

// Kept reports whether the outcome keeps the result.
func (m MatchOutcome) Kept() bool {
	return m.Kind != NoMatch
}

// Candidate is a filtered result on its way to the aggregator.
type Candidate struct {
	Category     string
	Title        string
	URL          string
	Description  string
	Source       string
	MatchContext string
	Match        MatchOutcome
}

// ScoredResult is the unit stored in the final output.
type ScoredResult struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Description  string `json:"description"`
	MatchContext string `json:"match_context"`
	Score        int    `json:"score"`
}

// Buckets maps category names to results ranked by score.
type Buckets map[string][]ScoredResult

// Total returns the number of results across all categories.
func (b Buckets) Total() int {
	n := 0
	for _, results := range b {
		n += len(results)
	}
	return n
}
