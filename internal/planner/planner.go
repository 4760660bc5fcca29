// Package planner expands a subject into categorized provider queries.
package planner

import (
	"strings"

	"github.com/spherical-ai/footprint/internal/domain"
)

// coveredSocialSites are excluded from the Mentions query so it surfaces
// pages the Social Profiles queries do not already reach.
var coveredSocialSites = []string{
	"linkedin.com",
	"instagram.com",
	"facebook.com",
	"twitter.com",
}

// Plan is the expanded form of one subject.
type Plan struct {
	BaseQuery  string
	Terms      []string
	Categories []string
	Queries    []domain.Query
}

// Categories returns the fixed category taxonomy in planning order.
func Categories() []string {
	return []string{
		domain.CategorySocialProfiles,
		domain.CategoryDocuments,
		domain.CategoryNews,
		domain.CategoryMentions,
		domain.CategoryGeneral,
	}
}

// Build expands name and the optional context into a Plan. name must already
// be validated as non-empty.
func Build(name, context string) Plan {
	name = strings.TrimSpace(name)
	context = strings.TrimSpace(context)

	base := name
	if context != "" {
		base += " " + context
	}

	var queries []domain.Query
	add := func(category string, texts ...string) {
		for _, text := range texts {
			queries = append(queries, domain.Query{Text: text, Category: category})
		}
	}

	add(domain.CategorySocialProfiles,
		base+" site:linkedin.com",
		base+" site:instagram.com",
		base+" site:facebook.com",
		base+" site:twitter.com",
		base+" site:github.com",
	)
	add(domain.CategoryDocuments,
		base+" resume filetype:pdf",
		base+" cv filetype:pdf",
		base+" resume OR cv",
	)
	add(domain.CategoryNews,
		base+" news",
		base+" latest article",
	)

	exclusions := make([]string, len(coveredSocialSites))
	for i, site := range coveredSocialSites {
		exclusions[i] = "-site:" + site
	}
	add(domain.CategoryMentions, base+" "+strings.Join(exclusions, " "))

	// Bare name without context casts the widest net.
	add(domain.CategoryGeneral, name)

	return Plan{
		BaseQuery:  base,
		Terms:      RequiredTerms(name, context),
		Categories: Categories(),
		Queries:    dedupe(queries),
	}
}

// RequiredTerms returns the independent candidate terms a result may satisfy.
func RequiredTerms(name, context string) []string {
	terms := []string{strings.TrimSpace(name)}
	if c := strings.TrimSpace(context); c != "" {
		terms = append(terms, c)
	}
	return terms
}

// dedupe drops repeated query texts, keeping the earliest category. It only
// bites when a caller-supplied name collides with a templated query.
func dedupe(queries []domain.Query) []domain.Query {
	seen := make(map[string]bool, len(queries))
	out := queries[:0]
	for _, q := range queries {
		key := strings.ToLower(q.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}
