package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/footprint/internal/domain"
)

func TestBuild_NameOnly(t *testing.T) {
	plan := Build("Ada Lovelace", "")

	assert.Equal(t, "Ada Lovelace", plan.BaseQuery)
	assert.Equal(t, []string{"Ada Lovelace"}, plan.Terms)
	require.Len(t, plan.Queries, 12)

	assert.Equal(t, domain.Query{Text: "Ada Lovelace site:linkedin.com", Category: domain.CategorySocialProfiles}, plan.Queries[0])
	assert.Equal(t, domain.Query{Text: "Ada Lovelace", Category: domain.CategoryGeneral}, plan.Queries[11])
}

func TestBuild_WithContext(t *testing.T) {
	plan := Build("  Ada Lovelace ", " London ")

	assert.Equal(t, "Ada Lovelace London", plan.BaseQuery)
	assert.Equal(t, []string{"Ada Lovelace", "London"}, plan.Terms)

	counts := map[string]int{}
	for _, q := range plan.Queries {
		counts[q.Category]++
		if q.Category != domain.CategoryGeneral {
			assert.True(t, strings.HasPrefix(q.Text, "Ada Lovelace London "), q.Text)
		}
	}
	assert.Equal(t, map[string]int{
		domain.CategorySocialProfiles: 5,
		domain.CategoryDocuments:      3,
		domain.CategoryNews:           2,
		domain.CategoryMentions:       1,
		domain.CategoryGeneral:        1,
	}, counts)

	// General drops the context.
	assert.Equal(t, "Ada Lovelace", plan.Queries[len(plan.Queries)-1].Text)
}

func TestBuild_MentionsExcludesSocialSites(t *testing.T) {
	plan := Build("Grace Hopper", "")

	var mentions []domain.Query
	for _, q := range plan.Queries {
		if q.Category == domain.CategoryMentions {
			mentions = append(mentions, q)
		}
	}
	require.Len(t, mentions, 1)
	assert.Equal(t,
		"Grace Hopper -site:linkedin.com -site:instagram.com -site:facebook.com -site:twitter.com",
		mentions[0].Text)
}

func TestBuild_Deterministic(t *testing.T) {
	assert.Equal(t, Build("Alan Turing", "Bletchley"), Build("Alan Turing", "Bletchley"))
}

func TestBuild_NoDuplicateQueryText(t *testing.T) {
	for _, in := range [][2]string{
		{"Ada", ""},
		{"Ada", "news"},
		{"Ada Lovelace", "resume OR cv"},
	} {
		plan := Build(in[0], in[1])
		seen := map[string]bool{}
		for _, q := range plan.Queries {
			assert.False(t, seen[q.Text], "duplicate query %q", q.Text)
			seen[q.Text] = true
		}
	}
}

func TestCategories_Order(t *testing.T) {
	assert.Equal(t, []string{
		domain.CategorySocialProfiles,
		domain.CategoryDocuments,
		domain.CategoryNews,
		domain.CategoryMentions,
		domain.CategoryGeneral,
	}, Categories())
}

func TestRequiredTerms(t *testing.T) {
	assert.Equal(t, []string{"Ada"}, RequiredTerms("Ada", "   "))
	assert.Equal(t, []string{"Ada", "London"}, RequiredTerms(" Ada", "London "))
}
