package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	cause := errors.New("connection refused")

	err := ProviderUnavailable("ddg_html", cause)
	assert.Equal(t, "[provider_unavailable] ddg_html unavailable: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := ValidationError("name is required", nil)
	assert.Equal(t, "[validation] name is required", bare.Error())
}

func TestIsType(t *testing.T) {
	inner := ProviderUnavailable("brave", errors.New("http 503"))
	outer := BackendsExhausted("ada site:github.com", inner)
	wrapped := fmt.Errorf("resolve: %w", outer)

	tests := []struct {
		name string
		err  error
		typ  ErrorType
		want bool
	}{
		{"outer type", wrapped, ErrorTypeBackendsExhausted, true},
		{"nested type", wrapped, ErrorTypeProviderUnavailable, true},
		{"absent type", wrapped, ErrorTypeValidation, false},
		{"plain error", errors.New("x"), ErrorTypeValidation, false},
		{"nil", nil, ErrorTypeValidation, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsType(tt.err, tt.typ))
		})
	}
}

func TestBuckets_Total(t *testing.T) {
	b := Buckets{
		CategoryNews:      {{URL: "a"}, {URL: "b"}},
		CategoryGeneral:   {},
		CategoryDocuments: {{URL: "c"}},
	}
	assert.Equal(t, 3, b.Total())
}

func TestMatchOutcome_Kept(t *testing.T) {
	assert.False(t, MatchOutcome{Kind: NoMatch}.Kept())
	assert.True(t, MatchOutcome{Kind: PartialMatch}.Kept())
	assert.True(t, MatchOutcome{Kind: ExactMatch}.Kept())
	assert.True(t, MatchOutcome{Kind: Unfiltered}.Kept())
	assert.Equal(t, "exact", ExactMatch.String())
}
