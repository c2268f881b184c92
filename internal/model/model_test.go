package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.apextraderfunding.com/pricing", "apextraderfunding.com"},
		{"https://Tradeify.co/plans?x=1", "tradeify.co"},
		{"http://myfundedfutures.com", "myfundedfutures.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Source{URL: tt.url}.Domain())
	}
}

func TestSourceNeedsBrowser(t *testing.T) {
	assert.False(t, Source{}.NeedsBrowser())
	assert.True(t, Source{Passes: []Pass{{Name: "monthly"}}}.NeedsBrowser())
}

func TestCandidateIdentified(t *testing.T) {
	assert.False(t, Candidate{TrustpilotScore: "4.7"}.Identified())
	assert.True(t, Candidate{PlanName: "25K Full"}.Identified())
	assert.True(t, Candidate{AccountSize: "$25K"}.Identified())
}

func TestPlanRecordKeys(t *testing.T) {
	a := PlanRecord{PlanName: "25K Full", AccountSize: "$25K", PriceRaw: "$137/month", Source: "a.com"}
	b := a
	b.Source = "b.com"

	assert.Equal(t, a.IdentityKey(), b.IdentityKey())
	assert.NotEqual(t, a.DedupeKey(), b.DedupeKey())
}
