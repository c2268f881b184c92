package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/propscan/internal/model"
)

func TestNameByDomain(t *testing.T) {
	names := nameByDomain([]model.Source{
		{Name: "Apex Trader Funding", URL: "https://apextraderfunding.com/pricing"},
		{Name: "Apex Funded View", URL: "https://www.apextraderfunding.com/funded"},
		{Name: "Tradeify", URL: "https://tradeify.co/plans"},
	})

	// Two pages of one business share a domain; the first entry names it.
	assert.Equal(t, "Apex Trader Funding", names["apextraderfunding.com"])
	assert.Equal(t, "Tradeify", names["tradeify.co"])
	assert.Len(t, names, 2)
}
