// Package aggregate merges extraction candidates into plan records and
// writes the combined table to CSV and XLSX.
package aggregate

import (
	"github.com/sells-group/propscan/internal/model"
)

// Collector accumulates candidates for a single source across extraction
// passes. Candidates sharing an identity (plan name + account size + price)
// merge into one record; merging only fills fields that are still empty, so
// higher-priority passes keep their values.
type Collector struct {
	records []model.PlanRecord
	index   map[string]int
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{index: make(map[string]int)}
}

// Add merges a batch of candidates into the collection. Adding the same
// batch twice is a no-op.
func (c *Collector) Add(cands []model.Candidate) {
	for _, cand := range cands {
		rec := recordFromCandidate(cand)
		key := rec.IdentityKey()
		if i, ok := c.index[key]; ok {
			fillEmpty(&c.records[i], rec)
			continue
		}
		c.index[key] = len(c.records)
		c.records = append(c.records, rec)
	}
}

// Records returns the collected records in insertion order.
func (c *Collector) Records() []model.PlanRecord {
	return c.records
}

// Len reports the number of distinct records collected so far.
func (c *Collector) Len() int {
	return len(c.records)
}

// Enrich applies a value to a field across all collected records that do
// not already carry one. Used for page-level values like review scores.
func (c *Collector) Enrich(apply func(r *model.PlanRecord)) {
	for i := range c.records {
		apply(&c.records[i])
	}
}

func recordFromCandidate(c model.Candidate) model.PlanRecord {
	return model.PlanRecord{
		PlanName:        c.PlanName,
		AccountType:     c.AccountType,
		AccountSize:     c.AccountSize,
		PriceRaw:        c.PriceRaw,
		FundedPrice:     c.FundedPrice,
		DiscountCode:    c.DiscountCode,
		TrialType:       c.TrialType,
		TrustpilotScore: c.TrustpilotScore,
		ProfitGoal:      c.ProfitGoal,
		DrawdownType:    c.DrawdownType,
		Drawdown:        c.Drawdown,
		DailyLossLimit:  c.DailyLossLimit,
		ActivationFee:   c.ActivationFee,
		ResetFee:        c.ResetFee,
		Fallback:        c.Fallback,
	}
}

// fillEmpty copies values from src into dst wherever dst is still empty.
// Existing values always win.
func fillEmpty(dst *model.PlanRecord, src model.PlanRecord) {
	pairs := []struct {
		d *string
		s string
	}{
		{&dst.PlanName, src.PlanName},
		{&dst.AccountType, src.AccountType},
		{&dst.AccountSize, src.AccountSize},
		{&dst.PriceRaw, src.PriceRaw},
		{&dst.FundedPrice, src.FundedPrice},
		{&dst.DiscountCode, src.DiscountCode},
		{&dst.TrialType, src.TrialType},
		{&dst.TrustpilotScore, src.TrustpilotScore},
		{&dst.ProfitGoal, src.ProfitGoal},
		{&dst.DrawdownType, src.DrawdownType},
		{&dst.Drawdown, src.Drawdown},
		{&dst.DailyLossLimit, src.DailyLossLimit},
		{&dst.ActivationFee, src.ActivationFee},
		{&dst.ResetFee, src.ResetFee},
	}
	for _, p := range pairs {
		if *p.d == "" {
			*p.d = p.s
		}
	}
	// A record stops being a fallback row once live data merges into it.
	if !src.Fallback {
		dst.Fallback = false
	}
}
