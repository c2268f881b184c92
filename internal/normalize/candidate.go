package normalize

import "github.com/sells-group/propscan/internal/model"

// Candidate canonicalizes a candidate in place: whitespace cleanup on every
// field, drawdown amount/type disambiguation, and derived trial type and
// account size when the strategy left them unset.
func Candidate(c *model.Candidate) {
	for _, f := range []*string{
		&c.PlanName, &c.AccountType, &c.AccountSize, &c.PriceRaw,
		&c.FundedPrice, &c.DiscountCode, &c.TrialType, &c.TrustpilotScore,
		&c.ProfitGoal, &c.DrawdownType, &c.Drawdown, &c.DailyLossLimit,
		&c.ActivationFee, &c.ResetFee, &c.Contracts, &c.Scaling,
		&c.MinTradingDays, &c.Consistency, &c.MaxAccounts,
	} {
		*f = Field(*f)
	}

	// Monetary fields sometimes arrive in K form ("2.5K"). Expanding first
	// also lets the drawdown classifier see the real magnitude.
	c.ProfitGoal = ExpandK(c.ProfitGoal)
	c.Drawdown = ExpandK(c.Drawdown)
	c.DailyLossLimit = ExpandK(c.DailyLossLimit)

	// A non-amount value in the drawdown slot is really a drawdown type.
	if c.Drawdown != "" {
		amount, typ := ClassifyDrawdown(c.Drawdown)
		c.Drawdown = amount
		if typ != "" && c.DrawdownType == "" {
			c.DrawdownType = typ
		}
	}

	if c.TrialType == "" && c.PlanName != "" {
		c.TrialType = TrialType(c.PlanName)
	}
	if c.AccountSize == "" && c.PlanName != "" {
		c.AccountSize = AccountSize(c.PlanName)
	}
}
