package model

// PlanRecord is one normalized trading-account pricing plan, the pipeline's
// unit of output. Missing values are empty strings, never null, so the
// tabular output has a stable column set.
type PlanRecord struct {
	BusinessName    string `csv:"business_name" json:"business_name"`
	PlanName        string `csv:"plan_name" json:"plan_name"`
	AccountType     string `csv:"account_type" json:"account_type"`
	AccountSize     string `csv:"account_size" json:"account_size"`
	PriceRaw        string `csv:"price_raw" json:"price_raw"`
	FundedPrice     string `csv:"funded_price" json:"funded_price"`
	DiscountCode    string `csv:"discount_code" json:"discount_code"`
	TrialType       string `csv:"trial_type" json:"trial_type"`
	TrustpilotScore string `csv:"trustpilot_score" json:"trustpilot_score"`
	ProfitGoal      string `csv:"profit_goal" json:"profit_goal"`
	DrawdownType    string `csv:"drawdown_type" json:"drawdown_type"`
	Drawdown        string `csv:"drawdown" json:"drawdown"`
	DailyLossLimit  string `csv:"daily_loss_limit" json:"daily_loss_limit"`
	ActivationFee   string `csv:"activation_fee" json:"activation_fee"`
	ResetFee        string `csv:"reset_fee" json:"reset_fee"`
	SourceURL       string `csv:"source_url" json:"source_url"`
	Source          string `csv:"source" json:"source"`

	// Fallback marks records built from static fallback data. Serialized so
	// downstream consumers can always tell fallback rows from live ones.
	Fallback bool `csv:"fallback" json:"fallback"`
}

// IdentityKey returns the merge identity of a record within one source:
// two candidates describe the same logical plan when plan name, account
// size, and price all match.
func (p PlanRecord) IdentityKey() string {
	return p.PlanName + "\x1f" + p.AccountSize + "\x1f" + p.PriceRaw
}

// DedupeKey returns the cross-source exact-duplicate key used by the
// aggregator: source identity, plan name, and price.
func (p PlanRecord) DedupeKey() string {
	return p.Source + "\x1f" + p.PlanName + "\x1f" + p.PriceRaw
}
