package model

// Confidence indicates how an extraction strategy arrived at a candidate.
type Confidence string

const (
	// ConfidenceStructured means the value came from a known markup pattern.
	ConfidenceStructured Confidence = "structured"
	// ConfidenceAnchored means a text pattern matched near the target domain.
	ConfidenceAnchored Confidence = "anchored"
	// ConfidenceScan means a best-guess regex scan over the whole document.
	ConfidenceScan Confidence = "scan"
	// ConfidenceFallback means the value came from static fallback data.
	ConfidenceFallback Confidence = "fallback"
)

// Candidate is one partially extracted plan. Fields are raw strings as seen
// in the document; the empty string means unset. Candidates are transient:
// they are normalized and merged into PlanRecords, never persisted.
type Candidate struct {
	PlanName        string
	AccountType     string
	AccountSize     string
	PriceRaw        string
	FundedPrice     string
	DiscountCode    string
	TrialType       string
	TrustpilotScore string
	ProfitGoal      string
	DrawdownType    string
	Drawdown        string
	DailyLossLimit  string
	ActivationFee   string
	ResetFee        string

	// Recognized attribute rows that are not part of the output schema but
	// must be consumed so their values don't pollute other fields.
	Contracts      string
	Scaling        string
	MinTradingDays string
	Consistency    string
	MaxAccounts    string

	Strategy   string
	Confidence Confidence
	Fallback   bool
}

// Identified reports whether the candidate carries an identifying field.
// The strategy chain only stops on identified candidates.
func (c Candidate) Identified() bool {
	return c.AccountSize != "" || c.PlanName != ""
}
