package extract

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/propscan/internal/model"
)

func doc(body string) *model.RawDocument {
	return &model.RawDocument{
		Body:      []byte(body),
		FinalURL:  "https://apextraderfunding.com/pricing",
		FetchedAt: time.Now().UTC(),
		Kind:      model.KindStaticHTML,
	}
}

func apexSource() model.Source {
	return model.Source{
		Name: "Apex Trader Funding",
		URL:  "https://apextraderfunding.com/pricing",
	}
}

// countingStrategy wraps a fixed result and records invocations.
type countingStrategy struct {
	name  string
	cands []model.Candidate
	err   error
	calls int
}

func (s *countingStrategy) Name() string { return s.name }

func (s *countingStrategy) Extract(_ *model.RawDocument, _ model.Source) ([]model.Candidate, error) {
	s.calls++
	return s.cands, s.err
}

func TestChainStopsAtFirstIdentified(t *testing.T) {
	first := &countingStrategy{name: "first", cands: []model.Candidate{{PlanName: "25K Full"}}}
	second := &countingStrategy{name: "second", cands: []model.Candidate{{PlanName: "other"}}}

	chain := NewChain(first, second)
	out := chain.Extract(doc("<html></html>"), apexSource())

	require.Len(t, out, 1)
	assert.Equal(t, "25K Full", out[0].PlanName)
	assert.Equal(t, "first", out[0].Strategy)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls)
}

func TestChainContinuesPastErrors(t *testing.T) {
	broken := &countingStrategy{name: "broken", err: eris.New("parse failed")}
	working := &countingStrategy{name: "working", cands: []model.Candidate{{AccountSize: "$50K"}}}

	chain := NewChain(broken, working)
	out := chain.Extract(doc("<html></html>"), apexSource())

	require.Len(t, out, 1)
	assert.Equal(t, "working", out[0].Strategy)
	assert.Equal(t, 1, broken.calls)
}

func TestChainCarriesNonIdentifyingCandidates(t *testing.T) {
	rating := &countingStrategy{name: "rating", cands: []model.Candidate{{TrustpilotScore: "4.7"}}}
	plans := &countingStrategy{name: "plans", cands: []model.Candidate{{PlanName: "25K Full"}}}

	chain := NewChain(rating, plans)
	out := chain.Extract(doc("<html></html>"), apexSource())

	// The score alone does not stop the chain; it rides along with the
	// identified batch.
	require.Len(t, out, 2)
	assert.Equal(t, "25K Full", out[0].PlanName)
	assert.Equal(t, "4.7", out[1].TrustpilotScore)
}

func TestChainSelectsSourceSubset(t *testing.T) {
	a := &countingStrategy{name: "a", cands: []model.Candidate{{PlanName: "from a"}}}
	b := &countingStrategy{name: "b", cands: []model.Candidate{{PlanName: "from b"}}}

	src := apexSource()
	src.Strategies = []string{"b", "missing"}

	chain := NewChain(a, b)
	out := chain.Extract(doc("<html></html>"), src)

	require.Len(t, out, 1)
	assert.Equal(t, "from b", out[0].PlanName)
	assert.Equal(t, 0, a.calls)
}

func TestChainResolvesFallbackByName(t *testing.T) {
	src := apexSource()
	src.Strategies = []string{"fallback"}
	src.Fallback = []model.FallbackPlan{
		{PlanName: "50K Starter", Drawdown: "Trailing", ProfitGoal: "2.5K"},
	}

	chain := NewChain(SelectorStrategy{}, RatingStrategy{}, RegexStrategy{}, FallbackStrategy{})
	out := chain.Extract(doc("<html></html>"), src)

	require.Len(t, out, 1)
	c := out[0]
	assert.True(t, c.Fallback)
	assert.Equal(t, "50K Starter", c.PlanName)
	assert.Equal(t, "Trailing", c.DrawdownType)
	assert.Empty(t, c.Drawdown)
	assert.Equal(t, "2,500.0", c.ProfitGoal)
	assert.Equal(t, "$50K", c.AccountSize)
	assert.Equal(t, "Starter Plus", c.TrialType)
}

func TestSelectorStrategyCards(t *testing.T) {
	html := `
	<div class="pricing-card">
		<h3>25K FULL</h3>
		<p class="price">$137/month</p>
		<ul>
			<li>Profit Goal: $1,500</li>
			<li>Daily Drawdown: $625</li>
			<li>Trailing Threshold: $1,250</li>
			<li>Drawdown Mode: End of Day</li>
			<li>Funded Price: $85</li>
			<li>Reset Fee: $80</li>
		</ul>
	</div>
	<p>Use code SAVE80 for 80% off.</p>`

	cands, err := SelectorStrategy{}.Extract(doc(html), apexSource())
	require.NoError(t, err)
	require.Len(t, cands, 1)

	c := cands[0]
	assert.Equal(t, "25K FULL", c.PlanName)
	assert.Equal(t, "$137/month", c.PriceRaw)
	assert.Equal(t, "$1,500", c.ProfitGoal)
	assert.Equal(t, "$625", c.DailyLossLimit)
	assert.Equal(t, "$1,250", c.Drawdown)
	assert.Equal(t, "End of Day", c.DrawdownType)
	assert.Equal(t, "$85", c.FundedPrice)
	assert.Equal(t, "$80", c.ResetFee)
	assert.Equal(t, "SAVE80", c.DiscountCode)
	assert.Equal(t, model.ConfidenceStructured, c.Confidence)
}

func TestSelectorStrategyOverrides(t *testing.T) {
	html := `
	<div class="tier">
		<span class="tier-name">50K Static</span>
		<span class="tier-cost">$99/month</span>
	</div>`

	src := apexSource()
	src.Overrides = model.SelectorOverrides{
		Card:  ".tier",
		Title: ".tier-name",
		Price: ".tier-cost",
	}

	cands, err := SelectorStrategy{}.Extract(doc(html), src)
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "50K Static", cands[0].PlanName)
	assert.Equal(t, "$99/month", cands[0].PriceRaw)
}

func TestSelectorStrategyFirstLabelWins(t *testing.T) {
	html := `
	<div class="pricing-card">
		<h3>25K</h3>
		<ul>
			<li>Profit Goal: $1,500</li>
			<li>Profit Goal: $9,999</li>
		</ul>
	</div>`

	cands, err := SelectorStrategy{}.Extract(doc(html), apexSource())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "$1,500", cands[0].ProfitGoal)
}

func TestRatingStrategyAnchored(t *testing.T) {
	body := `<p>apextraderfunding.com is rated 4.8 • 635 reviews on Trustpilot</p>
	<p>some other firm 3.1 • 12 reviews</p>`

	cands, err := RatingStrategy{}.Extract(doc(body), apexSource())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "4.8", cands[0].TrustpilotScore)
	assert.Equal(t, model.ConfidenceAnchored, cands[0].Confidence)
}

func TestRatingStrategyUnanchored(t *testing.T) {
	body := `<p>Rated 4.2 • 120 reviews by our customers</p>`

	cands, err := RatingStrategy{}.Extract(doc(body), apexSource())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "4.2", cands[0].TrustpilotScore)
	assert.Equal(t, model.ConfidenceScan, cands[0].Confidence)
	assert.False(t, cands[0].Identified())
}

func TestRatingStrategyRejectsOutOfRangeScores(t *testing.T) {
	body := `<p>Impossibly rated 5.9 • 12 reviews somewhere</p>`

	cands, err := RatingStrategy{}.Extract(doc(body), apexSource())
	require.NoError(t, err)
	assert.Empty(t, cands)

	body = `<p>Rated 5.0 • 3 reviews</p>`
	cands, err = RatingStrategy{}.Extract(doc(body), apexSource())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "5.0", cands[0].TrustpilotScore)
}

func TestRegexStrategyScan(t *testing.T) {
	body := `Choose your plan: the 50K account at $170/month with a
	Profit Goal: $3,000 is our most popular.`

	cands, err := RegexStrategy{}.Extract(doc(body), apexSource())
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "$50K", cands[0].AccountSize)
	assert.Equal(t, "$170/month", cands[0].PriceRaw)
	assert.Equal(t, "$3,000", cands[0].ProfitGoal)
	assert.Equal(t, model.ConfidenceScan, cands[0].Confidence)
}

func TestFallbackStrategy(t *testing.T) {
	src := apexSource()
	src.Fallback = []model.FallbackPlan{
		{PlanName: "25K Full", AccountSize: "$25K", Price: "$137/month", DiscountCode: "SAVENOW"},
		{PlanName: "50K Full", AccountSize: "$50K", Price: "$167/month"},
	}

	cands, err := FallbackStrategy{}.Extract(nil, src)
	require.NoError(t, err)
	require.Len(t, cands, 2)
	for _, c := range cands {
		assert.True(t, c.Fallback)
		assert.Equal(t, model.ConfidenceFallback, c.Confidence)
	}
	assert.Equal(t, "SAVENOW", cands[0].DiscountCode)
}
