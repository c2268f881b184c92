package extract

import "github.com/sells-group/propscan/internal/model"

// FallbackStrategy returns the source's previously observed plans from
// static configuration. Used only when fetching or all parsing strategies
// fail; every candidate it produces carries fallback provenance so the
// rows are never mistaken for live data.
type FallbackStrategy struct{}

func (FallbackStrategy) Name() string { return "fallback" }

func (FallbackStrategy) Extract(_ *model.RawDocument, src model.Source) ([]model.Candidate, error) {
	candidates := make([]model.Candidate, 0, len(src.Fallback))
	for _, fb := range src.Fallback {
		candidates = append(candidates, model.Candidate{
			PlanName:       fb.PlanName,
			AccountType:    fb.AccountType,
			AccountSize:    fb.AccountSize,
			PriceRaw:       fb.Price,
			ProfitGoal:     fb.ProfitGoal,
			TrialType:      fb.TrialType,
			Drawdown:       fb.Drawdown,
			DrawdownType:   fb.DrawdownType,
			DailyLossLimit: fb.DailyLossLimit,
			ActivationFee:  fb.ActivationFee,
			ResetFee:       fb.ResetFee,
			DiscountCode:   fb.DiscountCode,
			Confidence:     model.ConfidenceFallback,
			Fallback:       true,
		})
	}
	return candidates, nil
}
