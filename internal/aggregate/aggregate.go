package aggregate

import (
	"go.uber.org/zap"

	"github.com/sells-group/propscan/internal/model"
)

// SourceBatch holds one source's finished records together with the
// provenance stamped onto every row.
type SourceBatch struct {
	BusinessName string
	SourceURL    string
	Source       string // domain identity
	Records      []model.PlanRecord
}

// Combine stamps provenance onto every batch, concatenates them in batch
// order, and removes exact duplicates. A row is a duplicate when its source
// identity, plan name, and price match an earlier row; the first occurrence
// is kept.
func Combine(batches []SourceBatch) []model.PlanRecord {
	var out []model.PlanRecord
	seen := make(map[string]bool)

	for _, b := range batches {
		for _, rec := range b.Records {
			rec.BusinessName = b.BusinessName
			rec.SourceURL = b.SourceURL
			rec.Source = b.Source

			key := rec.DedupeKey()
			if seen[key] {
				zap.L().Debug("aggregate: dropping duplicate row",
					zap.String("source", rec.Source),
					zap.String("plan", rec.PlanName),
				)
				continue
			}
			seen[key] = true
			out = append(out, rec)
		}
	}

	return out
}
