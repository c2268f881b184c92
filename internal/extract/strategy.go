// Package extract turns raw documents into candidate plan records through a
// prioritized chain of extraction strategies.
package extract

import (
	"go.uber.org/zap"

	"github.com/sells-group/propscan/internal/model"
	"github.com/sells-group/propscan/internal/normalize"
)

// Strategy is one self-contained method of extracting plan candidates from
// a document. Strategies are stateless and independent of each other; a
// nil document yields no candidates (except for the fallback strategy,
// which needs no document at all).
type Strategy interface {
	Name() string
	Extract(doc *model.RawDocument, src model.Source) ([]model.Candidate, error)
}

// Chain tries strategies in priority order. It stops at the first strategy
// that yields at least one identified candidate (non-empty account size or
// plan name); broader strategies stay uninvoked. Higher-priority strategies
// are more precise, the regex scan is a safety net, and the fallback stays
// last.
type Chain struct {
	strategies []Strategy
	byName     map[string]Strategy
}

// NewChain creates a Chain. The argument order is the default priority
// order; a Source may select a subset by strategy name.
func NewChain(strategies ...Strategy) *Chain {
	byName := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		byName[s.Name()] = s
	}
	return &Chain{strategies: strategies, byName: byName}
}

// Extract runs the chain for one document. Candidates are normalized
// before they are returned. Non-identifying candidates (e.g. a reputation
// score found by the rating strategy) are carried alongside the winning
// batch rather than stopping the chain.
func (c *Chain) Extract(doc *model.RawDocument, src model.Source) []model.Candidate {
	log := zap.L().With(zap.String("source", src.Name))

	var secondary []model.Candidate
	for _, s := range c.selectFor(src) {
		batch, err := s.Extract(doc, src)
		if err != nil {
			log.Debug("extract: strategy failed, trying next",
				zap.String("strategy", s.Name()),
				zap.Error(err),
			)
			continue
		}

		var identified []model.Candidate
		for _, cand := range batch {
			cand.Strategy = s.Name()
			normalize.Candidate(&cand)
			if cand.Identified() {
				identified = append(identified, cand)
			} else {
				secondary = append(secondary, cand)
			}
		}

		if len(identified) > 0 {
			log.Debug("extract: strategy matched",
				zap.String("strategy", s.Name()),
				zap.Int("candidates", len(identified)),
			)
			return append(identified, secondary...)
		}
	}

	return secondary
}

// selectFor resolves a source's strategy list against the registry,
// preserving the source's declared order. Unknown names are skipped; an
// empty list means the full default chain.
func (c *Chain) selectFor(src model.Source) []Strategy {
	if len(src.Strategies) == 0 {
		return c.strategies
	}
	selected := make([]Strategy, 0, len(src.Strategies))
	for _, name := range src.Strategies {
		if s, ok := c.byName[name]; ok {
			selected = append(selected, s)
		} else {
			zap.L().Warn("extract: unknown strategy in source config",
				zap.String("source", src.Name),
				zap.String("strategy", name),
			)
		}
	}
	return selected
}
