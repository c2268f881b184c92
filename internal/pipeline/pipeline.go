// Package pipeline orchestrates the scrape run: fetch each source, extract
// and merge plan candidates, enrich with reputation scores, and combine
// everything into the final table.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/propscan/internal/aggregate"
	"github.com/sells-group/propscan/internal/extract"
	"github.com/sells-group/propscan/internal/fetcher"
	"github.com/sells-group/propscan/internal/model"
	"github.com/sells-group/propscan/internal/normalize"
	"github.com/sells-group/propscan/internal/scorecache"
)

// SourceStatus is the terminal state of one source within a run.
type SourceStatus string

const (
	StatusCompleted SourceStatus = "completed"
	StatusFailed    SourceStatus = "failed"
)

// SourceReport describes how one source fared. A failed source can still
// carry records (fallback rows, or partial results before cancellation).
type SourceReport struct {
	Source  model.Source
	Status  SourceStatus
	Err     error
	Records int
}

// Result is the outcome of a full run.
type Result struct {
	Records    []model.PlanRecord
	Reports    []SourceReport
	StartedAt  time.Time
	FinishedAt time.Time
}

// Completed returns the number of sources that finished cleanly.
func (r Result) Completed() int {
	n := 0
	for _, rep := range r.Reports {
		if rep.Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Failed returns the number of sources that did not finish cleanly.
func (r Result) Failed() int {
	return len(r.Reports) - r.Completed()
}

// Engine runs the scrape pipeline. Renderer and score cache are optional;
// without a renderer, sources that need one fall through to their fallback
// plans.
type Engine struct {
	fetcher  fetcher.Fetcher
	renderer fetcher.Renderer
	chain    *extract.Chain
	scores   *scorecache.Cache
	workers  int
}

// Options configures an Engine.
type Options struct {
	Fetcher  fetcher.Fetcher
	Renderer fetcher.Renderer
	Chain    *extract.Chain
	Scores   *scorecache.Cache
	Workers  int // concurrent sources, default 4
}

// NewEngine creates an Engine.
func NewEngine(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		fetcher:  opts.Fetcher,
		renderer: opts.Renderer,
		chain:    opts.Chain,
		scores:   opts.Scores,
		workers:  workers,
	}
}

// Run processes all sources concurrently and returns the combined table.
// Source order is preserved in the output regardless of completion order.
// An empty source list is an error; producing an empty table silently
// would look like a successful run.
func (e *Engine) Run(ctx context.Context, sources []model.Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, eris.New("pipeline: no sources to process")
	}

	result := &Result{
		Reports:   make([]SourceReport, len(sources)),
		StartedAt: time.Now().UTC(),
	}
	batches := make([]aggregate.SourceBatch, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, src := range sources {
		g.Go(func() error {
			batch, err := e.processSource(gctx, src)
			batches[i] = batch
			report := SourceReport{Source: src, Status: StatusCompleted, Records: len(batch.Records)}
			if err != nil {
				report.Status = StatusFailed
				report.Err = err
			}
			result.Reports[i] = report
			return nil
		})
	}
	// Workers never return errors; failures are per-source reports.
	_ = g.Wait()

	result.Records = aggregate.Combine(batches)
	result.FinishedAt = time.Now().UTC()

	zap.L().Info("pipeline: run finished",
		zap.Int("sources", len(sources)),
		zap.Int("completed", result.Completed()),
		zap.Int("failed", result.Failed()),
		zap.Int("records", len(result.Records)),
	)
	return result, nil
}

// processSource fetches one source, runs every pass through the strategy
// chain, and merges the candidates. It always produces a batch: when all
// passes fail the source's fallback plans fill in, so a source never
// silently vanishes from the output.
func (e *Engine) processSource(ctx context.Context, src model.Source) (aggregate.SourceBatch, error) {
	log := zap.L().With(zap.String("source", src.Name))
	collector := aggregate.NewCollector()

	pageScore := ""
	var lastErr error

	for _, doc := range e.fetchPasses(ctx, src, &lastErr) {
		rows, score := splitCandidates(e.chain.Extract(doc, src))
		collector.Add(rows)
		if pageScore == "" {
			pageScore = score
		}
		if ctx.Err() != nil {
			lastErr = eris.Wrap(ctx.Err(), "pipeline: source interrupted")
			break
		}
	}

	if collector.Len() == 0 {
		cands, _ := extract.FallbackStrategy{}.Extract(nil, src)
		if len(cands) > 0 {
			log.Warn("pipeline: using fallback plans",
				zap.Int("plans", len(cands)),
				zap.Error(lastErr),
			)
			for i := range cands {
				cands[i].Strategy = extract.FallbackStrategy{}.Name()
				normalize.Candidate(&cands[i])
			}
			collector.Add(cands)
		}
	}

	e.enrichScore(ctx, src, collector, pageScore)

	return aggregate.SourceBatch{
		BusinessName: src.Name,
		SourceURL:    src.URL,
		Source:       src.Domain(),
		Records:      collector.Records(),
	}, lastErr
}

// fetchPasses returns the documents for every configured pass. Sources
// without passes get a single plain HTTP fetch, escalated to the browser
// when the response looks blocked or script-only. Failed passes record
// their error and are skipped.
func (e *Engine) fetchPasses(ctx context.Context, src model.Source, lastErr *error) []*model.RawDocument {
	log := zap.L().With(zap.String("source", src.Name))

	if !src.NeedsBrowser() {
		doc, err := e.fetcher.Fetch(ctx, src)
		if err == nil {
			return []*model.RawDocument{doc}
		}
		*lastErr = err

		// A denied or blocked response often just means the page needs a
		// real browser. One render attempt before giving up.
		if fail, ok := fetcher.AsFailure(err); ok && fail.Kind == fetcher.FailDenied && e.renderer != nil {
			log.Info("pipeline: fetch denied, escalating to browser")
			doc, rerr := e.renderer.Render(ctx, src, model.Pass{})
			if rerr == nil {
				*lastErr = nil
				return []*model.RawDocument{doc}
			}
			*lastErr = rerr
		}
		return nil
	}

	if e.renderer == nil {
		*lastErr = eris.Errorf("pipeline: source %s needs a browser but rendering is disabled", src.Name)
		return nil
	}

	docs := make([]*model.RawDocument, 0, len(src.Passes))
	for _, pass := range src.Passes {
		doc, err := e.renderer.Render(ctx, src, pass)
		if err != nil {
			*lastErr = err
			log.Warn("pipeline: render pass failed",
				zap.String("pass", pass.Name),
				zap.Error(err),
			)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// splitCandidates separates plan rows from page-level reputation scores.
// A candidate with no identity but a score is page metadata, not a row.
func splitCandidates(cands []model.Candidate) (rows []model.Candidate, score string) {
	for _, c := range cands {
		if !c.Identified() && c.TrustpilotScore != "" {
			if score == "" {
				score = c.TrustpilotScore
			}
			continue
		}
		rows = append(rows, c)
	}
	return rows, score
}

// enrichScore fills the reputation score on every record that lacks one.
// A score extracted from the page itself wins over a cache lookup and is
// seeded into the cache so other sources on the same domain reuse it.
func (e *Engine) enrichScore(ctx context.Context, src model.Source, collector *aggregate.Collector, pageScore string) {
	score := pageScore
	switch {
	case score != "" && e.scores != nil:
		e.scores.Seed(map[string]string{src.Domain(): score})
	case score == "" && e.scores != nil:
		score = e.scores.Lookup(ctx, src.Domain())
	}
	if score == "" {
		return
	}
	collector.Enrich(func(r *model.PlanRecord) {
		if r.TrustpilotScore == "" {
			r.TrustpilotScore = score
		}
	})
}
