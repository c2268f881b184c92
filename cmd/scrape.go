package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/propscan/internal/aggregate"
	"github.com/sells-group/propscan/internal/config"
	"github.com/sells-group/propscan/internal/extract"
	"github.com/sells-group/propscan/internal/fetcher"
	"github.com/sells-group/propscan/internal/model"
	"github.com/sells-group/propscan/internal/pipeline"
	"github.com/sells-group/propscan/internal/scorecache"
	"github.com/sells-group/propscan/internal/store"
	"github.com/sells-group/propscan/pkg/trustpilot"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape all configured sources and export the plan table",
	Long: `Scrape every source in the catalog, extract pricing plans, and write
the combined table to CSV and XLSX.

Sources that fail to fetch or parse fall back to their configured static
plans; those rows carry fallback provenance. Review scores are looked up
once per domain and persisted across runs.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "scrape"))

		sourcesPath, _ := cmd.Flags().GetString("sources")
		if sourcesPath == "" {
			sourcesPath = cfg.Scrape.SourcesPath
		}
		sources, err := config.LoadSources(sourcesPath)
		if err != nil {
			return err
		}

		db, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}

		scores, err := buildScoreCache(ctx, db, sources)
		if err != nil {
			return err
		}

		noBrowser, _ := cmd.Flags().GetBool("no-browser")
		engine := pipeline.NewEngine(pipeline.Options{
			Fetcher:  buildFetcher(),
			Renderer: buildRenderer(noBrowser),
			Chain: extract.NewChain(
				extract.SelectorStrategy{},
				extract.RatingStrategy{},
				extract.RegexStrategy{},
				extract.FallbackStrategy{},
			),
			Scores:  scores,
			Workers: cfg.Scrape.Workers,
		})

		log.Info("starting scrape",
			zap.Int("sources", len(sources)),
			zap.Int("workers", cfg.Scrape.Workers),
		)

		result, err := engine.Run(ctx, sources)
		if err != nil {
			return eris.Wrap(err, "scrape")
		}

		if err := aggregate.ExportCSV(cfg.Output.CSVPath, result.Records); err != nil {
			return err
		}
		if err := aggregate.ExportXLSX(cfg.Output.XLSXPath, result.Records); err != nil {
			return err
		}

		if scores != nil {
			if err := db.SaveScores(ctx, scores.Snapshot()); err != nil {
				log.Warn("persisting scores failed", zap.Error(err))
			}
		}

		summary := store.RunSummary{
			Sources:    len(sources),
			Completed:  result.Completed(),
			Failed:     result.Failed(),
			Records:    len(result.Records),
			StartedAt:  result.StartedAt,
			FinishedAt: result.FinishedAt,
		}
		for _, rep := range result.Reports {
			if rep.Err != nil {
				summary.SourceNotes = append(summary.SourceNotes,
					rep.Source.Name+": "+rep.Err.Error())
			}
		}
		if _, err := db.SaveRun(ctx, summary); err != nil {
			log.Warn("persisting run summary failed", zap.Error(err))
		}

		log.Info("scrape finished",
			zap.Int("records", len(result.Records)),
			zap.Int("completed", result.Completed()),
			zap.Int("failed", result.Failed()),
			zap.String("csv", cfg.Output.CSVPath),
			zap.String("xlsx", cfg.Output.XLSXPath),
		)
		return nil
	},
}

func buildFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		MaxRetries:          cfg.Scrape.MaxRetries,
		Timeout:             time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		BackoffMin:          time.Duration(cfg.Scrape.BackoffMinSecs) * time.Second,
		BackoffMax:          time.Duration(cfg.Scrape.BackoffMaxSecs) * time.Second,
		RateLimitBackoffMin: time.Duration(cfg.Scrape.RateLimitBackoffMinSecs) * time.Second,
		RateLimitBackoffMax: time.Duration(cfg.Scrape.RateLimitBackoffMaxSecs) * time.Second,
		PerHostRate:         rate.Limit(cfg.Scrape.PerHostRate),
	})
}

func buildRenderer(noBrowser bool) fetcher.Renderer {
	if noBrowser {
		return nil
	}
	return fetcher.NewBrowserFetcher(fetcher.BrowserOptions{
		Timeout:    time.Duration(cfg.Browser.TimeoutSecs) * time.Second,
		SettleWait: time.Duration(cfg.Browser.SettleWaitSecs) * time.Second,
	})
}

// buildScoreCache wires the Trustpilot client behind the single-flight
// cache and seeds it from previously persisted scores. Lookups search by
// the source's business name; the domain stays the cache key.
func buildScoreCache(ctx context.Context, db *store.SQLiteStore, sources []model.Source) (*scorecache.Cache, error) {
	if !cfg.Trustpilot.Enabled {
		return nil, nil
	}

	names := nameByDomain(sources)
	tp := trustpilot.NewClient(trustpilot.WithBaseURL(cfg.Trustpilot.BaseURL))
	cache := scorecache.New(func(ctx context.Context, domain string) (string, error) {
		name := names[domain]
		if name == "" {
			name = domain
		}
		score, err := tp.Score(ctx, name, domain)
		if eris.Is(err, trustpilot.ErrNotFound) {
			return "", scorecache.ErrNotFound
		}
		return score, err
	})

	persisted, err := db.LoadScores(ctx)
	if err != nil {
		return nil, err
	}
	cache.Seed(persisted)
	return cache, nil
}

// nameByDomain maps each domain identity to its business name. Multiple
// pages of one business share a domain; the first catalog entry names it.
func nameByDomain(sources []model.Source) map[string]string {
	names := make(map[string]string, len(sources))
	for _, src := range sources {
		if _, ok := names[src.Domain()]; !ok {
			names[src.Domain()] = src.Name
		}
	}
	return names
}

func init() {
	scrapeCmd.Flags().String("sources", "", "path to the source catalog (defaults to config)")
	scrapeCmd.Flags().Bool("no-browser", false, "disable headless rendering")
	rootCmd.AddCommand(scrapeCmd)
}
