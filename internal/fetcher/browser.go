package fetcher

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/propscan/internal/model"
)

// BrowserOptions configures the headless renderer.
type BrowserOptions struct {
	Timeout    time.Duration // per-render, default 60s
	SettleWait time.Duration // post-load wait for JS rendering, default 3s
}

func (o BrowserOptions) withDefaults() BrowserOptions {
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.SettleWait <= 0 {
		o.SettleWait = 3 * time.Second
	}
	return o
}

// BrowserFetcher renders pages in headless Chrome. Used for sources whose
// plans only appear after an interaction pass, and as an escalation when
// the HTTP fetcher gets a JS shell. Requires Chrome/Chromium installed.
type BrowserFetcher struct {
	opts BrowserOptions
}

// NewBrowserFetcher creates a BrowserFetcher.
func NewBrowserFetcher(opts BrowserOptions) *BrowserFetcher {
	return &BrowserFetcher{opts: opts.withDefaults()}
}

// Render navigates to the source, runs the interaction pass if one is
// given, and returns the rendered HTML.
func (b *BrowserFetcher) Render(ctx context.Context, src model.Source, pass model.Pass) (*model.RawDocument, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, b.opts.Timeout)
	defer cancelTimeout()

	actions := []chromedp.Action{
		chromedp.Navigate(src.URL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.opts.SettleWait),
	}

	if pass.ClickSelector != "" {
		actions = append(actions,
			chromedp.Click(pass.ClickSelector, chromedp.NodeVisible),
		)
		if pass.WaitSelector != "" {
			actions = append(actions, chromedp.WaitVisible(pass.WaitSelector))
		}
		wait := time.Duration(pass.WaitMillis) * time.Millisecond
		if wait <= 0 {
			wait = time.Second
		}
		actions = append(actions, chromedp.Sleep(wait))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		if browserCtx.Err() == context.DeadlineExceeded {
			return nil, &Failure{Kind: FailTimeout, URL: src.URL, Err: err}
		}
		return nil, eris.Wrapf(err, "browser: render %s", src.URL)
	}

	zap.L().Debug("browser render complete",
		zap.String("source", src.Name),
		zap.String("pass", pass.Name),
		zap.Int("bytes", len(html)),
	)

	return &model.RawDocument{
		Body:      []byte(html),
		FinalURL:  src.URL,
		FetchedAt: time.Now().UTC(),
		Kind:      model.KindRenderedHTML,
	}, nil
}
