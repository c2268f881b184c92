package fetcher

import (
	"context"
	"math/rand/v2"
	"net/url"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/propscan/internal/model"
)

// defaultUserAgents is the fixed identity pool rotated across retries so a
// single blocked fingerprint doesn't sink the whole source.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// deniedHeaders are added for the attempt immediately after an
// access-denied response. Request shaping only, best effort: a referrer
// and client-hint headers make the request look like a browser navigation.
var deniedHeaders = map[string]string{
	"Referer":            "https://www.google.com/",
	"Sec-Ch-Ua":          `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
	"Sec-Ch-Ua-Mobile":   "?0",
	"Sec-Ch-Ua-Platform": `"Windows"`,
}

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	MaxRetries int           // total attempts, default 3
	Timeout    time.Duration // per-request, default 30s
	UserAgents []string      // identity pool, defaults to defaultUserAgents

	// Backoff ranges. A random delay in [Min, Max) is slept between
	// attempts; the rate-limited range applies after a 429.
	BackoffMin          time.Duration // default 2s
	BackoffMax          time.Duration // default 5s
	RateLimitBackoffMin time.Duration // default 10s
	RateLimitBackoffMax time.Duration // default 20s

	// PerHostRate bounds request frequency per remote host. Default 2/s.
	PerHostRate  rate.Limit
	PerHostBurst int
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if len(o.UserAgents) == 0 {
		o.UserAgents = defaultUserAgents
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = 2 * time.Second
	}
	if o.BackoffMax <= o.BackoffMin {
		o.BackoffMax = o.BackoffMin + 3*time.Second
	}
	if o.RateLimitBackoffMin <= 0 {
		o.RateLimitBackoffMin = 10 * time.Second
	}
	if o.RateLimitBackoffMax <= o.RateLimitBackoffMin {
		o.RateLimitBackoffMax = o.RateLimitBackoffMin + 10*time.Second
	}
	if o.PerHostRate <= 0 {
		o.PerHostRate = 2
	}
	if o.PerHostBurst <= 0 {
		o.PerHostBurst = 2
	}
	return o
}

// HTTPFetcher fetches source pages over plain HTTP with retry, identity
// rotation, and per-host rate limiting. Header state is scoped to a single
// Fetch call; concurrent source workers never share mutable request state.
type HTTPFetcher struct {
	client *resty.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	opts = opts.withDefaults()

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Language", "en-US,en;q=0.9")
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	return &HTTPFetcher{
		client:   client,
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

// limiterFor returns the rate limiter for a URL's host, creating one on
// first use.
func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(f.opts.PerHostRate, f.opts.PerHostBurst)
		f.limiters[host] = lim
	}
	return lim
}

// Fetch retrieves the source's default view. On exhaustion it returns the
// last typed *Failure; the caller falls through to fallback extraction.
func (f *HTTPFetcher) Fetch(ctx context.Context, src model.Source) (*model.RawDocument, error) {
	log := zap.L().With(zap.String("source", src.Name), zap.String("url", src.URL))
	lim := f.limiterFor(src.URL)

	// Start at a random point in the pool so concurrent workers don't all
	// present the same identity.
	uaOffset := rand.IntN(len(f.opts.UserAgents))

	var lastFail *Failure
	shaped := false

	for attempt := 0; attempt < f.opts.MaxRetries; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}

		req := f.client.R().SetContext(ctx)
		req.SetHeader("User-Agent", f.opts.UserAgents[(uaOffset+attempt)%len(f.opts.UserAgents)])
		if shaped {
			// One-shot request shaping after a denial.
			req.SetHeaders(deniedHeaders)
			shaped = false
		}

		resp, err := req.Get(src.URL)
		if err != nil {
			lastFail = classifyTransport(src.URL, err)
			log.Warn("fetch transport error, retrying",
				zap.Int("attempt", attempt+1),
				zap.String("kind", string(lastFail.Kind)),
				zap.Error(err),
			)
			if !f.backoff(ctx, attempt, f.opts.BackoffMin, f.opts.BackoffMax) {
				return nil, lastFail
			}
			continue
		}

		status := resp.StatusCode()
		body := resp.Body()

		if blocked, blockType := DetectBlock(resp.RawResponse, body); blocked {
			lastFail = &Failure{Kind: FailDenied, StatusCode: status, URL: src.URL,
				Err: eris.Errorf("blocked (%s)", blockType)}
			shaped = true
			log.Warn("fetch blocked, reshaping request",
				zap.Int("attempt", attempt+1),
				zap.String("block", string(blockType)),
			)
			if !f.backoff(ctx, attempt, f.opts.BackoffMin, f.opts.BackoffMax) {
				return nil, lastFail
			}
			continue
		}

		if status >= 200 && status < 300 {
			finalURL := src.URL
			if resp.RawResponse != nil && resp.RawResponse.Request != nil {
				finalURL = resp.RawResponse.Request.URL.String()
			}
			return &model.RawDocument{
				Body:      body,
				FinalURL:  finalURL,
				FetchedAt: time.Now().UTC(),
				Kind:      model.KindStaticHTML,
			}, nil
		}

		lastFail = classifyStatus(src.URL, status)
		min, max := f.opts.BackoffMin, f.opts.BackoffMax
		switch lastFail.Kind {
		case FailDenied:
			shaped = true
			log.Warn("fetch denied, reshaping request", zap.Int("attempt", attempt+1))
		case FailRateLimited:
			min, max = f.opts.RateLimitBackoffMin, f.opts.RateLimitBackoffMax
			log.Warn("fetch rate limited, backing off", zap.Int("attempt", attempt+1))
		default:
			log.Warn("fetch http error, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("status", status),
			)
		}
		if !f.backoff(ctx, attempt, min, max) {
			return nil, lastFail
		}
	}

	if lastFail == nil {
		lastFail = &Failure{Kind: FailNetwork, URL: src.URL, Err: eris.New("no attempts made")}
	}
	return nil, lastFail
}

// backoff sleeps a random duration in [min, max) between attempts. No
// sleep after the final attempt. Returns false when the context was
// cancelled first.
func (f *HTTPFetcher) backoff(ctx context.Context, attempt int, min, max time.Duration) bool {
	if attempt >= f.opts.MaxRetries-1 {
		return ctx.Err() == nil
	}
	d := min + time.Duration(rand.Int64N(int64(max-min)))
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
