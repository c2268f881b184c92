// Package trustpilot looks up a business's Trustpilot review score by
// scraping the public search and profile pages.
package trustpilot

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/antzucaro/matchr"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNotFound means the search produced no business profile, or the
// profile page carried no score. Distinct from transport failures.
var ErrNotFound = eris.New("trustpilot: not found")

// Client resolves review scores for businesses.
type Client interface {
	// Score returns the review score (e.g. "4.8") for a business. The
	// domain is used to find and rank candidate profile links.
	Score(ctx context.Context, businessName, domain string) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) { c.http.SetTimeout(d) }
}

type httpClient struct {
	baseURL string
	http    *resty.Client
}

// NewClient creates a Trustpilot client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: "https://www.trustpilot.com",
		http:    resty.New(),
	}
	c.http.SetTimeout(90 * time.Second)
	c.http.SetHeader("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var (
	profileLinkRe = regexp.MustCompile(`/review/[a-zA-Z0-9][a-zA-Z0-9.\-]*`)
	scoreRe       = regexp.MustCompile(`(?i)(\d\.\d)\s*out of\s*5`)
)

// Score searches for the business, picks the best-matching profile link,
// and reads the score off the profile page.
func (c *httpClient) Score(ctx context.Context, businessName, domain string) (string, error) {
	searchURL := c.baseURL + "/search?query=" + url.QueryEscape(businessName)
	searchBody, err := c.get(ctx, searchURL)
	if err != nil {
		return "", eris.Wrapf(err, "trustpilot: search %q", businessName)
	}

	link := bestProfileLink(searchBody, businessName, domain)
	if link == "" {
		return "", ErrNotFound
	}

	profileBody, err := c.get(ctx, c.baseURL+link)
	if err != nil {
		return "", eris.Wrapf(err, "trustpilot: profile %s", link)
	}

	m := scoreRe.FindStringSubmatch(profileBody)
	if m == nil {
		zap.L().Debug("trustpilot: profile has no score",
			zap.String("business", businessName),
			zap.String("profile", link),
		)
		return "", ErrNotFound
	}
	return m[1], nil
}

func (c *httpClient) get(ctx context.Context, u string) (string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(u)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", eris.Errorf("status %d from %s", resp.StatusCode(), u)
	}
	return string(resp.Body()), nil
}

// bestProfileLink picks the candidate /review/<domain> link whose domain
// token is most similar to the business name (or exactly the source
// domain). Several near-duplicate profiles can exist; Jaro-Winkler
// similarity ranks them, first occurrence breaks ties.
func bestProfileLink(searchBody, businessName, domain string) string {
	links := profileLinkRe.FindAllString(searchBody, -1)
	if len(links) == 0 {
		return ""
	}

	normalizedName := strings.ToLower(strings.Join(strings.Fields(businessName), ""))

	best := ""
	bestScore := -1.0
	seen := make(map[string]bool)
	for _, link := range links {
		if seen[link] {
			continue
		}
		seen[link] = true

		token := strings.TrimPrefix(link, "/review/")
		if domain != "" && token == domain {
			return link
		}

		// Compare the profile's domain label against the squashed name.
		label := strings.SplitN(token, ".", 2)[0]
		score := matchr.JaroWinkler(label, normalizedName, true)
		if score > bestScore {
			bestScore = score
			best = link
		}
	}
	return best
}
