// Package model defines the core types shared across the scrape pipeline.
package model

import (
	"net/url"
	"strings"
)

// Pass describes one interaction step against a source page. Passes after
// the first require the browser fetcher (e.g. clicking a pricing tab that
// reveals additional plan tiers).
type Pass struct {
	Name          string `yaml:"name"`
	ClickSelector string `yaml:"click_selector"`
	WaitSelector  string `yaml:"wait_selector"`
	WaitMillis    int    `yaml:"wait_millis"`
}

// SelectorOverrides replaces the default pricing-card selectors for sites
// whose markup deviates from the common patterns.
type SelectorOverrides struct {
	Card  string `yaml:"card"`
	Title string `yaml:"title"`
	Price string `yaml:"price"`
	Rows  string `yaml:"rows"`
}

// FallbackPlan is a previously observed plan, kept in configuration so that
// a source still produces rows when both fetching and parsing fail. Records
// built from fallback data always carry fallback provenance.
type FallbackPlan struct {
	PlanName       string `yaml:"plan_name"`
	AccountType    string `yaml:"account_type"`
	AccountSize    string `yaml:"account_size"`
	Price          string `yaml:"price"`
	ProfitGoal     string `yaml:"profit_goal"`
	TrialType      string `yaml:"trial_type"`
	Drawdown       string `yaml:"drawdown"`
	DrawdownType   string `yaml:"drawdown_type"`
	DailyLossLimit string `yaml:"daily_loss_limit"`
	ActivationFee  string `yaml:"activation_fee"`
	ResetFee       string `yaml:"reset_fee"`
	DiscountCode   string `yaml:"discount_code"`
}

// Source identifies one provider page to fetch and extract plans from.
// Immutable once loaded from configuration.
type Source struct {
	Name       string            `yaml:"name"`
	URL        string            `yaml:"url"`
	Strategies []string          `yaml:"strategies"`
	Passes     []Pass            `yaml:"passes"`
	Overrides  SelectorOverrides `yaml:"selectors"`
	Fallback   []FallbackPlan    `yaml:"fallback"`
}

// Domain returns the source's domain identity: the URL host with any
// leading "www." label removed. Used as the reputation-cache key and for
// detecting repeat visits to the same business.
func (s Source) Domain() string {
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" {
		return strings.TrimPrefix(strings.ToLower(s.URL), "www.")
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// NeedsBrowser reports whether any pass requires headless rendering.
func (s Source) NeedsBrowser() bool {
	return len(s.Passes) > 0
}
