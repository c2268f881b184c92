package extract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/propscan/internal/model"
)

// Default selectors for the repeating pricing-card pattern the provider
// sites share. Sources with unusual markup override these in config.
const (
	defaultCardSelector  = ".pricing__item, .pricing-card, .plan-card, [class*='pricing'], [class*='plan']"
	defaultTitleSelector = "h3, h2, [class*='title']"
	defaultPriceSelector = "[class*='price'], [class*='bottom'] p"
	defaultRowsSelector  = "li, [class*='list-item'], tr"
)

var priceRe = regexp.MustCompile(`(?i)\$\d+(?:,\d{3})*(?:\.\d{2})?(?:\s*/\s*month)?`)

// labelRule maps a recognized attribute-row label onto a candidate field.
// Rules are checked in order, so more specific labels come first ("daily
// drawdown" before "drawdown").
type labelRule struct {
	label  string
	assign func(c *model.Candidate, v string)
}

var labelRules = []labelRule{
	{"funded price", func(c *model.Candidate, v string) { setIfEmpty(&c.FundedPrice, v) }},
	{"account type", func(c *model.Candidate, v string) { setIfEmpty(&c.AccountType, v) }},
	{"profit goal", func(c *model.Candidate, v string) { setIfEmpty(&c.ProfitGoal, v) }},
	{"profit target", func(c *model.Candidate, v string) { setIfEmpty(&c.ProfitGoal, v) }},
	{"daily drawdown", func(c *model.Candidate, v string) { setIfEmpty(&c.DailyLossLimit, v) }},
	{"daily loss limit", func(c *model.Candidate, v string) { setIfEmpty(&c.DailyLossLimit, v) }},
	{"loss limit", func(c *model.Candidate, v string) { setIfEmpty(&c.DailyLossLimit, v) }},
	{"soft breach", func(c *model.Candidate, v string) { setIfEmpty(&c.DailyLossLimit, v) }},
	{"trailing threshold", func(c *model.Candidate, v string) { setIfEmpty(&c.Drawdown, v) }},
	{"trailing max drawdown", func(c *model.Candidate, v string) { setIfEmpty(&c.Drawdown, v) }},
	{"max drawdown", func(c *model.Candidate, v string) { setIfEmpty(&c.Drawdown, v) }},
	{"drawdown mode", func(c *model.Candidate, v string) { setIfEmpty(&c.DrawdownType, v) }},
	{"drawdown", func(c *model.Candidate, v string) { setIfEmpty(&c.Drawdown, v) }},
	{"activation fee", func(c *model.Candidate, v string) { setIfEmpty(&c.ActivationFee, v) }},
	{"reset fee", func(c *model.Candidate, v string) { setIfEmpty(&c.ResetFee, v) }},
	{"contracts", func(c *model.Candidate, v string) { setIfEmpty(&c.Contracts, v) }},
	{"scaling", func(c *model.Candidate, v string) { setIfEmpty(&c.Scaling, v) }},
	{"min trading days", func(c *model.Candidate, v string) { setIfEmpty(&c.MinTradingDays, v) }},
	{"trading days", func(c *model.Candidate, v string) { setIfEmpty(&c.MinTradingDays, v) }},
	{"consistency", func(c *model.Candidate, v string) { setIfEmpty(&c.Consistency, v) }},
	{"max accounts", func(c *model.Candidate, v string) { setIfEmpty(&c.MaxAccounts, v) }},
}

// setIfEmpty implements the first-in-document-order-wins tie break.
func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}

var discountRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:code|coupon):\s*([A-Z0-9]{3,15})`),
	regexp.MustCompile(`(?i)use\s+(?:code|coupon)\s+([A-Z0-9]{3,15})`),
	regexp.MustCompile(`(?i)promo\s*code:\s*([A-Z0-9]{3,15})`),
	regexp.MustCompile(`(?i)discount\s*code:\s*([A-Z0-9]{3,15})`),
}

// SelectorStrategy locates repeating pricing-card elements through known
// structural patterns and reads their title, price, and labeled attribute
// rows. The most precise strategy in the chain.
type SelectorStrategy struct{}

func (SelectorStrategy) Name() string { return "structured" }

func (SelectorStrategy) Extract(doc *model.RawDocument, src model.Source) ([]model.Candidate, error) {
	if doc == nil {
		return nil, nil
	}

	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(doc.Body))
	if err != nil {
		return nil, eris.Wrap(err, "structured: parse document")
	}

	cardSel := src.Overrides.Card
	if cardSel == "" {
		cardSel = defaultCardSelector
	}
	titleSel := src.Overrides.Title
	if titleSel == "" {
		titleSel = defaultTitleSelector
	}
	priceSel := src.Overrides.Price
	if priceSel == "" {
		priceSel = defaultPriceSelector
	}
	rowsSel := src.Overrides.Rows
	if rowsSel == "" {
		rowsSel = defaultRowsSelector
	}

	discount := pageDiscountCode(gq)

	var candidates []model.Candidate
	seen := make(map[string]bool)

	gq.Find(cardSel).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(titleSel).First().Text())
		if title == "" {
			return
		}

		c := model.Candidate{
			PlanName:     title,
			DiscountCode: discount,
			Confidence:   model.ConfidenceStructured,
		}

		if priceText := card.Find(priceSel).First().Text(); priceText != "" {
			c.PriceRaw = priceRe.FindString(priceText)
		}
		if c.PriceRaw == "" {
			c.PriceRaw = priceRe.FindString(card.Text())
		}

		card.Find(rowsSel).Each(func(_ int, row *goquery.Selection) {
			applyRow(&c, row.Text())
		})

		// Nested selector matches produce the same card twice.
		key := title + "\x1f" + c.PriceRaw
		if seen[key] {
			return
		}
		seen[key] = true

		candidates = append(candidates, c)
	})

	return candidates, nil
}

// applyRow matches one attribute row ("<Label>: <value>" or "<Label>
// <value>") against the recognized label table and assigns the value.
func applyRow(c *model.Candidate, text string) {
	text = strings.Join(strings.Fields(text), " ")
	lower := strings.ToLower(text)
	for _, rule := range labelRules {
		idx := strings.Index(lower, rule.label)
		if idx < 0 {
			continue
		}
		value := strings.TrimSpace(text[idx+len(rule.label):])
		value = strings.TrimSpace(strings.TrimPrefix(value, ":"))
		if value != "" {
			rule.assign(c, value)
		}
		return
	}
}

// pageDiscountCode scans the page text for a promo/coupon code. Codes are
// page-level on these sites, not per card.
func pageDiscountCode(gq *goquery.Document) string {
	text := gq.Text()
	for _, re := range discountRes {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
