package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/propscan/internal/model"
)

// accountSizeTokens are the account tiers the provider sites advertise.
var accountSizeTokens = []string{"25K", "50K", "100K", "150K", "250K", "300K"}

var (
	monthlyPriceRe = regexp.MustCompile(`(?i)\$\d+(?:,\d{3})*\s*/\s*month`)
	profitGoalRe   = regexp.MustCompile(`(?i)profit\s+(?:goal|target)[:\s]*(\$[\d,]+)`)
)

// scanWindow is how far past an account-size token the scan looks for a
// price or profit goal belonging to the same tier.
const scanWindow = 400

// RegexStrategy scans the whole document text for known account-size
// tokens independent of markup. Only used when the structure-aware
// strategies found nothing; everything it returns is best-guess.
type RegexStrategy struct{}

func (RegexStrategy) Name() string { return "regex" }

func (RegexStrategy) Extract(doc *model.RawDocument, src model.Source) ([]model.Candidate, error) {
	if doc == nil {
		return nil, nil
	}

	text := string(doc.Body)
	upper := strings.ToUpper(text)

	var candidates []model.Candidate
	for _, token := range accountSizeTokens {
		idx := strings.Index(upper, token)
		if idx < 0 {
			continue
		}

		c := model.Candidate{
			AccountSize: "$" + token,
			Confidence:  model.ConfidenceScan,
		}

		end := idx + scanWindow
		if end > len(text) {
			end = len(text)
		}
		window := text[idx:end]
		c.PriceRaw = monthlyPriceRe.FindString(window)
		if m := profitGoalRe.FindStringSubmatch(window); m != nil {
			c.ProfitGoal = m[1]
		}

		candidates = append(candidates, c)
	}

	return candidates, nil
}
