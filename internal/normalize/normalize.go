// Package normalize canonicalizes raw field values extracted from provider
// pages: unit expansion, drawdown classification, and label cleanup.
package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var kTokenRe = regexp.MustCompile(`(\d+(?:\.\d+)?)[kK]`)

// ExpandK expands a trailing "K" suffix on numeric tokens by a factor of
// 1000, preserving any leading currency symbol and surrounding text, and
// renders the result with thousands separators. Whole values drop the
// decimal, fractional values keep one decimal place:
//
//	"50K"   -> "50,000"
//	"$2.5K" -> "$2,500.0"
func ExpandK(value string) string {
	return kTokenRe.ReplaceAllStringFunc(value, func(tok string) string {
		num := tok[:len(tok)-1]
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return tok
		}
		scaled := f * 1000
		if scaled == float64(int64(scaled)) && !strings.Contains(num, ".") {
			return printer.Sprintf("%d", int64(scaled))
		}
		return printer.Sprintf("%.1f", scaled)
	})
}

var (
	currencyRe = regexp.MustCompile(`[$€£]`)
	digitRunRe = regexp.MustCompile(`\d{3,}`)
)

// IsDrawdownAmount reports whether a value belongs in the drawdown-amount
// slot: it must contain a currency symbol or a number of at least three
// digits. Anything else found there is a drawdown type.
func IsDrawdownAmount(value string) bool {
	if currencyRe.MatchString(value) {
		return true
	}
	return digitRunRe.MatchString(strings.ReplaceAll(value, ",", ""))
}

// ClassifyDrawdown routes a raw drawdown value into the amount or type
// slot. Exactly one of the returned values is non-empty for non-empty
// input.
func ClassifyDrawdown(value string) (amount, typ string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ""
	}
	if IsDrawdownAmount(value) {
		return value, ""
	}
	return "", value
}

// TrialType classifies a plan title into an account/trial type using the
// vocabulary the provider sites share.
func TrialType(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "full"):
		return "Full Account"
	case strings.Contains(lower, "static"):
		return "Static Account"
	case strings.Contains(lower, "starter"):
		return "Starter Plus"
	case strings.Contains(lower, "expert"):
		return "Expert"
	case strings.Contains(lower, "eval") && strings.Contains(lower, "live"):
		return "Eval To Live"
	case strings.Contains(lower, "evaluation"):
		return "Evaluation"
	case strings.Contains(lower, "funded"):
		return "Funded"
	default:
		return "Account"
	}
}

var accountSizeRe = regexp.MustCompile(`(\d+(?:\.\d+)?)[kK]`)

// AccountSize pulls an account-size token out of a plan title and renders
// it with a dollar sign, e.g. "25K FULL" -> "$25K".
func AccountSize(title string) string {
	m := accountSizeRe.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	return "$" + m[1] + "K"
}

// Field trims whitespace and collapses inner runs of it. Empty and missing
// values normalize to the explicit empty string, never null, so the output
// column set stays stable.
func Field(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
