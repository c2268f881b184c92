package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/propscan/internal/model"
)

// ratingRe matches a review-score fragment such as "4.8 • 635 reviews".
// Scores run 0.0 through 5.0, so 5.x values above 5.0 are rejected.
var ratingRe = regexp.MustCompile(`([0-4]\.\d|5\.0)\s*[•·|]\s*([\d,]+)\s*reviews`)

// ratingWindow is how close (in bytes) a rating must sit to a domain
// mention to count as anchored.
const ratingWindow = 300

// RatingStrategy finds a third-party reputation score in document text. A
// match near an occurrence of the source's domain name is preferred; a
// match anywhere else is returned with scan confidence so callers know it
// is a guess.
type RatingStrategy struct{}

func (RatingStrategy) Name() string { return "rating" }

func (RatingStrategy) Extract(doc *model.RawDocument, src model.Source) ([]model.Candidate, error) {
	if doc == nil {
		return nil, nil
	}

	text := string(doc.Body)
	lower := strings.ToLower(text)
	domain := src.Domain()

	matches := ratingRe.FindAllStringSubmatchIndex(lower, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	// Anchored: rating within the window of a domain mention.
	if domain != "" {
		for from := 0; ; {
			idx := strings.Index(lower[from:], domain)
			if idx < 0 {
				break
			}
			at := from + idx
			for _, m := range matches {
				if abs(m[0]-at) <= ratingWindow {
					return []model.Candidate{{
						TrustpilotScore: text[m[2]:m[3]],
						Confidence:      model.ConfidenceAnchored,
					}}, nil
				}
			}
			from = at + len(domain)
		}
	}

	// Unanchored fallback: first rating anywhere, flagged as a guess.
	m := matches[0]
	return []model.Candidate{{
		TrustpilotScore: text[m[2]:m[3]],
		Confidence:      model.ConfidenceScan,
	}}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
