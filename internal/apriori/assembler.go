package apriori

import (
	"fmt"
	"math"
	"strings"
)

// DefaultTopN is how many bundles per dimension a report carries.
const DefaultTopN = 5

// Bundle is a rule rendered for display.
type Bundle struct {
	Items      []string `json:"items"`
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
	Insight    string   `json:"insight"`
}

// Summary counts rules found before truncation.
type Summary struct {
	TotalBookRules     int `json:"total_book_rules"`
	TotalCategoryRules int `json:"total_category_rules"`
}

// Report is the bundling recommendation for both dimensions.
type Report struct {
	BookBundles     []Bundle `json:"book_bundles"`
	CategoryBundles []Bundle `json:"category_bundles"`
	Summary         Summary  `json:"summary"`
}

// Assemble keeps the first topN rules of each list, which must already be
// ordered by lift, and renders them as bundles.
func Assemble(bookRules, categoryRules []Rule, topN int) Report {
	if topN < 1 {
		topN = DefaultTopN
	}

	return Report{
		BookBundles:     bundles(bookRules, topN, DimensionBook),
		CategoryBundles: bundles(categoryRules, topN, DimensionCategory),
		Summary: Summary{
			TotalBookRules:     len(bookRules),
			TotalCategoryRules: len(categoryRules),
		},
	}
}

func bundles(rules []Rule, topN int, dim Dimension) []Bundle {
	if len(rules) > topN {
		rules = rules[:topN]
	}

	out := make([]Bundle, 0, len(rules))
	for _, r := range rules {
		items := make([]string, 0, len(r.Antecedent)+len(r.Consequent))
		items = append(items, r.Antecedent...)
		items = append(items, r.Consequent...)

		confidence := Round4(r.Confidence)
		out = append(out, Bundle{
			Items:      items,
			Antecedent: r.Antecedent,
			Consequent: r.Consequent,
			Support:    Round4(r.Support),
			Confidence: confidence,
			Lift:       Round4(r.Lift),
			Insight:    Insight(r.Antecedent, r.Consequent, confidence, dim),
		})
	}
	return out
}

// Insight renders the customer-facing sentence for a rule.
func Insight(antecedent, consequent []string, confidence float64, dim Dimension) string {
	// The epsilon keeps 0.29 from printing as 28%.
	pct := int(math.Floor(confidence*100 + 1e-9))
	ante := strings.Join(antecedent, ", ")
	cons := strings.Join(consequent, ", ")

	if dim == DimensionCategory {
		return fmt.Sprintf("%d%% of customers who buy category \"%s\" also buy category \"%s\"", pct, ante, cons)
	}
	return fmt.Sprintf("%d%% of customers who buy \"%s\" also buy \"%s\"", pct, ante, cons)
}

// Round4 rounds to four decimal places for output.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
