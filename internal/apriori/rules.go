package apriori

import (
	"sort"
	"strings"
)

// GenerateRules derives every rule A -> B from frequent itemsets of two or
// more labels, where A is a non-empty proper subset and B its complement.
// Rules below minConfidence are discarded. The result is ordered by
// SortRules and is never nil.
func GenerateRules(freq *FrequentItemsets, minConfidence float64) []Rule {
	rules := []Rule{}
	if freq == nil {
		return rules
	}

	for _, set := range freq.All() {
		n := set.Len()
		if n < 2 {
			continue
		}

		for mask := 1; mask < (1<<n)-1; mask++ {
			antecedent := make([]string, 0, n-1)
			consequent := make([]string, 0, n-1)
			for i, item := range set.Items {
				if mask&(1<<i) != 0 {
					antecedent = append(antecedent, item)
				} else {
					consequent = append(consequent, item)
				}
			}

			anteSupport := freq.Support(antecedent)
			if anteSupport == 0 {
				continue
			}
			confidence := set.Support / anteSupport
			if confidence < minConfidence {
				continue
			}

			// sup(AB) / (sup(A) * sup(B)) gives A -> B and B -> A the same lift bits.
			var lift float64
			if consSupport := freq.Support(consequent); consSupport > 0 {
				lift = set.Support / (anteSupport * consSupport)
			}

			rules = append(rules, Rule{
				Antecedent: antecedent,
				Consequent: consequent,
				Support:    set.Support,
				Confidence: confidence,
				Lift:       lift,
			})
		}
	}

	SortRules(rules)
	return rules
}

// SortRules orders rules by lift descending. Ties fall back to confidence
// and support descending, then antecedent and consequent in lexical order.
func SortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Lift != b.Lift {
			return a.Lift > b.Lift
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Support != b.Support {
			return a.Support > b.Support
		}
		if ak, bk := strings.Join(a.Antecedent, keySep), strings.Join(b.Antecedent, keySep); ak != bk {
			return ak < bk
		}
		return strings.Join(a.Consequent, keySep) < strings.Join(b.Consequent, keySep)
	})
}
