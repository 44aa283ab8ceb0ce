package apriori

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_EmptyInputs(t *testing.T) {
	report := Assemble(nil, nil, DefaultTopN)

	require.NotNil(t, report.BookBundles)
	require.NotNil(t, report.CategoryBundles)
	assert.Empty(t, report.BookBundles)
	assert.Empty(t, report.CategoryBundles)
	assert.Equal(t, Summary{}, report.Summary)
}

func TestAssemble_TruncatesToTopN(t *testing.T) {
	var rules []Rule
	for i := 0; i < 8; i++ {
		rules = append(rules, Rule{
			Antecedent: []string{fmt.Sprintf("Book %d", i)},
			Consequent: []string{"Dune"},
			Support:    0.1,
			Confidence: 0.5,
			Lift:       float64(i + 1),
		})
	}
	SortRules(rules)

	report := Assemble(rules, rules[:3], 5)

	require.Len(t, report.BookBundles, 5)
	assert.Len(t, report.CategoryBundles, 3)
	assert.Equal(t, 8, report.Summary.TotalBookRules)
	assert.Equal(t, 3, report.Summary.TotalCategoryRules)

	for i := 1; i < len(report.BookBundles); i++ {
		assert.Greater(t, report.BookBundles[i-1].Lift, report.BookBundles[i].Lift)
	}
	assert.Equal(t, 8.0, report.BookBundles[0].Lift)
}

func TestAssemble_DefaultTopN(t *testing.T) {
	rules := make([]Rule, 7)
	for i := range rules {
		rules[i] = Rule{Antecedent: []string{"A"}, Consequent: []string{"B"}, Confidence: 1, Lift: 1}
	}

	report := Assemble(rules, nil, 0)
	assert.Len(t, report.BookBundles, DefaultTopN)
}

func TestAssemble_RendersBundles(t *testing.T) {
	book := []Rule{{
		Antecedent: []string{"Dune", "Foundation"},
		Consequent: []string{"Hyperion"},
		Support:    0.123456,
		Confidence: 2.0 / 3.0,
		Lift:       1.499999,
	}}
	category := []Rule{{
		Antecedent: []string{"Fiction"},
		Consequent: []string{"Mystery"},
		Support:    0.05,
		Confidence: 0.29,
		Lift:       1.2,
	}}

	report := Assemble(book, category, DefaultTopN)
	require.Len(t, report.BookBundles, 1)
	require.Len(t, report.CategoryBundles, 1)

	b := report.BookBundles[0]
	assert.Equal(t, []string{"Dune", "Foundation", "Hyperion"}, b.Items)
	assert.Equal(t, []string{"Dune", "Foundation"}, b.Antecedent)
	assert.Equal(t, []string{"Hyperion"}, b.Consequent)
	assert.Equal(t, 0.1235, b.Support)
	assert.Equal(t, 0.6667, b.Confidence)
	assert.Equal(t, 1.5, b.Lift)
	assert.Equal(t, `66% of customers who buy "Dune, Foundation" also buy "Hyperion"`, b.Insight)

	c := report.CategoryBundles[0]
	assert.Equal(t, []string{"Fiction", "Mystery"}, c.Items)
	assert.Equal(t, `29% of customers who buy category "Fiction" also buy category "Mystery"`, c.Insight)
}

func TestInsight(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		dim        Dimension
		want       string
	}{
		{name: "full confidence", confidence: 1, dim: DimensionBook, want: `100% of customers who buy "A" also buy "B"`},
		{name: "truncates fraction", confidence: 0.3456, dim: DimensionBook, want: `34% of customers who buy "A" also buy "B"`},
		{name: "category wording", confidence: 0.5, dim: DimensionCategory, want: `50% of customers who buy category "A" also buy category "B"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Insight([]string{"A"}, []string{"B"}, tt.confidence, tt.dim))
		})
	}
}

func TestRound4(t *testing.T) {
	assert.Equal(t, 0.6667, Round4(2.0/3.0))
	assert.Equal(t, 0.3333, Round4(1.0/3.0))
	assert.Equal(t, 1.0, Round4(0.99999))
	assert.Equal(t, 0.0, Round4(0))
}
