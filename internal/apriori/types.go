// Package apriori mines market-basket association rules from point-of-sale
// rows and turns the strongest ones into bundling recommendations.
//
// The pipeline runs in four stages, each with typed inputs and outputs:
//
//	records  --GroupByBook/GroupByCategory-->  Batch
//	Batch    --Miner.Mine-->                   *FrequentItemsets
//	itemsets --GenerateRules-->                []Rule
//	rules    --Assemble-->                     Report
//
// Every stage is synchronous and allocates fresh state per call, so a single
// Analyzer may be shared between goroutines.
package apriori

// Record is one purchased line item as returned by the transaction store.
type Record struct {
	TransactionID int64  `json:"transaction_id"`
	Title         string `json:"title"`
	Category      string `json:"category"`
}

// Transaction is the list of labels bought together in one transaction.
type Transaction []string

// Batch is an ordered sequence of transactions handed to the miner.
type Batch []Transaction

// Itemset is a frequent set of labels together with its support.
type Itemset struct {
	// Items are the labels in ascending lexical order.
	Items []string `json:"items"`

	// Count is the number of transactions containing every label.
	Count int `json:"count"`

	// Support is Count divided by the batch size.
	Support float64 `json:"support"`
}

// Len returns the number of labels in the itemset.
func (s Itemset) Len() int {
	return len(s.Items)
}

// Rule is a directional association antecedent -> consequent.
// Support, Confidence and Lift are kept unrounded.
type Rule struct {
	Antecedent []string `json:"antecedent"`
	Consequent []string `json:"consequent"`
	Support    float64  `json:"support"`
	Confidence float64  `json:"confidence"`
	Lift       float64  `json:"lift"`
}

// Dimension selects which label of a record is mined.
type Dimension string

const (
	DimensionBook     Dimension = "book"
	DimensionCategory Dimension = "category"
)
