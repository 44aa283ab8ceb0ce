package apriori

import (
	"math"

	"github.com/rs/zerolog"
)

// Default mining thresholds.
const (
	DefaultMinSupport    = 0.05
	DefaultMinConfidence = 0.3
)

// categorySupportFloor bounds the relaxed category threshold from below.
const categorySupportFloor = 0.03

// Parameters are the thresholds for one analysis run.
type Parameters struct {
	MinSupport    float64 `json:"min_support"`
	MinConfidence float64 `json:"min_confidence"`
	MaxLen        int     `json:"max_len"`
	TopN          int     `json:"-"`
}

// DefaultParameters returns the stock thresholds.
func DefaultParameters() Parameters {
	return Parameters{
		MinSupport:    DefaultMinSupport,
		MinConfidence: DefaultMinConfidence,
		MaxLen:        DefaultMaxLen,
		TopN:          DefaultTopN,
	}
}

// CategoryMinSupport relaxes the book threshold for category mining, whose
// vocabulary is much smaller.
func CategoryMinSupport(minSupport float64) float64 {
	return math.Max(categorySupportFloor, minSupport-0.02)
}

// Analysis is the outcome of mining both dimensions of one record set.
type Analysis struct {
	BookTransactions     int
	CategoryTransactions int
	BookRules            []Rule
	CategoryRules        []Rule
	Report               Report
}

// Analyzer runs the grouping, mining, rule and assembly stages.
type Analyzer struct {
	miner *Miner
}

// NewAnalyzer builds an analyzer logging through logger.
func NewAnalyzer(logger zerolog.Logger) *Analyzer {
	return &Analyzer{miner: NewMiner(logger)}
}

// Analyze mines books with p.MinSupport and categories with the relaxed
// CategoryMinSupport. Both dimensions share p.MaxLen and p.MinConfidence.
func (a *Analyzer) Analyze(records []Record, p Parameters) Analysis {
	books := GroupByBook(records)
	categories := GroupByCategory(records)

	bookRules := GenerateRules(a.miner.Mine(books, p.MinSupport, p.MaxLen), p.MinConfidence)
	categoryRules := GenerateRules(
		a.miner.Mine(categories, CategoryMinSupport(p.MinSupport), p.MaxLen),
		p.MinConfidence,
	)

	return Analysis{
		BookTransactions:     len(books),
		CategoryTransactions: len(categories),
		BookRules:            bookRules,
		CategoryRules:        categoryRules,
		Report:               Assemble(bookRules, categoryRules, p.TopN),
	}
}
