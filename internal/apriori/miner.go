package apriori

import (
	"github.com/rs/zerolog"
)

// DefaultMaxLen caps itemset size when no positive length is given.
const DefaultMaxLen = 3

// Miner enumerates frequent itemsets level by level (Apriori).
type Miner struct {
	logger zerolog.Logger
	encode func(Batch) *matrix
}

// NewMiner creates a miner that reports mining failures to logger.
func NewMiner(logger zerolog.Logger) *Miner {
	return &Miner{
		logger: logger.With().Str("component", "miner").Logger(),
		encode: encode,
	}
}

// Mine returns every itemset of at most maxLen labels whose support in batch
// is at least minSupport. Batches with fewer than two transactions yield an
// empty table without running the algorithm.
//
// An unexpected fault while encoding or enumerating is logged and degraded to
// an empty table.
func (m *Miner) Mine(batch Batch, minSupport float64, maxLen int) (freq *FrequentItemsets) {
	if len(batch) < 2 {
		return emptyItemsets()
	}
	if maxLen < 1 {
		maxLen = DefaultMaxLen
	}

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Interface("panic", r).
				Int("transactions", len(batch)).
				Float64("min_support", minSupport).
				Msg("itemset mining failed, returning no itemsets")
			freq = emptyItemsets()
		}
	}()

	return m.mine(batch, minSupport, maxLen)
}

func (m *Miner) mine(batch Batch, minSupport float64, maxLen int) *FrequentItemsets {
	mx := m.encode(batch)
	freq := &FrequentItemsets{
		total: mx.rows,
		sets:  make(map[string]Itemset),
		mx:    mx,
	}

	frequent := func(count int) bool {
		return float64(count)/float64(mx.rows) >= minSupport
	}

	// Level 1: single columns.
	var level [][]int
	for c := range mx.labels {
		cols := []int{c}
		if n := mx.count(cols); frequent(n) {
			freq.add(Itemset{Items: mx.names(cols), Count: n, Support: float64(n) / float64(mx.rows)})
			level = append(level, cols)
		}
	}

	for size := 2; size <= maxLen && len(level) > 1; size++ {
		candidates := m.candidates(level, freq, mx)

		var next [][]int
		for _, cols := range candidates {
			if n := mx.count(cols); frequent(n) {
				freq.add(Itemset{Items: mx.names(cols), Count: n, Support: float64(n) / float64(mx.rows)})
				next = append(next, cols)
			}
		}

		m.logger.Debug().
			Int("size", size).
			Int("candidates", len(candidates)).
			Int("frequent", len(next)).
			Msg("apriori level done")

		level = next
	}

	return freq
}

// candidates joins frequent k-itemsets sharing their first k-1 columns and
// keeps a (k+1)-candidate only when every k-subset is itself frequent.
// level must be in ascending lexical order of column indices.
func (m *Miner) candidates(level [][]int, freq *FrequentItemsets, mx *matrix) [][]int {
	var out [][]int
	k := len(level[0])

	for i := 0; i < len(level); i++ {
		for j := i + 1; j < len(level); j++ {
			if !samePrefix(level[i], level[j], k-1) {
				break
			}

			cand := make([]int, k+1)
			copy(cand, level[i])
			cand[k] = level[j][k-1]

			if allSubsetsFrequent(cand, freq, mx) {
				out = append(out, cand)
			}
		}
	}

	return out
}

func samePrefix(a, b []int, n int) bool {
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// allSubsetsFrequent checks the k-subsets obtained by dropping one column.
// The last two drops give the joined parents, which are frequent already.
func allSubsetsFrequent(cand []int, freq *FrequentItemsets, mx *matrix) bool {
	sub := make([]int, 0, len(cand)-1)
	for drop := 0; drop < len(cand)-2; drop++ {
		sub = sub[:0]
		sub = append(sub, cand[:drop]...)
		sub = append(sub, cand[drop+1:]...)
		if !freq.has(mx.names(sub)) {
			return false
		}
	}
	return true
}
