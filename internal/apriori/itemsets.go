package apriori

import (
	"sort"
	"strings"
)

// keySep joins labels into canonical itemset keys. Unit separator never
// appears in book titles or category names.
const keySep = "\x1f"

// itemsetKey canonicalizes labels as a sorted tuple.
func itemsetKey(items []string) string {
	sorted := append([]string(nil), items...)
	sort.Strings(sorted)
	return strings.Join(sorted, keySep)
}

// matrix is the one-hot presence encoding of a batch: one row per
// transaction, one column per distinct label, in a single allocation.
type matrix struct {
	labels []string
	index  map[string]int
	rows   int
	cells  []bool
}

func encode(batch Batch) *matrix {
	index := make(map[string]int)
	var labels []string
	for _, tx := range batch {
		for _, label := range tx {
			if _, ok := index[label]; !ok {
				index[label] = 0
				labels = append(labels, label)
			}
		}
	}

	// Sorted columns make ascending column indices equal lexical label order.
	sort.Strings(labels)
	for i, label := range labels {
		index[label] = i
	}

	width := len(labels)
	cells := make([]bool, len(batch)*width)
	for row, tx := range batch {
		for _, label := range tx {
			cells[row*width+index[label]] = true
		}
	}

	return &matrix{labels: labels, index: index, rows: len(batch), cells: cells}
}

// count returns how many rows have every listed column set.
func (mx *matrix) count(cols []int) int {
	width := len(mx.labels)
	n := 0
	for row := 0; row < mx.rows; row++ {
		base := row * width
		all := true
		for _, c := range cols {
			if !mx.cells[base+c] {
				all = false
				break
			}
		}
		if all {
			n++
		}
	}
	return n
}

func (mx *matrix) names(cols []int) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = mx.labels[c]
	}
	return out
}

// FrequentItemsets is the table of itemsets that met the support threshold,
// keyed by their canonical sorted-label key.
type FrequentItemsets struct {
	total int
	sets  map[string]Itemset
	mx    *matrix
}

func emptyItemsets() *FrequentItemsets {
	return &FrequentItemsets{sets: make(map[string]Itemset)}
}

func (f *FrequentItemsets) add(set Itemset) {
	f.sets[strings.Join(set.Items, keySep)] = set
}

func (f *FrequentItemsets) has(items []string) bool {
	_, ok := f.sets[strings.Join(items, keySep)]
	return ok
}

// Len returns the number of frequent itemsets.
func (f *FrequentItemsets) Len() int {
	return len(f.sets)
}

// Transactions returns the size of the batch supports were computed over.
func (f *FrequentItemsets) Transactions() int {
	return f.total
}

// Lookup returns the frequent itemset made of exactly these labels.
func (f *FrequentItemsets) Lookup(items []string) (Itemset, bool) {
	set, ok := f.sets[itemsetKey(items)]
	return set, ok
}

// Support returns the support of items. Labels that are not in the frequent
// table are counted against the encoded batch.
func (f *FrequentItemsets) Support(items []string) float64 {
	if set, ok := f.Lookup(items); ok {
		return set.Support
	}
	if f.mx == nil || f.total == 0 {
		return 0
	}

	cols := make([]int, 0, len(items))
	for _, label := range items {
		c, ok := f.mx.index[label]
		if !ok {
			return 0
		}
		cols = append(cols, c)
	}
	return float64(f.mx.count(cols)) / float64(f.total)
}

// All returns every frequent itemset ordered by size, then lexically.
func (f *FrequentItemsets) All() []Itemset {
	out := make([]Itemset, 0, len(f.sets))
	for _, set := range f.sets {
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Len() != out[j].Len() {
			return out[i].Len() < out[j].Len()
		}
		return strings.Join(out[i].Items, keySep) < strings.Join(out[j].Items, keySep)
	})
	return out
}
