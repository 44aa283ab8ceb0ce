package apriori

import "sort"

// GroupByBook buckets records by transaction id and collects book titles in
// first-seen order. Repeated titles are kept since every row is its own line
// item. Transactions with fewer than two titles are dropped.
func GroupByBook(records []Record) Batch {
	return group(records, func(r Record) string { return r.Title }, false)
}

// GroupByCategory buckets records by transaction id and collects the distinct
// categories of each transaction in first-seen order. Transactions spanning
// fewer than two categories are dropped.
func GroupByCategory(records []Record) Batch {
	return group(records, func(r Record) string { return r.Category }, true)
}

// group keeps transactions in ascending id order so batches are reproducible
// regardless of the order the store returned rows in.
func group(records []Record, label func(Record) string, distinct bool) Batch {
	if len(records) == 0 {
		return Batch{}
	}

	buckets := make(map[int64]Transaction)
	seen := make(map[int64]map[string]struct{})
	var ids []int64

	for _, r := range records {
		if _, ok := buckets[r.TransactionID]; !ok {
			ids = append(ids, r.TransactionID)
			buckets[r.TransactionID] = Transaction{}
		}

		value := label(r)
		if distinct {
			if seen[r.TransactionID] == nil {
				seen[r.TransactionID] = make(map[string]struct{})
			}
			if _, dup := seen[r.TransactionID][value]; dup {
				continue
			}
			seen[r.TransactionID][value] = struct{}{}
		}

		buckets[r.TransactionID] = append(buckets[r.TransactionID], value)
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	batch := make(Batch, 0, len(ids))
	for _, id := range ids {
		if tx := buckets[id]; len(tx) > 1 {
			batch = append(batch, tx)
		}
	}

	return batch
}
