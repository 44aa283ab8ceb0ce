package apriori

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByBook(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    Batch
	}{
		{
			name:    "empty input gives empty batch",
			records: nil,
			want:    Batch{},
		},
		{
			name: "groups by transaction in id order and keeps repeated titles",
			records: []Record{
				{TransactionID: 3, Title: "Dune", Category: "SciFi"},
				{TransactionID: 1, Title: "Emma", Category: "Romance"},
				{TransactionID: 3, Title: "Foundation", Category: "SciFi"},
				{TransactionID: 1, Title: "Persuasion", Category: "Romance"},
				{TransactionID: 1, Title: "Emma", Category: "Romance"},
			},
			want: Batch{
				{"Emma", "Persuasion", "Emma"},
				{"Dune", "Foundation"},
			},
		},
		{
			name: "drops single item transactions",
			records: []Record{
				{TransactionID: 1, Title: "Dune", Category: "SciFi"},
				{TransactionID: 2, Title: "Emma", Category: "Romance"},
				{TransactionID: 2, Title: "Dune", Category: "SciFi"},
			},
			want: Batch{
				{"Emma", "Dune"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GroupByBook(tt.records)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	t.Run("dedupes categories per transaction", func(t *testing.T) {
		records := []Record{
			{TransactionID: 1, Title: "A", Category: "Fiction"},
			{TransactionID: 1, Title: "B", Category: "Fiction"},
			{TransactionID: 1, Title: "C", Category: "Mystery"},
		}

		got := GroupByCategory(records)
		require.Len(t, got, 1)
		assert.Equal(t, Transaction{"Fiction", "Mystery"}, got[0])
	})

	t.Run("drops transactions within a single category", func(t *testing.T) {
		records := []Record{
			{TransactionID: 1, Title: "Dune", Category: "SciFi"},
			{TransactionID: 1, Title: "Foundation", Category: "SciFi"},
			{TransactionID: 2, Title: "Emma", Category: "Romance"},
			{TransactionID: 2, Title: "Dune", Category: "SciFi"},
		}

		got := GroupByCategory(records)
		assert.Equal(t, Batch{{"Romance", "SciFi"}}, got)
	})

	t.Run("empty input gives empty batch", func(t *testing.T) {
		got := GroupByCategory([]Record{})
		require.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestGroupersNeverEmitSingleItemTransactions(t *testing.T) {
	var records []Record
	for id := int64(1); id <= 30; id++ {
		n := int(id % 4)
		for i := 0; i < n; i++ {
			records = append(records, Record{
				TransactionID: id,
				Title:         string(rune('A' + (int(id)+i)%7)),
				Category:      string(rune('k' + i%2)),
			})
		}
	}

	for _, batch := range []Batch{GroupByBook(records), GroupByCategory(records)} {
		for _, tx := range batch {
			assert.Greater(t, len(tx), 1)
		}
	}
}
