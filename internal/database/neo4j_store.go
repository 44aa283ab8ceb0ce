package database

import (
	"context"
	"fmt"
	"time"

	"github.com/yishak-cs/bookstore-apriori/internal/apriori"
	"github.com/yishak-cs/bookstore-apriori/internal/metrics"
)

// Neo4jStore reads transactions stored as (:Transaction)-[:CONTAINS]->(:Book).
// Each CONTAINS relationship is one line item.
type Neo4jStore struct {
	client *Neo4jClient
}

var _ Store = (*Neo4jStore)(nil)

// NewNeo4jStore wraps a connected client.
func NewNeo4jStore(client *Neo4jClient) *Neo4jStore {
	return &Neo4jStore{client: client}
}

// Client exposes the underlying client for write paths such as the importer.
func (s *Neo4jStore) Client() *Neo4jClient {
	return s.client
}

func (s *Neo4jStore) read(ctx context.Context, operation, query string) ([]map[string]interface{}, error) {
	start := time.Now()
	results, err := s.client.ExecuteRead(ctx, query, nil)
	metrics.RecordStoreQuery(DriverNeo4j, operation, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return results, nil
}

// CountTransactions answers: "How many transactions exist at all?"
func (s *Neo4jStore) CountTransactions(ctx context.Context) (int, error) {
	results, err := s.read(ctx, "count_transactions", `
		MATCH (t:Transaction)
		RETURN count(DISTINCT t.db_id) AS total
	`)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return toInt(results[0]["total"]), nil
}

// FetchRecords returns every line item with its book title and category.
func (s *Neo4jStore) FetchRecords(ctx context.Context) ([]apriori.Record, error) {
	results, err := s.read(ctx, "fetch_records", `
		MATCH (t:Transaction)-[:CONTAINS]->(b:Book)
		RETURN t.db_id AS transaction_id,
			   b.title AS title,
			   b.category AS category
		ORDER BY t.db_id
	`)
	if err != nil {
		return nil, err
	}
	return rowsToRecords(results)
}

// Stats answers the dashboard questions in a single round trip.
func (s *Neo4jStore) Stats(ctx context.Context) (Stats, error) {
	results, err := s.read(ctx, "stats", `
		MATCH (t:Transaction)
		OPTIONAL MATCH (t)-[c:CONTAINS]->(:Book)
		WITH t, count(c) AS item_count
		RETURN count(t) AS total,
			   sum(CASE WHEN item_count > 1 THEN 1 ELSE 0 END) AS multi_item,
			   avg(toFloat(item_count)) AS avg_items
	`)
	if err != nil {
		return Stats{}, err
	}
	if len(results) == 0 {
		return Stats{}, nil
	}

	row := results[0]
	return Stats{
		TotalTransactions:      toInt(row["total"]),
		MultiItemTransactions:  toInt(row["multi_item"]),
		AvgItemsPerTransaction: toFloat(row["avg_items"]),
	}, nil
}

// Health checks connectivity.
func (s *Neo4jStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

// Close closes the driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func rowsToRecords(rows []map[string]interface{}) ([]apriori.Record, error) {
	records := make([]apriori.Record, 0, len(rows))
	for i, row := range rows {
		id, ok := row["transaction_id"].(int64)
		if !ok {
			return nil, fmt.Errorf("row %d: transaction_id is %T, want int64", i, row["transaction_id"])
		}
		title, _ := row["title"].(string)
		category, _ := row["category"].(string)

		records = append(records, apriori.Record{
			TransactionID: id,
			Title:         title,
			Category:      category,
		})
	}
	return records, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}
