package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/yishak-cs/bookstore-apriori/internal/logging"
)

// CSVImporter loads the point-of-sale CSV export into Neo4j
type CSVImporter struct {
	client *Neo4jClient
	logger zerolog.Logger
}

// NewCSVImporter creates a new CSV importer
func NewCSVImporter(client *Neo4jClient) *CSVImporter {
	return &CSVImporter{
		client: client,
		logger: logging.With().Str("component", "importer").Logger(),
	}
}

type importStep struct {
	name string
	fn   func(context.Context, string) error
}

// ImportAllData replaces the graph with the CSV files found under baseURL/data.
func (i *CSVImporter) ImportAllData(ctx context.Context, baseURL string) error {
	i.logger.Info().Str("base_url", baseURL).Msg("starting CSV import")

	if err := i.clearDatabase(ctx); err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}

	for _, step := range i.steps() {
		i.logger.Info().Str("step", step.name).Msg("importing")
		if err := step.fn(ctx, baseURL); err != nil {
			return fmt.Errorf("failed to import %s: %w", step.name, err)
		}
	}

	i.logger.Info().Msg("CSV import completed")
	return nil
}

// steps lists the import in dependency order: nodes before relationships.
func (i *CSVImporter) steps() []importStep {
	return []importStep{
		{"constraints", i.CreateConstraints},
		{"books", i.ImportBooks},
		{"transactions", i.ImportTransactions},
		{"transaction_items", i.ImportTransactionItems},
	}
}

// CreateConstraints makes db_id unique for books and transactions.
func (i *CSVImporter) CreateConstraints(ctx context.Context, _ string) error {
	queries := []string{
		`CREATE CONSTRAINT book_db_id IF NOT EXISTS FOR (b:Book) REQUIRE b.db_id IS UNIQUE`,
		`CREATE CONSTRAINT transaction_db_id IF NOT EXISTS FOR (t:Transaction) REQUIRE t.db_id IS UNIQUE`,
	}
	for _, q := range queries {
		if err := i.client.ExecuteWrite(ctx, q, nil); err != nil {
			return err
		}
	}
	return nil
}

// ImportBooks imports the catalog from books.csv
func (i *CSVImporter) ImportBooks(ctx context.Context, baseURL string) error {
	query := `
		LOAD CSV WITH HEADERS FROM $csvURL AS row
		WITH row WHERE row.book_id IS NOT NULL AND row.title IS NOT NULL
		MERGE (b:Book {db_id: toInteger(row.book_id)})
		SET b.title = row.title,
			b.author = row.author,
			b.isbn = row.isbn,
			b.category = coalesce(row.category, ''),
			b.selling_price = toFloat(row.selling_price)
		RETURN count(b) AS imported
	`
	return i.load(ctx, "books", csvURL(baseURL, "books.csv"), query)
}

// ImportTransactions imports sale headers from transactions.csv
func (i *CSVImporter) ImportTransactions(ctx context.Context, baseURL string) error {
	query := `
		LOAD CSV WITH HEADERS FROM $csvURL AS row
		WITH row WHERE row.transaction_id IS NOT NULL
		MERGE (t:Transaction {db_id: toInteger(row.transaction_id)})
		SET t.transaction_date = row.transaction_date,
			t.total_amount = toFloat(row.total_amount),
			t.payment_method = row.payment_method
		RETURN count(t) AS imported
	`
	return i.load(ctx, "transactions", csvURL(baseURL, "transactions.csv"), query)
}

// ImportTransactionItems links transactions to the books they sold. Bundle
// line items have no book_id and are skipped.
func (i *CSVImporter) ImportTransactionItems(ctx context.Context, baseURL string) error {
	query := `
		LOAD CSV WITH HEADERS FROM $csvURL AS row
		WITH row WHERE row.transaction_id IS NOT NULL
			AND row.book_id IS NOT NULL AND row.book_id <> ''
		MATCH (t:Transaction {db_id: toInteger(row.transaction_id)})
		MATCH (b:Book {db_id: toInteger(row.book_id)})
		MERGE (t)-[c:CONTAINS {item_id: toInteger(row.item_id)}]->(b)
		SET c.quantity = toInteger(coalesce(row.quantity, '1')),
			c.price_at_sale = toFloat(row.price_at_sale)
		RETURN count(c) AS imported
	`
	return i.load(ctx, "transaction_items", csvURL(baseURL, "transaction_items.csv"), query)
}

func (i *CSVImporter) load(ctx context.Context, name, url, query string) error {
	results, err := i.client.ExecuteWriteWithResult(ctx, query, map[string]interface{}{
		"csvURL": url,
	})
	if err != nil {
		return err
	}

	if len(results) > 0 {
		i.logger.Info().Str("step", name).Int("rows", toInt(results[0]["imported"])).Msg("imported")
	}
	return nil
}

// clearDatabase removes all existing nodes and relationships
func (i *CSVImporter) clearDatabase(ctx context.Context) error {
	i.logger.Info().Msg("clearing existing graph")
	return i.client.ExecuteWrite(ctx, `MATCH (n) DETACH DELETE n`, nil)
}

// GetImportStatus returns node and relationship counts.
func (i *CSVImporter) GetImportStatus(ctx context.Context) (map[string]int, error) {
	query := `
		OPTIONAL MATCH (b:Book) WITH count(b) AS books
		OPTIONAL MATCH (t:Transaction) WITH books, count(t) AS transactions
		OPTIONAL MATCH (:Transaction)-[c:CONTAINS]->(:Book) WITH books, transactions, count(c) AS line_items
		RETURN books, transactions, line_items
	`

	results, err := i.client.ExecuteRead(ctx, query, nil)
	if err != nil {
		return nil, err
	}
	return importStatus(results), nil
}

func importStatus(results []map[string]interface{}) map[string]int {
	status := map[string]int{
		"books":        0,
		"transactions": 0,
		"line_items":   0,
	}
	if len(results) == 0 {
		return status
	}
	for key := range status {
		status[key] = toInt(results[0][key])
	}
	return status
}

func csvURL(baseURL, file string) string {
	return fmt.Sprintf("%s/data/%s", strings.TrimSuffix(baseURL, "/"), file)
}
