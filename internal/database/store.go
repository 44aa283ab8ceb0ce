package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/yishak-cs/bookstore-apriori/internal/apriori"
)

// Store drivers.
const (
	DriverSQL   = "sql"
	DriverNeo4j = "neo4j"
)

// ErrUnknownStore is returned by Open for an unsupported driver.
var ErrUnknownStore = errors.New("unknown store driver")

// Stats summarizes the transaction history for the dashboard.
type Stats struct {
	TotalTransactions      int     `json:"total_transactions"`
	MultiItemTransactions  int     `json:"multi_item_transactions"`
	AvgItemsPerTransaction float64 `json:"avg_items_per_transaction"`
}

// Store is the read side of the point-of-sale history.
type Store interface {
	// CountTransactions returns the number of distinct transactions.
	CountTransactions(ctx context.Context) (int, error)

	// FetchRecords returns one row per purchased line item, ordered by
	// transaction id.
	FetchRecords(ctx context.Context) ([]apriori.Record, error)

	// Stats returns transaction counts and average basket size.
	Stats(ctx context.Context) (Stats, error)

	// Health checks connectivity.
	Health(ctx context.Context) error

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

// StoreConfig selects and configures the transaction store.
type StoreConfig struct {
	Driver string    `yaml:"driver" validate:"oneof=sql neo4j"`
	SQL    SQLConfig `yaml:"sql"`
	Neo4j  Config    `yaml:"neo4j"`
}

// Open connects to the store selected by cfg.Driver.
func Open(ctx context.Context, cfg StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverSQL:
		store, err := OpenSQLStore(ctx, cfg.SQL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverNeo4j:
		client, err := NewNeo4jClient(ctx, cfg.Neo4j)
		if err != nil {
			return nil, err
		}
		return NewNeo4jStore(client), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Driver)
	}
}
