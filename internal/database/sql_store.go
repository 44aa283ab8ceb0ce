package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/yishak-cs/bookstore-apriori/internal/apriori"
	"github.com/yishak-cs/bookstore-apriori/internal/logging"
	"github.com/yishak-cs/bookstore-apriori/internal/metrics"
)

// SQLConfig describes the relational point-of-sale database.
type SQLConfig struct {
	// Driver is the database/sql driver: sqlite (modernc) or mysql.
	Driver string `yaml:"driver" validate:"oneof=sqlite mysql"`
	DSN    string `yaml:"dsn"`
	// Migrate applies the embedded schema on open (sqlite only).
	Migrate bool `yaml:"migrate"`
}

// SQLStore reads the books, transactions and transaction_items tables.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// OpenSQLStore opens, pings and optionally migrates the database.
func OpenSQLStore(ctx context.Context, cfg SQLConfig) (*SQLStore, error) {
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// All queries must share one connection for :memory: databases.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", cfg.Driver, err)
	}

	if cfg.Migrate && cfg.Driver == "sqlite" {
		mm, err := NewMigrationManager(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := mm.Up(); err != nil {
			_ = db.Close()
			return nil, err
		}
		version, _, _ := mm.Version()
		logging.Info().Uint("version", version).Msg("sales schema migrated")
	}

	logging.Info().Str("driver", cfg.Driver).Msg("connected to SQL store")
	return NewSQLStore(db), nil
}

// CountTransactions returns the number of distinct transactions.
func (s *SQLStore) CountTransactions(ctx context.Context) (int, error) {
	query := s.builder.
		Select("COUNT(DISTINCT transaction_id) AS total").
		From("transactions")

	var total int
	if err := s.queryRow(ctx, "count_transactions", query, &total); err != nil {
		return 0, err
	}
	return total, nil
}

// FetchRecords returns one row per book line item ordered by transaction id.
// Bundle line items carry no book and drop out of the join.
func (s *SQLStore) FetchRecords(ctx context.Context) ([]apriori.Record, error) {
	query, args, err := s.builder.
		Select("ti.transaction_id", "b.title", "b.category").
		From("transaction_items ti").
		Join("books b ON ti.book_id = b.book_id").
		Join("transactions t ON ti.transaction_id = t.transaction_id").
		OrderBy("ti.transaction_id", "ti.item_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fetch_records: %w", err)
	}

	start := time.Now()
	records, err := s.scanRecords(ctx, query, args)
	metrics.RecordStoreQuery(DriverSQL, "fetch_records", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("fetch_records: %w", err)
	}
	return records, nil
}

func (s *SQLStore) scanRecords(ctx context.Context, query string, args []interface{}) ([]apriori.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []apriori.Record
	for rows.Next() {
		var (
			r        apriori.Record
			category sql.NullString
		)
		if err := rows.Scan(&r.TransactionID, &r.Title, &category); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Category = category.String
		records = append(records, r)
	}
	return records, rows.Err()
}

// Stats returns total transactions, transactions with more than one line
// item and the average line items per transaction.
func (s *SQLStore) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	total := s.builder.Select("COUNT(*) AS total").From("transactions")
	if err := s.queryRow(ctx, "stats_total", total, &stats.TotalTransactions); err != nil {
		return Stats{}, err
	}

	multi := s.builder.
		Select("COUNT(*) AS multi_item_count").
		FromSelect(
			s.builder.Select("transaction_id", "COUNT(*) AS item_count").
				From("transaction_items").
				GroupBy("transaction_id").
				Having("COUNT(*) > ?", 1),
			"multi_items",
		)
	if err := s.queryRow(ctx, "stats_multi_item", multi, &stats.MultiItemTransactions); err != nil {
		return Stats{}, err
	}

	avg := s.builder.
		Select("AVG(item_count) AS avg_items").
		FromSelect(
			s.builder.Select("transaction_id", "COUNT(*) AS item_count").
				From("transaction_items").
				GroupBy("transaction_id"),
			"item_counts",
		)
	var avgItems sql.NullFloat64
	if err := s.queryRow(ctx, "stats_avg_items", avg, &avgItems); err != nil {
		return Stats{}, err
	}
	stats.AvgItemsPerTransaction = avgItems.Float64

	return stats, nil
}

func (s *SQLStore) queryRow(ctx context.Context, operation string, b sq.SelectBuilder, dest interface{}) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", operation, err)
	}

	start := time.Now()
	err = s.db.QueryRowContext(ctx, query, args...).Scan(dest)
	metrics.RecordStoreQuery(DriverSQL, operation, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return nil
}

// Health pings the database.
func (s *SQLStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLStore) Close(_ context.Context) error {
	return s.db.Close()
}
