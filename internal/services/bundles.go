package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/yishak-cs/bookstore-apriori/internal/apriori"
	"github.com/yishak-cs/bookstore-apriori/internal/database"
	"github.com/yishak-cs/bookstore-apriori/internal/logging"
	"github.com/yishak-cs/bookstore-apriori/internal/metrics"
	"github.com/yishak-cs/bookstore-apriori/internal/models"
)

var (
	// ErrAnalysisTimeout is returned when mining exceeds the configured budget.
	ErrAnalysisTimeout = errors.New("apriori analysis timed out")
	// ErrAnalysisFailed is returned when the analysis panics.
	ErrAnalysisFailed = errors.New("apriori analysis failed")
	// ErrStore wraps every transaction store failure.
	ErrStore = errors.New("transaction store error")
)

// DefaultMinTransactions is the smallest history worth mining.
const DefaultMinTransactions = 10

// Analysis outcomes, as recorded in metrics.
const (
	outcomeInsufficientData = "insufficient_data"
	outcomeNoItems          = "no_items"
	outcomeNoMultiItem      = "no_multi_item"
	outcomeTimeout          = "timeout"
	outcomeError            = "error"
)

// Config controls the insight gate and budget.
type Config struct {
	MinTransactions int
	// Timeout bounds one analysis run; zero disables it.
	Timeout  time.Duration
	Defaults apriori.Parameters
}

// Analyzer mines a record set in both dimensions.
type Analyzer interface {
	Analyze(records []apriori.Record, p apriori.Parameters) apriori.Analysis
}

// BundleService turns the transaction history into bundling insights
type BundleService struct {
	store    database.Store
	analyzer Analyzer
	cfg      Config
	logger   zerolog.Logger
}

// NewBundleService creates a new bundle service
func NewBundleService(store database.Store, analyzer Analyzer, cfg Config) *BundleService {
	return &BundleService{
		store:    store,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logging.With().Str("component", "bundles").Logger(),
	}
}

// Defaults returns the thresholds used when a request omits them.
func (s *BundleService) Defaults() apriori.Parameters {
	return s.cfg.Defaults
}

// GetInsights answers: "Which books and categories sell together?"
func (s *BundleService) GetInsights(ctx context.Context, p apriori.Parameters) (*models.InsightsResponse, error) {
	if p.TopN < 1 {
		p.TopN = s.cfg.Defaults.TopN
	}

	total, err := s.store.CountTransactions(ctx)
	if err != nil {
		metrics.RecordOutcome(outcomeError)
		return nil, fmt.Errorf("%w: failed to count transactions: %w", ErrStore, err)
	}

	if total < s.cfg.MinTransactions {
		metrics.RecordOutcome(outcomeInsufficientData)
		return &models.InsightsResponse{
			Success: false,
			Message: fmt.Sprintf(
				"Not enough transaction data. At least %d transactions are required, currently there are %d.",
				s.cfg.MinTransactions, total),
			TotalTransactions: total,
			MinRequired:       s.cfg.MinTransactions,
		}, nil
	}

	records, err := s.store.FetchRecords(ctx)
	if err != nil {
		metrics.RecordOutcome(outcomeError)
		return nil, fmt.Errorf("%w: failed to fetch transaction items: %w", ErrStore, err)
	}

	if len(records) == 0 {
		metrics.RecordOutcome(outcomeNoItems)
		return &models.InsightsResponse{
			Success:           false,
			Message:           "No transaction items found.",
			TotalTransactions: total,
		}, nil
	}

	start := time.Now()
	analysis, err := s.analyze(ctx, records, p)
	if err != nil {
		return nil, err
	}

	if analysis.BookTransactions == 0 && analysis.CategoryTransactions == 0 {
		metrics.RecordOutcome(outcomeNoMultiItem)
		return &models.InsightsResponse{
			Success:               false,
			Message:               "No transactions with more than one item yet. Apriori needs multi-item transactions to find association patterns.",
			TotalTransactions:     total,
			MultiItemTransactions: &models.MultiItemCounts{},
		}, nil
	}

	elapsed := time.Since(start)
	metrics.RecordAnalysis(elapsed,
		analysis.BookTransactions, analysis.CategoryTransactions,
		len(analysis.BookRules), len(analysis.CategoryRules))

	s.logger.Info().
		Int("records", len(records)).
		Int("book_transactions", analysis.BookTransactions).
		Int("category_transactions", analysis.CategoryTransactions).
		Int("book_rules", len(analysis.BookRules)).
		Int("category_rules", len(analysis.CategoryRules)).
		Dur("elapsed", elapsed).
		Msg("apriori analysis completed")

	report := analysis.Report
	return &models.InsightsResponse{
		Success:           true,
		Message:           "Apriori analysis completed successfully.",
		TotalTransactions: total,
		MultiItemTransactions: &models.MultiItemCounts{
			Books:      analysis.BookTransactions,
			Categories: analysis.CategoryTransactions,
		},
		Parameters: &models.InsightParameters{
			MinSupport:    p.MinSupport,
			MinConfidence: p.MinConfidence,
			MaxLen:        p.MaxLen,
		},
		Recommendations: &report,
	}, nil
}

// analyze runs the analyzer under the configured wall-clock budget. A run that
// outlives the budget is abandoned; its result is discarded when it finishes.
func (s *BundleService) analyze(ctx context.Context, records []apriori.Record, p apriori.Parameters) (apriori.Analysis, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	type result struct {
		analysis apriori.Analysis
		err      error
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().Interface("panic", r).Int("records", len(records)).Msg("apriori analysis panicked")
				done <- result{err: fmt.Errorf("%w: %v", ErrAnalysisFailed, r)}
			}
		}()
		done <- result{analysis: s.analyzer.Analyze(records, p)}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			metrics.RecordOutcome(outcomeError)
			return apriori.Analysis{}, res.err
		}
		return res.analysis, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			metrics.RecordOutcome(outcomeTimeout)
			s.logger.Warn().Dur("timeout", s.cfg.Timeout).Int("records", len(records)).Msg("apriori analysis abandoned")
			return apriori.Analysis{}, fmt.Errorf("%w after %s", ErrAnalysisTimeout, s.cfg.Timeout)
		}
		metrics.RecordOutcome(outcomeError)
		return apriori.Analysis{}, ctx.Err()
	}
}

// GetStats answers the dashboard question: "Is there enough history to mine?"
func (s *BundleService) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get transaction stats: %w", ErrStore, err)
	}

	return &models.StatsResponse{
		TotalTransactions:      stats.TotalTransactions,
		MultiItemTransactions:  stats.MultiItemTransactions,
		AvgItemsPerTransaction: math.Round(stats.AvgItemsPerTransaction*100) / 100,
		MinRequiredForApriori:  s.cfg.MinTransactions,
		ReadyForAnalysis:       stats.TotalTransactions >= s.cfg.MinTransactions,
	}, nil
}

// Health reports store connectivity.
func (s *BundleService) Health(ctx context.Context) models.HealthResponse {
	if err := s.store.Health(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("store health check failed")
		return models.HealthResponse{Status: "unhealthy", Error: err.Error()}
	}
	return models.HealthResponse{Status: "healthy", Database: "connected"}
}
