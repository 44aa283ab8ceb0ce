package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yishak-cs/bookstore-apriori/internal/apriori"
	"github.com/yishak-cs/bookstore-apriori/internal/database"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CountTransactions(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) FetchRecords(ctx context.Context) ([]apriori.Record, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]apriori.Record), args.Error(1)
}

func (m *mockStore) Stats(ctx context.Context) (database.Stats, error) {
	args := m.Called(ctx)
	return args.Get(0).(database.Stats), args.Error(1)
}

func (m *mockStore) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// blockingAnalyzer never returns until release is closed.
type blockingAnalyzer struct {
	release chan struct{}
}

func (b *blockingAnalyzer) Analyze(_ []apriori.Record, _ apriori.Parameters) apriori.Analysis {
	<-b.release
	return apriori.Analysis{}
}

// panickingAnalyzer fails outside the miner's own recovery.
type panickingAnalyzer struct{}

func (panickingAnalyzer) Analyze(_ []apriori.Record, _ apriori.Parameters) apriori.Analysis {
	panic("assemble: index out of range")
}

func testConfig() Config {
	return Config{
		MinTransactions: DefaultMinTransactions,
		Timeout:         time.Second,
		Defaults:        apriori.DefaultParameters(),
	}
}

func newTestService(store database.Store) *BundleService {
	return NewBundleService(store, apriori.NewAnalyzer(zerolog.Nop()), testConfig())
}

// pairedRecords builds n transactions that each hold Dune and Foundation.
func pairedRecords(n int) []apriori.Record {
	var records []apriori.Record
	for i := 1; i <= n; i++ {
		records = append(records,
			apriori.Record{TransactionID: int64(i), Title: "Dune", Category: "SciFi"},
			apriori.Record{TransactionID: int64(i), Title: "Foundation", Category: "SciFi"},
		)
	}
	return records
}

func TestGetInsights_NotEnoughData(t *testing.T) {
	store := new(mockStore)
	store.On("CountTransactions", mock.Anything).Return(4, nil)

	resp, err := newTestService(store).GetInsights(context.Background(), apriori.DefaultParameters())
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, 4, resp.TotalTransactions)
	assert.Equal(t, DefaultMinTransactions, resp.MinRequired)
	assert.Contains(t, resp.Message, "At least 10 transactions")
	assert.Nil(t, resp.Recommendations)
	store.AssertNotCalled(t, "FetchRecords", mock.Anything)
}

func TestGetInsights_NoItems(t *testing.T) {
	store := new(mockStore)
	store.On("CountTransactions", mock.Anything).Return(12, nil)
	store.On("FetchRecords", mock.Anything).Return([]apriori.Record{}, nil)

	resp, err := newTestService(store).GetInsights(context.Background(), apriori.DefaultParameters())
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, "No transaction items found.", resp.Message)
	assert.Nil(t, resp.Recommendations)
}

func TestGetInsights_NoMultiItemTransactions(t *testing.T) {
	var records []apriori.Record
	for i := 1; i <= 12; i++ {
		records = append(records, apriori.Record{TransactionID: int64(i), Title: "Dune", Category: "SciFi"})
	}

	store := new(mockStore)
	store.On("CountTransactions", mock.Anything).Return(12, nil)
	store.On("FetchRecords", mock.Anything).Return(records, nil)

	resp, err := newTestService(store).GetInsights(context.Background(), apriori.DefaultParameters())
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.MultiItemTransactions)
	assert.Equal(t, 0, resp.MultiItemTransactions.Books)
	assert.Equal(t, 0, resp.MultiItemTransactions.Categories)
	assert.Nil(t, resp.Recommendations)
}

func TestGetInsights_Success(t *testing.T) {
	store := new(mockStore)
	store.On("CountTransactions", mock.Anything).Return(10, nil)
	store.On("FetchRecords", mock.Anything).Return(pairedRecords(10), nil)

	params := apriori.Parameters{MinSupport: 0.1, MinConfidence: 0.5, MaxLen: 2}
	resp, err := newTestService(store).GetInsights(context.Background(), params)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, 10, resp.TotalTransactions)
	require.NotNil(t, resp.MultiItemTransactions)
	assert.Equal(t, 10, resp.MultiItemTransactions.Books)
	// Both books share a category, so no category basket has two labels.
	assert.Equal(t, 0, resp.MultiItemTransactions.Categories)

	require.NotNil(t, resp.Parameters)
	assert.Equal(t, 0.1, resp.Parameters.MinSupport)
	assert.Equal(t, 0.5, resp.Parameters.MinConfidence)
	assert.Equal(t, 2, resp.Parameters.MaxLen)

	require.NotNil(t, resp.Recommendations)
	assert.Len(t, resp.Recommendations.BookBundles, 2)
	assert.Empty(t, resp.Recommendations.CategoryBundles)
	assert.Equal(t, 2, resp.Recommendations.Summary.TotalBookRules)
	store.AssertExpectations(t)
}

func TestGetInsights_StoreErrors(t *testing.T) {
	t.Run("count", func(t *testing.T) {
		store := new(mockStore)
		store.On("CountTransactions", mock.Anything).Return(0, errors.New("connection refused"))

		_, err := newTestService(store).GetInsights(context.Background(), apriori.DefaultParameters())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStore)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("fetch", func(t *testing.T) {
		store := new(mockStore)
		store.On("CountTransactions", mock.Anything).Return(20, nil)
		store.On("FetchRecords", mock.Anything).Return(nil, errors.New("bad join"))

		_, err := newTestService(store).GetInsights(context.Background(), apriori.DefaultParameters())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrStore)
		assert.Contains(t, err.Error(), "bad join")
	})
}

func TestGetInsights_Timeout(t *testing.T) {
	store := new(mockStore)
	store.On("CountTransactions", mock.Anything).Return(10, nil)
	store.On("FetchRecords", mock.Anything).Return(pairedRecords(10), nil)

	analyzer := &blockingAnalyzer{release: make(chan struct{})}
	defer close(analyzer.release)

	cfg := testConfig()
	cfg.Timeout = 20 * time.Millisecond
	svc := NewBundleService(store, analyzer, cfg)

	_, err := svc.GetInsights(context.Background(), apriori.DefaultParameters())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnalysisTimeout)
}

func TestGetInsights_AnalyzerPanic(t *testing.T) {
	store := new(mockStore)
	store.On("CountTransactions", mock.Anything).Return(10, nil)
	store.On("FetchRecords", mock.Anything).Return(pairedRecords(10), nil)

	svc := NewBundleService(store, panickingAnalyzer{}, testConfig())

	var err error
	assert.NotPanics(t, func() {
		_, err = svc.GetInsights(context.Background(), apriori.DefaultParameters())
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.NotErrorIs(t, err, ErrStore)
	assert.Contains(t, err.Error(), "index out of range")
}

func TestGetInsights_Cancelled(t *testing.T) {
	store := new(mockStore)
	store.On("CountTransactions", mock.Anything).Return(10, nil)
	store.On("FetchRecords", mock.Anything).Return(pairedRecords(10), nil)

	analyzer := &blockingAnalyzer{release: make(chan struct{})}
	defer close(analyzer.release)

	cfg := testConfig()
	cfg.Timeout = 0
	svc := NewBundleService(store, analyzer, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := svc.GetInsights(ctx, apriori.DefaultParameters())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrAnalysisTimeout)
}

func TestGetStats(t *testing.T) {
	tests := []struct {
		name      string
		stats     database.Stats
		wantAvg   float64
		wantReady bool
	}{
		{
			name:      "ready",
			stats:     database.Stats{TotalTransactions: 15, MultiItemTransactions: 6, AvgItemsPerTransaction: 1.6666},
			wantAvg:   1.67,
			wantReady: true,
		},
		{
			name:      "below minimum",
			stats:     database.Stats{TotalTransactions: 9, MultiItemTransactions: 2, AvgItemsPerTransaction: 1.2},
			wantAvg:   1.2,
			wantReady: false,
		},
		{
			name:      "empty",
			stats:     database.Stats{},
			wantAvg:   0,
			wantReady: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockStore)
			store.On("Stats", mock.Anything).Return(tt.stats, nil)

			resp, err := newTestService(store).GetStats(context.Background())
			require.NoError(t, err)

			assert.Equal(t, tt.stats.TotalTransactions, resp.TotalTransactions)
			assert.Equal(t, tt.stats.MultiItemTransactions, resp.MultiItemTransactions)
			assert.InDelta(t, tt.wantAvg, resp.AvgItemsPerTransaction, 1e-9)
			assert.Equal(t, DefaultMinTransactions, resp.MinRequiredForApriori)
			assert.Equal(t, tt.wantReady, resp.ReadyForAnalysis)
		})
	}
}

func TestGetStats_Error(t *testing.T) {
	store := new(mockStore)
	store.On("Stats", mock.Anything).Return(database.Stats{}, errors.New("timeout"))

	_, err := newTestService(store).GetStats(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStore)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		store := new(mockStore)
		store.On("Health", mock.Anything).Return(nil)

		resp := newTestService(store).Health(context.Background())
		assert.Equal(t, "healthy", resp.Status)
		assert.Equal(t, "connected", resp.Database)
		assert.Empty(t, resp.Error)
	})

	t.Run("unhealthy", func(t *testing.T) {
		store := new(mockStore)
		store.On("Health", mock.Anything).Return(errors.New("dial tcp: refused"))

		resp := newTestService(store).Health(context.Background())
		assert.Equal(t, "unhealthy", resp.Status)
		assert.Equal(t, "dial tcp: refused", resp.Error)
	})
}
