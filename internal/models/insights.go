package models

import "github.com/yishak-cs/bookstore-apriori/internal/apriori"

// MultiItemCounts is the number of transactions kept for mining per dimension
type MultiItemCounts struct {
	Books      int `json:"books"`
	Categories int `json:"categories"`
}

// InsightParameters echoes the thresholds an analysis ran with
type InsightParameters struct {
	MinSupport    float64 `json:"min_support"`
	MinConfidence float64 `json:"min_confidence"`
	MaxLen        int     `json:"max_len"`
}

// InsightsResponse is the body of GET /api/apriori/insights.
// Recommendations is null whenever Success is false.
type InsightsResponse struct {
	Success               bool               `json:"success"`
	Message               string             `json:"message"`
	TotalTransactions     int                `json:"total_transactions"`
	MinRequired           int                `json:"min_required,omitempty"`
	MultiItemTransactions *MultiItemCounts   `json:"multi_item_transactions,omitempty"`
	Parameters            *InsightParameters `json:"parameters,omitempty"`
	Recommendations       *apriori.Report    `json:"recommendations"`
}

// StatsResponse is the body of GET /api/apriori/stats
type StatsResponse struct {
	TotalTransactions      int     `json:"total_transactions"`
	MultiItemTransactions  int     `json:"multi_item_transactions"`
	AvgItemsPerTransaction float64 `json:"avg_items_per_transaction"`
	MinRequiredForApriori  int     `json:"min_required_for_apriori"`
	ReadyForAnalysis       bool    `json:"ready_for_analysis"`
}

// HealthResponse is the body of GET /api/apriori/health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Error    string `json:"error,omitempty"`
}
