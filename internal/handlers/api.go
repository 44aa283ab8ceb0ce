package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yishak-cs/bookstore-apriori/internal/apriori"
	"github.com/yishak-cs/bookstore-apriori/internal/logging"
	"github.com/yishak-cs/bookstore-apriori/internal/models"
	"github.com/yishak-cs/bookstore-apriori/internal/services"
)

// BundleService is the insight backend the API serves.
type BundleService interface {
	Defaults() apriori.Parameters
	GetInsights(ctx context.Context, p apriori.Parameters) (*models.InsightsResponse, error)
	GetStats(ctx context.Context) (*models.StatsResponse, error)
	Health(ctx context.Context) models.HealthResponse
}

// APIHandler handles all API requests
type APIHandler struct {
	bundleService BundleService
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(bundleService BundleService) *APIHandler {
	return &APIHandler{
		bundleService: bundleService,
	}
}

// SetupRoutes configures all API routes
func (h *APIHandler) SetupRoutes(router *gin.Engine) {
	router.GET("/", h.Root)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/apriori")
	{
		api.GET("/health", h.Health)
		api.GET("/insights", h.GetInsights)
		api.GET("/stats", h.GetStats)
	}
}

// Root is the liveness probe
func (h *APIHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "Apriori Analysis Service"})
}

// Health reports store connectivity. It answers 200 either way.
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.bundleService.Health(c.Request.Context()))
}

// insightsQuery holds the optional threshold overrides.
type insightsQuery struct {
	MinSupport    *float64 `form:"min_support" binding:"omitempty,gt=0,lte=1"`
	MinConfidence *float64 `form:"min_confidence" binding:"omitempty,gt=0,lte=1"`
	MaxLen        *int     `form:"max_len" binding:"omitempty,min=1,max=10"`
}

// parameters overlays the query on defaults.
func (q insightsQuery) parameters(defaults apriori.Parameters) apriori.Parameters {
	p := defaults
	if q.MinSupport != nil {
		p.MinSupport = *q.MinSupport
	}
	if q.MinConfidence != nil {
		p.MinConfidence = *q.MinConfidence
	}
	if q.MaxLen != nil {
		p.MaxLen = *q.MaxLen
	}
	return p
}

// GetInsights handles requests for bundling insights
func (h *APIHandler) GetInsights(c *gin.Context) {
	var query insightsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid parameters: " + err.Error()})
		return
	}

	params := query.parameters(h.bundleService.Defaults())
	resp, err := h.bundleService.GetInsights(c.Request.Context(), params)
	if err != nil {
		logging.Error().Err(err).Msg("error generating apriori insights")
		if errors.Is(err, services.ErrStore) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis error: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStats handles requests for dashboard transaction statistics
func (h *APIHandler) GetStats(c *gin.Context) {
	resp, err := h.bundleService.GetStats(c.Request.Context())
	if err != nil {
		logging.Error().Err(err).Msg("error getting transaction stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
