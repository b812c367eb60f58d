package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/catalogrecon/backend/internal/domain"
	"github.com/catalogrecon/backend/internal/infrastructure/export"
	"github.com/catalogrecon/backend/internal/usecase"
)

// maxLimit caps the limit query parameter on list endpoints
const maxLimit = 1000

// SlugSuggester scores an unresolved slug against the catalog
type SlugSuggester interface {
	FindSimilarProducts(ctx context.Context, failedSlug string, limit int) []domain.SlugMatch
}

// SlugRefresher drops the cached slug snapshot
type SlugRefresher interface {
	Invalidate()
}

// CatalogReader runs the batch catalog operations
type CatalogReader interface {
	PrioritizedProducts(ctx context.Context, limit int) ([]domain.UnifiedProduct, error)
	DetectVariations(ctx context.Context) (*usecase.DetectionResult, error)
}

// StockSyncer triggers a stock sync run
type StockSyncer interface {
	RunOnce(ctx context.Context) (*usecase.SyncReport, error)
}

// Handler holds dependencies for HTTP handlers. Any dependency may be nil;
// its endpoints then answer 503.
type Handler struct {
	matcher SlugSuggester
	slugs   SlugRefresher
	catalog CatalogReader
	stock   StockSyncer
	logger  *zap.Logger
	now     func() time.Time
}

// NewHandler creates a new HTTP handler
func NewHandler(matcher SlugSuggester, slugs SlugRefresher, catalog CatalogReader, stock StockSyncer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		matcher: matcher,
		slugs:   slugs,
		catalog: catalog,
		stock:   stock,
		logger:  logger,
		now:     time.Now,
	}
}

// productView is the trimmed product shape of the variation detection response
type productView struct {
	ID          string             `json:"id"`
	SKU         string             `json:"sku"`
	Name        string             `json:"name"`
	Price       string             `json:"price"`
	StockStatus domain.StockStatus `json:"stockStatus"`
}

type groupView struct {
	BaseName       string                      `json:"baseName"`
	BaseSKUPattern string                      `json:"baseSkuPattern"`
	ProductCount   int                         `json:"productCount"`
	Products       []productView               `json:"products"`
	Attributes     []domain.VariationAttribute `json:"attributes"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "catalogrecon-backend",
		"version": "1.0.0",
	})
}

// ListProducts returns the catalog in fulfillment priority order
func (h *Handler) ListProducts(c *gin.Context) {
	if h.catalog == nil {
		notConfigured(c, "catalog")
		return
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.catalog.PrioritizedProducts(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err), zap.String("request_id", requestID(c)))
		fail(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(products),
		"products": products,
	})
}

// SimilarProducts suggests catalog products for a slug that failed to resolve
func (h *Handler) SimilarProducts(c *gin.Context) {
	if h.matcher == nil {
		notConfigured(c, "slug matching")
		return
	}

	slug := c.Query("slug")
	if slug == "" {
		fail(c, http.StatusBadRequest, "slug is required")
		return
	}
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	matches := h.matcher.FindSimilarProducts(c.Request.Context(), slug, limit)
	if matches == nil {
		matches = []domain.SlugMatch{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"slug":    slug,
		"matches": matches,
	})
}

// RefreshSlugs drops the slug snapshot; the next lookup rebuilds it
func (h *Handler) RefreshSlugs(c *gin.Context) {
	if h.slugs == nil {
		notConfigured(c, "slug index")
		return
	}

	h.slugs.Invalidate()
	h.logger.Info("slug index invalidated", zap.String("request_id", requestID(c)))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "slug index will rebuild on next lookup",
	})
}

// DetectVariations groups simple products that look like variants of one product
func (h *Handler) DetectVariations(c *gin.Context) {
	if h.catalog == nil {
		notConfigured(c, "catalog")
		return
	}

	result, err := h.catalog.DetectVariations(c.Request.Context())
	if err != nil {
		h.logger.Error("variation detection failed", zap.Error(err), zap.String("request_id", requestID(c)))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	groups := make([]groupView, 0, len(result.Groups))
	for i := range result.Groups {
		groups = append(groups, toGroupView(&result.Groups[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"groupsFound": len(groups),
		"groups":      groups,
	})
}

// ExportVariations returns detected groups as an XLSX attachment
func (h *Handler) ExportVariations(c *gin.Context) {
	if h.catalog == nil {
		notConfigured(c, "catalog")
		return
	}

	result, err := h.catalog.DetectVariations(c.Request.Context())
	if err != nil {
		h.logger.Error("variation export failed", zap.Error(err), zap.String("request_id", requestID(c)))
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}

	data, err := export.VariationWorkbook(result.Groups)
	if err != nil {
		h.logger.Error("failed to render variation workbook", zap.Error(err))
		fail(c, http.StatusInternalServerError, "failed to render workbook")
		return
	}

	filename := fmt.Sprintf("variations-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

// SyncStock runs one stock sync and reports the outcome
func (h *Handler) SyncStock(c *gin.Context) {
	if h.stock == nil {
		notConfigured(c, "stock sync")
		return
	}

	report, err := h.stock.RunOnce(c.Request.Context())
	if err != nil {
		h.logger.Warn("stock sync request failed", zap.Error(err), zap.String("request_id", requestID(c)))
		fail(c, statusFor(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

func toGroupView(g *domain.VariationGroup) groupView {
	products := make([]productView, 0, len(g.Products))
	for _, p := range g.Products {
		products = append(products, productView{
			ID:          p.ID,
			SKU:         p.SKU,
			Name:        p.Name,
			Price:       p.Price,
			StockStatus: p.StockStatus,
		})
	}
	attributes := g.Attributes
	if attributes == nil {
		attributes = []domain.VariationAttribute{}
	}
	return groupView{
		BaseName:       g.BaseName,
		BaseSKUPattern: g.BaseSKUPattern,
		ProductCount:   g.ProductCount(),
		Products:       products,
		Attributes:     attributes,
	}
}

// parseLimit reads an optional non-negative limit; empty means 0 (use the default)
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return limit, nil
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUpstreamFailure), errors.Is(err, domain.ErrCacheUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

func notConfigured(c *gin.Context, feature string) {
	fail(c, http.StatusServiceUnavailable, feature+" is not configured")
}
