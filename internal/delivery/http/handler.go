package http

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/shopsnap/backend/internal/domain"
	"github.com/shopsnap/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog  *usecase.CatalogService
	identify *usecase.IdentifyService

	// scanBusy enforces at most one outstanding identification request.
	// Two racing scans would fight over the same result slot, so the
	// second request is refused rather than queued.
	scanBusy atomic.Bool
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *usecase.CatalogService, identify *usecase.IdentifyService) *Handler {
	return &Handler{catalog: catalog, identify: identify}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "shopsnap-backend",
		"version": "1.0.0",
	})
}

// ListCategories returns all categories in display order.
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.catalog.GetCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// ReplaceCategories commits a full category collection, including a
// reorder.
func (h *Handler) ReplaceCategories(c *gin.Context) {
	var categories []domain.Category
	if err := c.ShouldBindJSON(&categories); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category payload"})
		return
	}
	if err := h.catalog.SaveCategories(c.Request.Context(), categories); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

type addCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddCategory creates one category at the end of the display order.
func (h *Handler) AddCategory(c *gin.Context) {
	var req addCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category name is required"})
		return
	}
	category, err := h.catalog.AddCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// DeleteCategory removes one category. Unknown ids succeed silently.
func (h *Handler) DeleteCategory(c *gin.Context) {
	if err := h.catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListProducts returns all products.
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.GetProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ReplaceProducts commits a full product collection.
func (h *Handler) ReplaceProducts(c *gin.Context) {
	var products []domain.Product
	if err := c.ShouldBindJSON(&products); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	if err := h.catalog.SaveProducts(c.Request.Context(), products); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// CreateProduct validates and creates one product.
func (h *Handler) CreateProduct(c *gin.Context) {
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	created, err := h.catalog.AddProduct(c.Request.Context(), product)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateProduct replaces the product with the path id. Unknown ids
// succeed silently.
func (h *Handler) UpdateProduct(c *gin.Context) {
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	product.ID = c.Param("id")
	if err := h.catalog.UpdateProduct(c.Request.Context(), product); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes one product. Unknown ids succeed silently.
func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CatalogView returns the grouped catalog projection. The search term
// and the collapsed category ids are request state; nothing about the
// view is persisted server-side.
func (h *Handler) CatalogView(c *gin.Context) {
	ctx := c.Request.Context()

	categories, err := h.catalog.GetCategories(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	products, err := h.catalog.GetProducts(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	collapsed := usecase.NewCollapseSet()
	if raw := c.Query("collapsed"); raw != "" {
		collapsed = usecase.NewCollapseSet(strings.Split(raw, ",")...)
	}

	groups := usecase.GroupedView(products, categories, c.Query("search"), collapsed)
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

type scanRequest struct {
	Image string `json:"image" binding:"required"`
}

// Scan identifies the submitted image against the current product
// snapshot. The response is always a MatchResult; identification
// failures surface as rejections with a reason, never as a 5xx. While a
// scan is outstanding, further scans get 409.
func (h *Handler) Scan(c *gin.Context) {
	if !h.scanBusy.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": domain.ErrScanInProgress.Error()})
		return
	}
	defer h.scanBusy.Store(false)

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is not valid base64"})
		return
	}

	products, err := h.catalog.GetProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	result := h.identify.Identify(c.Request.Context(), image, products)
	c.JSON(http.StatusOK, result)
}

// decodeImage accepts raw base64 or a data URL and returns the image
// bytes.
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ";base64,"); idx >= 0 {
			s = s[idx+len(";base64,"):]
		}
	}
	return base64.StdEncoding.DecodeString(s)
}

// respondError maps domain errors onto HTTP statuses. Persistence
// failures are surfaced explicitly; a swallowed save would mean silent
// data loss.
func respondError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
