package handlers

import (
	"net/http"
	"strconv"

	"cafe_pos_backend/internal/models"
	"cafe_pos_backend/internal/services"
	"cafe_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ProductHandler holds the product and accompaniment services.
type ProductHandler struct {
	productService       services.ProductService
	accompanimentService services.AccompanimentService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(ps services.ProductService, as services.AccompanimentService) *ProductHandler {
	return &ProductHandler{productService: ps, accompanimentService: as}
}

// CreateProduct handles creation of a menu product with its recipe.
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.productService.CreateProduct(req)
	if err != nil {
		respondServiceError(c, err, "create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// GetProducts handles fetching products with filters.
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var filters models.ProductFilters

	if isAvailableStr := c.Query("is_available"); isAvailableStr != "" {
		isAvailable, err := strconv.ParseBool(isAvailableStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid is_available format.", err.Error()))
			return
		}
		filters.IsAvailable = &isAvailable
	}
	if location := c.Query("preparation_location"); location != "" {
		if !models.IsValidPreparationLocation(location) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid preparation_location filter.", "unknown location: "+location))
			return
		}
		filters.PreparationLocation = &location
	}

	page, pageSize, ok := parsePagination(c)
	if !ok {
		return
	}
	filters.Page = page
	filters.PageSize = pageSize

	products, totalCount, err := h.productService.GetProducts(filters)
	if err != nil {
		respondServiceError(c, err, "fetch products")
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, pagedResponse(products, totalCount, page, pageSize))
}

// GetProductByID fetches one product with its recipe.
func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.productService.GetProductByID(id)
	if err != nil {
		respondServiceError(c, err, "fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct updates a product and, when provided, replaces its recipe.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.productService.UpdateProduct(id, req)
	if err != nil {
		respondServiceError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// SetProductAvailability toggles whether a product can be ordered.
func (h *ProductHandler) SetProductAvailability(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.productService.SetAvailability(id, *req.IsAvailable)
	if err != nil {
		respondServiceError(c, err, "set product availability")
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetAccompanimentGroups lists the accompaniment groups of a product with
// their accompaniments.
func (h *ProductHandler) GetAccompanimentGroups(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	groups, err := h.accompanimentService.GetGroupsForProduct(productID)
	if err != nil {
		respondServiceError(c, err, "fetch accompaniment groups")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

// validateSelectionRequest is the payload for the standalone selection check.
type validateSelectionRequest struct {
	AccompanimentIDs []int64 `json:"accompaniment_ids"`
}

// ValidateAccompanimentSelection checks a selection against a product's group
// rules without creating anything. Useful for client-side pre-checks.
func (h *ProductHandler) ValidateAccompanimentSelection(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req validateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	valid, violations, err := h.accompanimentService.ValidateSelection(productID, req.AccompanimentIDs)
	if err != nil {
		respondServiceError(c, err, "validate accompaniment selection")
		return
	}
	if violations == nil {
		violations = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"valid": valid, "violations": violations})
}
