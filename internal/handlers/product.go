// internal/handlers/product.go
package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/loopmarket/marketplace-backend/internal/i18n"
	"github.com/loopmarket/marketplace-backend/internal/models"
	"github.com/loopmarket/marketplace-backend/internal/services"
	"github.com/loopmarket/marketplace-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
	}
}

// CreateListing puts a product up for sale, optionally for loan
// POST /api/v1/products
func (h *ProductHandler) CreateListing(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req services.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	product, err := h.productService.CreateListing(userID, &req)
	if err != nil {
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, product)
}

// GetProduct returns a single listing
// GET /api/v1/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.GetProduct(id)
	if err != nil {
		utils.NotFoundResponse(c, "product")
		return
	}

	utils.SuccessResponse(c, product)
}

// ListProducts returns the storefront feed with filters and pagination
// GET /api/v1/products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	params := h.parseSearchParams(c)

	products, total, err := h.productService.ListProducts(params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch products")
		return
	}

	result := utils.CreatePaginationResult(products, total, params.PaginationParams)
	utils.PaginatedResponse(c, result)
}

// SearchProducts runs the storefront prefix search
// GET /api/v1/products/search?q=term
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		utils.BadRequestResponse(c, "Search term is required", nil)
		return
	}

	products, err := h.productService.SearchProducts(term)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to search products")
		return
	}

	utils.SuccessResponse(c, products)
}

// GetMyProducts lists the authenticated user's own listings
// GET /api/v1/products/mine
func (h *ProductHandler) GetMyProducts(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	products, total, err := h.productService.GetUserProducts(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch products")
		return
	}

	result := utils.CreatePaginationResult(products, total, params)
	utils.PaginatedResponse(c, result)
}

// GetMyHistory lists products the user has bought or borrowed
// GET /api/v1/products/history
func (h *ProductHandler) GetMyHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	products, err := h.productService.GetUserHistory(userID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch history")
		return
	}

	utils.SuccessResponse(c, products)
}

// UpdateProduct edits a listing owned by the caller
// PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var req services.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	product, err := h.productService.UpdateProduct(id, userID, &req)
	if err != nil {
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "product")
			return
		}
		if strings.Contains(err.Error(), "unauthorized") {
			utils.ForbiddenResponse(c, "")
			return
		}
		utils.InternalErrorResponse(c, "Failed to update product")
		return
	}

	utils.SuccessResponse(c, product)
}

// DeleteProduct removes a listing owned by the caller
// DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	product, err := h.productService.DeleteProduct(id, userID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			utils.NotFoundResponse(c, "product")
			return
		}
		if strings.Contains(err.Error(), "unauthorized") {
			utils.ForbiddenResponse(c, "")
			return
		}
		utils.ConflictResponse(c, err.Error())
		return
	}

	// Best effort cleanup of the stored image, the listing is already gone
	if key := h.storageService.KeyFromURL(product.ImageURL); key != "" {
		if err := h.storageService.DeleteFile(key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to delete product image")
		}
	}

	utils.SuccessResponse(c, gin.H{"message": i18n.T(lang, i18n.KeyProductDeleted)})
}

// UploadImage stores a listing photo and returns its URL
// POST /api/v1/products/image
func (h *ProductHandler) UploadImage(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	if _, ok := requireUserID(c); !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		utils.BadRequestResponse(c, "Image file is required", nil)
		return
	}

	result, err := h.storageService.UploadProductImage(file)
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	utils.CreatedResponse(c, result)
}

func (h *ProductHandler) parseSearchParams(c *gin.Context) services.ProductSearchParams {
	params := services.ProductSearchParams{
		PaginationParams: utils.GetPaginationParams(c),
	}

	if ownerStr := c.Query("owner_id"); ownerStr != "" {
		if ownerID, err := uuid.Parse(ownerStr); err == nil {
			params.OwnerID = &ownerID
		}
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ProductStatus(statusStr)
		params.Status = &status
	}

	if minStr := c.Query("price_min"); minStr != "" {
		if min, err := strconv.ParseFloat(minStr, 64); err == nil {
			params.PriceMin = &min
		}
	}

	if maxStr := c.Query("price_max"); maxStr != "" {
		if max, err := strconv.ParseFloat(maxStr, 64); err == nil {
			params.PriceMax = &max
		}
	}

	if borrowStr := c.Query("borrowable"); borrowStr != "" {
		if borrowable, err := strconv.ParseBool(borrowStr); err == nil {
			params.Borrowable = &borrowable
		}
	}

	params.Tag = c.Query("tag")

	return params
}

// requireUserID pulls the authenticated user ID out of the request context.
func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	return userID, true
}
