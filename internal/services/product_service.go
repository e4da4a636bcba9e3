// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/loopmarket/marketplace-backend/internal/cache"
	"github.com/loopmarket/marketplace-backend/internal/models"
	"github.com/loopmarket/marketplace-backend/internal/utils"
)

type ProductService struct {
	db    *gorm.DB
	cache *cache.Client
}

type CreateListingRequest struct {
	Name        string   `json:"name" validate:"required,min=3,max=255"`
	Description string   `json:"description" validate:"required,min=10"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	RentPrice   *float64 `json:"rent_price,omitempty" validate:"omitempty,gt=0"`
	ImageURL    string   `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags        []string `json:"tags,omitempty"`
}

type UpdateListingRequest struct {
	Name        string   `json:"name,omitempty" validate:"omitempty,min=3,max=255"`
	Description string   `json:"description,omitempty" validate:"omitempty,min=10"`
	Price       float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	RentPrice   *float64 `json:"rent_price,omitempty" validate:"omitempty,gt=0"`
	ImageURL    string   `json:"image_url,omitempty" validate:"omitempty,url"`
	Tags        []string `json:"tags,omitempty"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	OwnerID    *uuid.UUID            `json:"owner_id,omitempty"`
	Status     *models.ProductStatus `json:"status,omitempty"`
	PriceMin   *float64              `json:"price_min,omitempty"`
	PriceMax   *float64              `json:"price_max,omitempty"`
	Borrowable *bool                 `json:"borrowable,omitempty"`
	Tag        string                `json:"tag,omitempty"`
}

type productListPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

func NewProductService(db *gorm.DB, cacheClient *cache.Client) *ProductService {
	return &ProductService{
		db:    db,
		cache: cacheClient,
	}
}

func (s *ProductService) CreateListing(ownerID uuid.UUID, req *CreateListingRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Verify owner exists and is active
	var owner models.User
	if err := s.db.First(&owner, ownerID).Error; err != nil {
		return nil, fmt.Errorf("owner not found: %w", err)
	}

	if owner.Status != models.UserStatusActive {
		return nil, errors.New("owner account is not active")
	}

	product := &models.Product{
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		RentPrice:   req.RentPrice,
		ImageURL:    req.ImageURL,
		Tags:        pq.StringArray(req.Tags),
		Status:      models.ProductStatusAvailable,
	}

	if err := s.db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.InvalidateCache(context.Background())

	return product, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("Owner").First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &product, nil
}

func (s *ProductService) ListProducts(params ProductSearchParams) ([]models.Product, int64, error) {
	ctx := context.Background()
	cacheKey := cache.ProductListKey(
		params.Page, params.Limit, params.Sort, params.Order, params.Search,
		derefKey(params.OwnerID), derefKey(params.Status),
		derefKey(params.PriceMin), derefKey(params.PriceMax),
		derefKey(params.Borrowable), params.Tag,
	)

	var page productListPage
	if s.cache.GetJSON(ctx, cacheKey, &page) {
		return page.Products, page.Total, nil
	}

	query := s.db.Model(&models.Product{})

	// Apply filters
	if params.OwnerID != nil {
		query = query.Where("owner_id = ?", *params.OwnerID)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if params.Search != "" {
		// Prefix match over name and description
		term := strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}

	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}

	if params.Borrowable != nil && *params.Borrowable {
		query = query.Where("rent_price IS NOT NULL AND rent_price > 0")
	}

	if params.Tag != "" {
		query = query.Where("? = ANY(tags)", params.Tag)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	// Apply sorting and pagination
	allowedSortFields := []string{"created_at", "updated_at", "name", "price"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	// Execute query
	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	s.cache.SetJSON(ctx, cacheKey, productListPage{Products: products, Total: total})

	return products, total, nil
}

// SearchProducts is the bare prefix search over name or description,
// unpaginated, for the storefront search box.
func (s *ProductService) SearchProducts(term string) ([]models.Product, error) {
	var products []models.Product
	prefix := strings.ToLower(term) + "%"
	if err := s.db.
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", prefix, prefix).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	return products, nil
}

func (s *ProductService) GetUserProducts(ownerID uuid.UUID, params utils.PaginationParams) ([]models.Product, int64, error) {
	query := s.db.Model(&models.Product{}).Where("owner_id = ?", ownerID)

	if params.Search != "" {
		term := strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count user products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "price", "status"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch user products: %w", err)
	}

	return products, total, nil
}

// GetUserHistory returns the products a user has bought or borrowed.
func (s *ProductService) GetUserHistory(userID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.
		Where("purchased_by = ? OR borrowed_by = ?", userID, userID).
		Order("updated_at DESC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch user history: %w", err)
	}

	return products, nil
}

func (s *ProductService) UpdateProduct(id uuid.UUID, ownerID uuid.UUID, req *UpdateListingRequest) (*models.Product, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Find and verify ownership
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.OwnerID != ownerID {
		return nil, errors.New("unauthorized to update this product")
	}

	// Prepare updates
	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Price > 0 {
		updates["price"] = req.Price
	}
	if req.RentPrice != nil {
		updates["rent_price"] = *req.RentPrice
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.Tags != nil {
		updates["tags"] = pq.StringArray(req.Tags)
	}

	// Apply updates
	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.InvalidateCache(context.Background())

	return &product, nil
}

// DeleteProduct removes an available listing. The deleted record is
// returned so the caller can clean up attached storage.
func (s *ProductService) DeleteProduct(id uuid.UUID, ownerID uuid.UUID) (*models.Product, error) {
	// Find and verify ownership
	var product models.Product
	if err := s.db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.OwnerID != ownerID {
		return nil, errors.New("unauthorized to delete this product")
	}

	if product.Status != models.ProductStatusAvailable {
		return nil, errors.New("cannot delete a product that has been sold or borrowed")
	}

	// Soft delete
	if err := s.db.Delete(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}

	s.InvalidateCache(context.Background())

	return &product, nil
}

// MarkSold applies the available→sold transition. It runs on the caller's
// transaction handle so the notification decision commits atomically with
// the status change. The transition happens at most once per product: a
// record that already left the available state is refused.
func (s *ProductService) MarkSold(tx *gorm.DB, productID uuid.UUID, buyerID uuid.UUID) error {
	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("product not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":       models.ProductStatusSold,
		"purchased_by": buyerID,
		"sold_at":      now,
	}

	return claimProduct(tx, productID, updates)
}

// MarkBorrowed applies the available→borrowed transition with the agreed
// loan duration in days. Same atomicity and at-most-once contract as
// MarkSold.
func (s *ProductService) MarkBorrowed(tx *gorm.DB, productID uuid.UUID, borrowerID uuid.UUID, days int) error {
	if days < 1 {
		return errors.New("borrow duration must be at least one day")
	}

	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("product not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":          models.ProductStatusBorrowed,
		"borrowed_by":     borrowerID,
		"borrow_duration": days,
		"borrowed_at":     now,
	}

	return claimProduct(tx, productID, updates)
}

// claimProduct moves a product out of the available state. The status
// predicate in the WHERE clause makes the transition at most once: if
// another transaction already claimed the row, zero rows match and the
// caller's decision rolls back.
func claimProduct(tx *gorm.DB, productID uuid.UUID, updates map[string]interface{}) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND status = ?", productID, models.ProductStatusAvailable).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update product status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New("product is no longer available")
	}
	return nil
}

// InvalidateCache drops cached listing pages after any product write.
func (s *ProductService) InvalidateCache(ctx context.Context) {
	s.cache.InvalidateProducts(ctx)
}

// derefKey renders an optional filter into a stable cache key fragment.
func derefKey[T any](p *T) interface{} {
	if p == nil {
		return ""
	}
	return *p
}
