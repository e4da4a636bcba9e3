// internal/services/product_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/loopmarket/marketplace-backend/internal/models"
	"github.com/loopmarket/marketplace-backend/internal/utils"
)

func TestCreateListing(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil)

	owner := createTestUser(t, db, "seller")

	t.Run("creates an available listing", func(t *testing.T) {
		product, err := svc.CreateListing(owner.ID, &CreateListingRequest{
			Name:        "Study Lamp",
			Description: "Adjustable desk lamp with warm light",
			Price:       450,
			RentPrice:   floatPtr(20),
		})
		require.NoError(t, err)

		assert.Equal(t, models.ProductStatusAvailable, product.Status)
		assert.Equal(t, owner.ID, product.OwnerID)
		assert.True(t, product.Borrowable())
		assert.NotEqual(t, uuid.Nil, product.ID)
	})

	t.Run("sale-only listing is not borrowable", func(t *testing.T) {
		product, err := svc.CreateListing(owner.ID, &CreateListingRequest{
			Name:        "Textbook Bundle",
			Description: "Second year engineering textbooks, good condition",
			Price:       1200,
		})
		require.NoError(t, err)
		assert.False(t, product.Borrowable())
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := svc.CreateListing(owner.ID, &CreateListingRequest{
			Name:        "x",
			Description: "too short",
			Price:       -1,
		})
		assert.Error(t, err)
	})

	t.Run("rejects unknown owner", func(t *testing.T) {
		_, err := svc.CreateListing(uuid.New(), &CreateListingRequest{
			Name:        "Study Lamp",
			Description: "Adjustable desk lamp with warm light",
			Price:       450,
		})
		assert.ErrorContains(t, err, "owner not found")
	})

	t.Run("rejects suspended owner", func(t *testing.T) {
		suspended := createTestUser(t, db, "suspended")
		require.NoError(t, db.Model(suspended).Update("status", models.UserStatusSuspended).Error)

		_, err := svc.CreateListing(suspended.ID, &CreateListingRequest{
			Name:        "Study Lamp",
			Description: "Adjustable desk lamp with warm light",
			Price:       450,
		})
		assert.ErrorContains(t, err, "not active")
	})
}

func TestListProducts(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil)

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	mustCreate := func(ownerID uuid.UUID, name, description string, price float64, rent *float64) *models.Product {
		p, err := svc.CreateListing(ownerID, &CreateListingRequest{
			Name:        name,
			Description: description,
			Price:       price,
			RentPrice:   rent,
		})
		require.NoError(t, err)
		return p
	}

	mustCreate(alice.ID, "Casio Calculator", "Scientific calculator fx-991", 900, nil)
	mustCreate(alice.ID, "Camping Tent", "Four person dome tent", 4200, floatPtr(300))
	cycle := mustCreate(bob.ID, "Cycle", "Single speed city bicycle", 6000, floatPtr(100))

	baseParams := utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}

	t.Run("unfiltered feed returns everything", func(t *testing.T) {
		products, total, err := svc.ListProducts(ProductSearchParams{PaginationParams: baseParams})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, products, 3)
	})

	t.Run("prefix search matches name", func(t *testing.T) {
		params := ProductSearchParams{PaginationParams: baseParams}
		params.Search = "ca"

		products, total, err := svc.ListProducts(params)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		for _, p := range products {
			assert.Contains(t, []string{"Casio Calculator", "Camping Tent"}, p.Name)
		}
	})

	t.Run("owner filter", func(t *testing.T) {
		params := ProductSearchParams{PaginationParams: baseParams, OwnerID: &bob.ID}

		products, total, err := svc.ListProducts(params)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, cycle.ID, products[0].ID)
	})

	t.Run("price range filter", func(t *testing.T) {
		min, max := 1000.0, 5000.0
		params := ProductSearchParams{PaginationParams: baseParams, PriceMin: &min, PriceMax: &max}

		_, total, err := svc.ListProducts(params)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
	})

	t.Run("borrowable filter", func(t *testing.T) {
		borrowable := true
		params := ProductSearchParams{PaginationParams: baseParams, Borrowable: &borrowable}

		_, total, err := svc.ListProducts(params)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("status filter", func(t *testing.T) {
		require.NoError(t, db.Model(cycle).Update("status", models.ProductStatusSold).Error)

		status := models.ProductStatusAvailable
		params := ProductSearchParams{PaginationParams: baseParams, Status: &status}

		_, total, err := svc.ListProducts(params)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})
}

func TestSearchProducts(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil)

	owner := createTestUser(t, db, "seller")

	for _, name := range []string{"Guitar", "Guitar Stand", "Keyboard"} {
		_, err := svc.CreateListing(owner.ID, &CreateListingRequest{
			Name:        name,
			Description: "Well cared for music gear",
			Price:       1000,
		})
		require.NoError(t, err)
	}

	t.Run("case-insensitive prefix", func(t *testing.T) {
		products, err := svc.SearchProducts("gui")
		require.NoError(t, err)
		assert.Len(t, products, 2)
	})

	t.Run("interior substrings do not match", func(t *testing.T) {
		products, err := svc.SearchProducts("board")
		require.NoError(t, err)
		assert.Empty(t, products)
	})
}

func TestGetUserHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil)

	owner := createTestUser(t, db, "seller")
	user := createTestUser(t, db, "user")

	bought := createTestProduct(t, db, owner.ID, nil)
	borrowed := createTestProduct(t, db, owner.ID, floatPtr(50))
	createTestProduct(t, db, owner.ID, nil) // untouched

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.MarkSold(tx, bought.ID, user.ID)
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.MarkBorrowed(tx, borrowed.ID, user.ID, 7)
	}))

	history, err := svc.GetUserHistory(user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	ids := []uuid.UUID{history[0].ID, history[1].ID}
	assert.Contains(t, ids, bought.ID)
	assert.Contains(t, ids, borrowed.ID)

	// The seller has no history of their own
	sellerHistory, err := svc.GetUserHistory(owner.ID)
	require.NoError(t, err)
	assert.Empty(t, sellerHistory)
}

func TestStatusMutators(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil)

	owner := createTestUser(t, db, "seller")
	buyer := createTestUser(t, db, "buyer")

	t.Run("mark sold is terminal", func(t *testing.T) {
		product := createTestProduct(t, db, owner.ID, nil)

		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.MarkSold(tx, product.ID, buyer.ID)
		}))

		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.MarkSold(tx, product.ID, buyer.ID)
		})
		assert.ErrorContains(t, err, "no longer available")

		err = db.Transaction(func(tx *gorm.DB) error {
			return svc.MarkBorrowed(tx, product.ID, buyer.ID, 5)
		})
		assert.ErrorContains(t, err, "no longer available")
	})

	t.Run("mark borrowed records the duration", func(t *testing.T) {
		product := createTestProduct(t, db, owner.ID, floatPtr(80))

		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			return svc.MarkBorrowed(tx, product.ID, buyer.ID, 21)
		}))

		var lent models.Product
		require.NoError(t, db.First(&lent, product.ID).Error)
		assert.Equal(t, models.ProductStatusBorrowed, lent.Status)
		require.NotNil(t, lent.BorrowDuration)
		assert.Equal(t, 21, *lent.BorrowDuration)
	})

	t.Run("borrow duration must be positive", func(t *testing.T) {
		product := createTestProduct(t, db, owner.ID, floatPtr(80))

		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.MarkBorrowed(tx, product.ID, buyer.ID, 0)
		})
		assert.ErrorContains(t, err, "at least one day")
	})

	t.Run("unknown product", func(t *testing.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.MarkSold(tx, uuid.New(), buyer.ID)
		})
		assert.ErrorContains(t, err, "not found")
	})
}

func TestUpdateProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil)

	owner := createTestUser(t, db, "seller")
	other := createTestUser(t, db, "other")
	product := createTestProduct(t, db, owner.ID, nil)

	t.Run("owner can edit", func(t *testing.T) {
		updated, err := svc.UpdateProduct(product.ID, owner.ID, &UpdateListingRequest{
			Price: 2800,
		})
		require.NoError(t, err)
		assert.EqualValues(t, 2800, updated.Price)
	})

	t.Run("others cannot", func(t *testing.T) {
		_, err := svc.UpdateProduct(product.ID, other.ID, &UpdateListingRequest{Price: 1})
		assert.ErrorContains(t, err, "unauthorized")
	})
}

func TestDeleteProduct(t *testing.T) {
	db := newTestDB(t)
	svc := NewProductService(db, nil)

	owner := createTestUser(t, db, "seller")
	other := createTestUser(t, db, "other")

	t.Run("owner can delete an available listing", func(t *testing.T) {
		product := createTestProduct(t, db, owner.ID, nil)
		deleted, err := svc.DeleteProduct(product.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, deleted.ID)

		_, err = svc.GetProduct(product.ID)
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("others cannot delete", func(t *testing.T) {
		product := createTestProduct(t, db, owner.ID, nil)
		_, err := svc.DeleteProduct(product.ID, other.ID)
		assert.ErrorContains(t, err, "unauthorized")
	})

	t.Run("sold listings stay on record", func(t *testing.T) {
		product := createTestProduct(t, db, owner.ID, nil)
		require.NoError(t, db.Model(product).Update("status", models.ProductStatusSold).Error)

		_, err := svc.DeleteProduct(product.ID, owner.ID)
		assert.ErrorContains(t, err, "sold or borrowed")
	})
}
