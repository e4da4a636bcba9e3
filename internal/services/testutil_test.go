// internal/services/testutil_test.go
package services

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/loopmarket/marketplace-backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Notification{},
		&models.AuditLog{},
	)
	require.NoError(t, err)

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Str0ng!Pass"))
	require.NoError(t, db.Create(user).Error)

	return user
}

func createTestProduct(t *testing.T, db *gorm.DB, ownerID uuid.UUID, rentPrice *float64) *models.Product {
	t.Helper()

	product := &models.Product{
		OwnerID:     ownerID,
		Name:        "Mechanical Keyboard",
		Description: "Lightly used 75% board with hot-swap switches",
		Price:       3500,
		RentPrice:   rentPrice,
		Status:      models.ProductStatusAvailable,
	}
	require.NoError(t, db.Create(product).Error)

	return product
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
