// internal/handlers/notification_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/loopmarket/marketplace-backend/internal/middleware"
	"github.com/loopmarket/marketplace-backend/internal/models"
	"github.com/loopmarket/marketplace-backend/internal/services"
	"github.com/loopmarket/marketplace-backend/internal/utils"
)

type testServer struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}, &models.Notification{}))

	productService := services.NewProductService(db, nil)
	notificationService := services.NewNotificationService(db, productService)
	handler := NewNotificationHandler(notificationService)

	r := gin.New()
	authed := r.Group("/api/v1", middleware.AuthRequired())
	authed.POST("/products/:id/request", handler.SubmitRequest)
	authed.GET("/notifications", handler.ListNotifications)
	authed.GET("/notifications/pending", handler.ListPending)
	authed.POST("/notifications/:id/decide", handler.Decide)

	return &testServer{db: db, router: r}
}

func (s *testServer) createUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Status:   models.UserStatusActive,
	}
	require.NoError(t, user.SetPassword("Str0ng!Pass"))
	require.NoError(t, s.db.Create(user).Error)

	token, err := utils.GenerateJWT(user.ID, user.Username, 1)
	require.NoError(t, err)

	return user, token
}

func (s *testServer) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRequestDecideFlow(t *testing.T) {
	srv := newTestServer(t)

	owner, ownerToken := srv.createUser(t, "seller")
	_, buyerToken := srv.createUser(t, "buyer")

	product := &models.Product{
		OwnerID:     owner.ID,
		Name:        "Bookshelf",
		Description: "Five shelf wooden bookcase",
		Price:       2500,
		Status:      models.ProductStatusAvailable,
	}
	require.NoError(t, srv.db.Create(product).Error)

	// Buyer files a purchase request
	w := srv.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/products/%s/request", product.ID),
		buyerToken, gin.H{"action": "buy", "phone_number": "+91 98765 43210"})
	require.Equal(t, http.StatusCreated, w.Code)

	// The request shows up in the owner's pending list
	w = srv.request(t, http.MethodGet, "/api/v1/notifications/pending", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var pendingResp struct {
		Data []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pendingResp))
	require.Len(t, pendingResp.Data, 1)
	requestID := pendingResp.Data[0].ID

	// The buyer cannot decide it
	w = srv.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/notifications/%s/decide", requestID),
		buyerToken, gin.H{"approve": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The owner approves
	w = srv.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/notifications/%s/decide", requestID),
		ownerToken, gin.H{"approve": true})
	require.Equal(t, http.StatusOK, w.Code)

	// Approving again conflicts
	w = srv.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/notifications/%s/decide", requestID),
		ownerToken, gin.H{"approve": false})
	assert.Equal(t, http.StatusConflict, w.Code)

	// The product is sold
	var sold models.Product
	require.NoError(t, srv.db.First(&sold, product.ID).Error)
	assert.Equal(t, models.ProductStatusSold, sold.Status)

	// Both inboxes carry the outcome
	w = srv.request(t, http.MethodGet, "/api/v1/notifications", buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var buyerInbox struct {
		Data []models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &buyerInbox))
	require.Len(t, buyerInbox.Data, 1)
	assert.Equal(t, models.ActionBuyApproved, buyerInbox.Data[0].Action)
}

func TestRequestRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	owner, _ := srv.createUser(t, "seller")
	product := &models.Product{
		OwnerID:     owner.ID,
		Name:        "Bookshelf",
		Description: "Five shelf wooden bookcase",
		Price:       2500,
		Status:      models.ProductStatusAvailable,
	}
	require.NoError(t, srv.db.Create(product).Error)

	w := srv.request(t, http.MethodPost,
		fmt.Sprintf("/api/v1/products/%s/request", product.ID),
		"", gin.H{"action": "buy"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitRequestValidation(t *testing.T) {
	srv := newTestServer(t)

	owner, ownerToken := srv.createUser(t, "seller")
	_, buyerToken := srv.createUser(t, "buyer")

	product := &models.Product{
		OwnerID:     owner.ID,
		Name:        "Bookshelf",
		Description: "Five shelf wooden bookcase",
		Price:       2500,
		Status:      models.ProductStatusAvailable,
	}
	require.NoError(t, srv.db.Create(product).Error)

	t.Run("unknown action", func(t *testing.T) {
		w := srv.request(t, http.MethodPost,
			fmt.Sprintf("/api/v1/products/%s/request", product.ID),
			buyerToken, gin.H{"action": "steal"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing phone number", func(t *testing.T) {
		w := srv.request(t, http.MethodPost,
			fmt.Sprintf("/api/v1/products/%s/request", product.ID),
			buyerToken, gin.H{"action": "buy"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("own product conflicts", func(t *testing.T) {
		w := srv.request(t, http.MethodPost,
			fmt.Sprintf("/api/v1/products/%s/request", product.ID),
			ownerToken, gin.H{"action": "buy", "phone_number": "+91 98765 43210"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("malformed product id", func(t *testing.T) {
		w := srv.request(t, http.MethodPost,
			"/api/v1/products/not-a-uuid/request",
			buyerToken, gin.H{"action": "buy"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
