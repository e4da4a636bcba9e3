// internal/handlers/notification.go
package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/loopmarket/marketplace-backend/internal/i18n"
	"github.com/loopmarket/marketplace-backend/internal/services"
	"github.com/loopmarket/marketplace-backend/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

type decideRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// SubmitRequest files a buy or borrow request against a product
// POST /api/v1/products/:id/request
func (h *NotificationHandler) SubmitRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid product ID", nil)
		return
	}

	var input services.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	notification, err := h.notificationService.SubmitRequest(userID, productID, &input)
	if err != nil {
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		switch {
		case errors.Is(err, services.ErrOwnProduct):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyRequestOwnProduct))
		case errors.Is(err, services.ErrUnavailable):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProductUnavailable))
		case errors.Is(err, services.ErrNotBorrowable):
			utils.ConflictResponse(c, err.Error())
		case strings.Contains(err.Error(), "not found"):
			utils.NotFoundResponse(c, "product")
		default:
			utils.BadRequestResponse(c, err.Error(), nil)
		}
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":      i18n.T(lang, i18n.KeyRequestSent, string(notification.Action)),
		"notification": notification,
	})
}

// ListNotifications returns the caller's inbox
// GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	notifications, total, err := h.notificationService.ListForOwner(userID, params)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch notifications")
		return
	}

	result := utils.CreatePaginationResult(notifications, total, params)
	utils.PaginatedResponse(c, result)
}

// ListPending returns only the caller's undecided requests
// GET /api/v1/notifications/pending
func (h *NotificationHandler) ListPending(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	notifications, err := h.notificationService.ListPendingForOwner(userID)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to fetch pending requests")
		return
	}

	utils.SuccessResponse(c, notifications)
}

// GetNotification returns a single notification visible to the caller
// GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	notification, err := h.notificationService.GetNotification(id, userID)
	if err != nil {
		utils.NotFoundResponse(c, "notification")
		return
	}

	utils.SuccessResponse(c, notification)
}

// Decide approves or rejects a pending request
// POST /api/v1/notifications/:id/decide
func (h *NotificationHandler) Decide(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid notification ID", nil)
		return
	}

	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request format", err.Error())
		return
	}

	notification, err := h.notificationService.Decide(id, userID, *req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotYourDecision):
			utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyRequestNotYours))
		case errors.Is(err, services.ErrAlreadyProcessed):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyRequestProcessed))
		case errors.Is(err, services.ErrNotARequest):
			utils.ConflictResponse(c, err.Error())
		case strings.Contains(err.Error(), "no longer available"):
			utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProductUnavailable))
		case strings.Contains(err.Error(), "not found"):
			utils.NotFoundResponse(c, "notification")
		default:
			utils.InternalErrorResponse(c, "Failed to process decision")
		}
		return
	}

	messageKey := i18n.KeyRequestRejected
	if *req.Approve {
		messageKey = i18n.KeyRequestApproved
	}

	utils.SuccessResponse(c, gin.H{
		"message":      i18n.T(lang, messageKey),
		"notification": notification,
	})
}
