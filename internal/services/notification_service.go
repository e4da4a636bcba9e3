// internal/services/notification_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/loopmarket/marketplace-backend/internal/database"
	"github.com/loopmarket/marketplace-backend/internal/models"
	"github.com/loopmarket/marketplace-backend/internal/utils"
)

var (
	ErrOwnProduct       = errors.New("cannot request your own product")
	ErrNotBorrowable    = errors.New("product is not available for borrowing")
	ErrUnavailable      = errors.New("product is no longer available")
	ErrNotYourDecision  = errors.New("not allowed to decide this request")
	ErrAlreadyProcessed = errors.New("request already processed")
	ErrNotARequest      = errors.New("notification is not a pending request")
)

type NotificationService struct {
	db       *gorm.DB
	products *ProductService
}

type SubmitRequestInput struct {
	Action       models.NotificationAction `json:"action" validate:"required,oneof=buy borrow"`
	DaysToBorrow *int                      `json:"days_to_borrow,omitempty" validate:"omitempty,min=1,max=365"`
	PhoneNumber  string                    `json:"phone_number" validate:"required,phone"`
}

func NewNotificationService(db *gorm.DB, products *ProductService) *NotificationService {
	return &NotificationService{
		db:       db,
		products: products,
	}
}

// Create persists a single notification record as-is. Request intake and
// decision fan-out both go through here so every write carries the product
// name snapshot.
func (s *NotificationService) Create(tx *gorm.DB, notification *models.Notification) error {
	if tx == nil {
		tx = s.db
	}

	if notification.ProductName == "" {
		var product models.Product
		if err := tx.Select("name").First(&product, notification.ProductID).Error; err != nil {
			return fmt.Errorf("failed to resolve product name: %w", err)
		}
		notification.ProductName = product.Name
	}

	if err := tx.Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// SubmitRequest files a buy or borrow request against a product and drops
// it into the owner's inbox.
func (s *NotificationService) SubmitRequest(requesterID uuid.UUID, productID uuid.UUID, input *SubmitRequestInput) (*models.Notification, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var product models.Product
	if err := s.db.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if product.OwnerID == requesterID {
		return nil, ErrOwnProduct
	}

	if product.Status != models.ProductStatusAvailable {
		return nil, ErrUnavailable
	}

	notification := &models.Notification{
		ProductID:   productID,
		ProductName: product.Name,
		UserID:      requesterID,
		OwnerID:     product.OwnerID,
		Action:      input.Action,
		PhoneNumber: input.PhoneNumber,
	}

	switch input.Action {
	case models.ActionBorrow:
		if !product.Borrowable() {
			return nil, ErrNotBorrowable
		}
		if input.DaysToBorrow == nil || *input.DaysToBorrow < 1 {
			return nil, errors.New("borrow requests need a duration of at least one day")
		}
		notification.DaysToBorrow = input.DaysToBorrow
	case models.ActionBuy:
		// Purchase requests never carry a loan duration
		notification.DaysToBorrow = nil
	default:
		return nil, errors.New("unsupported request action")
	}

	if err := s.Create(nil, notification); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": notification.ID,
		"product_id":      productID,
		"requester_id":    requesterID,
		"owner_id":        product.OwnerID,
		"action":          input.Action,
	}).Info("Request submitted")

	return notification, nil
}

// ListForOwner returns a user's inbox, newest first.
func (s *NotificationService) ListForOwner(ownerID uuid.UUID, params utils.PaginationParams) ([]models.Notification, int64, error) {
	query := s.db.Model(&models.Notification{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	allowedSortFields := []string{"created_at", "action"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var notifications []models.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}

	return notifications, total, nil
}

// ListPendingForOwner returns only the undecided buy/borrow requests
// addressed to the owner.
func (s *NotificationService) ListPendingForOwner(ownerID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.db.
		Where("owner_id = ? AND action IN ? AND approved IS NULL", ownerID,
			[]models.NotificationAction{models.ActionBuy, models.ActionBorrow}).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch pending requests: %w", err)
	}

	return notifications, nil
}

// GetNotification fetches a single notification visible to the given user,
// either as requester or as inbox owner.
func (s *NotificationService) GetNotification(id uuid.UUID, userID uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.First(&notification, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("notification not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if notification.OwnerID != userID && notification.UserID != userID {
		return nil, errors.New("notification not found")
	}

	return &notification, nil
}

// Decide resolves a pending request. One transaction covers the whole
// outcome: the original record is stamped with the decision, the product
// changes status when approved, and both parties get an outcome copy in
// their inbox. Either everything commits or nothing does.
func (s *NotificationService) Decide(notificationID uuid.UUID, deciderID uuid.UUID, approve bool) (*models.Notification, error) {
	var original models.Notification

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := tx.First(&original, notificationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("notification not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if original.OwnerID != deciderID {
			return ErrNotYourDecision
		}

		if original.Approved != nil {
			return ErrAlreadyProcessed
		}

		if !original.Action.IsRequest() {
			return ErrNotARequest
		}

		// Resolve from the persisted action, not client input
		requested := original.Action
		resolved := requested.Resolved(approve)
		now := time.Now()

		if err := stampDecision(tx, original.ID, approve, resolved, now); err != nil {
			return err
		}

		if approve {
			if requested == models.ActionBorrow {
				if original.DaysToBorrow == nil {
					return errors.New("borrow request has no duration on record")
				}
				if err := s.products.MarkBorrowed(tx, original.ProductID, original.UserID, *original.DaysToBorrow); err != nil {
					return err
				}
			} else {
				if err := s.products.MarkSold(tx, original.ProductID, original.UserID); err != nil {
					return err
				}
			}
		}

		// Outcome copy for the requester: roles swap so the record lands
		// in the requester's inbox.
		requesterCopy := &models.Notification{
			ProductID:    original.ProductID,
			ProductName:  original.ProductName,
			UserID:       original.OwnerID,
			OwnerID:      original.UserID,
			Action:       resolved,
			DaysToBorrow: original.DaysToBorrow,
			PhoneNumber:  original.PhoneNumber,
			Approved:     &approve,
			ApprovedAt:   &now,
		}
		if err := s.Create(tx, requesterCopy); err != nil {
			return err
		}

		// Outcome copy for the owner's own records, roles unchanged.
		ownerCopy := &models.Notification{
			ProductID:    original.ProductID,
			ProductName:  original.ProductName,
			UserID:       original.UserID,
			OwnerID:      original.OwnerID,
			Action:       resolved,
			DaysToBorrow: original.DaysToBorrow,
			PhoneNumber:  original.PhoneNumber,
			Approved:     &approve,
			ApprovedAt:   &now,
		}
		if err := s.Create(tx, ownerCopy); err != nil {
			return err
		}

		original.Approved = &approve
		original.Action = resolved
		original.ApprovedAt = &now

		return nil
	})
	if err != nil {
		return nil, err
	}

	if approve {
		s.products.InvalidateCache(context.Background())
	}

	logrus.WithFields(logrus.Fields{
		"notification_id": notificationID,
		"decider_id":      deciderID,
		"approved":        approve,
		"action":          original.Action,
	}).Info("Request decided")

	return &original, nil
}

// stampDecision resolves a pending request in place. The WHERE clause is
// the concurrency guard: only one decision can flip approved from NULL,
// so a competing decider loses here no matter what it read earlier.
func stampDecision(tx *gorm.DB, id uuid.UUID, approve bool, resolved models.NotificationAction, at time.Time) error {
	res := tx.Model(&models.Notification{}).
		Where("id = ? AND approved IS NULL", id).
		Updates(map[string]interface{}{
			"approved":    approve,
			"action":      resolved,
			"approved_at": at,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to record decision: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyProcessed
	}
	return nil
}
