// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is one inbox record of the request/approval workflow.
// A record is visible only to its OwnerID: the requester's copy of a
// decision is a separate record with the identifier roles swapped, so it
// lands in the requester's owner-filtered inbox.
type Notification struct {
	BaseModel
	ProductID   uuid.UUID `json:"product_id" gorm:"type:uuid;not null;index"`
	ProductName string    `json:"product_name" gorm:"size:255;not null"`
	// UserID is the requester; OwnerID addresses the inbox the record
	// appears in.
	UserID       uuid.UUID          `json:"user_id" gorm:"type:uuid;not null;index"`
	OwnerID      uuid.UUID          `json:"owner_id" gorm:"type:uuid;not null;index"`
	Action       NotificationAction `json:"action" gorm:"type:varchar(20);not null;index"`
	DaysToBorrow *int               `json:"days_to_borrow,omitempty"`
	PhoneNumber  string             `json:"phone_number,omitempty" gorm:"size:20"`
	Approved     *bool              `json:"approved,omitempty"`
	ApprovedAt   *time.Time         `json:"approved_at,omitempty"`

	// Relationships
	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
}

// Pending reports whether the record is an undecided request.
func (n *Notification) Pending() bool {
	return n.Action.IsRequest() && n.Approved == nil
}
