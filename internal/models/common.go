// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// BeforeCreate assigns the primary key client-side so inserts behave the
// same on every database the model runs against.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type ProductStatus string

const (
	ProductStatusAvailable ProductStatus = "available"
	ProductStatusSold      ProductStatus = "sold"
	ProductStatusBorrowed  ProductStatus = "borrowed"
)

// NotificationAction tags a notification record with the side of the
// request/approval workflow it represents. Request records carry the bare
// "buy"/"borrow" tag; resolved records carry an "-approved"/"-rejected"
// suffix.
type NotificationAction string

const (
	ActionBuy            NotificationAction = "buy"
	ActionBorrow         NotificationAction = "borrow"
	ActionBuyApproved    NotificationAction = "buy-approved"
	ActionBorrowApproved NotificationAction = "borrow-approved"
	ActionBuyRejected    NotificationAction = "buy-rejected"
	ActionBorrowRejected NotificationAction = "borrow-rejected"
)

// IsRequest reports whether the action is an unresolved buy/borrow request.
func (a NotificationAction) IsRequest() bool {
	return a == ActionBuy || a == ActionBorrow
}

// IsBorrow reports whether the action is borrow-rooted.
func (a NotificationAction) IsBorrow() bool {
	return strings.HasPrefix(string(a), string(ActionBorrow))
}

// Resolved derives the terminal action tag by suffixing the request action.
func (a NotificationAction) Resolved(approved bool) NotificationAction {
	if approved {
		return a + "-approved"
	}
	return a + "-rejected"
}
