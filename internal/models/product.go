// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Product struct {
	BaseModel
	OwnerID     uuid.UUID      `json:"owner_id" gorm:"type:uuid;not null;index"`
	Name        string         `json:"name" gorm:"size:255;not null"`
	Description string         `json:"description" gorm:"type:text"`
	Price       float64        `json:"price" gorm:"type:decimal(10,2);not null"`
	RentPrice   *float64       `json:"rent_price,omitempty" gorm:"type:decimal(10,2)"`
	ImageURL    string         `json:"image_url,omitempty" gorm:"size:512"`
	Tags        pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`
	Status      ProductStatus  `json:"status" gorm:"type:varchar(20);default:'available';index"`

	// Terminal fields, set once by the status mutator.
	PurchasedBy    *uuid.UUID `json:"purchased_by,omitempty" gorm:"type:uuid;index"`
	BorrowedBy     *uuid.UUID `json:"borrowed_by,omitempty" gorm:"type:uuid;index"`
	BorrowDuration *int       `json:"borrow_duration,omitempty"`
	SoldAt         *time.Time `json:"sold_at,omitempty"`
	BorrowedAt     *time.Time `json:"borrowed_at,omitempty"`

	// Relationships
	Owner         User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Notifications []Notification `json:"notifications,omitempty" gorm:"foreignKey:ProductID"`
}

// Borrowable reports whether the listing offers a loan at all. A missing
// rent price means borrow requests are never accepted for this product.
func (p *Product) Borrowable() bool {
	return p.RentPrice != nil && *p.RentPrice > 0
}
