// internal/models/notification_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotificationActionResolved(t *testing.T) {
	assert.Equal(t, ActionBuyApproved, ActionBuy.Resolved(true))
	assert.Equal(t, ActionBuyRejected, ActionBuy.Resolved(false))
	assert.Equal(t, ActionBorrowApproved, ActionBorrow.Resolved(true))
	assert.Equal(t, ActionBorrowRejected, ActionBorrow.Resolved(false))
}

func TestNotificationActionIsRequest(t *testing.T) {
	assert.True(t, ActionBuy.IsRequest())
	assert.True(t, ActionBorrow.IsRequest())
	assert.False(t, ActionBuyApproved.IsRequest())
	assert.False(t, ActionBorrowRejected.IsRequest())
}

func TestNotificationPending(t *testing.T) {
	approved := true

	pending := Notification{Action: ActionBuy}
	assert.True(t, pending.Pending())

	decided := Notification{Action: ActionBuyApproved, Approved: &approved}
	assert.False(t, decided.Pending())

	// A request with a stamp but an unsuffixed action is still not pending
	stamped := Notification{Action: ActionBuy, Approved: &approved}
	assert.False(t, stamped.Pending())
}

func TestProductBorrowable(t *testing.T) {
	rent := 50.0
	zero := 0.0

	assert.True(t, (&Product{RentPrice: &rent}).Borrowable())
	assert.False(t, (&Product{}).Borrowable())
	assert.False(t, (&Product{RentPrice: &zero}).Borrowable())
}
