package models

import (
	"fmt"
	"time"
)

// PaymentMethod identifies how a booking was paid
type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "Stripe"
	PaymentMethodCOD    PaymentMethod = "Cash on Delivery"
)

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Payment is a log entry for one completed or cancelled payment attempt.
// TransactionID doubles as the idempotency key: webhook redeliveries find
// the existing row instead of inserting a second one.
type Payment struct {
	ID            string        `json:"id" db:"id"`
	BookingID     string        `json:"booking_id" db:"booking_id"`
	Amount        float64       `json:"amount" db:"amount"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	TransactionID string        `json:"transaction_id" db:"transaction_id"`
	Status        PaymentStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// NewLocalTransactionID generates a time-based transaction identifier for
// payments confirmed without a gateway (cash on delivery).
func NewLocalTransactionID(now time.Time) string {
	return fmt.Sprintf("TXN_%d", now.UnixMilli())
}
