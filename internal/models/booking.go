package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// TaxRate is the fixed GST rate applied to every booking at creation time.
// The total is computed once and never recomputed.
const TaxRate = 0.18

// DateLayout is the wire format for pickup and dropoff dates
const DateLayout = "2006-01-02"

// allowedTransitions is the central transition table for customer-facing
// paths. Admin status overrides bypass it.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCompleted, BookingStatusCancelled},
	BookingStatusCompleted: {},
	BookingStatusCancelled: {},
}

// InvalidTransitionError is returned when a status change violates the
// booking lifecycle.
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid booking status transition: %s -> %s", e.From, e.To)
}

// CanTransitionTo reports whether the lifecycle allows moving from s to target
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Booking represents a customer's reservation of a vehicle for a date range
type Booking struct {
	ID              string        `json:"id" db:"id"`
	UserID          string        `json:"user_id" db:"user_id"`
	VehicleID       string        `json:"vehicle_id" db:"vehicle_id"`
	PickupDate      time.Time     `json:"pickup_date" db:"pickup_date"`
	DropoffDate     time.Time     `json:"dropoff_date" db:"dropoff_date"`
	PickupLocation  string        `json:"pickup_location" db:"pickup_location"`
	DropoffLocation string        `json:"dropoff_location" db:"dropoff_location"`
	TotalDays       int           `json:"total_days" db:"total_days"`
	BaseAmount      float64       `json:"base_amount" db:"base_amount"`
	TotalAmount     float64       `json:"total_amount" db:"total_amount"`
	Status          BookingStatus `json:"status" db:"status"`
	PaymentMethod   NullString    `json:"payment_method,omitempty" db:"payment_method"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// CanBeCancelled checks if the booking can be cancelled by its owner.
// Only confirmed bookings are offered the cancel action; the lifecycle
// table still has the final say.
func (b *Booking) CanBeCancelled() bool {
	return b.Status == BookingStatusConfirmed && b.Status.CanTransitionTo(BookingStatusCancelled)
}

// Transition moves the booking to the target status, enforcing the
// lifecycle table
func (b *Booking) Transition(target BookingStatus) error {
	if !b.Status.CanTransitionTo(target) {
		return &InvalidTransitionError{From: b.Status, To: target}
	}
	b.Status = target
	b.UpdatedAt = time.Now()
	return nil
}

// PriceQuote holds the derived pricing for a booking
type PriceQuote struct {
	TotalDays   int     `json:"total_days"`
	BaseAmount  float64 `json:"base_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// QuotePrice derives the booking price from the rental period and daily rate.
// Days are counted as the ceiling of the calendar-day difference; the total
// includes the fixed tax rate and is rounded to currency precision.
func QuotePrice(pickup, dropoff time.Time, pricePerDay float64) PriceQuote {
	diff := dropoff.Sub(pickup)
	if diff < 0 {
		diff = -diff
	}
	days := int(math.Ceil(diff.Hours() / 24))

	base := float64(days) * pricePerDay
	total := roundToCents(base * (1 + TaxRate))

	return PriceQuote{
		TotalDays:   days,
		BaseAmount:  base,
		TotalAmount: total,
	}
}

func roundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	VehicleID       string `json:"vehicle_id" binding:"required"`
	PickupDate      string `json:"pickup_date"`
	DropoffDate     string `json:"dropoff_date"`
	PickupLocation  string `json:"pickup_location"`
	DropoffLocation string `json:"dropoff_location"`
}

// Validate checks the request and returns the parsed rental period.
// Validation order: both dates present, dropoff strictly after pickup,
// both locations non-empty after trimming.
func (r *CreateBookingRequest) Validate() (pickup, dropoff time.Time, err error) {
	if r.PickupDate == "" || r.DropoffDate == "" {
		return time.Time{}, time.Time{}, errors.New("pickup and drop-off dates are required")
	}

	pickup, err = time.Parse(DateLayout, r.PickupDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("pickup_date must be in YYYY-MM-DD format")
	}

	dropoff, err = time.Parse(DateLayout, r.DropoffDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("dropoff_date must be in YYYY-MM-DD format")
	}

	if !dropoff.After(pickup) {
		return time.Time{}, time.Time{}, errors.New("drop-off date must be after pickup date")
	}

	r.PickupLocation = strings.TrimSpace(r.PickupLocation)
	r.DropoffLocation = strings.TrimSpace(r.DropoffLocation)
	if r.PickupLocation == "" || r.DropoffLocation == "" {
		return time.Time{}, time.Time{}, errors.New("pickup and drop-off locations are required")
	}

	return pickup, dropoff, nil
}

// ConfirmCODRequest represents the cash-on-delivery confirmation request
type ConfirmCODRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// AdminStatusOverrideRequest represents the privileged status mutation request
type AdminStatusOverrideRequest struct {
	Status string `json:"status" binding:"required"`
}

// Validate validates the admin override target status
func (r *AdminStatusOverrideRequest) Validate() error {
	switch BookingStatus(r.Status) {
	case BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return nil
	default:
		return errors.New("status must be one of: confirmed, completed, cancelled")
	}
}
