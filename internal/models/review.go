package models

import (
	"errors"
	"strings"
	"time"
)

// Review is a customer rating on a vehicle. Submission is not tied to
// having booked the vehicle.
type Review struct {
	ID        string    `json:"id" db:"id"`
	VehicleID string    `json:"vehicle_id" db:"vehicle_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateReviewRequest represents the request to submit a review
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// Validate validates the review request
func (r *CreateReviewRequest) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return errors.New("rating must be between 1 and 5")
	}

	r.Comment = strings.TrimSpace(r.Comment)
	if r.Comment == "" {
		return errors.New("comment is required")
	}

	return nil
}
