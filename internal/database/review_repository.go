package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
)

// ReviewRepository handles database operations for the reviews table
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new ReviewRepository
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review
func (r *ReviewRepository) Create(review *models.Review) error {
	query := `
		INSERT INTO reviews (id, vehicle_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	if review.ID == "" {
		review.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		review.ID, review.VehicleID, review.UserID, review.Rating, review.Comment,
	).Scan(&review.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByVehicleID retrieves reviews for a vehicle, newest first
func (r *ReviewRepository) GetByVehicleID(vehicleID string) ([]models.Review, error) {
	query := `
		SELECT id, vehicle_id, user_id, rating, comment, created_at
		FROM reviews
		WHERE vehicle_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := []models.Review{}
	for rows.Next() {
		var review models.Review
		err := rows.Scan(
			&review.ID, &review.VehicleID, &review.UserID,
			&review.Rating, &review.Comment, &review.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	return reviews, rows.Err()
}
