package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
)

// scanner interface for QueryRow and Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// ErrBookingNotPending is returned when a conditional confirm finds the
// booking in a status other than pending.
var ErrBookingNotPending = fmt.Errorf("booking is not pending")

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, user_id, vehicle_id, pickup_date, dropoff_date,
			pickup_location, dropoff_location,
			total_days, base_amount, total_amount, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		RETURNING created_at, updated_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		booking.ID, booking.UserID, booking.VehicleID, booking.PickupDate, booking.DropoffDate,
		booking.PickupLocation, booking.DropoffLocation,
		booking.TotalDays, booking.BaseAmount, booking.TotalAmount, booking.Status,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `
		SELECT id, user_id, vehicle_id, pickup_date, dropoff_date,
			   pickup_location, dropoff_location,
			   total_days, base_amount, total_amount, status, payment_method,
			   created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	return r.scanBooking(r.db.QueryRow(query, bookingID))
}

// GetByUserID retrieves bookings for a user, optionally filtered by status,
// newest first
func (r *BookingRepository) GetByUserID(userID, status string) ([]models.Booking, error) {
	query := `
		SELECT id, user_id, vehicle_id, pickup_date, dropoff_date,
			   pickup_location, dropoff_location,
			   total_days, base_amount, total_amount, status, payment_method,
			   created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, userID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// ListAll retrieves all bookings, optionally filtered by status, newest first
func (r *BookingRepository) ListAll(status string) ([]models.Booking, error) {
	query := `
		SELECT id, user_id, vehicle_id, pickup_date, dropoff_date,
			   pickup_location, dropoff_location,
			   total_days, base_amount, total_amount, status, payment_method,
			   created_at, updated_at
		FROM bookings
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// HasOverlap reports whether a pending or confirmed booking for the
// vehicle intersects the half-open [pickup, dropoff) range. A dropoff on
// the same day as another booking's pickup does not conflict.
func (r *BookingRepository) HasOverlap(vehicleID string, pickup, dropoff time.Time) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE vehicle_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND pickup_date < $3
		  AND dropoff_date > $2
	`

	var count int
	if err := r.db.QueryRow(query, vehicleID, pickup, dropoff).Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// ConfirmPending moves a booking from pending to confirmed and records the
// payment method. The update is conditional on the current status so a
// redelivered confirmation cannot overwrite a later state.
func (r *BookingRepository) ConfirmPending(bookingID string, method models.PaymentMethod) error {
	query := `
		UPDATE bookings
		SET status = 'confirmed', payment_method = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	result, err := r.db.Exec(query, bookingID, method)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrBookingNotPending
	}

	return nil
}

// UpdateStatus sets the booking status directly. Used by the admin override
// path, which intentionally skips lifecycle checks.
func (r *BookingRepository) UpdateStatus(bookingID string, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, bookingID, status)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// Cancel cancels a booking owned by the given user
func (r *BookingRepository) Cancel(bookingID, userID string) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.Exec(query, bookingID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// CountBookings returns the total number of bookings, optionally by status
func (r *BookingRepository) CountBookings(status string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE ($1 = '' OR status = $1)
	`

	var count int
	err := r.db.QueryRow(query, status).Scan(&count)
	return count, err
}

// ConfirmedRevenue returns the total amount across confirmed bookings
func (r *BookingRepository) ConfirmedRevenue() (float64, error) {
	query := `
		SELECT COALESCE(SUM(total_amount), 0)
		FROM bookings
		WHERE status = 'confirmed'
	`

	var revenue float64
	err := r.db.QueryRow(query).Scan(&revenue)
	return revenue, err
}

// scanBooking scans a single booking
func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}

	err := row.Scan(
		&booking.ID, &booking.UserID, &booking.VehicleID, &booking.PickupDate, &booking.DropoffDate,
		&booking.PickupLocation, &booking.DropoffLocation,
		&booking.TotalDays, &booking.BaseAmount, &booking.TotalAmount, &booking.Status, &booking.PaymentMethod,
		&booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// scanBookings scans multiple bookings from rows
func (r *BookingRepository) scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := []models.Booking{}

	for rows.Next() {
		var booking models.Booking
		err := rows.Scan(
			&booking.ID, &booking.UserID, &booking.VehicleID, &booking.PickupDate, &booking.DropoffDate,
			&booking.PickupLocation, &booking.DropoffLocation,
			&booking.TotalDays, &booking.BaseAmount, &booking.TotalAmount, &booking.Status, &booking.PaymentMethod,
			&booking.CreatedAt, &booking.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}
