package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
)

// PaymentRepository handles database operations for the payments table
type PaymentRepository struct {
	db DB
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment record. The transaction_id column carries a
// unique constraint, so a gateway redelivery that races past the existence
// check still cannot produce a second row.
func (r *PaymentRepository) Create(payment *models.Payment) error {
	query := `
		INSERT INTO payments (
			id, booking_id, amount, payment_method, transaction_id, status
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
		RETURNING created_at
	`

	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		payment.ID, payment.BookingID, payment.Amount,
		payment.PaymentMethod, payment.TransactionID, payment.Status,
	).Scan(&payment.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// ExistsByTransactionID reports whether a payment with the given
// transaction identifier has already been recorded
func (r *PaymentRepository) ExistsByTransactionID(transactionID string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM payments
		WHERE transaction_id = $1
	`

	var count int
	if err := r.db.QueryRow(query, transactionID).Scan(&count); err != nil {
		return false, err
	}

	return count > 0, nil
}

// GetByBookingID retrieves payments for a booking, newest first
func (r *PaymentRepository) GetByBookingID(bookingID string) ([]models.Payment, error) {
	query := `
		SELECT id, booking_id, amount, payment_method, transaction_id, status, created_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var p models.Payment
		err := rows.Scan(
			&p.ID, &p.BookingID, &p.Amount,
			&p.PaymentMethod, &p.TransactionID, &p.Status, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, rows.Err()
}

// CancelByBookingID marks all payments for a booking as cancelled. Returns
// the number of rows updated; zero rows is not an error, a booking may have
// no payment yet.
func (r *PaymentRepository) CancelByBookingID(bookingID string) (int64, error) {
	query := `
		UPDATE payments
		SET status = 'cancelled'
		WHERE booking_id = $1
	`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
