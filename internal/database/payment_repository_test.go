package database

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentwheels/vehicle-rental-backend/internal/models"
)

func TestPaymentRepository_Create(t *testing.T) {
	db, mock := mockDatabase(t)
	repo := NewPaymentRepository(db)

	payment := &models.Payment{
		ID:            "p-1",
		BookingID:     "b-1",
		Amount:        3540,
		PaymentMethod: models.PaymentMethodStripe,
		TransactionID: "pi_123",
		Status:        models.PaymentStatusCompleted,
	}

	mock.ExpectQuery(`INSERT INTO payments`).
		WithArgs("p-1", "b-1", 3540.0, models.PaymentMethodStripe, "pi_123", models.PaymentStatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	require.NoError(t, repo.Create(payment))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_ExistsByTransactionID(t *testing.T) {
	db, mock := mockDatabase(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\)[\s]+FROM payments`).
		WithArgs("pi_123").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.ExistsByTransactionID("pi_123")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPaymentRepository_ExistsByTransactionID_Missing(t *testing.T) {
	db, mock := mockDatabase(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT COUNT\(\*\)[\s]+FROM payments`).
		WithArgs("pi_unknown").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.ExistsByTransactionID("pi_unknown")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPaymentRepository_CancelByBookingID(t *testing.T) {
	db, mock := mockDatabase(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec(`UPDATE payments`).
		WithArgs("b-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	updated, err := repo.CancelByBookingID("b-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
}

func TestPaymentRepository_CancelByBookingID_NoPayments(t *testing.T) {
	db, mock := mockDatabase(t)
	repo := NewPaymentRepository(db)

	mock.ExpectExec(`UPDATE payments`).
		WithArgs("b-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	updated, err := repo.CancelByBookingID("b-1")
	require.NoError(t, err)
	assert.Zero(t, updated)
}
