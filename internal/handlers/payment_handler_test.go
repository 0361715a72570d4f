package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentwheels/vehicle-rental-backend/internal/config"
	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/services"
	"github.com/rentwheels/vehicle-rental-backend/pkg/validator"
)

func setupPaymentHandler(t *testing.T) (*PaymentHandler, sqlmock.Sqlmock) {
	db, mock := mockDatabase(t)

	stripeService := services.NewStripeService(&config.StripeConfig{
		SecretKey:          "sk_test_123",
		WebhookSecret:      testWebhookSecret,
		Currency:           "inr",
		SignatureTolerance: 5 * time.Minute,
	}, testLogger())

	handler := NewPaymentHandler(
		stripeService,
		database.NewBookingRepository(db),
		database.NewVehicleRepository(db),
		database.NewPaymentRepository(db),
		database.NewProfileRepository(db),
		validator.NewPhoneValidator(),
		testLogger(),
	)
	return handler, mock
}

func profileRows(userID string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "full_name", "email", "address", "phone", "created_at", "updated_at",
	}).AddRow(userID, nil, "customer@example.com", nil, nil, now, now)
}

func TestConfirmCOD_Success(t *testing.T) {
	handler, mock := setupPaymentHandler(t)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("b-1").
		WillReturnRows(bookingRows("b-1", userID.String(), "pending", now))
	mock.ExpectQuery(`SELECT (.+) FROM profiles`).
		WithArgs(userID.String()).
		WillReturnRows(profileRows(userID.String(), now))
	mock.ExpectExec(`UPDATE profiles`).
		WithArgs(userID.String(), "919876543210").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO payments`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	c, w := authedRequest(userID, "customer", http.MethodPost, "/api/v1/bookings/b-1/confirm-cod", gin.H{
		"phone": "+91 98765-43210",
	})
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.ConfirmCOD(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "b-1", resp["booking_id"])
	assert.True(t, strings.HasPrefix(resp["transaction_id"].(string), "TXN_"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmCOD_InvalidPhone(t *testing.T) {
	handler, mock := setupPaymentHandler(t)

	c, w := authedRequest(uuid.New(), "customer", http.MethodPost, "/api/v1/bookings/b-1/confirm-cod", gin.H{
		"phone": "not-a-number",
	})
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.ConfirmCOD(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmCOD_NotPending(t *testing.T) {
	handler, mock := setupPaymentHandler(t)

	userID := uuid.New()
	now := time.Now()

	// The lifecycle table rejects the confirm before any write happens
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("b-1").
		WillReturnRows(bookingRows("b-1", userID.String(), "confirmed", now))

	c, w := authedRequest(userID, "customer", http.MethodPost, "/api/v1/bookings/b-1/confirm-cod", gin.H{
		"phone": "9876543210",
	})
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.ConfirmCOD(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "BOOKING_NOT_PENDING")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmCOD_ConcurrentConfirmationRejected(t *testing.T) {
	handler, mock := setupPaymentHandler(t)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("b-1").
		WillReturnRows(bookingRows("b-1", userID.String(), "pending", now))
	mock.ExpectQuery(`SELECT (.+) FROM profiles`).
		WillReturnRows(profileRows(userID.String(), now))
	mock.ExpectExec(`UPDATE profiles`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Booking left pending between the fetch and the conditional update
	mock.ExpectExec(`UPDATE bookings`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, w := authedRequest(userID, "customer", http.MethodPost, "/api/v1/bookings/b-1/confirm-cod", gin.H{
		"phone": "9876543210",
	})
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.ConfirmCOD(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmCOD_PhoneStoreFailureFailsRequest(t *testing.T) {
	handler, mock := setupPaymentHandler(t)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("b-1").
		WillReturnRows(bookingRows("b-1", userID.String(), "pending", now))
	mock.ExpectQuery(`SELECT (.+) FROM profiles`).
		WillReturnRows(profileRows(userID.String(), now))
	// A booking must not be confirmed when the contact phone was never stored
	mock.ExpectExec(`UPDATE profiles`).
		WillReturnError(assert.AnError)

	c, w := authedRequest(userID, "customer", http.MethodPost, "/api/v1/bookings/b-1/confirm-cod", gin.H{
		"phone": "9876543210",
	})
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.ConfirmCOD(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmCOD_NotOwned(t *testing.T) {
	handler, mock := setupPaymentHandler(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("b-1").
		WillReturnRows(bookingRows("b-1", uuid.New().String(), "pending", now))

	c, w := authedRequest(uuid.New(), "customer", http.MethodPost, "/api/v1/bookings/b-1/confirm-cod", gin.H{
		"phone": "9876543210",
	})
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.ConfirmCOD(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCheckoutSession_RequiresPendingBooking(t *testing.T) {
	handler, mock := setupPaymentHandler(t)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("b-1").
		WillReturnRows(bookingRows("b-1", userID.String(), "cancelled", now))

	c, w := authedRequest(userID, "customer", http.MethodPost, "/api/v1/payments/checkout-session", gin.H{
		"booking_id": "b-1",
	})

	handler.CreateCheckoutSession(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
