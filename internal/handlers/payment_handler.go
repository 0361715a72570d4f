package handlers

import (
	"database/sql"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/middleware"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
	"github.com/rentwheels/vehicle-rental-backend/internal/services"
	"github.com/rentwheels/vehicle-rental-backend/pkg/validator"
)

// PaymentHandler handles checkout and cash-on-delivery payment requests
type PaymentHandler struct {
	stripeService     *services.StripeService
	bookingRepository *database.BookingRepository
	vehicleRepository *database.VehicleRepository
	paymentRepository *database.PaymentRepository
	profileRepository *database.ProfileRepository
	phoneValidator    *validator.PhoneValidator
	logger            *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(
	stripeService *services.StripeService,
	bookingRepository *database.BookingRepository,
	vehicleRepository *database.VehicleRepository,
	paymentRepository *database.PaymentRepository,
	profileRepository *database.ProfileRepository,
	phoneValidator *validator.PhoneValidator,
	logger *logrus.Logger,
) *PaymentHandler {
	return &PaymentHandler{
		stripeService:     stripeService,
		bookingRepository: bookingRepository,
		vehicleRepository: vehicleRepository,
		paymentRepository: paymentRepository,
		profileRepository: profileRepository,
		phoneValidator:    phoneValidator,
		logger:            logger,
	}
}

// CreateCheckoutSessionRequest represents the request to start hosted checkout
type CreateCheckoutSessionRequest struct {
	BookingID string `json:"booking_id" binding:"required"`
}

// CheckoutSessionResponse carries the gateway redirect URL back to the client
type CheckoutSessionResponse struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// CreateCheckoutSession handles POST /api/v1/payments/checkout-session
// The charged amount always comes from the stored booking total.
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "booking_id is required",
		})
		return
	}

	booking, err := h.bookingRepository.GetByID(req.BookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Booking not found",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch booking")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to start checkout",
		})
		return
	}

	if booking.UserID != userCtx.UserID.String() {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Booking not found",
		})
		return
	}

	if booking.Status != models.BookingStatusPending {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_status",
			Message: "Only pending bookings can be paid for",
			Code:    "BOOKING_NOT_PENDING",
		})
		return
	}

	vehicle, err := h.vehicleRepository.GetByID(booking.VehicleID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch vehicle for checkout")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to start checkout",
		})
		return
	}

	session, err := h.stripeService.CreateCheckoutSession(&services.CheckoutSessionParams{
		BookingID:     booking.ID,
		VehicleName:   vehicle.Name,
		Description:   checkoutDescription(booking),
		AmountSubunit: int64(math.Round(booking.TotalAmount * 100)),
	})
	if err != nil {
		h.logger.WithError(err).WithField("booking_id", booking.ID).
			Error("Failed to create checkout session")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "gateway_error",
			Message: "Payment gateway is unavailable. Please try again.",
		})
		return
	}

	c.JSON(http.StatusOK, CheckoutSessionResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	})
}

// ConfirmCOD handles POST /api/v1/bookings/:id/confirm-cod
// Confirms a pending booking for cash on delivery: stores the contact phone
// on the profile, moves the booking to confirmed, and records a completed
// payment with a locally generated transaction ID.
func (h *PaymentHandler) ConfirmCOD(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req models.ConfirmCODRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "phone is required",
		})
		return
	}

	phone, err := h.phoneValidator.Validate(req.Phone)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_phone",
			Message: err.Error(),
		})
		return
	}

	bookingID := c.Param("id")

	booking, err := h.bookingRepository.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Booking not found",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch booking")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to confirm booking",
		})
		return
	}

	if booking.UserID != userCtx.UserID.String() {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Booking not found",
		})
		return
	}

	var invalid *models.InvalidTransitionError
	if err := booking.Transition(models.BookingStatusConfirmed); errors.As(err, &invalid) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_status",
			Message: "Only pending bookings can be confirmed",
			Code:    "BOOKING_NOT_PENDING",
		})
		return
	}

	// The contact phone is the point of this path; a failure to store it
	// fails the request before the booking is touched
	userID := userCtx.UserID.String()
	if _, err := h.profileRepository.GetOrCreate(userID, userCtx.Email); err != nil {
		h.logger.WithError(err).Error("Failed to ensure profile before phone update")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to store contact phone",
		})
		return
	}
	if err := h.profileRepository.UpdatePhone(userID, phone); err != nil {
		h.logger.WithError(err).Error("Failed to store contact phone")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to store contact phone",
		})
		return
	}

	if err := h.bookingRepository.ConfirmPending(bookingID, models.PaymentMethodCOD); err != nil {
		if errors.Is(err, database.ErrBookingNotPending) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "invalid_status",
				Message: "Only pending bookings can be confirmed",
				Code:    "BOOKING_NOT_PENDING",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to confirm booking")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to confirm booking",
		})
		return
	}

	payment := &models.Payment{
		BookingID:     bookingID,
		Amount:        booking.TotalAmount,
		PaymentMethod: models.PaymentMethodCOD,
		TransactionID: models.NewLocalTransactionID(time.Now()),
		Status:        models.PaymentStatusCompleted,
	}
	if err := h.paymentRepository.Create(payment); err != nil {
		h.logger.WithError(err).WithField("booking_id", bookingID).
			Error("Failed to record cash payment")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Booking confirmed but payment record failed",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id":     bookingID,
		"transaction_id": payment.TransactionID,
	}).Info("Booking confirmed for cash on delivery")

	c.JSON(http.StatusOK, gin.H{
		"message":        "Booking confirmed",
		"booking_id":     bookingID,
		"payment_method": models.PaymentMethodCOD,
		"transaction_id": payment.TransactionID,
	})
}

func checkoutDescription(b *models.Booking) string {
	return b.PickupDate.Format(models.DateLayout) + " to " + b.DropoffDate.Format(models.DateLayout) +
		", " + b.PickupLocation + " pickup"
}
