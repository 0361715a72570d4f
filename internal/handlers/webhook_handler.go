package handlers

import (
	"database/sql"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
	"github.com/rentwheels/vehicle-rental-backend/internal/services"
)

// maxWebhookBody caps the webhook payload size
const maxWebhookBody = 64 * 1024

// WebhookHandler processes payment gateway webhook deliveries
type WebhookHandler struct {
	stripeService     *services.StripeService
	bookingRepository *database.BookingRepository
	paymentRepository *database.PaymentRepository
	logger            *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(
	stripeService *services.StripeService,
	bookingRepository *database.BookingRepository,
	paymentRepository *database.PaymentRepository,
	logger *logrus.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		stripeService:     stripeService,
		bookingRepository: bookingRepository,
		paymentRepository: paymentRepository,
		logger:            logger,
	}
}

// HandleStripeWebhook handles POST /api/v1/payments/webhook
//
// Deliveries are verified against the endpoint secret before any state
// changes. The payment intent ID is the idempotency key: a redelivered
// event that already produced a payment row is acknowledged without
// writing anything. A storage failure returns 500 so the gateway retries.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_payload",
			Message: "Failed to read request body",
		})
		return
	}

	event, err := h.stripeService.ParseWebhookEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.WithError(err).WithField("ip", c.ClientIP()).
			Warn("Rejected webhook delivery")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_signature",
			Message: "Webhook signature verification failed",
		})
		return
	}

	if event.Type != services.EventCheckoutSessionCompleted {
		// Only completed checkouts mutate state; everything else is acknowledged
		c.JSON(http.StatusOK, gin.H{"received": true, "ignored": event.Type})
		return
	}

	session := event.Data.Object
	bookingID := session.Metadata.BookingID
	if bookingID == "" {
		h.logger.WithField("event_id", event.ID).Warn("Webhook session missing booking_id metadata")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_payload",
			Message: "Checkout session has no booking_id metadata",
		})
		return
	}

	transactionID := session.PaymentIntent
	if transactionID == "" {
		transactionID = session.ID
	}

	exists, err := h.paymentRepository.ExistsByTransactionID(transactionID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check payment existence")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to process webhook",
		})
		return
	}
	if exists {
		h.logger.WithFields(logrus.Fields{
			"event_id":       event.ID,
			"transaction_id": transactionID,
		}).Info("Duplicate webhook delivery acknowledged")
		c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
		return
	}

	// The recorded amount comes from the stored booking, not the gateway payload
	booking, err := h.bookingRepository.GetByID(bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.logger.WithField("booking_id", bookingID).
				Warn("Webhook references unknown booking")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_payload",
				Message: "Unknown booking",
			})
			return
		}
		// Transient store failure: 500 so the gateway redelivers
		h.logger.WithError(err).WithField("booking_id", bookingID).
			Error("Failed to fetch booking for webhook")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to process webhook",
		})
		return
	}

	var invalid *models.InvalidTransitionError
	if err := booking.Transition(models.BookingStatusConfirmed); errors.As(err, &invalid) {
		// Already settled or cancelled; ack so the gateway stops retrying
		h.logger.WithFields(logrus.Fields{
			"booking_id": bookingID,
			"status":     invalid.From,
		}).Info("Webhook for non-pending booking acknowledged")
		c.JSON(http.StatusOK, gin.H{"received": true, "skipped": true})
		return
	}

	if err := h.bookingRepository.ConfirmPending(bookingID, models.PaymentMethodStripe); err != nil {
		if errors.Is(err, database.ErrBookingNotPending) {
			// Lost a race with a concurrent confirmation after the fetch
			// above. Acknowledge so the gateway stops retrying.
			h.logger.WithField("booking_id", bookingID).
				Info("Webhook for non-pending booking acknowledged")
			c.JSON(http.StatusOK, gin.H{"received": true, "skipped": true})
			return
		}
		h.logger.WithError(err).Error("Failed to confirm booking from webhook")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to process webhook",
		})
		return
	}

	payment := &models.Payment{
		BookingID:     bookingID,
		Amount:        booking.TotalAmount,
		PaymentMethod: models.PaymentMethodStripe,
		TransactionID: transactionID,
		Status:        models.PaymentStatusCompleted,
	}
	if err := h.paymentRepository.Create(payment); err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"booking_id":     bookingID,
			"transaction_id": transactionID,
		}).Error("Failed to record gateway payment")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to record payment",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id":     bookingID,
		"transaction_id": transactionID,
		"amount":         payment.Amount,
	}).Info("Booking confirmed from gateway webhook")

	c.JSON(http.StatusOK, gin.H{"received": true})
}
