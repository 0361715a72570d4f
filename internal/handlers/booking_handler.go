package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/middleware"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
)

// BookingHandler handles customer booking HTTP requests
type BookingHandler struct {
	bookingRepository *database.BookingRepository
	vehicleRepository *database.VehicleRepository
	paymentRepository *database.PaymentRepository
	logger            *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(
	bookingRepository *database.BookingRepository,
	vehicleRepository *database.VehicleRepository,
	paymentRepository *database.PaymentRepository,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		bookingRepository: bookingRepository,
		vehicleRepository: vehicleRepository,
		paymentRepository: paymentRepository,
		logger:            logger,
	}
}

// Create handles POST /api/v1/bookings
// Creates a pending booking with a server-side price. The price is derived
// from the vehicle's daily rate and never taken from the request.
func (h *BookingHandler) Create(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "vehicle_id is required",
		})
		return
	}

	pickup, dropoff, err := req.Validate()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	vehicle, err := h.vehicleRepository.GetByID(req.VehicleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Vehicle not found",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to fetch vehicle")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create booking",
		})
		return
	}

	if !vehicle.IsAvailable() {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "vehicle_unavailable",
			Message: "Vehicle is not available for booking",
			Code:    "VEHICLE_UNAVAILABLE",
		})
		return
	}

	overlap, err := h.bookingRepository.HasOverlap(vehicle.ID, pickup, dropoff)
	if err != nil {
		h.logger.WithError(err).Error("Failed to check booking overlap")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create booking",
		})
		return
	}
	if overlap {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "dates_unavailable",
			Message: "Vehicle is already booked for the selected dates",
			Code:    "DATES_UNAVAILABLE",
		})
		return
	}

	quote := models.QuotePrice(pickup, dropoff, vehicle.PricePerDay)

	booking := &models.Booking{
		UserID:          userCtx.UserID.String(),
		VehicleID:       vehicle.ID,
		PickupDate:      pickup,
		DropoffDate:     dropoff,
		PickupLocation:  req.PickupLocation,
		DropoffLocation: req.DropoffLocation,
		TotalDays:       quote.TotalDays,
		BaseAmount:      quote.BaseAmount,
		TotalAmount:     quote.TotalAmount,
		Status:          models.BookingStatusPending,
	}

	if err := h.bookingRepository.Create(booking); err != nil {
		h.logger.WithError(err).Error("Failed to create booking")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create booking",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id":   booking.ID,
		"vehicle_id":   booking.VehicleID,
		"total_days":   booking.TotalDays,
		"total_amount": booking.TotalAmount,
	}).Info("Booking created")

	c.JSON(http.StatusCreated, booking)
}

// List handles GET /api/v1/bookings
// Returns the caller's bookings, newest first. Optional ?status= filter.
func (h *BookingHandler) List(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	bookings, err := h.bookingRepository.GetByUserID(userCtx.UserID.String(), c.Query("status"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch bookings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// Get handles GET /api/v1/bookings/:id
// Owners see their own bookings; admins see any.
func (h *BookingHandler) Get(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	booking, err := h.bookingRepository.GetByID(c.Param("id"))
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
			Message: "Failed to fetch booking",
		})
		return
	}

	if booking.UserID != userCtx.UserID.String() && userCtx.Role != models.RoleAdmin {
		// Do not leak existence of other users' bookings
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Booking not found",
		})
		return
	}

	c.JSON(http.StatusOK, booking)
}

// Cancel handles POST /api/v1/bookings/:id/cancel
// Only confirmed bookings can be cancelled by their owner. Any recorded
// payments are cancelled best-effort: a failure there is logged but does
// not fail the cancellation.
func (h *BookingHandler) Cancel(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
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
			Message: "Failed to cancel booking",
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

	if !booking.CanBeCancelled() {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "invalid_status",
			Message: "Only confirmed bookings can be cancelled",
			Code:    "NOT_CANCELLABLE",
		})
		return
	}

	if err := h.bookingRepository.Cancel(bookingID, booking.UserID); err != nil {
		h.logger.WithError(err).Error("Failed to cancel booking")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to cancel booking",
		})
		return
	}

	if _, err := h.paymentRepository.CancelByBookingID(bookingID); err != nil {
		h.logger.WithError(err).WithField("booking_id", bookingID).
			Warn("Failed to cancel payment records for cancelled booking")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled successfully"})
}
