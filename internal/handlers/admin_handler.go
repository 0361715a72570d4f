package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
)

// AdminHandler handles privileged fleet and booking management requests
type AdminHandler struct {
	bookingRepository *database.BookingRepository
	vehicleRepository *database.VehicleRepository
	profileRepository *database.ProfileRepository
	logger            *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	bookingRepository *database.BookingRepository,
	vehicleRepository *database.VehicleRepository,
	profileRepository *database.ProfileRepository,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		bookingRepository: bookingRepository,
		vehicleRepository: vehicleRepository,
		profileRepository: profileRepository,
		logger:            logger,
	}
}

// AdminBookingView is a booking enriched with customer and vehicle names
// for the management dashboard
type AdminBookingView struct {
	models.Booking
	CustomerName string `json:"customer_name"`
	VehicleName  string `json:"vehicle_name"`
}

// OverrideBookingStatus handles PATCH /api/v1/admin/bookings/:id/status
// The privileged path sets the status directly and skips lifecycle checks.
func (h *AdminHandler) OverrideBookingStatus(c *gin.Context) {
	var req models.AdminStatusOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "status is required",
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
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
			Message: "Failed to update booking",
		})
		return
	}

	target := models.BookingStatus(req.Status)
	if err := h.bookingRepository.UpdateStatus(bookingID, target); err != nil {
		h.logger.WithError(err).Error("Failed to override booking status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update booking",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"from":       booking.Status,
		"to":         target,
	}).Info("Admin overrode booking status")

	c.JSON(http.StatusOK, gin.H{
		"message":    "Booking status updated",
		"booking_id": bookingID,
		"status":     target,
	})
}

// ListBookings handles GET /api/v1/admin/bookings
// Returns all bookings enriched with customer and vehicle names.
// Optional ?status= filter.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	bookings, err := h.bookingRepository.ListAll(c.Query("status"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch bookings",
		})
		return
	}

	views := h.enrichBookings(bookings)

	c.JSON(http.StatusOK, gin.H{
		"bookings": views,
		"count":    len(views),
	})
}

// ListActiveBookings handles GET /api/v1/admin/bookings/active
// Active means confirmed: paid for and not yet completed or cancelled.
func (h *AdminHandler) ListActiveBookings(c *gin.Context) {
	bookings, err := h.bookingRepository.ListAll(string(models.BookingStatusConfirmed))
	if err != nil {
		h.logger.WithError(err).Error("Failed to list active bookings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch bookings",
		})
		return
	}

	views := h.enrichBookings(bookings)

	c.JSON(http.StatusOK, gin.H{
		"bookings": views,
		"count":    len(views),
	})
}

// DashboardStats handles GET /api/v1/admin/dashboard
func (h *AdminHandler) DashboardStats(c *gin.Context) {
	totalBookings, err := h.bookingRepository.CountBookings("")
	if err != nil {
		h.logger.WithError(err).Error("Failed to count bookings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch dashboard stats",
		})
		return
	}

	activeBookings, err := h.bookingRepository.CountBookings(string(models.BookingStatusConfirmed))
	if err != nil {
		h.logger.WithError(err).Error("Failed to count active bookings")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch dashboard stats",
		})
		return
	}

	revenue, err := h.bookingRepository.ConfirmedRevenue()
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute revenue")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch dashboard stats",
		})
		return
	}

	customers, err := h.profileRepository.CountProfiles()
	if err != nil {
		h.logger.WithError(err).Error("Failed to count customers")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch dashboard stats",
		})
		return
	}

	vehicles, err := h.vehicleRepository.List("", "")
	if err != nil {
		h.logger.WithError(err).Error("Failed to list vehicles")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch dashboard stats",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_bookings":  totalBookings,
		"active_bookings": activeBookings,
		"total_revenue":   revenue,
		"total_customers": customers,
		"total_vehicles":  len(vehicles),
	})
}

// CreateVehicle handles POST /api/v1/admin/vehicles
func (h *AdminHandler) CreateVehicle(c *gin.Context) {
	var req models.CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "name, type, a positive price_per_day and seats are required",
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	vehicle := &models.Vehicle{
		Name:         req.Name,
		Type:         req.Type,
		Description:  models.NewNullString(req.Description),
		PricePerDay:  req.PricePerDay,
		Transmission: models.NewNullString(req.Transmission),
		FuelType:     models.NewNullString(req.FuelType),
		Seats:        req.Seats,
		Images:       pq.StringArray(req.Images),
		Status:       models.VehicleStatus(req.Status),
	}

	if err := h.vehicleRepository.Create(vehicle); err != nil {
		h.logger.WithError(err).Error("Failed to create vehicle")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create vehicle",
		})
		return
	}

	c.JSON(http.StatusCreated, vehicle)
}

// UpdateVehicleStatus handles PATCH /api/v1/admin/vehicles/:id/status
func (h *AdminHandler) UpdateVehicleStatus(c *gin.Context) {
	var req models.UpdateVehicleStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "status is required",
		})
		return
	}

	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	vehicleID := c.Param("id")
	if err := h.vehicleRepository.UpdateStatus(vehicleID, models.VehicleStatus(req.Status)); err != nil {
		if errors.Is(err, database.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Vehicle not found",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to update vehicle status")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update vehicle",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Vehicle status updated",
		"vehicle_id": vehicleID,
		"status":     req.Status,
	})
}

// DeleteVehicle handles DELETE /api/v1/admin/vehicles/:id
func (h *AdminHandler) DeleteVehicle(c *gin.Context) {
	vehicleID := c.Param("id")

	if err := h.vehicleRepository.Delete(vehicleID); err != nil {
		if errors.Is(err, database.ErrVehicleNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Vehicle not found",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to delete vehicle")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to delete vehicle",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vehicle deleted"})
}

// enrichBookings attaches customer and vehicle names to bookings. Lookup
// failures degrade to empty names rather than failing the listing.
func (h *AdminHandler) enrichBookings(bookings []models.Booking) []AdminBookingView {
	userIDs := make([]string, 0, len(bookings))
	seen := make(map[string]bool)
	for _, b := range bookings {
		if !seen[b.UserID] {
			seen[b.UserID] = true
			userIDs = append(userIDs, b.UserID)
		}
	}

	names, err := h.profileRepository.ListNames(userIDs)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to resolve customer names")
		names = map[string]string{}
	}

	vehicleNames := map[string]string{}
	vehicles, err := h.vehicleRepository.List("", "")
	if err != nil {
		h.logger.WithError(err).Warn("Failed to resolve vehicle names")
	} else {
		for _, v := range vehicles {
			vehicleNames[v.ID] = v.Name
		}
	}

	views := make([]AdminBookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, AdminBookingView{
			Booking:      b,
			CustomerName: names[b.UserID],
			VehicleName:  vehicleNames[b.VehicleID],
		})
	}

	return views
}
