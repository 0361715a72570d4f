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

// VehicleHandler handles the public vehicle catalog and reviews
type VehicleHandler struct {
	vehicleRepository *database.VehicleRepository
	reviewRepository  *database.ReviewRepository
	logger            *logrus.Logger
}

// NewVehicleHandler creates a new vehicle handler
func NewVehicleHandler(
	vehicleRepository *database.VehicleRepository,
	reviewRepository *database.ReviewRepository,
	logger *logrus.Logger,
) *VehicleHandler {
	return &VehicleHandler{
		vehicleRepository: vehicleRepository,
		reviewRepository:  reviewRepository,
		logger:            logger,
	}
}

// List handles GET /api/v1/vehicles
// Optional query filters: type, status
func (h *VehicleHandler) List(c *gin.Context) {
	vehicleType := c.Query("type")
	status := c.Query("status")

	vehicles, err := h.vehicleRepository.List(vehicleType, status)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list vehicles")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch vehicles",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// Get handles GET /api/v1/vehicles/:id
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicleID := c.Param("id")

	vehicle, err := h.vehicleRepository.GetByID(vehicleID)
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
			Message: "Failed to fetch vehicle",
		})
		return
	}

	c.JSON(http.StatusOK, vehicle)
}

// ListReviews handles GET /api/v1/vehicles/:id/reviews
func (h *VehicleHandler) ListReviews(c *gin.Context) {
	vehicleID := c.Param("id")

	reviews, err := h.reviewRepository.GetByVehicleID(vehicleID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reviews")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch reviews",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// CreateReview handles POST /api/v1/vehicles/:id/reviews
func (h *VehicleHandler) CreateReview(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "rating is required",
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
	if _, err := h.vehicleRepository.GetByID(vehicleID); err != nil {
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
			Message: "Failed to submit review",
		})
		return
	}

	review := &models.Review{
		VehicleID: vehicleID,
		UserID:    userCtx.UserID.String(),
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if err := h.reviewRepository.Create(review); err != nil {
		h.logger.WithError(err).Error("Failed to create review")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to submit review",
		})
		return
	}

	c.JSON(http.StatusCreated, review)
}
