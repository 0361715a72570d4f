package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/middleware"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
	"github.com/rentwheels/vehicle-rental-backend/pkg/validator"
)

// ProfileHandler handles billing profile HTTP requests
type ProfileHandler struct {
	profileRepository *database.ProfileRepository
	phoneValidator    *validator.PhoneValidator
	logger            *logrus.Logger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(
	profileRepository *database.ProfileRepository,
	phoneValidator *validator.PhoneValidator,
	logger *logrus.Logger,
) *ProfileHandler {
	return &ProfileHandler{
		profileRepository: profileRepository,
		phoneValidator:    phoneValidator,
		logger:            logger,
	}
}

// Get handles GET /api/v1/profile
// The profile row is created on first access.
func (h *ProfileHandler) Get(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	profile, err := h.profileRepository.GetOrCreate(userCtx.UserID.String(), userCtx.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to fetch profile",
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// Update handles PUT /api/v1/profile
func (h *ProfileHandler) Update(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Address = strings.TrimSpace(req.Address)

	if req.Phone != "" {
		phone, err := h.phoneValidator.Validate(req.Phone)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_phone",
				Message: err.Error(),
			})
			return
		}
		req.Phone = phone
	}

	userID := userCtx.UserID.String()

	// Make sure the row exists before the partial update
	if _, err := h.profileRepository.GetOrCreate(userID, userCtx.Email); err != nil {
		h.logger.WithError(err).Error("Failed to ensure profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update profile",
		})
		return
	}

	if err := h.profileRepository.Update(userID, &req); err != nil {
		h.logger.WithError(err).Error("Failed to update profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update profile",
		})
		return
	}

	profile, err := h.profileRepository.GetByID(userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to reload profile")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update profile",
		})
		return
	}

	c.JSON(http.StatusOK, profile)
}
