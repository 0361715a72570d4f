package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/middleware"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
	"github.com/rentwheels/vehicle-rental-backend/internal/utils"
	"github.com/rentwheels/vehicle-rental-backend/pkg/jwt"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	jwtService        *jwt.Service
	userRepository    *database.UserRepository
	sessionRepository *database.SessionRepository
	bcryptCost        int
	logger            *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	jwtService *jwt.Service,
	userRepository *database.UserRepository,
	sessionRepository *database.SessionRepository,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthHandler {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthHandler{
		jwtService:        jwtService,
		userRepository:    userRepository,
		sessionRepository: sessionRepository,
		bcryptCost:        bcryptCost,
		logger:            logger,
	}
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Email and a password of at least 8 characters are required",
		})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := h.userRepository.GetUserByEmail(req.Email); err == nil && existing != nil {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "email_taken",
			Message: "An account with this email already exists",
		})
		return
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		h.logger.WithError(err).Error("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create account",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.bcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create account",
		})
		return
	}

	user, err := h.userRepository.CreateUser(req.Email, string(hash))
	if err != nil {
		h.logger.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to create account",
		})
		return
	}

	h.issueTokens(c, user, http.StatusCreated, "Account created successfully")
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Email and password are required",
		})
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Invalid email or password",
			})
			return
		}
		h.logger.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Sign in failed",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid email or password",
		})
		return
	}

	h.issueTokens(c, user, http.StatusOK, "Signed in successfully")
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "refresh_token is required",
		})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired refresh token",
			Code:    "INVALID_REFRESH_TOKEN",
		})
		return
	}

	session, err := h.sessionRepository.GetByToken(req.RefreshToken)
	if err != nil || !session.IsActive(time.Now()) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "session_revoked",
			Message: "Session is no longer active. Please sign in again.",
			Code:    "SESSION_REVOKED",
		})
		return
	}

	user, err := h.userRepository.GetUserByID(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Account no longer exists",
		})
		return
	}

	// Rotate: revoke the presented token, then issue a fresh pair
	if err := h.sessionRepository.Revoke(req.RefreshToken); err != nil {
		h.logger.WithError(err).Warn("Failed to revoke rotated refresh token")
	}

	h.issueTokens(c, user, http.StatusOK, "Token refreshed")
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "refresh_token is required",
		})
		return
	}

	if err := h.sessionRepository.Revoke(req.RefreshToken); err != nil {
		h.logger.WithError(err).Error("Failed to revoke session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Sign out failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// UpdatePassword handles PUT /api/v1/auth/password
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userCtx, ok := middleware.GetUserContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
		return
	}

	var req models.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "current_password and a new_password of at least 8 characters are required",
		})
		return
	}

	user, err := h.userRepository.GetUserByID(userCtx.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "Account no longer exists",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Current password is incorrect",
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), h.bcryptCost)
	if err != nil {
		h.logger.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update password",
		})
		return
	}

	if err := h.userRepository.UpdatePassword(user.ID, string(hash)); err != nil {
		h.logger.WithError(err).Error("Failed to update password")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to update password",
		})
		return
	}

	// Changing the password invalidates every open session
	if err := h.sessionRepository.RevokeAllForUser(user.ID); err != nil {
		h.logger.WithError(err).Warn("Failed to revoke sessions after password change")
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

// issueTokens generates an access/refresh pair, records the session with
// device metadata, and writes the auth response.
func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User, status int, message string) {
	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to issue tokens",
		})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to issue tokens",
		})
		return
	}

	device := utils.ParseUserAgent(utils.GetUserAgent(c))
	expiresAt := time.Now().Add(h.jwtService.RefreshTokenExpiry())
	if err := h.sessionRepository.Store(user.ID, refreshToken, device, utils.GetRealIP(c), expiresAt); err != nil {
		h.logger.WithError(err).Error("Failed to store session")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to issue tokens",
		})
		return
	}

	c.JSON(status, models.AuthResponse{
		Message:      message,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.jwtService.AccessTokenExpiry().Seconds()),
		Role:         user.Role,
	})
}
