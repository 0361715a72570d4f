package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentwheels/vehicle-rental-backend/internal/database"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
	"github.com/rentwheels/vehicle-rental-backend/pkg/jwt"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *jwt.Service, sqlmock.Sqlmock) {
	db, mock := mockDatabase(t)
	jwtService := jwt.NewService("test-access-secret", "test-refresh-secret", 15*time.Minute, 24*time.Hour)
	handler := NewAuthHandler(
		jwtService,
		database.NewUserRepository(db),
		database.NewSessionRepository(db),
		bcrypt.MinCost,
		testLogger(),
	)
	return handler, jwtService, mock
}

// jsonRequest builds a Gin context for an unauthenticated endpoint
func jsonRequest(method, target string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != nil {
		encoded, _ := json.Marshal(body)
		reader = bytes.NewReader(encoded)
	}
	c.Request, _ = http.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")

	return c, w
}

func userRows(id uuid.UUID, email, passwordHash, role string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "email", "password_hash", "role", "created_at", "updated_at",
	}).AddRow(id, email, passwordHash, role, now, now)
}

func sessionRows(userID uuid.UUID, expiresAt time.Time, revokedAt interface{}) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "user_id", "token_hash", "device_type", "os", "browser",
		"ip_address", "user_agent", "expires_at", "revoked_at", "created_at",
	}).AddRow(uuid.New(), userID, "hash", "desktop", "Linux", "Firefox", "203.0.113.7", "test-agent", expiresAt, revokedAt, now)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestSignUp_Success(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT id, email, password_hash, role, created_at, updated_at[\s]+FROM users[\s]+WHERE email`).
		WithArgs("new@example.com").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "new@example.com", sqlmock.AnyArg(), models.RoleCustomer).
		WillReturnRows(userRows(userID, "new@example.com", "hash", models.RoleCustomer))
	mock.ExpectExec(`INSERT INTO sessions`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/signup", gin.H{
		"email":    "New@Example.com",
		"password": "sturdy-password",
	})

	handler.SignUp(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, models.RoleCustomer, resp.Role)
	assert.Equal(t, int((15 * time.Minute).Seconds()), resp.ExpiresIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUp_DuplicateEmail(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	mock.ExpectQuery(`SELECT id, email, password_hash, role, created_at, updated_at[\s]+FROM users[\s]+WHERE email`).
		WithArgs("taken@example.com").
		WillReturnRows(userRows(uuid.New(), "taken@example.com", "hash", models.RoleCustomer))

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/signup", gin.H{
		"email":    "taken@example.com",
		"password": "sturdy-password",
	})

	handler.SignUp(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "email_taken")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignUp_ShortPasswordRejected(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/signup", gin.H{
		"email":    "new@example.com",
		"password": "short",
	})

	handler.SignUp(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignIn_Success(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	userID := uuid.New()
	hash := hashPassword(t, "correct-password")
	mock.ExpectQuery(`SELECT id, email, password_hash, role, created_at, updated_at[\s]+FROM users[\s]+WHERE email`).
		WithArgs("customer@example.com").
		WillReturnRows(userRows(userID, "customer@example.com", hash, models.RoleCustomer))
	mock.ExpectExec(`INSERT INTO sessions`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/signin", gin.H{
		"email":    "customer@example.com",
		"password": "correct-password",
	})

	handler.SignIn(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignIn_WrongPassword(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	hash := hashPassword(t, "correct-password")
	mock.ExpectQuery(`SELECT id, email, password_hash, role, created_at, updated_at[\s]+FROM users[\s]+WHERE email`).
		WithArgs("customer@example.com").
		WillReturnRows(userRows(uuid.New(), "customer@example.com", hash, models.RoleCustomer))

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/signin", gin.H{
		"email":    "customer@example.com",
		"password": "wrong-password",
	})

	handler.SignIn(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignIn_UnknownEmail(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	mock.ExpectQuery(`SELECT id, email, password_hash, role, created_at, updated_at[\s]+FROM users[\s]+WHERE email`).
		WithArgs("nobody@example.com").
		WillReturnError(sql.ErrNoRows)

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/signin", gin.H{
		"email":    "nobody@example.com",
		"password": "whatever-password",
	})

	handler.SignIn(c)

	// same response as a wrong password so the endpoint does not reveal
	// which emails are registered
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_credentials")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RotatesSession(t *testing.T) {
	handler, jwtService, mock := setupAuthHandler(t)

	userID := uuid.New()
	refreshToken, err := jwtService.GenerateRefreshToken(userID, "customer@example.com")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, user_id, token_hash, device_type, os, browser`).
		WillReturnRows(sessionRows(userID, time.Now().Add(time.Hour), nil))
	mock.ExpectQuery(`SELECT id, email, password_hash, role, created_at, updated_at[\s]+FROM users[\s]+WHERE id`).
		WithArgs(userID).
		WillReturnRows(userRows(userID, "customer@example.com", "hash", models.RoleCustomer))
	mock.ExpectExec(`UPDATE sessions[\s]+SET revoked_at = NOW\(\)[\s]+WHERE token_hash`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO sessions`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": refreshToken,
	})

	handler.Refresh(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_RevokedSessionRejected(t *testing.T) {
	handler, jwtService, mock := setupAuthHandler(t)

	userID := uuid.New()
	refreshToken, err := jwtService.GenerateRefreshToken(userID, "customer@example.com")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, user_id, token_hash, device_type, os, browser`).
		WillReturnRows(sessionRows(userID, time.Now().Add(time.Hour), time.Now()))

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": refreshToken,
	})

	handler.Refresh(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_REVOKED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_ExpiredSessionRejected(t *testing.T) {
	handler, jwtService, mock := setupAuthHandler(t)

	userID := uuid.New()
	refreshToken, err := jwtService.GenerateRefreshToken(userID, "customer@example.com")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, user_id, token_hash, device_type, os, browser`).
		WillReturnRows(sessionRows(userID, time.Now().Add(-time.Minute), nil))

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": refreshToken,
	})

	handler.Refresh(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefresh_GarbageTokenRejected(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/refresh", gin.H{
		"refresh_token": "not-a-jwt",
	})

	handler.Refresh(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REFRESH_TOKEN")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePassword_RevokesAllSessions(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	userID := uuid.New()
	hash := hashPassword(t, "current-password")
	mock.ExpectQuery(`SELECT id, email, password_hash, role, created_at, updated_at[\s]+FROM users[\s]+WHERE id`).
		WithArgs(userID).
		WillReturnRows(userRows(userID, "customer@example.com", hash, models.RoleCustomer))
	mock.ExpectExec(`UPDATE users[\s]+SET password_hash`).
		WithArgs(userID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE sessions[\s]+SET revoked_at = NOW\(\)[\s]+WHERE user_id`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	c, w := authedRequest(userID, models.RoleCustomer, http.MethodPut, "/api/v1/auth/password", gin.H{
		"current_password": "current-password",
		"new_password":     "brand-new-password",
	})

	handler.UpdatePassword(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePassword_WrongCurrentPassword(t *testing.T) {
	handler, _, mock := setupAuthHandler(t)

	userID := uuid.New()
	hash := hashPassword(t, "current-password")
	mock.ExpectQuery(`SELECT id, email, password_hash, role, created_at, updated_at[\s]+FROM users[\s]+WHERE id`).
		WithArgs(userID).
		WillReturnRows(userRows(userID, "customer@example.com", hash, models.RoleCustomer))

	c, w := authedRequest(userID, models.RoleCustomer, http.MethodPut, "/api/v1/auth/password", gin.H{
		"current_password": "not-the-password",
		"new_password":     "brand-new-password",
	})

	handler.UpdatePassword(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSignOut_RevokesSession(t *testing.T) {
	handler, jwtService, mock := setupAuthHandler(t)

	refreshToken, err := jwtService.GenerateRefreshToken(uuid.New(), "customer@example.com")
	require.NoError(t, err)

	mock.ExpectExec(`UPDATE sessions[\s]+SET revoked_at = NOW\(\)[\s]+WHERE token_hash`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := jsonRequest(http.MethodPost, "/api/v1/auth/signout", gin.H{
		"refresh_token": refreshToken,
	})

	handler.SignOut(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
