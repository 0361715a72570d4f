package database

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
	"github.com/rentwheels/vehicle-rental-backend/internal/utils"
)

// SessionRepository handles refresh-token session records
type SessionRepository struct {
	db DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// hashToken creates a SHA-256 hash of the token for storage
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// Store records a new session for a refresh token along with the parsed
// device information
func (r *SessionRepository) Store(
	userID uuid.UUID,
	token string,
	device utils.DeviceInfo,
	ipAddress string,
	expiresAt time.Time,
) error {
	query := `
		INSERT INTO sessions (
			id, user_id, token_hash, device_type, os, browser,
			ip_address, user_agent, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var ipVal, uaVal interface{}
	if ipAddress != "" {
		ipVal = ipAddress
	}
	if device.Raw != "" {
		uaVal = device.Raw
	}

	_, err := r.db.Exec(
		query,
		uuid.New(), userID, hashToken(token),
		device.DeviceType, device.OS, device.Browser,
		ipVal, uaVal, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	return nil
}

// GetByToken retrieves the session for a refresh token
func (r *SessionRepository) GetByToken(token string) (*models.Session, error) {
	query := `
		SELECT id, user_id, token_hash, device_type, os, browser,
			   ip_address, user_agent, expires_at, revoked_at, created_at
		FROM sessions
		WHERE token_hash = $1
	`

	session := &models.Session{}
	err := r.db.QueryRow(query, hashToken(token)).Scan(
		&session.ID, &session.UserID, &session.TokenHash,
		&session.DeviceType, &session.OS, &session.Browser,
		&session.IPAddress, &session.UserAgent,
		&session.ExpiresAt, &session.RevokedAt, &session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Revoke marks the session for a refresh token as revoked
func (r *SessionRepository) Revoke(token string) error {
	query := `
		UPDATE sessions
		SET revoked_at = NOW()
		WHERE token_hash = $1 AND revoked_at IS NULL
	`

	_, err := r.db.Exec(query, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RevokeAllForUser revokes every active session for a user, used after a
// password change
func (r *SessionRepository) RevokeAllForUser(userID uuid.UUID) error {
	query := `
		UPDATE sessions
		SET revoked_at = NOW()
		WHERE user_id = $1 AND revoked_at IS NULL
	`

	_, err := r.db.Exec(query, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return nil
}
