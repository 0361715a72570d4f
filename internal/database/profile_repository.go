package database

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
)

// ProfileRepository handles database operations for the profiles table
type ProfileRepository struct {
	db DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID retrieves a profile by user ID
func (r *ProfileRepository) GetByID(userID string) (*models.Profile, error) {
	query := `
		SELECT id, full_name, email, address, phone, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`

	profile := &models.Profile{}
	err := r.db.QueryRow(query, userID).Scan(
		&profile.ID, &profile.FullName, &profile.Email,
		&profile.Address, &profile.Phone,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return profile, nil
}

// GetOrCreate retrieves a profile, lazily creating an empty one on the
// first visit
func (r *ProfileRepository) GetOrCreate(userID, email string) (*models.Profile, error) {
	profile, err := r.GetByID(userID)
	if err == nil {
		return profile, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	query := `
		INSERT INTO profiles (id, email)
		VALUES ($1, $2)
		RETURNING id, full_name, email, address, phone, created_at, updated_at
	`

	profile = &models.Profile{}
	err = r.db.QueryRow(query, userID, email).Scan(
		&profile.ID, &profile.FullName, &profile.Email,
		&profile.Address, &profile.Phone,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

// Update updates the editable profile fields
func (r *ProfileRepository) Update(userID string, req *models.UpdateProfileRequest) error {
	query := `
		UPDATE profiles
		SET full_name = $2, address = $3, phone = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, userID, req.FullName, req.Address, req.Phone)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("profile not found")
	}

	return nil
}

// UpdatePhone sets the phone number on a profile
func (r *ProfileRepository) UpdatePhone(userID, phone string) error {
	query := `
		UPDATE profiles
		SET phone = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, userID, phone)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("profile not found")
	}

	return nil
}

// ListNames returns full names keyed by user ID for the given IDs. Used by
// the admin booking tables.
func (r *ProfileRepository) ListNames(userIDs []string) (map[string]string, error) {
	if len(userIDs) == 0 {
		return map[string]string{}, nil
	}

	query := `
		SELECT id, COALESCE(full_name, '')
		FROM profiles
		WHERE id = ANY($1)
	`

	rows, err := r.db.Query(query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}

	return names, rows.Err()
}

// CountProfiles returns the number of customer profiles
func (r *ProfileRepository) CountProfiles() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM profiles`).Scan(&count)
	return count, err
}
