package models

import "time"

// Profile holds the billing details attached to a user account.
// Created lazily on the first profile fetch; ID equals the user ID.
type Profile struct {
	ID        string     `json:"id" db:"id"`
	FullName  NullString `json:"full_name,omitempty" db:"full_name"`
	Email     string     `json:"email" db:"email"`
	Address   NullString `json:"address,omitempty" db:"address"`
	Phone     NullString `json:"phone,omitempty" db:"phone"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// UpdateProfileRequest represents the request to update profile details
type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
}
