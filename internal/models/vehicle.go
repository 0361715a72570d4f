package models

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// VehicleStatus represents the availability status of a vehicle
type VehicleStatus string

const (
	VehicleStatusAvailable   VehicleStatus = "available"
	VehicleStatusUnavailable VehicleStatus = "unavailable"
	VehicleStatusMaintenance VehicleStatus = "maintenance"
)

// Vehicle represents a rentable vehicle in the catalog
type Vehicle struct {
	ID           string         `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Type         string         `json:"type" db:"type"`
	Description  NullString     `json:"description,omitempty" db:"description"`
	PricePerDay  float64        `json:"price_per_day" db:"price_per_day"`
	Transmission NullString     `json:"transmission,omitempty" db:"transmission"`
	FuelType     NullString     `json:"fuel_type,omitempty" db:"fuel_type"`
	Seats        int            `json:"seats" db:"seats"`
	Images       pq.StringArray `json:"images" db:"images"`
	Status       VehicleStatus  `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}

// IsAvailable reports whether the vehicle can be booked
func (v *Vehicle) IsAvailable() bool {
	return v.Status == VehicleStatusAvailable
}

// CreateVehicleRequest represents the admin request to add a vehicle
type CreateVehicleRequest struct {
	Name         string   `json:"name" binding:"required"`
	Type         string   `json:"type" binding:"required"`
	Description  string   `json:"description"`
	PricePerDay  float64  `json:"price_per_day" binding:"required,gt=0"`
	Transmission string   `json:"transmission"`
	FuelType     string   `json:"fuel_type"`
	Seats        int      `json:"seats" binding:"required,min=1"`
	Images       []string `json:"images"`
	Status       string   `json:"status"`
}

// Validate validates the create vehicle request
func (r *CreateVehicleRequest) Validate() error {
	if r.Status == "" {
		r.Status = string(VehicleStatusAvailable)
	}

	switch VehicleStatus(r.Status) {
	case VehicleStatusAvailable, VehicleStatusUnavailable, VehicleStatusMaintenance:
		return nil
	default:
		return errors.New("status must be one of: available, unavailable, maintenance")
	}
}

// UpdateVehicleStatusRequest represents the admin request to change vehicle status
type UpdateVehicleStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// Validate validates the status update request
func (r *UpdateVehicleStatusRequest) Validate() error {
	switch VehicleStatus(r.Status) {
	case VehicleStatusAvailable, VehicleStatusUnavailable, VehicleStatusMaintenance:
		return nil
	default:
		return errors.New("status must be one of: available, unavailable, maintenance")
	}
}
