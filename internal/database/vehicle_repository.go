package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/rentwheels/vehicle-rental-backend/internal/models"
)

// ErrVehicleNotFound is returned when an update or delete matches no vehicle
var ErrVehicleNotFound = fmt.Errorf("vehicle not found")

// VehicleRepository handles database operations for the vehicles table
type VehicleRepository struct {
	db DB
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a new vehicle
func (r *VehicleRepository) Create(vehicle *models.Vehicle) error {
	query := `
		INSERT INTO vehicles (
			id, name, type, description, price_per_day,
			transmission, fuel_type, seats, images, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		RETURNING created_at, updated_at
	`

	if vehicle.ID == "" {
		vehicle.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		vehicle.ID, vehicle.Name, vehicle.Type, vehicle.Description, vehicle.PricePerDay,
		vehicle.Transmission, vehicle.FuelType, vehicle.Seats, vehicle.Images, vehicle.Status,
	).Scan(&vehicle.CreatedAt, &vehicle.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create vehicle: %w", err)
	}

	return nil
}

// GetByID retrieves a vehicle by ID
func (r *VehicleRepository) GetByID(vehicleID string) (*models.Vehicle, error) {
	query := `
		SELECT id, name, type, description, price_per_day,
			   transmission, fuel_type, seats, images, status,
			   created_at, updated_at
		FROM vehicles
		WHERE id = $1
	`

	return r.scanVehicle(r.db.QueryRow(query, vehicleID))
}

// List retrieves vehicles, optionally filtered by type and status,
// newest first
func (r *VehicleRepository) List(vehicleType, status string) ([]models.Vehicle, error) {
	query := `
		SELECT id, name, type, description, price_per_day,
			   transmission, fuel_type, seats, images, status,
			   created_at, updated_at
		FROM vehicles
		WHERE ($1 = '' OR type = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, vehicleType, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		var v models.Vehicle
		if err := r.scanVehicleRow(rows, &v); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, rows.Err()
}

// UpdateStatus updates the availability status of a vehicle
func (r *VehicleRepository) UpdateStatus(vehicleID string, status models.VehicleStatus) error {
	query := `
		UPDATE vehicles
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, vehicleID, status)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrVehicleNotFound
	}

	return nil
}

// Delete removes a vehicle from the catalog
func (r *VehicleRepository) Delete(vehicleID string) error {
	result, err := r.db.Exec(`DELETE FROM vehicles WHERE id = $1`, vehicleID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrVehicleNotFound
	}

	return nil
}

// scanVehicle scans a single vehicle
func (r *VehicleRepository) scanVehicle(row scanner) (*models.Vehicle, error) {
	var v models.Vehicle
	err := row.Scan(
		&v.ID, &v.Name, &v.Type, &v.Description, &v.PricePerDay,
		&v.Transmission, &v.FuelType, &v.Seats, &v.Images, &v.Status,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VehicleRepository) scanVehicleRow(rows *sql.Rows, v *models.Vehicle) error {
	return rows.Scan(
		&v.ID, &v.Name, &v.Type, &v.Description, &v.PricePerDay,
		&v.Transmission, &v.FuelType, &v.Seats, &v.Images, &v.Status,
		&v.CreatedAt, &v.UpdatedAt,
	)
}
