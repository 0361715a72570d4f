package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentwheels/vehicle-rental-backend/internal/database"
)

func setupAdminHandler(t *testing.T) (*AdminHandler, sqlmock.Sqlmock) {
	db, mock := mockDatabase(t)
	return NewAdminHandler(
		database.NewBookingRepository(db),
		database.NewVehicleRepository(db),
		database.NewProfileRepository(db),
		testLogger(),
	), mock
}

func TestAdminOverride_PendingToCompleted(t *testing.T) {
	handler, mock := setupAdminHandler(t)

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("b-1").
		WillReturnRows(bookingRows("b-1", uuid.New().String(), "pending", now))
	// The privileged path sets the status directly, skipping the lifecycle table
	mock.ExpectExec(`UPDATE bookings`).
		WithArgs("b-1", "completed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, w := authedRequest(uuid.New(), "admin", http.MethodPatch, "/api/v1/admin/bookings/b-1/status", gin.H{
		"status": "completed",
	})
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.OverrideBookingStatus(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOverride_RejectsUnknownStatus(t *testing.T) {
	handler, mock := setupAdminHandler(t)

	c, w := authedRequest(uuid.New(), "admin", http.MethodPatch, "/api/v1/admin/bookings/b-1/status", gin.H{
		"status": "paused",
	})
	c.Params = gin.Params{{Key: "id", Value: "b-1"}}

	handler.OverrideBookingStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdminOverride_BookingNotFound(t *testing.T) {
	handler, mock := setupAdminHandler(t)

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	c, w := authedRequest(uuid.New(), "admin", http.MethodPatch, "/api/v1/admin/bookings/missing/status", gin.H{
		"status": "cancelled",
	})
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.OverrideBookingStatus(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminListBookings_EnrichesNames(t *testing.T) {
	handler, mock := setupAdminHandler(t)

	customerID := uuid.New().String()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM bookings`).
		WillReturnRows(bookingRows("b-1", customerID, "confirmed", now))
	mock.ExpectQuery(`SELECT id, COALESCE\(full_name, ''\)[\s]+FROM profiles`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "coalesce"}).AddRow(customerID, "Asha Rao"))
	mock.ExpectQuery(`SELECT (.+) FROM vehicles`).
		WillReturnRows(vehicleRows("v-1", 1000, "available"))

	c, w := authedRequest(uuid.New(), "admin", http.MethodGet, "/api/v1/admin/bookings", nil)

	handler.ListBookings(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Bookings []AdminBookingView `json:"bookings"`
		Count    int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Bookings, 1)
	assert.Equal(t, "Asha Rao", resp.Bookings[0].CustomerName)
	assert.Equal(t, "Honda City", resp.Bookings[0].VehicleName)
}

func TestAdminDashboardStats(t *testing.T) {
	handler, mock := setupAdminHandler(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\)[\s]+FROM bookings`).
		WithArgs("").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT COUNT\(\*\)[\s]+FROM bookings`).
		WithArgs("confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(total_amount\), 0\)[\s]+FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(14160.0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM profiles`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(9))
	mock.ExpectQuery(`SELECT (.+) FROM vehicles`).
		WillReturnRows(vehicleRows("v-1", 1000, "available"))

	c, w := authedRequest(uuid.New(), "admin", http.MethodGet, "/api/v1/admin/dashboard", nil)

	handler.DashboardStats(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 12, stats["total_bookings"])
	assert.EqualValues(t, 4, stats["active_bookings"])
	assert.EqualValues(t, 14160.0, stats["total_revenue"])
	assert.EqualValues(t, 9, stats["total_customers"])
	assert.EqualValues(t, 1, stats["total_vehicles"])
}

func TestAdminCreateVehicle(t *testing.T) {
	handler, mock := setupAdminHandler(t)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO vehicles`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c, w := authedRequest(uuid.New(), "admin", http.MethodPost, "/api/v1/admin/vehicles", gin.H{
		"name":          "Honda City",
		"type":          "sedan",
		"price_per_day": 1000,
		"seats":         5,
		"images":        []string{"https://cdn.example/city.jpg"},
	})

	handler.CreateVehicle(c)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "available", created.Status)
}

func TestAdminUpdateVehicleStatus_NotFound(t *testing.T) {
	handler, mock := setupAdminHandler(t)

	mock.ExpectExec(`UPDATE vehicles`).
		WithArgs("missing", "maintenance").
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, w := authedRequest(uuid.New(), "admin", http.MethodPatch, "/api/v1/admin/vehicles/missing/status", gin.H{
		"status": "maintenance",
	})
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.UpdateVehicleStatus(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
