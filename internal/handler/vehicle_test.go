package handler

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleett/fleett-api/internal/repository"
)

func newVehicleHandler(t *testing.T) (*VehicleHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewVehicleHandler(
		repository.NewVehicleRepo(db),
		repository.NewRentalRepo(db),
		repository.NewMaintenanceRepo(db),
	), mock
}

func TestVehicleDeleteWithOpenRecordsConflicts(t *testing.T) {
	h, mock := newVehicleHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM vehicles WHERE id = ?`)).
		WithArgs(int64(5)).
		WillReturnRows(vehicleRow(5, "RENTED"))
	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM rentals.*`).
		WithArgs(int64(5), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"open"}).AddRow(1))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodDelete, "/api/vehicles/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Delete(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleDeleteWithoutOpenRecords(t *testing.T) {
	h, mock := newVehicleHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM vehicles WHERE id = ?`)).
		WithArgs(int64(5)).
		WillReturnRows(vehicleRow(5, "AVAILABLE"))
	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM rentals.*`).
		WithArgs(int64(5), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"open"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM vehicles WHERE id = ?`)).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := jsonCtx(http.MethodDelete, "/api/vehicles/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.Delete(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleAnomalyScore(t *testing.T) {
	h, mock := newVehicleHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM vehicles WHERE id = ?`)).
		WithArgs(int64(5)).
		WillReturnRows(vehicleRow(5, "AVAILABLE")) // 95000 cents/day
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT AVG(price_per_day_cents) FROM vehicles WHERE category = ?`)).
		WithArgs("PETROL").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(47500.0))

	c, rec := jsonCtx(http.MethodGet, "/api/vehicles/5/anomaly-score", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	require.NoError(t, h.AnomalyScore(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"anomaly_score":2`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVehicleCreateRejectsBadYear(t *testing.T) {
	h, _ := newVehicleHandler(t)

	c, rec := jsonCtx(http.MethodPost, "/api/vehicles",
		`{"make":"Bentley","model":"Continental GT","year":1850,"category":"PETROL","registration_number":"FLT-001","price_per_day_cents":95000}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVehicleListStatusFilter(t *testing.T) {
	h, mock := newVehicleHandler(t)

	rows := sqlmock.NewRows(vehicleCols).
		AddRow(1, "Bentley", "Continental GT", 2023, "PETROL", "FLT-001", int64(95000), "AVAILABLE", now, now).
		AddRow(2, "Porsche", "Taycan", 2024, "ELECTRIC", "FLT-003", int64(88000), "RENTED", now, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM vehicles ORDER BY id`)).WillReturnRows(rows)

	c, rec := jsonCtx(http.MethodGet, "/api/vehicles?status=available", "")
	require.NoError(t, h.List(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "FLT-001")
	assert.NotContains(t, rec.Body.String(), "FLT-003")
}
