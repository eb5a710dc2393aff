package handler

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleett/fleett-api/internal/repository"
)

func newRentalHandler(t *testing.T) (*RentalHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRentalHandler(
		repository.NewRentalRepo(db),
		repository.NewVehicleRepo(db),
		repository.NewCustomerRepo(db),
		repository.NewMaintenanceRepo(db),
	), mock
}

func jsonCtx(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

var (
	now = time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

	vehicleCols = []string{"id", "make", "model", "year", "category", "registration_number", "price_per_day_cents", "status", "created_at", "updated_at"}
	rentalCols  = []string{"id", "customer_id", "vehicle_id", "rental_date", "return_date", "total_cost_cents", "status", "created_at", "updated_at"}
)

func vehicleRow(id int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows(vehicleCols).
		AddRow(id, "Bentley", "Continental GT", 2023, "PETROL", "FLT-001", int64(95000), status, now, now)
}

func rentalRow(id, customerID, vehicleID int64, status string) *sqlmock.Rows {
	return sqlmock.NewRows(rentalCols).
		AddRow(id, customerID, vehicleID, now, nil, int64(45000), status, now, now)
}

func TestRentBooksAvailableVehicle(t *testing.T) {
	h, mock := newRentalHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM customers WHERE id = ?`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM vehicles WHERE id = ?`)).
		WithArgs(int64(2)).
		WillReturnRows(vehicleRow(2, "AVAILABLE"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vehicles SET status = ? WHERE id = ? AND status = ?`)).
		WithArgs("RENTED", int64(2), "AVAILABLE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO rentals`)).
		WithArgs(int64(1), int64(2), sqlmock.AnyArg(), nil, int64(45000), "ACTIVE").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE id = ?`)).
		WithArgs(int64(10)).
		WillReturnRows(rentalRow(10, 1, 2, "ACTIVE"))
	mock.ExpectCommit()
	// Event payload enrichment after commit.
	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers WHERE id = ?`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "address", "created_at", "updated_at"}).
			AddRow(1, "Ada", "ada@example.com", "", "", now, now))

	c, rec := jsonCtx(http.MethodPost, "/api/rentals/rent",
		`{"customer_id":1,"vehicle_id":2,"total_cost_cents":45000}`)
	require.NoError(t, h.Rent(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ACTIVE"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentConflictLeavesNothingBehind(t *testing.T) {
	h, mock := newRentalHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM customers WHERE id = ?`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM vehicles WHERE id = ?`)).
		WithArgs(int64(2)).
		WillReturnRows(vehicleRow(2, "RENTED"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vehicles SET status = ? WHERE id = ? AND status = ?`)).
		WithArgs("RENTED", int64(2), "AVAILABLE").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/api/rentals/rent",
		`{"customer_id":1,"vehicle_id":2,"total_cost_cents":45000}`)
	require.NoError(t, h.Rent(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	// No rental insert expectation was registered: a lost race rolls back
	// without touching the rentals table.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentMissingCustomer(t *testing.T) {
	h, mock := newRentalHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT 1 FROM customers WHERE id = ?`)).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/api/rentals/rent",
		`{"customer_id":99,"vehicle_id":2}`)
	require.NoError(t, h.Rent(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnParksVehicleInMaintenance(t *testing.T) {
	h, mock := newRentalHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE id = ?`)).
		WithArgs(int64(7)).
		WillReturnRows(rentalRow(7, 1, 5, "ACTIVE"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE rentals SET status = 'RETURNED', return_date = COALESCE(return_date, ?) WHERE id = ?`)).
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// An open maintenance record claims the vehicle, so the revert lands
	// on MAINTENANCE rather than AVAILABLE.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM maintenance_records WHERE vehicle_id = ? AND status = 'SCHEDULED' AND id <> ?`)).
		WithArgs(int64(5), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vehicles SET status = ? WHERE id = ?`)).
		WithArgs("MAINTENANCE", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE id = ?`)).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(rentalCols).
			AddRow(7, 1, 5, now, now, int64(45000), "RETURNED", now, now))
	mock.ExpectCommit()

	c, rec := jsonCtx(http.MethodPost, "/api/rentals/return/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Return(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"RETURNED"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnNonActiveRentalConflicts(t *testing.T) {
	h, mock := newRentalHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE id = ?`)).
		WithArgs(int64(7)).
		WillReturnRows(rentalRow(7, 1, 5, "RETURNED"))
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodPost, "/api/rentals/return/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Return(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelFreesVehicle(t *testing.T) {
	h, mock := newRentalHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE id = ?`)).
		WithArgs(int64(7)).
		WillReturnRows(rentalRow(7, 1, 5, "ACTIVE"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM rentals WHERE id = ?`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM maintenance_records WHERE vehicle_id = ? AND status = 'SCHEDULED' AND id <> ?`)).
		WithArgs(int64(5), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM rentals WHERE vehicle_id = ? AND status = 'ACTIVE' AND id <> ?`)).
		WithArgs(int64(5), int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vehicles SET status = ? WHERE id = ?`)).
		WithArgs("AVAILABLE", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, rec := jsonCtx(http.MethodDelete, "/api/rentals/cancel/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelTwiceYields404(t *testing.T) {
	h, mock := newRentalHandler(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM rentals WHERE id = ?`)).
		WithArgs(int64(7)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	c, rec := jsonCtx(http.MethodDelete, "/api/rentals/cancel/7", "")
	c.SetParamNames("id")
	c.SetParamValues("7")
	require.NoError(t, h.Cancel(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
