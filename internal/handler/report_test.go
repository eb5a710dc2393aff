package handler

import (
	"encoding/json"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleett/fleett-api/internal/repository"
)

func newReportHandlers(t *testing.T) (*ReportHandler, *DashboardHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	reports := repository.NewReportRepo(db)
	return NewReportHandler(reports), NewDashboardHandler(reports), mock
}

func TestMonthlyRevenueSumsWithinMonth(t *testing.T) {
	rh, _, mock := newReportHandlers(t)

	march := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT total_cost_cents, COALESCE(updated_at, created_at) FROM rentals WHERE total_cost_cents > 0`)).
		WillReturnRows(sqlmock.NewRows([]string{"cents", "at"}).
			AddRow(100, march).
			AddRow(200, march.AddDate(0, 0, 7)).
			AddRow(50, march.AddDate(0, 0, 14)))

	c, rec := jsonCtx(http.MethodGet, "/api/reports/monthly-revenue", "")
	require.NoError(t, rh.MonthlyRevenue(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, map[string]int64{"2026-03": 350}, got)
}

func TestMostLeastRentedModel(t *testing.T) {
	rh, _, mock := newReportHandlers(t)

	mock.ExpectQuery(`SELECT v\.model, COUNT\(\*\) AS rentals`).
		WillReturnRows(sqlmock.NewRows([]string{"model", "rentals"}).
			AddRow("Continental GT", 9).
			AddRow("Ghost", 4).
			AddRow("Taycan", 1))

	c, rec := jsonCtx(http.MethodGet, "/api/reports/most-least-rented-model", "")
	require.NoError(t, rh.MostLeastRentedModel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]repository.ModelCount
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, repository.ModelCount{Model: "Continental GT", Count: 9}, got["most_rented"])
	assert.Equal(t, repository.ModelCount{Model: "Taycan", Count: 1}, got["least_rented"])
}

func TestMostLeastRentedModelEmpty(t *testing.T) {
	rh, _, mock := newReportHandlers(t)

	mock.ExpectQuery(`SELECT v\.model, COUNT\(\*\) AS rentals`).
		WillReturnRows(sqlmock.NewRows([]string{"model", "rentals"}))

	c, rec := jsonCtx(http.MethodGet, "/api/reports/most-least-rented-model", "")
	require.NoError(t, rh.MostLeastRentedModel(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestDashboardStats(t *testing.T) {
	_, dh, mock := newReportHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM vehicles`)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(12))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM customers`)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(8))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM rentals WHERE status = 'ACTIVE'`)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM vehicles WHERE status = 'MAINTENANCE'`)).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))

	c, rec := jsonCtx(http.MethodGet, "/api/dashboard/stats", "")
	require.NoError(t, dh.Stats(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_vehicles":12,"total_customers":8,"active_rentals":3,"vehicles_in_maintenance":2}`, rec.Body.String())
}

func TestDashboardFinancialNetProfit(t *testing.T) {
	_, dh, mock := newReportHandlers(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(total_cost_cents), 0) FROM rentals`)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(500000))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(cost_cents), 0) FROM maintenance_records`)).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(120000))

	c, rec := jsonCtx(http.MethodGet, "/api/admin/dashboard/financial", "")
	require.NoError(t, dh.Financial(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_revenue_cents":500000,"total_maintenance_cost_cents":120000,"net_profit_cents":380000}`, rec.Body.String())
}
