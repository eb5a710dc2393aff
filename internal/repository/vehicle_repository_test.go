package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleett/fleett-api/internal/model"
)

func TestChangeStatusTxGuardedTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVehicleRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vehicles SET status = ? WHERE id = ? AND status = ?`)).
		WithArgs(model.VehicleRented, uint64(5), model.VehicleAvailable).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.ChangeStatusTx(context.Background(), tx, 5, model.VehicleAvailable, model.VehicleRented))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeStatusTxConflictOnZeroRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVehicleRepo(db)

	mock.ExpectBegin()
	// Vehicle is not AVAILABLE anymore: the guarded update matches nothing.
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE vehicles SET status = ? WHERE id = ? AND status = ?`)).
		WithArgs(model.VehicleRented, uint64(5), model.VehicleAvailable).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.ChangeStatusTx(context.Background(), tx, 5, model.VehicleAvailable, model.VehicleRented)
	assert.True(t, errors.Is(err, ErrStatusConflict))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveStatusTxMaintenanceWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVehicleRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM maintenance_records WHERE vehicle_id = ? AND status = 'SCHEDULED' AND id <> ?`)).
		WithArgs(uint64(5), uint64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	status, err := repo.ResolveStatusTx(context.Background(), tx, 5, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleMaintenance, status)
}

func TestResolveStatusTxActiveRentalWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVehicleRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM maintenance_records WHERE vehicle_id = ? AND status = 'SCHEDULED' AND id <> ?`)).
		WithArgs(uint64(5), uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM rentals WHERE vehicle_id = ? AND status = 'ACTIVE' AND id <> ?`)).
		WithArgs(uint64(5), uint64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	status, err := repo.ResolveStatusTx(context.Background(), tx, 5, 0, 9)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleRented, status)
}

func TestResolveStatusTxFallsBackToAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVehicleRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM maintenance_records WHERE vehicle_id = ? AND status = 'SCHEDULED' AND id <> ?`)).
		WithArgs(uint64(5), uint64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM rentals WHERE vehicle_id = ? AND status = 'ACTIVE' AND id <> ?`)).
		WithArgs(uint64(5), uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	status, err := repo.ResolveStatusTx(context.Background(), tx, 5, 7, 0)
	require.NoError(t, err)
	assert.Equal(t, model.VehicleAvailable, status)
}

func TestCountOpenRecordsTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVehicleRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM rentals.*`).
		WithArgs(uint64(3), uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"open"}).AddRow(2))

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	open, err := repo.CountOpenRecordsTx(context.Background(), tx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, open)
}

func TestCategoryAveragePriceNullIsZero(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVehicleRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT AVG(price_per_day_cents) FROM vehicles WHERE category = ?`)).
		WithArgs("HYBRID").
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err := repo.CategoryAveragePrice(context.Background(), "HYBRID")
	require.NoError(t, err)
	assert.Zero(t, avg)
}
