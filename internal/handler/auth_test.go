package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleett/fleett-api/internal/config"
	"github.com/fleett/fleett-api/internal/repository"
	"github.com/fleett/fleett-api/internal/utils"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cfg := config.Config{
		JWTSecret:      "unit-test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	}
	return NewAuthHandler(cfg, repository.NewUserRepo(db), repository.NewTokenRepo(db)), mock
}

func TestRegisterDefaultsToStaff(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("ada@example.com", sqlmock.AnyArg(), "STAFF").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := jsonCtx(http.MethodPost, "/api/auth/register",
		`{"email":"Ada@Example.com","password":"secret","role":"SUPERUSER"}`)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"STAFF"`)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("ada@example.com", sqlmock.AnyArg(), "ADMIN").
		WillReturnError(errors.New("Error 1062: Duplicate entry"))

	c, rec := jsonCtx(http.MethodPost, "/api/auth/register",
		`{"email":"ada@example.com","password":"secret","role":"ADMIN"}`)
	require.NoError(t, h.Register(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginSuccess(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, err := utils.HashPassword("secret", 4)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(1, "ada@example.com", hash, "ADMIN", true, now, now))
	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs(int64(1), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := jsonCtx(http.MethodPost, "/api/auth/login",
		`{"email":"ada@example.com","password":"secret"}`)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"ADMIN"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, err := utils.HashPassword("secret", 4)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(1, "ada@example.com", hash, "ADMIN", true, now, now))

	c, rec := jsonCtx(http.MethodPost, "/api/auth/login",
		`{"email":"ada@example.com","password":"nope"}`)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginDisabledAccount(t *testing.T) {
	h, mock := newAuthHandler(t)

	hash, err := utils.HashPassword("secret", 4)
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT id,email,password_hash,role,is_active,created_at,updated_at FROM users`).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(1, "ada@example.com", hash, "ADMIN", false, now, now))

	c, rec := jsonCtx(http.MethodPost, "/api/auth/login",
		`{"email":"ada@example.com","password":"secret"}`)
	require.NoError(t, h.Login(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
