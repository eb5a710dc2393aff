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

func newCustomerHandler(t *testing.T) (*CustomerHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewCustomerHandler(repository.NewCustomerRepo(db)), mock
}

func TestCustomerCreateValidatesEmail(t *testing.T) {
	h, _ := newCustomerHandler(t)

	c, rec := jsonCtx(http.MethodPost, "/api/customers",
		`{"name":"Ada","email":"not-an-email"}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = jsonCtx(http.MethodPost, "/api/customers", `{"email":"ada@example.com"}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomerCreateNormalizesEmail(t *testing.T) {
	h, mock := newCustomerHandler(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO customers (name, email, phone, address) VALUES (?, ?, ?, ?)`)).
		WithArgs("Ada", "ada@example.com", "", "").
		WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM customers WHERE id = ?`)).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "address", "created_at", "updated_at"}).
			AddRow(4, "Ada", "ada@example.com", "", "", now, now))

	c, rec := jsonCtx(http.MethodPost, "/api/customers",
		`{"name":"Ada","email":"ADA@Example.COM"}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ada@example.com"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerDeleteWithHistoryConflicts(t *testing.T) {
	h, mock := newCustomerHandler(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM customers WHERE id = ?`)).
		WithArgs(int64(4)).
		WillReturnError(assertableFKError{})

	c, rec := jsonCtx(http.MethodDelete, "/api/customers/4", "")
	c.SetParamNames("id")
	c.SetParamValues("4")
	require.NoError(t, h.Delete(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// assertableFKError mimics the MySQL 1451 foreign key failure text.
type assertableFKError struct{}

func (assertableFKError) Error() string {
	return "Error 1451: Cannot delete or update a parent row: a foreign key constraint fails"
}
