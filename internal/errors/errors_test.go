package errors_test

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	apperror "gopedidos/internal/errors"
)

func TestMapToHTTPStatus_TypedErrors(t *testing.T) {
	cases := []struct {
		err      error
		status   int
		category string
	}{
		{apperror.NewValidationError("x"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{apperror.NewNotFoundError("x"), http.StatusNotFound, "NOT_FOUND"},
		{apperror.NewConflictError("x"), http.StatusConflict, "CONFLICT"},
		{apperror.NewUnauthorizedError("x"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{apperror.NewStorageUnavailableError("x", nil), http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE"},
		{apperror.NewInternalError("x", nil), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		status, category, _ := apperror.MapToHTTPStatus(tc.err)
		assert.Equal(t, tc.status, status)
		assert.Equal(t, tc.category, category)
	}
}

func TestMapToHTTPStatus_WrappedError(t *testing.T) {
	wrapped := fmt.Errorf("camada de serviço: %w", apperror.NewNotFoundError("pedido"))

	status, category, _ := apperror.MapToHTTPStatus(wrapped)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", category)
}

func TestMapToHTTPStatus_UntypedError(t *testing.T) {
	status, category, msg := apperror.MapToHTTPStatus(fmt.Errorf("boom"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "UNKNOWN_ERROR", category)
	assert.Equal(t, "Ocorreu um erro inesperado.", msg)
}

func TestNewDBError_ClassifiesConnectivity(t *testing.T) {
	assert.IsType(t, &apperror.StorageUnavailableError{}, apperror.NewDBError("ping", driver.ErrBadConn))
	assert.IsType(t, &apperror.StorageUnavailableError{}, apperror.NewDBError("query", context.DeadlineExceeded))
	assert.IsType(t, &apperror.StorageUnavailableError{}, apperror.NewDBError("query", &pq.Error{Code: "08006"}))

	assert.IsType(t, &apperror.InternalError{}, apperror.NewDBError("insert", &pq.Error{Code: "23505"}))
	assert.IsType(t, &apperror.InternalError{}, apperror.NewDBError("insert", fmt.Errorf("syntax")))
}

func TestNewDBError_HidesDriverDetails(t *testing.T) {
	cause := &pq.Error{Code: "42P01", Message: `relation "orders" does not exist`}

	err := apperror.NewDBError("Falha ao buscar pedido", fmt.Errorf("SELECT id FROM orders: %w", cause))

	status, _, message := apperror.MapToHTTPStatus(err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, message, "Falha ao buscar pedido")
	assert.NotContains(t, message, "orders")
	assert.NotContains(t, message, "SELECT")

	var pqErr *pq.Error
	assert.ErrorAs(t, err, &pqErr)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, apperror.IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, apperror.IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, apperror.IsUniqueViolation(nil))
}
