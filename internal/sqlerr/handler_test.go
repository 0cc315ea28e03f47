package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/booking-api/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %T", err)
	return httpErr
}

func TestHandleError_NotFound(t *testing.T) {
	err := HandleError(fmt.Errorf("table:%s:%w", "jobs", pgx.ErrNoRows))

	httpErr := asHTTPError(t, err)
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Job not found", httpErr.Message)
	assert.True(t, httpErr.Override)
}

func TestHandleError_NotFoundWithoutTable(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, httpErr.Status)
	assert.Equal(t, "Resource not found", httpErr.Message)
}

func TestHandleError_PgErrors(t *testing.T) {
	tests := []struct {
		name    string
		pgErr   *pgconn.PgError
		status  int
		code    string
		message string
	}{
		{
			name:    "foreign key",
			pgErr:   &pgconn.PgError{Code: "23503", TableName: "jobs", ColumnName: "user_id"},
			status:  http.StatusBadRequest,
			code:    "JOB_NOT_FOUND",
			message: "The referenced User does not exist",
		},
		{
			name:    "unique",
			pgErr:   &pgconn.PgError{Code: "23505", TableName: "users", ConstraintName: "users_email_key"},
			status:  http.StatusBadRequest,
			code:    "USER_ALREADY_EXISTS",
			message: "A User with this Email already exists",
		},
		{
			name:    "check",
			pgErr:   &pgconn.PgError{Code: "23514", TableName: "jobs", ColumnName: "status"},
			status:  http.StatusBadRequest,
			code:    "JOB_INVALID",
			message: "The Status value does not meet required conditions",
		},
		{
			name:    "serialization",
			pgErr:   &pgconn.PgError{Code: "40001", TableName: "jobs"},
			status:  http.StatusConflict,
			code:    "JOB_CONFLICT",
			message: "The Job was modified concurrently, please retry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := asHTTPError(t, HandleError(fmt.Errorf("wrapped: %w", tt.pgErr)))
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.code, httpErr.Code)
			assert.Equal(t, tt.message, httpErr.Message)
		})
	}
}

func TestHandleError_NotNullHasFieldError(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(&pgconn.PgError{Code: "23502", TableName: "jobs", ColumnName: "Duration"}))

	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "duration", httpErr.Errors[0].Field)
}

func TestHandleError_PassesThroughHTTPError(t *testing.T) {
	original := errs.NewConflictError("Job is not open", true, nil)
	assert.Same(t, original, HandleError(original))
}

func TestHandleError_Unknown(t *testing.T) {
	httpErr := asHTTPError(t, HandleError(errors.New("boom")))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestMapCode(t *testing.T) {
	assert.Equal(t, UniqueViolation, MapCode("23505"))
	assert.Equal(t, ConnectionFailure, MapCode("08006"))
	assert.Equal(t, Other, MapCode("42P01"))
}

func TestErrCode(t *testing.T) {
	err := fmt.Errorf("insert: %w", ConvertPgError(&pgconn.PgError{Code: "23502"}))
	assert.Equal(t, NotNullViolation, ErrCode(err))
	assert.Equal(t, Other, ErrCode(errors.New("plain")))
}
