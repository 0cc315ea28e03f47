package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/booking-api/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type acceptRequest struct {
	JobID int64  `json:"job_id" validate:"required,gt=0"`
	Email string `json:"user_email" validate:"omitempty,email"`
	Town  string `json:"town" validate:"max=5"`
}

func (r *acceptRequest) Validate() error {
	return Struct(r)
}

type customRequest struct {
	Phone    bool `json:"phone"`
	Physical bool `json:"physical"`
}

func (r *customRequest) Validate() error {
	if !r.Phone && !r.Physical {
		return CustomValidationErrors{{Field: "phone", Message: "either phone or physical must be selected"}}
	}
	return nil
}

func newContext(body string) echo.Context {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return echo.New().NewContext(req, httptest.NewRecorder())
}

func TestBindAndValidate_Valid(t *testing.T) {
	req := &acceptRequest{}

	require.NoError(t, BindAndValidate(newContext(`{"job_id":12}`), req))
	assert.Equal(t, int64(12), req.JobID)
}

func TestBindAndValidate_FieldErrorsUseJSONNames(t *testing.T) {
	err := BindAndValidate(newContext(`{"user_email":"nope","town":"Stockholm"}`), &acceptRequest{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.ElementsMatch(t, []errs.FieldError{
		{Field: "job_id", Error: "is required"},
		{Field: "user_email", Error: "must be a valid email address"},
		{Field: "town", Error: "must not exceed 5 characters"},
	}, httpErr.Errors)
}

func TestBindAndValidate_TypeMismatchIsBadRequest(t *testing.T) {
	err := BindAndValidate(newContext(`{"job_id":"abc"}`), &acceptRequest{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	assert.Empty(t, httpErr.Errors)
}

func TestBindAndValidate_CustomErrors(t *testing.T) {
	err := BindAndValidate(newContext(`{}`), &customRequest{})

	var httpErr *errs.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, []errs.FieldError{
		{Field: "phone", Error: "either phone or physical must be selected"},
	}, httpErr.Errors)
}
