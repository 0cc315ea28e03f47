package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/booking-api/internal/config"
	"github.com/deppfellow/booking-api/internal/model"
	"github.com/deppfellow/booking-api/internal/server"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	user *model.User
	err  error
}

func (s stubUsers) GetByExternalID(context.Context, string) (*model.User, error) {
	return s.user, s.err
}

func newTestServer() *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{Primary: config.Primary{Env: "test"}},
		Logger: &logger,
	}
}

// serveResolved runs ResolveUser for subject "user_123" behind the global
// error handler and reports the response and the resolved user.
func serveResolved(t *testing.T, users UserFinder) (*httptest.ResponseRecorder, *model.User) {
	t.Helper()

	s := newTestServer()
	auth := NewAuthMiddleware(s, users)

	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler

	var resolved *model.User
	e.GET("/me", auth.ResolveUser(func(c echo.Context) error {
		resolved = GetUser(c)
		return c.NoContent(http.StatusOK)
	}), func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(UserIDKey, "user_123")
			return next(c)
		}
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	return rec, resolved
}

func TestResolveUser(t *testing.T) {
	user := &model.User{ID: 4, UserType: "2"}

	tests := []struct {
		name       string
		users      stubUsers
		wantStatus int
		wantUser   *model.User
	}{
		{
			name:       "known subject",
			users:      stubUsers{user: user},
			wantStatus: http.StatusOK,
			wantUser:   user,
		},
		{
			name:       "no local user",
			users:      stubUsers{err: fmt.Errorf("table:users:%w", pgx.ErrNoRows)},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "nil user without error",
			users:      stubUsers{},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "database unavailable",
			users:      stubUsers{err: errors.New("query user: dial tcp 127.0.0.1:5432: connection refused")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resolved := serveResolved(t, tt.users)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantUser, resolved)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "UNAUTHORIZED")
			}
		})
	}
}

func TestResolveUser_WithoutSubject(t *testing.T) {
	s := newTestServer()
	auth := NewAuthMiddleware(s, stubUsers{user: &model.User{ID: 1}})

	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	e.GET("/me", auth.ResolveUser(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
