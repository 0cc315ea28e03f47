package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/deppfellow/booking-api/internal/errs"
	"github.com/deppfellow/booking-api/internal/model"
	"github.com/deppfellow/booking-api/internal/server"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// UserFinder loads the local user row for an authenticated subject.
type UserFinder interface {
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
}

// AuthMiddleware authenticates requests with Clerk and resolves the
// caller into a *model.User.
type AuthMiddleware struct {
	server *server.Server
	users  UserFinder
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server, users UserFinder) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
		users:  users,
	}
}

// RequireAuth validates the bearer token and stores the session subject
// under UserIDKey.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return echo.WrapMiddleware(
		clerkhttp.WithHeaderAuthorization(
			clerkhttp.AuthorizationFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)

				if err := json.NewEncoder(w).Encode(errs.NewUnauthorizedError("Unauthorized", false)); err != nil {
					auth.server.Logger.Error().
						Err(err).
						Str("function", "RequireAuth").
						Dur("duration", time.Since(start)).
						Msg("failed to write JSON response")
					return
				}

				auth.server.Logger.Warn().
					Str("function", "RequireAuth").
					Str("path", r.URL.Path).
					Dur("duration", time.Since(start)).
					Msg("rejected request with missing or invalid token")
			}))))(
		func(c echo.Context) error {
			claims, ok := clerk.SessionClaimsFromContext(c.Request().Context())
			if !ok {
				auth.server.Logger.Error().
					Str("function", "RequireAuth").
					Str("request_id", GetRequestID(c)).
					Msg("could not get session claims from context")

				return errs.NewUnauthorizedError("Unauthorized", false)
			}

			c.Set(UserIDKey, claims.Subject)
			c.Set(UserRoleKey, claims.ActiveOrganizationRole)

			return next(c)
		})
}

// ResolveUser loads the caller's user row and stores it under UserKey.
// It must run after RequireAuth.
func (auth *AuthMiddleware) ResolveUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		externalID := GetUserID(c)
		if externalID == "" {
			return errs.NewUnauthorizedError("Unauthorized", false)
		}

		user, err := auth.users.GetByExternalID(c.Request().Context(), externalID)
		switch {
		case errors.Is(err, pgx.ErrNoRows), err == nil && user == nil:
			GetLogger(c).Warn().
				Str("function", "ResolveUser").
				Str("external_id", externalID).
				Msg("authenticated subject has no local user")

			return errs.NewUnauthorizedError("Unauthorized", false)

		case err != nil:
			// Lookup failures surface through the global error handler.
			return errors.Wrap(err, "resolve user")
		}

		c.Set(UserKey, user)

		logger := GetLogger(c).With().
			Int64("uid", user.ID).
			Str("user_type", user.UserType).
			Logger()
		c.Set(LoggerKey, &logger)
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context())))

		logger.Debug().
			Str("function", "ResolveUser").
			Dur("duration", time.Since(start)).
			Msg("user authenticated successfully")

		return next(c)
	}
}

// GetUser returns the user stored by ResolveUser, or nil.
func GetUser(c echo.Context) *model.User {
	if user, ok := c.Get(UserKey).(*model.User); ok {
		return user
	}
	return nil
}
