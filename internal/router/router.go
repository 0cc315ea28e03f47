// Package router builds the echo instance: global middleware, the system
// routes and the /api/v1 route groups.
package router

import (
	"net/http"

	"github.com/deppfellow/booking-api/internal/handler"
	"github.com/deppfellow/booking-api/internal/middleware"
	"github.com/deppfellow/booking-api/internal/server"
	"github.com/labstack/echo/v4"
)

func NewRouter(s *server.Server, h *handler.Handlers, mw *middleware.Middlewares) *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HTTPErrorHandler = mw.Global.GlobalErrorHandler

	// Order matters: the request id and the transaction must exist before
	// the context logger is built from them.
	router.Use(
		mw.RateLimit.Limit(),
		mw.Global.CORS(),
		mw.Global.Secure(),
		middleware.RequestID(),
		mw.Tracing.NewRelicMiddleware(),
		mw.Tracing.EnhanceTracing(),
		mw.ContextEnhancer.EnhanceContext(),
		mw.Global.RequestLogger(),
		middleware.Metrics(),
		mw.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerJobRoutes(v1, h.Booking, mw.Auth)

	return router
}

func registerJobRoutes(v1 *echo.Group, h *handler.BookingHandler, auth *middleware.AuthMiddleware) {
	jobs := v1.Group("/jobs", auth.RequireAuth, auth.ResolveUser)

	jobs.GET("", handler.HandleAuthed(h.Handler, h.ListJobs, http.StatusOK))
	jobs.POST("", handler.HandleAuthed(h.Handler, h.CreateJob, http.StatusCreated))
	jobs.GET("/history", h.GetHistory)
	jobs.GET("/potential", handler.HandleAuthed(h.Handler, h.PotentialJobs, http.StatusOK))
	jobs.GET("/:id", handler.Handle(h.Handler, h.GetJob, http.StatusOK))
	jobs.PUT("/:id", handler.HandleAuthed(h.Handler, h.UpdateJob, http.StatusOK))

	jobs.POST("/email", handler.Handle(h.Handler, h.ImmediateJobEmail, http.StatusOK))
	jobs.POST("/accept", handler.HandleAuthed(h.Handler, h.AcceptJob, http.StatusOK))
	jobs.POST("/accept-by-id", handler.HandleAuthed(h.Handler, h.AcceptJobWithID, http.StatusOK))
	jobs.POST("/cancel", handler.HandleAuthed(h.Handler, h.CancelJob, http.StatusOK))
	jobs.POST("/end", handler.Handle(h.Handler, h.EndJob, http.StatusOK))
	jobs.POST("/customer-not-call", handler.Handle(h.Handler, h.CustomerNotCall, http.StatusOK))
	jobs.POST("/reopen", handler.Handle(h.Handler, h.Reopen, http.StatusOK))
	jobs.POST("/distance-feed", h.DistanceFeed)

	jobs.POST("/notify/push", handler.Handle(h.Handler, h.ResendNotifications, http.StatusOK))
	jobs.POST("/notify/sms", h.ResendSMSNotifications)
}
