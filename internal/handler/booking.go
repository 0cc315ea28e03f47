package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/deppfellow/booking-api/internal/errs"
	"github.com/deppfellow/booking-api/internal/middleware"
	"github.com/deppfellow/booking-api/internal/model"
	"github.com/deppfellow/booking-api/internal/server"
	"github.com/deppfellow/booking-api/internal/validation"
	"github.com/labstack/echo/v4"
)

// JobRepository is the booking collaborator the handler delegates to.
// Persistence, matching and notification delivery live behind it.
type JobRepository interface {
	UsersJobs(ctx context.Context, userID int64) ([]model.Job, error)
	All(ctx context.Context, filter model.JobFilter) ([]model.Job, error)
	Find(ctx context.Context, id int64, withTranslator bool) (*model.Job, error)
	Store(ctx context.Context, user *model.User, job *model.Job) (*model.Job, error)
	UpdateJob(ctx context.Context, id int64, changes model.JobChanges, user *model.User) (*model.Job, error)
	StoreJobEmail(ctx context.Context, in model.JobEmail) (*model.Job, error)
	UsersJobsHistory(ctx context.Context, userID int64, page int) ([]model.Job, error)
	AcceptJob(ctx context.Context, jobID int64, user *model.User) (*model.Job, error)
	AcceptJobWithID(ctx context.Context, jobID int64, user *model.User) (*model.Job, error)
	CancelJob(ctx context.Context, jobID int64, user *model.User) (*model.Job, error)
	EndJob(ctx context.Context, jobID int64) (*model.Job, error)
	CustomerNotCall(ctx context.Context, jobID int64) (*model.Job, error)
	PotentialJobs(ctx context.Context, user *model.User) ([]model.Job, error)
	Reopen(ctx context.Context, jobID int64) (*model.Job, error)
	JobToData(job *model.Job) model.JobData
	SendNotificationTranslator(ctx context.Context, job *model.Job, data model.JobData, excludeUserID int64) error
	SendSMSNotificationToTranslator(ctx context.Context, job *model.Job) error
	UpdateDistance(ctx context.Context, jobID int64, changes model.DistanceChanges) error
	UpdateJobFeedback(ctx context.Context, jobID int64, changes model.JobChanges) error
}

// BookingHandler serves the /jobs endpoints.
type BookingHandler struct {
	Handler
	jobs  JobRepository
	roles model.Roles
}

func NewBookingHandler(s *server.Server, jobs JobRepository, roles model.Roles) *BookingHandler {
	return &BookingHandler{
		Handler: NewHandler(s),
		jobs:    jobs,
		roles:   roles,
	}
}

// orEmpty keeps empty listings serialised as [] instead of null.
func orEmpty(jobs []model.Job) []model.Job {
	if jobs == nil {
		return []model.Job{}
	}
	return jobs
}

// ListJobs returns the jobs of user_id when given, every job for admins,
// and an empty list for anyone else.
func (h *BookingHandler) ListJobs(c echo.Context, user *model.User, req *ListJobsRequest) ([]model.Job, error) {
	ctx := c.Request().Context()

	switch {
	case req.UserID > 0:
		jobs, err := h.jobs.UsersJobs(ctx, req.UserID)
		return orEmpty(jobs), err
	case h.roles.IsAdmin(user):
		jobs, err := h.jobs.All(ctx, req.Filter())
		return orEmpty(jobs), err
	default:
		return []model.Job{}, nil
	}
}

func (h *BookingHandler) GetJob(c echo.Context, req *GetJobRequest) (*model.Job, error) {
	return h.jobs.Find(c.Request().Context(), req.ID, true)
}

func (h *BookingHandler) CreateJob(c echo.Context, user *model.User, req *CreateJobRequest) (*model.Job, error) {
	return h.jobs.Store(c.Request().Context(), user, req.Job())
}

func (h *BookingHandler) UpdateJob(c echo.Context, user *model.User, req *UpdateJobRequest) (*model.Job, error) {
	return h.jobs.UpdateJob(c.Request().Context(), req.ID, req.Changes(), user)
}

func (h *BookingHandler) ImmediateJobEmail(c echo.Context, req *JobEmailRequest) (*model.Job, error) {
	return h.jobs.StoreJobEmail(c.Request().Context(), req.JobEmail())
}

// GetHistory answers a request without user_id with 404 and an empty list.
func (h *BookingHandler) GetHistory(c echo.Context) error {
	req := &HistoryRequest{}
	if err := validation.BindAndValidate(c, req); err != nil {
		return err
	}

	if req.UserID <= 0 {
		return c.JSON(http.StatusNotFound, []model.Job{})
	}

	jobs, err := h.jobs.UsersJobsHistory(c.Request().Context(), req.UserID, max(req.Page, 1))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, orEmpty(jobs))
}

func (h *BookingHandler) AcceptJob(c echo.Context, user *model.User, req *JobActionRequest) (*model.Job, error) {
	return h.jobs.AcceptJob(c.Request().Context(), req.JobID, user)
}

func (h *BookingHandler) AcceptJobWithID(c echo.Context, user *model.User, req *JobActionRequest) (*model.Job, error) {
	return h.jobs.AcceptJobWithID(c.Request().Context(), req.JobID, user)
}

func (h *BookingHandler) CancelJob(c echo.Context, user *model.User, req *JobActionRequest) (*model.Job, error) {
	return h.jobs.CancelJob(c.Request().Context(), req.JobID, user)
}

func (h *BookingHandler) EndJob(c echo.Context, req *JobActionRequest) (*model.Job, error) {
	return h.jobs.EndJob(c.Request().Context(), req.JobID)
}

func (h *BookingHandler) CustomerNotCall(c echo.Context, req *JobActionRequest) (*model.Job, error) {
	return h.jobs.CustomerNotCall(c.Request().Context(), req.JobID)
}

func (h *BookingHandler) PotentialJobs(c echo.Context, user *model.User, _ *EmptyRequest) ([]model.Job, error) {
	jobs, err := h.jobs.PotentialJobs(c.Request().Context(), user)
	return orEmpty(jobs), err
}

func (h *BookingHandler) Reopen(c echo.Context, req *JobActionRequest) (*model.Job, error) {
	return h.jobs.Reopen(c.Request().Context(), req.JobID)
}

// DistanceFeed records distance, time and admin feedback for a job. Both
// updates are attempted; their errors are reported together.
func (h *BookingHandler) DistanceFeed(c echo.Context) error {
	req := &DistanceFeedRequest{}
	if err := validation.BindAndValidate(c, req); err != nil {
		return distanceFeedError(c, err)
	}

	ctx := c.Request().Context()
	distance, job := req.Changes()

	err := errors.Join(
		h.jobs.UpdateDistance(ctx, int64(req.JobID), distance),
		h.jobs.UpdateJobFeedback(ctx, int64(req.JobID), job),
	)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "Record updated!"})
}

// distanceFeedError writes validation failures as {"error": ...}.
func distanceFeedError(c echo.Context, err error) error {
	var httpErr *errs.HTTPError
	if !errors.As(err, &httpErr) {
		return err
	}

	if len(httpErr.Errors) > 0 {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": httpErr.Errors})
	}
	return c.JSON(http.StatusBadRequest, map[string]any{"error": httpErr.Message})
}

func (h *BookingHandler) ResendNotifications(c echo.Context, req *NotifyRequest) (map[string]string, error) {
	ctx := c.Request().Context()

	job, err := h.jobs.Find(ctx, req.JobID, false)
	if err != nil {
		return nil, err
	}

	if err := h.jobs.SendNotificationTranslator(ctx, job, h.jobs.JobToData(job), 0); err != nil {
		return nil, err
	}

	return map[string]string{"success": "Push sent"}, nil
}

// ResendSMSNotifications answers a failed delivery with 500 and the
// gateway's message instead of the generic error body.
func (h *BookingHandler) ResendSMSNotifications(c echo.Context) error {
	req := &NotifyRequest{}
	if err := validation.BindAndValidate(c, req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	job, err := h.jobs.Find(ctx, req.JobID, false)
	if err != nil {
		return err
	}

	if err := h.jobs.SendSMSNotificationToTranslator(ctx, job); err != nil {
		middleware.GetLogger(c).Error().
			Err(err).
			Int64("job_id", job.ID).
			Msg("SMS failed")

		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"success": "SMS sent"})
}
