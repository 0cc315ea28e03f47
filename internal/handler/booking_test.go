package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/booking-api/internal/config"
	"github.com/deppfellow/booking-api/internal/errs"
	"github.com/deppfellow/booking-api/internal/middleware"
	"github.com/deppfellow/booking-api/internal/model"
	"github.com/deppfellow/booking-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminRole      = "1"
	translatorRole = "2"
)

var testRoles = model.NewRoles(adminRole, "3", translatorRole)

type fakeJobs struct {
	calls []string
	jobs  map[int64]*model.Job

	usersJobs   []model.Job
	all         []model.Job
	distance    *model.DistanceChanges
	feedback    *model.JobChanges
	distanceErr error
	feedbackErr error
	smsErr      error
	history     []model.Job
	historyPage int
	pushExclude int64
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[int64]*model.Job{
		7: {ID: 7, UserID: 1, Status: model.JobStatusPending, FromLanguageID: 3},
	}}
}

func (f *fakeJobs) called(name string) { f.calls = append(f.calls, name) }

func (f *fakeJobs) job(id int64) (*model.Job, error) {
	job, ok := f.jobs[id]
	if !ok {
		return nil, errs.NewNotFoundError("Job not found", true, nil)
	}
	copied := *job
	return &copied, nil
}

func (f *fakeJobs) UsersJobs(_ context.Context, userID int64) ([]model.Job, error) {
	f.called("UsersJobs")
	return f.usersJobs, nil
}

func (f *fakeJobs) All(_ context.Context, _ model.JobFilter) ([]model.Job, error) {
	f.called("All")
	return f.all, nil
}

func (f *fakeJobs) Find(_ context.Context, id int64, _ bool) (*model.Job, error) {
	f.called("Find")
	return f.job(id)
}

func (f *fakeJobs) Store(_ context.Context, user *model.User, job *model.Job) (*model.Job, error) {
	f.called("Store")
	job.ID = 99
	job.UserID = user.ID
	job.Status = model.JobStatusPending
	return job, nil
}

func (f *fakeJobs) UpdateJob(_ context.Context, id int64, _ model.JobChanges, _ *model.User) (*model.Job, error) {
	f.called("UpdateJob")
	return f.job(id)
}

func (f *fakeJobs) StoreJobEmail(_ context.Context, in model.JobEmail) (*model.Job, error) {
	f.called("StoreJobEmail")
	return f.job(in.JobID)
}

func (f *fakeJobs) UsersJobsHistory(_ context.Context, _ int64, page int) ([]model.Job, error) {
	f.called("UsersJobsHistory")
	f.historyPage = page
	return f.history, nil
}

func (f *fakeJobs) AcceptJob(_ context.Context, jobID int64, _ *model.User) (*model.Job, error) {
	f.called("AcceptJob")
	return f.job(jobID)
}

func (f *fakeJobs) AcceptJobWithID(_ context.Context, jobID int64, _ *model.User) (*model.Job, error) {
	f.called("AcceptJobWithID")
	job, err := f.job(jobID)
	if err != nil {
		return nil, err
	}
	job.Status = model.JobStatusAssigned
	return job, nil
}

func (f *fakeJobs) CancelJob(_ context.Context, jobID int64, _ *model.User) (*model.Job, error) {
	f.called("CancelJob")
	return f.job(jobID)
}

func (f *fakeJobs) EndJob(_ context.Context, jobID int64) (*model.Job, error) {
	f.called("EndJob")
	return f.job(jobID)
}

func (f *fakeJobs) CustomerNotCall(_ context.Context, jobID int64) (*model.Job, error) {
	f.called("CustomerNotCall")
	return f.job(jobID)
}

func (f *fakeJobs) PotentialJobs(_ context.Context, _ *model.User) ([]model.Job, error) {
	f.called("PotentialJobs")
	return nil, nil
}

func (f *fakeJobs) Reopen(_ context.Context, jobID int64) (*model.Job, error) {
	f.called("Reopen")
	return f.job(jobID)
}

func (f *fakeJobs) JobToData(job *model.Job) model.JobData {
	return model.JobData{JobID: job.ID}
}

func (f *fakeJobs) SendNotificationTranslator(_ context.Context, _ *model.Job, _ model.JobData, excludeUserID int64) error {
	f.called("SendNotificationTranslator")
	f.pushExclude = excludeUserID
	return nil
}

func (f *fakeJobs) SendSMSNotificationToTranslator(_ context.Context, _ *model.Job) error {
	f.called("SendSMSNotificationToTranslator")
	return f.smsErr
}

func (f *fakeJobs) UpdateDistance(_ context.Context, _ int64, changes model.DistanceChanges) error {
	f.called("UpdateDistance")
	f.distance = &changes
	return f.distanceErr
}

func (f *fakeJobs) UpdateJobFeedback(_ context.Context, _ int64, changes model.JobChanges) error {
	f.called("UpdateJobFeedback")
	f.feedback = &changes
	return f.feedbackErr
}

func newTestServer() *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{Primary: config.Primary{Env: "test"}},
		Logger: &logger,
	}
}

// newTestEcho wires the booking routes the way the router does, with the
// caller injected in place of Clerk.
func newTestEcho(t *testing.T, jobs JobRepository, user *model.User) *echo.Echo {
	t.Helper()

	s := newTestServer()
	h := NewBookingHandler(s, jobs, testRoles)

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler

	g := e.Group("/api/v1/jobs", func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if user != nil {
				c.Set(middleware.UserKey, user)
			}
			return next(c)
		}
	})

	g.GET("", HandleAuthed(h.Handler, h.ListJobs, http.StatusOK))
	g.GET("/history", h.GetHistory)
	g.GET("/:id", Handle(h.Handler, h.GetJob, http.StatusOK))
	g.POST("", HandleAuthed(h.Handler, h.CreateJob, http.StatusCreated))
	g.POST("/accept-by-id", HandleAuthed(h.Handler, h.AcceptJobWithID, http.StatusOK))
	g.GET("/potential", HandleAuthed(h.Handler, h.PotentialJobs, http.StatusOK))
	g.POST("/distance-feed", h.DistanceFeed)
	g.POST("/notify/push", Handle(h.Handler, h.ResendNotifications, http.StatusOK))
	g.POST("/notify/sms", h.ResendSMSNotifications)

	return e
}

func do(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func customer() *model.User {
	return &model.User{ID: 1, UserType: "4"}
}

func admin() *model.User {
	return &model.User{ID: 2, UserType: adminRole}
}

func translator() *model.User {
	return &model.User{ID: 5, UserType: translatorRole}
}

func TestListJobs_WithUserIDReturnsThatUsersJobs(t *testing.T) {
	jobs := newFakeJobs()
	jobs.usersJobs = []model.Job{{ID: 1}, {ID: 2}}
	e := newTestEcho(t, jobs, customer())

	rec := do(e, http.MethodGet, "/api/v1/jobs?user_id=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got []model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"UsersJobs"}, jobs.calls)
}

func TestListJobs_NonAdminWithoutUserIDGetsEmptyList(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, customer())

	rec := do(e, http.MethodGet, "/api/v1/jobs", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Empty(t, jobs.calls)
}

func TestListJobs_AdminSeesAllJobs(t *testing.T) {
	jobs := newFakeJobs()
	jobs.all = []model.Job{{ID: 1}}
	e := newTestEcho(t, jobs, admin())

	rec := do(e, http.MethodGet, "/api/v1/jobs?status=pending", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"All"}, jobs.calls)
}

func TestListJobs_WithoutUserIsUnauthorized(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, nil)

	rec := do(e, http.MethodGet, "/api/v1/jobs", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, jobs.calls)
}

func TestGetJob_IsRepeatable(t *testing.T) {
	e := newTestEcho(t, newFakeJobs(), customer())

	first := do(e, http.MethodGet, "/api/v1/jobs/7", "")
	second := do(e, http.MethodGet, "/api/v1/jobs/7", "")

	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestGetJob_MissingIsNotFound(t *testing.T) {
	e := newTestEcho(t, newFakeJobs(), customer())

	rec := do(e, http.MethodGet, "/api/v1/jobs/404", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Job not found", body.Message)
}

func TestCreateJob_RequiresPhoneOrPhysical(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, customer())

	rec := do(e, http.MethodPost, "/api/v1/jobs", `{"from_language_id":3,"duration":30,"immediate":true}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "customer_phone_type")
	assert.Empty(t, jobs.calls)
}

func TestCreateJob_Created(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, customer())

	rec := do(e, http.MethodPost, "/api/v1/jobs",
		`{"from_language_id":3,"duration":30,"immediate":true,"customer_phone_type":true}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got model.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, int64(99), got.ID)
	assert.Equal(t, int64(1), got.UserID)
}

func TestAcceptByID_NonIntegerJobIDIsRejectedBeforeAnyCall(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, translator())

	rec := do(e, http.MethodPost, "/api/v1/jobs/accept-by-id", `{"job_id":"abc"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, jobs.calls)
}

func TestAcceptByID_Accepts(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, translator())

	rec := do(e, http.MethodPost, "/api/v1/jobs/accept-by-id", `{"job_id":7}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"assigned"`)
}

func TestPotentialJobs_NeverNull(t *testing.T) {
	e := newTestEcho(t, newFakeJobs(), translator())

	rec := do(e, http.MethodGet, "/api/v1/jobs/potential", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHistory_WithoutUserIDIsEmptyNotFound(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, customer())

	rec := do(e, http.MethodGet, "/api/v1/jobs/history", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Empty(t, jobs.calls)
}

func TestHistory_DefaultsToFirstPage(t *testing.T) {
	jobs := newFakeJobs()
	jobs.history = []model.Job{{ID: 3}}
	e := newTestEcho(t, jobs, customer())

	rec := do(e, http.MethodGet, "/api/v1/jobs/history?user_id=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, jobs.historyPage)
}

func TestDistanceFeed_FlagsAndOmittedFields(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, admin())

	rec := do(e, http.MethodPost, "/api/v1/jobs/distance-feed",
		`{"jobid":7,"distance":"12km","flagged":"true","manually_handled":false}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Record updated!"}`, rec.Body.String())

	require.NotNil(t, jobs.distance)
	assert.Equal(t, "12km", *jobs.distance.Distance)
	assert.Nil(t, jobs.distance.Time)

	require.NotNil(t, jobs.feedback)
	assert.Equal(t, model.FlagYes, *jobs.feedback.Flagged)
	assert.Equal(t, model.FlagNo, *jobs.feedback.ManuallyHandled)
	assert.Nil(t, jobs.feedback.ByAdmin)
	assert.Nil(t, jobs.feedback.AdminComments)
	assert.Nil(t, jobs.feedback.SessionTime)
}

func TestDistanceFeed_MissingJobIDIsRejected(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, admin())

	rec := do(e, http.MethodPost, "/api/v1/jobs/distance-feed", `{"distance":"12km"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
	assert.Empty(t, jobs.calls)
}

func TestDistanceFeed_BothUpdatesRunWhenOneFails(t *testing.T) {
	jobs := newFakeJobs()
	jobs.distanceErr = errors.New("boom")
	e := newTestEcho(t, jobs, admin())

	rec := do(e, http.MethodPost, "/api/v1/jobs/distance-feed", `{"jobid":7,"admincomment":"late"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []string{"UpdateDistance", "UpdateJobFeedback"}, jobs.calls)
}

func TestResendNotifications_SendsToEveryone(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, admin())

	rec := do(e, http.MethodPost, "/api/v1/jobs/notify/push", `{"jobid":7}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":"Push sent"}`, rec.Body.String())
	assert.Equal(t, int64(0), jobs.pushExclude)
}

func TestResendSMS_FailureIsServerError(t *testing.T) {
	jobs := newFakeJobs()
	jobs.smsErr = errors.New("gateway returned 503: unavailable")
	e := newTestEcho(t, jobs, admin())

	rec := do(e, http.MethodPost, "/api/v1/jobs/notify/sms", `{"jobid":7}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"gateway returned 503: unavailable"}`, rec.Body.String())
}

func TestResendSMS_Success(t *testing.T) {
	e := newTestEcho(t, newFakeJobs(), admin())

	rec := do(e, http.MethodPost, "/api/v1/jobs/notify/sms", `{"jobid":7}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":"SMS sent"}`, rec.Body.String())
}

func TestResendSMS_UnknownJobIsNotFound(t *testing.T) {
	jobs := newFakeJobs()
	e := newTestEcho(t, jobs, admin())

	rec := do(e, http.MethodPost, "/api/v1/jobs/notify/sms", `{"jobid":404}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, jobs.calls, "SendSMSNotificationToTranslator")
}

func TestDistanceFeed_LenientValues(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantFlagged *string
	}{
		{name: "numeric flag reads as no", body: `{"jobid":7,"flagged":1}`, wantFlagged: ptr(model.FlagNo)},
		{name: "object flag reads as no", body: `{"jobid":7,"flagged":{"on":true}}`, wantFlagged: ptr(model.FlagNo)},
		{name: "null flag is left alone", body: `{"jobid":7,"flagged":null,"distance":"1km"}`, wantFlagged: nil},
		{name: "numeric string job id", body: `{"jobid":"7","distance":"1km"}`, wantFlagged: nil},
		{name: "numeric string job id with flag", body: `{"jobid":" 7 ","flagged":"true"}`, wantFlagged: ptr(model.FlagYes)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := newFakeJobs()
			e := newTestEcho(t, jobs, admin())

			rec := do(e, http.MethodPost, "/api/v1/jobs/distance-feed", tt.body)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, []string{"UpdateDistance", "UpdateJobFeedback"}, jobs.calls)
			require.NotNil(t, jobs.feedback)
			assert.Equal(t, tt.wantFlagged, jobs.feedback.Flagged)
		})
	}
}

func TestDistanceFeed_RejectsNonNumericJobID(t *testing.T) {
	for _, body := range []string{`{"jobid":"abc"}`, `{"jobid":true}`, `{"jobid":"0"}`} {
		t.Run(body, func(t *testing.T) {
			jobs := newFakeJobs()
			e := newTestEcho(t, jobs, admin())

			rec := do(e, http.MethodPost, "/api/v1/jobs/distance-feed", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
			assert.Empty(t, jobs.calls)
		})
	}
}
