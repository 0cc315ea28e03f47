package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/deppfellow/booking-api/internal/errs"
	"github.com/deppfellow/booking-api/internal/lib/email"
	"github.com/deppfellow/booking-api/internal/lib/notify"
	"github.com/deppfellow/booking-api/internal/metrics"
	"github.com/deppfellow/booking-api/internal/model"
	"github.com/rs/zerolog"
)

// immediateLead is how far ahead an immediate job is scheduled.
const immediateLead = 5 * time.Minute

// JobStore persists jobs and their distance records.
type JobStore interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Job, error)
	List(ctx context.Context, filter model.JobFilter) ([]model.Job, error)
	ListHistory(ctx context.Context, userID int64, page, perPage int) ([]model.Job, error)
	ListOpen(ctx context.Context, languageIDs []int64) ([]model.Job, error)
	GetByID(ctx context.Context, id int64) (*model.Job, error)
	Create(ctx context.Context, job *model.Job) (*model.Job, error)
	Update(ctx context.Context, id int64, changes model.JobChanges) (*model.Job, error)
	UpdateDistance(ctx context.Context, jobID int64, changes model.DistanceChanges) error
	Transition(ctx context.Context, id int64, apply func(job *model.Job) error) (*model.Job, error)
}

// UserStore looks up customers and translators.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ListTranslators(ctx context.Context, roleID string, languageID, excludeID int64) ([]model.User, error)
}

// Queue hands notifications to the background workers.
type Queue interface {
	EnqueuePush(ctx context.Context, msg notify.PushMessage, urgent bool) error
	EnqueueJobBookedEmail(ctx context.Context, to string, job email.JobBooked) error
}

// SMSSender delivers text messages synchronously.
type SMSSender interface {
	SendSMS(ctx context.Context, msg notify.SMSMessage) error
}

// BookingService implements the job booking rules on top of the stores.
//
// Lifecycle: pending -> assigned -> completed | not_carried_out_customer,
// pending/assigned -> cancelled, closed -> pending (reopen). A translator
// withdrawing from an assigned job puts it back to pending.
type BookingService struct {
	jobs  JobStore
	users UserStore
	queue Queue
	sms   SMSSender
	roles model.Roles
	now   func() time.Time
}

func NewBookingService(jobs JobStore, users UserStore, queue Queue, sms SMSSender, roles model.Roles) *BookingService {
	return &BookingService{
		jobs:  jobs,
		users: users,
		queue: queue,
		sms:   sms,
		roles: roles,
		now:   time.Now,
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func conflict(message string) error {
	return errs.NewConflictError(message, true, nil)
}

func (b *BookingService) UsersJobs(ctx context.Context, userID int64) ([]model.Job, error) {
	return b.jobs.ListByUser(ctx, userID)
}

func (b *BookingService) All(ctx context.Context, filter model.JobFilter) ([]model.Job, error) {
	return b.jobs.List(ctx, filter)
}

// Find loads a job, joining the assigned translator when withTranslator is set.
func (b *BookingService) Find(ctx context.Context, id int64, withTranslator bool) (*model.Job, error) {
	job, err := b.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if withTranslator && job.TranslatorID != nil {
		translator, err := b.users.GetByID(ctx, *job.TranslatorID)
		if err != nil {
			return nil, err
		}
		job.Translator = translator
	}

	return job, nil
}

// Store books a new job for user and notifies matching translators.
func (b *BookingService) Store(ctx context.Context, user *model.User, job *model.Job) (*model.Job, error) {
	if b.roles.IsTranslator(user) {
		return nil, errs.NewForbiddenError("Translators can not create bookings", true)
	}

	if job.Immediate {
		due := b.now().Add(immediateLead)
		job.Due = &due
	} else if job.Due == nil {
		return nil, errs.NewBadRequestError("Validation failed", true, nil, []errs.FieldError{
			{Field: "due", Error: "is required unless the job is immediate"},
		}, nil)
	} else if !job.Due.After(b.now()) {
		return nil, errs.NewBadRequestError("Validation failed", true, nil, []errs.FieldError{
			{Field: "due", Error: "must be in the future"},
		}, nil)
	}

	job.UserID = user.ID
	job.ByAdmin = model.FlagNo
	if b.roles.IsAdmin(user) {
		job.ByAdmin = model.FlagYes
	}

	created, err := b.jobs.Create(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := b.SendNotificationTranslator(ctx, created, b.JobToData(created), user.ID); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Int64("job_id", created.ID).
			Msg("failed to queue translator notifications for new job")
	}

	return created, nil
}

// adminOnly reports whether changes touch columns only admins may edit.
func adminOnly(c model.JobChanges) bool {
	return c.AdminComments != nil || c.Flagged != nil || c.ManuallyHandled != nil ||
		c.ByAdmin != nil || c.SessionTime != nil || c.Distance != nil || c.Time != nil
}

// UpdateJob applies changes on behalf of user. Customers may edit their own
// open bookings; admins may edit any job.
func (b *BookingService) UpdateJob(ctx context.Context, id int64, changes model.JobChanges, user *model.User) (*model.Job, error) {
	job, err := b.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !b.roles.IsAdmin(user) {
		if job.UserID != user.ID || adminOnly(changes) {
			return nil, errs.NewForbiddenError("You are not allowed to edit this job", true)
		}
		if job.Status != model.JobStatusPending {
			return nil, conflict("Only pending jobs can be edited")
		}
	}

	return b.jobs.Update(ctx, id, changes)
}

// StoreJobEmail records the contact details of an immediate booking and
// queues the confirmation e-mail. The details stay saved when queueing fails.
func (b *BookingService) StoreJobEmail(ctx context.Context, in model.JobEmail) (*model.Job, error) {
	changes := model.JobChanges{
		UserEmail:    &in.UserEmail,
		Reference:    nonEmpty(in.Reference),
		Address:      nonEmpty(in.Address),
		Instructions: nonEmpty(in.Instructions),
		Town:         nonEmpty(in.Town),
	}

	job, err := b.jobs.Update(ctx, in.JobID, changes)
	if err != nil {
		return nil, err
	}

	due := ""
	if job.Due != nil {
		due = job.Due.Format("2006-01-02 15:04")
	}

	if err := b.queue.EnqueueJobBookedEmail(ctx, in.UserEmail, email.JobBooked{
		JobID:        job.ID,
		Reference:    job.Reference,
		Due:          due,
		Duration:     job.Duration,
		Address:      job.Address,
		Town:         job.Town,
		Instructions: job.Instructions,
	}); err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Int64("job_id", job.ID).
			Msg("failed to queue booking confirmation email")
	}

	return job, nil
}

func (b *BookingService) UsersJobsHistory(ctx context.Context, userID int64, page int) ([]model.Job, error) {
	return b.jobs.ListHistory(ctx, userID, page, model.HistoryPageSize)
}

// AcceptJob assigns an open job to the calling translator and tells the customer.
func (b *BookingService) AcceptJob(ctx context.Context, jobID int64, user *model.User) (*model.Job, error) {
	if !b.roles.IsTranslator(user) {
		return nil, errs.NewForbiddenError("Only translators can accept jobs", true)
	}

	job, err := b.jobs.Transition(ctx, jobID, func(job *model.Job) error {
		if job.Status != model.JobStatusPending || job.TranslatorID != nil {
			return conflict("This job is no longer available")
		}
		if !slices.Contains(user.LanguageIDs, job.FromLanguageID) {
			return errs.NewForbiddenError("You do not work with this job's language", true)
		}

		job.Status = model.JobStatusAssigned
		job.TranslatorID = &user.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.transitioned(ctx, job)
	b.notifyUser(ctx, job.UserID, job, "Booking accepted",
		fmt.Sprintf("Your booking #%d has been accepted by a translator", job.ID))

	return job, nil
}

// AcceptJobWithID is AcceptJob for callers that only hold the job id.
func (b *BookingService) AcceptJobWithID(ctx context.Context, jobID int64, user *model.User) (*model.Job, error) {
	return b.AcceptJob(ctx, jobID, user)
}

// CancelJob cancels a job for its customer or an admin. The assigned
// translator cancelling withdraws from the job instead, returning it to
// pending and re-notifying the other translators.
func (b *BookingService) CancelJob(ctx context.Context, jobID int64, user *model.User) (*model.Job, error) {
	var withdrawn bool
	var previousTranslator *int64

	job, err := b.jobs.Transition(ctx, jobID, func(job *model.Job) error {
		if job.Status.IsClosed() {
			return conflict("This job is already closed")
		}

		switch {
		case job.TranslatorID != nil && *job.TranslatorID == user.ID:
			withdrawn = true
			job.Status = model.JobStatusPending
			job.TranslatorID = nil

		case job.UserID == user.ID || b.roles.IsAdmin(user):
			previousTranslator = job.TranslatorID
			job.Status = model.JobStatusCancelled

		default:
			return errs.NewForbiddenError("You are not allowed to cancel this job", true)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.transitioned(ctx, job)

	switch {
	case withdrawn:
		if err := b.SendNotificationTranslator(ctx, job, b.JobToData(job), user.ID); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Int64("job_id", job.ID).Msg("failed to re-notify translators")
		}
	case previousTranslator != nil:
		b.notifyUser(ctx, *previousTranslator, job, "Booking cancelled",
			fmt.Sprintf("Job #%d has been cancelled by the customer", job.ID))
	}

	return job, nil
}

// sessionTime formats the elapsed time between start and end as HH:MM:SS.
func sessionTime(start, end time.Time) string {
	d := max(end.Sub(start), 0).Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// EndJob completes an assigned job and records its session time.
func (b *BookingService) EndJob(ctx context.Context, jobID int64) (*model.Job, error) {
	now := b.now()

	job, err := b.jobs.Transition(ctx, jobID, func(job *model.Job) error {
		if job.Status != model.JobStatusAssigned {
			return conflict("Only accepted jobs can be ended")
		}

		start := job.CreatedAt
		if job.Due != nil {
			start = *job.Due
		}

		job.Status = model.JobStatusCompleted
		job.EndedAt = &now
		job.SessionTime = sessionTime(start, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.transitioned(ctx, job)
	b.notifyUser(ctx, job.UserID, job, "Session ended",
		fmt.Sprintf("Job #%d has ended, session time %s", job.ID, job.SessionTime))

	return job, nil
}

// CustomerNotCall records that the customer did not show up for an assigned job.
func (b *BookingService) CustomerNotCall(ctx context.Context, jobID int64) (*model.Job, error) {
	now := b.now()

	job, err := b.jobs.Transition(ctx, jobID, func(job *model.Job) error {
		if job.Status != model.JobStatusAssigned {
			return conflict("Only accepted jobs can be marked as not carried out")
		}

		job.Status = model.JobStatusNotCarriedOutCustomer
		job.EndedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.transitioned(ctx, job)
	return job, nil
}

// PotentialJobs lists open jobs a translator could accept. Other users get none.
func (b *BookingService) PotentialJobs(ctx context.Context, user *model.User) ([]model.Job, error) {
	if !b.roles.IsTranslator(user) {
		return []model.Job{}, nil
	}

	jobs, err := b.jobs.ListOpen(ctx, user.LanguageIDs)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(jobs, func(job model.Job) bool {
		return !genderMatches(job.Gender, user.Gender)
	}), nil
}

func genderMatches(wanted, gender string) bool {
	return wanted == "" || wanted == gender
}

// Reopen returns a closed job to pending and notifies translators again.
func (b *BookingService) Reopen(ctx context.Context, jobID int64) (*model.Job, error) {
	job, err := b.jobs.Transition(ctx, jobID, func(job *model.Job) error {
		if !job.Status.IsClosed() {
			return conflict("Only closed jobs can be reopened")
		}

		job.Status = model.JobStatusPending
		job.TranslatorID = nil
		job.EndedAt = nil
		job.SessionTime = ""
		return nil
	})
	if err != nil {
		return nil, err
	}

	b.transitioned(ctx, job)

	if err := b.SendNotificationTranslator(ctx, job, b.JobToData(job), 0); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Int64("job_id", job.ID).Msg("failed to notify translators of reopened job")
	}

	return job, nil
}

// JobToData extracts the notification payload of job.
func (b *BookingService) JobToData(job *model.Job) model.JobData {
	return model.JobData{
		JobID:          job.ID,
		FromLanguageID: job.FromLanguageID,
		Immediate:      job.Immediate,
		Due:            job.Due,
		Duration:       job.Duration,
		Gender:         job.Gender,
		Certified:      job.Certified,
		JobType:        job.JobType,
		Town:           job.Town,
	}
}

// matchingTranslators lists translators for job, excluding excludeUserID
// (0 excludes nobody).
func (b *BookingService) matchingTranslators(ctx context.Context, job *model.Job, excludeUserID int64) ([]model.User, error) {
	translators, err := b.users.ListTranslators(ctx, b.roles.Translator, job.FromLanguageID, excludeUserID)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(translators, func(u model.User) bool {
		return !genderMatches(job.Gender, u.Gender)
	}), nil
}

// SendNotificationTranslator queues a push for every translator matching job.
func (b *BookingService) SendNotificationTranslator(ctx context.Context, job *model.Job, data model.JobData, excludeUserID int64) error {
	translators, err := b.matchingTranslators(ctx, job, excludeUserID)
	if err != nil {
		return err
	}

	title := "New booking"
	if data.Immediate {
		title = "New immediate booking"
	}
	body := fmt.Sprintf("Job #%d, %d min", data.JobID, data.Duration)
	if data.Town != "" {
		body += " in " + data.Town
	}

	var errList []error
	for _, translator := range translators {
		err := b.queue.EnqueuePush(ctx, notify.PushMessage{
			UserID: translator.ID,
			Title:  title,
			Body:   body,
			Data:   map[string]any{"job": data},
		}, data.Immediate)
		if err != nil {
			errList = append(errList, err)
		}
	}

	zerolog.Ctx(ctx).Info().
		Int64("job_id", job.ID).
		Int("translators", len(translators)).
		Int("failed", len(errList)).
		Msg("translator push notifications queued")

	return errors.Join(errList...)
}

// SendSMSNotificationToTranslator texts every matching translator with a
// phone number. It stops at the first failed delivery.
func (b *BookingService) SendSMSNotificationToTranslator(ctx context.Context, job *model.Job) error {
	translators, err := b.matchingTranslators(ctx, job, 0)
	if err != nil {
		return err
	}

	due := "as soon as possible"
	if job.Due != nil && !job.Immediate {
		due = job.Due.Format("2006-01-02 15:04")
	}
	body := fmt.Sprintf("New booking #%d, %d min, %s. Log in to accept.", job.ID, job.Duration, due)

	for _, translator := range translators {
		if translator.Phone == "" {
			continue
		}
		if err := b.sms.SendSMS(ctx, notify.SMSMessage{To: translator.Phone, Body: body}); err != nil {
			return fmt.Errorf("sms to translator %d failed: %w", translator.ID, err)
		}
	}

	return nil
}

// UpdateDistance updates the distance record of jobID; an empty change
// set is a no-op.
func (b *BookingService) UpdateDistance(ctx context.Context, jobID int64, changes model.DistanceChanges) error {
	if changes.IsEmpty() {
		return nil
	}
	return b.jobs.UpdateDistance(ctx, jobID, changes)
}

// UpdateJobFeedback stores the admin feedback fields of jobID.
func (b *BookingService) UpdateJobFeedback(ctx context.Context, jobID int64, changes model.JobChanges) error {
	_, err := b.jobs.Update(ctx, jobID, changes)
	return err
}

func (b *BookingService) transitioned(ctx context.Context, job *model.Job) {
	metrics.JobTransitionsTotal.WithLabelValues(string(job.Status)).Inc()

	zerolog.Ctx(ctx).Info().
		Int64("job_id", job.ID).
		Str("status", string(job.Status)).
		Msg("job transitioned")
}

// notifyUser queues a push to a single user; failures are logged only.
func (b *BookingService) notifyUser(ctx context.Context, userID int64, job *model.Job, title, body string) {
	err := b.queue.EnqueuePush(ctx, notify.PushMessage{
		UserID: userID,
		Title:  title,
		Body:   body,
		Data:   map[string]any{"job_id": job.ID, "status": job.Status},
	}, false)
	if err != nil {
		zerolog.Ctx(ctx).Error().
			Err(err).
			Int64("job_id", job.ID).
			Int64("user_id", userID).
			Msg("failed to queue push notification")
	}
}
