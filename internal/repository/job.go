package repository

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/deppfellow/booking-api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const jobColumns = `id, user_id, translator_id, from_language_id, status, immediate, due, duration,
	gender, certified, job_type, customer_phone_type, customer_physical_type, reference,
	address, instructions, town, user_email, distance, "time", session_time, admin_comments,
	flagged, manually_handled, by_admin, ended_at, created_at, updated_at`

type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

func collectJobs(rows pgx.Rows) ([]model.Job, error) {
	jobs, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Job])
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	return jobs, nil
}

func collectJob(rows pgx.Rows) (*model.Job, error) {
	job, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.Job])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("jobs")
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return job, nil
}

func offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}

// ListByUser returns every job booked by, or assigned to, userID.
func (r *JobRepository) ListByUser(ctx context.Context, userID int64) ([]model.Job, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE user_id = $1 OR translator_id = $1
		ORDER BY due DESC NULLS LAST, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query user jobs: %w", err)
	}
	return collectJobs(rows)
}

// List returns a page of all jobs, optionally narrowed by status.
func (r *JobRepository) List(ctx context.Context, filter model.JobFilter) ([]model.Job, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE (@status = '' OR status = @status)
		ORDER BY created_at DESC, id DESC
		LIMIT @limit OFFSET @offset`, pgx.NamedArgs{
		"status": string(filter.Status),
		"limit":  filter.PerPage,
		"offset": offset(filter.Page, filter.PerPage),
	})
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	return collectJobs(rows)
}

// ListHistory returns a page of userID's closed jobs.
func (r *JobRepository) ListHistory(ctx context.Context, userID int64, page, perPage int) ([]model.Job, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE (user_id = @user_id OR translator_id = @user_id)
		  AND status = ANY(@statuses)
		ORDER BY due DESC NULLS LAST, id DESC
		LIMIT @limit OFFSET @offset`, pgx.NamedArgs{
		"user_id": userID,
		"statuses": []string{
			string(model.JobStatusCompleted),
			string(model.JobStatusCancelled),
			string(model.JobStatusNotCarriedOutCustomer),
		},
		"limit":  perPage,
		"offset": offset(page, perPage),
	})
	if err != nil {
		return nil, fmt.Errorf("query job history: %w", err)
	}
	return collectJobs(rows)
}

// ListOpen returns pending jobs in any of languageIDs.
func (r *JobRepository) ListOpen(ctx context.Context, languageIDs []int64) ([]model.Job, error) {
	if len(languageIDs) == 0 {
		return []model.Job{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE status = $1 AND translator_id IS NULL AND from_language_id = ANY($2)
		ORDER BY due ASC NULLS FIRST, id ASC`, model.JobStatusPending, languageIDs)
	if err != nil {
		return nil, fmt.Errorf("query open jobs: %w", err)
	}
	return collectJobs(rows)
}

// GetByID loads a single job.
func (r *JobRepository) GetByID(ctx context.Context, id int64) (*model.Job, error) {
	rows, err := r.db.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	return collectJob(rows)
}

// Create inserts a new pending job and returns the stored row.
func (r *JobRepository) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	rows, err := r.db.Query(ctx, `
		INSERT INTO jobs (
			user_id, from_language_id, status, immediate, due, duration, gender, certified,
			job_type, customer_phone_type, customer_physical_type, reference, by_admin
		) VALUES (
			@user_id, @from_language_id, @status, @immediate, @due, @duration, @gender, @certified,
			@job_type, @customer_phone_type, @customer_physical_type, @reference, @by_admin
		)
		RETURNING `+jobColumns, pgx.NamedArgs{
		"user_id":                job.UserID,
		"from_language_id":       job.FromLanguageID,
		"status":                 model.JobStatusPending,
		"immediate":              job.Immediate,
		"due":                    job.Due,
		"duration":               job.Duration,
		"gender":                 job.Gender,
		"certified":              job.Certified,
		"job_type":               job.JobType,
		"customer_phone_type":    job.CustomerPhoneType,
		"customer_physical_type": job.CustomerPhysicalType,
		"reference":              job.Reference,
		"by_admin":               job.ByAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return collectJob(rows)
}

func setArg[T any](args pgx.NamedArgs, column string, value *T) {
	if value != nil {
		args[column] = *value
	}
}

// changeArgs flattens the non-nil fields of c into column arguments.
func changeArgs(c model.JobChanges) pgx.NamedArgs {
	args := pgx.NamedArgs{}
	setArg(args, "from_language_id", c.FromLanguageID)
	setArg(args, "due", c.Due)
	setArg(args, "duration", c.Duration)
	setArg(args, "gender", c.Gender)
	setArg(args, "certified", c.Certified)
	setArg(args, "job_type", c.JobType)
	setArg(args, "customer_phone_type", c.CustomerPhoneType)
	setArg(args, "customer_physical_type", c.CustomerPhysicalType)
	setArg(args, "reference", c.Reference)
	setArg(args, "address", c.Address)
	setArg(args, "instructions", c.Instructions)
	setArg(args, "town", c.Town)
	setArg(args, "user_email", c.UserEmail)
	setArg(args, "distance", c.Distance)
	setArg(args, "time", c.Time)
	setArg(args, "session_time", c.SessionTime)
	setArg(args, "admin_comments", c.AdminComments)
	setArg(args, "flagged", c.Flagged)
	setArg(args, "manually_handled", c.ManuallyHandled)
	setArg(args, "by_admin", c.ByAdmin)
	return args
}

// assignments renders one quoted "column = @column" pair per argument in
// column order, followed by the updated_at bump.
func assignments(args pgx.NamedArgs) []string {
	columns := slices.Sorted(maps.Keys(args))

	set := make([]string, 0, len(columns)+1)
	for _, column := range columns {
		set = append(set, fmt.Sprintf(`%q = @%s`, column, column))
	}
	return append(set, "updated_at = now()")
}

// Update applies a partial change set to job id. An empty change set only
// checks that the job exists.
func (r *JobRepository) Update(ctx context.Context, id int64, changes model.JobChanges) (*model.Job, error) {
	if changes.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	args := changeArgs(changes)
	set := strings.Join(assignments(args), ", ")
	args["id"] = id

	rows, err := r.db.Query(ctx, `
		UPDATE jobs SET `+set+`
		WHERE id = @id
		RETURNING `+jobColumns, args)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return collectJob(rows)
}

// UpdateDistance upserts the distance record of jobID. Nil fields keep
// their stored value.
func (r *JobRepository) UpdateDistance(ctx context.Context, jobID int64, changes model.DistanceChanges) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO distances (job_id, distance, "time")
		SELECT j.id, COALESCE(@distance::text, ''), COALESCE(@time::text, '')
		FROM jobs j
		WHERE j.id = @job_id
		ON CONFLICT (job_id) DO UPDATE SET
			distance   = COALESCE(@distance::text, distances.distance),
			"time"     = COALESCE(@time::text, distances."time"),
			updated_at = now()`, pgx.NamedArgs{
		"job_id":   jobID,
		"distance": changes.Distance,
		"time":     changes.Time,
	})
	if err != nil {
		return fmt.Errorf("upsert distance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("jobs")
	}
	return nil
}

// Transition locks job id, lets apply mutate its lifecycle fields and
// persists status, translator, end time and session time in one transaction.
// An error from apply rolls the transaction back and is returned unchanged.
func (r *JobRepository) Transition(ctx context.Context, id int64, apply func(job *model.Job) error) (*model.Job, error) {
	var updated *model.Job

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return fmt.Errorf("lock job: %w", err)
		}

		job, err := collectJob(rows)
		if err != nil {
			return err
		}

		if err := apply(job); err != nil {
			return err
		}

		rows, err = tx.Query(ctx, `
			UPDATE jobs SET
				status        = @status,
				translator_id = @translator_id,
				ended_at      = @ended_at,
				session_time  = @session_time,
				updated_at    = now()
			WHERE id = @id
			RETURNING `+jobColumns, pgx.NamedArgs{
			"id":            id,
			"status":        job.Status,
			"translator_id": job.TranslatorID,
			"ended_at":      job.EndedAt,
			"session_time":  job.SessionTime,
		})
		if err != nil {
			return fmt.Errorf("transition job: %w", err)
		}

		updated, err = collectJob(rows)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}
