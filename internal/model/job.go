// Package model holds the booking domain types shared by the handler,
// service and repository layers.
package model

import "time"

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending               JobStatus = "pending"
	JobStatusAssigned              JobStatus = "assigned"
	JobStatusCompleted             JobStatus = "completed"
	JobStatusCancelled             JobStatus = "cancelled"
	JobStatusNotCarriedOutCustomer JobStatus = "not_carried_out_customer"
)

// IsClosed reports whether a job in this status may be reopened.
func (s JobStatus) IsClosed() bool {
	switch s {
	case JobStatusCompleted, JobStatusCancelled, JobStatusNotCarriedOutCustomer:
		return true
	}
	return false
}

// Flag values stored in the admin flag columns.
const (
	FlagYes = "yes"
	FlagNo  = "no"
)

// Job is a bookable work item.
//
// The db tags mirror the jobs table column-for-column; Translator is only
// populated when the job is loaded with its translator relation.
type Job struct {
	ID                   int64      `json:"id" db:"id"`
	UserID               int64      `json:"user_id" db:"user_id"`
	TranslatorID         *int64     `json:"translator_id" db:"translator_id"`
	FromLanguageID       int64      `json:"from_language_id" db:"from_language_id"`
	Status               JobStatus  `json:"status" db:"status"`
	Immediate            bool       `json:"immediate" db:"immediate"`
	Due                  *time.Time `json:"due" db:"due"`
	Duration             int        `json:"duration" db:"duration"`
	Gender               string     `json:"gender" db:"gender"`
	Certified            string     `json:"certified" db:"certified"`
	JobType              string     `json:"job_type" db:"job_type"`
	CustomerPhoneType    bool       `json:"customer_phone_type" db:"customer_phone_type"`
	CustomerPhysicalType bool       `json:"customer_physical_type" db:"customer_physical_type"`
	Reference            string     `json:"reference" db:"reference"`
	Address              string     `json:"address" db:"address"`
	Instructions         string     `json:"instructions" db:"instructions"`
	Town                 string     `json:"town" db:"town"`
	UserEmail            string     `json:"user_email" db:"user_email"`
	Distance             string     `json:"distance" db:"distance"`
	Time                 string     `json:"time" db:"time"`
	SessionTime          string     `json:"session_time" db:"session_time"`
	AdminComments        string     `json:"admin_comments" db:"admin_comments"`
	Flagged              string     `json:"flagged" db:"flagged"`
	ManuallyHandled      string     `json:"manually_handled" db:"manually_handled"`
	ByAdmin              string     `json:"by_admin" db:"by_admin"`
	EndedAt              *time.Time `json:"ended_at" db:"ended_at"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at" db:"updated_at"`

	Translator *User `json:"translator,omitempty" db:"-"`
}

// JobChanges is a partial update of a job. Nil fields are left untouched.
type JobChanges struct {
	FromLanguageID       *int64
	Due                  *time.Time
	Duration             *int
	Gender               *string
	Certified            *string
	JobType              *string
	CustomerPhoneType    *bool
	CustomerPhysicalType *bool
	Reference            *string
	Address              *string
	Instructions         *string
	Town                 *string
	UserEmail            *string
	Distance             *string
	Time                 *string
	SessionTime          *string
	AdminComments        *string
	Flagged              *string
	ManuallyHandled      *string
	ByAdmin              *string
}

// IsEmpty reports whether the change set touches no column.
func (c JobChanges) IsEmpty() bool {
	return c == JobChanges{}
}

// DistanceChanges is a partial update of a job's distance record.
type DistanceChanges struct {
	Distance *string
	Time     *string
}

// IsEmpty reports whether the change set touches no column.
func (c DistanceChanges) IsEmpty() bool {
	return c.Distance == nil && c.Time == nil
}

// Distance is the per-job travel record.
type Distance struct {
	ID        int64     `json:"id" db:"id"`
	JobID     int64     `json:"job_id" db:"job_id"`
	Distance  string    `json:"distance" db:"distance"`
	Time      string    `json:"time" db:"time"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// JobFilter narrows the admin job listing.
type JobFilter struct {
	Status  JobStatus
	Page    int
	PerPage int
}

// JobData is the notification payload derived from a job.
type JobData struct {
	JobID          int64      `json:"job_id"`
	FromLanguageID int64      `json:"from_language_id"`
	Immediate      bool       `json:"immediate"`
	Due            *time.Time `json:"due"`
	Duration       int        `json:"duration"`
	Gender         string     `json:"gender"`
	Certified      string     `json:"certified"`
	JobType        string     `json:"job_type"`
	Town           string     `json:"town"`
}

// JobEmail carries the contact details submitted for an immediate booking.
type JobEmail struct {
	JobID        int64
	UserEmail    string
	Reference    string
	Address      string
	Instructions string
	Town         string
}

// HistoryPageSize is the number of jobs per job history page.
const HistoryPageSize = 15
