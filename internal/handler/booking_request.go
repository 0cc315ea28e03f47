package handler

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deppfellow/booking-api/internal/model"
	"github.com/deppfellow/booking-api/internal/validation"
)

const defaultPerPage = 15

type ListJobsRequest struct {
	UserID  int64  `query:"user_id" validate:"gte=0"`
	Status  string `query:"status" validate:"omitempty,oneof=pending assigned completed cancelled not_carried_out_customer"`
	Page    int    `query:"page" validate:"gte=0"`
	PerPage int    `query:"per_page" validate:"gte=0,max=100"`
}

func (r *ListJobsRequest) Validate() error {
	return validation.Struct(r)
}

func (r *ListJobsRequest) Filter() model.JobFilter {
	filter := model.JobFilter{
		Status:  model.JobStatus(r.Status),
		Page:    max(r.Page, 1),
		PerPage: r.PerPage,
	}
	if filter.PerPage == 0 {
		filter.PerPage = defaultPerPage
	}
	return filter
}

type GetJobRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *GetJobRequest) Validate() error {
	return validation.Struct(r)
}

type CreateJobRequest struct {
	FromLanguageID       int64      `json:"from_language_id" validate:"required,gt=0"`
	Immediate            bool       `json:"immediate"`
	Due                  *time.Time `json:"due"`
	Duration             int        `json:"duration" validate:"required,gt=0"`
	Gender               string     `json:"gender" validate:"omitempty,oneof=male female"`
	Certified            string     `json:"certified" validate:"omitempty,oneof=yes no both normal law health"`
	JobType              string     `json:"job_type" validate:"omitempty,oneof=paid rws unpaid"`
	CustomerPhoneType    bool       `json:"customer_phone_type"`
	CustomerPhysicalType bool       `json:"customer_physical_type"`
	Reference            string     `json:"reference" validate:"max=255"`
}

func (r *CreateJobRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}

	if !r.CustomerPhoneType && !r.CustomerPhysicalType {
		return validation.CustomValidationErrors{
			{Field: "customer_phone_type", Message: "either phone or physical must be selected"},
		}
	}

	return nil
}

func (r *CreateJobRequest) Job() *model.Job {
	return &model.Job{
		FromLanguageID:       r.FromLanguageID,
		Immediate:            r.Immediate,
		Due:                  r.Due,
		Duration:             r.Duration,
		Gender:               r.Gender,
		Certified:            r.Certified,
		JobType:              r.JobType,
		CustomerPhoneType:    r.CustomerPhoneType,
		CustomerPhysicalType: r.CustomerPhysicalType,
		Reference:            r.Reference,
	}
}

// UpdateJobRequest lists every field a job update may touch. Fields left
// out of the body stay unchanged.
type UpdateJobRequest struct {
	ID int64 `param:"id" json:"-" validate:"required,gt=0"`

	FromLanguageID       *int64     `json:"from_language_id" validate:"omitempty,gt=0"`
	Due                  *time.Time `json:"due"`
	Duration             *int       `json:"duration" validate:"omitempty,gt=0"`
	Gender               *string    `json:"gender" validate:"omitempty,oneof=male female"`
	Certified            *string    `json:"certified" validate:"omitempty,oneof=yes no both normal law health"`
	JobType              *string    `json:"job_type" validate:"omitempty,oneof=paid rws unpaid"`
	CustomerPhoneType    *bool      `json:"customer_phone_type"`
	CustomerPhysicalType *bool      `json:"customer_physical_type"`
	Reference            *string    `json:"reference" validate:"omitempty,max=255"`
	Address              *string    `json:"address" validate:"omitempty,max=255"`
	Instructions         *string    `json:"instructions"`
	Town                 *string    `json:"town" validate:"omitempty,max=100"`
	UserEmail            *string    `json:"user_email" validate:"omitempty,email"`
	Distance             *string    `json:"distance"`
	Time                 *string    `json:"time"`
	SessionTime          *string    `json:"session_time"`
	AdminComments        *string    `json:"admin_comments"`
	Flagged              *string    `json:"flagged" validate:"omitempty,oneof=yes no"`
	ManuallyHandled      *string    `json:"manually_handled" validate:"omitempty,oneof=yes no"`
	ByAdmin              *string    `json:"by_admin" validate:"omitempty,oneof=yes no"`
}

func (r *UpdateJobRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateJobRequest) Changes() model.JobChanges {
	return model.JobChanges{
		FromLanguageID:       r.FromLanguageID,
		Due:                  r.Due,
		Duration:             r.Duration,
		Gender:               r.Gender,
		Certified:            r.Certified,
		JobType:              r.JobType,
		CustomerPhoneType:    r.CustomerPhoneType,
		CustomerPhysicalType: r.CustomerPhysicalType,
		Reference:            r.Reference,
		Address:              r.Address,
		Instructions:         r.Instructions,
		Town:                 r.Town,
		UserEmail:            r.UserEmail,
		Distance:             r.Distance,
		Time:                 r.Time,
		SessionTime:          r.SessionTime,
		AdminComments:        r.AdminComments,
		Flagged:              r.Flagged,
		ManuallyHandled:      r.ManuallyHandled,
		ByAdmin:              r.ByAdmin,
	}
}

type JobEmailRequest struct {
	JobID        int64  `json:"user_email_job_id" validate:"required,gt=0"`
	UserEmail    string `json:"user_email" validate:"required,email"`
	Reference    string `json:"reference" validate:"max=255"`
	Address      string `json:"address" validate:"max=255"`
	Instructions string `json:"instructions"`
	Town         string `json:"town" validate:"max=100"`
}

func (r *JobEmailRequest) Validate() error {
	return validation.Struct(r)
}

func (r *JobEmailRequest) JobEmail() model.JobEmail {
	return model.JobEmail{
		JobID:        r.JobID,
		UserEmail:    r.UserEmail,
		Reference:    r.Reference,
		Address:      r.Address,
		Instructions: r.Instructions,
		Town:         r.Town,
	}
}

// HistoryRequest is bound by hand: a missing user_id is answered with an
// empty 404 rather than a validation error.
type HistoryRequest struct {
	UserID int64 `query:"user_id"`
	Page   int   `query:"page" validate:"gte=0"`
}

func (r *HistoryRequest) Validate() error {
	return validation.Struct(r)
}

// JobActionRequest identifies the job of a lifecycle action.
type JobActionRequest struct {
	JobID int64 `json:"job_id" validate:"required,gt=0"`
}

func (r *JobActionRequest) Validate() error {
	return validation.Struct(r)
}

type NotifyRequest struct {
	JobID int64 `json:"jobid" validate:"required,gt=0"`
}

func (r *NotifyRequest) Validate() error {
	return validation.Struct(r)
}

type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error {
	return nil
}

// Flag is a checkbox value. Booleans and strings are kept as text; any
// other JSON value is kept verbatim and so reads as unchecked.
type Flag string

func (f *Flag) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = Flag(strconv.FormatBool(b))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = Flag(s)
		return nil
	}

	*f = Flag(data)
	return nil
}

// JobID accepts a job id posted as a JSON number or a numeric string.
type JobID int64

func (id *JobID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*id = JobID(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("jobid must be an integer")
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("jobid must be an integer")
	}
	*id = JobID(n)
	return nil
}

// value maps "true" to yes and any other submitted value to no. An absent
// flag yields nil so the stored value is kept.
func (f *Flag) value() *string {
	if f == nil {
		return nil
	}

	v := model.FlagNo
	if strings.TrimSpace(string(*f)) == "true" {
		v = model.FlagYes
	}
	return &v
}

type DistanceFeedRequest struct {
	JobID           JobID  `json:"jobid" validate:"required,gt=0"`
	Distance        string `json:"distance"`
	Time            string `json:"time"`
	SessionTime     string `json:"session_time"`
	AdminComment    string `json:"admincomment"`
	Flagged         *Flag  `json:"flagged"`
	ManuallyHandled *Flag  `json:"manually_handled"`
	ByAdmin         *Flag  `json:"by_admin"`
}

func (r *DistanceFeedRequest) Validate() error {
	return validation.Struct(r)
}

// Changes splits the feed into the distance record update and the job
// update. Empty text fields are dropped from both.
func (r *DistanceFeedRequest) Changes() (model.DistanceChanges, model.JobChanges) {
	distance := model.DistanceChanges{
		Distance: nonEmpty(r.Distance),
		Time:     nonEmpty(r.Time),
	}

	job := model.JobChanges{
		Distance:        nonEmpty(r.Distance),
		Time:            nonEmpty(r.Time),
		SessionTime:     nonEmpty(r.SessionTime),
		AdminComments:   nonEmpty(r.AdminComment),
		Flagged:         r.Flagged.value(),
		ManuallyHandled: r.ManuallyHandled.value(),
		ByAdmin:         r.ByAdmin.value(),
	}

	return distance, job
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
