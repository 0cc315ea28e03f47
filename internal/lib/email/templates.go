package email

// Template is a string-based enum naming email templates.
type Template string

const (
	// TemplateJobBooked corresponds to templates/emails/job_booked.html
	TemplateJobBooked Template = "job_booked"
)
