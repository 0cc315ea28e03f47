package email

import "strconv"

// JobBooked is the data shown in a booking confirmation.
type JobBooked struct {
	JobID        int64
	Reference    string
	Due          string
	Duration     int
	Address      string
	Town         string
	Instructions string
}

// TemplateData flattens j into template variables.
func (j JobBooked) TemplateData() map[string]string {
	return map[string]string{
		"JobID":        strconv.FormatInt(j.JobID, 10),
		"Reference":    j.Reference,
		"Due":          j.Due,
		"Duration":     strconv.Itoa(j.Duration),
		"Address":      j.Address,
		"Town":         j.Town,
		"Instructions": j.Instructions,
	}
}

// SendJobBookedEmail sends the booking confirmation for an immediate job.
func (c *Client) SendJobBookedEmail(to string, job JobBooked) error {
	return c.SendEmail(
		to,
		"Booking confirmation #"+strconv.FormatInt(job.JobID, 10),
		TemplateJobBooked,
		job.TemplateData(),
	)
}
