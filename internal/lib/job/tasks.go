package job

import (
	"encoding/json"
	"time"

	"github.com/deppfellow/booking-api/internal/lib/email"
	"github.com/deppfellow/booking-api/internal/lib/notify"
	"github.com/hibiken/asynq"
)

// Task type names stored in Redis.
const (
	TaskPushNotification = "notification:push"
	TaskJobBookedEmail   = "email:job_booked"
)

// JobBookedEmailPayload is the payload of TaskJobBookedEmail.
type JobBookedEmailPayload struct {
	To  string          `json:"to"`
	Job email.JobBooked `json:"job"`
}

// NewPushNotificationTask builds a push task. Pushes for immediate jobs
// go to the critical queue.
func NewPushNotificationTask(msg notify.PushMessage, urgent bool) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}

	queue := "default"
	if urgent {
		queue = "critical"
	}

	return asynq.NewTask(
		TaskPushNotification,
		payload,
		asynq.MaxRetry(5),
		asynq.Queue(queue),
		asynq.Timeout(15*time.Second),
	), nil
}

// NewJobBookedEmailTask builds the booking-confirmation e-mail task.
func NewJobBookedEmailTask(to string, job email.JobBooked) (*asynq.Task, error) {
	payload, err := json.Marshal(JobBookedEmailPayload{
		To:  to,
		Job: job,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskJobBookedEmail,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue("default"),
		asynq.Timeout(30*time.Second),
	), nil
}
