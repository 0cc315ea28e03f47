package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/booking-api/internal/lib/email"
	"github.com/deppfellow/booking-api/internal/lib/notify"
	"github.com/deppfellow/booking-api/internal/metrics"
	"github.com/hibiken/asynq"
)

const channelEmail = "email"

type pushSender interface {
	SendPush(ctx context.Context, msg notify.PushMessage) error
}

type mailer interface {
	SendJobBookedEmail(to string, job email.JobBooked) error
}

func (j *JobService) handlePushNotificationTask(ctx context.Context, t *asynq.Task) error {
	var msg notify.PushMessage
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("failed to unmarshal push payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := j.push.SendPush(ctx, msg); err != nil {
		j.logger.Error().
			Err(err).
			Str("type", TaskPushNotification).
			Int64("user_id", msg.UserID).
			Msg("Failed to send push notification")
		return err
	}

	j.logger.Info().
		Str("type", TaskPushNotification).
		Int64("user_id", msg.UserID).
		Msg("Push notification sent")

	return nil
}

func (j *JobService) handleJobBookedEmailTask(ctx context.Context, t *asynq.Task) error {
	var p JobBookedEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal job email payload: %w: %w", err, asynq.SkipRetry)
	}

	err := j.mail.SendJobBookedEmail(p.To, p.Job)
	metrics.RecordNotification(channelEmail, err)
	if err != nil {
		j.logger.Error().
			Err(err).
			Str("type", TaskJobBookedEmail).
			Int64("job_id", p.Job.JobID).
			Msg("Failed to send booking email")
		return err
	}

	j.logger.Info().
		Str("type", TaskJobBookedEmail).
		Int64("job_id", p.Job.JobID).
		Msg("Booking email sent")

	return nil
}
