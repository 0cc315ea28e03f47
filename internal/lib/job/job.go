// Package job provides background job processing using Asynq.
//
// Handlers enqueue push notifications and booking e-mails; the worker
// server started by JobService delivers them with retries.
package job

import (
	"context"
	"fmt"

	"github.com/deppfellow/booking-api/internal/config"
	"github.com/deppfellow/booking-api/internal/lib/email"
	"github.com/deppfellow/booking-api/internal/lib/notify"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	Client *asynq.Client
	server *asynq.Server
	logger *zerolog.Logger

	push pushSender
	mail mailer
}

// NewJobService creates a JobService backed by the configured Redis.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisAddr := cfg.Redis.Address

	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: redisAddr,
	})

	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger:   newAsynqLogger(logger),
			LogLevel: asynq.WarnLevel,
		},
	)

	return &JobService{
		Client: client,
		server: server,
		logger: logger,
		push:   notify.NewClient(cfg, logger),
		mail:   email.NewClient(cfg, logger),
	}
}

// Start registers the task handlers and starts the workers in the background.
func (j *JobService) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPushNotification, j.handlePushNotificationTask)
	mux.HandleFunc(TaskJobBookedEmail, j.handleJobBookedEmailTask)

	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(mux); err != nil {
		return err
	}

	return nil
}

// Stop waits for running tasks and closes the enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}

// EnqueuePush queues a push notification.
func (j *JobService) EnqueuePush(ctx context.Context, msg notify.PushMessage, urgent bool) error {
	task, err := NewPushNotificationTask(msg, urgent)
	if err != nil {
		return fmt.Errorf("failed to build push task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue push task: %w", err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("queue", info.Queue).
		Int64("user_id", msg.UserID).
		Msg("push notification queued")

	return nil
}

// EnqueueJobBookedEmail queues the booking confirmation for job.
func (j *JobService) EnqueueJobBookedEmail(ctx context.Context, to string, job email.JobBooked) error {
	task, err := NewJobBookedEmailTask(to, job)
	if err != nil {
		return fmt.Errorf("failed to build email task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue email task: %w", err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Int64("job_id", job.JobID).
		Msg("booking email queued")

	return nil
}
