package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/baratexlondres-code/two-wheels-motorcycles/internal/whatsapp"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskWhatsAppTriggers evaluates reminder triggers for every customer.
	TaskWhatsAppTriggers = "whatsapp:run_triggers"
	// TaskWhatsAppPromotion sends the weekly promotional broadcast.
	TaskWhatsAppPromotion = "whatsapp:run_promotion"
)

// TriggerRunPayload is currently empty; the run always covers the full
// customer base. Kept as a struct so future filters stay wire compatible.
type TriggerRunPayload struct{}

// NewWhatsAppTriggersTask constructs the daily trigger evaluation task.
func NewWhatsAppTriggersTask() (*asynq.Task, error) {
	data, err := json.Marshal(TriggerRunPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWhatsAppTriggers, data), nil
}

// NewWhatsAppPromotionTask constructs the weekly promotion task.
func NewWhatsAppPromotionTask() (*asynq.Task, error) {
	data, err := json.Marshal(TriggerRunPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWhatsAppPromotion, data), nil
}

// WhatsAppRunner is the slice of the messaging service the jobs invoke.
type WhatsAppRunner interface {
	RunTriggers(ctx context.Context) (whatsapp.RunReport, error)
	RunPromotion(ctx context.Context) (whatsapp.RunReport, error)
}

// WhatsAppJob adapts the messaging service to Asynq handlers.
type WhatsAppJob struct {
	runner WhatsAppRunner
	logger *slog.Logger
}

// NewWhatsAppJob constructs the job.
func NewWhatsAppJob(runner WhatsAppRunner, logger *slog.Logger) *WhatsAppJob {
	return &WhatsAppJob{runner: runner, logger: logger}
}

// HandleTriggers processes TaskWhatsAppTriggers tasks.
func (j *WhatsAppJob) HandleTriggers(ctx context.Context, t *asynq.Task) error {
	var payload TriggerRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	report, err := j.runner.RunTriggers(ctx)
	if err != nil {
		j.logger.Error("trigger run failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("trigger run complete",
		slog.Int("evaluated", report.Evaluated),
		slog.Int("sent", report.Sent),
		slog.Int("queued", report.Queued),
		slog.Int("failed", report.Failed),
		slog.Int("skipped", report.Skipped))
	return nil
}

// HandlePromotion processes TaskWhatsAppPromotion tasks.
func (j *WhatsAppJob) HandlePromotion(ctx context.Context, t *asynq.Task) error {
	var payload TriggerRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	report, err := j.runner.RunPromotion(ctx)
	if err != nil {
		j.logger.Error("promotion run failed", slog.Any("error", err))
		return err
	}
	j.logger.Info("promotion run complete",
		slog.Int("evaluated", report.Evaluated),
		slog.Int("sent", report.Sent),
		slog.Int("queued", report.Queued),
		slog.Int("skipped", report.Skipped))
	return nil
}
