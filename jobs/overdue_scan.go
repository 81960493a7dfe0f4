package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskOverdueScan flips past-due invoices to OVERDUE on a schedule.
const TaskOverdueScan = "invoices:overdue_scan"

// OverdueScanPayload carries scheduling metadata.
type OverdueScanPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// OverdueMarker is the slice of the invoice module the scan needs.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// NewOverdueScanTask constructs the cron task.
func NewOverdueScanTask() (*asynq.Task, error) {
	body, err := json.Marshal(OverdueScanPayload{ScheduledFor: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueScan, body, asynq.Queue(QueueDefault)), nil
}

// NewOverdueScanHandler processes TaskOverdueScan tasks.
func NewOverdueScanHandler(marker OverdueMarker, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload OverdueScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		n, err := marker.MarkOverdue(ctx, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("overdue scan: %w", err)
		}
		if n > 0 {
			logger.Info("overdue scan complete", "flipped", n)
		}
		return nil
	}
}
