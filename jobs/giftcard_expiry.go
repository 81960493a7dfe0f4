package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskGiftCardExpiry expires past-dated active cards on a schedule.
const TaskGiftCardExpiry = "giftcards:expiry_scan"

// GiftCardExpiryPayload carries scheduling metadata.
type GiftCardExpiryPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// CardExpirer is the slice of the gift card module the scan needs.
type CardExpirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// NewGiftCardExpiryTask constructs the cron task.
func NewGiftCardExpiryTask() (*asynq.Task, error) {
	body, err := json.Marshal(GiftCardExpiryPayload{ScheduledFor: time.Now().UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGiftCardExpiry, body, asynq.Queue(QueueDefault)), nil
}

// NewGiftCardExpiryHandler processes TaskGiftCardExpiry tasks.
func NewGiftCardExpiryHandler(expirer CardExpirer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload GiftCardExpiryPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		n, err := expirer.ExpireDue(ctx)
		if err != nil {
			return fmt.Errorf("gift card expiry scan: %w", err)
		}
		if n > 0 {
			logger.Info("gift card expiry scan complete", "expired", n)
		}
		return nil
	}
}
