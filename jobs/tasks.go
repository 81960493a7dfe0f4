package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReceiptEmail sends the receipt after a payment lands.
	TaskReceiptEmail = "receipt:email"
)

// ReceiptEmailPayload identifies the settled invoice to mail out.
type ReceiptEmailPayload struct {
	InvoiceID int64 `json:"invoice_id"`
}

// NewReceiptEmailTask constructs an Asynq task.
func NewReceiptEmailTask(payload ReceiptEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptEmail, data, asynq.Queue(QueueDefault)), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueReceipt schedules the receipt email for an invoice. Satisfies the
// invoice service's ReceiptEnqueuer.
func (c *Client) EnqueueReceipt(ctx context.Context, invoiceID int64) error {
	task, err := NewReceiptEmailTask(ReceiptEmailPayload{InvoiceID: invoiceID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task)
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
