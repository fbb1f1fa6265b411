package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"asterias/models"

	"github.com/hibiken/asynq"
)

const (
	TypeBookingConfirmation = "email:booking_confirmation"
	TypeContactInquiry      = "email:contact_inquiry"
	TypeCheckoutExpire      = "checkout:expire"
)

const (
	QueueMail     = "mail"
	QueueCheckout = "checkout"
)

// CheckoutExpiryPayload names the session to settle.
type CheckoutExpiryPayload struct {
	SessionID string `json:"sessionId"`
}

func NewBookingConfirmationTask(p models.BookingConfirmationPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueMail),
		asynq.MaxRetry(10),
		asynq.TaskID("booking-mail:" + p.BookingID),
	}
	return asynq.NewTask(TypeBookingConfirmation, b), opts, nil
}

func NewContactInquiryTask(p models.ContactInquiryPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueMail), asynq.MaxRetry(5)}
	return asynq.NewTask(TypeContactInquiry, b), opts, nil
}

// NewCheckoutExpiryTask fires once the checkout window of sessionID closes.
func NewCheckoutExpiryTask(sessionID string, after time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(CheckoutExpiryPayload{SessionID: sessionID})
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.Queue(QueueCheckout),
		asynq.ProcessIn(after),
		asynq.MaxRetry(5),
		asynq.TaskID("expire:" + sessionID),
	}
	return asynq.NewTask(TypeCheckoutExpire, b), opts, nil
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue schedules the site's background tasks.
type Queue struct {
	client Enqueuer
}

func NewQueue(client Enqueuer) *Queue {
	return &Queue{client: client}
}

func (q *Queue) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option) error {
	_, err := q.client.EnqueueContext(ctx, task, opts...)
	// A task with the same ID is already scheduled.
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("tasks: enqueueing %s: %w", task.Type(), err)
	}
	return nil
}

func (q *Queue) EnqueueBookingConfirmation(ctx context.Context, p models.BookingConfirmationPayload) error {
	task, opts, err := NewBookingConfirmationTask(p)
	if err != nil {
		return fmt.Errorf("tasks: building booking confirmation: %w", err)
	}
	return q.enqueue(ctx, task, opts)
}

func (q *Queue) EnqueueContactInquiry(ctx context.Context, p models.ContactInquiryPayload) error {
	task, opts, err := NewContactInquiryTask(p)
	if err != nil {
		return fmt.Errorf("tasks: building contact inquiry: %w", err)
	}
	return q.enqueue(ctx, task, opts)
}

func (q *Queue) EnqueueCheckoutExpiry(ctx context.Context, sessionID string, after time.Duration) error {
	task, opts, err := NewCheckoutExpiryTask(sessionID, after)
	if err != nil {
		return fmt.Errorf("tasks: building checkout expiry: %w", err)
	}
	return q.enqueue(ctx, task, opts)
}
