package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"asterias/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type enqueued struct {
	task *asynq.Task
	opts map[asynq.OptionType]any
}

type recordingClient struct {
	err  error
	sent []enqueued
}

func (r *recordingClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	e := enqueued{task: task, opts: map[asynq.OptionType]any{}}
	for _, o := range opts {
		e.opts[o.Type()] = o.Value()
	}
	r.sent = append(r.sent, e)
	return &asynq.TaskInfo{}, nil
}

func TestEnqueueCheckoutExpiry(t *testing.T) {
	client := &recordingClient{}
	q := NewQueue(client)

	require.NoError(t, q.EnqueueCheckoutExpiry(context.Background(), "cs_1", 30*time.Minute))
	require.Len(t, client.sent, 1)
	got := client.sent[0]
	assert.Equal(t, TypeCheckoutExpire, got.task.Type())
	assert.Equal(t, QueueCheckout, got.opts[asynq.QueueOpt])
	assert.Equal(t, 30*time.Minute, got.opts[asynq.ProcessInOpt])
	assert.Equal(t, "expire:cs_1", got.opts[asynq.TaskIDOpt])

	var p CheckoutExpiryPayload
	require.NoError(t, json.Unmarshal(got.task.Payload(), &p))
	assert.Equal(t, "cs_1", p.SessionID)
}

func TestEnqueueMail(t *testing.T) {
	client := &recordingClient{}
	q := NewQueue(client)
	ctx := context.Background()

	require.NoError(t, q.EnqueueBookingConfirmation(ctx, models.BookingConfirmationPayload{BookingID: "b1", Reference: "AST-1"}))
	require.NoError(t, q.EnqueueContactInquiry(ctx, models.ContactInquiryPayload{InquiryID: "i1", Email: "guest@example.com"}))
	require.Len(t, client.sent, 2)

	assert.Equal(t, TypeBookingConfirmation, client.sent[0].task.Type())
	assert.Equal(t, QueueMail, client.sent[0].opts[asynq.QueueOpt])
	assert.Equal(t, "booking-mail:b1", client.sent[0].opts[asynq.TaskIDOpt])

	assert.Equal(t, TypeContactInquiry, client.sent[1].task.Type())
	assert.Equal(t, QueueMail, client.sent[1].opts[asynq.QueueOpt])
	assert.NotContains(t, client.sent[1].opts, asynq.TaskIDOpt)
}

func TestDuplicateTaskIDIsNotAnError(t *testing.T) {
	q := NewQueue(&recordingClient{err: asynq.ErrTaskIDConflict})
	assert.NoError(t, q.EnqueueCheckoutExpiry(context.Background(), "cs_1", time.Minute))
}

func TestEnqueueFailureIsWrapped(t *testing.T) {
	down := errors.New("redis: connection refused")
	q := NewQueue(&recordingClient{err: down})

	err := q.EnqueueContactInquiry(context.Background(), models.ContactInquiryPayload{InquiryID: "i1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), TypeContactInquiry)
}
