package paymentRepo

import (
	"context"
	"errors"

	"asterias/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("payment event not found")

// PaymentEventRepository is the ledger of received gateway webhooks. The
// event ID is the document key, so a redelivered event is detected on insert.
type PaymentEventRepository interface {
	// Record stores a newly received event. It reports false when the event
	// was already recorded.
	Record(ctx context.Context, ev models.PaymentEvent) (bool, error)
	Get(ctx context.Context, eventID string) (*models.PaymentEvent, error)
	MarkProcessed(ctx context.Context, eventID, sessionID, bookingID string, procErr error) error
	CountUnprocessed(ctx context.Context) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoPaymentEventRepo struct {
	coll *mongo.Collection
}

func NewMongoPaymentEventRepo(db *mongo.Database) PaymentEventRepository {
	return &mongoPaymentEventRepo{coll: db.Collection("payment_events")}
}
