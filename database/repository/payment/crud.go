package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asterias/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoPaymentEventRepo) Record(ctx context.Context, ev models.PaymentEvent) (bool, error) {
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	ev.Processed = false
	_, err := r.coll.InsertOne(ctx, ev)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("recording payment event %s: %w", ev.EventID, err)
	}
	return true, nil
}

func (r *mongoPaymentEventRepo) Get(ctx context.Context, eventID string) (*models.PaymentEvent, error) {
	var ev models.PaymentEvent
	err := r.coll.FindOne(ctx, bson.M{"_id": eventID}).Decode(&ev)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// MarkProcessed closes a ledger entry. A non-nil procErr is kept on the entry
// and leaves it unprocessed so it shows up for follow-up.
func (r *mongoPaymentEventRepo) MarkProcessed(ctx context.Context, eventID, sessionID, bookingID string, procErr error) error {
	set := bson.M{"processedAt": time.Now().UTC(), "processed": procErr == nil}
	if sessionID != "" {
		set["sessionId"] = sessionID
	}
	if bookingID != "" {
		set["bookingId"] = bookingID
	}
	update := bson.M{"$set": set}
	if procErr != nil {
		set["error"] = procErr.Error()
	} else {
		update["$unset"] = bson.M{"error": ""}
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": eventID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoPaymentEventRepo) CountUnprocessed(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"processed": false})
}

func (r *mongoPaymentEventRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "paymentIntentId", Value: 1}},
			Options: options.Index().SetName("payment_intent_idx"),
		},
		{
			Keys:    bson.D{{Key: "processed", Value: 1}, {Key: "receivedAt", Value: -1}},
			Options: options.Index().SetName("processed_received_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create payment event indexes: %w", err)
	}
	return nil
}
