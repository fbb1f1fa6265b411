package inquiryRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asterias/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new inquiry and returns its ID.
func (r *mongoInquiryRepo) Create(ctx context.Context, inq models.Inquiry) (string, error) {
	if inq.ID == "" {
		inq.ID = uuid.New().String()
	}
	if inq.Status == "" {
		inq.Status = models.InquiryNew
	}
	if inq.CreatedAt.IsZero() {
		inq.CreatedAt = time.Now().UTC()
	}
	if _, err := r.coll.InsertOne(ctx, inq); err != nil {
		return "", fmt.Errorf("inserting inquiry: %w", err)
	}
	return inq.ID, nil
}

func (r *mongoInquiryRepo) GetByID(ctx context.Context, id string) (*models.Inquiry, error) {
	var inq models.Inquiry
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&inq)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inq, nil
}

// List returns the newest inquiries first. An empty status lists all.
func (r *mongoInquiryRepo) List(ctx context.Context, status models.InquiryStatus, limit int64) ([]models.Inquiry, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	inquiries := []models.Inquiry{}
	if err := cursor.All(ctx, &inquiries); err != nil {
		return nil, err
	}
	return inquiries, nil
}

func (r *mongoInquiryRepo) CountByStatus(ctx context.Context, status models.InquiryStatus) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"status": status})
}

func (r *mongoInquiryRepo) MarkAnswered(ctx context.Context, id string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"status": models.InquiryAnswered}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the lookup and listing indexes.
func (r *mongoInquiryRepo) EnsureIndexes(ctx context.Context) error {
	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_created_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create inquiry indexes: %w", err)
	}
	return nil
}
