package inquiryRepo

import (
	"context"
	"errors"

	"asterias/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("inquiry not found")

type InquiryRepository interface {
	Create(ctx context.Context, inq models.Inquiry) (string, error)
	GetByID(ctx context.Context, id string) (*models.Inquiry, error)
	List(ctx context.Context, status models.InquiryStatus, limit int64) ([]models.Inquiry, error)
	CountByStatus(ctx context.Context, status models.InquiryStatus) (int64, error)
	MarkAnswered(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

type mongoInquiryRepo struct {
	coll *mongo.Collection
}

// NewMongoInquiryRepo stores contact-form submissions in the inquiries collection.
func NewMongoInquiryRepo(db *mongo.Database) InquiryRepository {
	return &mongoInquiryRepo{coll: db.Collection("inquiries")}
}
