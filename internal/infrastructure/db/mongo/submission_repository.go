package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hourbook/volunteer-api/internal/core/domain"
)

const collectionSubmissions = "submissions"

var signatureFields = map[domain.SignatureKind]string{
	domain.SignatureStudent:     "signature_key",
	domain.SignatureSupervisor:  "supervisor_signature_key",
	domain.SignaturePreApproved: "pre_approved_signature_key",
}

type SubmissionRepository struct {
	col *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database) *SubmissionRepository {
	return &SubmissionRepository{col: db.Collection(collectionSubmissions)}
}

type submissionDocument struct {
	ID                      string    `bson:"_id"`
	StudentID               string    `bson:"student_id"`
	OrgName                 string    `bson:"org_name"`
	Hours                   float64   `bson:"hours"`
	SubmissionDate          time.Time `bson:"submission_date"`
	Description             string    `bson:"description"`
	Status                  string    `bson:"status"`
	SignatureKey            string    `bson:"signature_key"`
	SupervisorSignatureKey  string    `bson:"supervisor_signature_key"`
	PreApprovedSignatureKey string    `bson:"pre_approved_signature_key"`
	CreatedAt               time.Time `bson:"created_at"`
	UpdatedAt               time.Time `bson:"updated_at"`
}

func fromSubmission(s *domain.Submission) submissionDocument {
	return submissionDocument{
		ID:                      s.ID,
		StudentID:               s.StudentID,
		OrgName:                 s.OrgName,
		Hours:                   s.Hours,
		SubmissionDate:          s.SubmissionDate,
		Description:             s.Description,
		Status:                  string(s.Status),
		SignatureKey:            s.SignatureKey,
		SupervisorSignatureKey:  s.SupervisorSignatureKey,
		PreApprovedSignatureKey: s.PreApprovedSignatureKey,
		CreatedAt:               s.CreatedAt,
		UpdatedAt:               s.UpdatedAt,
	}
}

func (d submissionDocument) toDomain() *domain.Submission {
	return &domain.Submission{
		ID:                      d.ID,
		StudentID:               d.StudentID,
		OrgName:                 d.OrgName,
		Hours:                   d.Hours,
		SubmissionDate:          d.SubmissionDate.UTC(),
		Description:             d.Description,
		Status:                  domain.SubmissionStatus(d.Status),
		SignatureKey:            d.SignatureKey,
		SupervisorSignatureKey:  d.SupervisorSignatureKey,
		PreApprovedSignatureKey: d.PreApprovedSignatureKey,
		CreatedAt:               d.CreatedAt.UTC(),
		UpdatedAt:               d.UpdatedAt.UTC(),
	}
}

// Create inserts a new submission document.
func (r *SubmissionRepository) Create(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := fromSubmission(s)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SubmissionRepository) FindByID(ctx context.Context, id string) (*domain.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc submissionDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("find submission: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.Submission, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "submission_date", Value: -1},
		{Key: "created_at", Value: -1},
	})
	cur, err := r.col.Find(ctx, bson.M{"student_id": studentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer cur.Close(ctx)

	var docs []submissionDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode submissions: %w", err)
	}

	items := make([]*domain.Submission, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.toDomain())
	}
	return items, nil
}

func (r *SubmissionRepository) SetSignatureKey(ctx context.Context, id string, kind domain.SignatureKind, key string) (*domain.Submission, error) {
	field, ok := signatureFields[kind]
	if !ok {
		return nil, domain.ErrInvalidSignatureKind
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		field:        key,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc submissionDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("set signature key: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the index backing the owner listing.
func (r *SubmissionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "student_id", Value: 1}, {Key: "submission_date", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
