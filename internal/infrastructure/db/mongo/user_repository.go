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

const (
	collectionUsers = "users"

	indexUserEmail          = "email_unique"
	indexUserAuthProviderID = "auth_provider_id_unique"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID             string    `bson:"_id"`
	AuthProviderID string    `bson:"auth_provider_id"`
	Email          string    `bson:"email"`
	Name           string    `bson:"name"`
	Role           string    `bson:"role"`
	SchoolID       string    `bson:"school_id"`
	OEN            string    `bson:"oen"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:             d.ID,
		AuthProviderID: d.AuthProviderID,
		Email:          d.Email,
		Name:           d.Name,
		Role:           domain.Role(d.Role),
		SchoolID:       d.SchoolID,
		OEN:            d.OEN,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDocument{
		ID:             user.ID,
		AuthProviderID: user.AuthProviderID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           string(user.Role),
		SchoolID:       user.SchoolID,
		OEN:            user.OEN,
		CreatedAt:      user.CreatedAt,
		UpdatedAt:      user.UpdatedAt,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if index, ok := duplicateIndex(err, indexUserEmail, indexUserAuthProviderID); ok {
			switch index {
			case indexUserEmail:
				return nil, domain.ErrEmailTaken
			case indexUserAuthProviderID:
				return nil, domain.ErrAuthProviderIDTaken
			}
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) FindByAuthProviderID(ctx context.Context, authProviderID string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"auth_provider_id": authProviderID})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id, oen, schoolID string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"oen":        oen,
		"school_id":  schoolID,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique indexes Create relies on for collision
// detection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(indexUserEmail).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "auth_provider_id", Value: 1}},
			Options: options.Index().SetName(indexUserAuthProviderID).SetUnique(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
