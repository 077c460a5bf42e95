package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/database"
)

// UserRepository handles database operations for User.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository() *UserRepository {
	return &UserRepository{col: database.Collection("users")}
}

// FindByEmail looks up a user by their email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user, apperr.New(apperr.NotFound, "User not found")
	}
	if err != nil {
		return user, apperr.Wrap(apperr.Internal, "find user", err)
	}
	return user, nil
}

// FindByID looks up a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return user, apperr.New(apperr.NotFound, "User not found")
	}
	if err != nil {
		return user, apperr.Wrap(apperr.Internal, "find user", err)
	}
	return user, nil
}

// Create persists a new user record. Fails with Conflict when the
// email is already taken (unique index on email).
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.New(apperr.Conflict, "Email already registered")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create user", err)
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// All returns every user. Used by admin analytics.
func (r *UserRepository) All(ctx context.Context) ([]models.User, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list users", err)
	}
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode users", err)
	}
	return users, nil
}

// Count returns the number of registered users.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "count users", err)
	}
	return n, nil
}
