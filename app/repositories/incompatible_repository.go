package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/database"
)

// IncompatibleRepository handles the drug incompatibility pairs.
type IncompatibleRepository struct {
	col *mongo.Collection
}

func NewIncompatibleRepository() *IncompatibleRepository {
	return &IncompatibleRepository{col: database.Collection("incompatibles")}
}

// All returns every known incompatible pair.
func (r *IncompatibleRepository) All(ctx context.Context) ([]models.Incompatible, error) {
	cur, err := r.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list incompatibles", err)
	}
	var pairs []models.Incompatible
	if err := cur.All(ctx, &pairs); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode incompatibles", err)
	}
	return pairs, nil
}

// Create persists a new pair.
func (r *IncompatibleRepository) Create(ctx context.Context, pair *models.Incompatible) error {
	res, err := r.col.InsertOne(ctx, pair)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create incompatible pair", err)
	}
	pair.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}
