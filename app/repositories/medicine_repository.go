package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/database"
)

// MedicineRepository handles database operations for Medicine.
type MedicineRepository struct {
	col *mongo.Collection
}

func NewMedicineRepository() *MedicineRepository {
	return &MedicineRepository{col: database.Collection("medicines")}
}

// All returns the full catalogue, newest first.
func (r *MedicineRepository) All(ctx context.Context) ([]models.Medicine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list medicines", err)
	}
	var meds []models.Medicine
	if err := cur.All(ctx, &meds); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode medicines", err)
	}
	return meds, nil
}

// ByVendor returns the medicines owned by one vendor.
func (r *MedicineRepository) ByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Medicine, error) {
	cur, err := r.col.Find(ctx, bson.M{"vendorId": vendorID})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list vendor medicines", err)
	}
	var meds []models.Medicine
	if err := cur.All(ctx, &meds); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode medicines", err)
	}
	return meds, nil
}

// FindByID returns one medicine.
func (r *MedicineRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Medicine, error) {
	var med models.Medicine
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&med)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return med, apperr.New(apperr.NotFound, "Medicine not found")
	}
	if err != nil {
		return med, apperr.Wrap(apperr.Internal, "find medicine", err)
	}
	return med, nil
}

// FindByIDs returns the medicines for a set of ids, keyed by id.
func (r *MedicineRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Medicine, error) {
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "find medicines", err)
	}
	var meds []models.Medicine
	if err := cur.All(ctx, &meds); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode medicines", err)
	}
	out := make(map[primitive.ObjectID]models.Medicine, len(meds))
	for _, m := range meds {
		out[m.ID] = m
	}
	return out, nil
}

// Create persists a new medicine.
func (r *MedicineRepository) Create(ctx context.Context, med *models.Medicine) error {
	if med.AddedAt.IsZero() {
		med.AddedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, med)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create medicine", err)
	}
	med.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// Update replaces the mutable fields of a medicine.
func (r *MedicineRepository) Update(ctx context.Context, med *models.Medicine) error {
	res, err := r.col.UpdateByID(ctx, med.ID, bson.M{"$set": bson.M{
		"name":             med.Name,
		"brand":            med.Brand,
		"description":      med.Description,
		"category_id":      med.CategoryID,
		"price":            med.Price,
		"discount":         med.Discount,
		"stockQuantity":    med.StockQuantity,
		"req_prescription": med.ReqPrescription,
		"image":            med.Image,
	}})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update medicine", err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "Medicine not found")
	}
	return nil
}

// Delete removes a medicine.
func (r *MedicineRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "delete medicine", err)
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.NotFound, "Medicine not found")
	}
	return nil
}

// Upsert inserts by name or refreshes an existing medicine with the
// same name. Used by the catalogue sync job.
func (r *MedicineRepository) Upsert(ctx context.Context, med models.Medicine) (created bool, err error) {
	if med.AddedAt.IsZero() {
		med.AddedAt = time.Now().UTC()
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"name": med.Name},
		bson.M{"$set": bson.M{
			"brand":            med.Brand,
			"description":      med.Description,
			"category_id":      med.CategoryID,
			"price":            med.Price,
			"stockQuantity":    med.StockQuantity,
			"req_prescription": med.ReqPrescription,
		}, "$setOnInsert": bson.M{
			"name":    med.Name,
			"addedAt": med.AddedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, apperr.Wrap(apperr.Internal, "upsert medicine", err)
	}
	return res.UpsertedCount > 0, nil
}
