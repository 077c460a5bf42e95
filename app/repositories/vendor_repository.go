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
	"github.com/shashiranjanraj/sehatly/pkg/crypt"
	"github.com/shashiranjanraj/sehatly/pkg/database"
)

// VendorRepository handles vendor applications and approved vendors.
type VendorRepository struct {
	requests *mongo.Collection
	vendors  *mongo.Collection
}

func NewVendorRepository() *VendorRepository {
	return &VendorRepository{
		requests: database.Collection("vendor_requests"),
		vendors:  database.Collection("vendors"),
	}
}

// CreateRequest files a new vendor application.
func (r *VendorRepository) CreateRequest(ctx context.Context, req *models.VendorRequest) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = models.RequestPending
	}
	// Contact numbers are stored encrypted at rest.
	if req.Phone != "" {
		enc, err := crypt.Encrypt(req.Phone)
		if err != nil {
			return apperr.Wrap(apperr.Internal, "encrypt contact number", err)
		}
		req.Phone = enc
	}
	res, err := r.requests.InsertOne(ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.New(apperr.Conflict, "A request with this email already exists")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create vendor request", err)
	}
	req.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// FindRequest returns one application.
func (r *VendorRepository) FindRequest(ctx context.Context, id primitive.ObjectID) (models.VendorRequest, error) {
	var req models.VendorRequest
	err := r.requests.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return req, apperr.New(apperr.NotFound, "Vendor request not found")
	}
	if err != nil {
		return req, apperr.Wrap(apperr.Internal, "find vendor request", err)
	}
	decryptRequestPhone(&req)
	return req, nil
}

// decryptRequestPhone restores the plaintext contact number. Records written
// before encryption was introduced are left as stored.
func decryptRequestPhone(req *models.VendorRequest) {
	if req.Phone == "" {
		return
	}
	if plain, err := crypt.Decrypt(req.Phone); err == nil {
		req.Phone = plain
	}
}

// AllRequests returns every application, newest first.
func (r *VendorRepository) AllRequests(ctx context.Context) ([]models.VendorRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.requests.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list vendor requests", err)
	}
	var reqs []models.VendorRequest
	if err := cur.All(ctx, &reqs); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode vendor requests", err)
	}
	for i := range reqs {
		decryptRequestPhone(&reqs[i])
	}
	return reqs, nil
}

// DeleteRequest removes an application after it has been decided.
func (r *VendorRepository) DeleteRequest(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.requests.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "delete vendor request", err)
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.NotFound, "Vendor request not found")
	}
	return nil
}

// MarkRequestRejected flips an application to rejected.
func (r *VendorRepository) MarkRequestRejected(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.requests.UpdateByID(ctx, id, bson.M{"$set": bson.M{"status": models.RequestRejected}})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "reject vendor request", err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "Vendor request not found")
	}
	return nil
}

// CreateVendor persists an approved vendor.
func (r *VendorRepository) CreateVendor(ctx context.Context, v *models.Vendor) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	res, err := r.vendors.InsertOne(ctx, v)
	if mongo.IsDuplicateKeyError(err) {
		return apperr.New(apperr.Conflict, "A vendor with this email already exists")
	}
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create vendor", err)
	}
	v.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// AllVendors returns every approved vendor.
func (r *VendorRepository) AllVendors(ctx context.Context) ([]models.Vendor, error) {
	cur, err := r.vendors.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list vendors", err)
	}
	var vendors []models.Vendor
	if err := cur.All(ctx, &vendors); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode vendors", err)
	}
	return vendors, nil
}
