package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/storage"
)

// MedicineStore is the slice of the medicine repository the service needs.
type MedicineStore interface {
	All(ctx context.Context) ([]models.Medicine, error)
	ByVendor(ctx context.Context, vendorID primitive.ObjectID) ([]models.Medicine, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Medicine, error)
	Create(ctx context.Context, med *models.Medicine) error
	Update(ctx context.Context, med *models.Medicine) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ImageStore saves uploaded medicine images. The storage manager's
// default disk satisfies it.
type ImageStore interface {
	PutStream(path string, r io.Reader) error
	URL(path string) string
}

// managerDisk adapts the package-level storage helpers to ImageStore.
type managerDisk struct{}

func (managerDisk) PutStream(path string, r io.Reader) error { return storage.PutStream(path, r) }
func (managerDisk) URL(path string) string                   { return storage.URL(path) }

// NewManagerImageStore returns an ImageStore backed by the default
// storage disk.
func NewManagerImageStore() ImageStore { return managerDisk{} }

// MedicineService owns the catalogue.
type MedicineService struct {
	medicines MedicineStore
	images    ImageStore
}

func NewMedicineService(medicines MedicineStore, images ImageStore) *MedicineService {
	return &MedicineService{medicines: medicines, images: images}
}

// Catalogue returns the full medicine list for the storefront.
func (s *MedicineService) Catalogue(ctx context.Context) ([]models.Medicine, error) {
	return s.medicines.All(ctx)
}

// VendorMedicines returns the items owned by one vendor.
func (s *MedicineService) VendorMedicines(ctx context.Context, vendorID primitive.ObjectID) ([]models.Medicine, error) {
	return s.medicines.ByVendor(ctx, vendorID)
}

// AddMedicineInput is the vendor payload for a new catalogue item.
// The image arrives as a separate multipart part, not in this struct.
type AddMedicineInput struct {
	Name            string  `json:"name" validate:"required,min=2,max=200"`
	Brand           string  `json:"brand" validate:"required,min=1,max=200"`
	Description     string  `json:"description" validate:"required"`
	CategoryID      string  `json:"category_id" validate:"nullable"`
	Price           float64 `json:"price" validate:"required,gt=0"`
	Discount        float64 `json:"discount" validate:"nullable,gte=0,max=100"`
	StockQuantity   int64   `json:"stockQuantity" validate:"required,gte=0,integer"`
	ReqPrescription bool    `json:"req_prescription"`
}

// AddMedicine creates a catalogue item for a vendor, storing the
// uploaded image (if any) through the storage manager first.
func (s *MedicineService) AddMedicine(ctx context.Context, vendorID primitive.ObjectID, in AddMedicineInput, image io.Reader, imageName string) (models.Medicine, error) {
	med := models.Medicine{
		Name:            in.Name,
		Brand:           in.Brand,
		Description:     in.Description,
		Price:           in.Price,
		Discount:        in.Discount,
		StockQuantity:   in.StockQuantity,
		ReqPrescription: in.ReqPrescription,
		VendorID:        &vendorID,
		AddedAt:         time.Now().UTC(),
	}

	if in.CategoryID != "" {
		catID, err := primitive.ObjectIDFromHex(in.CategoryID)
		if err != nil {
			return models.Medicine{}, apperr.New(apperr.Validation, "Invalid category id")
		}
		med.CategoryID = &catID
	}

	if image != nil {
		path := imagePath(imageName)
		if err := s.images.PutStream(path, image); err != nil {
			return models.Medicine{}, apperr.Wrap(apperr.Internal, "store medicine image", err)
		}
		med.Image = path
	}

	if err := s.medicines.Create(ctx, &med); err != nil {
		return models.Medicine{}, err
	}
	return med, nil
}

// UpdateStock sets a medicine's stock level. Vendors may only restock
// their own items; admins may restock anything.
func (s *MedicineService) UpdateStock(ctx context.Context, actorID primitive.ObjectID, actorRole string, medicineID primitive.ObjectID, quantity int64) (models.Medicine, error) {
	if quantity < 0 {
		return models.Medicine{}, apperr.New(apperr.Validation, "Stock quantity cannot be negative")
	}

	med, err := s.medicines.FindByID(ctx, medicineID)
	if err != nil {
		return models.Medicine{}, err
	}
	if actorRole != models.RoleAdmin {
		if med.VendorID == nil || *med.VendorID != actorID {
			return models.Medicine{}, apperr.New(apperr.Forbidden, "You can only restock your own medicines")
		}
	}

	med.StockQuantity = quantity
	if err := s.medicines.Update(ctx, &med); err != nil {
		return models.Medicine{}, err
	}
	return med, nil
}

// ImageURL resolves a stored image path to its public URL.
func (s *MedicineService) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return s.images.URL(path)
}

func imagePath(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("images/medicines/%d%s", time.Now().UnixNano(), ext)
}
