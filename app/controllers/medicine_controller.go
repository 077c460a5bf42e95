package controllers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/bind"
	"github.com/shashiranjanraj/sehatly/pkg/response"
	"github.com/shashiranjanraj/sehatly/pkg/validate"
)

// maxImageBytes caps medicine image uploads.
const maxImageBytes = 8 << 20

type MedicineController struct {
	service *services.MedicineService
}

func NewMedicineController(service *services.MedicineService) *MedicineController {
	return &MedicineController{service: service}
}

// Index handles GET /api/medicines (public catalogue).
func (c *MedicineController) Index(w http.ResponseWriter, r *http.Request) {
	meds, err := c.service.Catalogue(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, meds)
}

// VendorIndex handles GET /api/medicines/vendor.
func (c *MedicineController) VendorIndex(w http.ResponseWriter, r *http.Request) {
	vendorID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}
	meds, err := c.service.VendorMedicines(r.Context(), vendorID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, meds)
}

// Add handles POST /api/medicines/add. The body is multipart form
// data: the item fields plus an optional "image" file part.
func (c *MedicineController) Add(w http.ResponseWriter, r *http.Request) {
	vendorID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	in := services.AddMedicineInput{
		Name:        r.FormValue("name"),
		Brand:       r.FormValue("brand"),
		Description: r.FormValue("description"),
		CategoryID:  r.FormValue("category_id"),
	}
	in.Price, _ = strconv.ParseFloat(r.FormValue("price"), 64)
	in.Discount, _ = strconv.ParseFloat(r.FormValue("discount"), 64)
	in.StockQuantity, _ = strconv.ParseInt(r.FormValue("stockQuantity"), 10, 64)
	in.ReqPrescription, _ = strconv.ParseBool(r.FormValue("req_prescription"))

	if errs := validate.Struct(in); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	var image io.Reader
	var imageName string
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		image = file
		imageName = header.Filename
	}

	med, err := c.service.AddMedicine(r.Context(), vendorID, in, image, imageName)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, med)
}

type updateStockInput struct {
	StockQuantity int64 `json:"stockQuantity" validate:"gte=0,integer"`
}

// UpdateStock handles PUT /api/medicines/update-stock/{id}.
func (c *MedicineController) UpdateStock(w http.ResponseWriter, r *http.Request) {
	actorID, claims, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	medID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid medicine id")
		return
	}

	var in updateStockInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	med, err := c.service.UpdateStock(r.Context(), actorID, claims.Role, medID, in.StockQuantity)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, med)
}
