package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/bind"
	"github.com/shashiranjanraj/sehatly/pkg/resource"
	"github.com/shashiranjanraj/sehatly/pkg/response"
)

type VendorController struct {
	service *services.VendorService
}

func NewVendorController(service *services.VendorService) *VendorController {
	return &VendorController{service: service}
}

// SubmitRequest handles POST /api/vendors/request (public).
func (c *VendorController) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var in services.VendorRequestInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	req, err := c.service.SubmitRequest(r.Context(), in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, req)
}

// vendorRequestResource shapes an application for the admin queue.
// Contact numbers are masked down to the last two digits.
type vendorRequestResource struct{ resource.Base }

func (vendorRequestResource) ToArray(v interface{}) resource.Map {
	req := v.(models.VendorRequest)
	return resource.Map{
		"_id":          req.ID,
		"name":         req.Name,
		"email":        req.Email,
		"phone":        maskPhone(req.Phone),
		"businessName": req.BusinessName,
		"serviceType":  req.ServiceType,
		"city":         req.City,
		"website":      req.Website,
		"message":      req.Message,
		"status":       req.Status,
		"createdAt":    req.CreatedAt,
	}
}

func maskPhone(phone string) string {
	if len(phone) <= 2 {
		return phone
	}
	masked := make([]byte, len(phone)-2)
	for i := range masked {
		masked[i] = '*'
	}
	return string(masked) + phone[len(phone)-2:]
}

// ListRequests handles GET /api/vendors/requests (admin).
func (c *VendorController) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := c.service.ListRequests(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	resource.CollectionOf(vendorRequestResource{}, reqs).
		WithMeta(resource.Map{"total": len(reqs)}).
		Respond(w)
}

// Approve handles POST /api/vendors/requests/{id}/approve (admin).
func (c *VendorController) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	vendor, err := c.service.Approve(r.Context(), id)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, vendor)
}

// Reject handles POST /api/vendors/requests/{id}/reject (admin).
func (c *VendorController) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request id")
		return
	}

	if err := c.service.Reject(r.Context(), id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Request rejected"})
}
