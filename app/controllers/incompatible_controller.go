package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/bind"
	"github.com/shashiranjanraj/sehatly/pkg/response"
)

type IncompatibleController struct {
	service *services.IncompatibleService
}

func NewIncompatibleController(service *services.IncompatibleService) *IncompatibleController {
	return &IncompatibleController{service: service}
}

type checkInput struct {
	Medicines []string `json:"medicines" validate:"required"`
}

// Check handles POST /api/incompatible/check. The response shape is
// fixed by the storefront client: {conflict, pairs}.
func (c *IncompatibleController) Check(w http.ResponseWriter, r *http.Request) {
	var in checkInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := c.service.Check(r.Context(), in.Medicines)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Add handles POST /api/incompatible/add (admin).
func (c *IncompatibleController) Add(w http.ResponseWriter, r *http.Request) {
	var in services.AddPairInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	pair, err := c.service.AddPair(r.Context(), in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, pair)
}

// All handles GET /api/incompatible/all (admin).
func (c *IncompatibleController) All(w http.ResponseWriter, r *http.Request) {
	pairs, err := c.service.AllPairs(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, pairs)
}
