package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/bind"
	"github.com/shashiranjanraj/sehatly/pkg/response"
)

type AuthController struct {
	service *services.AuthService
}

func NewAuthController(service *services.AuthService) *AuthController {
	return &AuthController{service: service}
}

// Register handles POST /api/auth/register.
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, token, err := c.service.Register(r.Context(), in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, map[string]interface{}{
		"token": token,
		"user": map[string]string{
			"_id":   user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

type loginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles POST /api/auth/login.
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in loginInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	user, token, err := c.service.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]interface{}{
		"token": token,
		"user": map[string]string{
			"_id":   user.ID.Hex(),
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}
