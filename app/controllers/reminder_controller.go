package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/bind"
	"github.com/shashiranjanraj/sehatly/pkg/response"
)

type ReminderController struct {
	service *services.ReminderService
}

func NewReminderController(service *services.ReminderService) *ReminderController {
	return &ReminderController{service: service}
}

// MyReminders handles GET /api/reminders/my-reminders.
func (c *ReminderController) MyReminders(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}
	reminders, err := c.service.MyReminders(r.Context(), userID)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, reminders)
}

// Add handles POST /api/reminders/add.
func (c *ReminderController) Add(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	var in services.AddReminderInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	reminder, err := c.service.Add(r.Context(), userID, in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, reminder)
}

type snoozeInput struct {
	NextTrigger time.Time `json:"nextTrigger"`
}

// Snooze handles PUT /api/reminders/{id}.
func (c *ReminderController) Snooze(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid reminder id")
		return
	}

	var in snoozeInput
	if _, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reminder, err := c.service.Snooze(r.Context(), userID, id, in.NextTrigger)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, reminder)
}

// Delete handles DELETE /api/reminders/{id}.
func (c *ReminderController) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid reminder id")
		return
	}

	if err := c.service.Remove(r.Context(), userID, id); err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"message": "Reminder deleted"})
}
