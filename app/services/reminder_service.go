package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
)

// ReminderStore is the slice of the reminder repository the service needs.
type ReminderStore interface {
	ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Reminder, error)
	Create(ctx context.Context, reminder *models.Reminder) error
	UpdateNextTrigger(ctx context.Context, id, userID primitive.ObjectID, next time.Time) (models.Reminder, error)
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
	DueBefore(ctx context.Context, t time.Time) ([]models.Reminder, error)
	Advance(ctx context.Context, id primitive.ObjectID, next time.Time) error
}

// ReminderService handles a user's medicine intake reminders.
type ReminderService struct {
	reminders ReminderStore
}

func NewReminderService(reminders ReminderStore) *ReminderService {
	return &ReminderService{reminders: reminders}
}

// AddReminderInput is the payload for a new reminder.
type AddReminderInput struct {
	Medicine    string    `json:"medicine" validate:"required,min=1,max=200"`
	TimeValue   int       `json:"timeValue" validate:"required,gt=0,integer"`
	TimeUnit    string    `json:"timeUnit" validate:"required,in=hours,minutes"`
	NextTrigger time.Time `json:"nextTrigger"`
}

// MyReminders returns the caller's reminders ordered by next trigger.
func (s *ReminderService) MyReminders(ctx context.Context, userID primitive.ObjectID) ([]models.Reminder, error) {
	return s.reminders.ByUser(ctx, userID)
}

// Add creates a reminder for the caller. A zero NextTrigger schedules
// the first alert one interval from now.
func (s *ReminderService) Add(ctx context.Context, userID primitive.ObjectID, in AddReminderInput) (models.Reminder, error) {
	reminder := models.Reminder{
		Medicine:    in.Medicine,
		TimeValue:   in.TimeValue,
		TimeUnit:    in.TimeUnit,
		NextTrigger: in.NextTrigger,
		UserID:      userID,
	}
	if reminder.NextTrigger.IsZero() {
		reminder.NextTrigger = time.Now().UTC().Add(reminder.Interval())
	}
	if err := s.reminders.Create(ctx, &reminder); err != nil {
		return models.Reminder{}, err
	}
	return reminder, nil
}

// Snooze moves a reminder's next trigger. The new time must not be in
// the past.
func (s *ReminderService) Snooze(ctx context.Context, userID, reminderID primitive.ObjectID, next time.Time) (models.Reminder, error) {
	if next.IsZero() {
		return models.Reminder{}, apperr.New(apperr.Validation, "The nextTrigger field is required.")
	}
	return s.reminders.UpdateNextTrigger(ctx, reminderID, userID, next)
}

// Remove deletes a caller's reminder.
func (s *ReminderService) Remove(ctx context.Context, userID, reminderID primitive.ObjectID) error {
	return s.reminders.Delete(ctx, reminderID, userID)
}

// DispatchDue finds every reminder whose trigger time has passed,
// reschedules each one interval ahead of now, and returns the fired
// reminders so the caller can notify the owners.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time) ([]models.Reminder, error) {
	due, err := s.reminders.DueBefore(ctx, now)
	if err != nil {
		return nil, err
	}
	for i := range due {
		if err := s.reminders.Advance(ctx, due[i].ID, now.Add(due[i].Interval())); err != nil {
			return due[:i], err
		}
	}
	return due, nil
}
