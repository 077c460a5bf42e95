package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
)

type fakeReminderStore struct {
	reminders  map[primitive.ObjectID]models.Reminder
	advanceErr error
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{reminders: make(map[primitive.ObjectID]models.Reminder)}
}

func (f *fakeReminderStore) ByUser(_ context.Context, userID primitive.ObjectID) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, r := range f.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminderStore) Create(_ context.Context, reminder *models.Reminder) error {
	reminder.ID = primitive.NewObjectID()
	f.reminders[reminder.ID] = *reminder
	return nil
}

func (f *fakeReminderStore) UpdateNextTrigger(_ context.Context, id, userID primitive.ObjectID, next time.Time) (models.Reminder, error) {
	r, ok := f.reminders[id]
	if !ok || r.UserID != userID {
		return models.Reminder{}, apperr.New(apperr.NotFound, "Reminder not found.")
	}
	r.NextTrigger = next
	f.reminders[id] = r
	return r, nil
}

func (f *fakeReminderStore) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	r, ok := f.reminders[id]
	if !ok || r.UserID != userID {
		return apperr.New(apperr.NotFound, "Reminder not found.")
	}
	delete(f.reminders, id)
	return nil
}

func (f *fakeReminderStore) DueBefore(_ context.Context, t time.Time) ([]models.Reminder, error) {
	var out []models.Reminder
	for _, r := range f.reminders {
		if !r.NextTrigger.After(t) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReminderStore) Advance(_ context.Context, id primitive.ObjectID, next time.Time) error {
	if f.advanceErr != nil {
		return f.advanceErr
	}
	r, ok := f.reminders[id]
	if !ok {
		return apperr.New(apperr.NotFound, "Reminder not found.")
	}
	r.NextTrigger = next
	f.reminders[id] = r
	return nil
}

func TestAddDefaultsNextTriggerToOneInterval(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store)
	userID := primitive.NewObjectID()

	before := time.Now().UTC()
	reminder, err := svc.Add(context.Background(), userID, AddReminderInput{
		Medicine:  "Metformin 500mg",
		TimeValue: 8,
		TimeUnit:  models.UnitHours,
	})
	require.NoError(t, err)

	assert.False(t, reminder.ID.IsZero())
	assert.Equal(t, userID, reminder.UserID)
	// First alert lands eight hours out when no explicit trigger is given.
	assert.WithinDuration(t, before.Add(8*time.Hour), reminder.NextTrigger, 5*time.Second)
}

func TestAddKeepsExplicitNextTrigger(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store)
	at := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	reminder, err := svc.Add(context.Background(), primitive.NewObjectID(), AddReminderInput{
		Medicine:    "Cetirizine 10mg",
		TimeValue:   30,
		TimeUnit:    models.UnitMinutes,
		NextTrigger: at,
	})
	require.NoError(t, err)
	assert.True(t, reminder.NextTrigger.Equal(at))
}

func TestSnoozeRejectsZeroTime(t *testing.T) {
	svc := NewReminderService(newFakeReminderStore())

	_, err := svc.Snooze(context.Background(), primitive.NewObjectID(), primitive.NewObjectID(), time.Time{})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestSnoozeMovesTrigger(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store)
	userID := primitive.NewObjectID()

	reminder, err := svc.Add(context.Background(), userID, AddReminderInput{
		Medicine:  "Omeprazole 20mg",
		TimeValue: 12,
		TimeUnit:  models.UnitHours,
	})
	require.NoError(t, err)

	next := time.Now().UTC().Add(48 * time.Hour)
	updated, err := svc.Snooze(context.Background(), userID, reminder.ID, next)
	require.NoError(t, err)
	assert.True(t, updated.NextTrigger.Equal(next))
}

func TestSnoozeOtherUsersReminder(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store)

	reminder, err := svc.Add(context.Background(), primitive.NewObjectID(), AddReminderInput{
		Medicine:  "Aspirin 75mg",
		TimeValue: 1,
		TimeUnit:  models.UnitHours,
	})
	require.NoError(t, err)

	_, err = svc.Snooze(context.Background(), primitive.NewObjectID(), reminder.ID, time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestDispatchDueAdvancesAndReportsFired(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store)
	userID := primitive.NewObjectID()
	now := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)

	overdue := models.Reminder{
		Medicine:    "Metformin 500mg",
		TimeValue:   6,
		TimeUnit:    models.UnitHours,
		NextTrigger: now.Add(-time.Minute),
		UserID:      userID,
	}
	require.NoError(t, store.Create(context.Background(), &overdue))

	future := models.Reminder{
		Medicine:    "Cetirizine 10mg",
		TimeValue:   30,
		TimeUnit:    models.UnitMinutes,
		NextTrigger: now.Add(time.Hour),
		UserID:      userID,
	}
	require.NoError(t, store.Create(context.Background(), &future))

	fired, err := svc.DispatchDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, "Metformin 500mg", fired[0].Medicine)

	// The fired reminder is rescheduled one interval past the sweep time.
	rescheduled := store.reminders[overdue.ID]
	assert.True(t, rescheduled.NextTrigger.Equal(now.Add(6*time.Hour)))

	// The future one is untouched.
	assert.True(t, store.reminders[future.ID].NextTrigger.Equal(now.Add(time.Hour)))
}

func TestDispatchDueNothingDue(t *testing.T) {
	store := newFakeReminderStore()
	svc := NewReminderService(store)

	fired, err := svc.DispatchDue(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestIntervalConversion(t *testing.T) {
	assert.Equal(t, 90*time.Minute, models.Reminder{TimeValue: 90, TimeUnit: models.UnitMinutes}.Interval())
	assert.Equal(t, 2*time.Hour, models.Reminder{TimeValue: 2, TimeUnit: models.UnitHours}.Interval())
}
