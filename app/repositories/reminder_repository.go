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

// ReminderRepository handles medicine intake reminders.
// Every operation is scoped to the owning user.
type ReminderRepository struct {
	col *mongo.Collection
}

func NewReminderRepository() *ReminderRepository {
	return &ReminderRepository{col: database.Collection("reminders")}
}

// ByUser returns a user's reminders ordered by next trigger.
func (r *ReminderRepository) ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Reminder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "nextTrigger", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list reminders", err)
	}
	var reminders []models.Reminder
	if err := cur.All(ctx, &reminders); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode reminders", err)
	}
	return reminders, nil
}

// Create persists a new reminder.
func (r *ReminderRepository) Create(ctx context.Context, reminder *models.Reminder) error {
	res, err := r.col.InsertOne(ctx, reminder)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "create reminder", err)
	}
	reminder.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// UpdateNextTrigger snoozes a reminder. The userID filter keeps one
// user from touching another user's reminders.
func (r *ReminderRepository) UpdateNextTrigger(ctx context.Context, id, userID primitive.ObjectID, next time.Time) (models.Reminder, error) {
	var updated models.Reminder
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user": userID},
		bson.M{"$set": bson.M{"nextTrigger": next}},
		opts,
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return updated, apperr.New(apperr.NotFound, "Reminder not found")
	}
	if err != nil {
		return updated, apperr.Wrap(apperr.Internal, "update reminder", err)
	}
	return updated, nil
}

// DueBefore returns every reminder across all users whose next trigger
// has passed. Used by the background sweep.
func (r *ReminderRepository) DueBefore(ctx context.Context, t time.Time) ([]models.Reminder, error) {
	cur, err := r.col.Find(ctx, bson.M{"nextTrigger": bson.M{"$lte": t}})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "find due reminders", err)
	}
	var reminders []models.Reminder
	if err := cur.All(ctx, &reminders); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode due reminders", err)
	}
	return reminders, nil
}

// Advance moves a reminder's next trigger without a user scope. Only the
// background sweep calls this.
func (r *ReminderRepository) Advance(ctx context.Context, id primitive.ObjectID, next time.Time) error {
	_, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"nextTrigger": next}})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "advance reminder", err)
	}
	return nil
}

// Delete removes a user's reminder.
func (r *ReminderRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user": userID})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "delete reminder", err)
	}
	if res.DeletedCount == 0 {
		return apperr.New(apperr.NotFound, "Reminder not found")
	}
	return nil
}
