package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reminder time units.
const (
	UnitHours   = "hours"
	UnitMinutes = "minutes"
)

// Reminder schedules a recurring medicine intake alert for a user.
type Reminder struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Medicine    string             `bson:"medicine" json:"medicine"`
	TimeValue   int                `bson:"timeValue" json:"timeValue"`
	TimeUnit    string             `bson:"timeUnit" json:"timeUnit"`
	NextTrigger time.Time          `bson:"nextTrigger" json:"nextTrigger"`
	UserID      primitive.ObjectID `bson:"user" json:"user"`
}

// Interval converts TimeValue/TimeUnit to a duration.
func (r Reminder) Interval() time.Duration {
	if r.TimeUnit == UnitMinutes {
		return time.Duration(r.TimeValue) * time.Minute
	}
	return time.Duration(r.TimeValue) * time.Hour
}
