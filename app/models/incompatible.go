package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Incompatible records that two drugs must not be taken together.
// The pair is symmetric: (A, B) and (B, A) mean the same thing.
type Incompatible struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	DrugA string             `bson:"drugA" json:"drugA"`
	DrugB string             `bson:"drugB" json:"drugB"`
}
