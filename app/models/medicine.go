package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Medicine is a catalogue item sold by a vendor.
type Medicine struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name            string              `bson:"name" json:"name"`
	Brand           string              `bson:"brand" json:"brand"`
	Description     string              `bson:"description" json:"description"`
	CategoryID      *primitive.ObjectID `bson:"category_id,omitempty" json:"category_id,omitempty"`
	Price           float64             `bson:"price" json:"price"`
	Discount        float64             `bson:"discount" json:"discount"`
	StockQuantity   int64               `bson:"stockQuantity" json:"stockQuantity"`
	ReqPrescription bool                `bson:"req_prescription" json:"req_prescription"`
	VendorID        *primitive.ObjectID `bson:"vendorId,omitempty" json:"vendorId,omitempty"`
	Image           string              `bson:"image,omitempty" json:"image,omitempty"`
	AddedAt         time.Time           `bson:"addedAt" json:"addedAt"`
}

// EffectivePrice returns the price after discount.
func (m Medicine) EffectivePrice() float64 {
	if m.Discount <= 0 {
		return m.Price
	}
	return m.Price - m.Price*m.Discount/100
}
