package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VendorRequest statuses.
const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// VendorRequest is a pharmacy's application to sell on the platform.
// Approval deletes the request and mints a Vendor plus a vendor User.
type VendorRequest struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	BusinessName string             `bson:"businessName" json:"businessName"`
	ServiceType  string             `bson:"serviceType,omitempty" json:"serviceType,omitempty"`
	City         string             `bson:"city,omitempty" json:"city,omitempty"`
	Website      string             `bson:"website,omitempty" json:"website,omitempty"`
	Message      string             `bson:"message,omitempty" json:"message,omitempty"`
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Vendor is an approved selling pharmacy.
type Vendor struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	CompanyName string             `bson:"companyName" json:"companyName"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Password    string             `bson:"password" json:"-"` // bcrypt hash
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
