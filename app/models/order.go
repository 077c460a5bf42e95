package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Order statuses. An order starts Pending and moves forward only.
const (
	OrderPending   = "Pending"
	OrderPaid      = "Paid"
	OrderShipped   = "Shipped"
	OrderDelivered = "Delivered"
	OrderCancelled = "Cancelled"
)

// Payment statuses.
const (
	PaymentPending    = "Pending"
	PaymentSuccessful = "Successful"
	PaymentFailed     = "Failed"
)

// Payment methods.
const (
	MethodCOD    = "Cash on Delivery"
	MethodStripe = "Stripe"
)

// CustomerInfo is the delivery block embedded in an order.
type CustomerInfo struct {
	FullName     string `bson:"fullName" json:"fullName"`
	Address      string `bson:"address" json:"address"`
	Phone        string `bson:"phone" json:"phone"`
	RiderMsg     string `bson:"riderMsg,omitempty" json:"riderMsg,omitempty"`
	PharmacyNote string `bson:"pharmacyNote,omitempty" json:"pharmacyNote,omitempty"`
	DeliveryETA  string `bson:"deliveryETA,omitempty" json:"deliveryETA,omitempty"`
}

// Order is the head record of a purchase. Line items live in
// order_details and the payment record in payments, tied by OrderID.
type Order struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Status       string             `bson:"status" json:"status"`
	TotalPrice   float64            `bson:"totalPrice" json:"totalPrice"`
	DeliveryFee  float64            `bson:"deliveryFee" json:"deliveryFee"`
	CustomerInfo CustomerInfo       `bson:"customerInfo" json:"customerInfo"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Terminal reports whether the order can no longer change state
// through payment confirmation.
func (o Order) Terminal() bool {
	return o.Status == OrderDelivered || o.Status == OrderCancelled
}

// OrderDetail is one line item of an order.
type OrderDetail struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OrderID    primitive.ObjectID `bson:"orderId" json:"orderId"`
	MedicineID primitive.ObjectID `bson:"medicineId" json:"medicineId"`
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	UnitPrice  float64            `bson:"unitPrice" json:"unitPrice"`
	Quantity   int64              `bson:"quantity" json:"quantity"`
}

// Payment is the money record for an order.
type Payment struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	OrderID               primitive.ObjectID `bson:"orderId" json:"orderId"`
	PaymentMethod         string             `bson:"paymentMethod" json:"paymentMethod"`
	Amount                float64            `bson:"amount" json:"amount"`
	Status                string             `bson:"status" json:"status"`
	Provider              string             `bson:"provider,omitempty" json:"provider,omitempty"`
	ProviderTransactionID string             `bson:"providerTransactionId,omitempty" json:"providerTransactionId,omitempty"`
	TransactionDate       time.Time          `bson:"transactionDate" json:"transactionDate"`
}
