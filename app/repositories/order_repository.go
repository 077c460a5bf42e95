package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/database"
)

// OrderRepository handles the order aggregate: the order head, its
// line items, the payment record and the stock decrements.
type OrderRepository struct {
	client    *mongo.Client
	orders    *mongo.Collection
	details   *mongo.Collection
	payments  *mongo.Collection
	medicines *mongo.Collection
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		client:    database.Client(),
		orders:    database.Collection("orders"),
		details:   database.Collection("order_details"),
		payments:  database.Collection("payments"),
		medicines: database.Collection("medicines"),
	}
}

// PlaceOrder writes the whole order aggregate in one multi-document
// transaction: the order head, every line item, the payment record
// and a guarded stock decrement per medicine. If any medicine has
// less stock than ordered the transaction aborts, nothing is written
// and a Conflict error names the offending medicine.
func (r *OrderRepository) PlaceOrder(ctx context.Context, order *models.Order, details []models.OrderDetail, payment *models.Payment) (primitive.ObjectID, error) {
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now
	if payment.TransactionDate.IsZero() {
		payment.TransactionDate = now
	}

	session, err := r.client.StartSession()
	if err != nil {
		return primitive.NilObjectID, apperr.Wrap(apperr.Internal, "start session", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.orders.InsertOne(sc, order)
		if err != nil {
			return nil, fmt.Errorf("insert order: %w", err)
		}
		orderID := res.InsertedID.(primitive.ObjectID)

		docs := make([]interface{}, 0, len(details))
		for i := range details {
			upd, err := r.medicines.UpdateOne(sc,
				bson.M{
					"_id":           details[i].MedicineID,
					"stockQuantity": bson.M{"$gte": details[i].Quantity},
				},
				bson.M{"$inc": bson.M{"stockQuantity": -details[i].Quantity}},
			)
			if err != nil {
				return nil, fmt.Errorf("decrement stock: %w", err)
			}
			if upd.ModifiedCount == 0 {
				return nil, apperr.Newf(apperr.Conflict,
					"Insufficient stock for medicine %s", details[i].MedicineID.Hex())
			}

			details[i].OrderID = orderID
			docs = append(docs, details[i])
		}
		if len(docs) > 0 {
			if _, err := r.details.InsertMany(sc, docs); err != nil {
				return nil, fmt.Errorf("insert order details: %w", err)
			}
		}

		payment.OrderID = orderID
		if _, err := r.payments.InsertOne(sc, payment); err != nil {
			return nil, fmt.Errorf("insert payment: %w", err)
		}

		return orderID, nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return primitive.NilObjectID, err
		}
		return primitive.NilObjectID, apperr.Wrap(apperr.Internal, "place order", err)
	}

	orderID := result.(primitive.ObjectID)
	order.ID = orderID
	return orderID, nil
}

// FindByID returns one order.
func (r *OrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error) {
	var order models.Order
	err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return order, apperr.New(apperr.NotFound, "Order not found")
	}
	if err != nil {
		return order, apperr.Wrap(apperr.Internal, "find order", err)
	}
	return order, nil
}

// ByUser returns a user's orders, newest first.
func (r *OrderRepository) ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.orders.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list orders", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode orders", err)
	}
	return orders, nil
}

// All returns every order. Used by admin analytics.
func (r *OrderRepository) All(ctx context.Context) ([]models.Order, error) {
	cur, err := r.orders.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list orders", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode orders", err)
	}
	return orders, nil
}

// CreatedSince returns orders created at or after the cutoff.
func (r *OrderRepository) CreatedSince(ctx context.Context, since time.Time) ([]models.Order, error) {
	cur, err := r.orders.Find(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list orders", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode orders", err)
	}
	return orders, nil
}

// CreatedBetween returns orders with from <= createdAt < to.
func (r *OrderRepository) CreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	cur, err := r.orders.Find(ctx, bson.M{"createdAt": bson.M{"$gte": from, "$lt": to}})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list orders", err)
	}
	var orders []models.Order
	if err := cur.All(ctx, &orders); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode orders", err)
	}
	return orders, nil
}

// Count returns the total number of orders.
func (r *OrderRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.orders.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, apperr.Wrap(apperr.Internal, "count orders", err)
	}
	return n, nil
}

// MarkPaid flips an order to Paid and records the provider transaction
// on its payment, both inside one transaction.
func (r *OrderRepository) MarkPaid(ctx context.Context, orderID primitive.ObjectID, providerTxnID string) error {
	session, err := r.client.StartSession()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "start session", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.orders.UpdateByID(sc, orderID, bson.M{"$set": bson.M{
			"status":    models.OrderPaid,
			"updatedAt": time.Now().UTC(),
		}})
		if err != nil {
			return nil, fmt.Errorf("update order: %w", err)
		}
		if res.MatchedCount == 0 {
			return nil, apperr.New(apperr.NotFound, "Order not found")
		}

		_, err = r.payments.UpdateOne(sc,
			bson.M{"orderId": orderID},
			bson.M{"$set": bson.M{
				"status":                models.PaymentSuccessful,
				"providerTransactionId": providerTxnID,
			}},
		)
		if err != nil {
			return nil, fmt.Errorf("update payment: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Wrap(apperr.Internal, "mark order paid", err)
	}
	return nil
}

// UpdateStatus sets the order status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID primitive.ObjectID, status string) error {
	res, err := r.orders.UpdateByID(ctx, orderID, bson.M{"$set": bson.M{
		"status":    status,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return apperr.Wrap(apperr.Internal, "update order status", err)
	}
	if res.MatchedCount == 0 {
		return apperr.New(apperr.NotFound, "Order not found")
	}
	return nil
}

// DetailsByOrder returns the line items of one order.
func (r *OrderRepository) DetailsByOrder(ctx context.Context, orderID primitive.ObjectID) ([]models.OrderDetail, error) {
	cur, err := r.details.Find(ctx, bson.M{"orderId": orderID})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list order details", err)
	}
	var details []models.OrderDetail
	if err := cur.All(ctx, &details); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode order details", err)
	}
	return details, nil
}

// AllDetails returns every line item. Used by admin analytics.
func (r *OrderRepository) AllDetails(ctx context.Context) ([]models.OrderDetail, error) {
	cur, err := r.details.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "list order details", err)
	}
	var details []models.OrderDetail
	if err := cur.All(ctx, &details); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode order details", err)
	}
	return details, nil
}

// TopSeller is one row of the top-medicines aggregation.
type TopSeller struct {
	Name      string  `bson:"name" json:"name"`
	TotalSold int64   `bson:"totalSold" json:"totalSold"`
	Revenue   float64 `bson:"revenue" json:"revenue"`
}

// TopMedicines aggregates line items into the best sellers by units,
// joined to the catalogue for display names.
func (r *OrderRepository) TopMedicines(ctx context.Context, limit int) ([]TopSeller, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":       "$medicineId",
			"totalSold": bson.M{"$sum": "$quantity"},
			"revenue":   bson.M{"$sum": bson.M{"$multiply": bson.A{"$unitPrice", "$quantity"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalSold", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "medicines",
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "medicine",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$medicine", "preserveNullAndEmptyArrays": true}}},
		{{Key: "$project", Value: bson.M{
			"_id":       0,
			"name":      "$medicine.name",
			"totalSold": 1,
			"revenue":   1,
		}}},
	}
	cur, err := r.details.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "top medicines", err)
	}
	var top []TopSeller
	if err := cur.All(ctx, &top); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "decode top medicines", err)
	}
	return top, nil
}

// PaymentByOrder returns the payment record for one order.
func (r *OrderRepository) PaymentByOrder(ctx context.Context, orderID primitive.ObjectID) (models.Payment, error) {
	var p models.Payment
	err := r.payments.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, apperr.New(apperr.NotFound, "Payment not found")
	}
	if err != nil {
		return p, apperr.Wrap(apperr.Internal, "find payment", err)
	}
	return p, nil
}
