package services

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/collection"
	"github.com/shashiranjanraj/sehatly/pkg/logger"
	"github.com/shashiranjanraj/sehatly/pkg/metrics"
	"github.com/shashiranjanraj/sehatly/pkg/stripe"
)

// OrderStore is the slice of the order repository CheckoutService needs.
type OrderStore interface {
	PlaceOrder(ctx context.Context, order *models.Order, details []models.OrderDetail, payment *models.Payment) (primitive.ObjectID, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Order, error)
	ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error)
	MarkPaid(ctx context.Context, orderID primitive.ObjectID, providerTxnID string) error
}

// MedicineReader resolves catalogue prices for cart items.
type MedicineReader interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Medicine, error)
}

// PaymentGateway creates hosted checkout sessions.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, p stripe.SessionParams) (*stripe.Session, error)
}

// Notifier pushes order events to connected dashboards.
type Notifier interface {
	NotifyOrderPlaced(event OrderPlacedEvent)
}

// OrderPlacedEvent is broadcast to the admin dashboard when an order
// lands. It carries the customer snapshot so the dashboard can show
// who ordered and where to deliver without a follow-up fetch.
type OrderPlacedEvent struct {
	Type       string              `json:"type"`
	OrderID    string              `json:"orderId"`
	UserID     string              `json:"userId"`
	TotalPrice float64             `json:"totalPrice"`
	Status     string              `json:"status"`
	Customer   models.CustomerInfo `json:"customer"`
	Items      []OrderedItem       `json:"items"`
	CreatedAt  time.Time           `json:"createdAt"`
}

// OrderedItem is one priced line of the order-placed event.
type OrderedItem struct {
	MedicineID string  `json:"_id"`
	Quantity   int64   `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
}

// CartItem is one line of an incoming checkout request.
type CartItem struct {
	MedicineID string `json:"_id" validate:"required"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
}

// CheckoutInput is the payload shared by the COD and card paths.
type CheckoutInput struct {
	Items       []CartItem          `json:"items" validate:"required"`
	DeliveryFee float64             `json:"deliveryFee" validate:"nullable,gte=0"`
	Customer    models.CustomerInfo `json:"customer"`
}

// CheckoutService owns order placement for both payment methods and
// payment confirmation from the gateway webhook.
type CheckoutService struct {
	orders    OrderStore
	medicines MedicineReader
	gateway   PaymentGateway
	notifier  Notifier
	baseURL   string
}

func NewCheckoutService(orders OrderStore, medicines MedicineReader, gateway PaymentGateway, notifier Notifier, baseURL string) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		medicines: medicines,
		gateway:   gateway,
		notifier:  notifier,
		baseURL:   baseURL,
	}
}

// priceCart resolves cart items against the catalogue and totals the
// order server-side. Client-sent prices are never trusted.
func (s *CheckoutService) priceCart(ctx context.Context, userID primitive.ObjectID, items []CartItem) ([]models.OrderDetail, float64, error) {
	if len(items) == 0 {
		return nil, 0, apperr.New(apperr.Validation, "Missing order details")
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		id, err := primitive.ObjectIDFromHex(it.MedicineID)
		if err != nil {
			return nil, 0, apperr.New(apperr.Validation, "Invalid medicine id in cart")
		}
		if it.Quantity <= 0 {
			return nil, 0, apperr.New(apperr.Validation, "Quantity must be positive")
		}
		ids = append(ids, id)
	}

	catalogue, err := s.medicines.FindByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}

	details := make([]models.OrderDetail, 0, len(items))
	var total float64
	for i, it := range items {
		med, ok := catalogue[ids[i]]
		if !ok {
			return nil, 0, apperr.Newf(apperr.NotFound, "Medicine %s not found", it.MedicineID)
		}
		unit := med.EffectivePrice()
		details = append(details, models.OrderDetail{
			MedicineID: ids[i],
			UserID:     userID,
			UnitPrice:  unit,
			Quantity:   it.Quantity,
		})
		total += unit * float64(it.Quantity)
	}
	return details, total, nil
}

// PlaceCODOrder creates the full order aggregate for cash on delivery.
// The order, its line items, the pending payment record and the stock
// decrements land atomically; insufficient stock fails the whole order.
func (s *CheckoutService) PlaceCODOrder(ctx context.Context, userID primitive.ObjectID, in CheckoutInput) (primitive.ObjectID, error) {
	details, total, err := s.priceCart(ctx, userID, in.Items)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues("validation").Inc()
		return primitive.NilObjectID, err
	}
	total += in.DeliveryFee

	order := models.Order{
		UserID:       userID,
		Status:       models.OrderPending,
		TotalPrice:   total,
		DeliveryFee:  in.DeliveryFee,
		CustomerInfo: in.Customer,
	}
	payment := models.Payment{
		PaymentMethod: models.MethodCOD,
		Amount:        total,
		Status:        models.PaymentPending,
		Provider:      "Cash",
	}

	orderID, err := s.orders.PlaceOrder(ctx, &order, details, &payment)
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict {
			metrics.OrdersRejected.WithLabelValues("stock").Inc()
		}
		return primitive.NilObjectID, err
	}

	metrics.OrdersPlaced.WithLabelValues("COD").Inc()
	s.notify(order, details)
	return orderID, nil
}

// CreateCardCheckout creates the same order aggregate as the COD path,
// then opens a hosted card checkout session for it. The returned URL
// is where the buyer completes payment; the webhook flips the order to
// Paid afterwards.
func (s *CheckoutService) CreateCardCheckout(ctx context.Context, userID primitive.ObjectID, in CheckoutInput) (string, error) {
	details, total, err := s.priceCart(ctx, userID, in.Items)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues("validation").Inc()
		return "", err
	}
	total += in.DeliveryFee

	ids := make([]primitive.ObjectID, len(details))
	for i := range details {
		ids[i] = details[i].MedicineID
	}
	catalogue, err := s.medicines.FindByIDs(ctx, ids)
	if err != nil {
		return "", err
	}

	order := models.Order{
		UserID:       userID,
		Status:       models.OrderPending,
		TotalPrice:   total,
		DeliveryFee:  in.DeliveryFee,
		CustomerInfo: in.Customer,
	}
	payment := models.Payment{
		PaymentMethod: models.MethodStripe,
		Amount:        total,
		Status:        models.PaymentPending,
		Provider:      "Stripe",
	}

	orderID, err := s.orders.PlaceOrder(ctx, &order, details, &payment)
	if err != nil {
		if apperr.KindOf(err) == apperr.Conflict {
			metrics.OrdersRejected.WithLabelValues("stock").Inc()
		}
		return "", err
	}

	lineItems := collection.Map(details, func(d models.OrderDetail) stripe.LineItem {
		return stripe.LineItem{
			Name:       catalogue[d.MedicineID].Name,
			UnitAmount: toCents(d.UnitPrice),
			Quantity:   d.Quantity,
		}
	})
	if in.DeliveryFee > 0 {
		lineItems = append(lineItems, stripe.LineItem{
			Name:       "Delivery fee",
			UnitAmount: toCents(in.DeliveryFee),
			Quantity:   1,
		})
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.SessionParams{
		LineItems:  lineItems,
		Currency:   "usd",
		SuccessURL: s.baseURL + "/success",
		CancelURL:  s.baseURL + "/cancel",
		Metadata: map[string]string{
			"orderId": orderID.Hex(),
			"userId":  userID.Hex(),
		},
	})
	if err != nil {
		// The order stays Pending; the buyer can retry payment.
		return "", apperr.Wrap(apperr.Upstream, "Payment creation failed", err)
	}

	metrics.OrdersPlaced.WithLabelValues("Stripe").Inc()
	s.notify(order, details)
	return session.URL, nil
}

// ConfirmPayment handles a completed checkout session from the
// gateway webhook. The session metadata names the exact order, so a
// buyer with several pending orders never has the wrong one flipped.
// Confirming an already-paid or terminal order is a no-op, which makes
// webhook replays harmless.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, orderIDHex, providerTxnID string) error {
	orderID, err := primitive.ObjectIDFromHex(orderIDHex)
	if err != nil {
		return apperr.New(apperr.Validation, "Invalid order id in session metadata")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderPending {
		metrics.WebhookEvents.WithLabelValues("replay").Inc()
		return nil
	}

	if err := s.orders.MarkPaid(ctx, orderID, providerTxnID); err != nil {
		return err
	}
	metrics.WebhookEvents.WithLabelValues("confirmed").Inc()
	return nil
}

// MyOrders returns the caller's order history, newest first.
func (s *CheckoutService) MyOrders(ctx context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.orders.ByUser(ctx, userID)
}

func (s *CheckoutService) notify(order models.Order, details []models.OrderDetail) {
	if s.notifier == nil {
		return
	}
	items := collection.Map(details, func(d models.OrderDetail) OrderedItem {
		return OrderedItem{
			MedicineID: d.MedicineID.Hex(),
			Quantity:   d.Quantity,
			UnitPrice:  d.UnitPrice,
		}
	})
	s.notifier.NotifyOrderPlaced(OrderPlacedEvent{
		Type:       "newOrder",
		OrderID:    order.ID.Hex(),
		UserID:     order.UserID.Hex(),
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		Customer:   order.CustomerInfo,
		Items:      items,
		CreatedAt:  order.CreatedAt,
	})
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// HubNotifier adapts a broadcast func (the websocket hub) to Notifier.
type HubNotifier struct {
	Broadcast func([]byte)
}

func (n HubNotifier) NotifyOrderPlaced(event OrderPlacedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("marshal order event", "error", err)
		return
	}
	n.Broadcast(payload)
}
