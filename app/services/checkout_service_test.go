package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/stripe"
)

// fakeOrderStore mirrors the repository's all-or-nothing transaction:
// any line with insufficient stock fails the whole order and leaves
// nothing behind.
type fakeOrderStore struct {
	stock    map[primitive.ObjectID]int64
	orders   map[primitive.ObjectID]models.Order
	details  map[primitive.ObjectID][]models.OrderDetail
	payments map[primitive.ObjectID]models.Payment
	paidWith map[primitive.ObjectID]string
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		stock:    map[primitive.ObjectID]int64{},
		orders:   map[primitive.ObjectID]models.Order{},
		details:  map[primitive.ObjectID][]models.OrderDetail{},
		payments: map[primitive.ObjectID]models.Payment{},
		paidWith: map[primitive.ObjectID]string{},
	}
}

func (f *fakeOrderStore) PlaceOrder(_ context.Context, order *models.Order, details []models.OrderDetail, payment *models.Payment) (primitive.ObjectID, error) {
	for _, d := range details {
		if f.stock[d.MedicineID] < d.Quantity {
			return primitive.NilObjectID, apperr.Newf(apperr.Conflict, "Insufficient stock for medicine %s", d.MedicineID.Hex())
		}
	}
	for _, d := range details {
		f.stock[d.MedicineID] -= d.Quantity
	}
	id := primitive.NewObjectID()
	order.ID = id
	f.orders[id] = *order
	f.details[id] = details
	f.payments[id] = *payment
	return id, nil
}

func (f *fakeOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return models.Order{}, apperr.New(apperr.NotFound, "Order not found")
	}
	return order, nil
}

func (f *fakeOrderStore) ByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) MarkPaid(_ context.Context, orderID primitive.ObjectID, providerTxnID string) error {
	order, ok := f.orders[orderID]
	if !ok {
		return apperr.New(apperr.NotFound, "Order not found")
	}
	order.Status = models.OrderPaid
	f.orders[orderID] = order
	f.paidWith[orderID] = providerTxnID
	return nil
}

type fakeCatalogue struct {
	medicines map[primitive.ObjectID]models.Medicine
}

func (f *fakeCatalogue) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Medicine, error) {
	out := map[primitive.ObjectID]models.Medicine{}
	for _, id := range ids {
		if med, ok := f.medicines[id]; ok {
			out[id] = med
		}
	}
	return out, nil
}

type fakeGateway struct {
	lastParams stripe.SessionParams
	url        string
	err        error
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, p stripe.SessionParams) (*stripe.Session, error) {
	f.lastParams = p
	if f.err != nil {
		return nil, f.err
	}
	return &stripe.Session{ID: "cs_test_123", URL: f.url}, nil
}

type recordingNotifier struct {
	events []OrderPlacedEvent
}

func (n *recordingNotifier) NotifyOrderPlaced(event OrderPlacedEvent) {
	n.events = append(n.events, event)
}

func checkoutFixture() (*CheckoutService, *fakeOrderStore, *fakeGateway, *recordingNotifier, primitive.ObjectID, primitive.ObjectID) {
	paracetamol := primitive.NewObjectID()
	ibuprofen := primitive.NewObjectID()

	store := newFakeOrderStore()
	store.stock[paracetamol] = 10
	store.stock[ibuprofen] = 5

	catalogue := &fakeCatalogue{medicines: map[primitive.ObjectID]models.Medicine{
		paracetamol: {ID: paracetamol, Name: "Paracetamol 500mg", Price: 120},
		ibuprofen:   {ID: ibuprofen, Name: "Ibuprofen 400mg", Price: 200, Discount: 10},
	}}
	gateway := &fakeGateway{url: "https://checkout.stripe.com/pay/cs_test_123"}
	notifier := &recordingNotifier{}

	svc := NewCheckoutService(store, catalogue, gateway, notifier, "https://sehatly.example.com")
	return svc, store, gateway, notifier, paracetamol, ibuprofen
}

func TestPlaceCODOrderCreatesFullAggregate(t *testing.T) {
	svc, store, _, notifier, paracetamol, ibuprofen := checkoutFixture()
	userID := primitive.NewObjectID()

	in := CheckoutInput{
		Items: []CartItem{
			{MedicineID: paracetamol.Hex(), Quantity: 2},
			{MedicineID: ibuprofen.Hex(), Quantity: 1},
		},
		DeliveryFee: 50,
		Customer:    models.CustomerInfo{FullName: "Aisha Khan", Address: "12 Mall Rd", Phone: "0300-1234567"},
	}

	orderID, err := svc.PlaceCODOrder(context.Background(), userID, in)
	require.NoError(t, err)
	require.False(t, orderID.IsZero())

	order := store.orders[orderID]
	assert.Equal(t, models.OrderPending, order.Status)
	// 2*120 + 1*180 (10% off 200) + 50 delivery
	assert.InDelta(t, 470.0, order.TotalPrice, 0.001)
	assert.Equal(t, "Aisha Khan", order.CustomerInfo.FullName)

	require.Len(t, store.details[orderID], 2)
	assert.InDelta(t, 180.0, store.details[orderID][1].UnitPrice, 0.001)

	payment := store.payments[orderID]
	assert.Equal(t, models.MethodCOD, payment.PaymentMethod)
	assert.Equal(t, models.PaymentPending, payment.Status)
	assert.InDelta(t, 470.0, payment.Amount, 0.001)

	assert.Equal(t, int64(8), store.stock[paracetamol])
	assert.Equal(t, int64(4), store.stock[ibuprofen])

	require.Len(t, notifier.events, 1)
	event := notifier.events[0]
	assert.Equal(t, "newOrder", event.Type)
	assert.Equal(t, orderID.Hex(), event.OrderID)
	assert.Equal(t, userID.Hex(), event.UserID)

	// The dashboard renders the delivery snapshot and priced lines
	// straight from the event.
	assert.Equal(t, "Aisha Khan", event.Customer.FullName)
	assert.Equal(t, "12 Mall Rd", event.Customer.Address)
	require.Len(t, event.Items, 2)
	assert.Equal(t, paracetamol.Hex(), event.Items[0].MedicineID)
	assert.Equal(t, int64(2), event.Items[0].Quantity)
	assert.InDelta(t, 120.0, event.Items[0].UnitPrice, 0.001)
	assert.InDelta(t, 180.0, event.Items[1].UnitPrice, 0.001)
}

func TestPlaceCODOrderInsufficientStockFailsWholeOrder(t *testing.T) {
	svc, store, _, notifier, paracetamol, ibuprofen := checkoutFixture()

	in := CheckoutInput{Items: []CartItem{
		{MedicineID: paracetamol.Hex(), Quantity: 2},
		{MedicineID: ibuprofen.Hex(), Quantity: 50}, // only 5 in stock
	}}

	_, err := svc.PlaceCODOrder(context.Background(), primitive.NewObjectID(), in)
	require.Error(t, err)
	assert.Equal(t, apperr.Conflict, apperr.KindOf(err))

	// Nothing written, nothing decremented.
	assert.Empty(t, store.orders)
	assert.Equal(t, int64(10), store.stock[paracetamol])
	assert.Equal(t, int64(5), store.stock[ibuprofen])
	assert.Empty(t, notifier.events)
}

func TestPlaceCODOrderRejectsEmptyCart(t *testing.T) {
	svc, store, _, _, _, _ := checkoutFixture()

	_, err := svc.PlaceCODOrder(context.Background(), primitive.NewObjectID(), CheckoutInput{})
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
	assert.Empty(t, store.orders)
}

func TestPlaceCODOrderUnknownMedicine(t *testing.T) {
	svc, _, _, _, _, _ := checkoutFixture()

	in := CheckoutInput{Items: []CartItem{{MedicineID: primitive.NewObjectID().Hex(), Quantity: 1}}}
	_, err := svc.PlaceCODOrder(context.Background(), primitive.NewObjectID(), in)
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestCreateCardCheckoutBuildsSessionForExactOrder(t *testing.T) {
	svc, store, gateway, _, paracetamol, _ := checkoutFixture()
	userID := primitive.NewObjectID()

	in := CheckoutInput{
		Items:       []CartItem{{MedicineID: paracetamol.Hex(), Quantity: 3}},
		DeliveryFee: 50,
	}

	url, err := svc.CreateCardCheckout(context.Background(), userID, in)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_123", url)

	// The order aggregate exists before the buyer ever reaches Stripe.
	require.Len(t, store.orders, 1)
	var orderID primitive.ObjectID
	for id := range store.orders {
		orderID = id
	}
	assert.Equal(t, models.OrderPending, store.orders[orderID].Status)
	assert.Equal(t, models.MethodStripe, store.payments[orderID].PaymentMethod)

	// Session metadata points the webhook at this exact order.
	assert.Equal(t, orderID.Hex(), gateway.lastParams.Metadata["orderId"])
	assert.Equal(t, userID.Hex(), gateway.lastParams.Metadata["userId"])

	// Line items in cents, plus the delivery fee line.
	require.Len(t, gateway.lastParams.LineItems, 2)
	assert.Equal(t, int64(12000), gateway.lastParams.LineItems[0].UnitAmount)
	assert.Equal(t, int64(3), gateway.lastParams.LineItems[0].Quantity)
	assert.Equal(t, "Delivery fee", gateway.lastParams.LineItems[1].Name)
	assert.Equal(t, int64(5000), gateway.lastParams.LineItems[1].UnitAmount)

	assert.Equal(t, "https://sehatly.example.com/success", gateway.lastParams.SuccessURL)
}

func TestCreateCardCheckoutGatewayFailureLeavesOrderPending(t *testing.T) {
	svc, store, gateway, _, paracetamol, _ := checkoutFixture()
	gateway.err = errors.New("stripe: HTTP 500")

	in := CheckoutInput{Items: []CartItem{{MedicineID: paracetamol.Hex(), Quantity: 1}}}
	_, err := svc.CreateCardCheckout(context.Background(), primitive.NewObjectID(), in)
	require.Error(t, err)
	assert.Equal(t, apperr.Upstream, apperr.KindOf(err))

	// The order stays Pending so the buyer can retry payment.
	require.Len(t, store.orders, 1)
	for _, o := range store.orders {
		assert.Equal(t, models.OrderPending, o.Status)
	}
}

func TestConfirmPaymentMarksExactOrderPaid(t *testing.T) {
	svc, store, _, _, paracetamol, _ := checkoutFixture()
	userID := primitive.NewObjectID()

	in := CheckoutInput{Items: []CartItem{{MedicineID: paracetamol.Hex(), Quantity: 1}}}
	orderID, err := svc.PlaceCODOrder(context.Background(), userID, in)
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmPayment(context.Background(), orderID.Hex(), "pi_abc123"))
	assert.Equal(t, models.OrderPaid, store.orders[orderID].Status)
	assert.Equal(t, "pi_abc123", store.paidWith[orderID])
}

func TestConfirmPaymentReplayIsNoop(t *testing.T) {
	svc, store, _, _, paracetamol, _ := checkoutFixture()

	in := CheckoutInput{Items: []CartItem{{MedicineID: paracetamol.Hex(), Quantity: 1}}}
	orderID, err := svc.PlaceCODOrder(context.Background(), primitive.NewObjectID(), in)
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmPayment(context.Background(), orderID.Hex(), "pi_first"))

	// Second delivery of the same event must not overwrite anything.
	require.NoError(t, svc.ConfirmPayment(context.Background(), orderID.Hex(), "pi_second"))
	assert.Equal(t, "pi_first", store.paidWith[orderID])
}

func TestConfirmPaymentRejectsBadOrderID(t *testing.T) {
	svc, _, _, _, _, _ := checkoutFixture()

	err := svc.ConfirmPayment(context.Background(), "not-an-object-id", "pi_x")
	require.Error(t, err)
	assert.Equal(t, apperr.Validation, apperr.KindOf(err))
}

func TestConfirmPaymentUnknownOrder(t *testing.T) {
	svc, _, _, _, _, _ := checkoutFixture()

	err := svc.ConfirmPayment(context.Background(), primitive.NewObjectID().Hex(), "pi_x")
	require.Error(t, err)
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
