package routes_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/controllers"
	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/app/routes"
	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/apperr"
	"github.com/shashiranjanraj/sehatly/pkg/auth"
	"github.com/shashiranjanraj/sehatly/pkg/router"
	"github.com/shashiranjanraj/sehatly/pkg/stripe"
	"github.com/shashiranjanraj/sehatly/pkg/testkit"
	"github.com/shashiranjanraj/sehatly/pkg/ws"
)

const webhookSecret = "whsec_route_test"

type stubOrderStore struct {
	orders   map[primitive.ObjectID]models.Order
	paidWith map[primitive.ObjectID]string
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{
		orders:   make(map[primitive.ObjectID]models.Order),
		paidWith: make(map[primitive.ObjectID]string),
	}
}

func (s *stubOrderStore) PlaceOrder(_ context.Context, order *models.Order, _ []models.OrderDetail, _ *models.Payment) (primitive.ObjectID, error) {
	order.ID = primitive.NewObjectID()
	s.orders[order.ID] = *order
	return order.ID, nil
}

func (s *stubOrderStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, servicesNotFound()
	}
	return o, nil
}

func (s *stubOrderStore) ByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	var out []models.Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrderStore) MarkPaid(_ context.Context, orderID primitive.ObjectID, providerTxnID string) error {
	o, ok := s.orders[orderID]
	if !ok {
		return servicesNotFound()
	}
	o.Status = models.OrderPaid
	s.orders[orderID] = o
	s.paidWith[orderID] = providerTxnID
	return nil
}

type stubCatalogue struct {
	medicines map[primitive.ObjectID]models.Medicine
}

func (s *stubCatalogue) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Medicine, error) {
	out := make(map[primitive.ObjectID]models.Medicine)
	for _, id := range ids {
		if m, ok := s.medicines[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}

type stubGateway struct{}

func (stubGateway) CreateCheckoutSession(context.Context, stripe.SessionParams) (*stripe.Session, error) {
	return &stripe.Session{ID: "cs_stub", URL: "https://checkout.stripe.com/pay/cs_stub"}, nil
}

type stubNotifier struct{ events []services.OrderPlacedEvent }

func (n *stubNotifier) NotifyOrderPlaced(e services.OrderPlacedEvent) { n.events = append(n.events, e) }

type stubPairStore struct{ pairs []models.Incompatible }

func (s *stubPairStore) All(context.Context) ([]models.Incompatible, error) { return s.pairs, nil }

func (s *stubPairStore) Create(_ context.Context, pair *models.Incompatible) error {
	pair.ID = primitive.NewObjectID()
	s.pairs = append(s.pairs, *pair)
	return nil
}

type fixture struct {
	handler  http.Handler
	orders   *stubOrderStore
	notifier *stubNotifier
	medicine primitive.ObjectID
}

func newFixture() *fixture {
	orders := newStubOrderStore()
	medID := primitive.NewObjectID()
	catalogue := &stubCatalogue{medicines: map[primitive.ObjectID]models.Medicine{
		medID: {ID: medID, Name: "Paracetamol 500mg", Price: 120, StockQuantity: 50},
	}}
	notifier := &stubNotifier{}
	checkout := services.NewCheckoutService(orders, catalogue, stubGateway{}, notifier, "https://sehatly.test")

	pairs := &stubPairStore{pairs: []models.Incompatible{
		{DrugA: "Aspirin", DrugB: "Warfarin"},
	}}

	hub := ws.NewHub()
	c := routes.Controllers{
		Auth:         &controllers.AuthController{},
		Medicine:     &controllers.MedicineController{},
		Order:        controllers.NewOrderController(checkout, hub),
		Payment:      controllers.NewPaymentController(checkout, webhookSecret),
		Incompatible: controllers.NewIncompatibleController(services.NewIncompatibleService(pairs)),
		Analytics:    &controllers.AnalyticsController{},
		Vendor:       &controllers.VendorController{},
		Reminder:     &controllers.ReminderController{},
		GraphQL:      &controllers.GraphQLController{},
		Hub:          hub,
	}

	r := router.New()
	routes.RegisterAPI(r, c)
	return &fixture{handler: r.Handler(), orders: orders, notifier: notifier, medicine: medID}
}

func servicesNotFound() error {
	return apperr.New(apperr.NotFound, "Order not found")
}

func bearerFor(t *testing.T, role string) (primitive.ObjectID, string) {
	t.Helper()
	userID := primitive.NewObjectID()
	token, err := auth.GenerateToken(userID.Hex(), role)
	require.NoError(t, err)
	return userID, "Bearer " + token
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPlaceCODOrderEndpoint(t *testing.T) {
	f := newFixture()
	_, bearer := bearerFor(t, models.RoleUser)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/orders/cod", bearer, map[string]interface{}{
		"items":       []map[string]interface{}{{"_id": f.medicine.Hex(), "quantity": 2}},
		"deliveryFee": 50,
		"customer":    map[string]string{"fullName": "Asha Rahman", "address": "12 Mirpur Rd, Dhaka", "phone": "01711111111"},
	})

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		Success bool   `json:"success"`
		OrderID string `json:"orderId"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.NotEmpty(t, body.OrderID)
	assert.Equal(t, "Order placed successfully!", body.Message)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, "newOrder", f.notifier.events[0].Type)
}

func TestPlaceCODOrderRequiresAuth(t *testing.T) {
	f := newFixture()

	rec := doJSON(t, f.handler, http.MethodPost, "/api/orders/cod", "", map[string]interface{}{
		"items": []map[string]interface{}{{"_id": f.medicine.Hex(), "quantity": 1}},
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please login first")
}

func TestPlaceCODOrderRejectsGarbledToken(t *testing.T) {
	f := newFixture()

	rec := doJSON(t, f.handler, http.MethodPost, "/api/orders/cod", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreatePaymentReturnsCheckoutURL(t *testing.T) {
	f := newFixture()
	_, bearer := bearerFor(t, models.RoleUser)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/payments/create-payment", bearer, map[string]interface{}{
		"items":       []map[string]interface{}{{"_id": f.medicine.Hex(), "quantity": 1}},
		"deliveryFee": 50,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_stub", body.Data["url"])
}

func signWebhook(payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func postWebhook(t *testing.T, h http.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookMarksOrderPaid(t *testing.T) {
	f := newFixture()
	userID, bearer := bearerFor(t, models.RoleUser)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/payments/create-payment", bearer, map[string]interface{}{
		"items": []map[string]interface{}{{"_id": f.medicine.Hex(), "quantity": 1}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	orders, err := f.orders.ByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	orderID := orders[0].ID

	payload := []byte(fmt.Sprintf(`{
		"id": "evt_route_test",
		"type": "checkout.session.completed",
		"data": {"object": {"id": "cs_stub", "payment_intent": "pi_route", "metadata": {"orderId": %q}}}
	}`, orderID.Hex()))

	whRec := postWebhook(t, f.handler, payload, signWebhook(payload, time.Now()))
	require.Equal(t, http.StatusOK, whRec.Code, whRec.Body.String())
	assert.JSONEq(t, `{"received": true}`, whRec.Body.String())

	paid, err := f.orders.FindByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, paid.Status)
	assert.Equal(t, "pi_route", f.orders.paidWith[orderID])
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	f := newFixture()
	payload := []byte(`{"id": "evt_x", "type": "checkout.session.completed"}`)

	rec := postWebhook(t, f.handler, payload, "t=1,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "signature")

	rec = postWebhook(t, f.handler, payload, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	f := newFixture()
	payload := []byte(`{"id": "evt_other", "type": "invoice.paid", "data": {"object": {}}}`)

	rec := postWebhook(t, f.handler, payload, signWebhook(payload, time.Now()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"received": true}`, rec.Body.String())
}

func TestIncompatibleCheckIsPublic(t *testing.T) {
	f := newFixture()

	rec := doJSON(t, f.handler, http.MethodPost, "/api/incompatible/check", "", map[string]interface{}{
		"medicines": []string{"Warfarin", "Paracetamol", "Aspirin"},
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Conflict bool        `json:"conflict"`
		Pairs    [][2]string `json:"pairs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Conflict)
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, [2]string{"Warfarin", "Aspirin"}, result.Pairs[0])
}

func TestIncompatibleAddIsAdminOnly(t *testing.T) {
	f := newFixture()
	body := map[string]string{"drugA": "Ibuprofen", "drugB": "Aspirin"}

	_, userBearer := bearerFor(t, models.RoleUser)
	rec := doJSON(t, f.handler, http.MethodPost, "/api/incompatible/add", userBearer, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	_, adminBearer := bearerFor(t, models.RoleAdmin)
	rec = doJSON(t, f.handler, http.MethodPost, "/api/incompatible/add", adminBearer, body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

// TestAPIScenarios runs the JSON scenarios in testdata/ against the full
// router. Each file covers one request and its exact response body, so
// envelope shapes stay pinned without a hand-written test per endpoint.
func TestAPIScenarios(t *testing.T) {
	f := newFixture()
	testkit.RunDir(t, f.handler, "testdata")
}

func TestRouteTableIsNamed(t *testing.T) {
	r := router.New()
	routes.RegisterAPI(r, routes.Controllers{
		Auth:         &controllers.AuthController{},
		Medicine:     &controllers.MedicineController{},
		Order:        &controllers.OrderController{},
		Payment:      &controllers.PaymentController{},
		Incompatible: &controllers.IncompatibleController{},
		Analytics:    &controllers.AnalyticsController{},
		Vendor:       &controllers.VendorController{},
		Reminder:     &controllers.ReminderController{},
		GraphQL:      &controllers.GraphQLController{},
		Hub:          ws.NewHub(),
	})

	names := make(map[string]bool)
	for _, info := range r.Routes() {
		assert.NotEmpty(t, info.Name, "%s %s has no name", info.Method, info.Path)
		names[info.Name] = true
	}
	for _, want := range []string{"orders.cod", "payments.webhook", "incompatible.check", "admin.stats", "vendors.request", "reminders.add"} {
		assert.True(t, names[want], "missing route %s", want)
	}
}
