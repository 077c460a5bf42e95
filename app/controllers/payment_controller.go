package controllers

import (
	"io"
	"net/http"

	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/pkg/bind"
	"github.com/shashiranjanraj/sehatly/pkg/logger"
	"github.com/shashiranjanraj/sehatly/pkg/metrics"
	"github.com/shashiranjanraj/sehatly/pkg/response"
	"github.com/shashiranjanraj/sehatly/pkg/stripe"
)

// maxWebhookBytes caps webhook payloads; Stripe events are small.
const maxWebhookBytes = 1 << 20

type PaymentController struct {
	service       *services.CheckoutService
	webhookSecret string
}

func NewPaymentController(service *services.CheckoutService, webhookSecret string) *PaymentController {
	return &PaymentController{service: service, webhookSecret: webhookSecret}
}

// CreatePayment handles POST /api/payments/create-payment. It creates
// the order aggregate and returns the hosted checkout URL.
func (c *PaymentController) CreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		response.Unauthorized(w, "")
		return
	}

	var in services.CheckoutInput
	if errs, err := bind.JSON(w, r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	} else if errs != nil {
		response.ValidationError(w, errs)
		return
	}

	url, err := c.service.CreateCardCheckout(r.Context(), userID, in)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, map[string]string{"url": url})
}

// Webhook handles POST /api/payments/webhook. The raw body is
// verified against the Stripe-Signature header before anything else;
// a bad signature gets a 400 and no state is touched. The reply is
/// always {received:true} for accepted deliveries, including replays
// and event types we do not act on.
func (c *PaymentController) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Could not read webhook body")
		return
	}

	event, err := stripe.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), c.webhookSecret)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("bad_signature").Inc()
		response.Error(w, http.StatusBadRequest, "Webhook signature verification failed")
		return
	}

	if event.Type != stripe.EventCheckoutCompleted {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		response.JSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	session := event.Data.Object
	orderID := session.Metadata["orderId"]
	if err := c.service.ConfirmPayment(r.Context(), orderID, session.PaymentIntent); err != nil {
		// Non-2xx makes Stripe retry the delivery later.
		logger.Error("webhook: payment confirmation failed",
			"eventId", event.ID, "orderId", orderID, "error", err)
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]bool{"received": true})
}
