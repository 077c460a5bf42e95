// Package stripe is a minimal client for the two Stripe surfaces the
// storefront needs: creating a hosted Checkout Session and verifying signed
// webhook deliveries. The full SDK is deliberately not pulled in.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shashiranjanraj/sehatly/pkg/http"
)

const apiBase = "https://api.stripe.com/v1"

// EventCheckoutCompleted is the only event type this application consumes.
const EventCheckoutCompleted = "checkout.session.completed"

// Client talks to the Stripe REST API.
type Client struct {
	secretKey string
}

// NewClient creates a Client using the given secret key.
func NewClient(secretKey string) *Client {
	return &Client{secretKey: secretKey}
}

// LineItem is one priced cart line of a checkout session.
type LineItem struct {
	Name       string
	UnitAmount int64 // minor currency units (cents)
	Quantity   int64
}

// SessionParams configures a hosted checkout session.
type SessionParams struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Currency   string            // defaults to "usd"
	Metadata   map[string]string // opaque correlation data echoed in webhooks
}

// Session is the subset of the checkout session object the app reads.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession requests a hosted payment page and returns it.
func (c *Client) CreateCheckoutSession(ctx context.Context, p SessionParams) (*Session, error) {
	currency := p.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[0]", "card")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	for i, item := range p.LineItems {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[price_data][currency]", currency)
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(item.UnitAmount, 10))
		form.Set(prefix+"[quantity]", strconv.FormatInt(item.Quantity, 10))
	}
	for k, v := range p.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	resp, err := http.Post(apiBase+"/checkout/sessions").
		WithContext(ctx).
		Bearer(c.secretKey).
		Form(form).
		Timeout(15 * time.Second).
		Send()
	if err != nil {
		return nil, fmt.Errorf("stripe: create session: %w", err)
	}

	if !resp.OK() {
		return nil, fmt.Errorf("stripe: create session: %s", apiErrorMessage(resp.Raw, resp.StatusCode))
	}

	var session Session
	if err := resp.JSON(&session); err != nil {
		return nil, fmt.Errorf("stripe: decode session: %w", err)
	}
	return &session, nil
}

// apiError is Stripe's error envelope.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func apiErrorMessage(body []byte, status int) string {
	var e apiError
	if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	return fmt.Sprintf("HTTP %d", status)
}
