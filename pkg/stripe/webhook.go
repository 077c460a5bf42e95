package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTolerance is the maximum accepted age of a signed webhook payload.
const DefaultTolerance = 5 * time.Minute

// ErrInvalidSignature is returned when the Stripe-Signature header does not
// verify against the payload. The payload must not be processed.
var ErrInvalidSignature = errors.New("stripe: invalid webhook signature")

// Event is the subset of a webhook event the app reads.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object SessionObject `json:"object"`
	} `json:"data"`
}

// SessionObject is the checkout session embedded in a completed event.
type SessionObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Metadata      map[string]string `json:"metadata"`
}

// ConstructEvent verifies the Stripe-Signature header against the raw payload
// and returns the decoded event. Verification follows Stripe's scheme: the
// header carries `t=<unix>,v1=<hex hmac>` items and the signed string is
// "<t>.<payload>" under HMAC-SHA256 with the endpoint secret.
func ConstructEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	return constructEventAt(payload, sigHeader, secret, DefaultTolerance, time.Now())
}

func constructEventAt(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) (*Event, error) {
	ts, sigs, err := parseSigHeader(sigHeader)
	if err != nil {
		return nil, err
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(ts, 0))
		if age > tolerance || age < -tolerance {
			return nil, ErrInvalidSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(payload)
	expected := mac.Sum(nil)

	verified := false
	for _, sig := range sigs {
		raw, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(raw, expected) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, ErrInvalidSignature
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe: decode event: %w", err)
	}
	return &event, nil
}

func parseSigHeader(header string) (ts int64, v1 []string, err error) {
	if header == "" {
		return 0, nil, ErrInvalidSignature
	}

	for _, item := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(item), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
		case "v1":
			v1 = append(v1, value)
		}
	}

	if ts == 0 || len(v1) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return ts, v1, nil
}
