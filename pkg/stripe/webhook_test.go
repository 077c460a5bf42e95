package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_endpoint_secret"

func hmacHex(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func signPayload(payload []byte, secret string, ts time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hmacHex(payload, secret, ts))
}

func completedPayload() []byte {
	return []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_abc",
				"payment_intent": "pi_123",
				"metadata": {"orderId": "64f000000000000000000001", "userId": "64f000000000000000000002"}
			}
		}
	}`)
}

func TestConstructEventValidSignature(t *testing.T) {
	now := time.Now()
	payload := completedPayload()
	header := signPayload(payload, testSecret, now)

	event, err := constructEventAt(payload, header, testSecret, DefaultTolerance, now)
	require.NoError(t, err)

	assert.Equal(t, EventCheckoutCompleted, event.Type)
	assert.Equal(t, "pi_123", event.Data.Object.PaymentIntent)
	assert.Equal(t, "64f000000000000000000001", event.Data.Object.Metadata["orderId"])
}

func TestConstructEventWrongSecret(t *testing.T) {
	now := time.Now()
	payload := completedPayload()
	header := signPayload(payload, "whsec_other", now)

	_, err := constructEventAt(payload, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEventTamperedPayload(t *testing.T) {
	now := time.Now()
	payload := completedPayload()
	header := signPayload(payload, testSecret, now)

	tampered := append([]byte(nil), payload...)
	tampered[len(tampered)-2] = ' '

	_, err := constructEventAt(tampered, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEventStaleTimestamp(t *testing.T) {
	now := time.Now()
	payload := completedPayload()
	header := signPayload(payload, testSecret, now.Add(-10*time.Minute))

	_, err := constructEventAt(payload, header, testSecret, DefaultTolerance, now)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestConstructEventWithinTolerance(t *testing.T) {
	now := time.Now()
	payload := completedPayload()
	header := signPayload(payload, testSecret, now.Add(-2*time.Minute))

	_, err := constructEventAt(payload, header, testSecret, DefaultTolerance, now)
	assert.NoError(t, err)
}

func TestConstructEventMultipleSignatures(t *testing.T) {
	// Stripe sends an extra v1 item during secret rollover. One valid
	// signature among them is enough.
	now := time.Now()
	payload := completedPayload()
	header := fmt.Sprintf("t=%d,v1=deadbeef,v1=%s", now.Unix(), hmacHex(payload, testSecret, now))

	_, err := constructEventAt(payload, header, testSecret, DefaultTolerance, now)
	assert.NoError(t, err)
}

func TestConstructEventMalformedHeaders(t *testing.T) {
	payload := completedPayload()
	for _, header := range []string{
		"",
		"t=abc,v1=00",
		"v1=00",
		fmt.Sprintf("t=%d", time.Now().Unix()),
	} {
		_, err := constructEventAt(payload, header, testSecret, DefaultTolerance, time.Now())
		assert.ErrorIs(t, err, ErrInvalidSignature, "header %q", header)
	}
}
