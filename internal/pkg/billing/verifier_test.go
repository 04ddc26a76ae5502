package billing

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

const verifierTestSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header over body the way the
// provider does: HMAC-SHA256 over "<timestamp>.<body>".
func signPayload(body []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyStripeEventSuccess(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"customer":"cus_1","customer_details":{"email":"a@b.com"}}}}`)
	header := signPayload(body, verifierTestSecret, time.Now())

	event, err := VerifyStripeEvent(body, header, verifierTestSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "checkout.session.completed", string(event.Type))
	assert.JSONEq(t, `{"customer":"cus_1","customer_details":{"email":"a@b.com"}}`, string(event.Data.Raw))
}

func TestVerifyStripeEventTaxonomy(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	nonEvent := []byte(`{"hello":"world"}`)
	nonJSON := []byte(`not json`)
	noData := []byte(`{"id":"evt_nodata","type":"checkout.session.completed"}`)

	tests := []struct {
		name    string
		payload []byte
		header  string
		secret  string
		wantErr error
	}{
		{"Empty secret", body, signPayload(body, verifierTestSecret, time.Now()), "", ErrWebhookNotConfigured},
		{"Empty header", body, "", verifierTestSecret, ErrMissingSignature},
		{"Blank header", body, "   ", verifierTestSecret, ErrMissingSignature},
		{"Wrong secret", body, signPayload(body, "whsec_other", time.Now()), verifierTestSecret, ErrInvalidSignature},
		{"Tampered body", []byte(`{"id":"evt_2"}`), signPayload(body, verifierTestSecret, time.Now()), verifierTestSecret, ErrInvalidSignature},
		{"Stale timestamp", body, signPayload(body, verifierTestSecret, time.Now().Add(-10*time.Minute)), verifierTestSecret, ErrInvalidSignature},
		{"Garbage header", body, "not-a-signature", verifierTestSecret, ErrInvalidSignature},
		{"Signed non-event JSON", nonEvent, signPayload(nonEvent, verifierTestSecret, time.Now()), verifierTestSecret, ErrMalformedPayload},
		{"Signed non-JSON", nonJSON, signPayload(nonJSON, verifierTestSecret, time.Now()), verifierTestSecret, ErrMalformedPayload},
		{"Signed event without data", noData, signPayload(noData, verifierTestSecret, time.Now()), verifierTestSecret, ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyStripeEvent(tt.payload, tt.header, tt.secret)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerifyStripeEventToleratesAPIVersionMismatch(t *testing.T) {
	// api_version in the payload never matches the SDK's pinned version;
	// verification must not reject on that.
	body := []byte(`{"id":"evt_1","type":"customer.subscription.updated","api_version":"2019-02-19","data":{"object":{"id":"sub_1"}}}`)
	header := signPayload(body, verifierTestSecret, time.Now())

	event, err := VerifyStripeEvent(body, header, verifierTestSecret)
	require.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
}
