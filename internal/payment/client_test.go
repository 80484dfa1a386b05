package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySucceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents/pi_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","status":"succeeded","amount":"25.00","currency":"usd"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	intent, err := client.Verify(context.Background(), "pi_123")

	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, StatusSucceeded, intent.Status)
	assert.True(t, intent.Amount.Equal(decimal.RequireFromString("25.00")))
}

func TestVerifyReturnsNonSettledStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"pi_123","status":"requires_action","amount":"25.00","currency":"usd"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	intent, err := client.Verify(context.Background(), "pi_123")

	require.NoError(t, err, "verify reports the status, the caller decides")
	assert.Equal(t, StatusRequiresAction, intent.Status)
}

func TestVerifyUnknownIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	_, err := client.Verify(context.Background(), "pi_missing")

	assert.ErrorContains(t, err, "unknown payment intent")
}

func TestVerifyProcessorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	_, err := client.Verify(context.Background(), "pi_123")

	assert.ErrorContains(t, err, "status 500")
}
