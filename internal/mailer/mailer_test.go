package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roastery-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOrder() *models.Order {
	tracking := "1Z999AA10123456784"
	return &models.Order{
		ID:             1,
		OrderNumber:    "ORD-1749999999999-0042",
		TrackingNumber: &tracking,
	}
}

func TestSendShippingNotification(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer key_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "orders@roastery.example", "Roastery Orders")
	estimate := time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)

	err := client.SendShippingNotification(context.Background(), "buyer@example.com", testOrder(), estimate)
	require.NoError(t, err)

	assert.Equal(t, "buyer@example.com", got.To.Email)
	assert.Equal(t, "orders@roastery.example", got.From.Email)
	assert.Contains(t, got.Subject, "ORD-1749999999999-0042")
	assert.Contains(t, got.BodyText, "Monday, June 9")
	assert.Contains(t, got.BodyText, "1Z999AA10123456784")
	assert.Equal(t, "shipping_notification", got.Template)
}

func TestSendFailsOnProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "orders@roastery.example", "Roastery Orders")

	err := client.SendDeliveryNotification(context.Background(), "buyer@example.com", testOrder())
	assert.ErrorContains(t, err, "status 502")
}

func TestSendWelcome(t *testing.T) {
	var got message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "orders@roastery.example", "Roastery Orders")

	require.NoError(t, client.SendWelcome(context.Background(), "new@example.com", "Sam"))
	assert.Equal(t, "subscriber_welcome", got.Template)
	assert.Equal(t, "Sam", got.To.Name)
}
