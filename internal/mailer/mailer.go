package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"roastery-service/internal/models"
)

// Client talks to the transactional email provider. Every send is a single
// attempt; callers treat failures as best-effort.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	fromAddress string
	fromName    string
}

// NewClient creates a transactional email client
func NewClient(baseURL, apiKey, fromAddress, fromName string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:     baseURL,
		apiKey:      apiKey,
		fromAddress: fromAddress,
		fromName:    fromName,
	}
}

type message struct {
	From     address `json:"from"`
	To       address `json:"to"`
	Subject  string  `json:"subject"`
	BodyText string  `json:"body_text"`
	Template string  `json:"template,omitempty"`
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

func (c *Client) send(ctx context.Context, msg message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider returned status %d", resp.StatusCode)
	}
	return nil
}

// SendOrderConfirmation sends the post-checkout confirmation email
func (c *Client) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	return c.send(ctx, message{
		From:    address{Email: c.fromAddress, Name: c.fromName},
		To:      address{Email: to},
		Subject: fmt.Sprintf("Order %s confirmed", order.OrderNumber),
		BodyText: fmt.Sprintf("Thanks for your order! Your order %s for %s is confirmed and will be roasted shortly.",
			order.OrderNumber, order.TotalAmount.StringFixed(2)),
		Template: "order_confirmation",
	})
}

// SendShippingNotification sends the shipped email with a delivery estimate
func (c *Client) SendShippingNotification(ctx context.Context, to string, order *models.Order, estimate time.Time) error {
	tracking := ""
	if order.TrackingNumber != nil {
		tracking = " Tracking number: " + *order.TrackingNumber + "."
	}
	return c.send(ctx, message{
		From:    address{Email: c.fromAddress, Name: c.fromName},
		To:      address{Email: to},
		Subject: fmt.Sprintf("Order %s has shipped", order.OrderNumber),
		BodyText: fmt.Sprintf("Your order %s is on its way. Estimated delivery: %s.%s",
			order.OrderNumber, estimate.Format("Monday, January 2"), tracking),
		Template: "shipping_notification",
	})
}

// SendDeliveryNotification sends the delivered email
func (c *Client) SendDeliveryNotification(ctx context.Context, to string, order *models.Order) error {
	return c.send(ctx, message{
		From:    address{Email: c.fromAddress, Name: c.fromName},
		To:      address{Email: to},
		Subject: fmt.Sprintf("Order %s was delivered", order.OrderNumber),
		BodyText: fmt.Sprintf("Your order %s has been delivered. Enjoy your coffee!",
			order.OrderNumber),
		Template: "delivery_notification",
	})
}

// SendWelcome greets a new subscriber
func (c *Client) SendWelcome(ctx context.Context, to, name string) error {
	return c.send(ctx, message{
		From:     address{Email: c.fromAddress, Name: c.fromName},
		To:       address{Email: to, Name: name},
		Subject:  "Welcome to the roastery",
		BodyText: "Thanks for subscribing. Fresh roasts, events, and brewing guides are headed your way.",
		Template: "subscriber_welcome",
	})
}
