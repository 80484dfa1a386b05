package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"roastery-service/internal/models"
	"roastery-service/internal/payment"
	"roastery-service/internal/store"
	"roastery-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrPaymentNotSettled is returned when the processor reports anything
	// other than a settled payment. Nothing is written in that case.
	ErrPaymentNotSettled = errors.New("payment has not settled")

	// ErrOrderNotRecorded means the payment settled but the durable order
	// write failed. The customer has been charged; callers must not report
	// this as a checkout failure.
	ErrOrderNotRecorded = errors.New("payment succeeded but order could not be recorded")
)

// OrderStore is the persistence surface the order service depends on.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByRef(ctx context.Context, ref string) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateOrder(ctx context.Context, orderID int64, patch models.OrderPatch) (*models.Order, error)
	GetStatusEvents(ctx context.Context, orderID int64) ([]models.StatusEvent, error)
	GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	FindOrCreateCustomer(ctx context.Context, email, firstName, lastName, phone string) (*models.Customer, error)
	ListExportRows(ctx context.Context) ([]store.ExportRow, error)
}

// PaymentVerifier confirms a payment authorization with the external
// processor.
type PaymentVerifier interface {
	Verify(ctx context.Context, intentID string) (*payment.Intent, error)
}

// OrderMailer sends transactional order emails.
type OrderMailer interface {
	SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error
	SendShippingNotification(ctx context.Context, to string, order *models.Order, estimate time.Time) error
	SendDeliveryNotification(ctx context.Context, to string, order *models.Order) error
}

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// OrderService handles checkout, fulfillment updates, and order views.
type OrderService struct {
	store        OrderStore
	verifier     PaymentVerifier
	mailer       OrderMailer
	events       OrderEventPublisher
	estimateDays int
	logger       *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	st OrderStore,
	verifier PaymentVerifier,
	mailer OrderMailer,
	events OrderEventPublisher,
	estimateDays int,
) *OrderService {
	if estimateDays <= 0 {
		estimateDays = 5
	}
	return &OrderService{
		store:        st,
		verifier:     verifier,
		mailer:       mailer,
		events:       events,
		estimateDays: estimateDays,
		logger:       util.GetLogger(),
	}
}

// CustomerInfo is the checkout contact block.
type CustomerInfo struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// CheckoutItem is one cart line submitted at checkout.
type CheckoutItem struct {
	SKU       string          `json:"sku" binding:"required"`
	Name      string          `json:"name" binding:"required"`
	ImageURL  string          `json:"image_url"`
	Quantity  int             `json:"quantity" binding:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// CreateOrderRequest represents a checkout submission
type CreateOrderRequest struct {
	PaymentIntentID string          `json:"payment_intent_id" binding:"required"`
	Items           []CheckoutItem  `json:"items" binding:"required,min=1,dive"`
	Customer        CustomerInfo    `json:"customer" binding:"required"`
	ShippingAddress models.Address  `json:"shipping_address" binding:"required"`
	BillingAddress  *models.Address `json:"billing_address,omitempty"`
	ShippingMethod  string          `json:"shipping_method"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Notes           string          `json:"notes"`
}

// CreateOrderResponse represents the response after checkout
type CreateOrderResponse struct {
	OrderID     int64           `json:"orderId"`
	OrderUUID   string          `json:"orderUuid"`
	OrderNumber string          `json:"orderNumber"`
	Status      string          `json:"status"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
	Warning     string          `json:"warning,omitempty"`
}

// CreateOrder runs the checkout flow: verify the payment settled, resolve the
// customer (best-effort), write the order atomically, then fire the
// confirmation email and the OrderPlaced event without blocking the result.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	verifyStart := time.Now()
	intent, err := s.verifier.Verify(ctx, req.PaymentIntentID)
	util.PaymentVerifyLatency.Observe(time.Since(verifyStart).Seconds())
	if err != nil {
		util.PaymentVerificationsTotal.WithLabelValues("error").Inc()
		util.OrdersFailedTotal.WithLabelValues("payment_unverified").Inc()
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotSettled, err)
	}
	if intent.Status != payment.StatusSucceeded {
		util.PaymentVerificationsTotal.WithLabelValues(intent.Status).Inc()
		util.OrdersFailedTotal.WithLabelValues("payment_unverified").Inc()
		return nil, fmt.Errorf("%w: processor status %q", ErrPaymentNotSettled, intent.Status)
	}
	util.PaymentVerificationsTotal.WithLabelValues("succeeded").Inc()

	items := make([]models.OrderItem, 0, len(req.Items))
	subtotal := decimal.Zero
	for _, line := range req.Items {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		items = append(items, models.OrderItem{
			SKU:       line.SKU,
			Name:      line.Name,
			ImageURL:  line.ImageURL,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: lineTotal,
		})
	}
	total := subtotal.Add(req.TaxAmount).Add(req.ShippingCost)

	var customerID *int64
	customer, err := s.store.FindOrCreateCustomer(ctx,
		req.Customer.Email, req.Customer.FirstName, req.Customer.LastName, req.Customer.Phone)
	if err != nil {
		// Guest checkout proceeds without a linked account.
		s.logger.Error("Customer resolution failed, continuing as guest",
			zap.String("email", req.Customer.Email),
			zap.Error(err))
	} else {
		customerID = &customer.ID
	}

	billing := req.ShippingAddress
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	var notes *string
	if req.Notes != "" {
		notes = &req.Notes
	}

	order := &models.Order{
		UUID:           uuid.New(),
		OrderNumber:    newOrderNumber(),
		CustomerID:     customerID,
		Status:         models.StatusPending,
		PaymentStatus:  models.PaymentPaid,
		PaymentRef:     intent.ID,
		Subtotal:       subtotal,
		TaxAmount:      req.TaxAmount,
		ShippingAmount: req.ShippingCost,
		TotalAmount:    total,
		ShippingMethod: req.ShippingMethod,
		ShippingAddr:   req.ShippingAddress,
		BillingAddr:    billing,
		Notes:          notes,
	}

	if err := s.store.CreateOrder(ctx, order, items); err != nil {
		// The customer has been charged; surface a warning instead of an
		// error so the client never contradicts the bank statement.
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		s.logger.Error("Order write failed after settled payment",
			zap.String("payment_ref", intent.ID),
			zap.Error(fmt.Errorf("%w: %v", ErrOrderNotRecorded, err)))
		return &CreateOrderResponse{
			Status:    string(models.StatusPending),
			Total:     total,
			CreatedAt: time.Now(),
			Warning:   "your payment was received but the order record is delayed; our team has been notified",
		}, nil
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber))

	if err := s.mailer.SendOrderConfirmation(ctx, req.Customer.Email, order); err != nil {
		util.EmailsFailedTotal.WithLabelValues("confirmation").Inc()
		s.logger.Error("Failed to send confirmation email",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	} else {
		util.EmailsSentTotal.WithLabelValues("confirmation").Inc()
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
		ItemCount:   len(items),
		PlacedAt:    order.CreatedAt,
	}
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return &CreateOrderResponse{
		OrderID:     order.ID,
		OrderUUID:   order.UUID.String(),
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		Total:       order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}, nil
}

// UpdateOrderRequest is the partial body of an operator status update.
type UpdateOrderRequest struct {
	Status         *models.FulfillmentStatus `json:"status,omitempty"`
	PaymentStatus  *models.PaymentStatus     `json:"payment_status,omitempty"`
	Notes          *string                   `json:"notes,omitempty"`
	TrackingNumber *string                   `json:"tracking_number,omitempty"`
	TrackingURL    *string                   `json:"tracking_url,omitempty"`
	ShippedAt      *time.Time                `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time                `json:"delivered_at,omitempty"`
}

// UpdateOrderResult carries the updated row and whether a transition email
// was actually delivered.
type UpdateOrderResult struct {
	Order     *models.Order `json:"order"`
	EmailSent bool          `json:"email_sent"`
}

// UpdateStatus applies an operator's partial update to an order resolved by
// internal id or order number. Status changes are validated against the
// transition table and trigger at most one notification email, whose failure
// never rolls back the persisted update.
func (s *OrderService) UpdateStatus(ctx context.Context, ref string, req *UpdateOrderRequest) (*UpdateOrderResult, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	patch := models.OrderPatch{
		Status:         req.Status,
		PaymentStatus:  req.PaymentStatus,
		Notes:          req.Notes,
		TrackingNumber: req.TrackingNumber,
		TrackingURL:    req.TrackingURL,
		ShippedAt:      req.ShippedAt,
		DeliveredAt:    req.DeliveredAt,
	}
	if patch.Empty() {
		return nil, store.ErrEmptyUpdate
	}

	order, err := s.store.GetOrderByRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if patch.Status != nil {
		if !models.ValidStatus(*patch.Status) {
			return nil, fmt.Errorf("unknown fulfillment status %q", *patch.Status)
		}
		if !models.CanTransition(previous, *patch.Status) {
			return nil, &models.InvalidTransitionError{From: previous, To: *patch.Status}
		}

		now := time.Now()
		if *patch.Status == models.StatusShipped && patch.ShippedAt == nil {
			patch.ShippedAt = &now
		}
		if *patch.Status == models.StatusDelivered && patch.DeliveredAt == nil {
			patch.DeliveredAt = &now
		}
	}

	updated, err := s.store.UpdateOrder(ctx, order.ID, patch)
	if err != nil {
		return nil, err
	}

	emailSent := false
	if patch.Status != nil && *patch.Status != previous {
		util.OrderStatusChangesTotal.WithLabelValues(string(*patch.Status)).Inc()
		emailSent = s.notifyTransition(ctx, updated)

		event := &models.OrderStatusChangedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderStatusChanged,
				Timestamp: time.Now(),
			},
			OrderID:     updated.ID,
			OrderNumber: updated.OrderNumber,
			From:        previous,
			To:          updated.Status,
		}
		if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}

	return &UpdateOrderResult{Order: updated, EmailSent: emailSent}, nil
}

// notifyTransition sends the state-specific email for a fulfillment
// transition. Failures are logged and swallowed.
func (s *OrderService) notifyTransition(ctx context.Context, order *models.Order) bool {
	if order.CustomerID == nil {
		return false
	}
	customer, err := s.store.GetCustomerByID(ctx, *order.CustomerID)
	if err != nil {
		s.logger.Error("Failed to load customer for notification",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
		return false
	}

	var sendErr error
	var kind string
	switch order.Status {
	case models.StatusShipped:
		kind = "shipped"
		shippedAt := time.Now()
		if order.ShippedAt != nil {
			shippedAt = *order.ShippedAt
		}
		estimate := shippedAt.AddDate(0, 0, s.estimateDays)
		sendErr = s.mailer.SendShippingNotification(ctx, customer.Email, order, estimate)
	case models.StatusDelivered:
		kind = "delivered"
		sendErr = s.mailer.SendDeliveryNotification(ctx, customer.Email, order)
	default:
		return false
	}

	if sendErr != nil {
		util.EmailsFailedTotal.WithLabelValues(kind).Inc()
		s.logger.Error("Failed to send transition email",
			zap.Int64("order_id", order.ID),
			zap.String("transition", kind),
			zap.Error(sendErr))
		return false
	}
	util.EmailsSentTotal.WithLabelValues(kind).Inc()
	return true
}

// newOrderNumber generates the human-facing order identifier.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d-%04d", time.Now().UnixMilli(), rand.Intn(10000))
}
