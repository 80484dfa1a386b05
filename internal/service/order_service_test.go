package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"roastery-service/internal/models"
	"roastery-service/internal/payment"
	"roastery-service/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	orders       map[int64]*models.Order
	itemsByOrder map[int64][]models.OrderItem
	events       map[int64][]models.StatusEvent
	customers    map[int64]*models.Customer
	nextID       int64
	createCalls  int
	updateCalls  int
	createErr    error
	customerErr  error
	exportRows   []store.ExportRow
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:       map[int64]*models.Order{},
		itemsByOrder: map[int64][]models.OrderItem{},
		events:       map[int64][]models.StatusEvent{},
		customers:    map[int64]*models.Customer{},
	}
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.orders[order.ID] = order
	for i := range items {
		items[i].OrderID = order.ID
	}
	f.itemsByOrder[order.ID] = items
	f.events[order.ID] = append(f.events[order.ID], models.StatusEvent{
		OrderID: order.ID, Status: order.Status, Note: "order placed", CreatedAt: order.CreatedAt,
	})
	return nil
}

func (f *fakeStore) GetOrderByRef(ctx context.Context, ref string) (*models.Order, error) {
	for _, o := range f.orders {
		if o.OrderNumber == ref || fmt.Sprintf("%d", o.ID) == ref {
			copied := *o
			return &copied, nil
		}
	}
	return nil, store.ErrOrderNotFound
}

func (f *fakeStore) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	return f.itemsByOrder[orderID], nil
}

func (f *fakeStore) UpdateOrder(ctx context.Context, orderID int64, patch models.OrderPatch) (*models.Order, error) {
	f.updateCalls++
	if patch.Empty() {
		return nil, store.ErrEmptyUpdate
	}
	order, ok := f.orders[orderID]
	if !ok {
		return nil, store.ErrOrderNotFound
	}
	if patch.Status != nil {
		order.Status = *patch.Status
		f.events[orderID] = append(f.events[orderID], models.StatusEvent{
			OrderID: orderID, Status: *patch.Status, CreatedAt: time.Now(),
		})
	}
	if patch.PaymentStatus != nil {
		order.PaymentStatus = *patch.PaymentStatus
	}
	if patch.Notes != nil {
		order.Notes = patch.Notes
	}
	if patch.TrackingNumber != nil {
		order.TrackingNumber = patch.TrackingNumber
	}
	if patch.TrackingURL != nil {
		order.TrackingURL = patch.TrackingURL
	}
	if patch.ShippedAt != nil {
		order.ShippedAt = patch.ShippedAt
	}
	if patch.DeliveredAt != nil {
		order.DeliveredAt = patch.DeliveredAt
	}
	order.UpdatedAt = time.Now()
	copied := *order
	return &copied, nil
}

func (f *fakeStore) GetStatusEvents(ctx context.Context, orderID int64) ([]models.StatusEvent, error) {
	return f.events[orderID], nil
}

func (f *fakeStore) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	customer, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer not found: %d", id)
	}
	return customer, nil
}

func (f *fakeStore) FindOrCreateCustomer(ctx context.Context, email, firstName, lastName, phone string) (*models.Customer, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	for _, c := range f.customers {
		if c.Email == email {
			return c, nil
		}
	}
	f.nextID++
	customer := &models.Customer{
		ID: f.nextID, Email: email, FirstName: firstName, LastName: lastName, Phone: phone, Role: "customer",
	}
	f.customers[customer.ID] = customer
	return customer, nil
}

func (f *fakeStore) ListExportRows(ctx context.Context) ([]store.ExportRow, error) {
	return f.exportRows, nil
}

type fakeVerifier struct {
	status string
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, intentID string) (*payment.Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &payment.Intent{ID: intentID, Status: f.status, Currency: "usd"}, nil
}

type fakeMailer struct {
	confirmations int
	shipped       int
	delivered     int
	err           error
}

func (f *fakeMailer) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	f.confirmations++
	return f.err
}

func (f *fakeMailer) SendShippingNotification(ctx context.Context, to string, order *models.Order, estimate time.Time) error {
	f.shipped++
	return f.err
}

func (f *fakeMailer) SendDeliveryNotification(ctx context.Context, to string, order *models.Order) error {
	f.delivered++
	return f.err
}

type fakePublisher struct {
	placed  int
	changed int
	err     error
}

func (f *fakePublisher) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	f.placed++
	return f.err
}

func (f *fakePublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	f.changed++
	return f.err
}

func newTestService(st *fakeStore, verifier *fakeVerifier, mail *fakeMailer) *OrderService {
	return NewOrderService(st, verifier, mail, &fakePublisher{}, 5)
}

func checkoutRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		PaymentIntentID: "pi_test_123",
		Items: []CheckoutItem{
			{SKU: "ETH-LGHT-250", Name: "Ethiopia Guji Light Roast", Quantity: 2,
				UnitPrice: decimal.RequireFromString("12.50")},
		},
		Customer: CustomerInfo{
			Email: "buyer@example.com", FirstName: "Sam", LastName: "Lee",
		},
		ShippingAddress: models.Address{
			Street: "1 Bean St", City: "Portland", State: "OR", Zip: "97201", Country: "US",
		},
	}
}

func TestCreateOrderRejectsUnsettledPayment(t *testing.T) {
	for _, status := range []string{payment.StatusRequiresAction, payment.StatusFailed, "processing"} {
		st := newFakeStore()
		svc := newTestService(st, &fakeVerifier{status: status}, &fakeMailer{})

		resp, err := svc.CreateOrder(context.Background(), checkoutRequest())

		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrPaymentNotSettled)
		assert.Zero(t, st.createCalls, "no rows may be written for status %q", status)
		assert.Empty(t, st.orders)
	}
}

func TestCreateOrderRejectsUnknownIntent(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeVerifier{err: errors.New("unknown payment intent")}, &fakeMailer{})

	_, err := svc.CreateOrder(context.Background(), checkoutRequest())

	assert.ErrorIs(t, err, ErrPaymentNotSettled)
	assert.Zero(t, st.createCalls)
}

func TestCreateOrderTotals(t *testing.T) {
	st := newFakeStore()
	mail := &fakeMailer{}
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, mail)

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	order := st.orders[resp.OrderID]
	require.NotNil(t, order)

	assert.True(t, order.Subtotal.Equal(decimal.RequireFromString("25.00")), "subtotal = 2 x 12.50")
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("25.00")))
	assert.True(t, order.TotalAmount.Equal(order.Subtotal.Add(order.TaxAmount).Add(order.ShippingAmount)))
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, 1, mail.confirmations)

	items := st.itemsByOrder[resp.OrderID]
	require.Len(t, items, 1)
	assert.True(t, items[0].LineTotal.Equal(decimal.RequireFromString("25.00")))
}

func TestCreateOrderTotalIncludesTaxAndShipping(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, &fakeMailer{})

	req := checkoutRequest()
	req.TaxAmount = decimal.RequireFromString("2.13")
	req.ShippingCost = decimal.RequireFromString("4.99")

	resp, err := svc.CreateOrder(context.Background(), req)
	require.NoError(t, err)

	order := st.orders[resp.OrderID]
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("32.12")),
		"total = subtotal + tax + shipping, got %s", order.TotalAmount)
}

func TestCreateOrderGuestWhenCustomerResolutionFails(t *testing.T) {
	st := newFakeStore()
	st.customerErr = errors.New("customers table unavailable")
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, &fakeMailer{})

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	order := st.orders[resp.OrderID]
	require.NotNil(t, order)
	assert.Nil(t, order.CustomerID, "order proceeds without a linked customer")
}

func TestCreateOrderWarnsWhenWriteFailsAfterPayment(t *testing.T) {
	st := newFakeStore()
	st.createErr = errors.New("disk on fire")
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, &fakeMailer{})

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())

	require.NoError(t, err, "a charged customer must not see a failure")
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.Warning)
	assert.Zero(t, resp.OrderID)
}

func TestOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d+-\d{4}$`)
	for i := 0; i < 20; i++ {
		assert.Regexp(t, pattern, newOrderNumber())
	}
}

func TestUpdateStatusEmptyPatchRejected(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, &fakeMailer{})

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	result, err := svc.UpdateStatus(context.Background(), resp.OrderNumber, &UpdateOrderRequest{})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, store.ErrEmptyUpdate)
	assert.Zero(t, st.updateCalls, "row must be left unchanged")
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, &fakeMailer{})

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	delivered := models.StatusDelivered
	_, err = svc.UpdateStatus(context.Background(), resp.OrderNumber, &UpdateOrderRequest{Status: &delivered})

	var transitionErr *models.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, models.StatusPending, transitionErr.From)
	assert.Equal(t, models.StatusDelivered, transitionErr.To)
	assert.Equal(t, models.StatusPending, st.orders[resp.OrderID].Status)
}

func TestUpdateStatusShippedSendsOneEmail(t *testing.T) {
	st := newFakeStore()
	mail := &fakeMailer{}
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, mail)

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	processing := models.StatusProcessing
	_, err = svc.UpdateStatus(context.Background(), resp.OrderNumber, &UpdateOrderRequest{Status: &processing})
	require.NoError(t, err)

	shipped := models.StatusShipped
	shippedAt := time.Now()
	result, err := svc.UpdateStatus(context.Background(), resp.OrderNumber,
		&UpdateOrderRequest{Status: &shipped, ShippedAt: &shippedAt})
	require.NoError(t, err)

	assert.Equal(t, 1, mail.shipped, "exactly one shipping notification")
	assert.True(t, result.EmailSent)
	assert.Equal(t, models.StatusShipped, result.Order.Status)
}

func TestUpdateStatusPersistsWhenEmailFails(t *testing.T) {
	st := newFakeStore()
	mail := &fakeMailer{}
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, mail)

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	processing := models.StatusProcessing
	_, err = svc.UpdateStatus(context.Background(), resp.OrderNumber, &UpdateOrderRequest{Status: &processing})
	require.NoError(t, err)

	mail.err = errors.New("mail provider down")
	shipped := models.StatusShipped
	result, err := svc.UpdateStatus(context.Background(), resp.OrderNumber, &UpdateOrderRequest{Status: &shipped})

	require.NoError(t, err, "email failure must not surface to the caller")
	assert.Equal(t, 1, mail.shipped, "send was attempted exactly once")
	assert.False(t, result.EmailSent)
	assert.Equal(t, models.StatusShipped, st.orders[resp.OrderID].Status, "update stays persisted")
}

func TestUpdateStatusStampsShippedAt(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, &fakeMailer{})

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	processing := models.StatusProcessing
	_, err = svc.UpdateStatus(context.Background(), resp.OrderNumber, &UpdateOrderRequest{Status: &processing})
	require.NoError(t, err)

	shipped := models.StatusShipped
	result, err := svc.UpdateStatus(context.Background(), resp.OrderNumber, &UpdateOrderRequest{Status: &shipped})
	require.NoError(t, err)
	assert.NotNil(t, result.Order.ShippedAt, "shipped_at is stamped when omitted")
}

func TestGetOrderByIDAndNumberAreIdentical(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, &fakeMailer{})

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	byNumber, err := svc.GetOrder(context.Background(), resp.OrderNumber)
	require.NoError(t, err)

	byID, err := svc.GetOrder(context.Background(), fmt.Sprintf("%d", resp.OrderID))
	require.NoError(t, err)

	assert.Equal(t, byNumber, byID)
	assert.Equal(t, resp.OrderNumber, byID.OrderNumber)
	require.Len(t, byID.Items, 1)
	require.NotEmpty(t, byID.History)
	assert.Equal(t, string(models.StatusPending), byID.History[0].Status)
}

func TestGetOrderHistoryFollowsEventLog(t *testing.T) {
	st := newFakeStore()
	svc := newTestService(st, &fakeVerifier{status: payment.StatusSucceeded}, &fakeMailer{})

	resp, err := svc.CreateOrder(context.Background(), checkoutRequest())
	require.NoError(t, err)

	for _, status := range []models.FulfillmentStatus{models.StatusProcessing, models.StatusShipped, models.StatusDelivered} {
		s := status
		_, err = svc.UpdateStatus(context.Background(), resp.OrderNumber, &UpdateOrderRequest{Status: &s})
		require.NoError(t, err)
	}

	view, err := svc.GetOrder(context.Background(), resp.OrderNumber)
	require.NoError(t, err)

	got := make([]string, 0, len(view.History))
	for _, entry := range view.History {
		got = append(got, entry.Status)
	}
	assert.Equal(t, []string{"pending", "processing", "shipped", "delivered"}, got)
}
