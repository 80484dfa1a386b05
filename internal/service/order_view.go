package service

import (
	"context"
	"time"

	"roastery-service/internal/models"
	"roastery-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderView is the client-facing shape of an order.
type OrderView struct {
	OrderNumber   string          `json:"order_number"`
	UUID          string          `json:"uuid"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Items         []OrderItemView `json:"items"`
	Customer      *CustomerView   `json:"customer,omitempty"`
	Shipping      ShippingView    `json:"shipping"`
	Totals        TotalsView      `json:"totals"`
	History       []HistoryEntry  `json:"history"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderItemView struct {
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CustomerView struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
}

type ShippingView struct {
	Address        models.Address  `json:"address"`
	Method         string          `json:"method,omitempty"`
	Cost           decimal.Decimal `json:"cost"`
	TrackingNumber string          `json:"tracking_number,omitempty"`
	TrackingURL    string          `json:"tracking_url,omitempty"`
	ShippedAt      *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
}

type TotalsView struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type HistoryEntry struct {
	Status string    `json:"status"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

// GetOrder reconstructs the client-facing order view, resolving the reference
// by internal id or order number. The status history comes from the
// append-only event log.
func (s *OrderService) GetOrder(ctx context.Context, ref string) (*OrderView, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.store.GetOrderByRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	items, err := s.store.GetOrderItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	events, err := s.store.GetStatusEvents(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	view := &OrderView{
		OrderNumber:   order.OrderNumber,
		UUID:          order.UUID.String(),
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		Items:         make([]OrderItemView, 0, len(items)),
		Shipping: ShippingView{
			Address:     order.ShippingAddr,
			Method:      order.ShippingMethod,
			Cost:        order.ShippingAmount,
			ShippedAt:   order.ShippedAt,
			DeliveredAt: order.DeliveredAt,
		},
		Totals: TotalsView{
			Subtotal: order.Subtotal,
			Shipping: order.ShippingAmount,
			Tax:      order.TaxAmount,
			Total:    order.TotalAmount,
		},
		History:   make([]HistoryEntry, 0, len(events)),
		CreatedAt: order.CreatedAt,
	}

	if order.TrackingNumber != nil {
		view.Shipping.TrackingNumber = *order.TrackingNumber
	}
	if order.TrackingURL != nil {
		view.Shipping.TrackingURL = *order.TrackingURL
	}

	for _, item := range items {
		view.Items = append(view.Items, OrderItemView{
			SKU:       item.SKU,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		})
	}

	for _, ev := range events {
		view.History = append(view.History, HistoryEntry{
			Status: string(ev.Status),
			Note:   ev.Note,
			At:     ev.CreatedAt,
		})
	}

	if order.CustomerID != nil {
		customer, err := s.store.GetCustomerByID(ctx, *order.CustomerID)
		if err != nil {
			// A missing customer row should not break the order view.
			s.logger.Warn("Failed to load customer for order view",
				zap.Int64("order_id", order.ID),
				zap.Error(err))
		} else {
			view.Customer = &CustomerView{
				Email:     customer.Email,
				FirstName: customer.FirstName,
				LastName:  customer.LastName,
				Phone:     customer.Phone,
			}
		}
	}

	return view, nil
}
