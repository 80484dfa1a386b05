package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FulfillmentStatus is the shipping/delivery lifecycle state of an order,
// distinct from its payment status.
type FulfillmentStatus string

const (
	StatusPending    FulfillmentStatus = "pending"
	StatusProcessing FulfillmentStatus = "processing"
	StatusShipped    FulfillmentStatus = "shipped"
	StatusDelivered  FulfillmentStatus = "delivered"
	StatusCancelled  FulfillmentStatus = "cancelled"
	StatusRefunded   FulfillmentStatus = "refunded"
)

// PaymentStatus tracks the money side of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// transitions is the legal fulfillment state machine. Terminal states have no
// outgoing edges.
var transitions = map[FulfillmentStatus][]FulfillmentStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered, StatusRefunded},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// ValidStatus reports whether s is one of the known fulfillment statuses.
func ValidStatus(s FulfillmentStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether moving from one fulfillment status to another
// is legal.
func CanTransition(from, to FulfillmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// InvalidTransitionError is returned when an operator attempts an illegal
// fulfillment status change.
type InvalidTransitionError struct {
	From FulfillmentStatus
	To   FulfillmentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition: %s -> %s", e.From, e.To)
}

// Address is stored as an opaque JSONB blob on the order row.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Value implements driver.Valuer so addresses persist as JSONB.
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Address) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("address: unsupported scan type %T", src)
	}
	return json.Unmarshal(b, a)
}

// Order represents one checkout transaction. The internal id and the
// human-facing order number are both immutable after creation.
type Order struct {
	ID             int64             `db:"id" json:"id"`
	UUID           uuid.UUID         `db:"uuid" json:"uuid"`
	OrderNumber    string            `db:"order_number" json:"order_number"`
	CustomerID     *int64            `db:"customer_id" json:"customer_id,omitempty"`
	Status         FulfillmentStatus `db:"status" json:"status"`
	PaymentStatus  PaymentStatus     `db:"payment_status" json:"payment_status"`
	PaymentRef     string            `db:"payment_ref" json:"payment_ref,omitempty"`
	Subtotal       decimal.Decimal   `db:"subtotal" json:"subtotal"`
	TaxAmount      decimal.Decimal   `db:"tax_amount" json:"tax_amount"`
	ShippingAmount decimal.Decimal   `db:"shipping_amount" json:"shipping_amount"`
	TotalAmount    decimal.Decimal   `db:"total_amount" json:"total_amount"`
	ShippingMethod string            `db:"shipping_method" json:"shipping_method,omitempty"`
	ShippingAddr   Address           `db:"shipping_address" json:"shipping_address"`
	BillingAddr    Address           `db:"billing_address" json:"billing_address"`
	TrackingNumber *string           `db:"tracking_number" json:"tracking_number,omitempty"`
	TrackingURL    *string           `db:"tracking_url" json:"tracking_url,omitempty"`
	Notes          *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
	ShippedAt      *time.Time        `db:"shipped_at" json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time        `db:"delivered_at" json:"delivered_at,omitempty"`
}

// OrderItem is one line within an order. It snapshots the product at purchase
// time and is immutable after creation.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	SKU       string          `db:"sku" json:"sku"`
	Name      string          `db:"name" json:"name"`
	ImageURL  string          `db:"image_url" json:"image_url,omitempty"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
	LineTotal decimal.Decimal `db:"line_total" json:"line_total"`
}

// Customer is a person record keyed by lower-cased email. Created lazily on
// first guest checkout.
type Customer struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Phone     string    `db:"phone" json:"phone,omitempty"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StatusEvent is one row of the append-only status change log.
type StatusEvent struct {
	ID        int64             `db:"id" json:"id"`
	OrderID   int64             `db:"order_id" json:"order_id"`
	Status    FulfillmentStatus `db:"status" json:"status"`
	Note      string            `db:"note" json:"note,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// Product is a catalog entry.
type Product struct {
	ID          int64           `db:"id" json:"id"`
	SKU         string          `db:"sku" json:"sku"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	RoastLevel  string          `db:"roast_level" json:"roast_level,omitempty"`
	Origin      string          `db:"origin" json:"origin,omitempty"`
	Price       decimal.Decimal `db:"price" json:"price"`
	ImageURL    string          `db:"image_url" json:"image_url,omitempty"`
	Active      bool            `db:"active" json:"active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// Review statuses
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Review is a customer product review awaiting moderation.
type Review struct {
	ID        int64     `db:"id" json:"id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Author    string    `db:"author" json:"author"`
	Email     string    `db:"email" json:"-"`
	Rating    int       `db:"rating" json:"rating"`
	Body      string    `db:"body" json:"body"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Subscriber is a newsletter/subscription signup.
type Subscriber struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// DailyStat is one aggregated row of the admin analytics dashboard.
type DailyStat struct {
	Day     time.Time       `db:"day" json:"day"`
	Orders  int64           `db:"orders" json:"orders"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
}

// OrderPatch is the set of operator-updatable order fields. Nil means leave
// unchanged. A patch with no recognized fields is rejected as a no-op.
type OrderPatch struct {
	Status         *FulfillmentStatus
	PaymentStatus  *PaymentStatus
	Notes          *string
	TrackingNumber *string
	TrackingURL    *string
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
}

// Empty reports whether the patch contains no recognized fields.
func (p OrderPatch) Empty() bool {
	return p.Status == nil &&
		p.PaymentStatus == nil &&
		p.Notes == nil &&
		p.TrackingNumber == nil &&
		p.TrackingURL == nil &&
		p.ShippedAt == nil &&
		p.DeliveredAt == nil
}
