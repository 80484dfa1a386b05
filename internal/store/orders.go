package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"roastery-service/internal/models"

	sq "github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

// CreateOrder inserts the order header, all line items, and the initial
// status event in a single transaction. The write is all-or-nothing: a
// failure on any row rolls back the whole order.
func (s *Store) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (
			uuid, order_number, customer_id, status, payment_status, payment_ref,
			subtotal, tax_amount, shipping_amount, total_amount,
			shipping_method, shipping_address, billing_address, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		order.UUID, order.OrderNumber, order.CustomerID, order.Status,
		order.PaymentStatus, order.PaymentRef,
		order.Subtotal, order.TaxAmount, order.ShippingAmount, order.TotalAmount,
		order.ShippingMethod, order.ShippingAddr, order.BillingAddr, order.Notes,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, sku, name, image_url, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			items[i].OrderID, items[i].SKU, items[i].Name, items[i].ImageURL,
			items[i].Quantity, items[i].UnitPrice, items[i].LineTotal,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to insert order item %s: %w", items[i].SKU, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO order_status_events (order_id, status, note) VALUES ($1, $2, $3)",
		order.ID, order.Status, "order placed")
	if err != nil {
		return fmt.Errorf("failed to insert status event: %w", err)
	}

	return tx.Commit()
}

// GetOrderByRef resolves an order by internal id or human-facing order
// number, whichever matches.
func (s *Store) GetOrderByRef(ctx context.Context, ref string) (*models.Order, error) {
	id, _ := strconv.ParseInt(ref, 10, 64)

	var order models.Order
	err := s.db.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE order_number = $1 OR id = $2", ref, id)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves all line items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrder applies a partial field update and appends a status event when
// the fulfillment status changes, both in one transaction. The updated row is
// returned.
func (s *Store) UpdateOrder(ctx context.Context, orderID int64, patch models.OrderPatch) (*models.Order, error) {
	if patch.Empty() {
		return nil, ErrEmptyUpdate
	}

	builder := sq.Update("orders").
		PlaceholderFormat(sq.Dollar).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": orderID}).
		Suffix("RETURNING *")

	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	if patch.PaymentStatus != nil {
		builder = builder.Set("payment_status", *patch.PaymentStatus)
	}
	if patch.Notes != nil {
		builder = builder.Set("notes", *patch.Notes)
	}
	if patch.TrackingNumber != nil {
		builder = builder.Set("tracking_number", *patch.TrackingNumber)
	}
	if patch.TrackingURL != nil {
		builder = builder.Set("tracking_url", *patch.TrackingURL)
	}
	if patch.ShippedAt != nil {
		builder = builder.Set("shipped_at", *patch.ShippedAt)
	}
	if patch.DeliveredAt != nil {
		builder = builder.Set("delivered_at", *patch.DeliveredAt)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update query: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var order models.Order
	err = tx.GetContext(ctx, &order, query, args...)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if patch.Status != nil {
		note := ""
		if patch.TrackingNumber != nil {
			note = "tracking " + *patch.TrackingNumber
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO order_status_events (order_id, status, note) VALUES ($1, $2, $3)",
			order.ID, *patch.Status, note)
		if err != nil {
			return nil, fmt.Errorf("failed to insert status event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

// GetStatusEvents retrieves the append-only status log for an order, oldest
// first.
func (s *Store) GetStatusEvents(ctx context.Context, orderID int64) ([]models.StatusEvent, error) {
	var events []models.StatusEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT * FROM order_status_events WHERE order_id = $1 ORDER BY id", orderID)
	return events, err
}

// GetCustomerByID retrieves the customer linked to an order, if any
func (s *Store) GetCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// ExportRow is one flattened order/line-item row for the CSV export. Item
// columns are null for orders without line items.
type ExportRow struct {
	OrderID        int64               `db:"order_id"`
	OrderNumber    string              `db:"order_number"`
	Status         string              `db:"status"`
	PaymentStatus  string              `db:"payment_status"`
	CustomerEmail  sql.NullString      `db:"customer_email"`
	CreatedAt      time.Time           `db:"created_at"`
	Subtotal       decimal.Decimal     `db:"subtotal"`
	TaxAmount      decimal.Decimal     `db:"tax_amount"`
	ShippingAmount decimal.Decimal     `db:"shipping_amount"`
	TotalAmount    decimal.Decimal     `db:"total_amount"`
	ItemSKU        sql.NullString      `db:"item_sku"`
	ItemName       sql.NullString      `db:"item_name"`
	Quantity       sql.NullInt64       `db:"quantity"`
	UnitPrice      decimal.NullDecimal `db:"unit_price"`
	LineTotal      decimal.NullDecimal `db:"line_total"`
}

// ListExportRows retrieves one row per order line item (or one row per order
// when it has none), grouped by order in creation order.
func (s *Store) ListExportRows(ctx context.Context) ([]ExportRow, error) {
	var rows []ExportRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT
			o.id AS order_id,
			o.order_number,
			o.status,
			o.payment_status,
			c.email AS customer_email,
			o.created_at,
			o.subtotal,
			o.tax_amount,
			o.shipping_amount,
			o.total_amount,
			i.sku AS item_sku,
			i.name AS item_name,
			i.quantity,
			i.unit_price,
			i.line_total
		FROM orders o
		LEFT JOIN customers c ON c.id = o.customer_id
		LEFT JOIN order_items i ON i.order_id = o.id
		ORDER BY o.id, i.id`)
	return rows, err
}
