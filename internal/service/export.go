package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"roastery-service/internal/store"
	"roastery-service/internal/util"
)

var exportHeader = []string{
	"order_number", "created_at", "status", "payment_status", "customer_email",
	"item_sku", "item_name", "quantity", "unit_price", "line_total",
	"subtotal", "tax", "shipping", "total",
}

// ExportOrdersCSV streams the order export to w.
func (s *OrderService) ExportOrdersCSV(ctx context.Context, w io.Writer) error {
	ctx, span := util.StartSpan(ctx, "OrderService.ExportOrdersCSV")
	defer span.End()

	rows, err := s.store.ListExportRows(ctx)
	if err != nil {
		return fmt.Errorf("failed to load export rows: %w", err)
	}

	util.OrderExportsTotal.Inc()
	return WriteOrdersCSV(w, rows)
}

// WriteOrdersCSV writes one CSV row per order line item, or a single row for
// an order without items. Order-level totals appear only on each order's
// first row so a naive spreadsheet sum does not double-count them.
func WriteOrdersCSV(w io.Writer, rows []store.ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	var lastOrderID int64
	for _, row := range rows {
		firstOfOrder := row.OrderID != lastOrderID
		lastOrderID = row.OrderID

		record := []string{
			row.OrderNumber,
			row.CreatedAt.Format("2006-01-02 15:04:05"),
			row.Status,
			row.PaymentStatus,
			row.CustomerEmail.String,
			row.ItemSKU.String,
			row.ItemName.String,
			"",
			"",
			"",
			"",
			"",
			"",
			"",
		}

		if row.Quantity.Valid {
			record[7] = strconv.FormatInt(row.Quantity.Int64, 10)
		}
		if row.UnitPrice.Valid {
			record[8] = row.UnitPrice.Decimal.StringFixed(2)
		}
		if row.LineTotal.Valid {
			record[9] = row.LineTotal.Decimal.StringFixed(2)
		}

		if firstOfOrder {
			record[10] = row.Subtotal.StringFixed(2)
			record[11] = row.TaxAmount.StringFixed(2)
			record[12] = row.ShippingAmount.StringFixed(2)
			record[13] = row.TotalAmount.StringFixed(2)
		}

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
