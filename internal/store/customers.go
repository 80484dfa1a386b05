package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"roastery-service/internal/models"
)

// FindOrCreateCustomer resolves a customer by email, creating the row on
// first guest checkout. Emails are normalized to lower case before lookup and
// insert; the ON CONFLICT clause makes two concurrent checkouts with the same
// email converge on one row.
func (s *Store) FindOrCreateCustomer(ctx context.Context, email, firstName, lastName, phone string) (*models.Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("customer email is required")
	}

	var customer models.Customer
	err := s.db.GetContext(ctx, &customer,
		"SELECT * FROM customers WHERE email = $1", email)
	if err == nil {
		return &customer, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	err = s.db.GetContext(ctx, &customer, `
		INSERT INTO customers (email, first_name, last_name, phone, role)
		VALUES ($1, $2, $3, $4, 'customer')
		ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
		RETURNING *`,
		email, firstName, lastName, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return &customer, nil
}
