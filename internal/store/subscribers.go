package store

import (
	"context"
	"strings"

	"roastery-service/internal/models"
)

// UpsertSubscriber records a subscription signup. Re-subscribing with a known
// email refreshes the name instead of failing.
func (s *Store) UpsertSubscriber(ctx context.Context, email, name string) (*models.Subscriber, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var sub models.Subscriber
	err := s.db.GetContext(ctx, &sub, `
		INSERT INTO subscribers (email, name)
		VALUES ($1, $2)
		ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		RETURNING *`,
		email, name)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
