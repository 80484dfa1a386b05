package store

import (
	"context"
	"time"

	"roastery-service/internal/models"

	"github.com/shopspring/decimal"
)

// RecordOrderStat folds one placed order into the daily analytics rollup
func (s *Store) RecordOrderStat(ctx context.Context, day time.Time, total decimal.Decimal) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_order_stats (day, orders, revenue)
		VALUES ($1::date, 1, $2)
		ON CONFLICT (day) DO UPDATE
		SET orders = daily_order_stats.orders + 1,
		    revenue = daily_order_stats.revenue + EXCLUDED.revenue`,
		day, total)
	return err
}

// GetDailyStats retrieves the rollup for the last n days, newest first
func (s *Store) GetDailyStats(ctx context.Context, days int) ([]models.DailyStat, error) {
	var stats []models.DailyStat
	err := s.db.SelectContext(ctx, &stats, `
		SELECT day, orders, revenue
		FROM daily_order_stats
		WHERE day >= CURRENT_DATE - $1::int
		ORDER BY day DESC`,
		days)
	return stats, err
}
