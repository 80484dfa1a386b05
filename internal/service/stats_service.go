package service

import (
	"context"

	"roastery-service/internal/models"
	"roastery-service/internal/store"
)

// StatsService reads the analytics rollup for the admin dashboard.
type StatsService struct {
	store *store.Store
}

// NewStatsService creates a new stats service
func NewStatsService(st *store.Store) *StatsService {
	return &StatsService{store: st}
}

// Daily returns aggregated order counts and revenue for the last n days.
// Days outside 1..365 fall back to 30.
func (ss *StatsService) Daily(ctx context.Context, days int) ([]models.DailyStat, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	return ss.store.GetDailyStats(ctx, days)
}
