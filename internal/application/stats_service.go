package application

import (
	"context"
	"fmt"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/ports"

	"github.com/rs/zerolog"
)

// StatsService serves the admin surface's aggregate delivery queries.
// Aggregates are read-only and tolerate slight staleness, so they may be
// cached; the subscriber registry itself never is.
type StatsService struct {
	deliveryLog ports.DeliveryLogRepository
	cache       ports.StatsCache
	logger      zerolog.Logger
}

// NewStatsService creates a new stats service. cache may be nil.
func NewStatsService(deliveryLog ports.DeliveryLogRepository, cache ports.StatsCache, logger zerolog.Logger) *StatsService {
	return &StatsService{
		deliveryLog: deliveryLog,
		cache:       cache,
		logger:      logger,
	}
}

// Stats aggregates the delivery log, for all stores or one store.
func (s *StatsService) Stats(ctx context.Context, storeID string) (*domain.DeliveryStats, error) {
	key := "stats:global"
	if storeID != "" {
		key = "stats:store:" + storeID
	}

	if s.cache != nil {
		if stats, ok := s.cache.Get(ctx, key); ok {
			return stats, nil
		}
	}

	stats, err := s.deliveryLog.Stats(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate delivery log: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, stats)
	}
	return stats, nil
}
