package ports

import (
	"context"

	"storefront-notify-relay/internal/domain"
)

// StatsCache is a best-effort, short-TTL cache in front of the delivery
// log aggregates. Misses and cache outages fall through to the
// repository silently.
type StatsCache interface {
	Get(ctx context.Context, key string) (*domain.DeliveryStats, bool)
	Set(ctx context.Context, key string, stats *domain.DeliveryStats)
}
