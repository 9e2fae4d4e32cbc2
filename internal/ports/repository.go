package ports

import (
	"context"

	"storefront-notify-relay/internal/domain"
)

// AgencyRepository defines the interface for agency persistence.
type AgencyRepository interface {
	Create(ctx context.Context, agency *domain.Agency) error
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Agency, error)
	List(ctx context.Context) ([]*domain.Agency, error)
	Reset(ctx context.Context) error
}

// StoreRepository defines the interface for store persistence.
// Lookup methods return (nil, nil) when no active store matches.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	GetByIntegrationID(ctx context.Context, integrationID string) (*domain.Store, error)
	GetByLinkCode(ctx context.Context, linkCode string) (*domain.Store, error)
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	List(ctx context.Context) ([]*domain.Store, error)
	Reset(ctx context.Context) error
}

// SubscriberRepository defines the interface for chat-identity bindings.
type SubscriberRepository interface {
	// Upsert writes the binding for sub.ChatID. If a binding already
	// exists (active or not) it is overwritten in place and Upsert
	// returns created=false; otherwise a new row is inserted.
	Upsert(ctx context.Context, sub *domain.Subscriber) (created bool, err error)

	// GetByChatID returns the active binding for a chat ID, or (nil, nil).
	GetByChatID(ctx context.Context, chatID string) (*domain.Subscriber, error)

	// Deactivate clears the active flag; a no-op for unknown chat IDs.
	Deactivate(ctx context.Context, chatID string) error

	// ListActiveByStore returns the current active bindings for a store.
	ListActiveByStore(ctx context.Context, storeID string) ([]*domain.Subscriber, error)

	CountActiveByStore(ctx context.Context, storeID string) (int64, error)
	Reset(ctx context.Context) error
}

// DeliveryLogRepository defines the interface for the append-only
// notification log.
type DeliveryLogRepository interface {
	Append(ctx context.Context, entry *domain.DeliveryLogEntry) error

	// Stats aggregates the log; storeID narrows to one store when non-empty.
	Stats(ctx context.Context, storeID string) (*domain.DeliveryStats, error)

	Reset(ctx context.Context) error
}
