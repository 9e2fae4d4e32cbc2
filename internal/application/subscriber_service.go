package application

import (
	"context"
	"fmt"
	"time"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/ports"

	"github.com/rs/zerolog"
)

// SubscriberService is the subscriber registry: it owns every mutation
// of chat-to-store bindings. The bot's command interpreter writes
// through it while the fan-out engine reads through it; reads always
// reflect the current persisted state, there is no caching layer here.
type SubscriberService struct {
	subscribers ports.SubscriberRepository
	logger      zerolog.Logger
}

// NewSubscriberService creates a new subscriber registry service.
func NewSubscriberService(subscribers ports.SubscriberRepository, logger zerolog.Logger) *SubscriberService {
	return &SubscriberService{
		subscribers: subscribers,
		logger:      logger,
	}
}

// Link binds a chat identity to a store. Last link wins: an existing
// binding, active or not, is overwritten in place and reactivated, and
// created=false is returned; a fresh binding returns created=true.
func (s *SubscriberService) Link(ctx context.Context, chatID, storeID string, profile domain.SubscriberProfile) (bool, error) {
	sub := &domain.Subscriber{
		StoreID:   storeID,
		ChatID:    chatID,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Username:  profile.Username,
		Active:    true,
		CreatedAt: time.Now(),
	}

	created, err := s.subscribers.Upsert(ctx, sub)
	if err != nil {
		return false, fmt.Errorf("failed to link chat to store: %w", err)
	}

	s.logger.Info().
		Str("chatId", chatID).
		Str("storeId", storeID).
		Bool("created", created).
		Msg("Linked chat to store")

	return created, nil
}

// ActiveByChatID returns the active binding for a chat identity.
func (s *SubscriberService) ActiveByChatID(ctx context.Context, chatID string) (*domain.Subscriber, error) {
	sub, err := s.subscribers.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get binding: %w", err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

// Deactivate soft-deletes a binding. Deactivating an already-inactive
// or unknown chat identity is a no-op, not an error.
func (s *SubscriberService) Deactivate(ctx context.Context, chatID string) error {
	if err := s.subscribers.Deactivate(ctx, chatID); err != nil {
		return fmt.Errorf("failed to deactivate binding: %w", err)
	}
	s.logger.Info().Str("chatId", chatID).Msg("Deactivated binding")
	return nil
}

// ListActiveByStore returns the store's active subscribers as of now.
func (s *SubscriberService) ListActiveByStore(ctx context.Context, storeID string) ([]*domain.Subscriber, error) {
	subs, err := s.subscribers.ListActiveByStore(ctx, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	return subs, nil
}
