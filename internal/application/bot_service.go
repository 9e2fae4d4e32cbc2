package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/infrastructure/metrics"
	"storefront-notify-relay/internal/message"
	"storefront-notify-relay/internal/ports"

	"github.com/rs/zerolog"
)

// BotService is the command interpreter: stateless dispatch on one chat
// message at a time. All memory between messages lives in the
// subscriber registry, which the fan-out engine reads concurrently.
type BotService struct {
	tenants     *TenantService
	subscribers *SubscriberService
	messenger   ports.Messenger
	metrics     *metrics.RelayMetrics
	lang        string
	logger      zerolog.Logger
}

// NewBotService creates a new command interpreter.
func NewBotService(
	tenants *TenantService,
	subscribers *SubscriberService,
	messenger ports.Messenger,
	relayMetrics *metrics.RelayMetrics,
	lang string,
	logger zerolog.Logger,
) *BotService {
	return &BotService{
		tenants:     tenants,
		subscribers: subscribers,
		messenger:   messenger,
		metrics:     relayMetrics,
		lang:        lang,
		logger:      logger,
	}
}

// HandleMessage dispatches one inbound chat message. Transport and
// registry failures propagate to the caller; the webhook handler above
// still acknowledges the platform regardless.
func (s *BotService) HandleMessage(ctx context.Context, chatID, text string, profile domain.SubscriberProfile) error {
	msg := message.Locale(s.lang)
	text = strings.TrimSpace(text)

	switch {
	case strings.HasPrefix(text, "/start"):
		s.metrics.BotCommandsTotal.WithLabelValues("start").Inc()
		return s.handleStart(ctx, chatID, profile.FirstName, msg)

	case strings.HasPrefix(text, "/bagla "):
		s.metrics.BotCommandsTotal.WithLabelValues("link").Inc()
		code := strings.TrimSpace(strings.TrimPrefix(text, "/bagla "))
		return s.handleLink(ctx, chatID, code, profile, msg)

	case text == "/durum":
		s.metrics.BotCommandsTotal.WithLabelValues("status").Inc()
		return s.handleStatus(ctx, chatID, msg)

	case text == "/iptal":
		s.metrics.BotCommandsTotal.WithLabelValues("cancel").Inc()
		return s.handleCancel(ctx, chatID, msg)

	case text == "/yardim":
		s.metrics.BotCommandsTotal.WithLabelValues("help").Inc()
		return s.messenger.Send(ctx, chatID, msg.Help)

	default:
		s.metrics.BotCommandsTotal.WithLabelValues("unknown").Inc()
		return s.messenger.Send(ctx, chatID, msg.UnknownCommand)
	}
}

func (s *BotService) handleStart(ctx context.Context, chatID, firstName string, msg message.Messages) error {
	sub, err := s.subscribers.ActiveByChatID(ctx, chatID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	if sub == nil {
		return s.messenger.Send(ctx, chatID, fmt.Sprintf(msg.Welcome, firstName))
	}

	storeName := s.storeName(ctx, sub.StoreID, msg)
	return s.messenger.Send(ctx, chatID, fmt.Sprintf(msg.WelcomeBack, firstName, storeName))
}

func (s *BotService) handleLink(ctx context.Context, chatID, code string, profile domain.SubscriberProfile, msg message.Messages) error {
	code = strings.ToUpper(code)

	store, err := s.tenants.ResolveByLinkCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.messenger.Send(ctx, chatID, fmt.Sprintf(msg.InvalidCode, code))
		}
		return err
	}

	created, err := s.subscribers.Link(ctx, chatID, store.ID, profile)
	if err != nil {
		return err
	}

	if created {
		return s.messenger.Send(ctx, chatID, fmt.Sprintf(msg.LinkedNew, store.Name))
	}
	return s.messenger.Send(ctx, chatID, fmt.Sprintf(msg.LinkedSwitched, store.Name))
}

func (s *BotService) handleStatus(ctx context.Context, chatID string, msg message.Messages) error {
	sub, err := s.subscribers.ActiveByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.messenger.Send(ctx, chatID, msg.StatusNone)
		}
		return err
	}

	storeName := s.storeName(ctx, sub.StoreID, msg)
	linkedSince := sub.CreatedAt.Format("02.01.2006")
	return s.messenger.Send(ctx, chatID, fmt.Sprintf(msg.StatusActive, storeName, linkedSince))
}

func (s *BotService) handleCancel(ctx context.Context, chatID string, msg message.Messages) error {
	sub, err := s.subscribers.ActiveByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.messenger.Send(ctx, chatID, msg.NotLinked)
		}
		return err
	}

	if err := s.subscribers.Deactivate(ctx, chatID); err != nil {
		return err
	}

	storeName := s.storeName(ctx, sub.StoreID, msg)
	return s.messenger.Send(ctx, chatID, fmt.Sprintf(msg.Cancelled, storeName))
}

func (s *BotService) storeName(ctx context.Context, storeID string, msg message.Messages) string {
	store, err := s.tenants.GetStore(ctx, storeID)
	if err != nil || store == nil {
		return msg.Unknown
	}
	return store.Name
}
