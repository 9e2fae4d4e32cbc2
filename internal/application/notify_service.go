package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/infrastructure/metrics"
	"storefront-notify-relay/internal/infrastructure/pubsub"
	"storefront-notify-relay/internal/message"
	"storefront-notify-relay/internal/ports"

	"github.com/rs/zerolog"
)

// Skip reasons reported to the webhook caller. These are terminal states
// of the fan-out state machine, not errors: the storefront platform
// expects an acknowledgement for events that are simply irrelevant here.
const (
	SkipNoIntegrationID = "no-integration-id"
	SkipUnknownStore    = "unknown-store"
	SkipNoSubscribers   = "no-subscribers"
	SkipBelowThreshold  = "below-threshold"
)

// FanoutResult is the caller-visible outcome of one inbound order event.
// Partial failure shows up as Sent < Attempted, never as an error.
type FanoutResult struct {
	Skipped   bool
	Reason    string
	Sent      int
	Attempted int
}

// NotifyService is the fan-out engine: it resolves an inbound order
// event to a store, renders the notification once and delivers it to
// every active subscriber with per-recipient failure isolation.
type NotifyService struct {
	tenants     *TenantService
	subscribers *SubscriberService
	deliveryLog ports.DeliveryLogRepository
	messenger   ports.Messenger
	feed        *pubsub.DeliveryFeed
	metrics     *metrics.RelayMetrics
	minAmount   float64
	lang        string
	logger      zerolog.Logger
}

// NewNotifyService creates a new fan-out engine. minAmount of zero
// disables the order-total floor; a nil feed disables the live event
// stream.
func NewNotifyService(
	tenants *TenantService,
	subscribers *SubscriberService,
	deliveryLog ports.DeliveryLogRepository,
	messenger ports.Messenger,
	feed *pubsub.DeliveryFeed,
	relayMetrics *metrics.RelayMetrics,
	minAmount float64,
	lang string,
	logger zerolog.Logger,
) *NotifyService {
	return &NotifyService{
		tenants:     tenants,
		subscribers: subscribers,
		deliveryLog: deliveryLog,
		messenger:   messenger,
		feed:        feed,
		metrics:     relayMetrics,
		minAmount:   minAmount,
		lang:        lang,
		logger:      logger,
	}
}

// ProcessOrderWebhook runs the fan-out state machine for one raw webhook
// body. It returns an error only for internal faults that warrant a 5xx;
// every business-level skip and every per-recipient delivery failure is
// reported through the result.
func (s *NotifyService) ProcessOrderWebhook(ctx context.Context, payload []byte) (*FanoutResult, error) {
	integrationID, order := message.Envelope(payload)
	orderNumber := message.OrderNumber(order)

	s.logger.Info().
		Str("orderNumber", orderNumber).
		Str("integrationId", integrationID).
		Msg("Received order webhook")

	if integrationID == "" {
		return s.skip(SkipNoIntegrationID, orderNumber), nil
	}

	store, err := s.tenants.ResolveByIntegrationID(ctx, integrationID)
	if err != nil {
		// Storage trouble on the lookup degrades to unknown-store; the
		// storefront retries on 5xx and a retry storm helps nobody.
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error().Err(err).Str("integrationId", integrationID).Msg("Store lookup failed, treating as unknown store")
		}
		return s.skip(SkipUnknownStore, orderNumber), nil
	}

	subs, err := s.subscribers.ListActiveByStore(ctx, store.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers for store %s: %w", store.ID, err)
	}
	if len(subs) == 0 {
		return s.skip(SkipNoSubscribers, orderNumber), nil
	}

	total := message.Total(order)
	if s.minAmount > 0 && total < s.minAmount {
		s.logger.Info().
			Float64("total", total).
			Float64("minAmount", s.minAmount).
			Str("orderNumber", orderNumber).
			Msg("Order below minimum amount, skipping notifications")
		return s.skip(SkipBelowThreshold, orderNumber), nil
	}

	// Rendered once; the text is identical for every recipient.
	text := message.Format(order, s.lang)

	sent := 0
	for _, sub := range subs {
		if err := s.messenger.SendFormatted(ctx, sub.ChatID, text); err != nil {
			// One broken recipient must not block the rest.
			s.logger.Error().
				Err(err).
				Str("chatId", sub.ChatID).
				Str("storeId", store.ID).
				Str("orderNumber", orderNumber).
				Msg("Failed to deliver order notification")
			s.metrics.SendsTotal.WithLabelValues("error").Inc()
			continue
		}
		sent++
		s.metrics.SendsTotal.WithLabelValues("ok").Inc()

		entry := &domain.DeliveryLogEntry{
			SubscriberID: sub.ID,
			StoreID:      store.ID,
			OrderNumber:  orderNumber,
			OrderTotal:   total,
			SentAt:       time.Now(),
		}
		if err := s.deliveryLog.Append(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("chatId", sub.ChatID).Msg("Failed to append delivery log entry")
		}
		if s.feed != nil {
			s.feed.Publish(entry)
		}
	}

	s.logger.Info().
		Str("storeId", store.ID).
		Str("orderNumber", orderNumber).
		Int("sent", sent).
		Int("attempted", len(subs)).
		Msg("Order fan-out complete")

	s.metrics.OrdersTotal.WithLabelValues("sent").Inc()
	return &FanoutResult{Sent: sent, Attempted: len(subs)}, nil
}

func (s *NotifyService) skip(reason, orderNumber string) *FanoutResult {
	s.logger.Info().Str("reason", reason).Str("orderNumber", orderNumber).Msg("Order webhook skipped")
	s.metrics.OrdersTotal.WithLabelValues(reason).Inc()
	return &FanoutResult{Skipped: true, Reason: reason}
}
