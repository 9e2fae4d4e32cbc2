// Package pubsub fans delivery events out to in-process subscribers.
// The admin event stream attaches here to watch notifications go out
// without polling the delivery log.
package pubsub

import (
	"context"
	"fmt"
	"sync"

	"storefront-notify-relay/internal/domain"

	"github.com/rs/zerolog"
)

// DeliveryFilter narrows a subscription to one store. A nil or zero
// filter matches every event.
type DeliveryFilter struct {
	StoreID string
}

// DeliverySubscription is one attached consumer. Events is closed on
// unsubscribe; a consumer that stops draining loses events rather than
// blocking the fan-out path.
type DeliverySubscription struct {
	ID     string
	Filter *DeliveryFilter
	Events chan *domain.DeliveryLogEntry

	ctx    context.Context
	cancel context.CancelFunc
}

// DeliveryFeed manages delivery event subscriptions.
type DeliveryFeed struct {
	mu     sync.RWMutex
	subs   map[string]*DeliverySubscription
	logger zerolog.Logger
	nextID int64
	idMu   sync.Mutex
}

// NewDeliveryFeed creates a new delivery event feed.
func NewDeliveryFeed(logger zerolog.Logger) *DeliveryFeed {
	return &DeliveryFeed{
		subs:   make(map[string]*DeliverySubscription),
		logger: logger,
	}
}

// Subscribe attaches a new consumer. The subscription is torn down when
// ctx is cancelled.
func (f *DeliveryFeed) Subscribe(ctx context.Context, filter *DeliveryFilter) *DeliverySubscription {
	f.idMu.Lock()
	f.nextID++
	id := fmt.Sprintf("feed-%d", f.nextID)
	f.idMu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	sub := &DeliverySubscription{
		ID:     id,
		Filter: filter,
		Events: make(chan *domain.DeliveryLogEntry, 16),
		ctx:    subCtx,
		cancel: cancel,
	}

	f.mu.Lock()
	f.subs[id] = sub
	f.mu.Unlock()

	f.logger.Debug().Str("subscriptionId", id).Msg("Delivery feed subscription created")

	go func() {
		<-subCtx.Done()
		f.Unsubscribe(id)
	}()

	return sub
}

// Unsubscribe detaches a consumer and closes its channel. Safe to call
// more than once.
func (f *DeliveryFeed) Unsubscribe(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub, ok := f.subs[id]
	if !ok {
		return
	}

	close(sub.Events)
	sub.cancel()
	delete(f.subs, id)

	f.logger.Debug().Str("subscriptionId", id).Msg("Delivery feed subscription removed")
}

// Publish broadcasts one delivery event to every matching subscription.
// Delivery to consumers is best effort: a full buffer drops the event.
func (f *DeliveryFeed) Publish(entry *domain.DeliveryLogEntry) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for _, sub := range f.subs {
		if !matches(entry, sub.Filter) {
			continue
		}
		select {
		case sub.Events <- entry:
		case <-sub.ctx.Done():
		default:
			f.logger.Warn().
				Str("subscriptionId", sub.ID).
				Str("storeId", entry.StoreID).
				Msg("Delivery feed buffer full, dropping event")
		}
	}
}

// ActiveSubscriptions reports the number of attached consumers.
func (f *DeliveryFeed) ActiveSubscriptions() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func matches(entry *domain.DeliveryLogEntry, filter *DeliveryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.StoreID != "" && entry.StoreID != filter.StoreID {
		return false
	}
	return true
}
