package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/infrastructure/metrics"
	"storefront-notify-relay/internal/infrastructure/pubsub"
	"storefront-notify-relay/internal/infrastructure/repository/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMessenger records sends and fails for selected chat IDs, standing
// in for a transport whose retries are already exhausted.
type fakeMessenger struct {
	mu      sync.Mutex
	sent    []fakeSend
	failFor map[string]bool
}

type fakeSend struct {
	ChatID    string
	Text      string
	Formatted bool
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{failFor: make(map[string]bool)}
}

func (m *fakeMessenger) Send(ctx context.Context, chatID, text string) error {
	return m.record(chatID, text, false)
}

func (m *fakeMessenger) SendFormatted(ctx context.Context, chatID, text string) error {
	return m.record(chatID, text, true)
}

func (m *fakeMessenger) record(chatID, text string, formatted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[chatID] {
		return fmt.Errorf("send to chat %s failed after 3 attempts", chatID)
	}
	m.sent = append(m.sent, fakeSend{ChatID: chatID, Text: text, Formatted: formatted})
	return nil
}

func (m *fakeMessenger) sends() []fakeSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fakeSend, len(m.sent))
	copy(out, m.sent)
	return out
}

type notifyFixture struct {
	tenants     *TenantService
	subscribers *SubscriberService
	deliveryLog *memory.DeliveryLogRepository
	messenger   *fakeMessenger
	store       *domain.Store
}

func newNotifyFixture(t *testing.T, minAmount float64) (*NotifyService, *notifyFixture) {
	t.Helper()
	logger := zerolog.Nop()

	agencyRepo := memory.NewAgencyRepository()
	storeRepo := memory.NewStoreRepository()
	subscriberRepo := memory.NewSubscriberRepository()
	deliveryLog := memory.NewDeliveryLogRepository()
	messenger := newFakeMessenger()

	tenants := NewTenantService(agencyRepo, storeRepo, logger)
	subscribers := NewSubscriberService(subscriberRepo, logger)

	store, err := tenants.CreateStore(context.Background(), CreateStoreInput{
		Name:          "Umut Store",
		IntegrationID: "app-123",
	})
	require.NoError(t, err)

	svc := NewNotifyService(tenants, subscribers, deliveryLog, messenger, pubsub.NewDeliveryFeed(logger), metrics.NewNopRelayMetrics(), minAmount, "tr", logger)
	return svc, &notifyFixture{
		tenants:     tenants,
		subscribers: subscribers,
		deliveryLog: deliveryLog,
		messenger:   messenger,
		store:       store,
	}
}

func (f *notifyFixture) link(t *testing.T, chatID string) {
	t.Helper()
	_, err := f.subscribers.Link(context.Background(), chatID, f.store.ID, domain.SubscriberProfile{FirstName: "Op"})
	require.NoError(t, err)
}

const envelopedOrder = `{"authorizedAppId":"app-123","data":"{\"orderNumber\":\"1001\",\"customer\":{\"fullName\":\"Ayşe\"},\"totalFinalPrice\":200,\"currencyCode\":\"TRY\",\"orderLineItems\":[{\"quantity\":1,\"variant\":{\"name\":\"Jacket\"},\"finalPrice\":200,\"currencyCode\":\"TRY\"}]}"}`

func TestProcessOrderWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to every active subscriber and logs each send", func(t *testing.T) {
		svc, f := newNotifyFixture(t, 0)
		f.link(t, "c1")
		f.link(t, "c2")

		result, err := svc.ProcessOrderWebhook(ctx, []byte(envelopedOrder))
		require.NoError(t, err)

		assert.False(t, result.Skipped)
		assert.Equal(t, 2, result.Sent)
		assert.Equal(t, 2, result.Attempted)

		sends := f.messenger.sends()
		require.Len(t, sends, 2)
		assert.True(t, sends[0].Formatted)
		assert.Contains(t, sends[0].Text, "#1001")
		assert.Contains(t, sends[0].Text, "Ayşe")
		assert.Contains(t, sends[0].Text, "Jacket")
		// Rendered once, identical for every recipient.
		assert.Equal(t, sends[0].Text, sends[1].Text)

		entries := f.deliveryLog.Entries()
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, "1001", e.OrderNumber)
			assert.Equal(t, 200.0, e.OrderTotal)
			assert.Equal(t, f.store.ID, e.StoreID)
		}
	})

	t.Run("one broken recipient does not block the rest", func(t *testing.T) {
		svc, f := newNotifyFixture(t, 0)
		f.link(t, "c1")
		f.link(t, "c2")
		f.link(t, "c3")
		f.messenger.failFor["c2"] = true

		result, err := svc.ProcessOrderWebhook(ctx, []byte(envelopedOrder))
		require.NoError(t, err)

		assert.Equal(t, 2, result.Sent)
		assert.Equal(t, 3, result.Attempted)
		assert.Len(t, f.deliveryLog.Entries(), 2)
	})

	t.Run("missing integration id is acknowledged as a skip", func(t *testing.T) {
		svc, _ := newNotifyFixture(t, 0)

		result, err := svc.ProcessOrderWebhook(ctx, []byte(`{"orderNumber":"9"}`))
		require.NoError(t, err)

		assert.True(t, result.Skipped)
		assert.Equal(t, SkipNoIntegrationID, result.Reason)
	})

	t.Run("unknown store is acknowledged as a skip", func(t *testing.T) {
		svc, _ := newNotifyFixture(t, 0)

		result, err := svc.ProcessOrderWebhook(ctx, []byte(`{"authorizedAppId":"unconnected","data":"{}"}`))
		require.NoError(t, err)

		assert.True(t, result.Skipped)
		assert.Equal(t, SkipUnknownStore, result.Reason)
	})

	t.Run("store without subscribers is a skip", func(t *testing.T) {
		svc, f := newNotifyFixture(t, 0)

		result, err := svc.ProcessOrderWebhook(ctx, []byte(envelopedOrder))
		require.NoError(t, err)

		assert.True(t, result.Skipped)
		assert.Equal(t, SkipNoSubscribers, result.Reason)
		assert.Empty(t, f.messenger.sends())
	})

	t.Run("unparseable body has no integration id", func(t *testing.T) {
		svc, _ := newNotifyFixture(t, 0)

		result, err := svc.ProcessOrderWebhook(ctx, []byte("not json"))
		require.NoError(t, err)

		assert.True(t, result.Skipped)
		assert.Equal(t, SkipNoIntegrationID, result.Reason)
	})
}

func TestProcessOrderWebhookThreshold(t *testing.T) {
	ctx := context.Background()

	makePayload := func(total float64) []byte {
		return []byte(fmt.Sprintf(`{"authorizedAppId":"app-123","data":"{\"orderNumber\":\"1001\",\"totalFinalPrice\":%v}"}`, total))
	}

	t.Run("below the floor skips with zero log entries", func(t *testing.T) {
		svc, f := newNotifyFixture(t, 100)
		f.link(t, "c1")

		result, err := svc.ProcessOrderWebhook(ctx, makePayload(50))
		require.NoError(t, err)

		assert.True(t, result.Skipped)
		assert.Equal(t, SkipBelowThreshold, result.Reason)
		assert.Empty(t, f.messenger.sends())
		assert.Empty(t, f.deliveryLog.Entries())
	})

	t.Run("at or above the floor proceeds", func(t *testing.T) {
		svc, f := newNotifyFixture(t, 100)
		f.link(t, "c1")

		result, err := svc.ProcessOrderWebhook(ctx, makePayload(150))
		require.NoError(t, err)

		assert.False(t, result.Skipped)
		assert.Equal(t, 1, result.Sent)
		require.Len(t, f.deliveryLog.Entries(), 1)
	})
}

func TestProcessOrderWebhookStoreLookupDegrades(t *testing.T) {
	// A failing store lookup must degrade to unknown-store, not bubble a
	// 5xx back to the storefront.
	logger := zerolog.Nop()
	subscribers := NewSubscriberService(memory.NewSubscriberRepository(), logger)
	tenants := NewTenantService(memory.NewAgencyRepository(), failingStoreRepo{}, logger)
	svc := NewNotifyService(tenants, subscribers, memory.NewDeliveryLogRepository(), newFakeMessenger(), nil, metrics.NewNopRelayMetrics(), 0, "tr", logger)

	result, err := svc.ProcessOrderWebhook(context.Background(), []byte(`{"authorizedAppId":"app-123","data":"{}"}`))
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Equal(t, SkipUnknownStore, result.Reason)
}

// failingStoreRepo simulates storage being down.
type failingStoreRepo struct{}

func (failingStoreRepo) Create(ctx context.Context, store *domain.Store) error {
	return errors.New("storage unavailable")
}

func (failingStoreRepo) GetByIntegrationID(ctx context.Context, id string) (*domain.Store, error) {
	return nil, errors.New("storage unavailable")
}

func (failingStoreRepo) GetByLinkCode(ctx context.Context, code string) (*domain.Store, error) {
	return nil, errors.New("storage unavailable")
}

func (failingStoreRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	return nil, errors.New("storage unavailable")
}

func (failingStoreRepo) List(ctx context.Context) ([]*domain.Store, error) {
	return nil, errors.New("storage unavailable")
}

func (failingStoreRepo) Reset(ctx context.Context) error { return nil }
