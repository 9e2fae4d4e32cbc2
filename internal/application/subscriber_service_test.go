package application

import (
	"context"
	"testing"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/infrastructure/repository/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkIsIdempotentLastWins(t *testing.T) {
	ctx := context.Background()
	svc := NewSubscriberService(memory.NewSubscriberRepository(), zerolog.Nop())

	created, err := svc.Link(ctx, "555", "store-1", domain.SubscriberProfile{FirstName: "Ayşe"})
	require.NoError(t, err)
	assert.True(t, created)

	// Re-linking to a different store overwrites in place.
	created, err = svc.Link(ctx, "555", "store-2", domain.SubscriberProfile{FirstName: "Ayşe"})
	require.NoError(t, err)
	assert.False(t, created)

	sub, err := svc.ActiveByChatID(ctx, "555")
	require.NoError(t, err)
	assert.Equal(t, "store-2", sub.StoreID)

	// Exactly one binding exists: the old store sees none.
	old, err := svc.ListActiveByStore(ctx, "store-1")
	require.NoError(t, err)
	assert.Empty(t, old)

	current, err := svc.ListActiveByStore(ctx, "store-2")
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "555", current[0].ChatID)
}

func TestLinkReactivatesInactiveBinding(t *testing.T) {
	ctx := context.Background()
	svc := NewSubscriberService(memory.NewSubscriberRepository(), zerolog.Nop())

	_, err := svc.Link(ctx, "555", "store-1", domain.SubscriberProfile{})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(ctx, "555"))

	created, err := svc.Link(ctx, "555", "store-1", domain.SubscriberProfile{})
	require.NoError(t, err)
	assert.False(t, created, "an inactive binding is overwritten, not recreated")

	sub, err := svc.ActiveByChatID(ctx, "555")
	require.NoError(t, err)
	assert.True(t, sub.Active)
}

func TestDeactivateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := NewSubscriberService(memory.NewSubscriberRepository(), zerolog.Nop())

	_, err := svc.Link(ctx, "555", "store-1", domain.SubscriberProfile{})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, "555"))
	require.NoError(t, svc.Deactivate(ctx, "555"))
	// Unknown chat IDs are a no-op too.
	require.NoError(t, svc.Deactivate(ctx, "does-not-exist"))

	_, err = svc.ActiveByChatID(ctx, "555")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
