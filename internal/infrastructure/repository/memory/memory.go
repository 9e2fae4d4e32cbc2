// Package memory provides in-process implementations of the registry
// repositories. They back local development runs without a database and
// the unit tests; bindings do not survive a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/ports"

	"github.com/google/uuid"
)

// AgencyRepository is a mutex-guarded in-memory AgencyRepository.
type AgencyRepository struct {
	mu       sync.RWMutex
	agencies map[string]*domain.Agency
}

// NewAgencyRepository creates an empty in-memory agency repository.
func NewAgencyRepository() *AgencyRepository {
	return &AgencyRepository{agencies: make(map[string]*domain.Agency)}
}

var _ ports.AgencyRepository = (*AgencyRepository)(nil)

func (r *AgencyRepository) Create(ctx context.Context, agency *domain.Agency) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.agencies {
		if a.APIKey == agency.APIKey {
			return domain.ErrDuplicateKey
		}
	}
	if agency.ID == "" {
		agency.ID = uuid.NewString()
	}
	if agency.CreatedAt.IsZero() {
		agency.CreatedAt = time.Now()
	}
	cp := *agency
	r.agencies[agency.ID] = &cp
	return nil
}

func (r *AgencyRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Agency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.agencies {
		if a.APIKey == apiKey && a.Active {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *AgencyRepository) List(ctx context.Context) ([]*domain.Agency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Agency, 0, len(r.agencies))
	for _, a := range r.agencies {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *AgencyRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agencies = make(map[string]*domain.Agency)
	return nil
}

// StoreRepository is a mutex-guarded in-memory StoreRepository.
type StoreRepository struct {
	mu     sync.RWMutex
	stores map[string]*domain.Store
}

// NewStoreRepository creates an empty in-memory store repository.
func NewStoreRepository() *StoreRepository {
	return &StoreRepository{stores: make(map[string]*domain.Store)}
}

var _ ports.StoreRepository = (*StoreRepository)(nil)

func (r *StoreRepository) Create(ctx context.Context, store *domain.Store) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.stores {
		if s.IntegrationID == store.IntegrationID || s.LinkCode == store.LinkCode {
			return domain.ErrDuplicateKey
		}
	}
	if store.ID == "" {
		store.ID = uuid.NewString()
	}
	if store.CreatedAt.IsZero() {
		store.CreatedAt = time.Now()
	}
	cp := *store
	r.stores[store.ID] = &cp
	return nil
}

func (r *StoreRepository) GetByIntegrationID(ctx context.Context, integrationID string) (*domain.Store, error) {
	return r.find(func(s *domain.Store) bool { return s.IntegrationID == integrationID && s.Active })
}

func (r *StoreRepository) GetByLinkCode(ctx context.Context, linkCode string) (*domain.Store, error) {
	return r.find(func(s *domain.Store) bool { return s.LinkCode == linkCode && s.Active })
}

func (r *StoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	return r.find(func(s *domain.Store) bool { return s.ID == id })
}

func (r *StoreRepository) find(match func(*domain.Store) bool) (*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.stores {
		if match(s) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *StoreRepository) List(ctx context.Context) ([]*domain.Store, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Store, 0, len(r.stores))
	for _, s := range r.stores {
		if !s.Active {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *StoreRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stores = make(map[string]*domain.Store)
	return nil
}

// SubscriberRepository is a mutex-guarded in-memory SubscriberRepository.
type SubscriberRepository struct {
	mu     sync.RWMutex
	byChat map[string]*domain.Subscriber
}

// NewSubscriberRepository creates an empty in-memory subscriber repository.
func NewSubscriberRepository() *SubscriberRepository {
	return &SubscriberRepository{byChat: make(map[string]*domain.Subscriber)}
}

var _ ports.SubscriberRepository = (*SubscriberRepository)(nil)

func (r *SubscriberRepository) Upsert(ctx context.Context, sub *domain.Subscriber) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byChat[sub.ChatID]; ok {
		existing.StoreID = sub.StoreID
		existing.FirstName = sub.FirstName
		existing.LastName = sub.LastName
		existing.Username = sub.Username
		existing.Active = true
		return false, nil
	}

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	cp := *sub
	r.byChat[sub.ChatID] = &cp
	return true, nil
}

func (r *SubscriberRepository) GetByChatID(ctx context.Context, chatID string) (*domain.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.byChat[chatID]
	if !ok || !sub.Active {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}

func (r *SubscriberRepository) Deactivate(ctx context.Context, chatID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub, ok := r.byChat[chatID]; ok {
		sub.Active = false
	}
	return nil
}

func (r *SubscriberRepository) ListActiveByStore(ctx context.Context, storeID string) ([]*domain.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Subscriber
	for _, sub := range r.byChat {
		if sub.StoreID == storeID && sub.Active {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func (r *SubscriberRepository) CountActiveByStore(ctx context.Context, storeID string) (int64, error) {
	subs, _ := r.ListActiveByStore(ctx, storeID)
	return int64(len(subs)), nil
}

func (r *SubscriberRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byChat = make(map[string]*domain.Subscriber)
	return nil
}

// DeliveryLogRepository is a mutex-guarded in-memory DeliveryLogRepository.
type DeliveryLogRepository struct {
	mu      sync.RWMutex
	entries []*domain.DeliveryLogEntry
}

// NewDeliveryLogRepository creates an empty in-memory delivery log.
func NewDeliveryLogRepository() *DeliveryLogRepository {
	return &DeliveryLogRepository{}
}

var _ ports.DeliveryLogRepository = (*DeliveryLogRepository)(nil)

func (r *DeliveryLogRepository) Append(ctx context.Context, entry *domain.DeliveryLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = time.Now()
	}
	cp := *entry
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *DeliveryLogRepository) Stats(ctx context.Context, storeID string) (*domain.DeliveryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.DeliveryStats{}
	for _, e := range r.entries {
		if storeID != "" && e.StoreID != storeID {
			continue
		}
		stats.Notifications++
		stats.Revenue += e.OrderTotal
		if !strings.HasPrefix(e.OrderNumber, "TEST") {
			stats.RevenueExcludingTest += e.OrderTotal
		}
	}
	return stats, nil
}

// Entries returns a snapshot of the log, newest last. Test helper.
func (r *DeliveryLogRepository) Entries() []*domain.DeliveryLogEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.DeliveryLogEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *DeliveryLogRepository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	return nil
}
