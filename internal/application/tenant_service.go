package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"storefront-notify-relay/internal/domain"
	"storefront-notify-relay/internal/ports"

	"github.com/rs/zerolog"
)

// linkCodeBytes gives 16 uppercase hex characters per code. Collision
// probability is negligible at any realistic tenant count.
const linkCodeBytes = 8

// TenantService is the tenant registry: it resolves inbound integration
// identifiers and operator link codes to stores, and owns agency/store
// creation for the admin surface.
type TenantService struct {
	agencies ports.AgencyRepository
	stores   ports.StoreRepository
	logger   zerolog.Logger
}

// NewTenantService creates a new tenant registry service.
func NewTenantService(agencies ports.AgencyRepository, stores ports.StoreRepository, logger zerolog.Logger) *TenantService {
	return &TenantService{
		agencies: agencies,
		stores:   stores,
		logger:   logger,
	}
}

// ResolveByIntegrationID looks up the active store a webhook belongs to.
// A missing ID is a legitimate non-order event, not a fault, so it maps
// to ErrNotFound like any other miss.
func (s *TenantService) ResolveByIntegrationID(ctx context.Context, integrationID string) (*domain.Store, error) {
	if integrationID == "" {
		return nil, domain.ErrNotFound
	}

	store, err := s.stores.GetByIntegrationID(ctx, integrationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store by integration id: %w", err)
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}
	return store, nil
}

// ResolveByLinkCode looks up the active store for an operator-typed link
// code. Codes are stored uppercase, so input is uppercased before the
// compare.
func (s *TenantService) ResolveByLinkCode(ctx context.Context, code string) (*domain.Store, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, domain.ErrNotFound
	}

	store, err := s.stores.GetByLinkCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store by link code: %w", err)
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}
	return store, nil
}

// GetStore retrieves a store by its internal ID.
func (s *TenantService) GetStore(ctx context.Context, id string) (*domain.Store, error) {
	store, err := s.stores.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	if store == nil {
		return nil, domain.ErrNotFound
	}
	return store, nil
}

// CreateStoreInput represents input for connecting a new store.
type CreateStoreInput struct {
	AgencyID      string
	Name          string
	IntegrationID string
	AccessToken   string
}

// CreateStore connects a new store under an agency and issues its link
// code. When no agency ID is given the first agency is used, creating a
// default one if none exists yet.
func (s *TenantService) CreateStore(ctx context.Context, input CreateStoreInput) (*domain.Store, error) {
	if input.Name == "" || input.IntegrationID == "" {
		return nil, fmt.Errorf("store name and integration id are required")
	}

	agencyID := input.AgencyID
	if agencyID == "" {
		agency, err := s.defaultAgency(ctx)
		if err != nil {
			return nil, err
		}
		agencyID = agency.ID
	}

	code, err := generateLinkCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate link code: %w", err)
	}

	store := &domain.Store{
		AgencyID:      agencyID,
		Name:          input.Name,
		IntegrationID: input.IntegrationID,
		LinkCode:      code,
		AccessToken:   input.AccessToken,
		Active:        true,
		CreatedAt:     time.Now(),
	}

	if err := s.stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	s.logger.Info().
		Str("storeId", store.ID).
		Str("agencyId", agencyID).
		Str("name", store.Name).
		Str("linkCode", store.LinkCode).
		Msg("Created store")

	return store, nil
}

// ListStores returns all active stores with their agency name and active
// subscriber count for the admin listing.
func (s *TenantService) ListStores(ctx context.Context, subscribers ports.SubscriberRepository) ([]*domain.StoreWithCount, error) {
	stores, err := s.stores.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	agencies, err := s.agencies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	agencyNames := make(map[string]string, len(agencies))
	for _, a := range agencies {
		agencyNames[a.ID] = a.Name
	}

	out := make([]*domain.StoreWithCount, 0, len(stores))
	for _, st := range stores {
		count, err := subscribers.CountActiveByStore(ctx, st.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count subscribers: %w", err)
		}
		out = append(out, &domain.StoreWithCount{
			Store:           *st,
			AgencyName:      agencyNames[st.AgencyID],
			SubscriberCount: count,
		})
	}
	return out, nil
}

// CreateAgency registers a reseller agency and issues its API key.
func (s *TenantService) CreateAgency(ctx context.Context, name, notes string) (*domain.Agency, error) {
	if name == "" {
		return nil, fmt.Errorf("agency name is required")
	}

	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, fmt.Errorf("failed to generate agency api key: %w", err)
	}

	agency := &domain.Agency{
		Name:      name,
		APIKey:    hex.EncodeToString(keyBytes),
		Notes:     notes,
		Active:    true,
		CreatedAt: time.Now(),
	}

	if err := s.agencies.Create(ctx, agency); err != nil {
		return nil, fmt.Errorf("failed to create agency: %w", err)
	}

	s.logger.Info().Str("agencyId", agency.ID).Str("name", name).Msg("Created agency")
	return agency, nil
}

// ListAgencies returns all agencies.
func (s *TenantService) ListAgencies(ctx context.Context) ([]*domain.Agency, error) {
	agencies, err := s.agencies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	return agencies, nil
}

func (s *TenantService) defaultAgency(ctx context.Context) (*domain.Agency, error) {
	agencies, err := s.agencies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agencies: %w", err)
	}
	if len(agencies) > 0 {
		return agencies[0], nil
	}
	return s.CreateAgency(ctx, "Demo Agency", "")
}

func generateLinkCode() (string, error) {
	buf := make([]byte, linkCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
