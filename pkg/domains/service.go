package domains

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/mailroom/pkg/gateway"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

var (
	// ErrStorageNil is returned when a nil storage is passed to the constructor.
	ErrStorageNil = errors.New("storage cannot be nil")

	// ErrGatewayNil is returned when a nil gateway is passed to the constructor.
	ErrGatewayNil = errors.New("gateway cannot be nil")

	// ErrDomainNotFound is returned when the domain is unknown locally and at
	// the provider.
	ErrDomainNotFound = errors.New("domain not found")
)

// Storage persists domain rows.
type Storage interface {
	// UpsertDomain inserts or updates the row keyed by domain name,
	// returning the stored row.
	UpsertDomain(ctx context.Context, domain mailer.Domain) (mailer.Domain, error)

	// GetDomainByName returns the row for the domain name. found is false
	// when no row exists.
	GetDomainByName(ctx context.Context, name string) (domain mailer.Domain, found bool, err error)

	// ListDomains returns all known domains.
	ListDomains(ctx context.Context) ([]mailer.Domain, error)
}

// Service merges provider verification snapshots into local domain rows.
type Service struct {
	gateway gateway.Gateway
	storage Storage
	log     *slog.Logger
}

// New creates a domain verification service.
func New(gw gateway.Gateway, storage Storage, log *slog.Logger) (*Service, error) {
	if gw == nil {
		return nil, ErrGatewayNil
	}
	if storage == nil {
		return nil, ErrStorageNil
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{gateway: gw, storage: storage, log: log}, nil
}

// List refreshes all provider domains into local rows and returns them.
// Provider unavailability degrades to the last stored view.
func (s *Service) List(ctx context.Context) ([]mailer.Domain, error) {
	snapshots, err := s.gateway.ListDomains(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "provider domain list failed, serving stored view",
			slog.String("error", err.Error()))
		return s.storage.ListDomains(ctx)
	}

	for _, snap := range snapshots {
		if _, err := s.merge(ctx, snap); err != nil {
			return nil, err
		}
	}
	return s.storage.ListDomains(ctx)
}

// Status returns the current verification state of one domain, refreshed
// from the provider when reachable.
func (s *Service) Status(ctx context.Context, name string) (mailer.Domain, error) {
	snap, err := s.gateway.DomainStatus(ctx, name)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			// Unknown at the provider; a stored row still answers.
			domain, found, serr := s.storage.GetDomainByName(ctx, name)
			if serr != nil {
				return mailer.Domain{}, serr
			}
			if !found {
				return mailer.Domain{}, fmt.Errorf("%w: %s", ErrDomainNotFound, name)
			}
			return domain, nil
		}
		return mailer.Domain{}, fmt.Errorf("fetch domain status: %w", err)
	}
	return s.merge(ctx, snap)
}

// Verify triggers a provider-side DNS recheck and stores the refreshed
// snapshot. The returned state is point in time; verification may complete
// later.
func (s *Service) Verify(ctx context.Context, name string) (mailer.Domain, error) {
	snap, err := s.gateway.VerifyDomain(ctx, name)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return mailer.Domain{}, fmt.Errorf("%w: %s", ErrDomainNotFound, name)
		}
		return mailer.Domain{}, fmt.Errorf("verify domain: %w", err)
	}

	domain, err := s.merge(ctx, snap)
	if err != nil {
		return mailer.Domain{}, err
	}

	s.log.InfoContext(ctx, "domain verification triggered",
		slog.String("domain", name),
		slog.String("status", string(domain.Status)))
	return domain, nil
}

// merge folds a provider snapshot into the stored row. verifiedAt is set on
// the first observed transition to verified and never cleared by a later
// pending snapshot.
func (s *Service) merge(ctx context.Context, snap gateway.DomainSnapshot) (mailer.Domain, error) {
	now := time.Now().UTC()

	existing, found, err := s.storage.GetDomainByName(ctx, snap.Name)
	if err != nil {
		return mailer.Domain{}, fmt.Errorf("load domain row: %w", err)
	}

	domain := existing
	if !found {
		domain = mailer.Domain{
			ID:        uuid.New(),
			Name:      snap.Name,
			CreatedAt: now,
		}
	}

	domain.Status = mapProviderStatus(snap.Status)
	domain.Records = snap.Records
	domain.LastCheckedAt = &now
	if domain.Status == mailer.DomainVerified && domain.VerifiedAt == nil {
		domain.VerifiedAt = &now
	}

	return s.storage.UpsertDomain(ctx, domain)
}

// mapProviderStatus normalizes the provider's status strings.
func mapProviderStatus(status string) mailer.DomainStatus {
	switch status {
	case "verified":
		return mailer.DomainVerified
	case "pending", "not_started", "temporary_failure":
		return mailer.DomainPending
	case "failure", "failed":
		return mailer.DomainFailed
	default:
		return mailer.DomainPending
	}
}
