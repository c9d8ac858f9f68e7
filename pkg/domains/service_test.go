package domains_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/domains"
	"github.com/dmitrymomot/mailroom/pkg/gateway"
	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// memStorage is an in-memory domains.Storage.
type memStorage struct {
	mu      sync.Mutex
	domains map[string]mailer.Domain
}

func newMemStorage() *memStorage {
	return &memStorage{domains: make(map[string]mailer.Domain)}
}

func (s *memStorage) UpsertDomain(ctx context.Context, domain mailer.Domain) (mailer.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.domains[domain.Name] = domain
	return domain, nil
}

func (s *memStorage) GetDomainByName(ctx context.Context, name string) (mailer.Domain, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.domains[name]
	return d, ok, nil
}

func (s *memStorage) ListDomains(ctx context.Context) ([]mailer.Domain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mailer.Domain, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, d)
	}
	return out, nil
}

// stubGateway overrides the domain operations of gateway.Gateway.
type stubGateway struct {
	gateway.Gateway
	statusFunc func(ctx context.Context, name string) (gateway.DomainSnapshot, error)
	listFunc   func(ctx context.Context) ([]gateway.DomainSnapshot, error)
	verifyFunc func(ctx context.Context, name string) (gateway.DomainSnapshot, error)
}

func (s *stubGateway) DomainStatus(ctx context.Context, name string) (gateway.DomainSnapshot, error) {
	return s.statusFunc(ctx, name)
}

func (s *stubGateway) ListDomains(ctx context.Context) ([]gateway.DomainSnapshot, error) {
	return s.listFunc(ctx)
}

func (s *stubGateway) VerifyDomain(ctx context.Context, name string) (gateway.DomainSnapshot, error) {
	return s.verifyFunc(ctx, name)
}

func TestService_Status(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("merges provider snapshot into new row", func(t *testing.T) {
		t.Parallel()

		storage := newMemStorage()
		gw := &stubGateway{
			statusFunc: func(ctx context.Context, name string) (gateway.DomainSnapshot, error) {
				return gateway.DomainSnapshot{
					ProviderDomainID: "d-1",
					Name:             name,
					Status:           "verified",
					Records: []mailer.DNSRecord{
						{Type: "TXT", Name: "resend._domainkey", Value: "p=abc", Status: "verified"},
					},
				}, nil
			},
		}

		svc, err := domains.New(gw, storage, nil)
		require.NoError(t, err)

		domain, err := svc.Status(ctx, "example.com")
		require.NoError(t, err)
		assert.Equal(t, mailer.DomainVerified, domain.Status)
		assert.NotNil(t, domain.VerifiedAt)
		assert.NotNil(t, domain.LastCheckedAt)
		require.Len(t, domain.Records, 1)
		assert.NotEqual(t, time.Time{}, domain.CreatedAt)
	})

	t.Run("verifiedAt survives a later pending snapshot", func(t *testing.T) {
		t.Parallel()

		storage := newMemStorage()
		status := "verified"
		gw := &stubGateway{
			statusFunc: func(ctx context.Context, name string) (gateway.DomainSnapshot, error) {
				return gateway.DomainSnapshot{Name: name, Status: status}, nil
			},
		}

		svc, err := domains.New(gw, storage, nil)
		require.NoError(t, err)

		first, err := svc.Status(ctx, "example.com")
		require.NoError(t, err)
		require.NotNil(t, first.VerifiedAt)

		status = "pending"
		second, err := svc.Status(ctx, "example.com")
		require.NoError(t, err)
		assert.Equal(t, mailer.DomainPending, second.Status)
		require.NotNil(t, second.VerifiedAt)
		assert.True(t, second.VerifiedAt.Equal(*first.VerifiedAt))
	})

	t.Run("unknown everywhere", func(t *testing.T) {
		t.Parallel()

		gw := &stubGateway{
			statusFunc: func(ctx context.Context, name string) (gateway.DomainSnapshot, error) {
				return gateway.DomainSnapshot{}, gateway.ErrNotFound
			},
		}
		svc, err := domains.New(gw, newMemStorage(), nil)
		require.NoError(t, err)

		_, err = svc.Status(ctx, "missing.com")
		require.ErrorIs(t, err, domains.ErrDomainNotFound)
	})

	t.Run("provider miss falls back to stored row", func(t *testing.T) {
		t.Parallel()

		storage := newMemStorage()
		_, err := storage.UpsertDomain(ctx, mailer.Domain{Name: "stored.com", Status: mailer.DomainVerified})
		require.NoError(t, err)

		gw := &stubGateway{
			statusFunc: func(ctx context.Context, name string) (gateway.DomainSnapshot, error) {
				return gateway.DomainSnapshot{}, gateway.ErrNotFound
			},
		}
		svc, err := domains.New(gw, storage, nil)
		require.NoError(t, err)

		domain, err := svc.Status(ctx, "stored.com")
		require.NoError(t, err)
		assert.Equal(t, mailer.DomainVerified, domain.Status)
	})
}

func TestService_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("refreshes all provider domains", func(t *testing.T) {
		t.Parallel()

		storage := newMemStorage()
		gw := &stubGateway{
			listFunc: func(ctx context.Context) ([]gateway.DomainSnapshot, error) {
				return []gateway.DomainSnapshot{
					{Name: "a.com", Status: "verified"},
					{Name: "b.com", Status: "pending"},
				}, nil
			},
		}
		svc, err := domains.New(gw, storage, nil)
		require.NoError(t, err)

		list, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("provider outage serves stored view", func(t *testing.T) {
		t.Parallel()

		storage := newMemStorage()
		_, err := storage.UpsertDomain(ctx, mailer.Domain{Name: "stored.com", Status: mailer.DomainPending})
		require.NoError(t, err)

		gw := &stubGateway{
			listFunc: func(ctx context.Context) ([]gateway.DomainSnapshot, error) {
				return nil, errors.Join(gateway.ErrProvider, errors.New("timeout"))
			},
		}
		svc, err := domains.New(gw, storage, nil)
		require.NoError(t, err)

		list, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "stored.com", list[0].Name)
	})
}

func TestService_Verify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("stores refreshed snapshot", func(t *testing.T) {
		t.Parallel()

		storage := newMemStorage()
		gw := &stubGateway{
			verifyFunc: func(ctx context.Context, name string) (gateway.DomainSnapshot, error) {
				return gateway.DomainSnapshot{Name: name, Status: "pending"}, nil
			},
		}
		svc, err := domains.New(gw, storage, nil)
		require.NoError(t, err)

		domain, err := svc.Verify(ctx, "example.com")
		require.NoError(t, err)
		assert.Equal(t, mailer.DomainPending, domain.Status)
		assert.NotNil(t, domain.LastCheckedAt)

		_, found, err := storage.GetDomainByName(ctx, "example.com")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("unknown domain", func(t *testing.T) {
		t.Parallel()

		gw := &stubGateway{
			verifyFunc: func(ctx context.Context, name string) (gateway.DomainSnapshot, error) {
				return gateway.DomainSnapshot{}, gateway.ErrNotFound
			},
		}
		svc, err := domains.New(gw, newMemStorage(), nil)
		require.NoError(t, err)

		_, err = svc.Verify(ctx, "missing.com")
		require.ErrorIs(t, err, domains.ErrDomainNotFound)
	})
}
