package vault

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage is an in-memory Storage used in development and tests.
type MemoryStorage struct {
	mu          sync.RWMutex
	credentials map[uuid.UUID]*Credential
	order       []uuid.UUID
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{credentials: make(map[uuid.UUID]*Credential)}
}

func (s *MemoryStorage) InsertCredential(_ context.Context, cred Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := cred
	s.credentials[cred.ID] = &c
	s.order = append(s.order, cred.ID)
	return nil
}

func (s *MemoryStorage) GetCredential(_ context.Context, id uuid.UUID) (Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.credentials[id]
	if !ok {
		return Credential{}, false, nil
	}
	return copyCredential(cred), true, nil
}

func (s *MemoryStorage) ListCredentials(_ context.Context) ([]Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Credential, 0, len(s.order))
	for _, id := range s.order {
		if cred, ok := s.credentials[id]; ok {
			out = append(out, copyCredential(cred))
		}
	}
	return out, nil
}

func (s *MemoryStorage) UpdateAccess(_ context.Context, id uuid.UUID, accessedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	cred.AccessCount++
	at := accessedAt
	cred.LastAccessedAt = &at
	return nil
}

func (s *MemoryStorage) UpdateValue(_ context.Context, id uuid.UUID, encryptedValue string, rotatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[id]
	if !ok {
		return ErrCredentialNotFound
	}
	cred.EncryptedValue = encryptedValue
	at := rotatedAt
	cred.RotatedAt = &at
	cred.UpdatedAt = rotatedAt
	return nil
}

func (s *MemoryStorage) DeleteCredential(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.credentials[id]; !ok {
		return ErrCredentialNotFound
	}
	delete(s.credentials, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func copyCredential(cred *Credential) Credential {
	c := *cred
	c.LastAccessedAt = copyTime(cred.LastAccessedAt)
	c.RotatedAt = copyTime(cred.RotatedAt)
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
