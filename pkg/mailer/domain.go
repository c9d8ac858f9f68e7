package mailer

import (
	"time"

	"github.com/google/uuid"
)

// DomainStatus represents the verification state of a sending domain.
type DomainStatus string

const (
	DomainNotAdded DomainStatus = "not_added"
	DomainPending  DomainStatus = "pending"
	DomainVerified DomainStatus = "verified"
	DomainFailed   DomainStatus = "failed"
)

func (s DomainStatus) Valid() bool {
	switch s {
	case DomainNotAdded, DomainPending, DomainVerified, DomainFailed:
		return true
	}
	return false
}

// DNSRecord is one DNS entry the provider expects for a sending domain,
// together with the verification status the provider last observed.
type DNSRecord struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Value  string `json:"value"`
	Status string `json:"status"`
}

// Domain is one sending domain row. Rows are created by an explicit add
// action and mutated only by verification checks.
type Domain struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Status        DomainStatus `json:"status"`
	Records       []DNSRecord  `json:"records,omitempty"`
	VerifiedAt    *time.Time   `json:"verified_at,omitempty"`
	LastCheckedAt *time.Time   `json:"last_checked_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
