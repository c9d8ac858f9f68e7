package gateway

import (
	"context"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

// Tag is a provider-side label attached to an outgoing message.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SendRequest carries one fully rendered email to the provider.
type SendRequest struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
	Tags    []Tag
}

// SendResult reports provider acceptance of a message.
type SendResult struct {
	ProviderMessageID string
}

// MessageSnapshot is the provider's view of a previously submitted message.
type MessageSnapshot struct {
	ProviderMessageID string   `json:"id"`
	From              string   `json:"from"`
	To                []string `json:"to"`
	Subject           string   `json:"subject"`
	LastEvent         string   `json:"last_event,omitempty"`
	CreatedAt         string   `json:"created_at,omitempty"`
}

// DomainSnapshot is the provider's point-in-time view of a sending domain.
type DomainSnapshot struct {
	ProviderDomainID string             `json:"id"`
	Name             string             `json:"name"`
	Status           string             `json:"status"`
	Records          []mailer.DNSRecord `json:"records,omitempty"`
}

// Gateway is the boundary to the delivery provider. All operations may fail
// with an error wrapping ErrProvider; the caller owns retry policy.
type Gateway interface {
	// Send submits a rendered message for delivery.
	Send(ctx context.Context, req SendRequest) (SendResult, error)

	// FetchByID returns the provider's view of a message.
	FetchByID(ctx context.Context, providerMessageID string) (MessageSnapshot, error)

	// List returns recently submitted messages. The result may be
	// capacity-limited by the provider plan; completeness is not guaranteed.
	List(ctx context.Context) ([]MessageSnapshot, error)

	// DomainStatus returns the current verification state of a domain.
	DomainStatus(ctx context.Context, name string) (DomainSnapshot, error)

	// ListDomains returns all domains registered with the provider.
	ListDomains(ctx context.Context) ([]DomainSnapshot, error)

	// VerifyDomain triggers a provider-side DNS recheck and returns the
	// refreshed snapshot. It does not guarantee verification; the result
	// reflects point-in-time DNS state.
	VerifyDomain(ctx context.Context, name string) (DomainSnapshot, error)

	// Cancel asks the provider not to dispatch a message. Only meaningful
	// before provider-side dispatch; canceling an already-sent message is a
	// no-op success.
	Cancel(ctx context.Context, providerMessageID string) (bool, error)
}
