package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

const resendAPIBase = "https://api.resend.com"

// resendGateway wraps the Resend SDK. The client is created once from config
// and never reassigned, so concurrent drain workers can share one gateway.
// Endpoints the SDK does not cover completely (email listing, domain records)
// go through the raw HTTP API.
type resendGateway struct {
	client  *resend.Client
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewResendGateway creates a Resend-backed delivery gateway.
func NewResendGateway(cfg Config) (Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: RESEND_API_KEY is required", ErrInvalidConfig)
	}
	return &resendGateway{
		client:  resend.NewClient(cfg.APIKey),
		apiKey:  cfg.APIKey,
		baseURL: resendAPIBase,
		http:    &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (g *resendGateway) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	params := &resend.SendEmailRequest{
		From:    req.From,
		To:      req.To,
		Cc:      req.Cc,
		Bcc:     req.Bcc,
		ReplyTo: req.ReplyTo,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
	}
	for _, tag := range req.Tags {
		params.Tags = append(params.Tags, resend.Tag{Name: tag.Name, Value: tag.Value})
	}

	sent, err := g.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return SendResult{}, errors.Join(ErrProvider, err)
	}
	return SendResult{ProviderMessageID: sent.Id}, nil
}

func (g *resendGateway) FetchByID(ctx context.Context, providerMessageID string) (MessageSnapshot, error) {
	email, err := g.client.Emails.GetWithContext(ctx, providerMessageID)
	if err != nil {
		return MessageSnapshot{}, errors.Join(ErrProvider, err)
	}
	return MessageSnapshot{
		ProviderMessageID: email.Id,
		From:              email.From,
		To:                email.To,
		Subject:           email.Subject,
		LastEvent:         email.LastEvent,
		CreatedAt:         email.CreatedAt,
	}, nil
}

// List goes through the raw HTTP API: the SDK does not cover the list
// endpoint yet. The provider caps the result by plan, so the slice must not
// be treated as the complete send history — the outbox is.
func (g *resendGateway) List(ctx context.Context) ([]MessageSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/emails", nil)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: list emails returned status %d", ErrProvider, resp.StatusCode)
	}

	var payload struct {
		Data []MessageSnapshot `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Join(ErrProvider, err)
	}
	return payload.Data, nil
}

func (g *resendGateway) DomainStatus(ctx context.Context, name string) (DomainSnapshot, error) {
	domain, err := g.findDomain(ctx, name)
	if err != nil {
		return DomainSnapshot{}, err
	}

	// The SDK's domain responses omit DNS records; fetch the full view
	// through the raw API.
	return g.fetchDomain(ctx, domain.ProviderDomainID)
}

func (g *resendGateway) ListDomains(ctx context.Context) ([]DomainSnapshot, error) {
	list, err := g.client.Domains.ListWithContext(ctx)
	if err != nil {
		return nil, errors.Join(ErrProvider, err)
	}

	out := make([]DomainSnapshot, 0, len(list.Data))
	for _, d := range list.Data {
		out = append(out, toDomainSnapshot(d))
	}
	return out, nil
}

func (g *resendGateway) VerifyDomain(ctx context.Context, name string) (DomainSnapshot, error) {
	domain, err := g.findDomain(ctx, name)
	if err != nil {
		return DomainSnapshot{}, err
	}

	if _, err := g.client.Domains.VerifyWithContext(ctx, domain.ProviderDomainID); err != nil {
		return DomainSnapshot{}, errors.Join(ErrProvider, err)
	}

	// Verification is asynchronous on the provider side; return the
	// point-in-time state after triggering the recheck.
	return g.fetchDomain(ctx, domain.ProviderDomainID)
}

func (g *resendGateway) Cancel(ctx context.Context, providerMessageID string) (bool, error) {
	if _, err := g.client.Emails.CancelWithContext(ctx, providerMessageID); err != nil {
		// Already-dispatched messages cannot be canceled; that is not a
		// failure for the caller, local cancellation is authoritative.
		return false, nil
	}
	return true, nil
}

// findDomain resolves a domain name to the provider's domain record, since
// the provider API addresses domains by id.
func (g *resendGateway) findDomain(ctx context.Context, name string) (DomainSnapshot, error) {
	domains, err := g.ListDomains(ctx)
	if err != nil {
		return DomainSnapshot{}, err
	}
	for _, d := range domains {
		if d.Name == name {
			return d, nil
		}
	}
	return DomainSnapshot{}, fmt.Errorf("%w: domain %q", ErrNotFound, name)
}

// fetchDomain loads one domain with its DNS records through the raw API;
// the SDK's Domain type carries no records.
func (g *resendGateway) fetchDomain(ctx context.Context, providerDomainID string) (DomainSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/domains/"+providerDomainID, nil)
	if err != nil {
		return DomainSnapshot{}, errors.Join(ErrProvider, err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return DomainSnapshot{}, errors.Join(ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return DomainSnapshot{}, fmt.Errorf("%w: domain %q", ErrNotFound, providerDomainID)
	}
	if resp.StatusCode != http.StatusOK {
		return DomainSnapshot{}, fmt.Errorf("%w: get domain returned status %d", ErrProvider, resp.StatusCode)
	}

	var payload struct {
		Id      string `json:"id"`
		Name    string `json:"name"`
		Status  string `json:"status"`
		Records []struct {
			Type   string `json:"type"`
			Name   string `json:"name"`
			Value  string `json:"value"`
			Status string `json:"status"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return DomainSnapshot{}, errors.Join(ErrProvider, err)
	}

	snap := DomainSnapshot{
		ProviderDomainID: payload.Id,
		Name:             payload.Name,
		Status:           payload.Status,
	}
	for _, rec := range payload.Records {
		snap.Records = append(snap.Records, mailer.DNSRecord{
			Type:   rec.Type,
			Name:   rec.Name,
			Value:  rec.Value,
			Status: rec.Status,
		})
	}
	return snap, nil
}

func toDomainSnapshot(d resend.Domain) DomainSnapshot {
	return DomainSnapshot{
		ProviderDomainID: d.Id,
		Name:             d.Name,
		Status:           d.Status,
	}
}
