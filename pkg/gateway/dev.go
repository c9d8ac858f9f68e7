package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DevGateway is a local development gateway that writes every message as an
// HTML file plus a JSON metadata file instead of contacting a provider. It
// also keeps an in-memory index so FetchByID and List work against the fake
// send history.
type DevGateway struct {
	dir string

	mu       sync.RWMutex
	messages map[string]MessageSnapshot
	order    []string
}

// NewDevGateway creates a disk-writing gateway rooted at dir. The directory
// is created on first send.
func NewDevGateway(dir string) *DevGateway {
	return &DevGateway{
		dir:      dir,
		messages: make(map[string]MessageSnapshot),
	}
}

type devMetadata struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	From      string   `json:"from"`
	To        []string `json:"to"`
	Subject   string   `json:"subject"`
	Tags      []Tag    `json:"tags,omitempty"`
}

func (d *DevGateway) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return SendResult{}, fmt.Errorf("%w: create dev email dir: %v", ErrProvider, err)
	}

	id := uuid.NewString()
	now := time.Now()
	base := fmt.Sprintf("%s_%s", now.Format("2006_01_02_150405"), sanitizeFilename(req.Subject))

	body := req.HTML
	if body == "" {
		body = req.Text
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(body), 0644); err != nil {
		return SendResult{}, fmt.Errorf("%w: write email body: %v", ErrProvider, err)
	}

	meta := devMetadata{
		ID:        id,
		Timestamp: now.Format(time.RFC3339),
		From:      req.From,
		To:        req.To,
		Subject:   req.Subject,
		Tags:      req.Tags,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return SendResult{}, fmt.Errorf("%w: marshal metadata: %v", ErrProvider, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), data, 0644); err != nil {
		return SendResult{}, fmt.Errorf("%w: write metadata: %v", ErrProvider, err)
	}

	d.mu.Lock()
	d.messages[id] = MessageSnapshot{
		ProviderMessageID: id,
		From:              req.From,
		To:                req.To,
		Subject:           req.Subject,
		LastEvent:         "sent",
		CreatedAt:         now.Format(time.RFC3339),
	}
	d.order = append(d.order, id)
	d.mu.Unlock()

	return SendResult{ProviderMessageID: id}, nil
}

func (d *DevGateway) FetchByID(ctx context.Context, providerMessageID string) (MessageSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap, ok := d.messages[providerMessageID]
	if !ok {
		return MessageSnapshot{}, fmt.Errorf("%w: message %q", ErrNotFound, providerMessageID)
	}
	return snap, nil
}

func (d *DevGateway) List(ctx context.Context) ([]MessageSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]MessageSnapshot, 0, len(d.order))
	// Newest first, matching the provider API ordering.
	for i := len(d.order) - 1; i >= 0; i-- {
		out = append(out, d.messages[d.order[i]])
	}
	return out, nil
}

// DomainStatus reports every domain as verified so local flows that gate on
// sender verification keep working without DNS setup.
func (d *DevGateway) DomainStatus(ctx context.Context, name string) (DomainSnapshot, error) {
	return DomainSnapshot{
		ProviderDomainID: "dev-" + name,
		Name:             name,
		Status:           "verified",
	}, nil
}

func (d *DevGateway) ListDomains(ctx context.Context) ([]DomainSnapshot, error) {
	return nil, nil
}

func (d *DevGateway) VerifyDomain(ctx context.Context, name string) (DomainSnapshot, error) {
	return d.DomainStatus(ctx, name)
}

func (d *DevGateway) Cancel(ctx context.Context, providerMessageID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.messages[providerMessageID]
	return !ok, nil
}

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// sanitizeFilename converts a subject line into a safe filename.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = sanitizeRegex.ReplaceAllString(s, "")

	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "email"
	}
	return strings.ToLower(s)
}
