package gateway

import "fmt"

// Provider selects the gateway implementation.
const (
	ProviderResend = "resend"
	ProviderDev    = "dev"
)

// Config holds delivery gateway configuration. APIKey is required for the
// resend provider; the dev provider writes emails to DevDir instead of
// sending them.
type Config struct {
	Provider string `env:"EMAIL_PROVIDER" envDefault:"resend"`
	APIKey   string `env:"RESEND_API_KEY"`
	DevDir   string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/emails"`
}

// New constructs the gateway selected by cfg.Provider. Fails fast on missing
// credentials so a misconfigured service does not start and silently queue
// undeliverable mail.
func New(cfg Config) (Gateway, error) {
	switch cfg.Provider {
	case ProviderResend:
		return NewResendGateway(cfg)
	case ProviderDev:
		return NewDevGateway(cfg.DevDir), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
}
