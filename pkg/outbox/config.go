package outbox

import "time"

// Config holds outbox worker and retry policy settings.
type Config struct {
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"5s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`
	MaxRetries   int8          `env:"OUTBOX_MAX_RETRIES" envDefault:"3"`
	MaxBackoff   time.Duration `env:"OUTBOX_MAX_BACKOFF" envDefault:"1h"`
}
