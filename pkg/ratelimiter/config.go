package ratelimiter

// Config holds send-endpoint rate limit settings. Burst 0 means the burst
// equals the per-minute rate.
type Config struct {
	SendPerMinute int `env:"RATE_LIMIT_SEND_PER_MINUTE" envDefault:"60"`
	SendBurst     int `env:"RATE_LIMIT_SEND_BURST" envDefault:"0"`
}
