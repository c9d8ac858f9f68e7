// Package config loads environment-based configuration structs.
//
// Every component of mailroom declares its own Config struct with `env:`
// tags and loads it through Load or MustLoad. A .env file in the working
// directory is picked up once, before the first parse, which keeps local
// development close to the deployed environment.
//
// Usage:
//
//	type OutboxConfig struct {
//		PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"15s"`
//		BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"50"`
//	}
//
//	var cfg OutboxConfig
//	config.MustLoad(&cfg)
package config
