package discjockey

import "time"

// Config holds the disc jockey module configuration.
type Config struct {
	LavalinkAddress  string        `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string        `env:"LAVALINK_PASSWORD,notEmpty"`
	DatabasePath     string        `env:"DJBOT_DATABASE_PATH" envDefault:"djbot.db"`
	ResolveTimeout   time.Duration `env:"DJBOT_RESOLVE_TIMEOUT" envDefault:"15s"`
}
