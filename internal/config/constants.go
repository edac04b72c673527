package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Startup timeouts for the database health check and migrations
const (
	DBPingTimeout    = 5 * time.Second
	DBMigrateTimeout = 30 * time.Second
)

// Telegram API call timeout for notifications
const NotifyTimeout = 10 * time.Second

// How long a member's "can send" contact window stays open
const ContactStateTTL = 24 * time.Hour

// Look-back window for the random poke: active within ActiveWindow,
// silent for at least SilentWindow
const (
	PokeActiveWindow = 24 * time.Hour
	PokeSilentWindow = 2 * time.Hour
)
