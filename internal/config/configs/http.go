package configs

import "time"

// HTTP defines configuration for the HTTP tool surface.
type HTTP struct {
	// Port is the TCP port the HTTP server will listen on. Defaults to 8080.
	Port uint16 `env:"PORT" envDefault:"8080"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
	// RequestTimeout bounds one tool call, including every upstream page.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"2m"`
}
