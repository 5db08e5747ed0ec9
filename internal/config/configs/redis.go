package configs

// Redis configures the shared store used when several replicas serve the
// same upstream account.
type Redis struct {
	Enabled  bool   `env:"ENABLED" envDefault:"false"`
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password Secret `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	// KeyPrefix namespaces every key written by this service.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"adpilot:"`
	// SharedLimiter moves the token bucket into Redis so all replicas
	// draw from one bucket.
	SharedLimiter bool `env:"SHARED_LIMITER" envDefault:"false"`
}
