package configs

import (
	"errors"
	"time"
)

// Upstream configures the ad platform client. Rate figures follow the
// platform's published limits and are expected to change with its policy.
type Upstream struct {
	BaseURL string `env:"BASE_URL" envDefault:"https://ssp-api.propellerads.com/v5"`
	// Token is the account API token. It is injected by the host
	// environment and never logged.
	Token Secret `env:"TOKEN"`

	// RPS and Burst size the token bucket shared by every request.
	RPS   float64 `env:"RPS" envDefault:"5"`
	Burst int     `env:"BURST" envDefault:"5"`
	// MaxQueueWait bounds how long a call waits for a token.
	MaxQueueWait time.Duration `env:"MAX_QUEUE_WAIT" envDefault:"30s"`

	// MaxAttempts caps attempts on rate-limit responses.
	MaxAttempts int           `env:"MAX_ATTEMPTS" envDefault:"5"`
	BackoffBase time.Duration `env:"BACKOFF_BASE" envDefault:"500ms"`
	BackoffCap  time.Duration `env:"BACKOFF_CAP" envDefault:"30s"`
	// RequestTimeout applies to every single attempt.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	PageSize int `env:"PAGE_SIZE" envDefault:"100"`
	// MaxPages stops pagination on a misbehaving upstream.
	MaxPages int `env:"MAX_PAGES" envDefault:"100"`
	// Timezone is passed to statistics queries.
	Timezone string `env:"TIMEZONE" envDefault:"+0000"`
}

// Validate rejects settings that would stall or disable pacing.
func (c Upstream) Validate() error {
	var errs []error
	if c.RPS <= 0 {
		errs = append(errs, errors.New("UPSTREAM_RPS must be positive"))
	}
	if c.Burst < 1 {
		errs = append(errs, errors.New("UPSTREAM_BURST must be at least 1"))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, errors.New("UPSTREAM_MAX_ATTEMPTS must be at least 1"))
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		errs = append(errs, errors.New("UPSTREAM_PAGE_SIZE must be within 1..100"))
	}
	if c.MaxPages < 1 {
		errs = append(errs, errors.New("UPSTREAM_MAX_PAGES must be at least 1"))
	}
	return errors.Join(errs...)
}
