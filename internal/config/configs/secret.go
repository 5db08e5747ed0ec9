package configs

import "log/slog"

const redacted = "[REDACTED]"

// Secret holds a credential. It never prints its value through fmt, slog
// or JSON; call Reveal where the raw value is required.
type Secret string

func (s Secret) String() string { return redacted }

func (s Secret) GoString() string { return redacted }

func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Reveal returns the raw credential.
func (s Secret) Reveal() string { return string(s) }

// Empty reports whether no credential was supplied.
func (s Secret) Empty() bool { return s == "" }
