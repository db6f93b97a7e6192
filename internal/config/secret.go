package config

import "log/slog"

const redacted = "***REDACTED***"

// SecretString holds a credential, such as the Postgres connection URL, that
// must never reach logs or JSON dumps. fmt, encoding/json and slog all see
// the redacted placeholder; Unmask returns the raw value.
type SecretString string

// String implements fmt.Stringer.
func (s SecretString) String() string {
	return redacted
}

// GoString covers the %#v verb, which bypasses String.
func (s SecretString) GoString() string {
	return redacted
}

// MarshalJSON implements json.Marshaler.
func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// LogValue implements slog.LogValuer.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// Unmask returns the raw value. Call it only where the driver needs it.
func (s SecretString) Unmask() string {
	return string(s)
}
