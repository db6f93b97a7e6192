package config

import "context"

// Source is a read-only key/value view over loaded configuration.
// A key that is present with an empty value reports ok == true.
type Source interface {
	Lookup(key string) (value string, ok bool)
}

// SecretProvider fetches parameter values by path. SSMProvider is the
// production implementation.
type SecretProvider interface {
	// GetParametersBatch returns path -> decrypted value for every path that
	// exists. Absent paths are omitted; the caller decides whether that is
	// an error.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
