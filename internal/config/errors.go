package config

import (
	"errors"
	"fmt"
)

// ConfigError is the diagnostic error type returned by the loader, the sources
// and the Configurator. It wraps a ConfigErrorType and an underlying error.
type ConfigError struct {
	Type ConfigErrorType
	// Key is the configuration key involved, when there is one.
	Key     string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// missingKeyError builds the ErrMissing error for a single key.
func missingKeyError(key string) *ConfigError {
	return &ConfigError{
		Type:    ErrMissing,
		Key:     key,
		Message: fmt.Sprintf("%q not found in configuration", key),
	}
}

// unavailable wraps a load failure as ErrUnavailable, keeping the original
// ConfigError reachable through Unwrap.
func unavailable(message string, err error) *ConfigError {
	return &ConfigError{
		Type:    ErrUnavailable,
		Message: message,
		Err:     err,
	}
}

// hasType reports whether any ConfigError in err's tree has type t. Joined
// errors are searched branch by branch.
func hasType(err error, t ConfigErrorType) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *ConfigError:
		return e.Type == t || hasType(e.Err, t)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if hasType(inner, t) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return hasType(e.Unwrap(), t)
	}
	return false
}

// IsMissing reports whether err is, or wraps, an ErrMissing ConfigError.
func IsMissing(err error) bool {
	return hasType(err, ErrMissing)
}

// IsUnavailable reports whether err is, or wraps, an ErrUnavailable ConfigError.
func IsUnavailable(err error) bool {
	return hasType(err, ErrUnavailable)
}

// MissingKeys returns the keys named by the ErrMissing errors in err, in order.
// It understands errors produced by errors.Join.
func MissingKeys(err error) []string {
	if err == nil {
		return nil
	}
	var keys []string
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			keys = append(keys, MissingKeys(e)...)
		}
		return keys
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		if cfgErr.Type == ErrMissing && cfgErr.Key != "" {
			keys = append(keys, cfgErr.Key)
		}
		return append(keys, MissingKeys(cfgErr.Err)...)
	}
	return nil
}
