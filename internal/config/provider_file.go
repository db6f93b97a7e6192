package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
)

// LoadFileSource reads KEY=VALUE config files with godotenv and merges them
// into a single MapSource. Files listed first take priority over later ones,
// matching the order of the CONFIG variable.
//
// A file that cannot be read or parsed fails the whole load with ErrParsing;
// the Manager reports that as ErrUnavailable.
func LoadFileSource(paths ...string) (MapSource, error) {
	merged := make(MapSource)
	for i := len(paths) - 1; i >= 0; i-- {
		path := strings.TrimSpace(paths[i])
		if path == "" {
			continue
		}
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: fmt.Sprintf("failed to read config file %q", path),
				Err:     err,
			}
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged, nil
}

// ParseArgs converts KEY=VALUE command-line pairs into a MapSource. The value
// is everything after the first '='; it is kept verbatim. Later pairs override
// earlier ones.
func ParseArgs(args []string) (MapSource, error) {
	out := make(MapSource, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: fmt.Sprintf("invalid override %q: want KEY=VALUE", arg),
			}
		}
		out[key] = value
	}
	return out, nil
}
