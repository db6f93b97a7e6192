package config

import "os"

// EnvSource is the environment layer. Lookups go to the live environment, so
// values exported by godotenv or the _SSM_PARAM resolution during loading
// are visible.
type EnvSource struct {
	lookupEnv envLookup
}

// NewEnvSource returns an EnvSource over os.LookupEnv.
func NewEnvSource() *EnvSource {
	return &EnvSource{lookupEnv: os.LookupEnv}
}

// Lookup implements Source. A variable set to the empty string is present.
func (s *EnvSource) Lookup(key string) (string, bool) {
	if s == nil || s.lookupEnv == nil {
		return "", false
	}
	return s.lookupEnv(key)
}
