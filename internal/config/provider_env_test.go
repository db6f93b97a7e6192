package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvSourceLookup(t *testing.T) {
	const (
		setKey     = "GENETRAP_TEST_ENV_SOURCE_SET"
		emptyKey   = "GENETRAP_TEST_ENV_SOURCE_EMPTY"
		missingKey = "GENETRAP_TEST_ENV_SOURCE_MISSING"
	)
	t.Setenv(setKey, "GeneTrapCoord")
	t.Setenv(emptyKey, "")
	os.Unsetenv(missingKey)

	src := NewEnvSource()

	got, ok := src.Lookup(setKey)
	assert.True(t, ok)
	assert.Equal(t, "GeneTrapCoord", got)

	got, ok = src.Lookup(emptyKey)
	assert.True(t, ok, "an empty variable is still present")
	assert.Equal(t, "", got)

	_, ok = src.Lookup(missingKey)
	assert.False(t, ok)
}

// TestEnvSourceSeesLaterChanges verifies lookups are not snapshotted at
// construction.
func TestEnvSourceSeesLaterChanges(t *testing.T) {
	const key = "GENETRAP_TEST_ENV_SOURCE_LATE"
	os.Unsetenv(key)

	src := NewEnvSource()
	_, ok := src.Lookup(key)
	assert.False(t, ok)

	t.Setenv(key, "full")
	got, ok := src.Lookup(key)
	assert.True(t, ok)
	assert.Equal(t, "full", got)
}

func TestEnvSourceInjectedLookup(t *testing.T) {
	env := fakeEnv{"FILTER_MODE": "full"}
	src := &EnvSource{lookupEnv: env.deps().lookupEnv}

	got, ok := src.Lookup("FILTER_MODE")
	assert.True(t, ok)
	assert.Equal(t, "full", got)

	_, ok = src.Lookup("NEW_OUTFILE_NAME")
	assert.False(t, ok)
}
