package config

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigError
		want string
	}{
		{
			name: "without cause",
			err:  &ConfigError{Type: ErrMissing, Key: "FILTER_MODE", Message: `"FILTER_MODE" not found in configuration`},
			want: `[CONFIG_MISSING] "FILTER_MODE" not found in configuration`,
		},
		{
			name: "with cause",
			err:  &ConfigError{Type: ErrUnavailable, Message: "file layer could not be loaded", Err: fmt.Errorf("no such file")},
			want: "[CONFIG_UNAVAILABLE] file layer could not be loaded: no such file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestConfigErrorUnwrap(t *testing.T) {
	cause := &ConfigError{Type: ErrParsing, Message: "bad file"}
	err := unavailable("file layer could not be loaded", cause)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrUnavailable, cfgErr.Type)
	assert.Same(t, cause, errors.Unwrap(err))
}

func TestIsMissingAndIsUnavailable(t *testing.T) {
	missing := missingKeyError("NEW_OUTFILE_NAME")
	unav := unavailable("no source", &ConfigError{Type: ErrParsing, Message: "x"})

	assert.True(t, IsMissing(missing))
	assert.False(t, IsUnavailable(missing))

	assert.True(t, IsUnavailable(unav))
	assert.False(t, IsMissing(unav))

	wrapped := fmt.Errorf("job start: %w", missing)
	assert.True(t, IsMissing(wrapped))

	assert.False(t, IsMissing(nil))
	assert.False(t, IsMissing(errors.New("plain")))
}

func TestIsTypeWalksNestedConfigErrors(t *testing.T) {
	inner := &ConfigError{Type: ErrSSMResolution, Message: "throttled"}
	outer := unavailable("ssm layer could not be loaded", inner)

	assert.True(t, hasType(outer, ErrSSMResolution))
	assert.True(t, hasType(outer, ErrUnavailable))
	assert.False(t, hasType(outer, ErrMissing))
}

func TestMissingKeys(t *testing.T) {
	joined := &ConfigError{
		Type:    ErrMissing,
		Message: "2 keys not found",
		Err:     errors.Join(missingKeyError("NEW_OUTFILE_NAME"), missingKeyError("ALL_OUTFILE_NAME")),
	}
	assert.Equal(t, []string{"NEW_OUTFILE_NAME", "ALL_OUTFILE_NAME"}, MissingKeys(joined))
	assert.Equal(t, []string{"FILTER_MODE"}, MissingKeys(missingKeyError("FILTER_MODE")))
	assert.Nil(t, MissingKeys(nil))
	assert.Nil(t, MissingKeys(errors.New("plain")))
}

func TestMapSource(t *testing.T) {
	src := MapSource{"COORD_COLLECTION_NAME": "GeneTrapCoord", "EMPTY": ""}

	v, ok := src.Lookup("COORD_COLLECTION_NAME")
	assert.True(t, ok)
	assert.Equal(t, "GeneTrapCoord", v)

	v, ok = src.Lookup("EMPTY")
	assert.True(t, ok, "an empty value is still present")
	assert.Equal(t, "", v)

	_, ok = src.Lookup("FILTER_MODE")
	assert.False(t, ok)

	assert.Equal(t, []string{"COORD_COLLECTION_NAME", "EMPTY"}, src.Keys())

	var zero MapSource
	_, ok = zero.Lookup("ANY")
	assert.False(t, ok)
}

func TestLayeredFirstLayerWins(t *testing.T) {
	src := NewLayered().
		With(LayerArgs, MapSource{"FILTER_MODE": "full"}).
		With(LayerFile, MapSource{"FILTER_MODE": "new", "NEW_OUTFILE_NAME": "gt.new"}).
		With("unused", nil)

	v, ok := src.Lookup("FILTER_MODE")
	require.True(t, ok)
	assert.Equal(t, "full", v)

	origin, ok := src.Origin("FILTER_MODE")
	require.True(t, ok)
	assert.Equal(t, LayerArgs, origin)

	origin, ok = src.Origin("NEW_OUTFILE_NAME")
	require.True(t, ok)
	assert.Equal(t, LayerFile, origin)

	_, ok = src.Lookup("ALL_OUTFILE_NAME")
	assert.False(t, ok)
	_, ok = src.Origin("ALL_OUTFILE_NAME")
	assert.False(t, ok)

	assert.Equal(t, []string{LayerArgs, LayerFile}, src.Names())
}

func TestLayeredWithDoesNotMutateReceiver(t *testing.T) {
	base := NewLayered().With(LayerEnv, MapSource{"A": "1"})
	extended := base.With(LayerFile, MapSource{"B": "2"})

	_, ok := base.Lookup("B")
	assert.False(t, ok)
	_, ok = extended.Lookup("B")
	assert.True(t, ok)
	assert.Equal(t, []string{LayerEnv}, base.Names())
}

func TestConfigurator(t *testing.T) {
	c, err := NewConfigurator(MapSource{"FILTER_MODE": " full "})
	require.NoError(t, err)

	got, err := c.GetString("FILTER_MODE")
	require.NoError(t, err)
	assert.Equal(t, " full ", got, "values are returned verbatim")

	_, err = c.GetString("NEW_OUTFILE_NAME")
	require.Error(t, err)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ErrMissing, cfgErr.Type)
	assert.Equal(t, "NEW_OUTFILE_NAME", cfgErr.Key)
}

func TestNewConfiguratorNilSource(t *testing.T) {
	c, err := NewConfigurator(nil)
	assert.Nil(t, c)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}

func TestNewConfiguratorNilPointerSources(t *testing.T) {
	tests := []struct {
		name string
		src  Source
	}{
		{name: "nil layered", src: (*Layered)(nil)},
		{name: "nil env source", src: (*EnvSource)(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewConfigurator(tt.src)
			assert.Nil(t, c)
			require.Error(t, err)
			assert.True(t, IsUnavailable(err))
		})
	}
}

// TestNewConfiguratorNilMapSource verifies a nil MapSource is an empty
// source rather than a missing one.
func TestNewConfiguratorNilMapSource(t *testing.T) {
	var src MapSource
	c, err := NewConfigurator(src)
	require.NoError(t, err)

	_, err = c.GetString("FILTER_MODE")
	assert.True(t, IsMissing(err))
}

func TestNilLayeredIsEmpty(t *testing.T) {
	var l *Layered

	_, ok := l.Lookup("FILTER_MODE")
	assert.False(t, ok)
	_, ok = l.Origin("FILTER_MODE")
	assert.False(t, ok)
	assert.Empty(t, l.Names())

	extended := l.With(LayerEnv, MapSource{"FILTER_MODE": "full"}).With("nil env", (*EnvSource)(nil))
	v, ok := extended.Lookup("FILTER_MODE")
	require.True(t, ok)
	assert.Equal(t, "full", v)
	assert.Equal(t, []string{LayerEnv}, extended.Names())
}

func TestIsTypeSearchesJoinedErrors(t *testing.T) {
	parsing := &ConfigError{Type: ErrParsing, Message: "bad file"}
	missing := missingKeyError("FILTER_MODE")

	joined := errors.Join(parsing, missing)
	assert.True(t, IsMissing(joined))
	assert.True(t, hasType(joined, ErrParsing))
	assert.False(t, IsUnavailable(joined))

	wrapped := fmt.Errorf("job start: %w", joined)
	assert.True(t, IsMissing(wrapped))

	nested := unavailable("file layer could not be loaded", errors.Join(errors.New("plain"), missing))
	assert.True(t, IsUnavailable(nested))
	assert.True(t, IsMissing(nested))
}
