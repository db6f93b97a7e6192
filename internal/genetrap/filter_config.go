package genetrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"genetrapfilter/internal/config"
)

// Configuration keys read by FilterConfig.
const (
	KeyMapCollectionName = "COORD_COLLECTION_NAME"
	KeyNewOutputFileName = "NEW_OUTFILE_NAME"
	KeyAllOutputFileName = "ALL_OUTFILE_NAME"
	KeyFilterMode        = "FILTER_MODE"
)

// Keys returns the configuration keys in accessor declaration order.
func Keys() []string {
	return []string{
		KeyMapCollectionName,
		KeyNewOutputFileName,
		KeyAllOutputFileName,
		KeyFilterMode,
	}
}

// FilterConfig retrieves the configuration parameters of the gene-trap
// filter. It holds a reference to its source and has no state of its own.
type FilterConfig struct {
	cfg *config.Configurator
}

// NewFilterConfig binds a FilterConfig to src. It fails with a
// config.ErrUnavailable error when src is nil.
func NewFilterConfig(src config.Source) (*FilterConfig, error) {
	c, err := config.NewConfigurator(src)
	if err != nil {
		return nil, err
	}
	return &FilterConfig{cfg: c}, nil
}

// LoadFilterConfig builds the layered configuration from the environment and
// binds a FilterConfig to it. The four keys are requested from Parameter Store
// when CONFIG_SSM_PREFIX is set. Any load failure is a config.ErrUnavailable
// error.
func LoadFilterConfig(ctx context.Context, deps config.Dependencies, opts ...config.Option) (*FilterConfig, *config.Manager, error) {
	opts = append([]config.Option{config.WithKeys(Keys()...)}, opts...)
	m, err := config.Open(ctx, deps, opts...)
	if err != nil {
		return nil, nil, err
	}
	fc, err := NewFilterConfig(m.Source())
	if err != nil {
		return nil, nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("filter configuration bound", "layers", m.Layers())
	return fc, m, nil
}

// MapCollectionName returns the map coordinate collection name.
func (f *FilterConfig) MapCollectionName() (string, error) {
	return f.cfg.GetString(KeyMapCollectionName)
}

// NewOutputFileName returns the file name for gene trap sequence records
// which represent ALOs not yet in the database.
func (f *FilterConfig) NewOutputFileName() (string, error) {
	return f.cfg.GetString(KeyNewOutputFileName)
}

// AllOutputFileName returns the file name for all gene trap sequence records.
func (f *FilterConfig) AllOutputFileName() (string, error) {
	return f.cfg.GetString(KeyAllOutputFileName)
}

// FilterMode returns the filter mode.
func (f *FilterConfig) FilterMode() (string, error) {
	return f.cfg.GetString(KeyFilterMode)
}

// Settings is a point-in-time copy of the four filter parameters.
type Settings struct {
	MapCollectionName string `json:"mapCollectionName"`
	NewOutputFileName string `json:"newOutputFileName"`
	AllOutputFileName string `json:"allOutputFileName"`
	FilterMode        string `json:"filterMode"`
}

// Settings reads all four parameters. When any are absent it returns a
// single config.ErrMissing error naming every absent key and a zero Settings.
func (f *FilterConfig) Settings() (Settings, error) {
	var (
		s    Settings
		errs []error
	)
	read := func(dst *string, get func() (string, error)) {
		v, err := get()
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}
	read(&s.MapCollectionName, f.MapCollectionName)
	read(&s.NewOutputFileName, f.NewOutputFileName)
	read(&s.AllOutputFileName, f.AllOutputFileName)
	read(&s.FilterMode, f.FilterMode)

	if len(errs) == 0 {
		return s, nil
	}
	if len(errs) == 1 {
		return Settings{}, errs[0]
	}
	return Settings{}, &config.ConfigError{
		Type:    config.ErrMissing,
		Message: fmt.Sprintf("%d filter configuration keys not found", len(errs)),
		Err:     errors.Join(errs...),
	}
}

// Lookup returns the value of one of the four keys by name. Unknown names
// are rejected so callers cannot read arbitrary configuration through it.
func (f *FilterConfig) Lookup(key string) (string, error) {
	switch key {
	case KeyMapCollectionName:
		return f.MapCollectionName()
	case KeyNewOutputFileName:
		return f.NewOutputFileName()
	case KeyAllOutputFileName:
		return f.AllOutputFileName()
	case KeyFilterMode:
		return f.FilterMode()
	}
	return "", fmt.Errorf("unknown filter configuration key %q", key)
}
