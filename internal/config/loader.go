// loader.go implements the configuration loading lifecycle.
//
// The loading sequence is:
//  1. Load .env file via godotenv (non-fatal if absent).
//  2. Scan environment for _SSM_PARAM suffix variables.
//  3. If APP_ENV != "local", resolve SSM parameters via the SecretProvider
//     and inject the resolved values back into the environment.
//  4. Use envconfig to populate the loader Options.
//  5. Populate BuildInfo from linker-injected variables.
//  6. Validate Options using go-playground/validator.
//  7. Assemble the layered Source (args, env, file, s3, postgres, ssm).
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ssmParamSuffix is the environment variable suffix used to identify SSM
// parameter pointer variables. For example, FILTER_MODE_SSM_PARAM points
// to the SSM path holding the FILTER_MODE value.
const ssmParamSuffix = "_SSM_PARAM"

// localEnv is the APP_ENV value that bypasses SSM resolution.
const localEnv = "local"

// Layer names, highest priority first.
const (
	LayerArgs     = "args"
	LayerEnv      = "env"
	LayerFile     = "file"
	LayerS3       = "s3"
	LayerPostgres = "postgres"
	LayerSSM      = "ssm"
)

// loadTimeout bounds every remote layer (SSM, S3, Postgres).
const loadTimeout = 30 * time.Second

// envLookup is a function type for looking up environment variables.
// It matches the signature of os.LookupEnv and allows injection for testing.
type envLookup func(key string) (string, bool)

// envSet is a function type for setting environment variables.
// It matches the signature of os.Setenv and allows injection for testing.
type envSet func(key, value string) error

// environ is a function type for listing all environment variables.
// It matches the signature of os.Environ and allows injection for testing.
type environ func() []string

// loaderDeps holds the injectable dependencies for the loader, enabling
// testing without mutating global state.
type loaderDeps struct {
	lookupEnv envLookup
	setEnv    envSet
	environ   environ
}

// defaultDeps returns the standard OS-backed dependencies.
func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
	}
}

// Dependencies carries the clients used by remote layers. Any nil client is
// created from Options on demand, so tests inject fakes and production code
// passes the zero value.
type Dependencies struct {
	SecretProvider SecretProvider
	S3Client       S3Client
	Querier        Querier
	Logger         *slog.Logger
}

// Option adjusts Options after they are read from the environment.
type Option func(*Options)

// WithOverrides adds command-line KEY=VALUE overrides (highest priority).
func WithOverrides(values map[string]string) Option {
	return func(o *Options) {
		if o.Overrides == nil {
			o.Overrides = make(map[string]string, len(values))
		}
		for k, v := range values {
			o.Overrides[k] = v
		}
	}
}

// WithFiles adds config files ahead of those listed in CONFIG.
func WithFiles(paths ...string) Option {
	return func(o *Options) {
		o.Files = append(append([]string{}, paths...), o.Files...)
	}
}

// WithKeys names the keys the SSM layer fetches.
func WithKeys(keys ...string) Option {
	return func(o *Options) {
		o.Keys = append(o.Keys, keys...)
	}
}

// LoadOptions reads and validates the loader Options.
//
// provider resolves _SSM_PARAM pointers outside APP_ENV=local. It may be nil
// when no pointer variables are set.
func LoadOptions(ctx context.Context, provider SecretProvider) (*Options, error) {
	return loadOptionsWithDeps(ctx, provider, defaultDeps())
}

func loadOptionsWithDeps(ctx context.Context, provider SecretProvider, deps loaderDeps) (*Options, error) {
	// A missing .env is fine; existing variables are never overridden.
	_ = godotenv.Load()

	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv != "" && appEnv != localEnv {
		if err := resolveSSMParams(ctx, provider, deps); err != nil {
			return nil, err
		}
	}

	var opts Options
	if err := envconfig.Process("", &opts); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	opts.Build = NewBuildInfo()

	if err := validateOptions(&opts); err != nil {
		return nil, err
	}
	return &opts, nil
}

// validateOptions runs the struct validation rules on opts.
func validateOptions(opts *Options) error {
	validate := validator.New()
	if err := validate.Struct(opts); err != nil {
		return &ConfigError{
			Type:    ErrValidation,
			Message: "configuration options validation failed",
			Err:     err,
		}
	}
	return nil
}

// resolveSSMParams exports the value behind every NAME_SSM_PARAM=/path pointer
// as NAME, so both envconfig and the env layer see it. A pointer whose NAME is
// already set is ignored.
func resolveSSMParams(ctx context.Context, provider SecretProvider, deps loaderDeps) error {
	type ssmBinding struct {
		targetEnvVar string // e.g., FILTER_MODE
		ssmPath      string // e.g., /prod/genetrap/filter_mode
	}

	var bindings []ssmBinding
	ssmPathToTarget := make(map[string]string)

	for _, envEntry := range deps.environ() {
		key, ssmPath, ok := strings.Cut(envEntry, "=")
		if !ok || !strings.HasSuffix(key, ssmParamSuffix) {
			continue
		}

		targetEnvVar := strings.TrimSuffix(key, ssmParamSuffix)

		if _, exists := deps.lookupEnv(targetEnvVar); exists {
			continue
		}
		if ssmPath == "" {
			continue
		}

		bindings = append(bindings, ssmBinding{
			targetEnvVar: targetEnvVar,
			ssmPath:      ssmPath,
		})
		ssmPathToTarget[ssmPath] = targetEnvVar
	}

	if len(bindings) == 0 {
		return nil
	}

	if provider == nil {
		targetVars := make([]string, 0, len(bindings))
		for _, b := range bindings {
			targetVars = append(targetVars, b.targetEnvVar)
		}
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SecretProvider is required for non-local environments (need to resolve: %s)", strings.Join(targetVars, ", ")),
		}
	}

	ssmPaths := make([]string, 0, len(bindings))
	for _, b := range bindings {
		ssmPaths = append(ssmPaths, b.ssmPath)
	}

	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, ssmPaths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("failed to resolve %d SSM parameters", len(ssmPaths)),
			Err:     err,
		}
	}

	for ssmPath, value := range resolved {
		targetEnvVar, ok := ssmPathToTarget[ssmPath]
		if !ok {
			continue
		}
		if err := deps.setEnv(targetEnvVar, value); err != nil {
			return &ConfigError{
				Type:    ErrSSMResolution,
				Message: fmt.Sprintf("failed to set resolved value for %s", targetEnvVar),
				Err:     err,
			}
		}
	}

	// A pointer variable is an explicit request; an unresolved one is an
	// error even though a missing plain key is not.
	var missing []string
	for _, b := range bindings {
		if _, ok := resolved[b.ssmPath]; !ok {
			missing = append(missing, b.targetEnvVar)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SSM parameters not found for: %s", strings.Join(missing, ", ")),
		}
	}

	return nil
}

// Manager owns the layered Source built from Options. It has no mutable
// state after NewManager returns.
type Manager struct {
	options Options
	source  *Layered
}

// Open loads Options from the environment, applies opts and builds the
// Manager. Every failure is reported as ErrUnavailable wrapping the cause.
func Open(ctx context.Context, deps Dependencies, opts ...Option) (*Manager, error) {
	// APP_ENV and AWS_REGION may come from .env.
	_ = godotenv.Load()

	provider := deps.SecretProvider
	if provider == nil {
		if appEnv, _ := os.LookupEnv("APP_ENV"); appEnv != "" && appEnv != localEnv {
			provider = newSecretProvider(regionFromEnv(), deps.Logger)
			deps.SecretProvider = provider
		}
	}

	options, err := LoadOptions(ctx, provider)
	if err != nil {
		return nil, unavailable("configuration options could not be loaded", err)
	}
	for _, opt := range opts {
		opt(options)
	}
	return NewManager(ctx, *options, deps)
}

// newSecretProvider builds the provider Open uses outside APP_ENV=local.
var newSecretProvider = func(region string, logger *slog.Logger) SecretProvider {
	return NewSSMProvider(region, logger)
}

// regionFromEnv mirrors the AWS_REGION default in Options before Options
// have been parsed.
func regionFromEnv() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}

// NewManager assembles the layers enabled by options. A layer that fails to
// load makes the whole configuration unavailable.
func NewManager(ctx context.Context, options Options, deps Dependencies) (*Manager, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if err := validateOptions(&options); err != nil {
		return nil, unavailable("configuration options are invalid", err)
	}

	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	src := NewLayered()
	add := func(name string, layer MapSource) {
		logger.Info("configuration layer loaded", "layer", name, "keys", len(layer))
		src = src.With(name, layer)
	}

	if len(options.Overrides) > 0 {
		add(LayerArgs, MapSource(options.Overrides))
	}

	src = src.With(LayerEnv, NewEnvSource())
	logger.Info("configuration layer loaded", "layer", LayerEnv)

	if len(options.Files) > 0 {
		files, err := LoadFileSource(options.Files...)
		if err != nil {
			return nil, unavailable("file layer could not be loaded", err)
		}
		add(LayerFile, files)
	}

	if options.S3URL != "" {
		client := deps.S3Client
		if client == nil {
			c, err := NewS3Client(loadCtx, options.Region)
			if err != nil {
				return nil, unavailable("s3 layer could not be loaded", err)
			}
			client = c
		}
		obj, err := NewS3Provider(client, logger).Load(loadCtx, options.S3URL)
		if err != nil {
			return nil, unavailable("s3 layer could not be loaded", err)
		}
		add(LayerS3, obj)
	}

	if options.DatabaseURL.Unmask() != "" {
		q := deps.Querier
		if q == nil {
			pool, err := pgxpool.New(loadCtx, options.DatabaseURL.Unmask())
			if err != nil {
				return nil, unavailable("postgres layer could not be loaded", err)
			}
			defer pool.Close()
			q = pool
		}
		rows, err := LoadPostgresSource(loadCtx, q, options.Namespace)
		if err != nil {
			return nil, unavailable("postgres layer could not be loaded", err)
		}
		add(LayerPostgres, rows)
	}

	if options.SSMPrefix != "" && len(options.Keys) > 0 {
		provider := deps.SecretProvider
		if provider == nil {
			provider = NewSSMProvider(options.Region, logger)
		}
		params, err := LoadSSMSource(loadCtx, provider, options.SSMPrefix, options.Keys)
		if err != nil {
			return nil, unavailable("ssm layer could not be loaded", err)
		}
		add(LayerSSM, params)
	}

	return &Manager{options: options, source: src}, nil
}

// Source returns the layered source.
func (m *Manager) Source() *Layered {
	return m.source
}

// Options returns the options the Manager was built from.
func (m *Manager) Options() Options {
	return m.options
}

// Layers lists the loaded layer names from highest to lowest priority.
func (m *Manager) Layers() []string {
	return m.source.Names()
}
