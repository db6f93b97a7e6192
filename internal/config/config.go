// Package config provides the configuration manager shared by the gene-trap
// filter jobs. Configuration is loaded once at process start and is read-only
// thereafter; consumers look values up by key through a Source.
//
// Values are resolved via a layered priority chain:
//
//	Command-line overrides (Highest) -> OS Environment -> Config Files ->
//	S3 Object -> Postgres Table -> AWS SSM Parameter Store (Lowest)
//
// A layer whose option is not set is skipped. Absence of a key in every layer
// surfaces as a ConfigError of type ErrMissing at lookup time, never at load
// time.
package config

// Options controls which layers the Manager assembles. It is populated from
// the process environment with envconfig and validated before any layer is
// loaded.
type Options struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	// Files is the list of KEY=VALUE config files, lowest priority last.
	Files []string `envconfig:"CONFIG"`

	// S3URL points at a KEY=VALUE object, optionally zstd-compressed (.zst).
	S3URL string `envconfig:"CONFIG_S3_URL" validate:"omitempty,startswith=s3://"`

	// DatabaseURL enables the Postgres layer.
	DatabaseURL SecretString `envconfig:"CONFIG_DATABASE_URL" validate:"omitempty,url"`
	Namespace   string       `envconfig:"CONFIG_NAMESPACE" default:"gbgenetrapfilter" validate:"required"`

	// SSMPrefix enables the Parameter Store layer; keys are read from
	// SSMPrefix + key (e.g. /prod/genetrap/FILTER_MODE).
	SSMPrefix string `envconfig:"CONFIG_SSM_PREFIX" validate:"omitempty,startswith=/"`
	Region    string `envconfig:"AWS_REGION" default:"us-east-1"`

	// Overrides are KEY=VALUE pairs from the command line. Not read from env.
	Overrides map[string]string `ignored:"true"`

	// Keys are fetched from Parameter Store when SSMPrefix is set. Parameter
	// Store has no cheap "list everything" call, so the consumer names them.
	Keys []string `ignored:"true"`

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo `ignored:"true"`
}

// BuildInfo holds build-time metadata injected via ldflags.
// These values are NOT populated from environment variables.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissing indicates a key is absent from every configured layer.
	ErrMissing ConfigErrorType = "CONFIG_MISSING"
	// ErrUnavailable indicates no Source could be obtained at construction.
	ErrUnavailable ConfigErrorType = "CONFIG_UNAVAILABLE"
	// ErrSSMResolution indicates a failure when fetching values from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the loader options failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variables,
	// config files or command-line pairs.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
