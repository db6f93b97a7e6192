package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
)

// ssmMaxBatchSize is the maximum number of parameters that can be retrieved
// in a single SSM GetParameters API call. This is an AWS service limit.
const ssmMaxBatchSize = 10

// ssmMaxConcurrentBatches bounds the number of in-flight GetParameters calls.
const ssmMaxConcurrentBatches = 4

// ssmClient is the subset of the SSM SDK client used by SSMProvider.
// This interface enables testing with a mock client.
type ssmClient interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMProvider implements SecretProvider by resolving values from AWS Systems
// Manager (SSM) Parameter Store. It is the provider for deployed environments
// (dev, staging, prod) where job parameters are stored under a per-environment
// path prefix.
//
// It performs batch GetParameters calls with decryption, respecting the
// SSM API limit of 10 parameters per request. Batches run concurrently and
// every call passes through a circuit breaker so a throttled Parameter Store
// fails the load quickly instead of stalling job start-up.
type SSMProvider struct {
	// region is the AWS region where SSM parameters are stored.
	region string

	// client is the SSM API client. If nil, a new client is created
	// lazily using the configured region.
	client ssmClient

	breaker *gobreaker.CircuitBreaker[*ssm.GetParametersOutput]
	logger  *slog.Logger

	mu sync.Mutex
}

// NewSSMProvider creates a new SSMProvider configured for the specified
// AWS region.
func NewSSMProvider(region string, logger *slog.Logger) *SSMProvider {
	return newSSMProviderWithClient(region, nil, logger)
}

// newSSMProviderWithClient creates a new SSMProvider with an injected SSM client.
// This constructor is used for testing with a mock client.
func newSSMProviderWithClient(region string, client ssmClient, logger *slog.Logger) *SSMProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSMProvider{
		region: region,
		client: client,
		logger: logger,
		breaker: gobreaker.NewCircuitBreaker[*ssm.GetParametersOutput](gobreaker.Settings{
			Name:        "ssm-get-parameters",
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
		}),
	}
}

// ensureClient initializes the SSM client if it has not been created yet.
// Uses the AWS SDK default config loader with the configured region.
func (p *SSMProvider) ensureClient(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(p.region),
	)
	if err != nil {
		return fmt.Errorf("loading AWS config for SSM (region=%s): %w", p.region, err)
	}

	p.client = ssm.NewFromConfig(cfg)
	return nil
}

// GetParametersBatch retrieves multiple values from AWS SSM Parameter Store
// in batches. The keys slice contains SSM parameter paths to resolve.
//
// Implementation details:
//   - Batches keys into groups of 10 (SSM API limit)
//   - Runs up to ssmMaxConcurrentBatches GetParameters calls at once
//   - Calls ssm.GetParameters with WithDecryption for each batch
//   - Returns a map of parameter path -> decrypted plaintext value
//   - Parameters SSM reports as invalid (not found) are omitted
func (p *SSMProvider) GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return make(map[string]string), nil
	}

	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		result  = make(map[string]string, len(keys))
		invalid []string
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ssmMaxConcurrentBatches)

	for i := 0; i < len(keys); i += ssmMaxBatchSize {
		end := i + ssmMaxBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		start, batch := i, keys[i:end]

		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return fmt.Errorf("context cancelled during SSM parameter retrieval: %w", err)
			}

			output, err := p.breaker.Execute(func() (*ssm.GetParametersOutput, error) {
				return p.client.GetParameters(gCtx, &ssm.GetParametersInput{
					Names:          batch,
					WithDecryption: aws.Bool(true),
				})
			})
			if err != nil {
				return fmt.Errorf("SSM GetParameters failed (batch %d-%d of %d): %w",
					start, end-1, len(keys), err)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, param := range output.Parameters {
				if param.Name != nil && param.Value != nil {
					result[*param.Name] = *param.Value
				}
			}
			invalid = append(invalid, output.InvalidParameters...)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(invalid) > 0 {
		p.logger.Debug("SSM parameters not found",
			"region", p.region,
			"parameters", strings.Join(invalid, ","),
		)
	}

	return result, nil
}

// LoadSSMSource reads prefix+key for every key through provider and returns
// the values keyed by the plain key. Parameters that do not exist are left
// out of the source.
func LoadSSMSource(ctx context.Context, provider SecretProvider, prefix string, keys []string) (MapSource, error) {
	if provider == nil {
		return nil, &ConfigError{
			Type:    ErrSSMResolution,
			Message: "SecretProvider is required to load the SSM layer",
		}
	}

	paths := make([]string, 0, len(keys))
	pathToKey := make(map[string]string, len(keys))
	for _, key := range keys {
		path := prefix + key
		paths = append(paths, path)
		pathToKey[path] = key
	}

	resolved, err := provider.GetParametersBatch(ctx, paths)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("failed to resolve %d SSM parameters under %s", len(paths), prefix),
			Err:     err,
		}
	}

	out := make(MapSource, len(resolved))
	for path, value := range resolved {
		if key, ok := pathToKey[path]; ok {
			out[key] = value
		}
	}
	return out, nil
}
