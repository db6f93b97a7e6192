package config

import "context"

// mockSecretProvider answers GetParametersBatch from a fixed map.
type mockSecretProvider struct {
	values map[string]string
	err    error
}

func (m *mockSecretProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := make(map[string]string)
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

var (
	_ Source         = MapSource{}
	_ Source         = (*Layered)(nil)
	_ Source         = (*EnvSource)(nil)
	_ SecretProvider = (*SSMProvider)(nil)
	_ SecretProvider = (*mockSecretProvider)(nil)
	_ S3Client       = (*liveS3Client)(nil)
)
