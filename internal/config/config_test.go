package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvUpstreamURL, EnvUpstreamToken, EnvUpstreamTokenSecret, EnvProxyURL, EnvLogLevel} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.False(t, Exists())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.Upstream.URL = "https://api.example.com/perf"
	cfg.Upstream.Token = "secret-token"
	cfg.Dashboard.MaxReloads = 7
	cfg.Server.AllowOrigins = []string{"https://dash.example.com"}

	require.NoError(t, Save(cfg))
	assert.True(t, Exists())

	got, err := Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	info, err := os.Stat(ConfigPath())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[upstream\nurl = "), 0o600))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvUpstreamURL, "https://env.example.com")
	t.Setenv(EnvProxyURL, "http://proxy.local:9000")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvUpstreamTokenSecret, "arn:aws:secretsmanager:eu-west-1:1:secret:tok")

	cfg := DefaultConfig()
	cfg.Upstream.URL = "https://file.example.com"
	ApplyEnv(&cfg)

	assert.Equal(t, "https://env.example.com", cfg.Upstream.URL)
	assert.Equal(t, "http://proxy.local:9000", cfg.Dashboard.ProxyURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "arn:aws:secretsmanager:eu-west-1:1:secret:tok", cfg.Upstream.TokenSecretARN)
}

func TestGetUpstreamURL(t *testing.T) {
	clearEnv(t)

	_, err := GetUpstreamURL(DefaultConfig())
	assert.ErrorIs(t, err, ErrMissingUpstreamURL)

	cfg := DefaultConfig()
	cfg.Upstream.URL = "https://file.example.com"
	got, err := GetUpstreamURL(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", got)

	t.Setenv(EnvUpstreamURL, "https://env.example.com")
	got, err = GetUpstreamURL(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com", got)
}

type fakeSecrets struct {
	value *string
	err   error
	calls int
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{ARN: in.SecretId, SecretString: f.value}, nil
}

func factory(f *fakeSecrets) func(context.Context) (SecretsAPI, error) {
	return func(context.Context) (SecretsAPI, error) { return f, nil }
}

func TestGetUpstreamTokenOrder(t *testing.T) {
	clearEnv(t)
	fake := &fakeSecrets{value: aws.String("from-secret")}

	cfg := DefaultConfig()
	cfg.Upstream.TokenSecretARN = "arn:tok"

	tok, err := GetUpstreamToken(context.Background(), cfg, factory(fake))
	require.NoError(t, err)
	assert.Equal(t, "from-secret", tok)
	assert.Equal(t, 1, fake.calls)

	cfg.Upstream.Token = "from-file"
	tok, err = GetUpstreamToken(context.Background(), cfg, factory(fake))
	require.NoError(t, err)
	assert.Equal(t, "from-file", tok)

	t.Setenv(EnvUpstreamToken, "from-env")
	tok, err = GetUpstreamToken(context.Background(), cfg, factory(fake))
	require.NoError(t, err)
	assert.Equal(t, "from-env", tok)
	assert.Equal(t, 1, fake.calls, "secret should not be fetched when a token is set")
}

func TestGetUpstreamTokenSingleKeyJSON(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	cfg.Upstream.TokenSecretARN = "arn:tok"

	fake := &fakeSecrets{value: aws.String(`{"token":"abc123"}`)}
	tok, err := GetUpstreamToken(context.Background(), cfg, factory(fake))
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	multi := `{"a":"1","b":"2"}`
	fake = &fakeSecrets{value: aws.String(multi)}
	tok, err = GetUpstreamToken(context.Background(), cfg, factory(fake))
	require.NoError(t, err)
	assert.Equal(t, multi, tok)
}

func TestGetUpstreamTokenMissing(t *testing.T) {
	clearEnv(t)

	_, err := GetUpstreamToken(context.Background(), DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrMissingUpstreamToken)

	cfg := DefaultConfig()
	cfg.Upstream.TokenSecretARN = "arn:tok"
	fake := &fakeSecrets{err: errors.New("access denied")}
	_, err = GetUpstreamToken(context.Background(), cfg, factory(fake))
	assert.ErrorIs(t, err, ErrMissingUpstreamToken)
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout())
	assert.Equal(t, time.Hour, cfg.RefreshInterval())
	assert.Equal(t, 5*time.Minute, cfg.ReplayInterval())
	assert.Equal(t, 10*time.Second, cfg.ReloadDelay())

	cfg.Dashboard.ReplayIntervalSec = 0
	assert.Zero(t, cfg.ReplayInterval())
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "(not set)", MaskToken(""))
	assert.Equal(t, "****", MaskToken("abcd"))
	assert.Equal(t, "****6789", MaskToken("0123456789"))
}
