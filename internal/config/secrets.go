package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"go.uber.org/zap"

	"github.com/haledesignstudio/Pollen/internal/logger"
)

// SecretsAPI is the subset of the Secrets Manager client used to resolve
// the upstream token.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// NewSecretsAPI builds a Secrets Manager client from the default AWS
// configuration chain (environment, shared config, IAM role).
func NewSecretsAPI(ctx context.Context) (SecretsAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("config: loading AWS config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

// GetUpstreamToken resolves the upstream bearer token from, in order, the
// environment, the config file and Secrets Manager. newAPI is only called
// when a secret ARN is configured; pass nil to use NewSecretsAPI.
func GetUpstreamToken(ctx context.Context, cfg Config, newAPI func(context.Context) (SecretsAPI, error)) (string, error) {
	if tok := os.Getenv(EnvUpstreamToken); tok != "" {
		return tok, nil
	}
	if cfg.Upstream.Token != "" {
		return cfg.Upstream.Token, nil
	}

	arn := cfg.Upstream.TokenSecretARN
	if v := os.Getenv(EnvUpstreamTokenSecret); v != "" {
		arn = v
	}
	if arn == "" {
		return "", ErrMissingUpstreamToken
	}

	if newAPI == nil {
		newAPI = NewSecretsAPI
	}
	api, err := newAPI(ctx)
	if err != nil {
		return "", err
	}

	secret, err := fetchSecret(ctx, api, arn)
	if err != nil {
		logger.Log.Warn("upstream token secret unavailable",
			zap.String("secretArn", arn),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrMissingUpstreamToken, err)
	}
	return secret, nil
}

// fetchSecret reads a secret string. A secret stored as JSON with a single
// key yields that key's value; anything else is returned as is.
func fetchSecret(ctx context.Context, api SecretsAPI, arn string) (string, error) {
	out, err := api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(arn),
	})
	if err != nil {
		return "", fmt.Errorf("config: fetching secret: %w", err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("config: secret %s is empty", arn)
	}

	raw := *out.SecretString
	var kv map[string]string
	if err := json.Unmarshal([]byte(raw), &kv); err == nil && len(kv) == 1 {
		for key, v := range kv {
			logger.Log.Debug("upstream token read from single-key JSON secret", zap.String("jsonKey", key))
			return v, nil
		}
	}
	return raw, nil
}
