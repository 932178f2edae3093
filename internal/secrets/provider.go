package secrets

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// SecretSource defines where secrets are loaded from
type SecretSource string

const (
	// SourceEnvironment loads secrets from environment variables
	SourceEnvironment SecretSource = "environment"
	// SourceVault loads secrets from Azure Key Vault
	SourceVault SecretSource = "vault"
	// SourceAuto uses vault in staging/production, environment elsewhere
	SourceAuto SecretSource = "auto"
)

// Getter fetches a named secret from a backing store
type Getter interface {
	GetSecret(ctx context.Context, secretName string) (string, error)
}

// Provider abstracts secret retrieval from different sources
type Provider struct {
	source SecretSource
	vault  Getter
	logger *zap.Logger
}

// ProviderConfig holds configuration for the secrets provider
type ProviderConfig struct {
	Source       SecretSource
	VaultName    string
	Environment  string
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ResolveSource turns "auto" into a concrete source for the environment
func ResolveSource(source SecretSource, environment string) SecretSource {
	if source != SourceAuto {
		return source
	}
	switch environment {
	case "development", "local", "test", "":
		return SourceEnvironment
	default:
		return SourceVault
	}
}

// NewProvider creates a new secrets provider, connecting to Key Vault when the
// resolved source is vault
func NewProvider(cfg *ProviderConfig, logger *zap.Logger) (*Provider, error) {
	source := ResolveSource(cfg.Source, cfg.Environment)

	var vault Getter
	if source == SourceVault {
		if cfg.VaultName == "" {
			return nil, fmt.Errorf("vault name required when using vault secret source")
		}
		vc, err := NewVaultClient(&VaultConfig{
			VaultName:    cfg.VaultName,
			CacheEnabled: cfg.CacheEnabled,
			CacheTTL:     cfg.CacheTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize vault client: %w", err)
		}
		vault = vc
	}

	logger.Info("Secrets provider initialized",
		zap.String("source", string(source)),
		zap.String("environment", cfg.Environment),
	)
	return NewProviderWithGetter(source, vault, logger), nil
}

// NewProviderWithGetter builds a provider around an existing vault getter
func NewProviderWithGetter(source SecretSource, vault Getter, logger *zap.Logger) *Provider {
	return &Provider{source: source, vault: vault, logger: logger}
}

// GetSecret retrieves a secret by name. For the environment source the name is
// the environment variable name.
func (p *Provider) GetSecret(ctx context.Context, secretName string) (string, error) {
	switch p.source {
	case SourceEnvironment:
		value := os.Getenv(secretName)
		if value == "" {
			return "", fmt.Errorf("environment variable '%s' not set", secretName)
		}
		return value, nil
	case SourceVault:
		if p.vault == nil {
			return "", fmt.Errorf("vault client not initialized")
		}
		return p.vault.GetSecret(ctx, secretName)
	default:
		return "", fmt.Errorf("unknown secret source: %s", p.source)
	}
}

// GetSecretOrEnv prefers an explicitly set environment variable, then the
// configured source
func (p *Provider) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if envValue := os.Getenv(envName); envValue != "" {
		p.logger.Debug("Using environment variable override", zap.String("env_name", envName))
		return envValue, nil
	}
	return p.GetSecret(ctx, secretName)
}

// Source returns the current secret source
func (p *Provider) Source() SecretSource {
	return p.source
}

// IsVaultEnabled returns true if secrets are loaded from vault
func (p *Provider) IsVaultEnabled() bool {
	return p.source == SourceVault
}
