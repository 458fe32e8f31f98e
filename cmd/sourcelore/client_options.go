package main

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/sourcelore/sourcelore"
	"github.com/sourcelore/sourcelore/domain/search"
	"github.com/sourcelore/sourcelore/infrastructure/provider"
	"github.com/sourcelore/sourcelore/internal/config"
)

// clientOptions returns the sourcelore.Option slice derived from the shared parts
// of AppConfig: database storage, embedding provider, and text provider.
// Callers append entrypoint-specific options (API keys, worker count, etc.)
// before passing the full slice to sourcelore.New.
func clientOptions(cfg config.AppConfig) ([]sourcelore.Option, error) {
	var opts []sourcelore.Option

	opts = append(opts, storageOptions(cfg)...)
	opts = append(opts, sourcelore.WithGitProvider(cfg.Git().Provider()))

	embOpts, err := embeddingOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("embedding config: %w", err)
	}
	opts = append(opts, embOpts...)

	txtOpts, err := textOptions(cfg)
	if err != nil {
		return nil, fmt.Errorf("text config: %w", err)
	}
	opts = append(opts, txtOpts...)

	return opts, nil
}

// storageOptions returns the sourcelore.Option for the configured database backend.
func storageOptions(cfg config.AppConfig) []sourcelore.Option {
	dbURL := cfg.DBURL()

	if dbURL != "" && !isSQLite(dbURL) {
		return []sourcelore.Option{sourcelore.WithPostgresVectorchord(dbURL)}
	}

	dbPath := cfg.DataDir() + "/sourcelore.db"
	if dbURL != "" && isSQLite(dbURL) {
		dbPath = strings.TrimPrefix(dbURL, "sqlite:///")
		if dbPath == dbURL {
			dbPath = strings.TrimPrefix(dbURL, "sqlite:")
		}
	}

	return []sourcelore.Option{sourcelore.WithSQLite(dbPath)}
}

// embeddingOptions returns a sourcelore.Option for the embedding provider when the
// embedding endpoint is fully configured, or an empty slice otherwise.
func embeddingOptions(cfg config.AppConfig) ([]sourcelore.Option, error) {
	endpoint := cfg.EmbeddingEndpoint()
	if endpoint == nil || endpoint.BaseURL() == "" || endpoint.APIKey() == "" {
		return nil, nil
	}

	openaiCfg := provider.OpenAIConfig{
		APIKey:         endpoint.APIKey(),
		BaseURL:        endpoint.BaseURL(),
		EmbeddingModel: endpoint.Model(),
		Timeout:        endpoint.Timeout(),
		MaxRetries:     endpoint.MaxRetries(),
	}
	if cacheDir := cfg.HTTPCacheDir(); cacheDir != "" {
		transport, err := provider.NewCachingTransport(cacheDir, nil)
		if err != nil {
			return nil, fmt.Errorf("http cache: %w", err)
		}
		openaiCfg.HTTPClient = &http.Client{
			Timeout:   endpoint.Timeout(),
			Transport: transport,
		}
	}
	p := provider.NewOpenAIProviderFromConfig(openaiCfg)

	budget, err := search.NewTokenBudget(endpoint.MaxBatchChars())
	if err != nil {
		return nil, fmt.Errorf("max batch chars: %w", err)
	}

	opts := []sourcelore.Option{
		sourcelore.WithEmbeddingProvider(p),
		sourcelore.WithEmbeddingBudget(budget),
		sourcelore.WithEmbeddingParallelism(endpoint.NumParallelTasks()),
	}

	return opts, nil
}

// textOptions returns a sourcelore.Option for the text generation provider when the
// enrichment endpoint is fully configured, or an empty slice otherwise.
func textOptions(cfg config.AppConfig) ([]sourcelore.Option, error) {
	endpoint := cfg.EnrichmentEndpoint()
	if endpoint == nil || endpoint.BaseURL() == "" || endpoint.APIKey() == "" {
		return nil, nil
	}

	txtCfg := provider.OpenAIConfig{
		APIKey:     endpoint.APIKey(),
		BaseURL:    endpoint.BaseURL(),
		ChatModel:  endpoint.Model(),
		Timeout:    endpoint.Timeout(),
		MaxRetries: endpoint.MaxRetries(),
	}
	if cacheDir := cfg.HTTPCacheDir(); cacheDir != "" {
		transport, err := provider.NewCachingTransport(cacheDir, nil)
		if err != nil {
			return nil, fmt.Errorf("http cache: %w", err)
		}
		txtCfg.HTTPClient = &http.Client{
			Timeout:   endpoint.Timeout(),
			Transport: transport,
		}
	}
	p := provider.NewOpenAIProviderFromConfig(txtCfg)

	budget, err := search.NewTokenBudget(endpoint.MaxBatchChars())
	if err != nil {
		return nil, fmt.Errorf("max batch chars: %w", err)
	}

	opts := []sourcelore.Option{
		sourcelore.WithTextProvider(p),
		sourcelore.WithEnrichmentBudget(budget),
		sourcelore.WithEnrichmentParallelism(endpoint.NumParallelTasks()),
		sourcelore.WithEnricherParallelism(endpoint.NumParallelTasks()),
	}

	return opts, nil
}

// isSQLite checks if the database URL is for SQLite.
func isSQLite(url string) bool {
	return strings.HasPrefix(url, "sqlite:")
}
