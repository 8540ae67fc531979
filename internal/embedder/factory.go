package embedder

import (
	"fmt"
	"strings"
)

// Config selects and tunes a provider
type Config struct {
	Provider   string
	Model      string
	APIKey     string
	Endpoint   string // Azure resource endpoint
	Deployment string // Azure deployment name
	APIVersion string // Azure API version
	BaseURL    string // OpenAI compatible endpoint override

	CacheSize         int // 0 uses the default, negative disables the cache
	BatchSize         int
	RequestsPerSecond float64 // 0 disables throttling
	Burst             int
}

// New creates a client for the configured provider
func New(cfg Config) (*Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY not set", ErrNoProviderEnabled)
		}
		return newClient(newOpenAIBackend(cfg.APIKey, cfg.Model, cfg.BaseURL), cfg), nil
	case ProviderAzure:
		if cfg.APIKey == "" || cfg.Endpoint == "" || cfg.Deployment == "" {
			return nil, fmt.Errorf("%w: azure needs AZURE_OPENAI_API_KEY, AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_DEPLOYMENT", ErrNoProviderEnabled)
		}
		return newClient(newAzureBackend(cfg.APIKey, cfg.Endpoint, cfg.Deployment, cfg.APIVersion), cfg), nil
	case ProviderLocal, "":
		return newClient(localBackend{}, cfg), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider implied by the environment read
// through getenv.
func DetectProvider(getenv func(string) string) string {
	if p := getenv("IBCRAG_EMBEDDING_PROVIDER"); p != "" {
		return strings.ToLower(p)
	}
	if getenv("AZURE_OPENAI_API_KEY") != "" {
		return ProviderAzure
	}
	if getenv("OPENAI_API_KEY") != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
