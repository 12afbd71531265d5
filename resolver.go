package fanout

import (
	"os"
	"strings"

	"github.com/chatlist/fanout/llms/openai"
	"github.com/chatlist/fanout/llms/openrouter"
	"github.com/sirupsen/logrus"
)

const genericProvider = "generic"

// Provider associates a marker, matched against endpoint URLs and model
// names, with the adapter to use for matching configurations.
type Provider struct {
	Marker  string
	Adapter openai.Adapter
}

// DefaultProviders are the named providers, in matching order.
var DefaultProviders = []Provider{
	{Marker: "openai", Adapter: openai.Generic("gpt-4")},
	{Marker: "deepseek", Adapter: openai.Generic("deepseek-chat")},
	{Marker: "groq", Adapter: openai.Generic("llama-3.1-70b-versatile")},
}

// Resolver picks the adapter and credential for a model configuration.
type Resolver struct {
	gateway   openai.Adapter
	providers []Provider
	fallback  openai.Adapter
	lookupEnv func(string) (string, bool)
	logger    *logrus.Entry
}

func NewResolver() Resolver {
	return Resolver{
		gateway:   openrouter.New(),
		providers: DefaultProviders,
		fallback:  openai.Generic("gpt-4"),
		lookupEnv: os.LookupEnv,
		logger:    discardLogger(),
	}
}

// Classify returns the provider name and adapter for a configuration.
//
// Markers are matched case-insensitively against the URL first, then the
// display name. The gateway marker takes precedence over every named provider.
func (r Resolver) Classify(cfg ModelConfig) (string, openai.Adapter) {
	if cfg.ViaGateway() {
		return openrouter.Marker, r.gateway
	}

	for _, p := range r.providers {
		if containsFold(cfg.Url, p.Marker) || containsFold(cfg.Name, p.Marker) {
			return p.Marker, p.Adapter
		}
	}

	return genericProvider, r.fallback
}

// Resolve builds the client for one model configuration.
//
// It never performs any I/O besides reading the environment, and returns a
// KindConfiguration error instead of a client when the endpoint, credential
// reference or credential is missing. The credential is read fresh on every
// call.
func (r Resolver) Resolve(cfg ModelConfig) (*Client, error) {
	provider, adapter := r.Classify(cfg)

	url := strings.TrimSpace(cfg.Url)
	ref := strings.TrimSpace(cfg.CredentialRef)

	if url == "" || ref == "" {
		return nil, newError(KindConfiguration, nil, "API URL or API id is not set for model '%s'", cfg.Name)
	}

	client := Client{
		Provider: provider,
		Endpoint: url,
		Adapter:  adapter,
	}

	envName := ref

	if adapter.IsGateway() {
		envName = openrouter.CredentialEnv
		client.Model = &ref

		for _, warning := range cfg.Warnings() {
			r.logger.Warn(warning)
		}
	}

	credential, ok := r.lookupEnv(envName)
	if !ok || strings.TrimSpace(credential) == "" {
		return nil, newError(KindConfiguration, nil, "API key %s is not set in the environment", envName)
	}

	client.credential = strings.TrimSpace(credential)

	return &client, nil
}
