package fanout

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/chatlist/fanout/llms/openrouter"
	"github.com/cockroachdb/errors"
)

var envNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// ModelConfig describes one reachable model endpoint.
//
// CredentialRef usually names the environment variable holding the bearer
// token. For configurations routed through the gateway it is the model
// identifier sent on the wire instead, and the credential always comes from
// `OPENROUTER_API_KEY`.
type ModelConfig struct {
	Id            int64  `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Name          string `json:"name" yaml:"name" mapstructure:"name" jsonschema_description:"Display name, unique across models"`
	Url           string `json:"api_url" yaml:"api_url" mapstructure:"api_url" jsonschema_description:"Full chat-completions endpoint URL"`
	CredentialRef string `json:"api_id" yaml:"api_id" mapstructure:"api_id" jsonschema_description:"Environment variable holding the API key, or the model identifier for gateway endpoints"`
	Active        bool   `json:"is_active" yaml:"is_active" mapstructure:"is_active" jsonschema_description:"Whether the model receives dispatched prompts"`
}

// Validate checks the fields required to ever reach the endpoint.
func (m ModelConfig) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("model name cannot be empty")
	}

	url := strings.TrimSpace(m.Url)

	if url == "" {
		return errors.New("API URL cannot be empty")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return errors.Newf("API URL must start with http:// or https:// (got '%s')", url)
	}

	if strings.TrimSpace(m.CredentialRef) == "" {
		return errors.New("API id (environment variable name) cannot be empty")
	}

	return nil
}

// ViaGateway reports whether the configuration is routed through the gateway
// provider.
func (m ModelConfig) ViaGateway() bool {
	return containsFold(m.Url, openrouter.Marker) || containsFold(m.Name, openrouter.Marker)
}

// Warnings lists valid but suspicious settings.
//
// A gateway configuration whose credential reference looks like an
// environment variable name is almost always a mistake, since the field is
// sent as the model identifier.
func (m ModelConfig) Warnings() []string {
	var warnings []string

	if m.ViaGateway() && envNamePattern.MatchString(strings.TrimSpace(m.CredentialRef)) {
		warnings = append(warnings, fmt.Sprintf(
			"model '%s' is routed through %s: api_id '%s' will be sent as the model identifier, the key is read from %s",
			m.Name, openrouter.Marker, m.CredentialRef, openrouter.CredentialEnv))
	}

	return warnings
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
