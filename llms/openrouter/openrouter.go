package openrouter

import (
	"github.com/chatlist/fanout/llms/openai"
	"github.com/fatih/structs"
	"github.com/samber/lo"
)

const (
	// Marker is matched against endpoint URLs and model names to route a
	// configuration through the gateway.
	Marker = "openrouter"
	// CredentialEnv is the only environment variable the gateway credential
	// is ever read from.
	CredentialEnv = "OPENROUTER_API_KEY"

	DefaultReferer = "https://github.com/chatlist/fanout"
	DefaultTitle   = "ChatList"
)

// Metadata is sent as static headers on every gateway request. It does not
// authenticate anything, the gateway uses it for attribution on its
// dashboards.
type Metadata struct {
	Referer string `structs:"HTTP-Referer"`
	Title   string `structs:"X-Title"`
}

type Option func(*Metadata)

func WithReferer(referer string) Option {
	return func(m *Metadata) {
		m.Referer = referer
	}
}

func WithTitle(title string) Option {
	return func(m *Metadata) {
		m.Title = title
	}
}

// New creates the gateway adapter.
//
// The gateway serves many models behind one endpoint, so it has no default
// model: the identifier must be supplied with every request.
func New(opts ...Option) openai.Adapter {
	meta := Metadata{
		Referer: DefaultReferer,
		Title:   DefaultTitle,
	}

	for _, opt := range opts {
		opt(&meta)
	}

	return openai.Adapter{
		Variant:      openai.VariantGateway,
		RequireModel: true,
		Headers: lo.MapValues(structs.Map(meta), func(v any, _ string) string {
			s, _ := v.(string)

			return s
		}),
	}
}
