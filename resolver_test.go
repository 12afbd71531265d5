package fanout

import (
	"testing"

	"github.com/chatlist/fanout/llms/openrouter"
	"github.com/stretchr/testify/assert"
)

func testResolver(env map[string]string) Resolver {
	r := NewResolver()
	r.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]

		return v, ok
	}

	return r
}

func TestClassify(t *testing.T) {
	r := NewResolver()

	tts := []struct {
		name     string
		cfg      ModelConfig
		provider string
		model    string
	}{
		{"openai by url", ModelConfig{Name: "GPT", Url: "https://api.openai.com/v1/chat/completions"}, "openai", "gpt-4"},
		{"deepseek by url", ModelConfig{Name: "Chat", Url: "https://api.DeepSeek.com/chat/completions"}, "deepseek", "deepseek-chat"},
		{"groq by url", ModelConfig{Name: "Llama", Url: "https://api.groq.com/openai/v1/chat/completions"}, "openai", "gpt-4"},
		{"groq by name", ModelConfig{Name: "Groq Llama", Url: "https://llm.internal/v1/chat/completions"}, "groq", "llama-3.1-70b-versatile"},
		{"deepseek by name", ModelConfig{Name: "DEEPSEEK", Url: "https://proxy.local/v1"}, "deepseek", "deepseek-chat"},
		{"url before name", ModelConfig{Name: "deepseek via openai", Url: "https://api.openai.com/v1"}, "openai", "gpt-4"},
		{"fallback", ModelConfig{Name: "Local", Url: "http://localhost:11434/v1/chat/completions"}, genericProvider, "gpt-4"},
	}

	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			provider, adapter := r.Classify(tt.cfg)

			assert.Equal(t, tt.provider, provider)
			assert.Equal(t, tt.model, adapter.DefaultModel)
			assert.False(t, adapter.IsGateway())
		})
	}
}

func TestClassifyGatewayFirst(t *testing.T) {
	r := NewResolver()

	for _, cfg := range []ModelConfig{
		{Name: "openai gpt-4o", Url: "https://openrouter.ai/api/v1/chat/completions"},
		{Name: "OpenRouter deepseek", Url: "https://api.deepseek.com/chat/completions"},
	} {
		provider, adapter := r.Classify(cfg)

		assert.Equal(t, openrouter.Marker, provider)
		assert.True(t, adapter.IsGateway())
	}
}

func TestResolveNamedProvider(t *testing.T) {
	r := testResolver(map[string]string{"OPENAI_API_KEY": " sk-openai ", openrouter.CredentialEnv: "sk-gateway"})

	client, err := r.Resolve(ModelConfig{Name: "GPT-4", Url: "https://api.openai.com/v1/chat/completions", CredentialRef: "OPENAI_API_KEY"})

	assert.Nil(t, err)
	assert.Equal(t, "openai", client.Provider)
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", client.Endpoint)
	assert.Equal(t, "sk-openai", client.credential)
	assert.Nil(t, client.Model)
}

func TestResolveGateway(t *testing.T) {
	r := testResolver(map[string]string{openrouter.CredentialEnv: "sk-gateway", "meta-llama/llama-3.1-8b-instruct": "unused"})

	client, err := r.Resolve(ModelConfig{
		Name:          "Llama",
		Url:           "https://openrouter.ai/api/v1/chat/completions",
		CredentialRef: "meta-llama/llama-3.1-8b-instruct",
	})

	assert.Nil(t, err)
	assert.Equal(t, openrouter.Marker, client.Provider)
	assert.Equal(t, "sk-gateway", client.credential)
	assert.Equal(t, "meta-llama/llama-3.1-8b-instruct", *client.Model)
	assert.True(t, client.Adapter.IsGateway())
}

func TestResolveGatewayIgnoresOwnCredential(t *testing.T) {
	r := testResolver(map[string]string{"MY_KEY": "sk-mine"})

	client, err := r.Resolve(ModelConfig{Name: "Gateway", Url: "https://openrouter.ai/api/v1/chat/completions", CredentialRef: "MY_KEY"})

	assert.Nil(t, client)
	assert.Equal(t, KindConfiguration, KindOf(err))
	assert.ErrorContains(t, err, openrouter.CredentialEnv)
}

func TestResolveMissingCredential(t *testing.T) {
	r := testResolver(map[string]string{"EMPTY_KEY": "  "})

	tts := []struct {
		name string
		cfg  ModelConfig
		err  string
	}{
		{"unset", ModelConfig{Name: "GPT", Url: "https://api.openai.com/v1", CredentialRef: "UNSET_KEY"}, "UNSET_KEY is not set"},
		{"empty", ModelConfig{Name: "GPT", Url: "https://api.openai.com/v1", CredentialRef: "EMPTY_KEY"}, "EMPTY_KEY is not set"},
		{"no url", ModelConfig{Name: "GPT", CredentialRef: "EMPTY_KEY"}, "API URL or API id is not set"},
		{"no credential ref", ModelConfig{Name: "GPT", Url: "https://api.openai.com/v1"}, "API URL or API id is not set"},
	}

	for _, tt := range tts {
		t.Run(tt.name, func(t *testing.T) {
			client, err := r.Resolve(tt.cfg)

			assert.Nil(t, client)
			assert.ErrorContains(t, err, tt.err)
			assert.Equal(t, KindConfiguration, KindOf(err))
		})
	}
}

func TestResolveReadsEnvironmentEveryTime(t *testing.T) {
	env := map[string]string{}
	r := testResolver(env)
	cfg := ModelConfig{Name: "GPT", Url: "https://api.openai.com/v1", CredentialRef: "ROTATING_KEY"}

	_, err := r.Resolve(cfg)

	assert.NotNil(t, err)

	env["ROTATING_KEY"] = "first"
	client, _ := r.Resolve(cfg)

	assert.Equal(t, "first", client.credential)

	env["ROTATING_KEY"] = "second"
	client, _ = r.Resolve(cfg)

	assert.Equal(t, "second", client.credential)
}

func TestResolveFromProcessEnvironment(t *testing.T) {
	t.Setenv("FANOUT_TEST_KEY", "from-env")

	client, err := NewResolver().Resolve(ModelConfig{Name: "GPT", Url: "https://api.openai.com/v1", CredentialRef: "FANOUT_TEST_KEY"})

	assert.Nil(t, err)
	assert.Equal(t, "from-env", client.credential)
}
