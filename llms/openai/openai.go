package openai

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/openai/openai-go"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

type Variant int

const (
	// VariantGeneric is any chat-completions compatible endpoint with a
	// built-in default model.
	VariantGeneric Variant = iota
	// VariantGateway is a multi-model routing endpoint. It has no default
	// model and attaches static metadata headers to every request.
	VariantGateway
)

// Temperature is the sampling temperature sent with every request.
const Temperature = 0.7

const contentPath = "choices.0.message.content"

var (
	ErrEmptyPrompt       = errors.New("prompt cannot be empty")
	ErrModelRequired     = errors.New("a model identifier must be supplied for this endpoint")
	ErrMalformedResponse = errors.New("malformed response")
)

// Adapter translates a prompt into a chat-completions request body and the
// provider reply back into plain text.
//
// Every supported provider family speaks the same JSON shape, so variants only
// differ in their default model, in whether the caller must supply the model
// identifier, and in extra static headers.
type Adapter struct {
	Variant      Variant
	DefaultModel string
	RequireModel bool
	Headers      map[string]string
}

// Generic creates an adapter for a chat-completions compatible endpoint that
// falls back to `defaultModel` when no override is given.
func Generic(defaultModel string) Adapter {
	return Adapter{
		Variant:      VariantGeneric,
		DefaultModel: defaultModel,
	}
}

// Model returns the model identifier that will be sent on the wire.
func (a Adapter) Model(override *string) (string, error) {
	if override != nil && strings.TrimSpace(*override) != "" {
		return strings.TrimSpace(*override), nil
	}

	if a.RequireModel || a.DefaultModel == "" {
		return "", ErrModelRequired
	}

	return a.DefaultModel, nil
}

// Body builds the JSON request body for a single user prompt.
//
// Example output:
//
//	{"messages":[{"content":"How are you?","role":"user"}],"model":"gpt-4","temperature":0.7}
func (a Adapter) Body(prompt string, model *string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	name, err := a.Model(model)
	if err != nil {
		return nil, err
	}

	cfg := openai.ChatCompletionNewParams{
		Model: name,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(Temperature),
	}

	body, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode request body")
	}

	return body, nil
}

// Header builds the request headers carrying the bearer credential.
func (a Adapter) Header(credential string) http.Header {
	h := http.Header{}

	h.Set("Content-Type", "application/json")
	h.Set("Authorization", "Bearer "+credential)

	for _, key := range lo.Keys(a.Headers) {
		if a.Headers[key] != "" {
			h.Set(key, a.Headers[key])
		}
	}

	return h
}

// Extract reads the generated text at `choices[0].message.content`.
func (a Adapter) Extract(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", errors.Wrap(ErrMalformedResponse, "response is not valid JSON")
	}

	content := gjson.GetBytes(body, contentPath)

	switch {
	case !content.Exists():
		return "", errors.Wrapf(ErrMalformedResponse, "missing %s", contentPath)
	case content.Type != gjson.String:
		return "", errors.Wrapf(ErrMalformedResponse, "%s is not a string", contentPath)
	}

	return content.String(), nil
}

func (a Adapter) IsGateway() bool {
	return a.Variant == VariantGateway
}
