package fanout

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/chatlist/fanout/llms/openrouter"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestOptions(t *testing.T) {
	d := New()

	assert.Equal(t, DefaultWorkers, d.Workers())
	assert.Equal(t, DefaultTimeout, d.Timeout())
	assert.Nil(t, d.transport)
	assert.Nil(t, d.metrics)

	transport := &http.Transport{}
	d = New(WithWorkers(2), WithTimeout(time.Second), WithTransport(transport))

	assert.Equal(t, 2, d.Workers())
	assert.Equal(t, time.Second, d.Timeout())
	assert.Equal(t, transport, d.transport)
	assert.Equal(t, time.Second, d.httpClient(d.budget(t.Context())).Timeout)
	assert.Equal(t, transport, d.httpClient(time.Second).Transport)
}

func TestBudget(t *testing.T) {
	d := New(WithTimeout(time.Second))

	assert.Equal(t, time.Second, d.budget(t.Context()))

	ctx, cancel := context.WithTimeout(t.Context(), time.Minute)
	defer cancel()

	assert.Equal(t, time.Second, d.budget(ctx))

	ctx, cancel = context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	assert.InDelta(t, 200*time.Millisecond, d.budget(ctx), float64(5*time.Millisecond))

	ctx, cancel = context.WithDeadline(t.Context(), time.Now().Add(-time.Second))
	defer cancel()

	assert.Equal(t, time.Millisecond, d.budget(ctx))
}

func TestOptionsInvalidValues(t *testing.T) {
	d := New(WithWorkers(0), WithTimeout(-time.Second), WithLogger(nil), WithLookupEnv(nil))

	assert.Equal(t, DefaultWorkers, d.Workers())
	assert.Equal(t, DefaultTimeout, d.Timeout())
	assert.NotNil(t, d.logger)
	assert.NotNil(t, d.resolver.lookupEnv)
}

func TestOptionsLoggerIsShared(t *testing.T) {
	logger := logrus.NewEntry(logrus.New())
	d := New(WithLogger(logger))

	assert.Equal(t, logger, d.logger)
	assert.Equal(t, logger, d.Resolver().logger)
}

func TestOptionsProviders(t *testing.T) {
	gateway := openrouter.New(openrouter.WithTitle("Other"))
	d := New(
		WithGateway(gateway),
		WithProviders(Provider{Marker: "mistral", Adapter: DefaultProviders[0].Adapter}))

	provider, adapter := d.Resolver().Classify(ModelConfig{Name: "Mistral large", Url: "https://api.mistral.ai/v1"})

	assert.Equal(t, "mistral", provider)
	assert.Equal(t, "gpt-4", adapter.DefaultModel)

	provider, _ = d.Resolver().Classify(ModelConfig{Name: "Chat", Url: "https://api.deepseek.com"})

	assert.Equal(t, genericProvider, provider)

	_, adapter = d.Resolver().Classify(ModelConfig{Url: "https://openrouter.ai/api/v1"})

	assert.Equal(t, "Other", adapter.Headers["X-Title"])
}
