package fanout_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chatlist/fanout"
	"github.com/h2non/gock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func slowHandler(delay time.Duration, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completion(content)))
	}
}

func localModel(id int64, url string) fanout.ModelConfig {
	return fanout.ModelConfig{Id: id, Name: fmt.Sprintf("local-%d", id), Url: url, CredentialRef: "LOCAL_KEY", Active: true}
}

func TestDispatchAll(t *testing.T) {
	defer gock.Off()

	mockOpenAI().Reply(http.StatusOK).BodyString(completion("from openai"))
	gock.New("https://api.deepseek.com").Post("/chat/completions").Reply(http.StatusInternalServerError)

	models := []fanout.ModelConfig{
		openaiModel,
		{Id: 2, Name: "DeepSeek", Url: "https://api.deepseek.com/chat/completions", CredentialRef: "DEEPSEEK_API_KEY"},
		{Id: 3, Name: "Groq", Url: "https://api.groq.com/openai/v1/chat/completions", CredentialRef: "GROQ_API_KEY"},
	}

	d := fanout.New(fanout.WithLookupEnv(lookup(map[string]string{
		"OPENAI_API_KEY":   "sk-openai",
		"DEEPSEEK_API_KEY": "sk-deepseek",
	})))

	outcomes, err := d.Dispatch(t.Context(), "Hello", models)

	assert.Nil(t, err)
	assert.Len(t, outcomes, 3)
	assert.True(t, gock.IsDone())

	for _, outcome := range outcomes {
		assert.NotEqual(t, outcome.Response == nil, outcome.Error == nil, "exactly one of response or error must be set")
	}

	sorted := fanout.SortById(outcomes)

	assert.Equal(t, []int64{1, 2, 3}, lo.Map(sorted, func(o fanout.Outcome, _ int) int64 { return o.ModelId }))
	assert.Equal(t, "from openai", *sorted[0].Response)
	assert.Equal(t, "server error (code 500), temporarily unavailable", *sorted[1].Error)
	assert.Equal(t, "could not construct client: API key GROQ_API_KEY is not set in the environment", *sorted[2].Error)
	assert.Equal(t, fanout.KindConfiguration, sorted[2].Kind)
}

func TestDispatchEmptyInputs(t *testing.T) {
	d := fanout.New()

	outcomes, err := d.Dispatch(t.Context(), "Hello", nil)

	assert.Nil(t, err)
	assert.NotNil(t, outcomes)
	assert.Empty(t, outcomes)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		outcomes, err = d.Dispatch(t.Context(), prompt, []fanout.ModelConfig{openaiModel})

		assert.ErrorIs(t, err, fanout.ErrEmptyPrompt)
		assert.Nil(t, outcomes)
	}
}

func TestDispatchNoRequestWithoutCredential(t *testing.T) {
	transport := NewMockTransport()

	d := fanout.New(fanout.WithTransport(transport), fanout.WithLookupEnv(lookup(map[string]string{})))
	outcomes, err := d.Dispatch(t.Context(), "Hello", []fanout.ModelConfig{openaiModel, localModel(2, "http://localhost:1")})

	assert.Nil(t, err)
	assert.Len(t, outcomes, 2)

	transport.AssertNotCalled(t, "RoundTrip")

	for _, outcome := range outcomes {
		assert.Contains(t, *outcome.Error, "could not construct client")
	}
}

func TestDispatchTimeout(t *testing.T) {
	srv := httptest.NewServer(slowHandler(2*time.Second, "too late"))
	defer srv.Close()

	d := fanout.New(
		fanout.WithTransport(&http.Transport{}),
		fanout.WithTimeout(100*time.Millisecond),
		fanout.WithLookupEnv(lookup(map[string]string{"LOCAL_KEY": "secret"})))

	started := time.Now()
	outcomes, err := d.Dispatch(t.Context(), "Hello", []fanout.ModelConfig{localModel(1, srv.URL)})
	elapsed := time.Since(started)

	assert.Nil(t, err)
	assert.Len(t, outcomes, 1)
	assert.Less(t, elapsed, 600*time.Millisecond)
	assert.Equal(t, fmt.Sprintf("request to %s timed out after 100ms", srv.URL), *outcomes[0].Error)
	assert.Equal(t, fanout.KindTransport, outcomes[0].Kind)
}

func TestDispatchCallerDeadline(t *testing.T) {
	srv := httptest.NewServer(slowHandler(2*time.Second, "too late"))
	defer srv.Close()

	d := fanout.New(
		fanout.WithTransport(&http.Transport{}),
		fanout.WithTimeout(30*time.Second),
		fanout.WithLookupEnv(lookup(map[string]string{"LOCAL_KEY": "secret"})))

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()

	started := time.Now()
	outcomes, err := d.Dispatch(ctx, "Hello", []fanout.ModelConfig{localModel(1, srv.URL)})
	elapsed := time.Since(started)

	assert.Nil(t, err)
	assert.Len(t, outcomes, 1)
	assert.Less(t, elapsed, 600*time.Millisecond)
	assert.Regexp(t, `^request to `+regexp.QuoteMeta(srv.URL)+` timed out after (9\d|100)ms$`, *outcomes[0].Error)
	assert.Equal(t, fanout.KindTransport, outcomes[0].Kind)
}

func TestDispatchSlowModelsDoNotBlockOthers(t *testing.T) {
	fast := httptest.NewServer(slowHandler(0, "fast"))
	defer fast.Close()

	slow := httptest.NewServer(slowHandler(5*time.Second, "slow"))
	defer slow.Close()

	d := fanout.New(
		fanout.WithTransport(&http.Transport{}),
		fanout.WithTimeout(300*time.Millisecond),
		fanout.WithLookupEnv(lookup(map[string]string{"LOCAL_KEY": "secret"})))

	models := []fanout.ModelConfig{
		localModel(1, slow.URL),
		localModel(2, fast.URL),
		localModel(3, slow.URL),
		localModel(4, fast.URL),
		localModel(5, fast.URL),
	}

	started := time.Now()
	outcomes, err := d.Dispatch(t.Context(), "Hello", models)
	elapsed := time.Since(started)

	assert.Nil(t, err)
	assert.Len(t, outcomes, 5)
	assert.Less(t, elapsed, 2*time.Second)

	succeeded := lo.Filter(outcomes, func(o fanout.Outcome, _ int) bool { return o.Ok() })
	failed := lo.Filter(outcomes, func(o fanout.Outcome, _ int) bool { return !o.Ok() })

	assert.Len(t, succeeded, 3)
	assert.Len(t, failed, 2)
	assert.ElementsMatch(t, []int64{1, 3}, lo.Map(failed, func(o fanout.Outcome, _ int) int64 { return o.ModelId }))

	// Completion order
	assert.True(t, outcomes[0].Ok())
	assert.False(t, outcomes[4].Ok())
}

func TestDispatchWorkerLimit(t *testing.T) {
	var inflight, peak atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inflight.Add(1)
		defer inflight.Add(-1)

		for {
			current := peak.Load()
			if n <= current || peak.CompareAndSwap(current, n) {
				break
			}
		}

		time.Sleep(50 * time.Millisecond)

		_, _ = w.Write([]byte(completion("ok")))
	}))
	defer srv.Close()

	d := fanout.New(
		fanout.WithWorkers(3),
		fanout.WithTransport(&http.Transport{}),
		fanout.WithLookupEnv(lookup(map[string]string{"LOCAL_KEY": "secret"})))

	models := lo.Times(10, func(i int) fanout.ModelConfig {
		return localModel(int64(i), srv.URL)
	})

	outcomes, err := d.Dispatch(t.Context(), "Hello", models)

	assert.Nil(t, err)
	assert.Len(t, outcomes, 10)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Greater(t, peak.Load(), int32(1))
}
