package fanout

import (
	"context"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultWorkers = 5
	DefaultTimeout = 30 * time.Second
)

// Dispatcher sends prompts to model endpoints and turns every call into an
// Outcome.
//
// A Dispatcher holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	resolver Resolver

	workers   int
	timeout   time.Duration
	transport http.RoundTripper

	logger  *logrus.Entry
	metrics *Metrics
}

// New creates a Dispatcher with the given options.
//
// Example usage:
//
//	dispatcher := fanout.New(
//		fanout.WithLogger(logrus.NewEntry(logger)),
//		fanout.WithTimeout(30*time.Second),
//	)
func New(opts ...Option) *Dispatcher {
	d := Dispatcher{
		resolver: NewResolver(),
		workers:  DefaultWorkers,
		timeout:  DefaultTimeout,
		logger:   discardLogger(),
	}

	for _, opt := range opts {
		opt(&d)
	}

	if d.workers <= 0 {
		d.workers = DefaultWorkers
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}

	d.resolver.logger = d.logger

	return &d
}

func (d *Dispatcher) Resolver() Resolver {
	return d.resolver
}

func (d *Dispatcher) Workers() int {
	return d.workers
}

func (d *Dispatcher) Timeout() time.Duration {
	return d.timeout
}

// Send runs the prompt against a single model.
//
// It never fails as a whole: every error is recorded on the returned Outcome.
func (d *Dispatcher) Send(ctx context.Context, prompt string, model ModelConfig) Outcome {
	return d.send(ctx, d.logger, prompt, model)
}

func (d *Dispatcher) send(ctx context.Context, logger *logrus.Entry, prompt string, model ModelConfig) (outcome Outcome) {
	started := time.Now()

	provider, _ := d.resolver.Classify(model)
	outcome = Outcome{ModelId: model.Id, ModelName: model.Name, Provider: provider}
	logger = logger.WithFields(logrus.Fields{"model": model.Name, "provider": provider})

	defer func() {
		if r := recover(); r != nil {
			logger.WithField("stack", string(debug.Stack())).Error("panic while sending prompt")
			outcome = failed(outcome, newError(KindInternal, nil, "unexpected error: %v", r))
		}

		outcome.Duration = time.Since(started)
		d.metrics.observe(outcome)

		if outcome.Ok() {
			logger.WithField("response_length", len([]rune(*outcome.Response))).Info("received response")
		} else {
			logger.WithFields(logrus.Fields{"error": *outcome.Error, "kind": outcome.Kind.String()}).Error("request failed")
		}
	}()

	client, err := d.resolver.Resolve(model)
	if err != nil {
		return failed(outcome, newError(KindConfiguration, err, "could not construct client: %s", err.Error()))
	}

	budget := d.budget(ctx)

	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	logger.WithField("url", client.Endpoint).Info("sending request")

	text, err := client.Do(ctx, d.httpClient(budget), prompt)
	if err != nil {
		return failed(outcome, err)
	}

	return succeeded(outcome, text)
}

// budget is the time a call may take: the per-call timeout, or less when the
// caller's deadline comes first.
func (d *Dispatcher) budget(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return d.timeout
	}

	remaining := time.Until(deadline).Round(time.Millisecond)

	if remaining >= d.timeout {
		return d.timeout
	}

	return max(remaining, time.Millisecond)
}

// httpClient creates the client owned by a single task. The transport, and
// its connection pool, is shared.
func (d *Dispatcher) httpClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: d.transport,
		Timeout:   timeout,
	}
}

func discardLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return logrus.NewEntry(l)
}
