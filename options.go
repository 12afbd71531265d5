package fanout

import (
	"net/http"
	"time"

	"github.com/chatlist/fanout/llms/openai"
	"github.com/sirupsen/logrus"
)

type Option func(*Dispatcher)

// WithWorkers sets how many requests can be in flight at the same time.
func WithWorkers(workers int) Option {
	return func(d *Dispatcher) {
		d.workers = workers
	}
}

// WithTimeout sets the timeout of each individual request.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = timeout
	}
}

// WithTransport sets the round tripper shared by all requests. Defaults to
// http.DefaultTransport.
func WithTransport(transport http.RoundTripper) Option {
	return func(d *Dispatcher) {
		d.transport = transport
	}
}

// WithLogger sets the logger used for request and outcome entries.
func WithLogger(logger *logrus.Entry) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithLookupEnv replaces the function used to read credentials, which
// defaults to os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(d *Dispatcher) {
		if lookup != nil {
			d.resolver.lookupEnv = lookup
		}
	}
}

// WithGateway replaces the adapter used for gateway configurations, for
// example to change the attribution headers.
func WithGateway(gateway openai.Adapter) Option {
	return func(d *Dispatcher) {
		d.resolver.gateway = gateway
	}
}

// WithProviders replaces the named providers matched before falling back to
// the generic adapter.
func WithProviders(providers ...Provider) Option {
	return func(d *Dispatcher) {
		d.resolver.providers = providers
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = metrics
	}
}
