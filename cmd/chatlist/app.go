package main

import (
	"context"
	"io"

	"github.com/chatlist/fanout"
	"github.com/chatlist/fanout/internal/config"
	"github.com/chatlist/fanout/internal/logging"
	"github.com/chatlist/fanout/internal/store"
	"github.com/chatlist/fanout/llms/openrouter"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	envFiles   []string

	cfg       config.Config
	logger    *logrus.Logger
	logCloser io.Closer
	registry  *prometheus.Registry

	dispatcher *fanout.Dispatcher
	store      *store.Store
}

// execute runs one command line. The store and the log file are released
// whether the command succeeds or not.
func execute(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) error {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)

	return errors.CombineErrors(err, a.shutdown())
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chatlist",
		Short: "Send one prompt to several language models and compare their answers",
		Long: `chatlist sends the same prompt to every active model concurrently and
prints one answer, or one error, per model.

Models are OpenAI-compatible chat-completions endpoints. Their API key is read
from the environment variable named by the model api_id, or from
OPENROUTER_API_KEY for models routed through OpenRouter, in which case api_id is
the model identifier.

Examples:
  chatlist models add --name GPT-4 --url https://api.openai.com/v1/chat/completions --api-id OPENAI_API_KEY
  chatlist send "Explain goroutines in two sentences" --save --tags go
  chatlist improve "write a poem" --model GPT-4
  chatlist results export --out results.xlsx`,
		SilenceUsage:       true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file (default: ./chatlist.yaml or ~/.config/chatlist/chatlist.yaml)")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", []string{".env"}, "dotenv files holding API keys")

	root.AddCommand(
		a.sendCmd(),
		a.improveCmd(),
		a.modelsCmd(),
		a.promptsCmd(),
		a.resultsCmd(),
		a.settingsCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnv(a.envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer
	a.registry = prometheus.NewRegistry()

	opts := []fanout.Option{
		fanout.WithLogger(logrus.NewEntry(logger)),
		fanout.WithWorkers(cfg.Dispatch.Workers),
		fanout.WithTimeout(cfg.Dispatch.Timeout),
		fanout.WithMetrics(fanout.NewMetrics(a.registry)),
	}

	if cfg.Gateway.Referer != "" || cfg.Gateway.Title != "" {
		var gatewayOpts []openrouter.Option

		if cfg.Gateway.Referer != "" {
			gatewayOpts = append(gatewayOpts, openrouter.WithReferer(cfg.Gateway.Referer))
		}
		if cfg.Gateway.Title != "" {
			gatewayOpts = append(gatewayOpts, openrouter.WithTitle(cfg.Gateway.Title))
		}

		opts = append(opts, fanout.WithGateway(openrouter.New(gatewayOpts...)))
	}

	a.dispatcher = fanout.New(opts...)

	return nil
}

func (a *app) shutdown() error {
	var err error

	if a.store != nil {
		err = errors.CombineErrors(err, a.store.Close())
		a.store = nil
	}
	if a.logCloser != nil {
		err = errors.CombineErrors(err, a.logCloser.Close())
		a.logCloser = nil
	}

	return err
}

// db opens and migrates the store on first use.
func (a *app) db(ctx context.Context) (*store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	s, err := store.Open(ctx, a.cfg.Database.Dsn)
	if err != nil {
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()

		return nil, err
	}

	a.store = s

	return s, nil
}
