package fanout

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Dispatch sends the same prompt to every model concurrently.
//
// At most `workers` requests are in flight at any time. One Outcome is
// returned for every model, in completion order, whatever happened to the
// request: a failing or slow model never affects the others. Use SortById to
// restore a stable order.
//
// The only error returned is ErrEmptyPrompt.
//
// Example usage:
//
//	outcomes, err := dispatcher.Dispatch(ctx, "How are you?", models)
//
//	for _, outcome := range outcomes {
//		fmt.Println(outcome.ModelName, outcome.Text())
//	}
func (d *Dispatcher) Dispatch(ctx context.Context, prompt string, models []ModelConfig) ([]Outcome, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	if len(models) == 0 {
		return []Outcome{}, nil
	}

	logger := d.logger.WithFields(logrus.Fields{
		"dispatch_id": uuid.NewString(),
		"models":      len(models),
	})

	logger.Info("dispatching prompt")

	var g errgroup.Group

	g.SetLimit(d.workers)

	c := make(chan Outcome, len(models))

	for _, model := range models {
		g.Go(func() error {
			c <- d.send(ctx, logger, prompt, model)

			return nil
		})
	}

	_ = g.Wait()
	close(c)

	outcomes := make([]Outcome, 0, len(models))

	for outcome := range c {
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}
