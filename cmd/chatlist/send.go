package main

import (
	"fmt"
	"strings"

	"github.com/chatlist/fanout"
	"github.com/chatlist/fanout/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/common/expfmt"
	"github.com/samber/lo"
	"github.com/simonfrey/jsonl"
	"github.com/spf13/cobra"
)

func (a *app) sendCmd() *cobra.Command {
	var (
		save    bool
		tags    string
		asJsonl bool
		metrics bool
		only    []string
	)

	cmd := &cobra.Command{
		Use:   "send <prompt>",
		Short: "Send a prompt to every active model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prompt := strings.Join(args, " ")

			db, err := a.db(ctx)
			if err != nil {
				return err
			}

			models, err := db.ActiveModels(ctx)
			if err != nil {
				return err
			}

			if len(only) > 0 {
				models = lo.Filter(models, func(m fanout.ModelConfig, _ int) bool {
					return lo.ContainsBy(only, func(name string) bool { return strings.EqualFold(name, m.Name) })
				})
			}

			if len(models) == 0 {
				return errors.New("no active models, add one with `chatlist models add`")
			}

			outcomes, err := a.dispatcher.Dispatch(ctx, prompt, models)
			if err != nil {
				return err
			}

			outcomes = fanout.SortById(outcomes)
			out := cmd.OutOrStdout()

			if asJsonl {
				w := jsonl.NewWriter(out)

				for _, outcome := range outcomes {
					if err := w.Write(outcome); err != nil {
						return err
					}
				}
			} else {
				for _, outcome := range outcomes {
					printOutcome(out, outcome)
				}
			}

			if save {
				promptId, err := db.CreatePrompt(ctx, prompt, tags)
				if err != nil {
					return err
				}

				saved, err := db.SaveResults(ctx, store.ResultsFromOutcomes(promptId, outcomes))
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "Saved prompt #%d with %d of %d results\n", promptId, saved, len(outcomes))
			}

			if metrics {
				families, err := a.registry.Gather()
				if err != nil {
					return errors.Wrap(err, "could not gather metrics")
				}

				for _, family := range families {
					if _, err := expfmt.MetricFamilyToText(cmd.ErrOrStderr(), family); err != nil {
						return err
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "save the prompt and the successful responses")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags stored with the prompt")
	cmd.Flags().BoolVar(&asJsonl, "jsonl", false, "print one JSON outcome per line")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "print dispatch metrics on stderr")
	cmd.Flags().StringSliceVar(&only, "model", nil, "only send to the named active models")

	return cmd
}
