package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chatlist/fanout"
	"github.com/chatlist/fanout/internal/store"
	"github.com/spf13/cobra"
)

func (a *app) improveCmd() *cobra.Command {
	var (
		model    string
		save     bool
		promptId int64
	)

	cmd := &cobra.Command{
		Use:   "improve <prompt>",
		Short: "Ask one model to rewrite a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := a.db(ctx)
			if err != nil {
				return err
			}

			m, err := findModel(ctx, db, model)
			if err != nil {
				return err
			}

			improved, err := a.dispatcher.Improve(ctx, strings.Join(args, " "), m)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), improved)

			if save {
				var original *int64

				if cmd.Flags().Changed("prompt-id") {
					original = &promptId
				}

				id, err := db.CreatePromptVersion(ctx, original, improved, m.Name)
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.ErrOrStderr(), "Saved prompt version #%d\n", id)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "id or name of the model used to improve the prompt")
	cmd.Flags().BoolVar(&save, "save", false, "save the improved prompt as a prompt version")
	cmd.Flags().Int64Var(&promptId, "prompt-id", 0, "saved prompt the improved version derives from")

	_ = cmd.MarkFlagRequired("model")

	return cmd
}

// findModel looks a model up by id, then by name.
func findModel(ctx context.Context, db *store.Store, ref string) (fanout.ModelConfig, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return db.Model(ctx, id)
	}

	return db.ModelByName(ctx, ref)
}
