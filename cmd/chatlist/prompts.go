package main

import (
	"fmt"
	"strconv"

	"github.com/chatlist/fanout/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (a *app) promptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Browse saved prompts and improved versions",
	}

	cmd.AddCommand(
		a.promptsListCmd(),
		a.promptsSearchCmd(),
		a.promptsDeleteCmd(),
		a.promptsVersionsCmd(),
	)

	return cmd
}

func printPrompts(cmd *cobra.Command, prompts []store.Prompt) {
	printTable(cmd.OutOrStdout(), []string{"ID", "Date", "Prompt", "Tags"},
		lo.Map(prompts, func(p store.Prompt, _ int) []string {
			return []string{strconv.FormatInt(p.Id, 10), p.Date.Format("2006-01-02 15:04"), ellipsize(p.Text), p.Tags}
		}))
}

func (a *app) promptsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved prompts, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			prompts, err := db.Prompts(cmd.Context())
			if err != nil {
				return err
			}

			printPrompts(cmd, prompts)

			return nil
		},
	}
}

func (a *app) promptsSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search prompts by text or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			prompts, err := db.SearchPrompts(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			printPrompts(cmd, prompts)

			return nil
		},
	}
}

func (a *app) promptsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a prompt and its saved results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseId(args[0])
			if err != nil {
				return err
			}

			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			if err := db.DeletePrompt(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted prompt #%d\n", id)

			return nil
		},
	}
}

func (a *app) promptsVersionsCmd() *cobra.Command {
	var (
		promptId int64
		remove   int64
	)

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List improved prompt versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, err := a.db(ctx)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("delete") {
				if err := db.DeletePromptVersion(ctx, remove); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Deleted prompt version #%d\n", remove)

				return nil
			}

			var versions []store.PromptVersion

			if cmd.Flags().Changed("prompt") {
				versions, err = db.PromptVersions(ctx, promptId)
			} else {
				versions, err = db.AllPromptVersions(ctx)
			}

			if err != nil {
				return err
			}

			printTable(cmd.OutOrStdout(), []string{"ID", "Date", "Prompt", "Model", "Improved prompt"},
				lo.Map(versions, func(v store.PromptVersion, _ int) []string {
					original := lo.TernaryF(v.OriginalPromptId == nil,
						func() string { return "" },
						func() string { return strconv.FormatInt(*v.OriginalPromptId, 10) })

					return []string{strconv.FormatInt(v.Id, 10), v.CreatedAt.Format("2006-01-02 15:04"), original, v.ModelUsed, ellipsize(v.ImprovedPrompt)}
				}))

			return nil
		},
	}

	cmd.Flags().Int64Var(&promptId, "prompt", 0, "only list versions of this prompt")
	cmd.Flags().Int64Var(&remove, "delete", 0, "delete the version with this id")

	return cmd
}

func parseId(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Newf("invalid id '%s'", s)
	}

	return id, nil
}
