package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/chatlist/fanout/internal/export"
	"github.com/chatlist/fanout/internal/store"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (a *app) resultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Browse and export saved results",
	}

	cmd.AddCommand(
		a.resultsListCmd(),
		a.resultsSearchCmd(),
		a.resultsDeleteCmd(),
		a.resultsExportCmd(),
	)

	return cmd
}

func printResults(cmd *cobra.Command, results []store.Result) {
	printTable(cmd.OutOrStdout(), []string{"ID", "Date", "Model", "Prompt", "Response"},
		lo.Map(results, func(r store.Result, _ int) []string {
			return []string{strconv.FormatInt(r.Id, 10), r.CreatedAt.Format("2006-01-02 15:04"), r.ModelName, ellipsize(r.Prompt), ellipsize(r.Response)}
		}))
}

// selectResults returns the results of one prompt, those matching a query,
// or all of them.
func (a *app) selectResults(cmd *cobra.Command, promptId int64, query string) ([]store.Result, error) {
	db, err := a.db(cmd.Context())
	if err != nil {
		return nil, err
	}

	switch {
	case cmd.Flags().Changed("prompt"):
		return db.ResultsByPrompt(cmd.Context(), promptId)
	case query != "":
		return db.SearchResults(cmd.Context(), query)
	default:
		return db.Results(cmd.Context())
	}
}

func (a *app) resultsListCmd() *cobra.Command {
	var promptId int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved results, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			results, err := a.selectResults(cmd, promptId, "")
			if err != nil {
				return err
			}

			printResults(cmd, results)

			return nil
		},
	}

	cmd.Flags().Int64Var(&promptId, "prompt", 0, "only list results of this prompt")

	return cmd
}

func (a *app) resultsSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>",
		Short: "Search results by response, prompt or model name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := a.selectResults(cmd, 0, args[0])
			if err != nil {
				return err
			}

			printResults(cmd, results)

			return nil
		},
	}
}

func (a *app) resultsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved result",
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

			if err := db.DeleteResult(cmd.Context(), id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted result #%d\n", id)

			return nil
		},
	}
}

func (a *app) resultsExportCmd() *cobra.Command {
	var (
		out      string
		format   string
		promptId int64
		query    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export results as markdown, json, jsonl or xlsx",
		Long: `Export results as markdown, json, jsonl or xlsx.

The destination is a file path, relative to export.dir, or a gs://bucket/object
Cloud Storage URL. The format is inferred from the extension unless --format is
given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f export.Format

			if format != "" {
				parsed, err := export.ParseFormat(format)
				if err != nil {
					return err
				}

				f = parsed
			}

			results, err := a.selectResults(cmd, promptId, query)
			if err != nil {
				return err
			}

			dest := out

			if d, err := export.ParseDestination(out); err == nil && !d.Remote() && !filepath.IsAbs(out) {
				dest = filepath.Join(a.cfg.Export.Dir, out)
			}

			written, err := export.ToDestination(cmd.Context(), dest, f, export.Records(results))
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d results to %s\n", len(results), written)

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "destination file or gs:// URL")
	cmd.Flags().StringVar(&format, "format", "", "markdown, json, jsonl or xlsx")
	cmd.Flags().Int64Var(&promptId, "prompt", 0, "only export results of this prompt")
	cmd.Flags().StringVar(&query, "query", "", "only export results matching this text")

	_ = cmd.MarkFlagRequired("out")

	return cmd
}
