package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/chatlist/fanout"
	"github.com/chatlist/fanout/internal/config"
	"github.com/chatlist/fanout/internal/store"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (a *app) modelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage model endpoints",
	}

	cmd.AddCommand(
		a.modelsListCmd(),
		a.modelsAddCmd(),
		a.modelsUpdateCmd(),
		a.modelsToggleCmd(),
		a.modelsDeleteCmd(),
		a.modelsImportCmd(),
		modelsSchemaCmd(),
	)

	return cmd
}

func (a *app) modelsListCmd() *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			list := db.Models
			if active {
				list = db.ActiveModels
			}

			models, err := list(cmd.Context())
			if err != nil {
				return err
			}

			printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Provider", "URL", "API id", "Active"},
				lo.Map(models, func(m fanout.ModelConfig, _ int) []string {
					provider, _ := a.dispatcher.Resolver().Classify(m)

					return []string{strconv.FormatInt(m.Id, 10), m.Name, provider, ellipsize(m.Url), m.CredentialRef, lo.Ternary(m.Active, "yes", "no")}
				}))

			return nil
		},
	}

	cmd.Flags().BoolVar(&active, "active", false, "only list active models")

	return cmd
}

func modelFlags(cmd *cobra.Command, m *fanout.ModelConfig, inactive *bool) {
	cmd.Flags().StringVar(&m.Name, "name", "", "display name")
	cmd.Flags().StringVar(&m.Url, "url", "", "chat-completions endpoint URL")
	cmd.Flags().StringVar(&m.CredentialRef, "api-id", "", "environment variable holding the API key, or model identifier for OpenRouter")
	cmd.Flags().BoolVar(inactive, "inactive", false, "do not send prompts to this model")
}

func (a *app) modelsAddCmd() *cobra.Command {
	var (
		m        fanout.ModelConfig
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			m.Active = !inactive

			id, err := db.CreateModel(cmd.Context(), m)
			if err != nil {
				return err
			}

			for _, warning := range m.Warnings() {
				printWarning(cmd.ErrOrStderr(), warning)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added model #%d\n", id)

			return nil
		},
	}

	modelFlags(cmd, &m, &inactive)

	return cmd
}

func (a *app) modelsUpdateCmd() *cobra.Command {
	var (
		m        fanout.ModelConfig
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "update <id|name>",
		Short: "Change the fields of a model given as flags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			current, err := findModel(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()

			if flags.Changed("name") {
				current.Name = m.Name
			}
			if flags.Changed("url") {
				current.Url = m.Url
			}
			if flags.Changed("api-id") {
				current.CredentialRef = m.CredentialRef
			}
			if flags.Changed("inactive") {
				current.Active = !inactive
			}

			if err := db.UpdateModel(cmd.Context(), current); err != nil {
				return err
			}

			for _, warning := range current.Warnings() {
				printWarning(cmd.ErrOrStderr(), warning)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated model #%d\n", current.Id)

			return nil
		},
	}

	modelFlags(cmd, &m, &inactive)

	return cmd
}

func (a *app) modelsToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id|name>",
		Short: "Enable or disable a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			m, err := findModel(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}

			active, err := db.ToggleModel(cmd.Context(), m.Id)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Model '%s' is now %s\n", m.Name, lo.Ternary(active, "active", "inactive"))

			return nil
		},
	}
}

func (a *app) modelsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id|name>",
		Short: "Delete a model without saved results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			m, err := findModel(cmd.Context(), db, args[0])
			if err != nil {
				return err
			}

			if err := db.DeleteModel(cmd.Context(), m.Id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted model '%s'\n", m.Name)

			return nil
		},
	}
}

func (a *app) modelsImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Create or update models from a YAML or JSON file",
		Long:  "Create or update models from a YAML or JSON file. Existing models are matched by name. Run `chatlist models schema` for the file format.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := config.ReadModelsFile(args[0])
			if err != nil {
				return err
			}

			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			var created, updated int

			for _, m := range file.Models {
				existing, err := db.ModelByName(cmd.Context(), m.Name)

				switch {
				case err == nil:
					m.Id = existing.Id

					if err := db.UpdateModel(cmd.Context(), m); err != nil {
						return err
					}

					updated++
				case errors.Is(err, store.ErrNotFound):
					if _, err := db.CreateModel(cmd.Context(), m); err != nil {
						return errors.Wrapf(err, "could not import model '%s'", m.Name)
					}

					created++
				default:
					return err
				}

				for _, warning := range m.Warnings() {
					printWarning(cmd.ErrOrStderr(), warning)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d models (%d created, %d updated)\n", created+updated, created, updated)

			return nil
		},
	}
}

func modelsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of models import files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")

			return enc.Encode(config.ModelsSchema())
		},
	}
}
