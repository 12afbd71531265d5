package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read and write stored settings",
	}

	var def string

	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			value, err := db.Setting(cmd.Context(), args[0], def)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), value)

			return nil
		},
	}

	get.Flags().StringVar(&def, "default", "", "value printed when the setting was never set")

	set := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.db(cmd.Context())
			if err != nil {
				return err
			}

			return db.SetSetting(cmd.Context(), args[0], args[1])
		},
	}

	cmd.AddCommand(get, set)

	return cmd
}
