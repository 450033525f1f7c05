// SPDX-License-Identifier: MPL-2.0

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ciocoa/manifest/internal/config"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the manifest configuration file",
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Long: `Write the default TOML config file into the platform config directory.
An existing config file is left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.WriteDefault("")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config file at", path)
			return nil
		},
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config directory location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
)

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}
