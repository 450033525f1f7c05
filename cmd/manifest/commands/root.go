// SPDX-License-Identifier: MPL-2.0

package commands

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"

	// cfgFile allows specifying a custom config file.
	cfgFile string

	// rootCmd runs the fetch when called without any subcommands.
	rootCmd = &cobra.Command{
		Use:   "manifest",
		Short: "Fetch Steam depot manifests and unlock scripts from GitHub",
		Long: `manifest resolves a Steam appid against one or more GitHub manifest
repositories, downloads the depot manifests of the matching branch into the
Steam depotcache, collects depot decryption keys and DLC identifiers, and
installs the resulting unlock script through the luapacka plugin.`,
		Example: `  # Fetch by appid
  manifest -a 123456

  # Authenticated, with an extra repository consulted first
  manifest -a 123456 -k <github-token> -r someone/manifest-mirror

  # Pin manifest versions in the emitted script
  manifest -a 123456 -f`,
		Args: cobra.NoArgs,
		RunE: runFetch,
	}
)

func init() {
	rootCmd.Flags().StringP("appid", "a", "", "steam appid to resolve (prompted for when omitted)")
	rootCmd.Flags().StringP("key", "k", "", "github api token")
	rootCmd.Flags().StringP("repo", "r", "", "extra manifest repository, consulted before the defaults")
	rootCmd.Flags().BoolP("fixed", "f", false, "pin manifest versions in the emitted script")
	rootCmd.Flags().BoolP("debug", "d", false, "debug logging, keep intermediate script files")
	rootCmd.Flags().String("steam-path", "", "steam installation root (default: auto-detect)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.toml under the platform config dir)")

	rootCmd.AddCommand(configCmd)
}

// Execute runs the CLI. Called once from main.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
