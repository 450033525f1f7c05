// SPDX-License-Identifier: MPL-2.0

package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ciocoa/manifest/internal/config"
	"github.com/ciocoa/manifest/internal/github"
	"github.com/ciocoa/manifest/internal/packer"
	"github.com/ciocoa/manifest/internal/steam"
	"github.com/ciocoa/manifest/internal/unlock"
)

// runFetch is the root command: resolve the appid and install its unlock
// script. Expected outcomes (no data, exhausted quota, missing Steam) are
// logged and exit zero; everything else is a real failure.
func runFetch(cmd *cobra.Command, _ []string) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	cfg, err := config.Load(config.LoadOptions{
		ConfigFilePath: cfgFile,
		Flags:          cmd.Flags(),
	})
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Debug)
	fmt.Fprintln(cmd.OutOrStdout(), banner())

	appid := strings.TrimSpace(cfg.AppID)
	interactive := appid == ""
	if interactive {
		// Double-click users get a prompt, and later a chance to read the
		// output before the window closes.
		appid, err = promptAppID(cmd)
		if err != nil {
			return err
		}
		defer waitForEnter(cmd)
	}

	if err := fetch(cmd, cfg, logger, appid); err != nil {
		var quotaErr *unlock.QuotaError
		switch {
		case errors.Is(err, unlock.ErrNoRepository):
			logger.Error("no repository has data for this appid", "appid", appid)
			return nil
		case errors.As(err, &quotaErr):
			logger.Error("api quota exhausted", "reset", quotaErr.Reset.Local().Format("2006-01-02 15:04:05"))
			return nil
		case errors.Is(err, steam.ErrNotInstalled):
			logger.Error("steam installation not found, is steam installed?")
			return nil
		default:
			logger.Error("run failed", "appid", appid, "error", err)
			return err
		}
	}
	return nil
}

// fetch wires the collaborators and drives one run.
func fetch(cmd *cobra.Command, cfg *config.Config, logger *log.Logger, appid string) error {
	paths, err := locateSteam(cfg)
	if err != nil {
		return err
	}
	logger.Info("steam installation", "path", paths.Root)

	clientOpts := []github.ClientOption{
		github.WithUserAgent("manifest/" + Version),
	}
	if cfg.Token != "" {
		clientOpts = append(clientOpts, github.WithToken(cfg.Token))
	}
	client := github.NewClient(clientOpts...)

	runner := unlock.NewRunner(client, paths, packer.NewLuaPacka(paths.PluginDir()), logger, unlock.Options{
		Repos: cfg.Repos(),
		Fixed: cfg.Fixed,
		Debug: cfg.Debug,
	})

	res, err := runner.Run(cmd.Context(), appid)
	if err != nil {
		return err
	}

	logger.Info("script installed", "path", res.Script)
	logger.Info("manifest last updated", "at", res.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	logger.Info("unlock completed", "appid", res.AppID, "repo", res.Repo)
	return nil
}

// locateSteam honors the configured override, falling back to platform
// detection.
func locateSteam(cfg *config.Config) (steam.Paths, error) {
	if cfg.SteamPath != "" {
		return steam.At(cfg.SteamPath)
	}
	return steam.Locate()
}

// newLogger builds the console logger all components share.
func newLogger(debug bool) *log.Logger {
	level := log.InfoLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          config.AppName,
		Level:           level,
		ReportTimestamp: true,
	})
}

// promptAppID reads the appid from the terminal.
func promptAppID(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), PromptStyle.Render("enter appid: "))
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading appid: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// waitForEnter blocks until the user acknowledges the output.
func waitForEnter(cmd *cobra.Command) {
	fmt.Fprint(cmd.OutOrStdout(), SubtitleStyle.Render("press enter to exit..."))
	_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
}
