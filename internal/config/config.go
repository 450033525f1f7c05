// SPDX-License-Identifier: MPL-2.0

// Package config loads tool configuration from, in order of precedence:
// command-line flags, MANIFEST_* environment variables, and an optional
// TOML config file under the platform config directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name, also the config directory name.
	AppName = "manifest"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "toml"

	envPrefix = "MANIFEST"
)

// DefaultRepos are the manifest repositories consulted when the user does
// not supply one, in priority order.
var DefaultRepos = []string{
	"ciocoa/manifest",
	"Onekey-Project/ManifestAutoUpdate-Cache",
}

type (
	// Config is the resolved tool configuration.
	Config struct {
		// AppID is the appid to resolve; prompted for interactively when empty.
		AppID string `mapstructure:"appid" toml:"appid"`
		// Token is the GitHub API token, empty for anonymous access.
		Token string `mapstructure:"token" toml:"token"`
		// Repo is an extra manifest repository consulted before the defaults.
		Repo string `mapstructure:"repo" toml:"repo"`
		// Fixed pins manifest versions in the emitted script.
		Fixed bool `mapstructure:"fixed" toml:"fixed"`
		// Debug enables debug logging and keeps intermediate script files.
		Debug bool `mapstructure:"debug" toml:"debug"`
		// SteamPath overrides Steam installation detection.
		SteamPath string `mapstructure:"steam_path" toml:"steam_path"`
	}

	// LoadOptions defines explicit configuration loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific config file when set.
		ConfigFilePath string
		// ConfigDirPath overrides the config directory lookup when set.
		ConfigDirPath string
		// Flags, when set, is bound on top of file and environment values.
		Flags *pflag.FlagSet
	}
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// Repos returns the candidate repository list in priority order: the
// user-supplied repository first (when set), then the fixed defaults.
func (c *Config) Repos() []string {
	if c.Repo == "" {
		return append([]string(nil), DefaultRepos...)
	}
	return append([]string{c.Repo}, DefaultRepos...)
}

// ConfigDir returns the manifest configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// Load reads configuration from flags, environment, and the config file.
// A missing config file is not an error; a malformed one is.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("appid", defaults.AppID)
	v.SetDefault("token", defaults.Token)
	v.SetDefault("repo", defaults.Repo)
	v.SetDefault("fixed", defaults.Fixed)
	v.SetDefault("debug", defaults.Debug)
	v.SetDefault("steam_path", defaults.SteamPath)

	v.SetEnvPrefix(envPrefix)
	// GITHUB_TOKEN is honored as a fallback so the standard variable most
	// users already export keeps working.
	if err := v.BindEnv("token", envPrefix+"_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("binding token env: %w", err)
	}
	for _, key := range []string{"appid", "repo", "fixed", "debug", "steam_path"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s env: %w", key, err)
		}
	}

	if opts.ConfigFilePath != "" {
		v.SetConfigFile(opts.ConfigFilePath)
	} else {
		dir := opts.ConfigDirPath
		if dir == "" {
			d, err := ConfigDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		v.SetConfigName(ConfigFileName)
		v.SetConfigType(ConfigFileExt)
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if opts.Flags != nil {
		bindings := map[string]string{
			"appid":      "appid",
			"token":      "key",
			"repo":       "repo",
			"fixed":      "fixed",
			"debug":      "debug",
			"steam_path": "steam-path",
		}
		for key, flagName := range bindings {
			if flag := opts.Flags.Lookup(flagName); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("binding %s flag: %w", flagName, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// WriteDefault writes the default config file into dir (created as needed)
// and returns its path. An existing file is left untouched.
func WriteDefault(dir string) (string, error) {
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("rendering default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing default config: %w", err)
	}
	return path, nil
}
