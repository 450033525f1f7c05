// SPDX-License-Identifier: MPL-2.0

package commands

import (
	"bytes"
	"testing"
)

func TestRootCommand_FlagsRegistered(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"appid", "key", "repo", "fixed", "debug", "steam-path"} {
		if rootCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag %q not registered", name)
		}
	}
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("persistent flag \"config\" not registered")
	}
}

func TestRootCommand_Shorthands(t *testing.T) {
	t.Parallel()

	shorthands := map[string]string{
		"appid": "a",
		"key":   "k",
		"repo":  "r",
		"fixed": "f",
		"debug": "d",
	}
	for name, short := range shorthands {
		flag := rootCmd.Flags().Lookup(name)
		if flag == nil {
			t.Fatalf("flag %q not registered", name)
		}
		if flag.Shorthand != short {
			t.Errorf("flag %q: shorthand got %q, want %q", name, flag.Shorthand, short)
		}
	}
}

func TestConfigPathCommand(t *testing.T) {
	var out bytes.Buffer
	configPathCmd.SetOut(&out)

	if err := configPathCmd.RunE(configPathCmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() == 0 {
		t.Error("expected a path on stdout")
	}
}

func TestBanner_NotEmpty(t *testing.T) {
	t.Parallel()

	if banner() == "" {
		t.Error("banner must render something")
	}
}
