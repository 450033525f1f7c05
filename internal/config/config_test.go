// SPDX-License-Identifier: MPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)

	assert.Empty(t, cfg.AppID)
	assert.Empty(t, cfg.Token)
	assert.False(t, cfg.Fixed)
	assert.False(t, cfg.Debug)
	assert.Equal(t, DefaultRepos, cfg.Repos())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("MANIFEST_APPID", "4242")
	t.Setenv("MANIFEST_FIXED", "true")

	cfg, err := Load(LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "4242", cfg.AppID)
	assert.True(t, cfg.Fixed)
}

func TestLoad_GithubTokenFallback(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "from-github-env")

	cfg, err := Load(LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "from-github-env", cfg.Token)
}

func TestLoad_ManifestTokenBeatsGithubToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "generic")
	t.Setenv("MANIFEST_TOKEN", "specific")

	cfg, err := Load(LoadOptions{ConfigDirPath: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, "specific", cfg.Token)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := "appid = \"777\"\nrepo = \"someone/mirror\"\ndebug = true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o644))

	cfg, err := Load(LoadOptions{ConfigDirPath: dir})
	require.NoError(t, err)

	assert.Equal(t, "777", cfg.AppID)
	assert.Equal(t, "someone/mirror", cfg.Repo)
	assert.True(t, cfg.Debug)
}

func TestLoad_FlagBeatsEnvironment(t *testing.T) {
	t.Setenv("MANIFEST_APPID", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("appid", "a", "", "")
	flags.StringP("key", "k", "", "")
	require.NoError(t, flags.Parse([]string{"--appid", "from-flag"}))

	cfg, err := Load(LoadOptions{ConfigDirPath: t.TempDir(), Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.AppID)
}

func TestLoad_UnsetFlagDoesNotMaskEnvironment(t *testing.T) {
	t.Setenv("MANIFEST_APPID", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("appid", "a", "", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load(LoadOptions{ConfigDirPath: t.TempDir(), Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.AppID)
}

func TestRepos_UserRepoComesFirst(t *testing.T) {
	t.Parallel()

	cfg := &Config{Repo: "someone/mirror"}
	repos := cfg.Repos()

	require.Len(t, repos, len(DefaultRepos)+1)
	assert.Equal(t, "someone/mirror", repos[0])
	assert.Equal(t, DefaultRepos, repos[1:])
}

func TestWriteDefault_CreatesAndPreservesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path)

	// A second call must not clobber user edits.
	require.NoError(t, os.WriteFile(path, []byte("appid = \"kept\"\n"), 0o644))
	again, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "appid = \"kept\"\n", string(content))
}
