// SPDX-License-Identifier: MPL-2.0

//go:build windows

package steam

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

// locate reads the installation root from HKCU\Software\Valve\Steam and
// verifies that steam.exe is actually present under it, so a stale registry
// entry left behind by an uninstall is not mistaken for an installation.
func locate() (Paths, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Valve\Steam`, registry.QUERY_VALUE)
	if err != nil {
		return Paths{}, fmt.Errorf("%w: opening registry key: %v", ErrNotInstalled, err)
	}
	defer func() { _ = key.Close() }()

	root, _, err := key.GetStringValue("SteamPath")
	if err != nil {
		return Paths{}, fmt.Errorf("%w: reading SteamPath: %v", ErrNotInstalled, err)
	}

	if _, err := os.Stat(filepath.Join(root, "steam.exe")); err != nil {
		return Paths{}, fmt.Errorf("%w: steam.exe missing under %s", ErrNotInstalled, root)
	}
	return Paths{Root: filepath.Clean(root)}, nil
}
