// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package steam

import (
	"fmt"
	"os"
	"path/filepath"
)

// locate probes the conventional Steam roots on non-Windows platforms.
// STEAM_PATH wins when set, matching how the Windows build honors the
// registry as the single source of truth.
func locate() (Paths, error) {
	if root := os.Getenv("STEAM_PATH"); root != "" {
		return At(root)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Paths{}, fmt.Errorf("%w: %v", ErrNotInstalled, err)
	}

	candidates := []string{
		filepath.Join(home, ".steam", "steam"),
		filepath.Join(home, ".local", "share", "Steam"),
		filepath.Join(home, "Library", "Application Support", "Steam"),
	}
	for _, root := range candidates {
		if info, err := os.Stat(root); err == nil && info.IsDir() {
			return Paths{Root: root}, nil
		}
	}
	return Paths{}, ErrNotInstalled
}
