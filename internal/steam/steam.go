// SPDX-License-Identifier: MPL-2.0

// Package steam locates the local Steam installation and exposes the
// well-known subdirectories this tool writes into.
package steam

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotInstalled is returned when no usable Steam installation can be found.
var ErrNotInstalled = errors.New("steam installation not found")

// Paths is a validated Steam installation root and its derived directories.
type Paths struct {
	Root string
}

// DepotCache returns the directory binary manifest files are cached into.
func (p Paths) DepotCache() string {
	return filepath.Join(p.Root, "depotcache")
}

// PluginDir returns the stplug-in directory unlock scripts are written into.
func (p Paths) PluginDir() string {
	return filepath.Join(p.Root, "config", "stplug-in")
}

// At wraps an explicit installation root, bypassing platform detection.
// Used for the --steam-path override and throughout the tests.
func At(root string) (Paths, error) {
	info, err := os.Stat(root)
	if err != nil {
		return Paths{}, fmt.Errorf("%w: %s", ErrNotInstalled, root)
	}
	if !info.IsDir() {
		return Paths{}, fmt.Errorf("%w: %s is not a directory", ErrNotInstalled, root)
	}
	return Paths{Root: root}, nil
}

// Locate finds the Steam installation using the platform convention:
// the registry on Windows, well-known home directories elsewhere.
func Locate() (Paths, error) {
	return locate()
}
