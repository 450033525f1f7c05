// SPDX-License-Identifier: MPL-2.0

// Package packer wraps the external luapacka executable that converts a
// generated unlock script into its installed binary form. The executable is
// a black box: this package only invokes it and extracts the output path it
// reports on stdout.
package packer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrPackerMissing is returned when the packer executable is not installed
// in the plugin directory.
var ErrPackerMissing = errors.New("packer executable not found")

// Packer transforms a text script into its installed form and reports where
// the result was written.
type Packer interface {
	Pack(ctx context.Context, scriptPath string) (string, error)
}

// LuaPacka invokes the luapacka.exe shipped alongside the plugin directory.
type LuaPacka struct {
	exePath string
}

// NewLuaPacka returns a Packer using the luapacka executable inside
// pluginDir.
func NewLuaPacka(pluginDir string) *LuaPacka {
	return &LuaPacka{exePath: filepath.Join(pluginDir, "luapacka.exe")}
}

// Pack runs the packer on scriptPath and returns the output location the
// packer reports, e.g. the "C:\...\123.st" tail of "saved to C:\...\123.st".
func (l *LuaPacka) Pack(ctx context.Context, scriptPath string) (string, error) {
	if _, err := os.Stat(l.exePath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrPackerMissing, l.exePath)
	}

	out, err := exec.CommandContext(ctx, l.exePath, scriptPath).Output()
	if err != nil {
		return "", fmt.Errorf("running packer on %s: %w", scriptPath, err)
	}
	return ParseOutput(string(out))
}

// ParseOutput extracts the trailing path segment from the packer's
// "saved to <path>" report line.
func ParseOutput(out string) (string, error) {
	out = strings.TrimRight(out, "\r\n")
	idx := strings.Index(out, "to ")
	if idx < 0 {
		return "", fmt.Errorf("unexpected packer output: %q", out)
	}
	return out[idx+len("to "):], nil
}
