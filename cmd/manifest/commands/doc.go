// SPDX-License-Identifier: MPL-2.0

// Package commands contains the CLI commands for manifest: the root fetch
// command and the config helpers.
package commands
