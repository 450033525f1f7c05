// SPDX-License-Identifier: MPL-2.0

// Package github is a minimal GitHub REST client for the manifest
// repositories this tool reads from. It covers exactly four calls: branch
// lookup, tree listing, raw file content, and the rate-limit endpoint.
// Every call is retried with a fixed delay, and "the resource does not
// exist" (ErrNotFound) is kept distinct from "the server is flaky".
package github
