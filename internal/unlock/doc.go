// SPDX-License-Identifier: MPL-2.0

// Package unlock implements the repository-resolution and concurrent-fetch
// engine: it picks the manifest repository whose branch for an appid is
// freshest, walks the branch's commit tree with a bounded worker pool,
// caches binary manifest files, collects depot decryption keys and DLC
// identifiers (recursively expanding standalone packages), and renders the
// deduplicated unlock script that is handed to the external packer.
package unlock
