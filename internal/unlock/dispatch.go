// SPDX-License-Identifier: MPL-2.0

package unlock

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"

	"github.com/ciocoa/manifest/internal/github"
)

// dispatch classifies one tree entry and performs its type-specific action.
// Runs on a worker goroutine; any returned error fails the whole walk.
func (r *Runner) dispatch(ctx context.Context, acc *Accumulator, repo, branch string, depth int, entry github.TreeEntry) error {
	if entry.Type == "tree" {
		return nil
	}
	switch {
	case strings.HasSuffix(entry.Path, ".manifest"):
		return r.cacheManifest(ctx, acc, repo, branch, entry.Path)
	case entry.Path == "config.vdf" || entry.Path == "Key.vdf":
		return r.collectKeys(ctx, acc, repo, branch, entry.Path)
	case entry.Path == "config.json":
		return r.collectMetadata(ctx, acc, repo, branch, depth, entry.Path)
	}
	return nil
}

// cacheManifest downloads a binary manifest into the depotcache directory.
// An already-cached file is skipped without any network access, so retrying
// a partially failed run never re-downloads what it already has.
func (r *Runner) cacheManifest(ctx context.Context, acc *Accumulator, repo, branch, path string) error {
	acc.RecordManifest(path)

	dir := r.steam.DepotCache()
	acc.mu.Lock()
	err := os.MkdirAll(dir, 0o755)
	acc.mu.Unlock()
	if err != nil {
		return fmt.Errorf("creating depot cache dir: %w", err)
	}

	dst := filepath.Join(dir, path)
	if _, err := os.Stat(dst); err == nil {
		acc.mu.Lock()
		r.logger.Warn("manifest already cached", "path", path)
		acc.mu.Unlock()
		return nil
	}

	content, err := r.client.RawContent(ctx, repo, branch, path)
	if err != nil {
		return fmt.Errorf("downloading manifest %s: %w", path, err)
	}
	if err := os.WriteFile(dst, content, 0o644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", path, err)
	}

	acc.mu.Lock()
	r.logger.Info("manifest downloaded", "path", path)
	acc.mu.Unlock()
	return nil
}

// collectKeys parses a KeyValues key document and accumulates one record
// per depot under the "depots" subtree.
func (r *Runner) collectKeys(ctx context.Context, acc *Accumulator, repo, branch, path string) error {
	content, err := r.client.RawContent(ctx, repo, branch, path)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", path, err)
	}

	doc, err := vdf.NewParser(bytes.NewReader(content)).Parse()
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	depots, ok := doc["depots"].(map[string]interface{})
	if !ok {
		return fmt.Errorf("%s has no depots section", path)
	}

	records := make([]Record, 0, len(depots))
	for idStr, v := range depots {
		fields, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		key, _ := fields["DecryptionKey"].(string)
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			r.logger.Warn("skipping non-numeric depot id", "path", path, "depot", idStr)
			continue
		}
		records = append(records, Record{DepotID: id, Key: key})
	}

	acc.mu.Lock()
	for _, rec := range records {
		acc.addDepotLocked(rec.DepotID, rec.Key)
	}
	r.logger.Info("decryption keys found", "path", path, "count", len(records))
	acc.mu.Unlock()
	return nil
}

// appMetadata is the wire format of config.json: plain DLC identifiers plus
// standalone packages that need a tree walk of their own.
type appMetadata struct {
	DLCs        []uint64 `json:"dlcs"`
	PackageDLCs []uint64 `json:"packagedlcs"`
}

// collectMetadata decodes config.json, accumulates keyless records for the
// plain DLCs, and expands each standalone package with a nested walk. The
// nested walk completes (or fails) before this dispatch task resolves, so
// its failure propagates through the enclosing barrier.
func (r *Runner) collectMetadata(ctx context.Context, acc *Accumulator, repo, branch string, depth int, path string) error {
	content, err := r.client.RawContent(ctx, repo, branch, path)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", path, err)
	}

	var meta appMetadata
	if err := json.Unmarshal(content, &meta); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if len(meta.DLCs) > 0 {
		acc.mu.Lock()
		for _, id := range meta.DLCs {
			acc.addDepotLocked(id, "")
		}
		r.logger.Info("dlc records found", "path", path, "count", len(meta.DLCs))
		acc.mu.Unlock()
	}

	for _, pkg := range meta.PackageDLCs {
		id := strconv.FormatUint(pkg, 10)
		r.logger.Info("expanding standalone package", "appid", id)
		if _, err := r.walk(ctx, acc, repo, id, depth+1); err != nil {
			return fmt.Errorf("expanding package %s: %w", id, err)
		}
	}
	return nil
}
