// SPDX-License-Identifier: MPL-2.0

package unlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// manifestPin is a (depot, manifest version) pair parsed from a cached
// manifest filename of the form <depotID>_<manifestID>.manifest.
type manifestPin struct {
	DepotID    uint64
	ManifestID string
}

// emit renders the accumulated records into the unlock script, writes it
// into the plugin directory, and hands it to the packer. The intermediate
// text file is removed afterwards unless debug mode keeps it around.
func (r *Runner) emit(ctx context.Context, acc *Accumulator, appid string) (string, error) {
	var b strings.Builder
	for _, rec := range acc.Depots() {
		if rec.Key != "" {
			fmt.Fprintf(&b, "addappid(%d, 1, %q)\n", rec.DepotID, rec.Key)
		} else {
			fmt.Fprintf(&b, "addappid(%d, 1)\n", rec.DepotID)
		}
	}

	if r.fixed {
		r.logger.Info("pinning manifest versions", "appid", appid)
		for _, pin := range r.manifestPins(acc.Manifests()) {
			fmt.Fprintf(&b, "setManifestid(%d, %q)\n", pin.DepotID, pin.ManifestID)
		}
	}

	dir := r.steam.PluginDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating plugin dir: %w", err)
	}
	path := filepath.Join(dir, appid+".lua")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing script %s: %w", path, err)
	}

	installed, err := r.packer.Pack(ctx, path)
	if err != nil {
		return "", fmt.Errorf("packing script %s: %w", path, err)
	}

	if !r.debug {
		if err := os.Remove(path); err != nil {
			r.logger.Warn("could not remove intermediate script", "path", path, "error", err)
		}
	}
	return installed, nil
}

// manifestPins parses the recorded manifest filenames into version pins,
// sorted by depot identifier. Filenames that do not follow the
// <depot>_<manifest>.manifest convention are skipped with a warning.
func (r *Runner) manifestPins(names []string) []manifestPin {
	pins := make([]manifestPin, 0, len(names))
	for _, name := range names {
		base, ok := strings.CutSuffix(name, ".manifest")
		if !ok {
			continue
		}
		depotStr, manifestID, ok := strings.Cut(base, "_")
		if !ok || manifestID == "" {
			r.logger.Warn("unrecognized manifest filename", "name", name)
			continue
		}
		depotID, err := strconv.ParseUint(depotStr, 10, 64)
		if err != nil {
			r.logger.Warn("unrecognized manifest filename", "name", name)
			continue
		}
		pins = append(pins, manifestPin{DepotID: depotID, ManifestID: manifestID})
	}
	slices.SortFunc(pins, func(x, y manifestPin) int {
		switch {
		case x.DepotID < y.DepotID:
			return -1
		case x.DepotID > y.DepotID:
			return 1
		}
		return strings.Compare(x.ManifestID, y.ManifestID)
	})
	return pins
}
