// SPDX-License-Identifier: MPL-2.0

package unlock

import (
	"slices"
	"sync"
)

// Record is one (depot identifier, decryption key) pair destined for the
// unlock script. Key is empty for depots without a known key.
type Record struct {
	DepotID uint64
	Key     string
}

// Accumulator is the shared state of one top-level run: the depot records
// and manifest filenames collected by all concurrent dispatch tasks,
// including those of nested package expansions. It is created per run and
// never shared across runs.
//
// The mutex also serializes the log lines that accompany mutations, so
// console output stays consistent with state changes across workers.
type Accumulator struct {
	mu        sync.Mutex
	depots    map[uint64]string
	manifests []string
	visited   map[string]bool
}

// NewAccumulator returns an empty accumulator for a fresh run.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		depots:  make(map[uint64]string),
		visited: make(map[string]bool),
	}
}

// AddDepot records a depot. Policy for repeated identifiers: a record
// carrying a key always wins over a keyless one; a keyless record never
// overwrites anything already present.
func (a *Accumulator) AddDepot(id uint64, key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.addDepotLocked(id, key)
}

func (a *Accumulator) addDepotLocked(id uint64, key string) {
	if key == "" {
		if _, ok := a.depots[id]; ok {
			return
		}
	}
	a.depots[id] = key
}

// RecordManifest remembers a manifest filename for fixed-version pinning.
// Recorded whether or not the file was already cached locally.
func (a *Accumulator) RecordManifest(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manifests = append(a.manifests, name)
}

// Visit marks an identifier as handled by this run and reports whether this
// was the first visit. Guards against package graphs that reference an
// identifier more than once, directly or through a cycle.
func (a *Accumulator) Visit(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.visited[id] {
		return false
	}
	a.visited[id] = true
	return true
}

// Depots returns the accumulated records deduplicated by depot identifier
// and sorted ascending.
func (a *Accumulator) Depots() []Record {
	a.mu.Lock()
	defer a.mu.Unlock()

	records := make([]Record, 0, len(a.depots))
	for id, key := range a.depots {
		records = append(records, Record{DepotID: id, Key: key})
	}
	slices.SortFunc(records, func(x, y Record) int {
		switch {
		case x.DepotID < y.DepotID:
			return -1
		case x.DepotID > y.DepotID:
			return 1
		}
		return 0
	})
	return records
}

// Manifests returns the recorded manifest filenames, deduplicated and sorted.
func (a *Accumulator) Manifests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := slices.Clone(a.manifests)
	slices.Sort(names)
	return slices.Compact(names)
}
