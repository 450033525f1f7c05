// SPDX-License-Identifier: MPL-2.0

package unlock

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ciocoa/manifest/internal/github"
	"github.com/ciocoa/manifest/internal/packer"
	"github.com/ciocoa/manifest/internal/steam"
)

var (
	// ErrNoRepository is returned when no candidate repository has a branch
	// for the requested appid. A normal, reportable outcome.
	ErrNoRepository = errors.New("no repository has data for this appid")

	// ErrInvalidAppID is returned when the appid is not a numeric string.
	ErrInvalidAppID = errors.New("appid must be numeric")
)

type (
	// QuotaError aborts a run before any tree work when the API quota is
	// exhausted. Reset is the time the quota becomes available again.
	QuotaError struct {
		Reset time.Time
	}

	// Result describes a successful run.
	Result struct {
		AppID     string
		Repo      string
		UpdatedAt time.Time // committer timestamp of the selected branch
		Script    string    // installed script location reported by the packer
	}

	// Options tune a Runner beyond its collaborators.
	Options struct {
		// Repos are the candidate repositories in priority order.
		Repos []string
		// Fixed appends manifest version pins to the emitted script.
		Fixed bool
		// Debug keeps the intermediate text script next to the packed one.
		Debug bool
		// Workers bounds the per-tree fetch parallelism (default: NumCPU).
		Workers int
	}

	// Runner drives one appid resolution end to end.
	Runner struct {
		client  *github.Client
		steam   steam.Paths
		packer  packer.Packer
		logger  *log.Logger
		repos   []string
		fixed   bool
		debug   bool
		workers int
	}
)

// Error formats the reset time in the local timezone, which is what the
// person staring at the terminal needs.
func (e *QuotaError) Error() string {
	return fmt.Sprintf("api quota exhausted, resets at %s",
		e.Reset.Local().Format("2006-01-02 15:04:05"))
}

// NewRunner wires a Runner from its collaborators.
func NewRunner(client *github.Client, paths steam.Paths, pk packer.Packer, logger *log.Logger, opts Options) *Runner {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Runner{
		client:  client,
		steam:   paths,
		packer:  pk,
		logger:  logger,
		repos:   opts.Repos,
		fixed:   opts.Fixed,
		debug:   opts.Debug,
		workers: workers,
	}
}

// Run resolves appid against the candidate repositories, walks the matching
// branch tree, and emits the unlock script. The quota guard runs first: an
// exhausted API quota aborts before any tree work with a *QuotaError.
func (r *Runner) Run(ctx context.Context, appid string) (*Result, error) {
	if _, err := strconv.ParseUint(appid, 10, 64); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAppID, appid)
	}

	quota, err := r.client.RateLimit(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking api quota: %w", err)
	}
	r.logger.Debug("api quota", "remaining", quota.Remaining)
	if quota.Remaining == 0 {
		return nil, &QuotaError{Reset: quota.Reset}
	}

	repo, err := r.resolve(ctx, appid)
	if err != nil {
		return nil, err
	}

	acc := NewAccumulator()
	committedAt, err := r.walk(ctx, acc, repo, appid, 0)
	if err != nil {
		return nil, err
	}

	script, err := r.emit(ctx, acc, appid)
	if err != nil {
		return nil, err
	}

	return &Result{
		AppID:     appid,
		Repo:      repo,
		UpdatedAt: committedAt,
		Script:    script,
	}, nil
}

// resolve scans the candidate repositories in priority order and keeps the
// one whose branch for appid carries the strictly latest committer
// timestamp. Ties keep the first-seen maximum, so the priority order acts
// as the tie-break.
func (r *Runner) resolve(ctx context.Context, appid string) (string, error) {
	var (
		selected string
		latest   time.Time
	)
	for _, repo := range r.repos {
		br, err := r.client.Branch(ctx, repo, appid)
		if errors.Is(err, github.ErrNotFound) {
			r.logger.Debug("repository has no branch", "repo", repo, "appid", appid)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("checking %s: %w", repo, err)
		}
		if selected == "" || br.CommittedAt.After(latest) {
			selected = repo
			latest = br.CommittedAt
		}
	}
	if selected == "" {
		return "", fmt.Errorf("%w: %s", ErrNoRepository, appid)
	}
	r.logger.Info("selected repository", "repo", selected, "appid", appid)
	return selected, nil
}

// walk fetches the branch for id inside repo and dispatches every tree
// entry on a bounded worker pool. It blocks until all dispatch tasks of
// this invocation, including nested package walks they trigger, have
// finished: only then is the invocation's success decided.
//
// depth 0 is the top-level run; it seeds the implicit keyless record for
// the application's own depot. Nested walks (depth > 0) only contribute
// records to the shared accumulator and never emit anything themselves.
func (r *Runner) walk(ctx context.Context, acc *Accumulator, repo, id string, depth int) (time.Time, error) {
	if !acc.Visit(id) {
		r.logger.Debug("identifier already handled, skipping", "appid", id)
		return time.Time{}, nil
	}

	br, err := r.client.Branch(ctx, repo, id)
	if err != nil {
		return time.Time{}, fmt.Errorf("resolving branch %s in %s: %w", id, repo, err)
	}
	entries, err := r.client.Tree(ctx, br.TreeURL)
	if err != nil {
		return time.Time{}, fmt.Errorf("listing tree of %s in %s: %w", id, repo, err)
	}

	if depth == 0 {
		// The application's own depot, always keyless.
		num, _ := strconv.ParseUint(id, 10, 64)
		acc.AddDepot(num, "")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, entry := range entries {
		g.Go(func() error {
			return r.dispatch(gctx, acc, repo, br.Name, depth, entry)
		})
	}
	if err := g.Wait(); err != nil {
		return time.Time{}, err
	}
	return br.CommittedAt, nil
}
