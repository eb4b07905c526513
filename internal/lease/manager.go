package lease

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/oakbranch-dev/raven-remediator/internal/errcode"
	"github.com/oakbranch-dev/raven-remediator/internal/vcs"
)

// protectedBranches are never deleted during release, even when the
// caller asked for releaseAndCleanBranch.
var protectedBranches = map[string]bool{
	"main":    true,
	"master":  true,
	"develop": true,
}

// sanitizeRE matches any character outside [A-Za-z0-9-], the set this
// package substitutes with a hyphen when deriving a worktree directory
// name from a branch name.
var sanitizeRE = regexp.MustCompile(`[^A-Za-z0-9-]+`)

// sanitizeBranch turns an arbitrary branch name into a filesystem-safe
// path component: characters outside [A-Za-z0-9-] become '-', and runs
// of '-' collapse to one.
func sanitizeBranch(branch string) string {
	s := sanitizeRE.ReplaceAllString(branch, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}

const defaultBaseBranch = "autofixing"

// record is the manager's internal bookkeeping for one outstanding lease.
type record struct {
	lease    *Lease
	released bool
}

// Manager owns a bounded pool of isolated working copies rooted in
// baseDir. All mutation of its internal map happens under mu so that
// "count leases" and "insert new lease" are never observed torn — the
// invariant §5 requires to prevent MAX_CONCURRENT_EXCEEDED races.
type Manager struct {
	mu sync.Mutex

	adapter       vcs.Adapter
	baseDir       string
	prefix        string
	maxConcurrent int
	baseBranch    string
	maxAge        time.Duration
	sweepInterval time.Duration

	leases map[string]*record

	cleanupStop    chan struct{}
	cleanupRunning bool

	logger *log.Logger
}

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithMaxConcurrent sets the maximum number of outstanding leases.
func WithMaxConcurrent(n int) Option {
	return func(m *Manager) { m.maxConcurrent = n }
}

// WithBaseBranch sets the default base branch used when acquire is
// called without an explicit one.
func WithBaseBranch(branch string) Option {
	return func(m *Manager) { m.baseBranch = branch }
}

// WithAutoCleanup configures the stale-lease reap interval and the
// maximum age a lease may reach before runAutoCleanup force-releases it.
func WithAutoCleanup(interval, maxAge time.Duration) Option {
	return func(m *Manager) {
		m.sweepInterval = interval
		m.maxAge = maxAge
	}
}

// WithLogger attaches a component logger, matching the teacher's
// WithLogger idiom used throughout workflow.Engine and pipeline.BranchManager.
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// NewManager creates a Manager rooted at baseDir, naming new working
// copies "<prefix><sanitized-branch>" beneath it.
func NewManager(adapter vcs.Adapter, baseDir, prefix string, opts ...Option) *Manager {
	m := &Manager{
		adapter:       adapter,
		baseDir:       baseDir,
		prefix:        prefix,
		maxConcurrent: 3,
		baseBranch:    defaultBaseBranch,
		leases:        make(map[string]*record),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire hands out a new lease for branchName, creating its working
// copy at <baseDir>/<prefix><sanitized(branchName)> based on the tip of
// baseBranch (falling back to the manager's configured default when
// empty). If branchName already exists locally, the manager attempts a
// best-effort delete before recreating it from base; delete failures are
// ignored since AddWorktree force-moves the branch ref regardless.
func (m *Manager) Acquire(ctx context.Context, branchName string, issueNumbers []int, baseBranch string) (*Lease, error) {
	if baseBranch == "" {
		baseBranch = m.baseBranch
	}

	m.mu.Lock()
	if len(m.leases) >= m.maxConcurrent {
		m.mu.Unlock()
		return nil, &AcquireError{Code: errcode.MaxConcurrentExceeded, Err: ErrMaxConcurrentExceeded}
	}
	// Reserve the slot before releasing the lock by inserting a
	// placeholder record, so a concurrent Acquire cannot also observe
	// room for a slot this call already claimed.
	id := uuid.NewString()
	m.leases[id] = nil
	m.mu.Unlock()

	path := m.worktreePath(branchName)

	if err := m.adapter.Fetch(ctx, ""); err != nil {
		m.logWarn("fetch before acquire failed, proceeding without sync", "branch", branchName, "error", err)
	}

	if exists, _ := m.adapter.BranchExists(ctx, branchName); exists {
		// Best-effort local delete; failures are ignored per §4.1.
		_ = m.adapter.DeleteBranch(ctx, branchName, true)
	}

	if err := m.adapter.CreateWorktree(ctx, path, branchName, baseBranch); err != nil {
		m.mu.Lock()
		delete(m.leases, id)
		m.mu.Unlock()
		return nil, &AcquireError{Code: errcode.AcquireFailed, Err: fmt.Errorf("create worktree: %w", err)}
	}

	now := time.Now()
	l := &Lease{
		ID: id,
		Worktree: Worktree{
			Path:           path,
			Branch:         branchName,
			Status:         StatusReady,
			CreatedAt:      now,
			LastActivityAt: now,
			IssueNumbers:   append([]int(nil), issueNumbers...),
		},
		AcquiredAt: now,
		manager:    m,
	}

	m.mu.Lock()
	m.leases[id] = &record{lease: l}
	m.mu.Unlock()

	return l, nil
}

// worktreePath returns the directory a lease for branchName lives at.
func (m *Manager) worktreePath(branchName string) string {
	return m.baseDir + "/" + m.prefix + sanitizeBranch(branchName)
}

// Release removes the lease's working copy (force) and keeps the branch.
// A release for an unknown or already-released lease id is a no-op, not
// an error — this is what makes Release idempotent.
func (m *Manager) Release(ctx context.Context, leaseID string) error {
	return m.release(ctx, leaseID, false)
}

// ReleaseAndCleanBranch is like Release but also deletes the local
// branch, unless it is one of the protected branch names.
func (m *Manager) ReleaseAndCleanBranch(ctx context.Context, leaseID string) error {
	return m.release(ctx, leaseID, true)
}

func (m *Manager) release(ctx context.Context, leaseID string, deleteBranch bool) error {
	m.mu.Lock()
	rec, ok := m.leases[leaseID]
	if !ok || rec == nil || rec.released {
		m.mu.Unlock()
		return nil
	}
	rec.released = true
	path := rec.lease.Worktree.Path
	branch := rec.lease.Worktree.Branch
	delete(m.leases, leaseID)
	m.mu.Unlock()

	if err := m.adapter.RemoveWorktree(ctx, path, true); err != nil {
		m.logWarn("worktree remove failed during release", "lease", leaseID, "path", path, "error", err)
		return &AcquireError{Code: errcode.WorktreeRemoveFailed, Err: err}
	}

	if deleteBranch && !protectedBranches[branch] {
		if err := m.adapter.DeleteBranch(ctx, branch, true); err != nil {
			m.logWarn("branch delete failed during release", "lease", leaseID, "branch", branch, "error", err)
		}
	}

	return nil
}

// GetActive returns the worktree info for every live lease.
func (m *Manager) GetActive() []Worktree {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Worktree, 0, len(m.leases))
	for _, rec := range m.leases {
		if rec != nil && !rec.released {
			out = append(out, rec.lease.Worktree)
		}
	}
	return out
}

// GetActiveCount returns the number of outstanding leases.
func (m *Manager) GetActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leases)
}

// CanAcquire reports whether a new lease could be acquired right now,
// without actually reserving a slot.
func (m *Manager) CanAcquire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.leases) < m.maxConcurrent
}

// GetByLeaseID returns the worktree for a live lease id.
func (m *Manager) GetByLeaseID(id string) (Worktree, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.leases[id]
	if !ok || rec == nil || rec.released {
		return Worktree{}, false
	}
	return rec.lease.Worktree, true
}

// GetByPath returns the worktree whose path matches, if a live lease
// owns it.
func (m *Manager) GetByPath(path string) (Worktree, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range m.leases {
		if rec != nil && !rec.released && rec.lease.Worktree.Path == path {
			return rec.lease.Worktree, true
		}
	}
	return Worktree{}, false
}

// UpdateStatus lets the pipeline annotate its lease's status as it moves
// through stages.
func (m *Manager) UpdateStatus(leaseID string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.leases[leaseID]
	if !ok || rec == nil || rec.released {
		return ErrUnknownLease
	}
	rec.lease.Worktree.Status = status
	rec.lease.Worktree.LastActivityAt = time.Now()
	return nil
}

// ListAll reports every working copy known to the underlying VCS, not
// just those with a live lease.
func (m *Manager) ListAll(ctx context.Context) ([]vcs.WorktreeInfo, error) {
	return m.adapter.ListWorktrees(ctx)
}

// CleanupOrphaned removes every working copy on disk whose directory
// name starts with the configured prefix and which is not associated
// with a live lease. Per-path failures are logged and counted against
// the return value; this function never returns an error.
func (m *Manager) CleanupOrphaned(ctx context.Context) int {
	all, err := m.adapter.ListWorktrees(ctx)
	if err != nil {
		m.logWarn("cleanup orphaned: listing worktrees failed", "error", err)
		return 0
	}

	m.mu.Lock()
	live := make(map[string]bool, len(m.leases))
	for _, rec := range m.leases {
		if rec != nil && !rec.released {
			live[rec.lease.Worktree.Path] = true
		}
	}
	m.mu.Unlock()

	removed := 0
	prefixRoot := m.baseDir + "/" + m.prefix
	for _, wt := range all {
		if !strings.HasPrefix(wt.Path, prefixRoot) {
			continue
		}
		if live[wt.Path] {
			continue
		}
		if err := m.adapter.RemoveWorktree(ctx, wt.Path, true); err != nil {
			m.logWarn("cleanup orphaned: remove failed", "path", wt.Path, "error", err)
			continue
		}
		if !protectedBranches[wt.Branch] && wt.Branch != "" {
			_ = m.adapter.DeleteBranch(ctx, wt.Branch, true)
		}
		removed++
	}
	return removed
}

// CleanupAll releases every live lease, best-effort and concurrently.
func (m *Manager) CleanupAll(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.leases))
	for id, rec := range m.leases {
		if rec != nil && !rec.released {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := m.Release(ctx, id); err != nil {
				m.logWarn("cleanup all: release failed", "lease", id, "error", err)
			}
		}(id)
	}
	wg.Wait()
}

// StartAutoCleanup begins a periodic sweep that invokes RunAutoCleanup
// every configured sweep interval. Idempotent: calling it more than
// once while a sweep timer is already running has no additional effect.
func (m *Manager) StartAutoCleanup(ctx context.Context) {
	m.mu.Lock()
	if m.cleanupRunning || m.sweepInterval <= 0 {
		m.mu.Unlock()
		return
	}
	m.cleanupRunning = true
	stop := make(chan struct{})
	m.cleanupStop = stop
	interval := m.sweepInterval
	m.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.RunAutoCleanup(ctx)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// StopAutoCleanup stops the periodic sweep started by StartAutoCleanup.
// A call with no sweep running is a no-op.
func (m *Manager) StopAutoCleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.cleanupRunning {
		return
	}
	close(m.cleanupStop)
	m.cleanupRunning = false
}

// RunAutoCleanup is the single-shot sweep: every live lease whose
// AcquiredAt is older than the configured max age is forcibly released.
// Leases acquired more recently are left alone.
func (m *Manager) RunAutoCleanup(ctx context.Context) {
	if m.maxAge <= 0 {
		return
	}
	cutoff := time.Now().Add(-m.maxAge)

	m.mu.Lock()
	var stale []string
	for id, rec := range m.leases {
		if rec != nil && !rec.released && rec.lease.AcquiredAt.Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	for _, id := range stale {
		if err := m.Release(ctx, id); err != nil {
			m.logWarn("auto cleanup: release failed", "lease", id, "error", err)
		}
	}
}

func (m *Manager) logWarn(msg string, kvs ...any) {
	if m.logger == nil {
		return
	}
	m.logger.Warn(msg, kvs...)
}
