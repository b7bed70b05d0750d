package memory

import (
	"fmt"
	"sync"

	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/memory/paging"
	"github.com/joshuapare/memsim/memory/process"
	"github.com/joshuapare/memsim/memory/segment"
)

// Manager owns the process registry and both allocators.
type Manager struct {
	mu sync.RWMutex

	opts  Options
	procs *process.Registry

	paging  *paging.Allocator
	segment *segment.Allocator

	strategies [2]Strategy
	active     Strategy
}

// New builds a Manager from opts. A nil opts means DefaultOptions().
func New(opts *Options) (*Manager, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		opts:  *opts,
		procs: process.NewRegistry(),
	}
	if err := m.rebuild(opts.Strategy, opts.Policy); err != nil {
		return nil, err
	}
	logger.L.Info("memory: manager ready",
		"total", opts.TotalMemory, "page_size", opts.PageSize, "strategy", opts.Strategy, "policy", opts.Policy)
	return m, nil
}

// rebuild replaces both allocators with empty ones. Callers hold mu or own m
// exclusively.
func (m *Manager) rebuild(kind StrategyKind, policy paging.Policy) error {
	pa, err := paging.New(m.opts.TotalMemory, m.opts.PageSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadOptions, err)
	}
	sa, err := segment.New(m.opts.TotalMemory)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadOptions, err)
	}
	pa.SetPolicy(policy)
	pa.OnEvict(m.evicted)

	m.paging = pa
	m.segment = sa
	m.strategies = [2]Strategy{pagingStrategy{pa}, segmentStrategy{sa}}
	m.active = m.strategies[kind]
	return nil
}

// evicted removes a page from its previous owner's record during a fault.
func (m *Manager) evicted(ownerID, page int) {
	if p := m.procs.Lookup(ownerID); p != nil {
		p.RemovePage(page)
		logger.L.Debug("memory: page evicted", "pid", ownerID, "page", page, "remaining", len(p.Pages()))
	}
}

// CreateProcess registers an active process. It does not allocate memory.
func (m *Manager) CreateProcess(name string, size, priority int) (process.Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.procs.Create(name, size, priority)
	if err != nil {
		return process.Info{}, err
	}
	logger.L.Debug("memory: process created", "pid", p.ID, "name", p.Name, "size", p.Size)
	return p.Snapshot(), nil
}

func (m *Manager) lookup(id int) (*process.Process, error) {
	p := m.procs.Lookup(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProcess, id)
	}
	return p, nil
}

// Allocate gives process id its memory under the active strategy. Memory the
// process already holds is released first. On failure the process is left
// inactive and owns nothing.
func (m *Manager) Allocate(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(id)
	if err != nil {
		return err
	}
	return m.allocate(p)
}

func (m *Manager) allocate(p *process.Process) error {
	if p.HasMemory() {
		m.active.Deallocate(p)
	}
	if err := m.active.Allocate(p); err != nil {
		p.SetActive(false)
		logger.L.Debug("memory: allocation failed", "pid", p.ID, "strategy", m.active.Kind(), "err", err)
		return err
	}
	p.SetActive(true)
	return nil
}

// Deallocate releases the memory of process id and marks it inactive. The
// process stays registered.
func (m *Manager) Deallocate(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(id)
	if err != nil {
		return err
	}
	m.deallocate(p)
	return nil
}

func (m *Manager) deallocate(p *process.Process) {
	m.active.Deallocate(p)
	p.SetActive(false)
}

// Terminate deallocates process id and removes it permanently.
func (m *Manager) Terminate(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.lookup(id)
	if err != nil {
		return err
	}
	m.deallocate(p)
	m.procs.Remove(id)
	logger.L.Debug("memory: process terminated", "pid", id)
	return nil
}

// DeallocateAll releases every process's memory and marks all inactive.
func (m *Manager) DeallocateAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.procs.All() {
		m.deallocate(p)
	}
}

// Reallocate releases every active process and allocates them again in
// creation order, which packs them from the bottom of memory. It returns the
// number of processes that no longer fit.
func (m *Manager) Reallocate() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.procs.Active()
	for _, p := range active {
		m.deallocate(p)
	}
	failed := 0
	for _, p := range active {
		if m.allocate(p) != nil {
			failed++
		}
	}
	return failed
}

// SetStrategy switches the active allocator. Active processes are drained
// under the outgoing strategy, then every inactive process is reactivated and
// allocated under the new one. It returns the number of processes that could
// not be placed; they stay inactive.
func (m *Manager) SetStrategy(kind StrategyKind) (int, error) {
	if kind != StrategyPaging && kind != StrategySegmentation {
		return 0, fmt.Errorf("%w: strategy %v", ErrBadOptions, kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.procs.Active() {
		m.deallocate(p)
	}

	from := m.active.Kind()
	m.active = m.strategies[kind]

	failed := 0
	for _, p := range m.procs.All() {
		if p.Active() {
			continue
		}
		if m.allocate(p) != nil {
			failed++
		}
	}

	logger.L.Info("memory: strategy switched", "from", from, "to", kind,
		"processes", m.procs.Len(), "unplaced", failed)
	return failed, nil
}

// Strategy returns the active strategy kind.
func (m *Manager) Strategy() StrategyKind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active.Kind()
}

// Reset forgets every process and rebuilds both allocators empty. The active
// strategy and replacement policy are kept.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.procs.Reset()
	// Options were validated in New, so rebuild cannot fail.
	if err := m.rebuild(m.active.Kind(), m.paging.Policy()); err != nil {
		logger.L.Error("memory: reset failed", "err", err)
		return
	}
	logger.L.Info("memory: reset", "strategy", m.active.Kind())
}

// Options returns the configuration the manager was built with.
func (m *Manager) Options() Options {
	return m.opts
}

// Lookup returns a snapshot of process id.
func (m *Manager) Lookup(id int) (process.Info, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.procs.Lookup(id)
	if p == nil {
		return process.Info{}, false
	}
	return p.Snapshot(), true
}

// Processes returns snapshots of every registered process in creation order.
func (m *Manager) Processes() []process.Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return snapshots(m.procs.All())
}

// ActiveProcesses returns snapshots of the active processes.
func (m *Manager) ActiveProcesses() []process.Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return snapshots(m.procs.Active())
}

func snapshots(procs []*process.Process) []process.Info {
	out := make([]process.Info, len(procs))
	for i, p := range procs {
		out[i] = p.Snapshot()
	}
	return out
}
