package memory

import (
	"github.com/joshuapare/memsim/memory/paging"
	"github.com/joshuapare/memsim/memory/segment"
)

// Paging views and controls. They act on the paging allocator whether or not
// it is the active strategy.

// SetPolicy selects the replacement policy used by the next page fault.
func (m *Manager) SetPolicy(policy paging.Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paging.SetPolicy(policy)
}

func (m *Manager) Policy() paging.Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paging.Policy()
}

// AccessPage records an access to page for LRU purposes.
func (m *Manager) AccessPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paging.Access(page)
}

func (m *Manager) PageTable() []bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paging.PageTable()
}

// PageOwners maps every allocated page to its process id.
func (m *Manager) PageOwners() map[int]int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paging.Owners()
}

func (m *Manager) FreePages() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paging.FreePages()
}

func (m *Manager) TotalPages() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paging.TotalPages()
}

func (m *Manager) PageSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paging.PageSize()
}

func (m *Manager) PagingStats() paging.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paging.Stats()
}

// TranslatePage maps a logical address of process id to a physical address
// under paging.
func (m *Manager) TranslatePage(id, addr int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	return m.paging.Translate(p, addr)
}

// Segmentation views and controls.

// Segments returns the segment list in address order.
func (m *Manager) Segments() []segment.Segment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.segment.Segments()
}

func (m *Manager) SegmentStats() segment.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.segment.Stats()
}

func (m *Manager) FreeBlockStats() segment.FreeBlockStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.segment.FreeBlockStats()
}

// Compact runs segment compaction on demand.
func (m *Manager) Compact() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.segment.Compact()
}

// TranslateSegment maps offset within the kind segment of process id to an
// absolute address under segmentation.
func (m *Manager) TranslateSegment(id int, kind segment.Kind, offset int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	return m.segment.Translate(p, kind, offset)
}
