package paging

import (
	"fmt"
	"maps"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/memory/process"
)

// EvictFunc is called for every page taken from a previous owner during a
// page fault, before the page is handed to the requester.
type EvictFunc func(ownerID, page int)

// Allocator manages a fixed-length page table.
type Allocator struct {
	totalPages int
	pageSize   int

	table  []bool      // page -> allocated
	owners map[int]int // page -> process id
	free   []int       // free list, taken from the front

	fifo  *fifoQueue
	lru   *lruList
	clock uint64 // LRU logical clock

	policy  Policy
	onEvict EvictFunc

	stats allocatorStats
}

// allocatorStats holds counters for instrumentation and tests.
type allocatorStats struct {
	AllocCalls   int // Total Allocate() calls
	Faults       int // Allocations that went through the fault path
	FailedFaults int // Faults that could not be satisfied
	Evictions    int // Pages reassigned from one owner to another
	FreeCalls    int // Total Deallocate() calls
}

// Stats is a point-in-time view of the page table.
type Stats struct {
	TotalPages    int     `json:"total_pages"`
	FreePages     int     `json:"free_pages"`
	UsedPages     int     `json:"used_pages"`
	PageSize      int     `json:"page_size"`
	Policy        string  `json:"policy"`
	Fragmentation float64 `json:"fragmentation"`
	Faults        int     `json:"faults"`
	Evictions     int     `json:"evictions"`
}

// New creates an allocator over totalMemory/pageSize pages, all free, using
// FIFO replacement.
func New(totalMemory, pageSize int) (*Allocator, error) {
	if pageSize <= 0 || totalMemory < pageSize {
		return nil, fmt.Errorf("%w: total=%d page=%d", ErrBadConfig, totalMemory, pageSize)
	}
	totalPages := totalMemory / pageSize

	lru, err := newLRUList(totalPages)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}

	free := make([]int, totalPages)
	for i := range free {
		free[i] = i
	}

	return &Allocator{
		totalPages: totalPages,
		pageSize:   pageSize,
		table:      make([]bool, totalPages),
		owners:     make(map[int]int, totalPages),
		free:       free,
		fifo:       &fifoQueue{},
		lru:        lru,
		policy:     FIFO,
	}, nil
}

// OnEvict installs the eviction hook. A nil hook disables notification.
func (a *Allocator) OnEvict(fn EvictFunc) { a.onEvict = fn }

// Allocate gives p ceil(p.Size/pageSize) pages, from the free list when
// possible and through a page fault otherwise.
func (a *Allocator) Allocate(p *process.Process) error {
	a.stats.AllocCalls++
	need := p.PagesNeeded(a.pageSize)

	if len(a.free) >= need {
		for range need {
			page := a.free[0]
			a.free = a.free[1:]
			a.grant(p, page)
		}
		logger.L.Debug("paging: allocated",
			"pid", p.ID, "pages", need, "bytes", humanize.Comma(int64(need*a.pageSize)),
			"free", len(a.free))
		return nil
	}

	return a.handleFault(p, need)
}

// handleFault reassigns need victim pages to p.
func (a *Allocator) handleFault(p *process.Process, need int) error {
	a.stats.Faults++

	if need > a.totalPages {
		a.stats.FailedFaults++
		logger.L.Debug("paging: process too large", "pid", p.ID, "need", need, "total", a.totalPages)
		return fmt.Errorf("%w: pid %d needs %d of %d pages", ErrProcessTooLarge, p.ID, need, a.totalPages)
	}

	victims := a.replacer().Victims(need)
	if len(victims) < need {
		a.stats.FailedFaults++
		logger.L.Debug("paging: fault unsatisfied", "pid", p.ID, "need", need, "victims", len(victims))
		return fmt.Errorf("%w: pid %d needs %d, found %d (%s)", ErrNoVictims, p.ID, need, len(victims), a.policy)
	}

	for _, page := range victims {
		prev := a.owners[page]
		a.stats.Evictions++
		if a.onEvict != nil {
			a.onEvict(prev, page)
		}
		a.grant(p, page)
	}

	logger.L.Debug("paging: fault handled", "pid", p.ID, "policy", a.policy, "victims", victims)
	return nil
}

func (a *Allocator) grant(p *process.Process, page int) {
	a.table[page] = true
	a.owners[page] = p.ID
	p.AddPage(page)
	stamp := a.tick()
	a.fifo.Admit(page, stamp)
	a.lru.Admit(page, stamp)
}

func (a *Allocator) tick() uint64 {
	s := a.clock
	a.clock++
	return s
}

// replacer returns the tracker consulted by the active policy.
func (a *Allocator) replacer() Replacer {
	switch a.policy {
	case LRU, Optimal:
		// Optimal would need the future reference string; LRU stands in.
		return a.lru
	default:
		return a.fifo
	}
}

// Deallocate returns every page p owns to the free list.
func (a *Allocator) Deallocate(p *process.Process) {
	a.stats.FreeCalls++
	pages := p.Pages()
	for _, page := range pages {
		if owner, ok := a.owners[page]; !ok || owner != p.ID {
			continue
		}
		a.table[page] = false
		delete(a.owners, page)
		a.free = append(a.free, page)
		a.fifo.Forget(page)
		a.lru.Forget(page)
	}
	p.ClearPages()
	logger.L.Debug("paging: deallocated", "pid", p.ID, "pages", len(pages), "free", len(a.free))
}

// Access refreshes the LRU stamp of an allocated page. Free or out-of-range
// pages are ignored.
func (a *Allocator) Access(page int) {
	if page < 0 || page >= a.totalPages || !a.table[page] {
		return
	}
	a.lru.Touch(page, a.tick())
}

// Translate maps a logical address within p to a physical address. The k-th
// logical page is the k-th page granted to p.
func (a *Allocator) Translate(p *process.Process, addr int) (int, error) {
	pages := p.Pages()
	if addr < 0 || addr/a.pageSize >= len(pages) {
		return 0, fmt.Errorf("%w: pid %d address %d", ErrAddressFault, p.ID, addr)
	}
	frame := pages[addr/a.pageSize]
	return frame*a.pageSize + addr%a.pageSize, nil
}

// SetPolicy selects the policy the next fault uses. Queued history is kept.
func (a *Allocator) SetPolicy(policy Policy) { a.policy = policy }

// Policy returns the current replacement policy.
func (a *Allocator) Policy() Policy { return a.policy }

// TotalPages returns the number of physical pages.
func (a *Allocator) TotalPages() int { return a.totalPages }

// PageSize returns the size of one page in memory units.
func (a *Allocator) PageSize() int { return a.pageSize }

// FreePages returns the number of unallocated pages.
func (a *Allocator) FreePages() int { return len(a.free) }

// TotalMemory is the addressable memory, totalPages*pageSize.
func (a *Allocator) TotalMemory() int { return a.totalPages * a.pageSize }

// FreeMemory is the free page count in memory units.
func (a *Allocator) FreeMemory() int { return len(a.free) * a.pageSize }

// PageTable returns a copy of the allocated flags.
func (a *Allocator) PageTable() []bool { return slices.Clone(a.table) }

// Owners returns a copy of the page -> process id map.
func (a *Allocator) Owners() map[int]int { return maps.Clone(a.owners) }

// Fragmentation is the free page share in percent, or 0 while nothing is
// allocated.
func (a *Allocator) Fragmentation() float64 {
	if len(a.free) == a.totalPages {
		return 0
	}
	return float64(len(a.free)) / float64(a.totalPages) * 100
}

// Stats returns a snapshot of page usage and fault counters.
func (a *Allocator) Stats() Stats {
	return Stats{
		TotalPages:    a.totalPages,
		FreePages:     len(a.free),
		UsedPages:     a.totalPages - len(a.free),
		PageSize:      a.pageSize,
		Policy:        a.policy.String(),
		Fragmentation: a.Fragmentation(),
		Faults:        a.stats.Faults,
		Evictions:     a.stats.Evictions,
	}
}
