package segment

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/memory/process"
)

// Allocator manages an ordered segment list with best-fit placement.
type Allocator struct {
	total int

	// segs is sorted by Start and covers [0, total) without gaps.
	segs []*Segment

	// byProc indexes the segments each process owns, in grant order.
	byProc map[int][]ID

	nextID ID
	stats  allocatorStats
}

// allocatorStats holds counters for instrumentation and tests.
type allocatorStats struct {
	AllocCalls   int // Total Allocate() calls
	FailedAllocs int // Allocations that found no space even after compaction
	SplitCount   int // Free segments split into allocated prefix + free remainder
	MergeCount   int // Free segments absorbed into a preceding free neighbour
	Compactions  int // Compact() runs, manual or triggered by allocation
	FreeCalls    int // Total Deallocate() calls
}

// Stats is a point-in-time view of the segment list.
type Stats struct {
	TotalMemory   int     `json:"total_memory"`
	FreeMemory    int     `json:"free_memory"`
	UsedMemory    int     `json:"used_memory"`
	Segments      int     `json:"segments"`
	FreeBlocks    int     `json:"free_blocks"`
	LargestFree   int     `json:"largest_free"`
	Fragmentation float64 `json:"fragmentation"`
	Compactions   int     `json:"compactions"`
}

// New creates an allocator with a single free segment [0, totalMemory).
func New(totalMemory int) (*Allocator, error) {
	if totalMemory <= 0 {
		return nil, fmt.Errorf("%w: total=%d", ErrBadConfig, totalMemory)
	}
	a := &Allocator{
		total:  totalMemory,
		byProc: make(map[int][]ID),
		nextID: 1,
	}
	a.segs = []*Segment{{ID: a.newID(), Start: 0, Size: totalMemory, Kind: Free}}
	return a, nil
}

func (a *Allocator) newID() ID {
	id := a.nextID
	a.nextID++
	return id
}

// Allocate places a segment of exactly size units for p and records its ID
// on p.
func (a *Allocator) Allocate(p *process.Process, size int, kind Kind) (ID, error) {
	a.stats.AllocCalls++
	if size <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if kind == Free || kind > Stack {
		return 0, fmt.Errorf("%w: %s", ErrBadKind, kind)
	}

	i := a.findBestFit(size)
	if i < 0 {
		logger.L.Debug("segment: no fit, compacting", "pid", p.ID, "size", size, "free", a.FreeMemory())
		a.Compact()
		i = a.findBestFit(size)
	}
	if i < 0 {
		a.stats.FailedAllocs++
		return 0, fmt.Errorf("%w: pid %d %s needs %s, largest free %s",
			ErrNoSpace, p.ID, kind, humanize.Comma(int64(size)), humanize.Comma(int64(a.largestFree())))
	}

	best := a.segs[i]
	if best.Size > size {
		rest := &Segment{ID: a.newID(), Start: best.Start + size, Size: best.Size - size, Kind: Free}
		a.segs = slices.Insert(a.segs, i+1, rest)
		a.stats.SplitCount++
	}

	best.ID = a.newID()
	best.Size = size
	best.Allocated = true
	best.Owner = p.ID
	best.Kind = kind

	a.byProc[p.ID] = append(a.byProc[p.ID], best.ID)
	p.AddSegment(best.ID)

	logger.L.Debug("segment: allocated", "pid", p.ID, "kind", kind, "id", best.ID, "start", best.Start, "size", size)
	return best.ID, nil
}

// findBestFit returns the index of the smallest free segment of at least need
// units, or -1. Ties go to the lowest address since the scan is ascending.
func (a *Allocator) findBestFit(need int) int {
	best := -1
	for i, s := range a.segs {
		if s.Allocated || s.Size < need {
			continue
		}
		if best < 0 || s.Size < a.segs[best].Size {
			best = i
		}
	}
	return best
}

// Deallocate frees every segment p owns and coalesces free neighbours.
func (a *Allocator) Deallocate(p *process.Process) {
	a.stats.FreeCalls++
	ids, ok := a.byProc[p.ID]
	p.ClearSegments()
	if !ok {
		return
	}

	for _, s := range a.segs {
		if s.Allocated && s.Owner == p.ID && slices.Contains(ids, s.ID) {
			s.Allocated = false
			s.Owner = 0
			s.Kind = Free
		}
	}
	delete(a.byProc, p.ID)
	a.mergeAdjacent()

	logger.L.Debug("segment: deallocated", "pid", p.ID, "segments", len(ids), "free", a.FreeMemory())
}

func (a *Allocator) sortSegments() {
	slices.SortFunc(a.segs, func(x, y *Segment) int { return cmp.Compare(x.Start, y.Start) })
}

// mergeAdjacent coalesces every run of consecutive free segments. Allocated
// segments are never merged.
func (a *Allocator) mergeAdjacent() {
	a.sortSegments()
	merged := make([]*Segment, 0, len(a.segs))
	for _, s := range a.segs {
		if n := len(merged); n > 0 {
			last := merged[n-1]
			if !last.Allocated && !s.Allocated && last.End()+1 == s.Start {
				last.Size += s.Size
				a.stats.MergeCount++
				continue
			}
		}
		merged = append(merged, s)
	}
	a.segs = merged
}

// Compact moves allocated segments to the bottom of memory in their current
// order and gathers all free space into one trailing segment. Segment IDs are
// preserved, so process handles stay valid.
func (a *Allocator) Compact() {
	a.stats.Compactions++
	before := a.Fragmentation()

	compacted := make([]*Segment, 0, len(a.segs))
	addr := 0
	for _, s := range a.segs {
		if !s.Allocated {
			continue
		}
		s.Start = addr
		addr += s.Size
		compacted = append(compacted, s)
	}
	if free := a.total - addr; free > 0 {
		compacted = append(compacted, &Segment{ID: a.newID(), Start: addr, Size: free, Kind: Free})
	}
	a.segs = compacted

	logger.L.Debug("segment: compacted", "segments", len(a.segs),
		"fragmentation_before", before, "free", humanize.Comma(int64(a.total-addr)))
}

// Translate maps offset within p's segment of the given kind to an absolute
// address.
func (a *Allocator) Translate(p *process.Process, kind Kind, offset int) (int, error) {
	for _, s := range a.segs {
		if !s.Allocated || s.Owner != p.ID || s.Kind != kind {
			continue
		}
		if offset < 0 || offset >= s.Size {
			return 0, fmt.Errorf("%w: pid %d %s offset %d exceeds limit %d", ErrAddressFault, p.ID, kind, offset, s.Size)
		}
		return s.Start + offset, nil
	}
	return 0, fmt.Errorf("%w: pid %d has no %s segment", ErrAddressFault, p.ID, kind)
}

// Segments returns a copy of the segment list in address order.
func (a *Allocator) Segments() []Segment {
	out := make([]Segment, len(a.segs))
	for i, s := range a.segs {
		out[i] = *s
	}
	return out
}

// Lookup returns the segment with id.
func (a *Allocator) Lookup(id ID) (Segment, bool) {
	for _, s := range a.segs {
		if s.ID == id {
			return *s, true
		}
	}
	return Segment{}, false
}

// ProcessSegments returns the segments owned by pid in grant order.
func (a *Allocator) ProcessSegments(pid int) []Segment {
	ids := a.byProc[pid]
	out := make([]Segment, 0, len(ids))
	for _, id := range ids {
		if s, ok := a.Lookup(id); ok {
			out = append(out, s)
		}
	}
	return out
}

// TotalMemory returns the size of the managed region.
func (a *Allocator) TotalMemory() int { return a.total }

// FreeMemory sums the sizes of all free segments.
func (a *Allocator) FreeMemory() int {
	free := 0
	for _, s := range a.segs {
		if !s.Allocated {
			free += s.Size
		}
	}
	return free
}

func (a *Allocator) largestFree() int {
	largest := 0
	for _, s := range a.segs {
		if !s.Allocated {
			largest = max(largest, s.Size)
		}
	}
	return largest
}

// Fragmentation returns (totalFree - largestFree) / totalFree * 100, or 0
// when there is no free memory.
func (a *Allocator) Fragmentation() float64 {
	totalFree := a.FreeMemory()
	if totalFree == 0 {
		return 0
	}
	return float64(totalFree-a.largestFree()) / float64(totalFree) * 100
}

// Stats returns a snapshot of segment usage and fragmentation.
func (a *Allocator) Stats() Stats {
	free := a.FreeMemory()
	blocks := 0
	for _, s := range a.segs {
		if !s.Allocated {
			blocks++
		}
	}
	return Stats{
		TotalMemory:   a.total,
		FreeMemory:    free,
		UsedMemory:    a.total - free,
		Segments:      len(a.segs),
		FreeBlocks:    blocks,
		LargestFree:   a.largestFree(),
		Fragmentation: a.Fragmentation(),
		Compactions:   a.stats.Compactions,
	}
}
