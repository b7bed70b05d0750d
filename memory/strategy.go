package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/memory/paging"
	"github.com/joshuapare/memsim/memory/process"
	"github.com/joshuapare/memsim/memory/segment"
)

// StrategyKind names a memory-management strategy.
type StrategyKind int

const (
	StrategyPaging StrategyKind = iota
	StrategySegmentation
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyPaging:
		return "PAGING"
	case StrategySegmentation:
		return "SEGMENTATION"
	default:
		return fmt.Sprintf("StrategyKind(%d)", int(k))
	}
}

// MarshalText renders the kind by name.
func (k StrategyKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ParseStrategy accepts "paging" and "segmentation" (or their first letter),
// case-insensitively.
func ParseStrategy(s string) (StrategyKind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PAGING", "P":
		return StrategyPaging, nil
	case "SEGMENTATION", "S":
		return StrategySegmentation, nil
	}
	return StrategyPaging, fmt.Errorf("%w: unknown strategy %q", ErrBadOptions, s)
}

// Usage is the memory accounting a Strategy reports.
type Usage struct {
	Total         int
	Free          int
	Fragmentation float64
}

// Strategy is the capability the Manager needs from an allocator.
type Strategy interface {
	Kind() StrategyKind
	// Allocate gives p all the memory it needs or none of it.
	Allocate(p *process.Process) error
	// Deallocate releases everything p holds. Unknown processes are ignored.
	Deallocate(p *process.Process)
	Usage() Usage
}

type pagingStrategy struct {
	a *paging.Allocator
}

func (s pagingStrategy) Kind() StrategyKind { return StrategyPaging }

func (s pagingStrategy) Allocate(p *process.Process) error {
	err := s.a.Allocate(p)
	if errors.Is(err, paging.ErrProcessTooLarge) || errors.Is(err, paging.ErrNoVictims) {
		return fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
	}
	return err
}

func (s pagingStrategy) Deallocate(p *process.Process) { s.a.Deallocate(p) }

func (s pagingStrategy) Usage() Usage {
	return Usage{Total: s.a.TotalMemory(), Free: s.a.FreeMemory(), Fragmentation: s.a.Fragmentation()}
}

type segmentStrategy struct {
	a *segment.Allocator
}

func (s segmentStrategy) Kind() StrategyKind { return StrategySegmentation }

// Allocate requests CODE, DATA and STACK segments of size/3, size/3 and the
// remainder. Zero-sized parts are skipped. Any failure releases the parts
// already granted.
func (s segmentStrategy) Allocate(p *process.Process) error {
	for _, part := range splitSegments(p.Size) {
		if part.size == 0 {
			continue
		}
		if _, err := s.a.Allocate(p, part.size, part.kind); err != nil {
			s.a.Deallocate(p)
			logger.L.Debug("memory: segmentation rolled back", "pid", p.ID, "kind", part.kind, "err", err)
			if errors.Is(err, segment.ErrNoSpace) {
				err = fmt.Errorf("%w: %w", ErrCapacityExceeded, err)
			}
			return fmt.Errorf("%w: %w", ErrPartialAllocation, err)
		}
	}
	return nil
}

func (s segmentStrategy) Deallocate(p *process.Process) { s.a.Deallocate(p) }

func (s segmentStrategy) Usage() Usage {
	return Usage{Total: s.a.TotalMemory(), Free: s.a.FreeMemory(), Fragmentation: s.a.Fragmentation()}
}

type segmentPart struct {
	kind segment.Kind
	size int
}

// splitSegments divides size into CODE, DATA and STACK parts that sum to size.
func splitSegments(size int) [3]segmentPart {
	code := size / 3
	data := size / 3
	return [3]segmentPart{
		{segment.Code, code},
		{segment.Data, data},
		{segment.Stack, size - code - data},
	}
}
