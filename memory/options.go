package memory

import (
	"fmt"

	"github.com/joshuapare/memsim/memory/paging"
)

// Options configures a Manager. All sizes are in memory units.
type Options struct {
	// TotalMemory is the size of the simulated memory.
	// Default: 1024
	TotalMemory int

	// PageSize is the paging block size. Memory beyond the last whole page is
	// not addressable under paging.
	// Default: 64
	PageSize int

	// MinProcessSize and MaxProcessSize bound generated workloads. The
	// manager itself accepts any positive size.
	// Default: 16 and 256
	MinProcessSize int
	MaxProcessSize int

	// Strategy is the allocator active after New and Reset.
	// Default: StrategyPaging
	Strategy StrategyKind

	// Policy is the initial page replacement policy.
	// Default: paging.FIFO
	Policy paging.Policy
}

// DefaultOptions returns the classic 1024/64 configuration.
func DefaultOptions() *Options {
	return &Options{
		TotalMemory:    1024,
		PageSize:       64,
		MinProcessSize: 16,
		MaxProcessSize: 256,
		Strategy:       StrategyPaging,
		Policy:         paging.FIFO,
	}
}

// Validate checks the options for internal consistency.
func (o *Options) Validate() error {
	switch {
	case o.TotalMemory <= 0:
		return fmt.Errorf("%w: total memory %d", ErrBadOptions, o.TotalMemory)
	case o.PageSize <= 0 || o.PageSize > o.TotalMemory:
		return fmt.Errorf("%w: page size %d for total %d", ErrBadOptions, o.PageSize, o.TotalMemory)
	case o.MinProcessSize < 0 || o.MaxProcessSize < o.MinProcessSize:
		return fmt.Errorf("%w: process size bounds [%d, %d]", ErrBadOptions, o.MinProcessSize, o.MaxProcessSize)
	case o.Strategy != StrategyPaging && o.Strategy != StrategySegmentation:
		return fmt.Errorf("%w: strategy %v", ErrBadOptions, o.Strategy)
	case o.Policy < paging.FIFO || o.Policy > paging.Optimal:
		return fmt.Errorf("%w: policy %v", ErrBadOptions, o.Policy)
	}
	return nil
}
