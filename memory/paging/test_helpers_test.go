package paging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsim/memory/process"
)

// newTestAllocator builds an allocator whose eviction hook keeps the given
// registry consistent, the way memory.Manager wires it.
func newTestAllocator(t testing.TB, total, pageSize int, reg *process.Registry) *Allocator {
	t.Helper()
	a, err := New(total, pageSize)
	require.NoError(t, err)
	if reg != nil {
		a.OnEvict(func(owner, page int) {
			if p := reg.Lookup(owner); p != nil {
				p.RemovePage(page)
			}
		})
	}
	return a
}

func mustCreate(t testing.TB, reg *process.Registry, name string, size int) *process.Process {
	t.Helper()
	p, err := reg.Create(name, size, 5)
	require.NoError(t, err)
	return p
}

// assertPartition verifies that free pages and owned pages partition the page
// table and that every process lists exactly the pages the owner map gives it.
func assertPartition(t testing.TB, a *Allocator, procs ...*process.Process) {
	t.Helper()

	seen := make(map[int]string, a.TotalPages())
	for _, page := range a.free {
		_, dup := seen[page]
		require.False(t, dup, "page %d listed twice in free list", page)
		seen[page] = "free"
		assert.False(t, a.table[page], "free page %d marked allocated", page)
		_, owned := a.owners[page]
		assert.False(t, owned, "free page %d has an owner", page)
	}

	for _, p := range procs {
		for _, page := range p.Pages() {
			where, dup := seen[page]
			require.False(t, dup, "page %d owned by pid %d is also %s", page, p.ID, where)
			seen[page] = "owned"
			assert.True(t, a.table[page], "owned page %d not marked allocated", page)
			assert.Equal(t, p.ID, a.owners[page], "owner map disagrees for page %d", page)
		}
	}

	assert.Len(t, seen, a.TotalPages(), "free and owned pages must cover the table")
	assert.Equal(t, len(a.owners), a.TotalPages()-len(a.free))
	assert.Equal(t, len(a.owners), len(a.fifo.order), "FIFO tracks every allocated page")
	assert.Equal(t, len(a.owners), a.lru.Len(), "LRU tracks every allocated page")
}
