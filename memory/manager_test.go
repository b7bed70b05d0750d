package memory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsim/memory/paging"
	"github.com/joshuapare/memsim/memory/process"
	"github.com/joshuapare/memsim/memory/segment"
)

func newTestManager(t testing.TB, mutate func(*Options)) *Manager {
	t.Helper()
	opts := DefaultOptions()
	if mutate != nil {
		mutate(opts)
	}
	m, err := New(opts)
	require.NoError(t, err)
	return m
}

func createAndAllocate(t testing.TB, m *Manager, name string, size int) process.Info {
	t.Helper()
	p, err := m.CreateProcess(name, size, 5)
	require.NoError(t, err)
	require.NoError(t, m.Allocate(p.ID))
	info, ok := m.Lookup(p.ID)
	require.True(t, ok)
	return info
}

// assertConsistent checks the cross-component invariants: the page owner map
// matches the processes' page lists, and the segment list is a gapless,
// merged cover whose owners are active processes.
func assertConsistent(t testing.TB, m *Manager) {
	t.Helper()

	procs := m.Processes()
	byID := make(map[int]process.Info, len(procs))
	for _, p := range procs {
		byID[p.ID] = p
	}

	owners := m.PageOwners()
	listed := 0
	for _, p := range procs {
		for _, page := range p.Pages {
			assert.Equal(t, p.ID, owners[page], "page %d listed by pid %d", page, p.ID)
			listed++
		}
	}
	assert.Equal(t, len(owners), listed, "every owned page is listed exactly once")
	assert.Equal(t, m.TotalPages()-m.FreePages(), len(owners))

	segs := m.Segments()
	require.NotEmpty(t, segs)
	assert.Equal(t, 0, segs[0].Start)
	for i, s := range segs {
		if i > 0 {
			assert.Equal(t, segs[i-1].End()+1, s.Start, "gap before %v", s)
			assert.False(t, !segs[i-1].Allocated && !s.Allocated, "adjacent free segments at %d", s.Start)
		}
		if s.Allocated {
			owner, ok := byID[s.Owner]
			if assert.True(t, ok, "segment %v owned by unknown pid", s) {
				assert.True(t, owner.Active, "segment %v owned by inactive pid", s)
				assert.Contains(t, owner.Segments, s.ID)
			}
		}
	}
	assert.Equal(t, m.Options().TotalMemory-1, segs[len(segs)-1].End())
}

func TestNew_Options(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, StrategyPaging, m.Strategy())
	assert.Equal(t, 16, m.TotalPages())
	assert.Equal(t, 64, m.PageSize())
	assert.Equal(t, paging.FIFO, m.Policy())

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"zero total", func(o *Options) { o.TotalMemory = 0 }},
		{"zero page", func(o *Options) { o.PageSize = 0 }},
		{"page larger than total", func(o *Options) { o.PageSize = 2048 }},
		{"inverted bounds", func(o *Options) { o.MinProcessSize = 300 }},
		{"bad strategy", func(o *Options) { o.Strategy = 7 }},
		{"bad policy", func(o *Options) { o.Policy = 9 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			tc.mutate(opts)
			_, err := New(opts)
			assert.True(t, errors.Is(err, ErrBadOptions))
		})
	}
}

func TestManager_EndToEndPaging(t *testing.T) {
	m := newTestManager(t, nil)

	var ids []int
	for _, name := range []string{"Browser", "Compiler", "Database"} {
		info := createAndAllocate(t, m, name, 130)
		assert.Len(t, info.Pages, 3)
		ids = append(ids, info.ID)
	}
	assert.Equal(t, 7, m.FreePages())

	p4 := createAndAllocate(t, m, "WebServer", 256)
	assert.Len(t, p4.Pages, 4)
	assert.Equal(t, 3, m.FreePages())

	p5 := createAndAllocate(t, m, "GameEngine", 320)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, p5.Pages)

	first, ok := m.Lookup(ids[0])
	require.True(t, ok)
	assert.Empty(t, first.Pages, "victim record updated on eviction")
	assertConsistent(t, m)

	st := m.Stats()
	assert.Equal(t, "PAGING", st.Strategy)
	assert.Equal(t, 1024, st.TotalMemory)
	assert.Equal(t, 13*64, st.UsedMemory)
	assert.Equal(t, 5, st.TotalProcesses)
	assert.Equal(t, 5, st.ActiveProcesses)
	assert.InDelta(t, 13.0/16*100, st.Utilization, 1e-9)
	assert.InDelta(t, 3.0/16*100, st.Fragmentation, 1e-9)
}

func TestManager_TooLargeForPaging(t *testing.T) {
	m := newTestManager(t, nil)
	p, err := m.CreateProcess("huge", 2000, 1)
	require.NoError(t, err)

	err = m.Allocate(p.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.True(t, errors.Is(err, paging.ErrProcessTooLarge))

	info, _ := m.Lookup(p.ID)
	assert.False(t, info.Active, "failed allocation leaves the process inactive")
	assert.Equal(t, 16, m.FreePages())
}

func TestManager_UnknownProcess(t *testing.T) {
	m := newTestManager(t, nil)
	createAndAllocate(t, m, "a", 64)
	before := m.Stats()

	for name, op := range map[string]func() error{
		"allocate":   func() error { return m.Allocate(99) },
		"deallocate": func() error { return m.Deallocate(99) },
		"terminate":  func() error { return m.Terminate(99) },
		"translate":  func() error { _, err := m.TranslatePage(99, 0); return err },
	} {
		err := op()
		assert.True(t, errors.Is(err, ErrUnknownProcess), name)
	}
	assert.Equal(t, before, m.Stats(), "unknown ids change nothing")
}

func TestManager_CreateProcessValidates(t *testing.T) {
	m := newTestManager(t, nil)
	_, err := m.CreateProcess("bad", 10, 0)
	assert.True(t, errors.Is(err, process.ErrInvalid))
	assert.Empty(t, m.Processes())
}

func TestManager_SegmentationSplit(t *testing.T) {
	m := newTestManager(t, func(o *Options) { o.Strategy = StrategySegmentation })

	info := createAndAllocate(t, m, "p", 100)
	require.Len(t, info.Segments, 3)

	var sizes []int
	var kinds []segment.Kind
	total := 0
	for _, s := range m.Segments() {
		if s.Allocated {
			sizes = append(sizes, s.Size)
			kinds = append(kinds, s.Kind)
			total += s.Size
		}
	}
	assert.Equal(t, []int{33, 33, 34}, sizes)
	assert.Equal(t, []segment.Kind{segment.Code, segment.Data, segment.Stack}, kinds)
	assert.Equal(t, 100, total)
	assertConsistent(t, m)
}

func TestManager_SegmentationTinyProcess(t *testing.T) {
	m := newTestManager(t, func(o *Options) { o.Strategy = StrategySegmentation })

	info := createAndAllocate(t, m, "tiny", 2)
	require.Len(t, info.Segments, 1, "zero-sized CODE and DATA are skipped")
	segs := m.Segments()
	assert.Equal(t, segment.Stack, segs[0].Kind)
	assert.Equal(t, 2, segs[0].Size)
}

func TestManager_SegmentationAllOrNothing(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.TotalMemory = 100
		o.PageSize = 10
		o.Strategy = StrategySegmentation
	})

	createAndAllocate(t, m, "big", 90)
	require.Equal(t, 10, m.SegmentStats().FreeMemory)

	p, err := m.CreateProcess("late", 30, 1)
	require.NoError(t, err)

	err = m.Allocate(p.ID)
	require.Error(t, err, "CODE fits in the last 10 units, DATA does not")
	assert.True(t, errors.Is(err, ErrPartialAllocation))
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.True(t, errors.Is(err, segment.ErrNoSpace))

	info, _ := m.Lookup(p.ID)
	assert.Empty(t, info.Segments, "rolled back")
	assert.False(t, info.Active)
	assert.Equal(t, 10, m.SegmentStats().FreeMemory)
	assertConsistent(t, m)
}

func TestManager_StrategySwitch(t *testing.T) {
	m := newTestManager(t, nil)
	info := createAndAllocate(t, m, "p", 130)
	require.Len(t, info.Pages, 3)

	failed, err := m.SetStrategy(StrategySegmentation)
	require.NoError(t, err)
	assert.Zero(t, failed)
	assert.Equal(t, StrategySegmentation, m.Strategy())

	info, _ = m.Lookup(info.ID)
	assert.True(t, info.Active)
	assert.Empty(t, info.Pages)
	require.Len(t, info.Segments, 3)

	total := 0
	for _, s := range m.Segments() {
		if s.Allocated {
			assert.Equal(t, info.ID, s.Owner)
			total += s.Size
		}
	}
	assert.Equal(t, 130, total, "CODE+DATA+STACK sum to the process size")
	assert.Equal(t, 16, m.FreePages(), "paging drained")
	assertConsistent(t, m)

	_, err = m.SetStrategy(StrategyPaging)
	require.NoError(t, err)
	info, _ = m.Lookup(info.ID)
	assert.Len(t, info.Pages, 3)
	assert.Empty(t, info.Segments)
	assert.Equal(t, 1024, m.SegmentStats().FreeMemory)
	assertConsistent(t, m)

	_, err = m.SetStrategy(StrategyKind(5))
	assert.True(t, errors.Is(err, ErrBadOptions))
}

func TestManager_StrategySwitchLeavesMisfitsInactive(t *testing.T) {
	// 1000 units hold 15 pages of 64 (960 units) under paging.
	m := newTestManager(t, func(o *Options) {
		o.TotalMemory = 1000
		o.Strategy = StrategySegmentation
	})
	fits := createAndAllocate(t, m, "fits", 20)
	misfit := createAndAllocate(t, m, "misfit", 970)
	require.True(t, misfit.Active)

	failed, err := m.SetStrategy(StrategyPaging)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	got, _ := m.Lookup(misfit.ID)
	assert.False(t, got.Active)
	assert.Empty(t, got.Pages)
	got, _ = m.Lookup(fits.ID)
	assert.True(t, got.Active)
	assert.Len(t, got.Pages, 1)

	st := m.Stats()
	assert.Equal(t, 960, st.TotalMemory)
	assert.Equal(t, 1, st.ActiveProcesses)
	assert.Equal(t, 2, st.TotalProcesses)
	assertConsistent(t, m)
}

func TestManager_DeallocateVersusTerminate(t *testing.T) {
	m := newTestManager(t, nil)
	a := createAndAllocate(t, m, "a", 64)
	b := createAndAllocate(t, m, "b", 64)

	require.NoError(t, m.Deallocate(a.ID))
	got, ok := m.Lookup(a.ID)
	require.True(t, ok, "deallocated process stays listed")
	assert.False(t, got.Active)
	assert.Empty(t, got.Pages)

	require.NoError(t, m.Terminate(b.ID))
	_, ok = m.Lookup(b.ID)
	assert.False(t, ok)

	assert.Len(t, m.Processes(), 1)
	assert.Empty(t, m.ActiveProcesses())
	assert.Equal(t, 16, m.FreePages())
	assertConsistent(t, m)
}

func TestManager_AllocateTwiceReleasesFirst(t *testing.T) {
	m := newTestManager(t, nil)
	p := createAndAllocate(t, m, "p", 128)
	require.NoError(t, m.Allocate(p.ID))

	got, _ := m.Lookup(p.ID)
	assert.Len(t, got.Pages, 2)
	assert.Equal(t, 14, m.FreePages())
	assertConsistent(t, m)
}

func TestManager_RoundTrip(t *testing.T) {
	for _, kind := range []StrategyKind{StrategyPaging, StrategySegmentation} {
		t.Run(kind.String(), func(t *testing.T) {
			m := newTestManager(t, func(o *Options) { o.Strategy = kind })
			createAndAllocate(t, m, "keep", 200)
			before := m.Stats().FreeMemory

			p := createAndAllocate(t, m, "p", 150)
			require.NoError(t, m.Deallocate(p.ID))
			assert.Equal(t, before, m.Stats().FreeMemory)
			assertConsistent(t, m)
		})
	}
}

func TestManager_DeallocateAllAndReallocate(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.TotalMemory = 300
		o.Strategy = StrategySegmentation
	})
	a := createAndAllocate(t, m, "a", 60)
	b := createAndAllocate(t, m, "b", 60)
	createAndAllocate(t, m, "c", 60)
	require.NoError(t, m.Deallocate(b.ID))
	assert.Greater(t, m.Stats().Fragmentation, 0.0)

	assert.Zero(t, m.Reallocate())
	assert.Equal(t, 0.0, m.Stats().Fragmentation, "active processes packed from address 0")
	got, _ := m.Lookup(a.ID)
	assert.True(t, got.Active)
	assertConsistent(t, m)

	m.DeallocateAll()
	assert.Empty(t, m.ActiveProcesses())
	assert.Equal(t, 300, m.Stats().FreeMemory)
	assertConsistent(t, m)
}

func TestManager_Compact(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.TotalMemory = 300
		o.Strategy = StrategySegmentation
	})
	createAndAllocate(t, m, "a", 30)
	b := createAndAllocate(t, m, "b", 30)
	createAndAllocate(t, m, "c", 30)
	require.NoError(t, m.Deallocate(b.ID))

	m.Compact()
	segs := m.Segments()
	last := segs[len(segs)-1]
	assert.False(t, last.Allocated)
	assert.Equal(t, 240, last.Size)
	assert.Equal(t, 1, m.FreeBlockStats().Count)
	assertConsistent(t, m)
}

func TestManager_Reset(t *testing.T) {
	m := newTestManager(t, nil)
	createAndAllocate(t, m, "a", 64)
	_, err := m.SetStrategy(StrategySegmentation)
	require.NoError(t, err)
	m.SetPolicy(paging.LRU)

	m.Reset()
	assert.Empty(t, m.Processes())
	assert.Equal(t, StrategySegmentation, m.Strategy(), "strategy survives reset")
	assert.Equal(t, paging.LRU, m.Policy(), "policy survives reset")
	assert.Equal(t, 1024, m.SegmentStats().FreeMemory)
	assert.Equal(t, 16, m.FreePages())

	p, err := m.CreateProcess("again", 10, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID, "ids restart")
}

func TestManager_PolicyAndAccess(t *testing.T) {
	m := newTestManager(t, func(o *Options) {
		o.TotalMemory = 256
		o.Policy = paging.LRU
	})
	a := createAndAllocate(t, m, "a", 128) // pages 0, 1
	b := createAndAllocate(t, m, "b", 128) // pages 2, 3
	m.AccessPage(0)
	m.AccessPage(1)

	c := createAndAllocate(t, m, "c", 64)
	assert.Equal(t, []int{2}, c.Pages, "b's first page is least recently used")

	got, _ := m.Lookup(b.ID)
	assert.Equal(t, []int{3}, got.Pages)
	got, _ = m.Lookup(a.ID)
	assert.Equal(t, []int{0, 1}, got.Pages)
	assert.Equal(t, 1, m.PagingStats().Evictions)
	assertConsistent(t, m)
}

func TestManager_Translate(t *testing.T) {
	m := newTestManager(t, nil)
	p := createAndAllocate(t, m, "p", 100)

	phys, err := m.TranslatePage(p.ID, 65)
	require.NoError(t, err)
	assert.Equal(t, 65, phys)

	_, err = m.SetStrategy(StrategySegmentation)
	require.NoError(t, err)
	addr, err := m.TranslateSegment(p.ID, segment.Data, 5)
	require.NoError(t, err)
	assert.Equal(t, 33+5, addr)
}

func TestParseStrategy(t *testing.T) {
	k, err := ParseStrategy("segmentation")
	require.NoError(t, err)
	assert.Equal(t, StrategySegmentation, k)
	k, err = ParseStrategy(" P ")
	require.NoError(t, err)
	assert.Equal(t, StrategyPaging, k)
	_, err = ParseStrategy("buddy")
	assert.True(t, errors.Is(err, ErrBadOptions))
	assert.Equal(t, "StrategyKind(4)", StrategyKind(4).String())
}
