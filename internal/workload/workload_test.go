package workload

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memsim/internal/config"
	"github.com/joshuapare/memsim/memory"
)

func newManager(t *testing.T, mutate func(*memory.Options)) *memory.Manager {
	t.Helper()
	opts := memory.DefaultOptions()
	if mutate != nil {
		mutate(opts)
	}
	m, err := memory.New(opts)
	require.NoError(t, err)
	return m
}

func TestGenerator_Bounds(t *testing.T) {
	g := NewGenerator(16, 256, 1)
	for range 500 {
		tmpl := g.Next()
		assert.GreaterOrEqual(t, tmpl.Size, 16)
		assert.Less(t, tmpl.Size, 256)
		assert.GreaterOrEqual(t, tmpl.Priority, 1)
		assert.LessOrEqual(t, tmpl.Priority, 10)
		assert.True(t, slices.Contains(Names, tmpl.Name), tmpl.Name)
	}
}

func TestGenerator_Seeded(t *testing.T) {
	a, b := NewGenerator(16, 256, 42), NewGenerator(16, 256, 42)
	for range 20 {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestGenerator_FixedSizeAndUnique(t *testing.T) {
	g := NewGenerator(64, 64, 3)
	g.Unique = true
	tmpl := g.Next()
	assert.Equal(t, 64, tmpl.Size)

	base, tag, ok := strings.Cut(tmpl.Name, "-")
	require.True(t, ok)
	assert.Contains(t, Names, base)
	assert.NotEmpty(t, tag)
}

func TestAddBatch_Clamps(t *testing.T) {
	m := newManager(t, func(o *memory.Options) { o.TotalMemory = 1 << 20 })
	g := NewGenerator(16, 256, 7)

	res, err := AddBatch(context.Background(), m, g, 100)
	require.NoError(t, err)
	assert.Equal(t, MaxBatch, res.Requested)
	assert.Equal(t, MaxBatch, res.Allocated)
	assert.Len(t, m.Processes(), MaxBatch)

	res, err = AddBatch(context.Background(), m, g, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Requested)
}

func TestStress_Segmentation(t *testing.T) {
	m := newManager(t, func(o *memory.Options) { o.Strategy = memory.StrategySegmentation })
	g := NewGenerator(16, 256, 11)

	res, err := Stress(context.Background(), m, g, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStressCount, res.Requested)
	assert.Equal(t, res.Requested, res.Allocated+res.Failed)
	assert.Positive(t, res.Failed, "50 processes of up to 255 units overflow 1024")

	procs := m.Processes()
	require.Len(t, procs, DefaultStressCount)
	assert.Equal(t, "StressTest0", procs[0].Name)
	assert.Equal(t, "StressTest49", procs[49].Name)

	used := 0
	for _, p := range m.ActiveProcesses() {
		used += p.Size
	}
	assert.Equal(t, used, m.Stats().UsedMemory)

	sum := res.Summary()
	assert.Equal(t, res.Allocated, sum.Count)
	assert.GreaterOrEqual(t, sum.Max, sum.Median)
	assert.GreaterOrEqual(t, float64(sum.Total), sum.Max)
}

func TestStress_Paging(t *testing.T) {
	m := newManager(t, nil)
	res, err := Stress(context.Background(), m, NewGenerator(16, 256, 5), 50)
	require.NoError(t, err)
	// Faults evict older processes, so every request fits in 16 pages.
	assert.Equal(t, 50, res.Allocated)
	assert.Positive(t, m.PagingStats().Faults)
}

func TestStress_Cancelled(t *testing.T) {
	m := newManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Stress(ctx, m, NewGenerator(16, 256, 1), 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, res.Allocated)
	assert.Empty(t, m.Processes())
}

func TestSummary_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Result{}.Summary())
	s := Result{Sizes: []int{10, 20, 30}}.Summary()
	assert.Equal(t, 60, s.Total)
	assert.InDelta(t, 20.0, s.Mean, 1e-9)
	assert.InDelta(t, 20.0, s.Median, 1e-9)
	assert.InDelta(t, 30.0, s.Max, 1e-9)
}

func TestPlay(t *testing.T) {
	sc, err := config.ParseScenario([]byte(`
steps:
  - op: create
    name: Browser
    size: 130
    allocate: true
  - op: create
    name: Compiler
    size: 130
  - op: allocate
    pid: 2
  - op: terminate
    pid: 9
  - op: strategy
    value: segmentation
  - op: compact
  - op: deallocate
    pid: 1
`))
	require.NoError(t, err)

	m := newManager(t, nil)
	results, err := Play(context.Background(), m, nil, sc.Steps)
	require.NoError(t, err)
	require.Len(t, results, 7)

	assert.Equal(t, 1, results[0].PID)
	assert.False(t, results[0].Failed())
	assert.Equal(t, 2, results[1].PID)
	assert.True(t, results[3].Failed(), "unknown pid")
	assert.Contains(t, results[3].Error, "unknown process")
	assert.Equal(t, "0 unplaced", results[4].Detail)

	assert.Equal(t, memory.StrategySegmentation, m.Strategy())
	active := m.ActiveProcesses()
	require.Len(t, active, 1)
	assert.Equal(t, "Compiler", active[0].Name)
	assert.Len(t, active[0].Segments, 3)
}

func TestPlay_PolicyAccessReset(t *testing.T) {
	m := newManager(t, func(o *memory.Options) { o.TotalMemory = 256 })
	steps := []config.Step{
		{Op: config.OpPolicy, Value: "lru"},
		{Op: config.OpCreate, Name: "a", Size: 128, Allocate: true},
		{Op: config.OpCreate, Name: "b", Size: 128, Allocate: true},
		{Op: config.OpAccess, Page: 0},
		{Op: config.OpAccess, Page: 1},
		{Op: config.OpCreate, Name: "c", Size: 64, Allocate: true},
	}
	_, err := Play(context.Background(), m, nil, steps)
	require.NoError(t, err)

	c, ok := m.Lookup(3)
	require.True(t, ok)
	assert.Equal(t, []int{2}, c.Pages)

	results, err := Play(context.Background(), m, nil, []config.Step{{Op: config.OpReset}, {Op: "swap"}})
	require.NoError(t, err)
	assert.Empty(t, m.Processes())
	assert.True(t, results[1].Failed())
}

func TestPlay_BatchTranslateDeallocateAll(t *testing.T) {
	sc, err := config.ParseScenario([]byte(`
steps:
  - op: create
    name: Browser
    size: 130
    allocate: true
  - op: translate
    pid: 1
    address: 70
  - op: translate
    pid: 1
    address: 500
  - op: batch
    count: 3
    unique: true
  - op: deallocate_all
  - op: strategy
    value: segmentation
  - op: allocate
    pid: 1
  - op: translate
    pid: 1
    kind: code
    address: 5
`))
	require.NoError(t, err)

	m := newManager(t, nil)
	g := NewGenerator(16, 64, 9)
	results, err := Play(context.Background(), m, g, sc.Steps)
	require.NoError(t, err)
	require.Len(t, results, 8)
	for _, i := range []int{0, 1, 3, 4, 5, 6, 7} {
		assert.False(t, results[i].Failed(), "%d: %s", i, results[i].Error)
	}

	assert.Equal(t, "physical 0x0046", results[1].Detail, "page 1 is frame 1")
	assert.Contains(t, results[2].Error, "address fault")
	assert.Equal(t, "3 of 3 allocated", results[3].Detail)
	assert.False(t, g.Unique, "step flag does not leak into the generator")

	procs := m.Processes()
	require.Len(t, procs, 4)
	for _, p := range procs[1:] {
		base, tag, ok := strings.Cut(p.Name, "-")
		require.True(t, ok, p.Name)
		assert.Contains(t, Names, base)
		assert.NotEmpty(t, tag)
	}

	active := m.ActiveProcesses()
	require.Len(t, active, 1, "deallocate_all left only the re-allocated pid")
	assert.Equal(t, 1, active[0].ID)
	assert.Equal(t, "translate pid=1 CODE+5", results[7].Step)
	assert.Equal(t, "physical 0x0005", results[7].Detail)
}

func TestPlay_BatchWithoutGenerator(t *testing.T) {
	m := newManager(t, nil)
	results, err := Play(context.Background(), m, nil, []config.Step{{Op: config.OpBatch, Count: 2}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].Failed(), results[0].Error)
	for _, p := range m.Processes() {
		assert.True(t, slices.Contains(Names, p.Name), "names are untagged: %s", p.Name)
		assert.GreaterOrEqual(t, p.Size, 16)
		assert.Less(t, p.Size, 256)
	}
}
