package workload

import (
	"context"
	"errors"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/internal/units"
	"github.com/joshuapare/memsim/memory"
)

const (
	MaxBatch = 20

	DefaultStressCount = 50
	MaxStressCount     = 1000
)

// Result counts the outcome of a batch or stress run.
type Result struct {
	Requested int   `json:"requested"`
	Allocated int   `json:"allocated"`
	Failed    int   `json:"failed"`
	IDs       []int `json:"ids"`
	// Sizes of the processes that were allocated, in request order.
	Sizes []int `json:"sizes"`
}

// Summary describes the allocated sizes of a run.
type Summary struct {
	Count  int     `json:"count"`
	Total  int     `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

func (r Result) Summary() Summary {
	s := Summary{Count: len(r.Sizes)}
	if len(r.Sizes) == 0 {
		return s
	}
	data := stats.LoadRawData(r.Sizes)
	total, _ := data.Sum()
	s.Total = int(total)
	s.Mean, _ = data.Mean()
	s.Median, _ = data.Median()
	s.P90, _ = data.Percentile(90)
	s.Max, _ = data.Max()
	return s
}

// AddBatch creates and allocates count generated processes, clamped to
// [1, MaxBatch]. Allocation failures are counted, not returned.
func AddBatch(ctx context.Context, m *memory.Manager, g *Generator, count int) (Result, error) {
	count = units.Clamp(count, 1, MaxBatch)
	return run(ctx, m, count, func(int) Template { return g.Next() })
}

// Stress creates and allocates count processes named StressTest0,
// StressTest1 and so on with generated sizes. A count of zero or less means
// DefaultStressCount.
func Stress(ctx context.Context, m *memory.Manager, g *Generator, count int) (Result, error) {
	if count <= 0 {
		count = DefaultStressCount
	}
	count = units.Clamp(count, 1, MaxStressCount)
	return run(ctx, m, count, func(i int) Template {
		tmpl := g.Next()
		tmpl.Name = fmt.Sprintf("StressTest%d", i)
		return tmpl
	})
}

func run(ctx context.Context, m *memory.Manager, count int, next func(int) Template) (Result, error) {
	res := Result{Requested: count}
	for i := range count {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tmpl := next(i)
		p, err := m.CreateProcess(tmpl.Name, tmpl.Size, tmpl.Priority)
		if err != nil {
			return res, err
		}
		res.IDs = append(res.IDs, p.ID)

		err = m.Allocate(p.ID)
		switch {
		case err == nil:
			res.Allocated++
			res.Sizes = append(res.Sizes, tmpl.Size)
		case errors.Is(err, memory.ErrCapacityExceeded):
			res.Failed++
		default:
			return res, err
		}
	}
	logger.L.Info("workload: run complete",
		"requested", res.Requested, "allocated", res.Allocated, "failed", res.Failed)
	return res, nil
}
