package workload

import (
	"context"
	"fmt"

	"github.com/joshuapare/memsim/internal/config"
	"github.com/joshuapare/memsim/internal/logger"
	"github.com/joshuapare/memsim/internal/units"
	"github.com/joshuapare/memsim/memory"
	"github.com/joshuapare/memsim/memory/paging"
	"github.com/joshuapare/memsim/memory/segment"
)

// StepResult records the outcome of one scenario step. Step errors are
// reported here and do not stop playback.
type StepResult struct {
	Index  int    `json:"index"`
	Step   string `json:"step"`
	PID    int    `json:"pid,omitempty"`
	Detail string `json:"detail,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Failed reports whether the step returned an error.
func (r StepResult) Failed() bool { return r.Error != "" }

// Play applies steps to m in order. It stops early only when ctx is done.
// Batch steps draw from g; a nil g is replaced by one seeded with 1 over the
// manager's process size bounds.
func Play(ctx context.Context, m *memory.Manager, g *Generator, steps []config.Step) ([]StepResult, error) {
	if g == nil {
		opts := m.Options()
		g = NewGenerator(opts.MinProcessSize, opts.MaxProcessSize, 1)
	}
	results := make([]StepResult, 0, len(steps))
	for i, st := range steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := StepResult{Index: i + 1, Step: st.String(), PID: st.PID}
		if err := apply(ctx, m, g, st, &res); err != nil {
			res.Error = err.Error()
			logger.L.Debug("workload: step failed", "index", res.Index, "step", res.Step, "err", err)
		}
		results = append(results, res)
	}
	return results, nil
}

func apply(ctx context.Context, m *memory.Manager, g *Generator, st config.Step, res *StepResult) error {
	switch st.Op {
	case config.OpCreate:
		p, err := m.CreateProcess(st.Name, st.Size, priorityOrDefault(st.Priority))
		if err != nil {
			return err
		}
		res.PID = p.ID
		if st.Allocate {
			return m.Allocate(p.ID)
		}
		return nil

	case config.OpAllocate:
		return m.Allocate(st.PID)

	case config.OpDeallocate:
		return m.Deallocate(st.PID)

	case config.OpTerminate:
		return m.Terminate(st.PID)

	case config.OpStrategy:
		kind, err := memory.ParseStrategy(st.Value)
		if err != nil {
			return err
		}
		failed, err := m.SetStrategy(kind)
		if err != nil {
			return err
		}
		res.Detail = fmt.Sprintf("%d unplaced", failed)
		return nil

	case config.OpPolicy:
		policy, err := paging.ParsePolicy(st.Value)
		if err != nil {
			return err
		}
		m.SetPolicy(policy)
		return nil

	case config.OpAccess:
		m.AccessPage(st.Page)
		return nil

	case config.OpCompact:
		if m.Strategy() == memory.StrategySegmentation {
			m.Compact()
		} else {
			res.Detail = fmt.Sprintf("%d unplaced", m.Reallocate())
		}
		return nil

	case config.OpReset:
		m.Reset()
		return nil

	case config.OpDeallocateAll:
		m.DeallocateAll()
		return nil

	case config.OpBatch:
		unique := g.Unique
		g.Unique = unique || st.Unique
		defer func() { g.Unique = unique }()

		out, err := AddBatch(ctx, m, g, st.Count)
		if err != nil {
			return err
		}
		res.Detail = fmt.Sprintf("%d of %d allocated", out.Allocated, out.Requested)
		return nil

	case config.OpTranslate:
		phys, err := translate(m, st)
		if err != nil {
			return err
		}
		res.Detail = "physical " + units.Address(phys)
		return nil
	}
	return fmt.Errorf("%w: unknown op %q", config.ErrInvalid, st.Op)
}

func translate(m *memory.Manager, st config.Step) (int, error) {
	if st.Kind == "" {
		return m.TranslatePage(st.PID, st.Address)
	}
	kind, err := segment.ParseKind(st.Kind)
	if err != nil {
		return 0, err
	}
	return m.TranslateSegment(st.PID, kind, st.Address)
}

// priorityOrDefault maps an unset priority to the middle of the range.
func priorityOrDefault(p int) int {
	if p == 0 {
		return 5
	}
	return p
}
