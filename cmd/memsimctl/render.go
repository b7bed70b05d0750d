package main

import (
	"strings"

	"github.com/joshuapare/memsim/internal/units"
	"github.com/joshuapare/memsim/memory"
	"github.com/joshuapare/memsim/memory/process"
)

// Report is the JSON shape shared by run, stress and batch.
type Report struct {
	Stats     memory.Stats   `json:"stats"`
	Processes []process.Info `json:"processes"`
	Layout    any            `json:"layout"`
}

func buildReport(m *memory.Manager) Report {
	r := Report{Stats: m.Stats(), Processes: m.Processes()}
	if m.Strategy() == memory.StrategySegmentation {
		r.Layout = m.Segments()
	} else {
		r.Layout = m.PageOwners()
	}
	return r
}

func printStats(st memory.Stats) {
	printInfo("Strategy:       %s\n", st.Strategy)
	printInfo("Memory:         %s used of %s (%s)\n",
		units.Size(st.UsedMemory), units.Size(st.TotalMemory), units.FormatPercent(st.Utilization))
	printInfo("Free:           %s\n", units.Size(st.FreeMemory))
	printInfo("Fragmentation:  %s\n", units.FormatPercent(st.Fragmentation))
	printInfo("Processes:      %d active, %d total\n", st.ActiveProcesses, st.TotalProcesses)
}

func printProcesses(procs []process.Info) {
	if len(procs) == 0 {
		printInfo("No processes\n")
		return
	}
	printInfo("%-5s %-20s %10s %8s %-8s %s\n", "PID", "NAME", "SIZE", "PRIO", "STATE", "MEMORY")
	for _, p := range procs {
		state := "idle"
		if p.Active {
			state = "active"
		}
		printInfo("%-5d %-20s %10s %8d %-8s %s\n",
			p.ID, p.Name, units.Size(p.Size), p.Priority, state, holdings(p))
	}
}

func holdings(p process.Info) string {
	switch {
	case len(p.Pages) > 0:
		return "pages " + joinInts(p.Pages)
	case len(p.Segments) > 0:
		return "segments " + joinInts(p.Segments)
	}
	return "-"
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = units.Number(x)
	}
	return strings.Join(parts, ",")
}

// printLayout prints the page table or the segment list, whichever strategy
// is active.
func printLayout(m *memory.Manager) {
	if m.Strategy() == memory.StrategySegmentation {
		printInfo("%-8s %-8s %10s  %s\n", "START", "END", "SIZE", "SEGMENT")
		for _, s := range m.Segments() {
			printInfo("%-8s %-8s %10s  %s\n",
				units.Address(s.Start), units.Address(s.End()), units.Size(s.Size), s)
		}
		return
	}

	owners := m.PageOwners()
	size := m.PageSize()
	printInfo("%-6s %-8s %s\n", "PAGE", "ADDRESS", "OWNER")
	for page := range m.TotalPages() {
		owner := "free"
		if pid, ok := owners[page]; ok {
			owner = "pid " + units.Number(pid)
		}
		printInfo("%-6d %-8s %s\n", page, units.Address(page*size), owner)
	}
}
