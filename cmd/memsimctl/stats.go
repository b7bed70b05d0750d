package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/memsim/internal/units"
	"github.com/joshuapare/memsim/memory"
)

func init() {
	rootCmd.AddCommand(newStatsCmd())
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the memory layout for a configuration",
		Long: `The stats command prints the layout a configuration produces: usable
memory under each strategy, page geometry and the initial statistics.

Example:
  memsimctl stats
  memsimctl stats --config memsim.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
	return cmd
}

// Layout is the JSON output of stats.
type Layout struct {
	Options        memory.Options `json:"options"`
	TotalPages     int            `json:"total_pages"`
	PagingMemory   int            `json:"paging_memory"`
	UnpagedMemory  int            `json:"unpaged_memory"`
	SegmentMemory  int            `json:"segment_memory"`
	StrategyActive string         `json:"strategy"`
	Policy         string         `json:"policy"`
}

func runStats() error {
	m, _, err := newManager()
	if err != nil {
		return err
	}
	opts := m.Options()
	paged := m.TotalPages() * m.PageSize()

	layout := Layout{
		Options:        opts,
		TotalPages:     m.TotalPages(),
		PagingMemory:   paged,
		UnpagedMemory:  opts.TotalMemory - paged,
		SegmentMemory:  m.SegmentStats().TotalMemory,
		StrategyActive: m.Strategy().String(),
		Policy:         m.Policy().String(),
	}
	if jsonOut {
		return printJSON(layout)
	}

	printInfo("Total memory:   %s (%s units)\n", units.Size(opts.TotalMemory), units.Number(opts.TotalMemory))
	printInfo("Page size:      %s\n", units.Size(opts.PageSize))
	printInfo("Pages:          %d (%s addressable", layout.TotalPages, units.Size(paged))
	if layout.UnpagedMemory > 0 {
		printInfo(", %s unused", units.Size(layout.UnpagedMemory))
	}
	printInfo(")\n")
	printInfo("Segmentation:   %s in one free segment\n", units.Size(layout.SegmentMemory))
	printInfo("Process sizes:  %s to %s\n", units.Size(opts.MinProcessSize), units.Size(opts.MaxProcessSize))
	printInfo("Strategy:       %s\n", layout.StrategyActive)
	printInfo("Policy:         %s\n", layout.Policy)
	return nil
}
