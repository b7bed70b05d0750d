package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memsim/internal/units"
	"github.com/joshuapare/memsim/internal/workload"
	"github.com/joshuapare/memsim/memory"
)

var (
	stressCount    int
	stressStrategy string
	stressSeed     uint64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVarP(&stressCount, "count", "n", workload.DefaultStressCount, "Number of processes to create")
	cmd.Flags().StringVar(&stressStrategy, "strategy", "", "Override the configured strategy (paging, segmentation)")
	cmd.Flags().Uint64Var(&stressSeed, "seed", 0, "Random seed (0 picks one from the clock)")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Create many random processes and report how many fit",
		Long: `The stress command creates processes named StressTest0, StressTest1, ...
with random sizes between the configured bounds and allocates each one in
turn. Allocation failures are counted; the run never stops on them.

Example:
  memsimctl stress
  memsimctl stress --count 200 --strategy segmentation --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd.Context())
		},
	}
	return cmd
}

// StressReport is the JSON output of stress.
type StressReport struct {
	Seed    uint64           `json:"seed"`
	Result  workload.Result  `json:"result"`
	Summary workload.Summary `json:"summary"`
	Report
}

func runStress(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	m, cfg, err := newManager()
	if err != nil {
		return err
	}
	if stressStrategy != "" {
		kind, err := memory.ParseStrategy(stressStrategy)
		if err != nil {
			return err
		}
		if _, err := m.SetStrategy(kind); err != nil {
			return err
		}
	}

	seed := stressSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	printVerbose("Seed: %d\n", seed)

	gen := workload.NewGenerator(cfg.MinProcessSize, cfg.MaxProcessSize, seed)
	res, err := workload.Stress(ctx, m, gen, stressCount)
	if err != nil {
		return err
	}
	sum := res.Summary()

	if jsonOut {
		return printJSON(StressReport{Seed: seed, Result: res, Summary: sum, Report: buildReport(m)})
	}

	printInfo("Requested:      %d\n", res.Requested)
	printInfo("Allocated:      %d (%s)\n", res.Allocated,
		units.FormatPercent(units.Percent(res.Allocated, res.Requested)))
	printInfo("Failed:         %d\n", res.Failed)
	if sum.Count > 0 {
		printInfo("Sizes:          mean %.1f, median %.1f, p90 %.1f, max %.0f\n",
			sum.Mean, sum.Median, sum.P90, sum.Max)
	}
	printInfo("\n")
	printStats(m.Stats())
	if verbose {
		printInfo("\n")
		printProcesses(m.Processes())
	}
	return nil
}
