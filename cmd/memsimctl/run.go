package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/memsim/internal/config"
	"github.com/joshuapare/memsim/internal/workload"
)

func init() {
	rootCmd.AddCommand(newRunCmd())
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Play a scripted scenario",
		Long: `The run command plays the steps of a YAML scenario against a fresh
simulator and prints the final statistics and memory layout.

A scenario holds optional memory settings and an ordered list of steps:

  memory:
    total_memory: 1024
    page_size: 64
    strategy: paging
    policy: fifo
  steps:
    - op: create
      name: Browser
      size: 130
      allocate: true
    - op: strategy
      value: segmentation

Steps: create, allocate, deallocate, deallocate_all, terminate, strategy,
policy, access, compact, reset, batch (count, unique) and translate (pid,
address, optional kind). A failing step is reported and playback continues.
A top-level seed makes batch steps repeatable.

Example:
  memsimctl run scenario.yaml
  memsimctl run scenario.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(cmd.Context(), args)
		},
	}
	return cmd
}

// RunReport is the JSON output of run.
type RunReport struct {
	Steps []workload.StepResult `json:"steps"`
	Report
}

func runScenario(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	sc, err := config.LoadScenario(args[0])
	if err != nil {
		return err
	}
	m, _, err := managerFromConfig(&sc.Memory)
	if err != nil {
		return err
	}

	seed := sc.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gen := workload.NewGenerator(sc.Memory.MinProcessSize, sc.Memory.MaxProcessSize, seed)
	gen.Unique = sc.Memory.UniqueNames

	printVerbose("Playing %d steps from %s (seed %d)\n", len(sc.Steps), args[0], seed)
	results, err := workload.Play(ctx, m, gen, sc.Steps)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(RunReport{Steps: results, Report: buildReport(m)})
	}

	failed := 0
	for _, r := range results {
		switch {
		case r.Failed():
			failed++
			printInfo("%3d  %-40s FAILED: %s\n", r.Index, r.Step, r.Error)
		case r.Detail != "":
			printVerbose("%3d  %-40s ok (%s)\n", r.Index, r.Step, r.Detail)
		default:
			printVerbose("%3d  %-40s ok\n", r.Index, r.Step)
		}
	}
	printInfo("%d steps, %d failed\n\n", len(results), failed)

	printStats(m.Stats())
	printInfo("\n")
	printProcesses(m.Processes())
	printInfo("\n")
	printLayout(m)
	return nil
}
