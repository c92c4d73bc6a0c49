package main

import (
	"fmt"
	"math/rand"

	"github.com/spf13/cobra"

	"github.com/joshuapare/heapkit/heap"
	"github.com/joshuapare/heapkit/heap/mem"
)

var (
	stressOps    int
	stressSeed   int64
	stressMax    int
	stressBudget int
	stressCheck  bool
	stressTrim   bool
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressOps, "ops", 100_000, "Number of operations to run")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&stressMax, "max-size", 8192, "Maximum request size in bytes")
	cmd.Flags().IntVar(&stressBudget, "budget", 0, "Arena budget in bytes (0 = unlimited)")
	cmd.Flags().BoolVar(&stressCheck, "check", false, "Audit heap consistency every 1000 operations")
	cmd.Flags().BoolVar(&stressTrim, "trim", false, "Trim the heap when the workload finishes")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run a randomized allocation workload",
		Long: `The stress command runs a seeded random mix of allocate, free, and
resize operations against a fresh heap and reports statistics.

Example:
  heapctl stress --ops 1000000
  heapctl stress --seed 7 --max-size 65536 --check
  heapctl stress --budget 16777216`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

func runStress() error {
	var arena mem.Arena = mem.NewSliceArena()
	if stressBudget > 0 {
		arena = mem.NewLimitArena(arena, stressBudget)
	}
	h := heap.New(arena, &heap.ConfigDefault)
	rng := rand.New(rand.NewSource(stressSeed))

	var refs []heap.Ref
	oom := 0
	for op := 0; op < stressOps; op++ {
		switch r := rng.Intn(10); {
		case r < 5 || len(refs) == 0:
			ref, _, err := h.Allocate(rng.Intn(stressMax))
			if err != nil {
				if stressBudget > 0 {
					oom++
					continue
				}
				return fmt.Errorf("op %d: %w", op, err)
			}
			refs = append(refs, ref)
		case r < 8:
			i := rng.Intn(len(refs))
			if err := h.Deallocate(refs[i]); err != nil {
				return fmt.Errorf("op %d: %w", op, err)
			}
			refs[i] = refs[len(refs)-1]
			refs = refs[:len(refs)-1]
		default:
			i := rng.Intn(len(refs))
			ref, _, err := h.Realloc(refs[i], rng.Intn(stressMax))
			if err != nil {
				if stressBudget > 0 {
					oom++
					continue
				}
				return fmt.Errorf("op %d: %w", op, err)
			}
			refs[i] = ref
		}

		if stressCheck && op%1000 == 0 {
			if err := h.Check(); err != nil {
				return fmt.Errorf("audit failed at op %d: %w", op, err)
			}
		}
	}

	for _, r := range refs {
		if err := h.Deallocate(r); err != nil {
			return err
		}
	}
	if err := h.Check(); err != nil {
		return fmt.Errorf("final audit: %w", err)
	}
	if stressTrim {
		released, err := h.Trim(0)
		if err != nil {
			return err
		}
		printVerbose("trim released %d bytes\n", released)
	}

	printInfo("completed %d operations (%d live at end, %d out-of-memory)\n",
		stressOps, len(refs), oom)
	return printStats(h)
}
