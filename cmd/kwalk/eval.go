package main

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pravsels/ksim"
	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/env"
	"github.com/pravsels/ksim/rollout"
)

var (
	evalCheckpoint string
	evalSeconds    float64
	evalNumEnvs    int
)

var evalCmd = &cobra.Command{
	Use:   "eval RUN_DIR",
	Short: "Evaluate a trained policy and print rollout statistics",
	Long: `eval loads the network config and a checkpoint from a training run
directory, rolls the policy in parallel environments and prints the
reward breakdown. The same task flags that shaped training apply.`,
	Args: cobra.ExactArgs(1),
	RunE: runEval,
}

func init() {
	fs := evalCmd.Flags()
	fs.StringVar(&evalCheckpoint, "checkpoint", "best.gob", "checkpoint file inside the run directory")
	fs.Float64Var(&evalSeconds, "seconds", 5, "seconds of rollout per environment")
	fs.IntVar(&evalNumEnvs, "num-envs", 8, "parallel environments")
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	runDir := args[0]

	conf, err := ksim.LoadConfig(filepath.Join(runDir, "config.yml"))
	if err != nil {
		return err
	}
	nn, ck, err := ksim.LoadCheckpoint(filepath.Join(runDir, evalCheckpoint), conf.Net)
	if err != nil {
		return err
	}

	task, err := buildTask(ctx)
	if err != nil {
		return err
	}
	engine, err := rollout.NewEngine(task, evalNumEnvs, seed)
	if err != nil {
		return err
	}

	workers := runtime.NumCPU()
	if evalNumEnvs < workers {
		workers = evalNumEnvs
	}
	policies := make([]rollout.Inferer, workers)
	for i := range policies {
		inf, err := acnet.Infer(nn)
		if err != nil {
			return err
		}
		policies[i] = inf
	}

	steps := int(evalSeconds/float64(task.CtrlDt) + 0.5)
	set, err := engine.Rollout(ctx, policies, steps, nil)
	if err != nil {
		return err
	}

	fmt.Printf("checkpoint %s: epoch %d, best mean reward %.4f\n", evalCheckpoint, ck.Epoch, ck.MeanReward)
	printSummary(set)
	return nil
}

func printSummary(set *env.RolloutSet) {
	fmt.Printf("steps: %d\n", set.Steps())
	fmt.Printf("mean reward: %.4f\n", set.MeanReward())
	fmt.Printf("mean episode length: %.1f steps\n", set.MeanEpisodeLength())

	means := set.ComponentMeans()
	names := make([]string, 0, len(means))
	for name := range means {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("reward terms:")
	for _, name := range names {
		fmt.Printf("  %-32s %+.5f\n", name, means[name])
	}

	counts := set.TerminationCounts()
	if len(counts) == 0 {
		return
	}
	names = names[:0]
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("terminations:")
	for _, name := range names {
		fmt.Printf("  %-32s %d\n", name, counts[name])
	}
}
