// Package main searches garden parameters with CMA-ES for configurations
// that keep every species above its sustainability minimum.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/garden/config"
)

type options struct {
	configPath string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&o.maxTicks, "max-ticks", 0, "Ticks per run (0 = sustainability window)")
	flag.IntVar(&o.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&o.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(o); err != nil {
		slog.Error("optimize failed", "error", err)
		os.Exit(1)
	}
}

func run(o options) error {
	if o.outputDir == "" {
		return fmt.Errorf("--output is required")
	}
	if err := os.MkdirAll(o.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := config.Init(o.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	base := config.Cfg()

	ticks := o.maxTicks
	if ticks <= 0 {
		ticks = base.Sustainability.WindowTicks
	}
	seeds := make([]int64, o.seeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, ticks, seeds, base)

	progress, err := newEvalLog(filepath.Join(o.outputDir, "optimize_log.csv"), params, o.maxEvals)
	if err != nil {
		return err
	}
	defer progress.Close()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			margin, survived := evaluator.Last()
			progress.Record(raw, fitness, margin, survived)
			return fitness
		},
	}

	popSize := o.population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}
	method := &optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize}
	settings := &optimize.Settings{FuncEvaluations: o.maxEvals}

	slog.Info("starting CMA-ES",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", o.maxEvals,
		"seeds", o.seeds,
		"ticks", ticks,
	)

	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(base)))
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	best := progress.Best()
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return fmt.Errorf("no evaluations completed")
	}

	fmt.Printf("\nBest fitness %.4f after %d evaluations\n", progress.BestFitness(), progress.Count())
	for i, spec := range params.Specs {
		fmt.Printf("  %-20s %-45s %.6f\n", spec.Name, spec.Path, best[i])
	}

	out := base.Clone()
	params.ApplyToConfig(out, best)
	path := filepath.Join(o.outputDir, "best_config.yaml")
	if err := out.WriteYAML(path); err != nil {
		return fmt.Errorf("writing best config: %w", err)
	}
	slog.Info("best config saved", "path", path)
	return nil
}
