package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/garden/config"
	"github.com/pthm-cable/garden/simulation"
)

// stabilityWeight scales the tie-breaking bonus for steady populations.
const stabilityWeight = 0.1

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastMargin  float64 // worst margin from the most recent Evaluate call
	lastSurvive int     // shortest run from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// Last returns the worst margin and shortest survival from the most recent evaluation.
func (fe *FitnessEvaluator) Last() (margin float64, survived int) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMargin, fe.lastSurvive
}

// runResult holds the results from a single simulation run.
type runResult struct {
	margin    float64 // worst per-tick sustainability margin
	survived  int     // ticks before any species went extinct (or maxTicks)
	stability float64 // exp(-cv^2) of the total living count
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated worst sustainability margin across seeds, less a
// small bonus for population stability.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	worst := math.Inf(1)
	survived := fe.maxTicks
	var stability float64
	for _, r := range results {
		worst = math.Min(worst, r.margin)
		survived = min(survived, r.survived)
		stability += r.stability
	}
	stability /= float64(len(results))

	fe.mu.Lock()
	fe.lastMargin = worst
	fe.lastSurvive = survived
	fe.mu.Unlock()

	return computeFitness(worst, stability)
}

func computeFitness(margin, stability float64) float64 {
	return -(margin + stabilityWeight*stability)
}

// runSimulation executes a single headless run. It stops early once a
// species is extinct, since the margin cannot fall further.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) runResult {
	eco := simulation.New(cfg, simulation.Options{Seed: seed})
	eco.Seed()

	res := runResult{margin: math.Inf(1), survived: fe.maxTicks}
	totals := make([]float64, 0, fe.maxTicks)
	for i := 0; i < fe.maxTicks; i++ {
		s := eco.Step().Summary
		res.margin = math.Min(res.margin, simulation.SustainabilityMargin(s, cfg.Sustainability))
		totals = append(totals, float64(s.TotalLiving))
		if len(s.Living().Extinct()) > 0 {
			res.survived = i + 1
			break
		}
	}
	if math.IsInf(res.margin, 1) {
		res.margin = 0
	}
	res.stability = stability(totals)
	return res
}

// stability maps the coefficient of variation of xs into (0, 1].
func stability(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if mean == 0 {
		return 0
	}
	cv := std / mean
	return math.Exp(-cv * cv)
}
