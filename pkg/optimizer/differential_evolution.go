package optimizer

import (
	"math"
	"time"

	"github.com/casperlundberg/edge-offload-simulator/pkg/rng"
)

// DifferentialEvolution is the DE/rand/1/bin variant: each candidate is
// challenged by a mutant built from three other distinct population members,
// recombined with the parent via binomial crossover. It implements the same
// Optimizer contract as Genetic so the Predictive policy can swap search
// strategies via models.OptimizerKind without any other code changing.
type DifferentialEvolution struct {
	// F is the mutation/differential weight. Classic DE default is 0.8.
	F float64
	// CR is the crossover probability. Classic DE default is 0.9.
	CR float64
}

// NewDifferentialEvolution returns a DE optimizer with the conventional
// parameterization used across the DE literature.
func NewDifferentialEvolution() DifferentialEvolution {
	return DifferentialEvolution{F: 0.8, CR: 0.9}
}

// Optimize runs DE, honoring Params.Restarts and Params.TimeBudgetMs the same
// way Genetic.Optimize does.
func (de DifferentialEvolution) Optimize(src *rng.Source, fitness FitnessFunc, bounds Bounds, params Params) Result {
	start := time.Now()
	deadline, hasDeadline := deadlineFrom(start, params.TimeBudgetMs)

	restarts := params.Restarts
	if restarts < 1 {
		restarts = 1
	}

	f := de.F
	if f <= 0 {
		f = 0.8
	}
	cr := de.CR
	if cr <= 0 {
		cr = 0.9
	}

	best := Individual{Fitness: math.Inf(1)}
	var log []GenerationRecord

	runSrc := src
	for r := 0; r < restarts; r++ {
		if hasDeadline && time.Now().After(deadline) {
			break
		}
		runBest, runLog := runDEOnce(runSrc, fitness, bounds, params, f, cr, start, deadline, hasDeadline)
		log = append(log, runLog...)
		if runBest.Fitness < best.Fitness {
			best = runBest
		}
		runSrc = restartSeed(runSrc)
	}
	return Result{Best: best, Log: log}
}

func runDEOnce(src *rng.Source, fitness FitnessFunc, bounds Bounds, params Params, f, cr float64, start time.Time, deadline time.Time, hasDeadline bool) (Individual, []GenerationRecord) {
	pop := make([]Genes, params.Population)
	for i := range pop {
		pop[i] = sampleUniform(src, bounds)
	}
	evaluated := evaluatePopulation(pop, fitness)

	bestEver := evaluated[0]
	for _, ind := range evaluated {
		if ind.Fitness < bestEver.Fitness {
			bestEver = ind
		}
	}

	maxStagnant := (params.Generations + 1) / 2
	stagnant := 0

	log := make([]GenerationRecord, 0, params.Generations)
	for gen := 0; gen < params.Generations; gen++ {
		if hasDeadline && time.Now().After(deadline) {
			break
		}
		improved := false
		for i := range evaluated {
			a, b, c := pickThreeDistinct(src, len(evaluated), i)
			mutant := Genes{}
			for g := 0; g < 3; g++ {
				mutant[g] = clip(evaluated[a].Genes[g]+f*(evaluated[b].Genes[g]-evaluated[c].Genes[g]), bounds[g][0], bounds[g][1])
			}

			trial := evaluated[i].Genes
			forcedGene := src.IntIn(0, 2)
			for g := 0; g < 3; g++ {
				if g == forcedGene || src.Uniform01() < cr {
					trial[g] = mutant[g]
				}
			}

			trialFitness := fitness(trial)
			if trialFitness <= evaluated[i].Fitness {
				evaluated[i] = Individual{Genes: trial, Fitness: trialFitness}
			}
			if evaluated[i].Fitness < bestEver.Fitness {
				bestEver = evaluated[i]
				improved = true
			}
		}

		if improved {
			stagnant = 0
		} else {
			stagnant++
		}

		log = append(log, GenerationRecord{
			Generation:      gen,
			BestFitness:     bestEver.Fitness,
			AverageFitness:  averageFitness(evaluated),
			InfeasibleCount: infeasibleCount(evaluated),
			ElapsedMs:       elapsedMs(start),
		})

		if stagnant >= maxStagnant {
			break
		}
	}
	return bestEver, log
}

// pickThreeDistinct draws three population indices distinct from each other
// and from exclude (the current target index). Each draw makes up to n
// random attempts and then takes the lowest index not yet used. A population
// smaller than 4 cannot satisfy that distinctness, so there the draw falls
// back to whatever index it last drew instead of spinning forever.
func pickThreeDistinct(src *rng.Source, n int, exclude int) (int, int, int) {
	pick := func(avoid map[int]bool) int {
		idx := 0
		for attempt := 0; attempt < n; attempt++ {
			idx = src.IntIn(0, n-1)
			if !avoid[idx] {
				return idx
			}
		}
		for i := 0; i < n; i++ {
			if !avoid[i] {
				return i
			}
		}
		return idx
	}
	avoid := map[int]bool{exclude: true}
	a := pick(avoid)
	avoid[a] = true
	b := pick(avoid)
	avoid[b] = true
	c := pick(avoid)
	return a, b, c
}
