package optimizer

import (
	"math"
	"time"

	"github.com/casperlundberg/edge-offload-simulator/pkg/rng"
)

// Genetic is a generational GA: elitism carries the top performers forward
// unchanged, the rest of the next generation is filled by tournament
// selection, uniform crossover and Gaussian mutation. Search stops early
// once the best-ever fitness has stagnated for half the configured
// generation budget.
type Genetic struct{}

// Optimize runs the GA, honoring Params.Restarts and Params.TimeBudgetMs.
func (Genetic) Optimize(src *rng.Source, fitness FitnessFunc, bounds Bounds, params Params) Result {
	start := time.Now()
	deadline, hasDeadline := deadlineFrom(start, params.TimeBudgetMs)

	restarts := params.Restarts
	if restarts < 1 {
		restarts = 1
	}

	best := Individual{Fitness: math.Inf(1)}
	var log []GenerationRecord

	runSrc := src
	for r := 0; r < restarts; r++ {
		if hasDeadline && time.Now().After(deadline) {
			break
		}
		runBest, runLog := runGeneticOnce(runSrc, fitness, bounds, params, start, deadline, hasDeadline)
		log = append(log, runLog...)
		if runBest.Fitness < best.Fitness {
			best = runBest
		}
		runSrc = restartSeed(runSrc)
	}
	return Result{Best: best, Log: log}
}

func runGeneticOnce(src *rng.Source, fitness FitnessFunc, bounds Bounds, params Params, start time.Time, deadline time.Time, hasDeadline bool) (Individual, []GenerationRecord) {
	pop := make([]Genes, params.Population)
	for i := range pop {
		pop[i] = sampleUniform(src, bounds)
	}
	evaluated := evaluatePopulation(pop, fitness)
	sortByFitness(evaluated)

	eliteCount := params.Population / 10
	if eliteCount < 2 {
		eliteCount = 2
	}
	if eliteCount > params.Population {
		eliteCount = params.Population
	}

	maxStagnant := (params.Generations + 1) / 2
	stagnant := 0
	bestEver := evaluated[0]

	log := make([]GenerationRecord, 0, params.Generations)
	for gen := 0; gen < params.Generations; gen++ {
		if hasDeadline && time.Now().After(deadline) {
			break
		}

		next := make([]Genes, 0, params.Population)
		for i := 0; i < eliteCount && i < len(evaluated); i++ {
			next = append(next, evaluated[i].Genes)
		}
		for len(next) < params.Population {
			a := tournamentSelect(src, evaluated, 3)
			b := tournamentSelect(src, evaluated, 3)
			child := uniformCrossover(src, a, b)
			child = gaussianMutate(src, child, bounds, params.MutationProbability)
			next = append(next, child)
		}

		evaluated = evaluatePopulation(next, fitness)
		sortByFitness(evaluated)

		if evaluated[0].Fitness < bestEver.Fitness {
			bestEver = evaluated[0]
			stagnant = 0
		} else {
			stagnant++
		}

		log = append(log, GenerationRecord{
			Generation:      gen,
			BestFitness:     evaluated[0].Fitness,
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

func tournamentSelect(src *rng.Source, pop []Individual, size int) Individual {
	best := pop[src.IntIn(0, len(pop)-1)]
	for i := 1; i < size; i++ {
		cand := pop[src.IntIn(0, len(pop)-1)]
		if cand.Fitness < best.Fitness {
			best = cand
		}
	}
	return best
}

func uniformCrossover(src *rng.Source, a, b Individual) Genes {
	var child Genes
	for i := range child {
		if src.Uniform01() < 0.5 {
			child[i] = a.Genes[i]
		} else {
			child[i] = b.Genes[i]
		}
	}
	return child
}

func gaussianMutate(src *rng.Source, g Genes, bounds Bounds, probability float64) Genes {
	for i := range g {
		if src.Uniform01() >= probability {
			continue
		}
		rangeWidth := bounds[i][1] - bounds[i][0]
		g[i] = clip(src.Gaussian(g[i], 0.1*rangeWidth), bounds[i][0], bounds[i][1])
	}
	return g
}
