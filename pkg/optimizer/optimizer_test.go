package optimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/casperlundberg/edge-offload-simulator/pkg/rng"
)

type OptimizerSuite struct {
	suite.Suite
}

func TestOptimizerSuite(t *testing.T) {
	suite.Run(t, new(OptimizerSuite))
}

// sphereFitness returns the squared distance to target, so it is minimized
// (at 0) at target; the targets used below lie inside DefaultBounds.
func sphereFitness(target Genes) FitnessFunc {
	return func(g Genes) float64 {
		sum := 0.0
		for i := range g {
			d := g[i] - target[i]
			sum += d * d
		}
		return sum
	}
}

func (s *OptimizerSuite) params() Params {
	return Params{Population: 20, Generations: 30, MutationProbability: 0.2, Restarts: 1}
}

func (s *OptimizerSuite) TestGeneticConverges() {
	target := Genes{0.5, 0.55, 0.5}
	src := rng.New(1)
	result := Genetic{}.Optimize(src, sphereFitness(target), DefaultBounds, s.params())
	s.Less(result.Best.Fitness, 0.05)
	s.NotEmpty(result.Log)
}

func (s *OptimizerSuite) TestGeneticDeterministicGivenSameSeed() {
	target := Genes{0.3, 0.4, 0.6}
	p := s.params()
	r1 := Genetic{}.Optimize(rng.New(42), sphereFitness(target), DefaultBounds, p)
	r2 := Genetic{}.Optimize(rng.New(42), sphereFitness(target), DefaultBounds, p)
	s.Equal(r1.Best.Genes, r2.Best.Genes)
	s.Equal(r1.Best.Fitness, r2.Best.Fitness)
}

func (s *OptimizerSuite) TestGeneticRespectsBounds() {
	target := Genes{0, 0, 0}
	result := Genetic{}.Optimize(rng.New(7), sphereFitness(target), DefaultBounds, s.params())
	for i, bound := range DefaultBounds {
		s.GreaterOrEqual(result.Best.Genes[i], bound[0])
		s.LessOrEqual(result.Best.Genes[i], bound[1])
	}
}

func (s *OptimizerSuite) TestGeneticEarlyStoppingShortensLog() {
	// A constant fitness landscape can never improve, so the search should
	// stop well before exhausting the generation budget.
	flat := func(Genes) float64 { return 1.0 }
	p := Params{Population: 10, Generations: 100, MutationProbability: 0.1, Restarts: 1}
	result := Genetic{}.Optimize(rng.New(3), flat, DefaultBounds, p)
	s.Less(len(result.Log), 100)
}

func (s *OptimizerSuite) TestGeneticRestartsKeepGlobalBest() {
	target := Genes{0.5, 0.55, 0.5}
	p := s.params()
	p.Restarts = 3
	p.Generations = 5
	result := Genetic{}.Optimize(rng.New(9), sphereFitness(target), DefaultBounds, p)
	s.False(math.IsInf(result.Best.Fitness, 1))
}

func (s *OptimizerSuite) TestDifferentialEvolutionConverges() {
	target := Genes{0.5, 0.55, 0.5}
	de := NewDifferentialEvolution()
	result := de.Optimize(rng.New(1), sphereFitness(target), DefaultBounds, s.params())
	s.Less(result.Best.Fitness, 0.05)
}

func (s *OptimizerSuite) TestDifferentialEvolutionDeterministic() {
	target := Genes{0.2, 0.7, 0.4}
	de := NewDifferentialEvolution()
	p := s.params()
	r1 := de.Optimize(rng.New(55), sphereFitness(target), DefaultBounds, p)
	r2 := de.Optimize(rng.New(55), sphereFitness(target), DefaultBounds, p)
	s.Equal(r1.Best.Genes, r2.Best.Genes)
}

func (s *OptimizerSuite) TestDifferentialEvolutionDefaultsApplyWhenZero() {
	de := DifferentialEvolution{}
	target := Genes{0.5, 0.55, 0.5}
	result := de.Optimize(rng.New(2), sphereFitness(target), DefaultBounds, s.params())
	s.Less(result.Best.Fitness, 0.2)
}

func (s *OptimizerSuite) TestInfeasibleCountTracksPenalizedIndividuals() {
	target := Genes{0.5, 0.55, 0.5}
	penalized := func(g Genes) float64 {
		f := sphereFitness(target)(g)
		if g[0] > 0.9 {
			return f + 1e6
		}
		return f
	}
	p := s.params()
	result := Genetic{}.Optimize(rng.New(11), penalized, DefaultBounds, p)
	s.NotEmpty(result.Log)
	for _, rec := range result.Log {
		s.GreaterOrEqual(rec.InfeasibleCount, 0)
		s.LessOrEqual(rec.InfeasibleCount, p.Population)
	}
}

func (s *OptimizerSuite) TestTimeBudgetStopsSearch() {
	target := Genes{0.5, 0.55, 0.5}
	p := Params{Population: 50, Generations: 100000, MutationProbability: 0.2, Restarts: 1, TimeBudgetMs: 5}
	result := Genetic{}.Optimize(rng.New(1), sphereFitness(target), DefaultBounds, p)
	s.Less(len(result.Log), 100000)
}
