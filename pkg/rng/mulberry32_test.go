package rng

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"
)

type MulberrySuite struct {
	suite.Suite
}

func TestMulberrySuite(t *testing.T) {
	suite.Run(t, new(MulberrySuite))
}

// canonical reference values for seed 42, computed directly from the
// Mulberry32 step: state += 0x6d2b79f5, then the standard xorshift-multiply
// mix, normalized by 2^32.
func referenceMulberry32(seed uint32, n int) []float64 {
	state := seed
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		state += 0x6d2b79f5
		t := state
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		out[i] = float64(t^(t>>14)) / 4294967296.0
	}
	return out
}

func (s *MulberrySuite) TestMatchesReferenceSequence() {
	src := New(42)
	want := referenceMulberry32(42, 1000)
	for i, w := range want {
		got := src.Uniform01()
		s.Require().Equal(w, got, "output %d diverged from reference", i)
	}
}

func (s *MulberrySuite) TestDeterministicAcrossInstances() {
	a := New(7)
	b := New(7)
	for i := 0; i < 256; i++ {
		s.Equal(a.Uniform01(), b.Uniform01())
	}
}

func (s *MulberrySuite) TestDifferentSeedsDiverge() {
	a := New(1)
	b := New(2)
	same := true
	for i := 0; i < 16; i++ {
		if a.Uniform01() != b.Uniform01() {
			same = false
		}
	}
	s.False(same)
}

func (s *MulberrySuite) TestUniform01Bounds() {
	src := New(123)
	for i := 0; i < 10000; i++ {
		v := src.Uniform01()
		s.GreaterOrEqual(v, 0.0)
		s.Less(v, 1.0)
	}
}

func (s *MulberrySuite) TestUniformInvertedRangeReturnsLowerBound() {
	src := New(9)
	s.Equal(5.0, src.Uniform(5, 2))
}

func (s *MulberrySuite) TestIntInInvertedRangeReturnsLowerBound() {
	src := New(9)
	s.Equal(5, src.IntIn(5, 2))
}

func (s *MulberrySuite) TestPoissonMeanWithinOnePercent() {
	src := New(99)
	lambda := 12.0
	const draws = 100000
	total := 0
	for i := 0; i < draws; i++ {
		total += src.Poisson(lambda)
	}
	mean := float64(total) / float64(draws)
	s.InDelta(lambda, mean, lambda*0.01)
}

func (s *MulberrySuite) TestPoissonLargeLambdaMeanWithinOnePercent() {
	src := New(17)
	lambda := 50.0
	const draws = 100000
	total := 0
	for i := 0; i < draws; i++ {
		total += src.Poisson(lambda)
	}
	mean := float64(total) / float64(draws)
	s.InDelta(lambda, mean, lambda*0.01)
}

func (s *MulberrySuite) TestPoissonNonNegative() {
	src := New(3)
	for i := 0; i < 1000; i++ {
		s.GreaterOrEqual(src.Poisson(5), 0)
	}
}

func (s *MulberrySuite) TestBernoulliRespectsProbabilityExtremes() {
	src := New(4)
	for i := 0; i < 100; i++ {
		s.False(src.Bernoulli(0))
	}
	for i := 0; i < 100; i++ {
		s.True(src.Bernoulli(1))
	}
}

func (s *MulberrySuite) TestExponentialNonNegative() {
	src := New(5)
	for i := 0; i < 1000; i++ {
		s.GreaterOrEqual(src.Exponential(2.5), 0.0)
	}
}

func (s *MulberrySuite) TestExponentialZeroRateReturnsZero() {
	src := New(5)
	s.Equal(0.0, src.Exponential(0))
}

func (s *MulberrySuite) TestGaussianZeroSigmaCollapsesToMean() {
	src := New(6)
	s.Equal(3.0, src.Gaussian(3.0, 0))
}

func (s *MulberrySuite) TestShuffleIsPermutation() {
	src := New(11)
	seq := []int{1, 2, 3, 4, 5, 6, 7, 8}
	original := append([]int(nil), seq...)
	Shuffle(src, seq)
	s.ElementsMatch(original, seq)
}

func (s *MulberrySuite) TestSampleWithoutReplacement() {
	src := New(13)
	seq := []int{1, 2, 3, 4, 5}
	got := Sample(src, seq, 3)
	s.Len(got, 3)
	seen := map[int]bool{}
	for _, v := range got {
		s.False(seen[v], "sample returned a duplicate element")
		seen[v] = true
	}
}

func (s *MulberrySuite) TestSampleClampsToSequenceLength() {
	src := New(13)
	seq := []int{1, 2, 3}
	got := Sample(src, seq, 10)
	s.Len(got, 3)
}

func (s *MulberrySuite) TestCloneProducesIndependentButIdenticalStream() {
	src := New(21)
	_ = src.Uniform01()
	clone := src.Clone()
	for i := 0; i < 50; i++ {
		s.Equal(src.Uniform01(), clone.Uniform01())
	}
}

func (s *MulberrySuite) TestGaussianIsFinite() {
	src := New(8)
	for i := 0; i < 1000; i++ {
		v := src.Gaussian(0, 1)
		s.False(math.IsNaN(v))
		s.False(math.IsInf(v, 0))
	}
}
