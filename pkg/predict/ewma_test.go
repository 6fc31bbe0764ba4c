package predict

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/casperlundberg/edge-offload-simulator/pkg/rng"
)

type PredictSuite struct {
	suite.Suite
}

func TestPredictSuite(t *testing.T) {
	suite.Run(t, new(PredictSuite))
}

func (s *PredictSuite) TestEmptyWindowFallsBackToConfiguredMean() {
	w := NewWindow()
	s.Equal(42.0, w.EWMA(42.0))
}

func (s *PredictSuite) TestEWMAConvergesTowardConstantInput() {
	w := NewWindow()
	for i := 0; i < 200; i++ {
		w.Push(10.0)
	}
	s.InDelta(10.0, w.EWMA(0), 1e-6)
}

func (s *PredictSuite) TestWindowEvictsOldestBeyondCapacity() {
	w := NewWindow()
	for i := 0; i < WindowSize+10; i++ {
		w.Push(float64(i))
	}
	s.Len(w.values, WindowSize)
	s.Equal(float64(WindowSize+9), w.values[len(w.values)-1])
}

func (s *PredictSuite) TestRolloutZeroHorizonReturnsNil() {
	p := NewSensorPredictor()
	s.Nil(p.Rollout(0, rng.New(1), 1, 1, 1))
}

func (s *PredictSuite) TestRolloutLengthMatchesHorizon() {
	p := NewSensorPredictor()
	p.Observe(100, 0.1, 1e-6)
	out := p.Rollout(5, rng.New(1), 50, 0.05, 1e-6)
	s.Len(out, 5)
}

func (s *PredictSuite) TestRolloutUsesFallbackMeanOnEmptyHistory() {
	p := NewSensorPredictor()
	out := p.Rollout(1, rng.New(1), 1000, 1, 1e-5)
	// With no history, the prediction is the configured mean times noise in
	// the documented bands.
	s.GreaterOrEqual(out[0].ArrivalBits, 1000*0.9)
	s.LessOrEqual(out[0].ArrivalBits, 1000*1.1)
	s.GreaterOrEqual(out[0].HarvestJ, 1*0.8)
	s.LessOrEqual(out[0].HarvestJ, 1*1.2)
	s.GreaterOrEqual(out[0].ChannelGain, 1e-5*0.85)
	s.LessOrEqual(out[0].ChannelGain, 1e-5*1.15)
}

func (s *PredictSuite) TestRolloutDeterministicGivenSameSeed() {
	p1 := NewSensorPredictor()
	p1.Observe(10, 0.1, 1e-6)
	p2 := NewSensorPredictor()
	p2.Observe(10, 0.1, 1e-6)
	r1 := p1.Rollout(3, rng.New(99), 10, 0.1, 1e-6)
	r2 := p2.Rollout(3, rng.New(99), 10, 0.1, 1e-6)
	s.Equal(r1, r2)
}
