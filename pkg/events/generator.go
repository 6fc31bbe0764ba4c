// Package events implements the stochastic event generator (C2): for each
// sensor, each slot, it draws an arrival/harvest/channel-gain triple under
// that sensor's configured distributions. Draw order is fixed (arrival,
// harvest, then channel) so the result is a pure function of (seed, call
// order), matching pkg/rng's determinism contract.
package events

import (
	"math"

	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
	"github.com/casperlundberg/edge-offload-simulator/pkg/rng"
)

// Draw is one sensor's realized event for one slot.
type Draw struct {
	ArrivalBits float64
	HarvestJ    float64
	ChannelGain float64
}

// Generator produces Draws for a single sensor configuration, pulling from
// a caller-owned rng.Source so multiple sensors (or a sensor's Baseline and
// Predictive copies) can share or separate streams as the caller intends.
type Generator struct {
	cfg models.SensorConfig
}

// New builds a Generator bound to one sensor's configuration.
func New(cfg models.SensorConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Next draws this sensor's next (arrival, harvest, channel) triple.
func (g *Generator) Next(src *rng.Source) Draw {
	return Draw{
		ArrivalBits: g.arrival(src),
		HarvestJ:    g.harvest(src),
		ChannelGain: g.channel(src),
	}
}

func (g *Generator) arrival(src *rng.Source) float64 {
	m := g.cfg.Arrival
	switch m.Type {
	case models.ArrivalPoisson:
		lambda := m.Lambda
		k := src.Poisson(lambda)
		return float64(k) * g.cfg.MeanArrival
	case models.ArrivalFixed:
		if m.Value != 0 {
			return m.Value
		}
		return g.cfg.MeanArrival
	case models.ArrivalUniform:
		lo, hi := m.Min, m.Max
		if lo == 0 && hi == 0 {
			lo, hi = 0.5*g.cfg.MeanArrival, 1.5*g.cfg.MeanArrival
		}
		return src.Uniform(lo, hi)
	default:
		return g.cfg.MeanArrival
	}
}

func (g *Generator) harvest(src *rng.Source) float64 {
	m := g.cfg.Harvest
	switch m.Type {
	case models.HarvestBernoulli:
		if src.Bernoulli(m.P) {
			return m.Value
		}
		return 0
	case models.HarvestConstant:
		return m.Value
	case models.HarvestGaussian:
		v := src.Gaussian(m.Mean, m.Std)
		if v < 0 {
			return 0
		}
		return v
	default:
		return g.cfg.MeanHarvest
	}
}

// channel draws a Rayleigh-style channel gain approximation: a Gaussian
// around the sensor's mean gain, floored away from zero so downstream
// log/division never sees a non-positive denominator.
func (g *Generator) channel(src *rng.Source) float64 {
	std := 0.0
	if g.cfg.ChannelVariance > 0 {
		std = math.Sqrt(g.cfg.ChannelVariance)
	}
	v := src.Gaussian(g.cfg.MeanChannelGain, std)
	return models.Floor(v)
}
