// Package predict implements the Predictive policy's short-horizon rollout
// predictor (C4b): a rolling window per observed quantity, smoothed by an
// exponentially weighted moving average, perturbed by multiplicative noise
// to produce a sequence of future-slot event guesses.
package predict

import "github.com/casperlundberg/edge-offload-simulator/pkg/rng"

// WindowSize is the number of most recent observations kept per quantity.
const WindowSize = 50

// Smoothing is the fixed EWMA smoothing factor applied across every window.
const Smoothing = 0.3

// Window is a fixed-capacity FIFO of recent observations, newest last.
type Window struct {
	values []float64
}

// NewWindow returns an empty window.
func NewWindow() *Window {
	return &Window{values: make([]float64, 0, WindowSize)}
}

// Push appends an observation, evicting the oldest once the window is full.
func (w *Window) Push(v float64) {
	w.values = append(w.values, v)
	if len(w.values) > WindowSize {
		w.values = w.values[len(w.values)-WindowSize:]
	}
}

// EWMA folds the window left-to-right with the fixed smoothing factor,
// seeding the recursion with the oldest sample. An empty window returns
// fallback (the sensor's configured mean) instead.
func (w *Window) EWMA(fallback float64) float64 {
	if len(w.values) == 0 {
		return fallback
	}
	ewma := w.values[0]
	for _, v := range w.values[1:] {
		ewma = Smoothing*v + (1-Smoothing)*ewma
	}
	return ewma
}

// Triple is one slot's worth of predicted events, shaped like the realized
// draw it stands in for inside the Predictive policy's rollout.
type Triple struct {
	ArrivalBits float64
	HarvestJ    float64
	ChannelGain float64
}

// SensorPredictor tracks one sensor's rolling history across all three
// observed quantities and produces perturbed multi-slot rollouts from it.
type SensorPredictor struct {
	arrivals *Window
	harvests *Window
	gains    *Window
}

// NewSensorPredictor returns a predictor with empty history.
func NewSensorPredictor() *SensorPredictor {
	return &SensorPredictor{arrivals: NewWindow(), harvests: NewWindow(), gains: NewWindow()}
}

// Observe appends one realized slot's events to the rolling windows.
func (p *SensorPredictor) Observe(arrivalBits, harvestJ, channelGain float64) {
	p.arrivals.Push(arrivalBits)
	p.harvests.Push(harvestJ)
	p.gains.Push(channelGain)
}

// Rollout emits horizon predicted triples. Each is the current EWMA of its
// quantity (falling back to the supplied configured mean when the window is
// still empty) scaled by independent uniform noise: arrival in [0.9,1.1],
// harvest in [0.8,1.2], channel gain in [0.85,1.15]. noiseSrc is the
// Predictive policy's own RNG sub-stream (or an unseeded source under the
// legacy-compatibility switch) so the rest of the simulation's determinism
// is unaffected by how noisy this prediction is.
func (p *SensorPredictor) Rollout(horizon int, noiseSrc *rng.Source, meanArrival, meanHarvest, meanGain float64) []Triple {
	if horizon <= 0 {
		return nil
	}
	arrivalEWMA := p.arrivals.EWMA(meanArrival)
	harvestEWMA := p.harvests.EWMA(meanHarvest)
	gainEWMA := p.gains.EWMA(meanGain)

	out := make([]Triple, horizon)
	for h := 0; h < horizon; h++ {
		out[h] = Triple{
			ArrivalBits: arrivalEWMA * noiseSrc.Uniform(0.9, 1.1),
			HarvestJ:    harvestEWMA * noiseSrc.Uniform(0.8, 1.2),
			ChannelGain: gainEWMA * noiseSrc.Uniform(0.85, 1.15),
		}
	}
	return out
}
