// Package predictive implements the Predictive policy (C4b): an EWMA
// rollout predictor feeds a short-horizon fitness function, minimized by a
// pluggable population-based optimizer, to pick the three-gene action each
// sensor commits to for the slot. It falls back to Baseline's closed-form
// decision whenever the configured horizon is zero, and reuses pkg/policy's
// shared rate/energy helpers inside the fitness function's internal rollout.
package predictive

import (
	"time"

	"github.com/casperlundberg/edge-offload-simulator/pkg/events"
	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
	"github.com/casperlundberg/edge-offload-simulator/pkg/optimizer"
	"github.com/casperlundberg/edge-offload-simulator/pkg/policy"
	"github.com/casperlundberg/edge-offload-simulator/pkg/policy/baseline"
	"github.com/casperlundberg/edge-offload-simulator/pkg/predict"
	"github.com/casperlundberg/edge-offload-simulator/pkg/rng"
	"github.com/casperlundberg/edge-offload-simulator/pkg/state"
)

// InfeasibilityPenalty is added to a candidate's fitness whenever its
// rollout would drive the battery negative or a gene outside its bound.
const InfeasibilityPenalty = 1e6

// DiscountFactor is the per-future-slot geometric discount applied to the
// fitness rollout's running cost.
const DiscountFactor = 0.95

// Policy is the Predictive decision engine. It owns two independent RNG
// sub-streams seeded off the run seed: one for predictor noise, one for the
// optimizer's population search. Neither stream is shared with the
// per-slot event generator.
type Policy struct {
	Globals   models.GlobalConstants
	Optimizer optimizer.Optimizer
	noiseRNG  *rng.Source
	searchRNG *rng.Source
	fallback  *baseline.Policy

	predictors map[string]*predict.SensorPredictor
}

// New constructs a Predictive policy bound to a run's global constants.
func New(globals models.GlobalConstants) *Policy {
	var noiseRNG *rng.Source
	if globals.LegacyUnseededPredictorNoise {
		// Legacy behavior: seeded off wall-clock time, not the run seed.
		noiseRNG = rng.New(uint32(time.Now().UnixNano()))
	} else {
		noiseRNG = rng.New(globals.Seed + 1)
	}

	opt := optimizer.Optimizer(optimizer.Genetic{})
	if globals.OptimizerKind == models.OptimizerDifferentialEvolution {
		opt = optimizer.NewDifferentialEvolution()
	}

	return &Policy{
		Globals:    globals,
		Optimizer:  opt,
		noiseRNG:   noiseRNG,
		searchRNG:  rng.New(globals.Seed + 2),
		fallback:   baseline.New(globals),
		predictors: make(map[string]*predict.SensorPredictor),
	}
}

func (p *Policy) predictorFor(sensorID string) *predict.SensorPredictor {
	pred, ok := p.predictors[sensorID]
	if !ok {
		pred = predict.NewSensorPredictor()
		p.predictors[sensorID] = pred
	}
	return pred
}

// Decide implements the shared Policy contract, discarding optimizer
// telemetry. Callers that need the per-generation log (the simulation
// Driver, to populate optimizer_log) should call DecideWithLog instead.
func (p *Policy) Decide(sensor models.SensorConfig, st state.SensorState, draw events.Draw) policy.Decision {
	d, _ := p.DecideWithLog(sensor, st, draw)
	return d
}

// DecideWithLog runs the full Predictive decision: EWMA rollout prediction,
// optimizer search over the three-gene action space, then commits using the
// actual realized draw rather than the predicted one. The log is nil when
// the horizon-zero fallback bypassed the optimizer entirely.
func (p *Policy) DecideWithLog(sensor models.SensorConfig, st state.SensorState, draw events.Draw) (policy.Decision, []optimizer.GenerationRecord) {
	pred := p.predictorFor(sensor.ID)
	defer pred.Observe(draw.ArrivalBits, draw.HarvestJ, draw.ChannelGain)

	if p.Globals.Horizon <= 0 {
		return p.fallback.Decide(sensor, st, draw), nil
	}

	predictions := pred.Rollout(p.Globals.Horizon, p.noiseRNG, sensor.MeanArrival, sensor.MeanHarvest, sensor.MeanChannelGain)
	fitness := rolloutFitness(sensor, st, predictions, p.Globals)

	params := optimizer.Params{
		Population:          p.Globals.Population,
		Generations:          p.Globals.Generations,
		MutationProbability: p.Globals.MutationProbability,
		Restarts:             p.Globals.Restarts,
		TimeBudgetMs:         p.Globals.OptimizerTimeBudget,
	}
	result := p.Optimizer.Optimize(p.searchRNG, fitness, optimizer.DefaultBounds, params)

	alpha := result.Best.Genes[0]
	fu := result.Best.Genes[1] * sensor.MaxCPUFrequency
	pu := result.Best.Genes[2] * sensor.MaxTxPower

	// Committed using the realized channel gain, not the predicted one the
	// fitness rollout searched against.
	cl := policy.LocalServiceRate(fu, p.Globals, sensor.CyclesPerBit)
	co := policy.TxRate(pu, draw.ChannelGain, p.Globals)
	eLoc := policy.LocalEnergy(fu, p.Globals)
	eTx := policy.TxEnergy(pu, p.Globals)

	decision := policy.Decision{
		Alpha:        alpha,
		CPUFreqHz:    fu,
		TxPowerW:     pu,
		LocalServed:  cl,
		TxServed:     co,
		LocalEnergyJ: eLoc,
		TxEnergyJ:    eTx,
	}
	return decision, result.Log
}

// rolloutFitness closes over one sensor's starting state and predicted
// future events, returning a FitnessFunc that simulates min(H,
// len(predictions)) future slots under a fixed candidate action and sums
// the geometrically discounted per-slot cost.
func rolloutFitness(sensor models.SensorConfig, start state.SensorState, predictions []predict.Triple, g models.GlobalConstants) optimizer.FitnessFunc {
	return func(genes optimizer.Genes) float64 {
		alpha, fHat, pHat := genes[0], genes[1], genes[2]

		penalty := 0.0
		if alpha < 0 || alpha > 1 || fHat < 0.1 || fHat > 1 || pHat < 0 || pHat > 1 {
			penalty += InfeasibilityPenalty
		}

		fu := fHat * sensor.MaxCPUFrequency
		pu := pHat * sensor.MaxTxPower
		cl := policy.LocalServiceRate(fu, g, sensor.CyclesPerBit)
		eLoc := policy.LocalEnergy(fu, g)
		eTx := policy.TxEnergy(pu, g)

		curr := start
		cost := 0.0
		discount := 1.0
		for _, pr := range predictions {
			co := policy.TxRate(pu, pr.ChannelGain, g)

			slotCost := g.V*(eLoc+eTx) +
				curr.HLocal*((1-alpha)*pr.ArrivalBits-cl) +
				curr.HOffload*(alpha*pr.ArrivalBits-co)
			cost += discount * slotCost

			if curr.Battery-eLoc < 0 {
				penalty += InfeasibilityPenalty
			}

			curr = curr.Advance(state.Commit{
				Alpha:        alpha,
				ArrivalBits:  pr.ArrivalBits,
				HarvestJ:     pr.HarvestJ,
				LocalServed:  cl,
				TxServed:     co,
				EdgeServed:   0,
				LocalEnergyJ: eLoc,
			})
			discount *= DiscountFactor
		}
		return cost + penalty
	}
}
