// Package simulation implements the slotted discrete-event simulation
// driver (C5): it runs the Baseline and Predictive policies in lockstep
// over N slots, each on its own independent sensor-state copies and RNG
// streams, aggregates the per-slot global metrics, and streams progress to
// the host through plain callbacks. It owns no algorithmic content of its
// own; every decision comes from pkg/policy/baseline or
// pkg/policy/predictive, and the driver only sequences, aggregates and
// reports.
package simulation

import (
	"runtime"

	"github.com/google/uuid"

	"github.com/casperlundberg/edge-offload-simulator/pkg/events"
	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
	"github.com/casperlundberg/edge-offload-simulator/pkg/optimizer"
	"github.com/casperlundberg/edge-offload-simulator/pkg/policy"
	"github.com/casperlundberg/edge-offload-simulator/pkg/policy/baseline"
	"github.com/casperlundberg/edge-offload-simulator/pkg/policy/predictive"
	"github.com/casperlundberg/edge-offload-simulator/pkg/rng"
	"github.com/casperlundberg/edge-offload-simulator/pkg/state"
)

// YieldEvery is the cooperative-yield cadence: the driver checks for
// cancellation and hands control back to the Go scheduler once every this
// many slots, so an embedding UI driving the same goroutine pool gets a
// chance to paint.
const YieldEvery = 10

// Driver runs one experiment configuration to completion (or cancellation,
// or error) and accumulates the full SimulationState as it goes.
type Driver struct {
	cfg models.ExperimentConfig
	id  string
}

// New constructs a Driver bound to one (already-loaded) experiment
// configuration. Validate the configuration before calling Run; an invalid
// configuration never produces a slot. The run id is assigned here, not in
// Run, so a caller that needs to register the run (a persistence
// subscriber, an HTTP handle) can learn it before the first slot executes.
func New(cfg models.ExperimentConfig) *Driver {
	return &Driver{cfg: cfg, id: uuid.New().String()}
}

// ID returns the run identifier assigned at construction.
func (d *Driver) ID() string {
	return d.id
}

// ProgressFunc is the advisory per-slot callback. A panicking ProgressFunc
// is recovered and swallowed; it must never corrupt the run it is
// observing.
type ProgressFunc func(models.SimulationState)

// OptimizerLogFunc is the advisory per-generation optimizer telemetry
// callback, invoked once per Predictive optimizer generation per sensor.
type OptimizerLogFunc func(sensorID string, entry models.OptimizerLogEntry)

// RunOptions configures one Run call.
type RunOptions struct {
	OnProgress     ProgressFunc
	OnOptimizerLog OptimizerLogFunc
	// Cancel is polled (non-blocking) at every cooperative yield point. A
	// closed or ready channel halts the run with status=cancelled.
	Cancel <-chan struct{}
}

// Run executes the configured experiment and returns the final
// SimulationState. It never panics: a runtime error inside a slot is
// captured, the state's status is set to error, and every slot result
// accumulated so far is preserved.
func (d *Driver) Run(opts RunOptions) (result models.SimulationState) {
	result = models.SimulationState{
		RunID:      d.id,
		Status:     models.StatusRunning,
		TotalSlots: d.cfg.TotalSlots,
	}

	if errs := d.cfg.Validate(); errs.HasErrors() {
		result.Status = models.StatusError
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result.Status = models.StatusError
		}
	}()

	g := d.cfg.Constants
	baselinePolicy := baseline.New(g)
	predictivePolicy := predictive.New(g)

	baselineRNG := rng.New(g.Seed)
	predictiveRNG := rng.New(g.Seed + 1)

	baselineStates := make(map[string]state.SensorState, len(d.cfg.Sensors))
	predictiveStates := make(map[string]state.SensorState, len(d.cfg.Sensors))
	generators := make(map[string]*events.Generator, len(d.cfg.Sensors))
	for _, sc := range d.cfg.Sensors {
		baselineStates[sc.ID] = state.New(sc)
		predictiveStates[sc.ID] = state.New(sc)
		generators[sc.ID] = events.New(sc)
	}

	for slot := 0; slot < d.cfg.TotalSlots; slot++ {
		baselineRecord, nextBaseline := d.runPolicySlot(slot, models.AlgorithmBaseline, baselinePolicy.Decide,
			generators, baselineRNG, baselineStates, g)
		baselineStates = nextBaseline
		result.BaselineResults = append(result.BaselineResults, baselineRecord)

		predictiveRecord, nextPredictive, telemetry := d.runPredictiveSlot(slot, predictivePolicy,
			generators, predictiveRNG, predictiveStates, g)
		predictiveStates = nextPredictive
		result.PredictiveResults = append(result.PredictiveResults, predictiveRecord)
		for _, entry := range telemetry {
			result.OptimizerLog = append(result.OptimizerLog, entry)
			safeOptimizerLog(opts.OnOptimizerLog, entry.SensorID, entry)
		}

		result.CurrentSlot = slot + 1
		safeProgress(opts.OnProgress, result)

		if (slot+1)%YieldEvery == 0 {
			if cancelled(opts.Cancel) {
				result.Status = models.StatusCancelled
				return result
			}
			runtime.Gosched()
		}
	}

	result.Status = models.StatusCompleted
	return result
}

func cancelled(c <-chan struct{}) bool {
	if c == nil {
		return false
	}
	select {
	case <-c:
		return true
	default:
		return false
	}
}

func safeProgress(fn ProgressFunc, s models.SimulationState) {
	if fn == nil {
		return
	}
	defer func() { recover() }()
	fn(s)
}

func safeOptimizerLog(fn OptimizerLogFunc, sensorID string, entry models.OptimizerLogEntry) {
	if fn == nil {
		return
	}
	defer func() { recover() }()
	fn(sensorID, entry)
}

// decideFunc matches both baseline.Policy.Decide and predictive.Policy.Decide.
type decideFunc func(models.SensorConfig, state.SensorState, events.Draw) policy.Decision

// runPolicySlot runs one policy (Baseline, or Predictive without its
// telemetry) for every sensor in configuration order, then resolves the
// cross-sensor edge allocation sub-problem once every sensor's decision is
// known, and returns the committed SlotResult plus the next state map.
func (d *Driver) runPolicySlot(slot int, alg models.Algorithm, decide decideFunc,
	generators map[string]*events.Generator, rngSrc *rng.Source,
	states map[string]state.SensorState, g models.GlobalConstants) (models.SlotResult, map[string]state.SensorState) {

	decisions := make([]policy.Decision, len(d.cfg.Sensors))
	draws := make([]events.Draw, len(d.cfg.Sensors))
	shares := make([]policy.EdgeShare, len(d.cfg.Sensors))

	for i, sc := range d.cfg.Sensors {
		draw := generators[sc.ID].Next(rngSrc)
		draws[i] = draw
		st := states[sc.ID]
		decisions[i] = decide(sc, st, draw)
		shares[i] = policy.EdgeShare{SensorID: sc.ID, PriorityWeight: sc.PriorityWeight, HEdge: st.HEdge}
	}

	xi := policy.AllocateEdge(shares)

	nextStates := make(map[string]state.SensorState, len(states))
	sensors := make([]models.SensorSlotResult, len(d.cfg.Sensors))
	edgeSensors := make([]models.EdgeSensorShare, len(d.cfg.Sensors))

	for i, sc := range d.cfg.Sensors {
		st := states[sc.ID]
		dec := decisions[i]
		draw := draws[i]
		share := xi[sc.ID]
		ck := policy.EdgeRate(share, d.cfg.Edge.CPUFrequency, g, sc.CyclesPerBit)

		next := st.Advance(state.Commit{
			Alpha:        dec.Alpha,
			ArrivalBits:  draw.ArrivalBits,
			HarvestJ:     draw.HarvestJ,
			LocalServed:  dec.LocalServed,
			TxServed:     dec.TxServed,
			EdgeServed:   ck,
			LocalEnergyJ: dec.LocalEnergyJ,
		})
		nextStates[sc.ID] = next

		sensors[i] = models.SensorSlotResult{
			ID:             sc.ID,
			HLocal:         next.HLocal,
			HOffload:       next.HOffload,
			HEdge:          next.HEdge,
			Alpha:          dec.Alpha,
			LocalEnergyJ:   dec.LocalEnergyJ,
			TxEnergyJ:      dec.TxEnergyJ,
			TxPowerW:       dec.TxPowerW,
			CPUFrequencyHz: dec.CPUFreqHz,
			ArrivalBits:    draw.ArrivalBits,
			HarvestJ:       draw.HarvestJ,
			BatteryJ:       next.Battery,
		}
		edgeSensors[i] = models.EdgeSensorShare{ID: sc.ID, Xi: share, ProcessedBits: ck}
	}

	record := models.SlotResult{
		Slot:      slot,
		Algorithm: alg,
		Sensors:   sensors,
		Edge:      models.EdgeSlotResult{Sensors: edgeSensors},
		Global:    globalMetrics(sensors),
	}
	return record, nextStates
}

// runPredictiveSlot is runPolicySlot specialized for the Predictive policy,
// which additionally emits per-generation optimizer telemetry.
func (d *Driver) runPredictiveSlot(slot int, p *predictive.Policy, generators map[string]*events.Generator,
	rngSrc *rng.Source, states map[string]state.SensorState, g models.GlobalConstants) (models.SlotResult, map[string]state.SensorState, []models.OptimizerLogEntry) {

	decisions := make([]policy.Decision, len(d.cfg.Sensors))
	draws := make([]events.Draw, len(d.cfg.Sensors))
	shares := make([]policy.EdgeShare, len(d.cfg.Sensors))
	var telemetry []models.OptimizerLogEntry

	for i, sc := range d.cfg.Sensors {
		draw := generators[sc.ID].Next(rngSrc)
		draws[i] = draw
		st := states[sc.ID]
		dec, log := p.DecideWithLog(sc, st, draw)
		decisions[i] = dec
		shares[i] = policy.EdgeShare{SensorID: sc.ID, PriorityWeight: sc.PriorityWeight, HEdge: st.HEdge}
		telemetry = append(telemetry, toOptimizerLogEntries(sc.ID, slot, log)...)
	}

	xi := policy.AllocateEdge(shares)

	nextStates := make(map[string]state.SensorState, len(states))
	sensors := make([]models.SensorSlotResult, len(d.cfg.Sensors))
	edgeSensors := make([]models.EdgeSensorShare, len(d.cfg.Sensors))

	for i, sc := range d.cfg.Sensors {
		st := states[sc.ID]
		dec := decisions[i]
		draw := draws[i]
		share := xi[sc.ID]
		ck := policy.EdgeRate(share, d.cfg.Edge.CPUFrequency, g, sc.CyclesPerBit)

		next := st.Advance(state.Commit{
			Alpha:        dec.Alpha,
			ArrivalBits:  draw.ArrivalBits,
			HarvestJ:     draw.HarvestJ,
			LocalServed:  dec.LocalServed,
			TxServed:     dec.TxServed,
			EdgeServed:   ck,
			LocalEnergyJ: dec.LocalEnergyJ,
		})
		nextStates[sc.ID] = next

		sensors[i] = models.SensorSlotResult{
			ID:             sc.ID,
			HLocal:         next.HLocal,
			HOffload:       next.HOffload,
			HEdge:          next.HEdge,
			Alpha:          dec.Alpha,
			LocalEnergyJ:   dec.LocalEnergyJ,
			TxEnergyJ:      dec.TxEnergyJ,
			TxPowerW:       dec.TxPowerW,
			CPUFrequencyHz: dec.CPUFreqHz,
			ArrivalBits:    draw.ArrivalBits,
			HarvestJ:       draw.HarvestJ,
			BatteryJ:       next.Battery,
		}
		edgeSensors[i] = models.EdgeSensorShare{ID: sc.ID, Xi: share, ProcessedBits: ck}
	}

	record := models.SlotResult{
		Slot:      slot,
		Algorithm: models.AlgorithmPredictive,
		Sensors:   sensors,
		Edge:      models.EdgeSlotResult{Sensors: edgeSensors},
		Global:    globalMetrics(sensors),
	}
	return record, nextStates, telemetry
}

func toOptimizerLogEntries(sensorID string, slot int, log []optimizer.GenerationRecord) []models.OptimizerLogEntry {
	if len(log) == 0 {
		return nil
	}
	out := make([]models.OptimizerLogEntry, len(log))
	for i, g := range log {
		out[i] = models.OptimizerLogEntry{
			SensorID:        sensorID,
			Slot:            slot,
			Generation:      g.Generation,
			BestFitness:     g.BestFitness,
			AverageFitness:  g.AverageFitness,
			InfeasibleCount: g.InfeasibleCount,
			ElapsedMs:       g.ElapsedMs,
		}
	}
	return out
}

// latencyFloor is the denominator floor for avg_latency_ms: when a sensor's
// arrival this slot is below it, its contribution uses the floor instead of
// a near-zero epsilon.
const latencyFloor = 1e5

func globalMetrics(sensors []models.SensorSlotResult) models.GlobalMetrics {
	var totalBacklog, totalEnergy, latencySum float64
	for _, s := range sensors {
		backlog := s.HLocal + s.HOffload + s.HEdge
		totalBacklog += backlog
		totalEnergy += s.LocalEnergyJ + s.TxEnergyJ
		denom := s.ArrivalBits
		if denom < latencyFloor {
			denom = latencyFloor
		}
		latencySum += backlog / denom * 1000
	}
	avgLatency := 0.0
	if len(sensors) > 0 {
		avgLatency = latencySum / float64(len(sensors))
	}
	return models.GlobalMetrics{
		TotalBacklogBits: totalBacklog,
		TotalEnergyJ:     totalEnergy,
		BestFitness:      -totalEnergy - 0.01*totalBacklog,
		AvgLatencyMs:     avgLatency,
	}
}
