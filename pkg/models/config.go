// Package models holds the immutable configuration and validation types
// shared by every component: sensor and edge configuration, the tagged
// arrival/harvest distribution unions, and the accumulating validation
// error type every Validate method reports through.
package models

import "math"

// ArrivalKind tags which distribution an ArrivalModel carries.
type ArrivalKind string

const (
	ArrivalPoisson ArrivalKind = "poisson"
	ArrivalFixed   ArrivalKind = "fixed"
	ArrivalUniform ArrivalKind = "uniform"
)

func (k ArrivalKind) IsValid() bool {
	switch k {
	case ArrivalPoisson, ArrivalFixed, ArrivalUniform:
		return true
	}
	return false
}

// ArrivalModel is a tagged union; only the fields relevant to Type are
// meaningful, and every consumer must switch on Type rather than treating
// this as a flat bag of optional values.
type ArrivalModel struct {
	Type   ArrivalKind `json:"type"`
	Lambda float64     `json:"lambda,omitempty"` // poisson
	Value  float64     `json:"value,omitempty"`  // fixed
	Min    float64     `json:"min,omitempty"`    // uniform
	Max    float64     `json:"max,omitempty"`    // uniform
}

func (m ArrivalModel) Validate(path string) ValidationErrors {
	var errs ValidationErrors
	errs.AddIf(!m.Type.IsValid(), path+".type", m.Type, "unknown arrival model type")
	switch m.Type {
	case ArrivalPoisson:
		errs.AddIf(m.Lambda < 0, path+".lambda", m.Lambda, "lambda must be non-negative")
	case ArrivalFixed:
		errs.AddIf(m.Value < 0, path+".value", m.Value, "value must be non-negative")
	case ArrivalUniform:
		errs.AddIf(m.Min < 0, path+".min", m.Min, "min must be non-negative")
		errs.AddIf(m.Max < m.Min, path+".max", m.Max, "max must be >= min")
	}
	return errs
}

// HarvestKind tags which distribution a HarvestModel carries.
type HarvestKind string

const (
	HarvestBernoulli HarvestKind = "bernoulli"
	HarvestConstant  HarvestKind = "constant"
	HarvestGaussian  HarvestKind = "gaussian"
)

func (k HarvestKind) IsValid() bool {
	switch k {
	case HarvestBernoulli, HarvestConstant, HarvestGaussian:
		return true
	}
	return false
}

// HarvestModel is a tagged union over the energy-harvesting distribution.
type HarvestModel struct {
	Type  HarvestKind `json:"type"`
	P     float64     `json:"p,omitempty"`     // bernoulli
	Value float64     `json:"value,omitempty"` // bernoulli, constant
	Mean  float64     `json:"mean,omitempty"`  // gaussian
	Std   float64     `json:"std,omitempty"`   // gaussian
}

func (m HarvestModel) Validate(path string) ValidationErrors {
	var errs ValidationErrors
	errs.AddIf(!m.Type.IsValid(), path+".type", m.Type, "unknown harvest model type")
	switch m.Type {
	case HarvestBernoulli:
		errs.AddIf(m.P < 0 || m.P > 1, path+".p", m.P, "p must be in [0,1]")
		errs.AddIf(m.Value < 0, path+".value", m.Value, "value must be non-negative")
	case HarvestConstant:
		errs.AddIf(m.Value < 0, path+".value", m.Value, "value must be non-negative")
	case HarvestGaussian:
		errs.AddIf(m.Mean < 0, path+".mean", m.Mean, "mean must be non-negative")
		errs.AddIf(m.Std < 0, path+".std", m.Std, "std must be non-negative")
	}
	return errs
}

// OffloadMode selects whether a sensor's scheduling decision is a hard
// local/offload bit or a continuous fraction.
type OffloadMode string

const (
	OffloadBinary     OffloadMode = "binary"
	OffloadFractional OffloadMode = "fractional"
)

func (m OffloadMode) IsValid() bool {
	return m == OffloadBinary || m == OffloadFractional
}

// SensorConfig is the immutable per-run description of one IoT sensor.
type SensorConfig struct {
	ID              string       `json:"id"`
	MeanArrival     float64      `json:"mean_arrival_bits"`
	Arrival         ArrivalModel `json:"arrival_model"`
	InitialQueue    float64      `json:"initial_queue_bits"`
	InitialBattery  float64      `json:"initial_battery_j"`
	MeanHarvest     float64      `json:"mean_harvest_j"`
	Harvest         HarvestModel `json:"harvest_model"`
	MaxCPUFrequency float64      `json:"max_cpu_frequency_hz"`
	CyclesPerBit    float64      `json:"cycles_per_bit"`
	MaxTxPower      float64      `json:"max_tx_power_w"`
	MeanChannelGain float64      `json:"mean_channel_gain"`
	ChannelVariance float64      `json:"channel_variance"`
	Mode            OffloadMode  `json:"offload_mode"`
	PriorityWeight  float64      `json:"priority_weight"`
}

func (c SensorConfig) Validate(index int) ValidationErrors {
	path := func(field string) string { return field }
	_ = index
	var errs ValidationErrors
	errs.AddIf(c.ID == "", path("id"), c.ID, "sensor id must not be empty")
	errs.AddIf(c.MeanArrival < 0, path("mean_arrival_bits"), c.MeanArrival, "must be non-negative")
	errs.AddIf(c.InitialQueue < 0, path("initial_queue_bits"), c.InitialQueue, "must be non-negative")
	errs.AddIf(c.InitialBattery < 0, path("initial_battery_j"), c.InitialBattery, "must be non-negative")
	errs.AddIf(c.MeanHarvest < 0, path("mean_harvest_j"), c.MeanHarvest, "must be non-negative")
	errs.AddIf(c.MaxCPUFrequency < 0, path("max_cpu_frequency_hz"), c.MaxCPUFrequency, "must be non-negative")
	errs.AddIf(c.CyclesPerBit <= 0, path("cycles_per_bit"), c.CyclesPerBit, "must be positive")
	errs.AddIf(c.MaxTxPower < 0, path("max_tx_power_w"), c.MaxTxPower, "must be non-negative")
	errs.AddIf(c.MeanChannelGain < 0, path("mean_channel_gain"), c.MeanChannelGain, "must be non-negative")
	errs.AddIf(c.ChannelVariance < 0, path("channel_variance"), c.ChannelVariance, "must be non-negative")
	errs.AddIf(!c.Mode.IsValid(), path("offload_mode"), c.Mode, "must be binary or fractional")
	errs.AddIf(c.PriorityWeight <= 0, path("priority_weight"), c.PriorityWeight, "must be positive")
	errs = append(errs, c.Arrival.Validate("arrival_model")...)
	errs = append(errs, c.Harvest.Validate("harvest_model")...)
	return errs
}

// EdgeConfig is the immutable description of the single shared edge server.
type EdgeConfig struct {
	ID           string  `json:"id"`
	CPUFrequency float64 `json:"cpu_frequency_hz"`
	Cores        int     `json:"cores"`
	MaxFrequency float64 `json:"max_frequency_hz"`
}

func (c EdgeConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	errs.AddIf(c.ID == "", "edge.id", c.ID, "edge server id must not be empty")
	errs.AddIf(c.CPUFrequency < 0, "edge.cpu_frequency_hz", c.CPUFrequency, "must be non-negative")
	errs.AddIf(c.Cores < 0, "edge.cores", c.Cores, "must be non-negative")
	errs.AddIf(c.MaxFrequency < 0, "edge.max_frequency_hz", c.MaxFrequency, "must be non-negative")
	return errs
}

// OptimizerKind selects which stochastic search drives the Predictive
// policy's action choice; both implement the same optimizer.Optimizer
// contract (see pkg/optimizer).
type OptimizerKind string

const (
	OptimizerGenetic              OptimizerKind = "genetic"
	OptimizerDifferentialEvolution OptimizerKind = "differential_evolution"
)

func (k OptimizerKind) IsValid() bool {
	switch k {
	case OptimizerGenetic, OptimizerDifferentialEvolution, "":
		return true
	}
	return false
}

// GlobalConstants are the immutable, run-wide parameters passed by value
// into every policy call rather than held in a singleton.
type GlobalConstants struct {
	V                  float64       `json:"v"`
	SlotDuration        float64      `json:"slot_duration_s"`
	Bandwidth           float64      `json:"bandwidth_hz"`
	CPUEnergyCoeff      float64      `json:"cpu_energy_coefficient"`
	NoisePower          float64      `json:"noise_power_w"`
	DefaultCyclesPerBit float64      `json:"default_cycles_per_bit"`
	Horizon             int          `json:"prediction_horizon"`
	Population          int          `json:"optimizer_population"`
	Generations         int          `json:"optimizer_generations"`
	MutationProbability float64      `json:"optimizer_mutation_probability"`
	Restarts            int          `json:"optimizer_restarts"`
	Seed                uint32       `json:"seed"`
	OptimizerKind       OptimizerKind `json:"optimizer_kind,omitempty"`
	OptimizerTimeBudget float64      `json:"optimizer_time_budget_ms,omitempty"`

	// LegacyUnseededPredictorNoise restores the reference implementation's
	// unseeded horizon-perturbation noise (see SPEC_FULL.md §9). Default
	// false routes that noise through the Predictive policy's own seeded
	// stream for full determinism.
	LegacyUnseededPredictorNoise bool `json:"legacy_unseeded_predictor_noise,omitempty"`
}

func (g GlobalConstants) Validate() ValidationErrors {
	var errs ValidationErrors
	errs.AddIf(g.V <= 0, "v", g.V, "must be positive")
	errs.AddIf(g.SlotDuration <= 0, "slot_duration_s", g.SlotDuration, "must be positive")
	errs.AddIf(g.Bandwidth <= 0, "bandwidth_hz", g.Bandwidth, "must be positive")
	errs.AddIf(g.CPUEnergyCoeff <= 0, "cpu_energy_coefficient", g.CPUEnergyCoeff, "must be positive")
	errs.AddIf(g.NoisePower <= 0, "noise_power_w", g.NoisePower, "must be positive")
	errs.AddIf(g.DefaultCyclesPerBit <= 0, "default_cycles_per_bit", g.DefaultCyclesPerBit, "must be positive")
	errs.AddIf(g.Horizon < 0, "prediction_horizon", g.Horizon, "must be non-negative")
	if g.Horizon > 0 {
		errs.AddIf(g.Population <= 0, "optimizer_population", g.Population, "must be positive when horizon > 0")
		errs.AddIf(g.Generations <= 0, "optimizer_generations", g.Generations, "must be positive when horizon > 0")
		if g.OptimizerKind == OptimizerDifferentialEvolution {
			errs.AddIf(g.Population < 4, "optimizer_population", g.Population, "must be at least 4 for differential_evolution")
		}
	}
	errs.AddIf(g.MutationProbability < 0 || g.MutationProbability > 1,
		"optimizer_mutation_probability", g.MutationProbability, "must be in [0,1]")
	errs.AddIf(g.Restarts < 0, "optimizer_restarts", g.Restarts, "must be non-negative")
	errs.AddIf(!g.OptimizerKind.IsValid(), "optimizer_kind", g.OptimizerKind, "unknown optimizer kind")
	return errs
}

// ExperimentConfig is the single input value accepted by the simulation
// driver: sensors (order-significant, since order determines RNG draw
// order), exactly one edge server, and the global constants shared by both
// policies.
type ExperimentConfig struct {
	Sensors     []SensorConfig  `json:"sensors"`
	Edge        EdgeConfig      `json:"edge"`
	Constants   GlobalConstants `json:"constants"`
	TotalSlots  int             `json:"total_slots"`
}

// Validate accumulates every configuration problem rather than stopping at
// the first; an empty sensor list is itself reported here rather than left
// for the driver to discover at slot 0.
func (c ExperimentConfig) Validate() ValidationErrors {
	var errs ValidationErrors
	errs.AddIf(len(c.Sensors) == 0, "sensors", len(c.Sensors), "sensor list must not be empty")
	errs.AddIf(c.TotalSlots <= 0, "total_slots", c.TotalSlots, "must be positive")

	seen := make(map[string]bool, len(c.Sensors))
	for i, s := range c.Sensors {
		errs = append(errs, s.Validate(i)...)
		if s.ID != "" {
			errs.AddIf(seen[s.ID], "sensors[].id", s.ID, "duplicate sensor id")
			seen[s.ID] = true
		}
	}

	errs = append(errs, c.Edge.Validate()...)
	errs = append(errs, c.Constants.Validate()...)
	return errs
}

// floor avoids division-by-zero / log-of-non-positive hazards at the few
// call sites that divide by a value which is mathematically guaranteed
// non-negative but may be exactly zero (e.g. channel gain, noise power).
func floor(v, eps float64) float64 {
	return math.Max(v, eps)
}

// Epsilon is the floor used throughout the policy and event packages for
// denominators and logs that must stay strictly positive.
const Epsilon = 1e-10

// Floor clamps v to at least Epsilon.
func Floor(v float64) float64 {
	return floor(v, Epsilon)
}
