// Package baseline implements the Lyapunov drift-plus-penalty policy
// (C4a): four decoupled sub-problems, each with a closed-form optimum.
package baseline

import (
	"math"

	"github.com/casperlundberg/edge-offload-simulator/pkg/events"
	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
	"github.com/casperlundberg/edge-offload-simulator/pkg/policy"
	"github.com/casperlundberg/edge-offload-simulator/pkg/state"
)

// Policy is the Baseline decision engine. It holds only the global
// constants shared by every sensor; all sensor-specific quantities are
// threaded through Decide's parameters.
type Policy struct {
	Globals models.GlobalConstants
}

// New constructs a Baseline policy bound to a run's global constants.
func New(globals models.GlobalConstants) *Policy {
	return &Policy{Globals: globals}
}

// SchedulingBit solves sub-problem 1: kappa* = 0 (local) if H_o >= H_l,
// else 1 (offload). Ties resolve to local.
func SchedulingBit(hLocal, hOffload float64) int {
	if hOffload >= hLocal {
		return 0
	}
	return 1
}

// LocalFrequency solves sub-problem 2: the local CPU frequency trading off
// the cubic energy penalty against the linear queue-service bound.
func LocalFrequency(hLocal, battery float64, cyclesPerBit float64, fMax float64, g models.GlobalConstants) float64 {
	if cyclesPerBit <= 0 {
		cyclesPerBit = g.DefaultCyclesPerBit
	}
	fq := hLocal * cyclesPerBit / g.SlotDuration
	var fB float64
	if g.CPUEnergyCoeff*g.SlotDuration > 0 {
		fB = math.Cbrt(battery / (g.CPUEnergyCoeff * g.SlotDuration))
	}
	// fStar is the unconstrained Lyapunov optimum; unbounded when V is 0.
	fStar := math.Inf(1)
	if g.V*g.CPUEnergyCoeff*cyclesPerBit > 0 {
		fStar = math.Sqrt(hLocal / (3 * g.V * g.CPUEnergyCoeff * cyclesPerBit))
	}

	cap := math.Min(fMax, fq)
	if fB <= math.Min(fMax, fq) && fStar <= fB {
		return math.Min(fMax, math.Max(0, fStar))
	}
	if fStar <= cap {
		return math.Min(fMax, math.Min(fq, fStar))
	}
	return cap
}

// TxPower solves sub-problem 3: the water-filling transmit power, capped by
// the channel's Shannon rate cap and the sensor's hardware maximum.
func TxPower(hOffload, hEdge, channelGain float64, pMax float64, g models.GlobalConstants) float64 {
	if hOffload <= hEdge {
		return 0
	}
	noise := models.Floor(g.NoisePower)
	gain := models.Floor(channelGain)

	waterLevel := (hOffload-hEdge)*g.Bandwidth/(g.V*math.Ln2) - noise/gain

	exponent := hOffload / (g.Bandwidth * g.SlotDuration)
	rateCap := (math.Pow(2, exponent) - 1) * noise / gain

	return math.Max(0, math.Min(pMax, math.Min(waterLevel, rateCap)))
}

// Decide implements the Policy contract: runs sub-problems 1-3 for a single
// sensor. Sub-problem 4 (edge allocation) is cross-sensor and is computed
// separately by policy.AllocateEdge once every sensor's H_k is known for
// the slot.
func (p *Policy) Decide(sensor models.SensorConfig, st state.SensorState, draw events.Draw) policy.Decision {
	kappa := SchedulingBit(st.HLocal, st.HOffload)
	alpha := float64(kappa)
	if sensor.Mode == models.OffloadFractional {
		// No separate alpha sub-problem yet; fractional mode reuses kappa.
		alpha = float64(kappa)
	}

	fu := LocalFrequency(st.HLocal, st.Battery, sensor.CyclesPerBit, sensor.MaxCPUFrequency, p.Globals)
	pu := TxPower(st.HOffload, st.HEdge, draw.ChannelGain, sensor.MaxTxPower, p.Globals)

	cl := policy.LocalServiceRate(fu, p.Globals, sensor.CyclesPerBit)
	co := policy.TxRate(pu, draw.ChannelGain, p.Globals)
	eLoc := policy.LocalEnergy(fu, p.Globals)
	eTx := policy.TxEnergy(pu, p.Globals)

	return policy.Decision{
		Alpha:        alpha,
		CPUFreqHz:    fu,
		TxPowerW:     pu,
		LocalServed:  cl,
		TxServed:     co,
		LocalEnergyJ: eLoc,
		TxEnergyJ:    eTx,
	}
}
