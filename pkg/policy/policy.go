// Package policy defines the shared contract both the Baseline and
// Predictive policies implement, plus the derivation helpers (service
// rates, energy) they both need. Sharing lives in free functions
// parameterized by a models.GlobalConstants value rather than a base type;
// there is no inheritance here, only composition.
package policy

import (
	"math"

	"github.com/casperlundberg/edge-offload-simulator/pkg/events"
	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
	"github.com/casperlundberg/edge-offload-simulator/pkg/state"
)

// Decision is what a policy returns for one sensor in one slot: the chosen
// action (alpha, f_u, p_u) plus the service and energy quantities derived
// from it.
type Decision struct {
	Alpha       float64 // offload fraction/bit actually applied
	CPUFreqHz   float64 // f_u
	TxPowerW    float64 // p_u
	LocalServed float64 // C_l
	TxServed    float64 // C_o
	LocalEnergyJ float64 // E_loc
	TxEnergyJ   float64 // E_tx, informational
}

// Policy is the contract both Baseline and Predictive implement: decide
// the action for one sensor given its current state and this slot's
// events. Committing the decision to the next state is done by the caller
// through state.SensorState.Advance. Edge
// resource allocation (xi) is computed separately, across all sensors, by
// AllocateEdge below, since it is not a per-sensor decision.
type Policy interface {
	Decide(sensor models.SensorConfig, st state.SensorState, draw events.Draw) Decision
}

// LocalServiceRate returns C_l = f_u * tau / delta, the bits a sensor can
// process locally in one slot at CPU frequency f_u.
func LocalServiceRate(freqHz float64, g models.GlobalConstants, cyclesPerBit float64) float64 {
	if cyclesPerBit <= 0 {
		cyclesPerBit = g.DefaultCyclesPerBit
	}
	return freqHz * g.SlotDuration / cyclesPerBit
}

// LocalEnergy returns E_loc = theta * f_u^3 * tau.
func LocalEnergy(freqHz float64, g models.GlobalConstants) float64 {
	return g.CPUEnergyCoeff * freqHz * freqHz * freqHz * g.SlotDuration
}

// TxRate returns C_o = W*tau*log2(1 + p_u*g/sigma^2), the Shannon capacity
// achieved transmitting at power p_u over a channel with gain g.
func TxRate(powerW, channelGain float64, g models.GlobalConstants) float64 {
	noise := models.Floor(g.NoisePower)
	snr := powerW * channelGain / noise
	return g.Bandwidth * g.SlotDuration * math.Log2(1+snr)
}

// TxEnergy returns E_tx = p_u * tau, informational only (not part of the
// battery recurrence, which only accounts for local compute energy).
func TxEnergy(powerW float64, g models.GlobalConstants) float64 {
	return powerW * g.SlotDuration
}

// EdgeRate returns C_k = xi * f_k * tau / delta, the bits the edge server
// processes for a sensor allocated share xi.
func EdgeRate(xi, edgeFreqHz float64, g models.GlobalConstants, cyclesPerBit float64) float64 {
	if cyclesPerBit <= 0 {
		cyclesPerBit = g.DefaultCyclesPerBit
	}
	return xi * edgeFreqHz * g.SlotDuration / cyclesPerBit
}

// EdgeShare is one sensor's weight for the proportional edge allocation
// sub-problem.
type EdgeShare struct {
	SensorID      string
	PriorityWeight float64
	HEdge         float64
}

// AllocateEdge implements Baseline sub-problem 4: allocate xi_u
// proportionally to w_u * H_k,u across the sensors sharing one edge
// server; fall back to a uniform split when every weighted backlog is
// zero. Each xi is clipped to at most 1.
func AllocateEdge(shares []EdgeShare) map[string]float64 {
	out := make(map[string]float64, len(shares))
	if len(shares) == 0 {
		return out
	}
	total := 0.0
	weighted := make([]float64, len(shares))
	for i, sh := range shares {
		weighted[i] = sh.PriorityWeight * sh.HEdge
		total += weighted[i]
	}
	if total <= 0 {
		uniform := 1.0 / float64(len(shares))
		for _, sh := range shares {
			out[sh.SensorID] = math.Min(1, uniform)
		}
		return out
	}
	for i, sh := range shares {
		out[sh.SensorID] = math.Min(1, weighted[i]/total)
	}
	return out
}
