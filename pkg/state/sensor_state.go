// Package state implements the sensor/edge state machine (C3): the four
// non-negative queue/battery quantities per sensor and the recurrence that
// advances them one slot at a time.
package state

import (
	"encoding/json"
	"fmt"

	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
)

// SensorState holds one sensor's mutable runtime quantities: local queue
// backlog, offload-pending backlog, edge-side backlog attributed to this
// sensor, and battery energy. All four are non-negative at every slot
// boundary by construction of Advance.
type SensorState struct {
	HLocal   float64 `json:"h_l"`
	HOffload float64 `json:"h_o"`
	HEdge    float64 `json:"h_k"`
	Battery  float64 `json:"battery_j"`
}

// New constructs the initial state for a sensor: the initial queue is split
// evenly between the local and offload backlogs, the edge backlog starts
// empty, and the battery starts at the configured initial energy.
func New(cfg models.SensorConfig) SensorState {
	return SensorState{
		HLocal:   cfg.InitialQueue / 2,
		HOffload: cfg.InitialQueue / 2,
		HEdge:    0,
		Battery:  cfg.InitialBattery,
	}
}

// Commit is the realized consumption/production for one slot, produced by a
// policy decision and the slot's stochastic draws.
type Commit struct {
	Alpha        float64 // offload fraction actually applied this slot
	ArrivalBits  float64
	HarvestJ     float64
	LocalServed  float64 // C_l: bits processed locally
	TxServed     float64 // C_o: bits transmitted
	EdgeServed   float64 // C_k: bits processed at edge for this sensor
	LocalEnergyJ float64 // E_loc
}

// Advance applies the §4.3 recurrence, returning the next state. The
// max(0, ...) clamps before adding new arrivals/harvest mean surplus
// service capacity is discarded rather than banked against future slots,
// and battery energy that would have gone negative is clipped rather than
// allowed to borrow from the harvest just received.
func (s SensorState) Advance(c Commit) SensorState {
	next := SensorState{
		HLocal:   max0(s.HLocal-c.LocalServed) + (1-c.Alpha)*c.ArrivalBits,
		HOffload: max0(s.HOffload-c.TxServed) + c.Alpha*c.ArrivalBits,
		HEdge:    max0(s.HEdge-c.EdgeServed) + c.TxServed,
		Battery:  max0(s.Battery-c.LocalEnergyJ) + c.HarvestJ,
	}
	return next
}

// ClipLoss reports the battery energy that Advance discarded because
// consumption this slot exceeded the available battery, for the battery
// conservation testable property: B' - B = harvest - E_loc + clip_loss.
func (s SensorState) ClipLoss(c Commit) float64 {
	if c.LocalEnergyJ > s.Battery {
		return c.LocalEnergyJ - s.Battery
	}
	return 0
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Clone returns an independent copy. SensorState is already a value type;
// this exists for call-site clarity.
func (s SensorState) Clone() SensorState {
	return s
}

// Serialize converts the state to JSON.
func (s SensorState) Serialize() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Deserialize parses a SensorState from JSON.
func Deserialize(data string) (SensorState, error) {
	var s SensorState
	err := json.Unmarshal([]byte(data), &s)
	return s, err
}

// Summary is a human-readable description, useful in CLI/log output.
func (s SensorState) Summary() string {
	return fmt.Sprintf("H_l=%.1f H_o=%.1f H_k=%.1f B=%.3fJ", s.HLocal, s.HOffload, s.HEdge, s.Battery)
}
