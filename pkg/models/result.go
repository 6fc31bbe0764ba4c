package models

// Algorithm tags which policy produced a SlotResult.
type Algorithm string

const (
	AlgorithmBaseline  Algorithm = "baseline"
	AlgorithmPredictive Algorithm = "predictive"
)

// Status is the lifecycle state of a SimulationState.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// SensorSlotResult is one sensor's committed decision and resulting state
// for a single slot, under a single policy.
type SensorSlotResult struct {
	ID            string  `json:"id"`
	HLocal        float64 `json:"h_l"`
	HOffload      float64 `json:"h_o"`
	HEdge         float64 `json:"h_k"`
	Alpha         float64 `json:"alpha"`
	LocalEnergyJ  float64 `json:"local_energy_j"`
	TxEnergyJ     float64 `json:"tx_energy_j"`
	TxPowerW      float64 `json:"p_tx_w"`
	CPUFrequencyHz float64 `json:"f_cpu_hz"`
	ArrivalBits   float64 `json:"arrival_bits"`
	HarvestJ      float64 `json:"harvest_j"`
	BatteryJ      float64 `json:"battery_j"`
}

// EdgeSensorShare is one sensor's allocation of the shared edge server in a
// given slot.
type EdgeSensorShare struct {
	ID            string  `json:"id"`
	Xi            float64 `json:"xi"`
	ProcessedBits float64 `json:"processed_bits"`
}

// EdgeSlotResult is the shared edge server's allocation for a single slot.
type EdgeSlotResult struct {
	Sensors []EdgeSensorShare `json:"sensors"`
}

// GlobalMetrics are the slot-level aggregates computed by the driver after
// both policies have committed their decisions.
type GlobalMetrics struct {
	TotalBacklogBits float64 `json:"total_backlog_bits"`
	TotalEnergyJ     float64 `json:"total_energy_j"`
	BestFitness      float64 `json:"best_fitness"`
	AvgLatencyMs     float64 `json:"avg_latency_ms"`
}

// SlotResult is one policy's full record for one slot.
type SlotResult struct {
	Slot      int                `json:"slot"`
	Algorithm Algorithm          `json:"algorithm"`
	Sensors   []SensorSlotResult `json:"sensors"`
	Edge      EdgeSlotResult     `json:"edge"`
	Global    GlobalMetrics      `json:"global"`
}

// OptimizerLogEntry is one generation's telemetry from the Predictive
// policy's stochastic optimizer, for one sensor's decision at one slot.
type OptimizerLogEntry struct {
	SensorID        string  `json:"sensor_id"`
	Slot            int     `json:"slot"`
	Generation      int     `json:"generation"`
	BestFitness     float64 `json:"best_fitness"`
	AverageFitness  float64 `json:"average_fitness"`
	InfeasibleCount int     `json:"infeasible_count"`
	ElapsedMs       float64 `json:"elapsed_ms"`
}

// SimulationState is the full output of a run: everything accumulated up to
// (and including, on a terminal status) the current slot.
type SimulationState struct {
	RunID             string              `json:"run_id"`
	Status            Status              `json:"status"`
	CurrentSlot       int                 `json:"current_slot"`
	TotalSlots        int                 `json:"total_slots"`
	BaselineResults   []SlotResult        `json:"baseline_results"`
	PredictiveResults []SlotResult        `json:"predictive_results"`
	OptimizerLog      []OptimizerLogEntry `json:"optimizer_log"`
}
