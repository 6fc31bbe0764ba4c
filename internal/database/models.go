package database

import "time"

// Run is a persisted projection of a models.SimulationState: the submitted
// config plus lifecycle timestamps. It introduces no algorithmic fields of
// its own (SPEC_FULL.md §3 "persisted run record").
type Run struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Config    string    `json:"config"` // JSON-encoded models.ExperimentConfig
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SlotRecord is one sensor's row within one policy's SlotResult for one
// run, flattened for storage.
type SlotRecord struct {
	ID           uint    `json:"id" gorm:"primaryKey"`
	RunID        string  `json:"run_id" gorm:"index"`
	Algorithm    string  `json:"algorithm"`
	Slot         int     `json:"slot"`
	SensorID     string  `json:"sensor_id"`
	HLocal       float64 `json:"h_l"`
	HOffload     float64 `json:"h_o"`
	HEdge        float64 `json:"h_k"`
	Alpha        float64 `json:"alpha"`
	LocalEnergyJ float64 `json:"local_energy_j"`
	TxEnergyJ    float64 `json:"tx_energy_j"`
	TxPowerW     float64 `json:"p_tx_w"`
	CPUFreqHz    float64 `json:"f_cpu_hz"`
	ArrivalBits  float64 `json:"arrival_bits"`
	HarvestJ     float64 `json:"harvest_j"`
	BatteryJ     float64 `json:"battery_j"`
}

// OptimizerLogEntry is one Predictive-optimizer generation's telemetry row.
type OptimizerLogEntry struct {
	ID              uint    `json:"id" gorm:"primaryKey"`
	RunID           string  `json:"run_id" gorm:"index"`
	SensorID        string  `json:"sensor_id"`
	Slot            int     `json:"slot"`
	Generation      int     `json:"generation"`
	BestFitness     float64 `json:"best_fitness"`
	AverageFitness  float64 `json:"average_fitness"`
	InfeasibleCount int     `json:"infeasible_count"`
	ElapsedMs       float64 `json:"elapsed_ms"`
}
